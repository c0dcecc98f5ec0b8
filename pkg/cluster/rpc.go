package cluster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"strings"
	"sync"
	"time"

	"github.com/dtnitsch/log-word-counter/pkg/discovery"
)

// ServiceName is the net/rpc name the coordinator registers its hub under.
const ServiceName = "Hub"

type AgreeArgs struct {
	JobID   string
	Rank    int
	Size    int
	Listing discovery.Listing
}

type AgreeReply struct {
	OK bool
}

type ReduceArgs struct {
	JobID        string
	Contribution Contribution
}

type ReduceReply struct {
	OK bool
}

// Service exposes a Hub to remote members.
type Service struct {
	ctx   context.Context
	jobID string
	hub   *Hub
}

func (s *Service) Agree(args *AgreeArgs, reply *AgreeReply) error {
	if args.JobID != s.jobID {
		return fmt.Errorf("%w: got %q", ErrJobMismatch, args.JobID)
	}
	if args.Rank == Root {
		return fmt.Errorf("%w: rank %d is the coordinator", ErrDuplicateRank, Root)
	}
	if args.Size != s.hub.Size() && args.Rank >= s.hub.Size() {
		return fmt.Errorf("%w: rank %d was started with size %d, coordinator expects %d",
			ErrSizeMismatch, args.Rank, args.Size, s.hub.Size())
	}
	if err := s.hub.Agree(s.ctx, args.Rank, args.Size, args.Listing); err != nil {
		return err
	}
	reply.OK = true
	return nil
}

func (s *Service) Reduce(args *ReduceArgs, reply *ReduceReply) error {
	if args.JobID != s.jobID {
		return fmt.Errorf("%w: got %q", ErrJobMismatch, args.JobID)
	}
	if args.Contribution.Rank == Root {
		return fmt.Errorf("%w: rank %d is the coordinator", ErrDuplicateRank, Root)
	}
	if _, err := s.hub.Reduce(s.ctx, args.Contribution); err != nil {
		return err
	}
	reply.OK = true
	return nil
}

// Coordinator is rank 0 of a TCP group. It hosts the hub and takes part in
// the collectives itself.
type Coordinator struct {
	opts   Options
	hub    *Hub
	ln     net.Listener
	server *rpc.Server
	cancel context.CancelFunc

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// Listen starts the coordinator on opts.Addr.
func Listen(opts Options) (*Coordinator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Rank != Root {
		return nil, fmt.Errorf("%w: only rank %d can coordinate, got %d", ErrRankOutOfRange, Root, opts.Rank)
	}

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(opts.Size)
	server := rpc.NewServer()
	if err := server.RegisterName(ServiceName, &Service{ctx: ctx, jobID: opts.JobID, hub: hub}); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to register hub: %w", err)
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.Addr, err)
	}

	c := &Coordinator{
		opts:   opts,
		hub:    hub,
		ln:     ln,
		server: server,
		cancel: cancel,
		conns:  make(map[net.Conn]struct{}),
	}
	opts.Logger.Info("Coordinator listening", "addr", ln.Addr().String(), "size", opts.Size, "job", opts.JobID)
	c.wg.Add(1)
	go c.accept()
	return c, nil
}

func (c *Coordinator) accept() {
	defer c.wg.Done()
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			return
		}
		c.mu.Lock()
		c.conns[conn] = struct{}{}
		c.wg.Add(1)
		c.mu.Unlock()

		go func() {
			defer c.wg.Done()
			c.server.ServeConn(conn)
			c.mu.Lock()
			delete(c.conns, conn)
			c.mu.Unlock()
		}()
	}
}

// Addr returns the address the coordinator is listening on.
func (c *Coordinator) Addr() string {
	return c.ln.Addr().String()
}

func (c *Coordinator) Rank() int { return Root }
func (c *Coordinator) Size() int { return c.opts.Size }

func (c *Coordinator) Agree(ctx context.Context, l discovery.Listing) error {
	return c.hub.Agree(ctx, Root, c.opts.Size, l)
}

func (c *Coordinator) Reduce(ctx context.Context, contrib Contribution) (Result, error) {
	contrib.Rank = Root
	return c.hub.Reduce(ctx, contrib)
}

// Close stops accepting members, then waits up to Linger for connected
// members to hang up before dropping them.
func (c *Coordinator) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ln.Close()
		c.cancel()

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(c.opts.Linger):
			c.mu.Lock()
			n := len(c.conns)
			for conn := range c.conns {
				conn.Close()
			}
			c.mu.Unlock()
			c.opts.Logger.Warn("Dropped members that did not hang up", "count", n)
			<-done
		}
	})
	return err
}

// Member is a non-root rank of a TCP group.
type Member struct {
	opts   Options
	client *rpc.Client
}

// Dial connects to the coordinator, retrying until opts.DialTimeout passes.
func Dial(ctx context.Context, opts Options) (*Member, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Rank == Root {
		return nil, fmt.Errorf("%w: rank %d coordinates and cannot dial", ErrRankOutOfRange, Root)
	}

	deadline := time.Now().Add(opts.DialTimeout)
	backoff := 50 * time.Millisecond
	var d net.Dialer
	for attempt := 1; ; attempt++ {
		conn, err := d.DialContext(ctx, "tcp", opts.Addr)
		if err == nil {
			opts.Logger.Info("Joined coordinator", "addr", opts.Addr, "rank", opts.Rank, "attempts", attempt)
			return &Member{opts: opts, client: rpc.NewClient(conn)}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("failed to reach coordinator %s after %d attempts: %w", opts.Addr, attempt, err)
		}
		opts.Logger.Debug("Coordinator not ready, retrying", "addr", opts.Addr, "attempt", attempt, "error", err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff = min(backoff*2, time.Second)
	}
}

func (m *Member) Rank() int { return m.opts.Rank }
func (m *Member) Size() int { return m.opts.Size }

func (m *Member) Agree(ctx context.Context, l discovery.Listing) error {
	args := &AgreeArgs{JobID: m.opts.JobID, Rank: m.opts.Rank, Size: m.opts.Size, Listing: l}
	return m.call(ctx, "Agree", args, &AgreeReply{})
}

// Reduce sends this rank's contribution and waits for the group to finish.
// The returned Result is always empty; only rank 0 sees the total.
func (m *Member) Reduce(ctx context.Context, c Contribution) (Result, error) {
	c.Rank = m.opts.Rank
	args := &ReduceArgs{JobID: m.opts.JobID, Contribution: c}
	if err := m.call(ctx, "Reduce", args, &ReduceReply{}); err != nil {
		return Result{}, err
	}
	return Result{}, nil
}

func (m *Member) Close() error {
	return m.client.Close()
}

func (m *Member) call(ctx context.Context, method string, args, reply any) error {
	call := m.client.Go(ServiceName+"."+method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		return remoteError(call.Error)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// remoteError restores the sentinel errors that net/rpc flattens to strings.
func remoteError(err error) error {
	var se rpc.ServerError
	if !errors.As(err, &se) {
		return err
	}
	msg := string(se)
	for _, sentinel := range []error{ErrListingMismatch, ErrSizeMismatch, ErrDuplicateRank, ErrRankOutOfRange, ErrJobMismatch} {
		if strings.HasPrefix(msg, sentinel.Error()) {
			return fmt.Errorf("%w%s", sentinel, strings.TrimPrefix(msg, sentinel.Error()))
		}
	}
	return err
}
