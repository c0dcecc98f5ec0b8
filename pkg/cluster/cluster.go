// Package cluster connects a fixed group of worker processes.
//
// A group has Size members identified by Rank (0..Size-1). Members share no
// memory; they meet at exactly two collective points:
//
//   - Agree: every member submits its group size and the fingerprint of the
//     file list it discovered. The call returns once all members have
//     submitted and fails on every member if any size or fingerprint differs.
//   - Reduce: every member submits its subtotal. The call returns once all
//     members have submitted; only rank 0 receives the combined result.
//
// Both collectives are served by a Hub owned by rank 0. Members reach it
// in-process (NewLocal) or over TCP with net/rpc (Listen, Dial).
package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/log-word-counter/pkg/discovery"
)

// Root is the rank that receives the reduction result.
const Root = 0

var (
	ErrListingMismatch = errors.New("file listing differs between processes")
	ErrSizeMismatch    = errors.New("group size differs between processes")
	ErrDuplicateRank   = errors.New("rank already submitted")
	ErrRankOutOfRange  = errors.New("rank out of range")
	ErrJobMismatch     = errors.New("job id does not match coordinator")
)

// Contribution is one process's share of the reduction.
type Contribution struct {
	Rank       int
	Host       string
	Words      int64
	Lines      int64
	Files      int
	Unreadable int
	Top        []string
}

// Result is the outcome of Reduce. Only the root's Result is populated.
type Result struct {
	Root       bool
	Total      int64
	Lines      int64
	Files      int
	Unreadable int
	Ranks      []Contribution
}

// Group is one member's handle on the process group.
type Group interface {
	Rank() int
	Size() int
	Agree(ctx context.Context, l discovery.Listing) error
	Reduce(ctx context.Context, c Contribution) (Result, error)
	Close() error
}

// Options describe how a process joins its group.
type Options struct {
	Rank  int
	Size  int
	Addr  string
	JobID string
	// DialTimeout bounds how long a non-root member keeps retrying the coordinator.
	DialTimeout time.Duration
	// Linger bounds how long the root waits for members to hang up on Close.
	Linger time.Duration
	Logger *slog.Logger
}

const (
	DefaultDialTimeout = 30 * time.Second
	DefaultLinger      = 5 * time.Second
)

func (o *Options) validate() error {
	if o.Size < 1 {
		return fmt.Errorf("%w: size must be >= 1, got %d", ErrRankOutOfRange, o.Size)
	}
	if o.Rank < 0 || o.Rank >= o.Size {
		return fmt.Errorf("%w: rank %d not in [0,%d)", ErrRankOutOfRange, o.Rank, o.Size)
	}
	if o.Size > 1 && o.Addr == "" {
		return errors.New("coordinator address is required when size > 1")
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.Linger <= 0 {
		o.Linger = DefaultLinger
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return nil
}

// Join returns this process's group handle: an in-process group of one when
// Size is 1, the TCP coordinator for rank 0, and a TCP client otherwise.
func Join(ctx context.Context, opts Options) (Group, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Size == 1 {
		return NewLocal(1)[0], nil
	}
	if opts.Rank == Root {
		c, err := Listen(opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	m, err := Dial(ctx, opts)
	if err != nil {
		return nil, err
	}
	return m, nil
}
