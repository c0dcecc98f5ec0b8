package cluster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dtnitsch/log-word-counter/pkg/discovery"
)

var listing = discovery.Listing{Count: 3, Digest: "abc123"}

// runGroup drives every member through Agree and Reduce concurrently and
// returns the per-rank results and errors.
func runGroup(t *testing.T, members []Group, listings []discovery.Listing, words []int64) ([]Result, []error) {
	t.Helper()
	results := make([]Result, len(members))
	errs := make([]error, len(members))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i, g := range members {
		wg.Add(1)
		go func(i int, g Group) {
			defer wg.Done()
			if err := g.Agree(ctx, listings[i]); err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = g.Reduce(ctx, Contribution{Words: words[i], Files: 1, Lines: words[i] / 2})
		}(i, g)
	}
	wg.Wait()
	return results, errs
}

func same(n int) []discovery.Listing {
	ls := make([]discovery.Listing, n)
	for i := range ls {
		ls[i] = listing
	}
	return ls
}

func TestLocal_ReduceOnlyRootGetsTotal(t *testing.T) {
	tests := []struct {
		name  string
		words []int64
		want  int64
	}{
		{name: "single process", words: []int64{42}, want: 42},
		{name: "four processes", words: []int64{5, 0, 7, 100}, want: 112},
		{name: "all zero", words: []int64{0, 0, 0}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := NewLocal(len(tt.words))
			results, errs := runGroup(t, members, same(len(tt.words)), tt.words)

			for r, err := range errs {
				if err != nil {
					t.Fatalf("rank %d error = %v", r, err)
				}
			}
			if !results[0].Root || results[0].Total != tt.want {
				t.Errorf("root result = %+v, want Total %d", results[0], tt.want)
			}
			if results[0].Files != len(tt.words) {
				t.Errorf("root files = %d, want %d", results[0].Files, len(tt.words))
			}
			for r := 1; r < len(results); r++ {
				if results[r].Root || results[r].Total != 0 {
					t.Errorf("rank %d result = %+v, want empty", r, results[r])
				}
			}
			for r, rc := range results[0].Ranks {
				if rc.Rank != r || rc.Words != tt.words[r] {
					t.Errorf("Ranks[%d] = %+v, want rank %d words %d", r, rc, r, tt.words[r])
				}
			}
		})
	}
}

func TestLocal_ListingMismatchFailsEveryRank(t *testing.T) {
	members := NewLocal(3)
	listings := same(3)
	listings[2] = discovery.Listing{Count: 2, Digest: "zzz"}

	_, errs := runGroup(t, members, listings, []int64{1, 2, 3})
	for r, err := range errs {
		if !errors.Is(err, ErrListingMismatch) {
			t.Errorf("rank %d error = %v, want ErrListingMismatch", r, err)
		}
	}
}

func TestHub_DuplicateAndOutOfRangeRank(t *testing.T) {
	hub := NewHub(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		_, err := hub.Reduce(ctx, Contribution{Rank: 1})
		errc <- err
	}()

	// Wait for rank 1 to register before submitting it again.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.reduce.mu.Lock()
		got := hub.reduce.got[1]
		hub.reduce.mu.Unlock()
		if got || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := hub.Reduce(ctx, Contribution{Rank: 1}); !errors.Is(err, ErrDuplicateRank) {
		t.Errorf("Reduce() duplicate error = %v, want ErrDuplicateRank", err)
	}
	if _, err := hub.Reduce(ctx, Contribution{Rank: 5}); !errors.Is(err, ErrRankOutOfRange) {
		t.Errorf("Reduce() out of range error = %v, want ErrRankOutOfRange", err)
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("waiting Reduce() error = %v, want context.Canceled", err)
	}
}

func TestJoin_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "solo", opts: Options{Rank: 0, Size: 1}},
		{name: "zero size", opts: Options{Rank: 0, Size: 0}, wantErr: true},
		{name: "rank too large", opts: Options{Rank: 4, Size: 4, Addr: "127.0.0.1:0"}, wantErr: true},
		{name: "negative rank", opts: Options{Rank: -1, Size: 2, Addr: "127.0.0.1:0"}, wantErr: true},
		{name: "missing address", opts: Options{Rank: 1, Size: 2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Join(context.Background(), tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Join() error = %v, wantErr %v", err, tt.wantErr)
			}
			if g != nil {
				g.Close()
			}
		})
	}
}

func startTCPGroup(t *testing.T, size int, jobs []string) []Group {
	t.Helper()
	coord, err := Listen(Options{Rank: 0, Size: size, Addr: "127.0.0.1:0", JobID: jobs[0], Linger: time.Second})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	members := []Group{coord}
	for r := 1; r < size; r++ {
		m, err := Dial(context.Background(), Options{Rank: r, Size: size, Addr: coord.Addr(), JobID: jobs[r], DialTimeout: 5 * time.Second})
		if err != nil {
			t.Fatalf("Dial(rank %d) error = %v", r, err)
		}
		members = append(members, m)
	}
	t.Cleanup(func() {
		for i := len(members) - 1; i >= 0; i-- {
			members[i].Close()
		}
	})
	return members
}

func TestTCP_ReduceMatchesLocal(t *testing.T) {
	words := []int64{5, 0, 7, 1000}
	members := startTCPGroup(t, 4, []string{"job", "job", "job", "job"})

	results, errs := runGroup(t, members, same(4), words)
	for r, err := range errs {
		if err != nil {
			t.Fatalf("rank %d error = %v", r, err)
		}
	}
	if results[0].Total != 1012 {
		t.Errorf("root Total = %d, want 1012", results[0].Total)
	}
	if len(results[0].Ranks) != 4 || results[0].Ranks[3].Words != 1000 {
		t.Errorf("root Ranks = %+v", results[0].Ranks)
	}
	for r := 1; r < 4; r++ {
		if results[r].Root {
			t.Errorf("rank %d got root result", r)
		}
	}
}

func TestTCP_ListingMismatch(t *testing.T) {
	members := startTCPGroup(t, 2, []string{"job", "job"})
	listings := []discovery.Listing{listing, {Count: 4, Digest: "other"}}

	_, errs := runGroup(t, members, listings, []int64{1, 1})
	for r, err := range errs {
		if !errors.Is(err, ErrListingMismatch) {
			t.Errorf("rank %d error = %v, want ErrListingMismatch", r, err)
		}
	}
}

func TestTCP_JobMismatchRejected(t *testing.T) {
	members := startTCPGroup(t, 2, []string{"job-a", "job-b"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := members[1].Agree(ctx, listing); !errors.Is(err, ErrJobMismatch) {
		t.Errorf("Agree() error = %v, want ErrJobMismatch", err)
	}
}

func TestDial_GivesUpAfterTimeout(t *testing.T) {
	coord, err := Listen(Options{Rank: 0, Size: 2, Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := coord.Addr()
	coord.Close()

	_, err = Dial(context.Background(), Options{Rank: 1, Size: 2, Addr: addr, DialTimeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("Dial() error = nil, want unreachable coordinator")
	}
}

func TestHub_SizeMismatchFailsEveryRank(t *testing.T) {
	hub := NewHub(2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sizes := []int{2, 3}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for r, size := range sizes {
		wg.Add(1)
		go func(r, size int) {
			defer wg.Done()
			errs[r] = hub.Agree(ctx, r, size, listing)
		}(r, size)
	}
	wg.Wait()

	for r, err := range errs {
		if !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("rank %d Agree() error = %v, want ErrSizeMismatch", r, err)
		}
	}
}

func TestTCP_SizeMismatch(t *testing.T) {
	tests := []struct {
		name       string
		memberRank int
		memberSize int
		wantRoot   bool
	}{
		{name: "member thinks the group is larger", memberRank: 1, memberSize: 3, wantRoot: true},
		{name: "member rank outside coordinator group", memberRank: 2, memberSize: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord, err := Listen(Options{Rank: 0, Size: 2, Addr: "127.0.0.1:0", JobID: "job", Linger: time.Second})
			if err != nil {
				t.Fatalf("Listen() error = %v", err)
			}
			defer coord.Close()

			m, err := Dial(context.Background(), Options{Rank: tt.memberRank, Size: tt.memberSize, Addr: coord.Addr(), JobID: "job", DialTimeout: 5 * time.Second})
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			defer m.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			memberErr := make(chan error, 1)
			go func() { memberErr <- m.Agree(ctx, listing) }()

			if tt.wantRoot {
				if err := coord.Agree(ctx, listing); !errors.Is(err, ErrSizeMismatch) {
					t.Errorf("coordinator Agree() error = %v, want ErrSizeMismatch", err)
				}
			}
			if err := <-memberErr; !errors.Is(err, ErrSizeMismatch) {
				t.Errorf("member Agree() error = %v, want ErrSizeMismatch", err)
			}
		})
	}
}
