package cluster

import (
	"context"
	"fmt"
	"sync"

	"github.com/dtnitsch/log-word-counter/pkg/discovery"
	"github.com/dtnitsch/log-word-counter/pkg/mapreduce"
)

// round gathers one value per rank and releases every submitter together
// once the last value arrives.
type round[T any] struct {
	mu     sync.Mutex
	values []T
	got    []bool
	n      int
	done   chan struct{}
}

func newRound[T any](size int) *round[T] {
	return &round[T]{
		values: make([]T, size),
		got:    make([]bool, size),
		done:   make(chan struct{}),
	}
}

// submit records v for rank and blocks until all ranks have submitted.
// The returned slice is indexed by rank and must not be modified.
func (r *round[T]) submit(ctx context.Context, rank int, v T) ([]T, error) {
	r.mu.Lock()
	if rank < 0 || rank >= len(r.values) {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: rank %d not in [0,%d)", ErrRankOutOfRange, rank, len(r.values))
	}
	if r.got[rank] {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: rank %d", ErrDuplicateRank, rank)
	}
	r.got[rank] = true
	r.values[rank] = v
	r.n++
	if r.n == len(r.values) {
		close(r.done)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		// A finished round wins over a late cancellation.
		select {
		case <-r.done:
		default:
			return nil, ctx.Err()
		}
	}
	return r.values, nil
}

// vote is what one rank brings to Agree: the group size it was started
// with and the file list it discovered.
type vote struct {
	Size    int
	Listing discovery.Listing
}

// Hub runs the group's collectives. It lives in the root process.
type Hub struct {
	size   int
	agree  *round[vote]
	reduce *round[Contribution]
}

// NewHub returns a hub for a group of size members.
func NewHub(size int) *Hub {
	return &Hub{
		size:   size,
		agree:  newRound[vote](size),
		reduce: newRound[Contribution](size),
	}
}

// Size returns the number of members the hub waits for.
func (h *Hub) Size() int {
	return h.size
}

// Agree blocks until every rank submitted its group size and listing. It
// fails on every rank if any rank was started with another size or sees
// another file list.
func (h *Hub) Agree(ctx context.Context, rank, size int, l discovery.Listing) error {
	all, err := h.agree.submit(ctx, rank, vote{Size: size, Listing: l})
	if err != nil {
		return err
	}
	for r, v := range all {
		if v.Size != h.size {
			return fmt.Errorf("%w: rank %d was started with size %d, coordinator expects %d",
				ErrSizeMismatch, r, v.Size, h.size)
		}
	}
	want := all[Root].Listing
	for r, v := range all {
		if v.Listing != want {
			return fmt.Errorf("%w: rank %d sees %d files (%.12s), rank %d sees %d files (%.12s)",
				ErrListingMismatch, Root, want.Count, want.Digest, r, v.Listing.Count, v.Listing.Digest)
		}
	}
	return nil
}

// Reduce blocks until every rank contributed. The root gets the combined
// result; every other rank gets an empty Result.
func (h *Hub) Reduce(ctx context.Context, c Contribution) (Result, error) {
	all, err := h.reduce.submit(ctx, c.Rank, c)
	if err != nil {
		return Result{}, err
	}
	if c.Rank != Root {
		return Result{}, nil
	}

	res := Result{Root: true, Ranks: make([]Contribution, len(all))}
	subtotals := make([]int64, len(all))
	for i, rc := range all {
		subtotals[i] = rc.Words
		res.Lines += rc.Lines
		res.Files += rc.Files
		res.Unreadable += rc.Unreadable
		res.Ranks[i] = rc
	}
	res.Total = mapreduce.Reduce(subtotals)
	return res, nil
}
