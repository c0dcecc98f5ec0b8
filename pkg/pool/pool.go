// Package pool runs the file counter across a fixed set of worker goroutines.
//
// Every file is cut into one byte segment per worker. Each worker counts the
// lines that start in its segment, opening its own handle on the file, and
// adds its partial count to the file's Tally. A file total is only published
// once every part has reported; if any part failed the tally is dropped and
// the file counts as zero.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dtnitsch/log-word-counter/models"
	"github.com/dtnitsch/log-word-counter/pkg/counter"
)

// PartReport describes one worker's pass over one segment of a file.
type PartReport struct {
	Item    models.WorkItem
	Thread  int
	Part    int
	Parts   int
	Segment counter.Segment
	Stats   counter.Stats
	Err     error
}

// Observer receives progress events. Implementations must be safe for
// concurrent use: OnPart is called from every worker goroutine.
type Observer interface {
	OnPart(PartReport)
	OnFile(models.FileResult)
}

type job struct {
	item  models.WorkItem
	part  int
	parts int
	seg   counter.Segment
	tally *Tally
	done  chan<- error
}

// Pool is a fixed-size set of counting goroutines.
type Pool struct {
	threads int
	counter *counter.Counter
	obs     Observer
	logger  *slog.Logger

	jobs      chan job
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts threads workers. obs may be nil.
func New(threads int, c *counter.Counter, obs Observer, logger *slog.Logger) *Pool {
	if threads < 1 {
		threads = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Pool{
		threads: threads,
		counter: c,
		obs:     obs,
		logger:  logger,
		jobs:    make(chan job),
	}
	for w := 0; w < threads; w++ {
		p.wg.Add(1)
		go p.worker(w)
	}
	return p
}

// Threads returns the pool size.
func (p *Pool) Threads() int {
	return p.threads
}

// Close stops the workers and waits for them to exit.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for j := range p.jobs {
		st, err := p.counter.CountSegment(j.item.Path, j.seg)
		if err == nil {
			j.tally.Add(st.Words, st.Lines, st.Truncated)
		}
		p.logger.Debug("Part counted", "thread", id, "file", j.item.Path, "part", j.part, "words", st.Words, "error", err)
		if p.obs != nil {
			p.obs.OnPart(PartReport{
				Item:    j.item,
				Thread:  id,
				Part:    j.part,
				Parts:   j.parts,
				Segment: j.seg,
				Stats:   st,
				Err:     err,
			})
		}
		j.done <- err
	}
}

// CountFile counts one file across all workers.
// Unreadable files are reported through FileResult.Err with zero words;
// the returned error is only non-nil when ctx ends first.
func (p *Pool) CountFile(ctx context.Context, item models.WorkItem) (models.FileResult, error) {
	started := time.Now()
	res := models.FileResult{Item: item, Parts: p.threads}

	info, err := os.Stat(item.Path)
	if err == nil && info.IsDir() {
		err = errors.New("is a directory")
	}
	if err != nil {
		res.Err = &counter.UnreadableError{Path: item.Path, Err: err}
		res.Parts = 0
		return p.finish(res, started), nil
	}

	segs := counter.Split(info.Size(), p.threads)
	var tally Tally
	done := make(chan error, len(segs))

	for i, seg := range segs {
		j := job{item: item, part: i, parts: len(segs), seg: seg, tally: &tally, done: done}
		select {
		case p.jobs <- j:
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}

	var partErr error
	for range segs {
		select {
		case err := <-done:
			if err != nil && partErr == nil {
				partErr = err
			}
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}

	if partErr != nil {
		res.Err = partErr
		return p.finish(res, started), nil
	}

	res.Words = tally.Words()
	res.Lines = tally.Lines()
	res.Truncated = tally.Truncated()
	return p.finish(res, started), nil
}

func (p *Pool) finish(res models.FileResult, started time.Time) models.FileResult {
	res.Duration = time.Since(started)

	switch {
	case res.Err != nil:
		p.logger.Warn("File unreadable, counting as zero", "file", res.Item.Path, "error", res.Err)
	case res.Truncated > 0:
		p.logger.Warn("Long lines truncated", "file", res.Item.Path, "lines", res.Truncated, "max_line_bytes", p.counter.MaxLineBytes)
	}
	p.logger.Info("File counted", "file", res.Item.Path, "words", res.Words, "parts", res.Parts, "duration_ms", res.Duration.Milliseconds())

	if p.obs != nil {
		p.obs.OnFile(res)
	}
	return res
}

// Run counts items one after another and returns the process subtotal.
// It stops early only when ctx ends.
func (p *Pool) Run(ctx context.Context, items []models.WorkItem) (models.ProcessReport, error) {
	started := time.Now()
	report := models.ProcessReport{Files: make([]models.FileResult, 0, len(items))}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(started)
			return report, err
		}
		fr, err := p.CountFile(ctx, item)
		if err != nil {
			report.Duration = time.Since(started)
			return report, err
		}
		report.Add(fr)
	}

	report.Duration = time.Since(started)
	return report, nil
}
