package pool

import "sync/atomic"

// Tally is a word counter that any number of goroutines may add to.
type Tally struct {
	words     atomic.Int64
	lines     atomic.Int64
	truncated atomic.Int64
}

// Add folds one partial count into the tally.
func (t *Tally) Add(words, lines, truncated int64) {
	t.words.Add(words)
	t.lines.Add(lines)
	t.truncated.Add(truncated)
}

func (t *Tally) Words() int64     { return t.words.Load() }
func (t *Tally) Lines() int64     { return t.lines.Load() }
func (t *Tally) Truncated() int64 { return t.truncated.Load() }
