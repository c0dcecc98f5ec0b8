package models

import "time"

// WorkItem is one discovered file and its position in the shared file list.
type WorkItem struct {
	Index int
	Path  string
}

// FileResult is the combined count for one WorkItem inside one process.
// Err is set when the file was unreadable; Words is then always zero.
type FileResult struct {
	Item      WorkItem
	Words     int64
	Lines     int64
	Truncated int64
	Parts     int
	Duration  time.Duration
	Err       error
}

// ProcessReport is the subtotal of one worker process.
type ProcessReport struct {
	Rank       int
	Files      []FileResult
	Words      int64
	Lines      int64
	Truncated  int64
	Unreadable int
	Duration   time.Duration
}

// Add folds a finished file into the report.
func (r *ProcessReport) Add(fr FileResult) {
	r.Files = append(r.Files, fr)
	if fr.Err != nil {
		r.Unreadable++
		return
	}
	r.Words += fr.Words
	r.Lines += fr.Lines
	r.Truncated += fr.Truncated
}
