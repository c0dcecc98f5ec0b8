package count

import (
	"log/slog"

	"github.com/dtnitsch/log-word-counter/models"
)

// Options configure one rank's run.
type Options struct {
	Config models.CountConfig
	// Files is the discovered input; nil makes Execute discover it.
	Files  []string
	Host   string
	Logger *slog.Logger
}

// Summary is the global result printed by rank 0.
type Summary struct {
	Status         string        `json:"status" yaml:"status"`
	Files          int           `json:"files" yaml:"files"`
	TotalWords     int64         `json:"total_words" yaml:"total_words"`
	TotalLines     int64         `json:"total_lines" yaml:"total_lines"`
	Unreadable     int           `json:"unreadable" yaml:"unreadable"`
	Processes      int           `json:"processes" yaml:"processes"`
	Threads        int           `json:"threads_per_process" yaml:"threads_per_process"`
	ElapsedSeconds float64       `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Ranks          []RankSummary `json:"ranks" yaml:"ranks"`
}

// RankSummary is one process's line in the summary.
type RankSummary struct {
	Rank       int      `json:"rank" yaml:"rank"`
	Host       string   `json:"host" yaml:"host"`
	Files      int      `json:"files" yaml:"files"`
	Words      int64    `json:"words" yaml:"words"`
	Unreadable int      `json:"unreadable,omitempty" yaml:"unreadable,omitempty"`
	TopFiles   []string `json:"top_files,omitempty" yaml:"top_files,omitempty"`
}
