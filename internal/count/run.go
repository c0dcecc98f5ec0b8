package count

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dtnitsch/log-word-counter/internal/common"
	"github.com/dtnitsch/log-word-counter/models"
	"github.com/dtnitsch/log-word-counter/pkg/cluster"
	"github.com/dtnitsch/log-word-counter/pkg/counter"
	"github.com/dtnitsch/log-word-counter/pkg/discovery"
	"github.com/dtnitsch/log-word-counter/pkg/mapreduce"
	"github.com/dtnitsch/log-word-counter/pkg/pool"
	"github.com/dtnitsch/log-word-counter/pkg/tokenizer"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// topFiles is how many of its largest files each rank reports.
const topFiles = 3

// Exit codes returned by the count command.
const (
	ExitOK      = 0
	ExitNoInput = 1
	ExitFailure = 2
)

// Discover lists the input files named by cfg. Finding none is an error,
// so a rank with nothing to count never joins its group.
func Discover(cfg models.CountConfig) ([]string, error) {
	files, err := discovery.List(cfg.Dir, cfg.Suffix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %q files in %s", discovery.ErrNoFiles, cfg.Suffix, cfg.Dir)
	}
	return files, nil
}

// Start runs one rank end to end: discover the input, join the group,
// execute and leave. Input errors are returned before any network traffic.
func Start(ctx context.Context, opts Options, gopts cluster.Options, out io.Writer) (*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	files, err := Discover(opts.Config)
	if err != nil {
		logger.Error("No input to count", "rank", gopts.Rank, "dir", opts.Config.Dir, "suffix", opts.Config.Suffix, "error", err)
		return nil, err
	}
	opts.Files = files

	if gopts.Logger == nil {
		gopts.Logger = logger.With("rank", gopts.Rank)
	}
	group, err := cluster.Join(ctx, gopts)
	if err != nil {
		return nil, fmt.Errorf("failed to join process group: %w", err)
	}
	defer group.Close()

	return Execute(ctx, opts, group, out)
}

// Execute runs one rank of a counting job on an already joined group:
// agree on the listing, count the rank's share, reduce.
// Options.Files is discovered here when the caller left it nil.
// Only rank 0 returns a Summary, which it has also written to out.
func Execute(ctx context.Context, opts Options, g cluster.Group, out io.Writer) (*Summary, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("rank", g.Rank())
	host := opts.Host
	if host == "" {
		host = common.Hostname()
	}
	started := time.Now()

	files := opts.Files
	if files == nil {
		var err error
		if files, err = Discover(cfg); err != nil {
			logger.Error("No input to count", "dir", cfg.Dir, "suffix", cfg.Suffix, "error", err)
			return nil, err
		}
	}

	listing := discovery.Fingerprint(files)
	if err := g.Agree(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to agree on file list: %w", err)
	}
	logger.Info("File list agreed", "files", listing.Count, "digest", listing.Digest, "size", g.Size())

	items := mapreduce.Partition(files, g.Rank(), g.Size())
	con := newConsole(out, host, g.Rank(), cfg.ShowProgress())

	c := counter.New(tokenizer.NewDelimiters(cfg.Delimiters), cfg.MaxLineBytes)
	p := pool.New(cfg.Threads, c, con, logger)
	con.Startup(mapreduce.Share(len(files), g.Size()), p.Threads())
	report, err := p.Run(ctx, items)
	p.Close()
	if err != nil {
		return nil, fmt.Errorf("counting interrupted: %w", err)
	}
	report.Rank = g.Rank()
	con.ProcessTotal(report)
	logger.Info("Process subtotal", "files", len(report.Files), "words", report.Words, "unreadable", report.Unreadable, "duration_ms", report.Duration.Milliseconds())

	res, err := g.Reduce(ctx, cluster.Contribution{
		Host:       host,
		Words:      report.Words,
		Lines:      report.Lines,
		Files:      len(report.Files),
		Unreadable: report.Unreadable,
		Top:        mapreduce.TopFiles(report.Files, topFiles),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reduce totals: %w", err)
	}
	if !res.Root {
		return nil, nil
	}

	sum := buildSummary(res, len(files), g.Size(), cfg.Threads, time.Since(started))
	if err := WriteSummary(out, sum, cfg.Format); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}
	logger.Info("Global total", "files", sum.Files, "words", sum.TotalWords, "unreadable", sum.Unreadable)
	return sum, nil
}

func buildSummary(res cluster.Result, files, size, threads int, elapsed time.Duration) *Summary {
	sum := &Summary{
		Status:         "success",
		Files:          files,
		TotalWords:     res.Total,
		TotalLines:     res.Lines,
		Unreadable:     res.Unreadable,
		Processes:      size,
		Threads:        threads,
		ElapsedSeconds: elapsed.Seconds(),
		Ranks:          make([]RankSummary, 0, len(res.Ranks)),
	}
	for _, rc := range res.Ranks {
		sum.Ranks = append(sum.Ranks, RankSummary{
			Rank:       rc.Rank,
			Host:       rc.Host,
			Files:      rc.Files,
			Words:      rc.Words,
			Unreadable: rc.Unreadable,
			TopFiles:   rc.Top,
		})
	}
	return sum
}

// WriteSummary renders sum as text, json or yaml.
func WriteSummary(w io.Writer, sum *Summary, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(sum)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return writeText(w, sum)
	}
}

func writeText(w io.Writer, sum *Summary) error {
	var sb strings.Builder
	sb.WriteString("\n===== GLOBAL SUMMARY =====\n")
	fmt.Fprintf(&sb, "Total files: %s\n", humanize.Comma(int64(sum.Files)))
	fmt.Fprintf(&sb, "Total words across all processes: %s\n", humanize.Comma(sum.TotalWords))
	if sum.Unreadable > 0 {
		fmt.Fprintf(&sb, "Unreadable files: %d\n", sum.Unreadable)
	}
	fmt.Fprintf(&sb, "Processes: %d x %d threads, elapsed %s\n",
		sum.Processes, sum.Threads, time.Duration(sum.ElapsedSeconds*float64(time.Second)).Round(time.Millisecond))
	if len(sum.Ranks) > 1 {
		for _, r := range sum.Ranks {
			fmt.Fprintf(&sb, "  rank %d (%s): %s words in %d files", r.Rank, r.Host, humanize.Comma(r.Words), r.Files)
			if len(r.TopFiles) > 0 {
				fmt.Fprintf(&sb, ", top %s", strings.Join(r.TopFiles, " "))
			}
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("==========================\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// ExitCode maps an Execute error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, discovery.ErrDirUnreadable), errors.Is(err, discovery.ErrNoFiles):
		return ExitNoInput
	default:
		return ExitFailure
	}
}
