package list

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/log-word-counter/internal/count"
	"github.com/dtnitsch/log-word-counter/pkg/discovery"
	"github.com/dtnitsch/log-word-counter/pkg/mapreduce"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Assignment is the file list and the share each rank would count.
type Assignment struct {
	Dir    string      `json:"dir" yaml:"dir"`
	Files  int         `json:"files" yaml:"files"`
	Digest string      `json:"digest" yaml:"digest"`
	Ranks  []RankFiles `json:"ranks" yaml:"ranks"`
}

type RankFiles struct {
	Rank  int      `json:"rank" yaml:"rank"`
	Files []string `json:"files" yaml:"files"`
}

func ListAction(c *cli.Context) error {
	cfg, err := count.ResolveConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), count.ExitFailure)
	}

	a, err := Build(cfg.Dir, cfg.Suffix, c.Int("size"))
	if err != nil {
		return cli.Exit(err.Error(), count.ExitCode(err))
	}
	if err := Write(os.Stdout, a, cfg.Format); err != nil {
		return cli.Exit(fmt.Sprintf("failed to write listing: %v", err), count.ExitFailure)
	}
	return nil
}

// Build discovers the files in dir and assigns them to size ranks.
func Build(dir, suffix string, size int) (*Assignment, error) {
	if size < 1 {
		return nil, fmt.Errorf("size must be >= 1, got %d", size)
	}
	files, err := discovery.List(dir, suffix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %q files in %s", discovery.ErrNoFiles, suffix, dir)
	}

	fp := discovery.Fingerprint(files)
	a := &Assignment{Dir: dir, Files: fp.Count, Digest: fp.Digest, Ranks: make([]RankFiles, size)}
	for rank := range a.Ranks {
		items := mapreduce.Partition(files, rank, size)
		names := make([]string, len(items))
		for i, it := range items {
			names[i] = filepath.Base(it.Path)
		}
		a.Ranks[rank] = RankFiles{Rank: rank, Files: names}
	}
	return a, nil
}

// Write renders a as text, json or yaml.
func Write(w io.Writer, a *Assignment, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(a)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d files in %s (digest %.12s)\n", a.Files, a.Dir, a.Digest)
	for _, r := range a.Ranks {
		fmt.Fprintf(&sb, "rank %d: %d files\n", r.Rank, len(r.Files))
		for _, f := range r.Files {
			fmt.Fprintf(&sb, "  %s\n", f)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
