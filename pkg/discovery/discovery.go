package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/log-word-counter/internal/common"
)

var (
	// ErrDirUnreadable is returned when the input directory cannot be opened.
	ErrDirUnreadable = errors.New("directory unreadable")
	// ErrNoFiles is returned by callers that found no matching entries.
	ErrNoFiles = errors.New("no matching files")
)

// Listing identifies a file list so processes can check they all see the same one.
type Listing struct {
	Count  int
	Digest string
}

// List returns the entries of dir whose name contains marker, as paths joined
// with dir. Directories are skipped. The order is the lexical order of names,
// so every process looking at the same directory derives the same list.
func List(dir, marker string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirUnreadable, dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), marker) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// Fingerprint summarizes an ordered file list. Only base names are hashed so
// hosts mounting the corpus at different paths still agree.
func Fingerprint(files []string) Listing {
	var sb strings.Builder
	for _, f := range files {
		sb.WriteString(filepath.Base(f))
		sb.WriteByte('\n')
	}
	return Listing{
		Count:  len(files),
		Digest: common.ContentHash([]byte(sb.String())),
	}
}
