package mapreduce

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dtnitsch/log-word-counter/models"
)

// TopFiles returns the n readable files with the most words as "name:count"
// strings (e.g., "app-2024-01-01.log:1153"), largest first.
// Ties keep list order so the output is deterministic.
func TopFiles(results []models.FileResult, n int) []string {
	ss := make([]models.FileResult, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			ss = append(ss, r)
		}
	}

	sort.SliceStable(ss, func(i, j int) bool {
		if ss[i].Words != ss[j].Words {
			return ss[i].Words > ss[j].Words
		}
		return ss[i].Item.Index < ss[j].Item.Index
	})

	limit := n
	if len(ss) < n {
		limit = len(ss)
	}
	if limit < 0 {
		limit = 0
	}

	top := make([]string, limit)
	for i := 0; i < limit; i++ {
		top[i] = fmt.Sprintf("%s:%d", filepath.Base(ss[i].Item.Path), ss[i].Words)
	}
	return top
}
