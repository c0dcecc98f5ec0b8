package count

import (
	"fmt"
	"io"
	"sync"

	"github.com/dtnitsch/log-word-counter/models"
	"github.com/dtnitsch/log-word-counter/pkg/pool"
	"github.com/dustin/go-humanize"
)

// console prints human-readable progress for one rank. It is the pool's
// Observer, so every method may run on any worker goroutine.
type console struct {
	mu       sync.Mutex
	w        io.Writer
	host     string
	rank     int
	progress bool
}

func newConsole(w io.Writer, host string, rank int, progress bool) *console {
	return &console{w: w, host: host, rank: rank, progress: progress}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *console) Startup(files, threads int) {
	c.printf("[%s rank %d] processing ~%d files with %d threads\n", c.host, c.rank, files, threads)
}

func (c *console) OnPart(r pool.PartReport) {
	if !c.progress {
		return
	}
	if r.Err != nil {
		c.printf("[%s rank %d thread %d] %v\n", c.host, c.rank, r.Thread, r.Err)
		return
	}
	c.printf("[%s rank %d thread %d] counted %s words in %s (part %d/%d)\n",
		c.host, c.rank, r.Thread, humanize.Comma(r.Stats.Words), r.Item.Path, r.Part+1, r.Parts)
}

func (c *console) OnFile(fr models.FileResult) {
	if fr.Err != nil {
		c.printf("[%s rank %d] skipped %s: %v\n", c.host, c.rank, fr.Item.Path, fr.Err)
		return
	}
	if fr.Truncated > 0 {
		c.printf("[%s rank %d] total words in %s: %s (%d long lines truncated)\n",
			c.host, c.rank, fr.Item.Path, humanize.Comma(fr.Words), fr.Truncated)
		return
	}
	c.printf("[%s rank %d] total words in %s: %s\n", c.host, c.rank, fr.Item.Path, humanize.Comma(fr.Words))
}

func (c *console) ProcessTotal(r models.ProcessReport) {
	c.printf("[%s rank %d] TOTAL words processed by this process: %s\n", c.host, c.rank, humanize.Comma(r.Words))
}
