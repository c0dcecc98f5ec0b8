package counter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/dtnitsch/log-word-counter/pkg/tokenizer"
)

// DefaultMaxLineBytes is how much of a single line is tokenized.
const DefaultMaxLineBytes = 1000

const readerSize = 64 * 1024

// UnreadableError reports a file that could not be opened or read.
// The file contributes zero words; the caller keeps going.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("file unreadable: %s: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error { return e.Err }

// IsUnreadable reports whether err carries an *UnreadableError.
func IsUnreadable(err error) bool {
	var u *UnreadableError
	return errors.As(err, &u)
}

// Stats is the outcome of counting one file or one segment of it.
type Stats struct {
	Words int64
	Lines int64
	// Truncated counts lines longer than MaxLineBytes; only their prefix was tokenized.
	Truncated int64
}

// Add folds o into s.
func (s *Stats) Add(o Stats) {
	s.Words += o.Words
	s.Lines += o.Lines
	s.Truncated += o.Truncated
}

// Counter counts words in files line by line.
type Counter struct {
	Delims       tokenizer.Delimiters
	MaxLineBytes int
}

// New returns a Counter. maxLineBytes <= 0 selects DefaultMaxLineBytes.
func New(delims tokenizer.Delimiters, maxLineBytes int) *Counter {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &Counter{Delims: delims, MaxLineBytes: maxLineBytes}
}

// CountFile counts every line of path sequentially.
func (c *Counter) CountFile(path string) (Stats, error) {
	return c.CountSegment(path, Segment{Start: 0, End: math.MaxInt64})
}

// CountSegment counts the lines of path whose first byte lies in seg.
// A line starting inside seg is read to its end even if that is past seg.End,
// so adjacent segments from Split never count a line twice or miss one.
func (c *Counter) CountSegment(path string, seg Segment) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, &UnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	if seg.Empty() {
		return Stats{}, nil
	}

	pos := seg.Start
	var prev [1]byte
	if pos > 0 {
		if _, err := f.ReadAt(prev[:], pos-1); err != nil {
			if err == io.EOF {
				return Stats{}, nil
			}
			return Stats{}, &UnreadableError{Path: path, Err: err}
		}
		if _, err := f.Seek(pos, io.SeekStart); err != nil {
			return Stats{}, &UnreadableError{Path: path, Err: err}
		}
	}

	r := bufio.NewReaderSize(f, readerSize)
	buf := make([]byte, 0, c.MaxLineBytes)

	// Mid-line start: the line belongs to the previous segment.
	if pos > 0 && prev[0] != '\n' {
		_, n, _, err := c.readLine(r, buf)
		pos += n
		if err == io.EOF {
			return Stats{}, nil
		}
		if err != nil {
			return Stats{}, &UnreadableError{Path: path, Err: err}
		}
	}

	var st Stats
	for pos < seg.End {
		line, n, truncated, err := c.readLine(r, buf)
		if n > 0 {
			pos += n
			st.Lines++
			st.Words += int64(c.Delims.CountWords(line))
			if truncated {
				st.Truncated++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Stats{}, &UnreadableError{Path: path, Err: err}
		}
	}
	return st, nil
}

// readLine consumes one line from r and returns at most MaxLineBytes of it
// without the trailing newline. n is the number of bytes consumed.
func (c *Counter) readLine(r *bufio.Reader, buf []byte) (line []byte, n int64, truncated bool, err error) {
	line = buf[:0]
	for {
		chunk, rerr := r.ReadSlice('\n')
		n += int64(len(chunk))
		if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
			chunk = chunk[:len(chunk)-1]
		}
		room := c.MaxLineBytes - len(line)
		if len(chunk) > room {
			chunk = chunk[:room]
			truncated = true
		}
		line = append(line, chunk...)
		if rerr == bufio.ErrBufferFull {
			continue
		}
		return line, n, truncated, rerr
	}
}
