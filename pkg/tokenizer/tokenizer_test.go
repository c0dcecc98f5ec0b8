package tokenizer

import (
	"strings"
	"sync"
	"testing"
)

func TestCountWords(t *testing.T) {
	d := Default()

	tests := []struct {
		name string
		line string
		want int
	}{
		{name: "empty line", line: "", want: 0},
		{name: "only delimiters", line: " \t.,;:!?\"()\n", want: 0},
		{name: "mixed punctuation", line: "a,b;c d", want: 4},
		{name: "leading and trailing spaces", line: "  hello world  ", want: 2},
		{name: "trailing newline", line: "one two three\n", want: 3},
		{name: "quoted words", line: `say "hi" (twice)`, want: 3},
		{name: "non delimiter symbols stay in word", line: "user_id=42 ip-addr/32", want: 2},
		{name: "utf8 is not split", line: "año café", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.CountWords([]byte(tt.line)); got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.line, got, tt.want)
			}
		})
	}
}

func TestNewDelimiters_Custom(t *testing.T) {
	d := NewDelimiters("|")

	if got := d.CountWords([]byte("a b|c")); got != 2 {
		t.Errorf("CountWords() = %d, want 2", got)
	}
	if !d.IsDelimiter('|') {
		t.Error("IsDelimiter('|') = false, want true")
	}
	if d.IsDelimiter(' ') {
		t.Error("IsDelimiter(' ') = true, want false")
	}
}

func TestCountWords_ConcurrentUse(t *testing.T) {
	d := Default()
	line := []byte(strings.Repeat("alpha beta, gamma; ", 50))

	var wg sync.WaitGroup
	errs := make(chan int, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := d.CountWords(line); got != 150 {
					errs <- got
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for got := range errs {
		t.Errorf("concurrent CountWords() = %d, want 150", got)
	}
}
