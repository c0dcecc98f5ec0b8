package tokenizer

// DefaultDelimiters separates words in log lines: whitespace plus common punctuation.
const DefaultDelimiters = " \t\n.,;:!?\"()"

// Delimiters is a byte set of word separators.
// It is a plain value with no cursor, so a single set can be shared by any number of goroutines.
type Delimiters [256]bool

// NewDelimiters builds a delimiter set from every byte of chars.
func NewDelimiters(chars string) Delimiters {
	var d Delimiters
	for i := 0; i < len(chars); i++ {
		d[chars[i]] = true
	}
	return d
}

// Default returns the set built from DefaultDelimiters.
func Default() Delimiters {
	return NewDelimiters(DefaultDelimiters)
}

// IsDelimiter reports whether b separates words.
func (d *Delimiters) IsDelimiter(b byte) bool {
	return d[b]
}

// CountWords returns the number of maximal non-delimiter runs in line.
func (d *Delimiters) CountWords(line []byte) int {
	count := 0
	inWord := false
	for _, b := range line {
		if d.IsDelimiter(b) {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
