package counter

// Segment is a half-open byte range [Start, End) of a file.
type Segment struct {
	Start int64
	End   int64
}

// Empty reports whether the segment covers no bytes.
func (s Segment) Empty() bool {
	return s.End <= s.Start
}

// Split cuts [0,size) into parts contiguous, disjoint segments.
// Sizes differ by at most one byte; trailing segments are empty when size < parts.
func Split(size int64, parts int) []Segment {
	if parts < 1 {
		parts = 1
	}
	if size < 0 {
		size = 0
	}

	segs := make([]Segment, parts)
	chunk := size / int64(parts)
	rem := size % int64(parts)

	var start int64
	for i := range segs {
		n := chunk
		if int64(i) < rem {
			n++
		}
		segs[i] = Segment{Start: start, End: start + n}
		start += n
	}
	return segs
}
