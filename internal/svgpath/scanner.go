package svgpath

import (
	"github.com/tdewolff/parse/v2/strconv"
)

// scanner walks path data. Commas and whitespace separate tokens and runs of
// separators collapse.
type scanner struct {
	data []byte
	pos  int
}

func newScanner(d string) *scanner {
	return &scanner{data: []byte(d)}
}

func isSeparator(c byte) bool {
	return c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func (s *scanner) skipSeparators() {
	for s.pos < len(s.data) && isSeparator(s.data[s.pos]) {
		s.pos++
	}
}

func (s *scanner) done() bool {
	s.skipSeparators()
	return s.pos >= len(s.data)
}

// letter returns the command letter at the current position, if any.
func (s *scanner) letter() (byte, bool) {
	s.skipSeparators()
	if s.pos < len(s.data) && isLetter(s.data[s.pos]) {
		return s.data[s.pos], true
	}
	return 0, false
}

func (s *scanner) advance() {
	s.pos++
}

// number consumes one floating point literal.
func (s *scanner) number() (float64, bool) {
	s.skipSeparators()
	if s.pos >= len(s.data) || isLetter(s.data[s.pos]) {
		return 0, false
	}
	f, n := strconv.ParseFloat(s.data[s.pos:])
	if n == 0 {
		return 0, false
	}
	s.pos += n
	return f, true
}

func (s *scanner) point() (Point, bool) {
	x, ok := s.number()
	if !ok {
		return Point{}, false
	}
	y, ok := s.number()
	if !ok {
		return Point{}, false
	}
	return Point{x, y}, true
}
