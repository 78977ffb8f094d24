package svgpath

import (
	"fmt"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// state is the pen state threaded through interpretation.
type state struct {
	cursor Point
	start  Point
	open   bool // a subpath is in progress and start is valid

	last        Kind
	hasLast     bool
	lastControl Point // final control point of the previous curve
}

// reflected returns the implicit first control point of a smooth curve:
// the previous control point mirrored through the cursor when the previous
// command belongs to the same curve family, else the cursor itself.
func (st *state) reflected(sameFamily func(Kind) bool) Point {
	if st.hasLast && sameFamily(st.last) {
		return st.lastControl.ReflectAcross(st.cursor)
	}
	return st.cursor
}

func (st *state) emit(p *Path, kind Kind, pts ...Point) {
	p.Commands = append(p.Commands, Command{Kind: kind, Points: pts})
	st.cursor = pts[len(pts)-1]
	st.last = kind
	st.hasLast = true
}

// Parse interprets path data with the pen starting at the origin.
func Parse(d string) (*Path, error) {
	return ParseFrom(d, Point{})
}

// ParseFrom interprets path data with the pen starting at origin.
//
// Supported commands are M, L, H, V, C, S, Q, T and Z in absolute (upper
// case) and relative (lower case) form. A command letter may be omitted to
// repeat the previous command; a repeated moveto draws lines.
func ParseFrom(d string, origin Point) (*Path, error) {
	sc := newScanner(d)
	st := state{cursor: origin}
	path := &Path{origin: origin}

	var cmd byte // 0 when no command may be repeated
	for !sc.done() {
		at := sc.pos
		if c, ok := sc.letter(); ok {
			if !isCommand(c) {
				return nil, domain.MalformedPathError(
					fmt.Sprintf("unsupported command %q at position %d", c, at), nil)
			}
			sc.advance()
			cmd = c
		} else if cmd == 0 {
			return nil, domain.MalformedPathError(
				fmt.Sprintf("implicit command with no open subpath at position %d", at), nil)
		}

		next, err := st.step(path, sc, cmd)
		if err != nil {
			return nil, err
		}
		cmd = next
	}
	return path, nil
}

func isCommand(c byte) bool {
	switch c {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'Z', 'z':
		return true
	}
	return false
}

func isRelative(c byte) bool {
	return 'a' <= c && c <= 'z'
}

// step interprets one argument group of cmd and returns the command that a
// following bare argument group repeats.
func (st *state) step(path *Path, sc *scanner, cmd byte) (byte, error) {
	rel := isRelative(cmd)
	upper := cmd &^ 0x20
	at := sc.pos

	missing := func() error {
		return domain.MalformedPathError(
			fmt.Sprintf("missing argument for command %q at position %d", cmd, at), nil)
	}
	// abs resolves a coordinate pair read for the current command.
	abs := func(p Point) Point {
		if rel {
			return p.Add(st.cursor)
		}
		return p
	}

	if upper != 'Z' && !st.open {
		st.start = st.cursor
		st.open = true
	}

	switch upper {
	case 'M':
		p, ok := sc.point()
		if !ok {
			return 0, missing()
		}
		p = abs(p)
		st.emit(path, MoveTo, p)
		st.start = p
		st.open = true
		if rel {
			return 'l', nil
		}
		return 'L', nil

	case 'L':
		p, ok := sc.point()
		if !ok {
			return 0, missing()
		}
		st.emit(path, LineTo, abs(p))

	case 'H':
		x, ok := sc.number()
		if !ok {
			return 0, missing()
		}
		if rel {
			x += st.cursor.X
		}
		st.emit(path, HorizontalLineTo, Point{x, st.cursor.Y})

	case 'V':
		y, ok := sc.number()
		if !ok {
			return 0, missing()
		}
		if rel {
			y += st.cursor.Y
		}
		st.emit(path, VerticalLineTo, Point{st.cursor.X, y})

	case 'C':
		c1, ok1 := sc.point()
		c2, ok2 := sc.point()
		end, ok3 := sc.point()
		if !ok1 || !ok2 || !ok3 {
			return 0, missing()
		}
		c1, c2, end = abs(c1), abs(c2), abs(end)
		st.emit(path, CubicCurveTo, c1, c2, end)
		st.lastControl = c2

	case 'S':
		c1 := st.reflected(Kind.cubic)
		c2, ok1 := sc.point()
		end, ok2 := sc.point()
		if !ok1 || !ok2 {
			return 0, missing()
		}
		c2, end = abs(c2), abs(end)
		st.emit(path, SmoothCubicCurveTo, c1, c2, end)
		st.lastControl = c2

	case 'Q':
		c, ok1 := sc.point()
		end, ok2 := sc.point()
		if !ok1 || !ok2 {
			return 0, missing()
		}
		c, end = abs(c), abs(end)
		st.emit(path, QuadraticCurveTo, c, end)
		st.lastControl = c

	case 'T':
		c := st.reflected(Kind.quadratic)
		end, ok := sc.point()
		if !ok {
			return 0, missing()
		}
		st.emit(path, SmoothQuadraticCurveTo, c, abs(end))
		st.lastControl = c

	case 'Z':
		start := st.start
		if !st.open {
			start = st.cursor
		}
		if st.cursor != start {
			st.emit(path, LineTo, start)
		}
		st.emit(path, ClosePath, start)
		st.open = false
		return 0, nil
	}
	return cmd, nil
}
