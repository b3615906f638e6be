package fyaml

import "unicode/utf8"

// Mode selects the accepted input dialect. It fixes the line-break set,
// the flow whitespace set and the escape repertoire before scanning
// starts.
type Mode int

const (
	ModeYAML12 Mode = iota
	ModeYAML11
	ModeJSON
)

// Sentinels returned by peek in place of a codepoint.
const (
	runeEOF     rune = -1
	runePartial rune = -2
	runeInvalid rune = -3
)

// reader is a UTF-8 lookahead cursor over an Input. It tracks the byte
// offset, line and column of the current position and knows which
// codepoints count as line breaks for the configured mode.
type reader struct {
	in      *Input
	off     int // absolute byte offset
	line    int // 1-based
	col     int // 0-based
	tabsize int
	mode    Mode

	lastWasCR bool
}

func newReader(in *Input, mode Mode, tabsize int) *reader {
	switch mode {
	case ModeYAML11:
		in.lb = lbCRNLNLP
	case ModeJSON:
		in.lb = lbCRNL
		in.json = true
	default:
		in.lb = lbCRNL
	}
	return &reader{in: in, line: 1, mode: mode, tabsize: tabsize}
}

// mark captures the current position.
func (r *reader) mark() Mark {
	return Mark{Offset: r.off, Line: r.line, Column: r.col}
}

// peek decodes the codepoint at the current position without consuming
// it. It returns runeEOF at end of stream, runePartial when a multi-byte
// sequence is cut off by EOF, and runeInvalid for ill-formed UTF-8.
func (r *reader) peek() rune {
	c, _ := r.decodeAt(r.off)
	return c
}

// peekAt decodes the n-th codepoint after the current one (peekAt(0) ==
// peek()).
func (r *reader) peekAt(n int) rune {
	off := r.off
	for {
		c, w := r.decodeAt(off)
		if n == 0 || c < 0 {
			return c
		}
		off += w
		n--
	}
}

func (r *reader) decodeAt(off int) (rune, int) {
	avail, err := r.in.ensure(off, utf8.UTFMax)
	if err != nil {
		return runeEOF, 0
	}
	if avail == 0 {
		return runeEOF, 0
	}
	b := r.in.bytesAt(off, off+avail)
	if len(b) > utf8.UTFMax {
		b = b[:utf8.UTFMax]
	}
	c, w := utf8.DecodeRune(b)
	if c == utf8.RuneError && w <= 1 {
		if !utf8.FullRune(b) && !r.in.eof {
			return runePartial, 0
		}
		if !utf8.FullRune(b) {
			// Truncated sequence at true EOF.
			return runeInvalid, 0
		}
		return runeInvalid, 0
	}
	return c, w
}

// advance consumes c, which must be the codepoint peek just returned,
// updating offset, line and column.
func (r *reader) advance(c rune) {
	w := utf8.RuneLen(c)
	if w < 0 {
		w = 1
	}
	r.off += w

	switch {
	case c == '\n':
		if r.lastWasCR {
			// Second half of CRLF: the CR already broke the line.
			r.lastWasCR = false
			return
		}
		r.line++
		r.col = 0
	case c == '\r':
		r.line++
		r.col = 0
		r.lastWasCR = true
	case r.isBreak(c):
		r.line++
		r.col = 0
		r.lastWasCR = false
	case c == '\t' && r.tabsize > 0:
		r.col += r.tabsize - r.col%r.tabsize
		r.lastWasCR = false
	default:
		r.col++
		r.lastWasCR = false
	}
}

// get consumes and returns the next codepoint.
func (r *reader) get() rune {
	c := r.peek()
	if c < 0 {
		return c
	}
	r.advance(c)
	return c
}

// skip consumes the next codepoint, which the caller has already peeked.
func (r *reader) skip() {
	if c := r.peek(); c >= 0 {
		r.advance(c)
	}
}

// skipBreak consumes one line break of any accepted form (CRLF counts as
// one).
func (r *reader) skipBreak() {
	c := r.peek()
	if c == '\r' {
		r.advance(c)
		if r.peek() == '\n' {
			r.advance('\n')
		}
		return
	}
	if r.isBreak(c) {
		r.advance(c)
	}
}

// isBreak reports whether c terminates a line under the current lb mode.
func (r *reader) isBreak(c rune) bool {
	if c == '\n' || c == '\r' {
		return true
	}
	if r.in.lb == lbCRNLNLP {
		return c == 0x85 || c == 0x2028 || c == 0x2029
	}
	return false
}

func (r *reader) isBlank(c rune) bool {
	return c == ' ' || c == '\t'
}

// isBlankOrBreakOrEOF reports whether c ends a plain token.
func (r *reader) isBlankOrBreakOrEOF(c rune) bool {
	return c == ' ' || c == '\t' || c == runeEOF || r.isBreak(c)
}

// skipBOM consumes an optional UTF-8 byte order mark at stream start.
func (r *reader) skipBOM() {
	if r.off != 0 {
		return
	}
	if avail, _ := r.in.ensure(0, 3); avail >= 3 {
		b := r.in.bytesAt(0, 3)
		if b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
			r.off = 3
		}
	}
}

// fillAtom builds an atom spanning [start, end) with the reader's mode
// context attached.
func (r *reader) fillAtom(start, end Mark, style Style) *Atom {
	a := &Atom{
		start:   start,
		end:     end,
		in:      r.in,
		gen:     r.in.Generation(),
		style:   style,
		tabsize: r.tabsize,
		json:    r.in.json,
	}
	r.in.ref()
	return a
}

// maybeChop relocates a streaming input's unread tail once the consumed
// prefix passes the chop threshold. Safe only between tokens; the scanner
// calls it when no atom is open and no simple key is pending.
func (r *reader) maybeChop() {
	if !r.in.streaming() {
		return
	}
	if r.off-r.in.base < r.in.chopThreshold() {
		return
	}
	old := r.in
	r.in = old.spawnTail(r.off)
	old.unref()
}
