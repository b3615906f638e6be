package fyaml

import (
	"bytes"
	"unicode/utf8"
)

// atomIter produces the decoded byte chunks of an atom according to its
// style. Chunks borrow from the input buffer where the source bytes are
// already the decoded bytes; decoded escapes live in small owned slices.
type atomIter struct {
	a   *Atom
	src []byte
	err error

	// Chunk queue. refill appends, next pops.
	q  [][]byte
	qh int

	// Line-oriented state (plain, single, literal, folded).
	lines         [][]byte
	lastHadBreak  bool
	li            int
	lastNonEmpty  int
	empties       int
	first         bool
	prevMI        bool
	indent        int
	chomped       bool
	finished      bool

	// Byte-oriented state (double-quoted, URI).
	pos int

	// read/getChar cursor.
	cur []byte
}

func newAtomIter(a *Atom) *atomIter {
	it := &atomIter{a: a, src: a.source(), first: true, lastNonEmpty: -1}
	switch a.style {
	case StylePlain, StyleSingleQuoted, StyleLiteral, StyleFolded:
		it.splitLines()
	}
	if a.style == StyleLiteral || a.style == StyleFolded {
		it.indent = a.increment
		if it.indent == 0 {
			// Auto-detect from the first non-empty content line.
			for _, l := range it.lines {
				if len(bytes.TrimLeft(l, " ")) > 0 {
					it.indent = len(l) - len(bytes.TrimLeft(l, " "))
					break
				}
			}
		}
	}
	return it
}

// splitLines cuts the source span into lines, recognizing the breaks the
// atom's input mode accepts.
func (it *atomIter) splitLines() {
	src := it.src
	start := 0
	for i := 0; i < len(src); {
		w := it.breakWidth(src, i)
		if w == 0 {
			i++
			continue
		}
		it.lines = append(it.lines, src[start:i])
		i += w
		start = i
	}
	if start < len(src) {
		it.lines = append(it.lines, src[start:])
		it.lastHadBreak = false
	} else {
		it.lastHadBreak = len(it.lines) > 0
	}
	for i, l := range it.lines {
		if len(it.trimContent(i, l)) > 0 {
			it.lastNonEmpty = i
		}
	}
}

// breakWidth returns the byte width of a line break starting at i, or 0.
func (it *atomIter) breakWidth(src []byte, i int) int {
	switch src[i] {
	case '\n':
		return 1
	case '\r':
		if i+1 < len(src) && src[i+1] == '\n' {
			return 2
		}
		return 1
	}
	if it.a.in != nil && it.a.in.lb == lbCRNLNLP {
		if src[i] == 0xC2 && i+1 < len(src) && src[i+1] == 0x85 {
			return 2 // NEL
		}
		if src[i] == 0xE2 && i+2 < len(src) && src[i+1] == 0x80 &&
			(src[i+2] == 0xA8 || src[i+2] == 0xA9) {
			return 3 // LS, PS
		}
	}
	return 0
}

func (it *atomIter) trimContent(i int, l []byte) []byte {
	switch it.a.style {
	case StyleLiteral, StyleFolded:
		return it.stripIndent(l)
	case StyleSingleQuoted:
		// Folding only discards whitespace next to the breaks it folds:
		// the first line keeps its leading run, the last its trailing run.
		if i > 0 {
			l = bytes.TrimLeft(l, " \t")
		}
		if i < len(it.lines)-1 {
			l = bytes.TrimRight(l, " \t")
		}
		return l
	default:
		return bytes.Trim(l, " \t")
	}
}

// stripIndent removes the block-scalar content indent. Anything indented
// beyond it is content.
func (it *atomIter) stripIndent(l []byte) []byte {
	n := 0
	for n < len(l) && n < it.indent && l[n] == ' ' {
		n++
	}
	return l[n:]
}

func (it *atomIter) push(b []byte) {
	if len(b) > 0 {
		it.q = append(it.q, b)
	}
}

var (
	chunkSpace = []byte{' '}
	chunkLF    = []byte{'\n'}
)

func (it *atomIter) pushBreaks(n int) {
	for i := 0; i < n; i++ {
		it.q = append(it.q, chunkLF)
	}
}

// next returns the next decoded chunk. The second result is false once
// the atom is exhausted.
func (it *atomIter) next() ([]byte, bool) {
	for it.qh >= len(it.q) && !it.finished && it.err == nil {
		it.q = it.q[:0]
		it.qh = 0
		it.refill()
	}
	if it.qh < len(it.q) {
		c := it.q[it.qh]
		it.qh++
		return c, true
	}
	return nil, false
}

func (it *atomIter) refill() {
	switch it.a.style {
	case StylePlain, StyleSingleQuoted:
		it.refillFolded(false)
	case StyleFolded:
		it.refillFolded(true)
	case StyleLiteral:
		it.refillLiteral()
	case StyleDoubleQuoted:
		it.refillDouble()
	case StyleURI:
		it.refillURI()
	default:
		it.finished = true
	}
}

// refillFolded handles the fold-to-space styles: plain and single-quoted
// (block==false) and folded block scalars (block==true).
func (it *atomIter) refillFolded(block bool) {
	for it.li < len(it.lines) {
		if block && it.li > it.lastNonEmpty {
			break
		}
		i := it.li
		l := it.lines[i]
		it.li++
		t := it.trimContent(i, l)
		if len(t) == 0 {
			if !it.first {
				it.empties++
			}
			continue
		}
		if !block && it.a.style == StyleSingleQuoted {
			t = unescapeSingle(t)
		}
		mi := block && (t[0] == ' ' || t[0] == '\t')
		switch {
		case it.first:
			it.first = false
		case block && (it.prevMI || mi):
			it.pushBreaks(it.empties + 1)
		case it.empties == 0:
			it.q = append(it.q, chunkSpace)
		default:
			it.pushBreaks(it.empties)
		}
		it.push(t)
		it.prevMI = mi
		it.empties = 0
		return
	}
	if block {
		it.finishChomp()
		return
	}
	it.finished = true
}

// refillLiteral emits block-scalar lines verbatim with their breaks.
func (it *atomIter) refillLiteral() {
	if it.li <= it.lastNonEmpty {
		l := it.stripIndent(it.lines[it.li])
		if it.li > 0 {
			it.q = append(it.q, chunkLF)
		}
		it.push(l)
		it.li++
		return
	}
	it.finishChomp()
}

// finishChomp applies the trailing-break policy once content is out.
func (it *atomIter) finishChomp() {
	if it.chomped {
		it.finished = true
		return
	}
	it.chomped = true
	it.finished = true
	if it.lastNonEmpty < 0 {
		// Scalar with no content: strip and clip produce the empty
		// string; keep retains every consumed break.
		if it.a.chomp == ChompKeep {
			n := len(it.lines) - 1
			if it.lastHadBreak {
				n++
			}
			it.pushBreaks(n)
		}
		return
	}
	switch it.a.chomp {
	case ChompStrip:
	case ChompClip:
		it.q = append(it.q, chunkLF)
	case ChompKeep:
		n := len(it.lines) - 1 - it.lastNonEmpty
		if it.lastHadBreak {
			n++
		}
		it.pushBreaks(n)
	}
}

// refillDouble decodes one run of a double-quoted scalar: a literal
// stretch, an escape sequence, or a folded break group.
func (it *atomIter) refillDouble() {
	src := it.src
	if it.pos >= len(src) {
		it.finished = true
		return
	}
	c := src[it.pos]

	if c == '\\' {
		it.decodeEscape()
		return
	}
	if it.breakWidth(src, it.pos) > 0 {
		it.foldDoubleBreaks()
		return
	}

	// Literal run up to the next backslash or break. Whitespace that
	// runs into a break is indentation or trailing space, dropped by the
	// fold, so stop literal runs before trailing whitespace.
	start := it.pos
	for it.pos < len(src) && src[it.pos] != '\\' && it.breakWidth(src, it.pos) == 0 {
		it.pos++
	}
	run := src[start:it.pos]
	if it.pos < len(src) && src[it.pos] != '\\' {
		// A break follows: trailing whitespace folds away.
		run = bytes.TrimRight(run, " \t")
	}
	it.push(run)
}

// foldDoubleBreaks folds a group of line breaks inside a double-quoted
// scalar, trimming the indentation of continuation lines.
func (it *atomIter) foldDoubleBreaks() {
	src := it.src
	breaks := 0
	for it.pos < len(src) {
		if w := it.breakWidth(src, it.pos); w > 0 {
			it.pos += w
			breaks++
			// Skip indentation of the next line.
			for it.pos < len(src) && (src[it.pos] == ' ' || src[it.pos] == '\t') {
				// Whitespace followed by another break is an empty line,
				// consumed here; whitespace followed by content is
				// indentation, also consumed.
				it.pos++
			}
			continue
		}
		break
	}
	if breaks == 1 {
		it.q = append(it.q, chunkSpace)
	} else {
		it.pushBreaks(breaks - 1)
	}
}

// decodeEscape decodes one backslash escape sequence.
func (it *atomIter) decodeEscape() {
	src := it.src
	it.pos++ // consume the backslash
	if it.pos >= len(src) {
		it.errorf("incomplete escape sequence")
		return
	}
	if w := it.breakWidth(src, it.pos); w > 0 {
		// Escaped line break: the break vanishes, continuation
		// indentation is dropped.
		it.pos += w
		for it.pos < len(src) && (src[it.pos] == ' ' || src[it.pos] == '\t') {
			it.pos++
		}
		return
	}

	e := src[it.pos]
	it.pos++
	if it.a.json && !jsonEscape(e) {
		it.errorf("escape '\\%c' is not allowed in JSON mode", e)
		return
	}
	switch e {
	case '0':
		it.push([]byte{0})
	case 'a':
		it.push([]byte{7})
	case 'b':
		it.push([]byte{8})
	case 't':
		it.push([]byte{9})
	case 'n':
		it.push(chunkLF)
	case 'v':
		it.push([]byte{11})
	case 'f':
		it.push([]byte{12})
	case 'r':
		it.push([]byte{13})
	case 'e':
		it.push([]byte{0x1b})
	case ' ':
		it.push(chunkSpace)
	case '"':
		it.push([]byte{'"'})
	case '/':
		it.push([]byte{'/'})
	case '\\':
		it.push([]byte{'\\'})
	case 'N':
		it.pushRune(0x85)
	case '_':
		it.pushRune(0xA0)
	case 'L':
		it.pushRune(0x2028)
	case 'P':
		it.pushRune(0x2029)
	case 'x':
		it.pushHexRune(2)
	case 'u':
		it.pushHexRune(4)
	case 'U':
		it.pushHexRune(8)
	default:
		it.errorf("invalid escape character '\\%c'", e)
	}
}

func jsonEscape(e byte) bool {
	switch e {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}

func (it *atomIter) pushRune(r rune) {
	buf := make([]byte, 4)
	n := utf8.EncodeRune(buf, r)
	it.q = append(it.q, buf[:n])
}

func (it *atomIter) pushHexRune(digits int) {
	src := it.src
	if it.pos+digits > len(src) {
		it.errorf("incomplete hex escape sequence")
		return
	}
	var r rune
	for i := 0; i < digits; i++ {
		d := hexValue(src[it.pos+i])
		if d < 0 {
			it.errorf("invalid hex digit '%c' in escape", src[it.pos+i])
			return
		}
		r = r<<4 | rune(d)
	}
	it.pos += digits
	if r > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
		it.errorf("escape decodes to an invalid codepoint U+%04X", r)
		return
	}
	it.pushRune(r)
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// refillURI decodes %HH sequences in a URI-style atom.
func (it *atomIter) refillURI() {
	src := it.src
	if it.pos >= len(src) {
		it.finished = true
		return
	}
	if src[it.pos] == '%' {
		if it.pos+3 > len(src) {
			it.errorf("truncated %%HH escape in URI")
			return
		}
		hi, lo := hexValue(src[it.pos+1]), hexValue(src[it.pos+2])
		if hi < 0 || lo < 0 {
			it.errorf("invalid %%HH escape in URI")
			return
		}
		it.push([]byte{byte(hi<<4 | lo)})
		it.pos += 3
		return
	}
	start := it.pos
	for it.pos < len(src) && src[it.pos] != '%' {
		it.pos++
	}
	it.push(src[start:it.pos])
}

func (it *atomIter) errorf(format string, args ...any) {
	it.err = &Error{Diag: newDiagnostic(LevelError, ModAtom, it.a.start, format, args...)}
	it.finished = true
}

// text concatenates every chunk. Uses the storage hint for exact sizing
// when one is cached from a previous materialization.
func (it *atomIter) text() string {
	var b bytes.Buffer
	if it.a.is(atomStorageHintValid) {
		b.Grow(it.a.storageHint)
	} else {
		b.Grow(len(it.src))
	}
	for {
		c, ok := it.next()
		if !ok {
			break
		}
		b.Write(c)
	}
	return b.String()
}

// read fills p from the decoded stream, io.Reader-style without the
// error result; 0 means exhausted.
func (it *atomIter) read(p []byte) int {
	n := 0
	for n < len(p) {
		if len(it.cur) == 0 {
			c, ok := it.next()
			if !ok {
				break
			}
			it.cur = c
		}
		m := copy(p[n:], it.cur)
		it.cur = it.cur[m:]
		n += m
	}
	return n
}

// getChar returns the next decoded byte, -1 when exhausted.
func (it *atomIter) getChar() int {
	var b [1]byte
	if it.read(b[:]) == 0 {
		return -1
	}
	return int(b[0])
}

// peekChar returns the next decoded byte without consuming it.
func (it *atomIter) peekChar() int {
	if len(it.cur) == 0 {
		c, ok := it.next()
		if !ok {
			return -1
		}
		it.cur = c
	}
	return int(it.cur[0])
}

// equal compares the remaining decoded bytes against b, memcmp-style.
func (it *atomIter) equal(b []byte) bool {
	for {
		if len(it.cur) == 0 {
			c, ok := it.next()
			if !ok {
				return len(b) == 0
			}
			it.cur = c
		}
		if len(b) == 0 {
			return false
		}
		n := len(it.cur)
		if len(b) < n {
			n = len(b)
		}
		if !bytes.Equal(it.cur[:n], b[:n]) {
			return false
		}
		it.cur = it.cur[n:]
		b = b[n:]
	}
}

// unescapeSingle collapses '' to ' inside single-quoted line content.
func unescapeSingle(t []byte) []byte {
	if !bytes.Contains(t, []byte("''")) {
		return t
	}
	return bytes.ReplaceAll(t, []byte("''"), []byte("'"))
}
