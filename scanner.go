package fyaml

import (
	"github.com/go-kit/log"
)

// simpleKey tracks one pending simple-key candidate for a flow level. A
// candidate is confirmed when ':' shows up in time and abandoned when a
// line break (block context) or 1024 characters pass first.
type simpleKey struct {
	possible    bool
	required    bool
	tokenNumber int
	mark        Mark
}

// indentLevel is one open block collection on the indent stack.
type indentLevel struct {
	column   int
	blockMap bool // opened by a generated BLOCK_MAPPING_START
}

// scanner turns reader codepoints into the token stream. It manages the
// indent stack, the per-flow-level simple-key candidates and the token
// queue that simple-key confirmation inserts into.
type scanner struct {
	r      *reader
	logger log.Logger
	strict bool

	tokens       []*Token
	head         int
	tokensParsed int

	streamStartProduced bool
	streamEndProduced   bool
	err                 error // sticky stream error

	indent  int
	indents []indentLevel

	simpleKeyAllowed bool
	simpleKeys       []simpleKey

	flowLevel int

	sawVersion bool
}

func newScanner(r *reader, logger log.Logger, strict bool) *scanner {
	return &scanner{r: r, logger: logger, strict: strict, indent: -1}
}

func (s *scanner) errorf(mark Mark, format string, args ...any) error {
	d := newDiagnostic(LevelError, ModScan, mark, format, args...)
	logDiag(s.logger, d)
	err := &Error{Diag: d}
	if s.err == nil {
		s.err = err
	}
	return err
}

func (s *scanner) warnf(mark Mark, format string, args ...any) {
	logDiag(s.logger, newDiagnostic(LevelWarning, ModScan, mark, format, args...))
}

// peekToken returns the head token without consuming it.
func (s *scanner) peekToken() (*Token, error) {
	if err := s.fetchMoreTokens(); err != nil {
		return nil, err
	}
	return s.tokens[s.head], nil
}

// next returns the next token. After a stream error every call returns
// that same error; no further tokens are emitted.
func (s *scanner) next() (*Token, error) {
	tok, err := s.peekToken()
	if err != nil {
		return nil, err
	}
	s.head++
	s.tokensParsed++
	if s.head == len(s.tokens) {
		s.tokens = s.tokens[:0]
		s.head = 0
	}
	return tok, nil
}

// fetchMoreTokens fetches until the head token can be handed out, which
// requires every simple-key candidate that could still insert a KEY
// before it to be confirmed or abandoned.
func (s *scanner) fetchMoreTokens() error {
	for {
		if s.err != nil {
			return s.err
		}
		need := s.head >= len(s.tokens)
		if !need {
			if err := s.staleSimpleKeys(); err != nil {
				return err
			}
			for i := range s.simpleKeys {
				sk := &s.simpleKeys[i]
				if sk.possible && sk.tokenNumber == s.tokensParsed {
					need = true
					break
				}
			}
		}
		if !need {
			return nil
		}
		if err := s.fetchNextToken(); err != nil {
			return err
		}
	}
}

// chopInput relocates a streaming input's consumed prefix between tokens.
// A pending simple key blocks the chop: its confirmation re-uses the saved
// mark, which must stay inside the reader's current input.
func (s *scanner) chopInput() {
	for i := range s.simpleKeys {
		if s.simpleKeys[i].possible {
			return
		}
	}
	s.r.maybeChop()
}

func (s *scanner) append(t *Token) { s.tokens = append(s.tokens, t) }

// insert places t so that it becomes token no. number of the stream.
func (s *scanner) insert(number int, t *Token) {
	idx := s.head + (number - s.tokensParsed)
	s.tokens = append(s.tokens, nil)
	copy(s.tokens[idx+1:], s.tokens[idx:])
	s.tokens[idx] = t
}

// nextTokenNumber is the stream number the next appended token gets.
func (s *scanner) nextTokenNumber() int {
	return s.tokensParsed + (len(s.tokens) - s.head)
}

// staleSimpleKeys abandons candidates that a line break or the 1024-byte
// bound has invalidated.
func (s *scanner) staleSimpleKeys() error {
	for i := range s.simpleKeys {
		sk := &s.simpleKeys[i]
		if !sk.possible {
			continue
		}
		if sk.mark.Line < s.r.line || sk.mark.Offset+1024 < s.r.off {
			if sk.required {
				return s.errorf(sk.mark, "could not find expected ':'")
			}
			sk.possible = false
		}
	}
	return nil
}

// saveSimpleKey records the upcoming token as a simple-key candidate for
// the current flow level.
func (s *scanner) saveSimpleKey() error {
	if !s.simpleKeyAllowed {
		return nil
	}
	required := s.flowLevel == 0 && s.indent == s.r.col
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeys[len(s.simpleKeys)-1] = simpleKey{
		possible:    true,
		required:    required,
		tokenNumber: s.nextTokenNumber(),
		mark:        s.r.mark(),
	}
	return nil
}

// removeSimpleKey abandons the current candidate; a required one that
// was never confirmed is an error.
func (s *scanner) removeSimpleKey() error {
	sk := &s.simpleKeys[len(s.simpleKeys)-1]
	if sk.possible && sk.required {
		return s.errorf(sk.mark, "could not find expected ':'")
	}
	sk.possible = false
	return nil
}

// rollIndent opens a block collection at column, inserting its start
// token at stream position number (-1 appends).
func (s *scanner) rollIndent(column, number int, typ TokenType, mark Mark) {
	if s.flowLevel > 0 {
		return
	}
	if s.indent < column {
		s.indents = append(s.indents, indentLevel{
			column:   s.indent,
			blockMap: typ == TokenBlockMappingStart,
		})
		s.indent = column
		tok := newToken(typ, mark, mark)
		if number == -1 {
			s.append(tok)
		} else {
			s.insert(number, tok)
		}
	}
}

// unrollIndent closes block collections whose column the cursor receded
// past.
func (s *scanner) unrollIndent(column int) {
	if s.flowLevel > 0 {
		return
	}
	for s.indent > column {
		mark := s.r.mark()
		s.append(newToken(TokenBlockEnd, mark, mark))
		s.indent = s.indents[len(s.indents)-1].column
		s.indents = s.indents[:len(s.indents)-1]
	}
}

func (s *scanner) increaseFlowLevel() {
	s.simpleKeys = append(s.simpleKeys, simpleKey{})
	s.flowLevel++
}

func (s *scanner) decreaseFlowLevel() {
	if s.flowLevel > 0 {
		s.flowLevel--
		s.simpleKeys = s.simpleKeys[:len(s.simpleKeys)-1]
	}
}

func isBlankz(r *reader, c rune) bool {
	return c == ' ' || c == '\t' || c == runeEOF || r.isBreak(c)
}

// docMarkerAhead reports whether "---" or "..." starts at column 0 here.
func (s *scanner) docMarkerAhead() bool {
	if s.r.col != 0 {
		return false
	}
	c0 := s.r.peekAt(0)
	if c0 != '-' && c0 != '.' {
		return false
	}
	if s.r.peekAt(1) != c0 || s.r.peekAt(2) != c0 {
		return false
	}
	return isBlankz(s.r, s.r.peekAt(3))
}

// scanToNextToken positions the reader at the start of the next token,
// skipping whitespace, comments and line breaks.
func (s *scanner) scanToNextToken() error {
	if s.r.off == 0 {
		s.r.skipBOM()
	}
	for {
		c := s.r.peek()
		switch {
		case c == ' ':
			s.r.skip()
		case c == '\t':
			if s.flowLevel == 0 && s.simpleKeyAllowed {
				// Tab in an indentation position. Harmless when the rest
				// of the line is blank or a comment; an error otherwise.
				mark := s.r.mark()
				for s.r.peek() == '\t' || s.r.peek() == ' ' {
					s.r.skip()
				}
				n := s.r.peek()
				if n != '#' && n != runeEOF && !s.r.isBreak(n) {
					return s.errorf(mark, "found a tab character where indentation is expected")
				}
				continue
			}
			s.r.skip()
		case c == '#':
			for {
				c = s.r.peek()
				if c == runeEOF || s.r.isBreak(c) {
					break
				}
				s.r.advance(c)
			}
		case s.r.isBreak(c):
			s.r.skipBreak()
			if s.flowLevel == 0 {
				s.simpleKeyAllowed = true
			}
		default:
			return nil
		}
	}
}

// fetchNextToken scans one more token (or token group) into the queue.
func (s *scanner) fetchNextToken() error {
	if !s.streamStartProduced {
		s.fetchStreamStart()
		return nil
	}

	if err := s.scanToNextToken(); err != nil {
		return err
	}
	if err := s.staleSimpleKeys(); err != nil {
		return err
	}
	s.unrollIndent(s.r.col)
	s.chopInput()

	c := s.r.peek()
	switch c {
	case runeEOF:
		return s.fetchStreamEnd()
	case runeInvalid, runePartial:
		return s.errorf(s.r.mark(), "invalid UTF-8 sequence in input")
	}

	if s.r.col == 0 {
		if c == '%' {
			return s.fetchDirective()
		}
		if s.docMarkerAhead() {
			if c == '-' {
				return s.fetchDocumentIndicator(TokenDocumentStart)
			}
			return s.fetchDocumentIndicator(TokenDocumentEnd)
		}
	}

	switch c {
	case '[':
		return s.fetchFlowCollectionStart(TokenFlowSequenceStart)
	case '{':
		return s.fetchFlowCollectionStart(TokenFlowMappingStart)
	case ']':
		return s.fetchFlowCollectionEnd(TokenFlowSequenceEnd)
	case '}':
		return s.fetchFlowCollectionEnd(TokenFlowMappingEnd)
	case ',':
		return s.fetchFlowEntry()
	case '-':
		if isBlankz(s.r, s.r.peekAt(1)) {
			return s.fetchBlockEntry()
		}
	case '?':
		if s.flowLevel > 0 || isBlankz(s.r, s.r.peekAt(1)) {
			return s.fetchKey()
		}
	case ':':
		if s.flowLevel > 0 || isBlankz(s.r, s.r.peekAt(1)) {
			return s.fetchValue()
		}
	case '*':
		return s.fetchAnchor(TokenAlias)
	case '&':
		return s.fetchAnchor(TokenAnchor)
	case '!':
		return s.fetchTag()
	case '|':
		if s.flowLevel == 0 {
			return s.fetchBlockScalar(StyleLiteral)
		}
	case '>':
		if s.flowLevel == 0 {
			return s.fetchBlockScalar(StyleFolded)
		}
	case '\'':
		return s.fetchFlowScalar(StyleSingleQuoted)
	case '"':
		return s.fetchFlowScalar(StyleDoubleQuoted)
	}

	if s.canStartPlain(c) {
		return s.fetchPlainScalar()
	}
	return s.errorf(s.r.mark(), "found character %q that cannot start any token", c)
}

func (s *scanner) canStartPlain(c rune) bool {
	if isBlankz(s.r, c) {
		return false
	}
	switch c {
	case ',', '[', ']', '{', '}', '#', '&', '*', '!', '|', '>', '\'', '"',
		'%', '@', '`':
		return false
	case '-', '?', ':':
		if isBlankz(s.r, s.r.peekAt(1)) {
			return false
		}
		if s.flowLevel > 0 && c == ':' {
			return false
		}
		return true
	}
	return true
}

func (s *scanner) fetchStreamStart() {
	mark := s.r.mark()
	s.indent = -1
	s.simpleKeys = append(s.simpleKeys, simpleKey{})
	s.simpleKeyAllowed = true
	s.streamStartProduced = true
	s.append(newToken(TokenStreamStart, mark, mark))
}

func (s *scanner) fetchStreamEnd() error {
	// The stream conceptually ends at the start of a fresh line.
	if s.r.col != 0 {
		s.r.col = 0
		s.r.line++
	}
	s.unrollIndent(-1)
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	mark := s.r.mark()
	s.append(newToken(TokenStreamEnd, mark, mark))
	s.streamEndProduced = true
	return nil
}

func (s *scanner) fetchDocumentIndicator(typ TokenType) error {
	s.unrollIndent(-1)
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	s.sawVersion = false
	start := s.r.mark()
	s.r.skip()
	s.r.skip()
	s.r.skip()
	s.append(newToken(typ, start, s.r.mark()))
	return nil
}

func (s *scanner) fetchFlowCollectionStart(typ TokenType) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.increaseFlowLevel()
	s.simpleKeyAllowed = true
	start := s.r.mark()
	s.r.skip()
	s.append(newToken(typ, start, s.r.mark()))
	return nil
}

func (s *scanner) fetchFlowCollectionEnd(typ TokenType) error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.decreaseFlowLevel()
	s.simpleKeyAllowed = false
	start := s.r.mark()
	s.r.skip()
	s.append(newToken(typ, start, s.r.mark()))
	return nil
}

func (s *scanner) fetchFlowEntry() error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true
	start := s.r.mark()
	s.r.skip()
	s.append(newToken(TokenFlowEntry, start, s.r.mark()))
	return nil
}

func (s *scanner) fetchBlockEntry() error {
	if s.flowLevel == 0 {
		if !s.simpleKeyAllowed {
			return s.errorf(s.r.mark(), "block sequence entries are not allowed in this context")
		}
		s.rollIndent(s.r.col, -1, TokenBlockSequenceStart, s.r.mark())
	}
	// A '-' inside flow is left for the parser to reject with the
	// state it has.
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true
	start := s.r.mark()
	s.r.skip()
	s.append(newToken(TokenBlockEntry, start, s.r.mark()))
	return nil
}

func (s *scanner) fetchKey() error {
	if s.flowLevel == 0 {
		if !s.simpleKeyAllowed {
			return s.errorf(s.r.mark(), "mapping keys are not allowed in this context")
		}
		s.rollIndent(s.r.col, -1, TokenBlockMappingStart, s.r.mark())
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = s.flowLevel == 0
	start := s.r.mark()
	s.r.skip()
	s.append(newToken(TokenKey, start, s.r.mark()))
	return nil
}

func (s *scanner) fetchValue() error {
	sk := &s.simpleKeys[len(s.simpleKeys)-1]
	if sk.possible {
		s.insert(sk.tokenNumber, newToken(TokenKey, sk.mark, sk.mark))
		s.rollIndent(sk.mark.Column, sk.tokenNumber, TokenBlockMappingStart, sk.mark)
		sk.possible = false
		s.simpleKeyAllowed = false
	} else {
		if s.flowLevel == 0 {
			if !s.simpleKeyAllowed {
				return s.errorf(s.r.mark(), "mapping values are not allowed in this context")
			}
			s.rollIndent(s.r.col, -1, TokenBlockMappingStart, s.r.mark())
		}
		s.simpleKeyAllowed = s.flowLevel == 0
	}
	start := s.r.mark()
	s.r.skip()
	s.append(newToken(TokenValue, start, s.r.mark()))
	return nil
}

// fetchAnchor scans an '&' anchor or '*' alias token.
func (s *scanner) fetchAnchor(typ TokenType) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	start := s.r.mark()
	s.r.skip() // '&' or '*'
	nameStart := s.r.mark()
	for {
		c := s.r.peek()
		if isAnchorChar(c) {
			s.r.advance(c)
			continue
		}
		break
	}
	nameEnd := s.r.mark()
	if nameEnd.Offset == nameStart.Offset {
		return s.errorf(start, "did not find expected anchor name")
	}
	c := s.r.peek()
	if !isBlankz(s.r, c) && c != '?' && c != ':' && c != ',' && c != ']' &&
		c != '}' && c != '%' && c != '@' && c != '`' {
		return s.errorf(s.r.mark(), "unexpected character %q after anchor name", c)
	}

	tok := newToken(typ, start, nameEnd)
	tok.atom = s.r.fillAtom(nameStart, nameEnd, StylePlain)
	tok.atom.set(atomDirectOutput)
	s.append(tok)
	return nil
}

func isAnchorChar(c rune) bool {
	return c == '-' || c == '_' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// fetchTag scans a tag token: !<verbatim>, !!suffix, !handle!suffix,
// !suffix or the non-specific !.
func (s *scanner) fetchTag() error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	start := s.r.mark()
	s.r.skip() // '!'
	c := s.r.peek()

	tok := newToken(TokenTag, start, start)

	switch {
	case c == '<':
		// Verbatim tag.
		s.r.skip()
		uriStart := s.r.mark()
		for {
			c = s.r.peek()
			if c == '>' {
				break
			}
			if c == runeEOF || s.r.isBreak(c) {
				return s.errorf(start, "did not find expected '>' in verbatim tag")
			}
			if c == '%' {
				if err := s.validateURIEscape(); err != nil {
					return err
				}
				continue
			}
			s.r.advance(c)
		}
		uriEnd := s.r.mark()
		if uriEnd.Offset == uriStart.Offset {
			return s.errorf(start, "verbatim tag is empty")
		}
		s.r.skip() // '>'
		tok.handle = ""
		tok.atom = s.r.fillAtom(uriStart, uriEnd, StyleURI)

	case c == '!':
		// Secondary handle.
		s.r.skip()
		suffix, err := s.scanTagSuffix(start)
		if err != nil {
			return err
		}
		if suffix == nil {
			return s.errorf(start, "secondary tag handle with empty suffix")
		}
		tok.handle = "!!"
		tok.atom = suffix

	default:
		runStart := s.r.mark()
		if err := s.scanTagChars(); err != nil {
			return err
		}
		runEnd := s.r.mark()
		if s.r.peek() == '!' {
			// What we scanned was a named handle.
			name := string(s.r.in.bytesAt(runStart.Offset, runEnd.Offset))
			s.r.skip()
			suffix, err := s.scanTagSuffix(start)
			if err != nil {
				return err
			}
			if suffix == nil {
				return s.errorf(start, "tag handle !%s! with empty suffix", name)
			}
			tok.handle = "!" + name + "!"
			tok.atom = suffix
		} else {
			tok.handle = "!"
			if runEnd.Offset > runStart.Offset {
				tok.atom = s.r.fillAtom(runStart, runEnd, StyleURI)
			}
		}
	}

	c = s.r.peek()
	if !isBlankz(s.r, c) && c != ',' && c != ']' && c != '}' {
		return s.errorf(s.r.mark(), "unexpected character %q after tag", c)
	}
	tok.End = s.r.mark()
	s.append(tok)
	return nil
}

// scanTagChars consumes a run of tag-URI characters, validating %HH
// escapes so the atom iterator only ever decodes well-formed ones.
func (s *scanner) scanTagChars() error {
	for {
		c := s.r.peek()
		if !isTagChar(c) {
			return nil
		}
		if c == '%' {
			if err := s.validateURIEscape(); err != nil {
				return err
			}
			continue
		}
		s.r.advance(c)
	}
}

func (s *scanner) validateURIEscape() error {
	mark := s.r.mark()
	s.r.skip() // '%'
	for i := 0; i < 2; i++ {
		d := s.r.peek()
		if d < 0 || hexValue(byte(d)) < 0 {
			return s.errorf(mark, "did not find expected hex digit in URI escape")
		}
		s.r.skip()
	}
	return nil
}

func (s *scanner) scanTagSuffix(start Mark) (*Atom, error) {
	suffixStart := s.r.mark()
	if err := s.scanTagChars(); err != nil {
		return nil, err
	}
	suffixEnd := s.r.mark()
	if suffixEnd.Offset == suffixStart.Offset {
		return nil, nil
	}
	return s.r.fillAtom(suffixStart, suffixEnd, StyleURI), nil
}

func isTagChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', ';', '/', '?', ':', '@', '&', '=', '+', '$', ',', '_', '.', '~',
		'*', '\'', '(', ')', '%', '#':
		return true
	}
	return false
}

// fetchDirective scans a %YAML or %TAG line. Unknown directives are
// skipped with a warning, or rejected in strict mode.
func (s *scanner) fetchDirective() error {
	s.unrollIndent(-1)
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	start := s.r.mark()
	s.r.skip() // '%'
	nameStart := s.r.mark()
	for {
		c := s.r.peek()
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '-' {
			s.r.advance(c)
			continue
		}
		break
	}
	name := string(s.r.in.bytesAt(nameStart.Offset, s.r.off))

	var tok *Token
	switch name {
	case "YAML":
		if s.sawVersion {
			return s.errorf(start, "found duplicate %%YAML directive")
		}
		s.sawVersion = true
		s.skipDirectiveBlanks()
		major, ok := s.scanDigits()
		if !ok || s.r.peek() != '.' {
			return s.errorf(start, "did not find expected version number in %%YAML directive")
		}
		s.r.skip()
		minor, ok := s.scanDigits()
		if !ok {
			return s.errorf(start, "did not find expected version number in %%YAML directive")
		}
		if major != 1 {
			return s.errorf(start, "unsupported YAML version %d.%d", major, minor)
		}
		if minor > 2 {
			s.warnf(start, "YAML version %d.%d is newer than supported, parsing as 1.2", major, minor)
		}
		tok = newToken(TokenVersionDirective, start, s.r.mark())
		tok.major, tok.minor = major, minor

	case "TAG":
		s.skipDirectiveBlanks()
		if s.r.peek() != '!' {
			return s.errorf(start, "did not find expected tag handle in %%TAG directive")
		}
		hStart := s.r.mark()
		s.r.skip()
		for isAnchorChar(s.r.peek()) {
			s.r.advance(s.r.peek())
		}
		if s.r.peek() == '!' {
			s.r.skip()
		} else if s.r.off != hStart.Offset+1 {
			return s.errorf(start, "tag handle in %%TAG directive must end with '!'")
		}
		handle := string(s.r.in.bytesAt(hStart.Offset, s.r.off))
		s.skipDirectiveBlanks()
		pStart := s.r.mark()
		if err := s.scanTagChars(); err != nil {
			return err
		}
		pEnd := s.r.mark()
		if pEnd.Offset == pStart.Offset {
			return s.errorf(start, "did not find expected tag prefix in %%TAG directive")
		}
		prefixAtom := s.r.fillAtom(pStart, pEnd, StyleURI)
		tok = newToken(TokenTagDirective, start, pEnd)
		tok.handle = handle
		tok.prefix = prefixAtom.Text()
		tok.atom = prefixAtom

	default:
		if s.strict {
			return s.errorf(start, "unknown directive %%%s", name)
		}
		s.warnf(start, "skipping unknown directive %%%s", name)
		for {
			c := s.r.peek()
			if c == runeEOF || s.r.isBreak(c) {
				break
			}
			s.r.advance(c)
		}
	}

	// The rest of the line may hold blanks and a comment only.
	s.skipDirectiveBlanks()
	if s.r.peek() == '#' {
		for {
			c := s.r.peek()
			if c == runeEOF || s.r.isBreak(c) {
				break
			}
			s.r.advance(c)
		}
	}
	if c := s.r.peek(); c != runeEOF && !s.r.isBreak(c) {
		return s.errorf(s.r.mark(), "unexpected content after %%%s directive", name)
	}
	s.r.skipBreak()

	if tok != nil {
		s.append(tok)
	}
	return nil
}

func (s *scanner) skipDirectiveBlanks() {
	for s.r.peek() == ' ' || s.r.peek() == '\t' {
		s.r.skip()
	}
}

func (s *scanner) scanDigits() (int, bool) {
	n := 0
	ok := false
	for {
		c := s.r.peek()
		if c < '0' || c > '9' {
			return n, ok
		}
		n = n*10 + int(c-'0')
		ok = true
		s.r.advance(c)
	}
}

// fetchBlockScalar scans a '|' or '>' scalar including its header and
// every content line, producing an atom with the chomp policy and the
// resolved content indent.
func (s *scanner) fetchBlockScalar(style Style) error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true

	start := s.r.mark()
	s.r.skip() // '|' or '>'

	chomp := ChompClip
	increment := 0
	for {
		c := s.r.peek()
		switch {
		case c == '+':
			chomp = ChompKeep
			s.r.skip()
			continue
		case c == '-':
			chomp = ChompStrip
			s.r.skip()
			continue
		case c == '0':
			return s.errorf(s.r.mark(), "block scalar indentation indicator cannot be 0")
		case c >= '1' && c <= '9':
			if increment != 0 {
				return s.errorf(s.r.mark(), "repeated indentation indicator in block scalar header")
			}
			increment = int(c - '0')
			s.r.skip()
			continue
		}
		break
	}

	// Only blanks and a comment may follow the header.
	for s.r.peek() == ' ' || s.r.peek() == '\t' {
		s.r.skip()
	}
	if s.r.peek() == '#' {
		for {
			c := s.r.peek()
			if c == runeEOF || s.r.isBreak(c) {
				break
			}
			s.r.advance(c)
		}
	}
	if c := s.r.peek(); c != runeEOF && !s.r.isBreak(c) {
		return s.errorf(s.r.mark(), "unexpected character %q after block scalar header", c)
	}
	s.r.skipBreak()

	contentIndent := 0
	if increment > 0 {
		if s.indent >= 0 {
			contentIndent = s.indent + increment
		} else {
			contentIndent = increment
		}
	}

	contentStart := s.r.mark()
	for {
		// Measure this line's indentation without consuming it.
		n := 0
		for s.r.peekAt(n) == ' ' {
			n++
		}
		c := s.r.peekAt(n)
		if c == runeEOF {
			for i := 0; i < n; i++ {
				s.r.skip()
			}
			break
		}
		if s.r.isBreak(c) {
			// Empty lines always belong to the scalar.
			for i := 0; i < n; i++ {
				s.r.skip()
			}
			s.r.skipBreak()
			continue
		}
		if contentIndent == 0 {
			if n <= s.indent {
				break
			}
			contentIndent = n
		} else if n < contentIndent && n <= s.indent {
			break
		} else if n < contentIndent {
			break
		}
		if n == 0 && s.docMarkerAhead() {
			break
		}
		// Consume indentation, content and the break.
		for i := 0; i < n; i++ {
			s.r.skip()
		}
		for {
			c = s.r.peek()
			if c == runeEOF {
				break
			}
			if c == runeInvalid || c == runePartial {
				return s.errorf(s.r.mark(), "invalid UTF-8 sequence in block scalar")
			}
			if s.r.isBreak(c) {
				s.r.skipBreak()
				break
			}
			s.r.advance(c)
		}
	}
	contentEnd := s.r.mark()

	tok := newToken(TokenScalar, start, contentEnd)
	tok.style = style
	tok.atom = s.r.fillAtom(contentStart, contentEnd, style)
	tok.atom.chomp = chomp
	tok.atom.increment = contentIndent
	s.append(tok)
	return nil
}

// fetchFlowScalar scans a single- or double-quoted scalar. The atom
// spans the content between the quotes; escapes are validated here and
// decoded by the atom iterator.
func (s *scanner) fetchFlowScalar(style Style) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false

	start := s.r.mark()
	single := style == StyleSingleQuoted
	if single && s.r.in.json {
		return s.errorf(start, "single-quoted strings are not allowed in JSON mode")
	}
	s.r.skip() // opening quote
	contentStart := s.r.mark()

	var hasEscape, hasLB bool
	for {
		if s.docMarkerAhead() {
			return s.errorf(s.r.mark(), "unexpected document marker inside quoted scalar")
		}
		c := s.r.peek()
		switch {
		case c == runeEOF:
			return s.errorf(start, "unterminated quoted scalar")
		case c == runeInvalid || c == runePartial:
			return s.errorf(s.r.mark(), "invalid UTF-8 sequence in quoted scalar")
		case single && c == '\'':
			if s.r.peekAt(1) == '\'' {
				hasEscape = true
				s.r.skip()
				s.r.skip()
				continue
			}
		case !single && c == '"':
		case !single && c == '\\':
			if err := s.validateEscape(); err != nil {
				return err
			}
			hasEscape = true
			continue
		case s.r.isBreak(c):
			if s.r.in.json {
				return s.errorf(s.r.mark(), "line break inside string is not allowed in JSON mode")
			}
			hasLB = true
			s.r.skipBreak()
			continue
		default:
			s.r.advance(c)
			continue
		}
		break
	}
	contentEnd := s.r.mark()
	s.r.skip() // closing quote

	tok := newToken(TokenScalar, start, s.r.mark())
	tok.style = style
	tok.atom = s.r.fillAtom(contentStart, contentEnd, style)
	if hasLB {
		tok.atom.set(atomHasLB)
	}
	if !hasEscape && !hasLB {
		tok.atom.set(atomDirectOutput)
	}
	s.append(tok)
	return nil
}

// validateEscape consumes one backslash escape, rejecting malformed
// ones here so the atom iterator only ever sees valid sequences.
func (s *scanner) validateEscape() error {
	mark := s.r.mark()
	s.r.skip() // backslash
	c := s.r.peek()
	if s.r.isBreak(c) {
		s.r.skipBreak()
		return nil
	}
	if s.r.in.json {
		if c < 0 || !jsonEscape(byte(c)) {
			return s.errorf(mark, "escape '\\%c' is not allowed in JSON mode", c)
		}
	}
	digits := 0
	switch c {
	case '0', 'a', 'b', 't', 'n', 'v', 'f', 'r', 'e', ' ', '"', '/', '\\',
		'N', '_', 'L', 'P':
	case 'x':
		digits = 2
	case 'u':
		digits = 4
	case 'U':
		digits = 8
	default:
		return s.errorf(mark, "invalid escape character '\\%c'", c)
	}
	s.r.skip()
	for i := 0; i < digits; i++ {
		d := s.r.peek()
		if d < 0 || hexValue(byte(d)) < 0 {
			return s.errorf(mark, "did not find expected hex digit in escape sequence")
		}
		s.r.skip()
	}
	return nil
}

// fetchPlainScalar scans a plain scalar, which may span lines in block
// context when continuation lines stay indented past the current level.
func (s *scanner) fetchPlainScalar() error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}

	start := s.r.mark()
	end := start
	indent := s.indent + 1
	var spannedLine bool

	for {
		// Consume one run of non-blank characters.
		for {
			c := s.r.peek()
			if isBlankz(s.r, c) {
				break
			}
			if c == runeInvalid || c == runePartial {
				return s.errorf(s.r.mark(), "invalid UTF-8 sequence in plain scalar")
			}
			if c == ':' && (isBlankz(s.r, s.r.peekAt(1)) ||
				(s.flowLevel > 0 && isFlowIndicator(s.r.peekAt(1)))) {
				break
			}
			if s.flowLevel > 0 && isFlowIndicator(c) {
				break
			}
			if c == '#' {
				// '#' only starts a comment after whitespace; mid-word it
				// is content.
			}
			s.r.advance(c)
			end = s.r.mark()
		}

		c := s.r.peek()
		if !(c == ' ' || c == '\t' || s.r.isBreak(c)) {
			break
		}

		// Consume blanks and breaks, then decide whether the scalar
		// continues on the next line.
		var sawBreak bool
		for {
			c = s.r.peek()
			if c == ' ' || c == '\t' {
				s.r.skip()
				continue
			}
			if s.r.isBreak(c) {
				s.r.skipBreak()
				sawBreak = true
				continue
			}
			break
		}
		if sawBreak {
			spannedLine = true
		}
		if c == runeEOF || c == '#' {
			break
		}
		if sawBreak {
			if s.flowLevel == 0 && s.r.col < indent {
				break
			}
			if s.r.col == 0 && s.docMarkerAhead() {
				break
			}
			// At document level a line opening with an indicator starts a
			// new node, not a continuation; the parser then rejects the
			// second root.
			if s.flowLevel == 0 && s.indent < 0 && !s.canStartPlain(c) {
				break
			}
		} else {
			// Still on the same line; only content can continue the
			// scalar.
			if isBlankz(s.r, c) {
				break
			}
			if c == ':' && (isBlankz(s.r, s.r.peekAt(1)) ||
				(s.flowLevel > 0 && isFlowIndicator(s.r.peekAt(1)))) {
				break
			}
			if s.flowLevel > 0 && isFlowIndicator(c) {
				break
			}
		}
		if !s.canContinuePlain(c) {
			break
		}
	}

	tok := newToken(TokenScalar, start, end)
	tok.style = StylePlain
	tok.atom = s.r.fillAtom(start, end, StylePlain)
	if spannedLine {
		tok.atom.set(atomHasLB)
	} else {
		tok.atom.set(atomDirectOutput)
	}
	s.append(tok)

	// A scalar that ran across a line break leaves the scanner at a
	// fresh token position where a new simple key may start.
	s.simpleKeyAllowed = spannedLine && s.flowLevel == 0
	return nil
}

func (s *scanner) canContinuePlain(c rune) bool {
	switch c {
	case runeEOF, '#':
		return false
	}
	if s.flowLevel > 0 && isFlowIndicator(c) {
		return false
	}
	return true
}

func isFlowIndicator(c rune) bool {
	switch c {
	case ',', '[', ']', '{', '}':
		return true
	}
	return false
}
