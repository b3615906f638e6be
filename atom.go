package fyaml

// Style is the presentation style of a scalar atom.
type Style int

const (
	StylePlain Style = iota
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
	StyleURI
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StylePlain:
		return "plain"
	case StyleSingleQuoted:
		return "single-quoted"
	case StyleDoubleQuoted:
		return "double-quoted"
	case StyleLiteral:
		return "literal"
	case StyleFolded:
		return "folded"
	case StyleURI:
		return "uri"
	default:
		return "unknown"
	}
}

// Chomp is the trailing line-break policy of a block scalar.
type Chomp int

const (
	ChompClip  Chomp = iota // keep one trailing break
	ChompStrip              // remove all trailing breaks
	ChompKeep               // keep all trailing breaks
)

type atomFlags uint32

const (
	atomDirectOutput atomFlags = 1 << iota
	atomHasLB
	atomStorageHintValid
)

// Atom describes a source range and how to materialize it as scalar
// text: the span marks, the owning input and its generation at capture
// time, the style, and for block scalars the chomp policy and content
// indent.
type Atom struct {
	start Mark
	end   Mark
	in    *Input
	gen   int64

	style     Style
	chomp     Chomp
	increment int // absolute content indent of a block scalar; 0 = auto-detect
	tabsize   int
	json      bool

	flags       atomFlags
	storageHint int

	cached    string
	cachedOK  bool
	decodeErr error
}

// Start and End bound the atom's source range.
func (a *Atom) Start() Mark { return a.start }
func (a *Atom) End() Mark   { return a.end }

// Style returns the atom's presentation style.
func (a *Atom) Style() Style { return a.style }

func (a *Atom) is(f atomFlags) bool { return a.flags&f != 0 }
func (a *Atom) set(f atomFlags)     { a.flags |= f }

// DirectOutput reports whether the decoded bytes equal the source bytes,
// so emitters may copy the source range verbatim.
func (a *Atom) DirectOutput() bool { return a.is(atomDirectOutput) }

// source returns the raw source bytes of the span.
func (a *Atom) source() []byte {
	if a.in == nil {
		return nil
	}
	return a.in.bytesAt(a.start.Offset, a.end.Offset)
}

// Text materializes the decoded scalar text. The result is cached; the
// storage hint records the decoded length for exact sizing on later
// materializations of equal atoms.
func (a *Atom) Text() string {
	if a.cachedOK {
		return a.cached
	}
	if a.in != nil && a.gen != a.in.Generation() {
		// The buffer relocated under us. The bytes are still reachable
		// (relocation spawns a new input and leaves this one alone), but
		// any pointer-based shortcuts are void.
		a.flags &^= atomDirectOutput | atomStorageHintValid
		a.gen = a.in.Generation()
	}
	var text string
	if a.is(atomDirectOutput) {
		text = string(a.source())
	} else {
		it := newAtomIter(a)
		text = it.text()
		a.decodeErr = it.err
	}
	a.cached = text
	a.cachedOK = true
	a.storageHint = len(text)
	a.set(atomStorageHintValid)
	return text
}

// Err reports the decode failure of the last materialization, nil for
// well-formed content. The scanner pre-validates escapes, so this only
// trips for atoms built over arbitrary spans.
func (a *Atom) Err() error { return a.decodeErr }

// release drops the atom's input reference.
func (a *Atom) release() {
	if a.in != nil {
		a.in.unref()
		a.in = nil
	}
}

// ScalarFlags is the per-scalar text analysis consumed by the emitter
// when it picks a presentation style.
type ScalarFlags uint64

const (
	ScalarSize0 ScalarFlags = 1 << iota
	ScalarHasLB
	ScalarHasWS
	ScalarHasConsecutiveWS
	ScalarHasConsecutiveLB
	ScalarHasNonNLLB
	ScalarHasEscape
	ScalarHasNonPrint
	ScalarHasZero
	ScalarHasAnyLB
	ScalarHasStartWS
	ScalarHasStartInd
	ScalarHasEndInd
	ScalarQuoteAt0
	ScalarEndsWithColon
	ScalarAllWSLB
	ScalarAllPrintASCII
	ScalarCanBeSimpleKey
	ScalarCanBePlain
	ScalarCanBePlainFlow
	ScalarCanBeSingleQuoted
	ScalarCanBeDoubleQuoted
	ScalarCanBeLiteral
	ScalarCanBeFolded
	ScalarCanBeUnquotedPathKey
)

func (f ScalarFlags) has(x ScalarFlags) bool { return f&x != 0 }

// analyzeScalar computes the presentation flags for decoded scalar text.
func analyzeScalar(s string) ScalarFlags {
	var f ScalarFlags
	if len(s) == 0 {
		return ScalarSize0 | ScalarAllWSLB | ScalarAllPrintASCII |
			ScalarCanBeSingleQuoted | ScalarCanBeDoubleQuoted
	}

	var (
		prevWS, prevLB bool
		allWSLB        = true
		allPrint       = true
		pathKeyOK      = true
	)
	for i, r := range s {
		ws := r == ' ' || r == '\t'
		lb := r == '\n' || r == '\r' || r == 0x85 || r == 0x2028 || r == 0x2029
		switch {
		case ws:
			f |= ScalarHasWS
			if prevWS {
				f |= ScalarHasConsecutiveWS
			}
		case lb:
			f |= ScalarHasAnyLB
			if r == '\n' {
				f |= ScalarHasLB
			} else {
				f |= ScalarHasNonNLLB
			}
			if prevLB {
				f |= ScalarHasConsecutiveLB
			}
		default:
			allWSLB = false
		}
		if r == 0 {
			f |= ScalarHasZero
		}
		if r < 0x20 && !lb && r != '\t' {
			f |= ScalarHasNonPrint
		}
		if r > 0x7e {
			allPrint = false
		}
		if r < 0x20 || r == '"' || r == '\\' {
			f |= ScalarHasEscape
		}
		if i == 0 && (r == '"' || r == '\'') {
			f |= ScalarQuoteAt0
		}
		if !(r == '-' || r == '_' || r == '.' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			pathKeyOK = false
		}
		prevWS, prevLB = ws, lb
	}
	if allWSLB {
		f |= ScalarAllWSLB
	}
	if allPrint {
		f |= ScalarAllPrintASCII
	}
	if s[0] == ' ' || s[0] == '\t' {
		f |= ScalarHasStartWS
	}
	if isIndicator(rune(s[0])) {
		f |= ScalarHasStartInd
	}
	last := s[len(s)-1]
	if isIndicator(rune(last)) {
		f |= ScalarHasEndInd
	}
	if last == ':' {
		f |= ScalarEndsWithColon
	}

	if canBePlain(s, f) {
		f |= ScalarCanBePlain
		if !hasFlowUnsafe(s) {
			f |= ScalarCanBePlainFlow
		}
	}
	if !f.has(ScalarHasAnyLB) && !f.has(ScalarHasNonPrint) {
		f |= ScalarCanBeSingleQuoted
	}
	f |= ScalarCanBeDoubleQuoted
	if !f.has(ScalarHasNonPrint) && !f.has(ScalarAllWSLB) &&
		s[0] != ' ' && s[0] != '\t' {
		f |= ScalarCanBeLiteral
		if !f.has(ScalarHasConsecutiveWS) {
			f |= ScalarCanBeFolded
		}
	}
	if f.has(ScalarCanBePlain) && !f.has(ScalarHasAnyLB) && len(s) <= 1024 {
		f |= ScalarCanBeSimpleKey
	}
	if pathKeyOK {
		f |= ScalarCanBeUnquotedPathKey
	}
	return f
}

// isIndicator reports whether c is a YAML indicator character.
func isIndicator(c rune) bool {
	switch c {
	case '-', '?', ':', ',', '[', ']', '{', '}', '#', '&', '*', '!', '|',
		'>', '\'', '"', '%', '@', '`':
		return true
	}
	return false
}

// canBePlain reports whether text can round-trip as a plain scalar.
func canBePlain(s string, f ScalarFlags) bool {
	if f.has(ScalarHasNonPrint) || f.has(ScalarHasZero) {
		return false
	}
	if s[0] == ' ' || s[0] == '\t' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t' {
		return false
	}
	if f.has(ScalarHasAnyLB) {
		return false
	}
	if isIndicator(rune(s[0])) {
		// Leading "-", "?" and ":" are fine when not followed by space.
		switch s[0] {
		case '-', '?', ':':
			if len(s) == 1 || s[1] == ' ' || s[1] == '\t' {
				return false
			}
		default:
			return false
		}
	}
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ':' && (s[i+1] == ' ' || s[i+1] == '\t') {
			return false
		}
		if (s[i] == ' ' || s[i] == '\t') && s[i+1] == '#' {
			return false
		}
	}
	if s[len(s)-1] == ':' {
		return false
	}
	return true
}

// hasFlowUnsafe reports whether s contains characters that end a plain
// scalar inside flow collections.
func hasFlowUnsafe(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ',', '[', ']', '{', '}':
			return true
		case ':':
			return true
		}
	}
	return false
}
