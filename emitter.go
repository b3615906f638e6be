package fyaml

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EmitMode selects the overall presentation of emitted documents.
type EmitMode int

const (
	EmitBlock EmitMode = iota
	EmitFlow
	EmitFlowOneline
	EmitJSON
	EmitJSONOneline
	EmitDejson
	EmitPretty
	EmitYAML11
)

// String returns the mode name.
func (m EmitMode) String() string {
	switch m {
	case EmitBlock:
		return "block"
	case EmitFlow:
		return "flow"
	case EmitFlowOneline:
		return "flow-oneline"
	case EmitJSON:
		return "json"
	case EmitJSONOneline:
		return "json-oneline"
	case EmitDejson:
		return "dejson"
	case EmitPretty:
		return "pretty"
	case EmitYAML11:
		return "yaml-1.1"
	default:
		return "unknown"
	}
}

// ParseEmitMode maps a mode name back to its constant.
func ParseEmitMode(s string) (EmitMode, error) {
	for m := EmitBlock; m <= EmitYAML11; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return EmitBlock, fmt.Errorf("unknown emit mode %q", s)
}

// EmitOption configures an Emitter.
type EmitOption func(*Emitter)

// WithEmitMode sets the presentation mode, EmitBlock by default.
func WithEmitMode(m EmitMode) EmitOption {
	return func(e *Emitter) { e.mode = m }
}

// WithIndent sets the indentation step, 2 by default.
func WithIndent(n int) EmitOption {
	return func(e *Emitter) {
		if n > 0 {
			e.indent = n
		}
	}
}

// WithWidth sets the target line width for flow wrapping, 80 by default.
func WithWidth(n int) EmitOption {
	return func(e *Emitter) {
		if n > 0 {
			e.width = n
		}
	}
}

// Emitter writes documents back out. Style for each scalar is chosen
// from its text-analysis flags under the constraints of the mode.
type Emitter struct {
	buf    *bufio.Writer
	mode   EmitMode
	indent int
	width  int

	emitted int
	err     error
}

// NewEmitter returns an emitter writing to w.
func NewEmitter(w io.Writer, opts ...EmitOption) *Emitter {
	e := &Emitter{buf: bufio.NewWriter(w), indent: 2, width: 80}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmitString renders one document to a string in the given mode.
func EmitString(d *Document, mode EmitMode) (string, error) {
	var b strings.Builder
	e := NewEmitter(&b, WithEmitMode(mode))
	if err := e.Emit(d); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (e *Emitter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = e.buf.WriteString(s)
}

func (e *Emitter) writeLine(level int, text string) {
	if text == "" {
		e.write("\n")
		return
	}
	e.write(strings.Repeat(" ", level*e.indent))
	e.write(text)
	e.write("\n")
}

// Emit writes one document. Subsequent documents on the same emitter are
// separated by an explicit "---" marker.
func (e *Emitter) Emit(d *Document) error {
	if e.err != nil {
		return e.err
	}
	root := d.Root()
	switch e.mode {
	case EmitJSON:
		e.jsonNode(root, 0, false)
		e.write("\n")
	case EmitJSONOneline:
		e.jsonNode(root, 0, true)
		e.write("\n")
	case EmitFlowOneline:
		e.write(e.renderFlow(root))
		e.write("\n")
	case EmitFlow:
		e.writeFlow(root, 0)
	default:
		if v := d.Version(); v != nil {
			e.writeLine(0, fmt.Sprintf("%%YAML %d.%d", v.Major, v.Minor))
			e.writeLine(0, "---")
		} else if !d.Implicit() || e.emitted > 0 {
			e.writeLine(0, "---")
		}
		e.blockNode(root, 0, "")
		if !d.endImplicit {
			e.writeLine(0, "...")
		}
	}
	e.emitted++
	if e.err == nil {
		e.err = e.buf.Flush()
	}
	return e.err
}

// EmitNode writes a single node as a bare document fragment.
func (e *Emitter) EmitNode(n *Node) error {
	if e.err != nil {
		return e.err
	}
	switch e.mode {
	case EmitJSON:
		e.jsonNode(n, 0, false)
		e.write("\n")
	case EmitJSONOneline:
		e.jsonNode(n, 0, true)
		e.write("\n")
	case EmitFlowOneline:
		e.write(e.renderFlow(n))
		e.write("\n")
	case EmitFlow:
		e.writeFlow(n, 0)
	default:
		e.blockNode(n, 0, "")
	}
	if e.err == nil {
		e.err = e.buf.Flush()
	}
	return e.err
}

// props renders the "&anchor !tag " prefix of a node.
func (e *Emitter) props(n *Node) string {
	var b strings.Builder
	if n.anchor != "" && !n.alias {
		b.WriteString("&")
		b.WriteString(n.anchor)
		b.WriteString(" ")
	}
	if n.tag != "" {
		b.WriteString(renderTag(n.tag))
		b.WriteString(" ")
	}
	return b.String()
}

// renderTag shortens a resolved tag back to handle form where possible.
func renderTag(t string) string {
	if t == "!" {
		return "!"
	}
	if rest, ok := strings.CutPrefix(t, "tag:yaml.org,2002:"); ok {
		return "!!" + rest
	}
	if strings.HasPrefix(t, "!") {
		return t
	}
	return "!<" + t + ">"
}

// pickStyle chooses the presentation style of a scalar for the block and
// flow YAML modes.
func (e *Emitter) pickStyle(n *Node) Style {
	s := n.Scalar()
	if s == "" {
		if n.style == StyleSingleQuoted || n.style == StyleDoubleQuoted {
			return n.style
		}
		return StylePlain
	}
	f := analyzeScalar(s)
	if f.has(ScalarHasAnyLB) {
		if f.has(ScalarCanBeLiteral) && !f.has(ScalarHasNonNLLB) {
			return StyleLiteral
		}
		return StyleDoubleQuoted
	}
	if e.mode != EmitDejson {
		// Presentation-faithful: keep the source quoting when it still
		// represents the text.
		switch n.style {
		case StyleSingleQuoted:
			if f.has(ScalarCanBeSingleQuoted) {
				return StyleSingleQuoted
			}
			return StyleDoubleQuoted
		case StyleDoubleQuoted:
			return StyleDoubleQuoted
		}
	}
	if e.mode == EmitDejson &&
		(n.style == StyleSingleQuoted || n.style == StyleDoubleQuoted) &&
		typeAmbiguous(s) {
		// Unquoting would turn the string into a null, bool or number.
		return StyleSingleQuoted
	}
	if f.has(ScalarCanBePlain) && !e.yaml11Risky(s) {
		return StylePlain
	}
	if f.has(ScalarCanBeSingleQuoted) {
		return StyleSingleQuoted
	}
	return StyleDoubleQuoted
}

// typeAmbiguous reports whether plain text would resolve to something
// other than a string under the core schema.
func typeAmbiguous(s string) bool {
	switch s {
	case "~", "null", "Null", "NULL",
		"true", "True", "TRUE", "false", "False", "FALSE",
		".inf", ".Inf", ".INF", "+.inf", "-.inf", ".nan", ".NaN", ".NAN":
		return true
	}
	if isJSONNumber(s) {
		return true
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") ||
		strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O") {
		return true
	}
	return false
}

// yaml11Risky reports whether a plain rendition would change meaning
// under a YAML 1.1 reader.
func (e *Emitter) yaml11Risky(s string) bool {
	if e.mode != EmitYAML11 {
		return false
	}
	switch s {
	case "y", "Y", "n", "N",
		"yes", "Yes", "YES", "no", "No", "NO",
		"on", "On", "ON", "off", "Off", "OFF":
		return true
	}
	return false
}

func (e *Emitter) renderScalar(s string, style Style) string {
	switch style {
	case StyleSingleQuoted:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	case StyleDoubleQuoted:
		return quoteDouble(s)
	default:
		return s
	}
}

func quoteDouble(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		case 0x85:
			b.WriteString(`\N`)
		case 0x2028:
			b.WriteString(`\L`)
		case 0x2029:
			b.WriteString(`\P`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\x%02x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// blockNode emits a node in block style. head is whatever must precede
// it on its first line: "", "- ", "key: " or "? ".
func (e *Emitter) blockNode(n *Node, level int, head string) {
	if n.IsAlias() {
		e.writeLine(level, head+e.propsTagOnly(n)+"*"+n.anchor)
		return
	}
	props := e.props(n)
	switch n.kind {
	case NodeScalar:
		style := e.pickStyle(n)
		if style == StyleLiteral {
			e.writeLiteral(n.Scalar(), level, head+props)
			return
		}
		text := e.renderScalar(n.Scalar(), style)
		if text == "" {
			e.writeLine(level, strings.TrimRight(head+props, " "))
			return
		}
		e.writeLine(level, head+props+text)

	case NodeSequence:
		if len(n.items) == 0 {
			e.writeLine(level, head+props+"[]")
			return
		}
		if head != "" || props != "" {
			e.writeLine(level, strings.TrimRight(head+props, " "))
			level++
		}
		for _, it := range n.items {
			e.blockNode(it, level, "- ")
		}

	case NodeMapping:
		if len(n.pairs) == 0 {
			e.writeLine(level, head+props+"{}")
			return
		}
		pretty := e.mode == EmitPretty && level == 0 && head == ""
		if head != "" || props != "" {
			e.writeLine(level, strings.TrimRight(head+props, " "))
			level++
		}
		for i, p := range n.pairs {
			if pretty && i > 0 {
				e.writeLine(0, "")
			}
			e.blockPair(p, level)
		}
	}
}

func (e *Emitter) propsTagOnly(n *Node) string {
	if n.tag != "" {
		return renderTag(n.tag) + " "
	}
	return ""
}

func (e *Emitter) blockPair(p NodePair, level int) {
	key := p.Key
	if key.kind == NodeScalar && !key.IsAlias() {
		style := e.pickStyle(key)
		if style == StyleLiteral {
			style = StyleDoubleQuoted
		}
		ktext := e.props(key) + e.renderScalar(key.Scalar(), style)
		e.blockNode(p.Value, level, ktext+": ")
		return
	}
	e.blockNode(key, level, "? ")
	e.blockNode(p.Value, level, ": ")
}

// writeLiteral emits a literal block scalar with the right chomping and
// indentation indicators.
func (e *Emitter) writeLiteral(v string, level int, head string) {
	header := "|"
	if strings.HasPrefix(v, " ") {
		header += strconv.Itoa(e.indent)
	}
	switch {
	case !strings.HasSuffix(v, "\n"):
		header += "-"
	case strings.HasSuffix(v, "\n\n"):
		header += "+"
	}
	h := strings.TrimRight(head, " ")
	if h != "" {
		h += " "
	}
	e.writeLine(level, h+header)
	content := strings.TrimSuffix(v, "\n")
	for _, line := range strings.Split(content, "\n") {
		if line == "" {
			e.writeLine(0, "")
			continue
		}
		e.writeLine(level+1, line)
	}
}

// renderFlow renders a node tree as one-line flow text.
func (e *Emitter) renderFlow(n *Node) string {
	if n.IsAlias() {
		return "*" + n.anchor
	}
	props := e.props(n)
	switch n.kind {
	case NodeScalar:
		style := e.pickStyle(n)
		if style == StyleLiteral {
			style = StyleDoubleQuoted
		}
		s := n.Scalar()
		if style == StylePlain {
			f := analyzeScalar(s)
			if s == "" {
				return props + "null"
			}
			if !f.has(ScalarCanBePlainFlow) {
				style = StyleSingleQuoted
				if !f.has(ScalarCanBeSingleQuoted) {
					style = StyleDoubleQuoted
				}
			}
		}
		return props + e.renderScalar(s, style)

	case NodeSequence:
		parts := make([]string, len(n.items))
		for i, it := range n.items {
			parts[i] = e.renderFlow(it)
		}
		return props + "[" + strings.Join(parts, ", ") + "]"

	case NodeMapping:
		parts := make([]string, len(n.pairs))
		for i, p := range n.pairs {
			parts[i] = e.renderFlow(p.Key) + ": " + e.renderFlow(p.Value)
		}
		return props + "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

// writeFlow emits flow style, breaking a collection across lines when
// its one-line rendering exceeds the width target.
func (e *Emitter) writeFlow(n *Node, level int) {
	s := e.renderFlow(n)
	if n.kind == NodeScalar || n.IsAlias() || len(s)+level*e.indent <= e.width {
		e.writeLine(level, s)
		return
	}
	props := e.props(n)
	switch n.kind {
	case NodeSequence:
		e.writeLine(level, props+"[")
		for i, it := range n.items {
			line := e.renderFlow(it)
			if i < len(n.items)-1 {
				line += ","
			}
			e.writeLine(level+1, line)
		}
		e.writeLine(level, "]")
	case NodeMapping:
		e.writeLine(level, props+"{")
		for i, p := range n.pairs {
			line := e.renderFlow(p.Key) + ": " + e.renderFlow(p.Value)
			if i < len(n.pairs)-1 {
				line += ","
			}
			e.writeLine(level+1, line)
		}
		e.writeLine(level, "}")
	}
}

// jsonNode emits a node as JSON. Anchors and tags are dropped; aliases
// are expanded in place.
func (e *Emitter) jsonNode(n *Node, level int, oneline bool) {
	switch n.kind {
	case NodeScalar:
		e.write(renderJSONScalar(n))

	case NodeSequence:
		if len(n.items) == 0 {
			e.write("[]")
			return
		}
		e.write("[")
		for i, it := range n.items {
			if i > 0 {
				e.write(",")
			}
			if !oneline {
				e.write("\n" + strings.Repeat(" ", (level+1)*e.indent))
			}
			e.jsonNode(it, level+1, oneline)
		}
		if !oneline {
			e.write("\n" + strings.Repeat(" ", level*e.indent))
		}
		e.write("]")

	case NodeMapping:
		if len(n.pairs) == 0 {
			e.write("{}")
			return
		}
		e.write("{")
		for i, p := range n.pairs {
			if i > 0 {
				e.write(",")
			}
			if !oneline {
				e.write("\n" + strings.Repeat(" ", (level+1)*e.indent))
			}
			e.write(quoteJSON(p.Key.Scalar()))
			if oneline {
				e.write(":")
			} else {
				e.write(": ")
			}
			e.jsonNode(p.Value, level+1, oneline)
		}
		if !oneline {
			e.write("\n" + strings.Repeat(" ", level*e.indent))
		}
		e.write("}")
	}
}

// renderJSONScalar maps a scalar onto the JSON value grammar: plain
// core-schema nulls, booleans and numbers stay bare, everything else is
// a quoted string.
func renderJSONScalar(n *Node) string {
	s := n.Scalar()
	if n.style == StylePlain {
		switch s {
		case "", "~", "null", "Null", "NULL":
			return "null"
		case "true", "True", "TRUE":
			return "true"
		case "false", "False", "FALSE":
			return "false"
		}
		if isJSONNumber(s) {
			return s
		}
		// Hex and octal integers normalize to decimal.
		if v, err := n.Int(); err == nil {
			return strconv.FormatInt(v, 10)
		}
	}
	return quoteJSON(s)
}

func isJSONNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}
	if s[i] == '0' {
		i++
	} else if s[i] >= '1' && s[i] <= '9' {
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	} else {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}

func quoteJSON(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
