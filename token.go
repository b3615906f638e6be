package fyaml

import (
	"fmt"

	"go.uber.org/atomic"
)

// TokenType identifies a lexical token in a YAML stream. The set is
// closed; the scanner produces nothing else.
type TokenType int

const (
	TokenNone TokenType = iota
	TokenStreamStart
	TokenStreamEnd

	// Directive tokens.
	TokenVersionDirective // %YAML major.minor
	TokenTagDirective     // %TAG handle prefix

	// Document markers.
	TokenDocumentStart // --- at column 0
	TokenDocumentEnd   // ... at column 0

	// Block collection tokens.
	TokenBlockSequenceStart
	TokenBlockMappingStart
	TokenBlockEnd
	TokenBlockEntry // '-' item marker

	// Flow collection tokens.
	TokenFlowSequenceStart // '['
	TokenFlowSequenceEnd   // ']'
	TokenFlowMappingStart  // '{'
	TokenFlowMappingEnd    // '}'
	TokenFlowEntry         // ','

	// Mapping structure tokens.
	TokenKey   // '?' or a confirmed simple key
	TokenValue // ':'

	// Node property and content tokens.
	TokenAlias  // *name
	TokenAnchor // &name
	TokenTag    // !handle!suffix, !<verbatim>, !
	TokenScalar
)

// Token is a typed wrapper around an atom plus per-kind payload. Tokens
// are reference-counted because documents, events and the scanner queue
// all hold them; the last release drops the atom's input reference.
type Token struct {
	Type  TokenType
	Start Mark
	End   Mark

	atom  *Atom
	style Style // scalar style

	// Tag token payload.
	handle string

	// Tag directive payload.
	prefix    string
	isDefault bool

	// Version directive payload.
	major, minor int

	refs atomic.Int64
}

func newToken(typ TokenType, start, end Mark) *Token {
	t := &Token{Type: typ, Start: start, End: end}
	t.refs.Store(1)
	return t
}

// ref takes an additional reference on the token.
func (t *Token) ref() *Token {
	if t != nil {
		t.refs.Inc()
	}
	return t
}

// unref releases one reference; the last one releases the atom.
func (t *Token) unref() {
	if t == nil {
		return
	}
	if t.refs.Dec() == 0 && t.atom != nil {
		t.atom.release()
	}
}

// Atom returns the token's source atom, nil for structural tokens.
func (t *Token) Atom() *Atom { return t.atom }

// ScalarStyle returns the presentation style of a scalar token.
func (t *Token) ScalarStyle() Style { return t.style }

// Text materializes the token's decoded text: the scalar value, the
// anchor or alias name, or the resolved tag suffix.
func (t *Token) Text() string {
	if t == nil || t.atom == nil {
		return ""
	}
	return t.atom.Text()
}

// Version returns the payload of a version directive token.
func (t *Token) Version() (major, minor int) { return t.major, t.minor }

// TagHandle returns the handle of a tag or tag-directive token.
func (t *Token) TagHandle() string { return t.handle }

// TagPrefix returns the prefix of a tag directive token.
func (t *Token) TagPrefix() string { return t.prefix }

// String returns a human-readable representation of the token.
func (t *Token) String() string {
	switch t.Type {
	case TokenNone:
		return "None"
	case TokenStreamStart:
		return "StreamStart"
	case TokenStreamEnd:
		return "StreamEnd"
	case TokenVersionDirective:
		return fmt.Sprintf("VersionDirective(%d.%d)", t.major, t.minor)
	case TokenTagDirective:
		return fmt.Sprintf("TagDirective(%s %s)", t.handle, t.prefix)
	case TokenDocumentStart:
		return "DocumentStart"
	case TokenDocumentEnd:
		return "DocumentEnd"
	case TokenBlockSequenceStart:
		return "BlockSequenceStart"
	case TokenBlockMappingStart:
		return "BlockMappingStart"
	case TokenBlockEnd:
		return "BlockEnd"
	case TokenBlockEntry:
		return "BlockEntry"
	case TokenFlowSequenceStart:
		return "FlowSequenceStart"
	case TokenFlowSequenceEnd:
		return "FlowSequenceEnd"
	case TokenFlowMappingStart:
		return "FlowMappingStart"
	case TokenFlowMappingEnd:
		return "FlowMappingEnd"
	case TokenFlowEntry:
		return "FlowEntry"
	case TokenKey:
		return "Key"
	case TokenValue:
		return "Value"
	case TokenAlias:
		return fmt.Sprintf("Alias(*%s)", t.Text())
	case TokenAnchor:
		return fmt.Sprintf("Anchor(&%s)", t.Text())
	case TokenTag:
		return fmt.Sprintf("Tag(%s %s)", t.handle, t.Text())
	case TokenScalar:
		return fmt.Sprintf("Scalar(%q, %s)", t.Text(), t.style)
	default:
		return fmt.Sprintf("Unknown(%d)", t.Type)
	}
}
