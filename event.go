package fyaml

import "fmt"

// EventType identifies a structural parse event.
type EventType int

const (
	EventNone EventType = iota
	EventStreamStart
	EventStreamEnd
	EventDocumentStart
	EventDocumentEnd
	EventMappingStart
	EventMappingEnd
	EventSequenceStart
	EventSequenceEnd
	EventScalar
	EventAlias
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventStreamStart:
		return "StreamStart"
	case EventStreamEnd:
		return "StreamEnd"
	case EventDocumentStart:
		return "DocumentStart"
	case EventDocumentEnd:
		return "DocumentEnd"
	case EventMappingStart:
		return "MappingStart"
	case EventMappingEnd:
		return "MappingEnd"
	case EventSequenceStart:
		return "SequenceStart"
	case EventSequenceEnd:
		return "SequenceEnd"
	case EventScalar:
		return "Scalar"
	case EventAlias:
		return "Alias"
	default:
		return "None"
	}
}

// VersionDirective is the payload of a %YAML directive.
type VersionDirective struct {
	Major int
	Minor int
}

// TagDirective is one handle-to-prefix binding, either from a %TAG
// directive or one of the two defaults.
type TagDirective struct {
	Handle    string
	Prefix    string
	IsDefault bool
}

// Event is one structural parse event. Node events carry the anchor and
// tag tokens that preceded them; scalar and alias events keep a
// reference to the content token so the text can be materialized
// lazily.
type Event struct {
	Type  EventType
	Start Mark
	End   Mark

	token  *Token // scalar or alias token
	anchor *Token
	tag    *Token

	resolvedTag string
	implicit    bool
	flow        bool

	version *VersionDirective
	dirs    []*TagDirective
}

// Value materializes the decoded scalar text of a scalar event. For a
// synthesized empty scalar it is "".
func (e *Event) Value() string { return e.token.Text() }

// Token returns the underlying content token, nil for synthesized and
// structural events.
func (e *Event) Token() *Token { return e.token }

// Anchor returns the anchor name attached to a node event, or the
// referenced name for an alias event.
func (e *Event) Anchor() string {
	if e.Type == EventAlias {
		return e.token.Text()
	}
	return e.anchor.Text()
}

// Tag returns the resolved tag of a node event, "" when untagged.
func (e *Event) Tag() string { return e.resolvedTag }

// Style returns the scalar style of a scalar event.
func (e *Event) Style() Style {
	if e.token == nil {
		return StylePlain
	}
	return e.token.style
}

// Implicit reports whether a document marker was synthesized rather than
// present in the source, or whether a scalar was synthesized empty.
func (e *Event) Implicit() bool { return e.implicit }

// Flow reports whether a collection event came from flow syntax.
func (e *Event) Flow() bool { return e.flow }

// Version returns the %YAML directive in force at a document start, nil
// when none was given.
func (e *Event) Version() *VersionDirective { return e.version }

// TagDirectives returns the directives in force at a document start.
func (e *Event) TagDirectives() []*TagDirective { return e.dirs }

// String renders the event for debugging and the CLI event dump.
func (e *Event) String() string {
	switch e.Type {
	case EventScalar:
		return fmt.Sprintf("Scalar(%q)", e.Value())
	case EventAlias:
		return fmt.Sprintf("Alias(*%s)", e.Anchor())
	case EventDocumentStart, EventDocumentEnd:
		if e.implicit {
			return e.Type.String() + "(implicit)"
		}
		return e.Type.String()
	default:
		return e.Type.String()
	}
}

// release drops the event's token references.
func (e *Event) release() {
	e.token.unref()
	e.anchor.unref()
	e.tag.unref()
	e.token, e.anchor, e.tag = nil, nil, nil
}
