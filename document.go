package fyaml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NodeKind discriminates the three node variants.
type NodeKind int

const (
	NodeScalar NodeKind = iota
	NodeSequence
	NodeMapping
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case NodeScalar:
		return "scalar"
	case NodeSequence:
		return "sequence"
	case NodeMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// NodePair is one key/value entry of a mapping node. Insertion order is
// preserved.
type NodePair struct {
	Key   *Node
	Value *Node
}

// Node is one vertex of a document tree: a scalar with its source token,
// or an ordered sequence or mapping. Nodes keep a back-reference to the
// owning document.
type Node struct {
	kind NodeKind
	doc  *Document

	token    *Token
	value    string
	style    Style
	implicit bool

	tag    string
	anchor string
	alias  bool
	flow   bool

	items []*Node
	pairs []NodePair

	start, end Mark
}

// Kind returns the node variant.
func (n *Node) Kind() NodeKind { return n.kind }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }

// Start and End bound the node's source range.
func (n *Node) Start() Mark { return n.start }
func (n *Node) End() Mark   { return n.end }

// Scalar returns the decoded scalar text, "" for collections.
func (n *Node) Scalar() string {
	if n == nil || n.kind != NodeScalar {
		return ""
	}
	return n.value
}

// Style returns the presentation style of a scalar node.
func (n *Node) Style() Style { return n.style }

// Tag returns the resolved tag, "" when untagged.
func (n *Node) Tag() string {
	if n == nil {
		return ""
	}
	return n.tag
}

// Anchor returns the node's anchor name, or the referenced name for an
// alias node.
func (n *Node) Anchor() string {
	if n == nil {
		return ""
	}
	return n.anchor
}

// IsAlias reports whether this node was produced by an alias reference.
func (n *Node) IsAlias() bool { return n != nil && n.alias }

// Flow reports whether a collection node came from flow syntax.
func (n *Node) Flow() bool { return n != nil && n.flow }

// Len returns the item count of a sequence or pair count of a mapping.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case NodeSequence:
		return len(n.items)
	case NodeMapping:
		return len(n.pairs)
	}
	return 0
}

// Index returns the i-th sequence item, nil when out of range.
func (n *Node) Index(i int) *Node {
	if n == nil || n.kind != NodeSequence || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Pair returns the i-th mapping entry.
func (n *Node) Pair(i int) (key, value *Node) {
	if n == nil || n.kind != NodeMapping || i < 0 || i >= len(n.pairs) {
		return nil, nil
	}
	return n.pairs[i].Key, n.pairs[i].Value
}

// Get returns the value mapped to a scalar key, nil when absent.
func (n *Node) Get(key string) *Node {
	if n == nil || n.kind != NodeMapping {
		return nil
	}
	for _, p := range n.pairs {
		if p.Key.kind == NodeScalar && p.Key.value == key {
			return p.Value
		}
	}
	return nil
}

// At navigates a '/'-separated path of mapping keys and sequence
// indices, e.g. "/servers/0/port". Empty path segments are skipped; nil
// when any step is missing.
func (n *Node) At(path string) *Node {
	cur := n
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if cur == nil {
			return nil
		}
		switch cur.kind {
		case NodeMapping:
			cur = cur.Get(seg)
		case NodeSequence:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return nil
			}
			cur = cur.Index(i)
		default:
			return nil
		}
	}
	return cur
}

// IsNull reports whether a scalar node is a core-schema null.
func (n *Node) IsNull() bool {
	if n == nil {
		return true
	}
	if n.kind != NodeScalar || n.style != StylePlain {
		return false
	}
	switch n.value {
	case "", "~", "null", "Null", "NULL":
		return true
	}
	return false
}

// Bool interprets a plain scalar as a core-schema boolean.
func (n *Node) Bool() (bool, error) {
	if n == nil || n.kind != NodeScalar {
		return false, fmt.Errorf("node is not a scalar")
	}
	switch n.value {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("cannot interpret %q as bool", n.value)
}

// Int interprets a scalar as a core-schema integer: decimal, 0x hex or
// 0o octal.
func (n *Node) Int() (int64, error) {
	if n == nil || n.kind != NodeScalar {
		return 0, fmt.Errorf("node is not a scalar")
	}
	s := n.value
	neg := false
	body := s
	if strings.HasPrefix(body, "+") {
		body = body[1:]
	} else if strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X"):
		base = 16
		body = body[2:]
	case strings.HasPrefix(body, "0o") || strings.HasPrefix(body, "0O"):
		base = 8
		body = body[2:]
	}
	v, err := strconv.ParseInt(body, base, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot interpret %q as int", s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// Float interprets a scalar as a core-schema float, including the
// .inf/.nan forms.
func (n *Node) Float() (float64, error) {
	if n == nil || n.kind != NodeScalar {
		return 0, fmt.Errorf("node is not a scalar")
	}
	s := n.value
	switch s {
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		return math.Inf(1), nil
	case "-.inf", "-.Inf", "-.INF":
		return math.Inf(-1), nil
	case ".nan", ".NaN", ".NAN":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot interpret %q as float", s)
	}
	return v, nil
}

// Document is one complete parsed document: its root node, the
// directives in force, and the anchor registry built alongside.
type Document struct {
	root *Node

	version       *VersionDirective
	dirs          []*TagDirective
	startImplicit bool
	endImplicit   bool

	anchors map[string]*Node
}

// Root returns the document's root node.
func (d *Document) Root() *Node { return d.root }

// Version returns the %YAML directive in force, nil when none.
func (d *Document) Version() *VersionDirective { return d.version }

// TagDirectives returns the tag directives in force, defaults included.
func (d *Document) TagDirectives() []*TagDirective { return d.dirs }

// Implicit reports whether the "---" marker was absent from the source.
func (d *Document) Implicit() bool { return d.startImplicit }

// At navigates a path from the root, see Node.At.
func (d *Document) At(path string) *Node { return d.root.At(path) }

// Anchored returns the node registered under an anchor name.
func (d *Document) Anchored(name string) *Node { return d.anchors[name] }

func (p *Parser) docErrorf(mark Mark, format string, args ...any) error {
	d := newDiagnostic(LevelError, ModDoc, mark, format, args...)
	logDiag(p.logger, d)
	return &Error{Diag: d}
}

// NextDocument builds the next document from the event stream. It
// returns (nil, nil) once the stream is exhausted. A document-level
// error (duplicate key, unknown anchor) aborts the current document but
// not the stream.
func (p *Parser) NextDocument() (*Document, error) {
	for {
		ev, err := p.NextEvent()
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return nil, nil
		}
		switch ev.Type {
		case EventStreamStart:
			continue
		case EventStreamEnd:
			return nil, nil
		case EventDocumentStart:
			return p.buildDocument(ev)
		default:
			return nil, p.docErrorf(ev.Start, "unexpected %s event between documents", ev.Type)
		}
	}
}

func (p *Parser) buildDocument(start *Event) (*Document, error) {
	d := &Document{
		version:       start.Version(),
		dirs:          start.TagDirectives(),
		startImplicit: start.Implicit(),
		anchors:       make(map[string]*Node),
	}
	root, err := p.buildNode(d)
	if err != nil {
		return nil, err
	}
	end, err := p.NextEvent()
	if err != nil {
		return nil, err
	}
	if end == nil || end.Type != EventDocumentEnd {
		return nil, p.docErrorf(root.end, "document did not end where expected")
	}
	d.endImplicit = end.Implicit()
	d.root = root
	return d, nil
}

func (p *Parser) buildNode(d *Document) (*Node, error) {
	ev, err := p.NextEvent()
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, p.docErrorf(Mark{}, "unexpected end of event stream inside document")
	}
	return p.buildFrom(d, ev)
}

func (p *Parser) buildFrom(d *Document, ev *Event) (*Node, error) {
	switch ev.Type {
	case EventAlias:
		name := ev.Anchor()
		target := d.anchors[name]
		if target == nil {
			return nil, p.docErrorf(ev.Start, "alias *%s references an unknown anchor", name)
		}
		// Copy-by-reference: collections share their children with the
		// anchored node.
		n := *target
		n.alias = true
		n.anchor = name
		n.start, n.end = ev.Start, ev.End
		ev.release()
		return &n, nil

	case EventScalar:
		n := &Node{
			kind:     NodeScalar,
			doc:      d,
			token:    ev.Token().ref(),
			value:    ev.Value(),
			style:    ev.Style(),
			implicit: ev.Implicit(),
			tag:      ev.Tag(),
			anchor:   ev.Anchor(),
			start:    ev.Start,
			end:      ev.End,
		}
		p.registerAnchor(d, n)
		ev.release()
		return n, nil

	case EventSequenceStart:
		n := &Node{
			kind: NodeSequence, doc: d,
			tag: ev.Tag(), anchor: ev.Anchor(), flow: ev.Flow(),
			start: ev.Start,
		}
		for {
			item, err := p.NextEvent()
			if err != nil {
				return nil, err
			}
			if item == nil {
				return nil, p.docErrorf(n.start, "unexpected end of event stream inside sequence")
			}
			if item.Type == EventSequenceEnd {
				n.end = item.End
				break
			}
			child, err := p.buildFrom(d, item)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		p.registerAnchor(d, n)
		ev.release()
		return n, nil

	case EventMappingStart:
		n := &Node{
			kind: NodeMapping, doc: d,
			tag: ev.Tag(), anchor: ev.Anchor(), flow: ev.Flow(),
			start: ev.Start,
		}
		seen := make(map[string]bool)
		for {
			item, err := p.NextEvent()
			if err != nil {
				return nil, err
			}
			if item == nil {
				return nil, p.docErrorf(n.start, "unexpected end of event stream inside mapping")
			}
			if item.Type == EventMappingEnd {
				n.end = item.End
				break
			}
			key, err := p.buildFrom(d, item)
			if err != nil {
				return nil, err
			}
			if key.kind == NodeScalar {
				if seen[key.value] {
					return nil, p.docErrorf(key.start, "duplicate mapping key %q", key.value)
				}
				seen[key.value] = true
			}
			value, err := p.buildNode(d)
			if err != nil {
				return nil, err
			}
			n.pairs = append(n.pairs, NodePair{Key: key, Value: value})
		}
		p.registerAnchor(d, n)
		ev.release()
		return n, nil
	}
	return nil, p.docErrorf(ev.Start, "unexpected %s event inside document", ev.Type)
}

// registerAnchor records a completed node under its anchor. Anchors are
// registered after the node is built, so a node cannot alias itself;
// re-using a name shadows the earlier node.
func (p *Parser) registerAnchor(d *Document, n *Node) {
	if n.anchor != "" {
		d.anchors[n.anchor] = n
	}
}
