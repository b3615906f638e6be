// Package fyaml parses and emits YAML 1.2, YAML 1.1 and JSON document
// streams. Parsing is staged: an Input feeds a UTF-8 reader, the scanner
// produces tokens whose scalar content stays as source-range atoms, the
// parser turns tokens into structural events, and a document builder
// assembles node trees with anchors resolved. Scalar text is only
// decoded when asked for.
//
// For the common cases there are one-call helpers:
//
//	doc, err := fyaml.Parse(data)
//	port, err := doc.At("/servers/0/port").Int()
//
// and reflection-based Unmarshal/Marshal mirroring encoding/json.
package fyaml

import (
	"io"

	"github.com/go-kit/log"
)

// Option configures a Parser.
type Option func(*config)

type config struct {
	mode    Mode
	tabsize int
	logger  log.Logger
	strict  bool
	depth   int
}

// WithMode selects the input dialect, ModeYAML12 by default.
func WithMode(m Mode) Option {
	return func(c *config) { c.mode = m }
}

// WithTabSize makes columns advance to tab stops of the given width.
// Zero, the default, counts a tab as one column.
func WithTabSize(n int) Option {
	return func(c *config) { c.tabsize = n }
}

// WithLogger installs a sink that receives every diagnostic as a
// structured log line.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStrictDirectives makes unknown %directives an error instead of a
// skipped warning.
func WithStrictDirectives() Option {
	return func(c *config) { c.strict = true }
}

// WithMaxDepth bounds collection nesting, 0 meaning no bound.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.depth = n }
}

// NewParser builds a parser over an input. The input is consumed as
// events or documents are pulled; closing it is the caller's business
// once parsing is done.
func NewParser(in *Input, opts ...Option) *Parser {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	r := newReader(in, c.mode, c.tabsize)
	scan := newScanner(r, c.logger, c.strict)
	return newParserMachine(scan, c.logger, c.depth)
}

// Parse parses the first document of a byte slice.
func Parse(data []byte, opts ...Option) (*Document, error) {
	return parseOne(InputMemory(data), opts)
}

// ParseString parses the first document of a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return parseOne(InputString(s), opts)
}

// ParseFile parses the first document of a file, memory-mapping it when
// the platform allows.
func ParseFile(path string, opts ...Option) (*Document, error) {
	in, err := InputFile(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return parseOne(in, opts)
}

// ParseReader parses the first document from a stream.
func ParseReader(r io.Reader, opts ...Option) (*Document, error) {
	return parseOne(InputReader(r), opts)
}

func parseOne(in *Input, opts []Option) (*Document, error) {
	p := NewParser(in, opts...)
	doc, err := p.NextDocument()
	if err != nil {
		return nil, err
	}
	if doc == nil {
		// An empty stream still has one (empty) document's worth of
		// nothing in it; surface that as a null root.
		d := &Document{startImplicit: true, endImplicit: true, anchors: map[string]*Node{}}
		d.root = &Node{kind: NodeScalar, doc: d, implicit: true}
		return d, nil
	}
	return doc, nil
}

// ParseAll parses every document of a multi-document stream.
func ParseAll(data []byte, opts ...Option) ([]*Document, error) {
	p := NewParser(InputMemory(data), opts...)
	var docs []*Document
	for {
		doc, err := p.NextDocument()
		if err != nil {
			return docs, err
		}
		if doc == nil {
			return docs, nil
		}
		docs = append(docs, doc)
	}
}
