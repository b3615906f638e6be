package fyaml

import (
	"github.com/go-kit/log"
)

type parserState int

const (
	psStreamStart parserState = iota
	psImplicitDocumentStart
	psDocumentStart
	psDocumentContent
	psDocumentEnd
	psBlockNode
	psBlockSequenceFirstEntry
	psBlockSequenceEntry
	psIndentlessSequenceEntry
	psBlockMappingFirstKey
	psBlockMappingKey
	psBlockMappingValue
	psFlowSequenceFirstEntry
	psFlowSequenceEntry
	psFlowSequenceEntryMappingKey
	psFlowSequenceEntryMappingValue
	psFlowSequenceEntryMappingEnd
	psFlowMappingFirstKey
	psFlowMappingKey
	psFlowMappingValue
	psFlowMappingEmptyValue
	psEnd
)

// Parser turns a token stream into structural events. It is a pushdown
// machine: the current state plus a stack of return states, with the tag
// directive scope tracked per document.
type Parser struct {
	scan   *scanner
	logger log.Logger

	state  parserState
	states []parserState

	version  *VersionDirective
	dirs     []*TagDirective
	maxDepth int

	err error
}

func newParserMachine(scan *scanner, logger log.Logger, maxDepth int) *Parser {
	return &Parser{
		scan:     scan,
		logger:   logger,
		state:    psStreamStart,
		maxDepth: maxDepth,
	}
}

func (p *Parser) errorf(mark Mark, format string, args ...any) (*Event, error) {
	d := newDiagnostic(LevelError, ModParse, mark, format, args...)
	logDiag(p.logger, d)
	err := &Error{Diag: d}
	if p.err == nil {
		p.err = err
	}
	return nil, err
}

func (p *Parser) push(st parserState) { p.states = append(p.states, st) }

func (p *Parser) pop() parserState {
	st := p.states[len(p.states)-1]
	p.states = p.states[:len(p.states)-1]
	return st
}

// NextToken bypasses the event machine and returns the next raw token.
// Callers that mix NextToken and NextEvent get events for whatever
// tokens remain.
func (p *Parser) NextToken() (*Token, error) {
	return p.scan.next()
}

// NextEvent returns the next structural event. After EventStreamEnd it
// returns (nil, nil); after a failure it keeps returning the same error.
func (p *Parser) NextEvent() (*Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.state == psEnd {
		return nil, nil
	}
	ev, err := p.step()
	if err != nil && p.err == nil {
		p.err = err
	}
	return ev, err
}

func (p *Parser) step() (*Event, error) {
	switch p.state {
	case psStreamStart:
		return p.parseStreamStart()
	case psImplicitDocumentStart:
		return p.parseDocumentStart(true)
	case psDocumentStart:
		return p.parseDocumentStart(false)
	case psDocumentContent:
		return p.parseDocumentContent()
	case psDocumentEnd:
		return p.parseDocumentEnd()
	case psBlockNode:
		return p.parseNode(true, false)
	case psBlockSequenceFirstEntry:
		return p.parseBlockSequenceEntry(true)
	case psBlockSequenceEntry:
		return p.parseBlockSequenceEntry(false)
	case psIndentlessSequenceEntry:
		return p.parseIndentlessSequenceEntry()
	case psBlockMappingFirstKey:
		return p.parseBlockMappingKey(true)
	case psBlockMappingKey:
		return p.parseBlockMappingKey(false)
	case psBlockMappingValue:
		return p.parseBlockMappingValue()
	case psFlowSequenceFirstEntry:
		return p.parseFlowSequenceEntry(true)
	case psFlowSequenceEntry:
		return p.parseFlowSequenceEntry(false)
	case psFlowSequenceEntryMappingKey:
		return p.parseFlowSequenceEntryMappingKey()
	case psFlowSequenceEntryMappingValue:
		return p.parseFlowSequenceEntryMappingValue()
	case psFlowSequenceEntryMappingEnd:
		return p.parseFlowSequenceEntryMappingEnd()
	case psFlowMappingFirstKey:
		return p.parseFlowMappingKey(true)
	case psFlowMappingKey:
		return p.parseFlowMappingKey(false)
	case psFlowMappingValue:
		return p.parseFlowMappingValue(false)
	case psFlowMappingEmptyValue:
		return p.parseFlowMappingValue(true)
	}
	return p.errorf(Mark{}, "parser in unexpected state %d", p.state)
}

func (p *Parser) peek() (*Token, error) {
	return p.scan.peekToken()
}

func (p *Parser) parseStreamStart() (*Event, error) {
	tok, err := p.scan.next()
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenStreamStart {
		return p.errorf(tok.Start, "did not find expected stream start")
	}
	p.state = psImplicitDocumentStart
	ev := &Event{Type: EventStreamStart, Start: tok.Start, End: tok.End}
	tok.unref()
	return ev, nil
}

// processDirectives consumes leading %YAML and %TAG tokens and installs
// the document's tag directive scope, defaults included.
func (p *Parser) processDirectives() error {
	p.version = nil
	p.dirs = nil
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		switch tok.Type {
		case TokenVersionDirective:
			major, minor := tok.Version()
			p.version = &VersionDirective{Major: major, Minor: minor}
		case TokenTagDirective:
			for _, d := range p.dirs {
				if d.Handle == tok.TagHandle() {
					_, err := p.errorf(tok.Start, "found duplicate %%TAG directive for handle %s", d.Handle)
					return err
				}
			}
			p.dirs = append(p.dirs, &TagDirective{
				Handle: tok.TagHandle(),
				Prefix: tok.TagPrefix(),
			})
		default:
			p.installDefaultDirectives()
			return nil
		}
		if _, err := p.scan.next(); err != nil {
			return err
		}
		tok.unref()
	}
}

func (p *Parser) installDefaultDirectives() {
	var havePrimary, haveSecondary bool
	for _, d := range p.dirs {
		switch d.Handle {
		case "!":
			havePrimary = true
		case "!!":
			haveSecondary = true
		}
	}
	if !havePrimary {
		p.dirs = append(p.dirs, &TagDirective{Handle: "!", Prefix: "!", IsDefault: true})
	}
	if !haveSecondary {
		p.dirs = append(p.dirs, &TagDirective{Handle: "!!", Prefix: "tag:yaml.org,2002:", IsDefault: true})
	}
}

func (p *Parser) parseDocumentStart(implicit bool) (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !implicit {
		// Trailing "..." markers of the previous document.
		for tok.Type == TokenDocumentEnd {
			if _, err := p.scan.next(); err != nil {
				return nil, err
			}
			tok.unref()
			if tok, err = p.peek(); err != nil {
				return nil, err
			}
		}
	}

	if implicit && tok.Type != TokenVersionDirective && tok.Type != TokenTagDirective &&
		tok.Type != TokenDocumentStart && tok.Type != TokenStreamEnd {
		if err := p.processDirectives(); err != nil {
			return nil, err
		}
		p.push(psDocumentEnd)
		p.state = psBlockNode
		return &Event{
			Type: EventDocumentStart, Start: tok.Start, End: tok.Start,
			implicit: true, version: p.version, dirs: p.dirs,
		}, nil
	}

	if tok.Type == TokenStreamEnd {
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		p.state = psEnd
		ev := &Event{Type: EventStreamEnd, Start: tok.Start, End: tok.End}
		tok.unref()
		return ev, nil
	}

	if err := p.processDirectives(); err != nil {
		return nil, err
	}
	tok, err = p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenDocumentStart {
		return p.errorf(tok.Start, "did not find expected '---' document start")
	}
	if _, err := p.scan.next(); err != nil {
		return nil, err
	}
	p.push(psDocumentEnd)
	p.state = psDocumentContent
	ev := &Event{
		Type: EventDocumentStart, Start: tok.Start, End: tok.End,
		version: p.version, dirs: p.dirs,
	}
	tok.unref()
	return ev, nil
}

func (p *Parser) parseDocumentContent() (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case TokenVersionDirective, TokenTagDirective, TokenDocumentStart,
		TokenDocumentEnd, TokenStreamEnd:
		p.state = p.pop()
		return p.emptyScalar(tok.Start), nil
	}
	return p.parseNode(true, false)
}

func (p *Parser) parseDocumentEnd() (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	implicit := true
	start, end := tok.Start, tok.Start
	if tok.Type == TokenDocumentEnd {
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		end = tok.End
		implicit = false
		tok.unref()
	}
	p.version = nil
	p.dirs = nil
	p.state = psDocumentStart
	return &Event{Type: EventDocumentEnd, Start: start, End: end, implicit: implicit}, nil
}

// emptyScalar synthesizes a zero-length plain scalar event at mark.
func (p *Parser) emptyScalar(mark Mark) *Event {
	return &Event{Type: EventScalar, Start: mark, End: mark, implicit: true}
}

// resolveTag expands a tag token against the document's directives.
func (p *Parser) resolveTag(tok *Token) (string, error) {
	handle := tok.TagHandle()
	suffix := tok.Text()
	if tok.atom != nil && tok.atom.Err() != nil {
		return "", tok.atom.Err()
	}
	if handle == "" {
		// Verbatim !<...>.
		return suffix, nil
	}
	if handle == "!" && suffix == "" {
		// Non-specific "!".
		return "!", nil
	}
	for _, d := range p.dirs {
		if d.Handle == handle {
			if d.Prefix == "!" {
				return "!" + suffix, nil
			}
			return d.Prefix + suffix, nil
		}
	}
	_, err := p.errorf(tok.Start, "found undefined tag handle %s", handle)
	return "", err
}

func (p *Parser) checkDepth(mark Mark) error {
	if p.maxDepth > 0 && len(p.states) >= p.maxDepth {
		_, err := p.errorf(mark, "exceeded maximum nesting depth of %d", p.maxDepth)
		return err
	}
	return nil
}

// parseNode parses a complete node: optional anchor and tag properties
// followed by content. indentless permits a '-' entry to open a
// sequence at the parent mapping's own indent.
func (p *Parser) parseNode(block, indentless bool) (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	if tok.Type == TokenAlias {
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		p.state = p.pop()
		return &Event{Type: EventAlias, Start: tok.Start, End: tok.End, token: tok}, nil
	}

	start := tok.Start
	var anchor, tag *Token
	for {
		if tok.Type == TokenAnchor && anchor == nil {
			anchor = tok
			if _, err := p.scan.next(); err != nil {
				return nil, err
			}
		} else if tok.Type == TokenTag && tag == nil {
			tag = tok
			if _, err := p.scan.next(); err != nil {
				return nil, err
			}
		} else {
			break
		}
		if tok, err = p.peek(); err != nil {
			return nil, err
		}
	}

	resolved := ""
	if tag != nil {
		if resolved, err = p.resolveTag(tag); err != nil {
			return nil, err
		}
	}

	ev := &Event{Start: start, anchor: anchor, tag: tag, resolvedTag: resolved}

	if indentless && tok.Type == TokenBlockEntry {
		if err := p.checkDepth(tok.Start); err != nil {
			return nil, err
		}
		ev.Type = EventSequenceStart
		ev.End = tok.End
		p.state = psIndentlessSequenceEntry
		return ev, nil
	}

	switch tok.Type {
	case TokenScalar:
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		ev.Type = EventScalar
		ev.End = tok.End
		ev.token = tok
		p.state = p.pop()
		return ev, nil

	case TokenFlowSequenceStart:
		if err := p.checkDepth(tok.Start); err != nil {
			return nil, err
		}
		ev.Type = EventSequenceStart
		ev.End = tok.End
		ev.flow = true
		p.state = psFlowSequenceFirstEntry
		return ev, nil

	case TokenFlowMappingStart:
		if err := p.checkDepth(tok.Start); err != nil {
			return nil, err
		}
		ev.Type = EventMappingStart
		ev.End = tok.End
		ev.flow = true
		p.state = psFlowMappingFirstKey
		return ev, nil

	case TokenBlockSequenceStart:
		if block {
			if err := p.checkDepth(tok.Start); err != nil {
				return nil, err
			}
			ev.Type = EventSequenceStart
			ev.End = tok.End
			p.state = psBlockSequenceFirstEntry
			return ev, nil
		}

	case TokenBlockMappingStart:
		if block {
			if err := p.checkDepth(tok.Start); err != nil {
				return nil, err
			}
			ev.Type = EventMappingStart
			ev.End = tok.End
			p.state = psBlockMappingFirstKey
			return ev, nil
		}
	}

	if anchor != nil || tag != nil {
		// Properties with no content make an empty scalar.
		ev.Type = EventScalar
		ev.End = start
		ev.implicit = true
		p.state = p.pop()
		return ev, nil
	}

	anchor.unref()
	tag.unref()
	return p.errorf(tok.Start, "did not find expected node content but %s", tok)
}

func (p *Parser) parseBlockSequenceEntry(first bool) (*Event, error) {
	if first {
		tok, err := p.scan.next()
		if err != nil {
			return nil, err
		}
		tok.unref()
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case TokenBlockEntry:
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		mark := tok.End
		tok.unref()
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.Type == TokenBlockEntry || next.Type == TokenBlockEnd {
			p.state = psBlockSequenceEntry
			return p.emptyScalar(mark), nil
		}
		p.push(psBlockSequenceEntry)
		return p.parseNode(true, false)

	case TokenBlockEnd:
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		p.state = p.pop()
		ev := &Event{Type: EventSequenceEnd, Start: tok.Start, End: tok.End}
		tok.unref()
		return ev, nil
	}
	return p.errorf(tok.Start, "while parsing a block sequence, did not find expected '-' indicator")
}

func (p *Parser) parseIndentlessSequenceEntry() (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenBlockEntry {
		p.state = p.pop()
		return &Event{Type: EventSequenceEnd, Start: tok.Start, End: tok.Start}, nil
	}
	if _, err := p.scan.next(); err != nil {
		return nil, err
	}
	mark := tok.End
	tok.unref()
	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch next.Type {
	case TokenBlockEntry, TokenKey, TokenValue, TokenBlockEnd:
		p.state = psIndentlessSequenceEntry
		return p.emptyScalar(mark), nil
	}
	p.push(psIndentlessSequenceEntry)
	return p.parseNode(true, false)
}

func (p *Parser) parseBlockMappingKey(first bool) (*Event, error) {
	if first {
		tok, err := p.scan.next()
		if err != nil {
			return nil, err
		}
		tok.unref()
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case TokenKey:
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		mark := tok.End
		tok.unref()
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch next.Type {
		case TokenKey, TokenValue, TokenBlockEnd:
			p.state = psBlockMappingValue
			return p.emptyScalar(mark), nil
		}
		p.push(psBlockMappingValue)
		return p.parseNode(true, true)

	case TokenBlockEnd:
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		p.state = p.pop()
		ev := &Event{Type: EventMappingEnd, Start: tok.Start, End: tok.End}
		tok.unref()
		return ev, nil
	}
	return p.errorf(tok.Start, "while parsing a block mapping, did not find expected key")
}

func (p *Parser) parseBlockMappingValue() (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenValue {
		p.state = psBlockMappingKey
		return p.emptyScalar(tok.Start), nil
	}
	if _, err := p.scan.next(); err != nil {
		return nil, err
	}
	mark := tok.End
	tok.unref()
	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch next.Type {
	case TokenKey, TokenValue, TokenBlockEnd:
		p.state = psBlockMappingKey
		return p.emptyScalar(mark), nil
	}
	p.push(psBlockMappingKey)
	return p.parseNode(true, true)
}

func (p *Parser) parseFlowSequenceEntry(first bool) (*Event, error) {
	if first {
		tok, err := p.scan.next()
		if err != nil {
			return nil, err
		}
		tok.unref()
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenFlowSequenceEnd {
		if !first {
			if tok.Type != TokenFlowEntry {
				return p.errorf(tok.Start, "while parsing a flow sequence, did not find expected ',' or ']'")
			}
			if _, err := p.scan.next(); err != nil {
				return nil, err
			}
			tok.unref()
			if tok, err = p.peek(); err != nil {
				return nil, err
			}
		}
		if tok.Type == TokenKey {
			// Single-pair mapping inside a flow sequence.
			if _, err := p.scan.next(); err != nil {
				return nil, err
			}
			p.state = psFlowSequenceEntryMappingKey
			ev := &Event{
				Type: EventMappingStart, Start: tok.Start, End: tok.End,
				flow: true, implicit: true,
			}
			tok.unref()
			return ev, nil
		}
		if tok.Type != TokenFlowSequenceEnd {
			p.push(psFlowSequenceEntry)
			return p.parseNode(false, false)
		}
	}
	if _, err := p.scan.next(); err != nil {
		return nil, err
	}
	p.state = p.pop()
	ev := &Event{Type: EventSequenceEnd, Start: tok.Start, End: tok.End, flow: true}
	tok.unref()
	return ev, nil
}

func (p *Parser) parseFlowSequenceEntryMappingKey() (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case TokenValue, TokenFlowEntry, TokenFlowSequenceEnd:
		p.state = psFlowSequenceEntryMappingValue
		return p.emptyScalar(tok.Start), nil
	}
	p.push(psFlowSequenceEntryMappingValue)
	return p.parseNode(false, false)
}

func (p *Parser) parseFlowSequenceEntryMappingValue() (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenValue {
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		mark := tok.End
		tok.unref()
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.Type == TokenFlowEntry || next.Type == TokenFlowSequenceEnd {
			p.state = psFlowSequenceEntryMappingEnd
			return p.emptyScalar(mark), nil
		}
		p.push(psFlowSequenceEntryMappingEnd)
		return p.parseNode(false, false)
	}
	p.state = psFlowSequenceEntryMappingEnd
	return p.emptyScalar(tok.Start), nil
}

func (p *Parser) parseFlowSequenceEntryMappingEnd() (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	p.state = psFlowSequenceEntry
	return &Event{Type: EventMappingEnd, Start: tok.Start, End: tok.Start, flow: true}, nil
}

func (p *Parser) parseFlowMappingKey(first bool) (*Event, error) {
	if first {
		tok, err := p.scan.next()
		if err != nil {
			return nil, err
		}
		tok.unref()
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenFlowMappingEnd {
		if !first {
			if tok.Type != TokenFlowEntry {
				return p.errorf(tok.Start, "while parsing a flow mapping, did not find expected ',' or '}'")
			}
			if _, err := p.scan.next(); err != nil {
				return nil, err
			}
			tok.unref()
			if tok, err = p.peek(); err != nil {
				return nil, err
			}
		}
		if tok.Type == TokenKey {
			if _, err := p.scan.next(); err != nil {
				return nil, err
			}
			mark := tok.End
			tok.unref()
			next, err := p.peek()
			if err != nil {
				return nil, err
			}
			switch next.Type {
			case TokenValue, TokenFlowEntry, TokenFlowMappingEnd:
				p.state = psFlowMappingValue
				return p.emptyScalar(mark), nil
			}
			p.push(psFlowMappingValue)
			return p.parseNode(false, false)
		}
		if tok.Type != TokenFlowMappingEnd {
			p.push(psFlowMappingEmptyValue)
			return p.parseNode(false, false)
		}
	}
	if _, err := p.scan.next(); err != nil {
		return nil, err
	}
	p.state = p.pop()
	ev := &Event{Type: EventMappingEnd, Start: tok.Start, End: tok.End, flow: true}
	tok.unref()
	return ev, nil
}

func (p *Parser) parseFlowMappingValue(empty bool) (*Event, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if empty {
		p.state = psFlowMappingKey
		return p.emptyScalar(tok.Start), nil
	}
	if tok.Type == TokenValue {
		if _, err := p.scan.next(); err != nil {
			return nil, err
		}
		mark := tok.End
		tok.unref()
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.Type != TokenFlowEntry && next.Type != TokenFlowMappingEnd {
			p.push(psFlowMappingKey)
			return p.parseNode(false, false)
		}
		p.state = psFlowMappingKey
		return p.emptyScalar(mark), nil
	}
	p.state = psFlowMappingKey
	return p.emptyScalar(tok.Start), nil
}
