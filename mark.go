package fyaml

import "fmt"

// Mark is an immutable position in an input: the absolute byte offset from
// the start of the stream, the 1-based line and the 0-based column.
type Mark struct {
	Offset int
	Line   int
	Column int
}

// String returns the mark in "line:column" form with a 1-based column,
// which is how diagnostics render positions.
func (m Mark) String() string {
	return fmt.Sprintf("%d:%d", m.Line, m.Column+1)
}

// Before reports whether m precedes o in the stream.
func (m Mark) Before(o Mark) bool {
	return m.Offset < o.Offset
}
