package fyaml

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderMarks(t *testing.T) {
	f := func(name, input string, consume int, want Mark) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			r := newReader(InputString(input), ModeYAML12, 0)
			for i := 0; i < consume; i++ {
				r.get()
			}
			assert.Equal(t, want, r.mark())
		})
	}

	f("start", "abc", 0, Mark{Offset: 0, Line: 1, Column: 0})
	f("mid_line", "abc", 2, Mark{Offset: 2, Line: 1, Column: 2})
	f("after_lf", "ab\ncd", 3, Mark{Offset: 3, Line: 2, Column: 0})
	f("after_cr", "ab\rcd", 3, Mark{Offset: 3, Line: 2, Column: 0})
	// CRLF is one break: consuming CR then LF moves to line 2 once.
	f("after_crlf", "ab\r\ncd", 4, Mark{Offset: 4, Line: 2, Column: 0})
	f("second_line_content", "a\nbc", 3, Mark{Offset: 3, Line: 2, Column: 1})
	// Multi-byte runes advance one column.
	f("utf8_column", "é x", 1, Mark{Offset: 2, Line: 1, Column: 1})
}

func TestReaderTabs(t *testing.T) {
	f := func(name, input string, tabsize, consume, wantCol int) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			r := newReader(InputString(input), ModeYAML12, tabsize)
			for i := 0; i < consume; i++ {
				r.get()
			}
			assert.Equal(t, wantCol, r.col)
		})
	}

	f("tab_as_one_column", "\tx", 0, 1, 1)
	f("tab_to_stop", "\tx", 8, 1, 8)
	f("tab_after_content", "ab\tx", 4, 3, 4)
	f("two_tabs", "\t\tx", 4, 2, 8)
}

func TestReaderLineBreakModes(t *testing.T) {
	// NEL is a break in YAML 1.1 only.
	r11 := newReader(InputString("ab"), ModeYAML11, 0)
	r11.get() // a
	r11.get() // NEL
	assert.Equal(t, 2, r11.line)
	assert.Equal(t, 0, r11.col)

	r12 := newReader(InputString("ab"), ModeYAML12, 0)
	r12.get()
	r12.get()
	assert.Equal(t, 1, r12.line)
	assert.Equal(t, 2, r12.col)
}

func TestReaderSentinels(t *testing.T) {
	r := newReader(InputString("a"), ModeYAML12, 0)
	assert.Equal(t, 'a', r.get())
	assert.Equal(t, runeEOF, r.peek())
	assert.Equal(t, runeEOF, r.get())

	// Truncated UTF-8 at EOF is invalid, not partial.
	r = newReader(InputMemory([]byte{0xC3}), ModeYAML12, 0)
	assert.Equal(t, runeInvalid, r.peek())

	r = newReader(InputMemory([]byte{0xFF, 'a'}), ModeYAML12, 0)
	assert.Equal(t, runeInvalid, r.peek())
}

func TestReaderPeekAt(t *testing.T) {
	r := newReader(InputString("abc"), ModeYAML12, 0)
	assert.Equal(t, 'a', r.peekAt(0))
	assert.Equal(t, 'c', r.peekAt(2))
	assert.Equal(t, runeEOF, r.peekAt(3))
	// The cursor does not move.
	assert.Equal(t, 0, r.off)
}

func TestReaderBOM(t *testing.T) {
	r := newReader(InputString("\uFEFFa"), ModeYAML12, 0)
	r.skipBOM()
	assert.Equal(t, 3, r.off)
	assert.Equal(t, 'a', r.peek())

	// No BOM: offset stays.
	r = newReader(InputString("abc"), ModeYAML12, 0)
	r.skipBOM()
	assert.Equal(t, 0, r.off)
}

func TestReaderStreamingInput(t *testing.T) {
	// A reader over a streaming source sees the same bytes as one over
	// memory, growing the buffer as it goes.
	text := strings.Repeat("x", 3*defaultChunk) + "end"
	r := newReader(inputFromReaderString(text), ModeYAML12, 0)
	var got []rune
	for {
		c := r.get()
		if c < 0 {
			break
		}
		got = append(got, c)
	}
	require.Equal(t, len(text), len(got))
	assert.Equal(t, "end", string(got[len(got)-3:]))
	assert.Greater(t, r.in.Generation(), int64(0))
}

func TestInputCallback(t *testing.T) {
	data := []byte("a: 1\nb: 2\n")
	pos := 0
	in := InputCallback(func(p []byte) (int, error) {
		if pos >= len(data) {
			return 0, io.EOF
		}
		// Trickle one byte at a time to exercise refills.
		p[0] = data[pos]
		pos++
		return 1, nil
	})
	doc, err := NewParser(in).NextDocument()
	require.NoError(t, err)
	assert.Equal(t, "2", doc.At("/b").Scalar())
}

func TestInputSpawnTail(t *testing.T) {
	in := inputFromReaderString("hello world")
	_, err := in.ensure(0, 11)
	require.NoError(t, err)

	old := in
	tail := in.spawnTail(6)
	assert.Equal(t, "world", string(tail.bytesAt(6, 11)))
	// The old input keeps its bytes so outstanding atoms stay valid.
	assert.Equal(t, "hello", string(old.bytesAt(0, 5)))
	assert.Equal(t, old.Generation()+1, tail.Generation())
}
