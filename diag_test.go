package fyaml

import (
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkString(t *testing.T) {
	assert.Equal(t, "1:1", Mark{Line: 1, Column: 0}.String())
	assert.Equal(t, "3:7", Mark{Line: 3, Column: 6}.String())
	assert.True(t, Mark{Offset: 1}.Before(Mark{Offset: 2}))
}

func TestErrorFormat(t *testing.T) {
	src := "a: 1\nb: [\n"
	_, err := ParseString(src)
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ModParse, perr.Diag.Module)
	assert.Contains(t, err.Error(), "[parse]")
	// Position prefix is line:col with a 1-based column.
	assert.Regexp(t, `^\d+:\d+: `, err.Error())
}

func TestErrorRender(t *testing.T) {
	src := []byte("a: 1\nb: @bad\n")
	_, err := ParseString(string(src))
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)

	var b strings.Builder
	require.NoError(t, perr.Render(&b, src, RenderOptions{}))
	out := b.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "error")
	assert.Equal(t, "b: @bad", lines[1])
	// Marker sits under the offending column.
	assert.Equal(t, strings.Repeat(" ", perr.Diag.Mark.Column)+"^~~~", lines[2])
}

func TestDiagnosticLogging(t *testing.T) {
	var b strings.Builder
	logger := log.NewLogfmtLogger(&b)

	// A skipped unknown directive logs a warning through the sink.
	_, err := ParseString("%FOO bar\n---\na: 1\n", WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, b.String(), "unknown directive")
	assert.Contains(t, b.String(), "module=scan")
}
