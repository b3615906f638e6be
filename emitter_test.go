package fyaml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emitMode(t *testing.T, input string, mode EmitMode) string {
	t.Helper()
	doc, err := ParseString(input)
	require.NoError(t, err)
	out, err := EmitString(doc, mode)
	require.NoError(t, err)
	return out
}

func TestEmitBlock(t *testing.T) {
	f := func(name, input, want string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			assert.Equal(t, want, emitMode(t, input, EmitBlock))
		})
	}

	f("scalar", "42", "42\n")
	f("mapping", "a: 1\nb: 2\n", "a: 1\nb: 2\n")
	f("sequence", "- a\n- b\n", "- a\n- b\n")
	f("nested_mapping", "a:\n  b: 1\n", "a:\n  b: 1\n")
	f("sequence_under_key", "servers:\n  - a\n  - b\n", "servers:\n  - a\n  - b\n")
	f("flow_input_goes_block", "{a: 1}", "a: 1\n")
	f("empty_value", "a:\n", "a:\n")
	f("empty_collections", "a: []\nb: {}\n", "a: []\nb: {}\n")
	f("literal", "a: |\n  x\n  y\n", "a: |\n  x\n  y\n")
	// A stripped one-liner has no break left, so it comes back plain.
	f("literal_strip", "a: |-\n  x\n", "a: x\n")
	f("literal_strip_multiline", "a: |-\n  x\n  y\n", "a: |-\n  x\n  y\n")
	f("literal_keep", "a: |+\n  x\n\n", "a: |+\n  x\n\n")
	f("single_quote_kept", "a: 'x'\n", "a: 'x'\n")
	f("double_quote_kept", "a: \"x\"\n", "a: \"x\"\n")
	f("anchor_alias", "a: &x 1\nb: *x\n", "a: &x 1\nb: *x\n")
	f("tag_shorthand", "a: !!str 1\n", "a: !!str 1\n")
	f("local_tag", "a: !cfg x\n", "a: !cfg x\n")
	f("explicit_document", "---\na: 1\n", "---\na: 1\n")
	f("explicit_end", "a: 1\n...\n", "a: 1\n...\n")
	f("version_directive", "%YAML 1.2\n---\na: 1\n", "%YAML 1.2\n---\na: 1\n")
	// Multiline text prefers literal regardless of how the source wrote it.
	f("multiline_via_double", "a: \"x\\ny\"\n", "a: |-\n  x\n  y\n")
	f("indicator_needs_quotes", "a: '#tag'\n", "a: '#tag'\n")
}

func TestEmitBlockMappingInSequence(t *testing.T) {
	// Mappings under a sequence entry open on their own line.
	got := emitMode(t, "- host: a\n  port: 80\n", EmitBlock)
	assert.Equal(t, "-\n  host: a\n  port: 80\n", got)
}

func TestEmitFlow(t *testing.T) {
	f := func(name, input, want string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			assert.Equal(t, want, emitMode(t, input, EmitFlow))
		})
	}

	f("mapping", "a: 1\nb: 2\n", "{a: 1, b: 2}\n")
	f("sequence", "- 1\n- 2\n", "[1, 2]\n")
	f("nested", "a:\n  - 1\n  - 2\n", "{a: [1, 2]}\n")
	f("null_value", "a:\n", "{a: null}\n")
	f("alias", "a: &x 1\nb: *x\n", "{a: &x 1, b: *x}\n")
	f("scalar_unsafe_in_flow", "a: x,y\n", "{a: 'x,y'}\n")
}

func TestEmitFlowWidthBreaking(t *testing.T) {
	doc, err := ParseString("a: [1, 2, 3]\n")
	require.NoError(t, err)

	var b strings.Builder
	e := NewEmitter(&b, WithEmitMode(EmitFlow), WithWidth(10))
	require.NoError(t, e.Emit(doc))
	assert.Equal(t, "{\n  a: [1, 2, 3]\n}\n", b.String())
}

func TestEmitJSON(t *testing.T) {
	f := func(name, input string, mode EmitMode, want string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			assert.Equal(t, want, emitMode(t, input, mode))
		})
	}

	f("oneline", "a: 1\nb: [true, null]\n", EmitJSONOneline,
		`{"a":1,"b":[true,null]}`+"\n")
	f("strings_quoted", "a: hi\n", EmitJSONOneline, `{"a":"hi"}`+"\n")
	f("quoted_number_stays_string", "a: '5'\n", EmitJSONOneline, `{"a":"5"}`+"\n")
	f("hex_normalized", "a: 0x1F\n", EmitJSONOneline, `{"a":31}`+"\n")
	f("floats_bare", "a: 1.5\nb: -2e3\n", EmitJSONOneline, `{"a":1.5,"b":-2e3}`+"\n")
	f("null_forms", "a: ~\nb: null\nc:\n", EmitJSONOneline,
		`{"a":null,"b":null,"c":null}`+"\n")
	f("escapes", "a: \"x\\ny\"\n", EmitJSONOneline, `{"a":"x\ny"}`+"\n")
	f("empty_collections", "a: []\nb: {}\n", EmitJSONOneline, `{"a":[],"b":{}}`+"\n")
	f("multiline", "a: 1\n", EmitJSON, "{\n  \"a\": 1\n}\n")
	f("multiline_nested", "a:\n  - 1\n", EmitJSON, "{\n  \"a\": [\n    1\n  ]\n}\n")
	f("alias_expanded", "a: &x 1\nb: *x\n", EmitJSONOneline, `{"a":1,"b":1}`+"\n")
	f("tags_dropped", "a: !!str 1\n", EmitJSONOneline, `{"a":1}`+"\n")
}

func TestEmitDejson(t *testing.T) {
	// dejson drops quoting that only existed for JSON's benefit.
	assert.Equal(t, "a: hi\n", emitMode(t, `{"a": "hi"}`, EmitDejson))
	// Text that would change meaning as a plain scalar stays quoted.
	assert.Equal(t, "a: 'null'\nb: '5'\n", emitMode(t, `{"a": "null", "b": "5"}`, EmitDejson))
}

func TestEmitYAML11(t *testing.T) {
	assert.Equal(t, "a: 'yes'\nb: 'off'\nc: maybe\n",
		emitMode(t, "a: yes\nb: off\nc: maybe\n", EmitYAML11))
	// Plain block mode leaves them alone.
	assert.Equal(t, "a: yes\n", emitMode(t, "a: yes\n", EmitBlock))
}

func TestEmitPretty(t *testing.T) {
	assert.Equal(t, "a: 1\n\nb:\n  c: 2\n",
		emitMode(t, "a: 1\nb:\n  c: 2\n", EmitPretty))
}

func TestEmitMultipleDocuments(t *testing.T) {
	docs, err := ParseAll([]byte("a: 1\n---\nb: 2\n"))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	var b strings.Builder
	e := NewEmitter(&b)
	require.NoError(t, e.Emit(docs[0]))
	require.NoError(t, e.Emit(docs[1]))
	assert.Equal(t, "a: 1\n---\nb: 2\n", b.String())
}

func TestEmitNode(t *testing.T) {
	doc, err := ParseString("a:\n  b: 1\n")
	require.NoError(t, err)

	var b strings.Builder
	e := NewEmitter(&b)
	require.NoError(t, e.EmitNode(doc.At("/a")))
	assert.Equal(t, "b: 1\n", b.String())
}

func TestParseEmitModeNames(t *testing.T) {
	for m := EmitBlock; m <= EmitYAML11; m++ {
		got, err := ParseEmitMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseEmitMode("fancy")
	assert.Error(t, err)
}
