package fyaml

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalGeneric(t *testing.T) {
	var v any
	err := Unmarshal([]byte("a: 1\nb: [x, true]\nc: 1.5\nd: ~\n"), &v)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"a": int64(1),
		"b": []any{"x", true},
		"c": 1.5,
		"d": nil,
	}, v)
}

func TestUnmarshalScalarTyping(t *testing.T) {
	f := func(name, input string, want any) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			var v map[string]any
			require.NoError(t, Unmarshal([]byte(input), &v))
			assert.Equal(t, want, v["a"])
		})
	}

	f("int", "a: 42", int64(42))
	f("hex", "a: 0x10", int64(16))
	f("octal", "a: 0o17", int64(15))
	f("float", "a: 2.5", 2.5)
	f("bool", "a: true", true)
	f("null", "a: null", nil)
	f("string", "a: hello", "hello")
	// Quoting forces a string.
	f("quoted_int", "a: '42'", "42")
	f("quoted_bool", `a: "true"`, "true")
	f("literal_block", "a: |\n  x\n", "x\n")
}

type testServer struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Debug   bool
	Ignored string `yaml:"-"`
}

type testConfig struct {
	Name    string       `yaml:"name"`
	Servers []testServer `yaml:"servers"`
	Extra   *string      `yaml:"extra"`
}

func TestUnmarshalStruct(t *testing.T) {
	var cfg testConfig
	err := Unmarshal([]byte(`
name: demo
servers:
  - host: a
    port: 80
    Debug: true
  - host: b
    port: 8080
extra: note
`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Name)
	require.Len(t, cfg.Servers, 2)
	assert.Equal(t, testServer{Host: "a", Port: 80, Debug: true}, cfg.Servers[0])
	assert.Equal(t, testServer{Host: "b", Port: 8080}, cfg.Servers[1])
	require.NotNil(t, cfg.Extra)
	assert.Equal(t, "note", *cfg.Extra)
}

func TestUnmarshalIgnoredField(t *testing.T) {
	var s testServer
	require.NoError(t, Unmarshal([]byte("host: a\nIgnored: x\n"), &s))
	assert.Equal(t, "a", s.Host)
	assert.Equal(t, "", s.Ignored)
}

func TestUnmarshalTypedCollections(t *testing.T) {
	var m map[string]int
	require.NoError(t, Unmarshal([]byte("a: 1\nb: 2\n"), &m))
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, m)

	var sl []string
	require.NoError(t, Unmarshal([]byte("- x\n- y\n"), &sl))
	assert.Equal(t, []string{"x", "y"}, sl)

	var u map[string]uint16
	require.NoError(t, Unmarshal([]byte("p: 8080\n"), &u))
	assert.Equal(t, map[string]uint16{"p": 8080}, u)
}

func TestUnmarshalWholeFloatIntoInt(t *testing.T) {
	var m map[string]int
	require.NoError(t, Unmarshal([]byte("a: 2.0\n"), &m))
	assert.Equal(t, 2, m["a"])

	err := Unmarshal([]byte("a: 2.5\n"), &m)
	assert.Error(t, err)
}

func TestUnmarshalErrors(t *testing.T) {
	var v map[string]any

	assert.Error(t, Unmarshal([]byte("a: 1"), nil))
	assert.Error(t, Unmarshal([]byte("a: 1"), v), "non-pointer destination")

	var n int
	assert.Error(t, Unmarshal([]byte("hello"), &n))

	var m map[string]int
	assert.Error(t, Unmarshal([]byte("a: x\n"), &m))

	// Syntax errors surface as parse errors.
	assert.Error(t, Unmarshal([]byte("a: [1,"), &v))
}

func TestDecoderMultiDocument(t *testing.T) {
	dec := NewDecoder(strings.NewReader("a: 1\n---\na: 2\n"))

	var v map[string]int
	require.NoError(t, dec.Decode(&v))
	assert.Equal(t, 1, v["a"])

	require.NoError(t, dec.Decode(&v))
	assert.Equal(t, 2, v["a"])

	err := dec.Decode(&v)
	assert.Equal(t, io.EOF, err)
}

func TestUnmarshalAnchors(t *testing.T) {
	var v map[string]any
	require.NoError(t, Unmarshal([]byte("base: &b\n  x: 1\nother: *b\n"), &v))
	assert.Equal(t, v["base"], v["other"])
}
