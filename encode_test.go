package fyaml

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalScalars(t *testing.T) {
	f := func(name string, v any, want string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			out, err := Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, want, string(out))
		})
	}

	f("int", 42, "42\n")
	f("negative", -7, "-7\n")
	f("uint", uint8(255), "255\n")
	f("float", 1.5, "1.5\n")
	f("whole_float", 2.0, "2.0\n")
	f("inf", math.Inf(1), ".inf\n")
	f("neg_inf", math.Inf(-1), "-.inf\n")
	f("nan", math.NaN(), ".nan\n")
	f("bool", true, "true\n")
	f("string", "hello", "hello\n")
	f("string_with_space", "hello world", "hello world\n")
	f("multiline_string", "x\ny\n", "|\n  x\n  y\n")
	// Strings that would be read back as another type get quoted.
	f("numeric_string", "5", "'5'\n")
	f("bool_string", "true", "'true'\n")
	f("null_string", "null", "'null'\n")
	f("float_string", "1e3", "'1e3'\n")
	f("empty_string", "", "''\n")
}

func TestMarshalCollections(t *testing.T) {
	out, err := Marshal(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, "a: 1\nb: 2\nc: 3\n", string(out), "map keys sorted")

	out, err = Marshal([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "- x\n- y\n", string(out))

	out, err = Marshal(map[string]any{"a": []int{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "a:\n  - 1\n  - 2\n", string(out))

	out, err = Marshal([]any{})
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(out))
}

type encodeConfig struct {
	Name     string `yaml:"name"`
	Port     int    `yaml:"port,omitempty"`
	Debug    bool
	Secret   string `yaml:"-"`
	internal int
}

func TestMarshalStruct(t *testing.T) {
	out, err := Marshal(encodeConfig{Name: "demo", Port: 80, Debug: true, Secret: "x", internal: 1})
	require.NoError(t, err)
	assert.Equal(t, "name: demo\nport: 80\nDebug: true\n", string(out))

	// omitempty drops the zero port.
	out, err = Marshal(encodeConfig{Name: "demo"})
	require.NoError(t, err)
	assert.Equal(t, "name: demo\nDebug: false\n", string(out))
}

func TestMarshalNested(t *testing.T) {
	type server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	}
	type config struct {
		Servers []server `yaml:"servers"`
	}

	out, err := Marshal(config{Servers: []server{{Host: "a", Port: 80}}})
	require.NoError(t, err)
	assert.Equal(t, "servers:\n  -\n    host: a\n    port: 80\n", string(out))
}

func TestMarshalPointers(t *testing.T) {
	s := "v"
	out, err := Marshal(map[string]*string{"a": &s, "b": nil})
	require.NoError(t, err)
	assert.Equal(t, "a: v\nb:\n", string(out))
}

func TestMarshalUnsupported(t *testing.T) {
	_, err := Marshal(map[string]any{"a": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")

	_, err = Marshal(map[int]string{1: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map key type must be a string")
}

func TestEncoderMultiDocument(t *testing.T) {
	var b strings.Builder
	enc := NewEncoder(&b)
	require.NoError(t, enc.Encode(map[string]int{"a": 1}))
	require.NoError(t, enc.Encode(map[string]int{"b": 2}))
	assert.Equal(t, "a: 1\n---\nb: 2\n", b.String())
}

func TestMarshalRoundTrip(t *testing.T) {
	in := testConfig{
		Name: "demo",
		Servers: []testServer{
			{Host: "a", Port: 80, Debug: true},
			{Host: "b", Port: 8080},
		},
	}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out testConfig
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
