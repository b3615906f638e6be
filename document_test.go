package fyaml

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentTree(t *testing.T) {
	doc, err := ParseString("name: demo\nservers:\n  - host: a\n    port: 80\n  - host: b\n    port: 8080\n")
	require.NoError(t, err)

	root := doc.Root()
	require.Equal(t, NodeMapping, root.Kind())
	assert.Equal(t, 2, root.Len())

	assert.Equal(t, "demo", root.Get("name").Scalar())

	servers := root.Get("servers")
	require.Equal(t, NodeSequence, servers.Kind())
	assert.Equal(t, 2, servers.Len())
	assert.Equal(t, "a", servers.Index(0).Get("host").Scalar())
	assert.Nil(t, servers.Index(2))

	// Pair preserves source order.
	k, v := root.Pair(0)
	assert.Equal(t, "name", k.Scalar())
	assert.Equal(t, "demo", v.Scalar())
}

func TestDocumentAt(t *testing.T) {
	doc, err := ParseString("servers:\n  - host: a\n    port: 80\n")
	require.NoError(t, err)

	f := func(name, path, want string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			n := doc.At(path)
			if want == "" {
				assert.Nil(t, n)
				return
			}
			require.NotNil(t, n)
			assert.Equal(t, want, n.Scalar())
		})
	}

	f("nested", "/servers/0/host", "a")
	f("leading_slash_optional", "servers/0/port", "80")
	f("missing_key", "/servers/0/user", "")
	f("index_out_of_range", "/servers/9/host", "")
	f("non_numeric_index", "/servers/x", "")

	port, err := doc.At("/servers/0/port").Int()
	require.NoError(t, err)
	assert.Equal(t, int64(80), port)
}

func TestDocumentAnchors(t *testing.T) {
	doc, err := ParseString("base: &b\n  x: 1\nother: *b\n")
	require.NoError(t, err)

	base := doc.Root().Get("base")
	other := doc.Root().Get("other")
	assert.False(t, base.IsAlias())
	assert.True(t, other.IsAlias())
	assert.Equal(t, "b", other.Anchor())
	// The alias shares the anchored node's content.
	assert.Equal(t, "1", other.Get("x").Scalar())

	assert.Same(t, base, doc.Anchored("b"))
}

func TestDocumentAliasInSequence(t *testing.T) {
	doc, err := ParseString("[&x 1, *x]")
	require.NoError(t, err)

	seq := doc.Root()
	require.Equal(t, 2, seq.Len())
	assert.Equal(t, "1", seq.Index(0).Scalar())
	assert.Equal(t, "1", seq.Index(1).Scalar())
	assert.False(t, seq.Index(0).IsAlias())
	assert.True(t, seq.Index(1).IsAlias())
}

func TestDocumentAnchorShadowing(t *testing.T) {
	doc, err := ParseString("a: &x 1\nb: *x\nc: &x 2\nd: *x\n")
	require.NoError(t, err)
	assert.Equal(t, "1", doc.At("/b").Scalar())
	assert.Equal(t, "2", doc.At("/d").Scalar())
}

func TestDocumentErrors(t *testing.T) {
	f := func(name, input, wantMsg string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			_, err := ParseString(input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), wantMsg)
		})
	}

	f("duplicate_key", "a: 1\na: 2", `duplicate mapping key "a"`)
	f("unknown_anchor", "a: *x", "references an unknown anchor")
	// An anchor only resolves once its node is complete.
	f("self_alias", "&a [*a]", "references an unknown anchor")
}

func TestNodeIsNull(t *testing.T) {
	f := func(name, input string, want bool) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			doc, err := ParseString(input)
			require.NoError(t, err)
			assert.Equal(t, want, doc.At("/a").IsNull())
		})
	}

	f("empty", "a:", true)
	f("tilde", "a: ~", true)
	f("null_word", "a: null", true)
	f("null_caps", "a: NULL", true)
	// Quoting makes it a string.
	f("quoted_null", "a: 'null'", false)
	f("plain_word", "a: x", false)
}

func TestNodeScalarConversions(t *testing.T) {
	doc, err := ParseString(
		"t: true\nf: False\ni: 42\nneg: -7\nhex: 0x1F\noct: 0o17\nfl: 3.5\ninf: .inf\nninf: -.inf\nnan: .nan\ns: word\n")
	require.NoError(t, err)

	b, err := doc.At("/t").Bool()
	require.NoError(t, err)
	assert.True(t, b)
	b, err = doc.At("/f").Bool()
	require.NoError(t, err)
	assert.False(t, b)
	_, err = doc.At("/s").Bool()
	assert.Error(t, err)

	i, err := doc.At("/i").Int()
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)
	i, err = doc.At("/neg").Int()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), i)
	i, err = doc.At("/hex").Int()
	require.NoError(t, err)
	assert.Equal(t, int64(31), i)
	i, err = doc.At("/oct").Int()
	require.NoError(t, err)
	assert.Equal(t, int64(15), i)
	_, err = doc.At("/s").Int()
	assert.Error(t, err)

	fl, err := doc.At("/fl").Float()
	require.NoError(t, err)
	assert.Equal(t, 3.5, fl)
	fl, err = doc.At("/inf").Float()
	require.NoError(t, err)
	assert.True(t, math.IsInf(fl, 1))
	fl, err = doc.At("/ninf").Float()
	require.NoError(t, err)
	assert.True(t, math.IsInf(fl, -1))
	fl, err = doc.At("/nan").Float()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(fl))
}

func TestDocumentStyles(t *testing.T) {
	doc, err := ParseString("a: plain\nb: 'single'\nc: \"double\"\nd: |\n  lit\ne: [1, 2]\n")
	require.NoError(t, err)

	assert.Equal(t, StylePlain, doc.At("/a").Style())
	assert.Equal(t, StyleSingleQuoted, doc.At("/b").Style())
	assert.Equal(t, StyleDoubleQuoted, doc.At("/c").Style())
	assert.Equal(t, StyleLiteral, doc.At("/d").Style())
	assert.True(t, doc.At("/e").Flow())
	assert.False(t, doc.Root().Flow())
}

func TestDocumentTags(t *testing.T) {
	doc, err := ParseString("a: !!str 1\nb: !local x\n")
	require.NoError(t, err)
	assert.Equal(t, "tag:yaml.org,2002:str", doc.At("/a").Tag())
	assert.Equal(t, "!local", doc.At("/b").Tag())
	assert.Equal(t, "", doc.At("/a").Anchor())
}

func TestParseAll(t *testing.T) {
	docs, err := ParseAll([]byte("a: 1\n---\nb: 2\n---\nc: 3\n"))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "1", docs[0].At("/a").Scalar())
	assert.Equal(t, "3", docs[2].At("/c").Scalar())

	assert.True(t, docs[0].Implicit())
	assert.False(t, docs[1].Implicit())
}

func TestParseEmptyStream(t *testing.T) {
	doc, err := Parse(nil)
	require.NoError(t, err)
	require.NotNil(t, doc.Root())
	assert.True(t, doc.Root().IsNull())
	assert.True(t, doc.Implicit())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o600))

	doc, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1", doc.At("/a").Scalar())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseReader(t *testing.T) {
	doc, err := ParseReader(strings.NewReader("a: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "1", doc.At("/a").Scalar())
}
