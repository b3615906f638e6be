package fyaml

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, input string) ([]*Token, error) {
	t.Helper()
	s := newScanner(newReader(InputString(input), ModeYAML12, 0), nil, false)
	var toks []*Token
	for {
		tok, err := s.next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Type == TokenStreamEnd {
			return toks, nil
		}
	}
}

func tokenTypes(toks []*Token) []TokenType {
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestScannerTokenSequences(t *testing.T) {
	f := func(name, input string, want []TokenType) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			toks, err := scanAll(t, input)
			require.NoError(t, err)
			assert.Equal(t, want, tokenTypes(toks))
		})
	}

	f("bare_scalar", "a", []TokenType{
		TokenStreamStart, TokenScalar, TokenStreamEnd,
	})
	f("block_mapping", "a: 1", []TokenType{
		TokenStreamStart, TokenBlockMappingStart,
		TokenKey, TokenScalar, TokenValue, TokenScalar,
		TokenBlockEnd, TokenStreamEnd,
	})
	f("block_sequence", "- a\n- b", []TokenType{
		TokenStreamStart, TokenBlockSequenceStart,
		TokenBlockEntry, TokenScalar,
		TokenBlockEntry, TokenScalar,
		TokenBlockEnd, TokenStreamEnd,
	})
	// The sequence under the key starts at the key's column, so no
	// BlockSequenceStart token is produced.
	f("indentless_sequence", "a:\n- b\n- c", []TokenType{
		TokenStreamStart, TokenBlockMappingStart,
		TokenKey, TokenScalar, TokenValue,
		TokenBlockEntry, TokenScalar,
		TokenBlockEntry, TokenScalar,
		TokenBlockEnd, TokenStreamEnd,
	})
	f("nested_block", "a:\n  b: 1", []TokenType{
		TokenStreamStart, TokenBlockMappingStart,
		TokenKey, TokenScalar, TokenValue,
		TokenBlockMappingStart,
		TokenKey, TokenScalar, TokenValue, TokenScalar,
		TokenBlockEnd,
		TokenBlockEnd, TokenStreamEnd,
	})
	f("flow_sequence", "[1, 2]", []TokenType{
		TokenStreamStart, TokenFlowSequenceStart,
		TokenScalar, TokenFlowEntry, TokenScalar,
		TokenFlowSequenceEnd, TokenStreamEnd,
	})
	f("flow_mapping", "{a: 1}", []TokenType{
		TokenStreamStart, TokenFlowMappingStart,
		TokenKey, TokenScalar, TokenValue, TokenScalar,
		TokenFlowMappingEnd, TokenStreamEnd,
	})
	f("explicit_document", "--- a\n...", []TokenType{
		TokenStreamStart, TokenDocumentStart, TokenScalar,
		TokenDocumentEnd, TokenStreamEnd,
	})
	f("version_directive", "%YAML 1.2\n---\na", []TokenType{
		TokenStreamStart, TokenVersionDirective, TokenDocumentStart,
		TokenScalar, TokenStreamEnd,
	})
	f("tag_directive", "%TAG !e! tag:example.com,2000:\n---\na", []TokenType{
		TokenStreamStart, TokenTagDirective, TokenDocumentStart,
		TokenScalar, TokenStreamEnd,
	})
	f("anchor_tag_alias", "a: &x !!int 1\nb: *x", []TokenType{
		TokenStreamStart, TokenBlockMappingStart,
		TokenKey, TokenScalar, TokenValue, TokenAnchor, TokenTag, TokenScalar,
		TokenKey, TokenScalar, TokenValue, TokenAlias,
		TokenBlockEnd, TokenStreamEnd,
	})
	f("literal_scalar", "a: |\n  x\n  y\n", []TokenType{
		TokenStreamStart, TokenBlockMappingStart,
		TokenKey, TokenScalar, TokenValue, TokenScalar,
		TokenBlockEnd, TokenStreamEnd,
	})
	f("explicit_key", "? a\n: b", []TokenType{
		TokenStreamStart, TokenBlockMappingStart,
		TokenKey, TokenScalar, TokenValue, TokenScalar,
		TokenBlockEnd, TokenStreamEnd,
	})
	// A fresh line opening with an alias ends the plain scalar instead of
	// folding into it; the parser then rejects the second root node.
	f("alias_line_after_root_scalar", "&x 1\n*x", []TokenType{
		TokenStreamStart, TokenAnchor, TokenScalar, TokenAlias,
		TokenStreamEnd,
	})
	f("comment_only", "# nothing here\n", []TokenType{
		TokenStreamStart, TokenStreamEnd,
	})
	f("empty", "", []TokenType{
		TokenStreamStart, TokenStreamEnd,
	})
}

func TestScannerScalarValues(t *testing.T) {
	f := func(name, input string, style Style, want string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			toks, err := scanAll(t, input)
			require.NoError(t, err)
			var sc *Token
			for _, tok := range toks {
				if tok.Type == TokenScalar {
					sc = tok
					break
				}
			}
			require.NotNil(t, sc)
			assert.Equal(t, style, sc.ScalarStyle())
			assert.Equal(t, want, sc.Text())
		})
	}

	f("plain", "hello world", StylePlain, "hello world")
	f("plain_multiline", "hello\n  world", StylePlain, "hello world")
	f("single", "'it''s'", StyleSingleQuoted, "it's")
	f("double", `"a\tb"`, StyleDoubleQuoted, "a\tb")
	f("literal", "|\n  x\n  y\n", StyleLiteral, "x\ny\n")
	f("literal_strip", "|-\n  x\n", StyleLiteral, "x")
	f("literal_keep", "|+\n  x\n\n", StyleLiteral, "x\n\n")
	f("literal_explicit_indent", "|2\n    x\n", StyleLiteral, "  x\n")
	f("folded", ">\n  hello\n  world\n", StyleFolded, "hello world\n")
	f("plain_stops_at_comment", "value # trailing", StylePlain, "value")
}

func TestScannerErrors(t *testing.T) {
	f := func(name, input, wantMsg string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			_, err := scanAll(t, input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), wantMsg)
		})
	}

	f("tab_indentation", "a:\n\tb: 1", "tab character where indentation is expected")
	f("duplicate_version", "%YAML 1.2\n%YAML 1.2\n---\na", "duplicate %YAML directive")
	f("unsupported_major", "%YAML 2.0\n---\na", "unsupported YAML version")
	f("zero_block_indent", "a: |0\n  x\n", "indentation indicator cannot be 0")
	f("unterminated_single", "'abc", "unterminated quoted scalar")
	f("unterminated_double", `"abc`, "unterminated quoted scalar")
	f("bad_escape", `"a\qb"`, "invalid escape character")
	f("bad_tag_uri_escape", "a: !t%zz b", "hex digit in URI escape")
	f("bad_verbatim_uri_escape", "a: !<tag:e%2,x> 1", "hex digit in URI escape")
}

func TestScannerChopsStreamingInput(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10000; i++ {
		fmt.Fprintf(&b, "- item%d\n", i)
	}
	in := InputReader(strings.NewReader(b.String()))
	s := newScanner(newReader(in, ModeYAML12, 0), nil, false)
	for {
		tok, err := s.next()
		require.NoError(t, err)
		if tok.Type == TokenStreamEnd {
			break
		}
	}
	// The consumed prefix was relocated away instead of accumulating: the
	// live buffer holds a bounded tail of the stream.
	assert.Positive(t, s.r.in.base)
	assert.Greater(t, s.r.in.Generation(), int64(0))
	assert.Less(t, len(s.r.in.buf), 2*s.r.in.chopThreshold())
}

func TestScannerStickyError(t *testing.T) {
	s := newScanner(newReader(InputString("a:\n\tb: 1"), ModeYAML12, 0), nil, false)
	var first error
	for {
		_, err := s.next()
		if err != nil {
			first = err
			break
		}
	}
	require.Error(t, first)
	// Repeated calls keep returning the same error.
	_, again := s.next()
	assert.Equal(t, first, again)
}

func TestScannerStrictDirectives(t *testing.T) {
	// Unknown directives are skipped by default and rejected in strict
	// mode.
	_, err := scanAll(t, "%FOO bar\n---\na")
	assert.NoError(t, err)

	s := newScanner(newReader(InputString("%FOO bar\n---\na"), ModeYAML12, 0), nil, true)
	for {
		_, serr := s.next()
		if serr != nil {
			assert.Contains(t, serr.Error(), "unknown directive")
			return
		}
	}
}

func TestScannerJSONMode(t *testing.T) {
	// Single quotes are not JSON.
	s := newScanner(newReader(InputString(`{'a': 1}`), ModeJSON, 0), nil, false)
	var err error
	for err == nil {
		var tok *Token
		tok, err = s.next()
		if err == nil && tok.Type == TokenStreamEnd {
			t.Fatal("expected an error for a single-quoted scalar in JSON mode")
		}
	}
	assert.Error(t, err)
}

func TestScannerMarks(t *testing.T) {
	toks, err := scanAll(t, "key: value")
	require.NoError(t, err)
	require.Len(t, toks, 8)

	key := toks[3] // first scalar
	assert.Equal(t, TokenScalar, key.Type)
	assert.Equal(t, Mark{Offset: 0, Line: 1, Column: 0}, key.Start)
	assert.Equal(t, Mark{Offset: 3, Line: 1, Column: 3}, key.End)

	val := toks[5]
	assert.Equal(t, TokenScalar, val.Type)
	assert.Equal(t, Mark{Offset: 5, Line: 1, Column: 5}, val.Start)
}
