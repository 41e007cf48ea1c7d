package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(toks []Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind == TokEOF {
			break
		}
		out = append(out, t.Text)
	}
	return out
}

func TestTokenize_Operators(t *testing.T) {
	toks, err := Tokenize("a <<<= b >>> 2 ==? c <: d ..= e")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "<<<=", "b", ">>>", "2", "==?", "c", "<:", "d", "..=", "e"}, texts(toks))
}

func TestTokenize_Numbers(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"8'hff", []string{"8'hff"}},
		{"'hff", []string{"'hff"}},
		{"8'sb1010", []string{"8'sb1010"}},
		{"'0 '1 'x 'z", []string{"'0", "'1", "'x", "'z"}},
		{"8'1", []string{"8'1"}},
		{"1_000", []string{"1_000"}},
		{"1.5e3", []string{"1.5e3"}},
		{"0..10", []string{"0", "..", "10"}},
		{"4'b1?0x", []string{"4'b1?0x"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, err := Tokenize(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(toks))
			assert.Equal(t, TokNumber, toks[0].Kind)
		})
	}
}

func TestTokenize_Quotes(t *testing.T) {
	toks, err := Tokenize("a: input 'clk logic; x = '{1, 2};")
	require.NoError(t, err)

	assert.Equal(t, TokClockDomain, toks[3].Kind)
	assert.Equal(t, "clk", toks[3].Text)

	var brace Token
	for _, tok := range toks {
		if tok.Kind == TokQuoteBrace {
			brace = tok
		}
	}
	assert.Equal(t, "'{", brace.Text)
}

func TestTokenize_KeywordsAndIdents(t *testing.T) {
	toks, err := Tokenize("module Foo $clog2 $sv")
	require.NoError(t, err)
	assert.Equal(t, TokKeyword, toks[0].Kind)
	assert.Equal(t, TokIdent, toks[1].Kind)
	assert.Equal(t, TokSystemIdent, toks[2].Kind)
	assert.Equal(t, "$sv", toks[3].Text)
}

func TestTokenize_CommentsAndDoc(t *testing.T) {
	src := `// plain
/* block
   comment */
/// first line
/// second line
module A {}`
	toks, err := Tokenize(src)
	require.NoError(t, err)
	assert.Equal(t, "module", toks[0].Text)
	assert.Equal(t, []string{"first line", "second line"}, toks[0].Doc)
	assert.Equal(t, 6, toks[0].Line)
	assert.Nil(t, toks[1].Doc)
}

func TestTokenize_Embed(t *testing.T) {
	toks, err := Tokenize("embed (inline) sv {{{\nmodule x; endmodule\n}}}")
	require.NoError(t, err)
	last := toks[len(toks)-2]
	assert.Equal(t, TokEmbedContent, last.Kind)
	assert.Equal(t, "\nmodule x; endmodule\n", last.Text)
}

func TestTokenize_NormalizesIdentifiers(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	toks, err := Tokenize("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", toks[0].Text)
	assert.Len(t, toks, 2)
}

func TestTokenize_Errors(t *testing.T) {
	for _, src := range []string{`"open`, "/* open", "a ` b", "$ x", "{{{ open"} {
		_, err := Tokenize(src)
		var se *SyntaxError
		assert.ErrorAs(t, err, &se, src)
	}
}
