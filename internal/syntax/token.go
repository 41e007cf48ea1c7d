package syntax

import "fmt"

// TokenKind classifies lexical tokens.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokKeyword
	TokNumber
	TokString
	TokClockDomain  // 'a
	TokQuoteBrace   // '{
	TokEmbedContent // {{{ ... }}}
	TokSystemIdent  // $clog2
	TokOperator
)

var tokenKindNames = map[TokenKind]string{
	TokEOF:          "end of file",
	TokIdent:        "identifier",
	TokKeyword:      "keyword",
	TokNumber:       "number",
	TokString:       "string",
	TokClockDomain:  "clock domain",
	TokQuoteBrace:   "'{",
	TokEmbedContent: "embed content",
	TokSystemIdent:  "system identifier",
	TokOperator:     "operator",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a lexical token with its source position.
type Token struct {
	Kind   TokenKind
	Text   string
	Line   int
	Column int
	Offset int

	// Doc holds the text of /// comments immediately preceding the token.
	Doc []string
}

// IsZero reports whether the token is unset.
func (t Token) IsZero() bool {
	return t.Kind == TokEOF && t.Text == "" && t.Line == 0
}

// Pos formats the token position as line:column.
func (t Token) Pos() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}

func (t Token) String() string {
	if t.Kind == TokEOF {
		return "<eof>"
	}
	return t.Text
}

// Is reports whether the token is the given keyword or operator.
func (t Token) Is(text string) bool {
	return (t.Kind == TokKeyword || t.Kind == TokOperator) && t.Text == text
}

// Synthetic builds a token that does not originate from source text.
func Synthetic(text string) Token {
	return Token{Kind: TokIdent, Text: text}
}

var keywords = map[string]bool{
	"module": true, "interface": true, "package": true, "proto": true,
	"import": true, "pub": true, "input": true, "output": true, "inout": true,
	"modport": true, "var": true, "let": true, "const": true, "param": true,
	"assign": true, "always_ff": true, "always_comb": true, "if": true,
	"if_reset": true, "else": true, "case": true, "switch": true,
	"default": true, "for": true, "in": true, "rev": true, "step": true,
	"return": true, "function": true, "inst": true, "struct": true,
	"union": true, "enum": true, "type": true, "logic": true, "bit": true,
	"clock": true, "clock_posedge": true, "clock_negedge": true,
	"reset": true, "reset_async_high": true, "reset_async_low": true,
	"reset_sync_high": true, "reset_sync_low": true, "signed": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"i8": true, "i16": true, "i32": true, "i64": true,
	"f32": true, "f64": true, "bool": true, "string": true, "true": true, "false": true,
	"inside": true, "outside": true, "repeat": true, "as": true,
	"msb": true, "lsb": true, "connect": true, "embed": true,
	"initial": true, "final": true, "unsafe": true, "export": true,
	"break": true,
}

// IsKeyword reports whether s is a reserved word.
func IsKeyword(s string) bool {
	return keywords[s]
}
