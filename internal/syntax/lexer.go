package syntax

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SyntaxError reports a lexical or grammatical error.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

var operators = []string{
	"<<<=", ">>>=",
	"<<<", ">>>", "==?", "!=?", "<<=", ">>=", "..=", "{{{",
	"**", "<<", ">>", "<:", ">:", "<=", ">=", "==", "!=", "&&", "||",
	"~^", "^~", "~&", "~|", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"::", "..", "<>", "+:", "-:", "->", "#[",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "~", "&", "|", "^",
	"(", ")", "{", "}", "[", "]", ",", ";", ":", ".", "?", "#", "@",
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
	doc  []string
	toks []Token
}

// Tokenize splits src into tokens. Identifiers and string literals are
// NFC-normalized.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.toks = append(l.toks, tok)
		if tok.Kind == TokEOF {
			return l.toks, nil
		}
	}
}

func (l *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: l.line, Column: l.col, Message: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekByte(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}
	return 0
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isBasedDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') ||
		c == 'x' || c == 'X' || c == 'z' || c == 'Z' || c == '_' || c == '?'
}

func isBase(c byte) bool {
	switch c {
	case 'b', 'B', 'o', 'O', 'd', 'D', 'h', 'H':
		return true
	}
	return false
}

func isAllBit(c byte) bool {
	switch c {
	case '0', '1', 'x', 'X', 'z', 'Z':
		return true
	}
	return false
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance(1)
		case strings.HasPrefix(l.src[l.pos:], "///"):
			end := strings.IndexByte(l.src[l.pos:], '\n')
			if end < 0 {
				end = len(l.src) - l.pos
			}
			text := strings.TrimSpace(l.src[l.pos+3 : l.pos+end])
			l.doc = append(l.doc, text)
			l.advance(end)
		case strings.HasPrefix(l.src[l.pos:], "//"):
			end := strings.IndexByte(l.src[l.pos:], '\n')
			if end < 0 {
				end = len(l.src) - l.pos
			}
			l.advance(end)
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return l.errorf("unterminated block comment")
			}
			l.advance(end + 4)
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (Token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	tok := Token{Line: l.line, Column: l.col, Offset: l.pos}
	if len(l.doc) > 0 {
		tok.Doc = l.doc
		l.doc = nil
	}
	if l.pos >= len(l.src) {
		tok.Kind = TokEOF
		return tok, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
			l.advance(1)
		}
		tok.Text = norm.NFC.String(l.src[start:l.pos])
		tok.Kind = TokIdent
		if IsKeyword(tok.Text) {
			tok.Kind = TokKeyword
		}
		return tok, nil

	case isDigit(c):
		return l.number(tok)

	case c == '\'':
		return l.quote(tok)

	case c == '"':
		l.advance(1)
		var sb strings.Builder
		for {
			if l.pos >= len(l.src) {
				return Token{}, l.errorf("unterminated string literal")
			}
			ch := l.src[l.pos]
			if ch == '\\' && l.pos+1 < len(l.src) {
				sb.WriteByte(ch)
				sb.WriteByte(l.src[l.pos+1])
				l.advance(2)
				continue
			}
			l.advance(1)
			if ch == '"' {
				break
			}
			sb.WriteByte(ch)
		}
		tok.Kind = TokString
		tok.Text = norm.NFC.String(sb.String())
		return tok, nil

	case c == '$':
		l.advance(1)
		for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
			l.advance(1)
		}
		if l.pos == start+1 {
			return Token{}, l.errorf("expected identifier after '$'")
		}
		tok.Kind = TokSystemIdent
		tok.Text = l.src[start:l.pos]
		return tok, nil
	}

	for _, op := range operators {
		if strings.HasPrefix(l.src[l.pos:], op) {
			if op == "{{{" {
				return l.embed(tok)
			}
			l.advance(len(op))
			tok.Kind = TokOperator
			tok.Text = op
			return tok, nil
		}
	}
	return Token{}, l.errorf("unexpected character %q", c)
}

func (l *lexer) number(tok Token) (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
		l.advance(1)
	}
	tok.Kind = TokNumber

	switch c := l.peekByte(0); {
	case c == '.' && isDigit(l.peekByte(1)):
		l.advance(1)
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.advance(1)
		}
		l.exponent()
	case c == 'e' || c == 'E':
		l.exponent()
	case c == '\'':
		n := 1
		if s := l.peekByte(n); s == 's' || s == 'S' {
			n++
		}
		switch {
		case isBase(l.peekByte(n)) && isBasedDigit(l.peekByte(n+1)):
			l.advance(n + 1)
			for l.pos < len(l.src) && isBasedDigit(l.src[l.pos]) {
				l.advance(1)
			}
		case n == 1 && isAllBit(l.peekByte(1)) && !isIdentChar(l.peekByte(2)):
			l.advance(2)
		}
	}
	tok.Text = l.src[start:l.pos]
	return tok, nil
}

func (l *lexer) exponent() {
	c := l.peekByte(0)
	if c != 'e' && c != 'E' {
		return
	}
	n := 1
	if s := l.peekByte(1); s == '+' || s == '-' {
		n++
	}
	if !isDigit(l.peekByte(n)) {
		return
	}
	l.advance(n)
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance(1)
	}
}

func (l *lexer) quote(tok Token) (Token, error) {
	start := l.pos
	next := l.peekByte(1)

	if next == '{' {
		l.advance(2)
		tok.Kind = TokQuoteBrace
		tok.Text = "'{"
		return tok, nil
	}

	n := 1
	if next == 's' || next == 'S' {
		n++
	}
	if isBase(l.peekByte(n)) && isBasedDigit(l.peekByte(n+1)) && l.peekByte(n+1) != '_' {
		l.advance(n + 1)
		for l.pos < len(l.src) && isBasedDigit(l.src[l.pos]) {
			l.advance(1)
		}
		tok.Kind = TokNumber
		tok.Text = l.src[start:l.pos]
		return tok, nil
	}
	if isAllBit(next) && !isIdentChar(l.peekByte(2)) {
		l.advance(2)
		tok.Kind = TokNumber
		tok.Text = l.src[start:l.pos]
		return tok, nil
	}
	if isIdentStart(next) {
		l.advance(1)
		for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
			l.advance(1)
		}
		tok.Kind = TokClockDomain
		tok.Text = l.src[start+1 : l.pos]
		return tok, nil
	}
	return Token{}, l.errorf("unexpected quote")
}

func (l *lexer) embed(tok Token) (Token, error) {
	l.advance(3)
	end := strings.Index(l.src[l.pos:], "}}}")
	if end < 0 {
		return Token{}, l.errorf("unterminated embed content")
	}
	tok.Kind = TokEmbedContent
	tok.Text = l.src[l.pos : l.pos+end]
	l.advance(end + 3)
	return tok, nil
}
