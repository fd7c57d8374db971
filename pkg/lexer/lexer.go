// Package lexer implements the FIRRTL tokenizer.
//
// Keywords are not distinguished from identifiers here; whether "node" or
// "when" starts a statement depends on the tokens that follow it, which is
// the parser's call. Indentation is reported, not resolved: every
// non-blank, non-comment line starts with a TokNewline carrying its width.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Layout
	TokNewline TokenType = iota

	// Words and literals
	TokIdent
	TokInt
	TokDouble
	TokVersion
	TokString
	TokRawString
	TokInfo
	TokAnnotations

	// Punctuation
	TokColon    // :
	TokComma    // ,
	TokDot      // .
	TokLParen   // (
	TokRParen   // )
	TokLBracket // [
	TokRBracket // ]
	TokLBrace   // {
	TokRBrace   // }
	TokLt       // <
	TokGt       // >
	TokEquals   // =
	TokConnect  // <=
	TokPartial  // <-
	TokFatArrow // =>

	// Special
	TokEOF
)

// Token represents a single lexer token. Value holds the decoded text of
// strings and info, and the raw text of everything else. Indent is only
// meaningful on TokNewline.
type Token struct {
	Type   TokenType
	Value  string
	Span   ast.Span
	Indent int
}

var single = map[byte]TokenType{
	':': TokColon, ',': TokComma, '.': TokDot,
	'(': TokLParen, ')': TokRParen,
	'[': TokLBracket, ']': TokRBracket,
	'{': TokLBrace, '}': TokRBrace,
	'>': TokGt,
}

// Memory entry keywords that contain hyphens and lex as one identifier.
var hyphenated = []string{
	"data-type",
	"read-latency",
	"write-latency",
	"read-under-write",
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
	// afterDot is set while the last token was '.', where digits name a
	// field and never start a double or version.
	afterDot bool
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) token(typ TokenType, value string, startLine, startCol int) Token {
	return Token{Type: typ, Value: value, Span: s.span(startLine, startCol)}
}

func (s *scanner) skipComment() {
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
}

// skipSpaces skips blanks and a trailing comment, stopping at a newline.
func (s *scanner) skipSpaces() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.advance()
		case ';':
			s.skipComment()
		default:
			return
		}
	}
}

// scanIndent measures the leading blanks of a line. Blank and comment-only
// lines are consumed whole and report false.
func (s *scanner) scanIndent() (Token, bool) {
	s.afterDot = false
	startLine := s.line
	width := 0
	for !s.atEnd() && (s.peek() == ' ' || s.peek() == '\t') {
		s.advance()
		width++
	}
	for !s.atEnd() && s.peek() == '\r' {
		s.advance()
	}
	if s.atEnd() {
		return Token{}, false
	}
	switch s.peek() {
	case '\n':
		s.advance()
		return Token{}, false
	case ';':
		s.skipComment()
		if !s.atEnd() {
			s.advance() // consume '\n'
		}
		return Token{}, false
	}
	tok := s.token(TokNewline, "", startLine, 1)
	tok.Indent = width
	return tok, true
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentChar(ch byte) bool {
	return isAlpha(ch) || isDigit(ch) || ch == '$'
}

func (s *scanner) scanIdent() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isIdentChar(s.peek()) {
		s.advance()
	}

	if s.peek() == '-' {
		rest := s.source[startPos:]
		for _, kw := range hyphenated {
			if strings.HasPrefix(rest, kw) && !isIdentChar(byteAt(rest, len(kw))) {
				for s.pos < startPos+len(kw) {
					s.advance()
				}
				break
			}
		}
	}

	return s.token(TokIdent, s.source[startPos:s.pos], startLine, startCol)
}

func byteAt(str string, i int) byte {
	if i >= len(str) {
		return 0
	}
	return str[i]
}

func isRadix(ch byte) bool {
	return ch == 'x' || ch == 'h' || ch == 'o' || ch == 'b'
}

func (s *scanner) scanNumber() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	signed := false

	if s.peek() == '-' || s.peek() == '+' {
		signed = true
		s.advance()
	}

	// 0x / 0h / 0o / 0b
	if s.peek() == '0' && isRadix(s.peekAt(1)) {
		s.advance()
		radix := s.advance()
		digits := 0
		for !s.atEnd() && digitValue(s.peek()) < radixBase(radix) {
			s.advance()
			digits++
		}
		if digits == 0 || isIdentChar(s.peek()) {
			return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("malformed radix literal %q", s.source[startPos:s.pos]))
		}
		return s.token(TokInt, s.source[startPos:s.pos], startLine, startCol), nil
	}

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	typ := TokInt

	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance() // consume '.'
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
		typ = TokDouble
		if s.peek() == '.' && isDigit(s.peekAt(1)) {
			s.advance() // consume '.'
			for !s.atEnd() && isDigit(s.peek()) {
				s.advance()
			}
			if signed {
				return Token{}, s.lexError(startLine, startCol, "version number cannot carry a sign")
			}
			typ = TokVersion
		}
	}

	if typ != TokVersion && (s.peek() == 'e' || s.peek() == 'E') {
		if isDigit(s.peekAt(1)) || ((s.peekAt(1) == '+' || s.peekAt(1) == '-') && isDigit(s.peekAt(2))) {
			s.advance() // consume e/E
			if s.peek() == '+' || s.peek() == '-' {
				s.advance()
			}
			for !s.atEnd() && isDigit(s.peek()) {
				s.advance()
			}
			typ = TokDouble
		}
	}

	if isIdentChar(s.peek()) || (s.peek() == '.' && isDigit(s.peekAt(1))) {
		for !s.atEnd() && (isIdentChar(s.peek()) || s.peek() == '.') {
			s.advance()
		}
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid numeric literal %q", s.source[startPos:s.pos]))
	}

	return s.token(typ, s.source[startPos:s.pos], startLine, startCol), nil
}

// scanFieldNumber reads the decimal field name in "a.0.1", leaving the next
// '.' for its own token.
func (s *scanner) scanFieldNumber() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	if isIdentChar(s.peek()) {
		for !s.atEnd() && isIdentChar(s.peek()) {
			s.advance()
		}
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid numeric literal %q", s.source[startPos:s.pos]))
	}
	return s.token(TokInt, s.source[startPos:s.pos], startLine, startCol), nil
}

// scanEscaped reads up to close, decoding \n and \t and taking any other
// escaped character literally. Strings may not span lines; info may.
func (s *scanner) scanEscaped(typ TokenType, close byte, what string, multiline bool) (Token, error) {
	startLine, startCol := s.line, s.col
	if typ == TokInfo {
		s.advance() // consume '@'
	}
	s.advance() // consume opening delimiter

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		switch {
		case ch == close:
			s.advance()
			return s.token(typ, buf.String(), startLine, startCol), nil
		case ch == '\\':
			s.advance() // consume backslash
			if s.atEnd() {
				return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unterminated %s escape", what))
			}
			switch esc := s.peek(); esc {
			case 'n':
				s.advance()
				buf.WriteByte('\n')
			case 't':
				s.advance()
				buf.WriteByte('\t')
			default:
				if err := s.copyRune(&buf, startLine, startCol, what); err != nil {
					return Token{}, err
				}
			}
		case ch == '\n' && !multiline:
			return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unterminated %s", what))
		default:
			if err := s.copyRune(&buf, startLine, startCol, what); err != nil {
				return Token{}, err
			}
		}
	}
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unterminated %s", what))
}

func (s *scanner) copyRune(buf *strings.Builder, startLine, startCol int, what string) error {
	r, size := utf8.DecodeRuneInString(s.source[s.pos:])
	if r == utf8.RuneError && size == 1 {
		return s.lexError(startLine, startCol, fmt.Sprintf("invalid UTF-8 character in %s", what))
	}
	buf.WriteRune(r)
	for i := 0; i < size; i++ {
		s.advance()
	}
	return nil
}

// scanRawString reads a single-quoted string verbatim, backslashes included.
func (s *scanner) scanRawString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening '
	start := s.pos
	for !s.atEnd() {
		switch s.peek() {
		case '\'':
			text := s.source[start:s.pos]
			s.advance()
			return s.token(TokRawString, text, startLine, startCol), nil
		case '\\':
			s.advance()
			if !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		case '\n':
			return Token{}, s.lexError(startLine, startCol, "unterminated raw string")
		default:
			s.advance()
		}
	}
	return Token{}, s.lexError(startLine, startCol, "unterminated raw string")
}

// scanAnnotations reads a %[...] block and returns the JSON between the
// envelope brackets. The JSON may nest brackets and span lines; brackets
// inside JSON strings do not count.
func (s *scanner) scanAnnotations() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume '%'
	s.advance() // consume '['
	start := s.pos
	depth := 1
	inString := false
	for !s.atEnd() {
		ch := s.advance()
		switch {
		case inString && ch == '\\':
			if !s.atEnd() {
				s.advance()
			}
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '[':
			depth++
		case ch == ']':
			depth--
			if depth == 0 {
				return s.token(TokAnnotations, s.source[start:s.pos-1], startLine, startCol), nil
			}
		}
	}
	return Token{}, s.lexError(startLine, startCol, "unterminated annotation block")
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

func (s *scanner) nextToken() (Token, error) {
	ch := s.peek()
	startLine, startCol := s.line, s.col
	afterDot := s.afterDot
	s.afterDot = false

	// Single-char tokens
	if typ, ok := single[ch]; ok {
		s.advance()
		s.afterDot = typ == TokDot
		return s.token(typ, string(ch), startLine, startCol), nil
	}

	if afterDot && isDigit(ch) {
		return s.scanFieldNumber()
	}

	// Multi-char tokens
	switch ch {
	case '<':
		s.advance()
		switch s.peek() {
		case '=':
			s.advance()
			return s.token(TokConnect, "<=", startLine, startCol), nil
		case '-':
			s.advance()
			return s.token(TokPartial, "<-", startLine, startCol), nil
		}
		return s.token(TokLt, "<", startLine, startCol), nil

	case '=':
		s.advance()
		if s.peek() == '>' {
			s.advance()
			return s.token(TokFatArrow, "=>", startLine, startCol), nil
		}
		return s.token(TokEquals, "=", startLine, startCol), nil

	case '"':
		return s.scanEscaped(TokString, '"', "string literal", false)

	case '\'':
		return s.scanRawString()

	case '@':
		if s.peekAt(1) == '[' {
			return s.scanEscaped(TokInfo, ']', "info", true)
		}

	case '%':
		if s.peekAt(1) == '[' {
			return s.scanAnnotations()
		}
	}

	if isDigit(ch) || ((ch == '-' || ch == '+') && isDigit(s.peekAt(1))) {
		return s.scanNumber()
	}

	if isAlpha(ch) {
		return s.scanIdent(), nil
	}

	if ch >= utf8.RuneSelf {
		r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
		if r == utf8.RuneError {
			return Token{}, s.lexError(startLine, startCol, "invalid UTF-8 character")
		}
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", r))
	}
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", ch))
}

// Lexer produces tokens on demand. A Lexer cannot be rewound; start a new
// one to read the source again. After an error the Lexer is exhausted.
type Lexer struct {
	s         *scanner
	lineStart bool
	done      bool
}

// New returns a Lexer positioned at the start of source.
func New(source, filename string) *Lexer {
	return &Lexer{s: newScanner(source, filename), lineStart: true}
}

// Next returns the next token. Once the input is exhausted it keeps
// returning TokEOF.
func (l *Lexer) Next() (Token, error) {
	for !l.done {
		if l.lineStart {
			l.lineStart = false
			if tok, ok := l.s.scanIndent(); ok {
				return tok, nil
			}
			if !l.s.atEnd() {
				l.lineStart = true
			}
			continue
		}
		l.s.skipSpaces()
		if l.s.atEnd() {
			break
		}
		if l.s.peek() == '\n' {
			l.s.advance()
			l.lineStart = true
			continue
		}
		tok, err := l.s.nextToken()
		if err != nil {
			l.done = true
			return Token{}, err
		}
		return tok, nil
	}
	l.done = true
	return l.s.token(TokEOF, "", l.s.line, l.s.col), nil
}

// Tokenize breaks source code into a slice of tokens ending in TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	l := New(source, filename)
	var tokens []Token

	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
