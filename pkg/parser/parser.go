// Package parser implements the FIRRTL parser.
//
// The parser is recursive descent over the token slice produced by the
// lexer. Block structure comes from indentation: the width of the first line
// inside a block fixes the width of every sibling, and the widths of all
// open blocks are passed down the call stack as a slice of levels.
package parser

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/diagnostics"
	"github.com/thomasrohde/firrtl/pkg/lexer"
	"github.com/thomasrohde/firrtl/pkg/primop"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	ErrLex ErrorKind = iota
	ErrStructural
	ErrArity
)

func (k ErrorKind) String() string {
	switch k {
	case ErrLex:
		return "lex error"
	case ErrArity:
		return "arity error"
	default:
		return "structural error"
	}
}

// Error is the error returned by Parse. It wraps a *lexer.LexError or a
// *primop.ArityError when Kind is ErrLex or ErrArity.
type Error struct {
	Kind  ErrorKind
	Diag  diagnostics.Diagnostic
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Diag.Location(), e.Kind, e.Diag.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type parser struct {
	tokens []lexer.Token
	pos    int
	last   lexer.Token
	err    *Error
}

// Parse tokenizes source and parses it into a circuit. The first error
// aborts the parse and no partial tree is returned.
func Parse(source, filename string) (*ast.Circuit, error) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return nil, &Error{Kind: ErrLex, Diag: le.Diag, cause: le}
		}
		return nil, &Error{Kind: ErrLex, Diag: diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, ""), cause: err}
	}

	p := &parser{tokens: tokens, pos: 0}
	c := p.parseCircuit()
	if p.err != nil {
		return nil, p.err
	}
	return c, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.last = tok
	return tok
}

// isWord reports whether the token at offset is the identifier word.
func (p *parser) isWord(offset int, word string) bool {
	tok := p.peekAt(offset)
	return tok.Type == lexer.TokIdent && tok.Value == word
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.fail(fmt.Sprintf("expected %s, found %s", tokenName(typ), describe(tok)), tok.Span)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) expectWord(word string) bool {
	tok := p.current()
	if !p.isWord(0, word) {
		p.fail(fmt.Sprintf("expected '%s', found %s", word, describe(tok)), tok.Span)
		return false
	}
	p.advance()
	return true
}

func (p *parser) atLineEnd() bool {
	t := p.peek()
	return t == lexer.TokNewline || t == lexer.TokEOF
}

func (p *parser) expectLineEnd() bool {
	if p.atLineEnd() {
		return true
	}
	tok := p.current()
	p.fail(fmt.Sprintf("expected end of line, found %s", describe(tok)), tok.Span)
	return false
}

func (p *parser) skipNewlines() {
	for p.peek() == lexer.TokNewline {
		p.advance()
	}
}

func (p *parser) fail(msg string, span ast.Span) {
	if p.err != nil {
		return
	}
	p.err = &Error{Kind: ErrStructural, Diag: diagnostics.MakeDiag(diagnostics.EStruct, msg, &span, "")}
}

func (p *parser) failArity(ae *primop.ArityError, span ast.Span) {
	if p.err != nil {
		return
	}
	hint := fmt.Sprintf("'%s' takes %d operand(s) and %d parameter(s)", ae.Op, ae.WantOperands, ae.WantParams)
	p.err = &Error{
		Kind:  ErrArity,
		Diag:  diagnostics.MakeDiag(diagnostics.EArity, ae.Error(), &span, hint),
		cause: ae,
	}
}

func (p *parser) spanFrom(start ast.Span) ast.Span {
	end := p.last.Span
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func tokenName(t lexer.TokenType) string {
	switch t {
	case lexer.TokNewline:
		return "end of line"
	case lexer.TokIdent:
		return "identifier"
	case lexer.TokInt:
		return "integer"
	case lexer.TokDouble:
		return "double"
	case lexer.TokVersion:
		return "version number"
	case lexer.TokString:
		return "string"
	case lexer.TokRawString:
		return "raw string"
	case lexer.TokInfo:
		return "info"
	case lexer.TokAnnotations:
		return "annotations"
	case lexer.TokColon:
		return "':'"
	case lexer.TokComma:
		return "','"
	case lexer.TokDot:
		return "'.'"
	case lexer.TokLParen:
		return "'('"
	case lexer.TokRParen:
		return "')'"
	case lexer.TokLBracket:
		return "'['"
	case lexer.TokRBracket:
		return "']'"
	case lexer.TokLBrace:
		return "'{'"
	case lexer.TokRBrace:
		return "'}'"
	case lexer.TokLt:
		return "'<'"
	case lexer.TokGt:
		return "'>'"
	case lexer.TokEquals:
		return "'='"
	case lexer.TokConnect:
		return "'<='"
	case lexer.TokPartial:
		return "'<-'"
	case lexer.TokFatArrow:
		return "'=>'"
	case lexer.TokEOF:
		return "end of file"
	default:
		return fmt.Sprintf("token(%d)", t)
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokNewline, lexer.TokEOF:
		return tokenName(tok.Type)
	case lexer.TokString:
		return strconv.Quote(tok.Value)
	}
	return fmt.Sprintf("'%s'", tok.Value)
}

func push(levels []int, width int) []int {
	out := make([]int, len(levels), len(levels)+1)
	copy(out, levels)
	return append(out, width)
}

func contains(levels []int, width int) bool {
	for _, l := range levels {
		if l == width {
			return true
		}
	}
	return false
}

// parseSuite parses the lines of a block opened by a line indented at the
// last entry of levels. A block with no deeper line is empty. item is called
// positioned after each line's newline token; it receives the levels for
// the block's children and must consume up to the end of its line.
func (p *parser) parseSuite(levels []int, item func(levels []int) bool) {
	opener := levels[len(levels)-1]
	first := p.current()
	if first.Type != lexer.TokNewline || first.Indent <= opener {
		return
	}
	width := first.Indent
	inner := push(levels, width)

	for p.err == nil {
		tok := p.current()
		if tok.Type != lexer.TokNewline {
			return
		}
		switch {
		case tok.Indent == width:
			p.advance() // consume newline
			if !item(inner) {
				return
			}
		case tok.Indent > width:
			p.fail(fmt.Sprintf("unexpected indent: expected %d columns, found %d", width, tok.Indent), tok.Span)
			return
		default:
			if !contains(levels, tok.Indent) {
				p.fail(fmt.Sprintf("unindent to %d columns does not match any enclosing block", tok.Indent), tok.Span)
			}
			return
		}
	}
}

// --- Circuit ---

func (p *parser) parseCircuit() *ast.Circuit {
	head := p.current()
	if head.Type != lexer.TokNewline {
		p.fail("expected 'circuit', found end of file", head.Span)
		return nil
	}

	version := ""
	if p.isWord(1, "FIRRTL") && p.isWord(2, "version") {
		p.advance() // consume newline
		p.advance() // consume 'FIRRTL'
		p.advance() // consume 'version'
		tok, ok := p.expect(lexer.TokVersion)
		if !ok || !p.expectLineEnd() {
			return nil
		}
		version = tok.Value
		head = p.current()
		if head.Type != lexer.TokNewline {
			p.fail("expected 'circuit', found end of file", head.Span)
			return nil
		}
	}

	p.advance() // consume newline
	start := p.current().Span
	if !p.expectWord("circuit") {
		return nil
	}
	name, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokColon); !ok {
		return nil
	}

	c := &ast.Circuit{Version: version, Name: name.Value}
	for !p.atLineEnd() {
		switch tok := p.current(); {
		case tok.Type == lexer.TokAnnotations && c.Annotations == "":
			p.advance()
			ann := ast.Annotations(tok.Value)
			if !ann.Valid() {
				p.fail("annotations must be a JSON array", tok.Span)
				return nil
			}
			c.Annotations = ann
		case tok.Type == lexer.TokInfo && c.Info == "":
			c.Info = p.parseInfo()
		default:
			p.expectLineEnd()
			return nil
		}
	}

	p.parseSuite([]int{head.Indent}, func(levels []int) bool {
		m := p.parseModule(levels)
		if m == nil {
			return false
		}
		c.Modules = append(c.Modules, m)
		return true
	})
	if p.err != nil {
		return nil
	}
	if tok := p.current(); tok.Type != lexer.TokEOF {
		p.fail("unexpected content after circuit", tok.Span)
		return nil
	}
	c.Span = p.spanFrom(start)
	return c
}

// --- Modules ---

func (p *parser) parseModule(levels []int) ast.DefModule {
	switch {
	case p.isWord(0, "module") && p.peekAt(1).Type == lexer.TokIdent:
		return p.parseDefModule(levels)
	case p.isWord(0, "extmodule") && p.peekAt(1).Type == lexer.TokIdent:
		return p.parseExtModule(levels)
	}
	tok := p.current()
	p.fail(fmt.Sprintf("expected 'module' or 'extmodule', found %s", describe(tok)), tok.Span)
	return nil
}

func (p *parser) parseModuleHeader() (name string, info ast.Info, ok bool) {
	p.advance() // consume 'module' / 'extmodule'
	tok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return "", "", false
	}
	if _, ok := p.expect(lexer.TokColon); !ok {
		return "", "", false
	}
	info = p.parseInfo()
	if !p.expectLineEnd() {
		return "", "", false
	}
	return tok.Value, info, true
}

func (p *parser) atPort() bool {
	return (p.isWord(0, "input") || p.isWord(0, "output")) &&
		p.peekAt(1).Type == lexer.TokIdent && p.peekAt(2).Type == lexer.TokColon
}

func (p *parser) parseDefModule(levels []int) ast.DefModule {
	start := p.current().Span
	name, info, ok := p.parseModuleHeader()
	if !ok {
		return nil
	}

	m := &ast.Module{Name: name, Info: info}
	body := &ast.Block{}
	portsDone := false
	p.parseSuite(levels, func(levels []int) bool {
		if p.atPort() {
			if portsDone {
				tok := p.current()
				p.fail("port declarations must precede statements", tok.Span)
				return false
			}
			port := p.parsePort()
			if port == nil {
				return false
			}
			m.Ports = append(m.Ports, port)
			return true
		}
		portsDone = true
		s := p.parseStatement(levels)
		if s == nil {
			return false
		}
		body.Stmts = append(body.Stmts, s)
		return true
	})
	if p.err != nil {
		return nil
	}
	if len(body.Stmts) > 0 {
		body.Span = ast.Span{
			File:      start.File,
			StartLine: body.Stmts[0].NodeSpan().StartLine,
			StartCol:  body.Stmts[0].NodeSpan().StartCol,
			EndLine:   p.last.Span.EndLine,
			EndCol:    p.last.Span.EndCol,
		}
	}
	m.Body = body
	m.Span = p.spanFrom(start)
	return m
}

func (p *parser) parseExtModule(levels []int) ast.DefModule {
	start := p.current().Span
	name, info, ok := p.parseModuleHeader()
	if !ok {
		return nil
	}

	m := &ast.ExtModule{Name: name, Info: info}
	p.parseSuite(levels, func([]int) bool {
		switch {
		case p.atPort():
			if m.DefName != "" || len(m.Params) > 0 {
				p.fail("port declarations must precede defname and parameters", p.current().Span)
				return false
			}
			port := p.parsePort()
			if port == nil {
				return false
			}
			m.Ports = append(m.Ports, port)
		case p.isWord(0, "defname") && p.peekAt(1).Type == lexer.TokEquals:
			p.advance() // consume 'defname'
			p.advance() // consume '='
			tok, ok := p.expect(lexer.TokIdent)
			if !ok {
				return false
			}
			m.DefName = tok.Value
		case p.isWord(0, "parameter") && p.peekAt(1).Type == lexer.TokIdent:
			param := p.parseParam()
			if param == nil {
				return false
			}
			m.Params = append(m.Params, param)
		default:
			tok := p.current()
			p.fail(fmt.Sprintf("expected port, defname or parameter, found %s", describe(tok)), tok.Span)
			return false
		}
		return p.expectLineEnd()
	})
	if p.err != nil {
		return nil
	}
	m.Span = p.spanFrom(start)
	return m
}

func (p *parser) parseParam() *ast.Param {
	start := p.advance() // consume 'parameter'
	name := p.advance()
	if _, ok := p.expect(lexer.TokEquals); !ok {
		return nil
	}

	tok := p.current()
	var value ast.ParamValue
	switch tok.Type {
	case lexer.TokInt:
		v, ok := lexer.ParseInt(tok.Value)
		if !ok {
			p.fail(fmt.Sprintf("invalid integer %s", describe(tok)), tok.Span)
			return nil
		}
		value = &ast.IntParam{Span: tok.Span, Value: v}
	case lexer.TokDouble:
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.fail(fmt.Sprintf("invalid double %s", describe(tok)), tok.Span)
			return nil
		}
		value = &ast.DoubleParam{Span: tok.Span, Value: v}
	case lexer.TokString:
		value = &ast.StringParam{Span: tok.Span, Value: tok.Value}
	case lexer.TokRawString:
		value = &ast.RawStringParam{Span: tok.Span, Value: tok.Value}
	default:
		p.fail(fmt.Sprintf("expected parameter value, found %s", describe(tok)), tok.Span)
		return nil
	}
	p.advance()
	return &ast.Param{Span: p.spanFrom(start.Span), Name: name.Value, Value: value}
}

func (p *parser) parsePort() *ast.Port {
	start := p.advance() // consume 'input' / 'output'
	dir := ast.Input
	if start.Value == "output" {
		dir = ast.Output
	}
	name := p.advance()
	p.advance() // consume ':'

	t := p.parseType()
	if t == nil {
		return nil
	}
	info := p.parseInfo()
	if !p.expectLineEnd() {
		return nil
	}
	return &ast.Port{Span: p.spanFrom(start.Span), Name: name.Value, Direction: dir, Type: t, Info: info}
}

func (p *parser) parseInfo() ast.Info {
	if p.peek() == lexer.TokInfo {
		return ast.Info(p.advance().Value)
	}
	return ""
}

// parseNatural parses a non-negative integer token.
func (p *parser) parseNatural(what string) *big.Int {
	tok, ok := p.expect(lexer.TokInt)
	if !ok {
		return nil
	}
	v, ok := lexer.ParseInt(tok.Value)
	if !ok {
		p.fail(fmt.Sprintf("invalid integer %s", describe(tok)), tok.Span)
		return nil
	}
	if v.Sign() < 0 {
		p.fail(fmt.Sprintf("%s must be non-negative, found %s", what, tok.Value), tok.Span)
		return nil
	}
	return v
}
