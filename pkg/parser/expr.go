package parser

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/lexer"
	"github.com/thomasrohde/firrtl/pkg/primop"
)

// --- Types ---

func (p *parser) parseType() ast.Type {
	t := p.parseBaseType()
	if t == nil {
		return nil
	}
	for p.peek() == lexer.TokLBracket {
		p.advance()
		size := p.parseNatural("vector size")
		if size == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRBracket); !ok {
			return nil
		}
		t = &ast.VectorType{Span: p.spanFrom(t.NodeSpan()), Elem: t, Size: size}
	}
	return t
}

func (p *parser) parseBaseType() ast.Type {
	tok := p.current()
	if tok.Type == lexer.TokLBrace {
		return p.parseBundle()
	}
	if tok.Type != lexer.TokIdent {
		p.fail(fmt.Sprintf("expected type, found %s", describe(tok)), tok.Span)
		return nil
	}

	switch tok.Value {
	case "UInt", "SInt", "Analog":
		p.advance()
		width, ok := p.parseWidth()
		if !ok {
			return nil
		}
		span := p.spanFrom(tok.Span)
		switch tok.Value {
		case "UInt":
			return &ast.UIntType{Span: span, Width: width}
		case "SInt":
			return &ast.SIntType{Span: span, Width: width}
		default:
			return &ast.AnalogType{Span: span, Width: width}
		}
	case "Clock":
		p.advance()
		return &ast.ClockType{Span: tok.Span}
	case "Reset":
		p.advance()
		return &ast.ResetType{Span: tok.Span}
	case "AsyncReset":
		p.advance()
		return &ast.AsyncResetType{Span: tok.Span}
	}
	p.fail(fmt.Sprintf("unknown type '%s'", tok.Value), tok.Span)
	return nil
}

// parseWidth parses an optional "<w>". A nil width means the width is
// left to inference.
func (p *parser) parseWidth() (*big.Int, bool) {
	if p.peek() != lexer.TokLt {
		return nil, true
	}
	p.advance()
	w := p.parseNatural("width")
	if w == nil {
		return nil, false
	}
	if _, ok := p.expect(lexer.TokGt); !ok {
		return nil, false
	}
	return w, true
}

// parseBundle parses "{flip a : T, b : T}". Fields may span lines.
func (p *parser) parseBundle() ast.Type {
	start := p.advance() // consume '{'
	b := &ast.BundleType{}
	seen := make(map[string]bool)
	p.skipNewlines()
	for p.peek() != lexer.TokRBrace {
		f := p.parseField()
		if f == nil {
			return nil
		}
		if seen[f.Name] {
			p.fail(fmt.Sprintf("bundle declares field '%s' more than once", f.Name), f.Span)
			return nil
		}
		seen[f.Name] = true
		b.Fields = append(b.Fields, f)
		p.skipNewlines()
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
		p.skipNewlines()
	}
	if _, ok := p.expect(lexer.TokRBrace); !ok {
		return nil
	}
	b.Span = p.spanFrom(start.Span)
	return b
}

func (p *parser) parseField() *ast.Field {
	start := p.current()
	flip := false
	// "flip : T" is a field named flip
	if p.isWord(0, "flip") && p.peekAt(1).Type != lexer.TokColon {
		flip = true
		p.advance()
	}
	name, ok := p.parseFieldName()
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokColon); !ok {
		return nil
	}
	t := p.parseType()
	if t == nil {
		return nil
	}
	return &ast.Field{Span: p.spanFrom(start.Span), Name: name, Flip: flip, Type: t}
}

// parseFieldName accepts identifiers and unsigned integers, which FIRRTL
// allows as bundle field names.
func (p *parser) parseFieldName() (string, bool) {
	tok := p.current()
	if tok.Type == lexer.TokIdent || (tok.Type == lexer.TokInt && isDecimal(tok.Value)) {
		p.advance()
		return tok.Value, true
	}
	p.fail(fmt.Sprintf("expected field name, found %s", describe(tok)), tok.Span)
	return "", false
}

func isDecimal(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	e := p.parsePrimary()
	if e == nil {
		return nil
	}
	for {
		switch p.peek() {
		case lexer.TokDot:
			p.advance()
			field, ok := p.parseFieldName()
			if !ok {
				return nil
			}
			e = &ast.SubField{Span: p.spanFrom(e.NodeSpan()), Expr: e, Field: field}
		case lexer.TokLBracket:
			p.advance()
			if p.peek() == lexer.TokInt && p.peekAt(1).Type == lexer.TokRBracket {
				idx := p.parseNatural("index")
				if idx == nil {
					return nil
				}
				p.advance() // consume ']'
				e = &ast.SubIndex{Span: p.spanFrom(e.NodeSpan()), Expr: e, Index: idx}
				continue
			}
			idx := p.parseExpr()
			if idx == nil {
				return nil
			}
			if _, ok := p.expect(lexer.TokRBracket); !ok {
				return nil
			}
			e = &ast.SubAccess{Span: p.spanFrom(e.NodeSpan()), Expr: e, Index: idx}
		default:
			return e
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.current()
	if tok.Type != lexer.TokIdent {
		p.fail(fmt.Sprintf("expected expression, found %s", describe(tok)), tok.Span)
		return nil
	}

	next := p.peekAt(1).Type
	switch {
	case (tok.Value == "UInt" || tok.Value == "SInt") && (next == lexer.TokLt || next == lexer.TokLParen):
		return p.parseLiteral()
	case next != lexer.TokLParen:
		p.advance()
		return &ast.Reference{Span: tok.Span, Name: tok.Value}
	case tok.Value == "mux":
		return p.parseMux()
	case tok.Value == "validif":
		return p.parseValidIf()
	}
	if op, ok := primop.Lookup(tok.Value); ok {
		return p.parsePrimOp(op)
	}
	p.fail(fmt.Sprintf("unknown primitive operation '%s'", tok.Value), tok.Span)
	return nil
}

// parseLiteral parses "UInt<w>(v)" or "SInt(v)". The value is a plain
// integer or a quoted radix literal such as "h2A".
func (p *parser) parseLiteral() ast.Expr {
	start := p.advance() // consume 'UInt' / 'SInt'
	signed := start.Value == "SInt"
	width, ok := p.parseWidth()
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}

	tok := p.current()
	var value *big.Int
	switch tok.Type {
	case lexer.TokInt:
		value, ok = lexer.ParseInt(tok.Value)
	case lexer.TokString:
		value, ok = lexer.ParseQuotedInt(tok.Value)
	default:
		p.fail(fmt.Sprintf("expected literal value, found %s", describe(tok)), tok.Span)
		return nil
	}
	if !ok {
		p.fail(fmt.Sprintf("invalid literal value %s", describe(tok)), tok.Span)
		return nil
	}
	if !signed && value.Sign() < 0 {
		p.fail(fmt.Sprintf("UInt literal cannot be negative, found %s", value), tok.Span)
		return nil
	}
	p.advance()
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	return &ast.Literal{Span: p.spanFrom(start.Span), Signed: signed, Width: width, Value: value}
}

// parseArgs parses a parenthesized, comma separated expression list of
// exactly n entries.
func (p *parser) parseArgs(n int) []ast.Expr {
	p.advance() // consume '('
	args := make([]ast.Expr, n)
	for i := range args {
		if i > 0 {
			if _, ok := p.expect(lexer.TokComma); !ok {
				return nil
			}
		}
		if args[i] = p.parseExpr(); args[i] == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	return args
}

func (p *parser) parseMux() ast.Expr {
	start := p.advance() // consume 'mux'
	args := p.parseArgs(3)
	if args == nil {
		return nil
	}
	return &ast.Mux{Span: p.spanFrom(start.Span), Cond: args[0], High: args[1], Low: args[2]}
}

func (p *parser) parseValidIf() ast.Expr {
	start := p.advance() // consume 'validif'
	args := p.parseArgs(2)
	if args == nil {
		return nil
	}
	return &ast.ValidIf{Span: p.spanFrom(start.Span), Cond: args[0], Value: args[1]}
}

// parsePrimOp parses "op(e1, ..., n1, ...)". An integer followed by ',' or
// ')' is a parameter, and parameters come after every operand.
func (p *parser) parsePrimOp(op primop.Op) ast.Expr {
	start := p.advance() // consume op name
	p.advance()          // consume '('

	e := &ast.PrimOp{Op: op}
	for p.peek() != lexer.TokRParen {
		if len(e.Args)+len(e.Params) > 0 {
			if _, ok := p.expect(lexer.TokComma); !ok {
				return nil
			}
		}
		tok := p.current()
		if tok.Type == lexer.TokInt {
			if next := p.peekAt(1).Type; next == lexer.TokComma || next == lexer.TokRParen {
				v := p.parseNatural("parameter")
				if v == nil {
					return nil
				}
				e.Params = append(e.Params, v)
				continue
			}
		}
		if len(e.Params) > 0 {
			p.fail(fmt.Sprintf("'%s' operands must precede parameters", op), tok.Span)
			return nil
		}
		arg := p.parseExpr()
		if arg == nil {
			return nil
		}
		e.Args = append(e.Args, arg)
	}
	p.advance() // consume ')'
	e.Span = p.spanFrom(start.Span)

	if err := primop.Check(op, len(e.Args), len(e.Params)); err != nil {
		var ae *primop.ArityError
		if errors.As(err, &ae) {
			p.failArity(ae, e.Span)
		} else {
			p.fail(err.Error(), e.Span)
		}
		return nil
	}
	return e
}
