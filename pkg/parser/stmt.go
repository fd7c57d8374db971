package parser

import (
	"fmt"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/lexer"
)

// continuesExpr reports whether the token at offset continues an
// expression that began with a word, so the word is a signal name rather
// than a keyword.
func (p *parser) continuesExpr(offset int) bool {
	switch p.peekAt(offset).Type {
	case lexer.TokConnect, lexer.TokPartial, lexer.TokDot, lexer.TokLBracket:
		return true
	}
	return p.isWord(offset, "is")
}

// declares reports whether the current word is followed by a name and typ.
func (p *parser) declares(typ lexer.TokenType) bool {
	return p.peekAt(1).Type == lexer.TokIdent && p.peekAt(2).Type == typ
}

// parseStatement parses one statement. The last entry of levels is the
// indentation of the statement's own line.
func (p *parser) parseStatement(levels []int) ast.Stmt {
	tok := p.current()
	if tok.Type == lexer.TokIdent {
		switch tok.Value {
		case "wire":
			if p.declares(lexer.TokColon) {
				return p.parseWire()
			}
		case "reg":
			if p.declares(lexer.TokColon) {
				return p.parseReg(levels)
			}
		case "regreset":
			if p.declares(lexer.TokColon) {
				return p.parseRegReset()
			}
		case "mem":
			if p.declares(lexer.TokColon) {
				return p.parseMem(levels)
			}
		case "cmem", "smem":
			if p.declares(lexer.TokColon) {
				return p.parseCMem()
			}
		case "read", "write", "rdwr", "infer":
			if p.isWord(1, "mport") {
				return p.parseMemPort()
			}
		case "inst":
			if p.peekAt(1).Type == lexer.TokIdent && p.isWord(2, "of") {
				return p.parseInst()
			}
		case "node":
			if p.declares(lexer.TokEquals) {
				return p.parseNode()
			}
		case "when":
			if !p.continuesExpr(1) {
				return p.parseWhen(levels)
			}
		case "else":
			if !p.continuesExpr(1) {
				p.fail("'else' without a matching 'when' at this indentation", tok.Span)
				return nil
			}
		case "stop":
			if p.peekAt(1).Type == lexer.TokLParen {
				return p.parseStop()
			}
		case "printf":
			if p.peekAt(1).Type == lexer.TokLParen {
				return p.parsePrintf()
			}
		case "attach":
			if p.peekAt(1).Type == lexer.TokLParen {
				return p.parseAttach()
			}
		case "skip":
			switch p.peekAt(1).Type {
			case lexer.TokNewline, lexer.TokEOF, lexer.TokInfo:
				return p.parseSkip()
			}
		}
	}
	return p.parseConnectLike()
}

// finish reads the optional info and the line end shared by every simple
// statement.
func (p *parser) finish() (ast.Info, bool) {
	info := p.parseInfo()
	return info, p.expectLineEnd()
}

func (p *parser) parseWire() ast.Stmt {
	start := p.advance() // consume 'wire'
	name := p.advance()
	p.advance() // consume ':'
	t := p.parseType()
	if t == nil {
		return nil
	}
	info, ok := p.finish()
	if !ok {
		return nil
	}
	return &ast.Wire{Span: p.spanFrom(start.Span), Name: name.Value, Type: t, Info: info}
}

func (p *parser) parseReg(levels []int) ast.Stmt {
	own := levels[len(levels)-1]
	start := p.advance() // consume 'reg'
	name := p.advance()
	p.advance() // consume ':'
	t := p.parseType()
	if t == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	clock := p.parseExpr()
	if clock == nil {
		return nil
	}

	r := &ast.Reg{Name: name.Value, Type: t, Clock: clock}
	if p.isWord(0, "with") {
		p.advance() // consume 'with'
		if _, ok := p.expect(lexer.TokColon); !ok {
			return nil
		}
		// the reset clause may continue on a deeper line
		if tok := p.current(); tok.Type == lexer.TokNewline && tok.Indent > own {
			p.advance()
		}
		wrapped := p.peek() == lexer.TokLParen
		if wrapped {
			p.advance()
		}
		if !p.expectWord("reset") {
			return nil
		}
		if _, ok := p.expect(lexer.TokFatArrow); !ok {
			return nil
		}
		if _, ok := p.expect(lexer.TokLParen); !ok {
			return nil
		}
		if r.Reset = p.parseExpr(); r.Reset == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokComma); !ok {
			return nil
		}
		if r.Init = p.parseExpr(); r.Init == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen); !ok {
			return nil
		}
		if wrapped {
			if _, ok := p.expect(lexer.TokRParen); !ok {
				return nil
			}
		}
	}

	info, ok := p.finish()
	if !ok {
		return nil
	}
	r.Info = info
	r.Span = p.spanFrom(start.Span)
	return r
}

// parseRegReset parses "regreset r : T, clk, rst, init".
func (p *parser) parseRegReset() ast.Stmt {
	start := p.advance() // consume 'regreset'
	name := p.advance()
	p.advance() // consume ':'
	t := p.parseType()
	if t == nil {
		return nil
	}
	exprs := make([]ast.Expr, 3)
	for i := range exprs {
		if _, ok := p.expect(lexer.TokComma); !ok {
			return nil
		}
		if exprs[i] = p.parseExpr(); exprs[i] == nil {
			return nil
		}
	}
	info, ok := p.finish()
	if !ok {
		return nil
	}
	return &ast.Reg{
		Span:  p.spanFrom(start.Span),
		Name:  name.Value,
		Type:  t,
		Clock: exprs[0],
		Reset: exprs[1],
		Init:  exprs[2],
		Info:  info,
	}
}

func (p *parser) parseMem(levels []int) ast.Stmt {
	start := p.advance() // consume 'mem'
	name := p.advance()
	p.advance() // consume ':'
	info, ok := p.finish()
	if !ok {
		return nil
	}

	m := &ast.Mem{Name: name.Value, Info: info}
	seen := map[string]bool{}
	p.parseSuite(levels, func([]int) bool {
		key := p.current()
		if key.Type != lexer.TokIdent {
			p.fail(fmt.Sprintf("expected memory entry, found %s", describe(key)), key.Span)
			return false
		}
		p.advance()
		if _, ok := p.expect(lexer.TokFatArrow); !ok {
			return false
		}
		switch key.Value {
		case "data-type", "depth", "read-latency", "write-latency", "read-under-write":
			if seen[key.Value] {
				p.fail(fmt.Sprintf("duplicate memory entry '%s'", key.Value), key.Span)
				return false
			}
			seen[key.Value] = true
		}

		switch key.Value {
		case "data-type":
			if m.DataType = p.parseType(); m.DataType == nil {
				return false
			}
		case "depth":
			if m.Depth = p.parseNatural("depth"); m.Depth == nil {
				return false
			}
		case "read-latency":
			if m.ReadLatency = p.parseNatural("read-latency"); m.ReadLatency == nil {
				return false
			}
		case "write-latency":
			if m.WriteLatency = p.parseNatural("write-latency"); m.WriteLatency == nil {
				return false
			}
		case "reader", "writer", "readwriter":
			port, ok := p.expect(lexer.TokIdent)
			if !ok {
				return false
			}
			switch key.Value {
			case "reader":
				m.Readers = append(m.Readers, port.Value)
			case "writer":
				m.Writers = append(m.Writers, port.Value)
			default:
				m.ReadWriters = append(m.ReadWriters, port.Value)
			}
		case "read-under-write":
			ruw, ok := p.parseReadUnderWrite()
			if !ok {
				return false
			}
			m.ReadUnderWrite = ruw
		default:
			p.fail(fmt.Sprintf("unknown memory entry '%s'", key.Value), key.Span)
			return false
		}
		return p.expectLineEnd()
	})
	if p.err != nil {
		return nil
	}
	if m.DataType == nil {
		p.fail(fmt.Sprintf("memory '%s' has no data-type", m.Name), start.Span)
		return nil
	}
	if m.Depth == nil {
		p.fail(fmt.Sprintf("memory '%s' has no depth", m.Name), start.Span)
		return nil
	}
	m.Span = p.spanFrom(start.Span)
	return m
}

func (p *parser) parseReadUnderWrite() (ast.ReadUnderWrite, bool) {
	tok := p.current()
	var ruw ast.ReadUnderWrite
	switch {
	case p.isWord(0, "old"):
		ruw = ast.RUWOld
	case p.isWord(0, "new"):
		ruw = ast.RUWNew
	case p.isWord(0, "undefined"):
		ruw = ast.RUWUndefined
	default:
		p.fail(fmt.Sprintf("expected 'old', 'new' or 'undefined', found %s", describe(tok)), tok.Span)
		return 0, false
	}
	p.advance()
	return ruw, true
}

// parseCMem parses "cmem m : T" and "smem m : T[, ruw]".
func (p *parser) parseCMem() ast.Stmt {
	start := p.advance() // consume 'cmem' / 'smem'
	name := p.advance()
	p.advance() // consume ':'
	t := p.parseType()
	if t == nil {
		return nil
	}
	m := &ast.CMem{Name: name.Value, Type: t, Sequential: start.Value == "smem"}
	if m.Sequential && p.peek() == lexer.TokComma {
		p.advance()
		ruw, ok := p.parseReadUnderWrite()
		if !ok {
			return nil
		}
		m.ReadUnderWrite = ruw
	}
	info, ok := p.finish()
	if !ok {
		return nil
	}
	m.Info = info
	m.Span = p.spanFrom(start.Span)
	return m
}

// parseMemPort parses "<dir> mport n = mem[addr], clk".
func (p *parser) parseMemPort() ast.Stmt {
	start := p.advance() // consume direction
	p.advance()          // consume 'mport'

	dir := ast.PortInfer
	switch start.Value {
	case "read":
		dir = ast.PortRead
	case "write":
		dir = ast.PortWrite
	case "rdwr":
		dir = ast.PortReadWrite
	}

	name, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokEquals); !ok {
		return nil
	}
	mem, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLBracket); !ok {
		return nil
	}
	addr := p.parseExpr()
	if addr == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRBracket); !ok {
		return nil
	}
	if p.peek() == lexer.TokComma {
		p.advance()
	}
	clock := p.parseExpr()
	if clock == nil {
		return nil
	}
	info, ok := p.finish()
	if !ok {
		return nil
	}
	return &ast.MemPort{
		Span:  p.spanFrom(start.Span),
		Dir:   dir,
		Name:  name.Value,
		Mem:   mem.Value,
		Addr:  addr,
		Clock: clock,
		Info:  info,
	}
}

func (p *parser) parseInst() ast.Stmt {
	start := p.advance() // consume 'inst'
	name := p.advance()
	p.advance() // consume 'of'
	module, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	info, ok := p.finish()
	if !ok {
		return nil
	}
	return &ast.Inst{Span: p.spanFrom(start.Span), Name: name.Value, Module: module.Value, Info: info}
}

func (p *parser) parseNode() ast.Stmt {
	start := p.advance() // consume 'node'
	name := p.advance()
	p.advance() // consume '='
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	info, ok := p.finish()
	if !ok {
		return nil
	}
	return &ast.DefNode{Span: p.spanFrom(start.Span), Name: name.Value, Value: value, Info: info}
}

// parseWhen parses a conditional and its else clause. An else belongs to
// this when only if it sits at the when's own indentation.
func (p *parser) parseWhen(levels []int) ast.Stmt {
	own := levels[len(levels)-1]
	start := p.advance() // consume 'when'
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokColon); !ok {
		return nil
	}

	w := &ast.When{Cond: cond}
	w.Info = p.parseInfo()
	if w.Then = p.parseBody(levels); w.Then == nil {
		return nil
	}

	if tok := p.current(); tok.Type == lexer.TokNewline && tok.Indent == own &&
		p.isWord(1, "else") && !p.continuesExpr(2) {
		p.advance() // consume newline
		p.advance() // consume 'else'
		if p.isWord(0, "when") && !p.continuesExpr(1) {
			if w.Else = p.parseWhen(levels); w.Else == nil {
				return nil
			}
		} else {
			if _, ok := p.expect(lexer.TokColon); !ok {
				return nil
			}
			w.ElseInfo = p.parseInfo()
			if w.Else = p.parseBody(levels); w.Else == nil {
				return nil
			}
		}
	}

	w.Span = p.spanFrom(start.Span)
	return w
}

// parseBody parses the block after "when c :" or "else :", either a single
// statement on the same line or an indented suite.
func (p *parser) parseBody(levels []int) ast.Stmt {
	if !p.atLineEnd() {
		s := p.parseStatement(levels)
		if s == nil {
			return nil
		}
		return &ast.Block{Span: s.NodeSpan(), Stmts: []ast.Stmt{s}}
	}

	b := &ast.Block{}
	first := p.current().Span
	p.parseSuite(levels, func(inner []int) bool {
		s := p.parseStatement(inner)
		if s == nil {
			return false
		}
		b.Stmts = append(b.Stmts, s)
		return true
	})
	if p.err != nil {
		return nil
	}
	if len(b.Stmts) > 0 {
		b.Span = p.spanFrom(first)
	}
	return b
}

func (p *parser) parseStop() ast.Stmt {
	start := p.advance() // consume 'stop'
	p.advance()          // consume '('
	clock := p.parseExpr()
	if clock == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	enable := p.parseExpr()
	if enable == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	tok, ok := p.expect(lexer.TokInt)
	if !ok {
		return nil
	}
	code, ok := lexer.ParseInt(tok.Value)
	if !ok {
		p.fail(fmt.Sprintf("invalid exit code %s", describe(tok)), tok.Span)
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	name, ok := p.parseStatementName()
	if !ok {
		return nil
	}
	info, ok := p.finish()
	if !ok {
		return nil
	}
	return &ast.Stop{
		Span:     p.spanFrom(start.Span),
		Clock:    clock,
		Enable:   enable,
		ExitCode: code,
		Name:     name,
		Info:     info,
	}
}

func (p *parser) parsePrintf() ast.Stmt {
	start := p.advance() // consume 'printf'
	p.advance()          // consume '('
	clock := p.parseExpr()
	if clock == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	enable := p.parseExpr()
	if enable == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	format, ok := p.expect(lexer.TokString)
	if !ok {
		return nil
	}

	var args []ast.Expr
	for p.peek() == lexer.TokComma {
		p.advance()
		arg := p.parseExpr()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	name, ok := p.parseStatementName()
	if !ok {
		return nil
	}
	info, ok := p.finish()
	if !ok {
		return nil
	}
	return &ast.Printf{
		Span:   p.spanFrom(start.Span),
		Clock:  clock,
		Enable: enable,
		Format: format.Value,
		Args:   args,
		Name:   name,
		Info:   info,
	}
}

// parseStatementName parses the optional ": name" after stop and printf.
func (p *parser) parseStatementName() (string, bool) {
	if p.peek() != lexer.TokColon {
		return "", true
	}
	p.advance()
	tok, ok := p.expect(lexer.TokIdent)
	return tok.Value, ok
}

func (p *parser) parseAttach() ast.Stmt {
	start := p.advance() // consume 'attach'
	p.advance()          // consume '('
	var exprs []ast.Expr
	for {
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		exprs = append(exprs, e)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	info, ok := p.finish()
	if !ok {
		return nil
	}
	return &ast.Attach{Span: p.spanFrom(start.Span), Exprs: exprs, Info: info}
}

func (p *parser) parseSkip() ast.Stmt {
	start := p.advance() // consume 'skip'
	info, ok := p.finish()
	if !ok {
		return nil
	}
	return &ast.Skip{Span: p.spanFrom(start.Span), Info: info}
}

// parseConnectLike parses "a <= b", "a <- b" and "a is invalid".
func (p *parser) parseConnectLike() ast.Stmt {
	start := p.current().Span
	loc := p.parseExpr()
	if loc == nil {
		return nil
	}

	tok := p.current()
	switch {
	case tok.Type == lexer.TokConnect || tok.Type == lexer.TokPartial:
		p.advance()
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		info, ok := p.finish()
		if !ok {
			return nil
		}
		if tok.Type == lexer.TokPartial {
			return &ast.PartialConnect{Span: p.spanFrom(start), Loc: loc, Expr: e, Info: info}
		}
		return &ast.Connect{Span: p.spanFrom(start), Loc: loc, Expr: e, Info: info}
	case p.isWord(0, "is"):
		p.advance() // consume 'is'
		if !p.expectWord("invalid") {
			return nil
		}
		info, ok := p.finish()
		if !ok {
			return nil
		}
		return &ast.Invalidate{Span: p.spanFrom(start), Expr: loc, Info: info}
	}
	p.fail(fmt.Sprintf("expected '<=', '<-' or 'is invalid', found %s", describe(tok)), tok.Span)
	return nil
}
