package config

import "fmt"

// Parse tokenizes and parses src into a Program. Empty configurations are
// legal.
func Parse(src string) (*Program, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return prog, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.tok.kind != kind {
		return token{}, &ParseError{Line: p.tok.line, Col: p.tok.col, Message: fmt.Sprintf("expected %s", what)}
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return t, nil
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	seen := make(map[string]bool)
	for p.tok.kind != tokEOF {
		def, err := p.parseDefinition()
		if err != nil {
			return nil, err
		}
		if seen[def.Name] {
			return nil, &ParseError{Line: def.Line, Col: def.Col, Message: fmt.Sprintf("duplicate process name %q", def.Name)}
		}
		seen[def.Name] = true
		prog.Definitions = append(prog.Definitions, def)
	}
	return prog, nil
}

func (p *parser) parseDefinition() (*ProcessDefinition, error) {
	isTemplate := false
	line, col := p.tok.line, p.tok.col
	switch p.tok.kind {
	case tokKeywordProcess:
		if err := p.advance(); err != nil {
			return nil, err
		}
	case tokKeywordTemplate:
		isTemplate = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	default:
		return nil, &ParseError{Line: p.tok.line, Col: p.tok.col, Message: "expected 'process' or 'template'"}
	}

	nameTok, err := p.expect(tokIdent, "process/template name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}

	def := &ProcessDefinition{Name: nameTok.text, IsTemplate: isTemplate, Line: line, Col: col}
	for p.tok.kind != tokRBrace {
		if p.tok.kind == tokEOF {
			return nil, &ParseError{Line: p.tok.line, Col: p.tok.col, Message: "unexpected end of input, expected '}'"}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		def.Statements = append(def.Statements, stmt)
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return def, nil
}

func (p *parser) parseDotted() ([]string, error) {
	first, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return nil, err
	}
	parts := []string{first.text}
	for p.tok.kind == tokDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		seg, err := p.expect(tokIdent, "identifier after '.'")
		if err != nil {
			return nil, err
		}
		parts = append(parts, seg.text)
	}
	return parts, nil
}

func (p *parser) parseStatement() (*Statement, error) {
	line, col := p.tok.line, p.tok.col

	first, err := p.parseDotted()
	if err != nil {
		return nil, err
	}

	stmt := &Statement{Line: line, Col: col}

	if p.tok.kind == tokArrow {
		if err := p.advance(); err != nil {
			return nil, err
		}
		stmt.ObjectPrefix = first
		method, err := p.parseDotted()
		if err != nil {
			return nil, err
		}
		stmt.Method = method
	} else {
		stmt.Method = first
	}

	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	if p.tok.kind != tokRParen {
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			stmt.Args = append(stmt.Args, expr)
			if p.tok.kind != tokComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	if p.tok.kind == tokIdent {
		stmt.Label = p.tok.text
		stmt.HasLabel = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *parser) parseExpr() (Expr, error) {
	switch p.tok.kind {
	case tokString:
		v := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return StringExpr{Value: v}, nil
	case tokIdent:
		path, err := p.parseDotted()
		if err != nil {
			return nil, err
		}
		return VarExpr{Path: path}, nil
	case tokLBrace:
		if err := p.advance(); err != nil {
			return nil, err
		}
		var elems []Expr
		if p.tok.kind != tokRBrace {
			for {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				if p.tok.kind != tokComma {
					break
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if _, err := p.expect(tokRBrace, "'}'"); err != nil {
			return nil, err
		}
		return ListExpr{Elems: elems}, nil
	default:
		return nil, &ParseError{Line: p.tok.line, Col: p.tok.col, Message: "expected string, variable reference, or '{'"}
	}
}
