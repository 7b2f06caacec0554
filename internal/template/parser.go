package template

import "fmt"

type parser struct {
	tokens []token
	pos    int
}

// parseExpr parses a single expression body (the contents of a {{ ... }}
// block, without the delimiters).
func parseExpr(src string) (expr, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	e, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("unexpected trailing token after expression")
	}
	return e, nil
}

func (p *parser) cur() token  { return p.tokens[p.pos] }
func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if p.cur().kind != k {
		return token{}, fmt.Errorf("expected %s", what)
	}
	return p.advance(), nil
}

// ternary := compareExpr ("if" compareExpr "else" ternary)?
func (p *parser) parseTernary() (expr, error) {
	then, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokIf {
		p.advance()
		cond, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokElse, "'else' in inline conditional"); err != nil {
			return nil, err
		}
		els, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return ternaryExpr{then: then, cond: cond, els: els}, nil
	}
	return then, nil
}

// compareExpr := concatExpr (compareOp concatExpr)?
func (p *parser) parseCompare() (expr, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	var op compareOp
	switch p.cur().kind {
	case tokEq:
		op = opEq
	case tokNeq:
		op = opNeq
	case tokLt:
		op = opLt
	case tokLte:
		op = opLte
	case tokGt:
		op = opGt
	case tokGte:
		op = opGte
	default:
		return left, nil
	}
	p.advance()
	right, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return compareExpr{left: left, right: right, op: op}, nil
}

// concatExpr := filterExpr ("+" filterExpr)*
func (p *parser) parseConcat() (expr, error) {
	first, err := p.parseFilterChain()
	if err != nil {
		return nil, err
	}
	parts := []expr{first}
	for p.cur().kind == tokPlus {
		p.advance()
		next, err := p.parseFilterChain()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return concatExpr{parts: parts}, nil
}

// filterExpr := primary ("|" filterCall)*
func (p *parser) parseFilterChain() (expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokPipe {
		p.advance()
		name, err := p.expect(tokIdent, "filter name")
		if err != nil {
			return nil, err
		}
		var args []expr
		if p.cur().kind == tokLParen {
			p.advance()
			if p.cur().kind != tokRParen {
				for {
					a, err := p.parseTernary()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.cur().kind == tokComma {
						p.advance()
						continue
					}
					break
				}
			}
			if _, err := p.expect(tokRParen, "')' after filter arguments"); err != nil {
				return nil, err
			}
		}
		base = filterExpr{base: base, name: name.text, args: args}
	}
	return base, nil
}

// primary := literal | memberChain | "(" expr ")"
func (p *parser) parsePrimary() (expr, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		return literalExpr{v: Int(t.i)}, nil
	case tokFloat:
		p.advance()
		return literalExpr{v: Float(t.f)}, nil
	case tokString:
		p.advance()
		return literalExpr{v: String(t.text)}, nil
	case tokTrue:
		p.advance()
		return literalExpr{v: Bool(true)}, nil
	case tokFalse:
		p.advance()
		return literalExpr{v: Bool(false)}, nil
	case tokNull:
		p.advance()
		return literalExpr{v: Null()}, nil
	case tokLParen:
		p.advance()
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')' to close grouped expression"); err != nil {
			return nil, err
		}
		return e, nil
	case tokIdent:
		p.advance()
		var e expr = identExpr{name: t.text}
		for {
			switch p.cur().kind {
			case tokDot:
				p.advance()
				field, err := p.expect(tokIdent, "field name after '.'")
				if err != nil {
					return nil, err
				}
				e = memberExpr{base: e, name: field.text}
			case tokLBracket:
				p.advance()
				idx, err := p.parseTernary()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(tokRBracket, "']' to close index expression"); err != nil {
					return nil, err
				}
				e = indexExpr{base: e, index: idx}
			default:
				return e, nil
			}
		}
	default:
		return nil, fmt.Errorf("unexpected token in expression")
	}
}
