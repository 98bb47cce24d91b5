package parser

import (
	"fmt"
	"strconv"

	"filescript/internal/errs"
)

// exprParser consumes the token stream of one expression. Precedence, lowest
// to highest: or, and, not, comparison/membership, additive, multiplicative,
// unary minus, postfix (attribute access and calls).
type exprParser struct {
	tokens     []token
	line       int
	sourceLine string
	baseColumn int
	index      int
}

func (p *exprParser) parse() Expr {
	expr := p.parseOr()
	if p.current().kind != tokEOF {
		tok := p.current()
		label := tok.value
		if label == "" {
			label = "end of expression"
		}
		p.fail(fmt.Sprintf("Unexpected token '%s'", label), tok)
	}
	return expr
}

func (p *exprParser) current() token { return p.tokens[p.index] }

func (p *exprParser) peek() token {
	if p.index+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.index+1]
}

func (p *exprParser) advance() token {
	tok := p.tokens[p.index]
	p.index++
	return tok
}

func (p *exprParser) match(kinds ...tokenKind) (token, bool) {
	tok := p.current()
	for _, kind := range kinds {
		if tok.kind == kind {
			p.index++
			return tok, true
		}
	}
	return token{}, false
}

func (p *exprParser) expect(kind tokenKind, message string) token {
	tok := p.current()
	if tok.kind != kind {
		p.fail(message, tok)
	}
	p.index++
	return tok
}

func (p *exprParser) fail(message string, tok token) {
	panic(errs.NewSyntaxError(message, p.line, p.baseColumn+tok.column, p.sourceLine))
}

func (p *exprParser) loc(tok token) errs.Location {
	return errs.Location{Line: p.line, Column: p.baseColumn + tok.column}
}

func (p *exprParser) parseOr() Expr {
	expr := p.parseAnd()
	for {
		tok, ok := p.match(tokOr)
		if !ok {
			return expr
		}
		expr = &Binary{Op: "or", Left: expr, Right: p.parseAnd(), Location: p.loc(tok)}
	}
}

func (p *exprParser) parseAnd() Expr {
	expr := p.parseNot()
	for {
		tok, ok := p.match(tokAnd)
		if !ok {
			return expr
		}
		expr = &Binary{Op: "and", Left: expr, Right: p.parseNot(), Location: p.loc(tok)}
	}
}

func (p *exprParser) parseNot() Expr {
	if tok, ok := p.match(tokNot); ok {
		return &Unary{Op: "not", Operand: p.parseNot(), Location: p.loc(tok)}
	}
	return p.parseCompare()
}

var compareOps = map[tokenKind]string{
	tokEq:  "==",
	tokNeq: "!=",
	tokLt:  "<",
	tokLte: "<=",
	tokGt:  ">",
	tokGte: ">=",
	tokIn:  "in",
}

func (p *exprParser) parseCompare() Expr {
	expr := p.parseAdd()
	for {
		tok, ok := p.match(tokEq, tokNeq, tokLt, tokLte, tokGt, tokGte, tokIn)
		if !ok {
			return expr
		}
		expr = &Compare{Op: compareOps[tok.kind], Left: expr, Right: p.parseAdd(), Location: p.loc(tok)}
	}
}

func (p *exprParser) parseAdd() Expr {
	expr := p.parseMul()
	for {
		tok, ok := p.match(tokPlus, tokMinus)
		if !ok {
			return expr
		}
		op := "+"
		if tok.kind == tokMinus {
			op = "-"
		}
		expr = &Binary{Op: op, Left: expr, Right: p.parseMul(), Location: p.loc(tok)}
	}
}

var mulOps = map[tokenKind]string{tokStar: "*", tokSlash: "/", tokPercent: "%"}

func (p *exprParser) parseMul() Expr {
	expr := p.parseUnary()
	for {
		tok, ok := p.match(tokStar, tokSlash, tokPercent)
		if !ok {
			return expr
		}
		expr = &Binary{Op: mulOps[tok.kind], Left: expr, Right: p.parseUnary(), Location: p.loc(tok)}
	}
}

func (p *exprParser) parseUnary() Expr {
	if tok, ok := p.match(tokMinus); ok {
		return &Unary{Op: "-", Operand: p.parseUnary(), Location: p.loc(tok)}
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() Expr {
	expr := p.parsePrimary()
	for {
		if tok, ok := p.match(tokDot); ok {
			name := p.expect(tokName, "Expected attribute name after '.'")
			expr = &Attr{Object: expr, Name: name.value, Location: p.loc(tok)}
			continue
		}
		if p.current().kind == tokLParen {
			expr = p.parseCall(expr)
			continue
		}
		return expr
	}
}

func (p *exprParser) parseCall(callee Expr) Expr {
	lparen := p.expect(tokLParen, "Expected '('")
	var args []Expr
	var kwargs []Kwarg
	seenKeyword := false
	if p.current().kind != tokRParen {
		for {
			if p.current().kind == tokName && p.peek().kind == tokAssign {
				seenKeyword = true
				key := p.advance().value
				p.advance() // '='
				value := p.parseOr()
				for _, existing := range kwargs {
					if existing.Name == key {
						p.fail(fmt.Sprintf("Duplicate keyword argument '%s'", key), p.current())
					}
				}
				kwargs = append(kwargs, Kwarg{Name: key, Value: value})
			} else {
				if seenKeyword {
					p.fail("Positional arguments cannot follow keyword arguments", p.current())
				}
				args = append(args, p.parseOr())
			}
			if _, ok := p.match(tokComma); ok {
				if p.current().kind == tokRParen {
					break
				}
				continue
			}
			break
		}
	}
	p.expect(tokRParen, "Expected ')' to close function call")
	return &Call{Callee: callee, Args: args, Kwargs: kwargs, Location: p.loc(lparen)}
}

func (p *exprParser) parsePrimary() Expr {
	tok := p.current()
	switch tok.kind {
	case tokNumber:
		p.advance()
		value, err := strconv.Atoi(tok.value)
		if err != nil {
			p.fail("Integer literal is too large", tok)
		}
		return &IntLit{Value: value, Location: p.loc(tok)}
	case tokString:
		p.advance()
		return &StringLit{Value: tok.value, Location: p.loc(tok)}
	case tokTrue:
		p.advance()
		return &BoolLit{Value: true, Location: p.loc(tok)}
	case tokFalse:
		p.advance()
		return &BoolLit{Value: false, Location: p.loc(tok)}
	case tokName:
		p.advance()
		return &Name{Ident: tok.value, Location: p.loc(tok)}
	case tokLParen:
		p.advance()
		expr := p.parseOr()
		p.expect(tokRParen, "Expected ')' after expression")
		return expr
	case tokLBrack:
		return p.parseList()
	}
	p.fail("Expected expression", tok)
	return nil
}

func (p *exprParser) parseList() Expr {
	lbrack := p.expect(tokLBrack, "Expected '['")
	var items []Expr
	if p.current().kind != tokRBrack {
		for {
			item := p.parseOr()
			if colon, ok := p.match(tokColon); ok {
				end := p.parseOr()
				items = append(items, &RangeItem{Start: item, End: end, Location: p.loc(colon)})
			} else {
				items = append(items, item)
			}
			if _, ok := p.match(tokComma); ok {
				if p.current().kind == tokRBrack {
					break
				}
				continue
			}
			break
		}
	}
	p.expect(tokRBrack, "Expected ']' to close list")
	return &ListLit{Items: items, Location: p.loc(lbrack)}
}
