package parser

import (
	"fmt"

	"github.com/akashmaji946/workerscript/ast"
	"github.com/akashmaji946/workerscript/token"
)

// precedence implements spec.md §4.2's binary operator table. Level 1
// (comma) is not a generic binary operator here — it is handled
// specially by the FOR header and array-initialization parsers — so the
// lowest level parseExpr ever climbs to is 2.
func precedence(k token.Type) int {
	switch k {
	case token.PIPE:
		return 2
	case token.AMP:
		return 3
	case token.GT, token.LT, token.GE, token.LE, token.ASSIGN, token.NE:
		return 4
	case token.PLUS, token.MINUS:
		return 5
	case token.STAR, token.SLASH, token.PERCENT:
		return 6
	}
	return 0
}

// parseExpr is precedence-climbing: parse one unary, then fold in
// binary operators whose precedence is at least minPrec. Every binary
// operator here is left-associative, so the recursive call for the
// right-hand side climbs with prec+1.
//
// A trailing `/` is ambiguous on its own: it's either the division
// operator or the bare NewlineStatement that follows an expression on the
// same line (e.g. `?=A /`). An operator token is only folded in when a
// valid right-hand operand actually follows it; otherwise it's left
// unconsumed for the caller to parse as the next statement.
func (p *Parser) parseExpr(toks []token.Token, pos int, minPrec int) (ast.Expression, int, error) {
	left, next, err := p.parseUnary(toks, pos)
	if err != nil {
		return nil, 0, err
	}
	for next < len(toks) {
		opTok := toks[next]
		prec := precedence(opTok.Kind)
		if prec == 0 || prec < minPrec {
			break
		}
		if next+1 >= len(toks) || !canStartExpr(toks[next+1]) {
			break
		}
		right, n2, rerr := p.parseExpr(toks, next+1, prec+1)
		if rerr != nil {
			return nil, 0, rerr
		}
		left = &ast.BinaryExpression{ast.Expr(opTok.Line), opTok.Kind, left, right}
		next = n2
	}
	return left, next, nil
}

// canStartExpr reports whether tok could begin a unary/primary expression,
// used to decide whether a following binary operator actually has a
// right-hand side on this line.
func canStartExpr(tok token.Token) bool {
	switch tok.Kind {
	case token.NUMBER, token.STRING, token.CHAR_LIT, token.IDENTIFIER,
		token.LPAREN, token.LBRACKET, token.BACKTICK, token.TILDE,
		token.DOLLAR, token.QUESTION, token.LT,
		token.MINUS, token.PLUS, token.BANG:
		return true
	}
	return false
}

// parseUnary handles the prefix operators (level 7): `-`, `+`, `!`.
func (p *Parser) parseUnary(toks []token.Token, pos int) (ast.Expression, int, error) {
	if pos >= len(toks) {
		return nil, 0, fmt.Errorf("parse error at line %d: expected an expression but found end of line", toks[len(toks)-1].Line)
	}
	tok := toks[pos]
	switch tok.Kind {
	case token.MINUS, token.PLUS, token.BANG:
		operand, next, err := p.parseUnary(toks, pos+1)
		if err != nil {
			return nil, 0, err
		}
		return &ast.UnaryExpression{ast.Expr(tok.Line), tok.Kind, operand}, next, nil
	}
	return p.parsePrimary(toks, pos)
}

// parsePrimary handles level 8: literals, identifiers, parenthesized
// expressions, and every reserved single-character form that produces a
// value (PEEK, RANDOM, IO-GET, INPUT-NUMBER, array access, CAS).
func (p *Parser) parsePrimary(toks []token.Token, pos int) (ast.Expression, int, error) {
	if pos >= len(toks) {
		return nil, 0, fmt.Errorf("parse error at line %d: expected an expression but found end of line", toks[len(toks)-1].Line)
	}
	tok := toks[pos]

	switch tok.Kind {
	case token.NUMBER:
		v, err := parseNumberToken(tok)
		if err != nil {
			return nil, 0, err
		}
		return &ast.NumericLiteral{ast.Expr(tok.Line), v}, pos + 1, nil

	case token.STRING:
		return &ast.StringLiteral{ast.Expr(tok.Line), tok.Text}, pos + 1, nil

	case token.CHAR_LIT:
		return &ast.CharLiteral{ast.Expr(tok.Line), int16(tok.Text[0])}, pos + 1, nil

	case token.IDENTIFIER:
		return &ast.Identifier{ast.Expr(tok.Line), tok.Text[0]}, pos + 1, nil

	case token.LPAREN:
		inner, next, err := p.parseExpr(toks, pos+1, 2)
		if err != nil {
			return nil, 0, err
		}
		if !at(toks, next, token.RPAREN) {
			return nil, 0, fmt.Errorf("parse error at line %d: missing closing ')'", tok.Line)
		}
		return inner, next + 1, nil

	case token.LBRACKET:
		idx, next, isMinusOne, err := p.parseBracketIndex(toks, pos, tok.Line)
		if err != nil {
			return nil, 0, err
		}
		return &ast.ArrayAccessExpression{ast.Expr(tok.Line), idx, isMinusOne}, next, nil

	case token.BACKTICK:
		return &ast.PeekExpression{ast.Expr(tok.Line)}, pos + 1, nil

	case token.TILDE:
		return &ast.RandomExpression{ast.Expr(tok.Line)}, pos + 1, nil

	case token.DOLLAR:
		return &ast.IoGetExpression{ast.Expr(tok.Line)}, pos + 1, nil

	case token.QUESTION:
		return &ast.InputNumberExpression{ast.Expr(tok.Line)}, pos + 1, nil

	case token.LT:
		if !at(toks, pos+1, token.AMP) {
			return nil, 0, fmt.Errorf("parse error at line %d: '<' is not valid here (expected a value, or '<&' to open a compare-and-swap)", tok.Line)
		}
		expected, next, err := p.parseExpr(toks, pos+2, 2)
		if err != nil {
			return nil, 0, err
		}
		if !at(toks, next, token.COMMA) {
			return nil, 0, fmt.Errorf("parse error at line %d: compare-and-swap requires '<&expected,new>'", tok.Line)
		}
		newVal, next2, err := p.parseExpr(toks, next+1, 2)
		if err != nil {
			return nil, 0, err
		}
		if !at(toks, next2, token.GT) {
			return nil, 0, fmt.Errorf("parse error at line %d: compare-and-swap missing closing '>'", tok.Line)
		}
		return &ast.CompareAndSwapExpression{ast.Expr(tok.Line), expected, newVal}, next2 + 1, nil
	}

	return nil, 0, fmt.Errorf("parse error at line %d: unexpected token %q in expression", tok.Line, tok.Text)
}
