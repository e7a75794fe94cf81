package parser

import (
	"fmt"

	"github.com/akashmaji946/workerscript/ast"
	"github.com/akashmaji946/workerscript/token"
)

// parseStatementSeq parses every top-level statement packed into toks
// (one raw source line's tokens, or a same-line remainder fragment).
//
// allowBlockOpen distinguishes the two contexts spec.md §4.2 calls out:
//   - true:  toks came from a fresh raw source line (top level, or a line
//     collected by collectIfBody/collectLoopBody). A bare IF/FOR/WHILE
//     found here with nothing left on the line opens a multi-line block
//     by pulling in further raw lines.
//   - false: toks is the trailing remainder of an inline IF, already
//     carved out of a single line. A bare IF found here just gets an
//     empty Then/Else rather than trying to consume subsequent lines (a
//     bare inline IF does not open a block); FOR/WHILE are never valid
//     here since their body requires lines that don't exist in a
//     same-line fragment.
func (p *Parser) parseStatementSeq(toks []token.Token, lineNo int, allowBlockOpen bool) ([]ast.Statement, error) {
	var out []ast.Statement
	pos := 0
	for pos < len(toks) {
		stmt, next, err := p.parseOneStatement(toks, pos, lineNo, allowBlockOpen)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
		pos = next
	}
	return out, nil
}

func (p *Parser) parseOneStatement(toks []token.Token, pos, lineNo int, allowBlockOpen bool) (ast.Statement, int, error) {
	tok := toks[pos]

	switch tok.Kind {
	case token.IDENTIFIER:
		if !at(toks, pos+1, token.ASSIGN) {
			return nil, 0, fmt.Errorf("parse error at line %d: expected '=' after identifier %s", lineNo, tok.Text)
		}
		expr, next, err := p.parseExpr(toks, pos+2, 2)
		if err != nil {
			return nil, 0, err
		}
		return &ast.AssignmentStatement{ast.Stmt(lineNo), tok.Text[0], expr}, next, nil

	case token.QUESTION:
		if !at(toks, pos+1, token.ASSIGN) {
			return nil, 0, fmt.Errorf("parse error at line %d: expected '=' after '?'", lineNo)
		}
		expr, next, err := p.parseExpr(toks, pos+2, 2)
		if err != nil {
			return nil, 0, err
		}
		return &ast.OutputStatement{ast.Stmt(lineNo), expr}, next, nil

	case token.SLASH:
		return &ast.NewlineStatement{ast.Stmt(lineNo)}, pos + 1, nil

	case token.SEMI:
		if !at(toks, pos+1, token.ASSIGN) {
			return nil, 0, fmt.Errorf("parse error at line %d: unexpected ';' not followed by '='", lineNo)
		}
		return p.parseIf(toks, pos, lineNo, allowBlockOpen)

	case token.AT:
		if !at(toks, pos+1, token.ASSIGN) {
			return nil, 0, fmt.Errorf("parse error at line %d: unexpected '@' not followed by '='", lineNo)
		}
		return p.parseForOrWhile(toks, pos, lineNo, allowBlockOpen)

	case token.HASH:
		return p.parseHash(toks, pos, lineNo)

	case token.BANG:
		if !at(toks, pos+1, token.ASSIGN) {
			return nil, 0, fmt.Errorf("parse error at line %d: unexpected '!' not followed by '='", lineNo)
		}
		if !at(toks, pos+2, token.LABEL_DEF) {
			return nil, 0, fmt.Errorf("parse error at line %d: GOSUB target must be a ^LABEL", lineNo)
		}
		return &ast.GosubStatement{ast.Stmt(lineNo), toks[pos+2].Text}, pos + 3, nil

	case token.BACKTICK:
		if !at(toks, pos+1, token.ASSIGN) {
			return nil, 0, fmt.Errorf("parse error at line %d: expected '=' after '`'", lineNo)
		}
		expr, next, err := p.parseExpr(toks, pos+2, 2)
		if err != nil {
			return nil, 0, err
		}
		return &ast.PokeStatement{ast.Stmt(lineNo), expr}, next, nil

	case token.DOLLAR:
		if !at(toks, pos+1, token.ASSIGN) {
			return nil, 0, fmt.Errorf("parse error at line %d: expected '=' after '$'", lineNo)
		}
		expr, next, err := p.parseExpr(toks, pos+2, 2)
		if err != nil {
			return nil, 0, err
		}
		return &ast.IoPutStatement{ast.Stmt(lineNo), expr}, next, nil

	case token.LBRACKET:
		return p.parseArrayStatement(toks, pos, lineNo)
	}

	return nil, 0, fmt.Errorf("parse error at line %d: unknown statement form starting with %q", lineNo, tok.Text)
}

func at(toks []token.Token, pos int, kind token.Type) bool {
	return pos < len(toks) && toks[pos].Kind == kind
}

func (p *Parser) parseIf(toks []token.Token, pos, lineNo int, allowBlockOpen bool) (ast.Statement, int, error) {
	cond, next, err := p.parseExpr(toks, pos+2, 2)
	if err != nil {
		return nil, 0, err
	}
	remainder := toks[next:]
	if len(remainder) == 0 {
		if !allowBlockOpen {
			return &ast.IfBlockStatement{ast.Stmt(lineNo), cond, nil, nil}, len(toks), nil
		}
		then, els, berr := p.collectIfBody(lineNo)
		if berr != nil {
			return nil, 0, berr
		}
		return &ast.IfBlockStatement{ast.Stmt(lineNo), cond, then, els}, len(toks), nil
	}
	then, ierr := p.parseStatementSeq(remainder, lineNo, false)
	if ierr != nil {
		return nil, 0, ierr
	}
	return &ast.IfBlockStatement{ast.Stmt(lineNo), cond, then, nil}, len(toks), nil
}

func (p *Parser) parseForOrWhile(toks []token.Token, pos, lineNo int, allowBlockOpen bool) (ast.Statement, int, error) {
	headerStart := pos + 2
	if at(toks, headerStart, token.LPAREN) {
		cond, next, err := p.parseExpr(toks, headerStart+1, 2)
		if err != nil {
			return nil, 0, err
		}
		if !at(toks, next, token.RPAREN) {
			return nil, 0, fmt.Errorf("parse error at line %d: WHILE condition missing closing ')'", lineNo)
		}
		next++
		if next != len(toks) {
			return nil, 0, fmt.Errorf("parse error at line %d: WHILE must be the sole statement on its line", lineNo)
		}
		if !allowBlockOpen {
			return nil, 0, fmt.Errorf("parse error at line %d: WHILE is not permitted inline", lineNo)
		}
		body, err := p.collectLoopBody(lineNo)
		if err != nil {
			return nil, 0, err
		}
		return &ast.WhileBlockStatement{ast.Stmt(lineNo), cond, body}, len(toks), nil
	}

	if !at(toks, headerStart, token.IDENTIFIER) {
		return nil, 0, fmt.Errorf("parse error at line %d: FOR loop variable must be a single identifier", lineNo)
	}
	v := toks[headerStart].Text[0]
	if !at(toks, headerStart+1, token.COMMA) {
		return nil, 0, fmt.Errorf("parse error at line %d: expected ',' after FOR loop variable", lineNo)
	}
	start, next, err := p.parseExpr(toks, headerStart+2, 2)
	if err != nil {
		return nil, 0, err
	}
	if !at(toks, next, token.COMMA) {
		return nil, 0, fmt.Errorf("parse error at line %d: FOR requires start,end[,step]", lineNo)
	}
	end, next2, err := p.parseExpr(toks, next+1, 2)
	if err != nil {
		return nil, 0, err
	}
	var step ast.Expression
	if at(toks, next2, token.COMMA) {
		step, next2, err = p.parseExpr(toks, next2+1, 2)
		if err != nil {
			return nil, 0, err
		}
	}
	if next2 != len(toks) {
		return nil, 0, fmt.Errorf("parse error at line %d: FOR must be the sole statement on its line", lineNo)
	}
	if !allowBlockOpen {
		return nil, 0, fmt.Errorf("parse error at line %d: FOR is not permitted inline", lineNo)
	}
	body, err := p.collectLoopBody(lineNo)
	if err != nil {
		return nil, 0, err
	}
	return &ast.ForBlockStatement{ast.Stmt(lineNo), v, start, end, step, body}, len(toks), nil
}

// parseHash handles every `#=...` form: GOTO, RETURN, HALT, and
// frame-wait. The two block terminators (`#=;`, `#=@`) are recognized
// directly by the block collectors and never reach this function in a
// well-formed program; if they do, that's a dangling terminator.
func (p *Parser) parseHash(toks []token.Token, pos, lineNo int) (ast.Statement, int, error) {
	if !at(toks, pos+1, token.ASSIGN) {
		return nil, 0, fmt.Errorf("parse error at line %d: unexpected '#' not followed by '='", lineNo)
	}
	if pos+2 >= len(toks) {
		return nil, 0, fmt.Errorf("parse error at line %d: incomplete '#=' statement", lineNo)
	}
	next := toks[pos+2]
	switch next.Kind {
	case token.LABEL_DEF:
		return &ast.GotoStatement{ast.Stmt(lineNo), next.Text}, pos + 3, nil
	case token.BANG:
		return &ast.ReturnStatement{ast.Stmt(lineNo)}, pos + 3, nil
	case token.BACKTICK:
		return &ast.WaitForNextFrameStatement{ast.Stmt(lineNo)}, pos + 3, nil
	case token.MINUS:
		if !at(toks, pos+3, token.NUMBER) || toks[pos+3].Text != "1" {
			return nil, 0, fmt.Errorf("parse error at line %d: '#=-' must be followed by the literal 1 (HALT)", lineNo)
		}
		return &ast.HaltStatement{ast.Stmt(lineNo)}, pos + 4, nil
	case token.SEMI:
		return nil, 0, fmt.Errorf("parse error at line %d: '#=;' with no open block IF", lineNo)
	case token.AT:
		return nil, 0, fmt.Errorf("parse error at line %d: '#=@' with no open block FOR/WHILE", lineNo)
	}
	return nil, 0, fmt.Errorf("parse error at line %d: unrecognized '#=' form", lineNo)
}

func (p *Parser) parseArrayStatement(toks []token.Token, pos, lineNo int) (ast.Statement, int, error) {
	idx, next, isMinusOne, err := p.parseBracketIndex(toks, pos, lineNo)
	if err != nil {
		return nil, 0, err
	}
	if !at(toks, next, token.ASSIGN) {
		return nil, 0, fmt.Errorf("parse error at line %d: expected '=' after array index", lineNo)
	}
	first, next2, err := p.parseExpr(toks, next+1, 2)
	if err != nil {
		return nil, 0, err
	}
	if !at(toks, next2, token.COMMA) {
		return &ast.ArrayAssignmentStatement{ast.Stmt(lineNo), idx, first, isMinusOne}, next2, nil
	}
	if isMinusOne {
		return nil, 0, fmt.Errorf("parse error at line %d: [-1] is not allowed in an array initialization", lineNo)
	}
	exprs := []ast.Expression{first}
	for at(toks, next2, token.COMMA) {
		e, n, eerr := p.parseExpr(toks, next2+1, 2)
		if eerr != nil {
			return nil, 0, eerr
		}
		exprs = append(exprs, e)
		next2 = n
	}
	return &ast.ArrayInitializationStatement{ast.Stmt(lineNo), idx, exprs}, next2, nil
}

// parseBracketIndex parses `[expr]`, flagging the special `[-1]` stack form.
func (p *Parser) parseBracketIndex(toks []token.Token, pos, lineNo int) (ast.Expression, int, bool, error) {
	if at(toks, pos+1, token.MINUS) && at(toks, pos+2, token.NUMBER) && toks[pos+2].Text == "1" && at(toks, pos+3, token.RBRACKET) {
		idx := &ast.UnaryExpression{ast.Expr(lineNo), token.MINUS, &ast.NumericLiteral{ast.Expr(lineNo), 1}}
		return idx, pos + 4, true, nil
	}
	idx, next, err := p.parseExpr(toks, pos+1, 2)
	if err != nil {
		return nil, 0, false, err
	}
	if !at(toks, next, token.RBRACKET) {
		return nil, 0, false, fmt.Errorf("parse error at line %d: missing closing ']'", lineNo)
	}
	return idx, next + 1, false, nil
}
