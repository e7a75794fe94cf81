/*
File    : workerscript/parser/parser.go

Package parser turns WorkerScript source text into an *ast.Program. It is a
two-phase, line-oriented parser (spec.md §4.2): the outer loop walks raw
source lines one at a time, stripping any leading label and handing the
remaining tokens to a statement-sequence parser; IF/FOR/WHILE block forms
recursively pull in further raw lines until their closing marker is seen.

Unlike go-mix's Parser, which collects every error it finds so a REPL can
report them all at once, WorkerScript fails fast (spec.md §1 Non-goals:
"recovery from syntactic errors"): Parse returns on the first lex or parse
error. The Errors/HasErrors/GetErrors surface is kept for API parity with
the teacher's error-reporting shape and always holds at most one message.
*/
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/akashmaji946/workerscript/ast"
	"github.com/akashmaji946/workerscript/lexer"
	"github.com/akashmaji946/workerscript/token"
)

// Parser walks raw source lines and assembles a Program.
type Parser struct {
	rawLines []string
	idx      int // index of the next raw line to tokenize

	labels map[string]int
	lines  []*ast.Line

	Errors []string
}

// New creates a Parser over the given source text. Lines are split on LF;
// a trailing CR is tolerated (spec.md §6 "CRLF tolerated").
func New(src string) *Parser {
	rawLines := strings.Split(src, "\n")
	// A source ending in a newline (the common case) splits to a phantom
	// trailing "" element; drop it so Program.Lines indices correspond
	// exactly to the program's meaningful lines, with no trailing no-op.
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}
	for i, l := range rawLines {
		rawLines[i] = strings.TrimSuffix(l, "\r")
	}
	return &Parser{
		rawLines: rawLines,
		labels:   make(map[string]int),
	}
}

// HasErrors reports whether Parse recorded a failure.
func (p *Parser) HasErrors() bool { return len(p.Errors) > 0 }

// GetErrors returns the parser's recorded error messages (zero or one).
func (p *Parser) GetErrors() []string { return p.Errors }

// Parse lexes and parses the whole source, returning the assembled Program
// or the first lex/parse error encountered, each message prefixed with its
// originating source line number per spec.md §7.
func Parse(src string) (*ast.Program, error) {
	p := New(src)
	prog, err := p.parse()
	if err != nil {
		p.Errors = append(p.Errors, err.Error())
		return nil, err
	}
	return prog, nil
}

func (p *Parser) parse() (*ast.Program, error) {
	for !p.atEnd() {
		lineNo, text, toks, label, err := p.nextLabeledLine()
		if err != nil {
			return nil, err
		}
		stmts, err := p.parseStatementSeq(toks, lineNo, true)
		if err != nil {
			return nil, err
		}
		idx := len(p.lines)
		p.lines = append(p.lines, &ast.Line{Source: lineNo, Statements: stmts, Text: text})
		if label != "" {
			if _, dup := p.labels[label]; dup {
				return nil, fmt.Errorf("parse error at line %d: duplicate label ^%s", lineNo, label)
			}
			p.labels[label] = idx
		}
	}
	return &ast.Program{Lines: p.lines, Labels: p.labels}, nil
}

func (p *Parser) atEnd() bool { return p.idx >= len(p.rawLines) }

// tokenizeNext lexes the next raw source line without registering its
// label (used by block collectors: labels inside a nested body are
// discarded and so are not addressable).
func (p *Parser) tokenizeNext() (lineNo int, text string, toks []token.Token, err error) {
	lineNo = p.idx + 1
	text = p.rawLines[p.idx]
	p.idx++
	toks, err = lexer.TokenizeLine(text, lineNo)
	if err != nil {
		return lineNo, text, nil, fmt.Errorf("lex error at line %d: %w", lineNo, unwrapLex(err))
	}
	toks = stripComment(toks)
	return lineNo, text, toks, nil
}

// nextLabeledLine is tokenizeNext plus label extraction/registration info
// for the top-level program loop.
func (p *Parser) nextLabeledLine() (lineNo int, text string, toks []token.Token, label string, err error) {
	lineNo, text, toks, err = p.tokenizeNext()
	if err != nil {
		return
	}
	toks, label = stripLabel(toks)
	return
}

func unwrapLex(err error) error {
	if le, ok := err.(*lexer.Error); ok {
		return fmt.Errorf("%s", le.Msg)
	}
	return err
}

// stripComment drops a trailing COMMENT token, if present.
func stripComment(toks []token.Token) []token.Token {
	if len(toks) > 0 && toks[len(toks)-1].Kind == token.COMMENT {
		return toks[:len(toks)-1]
	}
	return toks
}

// stripLabel removes a leading LABEL_DEF token and returns its name.
func stripLabel(toks []token.Token) ([]token.Token, string) {
	if len(toks) > 0 && toks[0].Kind == token.LABEL_DEF {
		return toks[1:], toks[0].Text
	}
	return toks, ""
}

func isBareSemi(toks []token.Token) bool {
	return len(toks) == 1 && toks[0].Kind == token.SEMI
}

func isBlockCloseIf(toks []token.Token) bool {
	return len(toks) == 3 && toks[0].Kind == token.HASH && toks[1].Kind == token.ASSIGN && toks[2].Kind == token.SEMI
}

func isBlockCloseLoop(toks []token.Token) bool {
	return len(toks) == 3 && toks[0].Kind == token.HASH && toks[1].Kind == token.ASSIGN && toks[2].Kind == token.AT
}

// collectIfBody pulls in raw source lines to fill a block IF's Then/Else
// bodies, stopping at a bare `;` (switches to Else) or `#=;` (closes).
func (p *Parser) collectIfBody(openLine int) (then, els []ast.Statement, err error) {
	inElse := false
	for {
		if p.atEnd() {
			return nil, nil, fmt.Errorf("parse error at line %d: block IF not closed by #=;", openLine)
		}
		lineNo, _, toks, terr := p.tokenizeNext()
		if terr != nil {
			return nil, nil, terr
		}
		toks, _ = stripLabel(toks)
		if isBareSemi(toks) {
			if inElse {
				return nil, nil, fmt.Errorf("parse error at line %d: duplicate ';' else marker", lineNo)
			}
			inElse = true
			continue
		}
		if isBlockCloseIf(toks) {
			return then, els, nil
		}
		stmts, serr := p.parseStatementSeq(toks, lineNo, true)
		if serr != nil {
			return nil, nil, serr
		}
		if inElse {
			els = append(els, stmts...)
		} else {
			then = append(then, stmts...)
		}
	}
}

// collectLoopBody pulls in raw source lines to fill a FOR/WHILE block's
// body, stopping at `#=@`.
func (p *Parser) collectLoopBody(openLine int) (body []ast.Statement, err error) {
	for {
		if p.atEnd() {
			return nil, fmt.Errorf("parse error at line %d: block FOR/WHILE not closed by #=@", openLine)
		}
		lineNo, _, toks, terr := p.tokenizeNext()
		if terr != nil {
			return nil, terr
		}
		toks, _ = stripLabel(toks)
		if isBlockCloseLoop(toks) {
			return body, nil
		}
		stmts, serr := p.parseStatementSeq(toks, lineNo, true)
		if serr != nil {
			return nil, serr
		}
		body = append(body, stmts...)
	}
}

// parseNumberToken decodes a NUMBER token (decimal or 0x-prefixed hex) into
// a wrapped signed int16 (spec.md §3 numeric semantics).
func parseNumberToken(tok token.Token) (int16, error) {
	var v int64
	var err error
	if len(tok.Text) > 1 && tok.Text[0] == '0' && (tok.Text[1] == 'x' || tok.Text[1] == 'X') {
		v, err = strconv.ParseInt(tok.Text[2:], 16, 64)
	} else {
		v, err = strconv.ParseInt(tok.Text, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("parse error at line %d: malformed number %q", tok.Line, tok.Text)
	}
	return int16(uint16(v)), nil
}
