package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akashmaji946/workerscript/token"
)

func TestTokenizeLine_Operators(t *testing.T) {
	toks, err := TokenizeLine("A=3 ;=A>5 ?=A", 1)
	assert.NoError(t, err)
	assert.Equal(t, token.IDENTIFIER, toks[0].Kind)
	assert.Equal(t, token.ASSIGN, toks[1].Kind)
	assert.Equal(t, token.NUMBER, toks[2].Kind)
	assert.Equal(t, token.SEMI, toks[3].Kind)
	assert.Equal(t, token.ASSIGN, toks[4].Kind)
	assert.Equal(t, token.IDENTIFIER, toks[5].Kind)
	assert.Equal(t, token.GT, toks[6].Kind)
	assert.Equal(t, token.NUMBER, toks[7].Kind)
}

func TestTokenizeLine_TwoCharOperatorsGreedy(t *testing.T) {
	toks, err := TokenizeLine("A>=B A<=B A<>B", 1)
	assert.NoError(t, err)
	assert.Equal(t, token.GE, toks[1].Kind)
	assert.Equal(t, token.LE, toks[4].Kind)
	assert.Equal(t, token.NE, toks[7].Kind)
}

func TestTokenizeLine_HexAndDecimal(t *testing.T) {
	toks, err := TokenizeLine("A=0xFF B=42", 1)
	assert.NoError(t, err)
	assert.Equal(t, "0xFF", toks[2].Text)
	assert.Equal(t, "42", toks[5].Text)
}

func TestTokenizeLine_LabelDef(t *testing.T) {
	toks, err := TokenizeLine("^LOOP", 1)
	assert.NoError(t, err)
	assert.Equal(t, token.LABEL_DEF, toks[0].Kind)
	assert.Equal(t, "LOOP", toks[0].Text)
}

func TestTokenizeLine_StringEscape(t *testing.T) {
	toks, err := TokenizeLine(`?="say ""hi"""`, 1)
	assert.NoError(t, err)
	assert.Equal(t, token.STRING, toks[2].Kind)
	assert.Equal(t, `say "hi"`, toks[2].Text)
}

func TestTokenizeLine_UnterminatedString(t *testing.T) {
	_, err := TokenizeLine(`?="oops`, 3)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestTokenizeLine_CharLiteral(t *testing.T) {
	toks, err := TokenizeLine("A='x'", 1)
	assert.NoError(t, err)
	assert.Equal(t, token.CHAR_LIT, toks[2].Kind)
	assert.Equal(t, "x", toks[2].Text)
}

func TestTokenizeLine_MalformedCharLiteral(t *testing.T) {
	_, err := TokenizeLine("A='xy'", 1)
	assert.Error(t, err)
}

func TestTokenizeLine_Comment(t *testing.T) {
	toks, err := TokenizeLine("A=1 : rest of the line is a comment", 1)
	assert.NoError(t, err)
	last := toks[len(toks)-1]
	assert.Equal(t, token.COMMENT, last.Kind)
	assert.Equal(t, " rest of the line is a comment", last.Text)
}

func TestTokenizeLine_LowercaseIsError(t *testing.T) {
	_, err := TokenizeLine("a=1", 7)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "line 7")
}

func TestTokenizeLine_Positions(t *testing.T) {
	toks, err := TokenizeLine("A = 3", 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, toks[0].Line)
	assert.Equal(t, 1, toks[0].Col)
	assert.Equal(t, 3, toks[1].Col)
	assert.Equal(t, 5, toks[2].Col)
}
