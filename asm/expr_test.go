package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, s string) exprNode {
	t.Helper()
	n, err := parseExprText(s, 1)
	assert.NoError(t, err)
	return n
}

func TestEvalExprArithmetic(t *testing.T) {
	syms := NewSymbolTable()
	cases := []struct {
		expr string
		want uint32
	}{
		{"1+2", 3},
		{"10-3", 7},
		{"2*3+1", 7},
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10/2", 5},
		{"-5+10", 5},
		{"<$1234", 0x34},
		{">$1234", 0x12},
	}
	for _, c := range cases {
		tree := mustParse(t, c.expr)
		v, ok, err := evalExpr(tree, syms, 0, false, 1)
		assert.NoError(t, err, c.expr)
		assert.True(t, ok, c.expr)
		assert.Equal(t, c.want, v, c.expr)
	}
}

func TestEvalExprProgramCounter(t *testing.T) {
	syms := NewSymbolTable()
	tree := mustParse(t, "*+3")
	v, ok, err := evalExpr(tree, syms, 0x0800, false, 1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x0803), v)
}

func TestEvalExprUndefinedSymbolDeferred(t *testing.T) {
	syms := NewSymbolTable()
	tree := mustParse(t, "LOOP")
	_, ok, err := evalExpr(tree, syms, 0, true, 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalExprUndefinedSymbolHardError(t *testing.T) {
	syms := NewSymbolTable()
	tree := mustParse(t, "LOOP")
	_, ok, err := evalExpr(tree, syms, 0, false, 1)
	assert.False(t, ok)
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, UndefinedSymbol, ae.Kind)
}

func TestEvalExprDivByZero(t *testing.T) {
	syms := NewSymbolTable()
	tree := mustParse(t, "1/0")
	_, _, err := evalExpr(tree, syms, 0, false, 1)
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, DivByZero, ae.Kind)
}

func TestEvalExprResolvedSymbol(t *testing.T) {
	syms := NewSymbolTable()
	assert.NoError(t, syms.Define("SCREEN", Constant, 0x0400, 1))
	tree := mustParse(t, "SCREEN+1")
	v, ok, err := evalExpr(tree, syms, 0, false, 1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x0401), v)
}

func TestParseExprTextRejectsTrailingGarbage(t *testing.T) {
	_, err := parseExprText("1 2", 1)
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, MalformedOperand, ae.Kind)
}

func TestParseExprTextUnbalancedParens(t *testing.T) {
	_, err := parseExprText("(1+2", 1)
	assert.Error(t, err)
}
