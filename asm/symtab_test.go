package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolTableDefineAndLookup(t *testing.T) {
	t1 := NewSymbolTable()
	assert.NoError(t, t1.Define("LOOP", Label, 0x0810, 1))
	v, ok := t1.Lookup("LOOP")
	assert.True(t, ok)
	assert.Equal(t, uint32(0x0810), v)

	_, ok = t1.Lookup("NOPE")
	assert.False(t, ok)
}

func TestSymbolTableRejectsRedefinition(t *testing.T) {
	t1 := NewSymbolTable()
	assert.NoError(t, t1.Define("X", Constant, 1, 1))
	err := t1.Define("X", Constant, 2, 2)
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, DuplicateSymbol, ae.Kind)
}

func TestSymbolTableFixupQueueDrainsInOrder(t *testing.T) {
	t1 := NewSymbolTable()
	t1.EnqueueFixup(Fixup{Offset: 1, Kind: ZeroPage8})
	t1.EnqueueFixup(Fixup{Offset: 2, Kind: Absolute16})
	got := t1.DrainFixups()
	assert.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Offset)
	assert.Equal(t, 2, got[1].Offset)
	assert.Empty(t, t1.DrainFixups())
}

func TestSymbolTableShiftSymbolsAfter(t *testing.T) {
	t1 := NewSymbolTable()
	assert.NoError(t, t1.Define("BEFORE", Label, 0x0800, 1))
	assert.NoError(t, t1.Define("AT", Label, 0x0802, 1))
	assert.NoError(t, t1.Define("AFTER", Label, 0x0803, 1))

	t1.shiftSymbolsAfter(0x0802, 3)

	v, _ := t1.Lookup("BEFORE")
	assert.Equal(t, uint32(0x0800), v)
	v, _ = t1.Lookup("AT")
	assert.Equal(t, uint32(0x0802), v)
	v, _ = t1.Lookup("AFTER")
	assert.Equal(t, uint32(0x0806), v)
}
