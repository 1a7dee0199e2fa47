package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeReader struct {
	files map[string][]byte
}

func (f *fakeReader) ReadFile(path string) ([]byte, error) {
	if data, ok := f.files[path]; ok {
		return data, nil
	}
	return nil, &AsmError{Kind: IoError, Context: path}
}

func TestAssembleS1SimpleProgram(t *testing.T) {
	a := NewAssembler(nil)
	code, err := a.AssembleBytes("*=$0800\nLDA #$42\nSTA $0200\nRTS")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xA9, 0x42, 0x8D, 0x00, 0x02, 0x60}, code)
}

func TestAssembleS2ConstantAndByteExtraction(t *testing.T) {
	a := NewAssembler(nil)
	code, err := a.AssembleBytes("*=$0000\nSCREEN = $0400\nLDA #<SCREEN\nLDA #>SCREEN")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xA9, 0x00, 0xA9, 0x04}, code)
}

func TestAssembleS3BackwardLabelReference(t *testing.T) {
	a := NewAssembler(nil)
	code, err := a.AssembleBytes("*=$0800\nstart: LDA #$01\nJMP start")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xA9, 0x01, 0x4C, 0x00, 0x08}, code)
}

func TestAssembleS4ZeroPageVsAbsolute(t *testing.T) {
	a := NewAssembler(nil)

	code, err := a.AssembleBytes("*=$0800\nLDA $80")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xA5, 0x80}, code)

	code, err = a.AssembleBytes("*=$0800\nLDA >$80")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAD, 0x80, 0x00}, code)

	code, err = a.AssembleBytes("*=$0800\nLDA <$1234")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xA5, 0x34}, code)
}

func TestAssembleS5LongBranchExpansion(t *testing.T) {
	a := NewAssembler(nil)
	src := "*=$0800\nBEQ target\n" + dcbFiller(200) + "target: RTS"
	code, err := a.AssembleBytes(src)
	assert.NoError(t, err)
	assert.Equal(t, byte(0xD0), code[0]) // BNE (inverted BEQ)
	assert.Equal(t, byte(0x03), code[1])
	assert.Equal(t, byte(0x4C), code[2]) // JMP absolute
	target := uint32(0x0800) + 5 + 200
	assert.Equal(t, byte(target&0xFF), code[3])
	assert.Equal(t, byte((target>>8)&0xFF), code[4])
}

func dcbFiller(n int) string {
	s := "DCB "
	for i := 0; i < n; i++ {
		if i > 0 {
			s += " "
		}
		s += "0"
	}
	return s + "\n"
}

func TestAssembleS6DataDirectives(t *testing.T) {
	a := NewAssembler(nil)
	code, err := a.AssembleBytes(`*=$0800
.word $1234, $5678
.string "HI"
.byte 1,2,3`)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x34, 0x12, 0x78, 0x56, 'H', 'I', 1, 2, 3}, code)
}

func TestAssembleRejectsBackwardOrigin(t *testing.T) {
	a := NewAssembler(nil)
	_, err := a.AssembleBytes("*=$0800\nLDA #$01\nLDA #$02\n*=$0800")
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, BackwardOrigin, ae.Kind)
}

func TestAssembleForwardOriginPads(t *testing.T) {
	a := NewAssembler(nil)
	code, err := a.AssembleBytes("*=$0800\nNOP\n*=$0803\nNOP")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xEA, 0x00, 0x00, 0xEA}, code)
}

func TestAssembleUndefinedSymbolFailsAtResolution(t *testing.T) {
	a := NewAssembler(nil)
	_, err := a.AssembleBytes("*=$0800\nJMP NOWHERE")
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, UndefinedSymbol, ae.Kind)
}

func TestAssembleConstantCannotForwardReference(t *testing.T) {
	a := NewAssembler(nil)
	_, err := a.AssembleBytes("*=$0800\nFOO = BAR\nBAR = 1")
	assert.Error(t, err)
}

func TestAssembleDuplicateLabel(t *testing.T) {
	a := NewAssembler(nil)
	_, err := a.AssembleBytes("*=$0800\nloop: NOP\nloop: NOP")
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, DuplicateSymbol, ae.Kind)
}

func TestAssembleUnknownMnemonic(t *testing.T) {
	a := NewAssembler(nil)
	_, err := a.AssembleBytes("*=$0800\nFROB #$01")
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, UnknownMnemonic, ae.Kind)
}

func TestAssembleInvalidAddressingMode(t *testing.T) {
	a := NewAssembler(nil)
	_, err := a.AssembleBytes("*=$0800\nJMP #$01")
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, InvalidAddressingMode, ae.Kind)
}

func TestAssembleByteRangeError(t *testing.T) {
	a := NewAssembler(nil)
	_, err := a.AssembleBytes("*=$0800\n.byte 300")
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, RangeError, ae.Kind)
}

func TestAssembleAbsoluteOverflowIsRangeErrorRegardlessOfForwardReference(t *testing.T) {
	a := NewAssembler(nil)
	_, err := a.AssembleBytes("*=$10000\nHERE: NOP\nJMP HERE")
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, RangeError, ae.Kind)

	b := NewAssembler(nil)
	_, err = b.AssembleBytes("*=$10000\nJMP THERE\nTHERE: NOP")
	assert.Error(t, err)
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, RangeError, ae.Kind)
}

func TestAssembleWordOverflowIsRangeError(t *testing.T) {
	a := NewAssembler(nil)
	_, err := a.AssembleBytes("*=$10000\n.word $FFFFFF")
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, RangeError, ae.Kind)
}

func TestAssembleIncbin(t *testing.T) {
	reader := &fakeReader{files: map[string][]byte{"data.bin": {0xDE, 0xAD, 0xBE, 0xEF}}}
	a := NewAssembler(reader)
	code, err := a.AssembleBytes(`*=$0800
.incbin "data.bin"`)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, code)
}

func TestAssembleIncbinMissingFileIsIoError(t *testing.T) {
	a := NewAssembler(&fakeReader{files: map[string][]byte{}})
	_, err := a.AssembleBytes(`*=$0800
.incbin "missing.bin"`)
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, IoError, ae.Kind)
}

func TestAssembleWithSymbolsReturnsLabelsAndConstants(t *testing.T) {
	a := NewAssembler(nil)
	_, syms, err := a.AssembleWithSymbols("*=$0800\nSCREEN = $0400\nloop: NOP\nJMP loop")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x0400), syms["SCREEN"].Value)
	assert.Equal(t, Constant, syms["SCREEN"].Kind)
	assert.Equal(t, uint32(0x0800), syms["loop"].Value)
	assert.Equal(t, Label, syms["loop"].Kind)
}

func TestAssembleFullItemsAreSequential(t *testing.T) {
	a := NewAssembler(nil)
	_, items, err := a.AssembleFull("*=$0800\nstart: LDA #$01\nRTS")
	assert.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, ItemLabel, items[0].Kind)
	assert.Equal(t, uint32(0x0800), items[0].Address)
	assert.Equal(t, ItemInstruction, items[1].Kind)
	assert.Equal(t, []byte{0xA9, 0x01}, items[1].Bytes)
	assert.Equal(t, uint32(0x0802), items[2].Address)
}

func TestAssembleInstructionPCLaw(t *testing.T) {
	a := NewAssembler(nil)
	_, items, err := a.AssembleFull("*=$0800\nLDA #$01\nSTA $0200\nRTS")
	assert.NoError(t, err)
	prev := items[0]
	for _, it := range items[1:] {
		assert.Equal(t, prev.Address+uint32(len(prev.Bytes)), it.Address)
		prev = it
	}
}

func TestResetProducesIdempotentReassembly(t *testing.T) {
	a := NewAssembler(nil)
	src := "*=$0800\nLDA #$42\nSTA $0200\nRTS"
	code1, err := a.AssembleBytes(src)
	assert.NoError(t, err)
	code2, err := a.AssembleBytes(src)
	assert.NoError(t, err)
	assert.Equal(t, code1, code2)
}

func TestSetOriginConfiguresDefaultStart(t *testing.T) {
	a := NewAssembler(nil)
	a.SetOrigin(0x1000)
	assert.Equal(t, uint32(0x1000), a.Origin())
	_, items, err := a.AssembleFull("NOP")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x1000), items[0].Address)
}

func TestAssembleBranchExpansionTargetBeyond16Bits(t *testing.T) {
	a := NewAssembler(nil)
	src := "*=$FFF0\nBEQ target\n" + dcbFiller(200) + "target: RTS"
	_, err := a.AssembleBytes(src)
	assert.Error(t, err)
	var ae *AsmError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, BranchUnreachable, ae.Kind)
}

func TestAssembleWithAddrMap(t *testing.T) {
	a := NewAssembler(nil)
	_, m, err := a.AssembleWithAddrMap("*=$0800\nLDA #$01\nRTS")
	assert.NoError(t, err)
	assert.Equal(t, []AddrMapEntry{{Offset: 0, Address: 0x0800}, {Offset: 2, Address: 0x0802}}, m)
}
