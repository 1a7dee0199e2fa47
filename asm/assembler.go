package asm

import (
	"bufio"
	"strings"
)

// DefaultOrigin is the program counter an Assembler starts at when no
// explicit origin has been configured, per spec.md §6.
const DefaultOrigin uint32 = 0x0800

// Assembler is the process-wide-within-a-call container described in
// spec.md §3: program counter, origin, output buffer, symbol table (which
// also holds the fixup list), item list, and current source line number.
type Assembler struct {
	origin     uint32 // configured starting PC
	originBase uint32 // address of code[0]
	pc         uint32
	code       []byte
	symbols    *SymbolTable
	items      []Item
	line       int
	reader     FileReader

	firstOriginSeen bool
}

// NewAssembler returns an Assembler at the default origin. reader may be
// nil if the source never uses .incbin.
func NewAssembler(reader FileReader) *Assembler {
	a := &Assembler{origin: DefaultOrigin, reader: reader}
	a.Reset()
	return a
}

// SetOrigin configures the starting PC for subsequent assemble calls.
func (a *Assembler) SetOrigin(addr uint32) {
	a.origin = addr
}

// Origin returns the configured starting PC.
func (a *Assembler) Origin() uint32 {
	return a.origin
}

// Reset clears the assembler back to its initial state: PC at the
// configured origin, empty output buffer, empty symbol table, no items.
func (a *Assembler) Reset() {
	a.originBase = a.origin
	a.pc = a.origin
	a.code = nil
	a.symbols = NewSymbolTable()
	a.items = nil
	a.line = 0
	a.firstOriginSeen = false
}

// Symbols returns a snapshot of every symbol defined by the most recent
// assemble call.
func (a *Assembler) Symbols() map[string]Symbol {
	return a.symbols.Symbols()
}

// Lookup returns the value of name in the most recent assemble call's
// symbol table.
func (a *Assembler) Lookup(name string) (uint32, bool) {
	return a.symbols.Lookup(name)
}

// AssembleBytes assembles source and returns only the machine code.
func (a *Assembler) AssembleBytes(source string) ([]byte, error) {
	if err := a.assemble(source); err != nil {
		return nil, err
	}
	return a.code, nil
}

// AssembleWithSymbols assembles source and returns the machine code plus
// the final symbol table.
func (a *Assembler) AssembleWithSymbols(source string) ([]byte, map[string]Symbol, error) {
	if err := a.assemble(source); err != nil {
		return nil, nil, err
	}
	return a.code, a.symbols.Symbols(), nil
}

// AssembleFull assembles source and also returns the ordered Item stream
// for an external listing formatter.
func (a *Assembler) AssembleFull(source string) ([]byte, []Item, error) {
	if err := a.assemble(source); err != nil {
		return nil, nil, err
	}
	return a.code, a.items, nil
}

// AddrMapEntry pairs an output-buffer offset with the final (post-
// resolution) source address of the item that produced the byte at that
// offset.
type AddrMapEntry struct {
	Offset  int
	Address uint32
}

// AssembleWithAddrMap assembles source and also returns one AddrMapEntry
// per emitted item, mapping its output offset to its final address.
func (a *Assembler) AssembleWithAddrMap(source string) ([]byte, []AddrMapEntry, error) {
	if err := a.assemble(source); err != nil {
		return nil, nil, err
	}
	var m []AddrMapEntry
	offset := 0
	for _, it := range a.items {
		if it.Kind == ItemLabel {
			continue
		}
		m = append(m, AddrMapEntry{Offset: offset, Address: it.Address})
		offset += len(it.Bytes)
	}
	return a.code, m, nil
}

// assemble runs the full pipeline: reset, first-pass line walk, then
// resolution (fixup patching plus relative-branch expansion).
func (a *Assembler) assemble(source string) error {
	a.Reset()

	scanner := bufio.NewScanner(strings.NewReader(source))
	row := 0
	for scanner.Scan() {
		row++
		a.line = row
		if err := a.processLine(scanner.Text()); err != nil {
			return err
		}
	}

	return a.resolve()
}

// processLine implements the line classification of spec.md §4.5.
func (a *Assembler) processLine(raw string) error {
	text := stripCommentAndTrim(raw)
	if text == "" {
		return nil
	}

	if name, exprText, ok := constantDef(text); ok {
		return a.handleConstant(name, exprText)
	}

	if exprText, ok := originDirective(text); ok {
		return a.handleOrigin(exprText)
	}

	rest := text
	if label, tail, ok := consumeLabel(text); ok {
		if err := a.symbols.Define(label, Label, a.pc, a.line); err != nil {
			return err
		}
		a.items = append(a.items, Item{Kind: ItemLabel, Address: a.pc, Label: label, Line: raw, LineNo: a.line})
		if tail == "" {
			return nil
		}
		rest = tail
	}

	if directive, operand, ok := matchDataDirective(rest); ok {
		return a.handleDataDirective(directive, operand, raw)
	}

	mnemonic, operand := splitInstruction(rest)
	return a.handleInstruction(mnemonic, operand, raw)
}

func (a *Assembler) handleConstant(name, exprText string) error {
	tree, err := parseExprText(exprText, a.line)
	if err != nil {
		return err
	}
	value, resolved, err := evalExpr(tree, a.symbols, a.pc, false, a.line)
	if err != nil {
		return err
	}
	if !resolved {
		return newErr(a.line, UndefinedSymbol, exprText)
	}
	return a.symbols.Define(name, Constant, value, a.line)
}

func (a *Assembler) handleOrigin(exprText string) error {
	tree, err := parseExprText(exprText, a.line)
	if err != nil {
		return err
	}
	value, resolved, err := evalExpr(tree, a.symbols, a.pc, false, a.line)
	if err != nil {
		return err
	}
	if !resolved {
		return newErr(a.line, UndefinedSymbol, exprText)
	}

	if !a.firstOriginSeen {
		a.originBase = value
		a.pc = value
		a.firstOriginSeen = true
		return nil
	}

	if value < a.pc {
		return newErr(a.line, BackwardOrigin, exprText)
	}
	pad := make([]byte, value-a.pc)
	offset := len(a.code)
	a.code = append(a.code, pad...)
	a.items = append(a.items, Item{
		Kind: ItemDirective, Address: a.pc, Directive: "*=", Bytes: a.code[offset:], LineNo: a.line,
	})
	a.pc = value
	return nil
}

func (a *Assembler) handleInstruction(mnemonic, operandText, rawLine string) error {
	if !isKnownMnemonic(mnemonic) {
		return newErr(a.line, UnknownMnemonic, mnemonic)
	}

	shape, err := classifyOperand(mnemonic, operandText)
	if err != nil {
		if ae, ok := err.(*AsmError); ok && ae.Line == 0 {
			ae.Line = a.line
		}
		return err
	}

	var tree exprNode
	var value uint32
	var resolved bool = true
	hasOperand := shape.Mode != Implied && shape.Mode != Accumulator
	if hasOperand {
		tree, err = parseExprText(shape.Expr, a.line)
		if err != nil {
			return err
		}
		value, resolved, err = evalExpr(tree, a.symbols, a.pc, true, a.line)
		if err != nil {
			return err
		}
	}

	mode := shape.Mode
	if shape.Pending {
		mode = resolveWidth(mnemonic, shape, value, resolved)
	}

	entry, ok := lookupOpcode(mnemonic, mode)
	if !ok {
		return newErr(a.line, InvalidAddressingMode, mnemonic+" "+operandText)
	}

	instrPC := a.pc
	offset := len(a.code)
	a.code = append(a.code, entry.Value)
	width := int(entry.Length) - 1

	switch {
	case width == 0:
		// no operand bytes

	case mode == Relative:
		a.code = append(a.code, 0)
		a.symbols.EnqueueFixup(Fixup{Offset: offset + 1, Kind: Relative8, Expr: tree, PC: instrPC, Line: a.line})

	case width == 1:
		if resolved {
			a.code = append(a.code, byte(value&0xFF))
		} else {
			a.code = append(a.code, 0)
			a.symbols.EnqueueFixup(Fixup{Offset: offset + 1, Kind: fixupKindFor(tree, 1), Expr: tree, PC: instrPC, Line: a.line})
		}

	default: // width == 2
		if resolved {
			if value > 0xFFFF {
				return newErr(a.line, RangeError, mnemonic+" "+operandText)
			}
			a.code = append(a.code, byte(value&0xFF), byte((value>>8)&0xFF))
		} else {
			a.code = append(a.code, 0, 0)
			a.symbols.EnqueueFixup(Fixup{Offset: offset + 1, Kind: fixupKindFor(tree, 2), Expr: tree, PC: instrPC, Line: a.line})
		}
	}

	a.pc += uint32(entry.Length)
	a.items = append(a.items, Item{
		Kind: ItemInstruction, Address: instrPC, Mnemonic: mnemonic, Mode: mode,
		Operand: operandText, Bytes: a.code[offset:len(a.code):len(a.code)], Line: rawLine, LineNo: a.line,
	})
	return nil
}

// fixupKindFor picks the spec.md Fixup kind tag for a deferred 1- or
// 2-byte operand, distinguishing an explicit low/high byte extraction at
// the expression's root from a plain zero-page/absolute reference.
func fixupKindFor(tree exprNode, width int) FixupKind {
	if u, ok := tree.(unaryNode); ok {
		switch u.op {
		case '<':
			return LowByte
		case '>':
			return HighByte
		}
	}
	if width == 2 {
		return Absolute16
	}
	return ZeroPage8
}

func (a *Assembler) handleDataDirective(directive, operand, rawLine string) error {
	switch directive {
	case "DCB":
		return a.emitByteList(splitWhitespaceList(operand), rawLine)
	case ".byte":
		return a.emitByteList(splitCommaList(operand), rawLine)
	case ".word":
		return a.emitWordList(splitCommaList(operand), rawLine)
	case ".string":
		return a.emitString(operand, rawLine)
	case ".incbin":
		return a.emitIncbin(operand, rawLine)
	}
	return newErr(a.line, UnknownDirective, directive)
}

func (a *Assembler) emitByteList(exprs []string, rawLine string) error {
	addr := a.pc
	offset := len(a.code)
	for _, e := range exprs {
		if e == "" {
			continue
		}
		tree, err := parseExprText(e, a.line)
		if err != nil {
			return err
		}
		value, resolved, err := evalExpr(tree, a.symbols, a.pc, true, a.line)
		if err != nil {
			return err
		}
		pos := len(a.code)
		a.code = append(a.code, 0)
		if resolved {
			if value > 0xFF {
				return newErr(a.line, RangeError, e)
			}
			a.code[pos] = byte(value)
		} else {
			a.symbols.EnqueueFixup(Fixup{Offset: pos, Kind: Byte8Data, Expr: tree, PC: a.pc, Line: a.line})
		}
		a.pc++
	}
	a.items = append(a.items, Item{
		Kind: ItemDirective, Address: addr, Directive: "byte", Bytes: a.code[offset:len(a.code):len(a.code)], LineNo: a.line, Line: rawLine,
	})
	return nil
}

func (a *Assembler) emitWordList(exprs []string, rawLine string) error {
	addr := a.pc
	offset := len(a.code)
	for _, e := range exprs {
		if e == "" {
			continue
		}
		tree, err := parseExprText(e, a.line)
		if err != nil {
			return err
		}
		value, resolved, err := evalExpr(tree, a.symbols, a.pc, true, a.line)
		if err != nil {
			return err
		}
		pos := len(a.code)
		a.code = append(a.code, 0, 0)
		if resolved {
			if value > 0xFFFF {
				return newErr(a.line, RangeError, e)
			}
			a.code[pos] = byte(value & 0xFF)
			a.code[pos+1] = byte((value >> 8) & 0xFF)
		} else {
			a.symbols.EnqueueFixup(Fixup{Offset: pos, Kind: Word16Data, Expr: tree, PC: a.pc, Line: a.line})
		}
		a.pc += 2
	}
	a.items = append(a.items, Item{
		Kind: ItemDirective, Address: addr, Directive: "word", Bytes: a.code[offset:len(a.code):len(a.code)], LineNo: a.line, Line: rawLine,
	})
	return nil
}

func (a *Assembler) emitString(operand, rawLine string) error {
	s, err := unquoteString(operand, a.line)
	if err != nil {
		return err
	}
	addr := a.pc
	offset := len(a.code)
	a.code = append(a.code, []byte(s)...)
	a.pc += uint32(len(s))
	a.items = append(a.items, Item{
		Kind: ItemDirective, Address: addr, Directive: "string", Bytes: a.code[offset:len(a.code):len(a.code)], LineNo: a.line, Line: rawLine,
	})
	return nil
}

// relFixup tracks resolution state for one Relative8 fixup across the
// iterative expansion sweep: done becomes true once the branch has been
// rewritten to a long form, after which its displacement never changes
// again.
type relFixup struct {
	f    Fixup
	done bool
}

// resolve runs the second pass of spec.md §4.7: relative-branch expansion
// to a fixed point, followed by patching every remaining (non-relative)
// fixup against the now-complete symbol table.
func (a *Assembler) resolve() error {
	all := a.symbols.DrainFixups()

	var rel []*relFixup
	var other []Fixup
	for _, f := range all {
		if f.Kind == Relative8 {
			rel = append(rel, &relFixup{f: f})
		} else {
			other = append(other, f)
		}
	}

	for {
		expanded := false
		for _, rf := range rel {
			if rf.done {
				continue
			}
			target, resolved, err := evalExpr(rf.f.Expr, a.symbols, rf.f.PC, false, rf.f.Line)
			if err != nil {
				return err
			}
			if !resolved {
				return newErr(rf.f.Line, UndefinedSymbol, "")
			}
			delta := int64(target) - int64(rf.f.PC+2)
			if delta >= -128 && delta <= 127 {
				a.code[rf.f.Offset] = byte(int8(delta))
				continue
			}

			a.expandBranch(rf, rel, &other)
			rf.done = true
			expanded = true
		}
		if !expanded {
			break
		}
	}

	for _, f := range other {
		value, resolved, err := evalExpr(f.Expr, a.symbols, f.PC, false, f.Line)
		if err != nil {
			return err
		}
		if !resolved {
			return newErr(f.Line, UndefinedSymbol, "")
		}
		switch f.Kind {
		case ZeroPage8, Byte8Data, LowByte, HighByte:
			if f.Kind == Byte8Data && value > 0xFF {
				return newErr(f.Line, RangeError, "")
			}
			a.code[f.Offset] = byte(value & 0xFF)
		case Absolute16, Word16Data:
			if value > 0xFFFF {
				return newErr(f.Line, RangeError, "")
			}
			a.code[f.Offset] = byte(value & 0xFF)
			a.code[f.Offset+1] = byte((value >> 8) & 0xFF)
		case ExpandedJumpTarget:
			if value > 0xFFFF {
				return newErr(f.Line, BranchUnreachable, "")
			}
			a.code[f.Offset] = byte(value & 0xFF)
			a.code[f.Offset+1] = byte((value >> 8) & 0xFF)
		}
	}

	a.finalizeItems()
	return nil
}

// finalizeItems re-slices every non-label item's Bytes from the final
// output buffer. First-pass emission and branch expansion both produce
// Bytes views into intermediate states of a.code; reallocation during
// expansion (and in-place patching afterward) means only a pass over the
// finished buffer is guaranteed current.
func (a *Assembler) finalizeItems() {
	for i := range a.items {
		it := &a.items[i]
		if it.Kind == ItemLabel {
			continue
		}
		n := len(it.Bytes)
		off := int(it.Address - a.originBase)
		if off < 0 || off+n > len(a.code) {
			continue
		}
		it.Bytes = append([]byte(nil), a.code[off:off+n]...)
	}
}

// expandBranch rewrites the 2-byte branch at rf into a 5-byte
// complementary-branch-plus-jump sequence, per spec.md §4.7, and shifts
// every offset, symbol value, and item address at or after the insertion
// point.
func (a *Assembler) expandBranch(rf *relFixup, rel []*relFixup, other *[]Fixup) {
	opcodeOffset := rf.f.Offset - 1
	branchPC := rf.f.PC
	// The JMP is inserted at branchPC+2, so anything at that address moves
	// too; the comparisons below are strict, hence branchPC+1.
	threshold := branchPC + 1

	origEntry, _ := lookupOpcode(reverseOpcodeLookup(a.code[opcodeOffset]), Relative)
	mnemonic := origEntry.Mnemonic
	invMnemonic := invertedBranch[mnemonic]
	invEntry, _ := lookupOpcode(invMnemonic, Relative)
	jmpEntry, _ := lookupOpcode("JMP", Absolute)

	// The JMP's target bytes are left as placeholders and resolved through
	// an ExpandedJumpTarget fixup below: a later expansion can still shift
	// the label this JMP targets, and re-evaluating from the expression
	// tree (rather than freezing the value computed here) keeps that case
	// correct, with its own 16-bit range check distinct from an ordinary
	// Absolute16 reference.
	insertAt := rf.f.Offset + 1
	ins := []byte{jmpEntry.Value, 0, 0}

	a.code[opcodeOffset] = invEntry.Value
	a.code[rf.f.Offset] = 3
	tail := append([]byte{}, a.code[insertAt:]...)
	a.code = append(a.code[:insertAt], append(ins, tail...)...)

	const delta = 3
	a.symbols.shiftSymbolsAfter(threshold, delta)

	for _, other2 := range rel {
		if other2 == rf {
			continue
		}
		if other2.f.Offset > opcodeOffset {
			other2.f.Offset += delta
		}
		if other2.f.PC > threshold {
			other2.f.PC += delta
		}
	}
	for i := range *other {
		if (*other)[i].Offset > opcodeOffset {
			(*other)[i].Offset += delta
		}
		if (*other)[i].PC > threshold {
			(*other)[i].PC += delta
		}
	}
	for i := range a.items {
		if a.items[i].Address > threshold {
			a.items[i].Address += delta
		}
		if a.items[i].Address == branchPC && a.items[i].Kind == ItemInstruction {
			a.items[i].Bytes = make([]byte, 5)
			a.items[i].Mnemonic = invMnemonic
		}
	}

	*other = append(*other, Fixup{Offset: insertAt + 1, Kind: ExpandedJumpTarget, Expr: rf.f.Expr, PC: branchPC, Line: rf.f.Line})
}

// reverseOpcodeLookup finds the mnemonic for a raw opcode byte known to be
// a Relative-mode branch; used by expandBranch to recover the mnemonic
// from the byte already written into the output buffer.
func reverseOpcodeLookup(value byte) string {
	for mnemonic := range branchMnemonics {
		if e, ok := lookupOpcode(mnemonic, Relative); ok && e.Value == value {
			return mnemonic
		}
	}
	return ""
}

func (a *Assembler) emitIncbin(operand, rawLine string) error {
	path, err := unquoteString(operand, a.line)
	if err != nil {
		return err
	}
	if a.reader == nil {
		return newErr(a.line, IoError, path)
	}
	data, err := a.reader.ReadFile(path)
	if err != nil {
		return wrapErr(a.line, IoError, path, err)
	}
	addr := a.pc
	offset := len(a.code)
	a.code = append(a.code, data...)
	a.pc += uint32(len(data))
	a.items = append(a.items, Item{
		Kind: ItemDirective, Address: addr, Directive: "incbin", Bytes: a.code[offset:len(a.code):len(a.code)], LineNo: a.line, Line: rawLine,
	})
	return nil
}
