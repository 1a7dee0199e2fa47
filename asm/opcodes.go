package asm

// AddressingMode enumerates the 13 addressing modes of the 6502
// instruction set recognized by this assembler (spec.md §4.4).
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndirectX
	IndirectY
	Relative
)

var addressingModeNames = [...]string{
	"Implied", "Accumulator", "Immediate", "ZeroPage", "ZeroPageX",
	"ZeroPageY", "Absolute", "AbsoluteX", "AbsoluteY", "Indirect",
	"IndirectX", "IndirectY", "Relative",
}

func (m AddressingMode) String() string {
	if int(m) < 0 || int(m) >= len(addressingModeNames) {
		return "InvalidMode"
	}
	return addressingModeNames[m]
}

// OpcodeEntry is one row of the static (mnemonic, AddressingMode) -> byte
// encoding catalogue.
type OpcodeEntry struct {
	Mnemonic string
	Mode     AddressingMode
	Value    byte
	Length   uint
}

// OpcodeTable is the full catalogue of documented 6502 instructions this
// assembler encodes, covering exactly the mnemonic groups enumerated in
// spec.md §4.4: load/store, arithmetic, logical, shift/rotate, compare,
// increment/decrement, branch, jump/call, stack/flag, transfer, and NOP.
var OpcodeTable = []OpcodeEntry{
	{"ADC", Immediate, 0x69, 2}, {"ADC", ZeroPage, 0x65, 2}, {"ADC", ZeroPageX, 0x75, 2},
	{"ADC", Absolute, 0x6D, 3}, {"ADC", AbsoluteX, 0x7D, 3}, {"ADC", AbsoluteY, 0x79, 3},
	{"ADC", IndirectX, 0x61, 2}, {"ADC", IndirectY, 0x71, 2},

	{"AND", Immediate, 0x29, 2}, {"AND", ZeroPage, 0x25, 2}, {"AND", ZeroPageX, 0x35, 2},
	{"AND", Absolute, 0x2D, 3}, {"AND", AbsoluteX, 0x3D, 3}, {"AND", AbsoluteY, 0x39, 3},
	{"AND", IndirectX, 0x21, 2}, {"AND", IndirectY, 0x31, 2},

	{"ASL", Accumulator, 0x0A, 1}, {"ASL", ZeroPage, 0x06, 2}, {"ASL", ZeroPageX, 0x16, 2},
	{"ASL", Absolute, 0x0E, 3}, {"ASL", AbsoluteX, 0x1E, 3},

	{"BPL", Relative, 0x10, 2}, {"BMI", Relative, 0x30, 2}, {"BVC", Relative, 0x50, 2},
	{"BVS", Relative, 0x70, 2}, {"BCC", Relative, 0x90, 2}, {"BCS", Relative, 0xB0, 2},
	{"BNE", Relative, 0xD0, 2}, {"BEQ", Relative, 0xF0, 2},

	{"BRK", Implied, 0x00, 1},

	{"CMP", Immediate, 0xC9, 2}, {"CMP", ZeroPage, 0xC5, 2}, {"CMP", ZeroPageX, 0xD5, 2},
	{"CMP", Absolute, 0xCD, 3}, {"CMP", AbsoluteX, 0xDD, 3}, {"CMP", AbsoluteY, 0xD9, 3},
	{"CMP", IndirectX, 0xC1, 2}, {"CMP", IndirectY, 0xD1, 2},

	{"CPX", Immediate, 0xE0, 2}, {"CPX", ZeroPage, 0xE4, 2}, {"CPX", Absolute, 0xEC, 3},
	{"CPY", Immediate, 0xC0, 2}, {"CPY", ZeroPage, 0xC4, 2}, {"CPY", Absolute, 0xCC, 3},

	{"DEC", ZeroPage, 0xC6, 2}, {"DEC", ZeroPageX, 0xD6, 2}, {"DEC", Absolute, 0xCE, 3},
	{"DEC", AbsoluteX, 0xDE, 3},
	{"DEX", Implied, 0xCA, 1}, {"DEY", Implied, 0x88, 1},

	{"EOR", Immediate, 0x49, 2}, {"EOR", ZeroPage, 0x45, 2}, {"EOR", ZeroPageX, 0x55, 2},
	{"EOR", Absolute, 0x4D, 3}, {"EOR", AbsoluteX, 0x5D, 3}, {"EOR", AbsoluteY, 0x59, 3},
	{"EOR", IndirectX, 0x41, 2}, {"EOR", IndirectY, 0x51, 2},

	{"CLC", Implied, 0x18, 1}, {"SEC", Implied, 0x38, 1}, {"CLI", Implied, 0x58, 1},
	{"SEI", Implied, 0x78, 1}, {"CLV", Implied, 0xB8, 1}, {"CLD", Implied, 0xD8, 1},
	{"SED", Implied, 0xF8, 1},

	{"INC", ZeroPage, 0xE6, 2}, {"INC", ZeroPageX, 0xF6, 2}, {"INC", Absolute, 0xEE, 3},
	{"INC", AbsoluteX, 0xFE, 3},
	{"INX", Implied, 0xE8, 1}, {"INY", Implied, 0xC8, 1},

	{"JMP", Absolute, 0x4C, 3}, {"JMP", Indirect, 0x6C, 3},
	{"JSR", Absolute, 0x20, 3},

	{"LDA", Immediate, 0xA9, 2}, {"LDA", ZeroPage, 0xA5, 2}, {"LDA", ZeroPageX, 0xB5, 2},
	{"LDA", Absolute, 0xAD, 3}, {"LDA", AbsoluteX, 0xBD, 3}, {"LDA", AbsoluteY, 0xB9, 3},
	{"LDA", IndirectX, 0xA1, 2}, {"LDA", IndirectY, 0xB1, 2},

	{"LDX", Immediate, 0xA2, 2}, {"LDX", ZeroPage, 0xA6, 2}, {"LDX", ZeroPageY, 0xB6, 2},
	{"LDX", Absolute, 0xAE, 3}, {"LDX", AbsoluteY, 0xBE, 3},

	{"LDY", Immediate, 0xA0, 2}, {"LDY", ZeroPage, 0xA4, 2}, {"LDY", ZeroPageX, 0xB4, 2},
	{"LDY", Absolute, 0xAC, 3}, {"LDY", AbsoluteX, 0xBC, 3},

	{"LSR", Accumulator, 0x4A, 1}, {"LSR", ZeroPage, 0x46, 2}, {"LSR", ZeroPageX, 0x56, 2},
	{"LSR", Absolute, 0x4E, 3}, {"LSR", AbsoluteX, 0x5E, 3},

	{"NOP", Implied, 0xEA, 1},

	{"ORA", Immediate, 0x09, 2}, {"ORA", ZeroPage, 0x05, 2}, {"ORA", ZeroPageX, 0x15, 2},
	{"ORA", Absolute, 0x0D, 3}, {"ORA", AbsoluteX, 0x1D, 3}, {"ORA", AbsoluteY, 0x19, 3},
	{"ORA", IndirectX, 0x01, 2}, {"ORA", IndirectY, 0x11, 2},

	{"TAX", Implied, 0xAA, 1}, {"TXA", Implied, 0x8A, 1}, {"TAY", Implied, 0xA8, 1},
	{"TYA", Implied, 0x98, 1}, {"TXS", Implied, 0x9A, 1}, {"TSX", Implied, 0xBA, 1},

	{"PHA", Implied, 0x48, 1}, {"PLA", Implied, 0x68, 1}, {"PHP", Implied, 0x08, 1},
	{"PLP", Implied, 0x28, 1},

	{"ROL", Accumulator, 0x2A, 1}, {"ROL", ZeroPage, 0x26, 2}, {"ROL", ZeroPageX, 0x36, 2},
	{"ROL", Absolute, 0x2E, 3}, {"ROL", AbsoluteX, 0x3E, 3},

	{"ROR", Accumulator, 0x6A, 1}, {"ROR", ZeroPage, 0x66, 2}, {"ROR", ZeroPageX, 0x76, 2},
	{"ROR", Absolute, 0x6E, 3}, {"ROR", AbsoluteX, 0x7E, 3},

	{"RTI", Implied, 0x40, 1},
	{"RTS", Implied, 0x60, 1},

	{"SBC", Immediate, 0xE9, 2}, {"SBC", ZeroPage, 0xE5, 2}, {"SBC", ZeroPageX, 0xF5, 2},
	{"SBC", Absolute, 0xED, 3}, {"SBC", AbsoluteX, 0xFD, 3}, {"SBC", AbsoluteY, 0xF9, 3},
	{"SBC", IndirectX, 0xE1, 2}, {"SBC", IndirectY, 0xF1, 2},

	{"STA", ZeroPage, 0x85, 2}, {"STA", ZeroPageX, 0x95, 2}, {"STA", Absolute, 0x8D, 3},
	{"STA", AbsoluteX, 0x9D, 3}, {"STA", AbsoluteY, 0x99, 3}, {"STA", IndirectX, 0x81, 2},
	{"STA", IndirectY, 0x91, 2},

	{"STX", ZeroPage, 0x86, 2}, {"STX", ZeroPageY, 0x96, 2}, {"STX", Absolute, 0x8E, 3},

	{"STY", ZeroPage, 0x84, 2}, {"STY", ZeroPageX, 0x94, 2}, {"STY", Absolute, 0x8C, 3},
}

// branchMnemonics names the instructions whose only addressing mode is
// Relative. invertedBranch maps each to the complementary-condition
// mnemonic used by relative-branch expansion (spec.md §4.7).
var branchMnemonics = map[string]bool{
	"BPL": true, "BMI": true, "BVC": true, "BVS": true,
	"BCC": true, "BCS": true, "BNE": true, "BEQ": true,
}

var invertedBranch = map[string]string{
	"BEQ": "BNE", "BNE": "BEQ",
	"BCC": "BCS", "BCS": "BCC",
	"BMI": "BPL", "BPL": "BMI",
	"BVC": "BVS", "BVS": "BVC",
}

// accumulatorOnlyMnemonics names instructions for which an empty operand
// and the literal "A" are synonyms for Accumulator mode (spec.md §9).
var accumulatorOnlyMnemonics = map[string]bool{
	"ASL": true, "LSR": true, "ROL": true, "ROR": true,
}

var opcodeIndex map[string]map[AddressingMode]OpcodeEntry

func init() {
	opcodeIndex = make(map[string]map[AddressingMode]OpcodeEntry)
	for _, e := range OpcodeTable {
		if opcodeIndex[e.Mnemonic] == nil {
			opcodeIndex[e.Mnemonic] = make(map[AddressingMode]OpcodeEntry)
		}
		opcodeIndex[e.Mnemonic][e.Mode] = e
	}
}

// lookupOpcode returns the catalogue entry for mnemonic in mode, or
// ok=false if that mnemonic does not admit that addressing mode.
func lookupOpcode(mnemonic string, mode AddressingMode) (OpcodeEntry, bool) {
	modes, ok := opcodeIndex[mnemonic]
	if !ok {
		return OpcodeEntry{}, false
	}
	e, ok := modes[mode]
	return e, ok
}

// isKnownMnemonic reports whether mnemonic appears anywhere in the
// catalogue, in any addressing mode.
func isKnownMnemonic(mnemonic string) bool {
	_, ok := opcodeIndex[mnemonic]
	return ok
}

func isBranchMnemonic(mnemonic string) bool {
	return branchMnemonics[mnemonic]
}

func isAccumulatorOnly(mnemonic string) bool {
	return accumulatorOnlyMnemonics[mnemonic]
}
