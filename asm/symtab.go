package asm

// SymbolKind distinguishes a label (defined at the PC in effect when its
// line is processed) from a constant (defined immediately, no forward
// reference allowed).
type SymbolKind int

const (
	Label SymbolKind = iota
	Constant
)

// Symbol is a resolved name in the assembler's symbol table. Redefining a
// name is an error; the only later change to a Value is the shift applied
// by relative-branch expansion (shiftSymbolsAfter).
type Symbol struct {
	Name  string
	Value uint32
	Kind  SymbolKind
}

// FixupKind distinguishes the width and encoding of a deferred patch.
type FixupKind int

const (
	Relative8 FixupKind = iota
	ZeroPage8
	Absolute16
	Word16Data
	Byte8Data
	LowByte
	HighByte
	ExpandedJumpTarget
)

// Fixup is a deferred reference produced when an operand expression names
// a not-yet-defined label, and for every relative branch and expanded
// branch's JMP target. It records enough to re-evaluate the expression and
// patch the output buffer once the label is known.
type Fixup struct {
	Offset int       // output-buffer offset of the first byte to patch
	Kind   FixupKind
	Expr   exprNode
	PC     uint32 // PC of the instruction/directive that produced the fixup
	Line   int
}

// SymbolTable maps identifiers to resolved values and holds the list of
// pending fixups produced while those values were still unknown.
type SymbolTable struct {
	syms   map[string]Symbol
	fixups []Fixup
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{syms: make(map[string]Symbol)}
}

// Define inserts name with the given kind and value. Redefinition of an
// existing name is always an error, regardless of kind.
func (t *SymbolTable) Define(name string, kind SymbolKind, value uint32, line int) error {
	if _, exists := t.syms[name]; exists {
		return newErr(line, DuplicateSymbol, name)
	}
	t.syms[name] = Symbol{Name: name, Value: value, Kind: kind}
	return nil
}

// Lookup returns the stored value for name, or ok=false if undefined.
func (t *SymbolTable) Lookup(name string) (uint32, bool) {
	s, ok := t.syms[name]
	return s.Value, ok
}

// Symbols returns a snapshot copy of every defined symbol, keyed by name.
func (t *SymbolTable) Symbols() map[string]Symbol {
	out := make(map[string]Symbol, len(t.syms))
	for k, v := range t.syms {
		out[k] = v
	}
	return out
}

// EnqueueFixup appends a deferred patch to be resolved in the second
// pass.
func (t *SymbolTable) EnqueueFixup(f Fixup) {
	t.fixups = append(t.fixups, f)
}

// DrainFixups returns the queued fixups in the order they were enqueued
// and clears the queue.
func (t *SymbolTable) DrainFixups() []Fixup {
	out := t.fixups
	t.fixups = nil
	return out
}

// reset clears the table back to empty. (Assembler.Reset replaces its table
// with NewSymbolTable instead.)
func (t *SymbolTable) reset() {
	t.syms = make(map[string]Symbol)
	t.fixups = nil
}

// shiftSymbolsAfter adds delta to the value of every symbol whose value is
// strictly greater than threshold. Used by relative-branch expansion,
// which inserts bytes mid-buffer and must keep every address-valued symbol
// consistent with the new layout.
func (t *SymbolTable) shiftSymbolsAfter(threshold uint32, delta uint32) {
	for k, s := range t.syms {
		if s.Value > threshold {
			s.Value += delta
			t.syms[k] = s
		}
	}
}
