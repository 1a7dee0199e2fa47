package asm

import "strings"

// classifiedOperand is the result of parsing operand text into an
// addressing-mode shape (spec.md §4.6), before the width of a
// ZeroPage/Absolute-ambiguous operand has been decided. Width resolution
// needs the evaluated (or deferred) value of Expr, which only the
// assembler driver can produce, so Pending defers that decision.
type classifiedOperand struct {
	Mode          AddressingMode
	Expr          string
	Pending       bool // true: Mode is a placeholder; width still undecided
	IndexKind     byte // 0, 'X', or 'Y' — which indexed family Pending resolves into
	ForceZeroPage bool
	ForceAbsolute bool
}

// classifyOperand implements spec.md §4.6's addressing-mode classifier.
func classifyOperand(mnemonic, operand string) (classifiedOperand, error) {
	operand = strings.TrimSpace(operand)

	// Rule 1: empty operand.
	if operand == "" {
		if isAccumulatorOnly(mnemonic) {
			return classifiedOperand{Mode: Accumulator}, nil
		}
		return classifiedOperand{Mode: Implied}, nil
	}

	// Rule 2: literal "A" (case-insensitive) selects Accumulator mode.
	if len(operand) == 1 && (operand[0] == 'A' || operand[0] == 'a') {
		return classifiedOperand{Mode: Accumulator}, nil
	}

	// Rule 3: '#' prefix selects Immediate. Inside the remainder, '<' and
	// '>' are always byte-extraction, never a width force.
	if strings.HasPrefix(operand, "#") {
		return classifiedOperand{Mode: Immediate, Expr: operand[1:]}, nil
	}

	// Disambiguate the operand-wide force prefix from byte-extraction:
	// only applies when '<'/'>' is the very first character here (we
	// already excluded the '#' case above).
	forceZP, forceAbs := false, false
	if strings.HasPrefix(operand, "<") {
		forceZP = true
		operand = strings.TrimSpace(operand[1:])
	} else if strings.HasPrefix(operand, ">") {
		forceAbs = true
		operand = strings.TrimSpace(operand[1:])
	}

	// Rule 4: parenthesized forms select the Indirect family. Inside
	// parentheses, '<'/'>' is always byte-extraction.
	if strings.HasPrefix(operand, "(") {
		return classifyIndirect(operand)
	}

	// Rule 5/6: ",X" and ",Y" suffixes select an indexed family; width
	// (ZeroPage vs Absolute) is still undecided.
	if idx, ok := stripIndexSuffix(operand, 'X'); ok {
		return classifiedOperand{
			Mode: Absolute, Expr: idx, Pending: true, IndexKind: 'X',
			ForceZeroPage: forceZP, ForceAbsolute: forceAbs,
		}, nil
	}
	if idx, ok := stripIndexSuffix(operand, 'Y'); ok {
		return classifiedOperand{
			Mode: Absolute, Expr: idx, Pending: true, IndexKind: 'Y',
			ForceZeroPage: forceZP, ForceAbsolute: forceAbs,
		}, nil
	}

	// Rule 7: otherwise, branches are Relative; everything else is
	// ZeroPage-or-Absolute pending width resolution (this naturally
	// degrades to Absolute for JMP/JSR, which have no ZeroPage form).
	if isBranchMnemonic(mnemonic) {
		return classifiedOperand{Mode: Relative, Expr: operand}, nil
	}

	return classifiedOperand{
		Mode: Absolute, Expr: operand, Pending: true, IndexKind: 0,
		ForceZeroPage: forceZP, ForceAbsolute: forceAbs,
	}, nil
}

// classifyIndirect handles the three parenthesized forms: "(e)",
// "(e,X)", and "(e),Y".
func classifyIndirect(operand string) (classifiedOperand, error) {
	if !strings.HasPrefix(operand, "(") {
		return classifiedOperand{}, newErr(0, MalformedOperand, operand)
	}
	body := operand[1:]

	if strings.HasSuffix(body, "),Y") || strings.HasSuffix(body, "),y") {
		inner := strings.TrimSuffix(body, body[len(body)-3:])
		return classifiedOperand{Mode: IndirectY, Expr: strings.TrimSpace(inner)}, nil
	}
	if strings.HasSuffix(body, ",X)") || strings.HasSuffix(body, ",x)") {
		inner := body[:len(body)-3]
		return classifiedOperand{Mode: IndirectX, Expr: strings.TrimSpace(inner)}, nil
	}
	if strings.HasSuffix(body, ")") {
		inner := body[:len(body)-1]
		return classifiedOperand{Mode: Indirect, Expr: strings.TrimSpace(inner)}, nil
	}
	return classifiedOperand{}, newErr(0, MalformedOperand, operand)
}

// stripIndexSuffix reports whether operand ends with ",X" or ",Y"
// (matching the requested index letter case-insensitively) and returns
// the expression text with the suffix removed.
func stripIndexSuffix(operand string, letter byte) (string, bool) {
	if len(operand) < 2 {
		return "", false
	}
	last := operand[len(operand)-1]
	if last != letter && last != letter+('a'-'A') {
		return "", false
	}
	if operand[len(operand)-2] != ',' {
		return "", false
	}
	return strings.TrimSpace(operand[:len(operand)-2]), true
}

// resolveWidth decides, for a Pending classified operand, whether the
// ZeroPage or Absolute family applies, given the operand's evaluated
// value (if resolved yet) per spec.md §4.6's width-selection rules.
func resolveWidth(mnemonic string, c classifiedOperand, value uint32, resolved bool) AddressingMode {
	zpMode, absMode := familyModes(c.IndexKind)

	if c.ForceZeroPage {
		return zpMode
	}
	if c.ForceAbsolute {
		return absMode
	}
	if resolved && value <= 0xFF {
		if _, ok := lookupOpcode(mnemonic, zpMode); ok {
			return zpMode
		}
	}
	return absMode
}

func familyModes(indexKind byte) (zp, abs AddressingMode) {
	switch indexKind {
	case 'X':
		return ZeroPageX, AbsoluteX
	case 'Y':
		return ZeroPageY, AbsoluteY
	default:
		return ZeroPage, Absolute
	}
}
