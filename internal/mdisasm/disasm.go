// Package mdisasm renders a loaded program as human-readable text, one
// line per token, resolving jump and call operands to absolute token
// indices. It never mutates the program and never panics on an
// out-of-range target, even over an unvalidated program - grounded on
// original_source/src/disasm.c's label-then-print two-pass structure.
package mdisasm

import (
	"fmt"
	"strings"

	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
)

// Line is one disassembled token.
type Line struct {
	TokenIndex int
	ByteOffset int
	Mnemonic   string
	Operand    string
}

// String renders l in the `<index> <offset> <mnemonic> <operand>` layout.
func (l Line) String() string {
	if l.Operand == "" {
		return fmt.Sprintf("%4d  %6d  %s", l.TokenIndex, l.ByteOffset, l.Mnemonic)
	}
	return fmt.Sprintf("%4d  %6d  %-7s %s", l.TokenIndex, l.ByteOffset, l.Mnemonic, l.Operand)
}

// Disassemble produces one Line per token of p.
func Disassemble(p *mprogram.Program) []Line {
	lines := make([]Line, 0, p.TokenCount())
	for i, t := range p.Tokens {
		lines = append(lines, Line{
			TokenIndex: i,
			ByteOffset: t.ByteOffset,
			Mnemonic:   mnemonic(t),
			Operand:    operand(p, i, t),
		})
	}
	return lines
}

// Text renders the full listing as a single string, one line per token.
func Text(p *mprogram.Program) string {
	var sb strings.Builder
	for _, l := range Disassemble(p) {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func mnemonic(t mprogram.Token) string {
	if alias, ok := misa.LegacyAlias(t.Op); ok {
		return fmt.Sprintf("%s(legacy %s)", misa.Name(t.Op), misa.Name(alias))
	}
	return misa.Name(t.Op)
}

func operand(p *mprogram.Program, i int, t mprogram.Token) string {
	switch misa.Shape(t.Op) {
	case misa.ShapeLiteral:
		return fmt.Sprintf("%d", t.Literal)
	case misa.ShapeIndex:
		return fmt.Sprintf("%d", t.Index)
	case misa.ShapeArity:
		return fmt.Sprintf("arity=%d", t.Arity)
	case misa.ShapeCall:
		target := targetLabel(p, int(t.CallTarget))
		return fmt.Sprintf("%s, %d args", target, t.CallArgc)
	case misa.ShapeJump:
		target := i + 1 + int(t.JumpOffset)
		return fmt.Sprintf("-> %s", tokenLabel(p, target))
	default:
		return ""
	}
}

func tokenLabel(p *mprogram.Program, target int) string {
	if target < 0 || target >= p.TokenCount() {
		return fmt.Sprintf("<invalid:%d>", target)
	}
	return fmt.Sprintf("L%d", target)
}

func targetLabel(p *mprogram.Program, byteOffset int) string {
	idx := p.TokenAtByte(byteOffset)
	if idx < 0 {
		return fmt.Sprintf("<invalid byte %d>", byteOffset)
	}
	return fmt.Sprintf("L%d", idx)
}
