package mvalidate

import (
	"fmt"

	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
)

// checkJumpTargets verifies every JZ/JNZ/JMP's resolved target lands on a
// real token index, and every CL's byte-offset target lands on a token
// boundary and names an FN.
func checkJumpTargets(p *mprogram.Program) error {
	n := p.TokenCount()
	for i, t := range p.Tokens {
		switch misa.Canonical(t.Op) {
		case misa.OpJZ, misa.OpJNZ, misa.OpJMP:
			target := jumpTarget(i, t.JumpOffset)
			if target < 0 || target >= n {
				return &Error{Check: "jump-targets", TokenAt: i, Message: fmt.Sprintf("jump target %d out of range [0,%d)", target, n)}
			}
		case misa.OpCL:
			idx, ok := callTargetToken(p, t.CallTarget)
			if !ok {
				return &Error{Check: "jump-targets", TokenAt: i, Message: fmt.Sprintf("call target byte offset %d is not a token boundary", t.CallTarget)}
			}
			if misa.Canonical(p.Tokens[idx].Op) != misa.OpFN {
				return &Error{Check: "jump-targets", TokenAt: i, Message: fmt.Sprintf("call target token %d is not FN", idx)}
			}
		}
	}
	return nil
}
