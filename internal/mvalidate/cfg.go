package mvalidate

import (
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
)

// successors returns every token index control can flow to immediately
// after token i, per the interpreter's own control-flow contracts. FN's
// run-time skip and IF's structural skip are both modeled here so the
// validator's graph matches the interpreter's actual behavior exactly.
func successors(p *mprogram.Program, blocks *blockInfo, i int) []int {
	n := len(p.Tokens)
	t := p.Tokens[i]
	switch misa.Canonical(t.Op) {
	case misa.OpHALT, misa.OpRT:
		return nil
	case misa.OpJMP:
		target := jumpTarget(i, t.JumpOffset)
		if target < 0 || target >= n {
			return nil // checkJumpTargets reports this; don't propagate
		}
		return []int{target}
	case misa.OpJZ, misa.OpJNZ:
		out := []int{}
		if i+1 < n {
			out = append(out, i+1)
		}
		target := jumpTarget(i, t.JumpOffset)
		if target >= 0 && target < n {
			out = append(out, target)
		}
		return out
	case misa.OpIF:
		thenB := i + 1
		if thenB >= n || p.Tokens[thenB].Op != misa.OpB {
			return nil
		}
		thenE, ok := blocks.matchE[thenB]
		if !ok {
			return nil
		}
		elseB := thenE + 1
		out := []int{}
		if thenB < n {
			out = append(out, thenB) // true path: fall through into then-block
		}
		if elseB < n {
			out = append(out, elseB) // false path: skip directly to else-block
		}
		return out
	case misa.OpFN:
		// Run-time skip: walk to the matching E (of the FN's own B) and
		// continue past it. The body is only reachable via CL.
		openB := i + 1
		if openB < n && p.Tokens[openB].Op == misa.OpB {
			if e, ok := blocks.matchE[openB]; ok && e+1 < n {
				return []int{e + 1}
			}
		}
		return nil
	default:
		if i+1 < n {
			return []int{i + 1}
		}
		return nil
	}
}

// jumpTarget resolves a JZ/JNZ/JMP token's offset to an absolute token
// index: offsets are token-index-relative to the token after the jump.
func jumpTarget(i int, offset int64) int {
	return i + 1 + int(offset)
}

// functionEntry returns, for an FN token at i, the index of its first body
// token (after arity operand and opening B) and the matching closing E.
func functionEntry(p *mprogram.Program, blocks *blockInfo, fnIdx int) (bodyStart, closeE int, ok bool) {
	openB := fnIdx + 1
	if openB >= len(p.Tokens) || p.Tokens[openB].Op != misa.OpB {
		return 0, 0, false
	}
	e, ok := blocks.matchE[openB]
	if !ok {
		return 0, 0, false
	}
	return openB + 1, e, true
}

// callTargetToken resolves a CL token's byte-offset operand to the FN
// token index at that offset.
func callTargetToken(p *mprogram.Program, byteOffset uint32) (int, bool) {
	idx := p.TokenAtByte(int(byteOffset))
	if idx < 0 {
		return 0, false
	}
	return idx, true
}
