package mvalidate

import (
	"fmt"

	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
)

// blockInfo records, for each B token index, its matching E index, and
// for each E token index, its matching B index.
type blockInfo struct {
	matchE map[int]int // B index -> E index
	matchB map[int]int // E index -> B index
}

// checkBlockMatching verifies B/E form a properly nested tree with no
// unmatched end. Tree depth is unbounded.
func checkBlockMatching(p *mprogram.Program) (*blockInfo, error) {
	info := &blockInfo{matchE: map[int]int{}, matchB: map[int]int{}}
	var stack []int
	for i, t := range p.Tokens {
		switch misa.Canonical(t.Op) {
		case misa.OpB:
			stack = append(stack, i)
		case misa.OpE:
			if len(stack) == 0 {
				return nil, &Error{Check: "block-matching", TokenAt: i, Message: "unmatched E"}
			}
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			info.matchE[b] = i
			info.matchB[i] = b
		}
	}
	if len(stack) != 0 {
		return nil, &Error{Check: "block-matching", TokenAt: stack[0], Message: "unmatched B"}
	}
	return info, nil
}

// checkIndexBounds verifies every V/LET index < 64 and every SET index <
// 128.
func checkIndexBounds(p *mprogram.Program) error {
	for i, t := range p.Tokens {
		switch misa.Canonical(t.Op) {
		case misa.OpV, misa.OpLET:
			if t.Index >= maxLocals {
				return &Error{Check: "index-bounds", TokenAt: i, Message: fmt.Sprintf("local index %d >= %d", t.Index, maxLocals)}
			}
		case misa.OpSET:
			if t.Index >= maxGlobals {
				return &Error{Check: "index-bounds", TokenAt: i, Message: fmt.Sprintf("global index %d >= %d", t.Index, maxGlobals)}
			}
		}
	}
	return nil
}

// checkStructural verifies IF (two blocks back-to-back) and any surviving
// WH/FR (programs validated before lowering, e.g. under a direct-execution
// policy, or IF bodies containing un-lowered loops is impossible since
// lowering runs first - but a hand-built Program bypassing the loader could
// still present one) are followed by the expected B...E layout.
func checkStructural(p *mprogram.Program, blocks *blockInfo) error {
	for i, t := range p.Tokens {
		switch misa.Canonical(t.Op) {
		case misa.OpIF:
			thenB := i + 1
			if thenB >= len(p.Tokens) || p.Tokens[thenB].Op != misa.OpB {
				return &Error{Check: "structural", TokenAt: i, Message: "IF not followed by B"}
			}
			thenE, ok := blocks.matchE[thenB]
			if !ok {
				return &Error{Check: "structural", TokenAt: i, Message: "IF then-block has no matching E"}
			}
			elseB := thenE + 1
			if elseB >= len(p.Tokens) || p.Tokens[elseB].Op != misa.OpB {
				return &Error{Check: "structural", TokenAt: i, Message: "IF else-block missing (then-block must be followed immediately by an else B)"}
			}
			if _, ok := blocks.matchE[elseB]; !ok {
				return &Error{Check: "structural", TokenAt: i, Message: "IF else-block has no matching E"}
			}
		case misa.OpWH, misa.OpFR:
			openB := i + 1
			if openB >= len(p.Tokens) || p.Tokens[openB].Op != misa.OpB {
				return &Error{Check: "structural", TokenAt: i, Message: fmt.Sprintf("%s not followed by B", misa.Name(t.Op))}
			}
			if _, ok := blocks.matchE[openB]; !ok {
				return &Error{Check: "structural", TokenAt: i, Message: fmt.Sprintf("%s body has no matching E", misa.Name(t.Op))}
			}
		}
	}
	return nil
}
