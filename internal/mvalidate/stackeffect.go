package mvalidate

import (
	"fmt"

	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
)

// checkStackEffect runs the symbolic stack-height tracker over every
// reachable path. Each function body is walked as an
// independent subgraph seeded at height 0, since CL zeroes locals but the
// data stack is shared and CL's own net effect (pop argc, eventually push
// one return value) is all the top-level walk needs to know about a call.
func checkStackEffect(p *mprogram.Program, blocks *blockInfo) error {
	funcEntries, err := collectFunctionEntries(p, blocks)
	if err != nil {
		return err
	}

	if err := walkStackEffect(p, blocks, 0, 0, "top-level"); err != nil {
		return err
	}
	for _, fe := range funcEntries {
		if err := walkStackEffect(p, blocks, fe.bodyStart, 0, fmt.Sprintf("fn@%d", fe.fnIdx)); err != nil {
			return err
		}
	}
	return nil
}

type funcEntry struct {
	fnIdx     int
	bodyStart int
	closeE    int
}

func collectFunctionEntries(p *mprogram.Program, blocks *blockInfo) (map[int]funcEntry, error) {
	out := map[int]funcEntry{}
	for i, t := range p.Tokens {
		if misa.Canonical(t.Op) != misa.OpFN {
			continue
		}
		bodyStart, closeE, ok := functionEntry(p, blocks, i)
		if !ok {
			return nil, &Error{Check: "stack-effect", TokenAt: i, Message: "FN has no valid body"}
		}
		out[i] = funcEntry{fnIdx: i, bodyStart: bodyStart, closeE: closeE}
	}
	return out, nil
}

// walkStackEffect is a worklist BFS propagating expected stack height
// across CFG edges, starting from `start` at `startHeight`. Mismatches at
// a merge (two paths reaching the same token with different heights,
// including IF's two entry edges and a loop's back edge reconverging with
// its forward entry) fail with "branch stack mismatch". Underflow at any
// opcode fails with StackUnderflow-equivalent BadArg.
func walkStackEffect(p *mprogram.Program, blocks *blockInfo, start, startHeight int, label string) error {
	heights := map[int]int{start: startHeight}
	queue := []int{start}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		h := heights[i]
		if i < 0 || i >= len(p.Tokens) {
			continue
		}
		t := p.Tokens[i]
		op := misa.Canonical(t.Op)

		outHeight := h
		switch op {
		case misa.OpCL:
			argc := int(t.CallArgc)
			if h < argc {
				return &Error{Check: "stack-effect", TokenAt: i, Message: fmt.Sprintf("%s: CL underflow (have %d, need %d)", label, h, argc)}
			}
			outHeight = h - argc + 1
		case misa.OpFN:
			outHeight = h
		default:
			pop, push, ok := Arity(op)
			if !ok {
				return &Error{Check: "stack-effect", TokenAt: i, Message: fmt.Sprintf("%s: no arity for opcode %s", label, misa.Name(op))}
			}
			if h < pop {
				return &Error{Check: "stack-effect", TokenAt: i, Message: fmt.Sprintf("%s: stack underflow (have %d, need %d)", label, h, pop)}
			}
			outHeight = h - pop + push
		}

		if op == misa.OpRT {
			if h != 1 {
				return &Error{Check: "stack-effect", TokenAt: i, Message: fmt.Sprintf("%s: RT expects exactly 1 value on stack, has %d", label, h)}
			}
			continue
		}

		for _, s := range successors(p, blocks, i) {
			if prev, ok := heights[s]; ok {
				if prev != outHeight {
					return &Error{Check: "stack-effect", TokenAt: s, Message: fmt.Sprintf("%s: branch stack mismatch (%d vs %d)", label, prev, outHeight)}
				}
				continue
			}
			heights[s] = outHeight
			queue = append(queue, s)
		}
	}
	return nil
}
