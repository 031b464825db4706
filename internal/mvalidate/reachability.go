package mvalidate

import (
	"fmt"

	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
)

// checkReachability verifies every token is reachable from program entry
// or from some FN's body entry. A token reachable only
// by falling out of the byte stream past a HALT/RT with no incoming edge
// is dead code and rejected, since the interpreter would never execute it
// and an auditor reviewing the disassembly could be misled by its presence.
func checkReachability(p *mprogram.Program, blocks *blockInfo) error {
	funcEntries, err := collectFunctionEntries(p, blocks)
	if err != nil {
		return err
	}

	visited := make([]bool, p.TokenCount())
	walkReach(p, blocks, 0, visited)
	for _, fe := range funcEntries {
		// The FN's own opening B and closing E are structural scaffolding:
		// CL enters at bodyStart (past the B) and RT returns before ever
		// reaching the E, and FN's own run-time skip jumps straight past
		// both. Neither is ever fetched by the dispatch loop, but both are
		// required by block-matching for every valid function - mark them
		// directly rather than flagging every function definition as dead
		// code.
		visited[fe.fnIdx+1] = true
		visited[fe.closeE] = true
		walkReach(p, blocks, fe.bodyStart, visited)
	}

	for i, t := range p.Tokens {
		if visited[i] {
			continue
		}
		return &Error{Check: "reachability", TokenAt: i, Message: fmt.Sprintf("unreachable %s", misa.Name(t.Op))}
	}
	return nil
}

func walkReach(p *mprogram.Program, blocks *blockInfo, start int, visited []bool) {
	queue := []int{start}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if i < 0 || i >= len(p.Tokens) || visited[i] {
			continue
		}
		visited[i] = true
		queue = append(queue, successors(p, blocks, i)...)
	}
}
