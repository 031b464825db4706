package mvalidate

import (
	"fmt"

	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
)

// capWords is the number of 64-bit words backing a 256-bit capability
// bitmap (capability ids 0-255).
const capWords = 4

type capSet [capWords]uint64

func (c capSet) has(id uint32) bool {
	return c[id/64]&(1<<(id%64)) != 0
}

func (c capSet) with(id uint32) capSet {
	c[id/64] |= 1 << (id % 64)
	return c
}

func (c capSet) and(o capSet) capSet {
	var r capSet
	for i := range c {
		r[i] = c[i] & o[i]
	}
	return r
}

// checkCapabilityDominance verifies every IOW/IOR on device d is preceded,
// on every path from program entry, by a GTWAY granting capability d.
// Merge points (IF's two edges, a loop's back edge reconverging with its
// forward entry) take the AND of incoming sets, so a capability must
// dominate - hold on every path, not just one.
func checkCapabilityDominance(p *mprogram.Program, blocks *blockInfo) error {
	funcEntries, err := collectFunctionEntries(p, blocks)
	if err != nil {
		return err
	}

	if err := walkCapabilities(p, blocks, 0, capSet{}, "top-level"); err != nil {
		return err
	}
	for _, fe := range funcEntries {
		// A called function's capability state at entry is unknown in
		// general (call sites vary), so it is walked from an empty set:
		// every IO op inside a function body must be preceded by its own
		// GTWAY, independent of the caller's grants.
		if err := walkCapabilities(p, blocks, fe.bodyStart, capSet{}, fmt.Sprintf("fn@%d", fe.fnIdx)); err != nil {
			return err
		}
	}
	return nil
}

func walkCapabilities(p *mprogram.Program, blocks *blockInfo, start int, startCaps capSet, label string) error {
	state := map[int]capSet{start: startCaps}
	queue := []int{start}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		caps := state[i]
		if i < 0 || i >= len(p.Tokens) {
			continue
		}
		t := p.Tokens[i]
		op := misa.Canonical(t.Op)

		out := caps
		switch op {
		case misa.OpGTWAY:
			out = caps.with(t.Index)
		case misa.OpIOW, misa.OpIOR:
			if !caps.has(t.Index) {
				return &Error{Check: "capability-dominance", TokenAt: i, Message: fmt.Sprintf("%s: device %d not granted on all paths", label, t.Index)}
			}
		}

		for _, s := range successors(p, blocks, i) {
			if prev, ok := state[s]; ok {
				merged := prev.and(out)
				if merged != prev {
					state[s] = merged
					queue = append(queue, s)
				}
				continue
			}
			state[s] = out
			queue = append(queue, s)
		}
	}
	return nil
}
