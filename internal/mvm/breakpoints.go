package mvm

import "fmt"

// Breakpoint is a single installed breakpoint, identified by its id (the
// BP token's operand, or the host's choice) and the token index it is
// installed at.
type Breakpoint struct {
	ID      uint32
	AtToken int
}

// Summary renders bp for trace and CLI output.
func (bp *Breakpoint) Summary() string {
	if bp == nil {
		return "<nil>"
	}
	return fmt.Sprintf("#%d @token %d", bp.ID, bp.AtToken)
}

// Breakpoints owns one VM's installed breakpoints. Each VM instance holds
// its own Breakpoints so that parallel instances never contaminate each
// other's debug state - the reference implementation's process-wide
// breakpoint table is not carried forward.
type Breakpoints struct {
	list []*Breakpoint
}

// NewBreakpoints creates an empty breakpoint set.
func NewBreakpoints() *Breakpoints {
	return &Breakpoints{}
}

// Install records a breakpoint at the given token index with the given
// program-supplied id, replacing any existing breakpoint with the same id.
func (bps *Breakpoints) Install(id uint32, atToken int) *Breakpoint {
	bp := &Breakpoint{ID: id, AtToken: atToken}
	for i, existing := range bps.list {
		if existing.ID == id {
			bps.list[i] = bp
			return bp
		}
	}
	bps.list = append(bps.list, bp)
	return bp
}

// HitAt reports whether any installed breakpoint targets tokenIndex.
func (bps *Breakpoints) HitAt(tokenIndex int) (*Breakpoint, bool) {
	for _, bp := range bps.list {
		if bp.AtToken == tokenIndex {
			return bp, true
		}
	}
	return nil, false
}

// All returns every installed breakpoint, in installation order.
func (bps *Breakpoints) All() []*Breakpoint {
	return append([]*Breakpoint(nil), bps.list...)
}

// Clear removes every installed breakpoint.
func (bps *Breakpoints) Clear() {
	bps.list = nil
}
