package mvm

import (
	"github.com/MYJ-GOD/M-Language-Core/internal/mfault"
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
)

// traceCap bounds the number of rows Simulate records; earliest rows are
// retained and later ones truncated without wrapping.
const traceCap = 1024

// TraceRow is one recorded step of a Simulate run.
type TraceRow struct {
	Step      int
	PCBefore  int
	Opcode    misa.Op
	SPAfter   int
	TopAfter  int64
	HasTop    bool
}

// Result is the outcome of a Simulate run.
type Result struct {
	Completed bool
	Halted    bool
	Fault     *mfault.Fault
	Steps     int
	SP        int
	TopValue  int64
	HasTop    bool
	Trace     []TraceRow
}

// Simulate wraps Run, recording one TraceRow per dispatched step up to
// traceCap rows. The VM must be freshly reset or newly constructed;
// Simulate drives it to completion exactly like Run.
func (vm *VM) Simulate() Result {
	var trace []TraceRow
	vm.mode = ModeRunning
	for vm.mode == ModeRunning {
		pcBefore := vm.pc
		stepBefore := vm.steps
		vm.dispatchOne()
		if vm.steps == stepBefore {
			// dispatchOne returned without consuming a step (breakpoint /
			// PcOob-before-counting); nothing to record.
			continue
		}
		if len(trace) < traceCap {
			top, hasTop := vm.peek()
			row := TraceRow{
				Step:     vm.steps,
				PCBefore: pcBefore,
				SPAfter:  len(vm.stack),
				HasTop:   hasTop,
			}
			if pcBefore >= 0 && pcBefore < vm.program.TokenCount() {
				row.Opcode = vm.program.Tokens[pcBefore].Op
			}
			if hasTop {
				row.TopAfter = top.AsInt()
			}
			trace = append(trace, row)
		}
	}

	res := Result{
		Completed: vm.fault == nil,
		Halted:    vm.mode == ModeStopped,
		Fault:     vm.fault,
		Steps:     vm.steps,
		SP:        len(vm.stack),
		Trace:     trace,
	}
	if top, ok := vm.peek(); ok {
		res.TopValue = top.AsInt()
		res.HasTop = true
	}
	return res
}
