package mvm

import (
	"github.com/MYJ-GOD/M-Language-Core/internal/mfault"
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
)

// Run dispatches opcodes until HALT, a trap, a breakpoint, a single-step
// pause, or (if set) step_limit is hit.
func (vm *VM) Run() *mfault.Fault {
	vm.mode = ModeRunning
	for vm.mode == ModeRunning {
		vm.dispatchOne()
	}
	return vm.fault
}

// Step dispatches exactly one opcode and returns.
func (vm *VM) Step() *mfault.Fault {
	vm.mode = ModeRunning
	vm.dispatchOne()
	return vm.fault
}

// dispatchOne implements the nine-step fetch/check/execute procedure. It
// leaves vm.mode set to Running (continue), Stopped (HALT, breakpoint,
// single-step pause) or Faulted (trap).
func (vm *VM) dispatchOne() {
	// Resuming after a Breakpoint/DebugStep pause clears that pause.
	if vm.fault != nil && vm.fault.Kind.Debug() {
		vm.fault = nil
	}

	wasArmed := vm.singleStep
	vm.singleStep = false

	if bp, hit := vm.breakpoints.HitAt(vm.pc); hit && vm.pc != vm.resumeSkipToken {
		vm.fault = mfault.Newf(mfault.Breakpoint, vm.program.ByteOffsetOf(vm.pc), vm.pc, "breakpoint %s", bp.Summary())
		vm.mode = ModeStopped
		vm.resumeSkipToken = vm.pc
		return
	}
	vm.resumeSkipToken = -1

	if vm.pc < 0 || vm.pc >= vm.program.TokenCount() {
		vm.trap(mfault.New(mfault.PcOob, vm.program.ByteLen(), vm.pc))
		return
	}

	vm.steps++
	if vm.stepLimit > 0 && vm.steps > vm.stepLimit {
		vm.trap(mfault.New(mfault.StepLimit, vm.program.ByteOffsetOf(vm.pc), vm.pc))
		return
	}

	opIndex := vm.pc
	vm.lastPC = opIndex
	token := vm.program.Tokens[opIndex]
	vm.pc++

	if !misa.Known(token.Op) {
		vm.trap(mfault.New(mfault.UnknownOp, vm.program.ByteOffsetOf(opIndex), opIndex))
		return
	}

	if vm.gasLimit > 0 {
		vm.gas += misa.GasCost(token.Op)
		if vm.gas > vm.gasLimit {
			vm.trap(mfault.New(mfault.GasExhausted, vm.program.ByteOffsetOf(opIndex), opIndex))
			return
		}
	}

	if fault := vm.dispatch(opIndex, token); fault != nil {
		vm.trap(fault)
		return
	}

	if vm.mode != ModeRunning {
		// HALT (or any handler that stops the VM directly) already set mode.
		return
	}

	if wasArmed {
		vm.trap(mfault.New(mfault.DebugStep, vm.program.ByteOffsetOf(vm.pc), vm.pc))
	}
}

func (vm *VM) trap(f *mfault.Fault) {
	vm.fault = f
	if f.Kind.Debug() {
		vm.mode = ModeStopped
		vm.resumeSkipToken = f.OpIndex
	} else {
		vm.mode = ModeFaulted
	}
}
