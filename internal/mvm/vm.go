// Package mvm implements the interpreter: the dispatch loop, per-opcode
// handlers, frame/call discipline, heap and collector, capability-gated
// I/O, resource limits, and the debug/trace surface.
package mvm

import (
	"fmt"

	"github.com/MYJ-GOD/M-Language-Core/internal/mfault"
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvalue"
)

// Mode is the VM's coarse execution state.
type Mode int

const (
	ModeStopped Mode = iota
	ModeRunning
	ModeFaulted
)

func (m Mode) String() string {
	switch m {
	case ModeStopped:
		return "Stopped"
	case ModeRunning:
		return "Running"
	case ModeFaulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

const (
	numLocals  = 64
	numGlobals = 128

	// StackMax is the hard ceiling no stack_limit may exceed.
	StackMax = 4096

	defaultStepLimit      = 100_000
	defaultGasLimit       = 0 // 0 disables gas metering
	defaultCallDepthLimit = 32
	defaultStackLimit     = 256
)

type frame struct {
	locals  [numLocals]mvalue.Value
	retPC   int // token index to resume the caller at
}

// VM is one interpreter instance over a single loaded program. A VM owns
// its stacks, locals, globals, capability set, heap, and breakpoints
// exclusively - it is never safe to share one instance across goroutines
// without external exclusion.
type VM struct {
	program *mprogram.Program
	cb      Callbacks

	stack   []mvalue.Value
	locals  [numLocals]mvalue.Value
	globals [numGlobals]mvalue.Value
	frames  []frame

	caps capSet

	pc        int // next token index to execute
	lastPC    int // token index the most recently dispatched opcode started at
	steps     int
	gas       int
	callDepth int

	mode  Mode
	fault *mfault.Fault

	stepLimit      int
	gasLimit       int
	callDepthLimit int
	stackLimit     int

	heap        *heap
	breakpoints *Breakpoints
	singleStep  bool

	// resumeSkipToken suppresses a breakpoint/single-step re-trigger on the
	// exact token a prior pause stopped at, so calling Run again actually
	// advances past it instead of pausing forever in place.
	resumeSkipToken int
}

// New constructs a VM over a loaded program, wired to the given host
// callbacks, in Stopped mode with default resource limits.
func New(program *mprogram.Program, cb Callbacks) (*VM, error) {
	if program == nil {
		return nil, fmt.Errorf("mvm: nil program")
	}
	vm := &VM{
		program:        program,
		cb:             cb,
		stepLimit:      defaultStepLimit,
		gasLimit:       defaultGasLimit,
		callDepthLimit: defaultCallDepthLimit,
		stackLimit:     defaultStackLimit,
		heap:           newHeap(),
		breakpoints:    NewBreakpoints(),
	}
	vm.resetState()
	return vm, nil
}

// SetStepLimit bounds the number of dispatched opcodes per run (0 disables).
func (vm *VM) SetStepLimit(n int) { vm.stepLimit = n }

// SetGasLimit bounds cumulative gas debited per run (0 disables metering).
func (vm *VM) SetGasLimit(n int) { vm.gasLimit = n }

// SetCallDepthLimit bounds nested CL depth.
func (vm *VM) SetCallDepthLimit(n int) { vm.callDepthLimit = n }

// SetStackLimit bounds the data stack's height, clamped to StackMax.
func (vm *VM) SetStackLimit(n int) {
	if n > StackMax {
		n = StackMax
	}
	vm.stackLimit = n
}

// AuthorizeCapability grants capability id exactly as a GTWAY token
// would, without consuming a step or requiring the program to carry its
// own GTWAY token. Intended for host-side pre-authorization (session
// config), not for opcode handlers.
func (vm *VM) AuthorizeCapability(id uint32) error {
	if id > 255 {
		return fmt.Errorf("mvm: capability id %d out of range [0,255]", id)
	}
	vm.caps.set(id)
	return nil
}

// EnableAutoGC turns on implicit mark-sweep collection once the
// allocation counter crosses its threshold.
func (vm *VM) EnableAutoGC(enabled bool) { vm.heap.autoGC = enabled }

// Mode reports the VM's current state-machine mode.
func (vm *VM) Mode() Mode { return vm.mode }

// Fault returns the fault that stopped the last run, or nil.
func (vm *VM) Fault() *mfault.Fault { return vm.fault }

// Steps returns the number of opcodes dispatched since the last reset.
func (vm *VM) Steps() int { return vm.steps }

// Reset returns the VM to Stopped: clears stacks, counters, fault, and
// capabilities; preserves the loaded program, limits, host callbacks,
// breakpoints, and the allocation list.
func (vm *VM) Reset() {
	vm.resetState()
}

func (vm *VM) resetState() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.locals = [numLocals]mvalue.Value{}
	vm.globals = [numGlobals]mvalue.Value{}
	vm.caps = capSet{}
	vm.pc = 0
	vm.lastPC = 0
	vm.steps = 0
	vm.gas = 0
	vm.callDepth = 0
	vm.mode = ModeStopped
	vm.fault = nil
	vm.singleStep = false
	vm.resumeSkipToken = -1
}

// Close releases the heap's allocation list deterministically. Go has no
// destructors; this matches the reference's explicit `destroy` entry
// point rather than relying on the garbage collector to reclaim it.
func (vm *VM) Close() {
	vm.heap.reset()
}

// Capabilities returns a read-only snapshot of the 256-bit capability
// bitmap. It performs no mutation and is not reachable from any opcode
// handler - a host-introspection convenience, not part of the core ABI.
func (vm *VM) Capabilities() [256]bool {
	var out [256]bool
	for id := 0; id < 256; id++ {
		out[id] = vm.caps.has(uint32(id))
	}
	return out
}

// StackSnapshot returns a copy of the current data stack, bottom first.
func (vm *VM) StackSnapshot() []mvalue.Value {
	return append([]mvalue.Value(nil), vm.stack...)
}

// FaultString renders the current fault's stable display name, or "None".
func (vm *VM) FaultString() string {
	if vm.fault == nil {
		return mfault.None.String()
	}
	return vm.fault.Kind.String()
}

// OpcodeName returns op's mnemonic. Aliases keep their own names (GET,
// PUT, IDX.legacy, ...) rather than their canonical opcode's.
func (vm *VM) OpcodeName(op misa.Op) string {
	return misa.Name(op)
}

// Breakpoints exposes this VM's own breakpoint collection. Scoped per
// instance, never process-wide, so concurrent VMs never share state.
func (vm *VM) Breakpoints() *Breakpoints { return vm.breakpoints }

func (vm *VM) push(v mvalue.Value) *mfault.Fault {
	if len(vm.stack) >= vm.stackLimit {
		return mfault.New(mfault.StackOverflow, vm.currentByteOffset(), vm.lastPC)
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (mvalue.Value, *mfault.Fault) {
	if len(vm.stack) == 0 {
		return mvalue.Value{}, mfault.New(mfault.StackUnderflow, vm.currentByteOffset(), vm.lastPC)
	}
	top := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return top, nil
}

func (vm *VM) peek() (mvalue.Value, bool) {
	if len(vm.stack) == 0 {
		return mvalue.Value{}, false
	}
	return vm.stack[len(vm.stack)-1], true
}

func (vm *VM) currentByteOffset() int {
	return vm.program.ByteOffsetOf(vm.lastPC)
}

func (vm *VM) roots() []mvalue.Value {
	roots := append([]mvalue.Value(nil), vm.stack...)
	roots = append(roots, vm.locals[:]...)
	roots = append(roots, vm.globals[:]...)
	for _, f := range vm.frames {
		roots = append(roots, f.locals[:]...)
	}
	return roots
}
