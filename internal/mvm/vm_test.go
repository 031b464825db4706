package mvm

import (
	"testing"

	"github.com/MYJ-GOD/M-Language-Core/internal/mfault"
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvalue"
)

func build(t *testing.T, tokens []mprogram.Token) *mprogram.Program {
	t.Helper()
	raw := mprogram.Encode(tokens)
	p, err := mprogram.Tokenize(raw)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	return p
}

func newVM(t *testing.T, tokens []mprogram.Token, cb Callbacks) *VM {
	t.Helper()
	vm, err := New(build(t, tokens), cb)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return vm
}

func topInt(t *testing.T, vm *VM) int64 {
	t.Helper()
	stack := vm.StackSnapshot()
	if len(stack) == 0 {
		t.Fatalf("empty stack")
	}
	top := stack[len(stack)-1]
	if top.Tag != mvalue.TagInt {
		t.Fatalf("top of stack is not an Int: %v", top)
	}
	return top.AsInt()
}

func TestRunArithmetic(t *testing.T) {
	vm := newVM(t, []mprogram.Token{
		{Op: misa.OpLIT, Literal: 5},
		{Op: misa.OpLIT, Literal: 3},
		{Op: misa.OpLIT, Literal: 2},
		{Op: misa.OpMUL},
		{Op: misa.OpADD},
		{Op: misa.OpHALT},
	}, Callbacks{})

	if f := vm.Run(); f != nil {
		t.Fatalf("unexpected fault: %v", f)
	}
	if vm.Mode() != ModeStopped {
		t.Fatalf("Mode = %v, want Stopped", vm.Mode())
	}
	if got := topInt(t, vm); got != 11 {
		t.Fatalf("result = %d, want 11", got)
	}
	if vm.Steps() != 6 {
		t.Fatalf("steps = %d, want 6", vm.Steps())
	}
}

// add(a,b)=a+b; double(x)=add(x,x); double(5)+double(3) == 16.
func TestRunNestedCalls(t *testing.T) {
	tokens := []mprogram.Token{
		// 0: FN add(a, b)
		{Op: misa.OpFN, Arity: 2},
		{Op: misa.OpB},
		{Op: misa.OpV, Index: 0},
		{Op: misa.OpV, Index: 1},
		{Op: misa.OpADD},
		{Op: misa.OpRT},
		{Op: misa.OpE},
		// 7: FN double(x) = add(x, x)
		{Op: misa.OpFN, Arity: 1},
		{Op: misa.OpB},
		{Op: misa.OpV, Index: 0},
		{Op: misa.OpV, Index: 0},
		{Op: misa.OpCL, CallArgc: 2},
		{Op: misa.OpRT},
		{Op: misa.OpE},
		// 14: main: double(5) + double(3)
		{Op: misa.OpLIT, Literal: 5},
		{Op: misa.OpCL, CallArgc: 1},
		{Op: misa.OpLIT, Literal: 3},
		{Op: misa.OpCL, CallArgc: 1},
		{Op: misa.OpADD},
		{Op: misa.OpHALT},
	}
	raw := mprogram.Encode(tokens)
	probe, err := mprogram.Tokenize(raw)
	if err != nil {
		t.Fatalf("probe Tokenize: %v", err)
	}
	addOffset := uint32(probe.ByteOffsetOf(0))
	doubleOffset := uint32(probe.ByteOffsetOf(7))
	tokens[11].CallTarget = addOffset
	tokens[15].CallTarget = doubleOffset
	tokens[17].CallTarget = doubleOffset

	vm := newVM(t, tokens, Callbacks{})
	if f := vm.Run(); f != nil {
		t.Fatalf("unexpected fault: %v", f)
	}
	if got := topInt(t, vm); got != 16 {
		t.Fatalf("result = %d, want 16", got)
	}
	if vm.callDepth != 0 {
		t.Fatalf("callDepth = %d, want 0 after both calls return", vm.callDepth)
	}
}

// IOW carries the device id as its own operand, not a second popped
// stack value (misa.Shape gives IOW a ShapeIndex operand).
func TestRunUnauthorizedIOFaults(t *testing.T) {
	vm := newVM(t, []mprogram.Token{
		{Op: misa.OpLIT, Literal: 1},
		{Op: misa.OpIOW, Index: 5},
		{Op: misa.OpHALT},
	}, Callbacks{})

	f := vm.Run()
	if f == nil || f.Kind != mfault.Unauthorized {
		t.Fatalf("fault = %v, want Unauthorized", f)
	}
	if f.OpIndex != 1 {
		t.Fatalf("OpIndex = %d, want 1 (the IOW token)", f.OpIndex)
	}
	if vm.Mode() != ModeFaulted {
		t.Fatalf("Mode = %v, want Faulted", vm.Mode())
	}
}

func TestRunDivisionByZeroFaults(t *testing.T) {
	vm := newVM(t, []mprogram.Token{
		{Op: misa.OpLIT, Literal: 10},
		{Op: misa.OpLIT, Literal: 0},
		{Op: misa.OpDIV},
		{Op: misa.OpHALT},
	}, Callbacks{})

	f := vm.Run()
	if f == nil || f.Kind != mfault.DivByZero {
		t.Fatalf("fault = %v, want DivByZero", f)
	}
}

// An infinite back-edge trips the step limit at steps = step_limit + 1.
func TestRunStepLimitTrip(t *testing.T) {
	vm := newVM(t, []mprogram.Token{
		{Op: misa.OpJMP, JumpOffset: -1},
	}, Callbacks{})
	vm.SetStepLimit(1000)

	f := vm.Run()
	if f == nil || f.Kind != mfault.StepLimit {
		t.Fatalf("fault = %v, want StepLimit", f)
	}
	if vm.Steps() != 1001 {
		t.Fatalf("steps = %d, want 1001", vm.Steps())
	}
}

func TestRunCapabilityGatedIOWriteSucceeds(t *testing.T) {
	var gotDevice uint8
	var gotValue mvalue.Value
	vm := newVM(t, []mprogram.Token{
		{Op: misa.OpGTWAY, Index: 5},
		{Op: misa.OpLIT, Literal: 99},
		{Op: misa.OpIOW, Index: 5},
		{Op: misa.OpHALT},
	}, Callbacks{
		IOWrite: func(device uint8, v mvalue.Value) {
			gotDevice = device
			gotValue = v
		},
	})

	if f := vm.Run(); f != nil {
		t.Fatalf("unexpected fault: %v", f)
	}
	if gotDevice != 5 {
		t.Fatalf("device = %d, want 5", gotDevice)
	}
	if got := gotValue.AsInt(); got != 99 {
		t.Fatalf("value = %v, want Int(99)", gotValue)
	}
}

func TestRunCapabilityGatedIOReadSucceeds(t *testing.T) {
	vm := newVM(t, []mprogram.Token{
		{Op: misa.OpGTWAY, Index: 7},
		{Op: misa.OpIOR, Index: 7},
		{Op: misa.OpHALT},
	}, Callbacks{
		IORead: func(device uint8) mvalue.Value {
			if device != 7 {
				t.Fatalf("device = %d, want 7", device)
			}
			return mvalue.Int(42)
		},
	})

	if f := vm.Run(); f != nil {
		t.Fatalf("unexpected fault: %v", f)
	}
	if got := topInt(t, vm); got != 42 {
		t.Fatalf("result = %d, want 42", got)
	}
}

// Array index equal to len traps; len-1 succeeds.
func TestArrayIndexBoundary(t *testing.T) {
	atLastValid := newVM(t, []mprogram.Token{
		{Op: misa.OpLIT, Literal: 3},
		{Op: misa.OpNEWARR},
		{Op: misa.OpLIT, Literal: 2},
		{Op: misa.OpIDX},
		{Op: misa.OpHALT},
	}, Callbacks{})
	if f := atLastValid.Run(); f != nil {
		t.Fatalf("index len-1 should succeed, got fault %v", f)
	}
	if got := topInt(t, atLastValid); got != 0 {
		t.Fatalf("element value = %d, want 0 (a freshly allocated array's default)", got)
	}

	oneOver := newVM(t, []mprogram.Token{
		{Op: misa.OpLIT, Literal: 3},
		{Op: misa.OpNEWARR},
		{Op: misa.OpLIT, Literal: 3},
		{Op: misa.OpIDX},
		{Op: misa.OpHALT},
	}, Callbacks{})
	f := oneOver.Run()
	if f == nil || f.Kind != mfault.IndexOob {
		t.Fatalf("index == len should trap IndexOob, got %v", f)
	}
}

// Host-side breakpoint install/hit/resume, distinct from the BP opcode.
func TestBreakpointHitAndResume(t *testing.T) {
	vm := newVM(t, []mprogram.Token{
		{Op: misa.OpLIT, Literal: 1},
		{Op: misa.OpLIT, Literal: 2},
		{Op: misa.OpADD},
		{Op: misa.OpHALT},
	}, Callbacks{})
	vm.Breakpoints().Install(7, 1) // pause before the second LIT

	f := vm.Run()
	if f == nil || f.Kind != mfault.Breakpoint {
		t.Fatalf("fault = %v, want Breakpoint", f)
	}
	if vm.Mode() != ModeStopped {
		t.Fatalf("Mode = %v, want Stopped", vm.Mode())
	}
	if got := vm.StackSnapshot(); len(got) != 1 {
		t.Fatalf("stack = %v, want exactly one value pushed before the pause", got)
	}

	// Resuming must not re-trigger the same breakpoint in place.
	if f := vm.Run(); f != nil {
		t.Fatalf("resumed run should complete cleanly, got fault %v", f)
	}
	if vm.Mode() != ModeStopped {
		t.Fatalf("Mode = %v, want Stopped after HALT", vm.Mode())
	}
	if got := topInt(t, vm); got != 3 {
		t.Fatalf("result = %d, want 3", got)
	}
	if vm.Steps() != 4 {
		t.Fatalf("steps = %d, want 4", vm.Steps())
	}
}

// The single-step latch (STEP) pauses with DebugStep after dispatching
// exactly the one instruction following it.
func TestSingleStepLatch(t *testing.T) {
	vm := newVM(t, []mprogram.Token{
		{Op: misa.OpSTEP},
		{Op: misa.OpLIT, Literal: 1},
		{Op: misa.OpLIT, Literal: 2},
		{Op: misa.OpADD},
		{Op: misa.OpHALT},
	}, Callbacks{})

	f := vm.Run()
	if f == nil || f.Kind != mfault.DebugStep {
		t.Fatalf("fault = %v, want DebugStep", f)
	}
	if got := vm.StackSnapshot(); len(got) != 1 {
		t.Fatalf("stack = %v, want exactly the one value pushed by LIT 1", got)
	}

	if f := vm.Run(); f != nil {
		t.Fatalf("resumed run should complete cleanly, got fault %v", f)
	}
	if got := topInt(t, vm); got != 3 {
		t.Fatalf("result = %d, want 3", got)
	}
}
