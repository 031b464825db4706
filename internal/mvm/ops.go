package mvm

import (
	"fmt"

	"github.com/MYJ-GOD/M-Language-Core/internal/mfault"
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvalue"
)

// dispatch invokes the handler for one token. token.Op has already been
// validated as Known and pc already advanced past it. HALT sets vm.mode
// directly rather than returning a fault.
func (vm *VM) dispatch(opIndex int, token mprogram.Token) *mfault.Fault {
	switch misa.Canonical(token.Op) {
	case misa.OpLIT:
		return vm.push(mvalue.Int(token.Literal))

	case misa.OpV:
		if token.Index >= numLocals {
			return mfault.New(mfault.LocalsOob, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		return vm.push(vm.locals[token.Index])

	case misa.OpLET:
		if token.Index >= numLocals {
			return mfault.New(mfault.LocalsOob, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		v, f := vm.pop()
		if f != nil {
			return f
		}
		vm.locals[token.Index] = v
		return nil

	case misa.OpSET:
		if token.Index >= numGlobals {
			return mfault.New(mfault.GlobalsOob, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		v, f := vm.pop()
		if f != nil {
			return f
		}
		vm.globals[token.Index] = v
		return nil

	case misa.OpADD, misa.OpSUB, misa.OpMUL, misa.OpDIV, misa.OpMOD,
		misa.OpAND, misa.OpOR, misa.OpXOR, misa.OpSHL, misa.OpSHR:
		return vm.binaryArith(opIndex, misa.Canonical(token.Op))

	case misa.OpNEG:
		a, f := vm.pop()
		if f != nil {
			return f
		}
		return vm.push(mvalue.Int(-a.AsInt()))

	case misa.OpNOT:
		a, f := vm.pop()
		if f != nil {
			return f
		}
		return vm.push(mvalue.Int(^a.AsInt()))

	case misa.OpLT, misa.OpGT, misa.OpLE, misa.OpGE:
		return vm.compareOrdered(misa.Canonical(token.Op))

	case misa.OpEQ, misa.OpNEQ:
		return vm.compareEquality(misa.Canonical(token.Op))

	case misa.OpDUP:
		a, f := vm.pop()
		if f != nil {
			return f
		}
		if f := vm.push(a); f != nil {
			return f
		}
		return vm.push(a)

	case misa.OpDRP:
		_, f := vm.pop()
		return f

	case misa.OpROT:
		c, f := vm.pop()
		if f != nil {
			return f
		}
		b, f := vm.pop()
		if f != nil {
			return f
		}
		a, f := vm.pop()
		if f != nil {
			return f
		}
		if f := vm.push(b); f != nil {
			return f
		}
		if f := vm.push(c); f != nil {
			return f
		}
		return vm.push(a)

	case misa.OpSWP:
		b, f := vm.pop()
		if f != nil {
			return f
		}
		a, f := vm.pop()
		if f != nil {
			return f
		}
		if f := vm.push(b); f != nil {
			return f
		}
		return vm.push(a)

	case misa.OpB, misa.OpE, misa.OpPH:
		return nil

	case misa.OpIF:
		return vm.execIF(opIndex)

	case misa.OpJZ, misa.OpJNZ:
		cond, f := vm.pop()
		if f != nil {
			return f
		}
		taken := cond.Truthy() == (misa.Canonical(token.Op) == misa.OpJNZ)
		if taken {
			return vm.jumpTo(opIndex, token.JumpOffset)
		}
		return nil

	case misa.OpJMP:
		return vm.jumpTo(opIndex, token.JumpOffset)

	case misa.OpFN:
		return vm.execFNSkip(opIndex)

	case misa.OpCL:
		return vm.execCall(opIndex, token)

	case misa.OpRT:
		return vm.execReturn(opIndex)

	case misa.OpIOW:
		if !vm.caps.has(token.Index) {
			return mfault.New(mfault.Unauthorized, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		v, f := vm.pop()
		if f != nil {
			return f
		}
		if vm.cb.IOWrite != nil {
			vm.cb.IOWrite(uint8(token.Index), v)
		}
		return nil

	case misa.OpIOR:
		if !vm.caps.has(token.Index) {
			return mfault.New(mfault.Unauthorized, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		var v mvalue.Value
		if vm.cb.IORead != nil {
			v = vm.cb.IORead(uint8(token.Index))
		}
		return vm.push(v)

	case misa.OpGTWAY:
		if token.Index > 255 {
			return mfault.New(mfault.BadArg, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		vm.caps.set(token.Index)
		return nil

	case misa.OpWAIT:
		if vm.cb.Sleep != nil {
			vm.cb.Sleep(int32(token.Index))
		}
		return nil

	case misa.OpHALT:
		vm.mode = ModeStopped
		return nil

	case misa.OpTRACE:
		if vm.cb.Trace != nil {
			vm.cb.Trace(token.Index, fmt.Sprintf("pc=%d op=%s sp=%d", opIndex, misa.Name(token.Op), len(vm.stack)))
		}
		return nil

	case misa.OpGC:
		vm.heap.gc(vm.roots())
		return nil

	case misa.OpBP:
		vm.breakpoints.Install(token.Index, opIndex)
		return nil

	case misa.OpSTEP:
		vm.singleStep = true
		return nil

	case misa.OpNEWARR:
		size, f := vm.pop()
		if f != nil {
			return f
		}
		handle, ok := vm.heap.allocArray(int(size.AsInt()))
		if !ok {
			return mfault.New(mfault.BadArg, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		if vm.heap.shouldAutoGC() {
			vm.heap.gc(vm.roots())
		}
		return vm.push(mvalue.ArrayRef(handle))

	case misa.OpIDX:
		idx, f := vm.pop()
		if f != nil {
			return f
		}
		ref, f := vm.pop()
		if f != nil {
			return f
		}
		arr, f := vm.arrayOf(ref, opIndex)
		if f != nil {
			return f
		}
		i := idx.AsInt()
		if i < 0 || i >= int64(arr.Length) {
			return mfault.New(mfault.IndexOob, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		return vm.push(arr.Elements[i])

	case misa.OpSTO:
		val, f := vm.pop()
		if f != nil {
			return f
		}
		idx, f := vm.pop()
		if f != nil {
			return f
		}
		ref, f := vm.pop()
		if f != nil {
			return f
		}
		arr, f := vm.arrayOf(ref, opIndex)
		if f != nil {
			return f
		}
		i := idx.AsInt()
		if i < 0 || i >= int64(arr.Length) {
			return mfault.New(mfault.IndexOob, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		arr.Elements[i] = val
		return vm.push(ref)

	case misa.OpLEN:
		ref, f := vm.pop()
		if f != nil {
			return f
		}
		arr, f := vm.arrayOf(ref, opIndex)
		if f != nil {
			return f
		}
		return vm.push(mvalue.Int(int64(arr.Length)))

	case misa.OpALLOC:
		size, f := vm.pop()
		if f != nil {
			return f
		}
		handle, ok := vm.heap.allocBuffer(int(size.AsInt()))
		if !ok {
			return mfault.New(mfault.OutOfMemory, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		return vm.push(mvalue.OpaqueRef(handle))

	case misa.OpFREE:
		ref, f := vm.pop()
		if f != nil {
			return f
		}
		if ref.Tag != mvalue.TagOpaqueRef {
			return mfault.New(mfault.TypeMismatch, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		if !vm.heap.free(ref.Ref) {
			return mfault.New(mfault.BadArg, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		return nil

	case misa.OpASSERT:
		cond, f := vm.pop()
		if f != nil {
			return f
		}
		if !cond.Truthy() {
			return mfault.New(mfault.AssertFailed, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		return nil

	default:
		return mfault.New(mfault.UnknownOp, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
}

func (vm *VM) arrayOf(ref mvalue.Value, opIndex int) (*mvalue.Array, *mfault.Fault) {
	if ref.Tag != mvalue.TagArrayRef {
		return nil, mfault.New(mfault.TypeMismatch, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	arr, ok := vm.heap.array(ref.Ref)
	if !ok {
		return nil, mfault.New(mfault.TypeMismatch, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	return arr, nil
}

func (vm *VM) binaryArith(opIndex int, op misa.Op) *mfault.Fault {
	b, f := vm.pop()
	if f != nil {
		return f
	}
	a, f := vm.pop()
	if f != nil {
		return f
	}
	ai, bi := a.AsInt(), b.AsInt()
	var r int64
	switch op {
	case misa.OpADD:
		r = ai + bi
	case misa.OpSUB:
		r = ai - bi
	case misa.OpMUL:
		r = ai * bi
	case misa.OpDIV:
		if bi == 0 {
			return mfault.New(mfault.DivByZero, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		r = ai / bi
	case misa.OpMOD:
		if bi == 0 {
			return mfault.New(mfault.ModByZero, vm.program.ByteOffsetOf(opIndex), opIndex)
		}
		r = ai % bi
	case misa.OpAND:
		r = ai & bi
	case misa.OpOR:
		r = ai | bi
	case misa.OpXOR:
		r = ai ^ bi
	case misa.OpSHL:
		r = ai << (uint64(bi) & 63)
	case misa.OpSHR:
		r = ai >> (uint64(bi) & 63)
	}
	return vm.push(mvalue.Int(r))
}

func (vm *VM) compareOrdered(op misa.Op) *mfault.Fault {
	b, f := vm.pop()
	if f != nil {
		return f
	}
	a, f := vm.pop()
	if f != nil {
		return f
	}
	ai, bi := a.AsInt(), b.AsInt()
	var result bool
	switch op {
	case misa.OpLT:
		result = ai < bi
	case misa.OpGT:
		result = ai > bi
	case misa.OpLE:
		result = ai <= bi
	case misa.OpGE:
		result = ai >= bi
	}
	return vm.push(boolInt(result))
}

func (vm *VM) compareEquality(op misa.Op) *mfault.Fault {
	b, f := vm.pop()
	if f != nil {
		return f
	}
	a, f := vm.pop()
	if f != nil {
		return f
	}
	eq := mvalue.Equal(a, b)
	if op == misa.OpNEQ {
		eq = !eq
	}
	return vm.push(boolInt(eq))
}

func boolInt(b bool) mvalue.Value {
	if b {
		return mvalue.Int(1)
	}
	return mvalue.Int(0)
}

func (vm *VM) jumpTo(opIndex int, offset int64) *mfault.Fault {
	target := vm.pc + int(offset)
	if target < 0 || target >= vm.program.TokenCount() {
		return mfault.New(mfault.PcOob, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	vm.pc = target
	return nil
}

// execIF implements the block skipper: pop the condition; on
// true, fall through into the then-block as-is; on false, scan forward
// over the then-block's own nested B/E pairs to its matching E, then over
// the else-block's opening B, resuming inside the else-block.
func (vm *VM) execIF(opIndex int) *mfault.Fault {
	cond, f := vm.pop()
	if f != nil {
		return f
	}
	if cond.Truthy() {
		return nil // vm.pc already points at the then-block's opening B
	}
	thenB := vm.pc
	if thenB >= vm.program.TokenCount() || vm.program.Tokens[thenB].Op != misa.OpB {
		return mfault.New(mfault.BadEncoding, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	thenE, ok := vm.scanMatchingE(thenB)
	if !ok {
		return mfault.New(mfault.BadEncoding, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	elseB := thenE + 1
	if elseB >= vm.program.TokenCount() || vm.program.Tokens[elseB].Op != misa.OpB {
		return mfault.New(mfault.BadEncoding, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	vm.pc = elseB + 1
	return nil
}

// execFNSkip implements FN's run-time skip: walk to the matching E of its
// own opening B and continue past it. Function bodies execute only via CL.
func (vm *VM) execFNSkip(opIndex int) *mfault.Fault {
	openB := vm.pc
	if openB >= vm.program.TokenCount() || vm.program.Tokens[openB].Op != misa.OpB {
		return mfault.New(mfault.BadEncoding, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	closeE, ok := vm.scanMatchingE(openB)
	if !ok {
		return mfault.New(mfault.BadEncoding, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	vm.pc = closeE + 1
	return nil
}

// scanMatchingE locates the E matching the B at openB by scanning forward
// with a depth counter - the only way the interpreter handles structured
// blocks directly, shared by IF and FN.
func (vm *VM) scanMatchingE(openB int) (int, bool) {
	depth := 0
	for i := openB; i < vm.program.TokenCount(); i++ {
		switch vm.program.Tokens[i].Op {
		case misa.OpB:
			depth++
		case misa.OpE:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func (vm *VM) execCall(opIndex int, token mprogram.Token) *mfault.Fault {
	if vm.callDepth >= vm.callDepthLimit {
		return mfault.New(mfault.CallDepthLimit, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	argc := int(token.CallArgc)
	if len(vm.stack) < argc {
		return mfault.New(mfault.StackUnderflow, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	fnIdx := vm.program.TokenAtByte(int(token.CallTarget))
	if fnIdx < 0 || misa.Canonical(vm.program.Tokens[fnIdx].Op) != misa.OpFN {
		return mfault.New(mfault.BadArg, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	openB := fnIdx + 1
	if openB >= vm.program.TokenCount() || vm.program.Tokens[openB].Op != misa.OpB {
		return mfault.New(mfault.BadEncoding, vm.program.ByteOffsetOf(opIndex), opIndex)
	}

	saved := frame{locals: vm.locals, retPC: vm.pc}
	vm.frames = append(vm.frames, saved)
	vm.locals = [numLocals]mvalue.Value{}
	// Rightmost pushed argument pops first and lands in locals[0].
	for k := 0; k < argc; k++ {
		v, f := vm.pop()
		if f != nil {
			return f
		}
		vm.locals[k] = v
	}

	vm.callDepth++
	vm.pc = openB + 1
	return nil
}

func (vm *VM) execReturn(opIndex int) *mfault.Fault {
	retVal, f := vm.pop()
	if f != nil {
		return f
	}
	if len(vm.frames) == 0 {
		return mfault.New(mfault.RetStackUnderflow, vm.program.ByteOffsetOf(opIndex), opIndex)
	}
	top := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.locals = top.locals
	vm.callDepth--
	vm.pc = top.retPC
	return vm.push(retVal)
}
