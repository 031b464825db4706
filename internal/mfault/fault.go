// Package mfault defines the closed fault taxonomy shared by the loader,
// validator, and interpreter.
package mfault

import "fmt"

// Kind identifies the reason a run stopped abnormally.
//
// Stable names - do not renumber existing entries; callers display Kind via
// String(), never the raw integer.
type Kind int

const (
	// None means no fault: the run completed or is still in progress.
	None Kind = iota

	// Structural
	BadEncoding
	UnknownOp
	PcOob

	// Stack
	StackOverflow
	StackUnderflow
	RetStackOverflow
	RetStackUnderflow

	// Index
	LocalsOob
	GlobalsOob
	IndexOob

	// Arithmetic
	DivByZero
	ModByZero

	// Types
	TypeMismatch

	// Arguments
	BadArg

	// Resources
	StepLimit
	GasExhausted
	CallDepthLimit
	OutOfMemory

	// Policy
	Unauthorized

	// Diagnostic
	AssertFailed

	// Debug (resumable, not a true error)
	Breakpoint
	DebugStep
)

var names = map[Kind]string{
	None:              "None",
	BadEncoding:       "BadEncoding",
	UnknownOp:         "UnknownOp",
	PcOob:             "PcOob",
	StackOverflow:     "StackOverflow",
	StackUnderflow:    "StackUnderflow",
	RetStackOverflow:  "RetStackOverflow",
	RetStackUnderflow: "RetStackUnderflow",
	LocalsOob:         "LocalsOob",
	GlobalsOob:        "GlobalsOob",
	IndexOob:          "IndexOob",
	DivByZero:         "DivByZero",
	ModByZero:         "ModByZero",
	TypeMismatch:      "TypeMismatch",
	BadArg:            "BadArg",
	StepLimit:         "StepLimit",
	GasExhausted:      "GasExhausted",
	CallDepthLimit:    "CallDepthLimit",
	OutOfMemory:       "OutOfMemory",
	Unauthorized:      "Unauthorized",
	AssertFailed:      "AssertFailed",
	Breakpoint:        "Breakpoint",
	DebugStep:         "DebugStep",
}

// String returns the fault's stable display name.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Debug reports whether k is a cooperative pause rather than a true error.
// Debug faults are resumable by calling Run again without a Reset.
func (k Kind) Debug() bool {
	return k == Breakpoint || k == DebugStep
}

// Fault carries a fault kind together with the execution point it occurred
// at. Message is an optional human-readable detail; it is diagnostic only
// and is never part of the ABI (two faults with the same Kind and PC are
// equivalent regardless of Message).
type Fault struct {
	Kind    Kind
	PC      int
	OpIndex int
	Message string
}

func (f *Fault) Error() string {
	if f == nil {
		return "<nil fault>"
	}
	if f.Message != "" {
		return fmt.Sprintf("%s at pc=%d (token %d): %s", f.Kind, f.PC, f.OpIndex, f.Message)
	}
	return fmt.Sprintf("%s at pc=%d (token %d)", f.Kind, f.PC, f.OpIndex)
}

// New builds a Fault with no message.
func New(kind Kind, pc, opIndex int) *Fault {
	return &Fault{Kind: kind, PC: pc, OpIndex: opIndex}
}

// Newf builds a Fault with a formatted message.
func Newf(kind Kind, pc, opIndex int, format string, args ...any) *Fault {
	return &Fault{Kind: kind, PC: pc, OpIndex: opIndex, Message: fmt.Sprintf(format, args...)}
}
