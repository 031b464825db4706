// Package mtrace archives a Simulate result to and from disk with
// github.com/vmihailenco/msgpack/v5.
package mtrace

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/MYJ-GOD/M-Language-Core/internal/mfault"
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mvm"
)

// archiveSchemaVersion increments when Archive's wire layout changes.
const archiveSchemaVersion uint16 = 1

// SchemaVersion exposes archiveSchemaVersion to callers outside this
// package (the CLI's version command, diagnostic tooling) that want to
// display which on-disk archive layout this build writes and reads.
const SchemaVersion = archiveSchemaVersion

// Archive is the on-disk representation of one Simulate run: a header
// plus the full Result. No wall-clock timestamp is embedded - the caller
// stamps one on if it wants, keeping encoding deterministic for a given
// Result.
type Archive struct {
	Schema     uint16
	ProgramLen int

	Completed bool
	Halted    bool
	Steps     int
	SP        int
	TopValue  int64
	HasTop    bool

	FaultKind int
	FaultPC   int
	FaultOp   int
	FaultMsg  string

	Trace []archiveRow
}

type archiveRow struct {
	Step     int
	PCBefore int
	Opcode   uint32
	SPAfter  int
	TopAfter int64
	HasTop   bool
}

// EncodeArchive serializes result (for a program of the given byte
// length) to w.
func EncodeArchive(w io.Writer, programLen int, result mvm.Result) error {
	a := Archive{
		Schema:     archiveSchemaVersion,
		ProgramLen: programLen,
		Completed:  result.Completed,
		Halted:     result.Halted,
		Steps:      result.Steps,
		SP:         result.SP,
		TopValue:   result.TopValue,
		HasTop:     result.HasTop,
		FaultKind:  int(mfault.None),
	}
	if result.Fault != nil {
		a.FaultKind = int(result.Fault.Kind)
		a.FaultPC = result.Fault.PC
		a.FaultOp = result.Fault.OpIndex
		a.FaultMsg = result.Fault.Message
	}
	a.Trace = make([]archiveRow, len(result.Trace))
	for i, row := range result.Trace {
		a.Trace[i] = archiveRow{
			Step:     row.Step,
			PCBefore: row.PCBefore,
			Opcode:   uint32(row.Opcode),
			SPAfter:  row.SPAfter,
			TopAfter: row.TopAfter,
			HasTop:   row.HasTop,
		}
	}
	return msgpack.NewEncoder(w).Encode(&a)
}

// DecodeArchive deserializes an Archive from r and rebuilds the
// mvm.Result it describes.
func DecodeArchive(r io.Reader) (mvm.Result, error) {
	var a Archive
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return mvm.Result{}, fmt.Errorf("mtrace: decode: %w", err)
	}
	if a.Schema != archiveSchemaVersion {
		return mvm.Result{}, fmt.Errorf("mtrace: unsupported schema %d", a.Schema)
	}

	result := mvm.Result{
		Completed: a.Completed,
		Halted:    a.Halted,
		Steps:     a.Steps,
		SP:        a.SP,
		TopValue:  a.TopValue,
		HasTop:    a.HasTop,
	}
	if mfault.Kind(a.FaultKind) != mfault.None {
		result.Fault = &mfault.Fault{
			Kind:    mfault.Kind(a.FaultKind),
			PC:      a.FaultPC,
			OpIndex: a.FaultOp,
			Message: a.FaultMsg,
		}
	}
	result.Trace = make([]mvm.TraceRow, len(a.Trace))
	for i, row := range a.Trace {
		result.Trace[i] = mvm.TraceRow{
			Step:     row.Step,
			PCBefore: row.PCBefore,
			Opcode:   misa.Op(row.Opcode),
			SPAfter:  row.SPAfter,
			TopAfter: row.TopAfter,
			HasTop:   row.HasTop,
		}
	}
	return result, nil
}
