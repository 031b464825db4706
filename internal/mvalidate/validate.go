// Package mvalidate implements the static validator: eight checks run in
// order over a loaded (lowered) program, rejecting any program that fails
// one before it ever reaches the interpreter.
package mvalidate

import (
	"fmt"

	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
)

// Policy selects which opcode space a program may use.
type Policy int

const (
	// PolicyFull accepts core, extension (100-199), and heap opcodes.
	PolicyFull Policy = iota
	// PolicyCoreOnly additionally rejects extension opcodes (100-199), used
	// at the public ABI boundary; heap opcodes 200/201 remain accepted.
	PolicyCoreOnly
)

const (
	maxLocals  = 64
	maxGlobals = 128
)

// Error reports a single validation failure with the check that produced
// it and the token index it concerns.
type Error struct {
	Check   string
	TokenAt int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validate[%s] at token %d: %s", e.Check, e.TokenAt, e.Message)
}

// Validate runs all eight checks in order, stopping at the first failure.
func Validate(p *mprogram.Program, policy Policy) error {
	if err := checkEncoding(p, policy); err != nil {
		return err
	}
	blocks, err := checkBlockMatching(p)
	if err != nil {
		return err
	}
	if err := checkIndexBounds(p); err != nil {
		return err
	}
	if err := checkStructural(p, blocks); err != nil {
		return err
	}
	if err := checkStackEffect(p, blocks); err != nil {
		return err
	}
	if err := checkJumpTargets(p); err != nil {
		return err
	}
	if err := checkCapabilityDominance(p, blocks); err != nil {
		return err
	}
	if err := checkReachability(p, blocks); err != nil {
		return err
	}
	return nil
}

// checkEncoding verifies every opcode is known (or a flagged legacy
// alias) and, under PolicyCoreOnly, that no opcode is in 100-199.
func checkEncoding(p *mprogram.Program, policy Policy) error {
	for i, t := range p.Tokens {
		if !misa.Known(t.Op) {
			return &Error{Check: "encoding", TokenAt: i, Message: fmt.Sprintf("unknown opcode %d", t.Op)}
		}
		if uint32(t.Op) > 255 {
			return &Error{Check: "encoding", TokenAt: i, Message: "opcode value exceeds 255"}
		}
		if policy == PolicyCoreOnly && misa.IsCoreOnly(t.Op) {
			return &Error{Check: "encoding", TokenAt: i, Message: fmt.Sprintf("opcode %s is not in the core_only ABI", misa.Name(t.Op))}
		}
	}
	return nil
}
