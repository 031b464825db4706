package mvalidate

import "github.com/MYJ-GOD/M-Language-Core/internal/misa"

// arity describes an opcode's data-stack precondition (pop) and postcondition
// (push) for the symbolic stack-height tracker. Opcodes whose effect
// depends on an operand (CL's argc) are handled specially by the caller.
type arity struct {
	pop, push int
}

var fixedArity = map[misa.Op]arity{
	misa.OpLIT: {0, 1},
	misa.OpV:   {0, 1},
	misa.OpLET: {1, 0},
	misa.OpSET: {1, 0},

	misa.OpADD: {2, 1}, misa.OpSUB: {2, 1}, misa.OpMUL: {2, 1}, misa.OpDIV: {2, 1},
	misa.OpMOD: {2, 1}, misa.OpAND: {2, 1}, misa.OpOR: {2, 1}, misa.OpXOR: {2, 1},
	misa.OpSHL: {2, 1}, misa.OpSHR: {2, 1},
	misa.OpNEG: {1, 1}, misa.OpNOT: {1, 1},

	misa.OpLT: {2, 1}, misa.OpGT: {2, 1}, misa.OpLE: {2, 1}, misa.OpGE: {2, 1},
	misa.OpEQ: {2, 1}, misa.OpNEQ: {2, 1},

	misa.OpDUP: {1, 2}, misa.OpDRP: {1, 0}, misa.OpROT: {3, 3}, misa.OpSWP: {2, 2},

	misa.OpB: {0, 0}, misa.OpE: {0, 0}, misa.OpPH: {0, 0},
	misa.OpIF: {1, 0},

	misa.OpJZ: {1, 0}, misa.OpJNZ: {1, 0}, misa.OpJMP: {0, 0},

	// RT pops its return value; the pushed-on-the-caller's-stack half of
	// its effect is CL's concern, not this sink token's own arity.
	misa.OpRT: {1, 0},

	misa.OpNEWARR: {1, 1}, misa.OpIDX: {2, 1}, misa.OpSTO: {3, 1}, misa.OpLEN: {1, 1},

	misa.OpALLOC: {1, 1}, misa.OpFREE: {1, 0},

	misa.OpIOW: {1, 0}, misa.OpIOR: {0, 1},

	misa.OpGTWAY: {0, 0}, misa.OpWAIT: {0, 0}, misa.OpHALT: {0, 0},
	misa.OpTRACE: {0, 0}, misa.OpGC: {0, 0}, misa.OpBP: {0, 0}, misa.OpSTEP: {0, 0},

	misa.OpASSERT: {1, 0},
}

// Arity looks up op's fixed pop/push contract, resolving GET/PUT and
// legacy aliases to their canonical opcode first.
func Arity(op misa.Op) (pop, push int, ok bool) {
	a, ok := fixedArity[misa.Canonical(op)]
	if !ok {
		return 0, 0, false
	}
	return a.pop, a.push, true
}
