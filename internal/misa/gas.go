package misa

// GasCost returns op's static gas cost. Only consulted when gas metering
// is enabled (gas_limit > 0).
func GasCost(op Op) int {
	switch Canonical(op) {
	case OpB, OpE, OpHALT, OpPH:
		return 0
	case OpLIT, OpV, OpLET, OpIDX, OpLEN:
		return 2
	case OpSET, OpSTO, OpIOR:
		return 3
	case OpMUL:
		return 3
	case OpDIV, OpMOD, OpNEWARR, OpALLOC, OpCL, OpIOW:
		return 5
	case OpGC:
		return 10
	default:
		return 1
	}
}
