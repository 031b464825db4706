// Package mload is the loader entry point: tokenize raw bytes, then lower
// structured WH/FR loops into jump form, producing the authoritative
// loaded Program the validator and interpreter both consume.
package mload

import (
	"fmt"

	"github.com/MYJ-GOD/M-Language-Core/internal/mlower"
	"github.com/MYJ-GOD/M-Language-Core/internal/mprogram"
)

// Result is the outcome of loading a program: the lowered Program ready
// for validation/interpretation, plus disassembler-only provenance.
type Result struct {
	Program  *mprogram.Program
	Lowering []mlower.LoweringRecord
}

// Load tokenizes raw and lowers its structured loops exactly once, at
// load time.
func Load(raw []byte) (*Result, error) {
	tokenized, err := mprogram.Tokenize(raw)
	if err != nil {
		return nil, fmt.Errorf("mload: tokenize: %w", err)
	}
	lowered, records, err := mlower.Lower(tokenized)
	if err != nil {
		return nil, fmt.Errorf("mload: lower: %w", err)
	}
	return &Result{Program: lowered, Lowering: records}, nil
}
