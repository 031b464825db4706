package mprogram

import (
	"testing"

	"github.com/MYJ-GOD/M-Language-Core/internal/mcodec"
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
)

func TestEncodeTokenizeRoundTrip(t *testing.T) {
	tokens := []Token{
		{Op: misa.OpLIT, Literal: 5},
		{Op: misa.OpLIT, Literal: -3},
		{Op: misa.OpV, Index: 2},
		{Op: misa.OpLET, Index: 63},
		{Op: misa.OpJZ, JumpOffset: -1},
		{Op: misa.OpFN, Arity: 2},
		{Op: misa.OpCL, CallTarget: 10, CallArgc: 2},
		{Op: misa.OpHALT},
	}

	raw := Encode(tokens)
	p, err := Tokenize(raw)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if p.TokenCount() != len(tokens) {
		t.Fatalf("TokenCount = %d, want %d", p.TokenCount(), len(tokens))
	}
	for i, want := range tokens {
		got := p.Tokens[i]
		if got.Op != want.Op || got.Literal != want.Literal || got.Index != want.Index ||
			got.JumpOffset != want.JumpOffset || got.Arity != want.Arity ||
			got.CallTarget != want.CallTarget || got.CallArgc != want.CallArgc {
			t.Fatalf("token %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestTokenOffsetsAndLookup(t *testing.T) {
	tokens := []Token{
		{Op: misa.OpLIT, Literal: 1},
		{Op: misa.OpLIT, Literal: 2},
		{Op: misa.OpADD},
		{Op: misa.OpHALT},
	}
	raw := Encode(tokens)
	p, err := Tokenize(raw)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	for i := 0; i < p.TokenCount(); i++ {
		off := p.ByteOffsetOf(i)
		if off < 0 {
			t.Fatalf("ByteOffsetOf(%d) = %d, want >= 0", i, off)
		}
		if got := p.TokenAtByte(off); got != i {
			t.Fatalf("TokenAtByte(%d) = %d, want %d", off, got, i)
		}
	}
	if p.ByteOffsetOf(p.TokenCount()) != -1 {
		t.Fatalf("ByteOffsetOf out of range should be -1")
	}
	if p.TokenAtByte(-1) != -1 {
		t.Fatalf("TokenAtByte(-1) should be -1")
	}
	if p.TokenAtByte(p.ByteLen()) != -1 {
		t.Fatalf("TokenAtByte(ByteLen()) should be -1 (past the buffer)")
	}
}

func TestTokenAtByteInsideOperandIsInvalid(t *testing.T) {
	tokens := []Token{{Op: misa.OpLIT, Literal: 1000}, {Op: misa.OpHALT}}
	raw := Encode(tokens)
	p, err := Tokenize(raw)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	// LIT 1000 zigzag-encodes to more than one byte; byte 1 falls inside
	// the operand, not on a token boundary.
	if p.ByteLen() < 2 {
		t.Fatalf("expected a multi-byte LIT encoding, got %d bytes", p.ByteLen())
	}
	if got := p.TokenAtByte(1); got != -1 {
		t.Fatalf("TokenAtByte(1) = %d, want -1 (inside LIT's operand)", got)
	}
}

func TestTokenizeTruncatedOpcodeFails(t *testing.T) {
	// A continuation byte with nothing after it.
	if _, err := Tokenize([]byte{0x80}); err == nil {
		t.Fatalf("Tokenize should fail on a truncated opcode varint")
	}
}

func TestTokenizeTruncatedOperandFails(t *testing.T) {
	raw := Encode([]Token{{Op: misa.OpLIT, Literal: 200}})
	// Drop the operand's continuation byte so only the opcode survives.
	if _, err := Tokenize(raw[:1]); err == nil {
		t.Fatalf("Tokenize should fail when an operand is truncated")
	}
}

// An opcode varint spanning more than five bytes must be rejected outright,
// never truncated into a different, valid opcode. (1<<32) plus OpHALT's own
// value would wrap to OpHALT under a naive uint32 cast.
func TestTokenizeRejectsOverflowingOpcode(t *testing.T) {
	raw := mcodec.EncodeUvarint(nil, (uint64(1)<<32)+uint64(misa.OpHALT))
	if _, err := Tokenize(raw); err == nil {
		t.Fatalf("Tokenize should reject an opcode varint that overflows 32 bits")
	}
}

// A non-minimal six-byte padded encoding of a valid opcode (HALT) must also
// be rejected - DecodeU32 bounds the byte count of every u32-shaped field,
// including the opcode itself, not just its final magnitude. OpHALT's value
// fits in HALT's low 7 bits, so setting the continuation bit on it and
// padding with four more all-continuation bytes before the terminator
// spells the same value out over six bytes instead of one.
func TestTokenizeRejectsPaddedOpcode(t *testing.T) {
	raw := []byte{byte(misa.OpHALT) | 0x80, 0x80, 0x80, 0x80, 0x80, 0x00}
	if _, err := Tokenize(raw); err == nil {
		t.Fatalf("Tokenize should reject a six-byte padded opcode encoding")
	}
}
