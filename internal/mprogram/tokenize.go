package mprogram

import (
	"github.com/MYJ-GOD/M-Language-Core/internal/mcodec"
	"github.com/MYJ-GOD/M-Language-Core/internal/mfault"
	"github.com/MYJ-GOD/M-Language-Core/internal/misa"
)

// Tokenize walks raw front to back, decoding one opcode then its operand
// per misa.Shape, and builds the offset tables. Any truncated opcode or
// operand fails the whole program with BadEncoding - this is the loader's
// only failure mode.
func Tokenize(raw []byte) (*Program, error) {
	p := &Program{rawLen: len(raw)}
	p.ByteToToken = make([]int, len(raw))
	for i := range p.ByteToToken {
		p.ByteToToken[i] = -1
	}

	pos := 0
	for pos < len(raw) {
		start := pos
		opVal, ok := mcodec.DecodeU32(raw, &pos)
		if !ok {
			return nil, mfault.New(mfault.BadEncoding, start, len(p.Tokens))
		}
		op := misa.Op(opVal)

		tok := Token{Op: op, ByteOffset: start}
		switch misa.Shape(op) {
		case misa.ShapeLiteral:
			v, ok := mcodec.DecodeZigzag(raw, &pos)
			if !ok {
				return nil, mfault.New(mfault.BadEncoding, start, len(p.Tokens))
			}
			tok.Literal = v
		case misa.ShapeIndex:
			v, ok := mcodec.DecodeU32(raw, &pos)
			if !ok {
				return nil, mfault.New(mfault.BadEncoding, start, len(p.Tokens))
			}
			tok.Index = v
		case misa.ShapeCall:
			target, ok := mcodec.DecodeU32(raw, &pos)
			if !ok {
				return nil, mfault.New(mfault.BadEncoding, start, len(p.Tokens))
			}
			argc, ok := mcodec.DecodeU32(raw, &pos)
			if !ok {
				return nil, mfault.New(mfault.BadEncoding, start, len(p.Tokens))
			}
			tok.CallTarget = target
			tok.CallArgc = argc
		case misa.ShapeArity:
			v, ok := mcodec.DecodeU32(raw, &pos)
			if !ok {
				return nil, mfault.New(mfault.BadEncoding, start, len(p.Tokens))
			}
			tok.Arity = v
		case misa.ShapeJump:
			v, ok := mcodec.DecodeZigzag(raw, &pos)
			if !ok {
				return nil, mfault.New(mfault.BadEncoding, start, len(p.Tokens))
			}
			tok.JumpOffset = v
		}

		idx := len(p.Tokens)
		p.Tokens = append(p.Tokens, tok)
		p.TokenOffsets = append(p.TokenOffsets, start)
		// Only the token's first byte maps to it; operand bytes stay -1.
		p.ByteToToken[start] = idx
	}
	return p, nil
}

// Rebuild re-tokenizes a freshly-encoded byte buffer produced by the
// lowerer into a new Program with fresh tables. Used once, at load time, after
// structured loops are rewritten - the lowered byte buffer becomes the
// authoritative program from then on.
func Rebuild(raw []byte) (*Program, error) {
	return Tokenize(raw)
}

// Encode re-serializes p's tokens back into a flat byte buffer using the
// minimal-length varint/zigzag encodings. Used by the lowerer to produce
// the rewritten program and by tests exercising codec round-trips.
func Encode(tokens []Token) []byte {
	var buf []byte
	for _, t := range tokens {
		buf = mcodec.EncodeUvarint(buf, uint64(t.Op))
		switch misa.Shape(t.Op) {
		case misa.ShapeLiteral:
			buf = mcodec.EncodeZigzag(buf, t.Literal)
		case misa.ShapeIndex:
			buf = mcodec.EncodeUvarint(buf, uint64(t.Index))
		case misa.ShapeCall:
			buf = mcodec.EncodeUvarint(buf, uint64(t.CallTarget))
			buf = mcodec.EncodeUvarint(buf, uint64(t.CallArgc))
		case misa.ShapeArity:
			buf = mcodec.EncodeUvarint(buf, uint64(t.Arity))
		case misa.ShapeJump:
			buf = mcodec.EncodeZigzag(buf, t.JumpOffset)
		}
	}
	return buf
}
