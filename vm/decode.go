package vm

// DecodedInstruction is one fetched-and-decoded instruction: its opcode,
// byte offset in the text section, and its operand (if any) widened into a
// uint64 for uniform storage regardless of the operand's declared width.
type DecodedInstruction struct {
	Code   Bytecode
	Offset uint64
	Imm    uint64
	Size   int
}

// decodeAt decodes one instruction out of code starting at offset, without
// mutating any cursor. The disassembler uses it to decode the whole text
// section once, up front (spec §4.9); Frame.Step does not call it and reads
// its operand inline through a Cursor instead.
func decodeAt(code []byte, offset uint64) (DecodedInstruction, error) {
	if offset >= uint64(len(code)) {
		return DecodedInstruction{}, errPastEndOfImage
	}
	code8 := Bytecode(code[offset])
	info, ok := opcodeTable[code8]
	if !ok {
		return DecodedInstruction{}, errUnknownOpcode
	}

	d := DecodedInstruction{Code: code8, Offset: offset}
	switch info.kind {
	case OperandNone:
		d.Size = 1
	case OperandImm:
		d.Size = 1 + int(info.width)
		if offset+uint64(d.Size) > uint64(len(code)) {
			return DecodedInstruction{}, errPastEndOfImage
		}
		body := code[offset+1:]
		switch info.width {
		case Byte1:
			d.Imm = uint64(body[0])
		case Word4:
			d.Imm = uint64(GetNumber[uint32](body))
		case Dword8:
			d.Imm = GetNumber[uint64](body)
		}
	case OperandAddr:
		d.Size = 1 + 8
		if offset+uint64(d.Size) > uint64(len(code)) {
			return DecodedInstruction{}, errPastEndOfImage
		}
		d.Imm = GetNumber[uint64](code[offset+1:])
	}
	return d, nil
}
