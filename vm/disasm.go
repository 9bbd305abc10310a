package vm

import "fmt"

// DisasmLine is one rendered line of disassembly, tagged with the absolute
// code-space offset of the instruction it came from so the debugger can
// map PC -> line without re-disassembling (spec §4.9).
type DisasmLine struct {
	Offset uint64
	Text   string
}

// Disassemble decodes an entire text section into lines, resolving jump and
// call targets back to a label name when the image's debug label table has
// one. This is called exactly once by callers that need a stable
// offset->line mapping (the debugger caches its result at construction
// time); it must never be called per-step.
func Disassemble(img *Image) []DisasmLine {
	textBase := uint64(8 + len(img.Data))
	lines := make([]DisasmLine, 0, len(img.Text))

	// The label table is already keyed by offset, so each lookup during
	// rendering is a direct map read.
	nameFor := img.Labels

	off := uint64(0)
	for off < uint64(len(img.Text)) {
		d, err := decodeAt(img.Text, off)
		if err != nil {
			lines = append(lines, DisasmLine{
				Offset: textBase + off,
				Text:   fmt.Sprintf("<bad opcode 0x%02x>", img.Text[off]),
			})
			off++
			continue
		}

		absolute := textBase + off
		info := opcodeTable[d.Code]
		text := renderInstruction(d, info, nameFor)
		lines = append(lines, DisasmLine{Offset: absolute, Text: text})
		off += uint64(d.Size)
	}

	return lines
}

func renderInstruction(d DecodedInstruction, info opcodeInfo, labels map[uint64]string) string {
	switch info.kind {
	case OperandNone:
		return info.mnemonic
	case OperandImm:
		if info.width == Dword8 {
			if name, ok := labels[d.Imm]; ok {
				return fmt.Sprintf("%s %s", info.mnemonic, name)
			}
		}
		return fmt.Sprintf("%s %d", info.mnemonic, d.Imm)
	case OperandAddr:
		if name, ok := labels[d.Imm]; ok {
			return fmt.Sprintf("%s %s", info.mnemonic, name)
		}
		return fmt.Sprintf("%s 0x%x", info.mnemonic, d.Imm)
	default:
		return info.mnemonic
	}
}

// OffsetToLine builds the offset(code-space) -> disassembly-line-index
// mapping the debugger keeps alongside its cached Disassemble output.
func OffsetToLine(lines []DisasmLine) map[uint64]int {
	m := make(map[uint64]int, len(lines))
	for i, l := range lines {
		m[l.Offset] = i
	}
	return m
}
