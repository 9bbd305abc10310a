package vm

import "fmt"

// Bytecode is a single opcode byte. Width-suffixed variants (.b/.w/.d) are
// distinct values that share semantics modulo operand width - the same
// choice the teacher makes for Addi/Addf rather than tagging a single Add
// opcode with a runtime type bit (spec §9: typed opcodes, not tagged
// stack values).
type Bytecode byte

const (
	PushB Bytecode = 0x01
	PushW Bytecode = 0x02
	PushD Bytecode = 0x03

	PopB Bytecode = 0x04
	PopW Bytecode = 0x05
	PopD Bytecode = 0x06

	LoadB Bytecode = 0x07
	LoadW Bytecode = 0x08
	LoadD Bytecode = 0x09

	StoreB Bytecode = 0x0A
	StoreW Bytecode = 0x0B
	StoreD Bytecode = 0x0C

	GetB Bytecode = 0x0D
	GetW Bytecode = 0x0E
	GetD Bytecode = 0x0F

	Dataptr Bytecode = 0x10

	AddB Bytecode = 0x11
	AddW Bytecode = 0x12
	AddD Bytecode = 0x13

	SubB Bytecode = 0x14
	SubW Bytecode = 0x15
	SubD Bytecode = 0x16

	MulB Bytecode = 0x17
	MulW Bytecode = 0x18
	MulD Bytecode = 0x19

	DivB Bytecode = 0x1A
	DivW Bytecode = 0x1B
	DivD Bytecode = 0x1C

	CmpB Bytecode = 0x1D
	CmpW Bytecode = 0x1E
	CmpD Bytecode = 0x1F

	DupB Bytecode = 0x20
	DupW Bytecode = 0x21
	DupD Bytecode = 0x22

	Jmp   Bytecode = 0x23
	JmpEq Bytecode = 0x24
	JmpNe Bytecode = 0x25
	JmpLt Bytecode = 0x26
	JmpGt Bytecode = 0x27
	JmpLe Bytecode = 0x28
	JmpGe Bytecode = 0x29

	Call Bytecode = 0x2A

	Ret  Bytecode = 0x2B
	RetW Bytecode = 0x2C
	RetD Bytecode = 0x2D

	Alloc Bytecode = 0x2E
	Free  Bytecode = 0x2F

	AloadB Bytecode = 0x30
	AloadW Bytecode = 0x31
	AloadD Bytecode = 0x32

	AstoreB Bytecode = 0x33
	AstoreW Bytecode = 0x34
	AstoreD Bytecode = 0x35

	System Bytecode = 0x36

	PanicOp Bytecode = 0x37
)

// OperandKind describes how an opcode's trailing bytes (if any) are
// structured in the text section.
type OperandKind int

const (
	// OperandNone: the opcode occupies exactly 1 byte.
	OperandNone OperandKind = iota
	// OperandImm: a fixed-width immediate integer follows. Width-8
	// immediates may additionally be a label name at assembly time
	// (spec §4.2: "push/load/store-family instructions accept a label
	// where their operand is 8 bytes wide").
	OperandImm
	// OperandAddr: an 8-byte absolute code offset follows, written in
	// source either as a label or as a numeric literal.
	OperandAddr
)

type opcodeInfo struct {
	mnemonic string
	kind     OperandKind
	width    Width // meaningful only when kind == OperandImm
}

var opcodeTable = map[Bytecode]opcodeInfo{
	PushB: {"push.b", OperandImm, Byte1},
	PushW: {"push", OperandImm, Word4},
	PushD: {"push.d", OperandImm, Dword8},

	PopB: {"pop.b", OperandNone, 0},
	PopW: {"pop", OperandNone, 0},
	PopD: {"pop.d", OperandNone, 0},

	LoadB: {"load.b", OperandImm, Dword8},
	LoadW: {"load", OperandImm, Dword8},
	LoadD: {"load.d", OperandImm, Dword8},

	StoreB: {"store.b", OperandImm, Dword8},
	StoreW: {"store", OperandImm, Dword8},
	StoreD: {"store.d", OperandImm, Dword8},

	GetB: {"get.b", OperandNone, 0},
	GetW: {"get", OperandNone, 0},
	GetD: {"get.d", OperandNone, 0},

	Dataptr: {"dataptr", OperandImm, Dword8},

	AddB: {"add.b", OperandNone, 0},
	AddW: {"add", OperandNone, 0},
	AddD: {"add.d", OperandNone, 0},

	SubB: {"sub.b", OperandNone, 0},
	SubW: {"sub", OperandNone, 0},
	SubD: {"sub.d", OperandNone, 0},

	MulB: {"mul.b", OperandNone, 0},
	MulW: {"mul", OperandNone, 0},
	MulD: {"mul.d", OperandNone, 0},

	DivB: {"div.b", OperandNone, 0},
	DivW: {"div", OperandNone, 0},
	DivD: {"div.d", OperandNone, 0},

	CmpB: {"cmp.b", OperandNone, 0},
	CmpW: {"cmp", OperandNone, 0},
	CmpD: {"cmp.d", OperandNone, 0},

	DupB: {"dup.b", OperandNone, 0},
	DupW: {"dup", OperandNone, 0},
	DupD: {"dup.d", OperandNone, 0},

	Jmp:   {"jmp", OperandAddr, Dword8},
	JmpEq: {"jmp.eq", OperandAddr, Dword8},
	JmpNe: {"jmp.ne", OperandAddr, Dword8},
	JmpLt: {"jmp.lt", OperandAddr, Dword8},
	JmpGt: {"jmp.gt", OperandAddr, Dword8},
	JmpLe: {"jmp.le", OperandAddr, Dword8},
	JmpGe: {"jmp.ge", OperandAddr, Dword8},

	Call: {"call", OperandAddr, Dword8},

	Ret:  {"ret", OperandNone, 0},
	RetW: {"ret.w", OperandNone, 0},
	RetD: {"ret.d", OperandNone, 0},

	Alloc: {"alloc", OperandNone, 0},
	Free:  {"free", OperandNone, 0},

	AloadB: {"aload.b", OperandNone, 0},
	AloadW: {"aload", OperandNone, 0},
	AloadD: {"aload.d", OperandNone, 0},

	AstoreB: {"astore.b", OperandNone, 0},
	AstoreW: {"astore", OperandNone, 0},
	AstoreD: {"astore.d", OperandNone, 0},

	System: {"system", OperandNone, 0},

	PanicOp: {"panic", OperandNone, 0},
}

// mnemonicTable is built once from opcodeTable (init-time, the same shape
// as the teacher building instrToStrMap from strToInstrMap).
var mnemonicTable map[string]Bytecode

func init() {
	mnemonicTable = make(map[string]Bytecode, len(opcodeTable))
	for code, info := range opcodeTable {
		mnemonicTable[info.mnemonic] = code
	}
}

// String renders a bytecode back to its mnemonic, used by the disassembler.
func (b Bytecode) String() string {
	if info, ok := opcodeTable[b]; ok {
		return info.mnemonic
	}
	return fmt.Sprintf("?unknown(0x%02x)?", byte(b))
}

// lookupMnemonic resolves an assembly-source mnemonic to its Bytecode.
func lookupMnemonic(name string) (Bytecode, bool) {
	b, ok := mnemonicTable[name]
	return b, ok
}

// EncodedSize returns the total byte length of this opcode's encoding,
// including its trailing operand if any.
func (b Bytecode) EncodedSize() int {
	info, ok := opcodeTable[b]
	if !ok {
		return 1
	}
	switch info.kind {
	case OperandImm:
		return 1 + int(info.width)
	case OperandAddr:
		return 1 + 8
	default:
		return 1
	}
}

// conditionalJumpSets maps each conditional jump mnemonic family to the set
// of cmp signs {-1,0,1} it branches on (spec §4.1).
var conditionalJumpSets = map[Bytecode]map[int32]struct{}{
	JmpEq: {0: {}},
	JmpNe: {-1: {}, 1: {}},
	JmpLt: {-1: {}},
	JmpGt: {1: {}},
	JmpLe: {-1: {}, 0: {}},
	JmpGe: {0: {}, 1: {}},
}
