package vm

import "encoding/binary"

// Width is the byte width of a typed opcode operand or stack/locals slot
// value: 1 (.b), 4 (.w, the default) or 8 (.d) bytes.
type Width uint8

const (
	Byte1 Width = 1
	Word4 Width = 4
	Dword8 Width = 8
)

// slotSize is the fixed slot granularity shared by the operand stack and
// locals table (spec §3): every value, regardless of its own width, is
// addressed in units of 4 bytes.
const slotSize = 4

// slotsFor returns how many slotSize-wide slots a value of width w occupies.
func slotsFor(w Width) int {
	if w <= slotSize {
		return 1
	}
	return int(w) / slotSize
}

// Number is implemented by the fixed-width integer types the ISA operates
// on. It gives the stack, locals and program cursor a single little-endian
// encode/decode path instead of duplicating it per width - the same reason
// the teacher keeps uint32FromBytes/uint32ToBytes as the one conversion
// point every opcode funnels through.
type Number interface {
	~uint8 | ~uint32 | ~uint64 | ~int32 | ~int64
}

// PutNumber writes v into dst little-endian, using exactly the number of
// bytes sizeof(T) occupies. dst must be at least that long.
func PutNumber[T Number](dst []byte, v T) {
	switch any(v).(type) {
	case uint8:
		dst[0] = byte(v)
	case uint32, int32:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case uint64, int64:
		binary.LittleEndian.PutUint64(dst, uint64(v))
	}
}

// GetNumber reads a T out of src little-endian.
func GetNumber[T Number](src []byte) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(src[0])
	case uint32, int32:
		return T(binary.LittleEndian.Uint32(src))
	case uint64, int64:
		return T(binary.LittleEndian.Uint64(src))
	}
	return zero
}

// sizeofNumber returns sizeof(T) in bytes without needing a value in hand.
func sizeofNumber[T Number]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint32, int32:
		return 4
	case uint64, int64:
		return 8
	}
	return 0
}
