package vm

// Cursor is a random-access byte reader over an Image's code-space view
// (spec: "8-byte entry header ∥ data ∥ text"). It produces fixed-width
// little-endian integers and the next opcode byte, the same role the
// teacher's program counter register plays over vm.program, generalized
// here from a slice-of-Instruction to a raw byte stream since the ISA is
// now variably-sized per instruction.
type Cursor struct {
	code     []byte
	Position uint64
}

// NewCursor wraps code for reading, with the read head at pos.
func NewCursor(code []byte, pos uint64) *Cursor {
	return &Cursor{code: code, Position: pos}
}

// Len reports the size of the underlying code-space view.
func (c *Cursor) Len() int { return len(c.code) }

// NextByte reads one byte at the current position and advances by 1. It is
// used to fetch the opcode at the start of every dispatch iteration.
func (c *Cursor) NextByte() (byte, error) {
	if c.Position >= uint64(len(c.code)) {
		return 0, errPastEndOfImage
	}
	b := c.code[c.Position]
	c.Position++
	return b, nil
}

// Next reads a T at the current position and advances by sizeof(T).
func Next[T Number](c *Cursor) (T, error) {
	n := uint64(sizeofNumber[T]())
	if c.Position+n > uint64(len(c.code)) {
		var zero T
		return zero, errPastEndOfImage
	}
	v := GetNumber[T](c.code[c.Position:])
	c.Position += n
	return v, nil
}

// Get reads a T at an arbitrary absolute offset without moving Position.
// Used by the `get` opcode to read the immutable program image at
// ptr+offset.
func Get[T Number](c *Cursor, offset uint64) (T, error) {
	n := uint64(sizeofNumber[T]())
	if offset+n > uint64(len(c.code)) {
		var zero T
		return zero, errPastEndOfImage
	}
	return GetNumber[T](c.code[offset:]), nil
}
