package vm

// LocalsCapacity is the default fixed size in bytes of a frame's locals
// table, matching OperandStackCapacity the way the teacher sizes its
// register file and stack from the same constants block.
const LocalsCapacity = 512

// Locals is a fixed-capacity, slot-indexed local variable table. Slot i
// lives at byte offset i*4, the same addressing rule as OperandStack.
type Locals struct {
	buf [LocalsCapacity]byte
}

func (l *Locals) capacitySlots() int {
	return len(l.buf) / slotSize
}

// ReadLocal reads an exactly-typed value out of slot i.
func ReadLocal[T Number](l *Locals, i int) (T, error) {
	n := slotsFor(widthOf[T]())
	if i < 0 || i+n > l.capacitySlots() {
		var zero T
		return zero, errLocalsOutOfRange
	}
	return GetNumber[T](l.buf[i*slotSize:]), nil
}

// WriteLocal writes a value of width sizeof(T) into slot i. Only the bytes
// the write touches are modified; unlike OperandStack.Push, locals never
// zero-extend on write - the high bytes of a 1-byte write are left as-is
// because reads are exactly typed (spec §3).
func WriteLocal[T Number](l *Locals, i int, v T) error {
	n := slotsFor(widthOf[T]())
	if i < 0 || i+n > l.capacitySlots() {
		return errLocalsOutOfRange
	}
	PutNumber(l.buf[i*slotSize:], v)
	return nil
}

// CopyFromSlice writes src as a contiguous prefix starting at slot 0. Used
// by call to install the caller's drained operand-stack bytes as the
// callee's initial locals.
func (l *Locals) CopyFromSlice(src []byte) error {
	if len(src) > len(l.buf) {
		return errLocalsOutOfRange
	}
	copy(l.buf[:], src)
	return nil
}

// Reset zeroes the locals table.
func (l *Locals) Reset() {
	for i := range l.buf {
		l.buf[i] = 0
	}
}
