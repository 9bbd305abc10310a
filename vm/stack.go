package vm

// OperandStackCapacity is the default fixed size of a frame's operand
// stack, 8-byte aligned the way the teacher's own stack buffer
// (vm/vm.go: stack [stackSize]byte) is laid out as a plain fixed array
// rather than a growable slice.
const OperandStackCapacity = 512

// OperandStack is a fixed-capacity, slot-indexed byte buffer. idx counts
// 4-byte slots in use, not bytes - the same "index is a slot count, not a
// byte offset" discipline the teacher's stack pointer register follows.
type OperandStack struct {
	buf [OperandStackCapacity]byte
	idx int // slots in use, 0 <= idx <= capacitySlots
}

func (s *OperandStack) capacitySlots() int {
	return len(s.buf) / slotSize
}

// Len returns the number of slots currently in use.
func (s *OperandStack) Len() int { return s.idx }

// Push pushes v, zero-extending into its slot(s) if narrower than 4 bytes.
func Push[T Number](s *OperandStack, v T) error {
	n := slotsFor(widthOf[T]())
	if s.idx+n > s.capacitySlots() {
		return errStackOverflow
	}
	off := s.idx * slotSize
	// Zero the slot first so a 1-byte push leaves its high 3 bytes clear.
	for i := 0; i < n*slotSize; i++ {
		s.buf[off+i] = 0
	}
	PutNumber(s.buf[off:], v)
	s.idx += n
	return nil
}

// Pop pops and returns the top value of width sizeof(T).
func Pop[T Number](s *OperandStack) (T, error) {
	n := slotsFor(widthOf[T]())
	if s.idx < n {
		var zero T
		return zero, errStackUnderflow
	}
	s.idx -= n
	off := s.idx * slotSize
	return GetNumber[T](s.buf[off:]), nil
}

// Peek returns the top value of width sizeof(T) without popping it.
func Peek[T Number](s *OperandStack) (T, error) {
	n := slotsFor(widthOf[T]())
	if s.idx < n {
		var zero T
		return zero, errStackUnderflow
	}
	off := (s.idx - n) * slotSize
	return GetNumber[T](s.buf[off:]), nil
}

// peekBytesAt returns a mutable view of the buffer starting slotsFromTop
// slots below the top and running to the end of the buffer. Nothing in the
// package calls it; the binary ops pop both operands and push the result.
func (s *OperandStack) peekBytesAt(slotsFromTop int) []byte {
	off := (s.idx - slotsFromTop) * slotSize
	return s.buf[off:]
}

// Drop discards the top value of width w without reading it.
func (s *OperandStack) Drop(w Width) error {
	n := slotsFor(w)
	if s.idx < n {
		return errStackUnderflow
	}
	s.idx -= n
	return nil
}

// Dup duplicates the top value of width sizeof(T).
func Dup[T Number](s *OperandStack) error {
	v, err := Peek[T](s)
	if err != nil {
		return err
	}
	return Push(s, v)
}

// AsSlice exposes the currently-used prefix of the buffer as raw bytes.
// Used only when a call transfers the caller's operand stack wholesale
// into the callee's locals.
func (s *OperandStack) AsSlice() []byte {
	return s.buf[:s.idx*slotSize]
}

// Reset clears the stack back to empty.
func (s *OperandStack) Reset() { s.idx = 0 }

func widthOf[T Number]() Width {
	return Width(sizeofNumber[T]())
}
