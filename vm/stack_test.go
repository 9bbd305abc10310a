package vm

import (
	"fmt"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestOperandStackPushPop(t *testing.T) {
	var s OperandStack

	assert(t, Push[uint32](&s, 42) == nil, "push.w failed")
	v, err := Pop[uint32](&s)
	assert(t, err == nil, "pop.w failed: %s", err)
	assert(t, v == 42, "expected 42, got %d", v)

	assert(t, Push[uint8](&s, 7) == nil, "push.b failed")
	b, err := Pop[uint8](&s)
	assert(t, err == nil, "pop.b failed: %s", err)
	assert(t, b == 7, "expected 7, got %d", b)

	assert(t, Push[uint64](&s, 1<<40) == nil, "push.d failed")
	d, err := Pop[uint64](&s)
	assert(t, err == nil, "pop.d failed: %s", err)
	assert(t, d == 1<<40, "expected 2^40, got %d", d)
}

func TestOperandStackUnderflow(t *testing.T) {
	var s OperandStack
	_, err := Pop[uint32](&s)
	assert(t, err == errStackUnderflow, "expected underflow, got %s", err)
}

func TestOperandStackOverflow(t *testing.T) {
	var s OperandStack
	var err error
	for i := 0; i < OperandStackCapacity/slotSize; i++ {
		err = Push[uint32](&s, uint32(i))
		assert(t, err == nil, "unexpected overflow at %d: %s", i, err)
	}
	err = Push[uint32](&s, 0)
	assert(t, err == errStackOverflow, "expected overflow, got %s", err)
}

func TestOperandStackDup(t *testing.T) {
	var s OperandStack
	assert(t, Push[uint32](&s, 9) == nil, "push failed")
	assert(t, Dup[uint32](&s) == nil, "dup failed")
	assert(t, s.Len() == 2, "expected 2 slots in use, got %d", s.Len())

	top, _ := Pop[uint32](&s)
	second, _ := Pop[uint32](&s)
	assert(t, top == 9 && second == 9, "dup did not duplicate the top value")
}

func TestLocalsReadWrite(t *testing.T) {
	var l Locals
	assert(t, WriteLocal[uint32](&l, 0, 123) == nil, "write failed")
	v, err := ReadLocal[uint32](&l, 0)
	assert(t, err == nil && v == 123, "expected 123, got %d (err=%s)", v, err)

	_, err = ReadLocal[uint32](&l, -1)
	assert(t, err == errLocalsOutOfRange, "expected out-of-range, got %s", err)
}

func TestLocalsNarrowWriteDoesNotZeroExtend(t *testing.T) {
	var l Locals
	assert(t, WriteLocal[uint32](&l, 0, 0xFFFFFFFF) == nil, "write.w failed")
	assert(t, WriteLocal[uint8](&l, 0, 0x01) == nil, "write.b failed")

	w, _ := ReadLocal[uint32](&l, 0)
	assert(t, w == 0xFFFFFF01, "narrow write zero-extended unexpectedly: got 0x%x", w)
}
