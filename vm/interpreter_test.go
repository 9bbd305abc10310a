package vm

import "testing"

func TestInterpreterSumToFixedPoint(t *testing.T) {
	// sum 1..5 using a loop that counts down, accumulating into local 1.
	src := `
.entry main
main:
	push 5
	store 0
	push 0
	store 1
loop:
	load 0
	push 0
	cmp
	jmp.eq done
	load 1
	load 0
	add
	store 1
	load 0
	push 1
	sub
	store 0
	jmp loop
done:
	load 1
	ret.w
`
	img, err := AssembleString(src)
	assert(t, err == nil, "assemble failed: %s", err)

	it := NewInterpreter(img, nil)
	assert(t, it.Run() == nil, "run failed: %s", it.Err)
	assert(t, it.Result == 15, "expected 1+2+3+4+5=15, got %d", it.Result)
}

func TestInterpreterCallTransfersArguments(t *testing.T) {
	src := `
.entry main
main:
	push 4
	push 7
	call addtwo
	ret.w
addtwo:
	load 0
	load 1
	add
	ret.w
`
	img, err := AssembleString(src)
	assert(t, err == nil, "assemble failed: %s", err)

	it := NewInterpreter(img, nil)
	assert(t, it.Run() == nil, "run failed: %s", it.Err)
	assert(t, it.Result == 11, "expected 4+7=11, got %d", it.Result)
}

func TestInterpreterConditionalJumpTakenAndNotTaken(t *testing.T) {
	src := `
.entry main
main:
	push 1
	push 1
	cmp
	jmp.eq equal
	push 0
	ret.w
equal:
	push 1
	ret.w
`
	img, err := AssembleString(src)
	assert(t, err == nil, "assemble failed: %s", err)

	it := NewInterpreter(img, nil)
	assert(t, it.Run() == nil, "run failed: %s", it.Err)
	assert(t, it.Result == 1, "expected the jmp.eq branch to be taken, got %d", it.Result)

	// 5 vs 10 compares to -1, so jmp.eq falls through to the push 0 path.
	notTaken := `
.entry main
main:
	push 5
	push 10
	cmp
	jmp.eq equal
	push 0
	ret.w
equal:
	push 1
	ret.w
`
	img, err = AssembleString(notTaken)
	assert(t, err == nil, "assemble failed: %s", err)

	it = NewInterpreter(img, nil)
	assert(t, it.Run() == nil, "run failed: %s", it.Err)
	assert(t, it.Result == 0, "expected the jmp.eq branch not to be taken, got %d", it.Result)
}

func TestInterpreterHeapRoundTrip(t *testing.T) {
	src := `
.entry main
main:
	push.d 4
	alloc
	dup.d
	push.d 0
	push 42
	astore
	push.d 0
	aload
	ret.w
`
	img, err := AssembleString(src)
	assert(t, err == nil, "assemble failed: %s", err)

	it := NewInterpreter(img, nil)
	assert(t, it.Run() == nil, "run failed: %s", it.Err)
	assert(t, it.Result == 42, "expected heap round-trip to read back 42, got %d", it.Result)
}

func TestInterpreterDivideByZeroPreservesFaultingFrame(t *testing.T) {
	src := `
.entry main
main:
	push 1
	push 0
	div
	ret.w
`
	img, err := AssembleString(src)
	assert(t, err == nil, "assemble failed: %s", err)

	it := NewInterpreter(img, nil)
	err = it.Run()
	assert(t, err == errDivideByZero, "expected divide-by-zero fault, got %s", err)
	assert(t, it.Halted, "interpreter should be halted after a fault")
	assert(t, len(it.Frames()) == 1, "faulting frame should remain on the call stack")

	// Text starts after the 8-byte entry header; "push 1" and "push 0" are
	// each a 1-byte opcode plus a 4-byte word immediate, so the div opcode
	// itself sits at code-space offset 8 + 10 = 18.
	assert(t, it.PC() == 18, "expected PC to point at the div opcode (offset 18), got %d", it.PC())

	it.Reset()
	assert(t, !it.Halted, "reset should clear the halt condition")
}

func TestInterpreterExplicitPanicPreservesState(t *testing.T) {
	src := `
.entry main
main:
	push 9
	panic
`
	img, err := AssembleString(src)
	assert(t, err == nil, "assemble failed: %s", err)

	it := NewInterpreter(img, nil)
	err = it.Run()
	assert(t, err == errPanicInstruction, "expected panic instruction error, got %s", err)

	top, perr := Peek[uint32](&it.Current().Stack)
	assert(t, perr == nil && top == 9, "expected the faulting frame's stack to survive the panic, got %d (err=%s)", top, perr)

	// Text starts after the 8-byte entry header; "push 9" is a 1-byte
	// opcode plus a 4-byte word immediate, so the panic opcode itself sits
	// at code-space offset 8 + 5 = 13.
	assert(t, it.PC() == 13, "expected PC to point at the panic opcode (offset 13), got %d", it.PC())
}

func TestInterpreterRetWFromMainLeavesValueOnStack(t *testing.T) {
	// Spec's open-question resolution: ret/ret.w/ret.d are equivalent on
	// main, since there is no caller stack to transfer into - the value
	// stays on main's own operand stack rather than being popped away.
	src := `
.entry main
main:
	push 10
	ret.w
`
	img, err := AssembleString(src)
	assert(t, err == nil, "assemble failed: %s", err)

	it := NewInterpreter(img, nil)
	assert(t, it.Run() == nil, "run failed: %s", it.Err)
	assert(t, it.Result == 10, "expected result 10, got %d", it.Result)

	top, perr := Peek[uint32](&it.Current().Stack)
	assert(t, perr == nil && top == 10, "expected ret.w to leave the value on main's stack, got %d (err=%s)", top, perr)

	// Text starts after the 8-byte entry header; "push 10" is a 1-byte
	// opcode plus a 4-byte word immediate, so ret.w itself sits at
	// code-space offset 8 + 5 = 13.
	assert(t, it.PC() == 13, "expected PC to point at the ret.w opcode (offset 13), got %d", it.PC())
}

func TestInterpreterSystemExit(t *testing.T) {
	src := `
.entry main
main:
	push 7
	push 1
	system
	push 0
	ret.w
`
	img, err := AssembleString(src)
	assert(t, err == nil, "assemble failed: %s", err)

	it := NewInterpreter(img, nil)
	assert(t, it.Run() == nil, "run failed: %s", it.Err)
	assert(t, it.Halted, "system(EXIT) should halt the interpreter")
	assert(t, it.ExitCode == 7, "expected exit code 7, got %d", it.ExitCode)
}
