package vm

import (
	"bytes"
	"testing"
)

const debuggerTestSource = `
.entry main
main:
	push 1
	push 2
	add
	ret.w
`

func TestDebuggerDisassemblyCachedOnce(t *testing.T) {
	img, err := AssembleString(debuggerTestSource)
	assert(t, err == nil, "assemble failed: %s", err)

	dbg := NewDebugger(img, nil)
	first := dbg.Disassembly()
	second := dbg.Disassembly()
	assert(t, len(first) > 0, "expected a non-empty disassembly")
	assert(t, &first[0] == &second[0], "Disassembly should return the same cached slice, not recompute it")
}

func TestDebuggerBreakpointStopsContinue(t *testing.T) {
	img, err := AssembleString(debuggerTestSource)
	assert(t, err == nil, "assemble failed: %s", err)

	dbg := NewDebugger(img, nil)
	// Break at the "add" line (index 2: push, push, add, ret.w).
	assert(t, dbg.Break(2) == nil, "setting breakpoint failed")

	err = dbg.Continue()
	assert(t, err == nil, "continue should stop cleanly at the breakpoint: %s", err)
	assert(t, !dbg.Halted(), "interpreter should still be running after hitting a breakpoint")

	idx, ok := dbg.LineAt(dbg.it.PC())
	assert(t, ok && idx == 2, "expected to stop at line 2, got %d (ok=%v)", idx, ok)

	err = dbg.Continue()
	assert(t, err == nil, "second continue should run to completion: %s", err)
	assert(t, dbg.Halted(), "interpreter should be halted after running past the breakpoint")
}

func TestDebuggerDeleteClearsBreakpoints(t *testing.T) {
	img, err := AssembleString(debuggerTestSource)
	assert(t, err == nil, "assemble failed: %s", err)

	dbg := NewDebugger(img, nil)
	assert(t, dbg.Break(2) == nil, "setting breakpoint failed")
	dbg.Delete()
	assert(t, len(dbg.breakpoints) == 0, "delete should clear every breakpoint")

	err = dbg.Continue()
	assert(t, err == nil, "continue with no breakpoints should run to completion: %s", err)
	assert(t, dbg.Halted(), "expected the program to finish")
}

func TestDebuggerStackInspection(t *testing.T) {
	img, err := AssembleString(debuggerTestSource)
	assert(t, err == nil, "assemble failed: %s", err)

	dbg := NewDebugger(img, nil)
	assert(t, dbg.Step() == nil, "step failed")
	assert(t, dbg.Step() == nil, "step failed")

	stack := dbg.Stack()
	assert(t, len(stack) == 2, "expected 2 words on the stack after two pushes, got %d", len(stack))
	assert(t, stack[0] == 1 && stack[1] == 2, "unexpected stack contents: %v", stack)
}

func TestDebuggerWindowCentersOnPC(t *testing.T) {
	img, err := AssembleString(debuggerTestSource)
	assert(t, err == nil, "assemble failed: %s", err)

	dbg := NewDebugger(img, nil)
	assert(t, dbg.Step() == nil, "step failed")
	assert(t, dbg.Step() == nil, "step failed")

	win := dbg.Window(2)
	assert(t, len(win) == 2, "expected a 2-line window, got %d", len(win))

	idx, ok := dbg.LineAt(dbg.it.PC())
	assert(t, ok, "expected the current PC to resolve to a disassembly line")
	assert(t, win[0].Offset == dbg.disa[idx-1].Offset, "window should include the line before the current PC")
}

func TestDebuggerREPLRunsToCompletion(t *testing.T) {
	img, err := AssembleString(debuggerTestSource)
	assert(t, err == nil, "assemble failed: %s", err)

	dbg := NewDebugger(img, nil)
	var out bytes.Buffer
	in := bytes.NewBufferString("run\nquit\n")
	dbg.RunREPL(in, &out)
	assert(t, out.Len() > 0, "expected the REPL to print something")
}
