package vm

// Interpreter drives a call stack of Frames against a single Image,
// dispatching one instruction at a time through Frame.Step and acting on
// the FrameResult it returns (spec §4.8). It owns the one Cursor and one
// Heap every live frame shares - the single-writer discipline the spec's
// concurrency section requires even though frames never run concurrently.
type Interpreter struct {
	img    *Image
	cur    *Cursor
	heap   *Heap
	frames []*Frame
	sys    Syscalls

	Halted   bool
	Err      error
	ExitCode int32

	// Result holds the widened return value of the outermost frame's
	// RetW/RetD, valid only once Halted is true and Err is nil.
	Result uint64
}

// NewInterpreter constructs an interpreter ready to run img from its entry
// point, with a fresh heap and sys as the syscall surface for system().
func NewInterpreter(img *Image, sys Syscalls) *Interpreter {
	it := &Interpreter{img: img, sys: sys}
	it.Reset()
	return it
}

// Reset rewinds the interpreter to a single fresh frame at the image's
// entry point, discarding any heap state, call stack and halt condition -
// the only way to recover from a fatal fault (spec §7: "not recoverable
// without Interpreter.Reset").
func (it *Interpreter) Reset() {
	it.heap = NewHeap()
	it.cur = NewCursor(it.img.CodeView(), it.img.Entry)
	root := NewFrame(it.img.Entry, 0, it.heap, it.sys)
	it.frames = []*Frame{root}
	it.Halted = false
	it.Err = nil
	it.ExitCode = 0
	it.Result = 0
}

// Current returns the frame currently executing, i.e. the top of the call
// stack - the one the debugger inspects for `stack`/`var`/`peek`.
func (it *Interpreter) Current() *Frame {
	if len(it.frames) == 0 {
		return nil
	}
	return it.frames[len(it.frames)-1]
}

// Frames returns the live call stack, outermost first, for `backtrace`.
func (it *Interpreter) Frames() []*Frame { return it.frames }

// PC returns the interpreter's current code-space offset.
func (it *Interpreter) PC() uint64 { return it.cur.Position }

// Step executes exactly one instruction in the current frame and applies
// its FrameResult to the call stack. It is the unit both Run and the
// debugger's single-stepping build on.
func (it *Interpreter) Step() error {
	if it.Halted {
		return errVMHalted
	}

	frame := it.Current()
	result, err := frame.Step(it.cur)
	if err != nil {
		// Every fault (decode error, divide by zero, bad handle, explicit
		// panic, ...) reports FrameResult.Position as the address of the
		// opcode that faulted; pin the cursor there so PC() reflects it
		// rather than wherever decoding had advanced to (spec §4.7, §8
		// scenario 6: "the PC pointing at the panic opcode").
		it.cur.Position = result.Position
		it.Halted = true
		it.Err = err
		return err
	}

	switch result.Kind {
	case Continue:
		// Nothing to splice; frame keeps running at the cursor's new
		// position (already advanced by Step).

	case CallResult:
		it.frames = append(it.frames, result.NewFrame)
		it.cur.Position = result.NewFrame.Entry

	case RetResult:
		it.popFrame(result.Position)

	case RetWResult:
		// On main there is no caller frame to transfer into: ret/ret.w/
		// ret.d are equivalent here and leave the value in place on
		// main's own operand stack rather than popping it (spec §9 open
		// question resolution). it.Result is a convenience peek for
		// callers that don't want to dig through Frames() themselves.
		if len(it.frames) == 1 {
			v, perr := Peek[uint32](&frame.Stack)
			if perr != nil {
				it.Halted = true
				it.Err = perr
				return perr
			}
			it.Result = uint64(v)
			it.popFrame(result.Position)
			break
		}
		v, perr := Pop[uint32](&frame.Stack)
		if perr != nil {
			it.Halted = true
			it.Err = perr
			return perr
		}
		it.popFrame(result.Position)
		caller := it.Current()
		if perr := Push(&caller.Stack, v); perr != nil {
			it.Halted = true
			it.Err = perr
			return perr
		}

	case RetDResult:
		if len(it.frames) == 1 {
			v, perr := Peek[uint64](&frame.Stack)
			if perr != nil {
				it.Halted = true
				it.Err = perr
				return perr
			}
			it.Result = v
			it.popFrame(result.Position)
			break
		}
		v, perr := Pop[uint64](&frame.Stack)
		if perr != nil {
			it.Halted = true
			it.Err = perr
			return perr
		}
		it.popFrame(result.Position)
		caller := it.Current()
		if perr := Push(&caller.Stack, v); perr != nil {
			it.Halted = true
			it.Err = perr
			return perr
		}

	case PanicResult:
		// The faulting frame stays on the call stack for inspection
		// (spec §4.7/§7) - only Reset clears it. PC is pinned to the
		// panicking opcode itself, not wherever the cursor had advanced
		// to reading it, so the debugger reports the right line.
		it.cur.Position = result.Position
		it.Halted = true
		it.Err = errPanicInstruction

	case ExitResult:
		it.Halted = true
		it.ExitCode = result.ExitCode
	}

	return nil
}

// popFrame removes the current (returning) frame and restores the cursor
// to its caller's resume point. The outermost frame is never removed: a
// bare `ret` from the entry routine is how a program terminates
// successfully (spec §8 testable properties), so main stays on the call
// stack for inspection, the interpreter halts, and the cursor is pinned to
// pos - the byte address of the terminating ret/ret.w/ret.d itself - so
// the debugger reports the line that actually finished main rather than
// wherever decoding the opcode left the cursor.
func (it *Interpreter) popFrame(pos uint64) {
	if len(it.frames) == 1 {
		it.cur.Position = pos
		it.Halted = true
		return
	}
	returning := it.frames[len(it.frames)-1]
	it.frames = it.frames[:len(it.frames)-1]
	it.cur.Position = returning.Ret
}

// Run steps until the interpreter halts, returning the halt error (nil on
// a normal, successful return or system(EXIT)).
func (it *Interpreter) Run() error {
	for !it.Halted {
		if err := it.Step(); err != nil {
			return err
		}
	}
	return it.Err
}

// RunUntil steps until either the interpreter halts or pc names a code
// offset with a pending breakpoint, whichever comes first - the primitive
// the debugger's `continue` command is built on.
func (it *Interpreter) RunUntil(breakpoints map[uint64]struct{}) error {
	// Breakpoints are checked only after each step, so a breakpoint at the
	// very position we're already stopped at does not immediately
	// re-trigger.
	for !it.Halted {
		if err := it.Step(); err != nil {
			return err
		}
		if it.Halted {
			break
		}
		if _, hit := breakpoints[it.cur.Position]; hit {
			return nil
		}
	}
	return it.Err
}
