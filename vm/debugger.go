package vm

import (
	"bufio"
	"fmt"
	"io"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DebuggerState is the top-level state machine a Debugger moves through:
// Off until Step or Continue is first called (and again after Reset),
// Running from then on (spec §4.9).
type DebuggerState int

const (
	Off DebuggerState = iota
	Running
)

// Debugger wraps an Interpreter with breakpoint management and a cached
// disassembly, so that inspection commands never have to re-disassemble
// mid-session (spec §4.9's explicit "computed once at construction" rule).
type Debugger struct {
	State DebuggerState

	it   *Interpreter
	img  *Image
	disa []DisasmLine
	off2 map[uint64]int

	breakpoints map[uint64]struct{}

	// sessionID correlates every log line emitted by one debugging
	// session, the way a request ID threads through a server's access
	// log; it has no effect on VM semantics.
	sessionID uuid.UUID
	log       *logrus.Entry
}

// NewDebugger constructs a Debugger over img, computing its disassembly and
// offset->line cache exactly once. The interpreter is positioned at the
// entry point but executes nothing until Step or Continue is called.
func NewDebugger(img *Image, sys Syscalls) *Debugger {
	sid := uuid.New()
	lines := Disassemble(img)
	return &Debugger{
		State:       Off,
		it:          NewInterpreter(img, sys),
		img:         img,
		disa:        lines,
		off2:        OffsetToLine(lines),
		breakpoints: make(map[uint64]struct{}),
		sessionID:   sid,
		log:         logrus.WithField("session", sid.String()),
	}
}

// Break toggles a breakpoint at the absolute code offset owning line idx
// of the cached disassembly (idx is an index into Disassembly(), not a
// raw offset, matching the "line number" vocabulary a human debugger
// session uses).
func (d *Debugger) Break(lineIdx int) error {
	if lineIdx < 0 || lineIdx >= len(d.disa) {
		return fmt.Errorf("line out of range: %d", lineIdx)
	}
	off := d.disa[lineIdx].Offset
	if _, already := d.breakpoints[off]; already {
		delete(d.breakpoints, off)
		d.log.Debugf("breakpoint cleared at %s", d.disa[lineIdx].Text)
	} else {
		d.breakpoints[off] = struct{}{}
		d.log.Debugf("breakpoint set at %s", d.disa[lineIdx].Text)
	}
	return nil
}

// Delete removes every breakpoint.
func (d *Debugger) Delete() {
	d.breakpoints = make(map[uint64]struct{})
}

// Disassembly exposes the cached disassembly for `ls`.
func (d *Debugger) Disassembly() []DisasmLine { return d.disa }

// LineAt returns the disassembly line index whose instruction owns pc, if
// any.
func (d *Debugger) LineAt(pc uint64) (int, bool) {
	idx, ok := d.off2[pc]
	return idx, ok
}

// Window returns up to n lines of the cached disassembly centered on the
// current PC, for a "disas" command that shows context rather than a flat
// dump of the whole program. It never re-disassembles: it only slices the
// disassembly computed once in NewDebugger.
func (d *Debugger) Window(n int) []DisasmLine {
	if n <= 0 || len(d.disa) == 0 {
		return nil
	}
	idx, ok := d.LineAt(d.it.PC())
	if !ok {
		idx = 0
	}
	half := n / 2
	start := idx - half
	if start < 0 {
		start = 0
	}
	end := start + n
	if end > len(d.disa) {
		end = len(d.disa)
		start = end - n
		if start < 0 {
			start = 0
		}
	}
	return d.disa[start:end]
}

// Stack renders the current frame's operand stack contents, oldest slot
// first, as 4-byte words (the stack's native slot granularity).
func (d *Debugger) Stack() []uint32 {
	frame := d.it.Current()
	if frame == nil {
		return nil
	}
	raw := frame.Stack.AsSlice()
	out := make([]uint32, 0, len(raw)/slotSize)
	for i := 0; i+slotSize <= len(raw); i += slotSize {
		out = append(out, GetNumber[uint32](raw[i:]))
	}
	return out
}

// Peek reads local slot i of the current frame as a 4-byte word.
func (d *Debugger) Peek(i int) (uint32, error) {
	frame := d.it.Current()
	if frame == nil {
		return 0, errVMHalted
	}
	return ReadLocal[uint32](&frame.Locals, i)
}

// Backtrace renders the call stack outermost-first, each entry naming the
// label (if any) its frame entered at.
func (d *Debugger) Backtrace() []string {
	out := make([]string, 0, len(d.it.Frames()))
	for _, f := range d.it.Frames() {
		name := d.img.Labels[f.Entry]
		if name == "" {
			name = fmt.Sprintf("0x%x", f.Entry)
		}
		out = append(out, name)
	}
	return out
}

// Step runs exactly one instruction and transitions Off->Running on first
// use.
func (d *Debugger) Step() error {
	d.State = Running
	err := d.it.Step()
	if err != nil {
		d.log.WithError(err).Warn("frame fault")
	}
	return err
}

// Continue runs until either a breakpoint is hit or the program halts.
// The garbage collector is disabled for the duration, the same hot-loop
// concession the teacher's RunProgram makes, restored via defer so a
// breakpoint stop or a fault never leaves it off.
func (d *Debugger) Continue() error {
	d.State = Running
	gcPercent := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(gcPercent)

	// A breakpoint sitting exactly on the instruction we're already
	// stopped at must not immediately retrigger.
	cur := d.it.PC()
	_, hadBreakpointHere := d.breakpoints[cur]
	delete(d.breakpoints, cur)
	err := d.it.RunUntil(d.breakpoints)
	if hadBreakpointHere {
		d.breakpoints[cur] = struct{}{}
	}
	return err
}

// Halted reports whether the underlying interpreter has stopped for good.
func (d *Debugger) Halted() bool { return d.it.Halted }

// Err returns the interpreter's halt error, if any.
func (d *Debugger) Err() error { return d.it.Err }

// Reset restarts the debugged program from its entry point, clearing
// breakpoints is left to the caller (`delete`) since a fresh run with the
// same breakpoints is the common case.
func (d *Debugger) Reset() {
	d.it.Reset()
	d.State = Off
}

// RunREPL drives an interactive session reading commands from r and
// writing output to w, the same bufio.Reader/stdout loop shape as the
// teacher's RunProgramDebugMode.
func (d *Debugger) RunREPL(r io.Reader, w io.Writer) {
	reader := bufio.NewReader(r)
	out := bufio.NewWriter(w)
	defer out.Flush()

	fmt.Fprintln(out, "Commands: run, step, continue, break <line>, delete, ls, disas [n], stack, peek <slot>, var <slot>, backtrace, quit")

	for {
		fmt.Fprint(out, "\n(dbg) ")
		out.Flush()
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "run":
			if err := d.Continue(); err != nil && err != errVMHalted {
				fmt.Fprintln(out, err)
			}
			d.printState(out)
		case "step", "n":
			if err := d.Step(); err != nil {
				fmt.Fprintln(out, err)
			}
			d.printState(out)
		case "continue", "c":
			if err := d.Continue(); err != nil && err != errVMHalted {
				fmt.Fprintln(out, err)
			}
			d.printState(out)
		case "break", "b":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: break <line>")
				continue
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintln(out, "bad line number:", err)
				continue
			}
			if err := d.Break(idx); err != nil {
				fmt.Fprintln(out, err)
			}
		case "delete":
			d.Delete()
		case "ls":
			for i, l := range d.disa {
				marker := " "
				if _, bp := d.breakpoints[l.Offset]; bp {
					marker = "*"
				}
				fmt.Fprintf(out, "%s%4d  %s\n", marker, i, l.Text)
			}
		case "disas":
			n := 10
			if len(fields) >= 2 {
				if v, err := strconv.Atoi(fields[1]); err == nil {
					n = v
				}
			}
			for _, l := range d.Window(n) {
				fmt.Fprintf(out, "%4d  %s\n", l.Offset, l.Text)
			}
		case "stack":
			for i, v := range d.Stack() {
				fmt.Fprintf(out, "[%d] %d\n", i, v)
			}
		case "peek", "var":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage:", fields[0], "<slot>")
				continue
			}
			slot, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintln(out, "bad slot:", err)
				continue
			}
			v, err := d.Peek(slot)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			fmt.Fprintln(out, v)
		case "backtrace", "bt":
			for _, name := range d.Backtrace() {
				fmt.Fprintln(out, name)
			}
		case "quit", "q":
			return
		default:
			fmt.Fprintln(out, "unknown command:", fields[0])
		}

		if d.Halted() {
			if err := d.Err(); err != nil {
				fmt.Fprintln(out, "halted:", err)
			} else {
				fmt.Fprintln(out, "program finished")
			}
			return
		}
	}
}

func (d *Debugger) printState(w *bufio.Writer) {
	pc := d.it.PC()
	if idx, ok := d.LineAt(pc); ok {
		fmt.Fprintf(w, "-> %4d  %s\n", idx, d.disa[idx].Text)
	}
}
