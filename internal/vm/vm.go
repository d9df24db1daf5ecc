// Package vm implements mscript's stack machine (spec §4.9): one
// contiguous operand stack, a frame pointer, a side table of
// dynamically allocated arrays, and a dispatch loop over the program's
// linked opcode vector. Structurally this follows gad-lang/gad's
// vm.go (an explicit ip/sp/fp trio threaded through one dispatch loop,
// rather than a tree-walking interpreter), adapted from gad's register
// frame array to mscript's flat byte stack because mscript's call
// frames are untyped byte ranges, not tagged-value register windows.
package vm

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/anthropics/mscript/internal/diag"
	"github.com/anthropics/mscript/internal/opcode"
	"github.com/anthropics/mscript/internal/types"
)

// DefaultStackSize matches spec §4.9's "suggested 8 KiB" operand stack.
const DefaultStackSize = 8 * 1024

// frameHeaderSize is the byte size of the (saved_fp, saved_ip, saved_sp)
// header CALL and top-level invocation both write below the callee's
// frame pointer (spec §4.9).
const frameHeaderSize = 12

// stopSentinel is the ip value that halts the dispatch loop: the
// top-level call's saved_ip is -2 (spec §4.9's Invocation step), and
// RETURN's restore plus the loop's trailing ip++ brings it to -1.
const stopSentinel = -1

// FuncInfo is one script-defined function's linked entry point and
// signature, enough for the VM to marshal arguments and jump in.
type FuncInfo struct {
	Addr       int
	ParamTypes []*types.Type
	ReturnType *types.Type
}

// NativeCall is the Go function a host registers for one
// import_function declaration (spec §6, "Native callables"). It
// receives already-decoded argument values in declaration order and
// returns the function's result (a zero Value for a void declaration).
type NativeCall func(args []types.Value) types.Value

// Native pairs a host callback with the signature the script side
// declared for it, so the VM can decode C_CALL's raw argument bytes
// into typed values before invoking it.
type Native struct {
	ParamTypes []*types.Type
	ReturnType *types.Type
	Call       NativeCall
}

// Program is the fully linked, ready-to-run form of one mscript source
// file (the output of internal/link plus the symbol information the VM
// needs at call time). internal/loader builds one of these per
// successfully loaded file.
type Program struct {
	Instrs      []opcode.Instr
	Strings     []byte
	GlobalsInit []byte
	GlobalsSize int
	Funcs       map[string]FuncInfo
	Natives     map[string]Native
	Registry    *types.Registry
}

// arrayRecord is one entry in the VM's array table (spec §4.9's "vector
// of array records"). Handle 0 is reserved to mean null; live handles
// are 1-based indices into VM.arrays.
type arrayRecord struct {
	deleted  bool
	elemSize int
	data     []byte
}

// Options tunes one VM instance beyond the program it runs (spec §5's
// "optional instruction-count or wall-clock hook").
type Options struct {
	StackSize int
	// MaxInstructions, if non-zero, aborts Run with ErrBudgetExceeded
	// once this many instructions have been dispatched across every
	// Run call the VM makes (a cooperative cancellation hook, not a
	// per-call budget).
	MaxInstructions int
	// Output receives DEBUG_PRINT_* opcode text (spec §4.6); defaults to
	// io.Discard, since rendering runtime values to a terminal is an
	// explicit host concern (spec §1) the core only needs to execute,
	// not format for a particular target.
	Output io.Writer
}

// VM is one execution context for a Program: its own operand stack,
// globals-section copy, and array table (spec §5, "two VMs must not
// share a globals section or array table").
type VM struct {
	prog    *Program
	opts    Options
	stack   []byte
	globals []byte
	arrays  []arrayRecord

	fp, sp, ip int
	executed   int
}

// ErrBudgetExceeded is returned by Run when Options.MaxInstructions was
// set and execution hit that instruction-count ceiling without the
// called function returning (spec §5's cancellation hook).
var ErrBudgetExceeded = fmt.Errorf("vm: instruction budget exceeded")

// New allocates a VM for prog and copies the program's globals-section
// initial image into its own mutable globals buffer.
func New(prog *Program, opts Options) *VM {
	if opts.StackSize <= 0 {
		opts.StackSize = DefaultStackSize
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	globals := make([]byte, prog.GlobalsSize)
	copy(globals, prog.GlobalsInit)
	return &VM{
		prog:    prog,
		opts:    opts,
		stack:   make([]byte, opts.StackSize),
		globals: globals,
	}
}

// Stack exposes the raw operand stack (spec §6's vm_get_stack): after a
// Run call returns successfully, the return value sits at offset 0.
func (m *VM) Stack() []byte { return m.stack }

// DumpStack renders a short human-readable summary of the VM's current
// memory footprint, used by cmd/mscript's -debug flag.
func (m *VM) DumpStack() string {
	arrayBytes := 0
	for _, a := range m.arrays {
		arrayBytes += len(a.data)
	}
	return fmt.Sprintf("stack=%s/%s globals=%s arrays=%d (%s)",
		humanize.Bytes(uint64(m.sp)), humanize.Bytes(uint64(len(m.stack))),
		humanize.Bytes(uint64(len(m.globals))), len(m.arrays), humanize.Bytes(uint64(arrayBytes)))
}

// Run invokes funcName with args (spec §6's vm_run) and returns its
// decoded return value. args must match the function's declared
// parameter count and types in order.
func (m *VM) Run(funcName string, args []types.Value) (types.Value, error) {
	fn, ok := m.prog.Funcs[funcName]
	if !ok {
		return types.Value{}, fmt.Errorf("vm: undefined function %q", funcName)
	}
	if len(args) != len(fn.ParamTypes) {
		return types.Value{}, fmt.Errorf("vm: %s expects %d arguments, got %d", funcName, len(fn.ParamTypes), len(args))
	}

	m.sp = 0
	m.fp = 0

	// Push arguments right-to-left (spec §6's Invocation: "pushes
	// arguments onto the stack right-to-left with sizes matching the
	// declared parameter types"), so the first argument ends up
	// closest to the new frame pointer.
	for i := len(args) - 1; i >= 0; i-- {
		b, err := m.marshalArg(args[i], fn.ParamTypes[i])
		if err != nil {
			return types.Value{}, err
		}
		m.pushBytes(b)
	}

	argsSize := 0
	for _, pt := range fn.ParamTypes {
		argsSize += pt.Size()
	}
	m.writeFrameHeader(0, -2, m.sp-argsSize)
	m.fp = m.sp
	m.ip = fn.Addr

	if err := m.dispatch(); err != nil {
		return types.Value{}, err
	}

	ret := types.Decode(fn.ReturnType, m.stack[0:fn.ReturnType.Size()])
	return ret, nil
}

// marshalArg encodes one host-supplied argument into its in-stack byte
// representation, allocating a fresh array-table entry for a top-level
// array literal (spec §6: "top-level array initializers allocate a new
// array-table entry"). An array argument that already carries a handle
// (Elements == nil) is passed through unchanged.
func (m *VM) marshalArg(v types.Value, paramType *types.Type) ([]byte, error) {
	if paramType.Kind == types.Array && v.Elements != nil {
		handle := m.createArray(paramType.Elem.Size())
		rec := &m.arrays[handle-1]
		for _, el := range v.Elements {
			rec.data = append(rec.data, el.Bytes()...)
		}
		return types.IntValue(int32(handle)).Bytes(), nil
	}
	return v.Bytes(), nil
}

func (m *VM) writeFrameHeader(savedFP, savedIP, savedSP int) {
	m.pushInt32(int32(savedFP))
	m.pushInt32(int32(savedIP))
	m.pushInt32(int32(savedSP))
}

// --- raw stack primitives ---

func (m *VM) pushBytes(b []byte) {
	copy(m.stack[m.sp:], b)
	m.sp += len(b)
}

func (m *VM) popBytes(n int) []byte {
	m.sp -= n
	out := make([]byte, n)
	copy(out, m.stack[m.sp:m.sp+n])
	return out
}

func (m *VM) peekBytes(n int) []byte {
	return m.stack[m.sp-n : m.sp]
}

func le32(b []byte) int32 {
	return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

func putLE32(b []byte, v int32) {
	u := uint32(v)
	b[0], b[1], b[2], b[3] = byte(u), byte(u>>8), byte(u>>16), byte(u>>24)
}

func (m *VM) pushInt32(v int32) {
	var b [4]byte
	putLE32(b[:], v)
	m.pushBytes(b[:])
}

func (m *VM) popInt32() int32 { return le32(m.popBytes(4)) }

func (m *VM) pushFloat32(f float32) { m.pushInt32(int32(math.Float32bits(f))) }
func (m *VM) popFloat32() float32   { return math.Float32frombits(uint32(m.popInt32())) }

// --- array table ---

func (m *VM) createArray(elemSize int) int {
	m.arrays = append(m.arrays, arrayRecord{elemSize: elemSize})
	return len(m.arrays) // 1-based handle
}

func (m *VM) arrayAt(handle int32) (*arrayRecord, error) {
	if handle == 0 {
		return nil, fmt.Errorf("vm: use of null array handle")
	}
	if int(handle) < 1 || int(handle) > len(m.arrays) {
		return nil, fmt.Errorf("vm: array handle %d out of range", handle)
	}
	return &m.arrays[handle-1], nil
}

// diagRuntime wraps a dispatch-time failure as a runtime diagnostic
// (spec §7's optional runtime error kinds).
func diagRuntime(kind diag.Kind, format string, args ...any) error {
	return diag.New(diag.CategoryRuntime, kind, diag.Pos{}, format, args...)
}
