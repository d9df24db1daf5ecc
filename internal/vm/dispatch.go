package vm

import (
	"fmt"

	"github.com/anthropics/mscript/internal/opcode"
	"github.com/anthropics/mscript/internal/types"
)

// dispatch runs the fetch-execute loop until ip reaches stopSentinel
// (spec §4.9). Control-transferring opcodes (JMP, JF, CALL, RETURN) set
// m.ip to one less than their true target; the unconditional m.ip++ at
// the bottom of every iteration then lands it exactly on that target,
// mirroring the original VM's `for (;; ip++)` dispatch shape (spec
// §4.9's CALL note: "jumps to label − 1 (the +1 at the bottom of the
// dispatch loop brings it to label)").
func (m *VM) dispatch() error {
	for m.ip != stopSentinel {
		if m.opts.MaxInstructions > 0 {
			m.executed++
			if m.executed > m.opts.MaxInstructions {
				return ErrBudgetExceeded
			}
		}
		instr := m.prog.Instrs[m.ip]
		if err := m.step(instr); err != nil {
			return err
		}
		m.ip++
	}
	return nil
}

func (m *VM) step(instr opcode.Instr) error {
	switch instr.Op {
	// --- arithmetic ---
	case opcode.IADD:
		b, a := m.popInt32(), m.popInt32()
		m.pushInt32(a + b)
	case opcode.ISUB:
		b, a := m.popInt32(), m.popInt32()
		m.pushInt32(a - b)
	case opcode.IMUL:
		b, a := m.popInt32(), m.popInt32()
		m.pushInt32(a * b)
	case opcode.IDIV:
		b, a := m.popInt32(), m.popInt32()
		if b == 0 {
			return diagRuntime("divide-by-zero", "integer division by zero")
		}
		m.pushInt32(a / b)
	case opcode.FADD:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushFloat32(a + b)
	case opcode.FSUB:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushFloat32(a - b)
	case opcode.FMUL:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushFloat32(a * b)
	case opcode.FDIV:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushFloat32(a / b)
	case opcode.V3ADD:
		b, a := m.popVec3(), m.popVec3()
		m.pushVec3(a[0]+b[0], a[1]+b[1], a[2]+b[2])
	case opcode.V3SUB:
		b, a := m.popVec3(), m.popVec3()
		m.pushVec3(a[0]-b[0], a[1]-b[1], a[2]-b[2])
	case opcode.V3SCALE:
		scalar := m.popFloat32()
		v := m.popVec3()
		m.pushVec3(v[0]*scalar, v[1]*scalar, v[2]*scalar)

	// --- comparisons ---
	case opcode.ILT:
		b, a := m.popInt32(), m.popInt32()
		m.pushBool(a < b)
	case opcode.ILTE:
		b, a := m.popInt32(), m.popInt32()
		m.pushBool(a <= b)
	case opcode.IGT:
		b, a := m.popInt32(), m.popInt32()
		m.pushBool(a > b)
	case opcode.IGTE:
		b, a := m.popInt32(), m.popInt32()
		m.pushBool(a >= b)
	case opcode.IEQ:
		b, a := m.popInt32(), m.popInt32()
		m.pushBool(a == b)
	case opcode.INEQ:
		b, a := m.popInt32(), m.popInt32()
		m.pushBool(a != b)
	case opcode.FLT:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushBool(a < b)
	case opcode.FLTE:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushBool(a <= b)
	case opcode.FGT:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushBool(a > b)
	case opcode.FGTE:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushBool(a >= b)
	case opcode.FEQ:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushBool(a == b)
	case opcode.FNEQ:
		b, a := m.popFloat32(), m.popFloat32()
		m.pushBool(a != b)
	case opcode.V3EQ:
		b, a := m.popVec3(), m.popVec3()
		m.pushBool(a == b)
	case opcode.V3NEQ:
		b, a := m.popVec3(), m.popVec3()
		m.pushBool(a != b)

	// --- conversions ---
	case opcode.I2F:
		m.pushFloat32(float32(m.popInt32()))
	case opcode.F2I:
		m.pushInt32(int32(m.popFloat32()))
	case opcode.NOT:
		m.pushBool(m.popInt32() == 0)
	case opcode.IINC:
		m.pushInt32(m.popInt32() + 1)
	case opcode.FINC:
		m.pushFloat32(m.popFloat32() + 1)

	// --- stack ---
	case opcode.INT:
		m.pushInt32(int32(instr.IntArg))
	case opcode.FLOAT:
		m.pushFloat32(instr.Float)
	case opcode.COPY:
		m.pushBytes(m.stack[m.sp-instr.IntArg : m.sp-instr.IntArg+instr.Arg2])
	case opcode.PUSH:
		for i := 0; i < instr.IntArg; i++ {
			m.stack[m.sp+i] = 0
		}
		m.sp += instr.IntArg
	case opcode.POP:
		m.sp -= instr.IntArg

	// --- memory ---
	case opcode.LOCAL_LOAD:
		addr := m.fp + instr.IntArg
		m.pushBytes(m.stack[addr : addr+instr.Arg2])
	case opcode.LOCAL_STORE:
		addr := m.fp + instr.IntArg
		copy(m.stack[addr:addr+instr.Arg2], m.peekBytes(instr.Arg2))
	case opcode.GLOBAL_LOAD:
		m.pushBytes(m.globals[instr.IntArg : instr.IntArg+instr.Arg2])
	case opcode.GLOBAL_STORE:
		copy(m.globals[instr.IntArg:instr.IntArg+instr.Arg2], m.peekBytes(instr.Arg2))

	// --- control ---
	case opcode.JMP:
		m.ip = instr.IntArg - 1
	case opcode.JF:
		if m.popInt32() == 0 {
			m.ip = instr.IntArg - 1
		}
	case opcode.CALL:
		return m.call(instr.IntArg, instr.Arg2)
	case opcode.C_CALL:
		return m.nativeCall(instr.Name, instr.Arg2)
	case opcode.RETURN:
		m.doReturn(instr.IntArg)

	// --- arrays ---
	case opcode.ARRAY_CREATE:
		m.pushInt32(int32(m.createArray(instr.IntArg)))
	case opcode.ARRAY_DELETE:
		handle := m.popInt32()
		if handle != 0 {
			if rec, err := m.arrayAt(handle); err == nil {
				rec.deleted = true
			}
		}
	case opcode.ARRAY_STORE:
		return m.arrayStore(instr.IntArg)
	case opcode.ARRAY_LOAD:
		return m.arrayLoad(instr.IntArg)
	case opcode.ARRAY_LENGTH:
		handle := m.popInt32()
		rec, err := m.arrayAt(handle)
		if err != nil {
			return err
		}
		m.pushInt32(int32(len(rec.data) / rec.elemSize))

	// --- debug print ---
	case opcode.DEBUG_PRINT_INT:
		fmt.Fprintf(m.opts.Output, "%d", m.popInt32())
	case opcode.DEBUG_PRINT_FLOAT:
		fmt.Fprintf(m.opts.Output, "%g", m.popFloat32())
	case opcode.DEBUG_PRINT_BOOL:
		fmt.Fprintf(m.opts.Output, "%t", m.popInt32() != 0)
	case opcode.DEBUG_PRINT_VEC3:
		v := m.popVec3()
		fmt.Fprintf(m.opts.Output, "<%g, %g, %g>", v[0], v[1], v[2])
	case opcode.DEBUG_PRINT_STRING:
		off := m.popInt32()
		fmt.Fprint(m.opts.Output, cString(m.prog.Strings, int(off)))
	case opcode.DEBUG_PRINT_STRING_CONST:
		fmt.Fprint(m.opts.Output, instr.Name)

	default:
		return fmt.Errorf("vm: unexpected opcode %s in linked program", instr.Op)
	}
	return nil
}

func cString(pool []byte, off int) string {
	end := off
	for end < len(pool) && pool[end] != 0 {
		end++
	}
	return string(pool[off:end])
}

func (m *VM) pushBool(v bool) {
	if v {
		m.pushInt32(1)
	} else {
		m.pushInt32(0)
	}
}

func (m *VM) popVec3() [3]float32 {
	z := m.popFloat32()
	y := m.popFloat32()
	x := m.popFloat32()
	return [3]float32{x, y, z}
}

func (m *VM) pushVec3(x, y, z float32) {
	m.pushFloat32(x)
	m.pushFloat32(y)
	m.pushFloat32(z)
}

// call implements spec §4.9's "CALL label args_size": write the saved
// (fp, ip, sp-args_size) header atop the already-pushed arguments,
// advance past it, and jump into the callee.
func (m *VM) call(label, argsSize int) error {
	savedIP := m.ip
	m.writeFrameHeader(m.fp, savedIP, m.sp-argsSize)
	m.fp = m.sp
	m.ip = label - 1
	return nil
}

// doReturn implements spec §4.9's RETURN: stash the top size bytes,
// restore sp/ip/fp from the saved frame header (written just below fp
// by call or by Run's top-level invocation), then copy the stashed
// bytes back to the restored top of stack so the return value lands
// exactly where the caller's arguments used to be.
func (m *VM) doReturn(size int) {
	var result []byte
	if size > 0 {
		result = m.popBytes(size)
	}
	header := m.stack[m.fp-frameHeaderSize : m.fp]
	savedFP := le32(header[0:4])
	savedIP := le32(header[4:8])
	savedSP := le32(header[8:12])

	m.fp = int(savedFP)
	m.ip = int(savedIP)
	m.sp = int(savedSP)
	if size > 0 {
		m.pushBytes(result)
	}
}

// nativeCall implements spec §4.9's C_CALL: decode the already-pushed
// raw argument bytes into typed values (parameter 0 sits nearest the
// current top of stack, since compiler.emitCall evaluates arguments
// right-to-left the same way it does for script calls), invoke the
// host callback, and push its encoded return value.
func (m *VM) nativeCall(name string, argsSize int) error {
	nat, ok := m.prog.Natives[name]
	if !ok || nat.Call == nil {
		return fmt.Errorf("vm: native function %q is not registered", name)
	}
	block := m.popBytes(argsSize)
	args := make([]types.Value, len(nat.ParamTypes))
	pos := len(block)
	for i := 0; i < len(nat.ParamTypes); i++ {
		size := nat.ParamTypes[i].Size()
		pos -= size
		args[i] = types.Decode(nat.ParamTypes[i], block[pos:pos+size])
	}
	ret := nat.Call(args)
	if nat.ReturnType.Kind != types.Void {
		m.pushBytes(ret.Bytes())
	}
	return nil
}

// arrayStore implements spec §4.9's ARRAY_STORE: pop the byte_offset
// and handle "header" words, grow the addressed array's buffer to fit
// (rounding up to a multiple of its element size), write the size bytes
// of payload that remain on the stack, and leave that payload in place
// for the caller to POP explicitly.
func (m *VM) arrayStore(size int) error {
	offset := int(m.popInt32())
	handle := m.popInt32()
	rec, err := m.arrayAt(handle)
	if err != nil {
		return err
	}
	if rec.deleted {
		return diagRuntime("deleted-array-access", "write to deleted array")
	}
	need := offset + size
	if need > len(rec.data) {
		rounded := ((need + rec.elemSize - 1) / rec.elemSize) * rec.elemSize
		grown := make([]byte, rounded)
		copy(grown, rec.data)
		rec.data = grown
	}
	copy(rec.data[offset:offset+size], m.peekBytes(size))
	return nil
}

// arrayLoad implements spec §4.9's ARRAY_LOAD: pop byte_offset and
// handle, push size bytes read from the array at that offset.
func (m *VM) arrayLoad(size int) error {
	offset := int(m.popInt32())
	handle := m.popInt32()
	rec, err := m.arrayAt(handle)
	if err != nil {
		return err
	}
	if rec.deleted {
		return diagRuntime("deleted-array-access", "read from deleted array")
	}
	if offset < 0 || offset+size > len(rec.data) {
		return diagRuntime("array-out-of-bounds", "array index out of bounds")
	}
	m.pushBytes(rec.data[offset : offset+size])
	return nil
}
