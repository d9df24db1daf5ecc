// Package opcode defines mscript's bytecode instruction set: the 55
// linked opcodes the VM executes, plus the intermediate pseudo-ops the
// compiler emits before the link pass resolves labels and call targets
// (spec §4.6).
package opcode

// Op identifies one instruction. Linked and intermediate opcodes share
// one enum (as the original VM does) so the compiler's per-function
// opcode vector can hold either kind before linking rewrites it down to
// linked-only opcodes.
type Op int

const (
	// Arithmetic
	IADD Op = iota
	FADD
	V3ADD
	ISUB
	FSUB
	V3SUB
	IMUL
	FMUL
	V3SCALE
	IDIV
	FDIV

	// Comparisons
	ILTE
	FLTE
	ILT
	FLT
	IGTE
	FGTE
	IGT
	FGT
	IEQ
	FEQ
	V3EQ
	INEQ
	FNEQ
	V3NEQ

	// Conversions
	I2F
	F2I
	NOT
	IINC
	FINC

	// Stack
	INT
	FLOAT
	COPY
	PUSH
	POP

	// Memory
	LOCAL_LOAD
	LOCAL_STORE
	GLOBAL_LOAD
	GLOBAL_STORE

	// Control
	JMP
	JF
	CALL
	C_CALL
	RETURN

	// Arrays
	ARRAY_CREATE
	ARRAY_DELETE
	ARRAY_STORE
	ARRAY_LOAD
	ARRAY_LENGTH

	// Debug print, one opcode per primitive kind plus string forms: one
	// for a runtime char* value (pops a string-pool offset) and one for
	// a compile-time-known label (carries its text directly, no pop).
	DEBUG_PRINT_INT
	DEBUG_PRINT_FLOAT
	DEBUG_PRINT_BOOL
	DEBUG_PRINT_VEC3
	DEBUG_PRINT_STRING
	DEBUG_PRINT_STRING_CONST

	// Intermediate (pre-link); never appear in a linked program.
	LABEL
	FUNC
	CALL_BY_NAME
	JMP_LABEL
	JF_LABEL
	STRING_LITERAL
)

// IsIntermediate reports whether op must be resolved away by the link
// pass (spec §4.7) before a program can run.
func (op Op) IsIntermediate() bool {
	switch op {
	case LABEL, FUNC, CALL_BY_NAME, JMP_LABEL, JF_LABEL, STRING_LITERAL:
		return true
	default:
		return false
	}
}

func (op Op) String() string {
	if s, ok := names[op]; ok {
		return s
	}
	return "UNKNOWN"
}

var names = map[Op]string{
	IADD: "IADD", FADD: "FADD", V3ADD: "V3ADD",
	ISUB: "ISUB", FSUB: "FSUB", V3SUB: "V3SUB",
	IMUL: "IMUL", FMUL: "FMUL", V3SCALE: "V3SCALE",
	IDIV: "IDIV", FDIV: "FDIV",
	ILTE: "ILTE", FLTE: "FLTE", ILT: "ILT", FLT: "FLT",
	IGTE: "IGTE", FGTE: "FGTE", IGT: "IGT", FGT: "FGT",
	IEQ: "IEQ", FEQ: "FEQ", V3EQ: "V3EQ",
	INEQ: "INEQ", FNEQ: "FNEQ", V3NEQ: "V3NEQ",
	I2F: "I2F", F2I: "F2I", NOT: "NOT", IINC: "IINC", FINC: "FINC",
	INT: "INT", FLOAT: "FLOAT", COPY: "COPY", PUSH: "PUSH", POP: "POP",
	LOCAL_LOAD: "LOCAL_LOAD", LOCAL_STORE: "LOCAL_STORE",
	GLOBAL_LOAD: "GLOBAL_LOAD", GLOBAL_STORE: "GLOBAL_STORE",
	JMP: "JMP", JF: "JF", CALL: "CALL", C_CALL: "C_CALL", RETURN: "RETURN",
	ARRAY_CREATE: "ARRAY_CREATE", ARRAY_DELETE: "ARRAY_DELETE",
	ARRAY_STORE: "ARRAY_STORE", ARRAY_LOAD: "ARRAY_LOAD", ARRAY_LENGTH: "ARRAY_LENGTH",
	DEBUG_PRINT_INT: "DEBUG_PRINT_INT", DEBUG_PRINT_FLOAT: "DEBUG_PRINT_FLOAT",
	DEBUG_PRINT_BOOL: "DEBUG_PRINT_BOOL", DEBUG_PRINT_VEC3: "DEBUG_PRINT_VEC3",
	DEBUG_PRINT_STRING: "DEBUG_PRINT_STRING", DEBUG_PRINT_STRING_CONST: "DEBUG_PRINT_STRING_CONST",
	LABEL:                    "LABEL", FUNC: "FUNC", CALL_BY_NAME: "CALL_BY_NAME",
	JMP_LABEL: "JMP_LABEL", JF_LABEL: "JF_LABEL", STRING_LITERAL: "STRING_LITERAL",
}

// Instr is one instruction with its operands. Which fields are
// meaningful depends on Op; unused fields are zero.
type Instr struct {
	Op     Op
	IntArg int   // INT literal, COPY's offset below the top, PUSH/POP/RETURN/ARRAY_* size, JMP/JF/CALL/LABEL/JMP_LABEL/JF_LABEL target
	Arg2   int   // a second integer operand (e.g. CALL/C_CALL's args_size, COPY's size)
	Float  float32 // FLOAT literal
	Name   string  // FUNC/CALL_BY_NAME/C_CALL name, STRING_LITERAL text
}
