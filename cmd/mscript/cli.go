package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/anthropics/mscript/internal/loader"
	"github.com/anthropics/mscript/internal/types"
	"github.com/anthropics/mscript/internal/vm"
)

// cli.go - user-friendly command-line interface for mscript, mirroring
// the subcommand style of a build-tool CLI: mscript <command> [args].

// CommandContext holds the execution context shared across subcommands.
type CommandContext struct {
	Dir     string
	Verbose bool
	Debug   bool
}

// RunCLI is the main entry point; it dispatches on the first non-flag
// argument the way a Go-like toolchain CLI does.
func RunCLI(ctx *CommandContext, args []string) error {
	if len(args) == 0 {
		return cmdHelp()
	}

	switch args[0] {
	case "run":
		if len(args) < 2 {
			return fmt.Errorf("usage: mscript run <function> [args...]")
		}
		return cmdRun(ctx, args[1], args[2:])

	case "list":
		return cmdList(ctx)

	case "repl":
		return cmdRepl(ctx)

	case "help", "--help", "-h":
		return cmdHelp()

	case "version", "--version", "-V":
		fmt.Println(versionString)
		return nil

	default:
		return fmt.Errorf("unknown command: %s\n\nRun 'mscript help' for usage information", args[0])
	}
}

// loadDir loads every *.mscript file in ctx.Dir, printing a diagnostic
// line to stderr for every file that failed (other files still load).
func loadDir(ctx *CommandContext) (*loader.Runtime, error) {
	rt, err := loader.Load(ctx.Dir, nil)
	if err != nil {
		return nil, err
	}
	for _, name := range rt.Names() {
		if d, failed := rt.Err(name); failed {
			fmt.Fprintf(os.Stderr, "mscript: %s: %s\n", name, d.Error())
		}
	}
	return rt, nil
}

// cmdList prints every successfully loaded program and the functions it
// exposes, matching spec §6's runtime_get_program/FuncInfo surface.
func cmdList(ctx *CommandContext) error {
	rt, err := loadDir(ctx)
	if err != nil {
		return err
	}
	for _, name := range rt.Names() {
		prog, ok := rt.Program(name)
		if !ok {
			continue
		}
		fmt.Println(name)
		funcNames := make([]string, 0, len(prog.Funcs))
		for fn := range prog.Funcs {
			funcNames = append(funcNames, fn)
		}
		sort.Strings(funcNames)
		for _, fn := range funcNames {
			info := prog.Funcs[fn]
			fmt.Printf("  %s %s(%s)\n", info.ReturnType, fn, joinTypes(info.ParamTypes))
		}
	}
	return nil
}

// cmdRun loads ctx.Dir, finds funcName in whichever program declares it,
// invokes it with argStrs parsed against the function's declared
// parameter types, and prints the return value.
func cmdRun(ctx *CommandContext, funcName string, argStrs []string) error {
	rt, err := loadDir(ctx)
	if err != nil {
		return err
	}

	var prog *vm.Program
	for _, name := range rt.Names() {
		p, ok := rt.Program(name)
		if !ok {
			continue
		}
		if _, has := p.Funcs[funcName]; has {
			prog = p
			break
		}
	}
	if prog == nil {
		return fmt.Errorf("no loaded program declares function %q", funcName)
	}
	info := prog.Funcs[funcName]

	args, err := parseArgs(argStrs, info.ParamTypes)
	if err != nil {
		return err
	}

	runID := uuid.New().String()[:8]
	if ctx.Debug {
		fmt.Fprintf(os.Stderr, "mscript[%s]: running %s(%s)\n", runID, funcName, joinTypes(info.ParamTypes))
	}

	m := vm.New(prog, vm.Options{Output: os.Stdout})
	ret, err := m.Run(funcName, args)
	if err != nil {
		return fmt.Errorf("%s: %w", funcName, err)
	}

	if ctx.Debug {
		fmt.Fprintf(os.Stderr, "mscript[%s]: %s\n", runID, m.DumpStack())
	}
	fmt.Println(formatValue(ret))
	return nil
}

// parseArgs decodes CLI strings into typed argument values for a vm.Run
// call, in declared parameter order. Only the scalar/vec3 kinds a shell
// argument can spell directly are supported; a char*, struct, or array
// parameter can only be exercised from script code, not the CLI.
func parseArgs(argStrs []string, paramTypes []*types.Type) ([]types.Value, error) {
	if len(argStrs) != len(paramTypes) {
		return nil, fmt.Errorf("expected %d argument(s), got %d", len(paramTypes), len(argStrs))
	}
	args := make([]types.Value, len(argStrs))
	for i, s := range argStrs {
		v, err := parseArg(s, paramTypes[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		args[i] = v
	}
	return args, nil
}

func parseArg(s string, t *types.Type) (types.Value, error) {
	switch t.Kind {
	case types.Int:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return types.Value{}, fmt.Errorf("%q is not a valid int: %w", s, err)
		}
		return types.IntValue(int32(n)), nil
	case types.Float:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return types.Value{}, fmt.Errorf("%q is not a valid float: %w", s, err)
		}
		return types.FloatValue(float32(f)), nil
	case types.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return types.Value{}, fmt.Errorf("%q is not a valid bool: %w", s, err)
		}
		return types.BoolValue(b), nil
	case types.Vec3:
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return types.Value{}, fmt.Errorf("%q is not a valid vec3 (want \"x,y,z\")", s)
		}
		var xyz [3]float32
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
			if err != nil {
				return types.Value{}, fmt.Errorf("%q is not a valid vec3 (want \"x,y,z\"): %w", s, err)
			}
			xyz[i] = float32(f)
		}
		return types.Vec3Value(xyz[0], xyz[1], xyz[2]), nil
	default:
		return types.Value{}, fmt.Errorf("parameter of type %s can't be supplied from the command line", t)
	}
}

func formatValue(v types.Value) string {
	switch v.Type.Kind {
	case types.Void:
		return ""
	case types.Int:
		return strconv.FormatInt(int64(v.IntVal), 10)
	case types.Float:
		return strconv.FormatFloat(float64(v.FloatVal), 'g', -1, 32)
	case types.Bool:
		return strconv.FormatBool(v.BoolVal)
	case types.Vec3:
		return fmt.Sprintf("<%s, %s, %s>", formatFloat32(v.Vec3Val[0]), formatFloat32(v.Vec3Val[1]), formatFloat32(v.Vec3Val[2]))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat32(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func joinTypes(ts []*types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func cmdHelp() error {
	fmt.Printf(`mscript - the mscript bytecode runtime

USAGE:
    mscript <command> [arguments]

COMMANDS:
    run <function> [args...]   Load -dir and invoke a function by name
    list                       List every loaded program and its functions
    repl                       Start an interactive read-eval-print loop
    help                       Show this help message
    version                    Show version information

FLAGS:
    -dir <directory>    Directory of *.mscript files to load (default: ".")
    -v, --verbose       Verbose mode
    -debug              Print a stack/memory summary after each run

EXAMPLES:
    mscript -dir ./scripts run fib 10
    mscript -dir ./scripts list
    mscript -dir ./scripts repl

`)
	return nil
}
