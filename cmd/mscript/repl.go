package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/anthropics/mscript/internal/loader"
	"github.com/anthropics/mscript/internal/vm"
)

// cmdRepl is a small interactive loop over the functions a loaded
// directory exposes: each line is "funcName arg1 arg2 ...", evaluated
// immediately against a fresh VM instance per call (spec §5's "two VMs
// must not share a globals section" means a REPL that wants every call
// to see a clean globals image just makes a new one each time).
func cmdRepl(ctx *CommandContext) error {
	rt, err := loadDir(ctx)
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Printf("mscript %s — type a function name and arguments, or 'quit'\n", versionString)
	for {
		input, err := line.Prompt("mscript> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if input == "quit" || input == "exit" {
			return nil
		}

		fields := strings.Fields(input)
		funcName, argStrs := fields[0], fields[1:]

		prog := findProgram(rt, funcName)
		if prog == nil {
			fmt.Fprintf(os.Stderr, "mscript: no loaded program declares function %q\n", funcName)
			continue
		}
		info := prog.Funcs[funcName]
		args, err := parseArgs(argStrs, info.ParamTypes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mscript: %s\n", err)
			continue
		}

		m := vm.New(prog, vm.Options{Output: os.Stdout})
		ret, err := m.Run(funcName, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mscript: %s\n", err)
			continue
		}
		fmt.Println(formatValue(ret))
	}
}

func findProgram(rt *loader.Runtime, funcName string) *vm.Program {
	for _, name := range rt.Names() {
		p, ok := rt.Program(name)
		if !ok {
			continue
		}
		if _, has := p.Funcs[funcName]; has {
			return p
		}
	}
	return nil
}
