// Command mscript loads a directory of *.mscript source files and runs
// one of their functions, lists what a directory exposes, or drops into
// an interactive REPL over them (spec §6's host-embedding surface,
// exercised here as a standalone demo host rather than embedded in a
// larger application).
package main

import (
	"flag"
	"fmt"
	"os"
)

const versionString = "mscript 0.1.0"

func main() {
	var dirFlag = flag.String("dir", ".", "directory of *.mscript files to load")
	var verbose = flag.Bool("v", false, "verbose mode")
	var verboseLong = flag.Bool("verbose", false, "verbose mode")
	var debugFlag = flag.Bool("debug", false, "print a stack/memory summary after each run")
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version || *versionShort {
		fmt.Println(versionString)
		os.Exit(0)
	}

	ctx := &CommandContext{
		Dir:     *dirFlag,
		Verbose: *verbose || *verboseLong,
		Debug:   *debugFlag,
	}

	if err := RunCLI(ctx, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "mscript: %s\n", err)
		os.Exit(1)
	}
}
