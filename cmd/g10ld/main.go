// g10ld - G10 linker
//
// Usage: g10ld [flags] file1.g10o file2.g10o ...
//
// Flags:
//
//	-o file    Write output to file (required)
//	-V         Verbose output
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dgdev1024/2026-G10-sub004/internal/exefile"
	"github.com/dgdev1024/2026-G10-sub004/internal/linker"
	"github.com/dgdev1024/2026-G10-sub004/internal/objfile"
)

const version = "1.0.0"

var (
	output      = flag.String("o", "", "output file (required)")
	outputLong  = flag.String("output", "", "output file (required)")
	verbose     = flag.Bool("V", false, "verbose output")
	verboseLong = flag.Bool("verbose", false, "verbose output")
	showVersion = flag.Bool("v", false, "show version and exit")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("g10ld %s\n", version)
		os.Exit(0)
	}

	out := firstNonEmpty(*outputLong, *output)
	verboseOn := *verbose || *verboseLong

	if out == "" || flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	ld := linker.New()
	if verboseOn {
		ld.Verbose = os.Stdout
	}

	for _, path := range flag.Args() {
		if verboseOn {
			fmt.Printf("loading %s\n", path)
		}
		obj, err := objfile.Read(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "g10ld: %v\n", err)
			os.Exit(1)
		}
		ld.AddObject(path, obj)
	}

	exe, err := ld.Link()
	if err != nil {
		fmt.Fprintf(os.Stderr, "g10ld: %v\n", err)
		os.Exit(1)
	}

	if err := exefile.Write(out, exe); err != nil {
		fmt.Fprintf(os.Stderr, "g10ld: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Link successful: %s\n", out)
	fmt.Printf("Entry point: $%08X, segments: %d, total size: %d bytes\n",
		exe.Header.EntryPoint, len(exe.Segments), exe.Header.TotalFileSize)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -o output file.g10o ...\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "G10 linker — combines .g10o object files into a .g10x executable\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}
