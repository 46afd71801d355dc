// Copyright © 2026 Dana Gdev (dgdev1024@gmail.com)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.

// g10 - G10 emulator launcher
//
// Usage: g10 [flags] <executable>
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dgdev1024/2026-G10-sub004/internal/bus"
	"github.com/dgdev1024/2026-G10-sub004/internal/cpu"
	"github.com/dgdev1024/2026-G10-sub004/internal/exefile"
	"github.com/dgdev1024/2026-G10-sub004/internal/timer"
	"github.com/dgdev1024/2026-G10-sub004/internal/trace"
)

const version = "1.0.0"

const (
	minRAM uint64 = 16
	maxRAM uint64 = 2 << 30 // 2 GiB
)

var (
	ramSize     = flag.Uint64("r", 16, "RAM size in bytes (16 <= N <= 2 GiB)")
	ramSizeLong = flag.Uint64("ram", 16, "RAM size in bytes (16 <= N <= 2 GiB)")
	dumpRAM     = flag.String("d", "", "dump RAM contents to a file on exit")
	dumpRAMLong = flag.String("dump-ram", "", "dump RAM contents to a file on exit")
	traceFile   = flag.String("trace", "", "write a fetch/decode/execute trace to a file")
	showVersion = flag.Bool("v", false, "show version and exit")
	showVersion2 = flag.Bool("version", false, "show version and exit")
)

var savedTermState *term.State

func setupTerminal() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	state, err := term.GetState(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to get terminal state: %v", err)
	}
	savedTermState = state
	if _, err := term.MakeRaw(int(os.Stdin.Fd())); err != nil {
		return fmt.Errorf("failed to set raw mode: %v", err)
	}
	return nil
}

func restoreTerminal() {
	if savedTermState != nil && term.IsTerminal(int(os.Stdin.Fd())) {
		term.Restore(int(os.Stdin.Fd()), savedTermState)
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion || *showVersion2 {
		fmt.Printf("g10 %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		usage()
		os.Exit(1)
	}

	ram := firstNonDefault(*ramSizeLong, *ramSize, 16)
	if ram < minRAM || ram > maxRAM {
		fmt.Fprintf(os.Stderr, "g10: RAM size %d out of range [%d, %d]\n", ram, minRAM, maxRAM)
		os.Exit(1)
	}
	dump := firstNonEmpty(*dumpRAMLong, *dumpRAM)

	exe, err := exefile.Read(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "g10: %v\n", err)
		os.Exit(1)
	}

	ramBuf := make([]byte, ram)
	rom, err := exe.LoadImages(ramBuf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "g10: %v\n", err)
		os.Exit(1)
	}

	// cpu and bus each need the other (bus.New wants a CPUPort, cpu.New
	// wants a Bus), so the CPU is built unbound and wired up after the
	// bus exists, the way internal/cpu.SetBus documents.
	c := cpu.New(nil)
	tmr := timer.New(c)
	b := bus.New(rom, len(ramBuf), c, tmr)
	copy(b.RAM(), ramBuf)
	c.SetBus(b)
	c.Reset()
	c.Registers().SetPC(exe.Header.EntryPoint)
	if exe.Header.StackPointer != 0 {
		c.Registers().SetSP(exe.Header.StackPointer)
	}

	var tr *trace.Tracer
	if *traceFile != "" {
		f, err := os.Create(*traceFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "g10: creating trace file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		tr = trace.New(f)
		c.Tracer = tr
		fmt.Fprintf(f, "G10 Emulator Trace\nExecutable: %s\nEntry: $%08X\n\n", args[0], exe.Header.EntryPoint)
	}

	c.Diagnostics = func(format string, a ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", a...)
	}

	if err := setupTerminal(); err != nil {
		fmt.Fprintf(os.Stderr, "g10: %v\n", err)
		os.Exit(1)
	}
	defer restoreTerminal()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		restoreTerminal()
		os.Exit(130)
	}()

	for !c.Stopped() {
		if !c.Tick() {
			break
		}
	}

	restoreTerminal()

	if dump != "" {
		if err := os.WriteFile(dump, b.RAM(), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "g10: writing RAM dump: %v\n", err)
		}
	}

	ec := c.Registers().EC()
	os.Exit(int(ec))
}

func firstNonDefault(v, fallback, def uint64) uint64 {
	if v != def {
		return v
	}
	return fallback
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] <executable>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "G10 emulator — executes a .g10x executable\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExit code is 0 on an orderly stop, otherwise the CPU's exception code.\n")
}
