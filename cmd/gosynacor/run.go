// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"gopkg.in/urfave/cli.v1"

	"github.com/lassandro/gosynacor/pkg/config"
	"github.com/lassandro/gosynacor/pkg/debugger"
	"github.com/lassandro/gosynacor/pkg/machine"
	"github.com/lassandro/gosynacor/pkg/snapshot"
)

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	if path := ctx.String("config"); path != "" {
		return config.Load(path)
	}

	return config.FindAndLoad(".")
}

// programImage copies the loaded program so the debugger can reset to it.
func programImage(mc *machine.Machine) []uint16 {
	image := make([]uint16, 0, mc.State.Memory.Len())

	mc.State.Memory.Range(func(addr, value uint16) bool {
		if int(addr) != len(image) {
			return false
		}

		image = append(image, value)
		return true
	})

	return image
}

func runCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowCommandHelp(ctx, "run")
		return errors.New("expected one program file")
	}

	program := ctx.Args().First()

	cfg, err := loadConfig(ctx)

	if err != nil {
		return err
	}

	breakpoints, err := cfg.BreakpointAddrs()

	if err != nil {
		return err
	}

	var mc machine.Machine

	if err := loadProgram(program, &mc); err != nil {
		return err
	}

	image := programImage(&mc)

	if path := ctx.String("restore"); path != "" {
		if err := snapshot.Load(path, &mc); err != nil {
			return err
		}
	}

	var keyboard io.Reader = os.Stdin

	script := ctx.String("script")
	if script == "" {
		script = cfg.Resolve(cfg.Input.Script)
	}

	if script != "" {
		file, err := os.Open(script)

		if err != nil {
			return err
		}

		defer file.Close()
		keyboard = io.MultiReader(file, os.Stdin)
	}

	var dh machine.DeviceHandler
	dh.Keyboard = bufio.NewReader(keyboard)
	dh.Display = bufio.NewWriter(os.Stdout)
	mc.Devices = &dh

	color.NoColor = !isTerminal(os.Stderr)

	var source debugger.CommandSource

	if isTerminal(os.Stdin) {
		console, err := newConsole(cfg.Resolve(cfg.Debugger.History))

		if err != nil {
			return err
		}

		defer console.Close()
		source = console
	} else {
		source = debugger.NewReaderSource(dh.Keyboard, os.Stderr)
	}

	dbg := debugger.New(os.Stderr, source)
	dbg.Image = image
	dbg.BreakWord = cfg.Debugger.BreakWord
	dbg.DumpWord = cfg.Debugger.DumpWord
	dbg.SnapshotPath = cfg.Resolve(cfg.Debugger.Snapshot)
	dbg.Trace = ctx.Bool("trace") || cfg.Debugger.Trace
	mc.Debugger = dbg

	for _, addr := range breakpoints {
		dbg.AddBreakpoint(addr)
	}

	if symtable := loadSymbols(ctx, program); symtable != nil {
		dbg.SymTable = symtable

		if symtable.Source != "" {
			if file, err := os.Open(symtable.Source); err == nil {
				dbg.Source = file
				defer file.Close()
			} else {
				log.Println("Error loading source file")
				log.Println(err)
			}
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	go func() {
		for range c {
			fmt.Fprintln(os.Stderr)
			dbg.Break.Store(true)
		}
	}()

	if ctx.Bool("debug") {
		dbg.REPL(&mc)
	}

	err = mc.Run()

	if ctx.Bool("stats") {
		dbg.PrintStats(&mc)
	}

	switch {
	case err == nil && dbg.Quit:
		return nil

	case err == nil:
		log.Println("Execution complete.")
		return nil

	case errors.Is(err, machine.EOF):
		log.Println("Input exhausted")
		return nil
	}

	dh.Display.Flush()

	if ctx.Bool("debug") {
		log.Println(err)
		fmt.Fprintln(os.Stderr, "Program faulted")
		dbg.PrintRegisters(&mc)
		dbg.REPL(&mc)
		return errors.New("program faulted")
	}

	return err
}
