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
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/urfave/cli.v1"
)

var (
	debugFlag = cli.BoolFlag{
		Name:  "debug",
		Usage: "Open the debugger before the first instruction",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "Configuration file, gosynacor.toml is searched for by default",
	}
	scriptFlag = cli.StringFlag{
		Name:  "script",
		Usage: "File of input lines replayed before standard input",
	}
	restoreFlag = cli.StringFlag{
		Name:  "restore",
		Usage: "Snapshot to resume from instead of the program entry",
	}
	traceFlag = cli.BoolFlag{
		Name:  "trace",
		Usage: "Print every instruction as it retires",
	}
	statsFlag = cli.BoolFlag{
		Name:  "stats",
		Usage: "Print opcode statistics when the program stops",
	}
	symbolsFlag = cli.StringFlag{
		Name:  "symbols",
		Usage: "Symbol table for labels, defaults to the program's .syndb",
	}
	startFlag = cli.StringFlag{
		Name:  "start",
		Value: "0",
		Usage: "First address to list",
	}
	countFlag = cli.IntFlag{
		Name:  "count",
		Value: -1,
		Usage: "Number of instructions to list, -1 lists to the end",
	}
)

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "gosynacor"
	app.Usage = "run and inspect Synacor challenge programs"
	app.Version = "1.0.0"
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "execute a program image",
			ArgsUsage: "program.bin",
			Flags: []cli.Flag{
				debugFlag, configFlag, scriptFlag, restoreFlag, traceFlag,
				statsFlag, symbolsFlag,
			},
			Action: runCommand,
		},
		{
			Name:      "disasm",
			Usage:     "list the instructions of a program image",
			ArgsUsage: "program.bin",
			Flags:     []cli.Flag{symbolsFlag, startFlag, countFlag},
			Action:    disasmCommand,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
