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
	"log"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/lassandro/gosynacor/pkg/assembler"
	"github.com/lassandro/gosynacor/pkg/disasm"
	"github.com/lassandro/gosynacor/pkg/encoding"
	"github.com/lassandro/gosynacor/pkg/machine"
)

// loadProgram reads a program image from path into mc.
func loadProgram(path string, mc *machine.Machine) error {
	file, err := os.Open(path)

	if err != nil {
		return err
	}

	defer file.Close()

	return mc.LoadBin(file)
}

// loadSymbols reads the symbol table named by the flag, or the one next to
// the program. A missing default table is not an error.
func loadSymbols(ctx *cli.Context, program string) *assembler.SymTable {
	path := ctx.String("symbols")
	explicit := path != ""

	if !explicit {
		path = assembler.SymbolPath(program)
	}

	symtable, err := assembler.LoadSymTable(path)

	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			log.Println("Error loading symbol file")
			log.Println(err)
		}

		return nil
	}

	return symtable
}

func disasmCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		cli.ShowCommandHelp(ctx, "disasm")
		return errors.New("expected one program file")
	}

	program := ctx.Args().First()

	var mc machine.Machine

	if err := loadProgram(program, &mc); err != nil {
		return err
	}

	start, err := encoding.DecodeWord(ctx.String("start"))

	if err != nil {
		return err
	}

	var labels map[uint16]string
	if symtable := loadSymbols(ctx, program); symtable != nil {
		labels = symtable.Labels
	}

	output := bufio.NewWriter(os.Stdout)

	if _, err := disasm.Disassemble(
		output, &mc, start, ctx.Int("count"), labels,
	); err != nil {
		return err
	}

	return output.Flush()
}
