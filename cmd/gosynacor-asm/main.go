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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/urfave/cli.v1"

	"github.com/lassandro/gosynacor/pkg/assembler"
)

var errAssembly = errors.New("assembly failed")

var (
	debugFlag = cli.BoolFlag{
		Name: "debug",
		Usage: "Generate debugging information as a symbol table. The table " +
			"uses the output filename with extension '" +
			assembler.SYMBOL_EXT + "'",
	}
	outFlag = cli.StringFlag{
		Name: "out, o",
		Usage: "Name of the output file, overriding the default means of " +
			"determining it",
	}
)

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

// printTokenError shows the offending source line with the token
// underlined.
func printTokenError(input io.ReadSeeker, err error) {
	tokenErr, ok := err.(assembler.TokenError)

	if !ok || input == nil {
		log.Println(err)
		return
	}

	cursor := tokenErr.GetPosition()

	if _, seekErr := input.Seek(cursor.LineByte, io.SeekStart); seekErr != nil {
		log.Println(err)
		return
	}

	line, _ := bufio.NewReader(input).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")

	size := int(cursor.Size)
	if size < 1 {
		size = 1
	}

	underline := strings.Repeat(" ", int(cursor.Byte-cursor.LineByte)) +
		"^" + strings.Repeat("~", size-1)

	log.Printf("%s\n%s\n%s", err, line, color.RedString(underline))
}

func writeBinary(path string, words []uint16) error {
	buffer := new(bytes.Buffer)

	if err := binary.Write(buffer, binary.LittleEndian, words); err != nil {
		return err
	}

	return os.WriteFile(path, buffer.Bytes(), 0666)
}

func writeSymbols(path string, symtable *assembler.SymTable) error {
	file, err := os.Create(path)

	if err != nil {
		return err
	}

	if err := assembler.WriteSymTable(file, symtable); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

func assemble(ctx *cli.Context) error {
	outfile := ctx.String("out")

	var input io.ReadSeeker
	var infile string

	if ctx.NArg() == 0 {
		if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice != 0 {
			cli.ShowAppHelp(ctx)
			return errors.New("no input file")
		}

		// Buffered whole so errors can show their source line.
		data, err := io.ReadAll(os.Stdin)

		if err != nil {
			return err
		}

		input = bytes.NewReader(data)
		log.SetPrefix(color.New(color.Bold).Sprint("<stdin>:"))

		if outfile == "" {
			outfile = "out.bin"
		}
	} else if ctx.NArg() == 1 {
		file, err := os.Open(ctx.Args().First())

		if err != nil {
			return err
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			return err
		} else if stat.IsDir() {
			return fmt.Errorf("%s is not a valid assembly file", filename)
		}

		input = file
		infile = file.Name()
		log.SetPrefix(color.New(color.Bold).Sprintf("%s:", filename))

		if outfile == "" {
			outfile = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".bin"
		}
	} else {
		cli.ShowAppHelp(ctx)
		return errors.New("expected one input file")
	}

	var symtable assembler.SymTable
	var symtarget *assembler.SymTable

	if ctx.Bool("debug") {
		if infile != "" {
			if source, err := filepath.Abs(infile); err == nil {
				symtable.Source = source
			} else {
				log.Println(err)
			}
		}

		symtable.Symbols = make(map[uint16]int64)
		symtable.Labels = make(map[uint16]string)
		symtarget = &symtable
	}

	result, errs := assembler.AssembleSource(input, symtarget)

	if len(errs) > 0 {
		for _, err := range errs {
			printTokenError(input, err)
		}

		return errAssembly
	}

	if err := writeBinary(outfile, result); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	if ctx.Bool("debug") {
		if err := writeSymbols(assembler.SymbolPath(outfile), &symtable); err != nil {
			return fmt.Errorf("writing symbol table: %w", err)
		}
	}

	return nil
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "gosynacor-asm"
	app.Usage = "assemble source into a gosynacor program image"
	app.ArgsUsage = "[source.asm]"
	app.Version = "1.0.0"
	app.HideVersion = true
	app.Flags = []cli.Flag{debugFlag, outFlag}
	app.Action = assemble
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		if err != errAssembly {
			log.Println(err)
		}

		os.Exit(1)
	}
}
