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

// Package disasm renders memory as an instruction listing. It decodes for
// display only: words that are not opcodes are echoed as numbers instead of
// failing, and operands are shown raw, never resolved.
package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/gosynacor/pkg/encoding"
	"github.com/lassandro/gosynacor/pkg/machine"
)

// Memory is the read side of the machine inspection interface.
type Memory interface {
	ReadMemory(addr uint16) (uint16, bool)
}

// Words adapts a flat program image, word i at address i.
type Words []uint16

func (words Words) ReadMemory(addr uint16) (uint16, bool) {
	if int(addr) >= len(words) {
		return 0, false
	}

	return words[addr], true
}

type Line struct {
	Addr     uint16
	Raw      uint16
	Opcode   machine.Opcode
	Operands []uint16

	// Operands run past the end of set memory
	Truncated bool
}

func (line *Line) Size() uint16 {
	return 1 + uint16(len(line.Operands))
}

// Decode reads one instruction at addr. Unknown opcodes take no operands.
// ok is false when addr itself is unset.
func Decode(mem Memory, addr uint16) (line Line, ok bool) {
	raw, ok := mem.ReadMemory(addr)

	if !ok {
		return Line{Addr: addr}, false
	}

	line = Line{Addr: addr, Raw: raw, Opcode: machine.DecodeOpcode(raw)}

	for i := 0; i < line.Opcode.Arity(); i++ {
		operand, set := mem.ReadMemory(addr + 1 + uint16(i))

		if !set {
			line.Truncated = true
			break
		}

		line.Operands = append(line.Operands, operand)
	}

	return line, true
}

func formatOperand(value uint16) string {
	if char, ok := encoding.ToPrintable(value); ok {
		return fmt.Sprintf("(%c)%d", char, value)
	}

	return encoding.RegisterName(value)
}

// Format renders one line as "addr: op args". Unknown opcodes print their
// raw value in place of a mnemonic.
func Format(line *Line) string {
	var opcode string

	if line.Opcode.Valid() {
		opcode = line.Opcode.String()
	} else {
		opcode = fmt.Sprint(line.Raw)
	}

	operands := make([]string, 0, len(line.Operands))

	for _, operand := range line.Operands {
		operands = append(operands, formatOperand(operand))
	}

	return strings.TrimRight(
		fmt.Sprintf("%5d: %s %s", line.Addr, opcode, strings.Join(operands, ", ")),
		" ",
	)
}

// Disassemble lists count instructions starting at addr, stopping early at
// the first unset address. Labels, when given, are printed above the
// address they name. A blank line follows every ret. It returns the address
// after the last listed instruction.
func Disassemble(
	w io.Writer, mem Memory, addr uint16, count int, labels map[uint16]string,
) (uint16, error) {
	for i := 0; count < 0 || i < count; i++ {
		line, ok := Decode(mem, addr)

		if !ok {
			break
		}

		if label, exists := labels[addr]; exists {
			if _, err := fmt.Fprintf(w, "%s:\n", label); err != nil {
				return addr, err
			}
		}

		if _, err := fmt.Fprintln(w, Format(&line)); err != nil {
			return addr, err
		}

		if line.Opcode == machine.OP_RET {
			if _, err := fmt.Fprintln(w); err != nil {
				return addr, err
			}
		}

		next := addr + line.Size()

		// Wrapped around the address space
		if next <= addr {
			break
		}

		addr = next
	}

	return addr, nil
}
