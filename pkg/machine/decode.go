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

package machine

import (
	"fmt"
	"strings"

	"github.com/lassandro/gosynacor/pkg/encoding"
)

// Instruction is one decoded instruction. Operands holds the raw words as
// they sit in memory; Args holds the values the instruction acts on, which
// for write operands is the raw register address.
type Instruction struct {
	Addr     uint16
	Raw      uint16
	Opcode   Opcode
	Operands []uint16
	Args     []uint16
}

func (inst *Instruction) Size() uint16 {
	return 1 + uint16(len(inst.Operands))
}

// Next is the fall-through address.
func (inst *Instruction) Next() uint16 {
	return inst.Addr + inst.Size()
}

// String formats the instruction as "op / resolved / raw".
func (inst *Instruction) String() string {
	args := make([]string, 0, len(inst.Args))
	raws := make([]string, 0, len(inst.Operands))

	for _, arg := range inst.Args {
		args = append(args, fmt.Sprint(arg))
	}

	for _, raw := range inst.Operands {
		raws = append(raws, encoding.RegisterName(raw))
	}

	return fmt.Sprintf(
		"%s / %s / %s",
		inst.Opcode,
		strings.Join(args, ", "),
		strings.Join(raws, ", "),
	)
}

func IsRegister(value uint16) bool {
	return value >= WORD_REGISTER_MIN && value <= WORD_REGISTER_MAX
}

// Resolve converts an operand word into the value it stands for: literals
// are themselves, register addresses are the register contents.
func (mc *MachineState) Resolve(value uint16) (uint16, bool) {
	if value <= WORD_LITERAL_MAX {
		return value, true
	}

	if IsRegister(value) {
		return mc.Registers[value-WORD_REGISTER_MIN], true
	}

	return 0, false
}

// Decode reads the instruction at addr straight from memory. Nothing is
// cached, so an instruction rewritten by wmem decodes to its new form.
func (mc *Machine) Decode(addr uint16) (*Instruction, error) {
	inst := &Instruction{Addr: addr, Opcode: OP_UNKNOWN}

	raw, ok := mc.State.Memory.Read(addr)

	if !ok {
		return nil, mc.newError(InvalidAddress, inst)
	}

	inst.Raw = raw

	op := DecodeOpcode(raw)

	if op == OP_UNKNOWN {
		return nil, mc.newError(InvalidOpcode, inst)
	}

	inst.Opcode = op

	kinds := op.Operands()
	inst.Operands = make([]uint16, 0, len(kinds))
	inst.Args = make([]uint16, 0, len(kinds))

	// Every operand word is fetched before any is validated so an error
	// reports the whole instruction.
	for i := range kinds {
		operand, ok := mc.State.Memory.Read(addr + 1 + uint16(i))

		if !ok {
			return nil, mc.newError(InvalidAddress, inst)
		}

		inst.Operands = append(inst.Operands, operand)
	}

	for i, kind := range kinds {
		operand := inst.Operands[i]

		switch kind {
		case OPERAND_WRITE:
			if !IsRegister(operand) {
				return nil, mc.newError(InvalidOperand, inst)
			}

			inst.Args = append(inst.Args, operand)

		case OPERAND_READ:
			value, ok := mc.State.Resolve(operand)

			if !ok {
				return nil, mc.newError(InvalidOperand, inst)
			}

			inst.Args = append(inst.Args, value)
		}
	}

	return inst, nil
}
