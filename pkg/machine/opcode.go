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

type Opcode uint16

// OperandKind says how the decoder treats an operand word: read operands are
// resolved through the register file, write operands are kept raw and must
// name a register.
type OperandKind uint8

type opcodeInfo struct {
	Name     string
	Operands []OperandKind
}

const (
	rd = OPERAND_READ
	wr = OPERAND_WRITE
)

var opcodeTable = [...]opcodeInfo{
	OP_HALT: {"halt", nil},
	OP_SET:  {"set", []OperandKind{wr, rd}},
	OP_PUSH: {"push", []OperandKind{rd}},
	OP_POP:  {"pop", []OperandKind{wr}},
	OP_EQ:   {"eq", []OperandKind{wr, rd, rd}},
	OP_GT:   {"gt", []OperandKind{wr, rd, rd}},
	OP_JMP:  {"jmp", []OperandKind{rd}},
	OP_JT:   {"jt", []OperandKind{rd, rd}},
	OP_JF:   {"jf", []OperandKind{rd, rd}},
	OP_ADD:  {"add", []OperandKind{wr, rd, rd}},
	OP_MULT: {"mult", []OperandKind{wr, rd, rd}},
	OP_MOD:  {"mod", []OperandKind{wr, rd, rd}},
	OP_AND:  {"and", []OperandKind{wr, rd, rd}},
	OP_OR:   {"or", []OperandKind{wr, rd, rd}},
	OP_NOT:  {"not", []OperandKind{wr, rd}},
	OP_RMEM: {"rmem", []OperandKind{wr, rd}},
	OP_WMEM: {"wmem", []OperandKind{rd, rd}},
	OP_CALL: {"call", []OperandKind{rd}},
	OP_RET:  {"ret", nil},
	OP_OUT:  {"out", []OperandKind{rd}},
	OP_IN:   {"in", []OperandKind{wr}},
	OP_NOOP: {"noop", nil},
}

// DecodeOpcode maps a raw memory word onto an opcode. Words outside the
// instruction set map to OP_UNKNOWN.
func DecodeOpcode(raw uint16) Opcode {
	if int(raw) < len(opcodeTable) {
		return Opcode(raw)
	}

	return OP_UNKNOWN
}

// ParseOpcode looks an opcode up by mnemonic.
func ParseOpcode(name string) (Opcode, bool) {
	for op, info := range opcodeTable {
		if info.Name == name {
			return Opcode(op), true
		}
	}

	return OP_UNKNOWN, false
}

func (op Opcode) Valid() bool {
	return int(op) < len(opcodeTable)
}

// Arity is the number of operand words following the opcode. Unknown
// opcodes have no operands.
func (op Opcode) Arity() int {
	if !op.Valid() {
		return 0
	}

	return len(opcodeTable[op].Operands)
}

func (op Opcode) Operands() []OperandKind {
	if !op.Valid() {
		return nil
	}

	return opcodeTable[op].Operands
}

func (op Opcode) String() string {
	if !op.Valid() {
		return "unknown"
	}

	return opcodeTable[op].Name
}
