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

const (
	WORD_LITERAL_MAX  uint16 = 0x7FFF
	WORD_REGISTER_MIN uint16 = 0x8000
	WORD_REGISTER_MAX uint16 = 0x8007
	WORD_MODULUS      uint32 = 0x8000
)

const REGISTER_COUNT = 8

// Memory is addressed by a full 16-bit word even though programs only ever
// produce 15-bit addresses.
const MEMORY_SIZE = 1 << 16

const (
	OP_HALT Opcode = iota
	OP_SET
	OP_PUSH
	OP_POP
	OP_EQ
	OP_GT
	OP_JMP
	OP_JT
	OP_JF
	OP_ADD
	OP_MULT
	OP_MOD
	OP_AND
	OP_OR
	OP_NOT
	OP_RMEM
	OP_WMEM
	OP_CALL
	OP_RET
	OP_OUT
	OP_IN
	OP_NOOP

	// Any raw word above OP_NOOP
	OP_UNKNOWN Opcode = 0xFFFF
)

const (
	OPERAND_READ OperandKind = iota
	OPERAND_WRITE
)
