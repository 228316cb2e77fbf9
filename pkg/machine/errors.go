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
)

// List of fatal conditions for Errno
const (
	LoadError = Errno(iota)
	InvalidOpcode
	InvalidOperand
	InvalidAddress
	StackUnderflow
	DivideByZero
	EOF
	IOError
)

var strError = []string{
	"malformed binary",
	"invalid opcode",
	"invalid operand",
	"invalid address",
	"stack underflow",
	"divide by zero",
	"end of input",
	"I/O error",
}

// Errno describes the reason the machine stopped.
type Errno int

func (e Errno) Error() string {
	return strError[e]
}

// Error describes the cause and the context of a fatal condition. IP is the
// address of the faulting opcode; the machine state is left as it was
// before that instruction.
type Error struct {
	Errno    Errno
	Err      error
	IP       uint16
	Raw      uint16
	Opcode   Opcode
	Operands []uint16
}

func (e *Error) Error() string {
	var msg = "gosynacor: "

	if e.Err != nil {
		msg += e.Errno.Error() + ": " + e.Err.Error()
	} else {
		msg += e.Errno.Error()
	}

	if e.Errno == LoadError {
		return msg
	}

	msg += fmt.Sprintf(" at %#04x", e.IP)

	if e.Opcode.Valid() {
		operands := make([]string, 0, len(e.Operands))

		for _, operand := range e.Operands {
			operands = append(operands, fmt.Sprint(operand))
		}

		msg += fmt.Sprintf(" (%s %s)", e.Opcode, strings.Join(operands, " "))
	} else if e.Errno == InvalidOpcode {
		msg += fmt.Sprintf(" (%d)", e.Raw)
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches an Errno, so errors.Is(err, StackUnderflow) works on a returned
// *Error.
func (e *Error) Is(target error) bool {
	errno, ok := target.(Errno)
	return ok && errno == e.Errno
}

func (mc *Machine) newError(errno Errno, inst *Instruction) error {
	err := &Error{Errno: errno, IP: mc.State.Program, Opcode: OP_UNKNOWN}

	if inst != nil {
		err.IP = inst.Addr
		err.Raw = inst.Raw
		err.Opcode = inst.Opcode
		err.Operands = append([]uint16(nil), inst.Operands...)
	}

	return err
}

func (mc *Machine) newIOError(cause error, inst *Instruction) error {
	err := mc.newError(IOError, inst).(*Error)
	err.Err = cause
	return err
}
