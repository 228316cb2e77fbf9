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
	"bufio"
)

type DeviceHandler struct {
	Keyboard *bufio.Reader
	Display  *bufio.Writer
}

type MachineState struct {
	Registers [REGISTER_COUNT]uint16
	Program   uint16
	Stack     []uint16
	Memory    Memory
	Input     InputBuffer
	Halted    bool

	// Instructions retired since the last reset
	Cycles uint64
}

// MachineDebugger receives control at instruction boundaries and on the
// events it may want to intercept. Step runs after every retired
// instruction, Read and Write after rmem/wmem touch memory, and Line sees
// every fresh input line before it is buffered; returning true consumes it.
type MachineDebugger interface {
	Step(inst *Instruction, mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
	Line(line string, mc *Machine) bool
}

type Machine struct {
	Devices  *DeviceHandler
	State    MachineState
	Debugger MachineDebugger
}
