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
)

// The methods below are the surface tooling uses to observe and edit a
// paused machine. None of them are safe to call while Step is running on
// another goroutine.

func (mc *Machine) IP() uint16 {
	return mc.State.Program
}

func (mc *Machine) SetIP(addr uint16) {
	mc.State.Program = addr
}

func (mc *Machine) Halted() bool {
	return mc.State.Halted
}

// ReadMemory returns the word at addr, or false when addr was never set.
func (mc *Machine) ReadMemory(addr uint16) (uint16, bool) {
	return mc.State.Memory.Read(addr)
}

func (mc *Machine) WriteMemory(addr uint16, value uint16) {
	mc.State.Memory.Write(addr, value)
}

func (mc *Machine) ReadRegister(index int) (uint16, error) {
	if index < 0 || index >= REGISTER_COUNT {
		return 0, fmt.Errorf("register r%d out of range", index)
	}

	return mc.State.Registers[index], nil
}

func (mc *Machine) WriteRegister(index int, value uint16) error {
	if index < 0 || index >= REGISTER_COUNT {
		return fmt.Errorf("register r%d out of range", index)
	}

	mc.State.Registers[index] = value
	return nil
}

// ReadStack returns a copy of the stack, bottom first.
func (mc *Machine) ReadStack() []uint16 {
	return append([]uint16(nil), mc.State.Stack...)
}

// Resume clears the halted state so a debugger can continue after editing
// a machine that stopped.
func (mc *Machine) Resume() {
	mc.State.Halted = false
}
