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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0x0000
	}

	mc.Memory.Reset()
	mc.Input.Reset()

	mc.Program = 0x0000
	mc.Stack = nil
	mc.Halted = false
	mc.Cycles = 0
}

// LoadWords resets the machine and places words[i] at address i.
func (mc *Machine) LoadWords(words []uint16) error {
	if len(words) > MEMORY_SIZE {
		return &Error{
			Errno: LoadError,
			Err:   fmt.Errorf("%d words exceed the address space", len(words)),
		}
	}

	mc.State.Reset()

	for addr, word := range words {
		mc.State.Memory.Write(uint16(addr), word)
	}

	return nil
}

// LoadBin reads a program image of little-endian words until EOF.
func (mc *Machine) LoadBin(reader io.Reader) error {
	words := make([]uint16, 0, 1<<15)
	scratch := make([]byte, 2)
	input := bufio.NewReader(reader)

	for {
		n, err := io.ReadFull(input, scratch)

		if err == io.EOF {
			break
		} else if err == io.ErrUnexpectedEOF {
			return &Error{
				Errno: LoadError,
				Err:   fmt.Errorf("trailing byte after word %d", len(words)),
			}
		} else if err != nil {
			return &Error{Errno: LoadError, Err: err}
		} else if n != 2 {
			return &Error{Errno: LoadError, Err: errors.New("short read")}
		}

		if len(words) == MEMORY_SIZE {
			return &Error{
				Errno: LoadError,
				Err:   errors.New("binary exceeds the address space"),
			}
		}

		words = append(words, binary.LittleEndian.Uint16(scratch))
	}

	return mc.LoadWords(words)
}

func (mc *Machine) push(value uint16) {
	mc.State.Stack = append(mc.State.Stack, value)
}

func (mc *Machine) pop() (uint16, bool) {
	top := len(mc.State.Stack) - 1

	if top < 0 {
		return 0, false
	}

	value := mc.State.Stack[top]
	mc.State.Stack = mc.State.Stack[:top]
	return value, true
}

// setRegister stores through a raw register address. The decoder has
// already rejected anything else as a write target.
func (mc *Machine) setRegister(raw uint16, value uint16) {
	mc.State.Registers[raw-WORD_REGISTER_MIN] = value
}

func (mc *Machine) output(value uint16) error {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return nil
	}

	if err := mc.Devices.Display.WriteByte(byte(value & 0xFF)); err != nil {
		return err
	}

	return mc.Devices.Display.Flush()
}

// readLine blocks for one full line of keyboard input. The display is
// flushed first so any prompt is visible.
func (mc *Machine) readLine(inst *Instruction) (string, error) {
	if mc.Devices == nil || mc.Devices.Keyboard == nil {
		return "", mc.newError(EOF, inst)
	}

	if mc.Devices.Display != nil {
		if err := mc.Devices.Display.Flush(); err != nil {
			return "", mc.newIOError(err, inst)
		}
	}

	line, err := mc.Devices.Keyboard.ReadString('\n')

	if err == io.EOF {
		if len(line) == 0 {
			return "", mc.newError(EOF, inst)
		}
	} else if err != nil {
		return "", mc.newIOError(err, inst)
	}

	return line, nil
}

// readWord loads a data word. An unset address in the register window reads
// the register it aliases.
func (mc *Machine) readWord(addr uint16) (uint16, bool) {
	if value, ok := mc.State.Memory.Read(addr); ok {
		return value, true
	}

	if IsRegister(addr) {
		return mc.State.Registers[addr-WORD_REGISTER_MIN], true
	}

	return 0, false
}

func flag(condition bool) uint16 {
	if condition {
		return 1
	}

	return 0
}

// Step executes the instruction at the program counter. A fatal condition
// is returned as *Error and leaves the state as it was before the
// instruction. Stepping a halted machine does nothing.
func (mc *Machine) Step() error {
	if mc.State.Halted {
		return nil
	}

	inst, err := mc.Decode(mc.State.Program)

	if err != nil {
		return err
	}

	args := inst.Args
	next := inst.Next()

	switch inst.Opcode {
	// halt: stop execution
	case OP_HALT:
		mc.State.Halted = true

	// set a b: a = b
	case OP_SET:
		mc.setRegister(args[0], args[1])

	// push a
	case OP_PUSH:
		mc.push(args[0])

	// pop a: empty stack is fatal
	case OP_POP:
		value, ok := mc.pop()

		if !ok {
			return mc.newError(StackUnderflow, inst)
		}

		mc.setRegister(args[0], value)

	// eq a b c: a = b == c
	case OP_EQ:
		mc.setRegister(args[0], flag(args[1] == args[2]))

	// gt a b c: a = b > c
	case OP_GT:
		mc.setRegister(args[0], flag(args[1] > args[2]))

	// jmp a
	case OP_JMP:
		next = args[0]

	// jt a b: jump to b if a is nonzero
	case OP_JT:
		if args[0] != 0 {
			next = args[1]
		}

	// jf a b: jump to b if a is zero
	case OP_JF:
		if args[0] == 0 {
			next = args[1]
		}

	// add a b c: a = (b + c) % 32768
	case OP_ADD:
		sum := (uint32(args[1]) + uint32(args[2])) % WORD_MODULUS
		mc.setRegister(args[0], uint16(sum))

	// mult a b c: a = (b * c) % 32768
	case OP_MULT:
		product := (uint32(args[1]) * uint32(args[2])) % WORD_MODULUS
		mc.setRegister(args[0], uint16(product))

	// mod a b c: a = b % c, zero divisor is fatal
	case OP_MOD:
		if args[2] == 0 {
			return mc.newError(DivideByZero, inst)
		}

		mc.setRegister(args[0], args[1]%args[2])

	// and a b c
	case OP_AND:
		mc.setRegister(args[0], args[1]&args[2])

	// or a b c
	case OP_OR:
		mc.setRegister(args[0], args[1]|args[2])

	// not a b: 15-bit complement
	case OP_NOT:
		mc.setRegister(args[0], ^args[1]&WORD_LITERAL_MAX)

	// rmem a b: a = mem[b]
	case OP_RMEM:
		value, ok := mc.readWord(args[1])

		if !ok {
			return mc.newError(InvalidAddress, inst)
		}

		mc.setRegister(args[0], value)

	// wmem a b: mem[a] = b
	case OP_WMEM:
		mc.State.Memory.Write(args[0], args[1])

	// call a: push the fall-through address and jump
	case OP_CALL:
		mc.push(next)
		next = args[0]

	// ret: pop and jump, empty stack halts
	case OP_RET:
		if target, ok := mc.pop(); ok {
			next = target
		} else {
			mc.State.Halted = true
		}

	// out a: write the low byte of a
	case OP_OUT:
		if err := mc.output(args[0]); err != nil {
			return mc.newIOError(err, inst)
		}

	// in a: one character of the current input line
	case OP_IN:
		if !mc.State.Input.Buffering() {
			line, err := mc.readLine(inst)

			if err != nil {
				return err
			}

			// A consumed line leaves the instruction pending so it asks for
			// another line once the debugger returns.
			if mc.Debugger != nil && mc.Debugger.Line(line, mc) {
				return nil
			}

			mc.State.Input.Fill(line)
		}

		mc.setRegister(args[0], uint16(mc.State.Input.Next()))

	// noop
	case OP_NOOP:
	}

	mc.State.Program = next
	mc.State.Cycles++

	if mc.Debugger != nil {
		switch inst.Opcode {
		case OP_RMEM:
			mc.Debugger.Read(args[1], mc)
		case OP_WMEM:
			mc.Debugger.Write(args[0], mc)
		}

		mc.Debugger.Step(inst, mc)
	}

	return nil
}

// Run steps the machine until it halts or fails.
func (mc *Machine) Run() error {
	for !mc.State.Halted {
		if err := mc.Step(); err != nil {
			return err
		}
	}

	if mc.Devices != nil && mc.Devices.Display != nil {
		return mc.Devices.Display.Flush()
	}

	return nil
}
