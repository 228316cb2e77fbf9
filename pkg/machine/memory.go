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

// Memory is the flat word store. Every address is individually tracked as
// set or unset so that reads from memory the program never populated can be
// reported instead of silently returning zero.
type Memory struct {
	words [MEMORY_SIZE]uint16
	set   [MEMORY_SIZE / 64]uint64
}

func (mem *Memory) Reset() {
	for i := range mem.words {
		mem.words[i] = 0x0000
	}

	for i := range mem.set {
		mem.set[i] = 0
	}
}

func (mem *Memory) Read(addr uint16) (uint16, bool) {
	if mem.set[addr>>6]&(1<<(addr&63)) == 0 {
		return 0, false
	}

	return mem.words[addr], true
}

func (mem *Memory) Write(addr uint16, value uint16) {
	mem.words[addr] = value
	mem.set[addr>>6] |= 1 << (addr & 63)
}

// Clear returns addr to the unset state.
func (mem *Memory) Clear(addr uint16) {
	mem.words[addr] = 0
	mem.set[addr>>6] &^= 1 << (addr & 63)
}

// Len is the number of set addresses.
func (mem *Memory) Len() int {
	count := 0

	for _, bits := range mem.set {
		for ; bits != 0; bits &= bits - 1 {
			count++
		}
	}

	return count
}

// Range calls fn for every set address in ascending order until fn returns
// false.
func (mem *Memory) Range(fn func(addr, value uint16) bool) {
	for block, bits := range mem.set {
		if bits == 0 {
			continue
		}

		for bit := 0; bit < 64; bit++ {
			if bits&(1<<uint(bit)) == 0 {
				continue
			}

			addr := uint16(block*64 + bit)

			if !fn(addr, mem.words[addr]) {
				return
			}
		}
	}
}
