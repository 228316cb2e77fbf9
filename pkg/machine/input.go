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

// InputBuffer holds the unconsumed remainder of one input line. The line is
// stored reversed so that each character is taken off the tail.
type InputBuffer struct {
	pending []byte
}

func (in *InputBuffer) Reset() {
	in.pending = nil
}

// Buffering reports whether a line is partially consumed. A fresh line is
// only requested once this is false.
func (in *InputBuffer) Buffering() bool {
	return len(in.pending) > 0
}

func (in *InputBuffer) Fill(line string) {
	if len(line) == 0 {
		in.pending = nil
		return
	}

	in.pending = make([]byte, len(line))

	for i := 0; i < len(line); i++ {
		in.pending[len(line)-1-i] = line[i]
	}
}

// Next removes one character. Taking the newline ends the line even when
// characters follow it.
func (in *InputBuffer) Next() byte {
	last := len(in.pending) - 1
	char := in.pending[last]
	in.pending = in.pending[:last]

	if char == '\n' || len(in.pending) == 0 {
		in.pending = nil
	}

	return char
}

// Pending returns what is left of the line in its original order.
func (in *InputBuffer) Pending() string {
	result := make([]byte, len(in.pending))

	for i, char := range in.pending {
		result[len(in.pending)-1-i] = char
	}

	return string(result)
}
