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

package disasm_test

import (
	"strings"
	"testing"

	"github.com/lassandro/gosynacor/pkg/disasm"
	"github.com/lassandro/gosynacor/pkg/machine"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		Name   string
		Words  []uint16
		Output string
	}{
		{"Halt", []uint16{0}, "    0: halt"},
		{"Set Register", []uint16{1, 32768, 32775}, "    0: set r0, r7"},
		{"Out Printable", []uint16{19, 'A'}, "    0: out (A)65"},
		{"Out Newline", []uint16{19, 10}, "    0: out 10"},
		{"Unknown", []uint16{9999}, "    0: 9999"},
		{"Truncated", []uint16{9, 32768}, "    0: add r0"},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			line, ok := disasm.Decode(disasm.Words(test.Words), 0)

			if !ok {
				t.Fatal("Nothing decoded at 0")
			}

			if have := disasm.Format(&line); have != test.Output {
				t.Errorf("Format mismatch\nwant:%q\nhave:%q", test.Output, have)
			}
		})
	}
}

func TestUnknownIsTolerated(t *testing.T) {
	line, ok := disasm.Decode(disasm.Words{40000, 21}, 0)

	if !ok || line.Opcode != machine.OP_UNKNOWN || line.Size() != 1 {
		t.Fatalf("Unknown opcode decoded as %s size %d", line.Opcode, line.Size())
	}
}

func TestDisassemble(t *testing.T) {
	var out strings.Builder

	words := disasm.Words{17, 3, 0, 19, 'x', 18, 21}
	labels := map[uint16]string{3: "print"}

	next, err := disasm.Disassemble(&out, words, 0, -1, labels)

	if err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"    0: call 3",
		"    2: halt",
		"print:",
		"    3: out (x)120",
		"    5: ret",
		"",
		"    6: noop",
		"",
	}, "\n")

	if have := out.String(); have != want {
		t.Errorf("Listing mismatch\nwant:%q\nhave:%q", want, have)
	}

	if next != 7 {
		t.Errorf("Next address mismatch\nwant:7\nhave:%d", next)
	}
}

func TestDisassembleCount(t *testing.T) {
	var out strings.Builder

	next, err := disasm.Disassemble(&out, disasm.Words{21, 21, 21}, 1, 1, nil)

	if err != nil {
		t.Fatal(err)
	}

	if out.String() != "    1: noop\n" || next != 2 {
		t.Errorf("Listing mismatch\nhave:%q next %d", out.String(), next)
	}
}
