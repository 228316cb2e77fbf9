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

package encoding_test

import (
	"testing"

	"github.com/lassandro/gosynacor/pkg/encoding"
)

func TestDecodeWord(t *testing.T) {
	tests := []struct {
		Input  string
		Output uint16
		Fail   bool
	}{
		{"0x7FFF", 0x7FFF, false},
		{"x10", 16, false},
		{"#42", 42, false},
		{"65535", 65535, false},
		{"65536", 0, true},
		{"0x", 0, true},
		{"1x2", 0, true},
		{"abc", 0, true},
	}

	for _, test := range tests {
		have, err := encoding.DecodeWord(test.Input)

		if test.Fail {
			if err == nil {
				t.Errorf("DecodeWord(%q) expected error, have %d", test.Input, have)
			}
			continue
		}

		if err != nil {
			t.Errorf("DecodeWord(%q): %v", test.Input, err)
		} else if have != test.Output {
			t.Errorf(
				"DecodeWord(%q) mismatch\nwant:%d\nhave:%d",
				test.Input,
				test.Output,
				have,
			)
		}
	}
}

func TestRegisterName(t *testing.T) {
	for value, want := range map[uint16]string{
		0x8000: "r0",
		0x8007: "r7",
		0x8008: "32776",
		12:     "12",
	} {
		if have := encoding.RegisterName(value); have != want {
			t.Errorf("RegisterName(%d) mismatch\nwant:%s\nhave:%s", value, want, have)
		}
	}

	if index, ok := encoding.DecodeRegister("R5"); !ok || index != 5 {
		t.Errorf("DecodeRegister(R5) = %d, %t", index, ok)
	}

	if _, ok := encoding.DecodeRegister("r8"); ok {
		t.Error("DecodeRegister(r8) accepted")
	}
}

func TestToASCII(t *testing.T) {
	if have := encoding.ToASCII('A'); have != 'A' {
		t.Errorf("ToASCII('A') = %q", have)
	}

	if have := encoding.ToASCII(200); have != '.' {
		t.Errorf("ToASCII(200) = %q", have)
	}

	if _, ok := encoding.ToPrintable('\n'); ok {
		t.Error("Newline reported printable")
	}
}

func TestMaskRoundTrip(t *testing.T) {
	for _, key := range []uint16{0, 0x1234, 0x7FFF, 0xFFFF} {
		for value := uint32(0); value <= 0xFFFF; value += 97 {
			masked := encoding.Mask(uint16(value), key)

			if have := encoding.Unmask(masked, key); have != uint16(value) {
				t.Fatalf(
					"Mask round trip mismatch (key %#04x)\nwant:%d\nhave:%d",
					key,
					value,
					have,
				)
			}
		}
	}
}

func TestMaskFifteenBit(t *testing.T) {
	tests := []struct {
		Value  uint16
		Key    uint16
		Output uint16
	}{
		{0x0041, 0x0020, 0x0061},
		{0x7FFF, 0xFFFF, 0x0000},
		{0x1234, 0x8000, 0x1234},
		{0x8001, 0xFFFF, 0xFFFE},
	}

	for _, test := range tests {
		if have := encoding.Mask(test.Value, test.Key); have != test.Output {
			t.Errorf(
				"Mask(%#04x, %#04x) mismatch\nwant:%#04x\nhave:%#04x",
				test.Value,
				test.Key,
				test.Output,
				have,
			)
		}
	}
}
