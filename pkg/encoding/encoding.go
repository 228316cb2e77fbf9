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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (uint16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseUint(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a word written either in hex (0x/x prefix) or base-10
func DecodeWord(s string) (uint16, error) {
	if strings.ContainsAny(s, "xX") {
		return DecodeHex(s)
	}

	return DecodeInt(s)
}

// Names register addresses r0-r7, everything else is printed as a number.
func RegisterName(value uint16) string {
	if value >= 0x8000 && value <= 0x8007 {
		return "r" + strconv.Itoa(int(value-0x8000))
	}

	return strconv.Itoa(int(value))
}

// Parses r0-r7 (case-insensitive) into a register index.
func DecodeRegister(s string) (int, bool) {
	if len(s) != 2 || (s[0] != 'r' && s[0] != 'R') {
		return 0, false
	}

	if s[1] < '0' || s[1] > '7' {
		return 0, false
	}

	return int(s[1] - '0'), true
}

// Displays a word as a character when it fits in 7-bit ASCII and '.'
// otherwise.
func ToASCII(value uint16) rune {
	if value < 128 {
		return rune(value)
	}

	return '.'
}

// Like ToASCII, but also hides control characters so the result is safe to
// print inline.
func ToPrintable(value uint16) (rune, bool) {
	if value >= 0x20 && value < 0x7F {
		return rune(value), true
	}

	return '.', false
}

// Applies an XOR mask in the 15-bit literal domain. The key's top bit is
// ignored, so a literal stays a literal. Applying the same key twice gives
// back the original word, which lets obfuscated memory regions be viewed in
// the clear.
func Mask(value uint16, key uint16) uint16 {
	return value ^ (key & 0x7FFF)
}

func Unmask(value uint16, key uint16) uint16 {
	return Mask(value, key)
}
