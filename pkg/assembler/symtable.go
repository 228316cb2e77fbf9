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

package assembler

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const SYMBOL_EXT = ".syndb"

// SymbolPath names the symbol table that accompanies a binary.
func SymbolPath(binary string) string {
	base := filepath.Base(binary)
	ext := filepath.Ext(base)

	return filepath.Join(filepath.Dir(binary), strings.TrimSuffix(base, ext)+SYMBOL_EXT)
}

func WriteSymTable(w io.Writer, table *SymTable) error {
	return gob.NewEncoder(w).Encode(table)
}

func ReadSymTable(r io.Reader) (*SymTable, error) {
	var table SymTable

	if err := gob.NewDecoder(r).Decode(&table); err != nil {
		return nil, err
	}

	if table.Symbols == nil {
		table.Symbols = make(map[uint16]int64)
	}

	if table.Labels == nil {
		table.Labels = make(map[uint16]string)
	}

	return &table, nil
}

func LoadSymTable(path string) (*SymTable, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	return ReadSymTable(file)
}
