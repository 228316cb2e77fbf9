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
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/lassandro/gosynacor/pkg/encoding"
	"github.com/lassandro/gosynacor/pkg/machine"
)

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".FILL") {
		return DIRECTIVE_FILL
	} else if strings.EqualFold(ident, ".BLKW") {
		return DIRECTIVE_BLKW
	} else if strings.EqualFold(ident, ".STRING") {
		return DIRECTIVE_STRING
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func parseInstruction(ident string) (machine.Opcode, bool) {
	return machine.ParseOpcode(strings.ToLower(ident))
}

func isHexLiteral(s string) bool {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	} else if s[0] == 'x' || s[0] == 'X' {
		s = s[1:]
	} else {
		return false
	}

	if len(s) == 0 {
		return false
	}

	for _, char := range s {
		if !unicode.Is(unicode.ASCII_Hex_Digit, char) {
			return false
		}
	}

	return true
}

func parseLiteral(token *Token, limit LiteralType) (uint16, error) {
	var result uint16
	var err error

	switch {
	case token.Value[0] == '\'':
		char, ok := parseChar(token.Value)

		if !ok {
			return 0, &InvalidLiteralError{token.Position}
		}

		if char > unicode.MaxASCII {
			return 0, &OversizedCharacterError{token.Position}
		}

		result = uint16(char)

	case isHexLiteral(token.Value):
		result, err = encoding.DecodeHex(token.Value)

	default:
		result, err = encoding.DecodeInt(token.Value)
	}

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	if result > uint16(limit) {
		return 0, &OversizedLiteralError{token.Position, uint16(limit), result}
	}

	return result, nil
}

// Parses a quoted character: 'a', '\n', '\''
func parseChar(s string) (rune, bool) {
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return 0, false
	}

	body := []rune(s[1 : len(s)-1])

	if len(body) == 1 && body[0] != '\\' {
		return body[0], true
	}

	if len(body) == 2 && body[0] == '\\' {
		return unescape(body[1])
	}

	return 0, false
}

func unescape(char rune) (rune, bool) {
	switch char {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case '0':
		return 0, true
	case '\\', '\'', '"':
		return char, true
	}

	return 0, false
}

func parseRegister(token *Token) (uint16, bool) {
	index, ok := encoding.DecodeRegister(token.Value)

	if !ok {
		return 0, false
	}

	return machine.WORD_REGISTER_MIN + uint16(index), true
}

func isIdentChar(char rune) bool {
	return char == '_' || (char <= unicode.MaxASCII &&
		(unicode.IsLetter(char) || unicode.IsDigit(char)))
}

// tokenize splits one source line into tokens. Positions are relative to
// cursor, which points at the start of the line.
func tokenize(line string, cursor Cursor) (tokens []Token, errs []error) {
	runes := []rune(line)

	position := func(start, end int) Cursor {
		return Cursor{
			Line:     cursor.Line,
			Column:   start + 1,
			Byte:     cursor.LineByte + int64(len(string(runes[:start]))),
			Size:     int64(len(string(runes[start:end]))),
			LineByte: cursor.LineByte,
		}
	}

	for i := 0; i < len(runes); {
		char := runes[i]

		switch {
		// Whitespace and operand separators
		case unicode.IsSpace(char) || char == ',':
			i++
			continue

		// Comments
		case char == ';':
			return tokens, errs

		// String Literal
		case char == '"':
			var builder strings.Builder
			start := i
			closed := false

			for i++; i < len(runes); i++ {
				if runes[i] == '\\' && i+1 < len(runes) {
					if value, ok := unescape(runes[i+1]); ok {
						builder.WriteRune(value)
						i++
						continue
					}
				}

				if runes[i] == '"' {
					closed = true
					i++
					break
				}

				builder.WriteRune(runes[i])
			}

			if !closed || builder.Len() == 0 {
				errs = append(errs, &InvalidStringError{position(start, i)})
				continue
			}

			tokens = append(tokens, Token{
				Type:     TOKEN_STRING,
				Position: position(start, i),
				Value:    builder.String(),
			})

		// Character Literal
		case char == '\'':
			start := i
			end := i + 1

			for end < len(runes) && runes[end] != '\'' {
				if runes[end] == '\\' {
					end++
				}
				end++
			}

			if end >= len(runes) {
				errs = append(errs, &InvalidLiteralError{position(start, len(runes))})
				return tokens, errs
			}

			i = end + 1

			tokens = append(tokens, Token{
				Type:     TOKEN_LITERAL,
				Position: position(start, i),
				Value:    string(runes[start:i]),
			})

		default:
			start := i

			for i < len(runes) && !unicode.IsSpace(runes[i]) &&
				runes[i] != ',' && runes[i] != ';' {
				i++
			}

			word := string(runes[start:i])
			token := Token{Position: position(start, i), Value: word}

			first := runes[start]

			switch {
			case first == '.':
				token.Type = TOKEN_DIRECTIVE

			case first == '#' || unicode.IsDigit(first) || isHexLiteral(word):
				token.Type = TOKEN_LITERAL

			case isIdentChar(first):
				token.Type = TOKEN_IDENT

				if _, ok := encoding.DecodeRegister(word); ok {
					token.Type = TOKEN_REGISTER
				}

				// Labels may be written with a trailing colon
				if strings.HasSuffix(word, ":") && len(word) > 1 {
					token.Value = word[:len(word)-1]
				}
			}

			if token.Type == TOKEN_NONE {
				errs = append(
					errs, &UnexpectedCharacterError{position(start, i), first},
				)
				continue
			}

			if token.Type == TOKEN_IDENT {
				for j, char := range []rune(token.Value) {
					if char > unicode.MaxASCII {
						errs = append(
							errs, &OversizedCharacterError{position(start+j, i)},
						)
						break
					} else if !isIdentChar(char) {
						errs = append(
							errs,
							&UnexpectedCharacterError{position(start+j, i), char},
						)
						break
					}
				}
			}

			tokens = append(tokens, token)
		}
	}

	return tokens, errs
}

// AssembleSource translates assembly text into a program image where word i
// belongs at address i. When symtable is not nil it receives the source
// offset of every emitted address and the address of every label.
func AssembleSource(input io.Reader, symtable *SymTable) (result []uint16, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint16
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef

	var program uint32 = 0
	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1}

	result = make([]uint16, 0, 1<<12)
	errs = make([]error, 0)

	emit := func(word uint16) {
		if program >= machine.MEMORY_SIZE {
			if program == machine.MEMORY_SIZE {
				errs = append(errs, &OversizedBinaryError{})
			}
			program++
			return
		}

		if symtable != nil && symtable.Symbols != nil {
			symtable.Symbols[uint16(program)] = cursor.LineByte
		}

		result = append(result, word)
		program++
	}

	// A label reference is emitted as a placeholder and patched once every
	// label has been seen.
	emitOperand := func(token *Token, kind machine.OperandKind) {
		switch token.Type {
		case TOKEN_REGISTER:
			value, _ := parseRegister(token)
			emit(value)

		case TOKEN_LITERAL:
			if kind == machine.OPERAND_WRITE {
				errs = append(errs, &InvalidRegisterError{token.Position})
				emit(0)
				return
			}

			value, err := parseLiteral(token, LITERAL_OPERAND)

			if err != nil {
				errs = append(errs, err)
			}

			emit(value)

		case TOKEN_IDENT:
			if kind == machine.OPERAND_WRITE {
				errs = append(errs, &InvalidRegisterError{token.Position})
				emit(0)
				return
			}

			labelRefs = append(
				labelRefs,
				LabelRef{token.Value, uint16(program), token.Position},
			)
			emit(0)

		default:
			errs = append(
				errs,
				&InvalidOperandError{
					token.Position,
					[]TokenType{TOKEN_REGISTER, TOKEN_LITERAL, TOKEN_IDENT},
					token.Type,
				},
			)
			emit(0)
		}
	}

	advance := func(line string) {
		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

lines:
	for scanner.Scan() {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenize(line, cursor)

		// Pass any potential assembler errors if we already had parser errors
		if len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			advance(line)
			continue
		}

		if len(tokens) == 0 {
			advance(line)
			continue
		}

		var label *Token = nil

		if tokens[0].Type == TOKEN_IDENT {
			if _, ok := parseInstruction(tokens[0].Value); !ok {
				label = &tokens[0]

				if _, exists := labels[label.Value]; !exists {
					labels[label.Value] = uint16(program)

					if symtable != nil && symtable.Labels != nil {
						symtable.Labels[uint16(program)] = label.Value
					}
				} else {
					errs = append(
						errs, &RedeclaredLabelError{label.Position, label.Value},
					)
				}

				tokens = tokens[1:]
			}
		}

		// No need to assemble label-only statements
		if len(tokens) == 0 {
			advance(line)
			continue
		}

		keyword := &tokens[0]
		operands := tokens[1:]

		if label != nil && keyword.Type != TOKEN_IDENT &&
			keyword.Type != TOKEN_DIRECTIVE {
			errs = append(
				errs, &UnknownIdentifierError{label.Position, label.Value},
			)
			advance(line)
			continue
		}

		switch keyword.Type {
		case TOKEN_IDENT:
			op, ok := parseInstruction(keyword.Value)

			if !ok {
				errs = append(
					errs, &UnknownIdentifierError{keyword.Position, keyword.Value},
				)
				break
			}

			kinds := op.Operands()

			if count := len(operands); count != len(kinds) {
				errs = append(
					errs,
					&InvalidNumArgumentsError{keyword.Position, len(kinds), count},
				)
				break
			}

			emit(uint16(op))

			for i, kind := range kinds {
				emitOperand(&operands[i], kind)
			}

		case TOKEN_DIRECTIVE:
			directive := parseDirective(keyword.Value)

			switch directive {
			// .fill # [# ...]
			case DIRECTIVE_FILL:
				if len(operands) == 0 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 1, 0},
					)
					break
				}

				for i := range operands {
					operand := &operands[i]

					switch operand.Type {
					case TOKEN_LITERAL:
						value, err := parseLiteral(operand, LITERAL_WORD)

						if err != nil {
							errs = append(errs, err)
						}

						emit(value)

					case TOKEN_REGISTER:
						value, _ := parseRegister(operand)
						emit(value)

					case TOKEN_IDENT:
						emitOperand(operand, machine.OPERAND_READ)

					default:
						errs = append(
							errs,
							&InvalidOperandError{
								operand.Position,
								[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
								operand.Type,
							},
						)
					}
				}

			// .blkw #
			case DIRECTIVE_BLKW:
				if count := len(operands); count != 1 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
					)
					break
				}

				if operands[0].Type != TOKEN_LITERAL {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[0].Position,
							[]TokenType{TOKEN_LITERAL},
							operands[0].Type,
						},
					)
					break
				}

				size, err := parseLiteral(&operands[0], LITERAL_WORD)

				if err != nil {
					errs = append(errs, err)
					break
				}

				for i := uint16(0); i < size; i++ {
					emit(0)
				}

			// .string "..."
			case DIRECTIVE_STRING:
				if count := len(operands); count != 1 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
					)
					break
				}

				if operands[0].Type != TOKEN_STRING {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[0].Position,
							[]TokenType{TOKEN_STRING},
							operands[0].Type,
						},
					)
					break
				}

				for _, char := range operands[0].Value {
					if char > unicode.MaxASCII {
						errs = append(
							errs, &OversizedCharacterError{operands[0].Position},
						)
						break
					}

					emit(uint16(char))
				}

			case DIRECTIVE_END:
				if count := len(operands); count != 0 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
					)
				}

				break lines

			default:
				errs = append(
					errs, &UnknownIdentifierError{keyword.Position, keyword.Value},
				)
			}

		default:
			errs = append(
				errs,
				&InvalidOperandError{
					keyword.Position,
					[]TokenType{TOKEN_IDENT, TOKEN_DIRECTIVE},
					keyword.Type,
				},
			)
		}

		advance(line)
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	for _, ref := range labelRefs {
		if int(ref.Addr) >= len(result) {
			continue
		}

		if addr, exists := labels[ref.Label]; exists {
			result[ref.Addr] = addr
		} else {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
		}
	}

	return result, errs
}
