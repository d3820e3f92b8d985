// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import "strings"

// extractObject returns the outermost JSON object in a model reply, dropping
// code fences and any prose around it. The input is returned trimmed when it
// holds no object.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}

// repairJSON fixes the defects chat models commonly produce in small JSON
// objects: keys missing one or both quotes, single-quoted strings and
// trailing commas.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	var last byte // last significant byte written outside a string
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"':
			j := min(closingQuote(s, i+1, ch), len(s)-1)
			b.WriteString(s[i : j+1])
			last = '"'
			i = j

		case ch == '\'':
			j := closingQuote(s, i+1, ch)
			b.WriteByte('"')
			b.WriteString(requote(s[i+1 : j]))
			b.WriteByte('"')
			last = '"'
			i = j

		case ch == ',':
			if next := nextSignificant(s, i+1); next == '}' || next == ']' {
				continue
			}
			b.WriteByte(ch)
			last = ch

		case isKeyByte(ch) && (last == '{' || last == ','):
			j := i
			for j < len(s) && isKeyByte(s[j]) {
				j++
			}
			key := s[i:j]
			switch {
			case j+1 < len(s) && s[j] == '"' && s[j+1] == ':':
				j++
			case nextSignificant(s, j) == ':':
			default:
				b.WriteString(key)
				last = s[j-1]
				i = j - 1
				continue
			}
			b.WriteByte('"')
			b.WriteString(key)
			b.WriteByte('"')
			last = '"'
			i = j - 1

		default:
			b.WriteByte(ch)
			if !isSpace(ch) {
				last = ch
			}
		}
	}
	return b.String()
}

// closingQuote returns the index of the quote ending a string that starts at
// from, honoring backslash escapes, or len(s) when it is unterminated.
func closingQuote(s string, from int, quote byte) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(s)
}

// requote turns the body of a single-quoted string into a double-quoted one.
func requote(body string) string {
	body = strings.ReplaceAll(body, `\'`, "'")
	return strings.ReplaceAll(body, `"`, `\"`)
}

func nextSignificant(s string, from int) byte {
	for i := from; i < len(s); i++ {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

func isKeyByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}
