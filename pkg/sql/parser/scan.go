// Copyright 2022 The RaptorDB Authors.
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

package parser

import (
	"strings"
	"unicode"

	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokKeyword
	tokNumber
	tokString
	tokSymbol
)

type token struct {
	kind tokenKind
	// s holds the token text. Keywords and identifiers are lowercased;
	// string literals are unquoted.
	s   string
	pos int
}

var keywords = map[string]bool{
	"select": true, "from": true, "where": true, "group": true, "by": true,
	"as": true, "and": true, "or": true, "not": true, "exists": true,
	"join": true, "inner": true, "left": true, "right": true, "outer": true,
	"cross": true, "on": true, "true": true, "false": true, "null": true,
	"create": true, "table": true,
}

// scanner produces the token stream for the parser. Errors are reported
// with a syntax SQLSTATE and the byte offset of the offending input.
type scanner struct {
	in  string
	pos int
}

func (s *scanner) errorf(pos int, format string, args ...interface{}) error {
	return pgerror.Newf(pgcode.Syntax, "at or near position %d: "+format,
		append([]interface{}{pos}, args...)...)
}

func (s *scanner) scan() (token, error) {
	for s.pos < len(s.in) && unicode.IsSpace(rune(s.in[s.pos])) {
		s.pos++
	}
	if s.pos >= len(s.in) {
		return token{kind: tokEOF, pos: s.pos}, nil
	}
	start := s.pos
	c := s.in[s.pos]

	switch {
	case isIdentStart(c):
		for s.pos < len(s.in) && isIdentCont(s.in[s.pos]) {
			s.pos++
		}
		word := strings.ToLower(s.in[start:s.pos])
		if keywords[word] {
			return token{kind: tokKeyword, s: word, pos: start}, nil
		}
		return token{kind: tokIdent, s: word, pos: start}, nil

	case c >= '0' && c <= '9':
		seenDot := false
		for s.pos < len(s.in) {
			ch := s.in[s.pos]
			if ch == '.' {
				if seenDot {
					break
				}
				seenDot = true
			} else if ch < '0' || ch > '9' {
				break
			}
			s.pos++
		}
		return token{kind: tokNumber, s: s.in[start:s.pos], pos: start}, nil

	case c == '\'':
		s.pos++
		lit := start + 1
		for s.pos < len(s.in) && s.in[s.pos] != '\'' {
			s.pos++
		}
		if s.pos >= len(s.in) {
			return token{}, s.errorf(start, "unterminated string literal")
		}
		s.pos++
		return token{kind: tokString, s: s.in[lit : s.pos-1], pos: start}, nil
	}

	// Multi-character operators first.
	for _, op := range []string{"<=", ">=", "!=", "<>"} {
		if strings.HasPrefix(s.in[s.pos:], op) {
			s.pos += 2
			return token{kind: tokSymbol, s: op, pos: start}, nil
		}
	}
	switch c {
	case '(', ')', ',', '.', '*', '+', '-', '/', '=', '<', '>':
		s.pos++
		return token{kind: tokSymbol, s: string(c), pos: start}, nil
	}
	return token{}, s.errorf(start, "unexpected character %q", string(c))
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
