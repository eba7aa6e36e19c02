// Nnc
// Copyright (C) 2013-2026+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"fmt"
	"strconv"
)

// parser is a small recursive descent parser for the output of Type.String.
type parser struct {
	s   string
	pos int
}

func (obj *parser) skip() {
	for obj.pos < len(obj.s) && obj.s[obj.pos] == ' ' {
		obj.pos++
	}
}

func (obj *parser) peek() byte {
	obj.skip()
	if obj.pos >= len(obj.s) {
		return 0
	}
	return obj.s[obj.pos]
}

func (obj *parser) expect(token string) error {
	obj.skip()
	if len(obj.s)-obj.pos < len(token) || obj.s[obj.pos:obj.pos+len(token)] != token {
		return fmt.Errorf("expected `%s` at offset %d", token, obj.pos)
	}
	obj.pos += len(token)
	return nil
}

func (obj *parser) word() string {
	obj.skip()
	start := obj.pos
	for obj.pos < len(obj.s) {
		c := obj.s[obj.pos]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			obj.pos++
			continue
		}
		break
	}
	return obj.s[start:obj.pos]
}

func (obj *parser) parse() (*Type, error) {
	switch c := obj.peek(); {
	case c == '(':
		fields, err := obj.list()
		if err != nil {
			return nil, err
		}
		return NewTupleType(fields...), nil
	case c == 0:
		return nil, fmt.Errorf("unexpected end of input")
	}

	name := obj.word()
	if name == "" {
		return nil, fmt.Errorf("unexpected character at offset %d", obj.pos)
	}
	if name == "fn" {
		if obj.peek() != '(' {
			return TypeOperator, nil
		}
		params, err := obj.list()
		if err != nil {
			return nil, err
		}
		if err := obj.expect("->"); err != nil {
			return nil, err
		}
		ret, err := obj.parse()
		if err != nil {
			return nil, err
		}
		return NewCallableType(params, ret), nil
	}

	dtype, err := ParseDType(name)
	if err != nil {
		return nil, err
	}
	if err := obj.expect("["); err != nil {
		return nil, err
	}
	if obj.peek() == '*' {
		obj.pos++
		if err := obj.expect("]"); err != nil {
			return nil, err
		}
		return NewUnrankedType(dtype), nil
	}
	shape := []int{}
	for obj.peek() != ']' {
		if len(shape) > 0 {
			if err := obj.expect(","); err != nil {
				return nil, err
			}
		}
		if obj.peek() == '?' {
			obj.pos++
			shape = append(shape, UnknownDim)
			continue
		}
		w := obj.word()
		d, err := strconv.Atoi(w)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid dim `%s`", w)
		}
		shape = append(shape, d)
	}
	obj.pos++ // consume ]
	return NewTensorType(dtype, shape...), nil
}

// list parses a parenthesized, comma separated list of types.
func (obj *parser) list() ([]*Type, error) {
	if err := obj.expect("("); err != nil {
		return nil, err
	}
	out := []*Type{}
	for obj.peek() != ')' {
		if obj.peek() == 0 {
			return nil, fmt.Errorf("unterminated list")
		}
		if len(out) > 0 {
			if err := obj.expect(","); err != nil {
				return nil, err
			}
		}
		typ, err := obj.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, typ)
	}
	obj.pos++ // consume )
	return out, nil
}
