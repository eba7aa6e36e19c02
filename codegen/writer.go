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


package codegen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/purpleidea/nnc/ir/types"
)

// order is the byte order of everything in the model.
var order = binary.LittleEndian

// writer tracks the position of the output relative to where the model starts.
type writer struct {
	w     io.WriteSeeker
	start int64
	pos   int64
}

func newWriter(w io.WriteSeeker) (*writer, error) {
	start, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	return &writer{
		w:     w,
		start: start,
	}, nil
}

func binarySize(v interface{}) int64 {
	return int64(binary.Size(v))
}

func (obj *writer) write(v interface{}) error {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, order, v); err != nil {
		return err
	}
	return obj.bytes(buf.Bytes())
}

func (obj *writer) bytes(b []byte) error {
	n, err := obj.w.Write(b)
	obj.pos += int64(n)
	return err
}

// skip leaves room for a header. The room is zero filled.
func (obj *writer) skip(n int64) error {
	return obj.bytes(make([]byte, n))
}

// align pads the output up to a multiple of the alignment and returns the new
// position.
func (obj *writer) align(alignment int64) (int64, error) {
	if alignment <= 0 {
		return 0, fmt.Errorf("invalid alignment %d", alignment)
	}
	if rem := obj.pos % alignment; rem != 0 {
		if err := obj.skip(alignment - rem); err != nil {
			return 0, err
		}
	}
	return obj.pos, nil
}

// patch writes v at an earlier position and returns to the current one.
func (obj *writer) patch(at int64, v interface{}) error {
	if _, err := obj.w.Seek(obj.start+at, io.SeekStart); err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, order, v); err != nil {
		return err
	}
	if _, err := obj.w.Write(buf.Bytes()); err != nil {
		return err
	}
	_, err := obj.w.Seek(obj.start+obj.pos, io.SeekStart)
	return err
}

// The tags of the serialized types.
const (
	typeTagTensor   uint8 = 1
	typeTagTuple    uint8 = 2
	typeTagCallable uint8 = 3
)

// serializeType writes a type. A tensor is its dtype and its rank followed by
// the dims, where an unranked tensor has rank -1 and an unknown dim is -1.
func serializeType(w *writer, typ *types.Type) error {
	if typ == nil {
		return fmt.Errorf("missing type")
	}
	switch typ.Kind {
	case types.KindTensor:
		if err := w.write([]uint8{typeTagTensor, uint8(typ.DType)}); err != nil {
			return err
		}
		if typ.Unranked {
			return w.write(int32(-1))
		}
		dims := make([]int32, len(typ.Shape))
		for i, d := range typ.Shape {
			dims[i] = int32(d)
		}
		if err := w.write(int32(len(dims))); err != nil {
			return err
		}
		return w.write(dims)

	case types.KindTuple:
		if err := w.write(typeTagTuple); err != nil {
			return err
		}
		if err := w.write(uint32(len(typ.Fields))); err != nil {
			return err
		}
		for _, f := range typ.Fields {
			if err := serializeType(w, f); err != nil {
				return err
			}
		}
		return nil

	case types.KindCallable:
		if err := w.write(typeTagCallable); err != nil {
			return err
		}
		if err := w.write(uint32(len(typ.Params))); err != nil {
			return err
		}
		for _, p := range typ.Params {
			if err := serializeType(w, p); err != nil {
				return err
			}
		}
		if typ.Ret == nil {
			return w.write(uint8(0))
		}
		if err := w.write(uint8(1)); err != nil {
			return err
		}
		return serializeType(w, typ.Ret)
	}
	return fmt.Errorf("can't serialize type `%s`", typ)
}
