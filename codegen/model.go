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


// Package codegen links the compiled functions into a model and serializes it
// into the binary artifact loaded by the runtime.
package codegen

import (
	"fmt"
	"io"

	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/util/errwrap"
)

const (
	// Identifier is the magic number at the start of every model. It reads
	// as KMDL on disk.
	Identifier uint32 = 'K' | 'M'<<8 | 'D'<<16 | 'L'<<24

	// Version is the version of the model format.
	Version uint32 = 5

	// NoEntry marks a model which has no entry function.
	NoEntry = ^uint32(0)

	// MaxModuleKindLength is the size of the module kind field.
	MaxModuleKindLength = 16

	// MaxSectionNameLength is the size of the section name field.
	MaxSectionNameLength = 16

	// minAlignment is the alignment of every header.
	minAlignment = 8
)

type modelHeader struct {
	Identifier    uint32
	Version       uint32
	Flags         uint32
	Alignment     uint32
	Modules       uint32
	EntryModule   uint32
	EntryFunction uint32
	Reserved0     uint32
}

type moduleHeader struct {
	Kind      [MaxModuleKindLength]byte
	Version   uint32
	Size      uint32
	Sections  uint32
	Functions uint32
}

type functionHeader struct {
	Parameters uint32
	Size       uint32
	Entrypoint uint64
	TextSize   uint64
}

type sectionHeader struct {
	Name       [MaxSectionNameLength]byte
	Flags      uint32
	Size       uint32
	BodyStart  uint32
	BodySize   uint32
	MemorySize uint32
	Reserved0  uint32
}

// FunctionID identifies a function across the modules of a model.
type FunctionID struct {
	ModuleID uint32
	ID       uint32
}

// LinkedFunction is a function of a linked module. Its code is the range of the
// text section which starts at TextBegin.
type LinkedFunction struct {
	ParameterTypes []*types.Type
	ReturnType     *types.Type
	TextBegin      uint64
	TextLength     uint64
}

// LinkedSection is a named blob of a linked module.
type LinkedSection struct {
	Name         string
	Flags        uint32
	Alignment    uint32
	SizeInMemory uint32
	Body         []byte
}

// LinkedModule is the code and data of one target.
type LinkedModule struct {
	Kind      string
	Version   uint32
	Functions []*LinkedFunction
	Sections  []*LinkedSection
}

// LinkedModel is the result of linking. Entry is nil if the model has no entry
// function.
type LinkedModel struct {
	Entry   *FunctionID
	Modules []*LinkedModule
}

// Alignment returns the least common multiple of the header alignment and the
// alignment of every section.
func (obj *LinkedModel) Alignment() (uint32, error) {
	alignment := uint32(minAlignment)
	for _, m := range obj.Modules {
		for _, s := range m.Sections {
			if s.Alignment == 0 {
				return 0, fmt.Errorf("section `%s` has no alignment", s.Name)
			}
			alignment = lcm(alignment, s.Alignment)
		}
	}
	return alignment, nil
}

// Serialize writes the model. The headers are written last, once the size of
// what they describe is known, so the output has to be seekable.
func (obj *LinkedModel) Serialize(output io.WriteSeeker) error {
	alignment, err := obj.Alignment()
	if err != nil {
		return err
	}
	w, err := newWriter(output)
	if err != nil {
		return err
	}

	header := modelHeader{
		Identifier:    Identifier,
		Version:       Version,
		Alignment:     alignment,
		Modules:       uint32(len(obj.Modules)),
		EntryModule:   NoEntry,
		EntryFunction: NoEntry,
	}
	if obj.Entry != nil {
		if int(obj.Entry.ModuleID) >= len(obj.Modules) {
			return fmt.Errorf("entry module %d does not exist", obj.Entry.ModuleID)
		}
		if int(obj.Entry.ID) >= len(obj.Modules[obj.Entry.ModuleID].Functions) {
			return fmt.Errorf("entry function %d does not exist", obj.Entry.ID)
		}
		header.EntryModule = obj.Entry.ModuleID
		header.EntryFunction = obj.Entry.ID
	}
	if err := w.write(&header); err != nil {
		return err
	}

	for i, m := range obj.Modules {
		if err := serializeModule(w, m); err != nil {
			return errwrap.Wrapf(err, "module %d", i)
		}
	}
	return nil
}

func serializeModule(w *writer, module *LinkedModule) error {
	header := moduleHeader{
		Version:   module.Version,
		Sections:  uint32(len(module.Sections)),
		Functions: uint32(len(module.Functions)),
	}
	if err := fill(header.Kind[:], module.Kind); err != nil {
		return errwrap.Wrapf(err, "invalid module kind")
	}

	headerPos := w.pos
	if err := w.skip(binarySize(&header)); err != nil {
		return err
	}
	for i, fn := range module.Functions {
		if err := serializeFunction(w, fn); err != nil {
			return errwrap.Wrapf(err, "function %d", i)
		}
	}
	for _, s := range module.Sections {
		if err := serializeSection(w, s); err != nil {
			return errwrap.Wrapf(err, "section `%s`", s.Name)
		}
	}
	if _, err := w.align(minAlignment); err != nil {
		return err
	}

	header.Size = uint32(w.pos - headerPos)
	return w.patch(headerPos, &header)
}

func serializeFunction(w *writer, fn *LinkedFunction) error {
	header := functionHeader{
		Parameters: uint32(len(fn.ParameterTypes)),
		Entrypoint: fn.TextBegin,
		TextSize:   fn.TextLength,
	}

	headerPos := w.pos
	if err := w.skip(binarySize(&header)); err != nil {
		return err
	}
	for i, typ := range fn.ParameterTypes {
		if err := serializeType(w, typ); err != nil {
			return errwrap.Wrapf(err, "param %d", i)
		}
	}
	if err := serializeType(w, fn.ReturnType); err != nil {
		return errwrap.Wrapf(err, "return type")
	}
	if _, err := w.align(minAlignment); err != nil {
		return err
	}

	header.Size = uint32(w.pos - headerPos)
	return w.patch(headerPos, &header)
}

func serializeSection(w *writer, section *LinkedSection) error {
	header := sectionHeader{
		Flags:      section.Flags,
		BodySize:   uint32(len(section.Body)),
		MemorySize: section.SizeInMemory,
	}
	if err := fill(header.Name[:], section.Name); err != nil {
		return errwrap.Wrapf(err, "invalid section name")
	}

	headerPos := w.pos
	if err := w.skip(binarySize(&header)); err != nil {
		return err
	}
	start, err := w.align(int64(section.Alignment))
	if err != nil {
		return err
	}
	header.BodyStart = uint32(start)
	if err := w.bytes(section.Body); err != nil {
		return err
	}
	if _, err := w.align(minAlignment); err != nil {
		return err
	}

	header.Size = uint32(w.pos - headerPos)
	return w.patch(headerPos, &header)
}

// fill copies the string into a fixed size, zero padded field.
func fill(field []byte, s string) error {
	if s == "" {
		return fmt.Errorf("empty string")
	}
	if len(s) > len(field) {
		return fmt.Errorf("`%s` is longer than %d bytes", s, len(field))
	}
	copy(field, s)
	return nil
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b uint32) uint32 {
	return a / gcd(a, b) * b
}
