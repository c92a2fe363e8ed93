// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

// Package compiler turns decoded descriptor sets into planned zero-copy
// layouts, ready for code emission.
//
// Compilation runs as a fixed sequence of passes: symbol registration,
// import ordering, reference resolution, option interpretation, and
// layout planning. Each pass is deterministic, so compiling the same
// descriptor bytes twice yields identical results.
package compiler

import (
	"go.zeropb.org/zeropb"
	"go.zeropb.org/zeropb/descriptor"
)

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	goPackage string
}

// WithGoPackage sets the target package for files whose descriptor
// carries no go_package option.
func WithGoPackage(goPackage string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.goPackage = goPackage
	})
}

// CompileResult holds the compiled files in dependency order.
type CompileResult struct {
	Files []*File
}

// File is a compiled input file.
type File struct {
	Name      string
	Package   string
	GoPackage string
	Desc      *descriptor.File

	Imports  []*File
	Messages []*Message
	Enums    []*Enum
	Services []*Service
}

// Message is a compiled message type. Name is the fully-qualified proto
// name without the leading dot.
type Message struct {
	Name    string
	Desc    *descriptor.Message
	File    *File
	Parent  *Message
	Options MessageOptions

	Fields []*Field
	Oneofs []*Oneof
	Nested []*Message
	Enums  []*Enum

	Layout *zeropb.Layout
}

// IsMapEntry reports whether the message is a synthesized map entry
// type.
func (m *Message) IsMapEntry() bool {
	return m.Desc.Options.MapEntry
}

// Field is a compiled field. Exactly one of Message and Enum is non-nil
// when the field has a named type.
type Field struct {
	Desc    *descriptor.Field
	Parent  *Message
	Options FieldOptions

	Message *Message
	Enum    *Enum
	Oneof   *Oneof
}

// IsRepeated reports whether the field is repeated, including map
// fields.
func (f *Field) IsRepeated() bool {
	return f.Desc.Label == descriptor.LabelRepeated
}

// IsMap reports whether the field is a map, represented in descriptors
// as a repeated synthesized entry message.
func (f *Field) IsMap() bool {
	return f.IsRepeated() && f.Message != nil && f.Message.IsMapEntry()
}

// MapKey returns the key field of a map field's entry message.
func (f *Field) MapKey() *Field {
	return f.Message.Fields[0]
}

// MapValue returns the value field of a map field's entry message.
func (f *Field) MapValue() *Field {
	return f.Message.Fields[1]
}

// Oneof is a compiled oneof declaration.
type Oneof struct {
	Name   string
	Index  int32
	Parent *Message
	Fields []*Field
}

// Enum is a compiled enum type. Name is the fully-qualified proto name
// without the leading dot.
type Enum struct {
	Name   string
	Desc   *descriptor.Enum
	File   *File
	Parent *Message
}

// Service is a compiled service declaration.
type Service struct {
	Name    string
	Desc    *descriptor.Service
	File    *File
	Methods []*Method
}

// Method is a compiled service method with resolved request and
// response types.
type Method struct {
	Desc   descriptor.Method
	Input  *Message
	Output *Message
}

// CompileBytes decodes a serialized FileDescriptorSet (or a single bare
// FileDescriptorProto) and compiles it.
func CompileBytes(buf []uint8, opts ...CompileOption) (*CompileResult, error) {
	set, err := descriptor.DecodeFileSet(buf)
	if err != nil {
		return nil, err
	}
	return Compile(set, opts...)
}

// Compile runs the full pipeline over a decoded descriptor set.
func Compile(set *descriptor.FileSet, opts ...CompileOption) (*CompileResult, error) {
	compileOptions := &CompileOptions{}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions.Compile(set)
}

func (opts *CompileOptions) Compile(set *descriptor.FileSet) (*CompileResult, error) {
	c := compiler{
		opts:        opts,
		filesByName: make(map[string]*File),
		symbols:     make(map[string]any),
		layouts:     make(map[*Message]*zeropb.Layout),
		planned:     make(map[*Message]bool),
	}
	if err := c.registerFiles(set); err != nil {
		return nil, err
	}
	if err := c.sortFiles(); err != nil {
		return nil, err
	}
	if err := c.resolve(); err != nil {
		return nil, err
	}
	if err := c.interpretOptions(); err != nil {
		return nil, err
	}
	if err := c.planLayouts(); err != nil {
		return nil, err
	}
	return &CompileResult{Files: c.files}, nil
}

type compiler struct {
	opts        *CompileOptions
	files       []*File
	filesByName map[string]*File
	symbols     map[string]any // *Message or *Enum, keyed by FQN

	layouts map[*Message]*zeropb.Layout
	planned map[*Message]bool
}

// registerFiles builds the compiled tree for every file and registers
// each message and enum under its fully-qualified name.
func (c *compiler) registerFiles(set *descriptor.FileSet) error {
	for _, desc := range set.Files {
		if prev, ok := c.filesByName[desc.Name]; ok && desc.Name != "" {
			return errDuplicateFile(desc.Name, prev.Name)
		}
		file := &File{
			Name:      desc.Name,
			Package:   desc.Package,
			GoPackage: desc.Options.GoPackage,
			Desc:      desc,
		}
		if file.GoPackage == "" {
			file.GoPackage = c.opts.goPackage
		}
		c.files = append(c.files, file)
		c.filesByName[desc.Name] = file

		scope := desc.Package
		for _, msgDesc := range desc.Messages {
			msg, err := c.registerMessage(file, nil, scope, msgDesc)
			if err != nil {
				return err
			}
			file.Messages = append(file.Messages, msg)
		}
		for _, enumDesc := range desc.Enums {
			enum, err := c.registerEnum(file, nil, scope, enumDesc)
			if err != nil {
				return err
			}
			file.Enums = append(file.Enums, enum)
		}
		for _, svcDesc := range desc.Services {
			file.Services = append(file.Services, &Service{
				Name: qualify(scope, svcDesc.Name),
				Desc: svcDesc,
				File: file,
			})
		}
	}
	return nil
}

func (c *compiler) registerMessage(
	file *File,
	parent *Message,
	scope string,
	desc *descriptor.Message,
) (*Message, error) {
	msg := &Message{
		Name:   qualify(scope, desc.Name),
		Desc:   desc,
		File:   file,
		Parent: parent,
	}
	if err := c.registerSymbol(msg.Name, file, msg); err != nil {
		return nil, err
	}
	for ii, oneofDesc := range desc.Oneofs {
		msg.Oneofs = append(msg.Oneofs, &Oneof{
			Name:   oneofDesc.Name,
			Index:  int32(ii),
			Parent: msg,
		})
	}
	for _, fieldDesc := range desc.Fields {
		msg.Fields = append(msg.Fields, &Field{
			Desc:   fieldDesc,
			Parent: msg,
		})
	}
	for _, nestedDesc := range desc.Nested {
		nested, err := c.registerMessage(file, msg, msg.Name, nestedDesc)
		if err != nil {
			return nil, err
		}
		msg.Nested = append(msg.Nested, nested)
	}
	for _, enumDesc := range desc.Enums {
		enum, err := c.registerEnum(file, msg, msg.Name, enumDesc)
		if err != nil {
			return nil, err
		}
		msg.Enums = append(msg.Enums, enum)
	}
	return msg, nil
}

func (c *compiler) registerEnum(
	file *File,
	parent *Message,
	scope string,
	desc *descriptor.Enum,
) (*Enum, error) {
	enum := &Enum{
		Name:   qualify(scope, desc.Name),
		Desc:   desc,
		File:   file,
		Parent: parent,
	}
	if err := c.registerSymbol(enum.Name, file, enum); err != nil {
		return nil, err
	}
	hasZero := false
	for _, value := range desc.Values {
		if value.Number == 0 {
			hasZero = true
			break
		}
	}
	if !hasZero {
		return nil, errEnumMissingZero(enum.Name)
	}
	return enum, nil
}

func (c *compiler) registerSymbol(name string, file *File, decl any) error {
	if prev, ok := c.symbols[name]; ok {
		return errDuplicateSymbol(name, declFile(prev).Name, file.Name)
	}
	c.symbols[name] = decl
	return nil
}

func declFile(decl any) *File {
	switch decl := decl.(type) {
	case *Message:
		return decl.File
	case *Enum:
		return decl.File
	}
	return nil
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}
