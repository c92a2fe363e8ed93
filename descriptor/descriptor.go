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

// Package descriptor decodes serialized protobuf descriptors.
//
// The input is the wire encoding of a FileDescriptorSet (or a single
// FileDescriptorProto), as produced by protoc --descriptor_set_out or
// embedded in a build script. Decoding is a structural concern only:
// type names are kept as written and cross-references are resolved by
// the compiler, not here.
package descriptor

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Type is a field's declared scalar or composite type, with the numeric
// values of descriptor.proto's FieldDescriptorProto.Type.
type Type int32

const (
	TypeDouble   Type = 1
	TypeFloat    Type = 2
	TypeInt64    Type = 3
	TypeUint64   Type = 4
	TypeInt32    Type = 5
	TypeFixed64  Type = 6
	TypeFixed32  Type = 7
	TypeBool     Type = 8
	TypeString   Type = 9
	TypeGroup    Type = 10
	TypeMessage  Type = 11
	TypeBytes    Type = 12
	TypeUint32   Type = 13
	TypeEnum     Type = 14
	TypeSfixed32 Type = 15
	TypeSfixed64 Type = 16
	TypeSint32   Type = 17
	TypeSint64   Type = 18
)

func (t Type) String() string {
	switch t {
	case TypeDouble:
		return "double"
	case TypeFloat:
		return "float"
	case TypeInt64:
		return "int64"
	case TypeUint64:
		return "uint64"
	case TypeInt32:
		return "int32"
	case TypeFixed64:
		return "fixed64"
	case TypeFixed32:
		return "fixed32"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeGroup:
		return "group"
	case TypeMessage:
		return "message"
	case TypeBytes:
		return "bytes"
	case TypeUint32:
		return "uint32"
	case TypeEnum:
		return "enum"
	case TypeSfixed32:
		return "sfixed32"
	case TypeSfixed64:
		return "sfixed64"
	case TypeSint32:
		return "sint32"
	case TypeSint64:
		return "sint64"
	}
	return "unknown"
}

// Label is a field's cardinality, matching
// FieldDescriptorProto.Label.
type Label int32

const (
	LabelOptional Label = 1
	LabelRequired Label = 2
	LabelRepeated Label = 3
)

// FileSet is an ordered collection of files, as presented in the input
// bytes.
type FileSet struct {
	Files []*File
}

// File is one FileDescriptorProto: a package namespace with its imports
// and owned definitions.
type File struct {
	Name               string
	Package            string
	Syntax             string
	Dependencies       []string
	PublicDependencies []int32
	Messages           []*Message
	Enums              []*Enum
	Services           []*Service
	Extensions         []*Field
	Options            FileOptions
}

type FileOptions struct {
	GoPackage string
	Ext       Extensions
}

// Message is one DescriptorProto.
type Message struct {
	Name            string
	Fields          []*Field
	Extensions      []*Field
	Nested          []*Message
	Enums           []*Enum
	Oneofs          []*Oneof
	ExtensionRanges []ExtensionRange
	ReservedNames   []string
	Options         MessageOptions
}

type MessageOptions struct {
	MapEntry bool
	Ext      Extensions
}

// Field is one FieldDescriptorProto. TypeName is the declared reference
// for message and enum fields, exactly as written in the descriptor
// (possibly relative, possibly leading-dot absolute).
type Field struct {
	Name           string
	Number         int32
	Label          Label
	Type           Type
	TypeName       string
	Extendee       string
	JSONName       string
	DefaultValue   string
	OneofIndex     int32 // -1 when not a oneof member
	Proto3Optional bool
	Options        FieldOptions
}

func (f *Field) IsRepeated() bool {
	return f.Label == LabelRepeated
}

type FieldOptions struct {
	Packed     *bool
	Deprecated bool
	Ext        Extensions
}

type Oneof struct {
	Name string
}

type ExtensionRange struct {
	Start int32 // inclusive
	End   int32 // exclusive
}

// Enum is one EnumDescriptorProto, keeping values in declaration order.
type Enum struct {
	Name   string
	Values []EnumValue
}

type EnumValue struct {
	Name   string
	Number int32
}

type Service struct {
	Name    string
	Methods []Method
}

type Method struct {
	Name            string
	InputType       string
	OutputType      string
	ClientStreaming bool
	ServerStreaming bool
}

// Extension is one uninterpreted extension record from an options
// message, preserved with its wire type so that recognized numbers can
// be decoded later and unrecognized numbers can round-trip as opaque
// bytes.
type Extension struct {
	Number int32
	Wire   protowire.Type
	Value  []uint8 // raw value bytes for the record's wire type
	Offset int     // byte offset of the record in the original input
}

type Extensions []Extension

// Get returns the last occurrence of the given extension number.
func (exts Extensions) Get(number int32) (Extension, bool) {
	var found Extension
	ok := false
	for _, ext := range exts {
		if ext.Number == number {
			found = ext
			ok = true
		}
	}
	return found, ok
}
