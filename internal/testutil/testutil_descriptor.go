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

// Builders for descriptor wire data used by tests. Each builder appends
// records in call order, matching the layout protoc itself produces for
// simple schemas.
package testutil

import (
	"google.golang.org/protobuf/encoding/protowire"

	"go.zeropb.org/zeropb/descriptor"
)

// Proto accumulates protobuf records for a single message.
type Proto struct {
	buf []uint8
}

func (p *Proto) Varint(num protowire.Number, v uint64) *Proto {
	p.buf = protowire.AppendTag(p.buf, num, protowire.VarintType)
	p.buf = protowire.AppendVarint(p.buf, v)
	return p
}

func (p *Proto) Bool(num protowire.Number, v bool) *Proto {
	var raw uint64
	if v {
		raw = 1
	}
	return p.Varint(num, raw)
}

func (p *Proto) Fixed32(num protowire.Number, v uint32) *Proto {
	p.buf = protowire.AppendTag(p.buf, num, protowire.Fixed32Type)
	p.buf = protowire.AppendFixed32(p.buf, v)
	return p
}

func (p *Proto) Fixed64(num protowire.Number, v uint64) *Proto {
	p.buf = protowire.AppendTag(p.buf, num, protowire.Fixed64Type)
	p.buf = protowire.AppendFixed64(p.buf, v)
	return p
}

func (p *Proto) String(num protowire.Number, v string) *Proto {
	p.buf = protowire.AppendTag(p.buf, num, protowire.BytesType)
	p.buf = protowire.AppendString(p.buf, v)
	return p
}

func (p *Proto) Bytes(num protowire.Number, v []uint8) *Proto {
	p.buf = protowire.AppendTag(p.buf, num, protowire.BytesType)
	p.buf = protowire.AppendBytes(p.buf, v)
	return p
}

func (p *Proto) Raw(v []uint8) *Proto {
	p.buf = append(p.buf, v...)
	return p
}

func (p *Proto) Finish() []uint8 {
	return p.buf
}

// FileSet wraps serialized FileDescriptorProtos into a FileDescriptorSet.
func FileSet(files ...[]uint8) []uint8 {
	p := new(Proto)
	for _, file := range files {
		p.Bytes(1, file)
	}
	return p.Finish()
}

// FileProto {{{

type FileProto struct {
	p Proto
}

func NewFile(name, pkg string) *FileProto {
	f := new(FileProto)
	f.p.String(1, name)
	if pkg != "" {
		f.p.String(2, pkg)
	}
	return f
}

func (f *FileProto) Dependency(name string) *FileProto {
	f.p.String(3, name)
	return f
}

func (f *FileProto) Syntax(syntax string) *FileProto {
	f.p.String(12, syntax)
	return f
}

func (f *FileProto) GoPackage(goPackage string) *FileProto {
	options := new(Proto).String(11, goPackage)
	f.p.Bytes(8, options.Finish())
	return f
}

func (f *FileProto) Message(msg *MessageProto) *FileProto {
	f.p.Bytes(4, msg.Finish())
	return f
}

func (f *FileProto) Enum(enum *EnumProto) *FileProto {
	f.p.Bytes(5, enum.Finish())
	return f
}

func (f *FileProto) Service(svc *ServiceProto) *FileProto {
	f.p.Bytes(6, svc.Finish())
	return f
}

func (f *FileProto) Finish() []uint8 {
	return f.p.Finish()
}

// }}}

// MessageProto {{{

type MessageProto struct {
	p Proto
}

func NewMessage(name string) *MessageProto {
	m := new(MessageProto)
	m.p.String(1, name)
	return m
}

func (m *MessageProto) Field(field *FieldProto) *MessageProto {
	m.p.Bytes(2, field.Finish())
	return m
}

// RawField appends pre-encoded FieldDescriptorProto bytes, for records
// the FieldProto builder will not produce.
func (m *MessageProto) RawField(buf []uint8) *MessageProto {
	m.p.Bytes(2, buf)
	return m
}

func (m *MessageProto) Nested(nested *MessageProto) *MessageProto {
	m.p.Bytes(3, nested.Finish())
	return m
}

func (m *MessageProto) Enum(enum *EnumProto) *MessageProto {
	m.p.Bytes(4, enum.Finish())
	return m
}

func (m *MessageProto) Oneof(name string) *MessageProto {
	decl := new(Proto).String(1, name)
	m.p.Bytes(8, decl.Finish())
	return m
}

func (m *MessageProto) MapEntry() *MessageProto {
	options := new(Proto).Bool(7, true)
	m.p.Bytes(7, options.Finish())
	return m
}

// Options appends a DescriptorProto.options record built by fn.
func (m *MessageProto) Options(fn func(p *Proto)) *MessageProto {
	options := new(Proto)
	fn(options)
	m.p.Bytes(7, options.Finish())
	return m
}

func (m *MessageProto) Finish() []uint8 {
	return m.p.Finish()
}

// }}}

// FieldProto {{{

type FieldProto struct {
	p       Proto
	options Proto
}

func NewField(name string, number int32, typ descriptor.Type) *FieldProto {
	f := new(FieldProto)
	f.p.String(1, name)
	f.p.Varint(3, uint64(uint32(number)))
	f.p.Varint(4, uint64(descriptor.LabelOptional))
	f.p.Varint(5, uint64(typ))
	return f
}

func NewRepeatedField(name string, number int32, typ descriptor.Type) *FieldProto {
	f := new(FieldProto)
	f.p.String(1, name)
	f.p.Varint(3, uint64(uint32(number)))
	f.p.Varint(4, uint64(descriptor.LabelRepeated))
	f.p.Varint(5, uint64(typ))
	return f
}

func (f *FieldProto) TypeName(name string) *FieldProto {
	f.p.String(6, name)
	return f
}

func (f *FieldProto) OneofIndex(index int32) *FieldProto {
	f.p.Varint(9, uint64(uint32(index)))
	return f
}

func (f *FieldProto) JSONName(name string) *FieldProto {
	f.p.String(10, name)
	return f
}

func (f *FieldProto) Proto3Optional() *FieldProto {
	f.p.Bool(17, true)
	return f
}

func (f *FieldProto) Packed(packed bool) *FieldProto {
	f.options.Bool(2, packed)
	return f
}

func (f *FieldProto) Deprecated() *FieldProto {
	f.options.Bool(3, true)
	return f
}

func (f *FieldProto) Nullable(nullable bool) *FieldProto {
	f.options.Bool(65001, nullable)
	return f
}

func (f *FieldProto) Embed() *FieldProto {
	f.options.Bool(65002, true)
	return f
}

func (f *FieldProto) CustomType(typeSpec string) *FieldProto {
	f.options.String(65003, typeSpec)
	return f
}

func (f *FieldProto) CustomName(name string) *FieldProto {
	f.options.String(65004, name)
	return f
}

func (f *FieldProto) JSONTag(tag string) *FieldProto {
	f.options.String(65005, tag)
	return f
}

func (f *FieldProto) MoreTags(tags string) *FieldProto {
	f.options.String(65006, tags)
	return f
}

func (f *FieldProto) CastType(typeSpec string) *FieldProto {
	f.options.String(65007, typeSpec)
	return f
}

func (f *FieldProto) CastKey(typeSpec string) *FieldProto {
	f.options.String(65008, typeSpec)
	return f
}

func (f *FieldProto) CastValue(typeSpec string) *FieldProto {
	f.options.String(65009, typeSpec)
	return f
}

func (f *FieldProto) StdTime() *FieldProto {
	f.options.Bool(65010, true)
	return f
}

func (f *FieldProto) StdDuration() *FieldProto {
	f.options.Bool(65011, true)
	return f
}

// Option exposes the raw options buffer, for records the named
// setters above do not cover.
func (f *FieldProto) Option(fn func(p *Proto)) *FieldProto {
	fn(&f.options)
	return f
}

func (f *FieldProto) Finish() []uint8 {
	if len(f.options.buf) > 0 {
		f.p.Bytes(8, f.options.Finish())
	}
	return f.p.Finish()
}

// }}}

// EnumProto {{{

type EnumProto struct {
	p Proto
}

func NewEnum(name string) *EnumProto {
	e := new(EnumProto)
	e.p.String(1, name)
	return e
}

func (e *EnumProto) Value(name string, number int32) *EnumProto {
	value := new(Proto).String(1, name).Varint(2, uint64(uint32(number)))
	e.p.Bytes(2, value.Finish())
	return e
}

func (e *EnumProto) Finish() []uint8 {
	return e.p.Finish()
}

// }}}

// ServiceProto {{{

type ServiceProto struct {
	p Proto
}

func NewService(name string) *ServiceProto {
	s := new(ServiceProto)
	s.p.String(1, name)
	return s
}

func (s *ServiceProto) Method(name, inputType, outputType string) *ServiceProto {
	method := new(Proto).
		String(1, name).
		String(2, inputType).
		String(3, outputType)
	s.p.Bytes(2, method.Finish())
	return s
}

func (s *ServiceProto) Finish() []uint8 {
	return s.p.Finish()
}

// }}}
