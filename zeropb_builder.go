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

package zeropb

import (
	"math"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// Builder constructs a message by value and serializes it to standard
// protobuf wire bytes. Pair it with Decode to obtain a zero-copy view.
//
// Emission follows proto3 presence rules: a scalar set to its zero value
// is omitted unless its slot carries an explicit presence bit, in which
// case any explicitly set value is emitted.
type Builder struct {
	layout *Layout
	fields []builderField
}

type builderField struct {
	set     bool
	scalar  uint64
	data    []uint8
	list    [][]uint8
	scalars []uint64
	msg     *Builder
	msgs    []*Builder
	member  int32 // set oneof member field number, or 0
}

func NewBuilder(layout *Layout) *Builder {
	return &Builder{
		layout: layout,
		fields: make([]builderField, len(layout.Slots)),
	}
}

func (b *Builder) Layout() *Layout {
	return b.layout
}

func (b *Builder) setScalar(ii int, bits uint64) {
	b.fields[ii].set = true
	b.fields[ii].scalar = bits
}

func (b *Builder) SetBool(ii int, v bool) {
	var bits uint64
	if v {
		bits = 1
	}
	b.setScalar(ii, bits)
}

func (b *Builder) SetInt32(ii int, v int32) {
	b.setScalar(ii, uint64(uint32(v)))
}

func (b *Builder) SetUint32(ii int, v uint32) {
	b.setScalar(ii, uint64(v))
}

func (b *Builder) SetInt64(ii int, v int64) {
	b.setScalar(ii, uint64(v))
}

func (b *Builder) SetUint64(ii int, v uint64) {
	b.setScalar(ii, v)
}

func (b *Builder) SetFloat32(ii int, v float32) {
	b.setScalar(ii, uint64(math.Float32bits(v)))
}

func (b *Builder) SetFloat64(ii int, v float64) {
	b.setScalar(ii, math.Float64bits(v))
}

func (b *Builder) SetEnum(ii int, v int32) {
	b.SetInt32(ii, v)
}

func (b *Builder) SetString(ii int, v string) {
	b.fields[ii].set = true
	b.fields[ii].data = []uint8(v)
}

func (b *Builder) SetBytes(ii int, v []uint8) {
	b.fields[ii].set = true
	b.fields[ii].data = v
}

// Message returns the builder for the singular nested message in slot
// ii, creating it on first use. It also serves inline-embedded slots.
func (b *Builder) Message(ii int) *Builder {
	f := &b.fields[ii]
	f.set = true
	if f.msg == nil {
		f.msg = NewBuilder(b.layout.Slots[ii].Msg)
	}
	return f.msg
}

// AddMessage appends one element to the repeated message field in slot
// ii and returns its builder.
func (b *Builder) AddMessage(ii int) *Builder {
	f := &b.fields[ii]
	f.set = true
	nested := NewBuilder(b.layout.Slots[ii].Msg)
	f.msgs = append(f.msgs, nested)
	return nested
}

func (b *Builder) AddString(ii int, v string) {
	f := &b.fields[ii]
	f.set = true
	f.list = append(f.list, []uint8(v))
}

func (b *Builder) AddBytes(ii int, v []uint8) {
	f := &b.fields[ii]
	f.set = true
	f.list = append(f.list, v)
}

func (b *Builder) addScalar(ii int, bits uint64) {
	f := &b.fields[ii]
	f.set = true
	f.scalars = append(f.scalars, bits)
}

func (b *Builder) AddBool(ii int, v bool) {
	var bits uint64
	if v {
		bits = 1
	}
	b.addScalar(ii, bits)
}

func (b *Builder) AddInt32(ii int, v int32) {
	b.addScalar(ii, uint64(uint32(v)))
}

func (b *Builder) AddUint32(ii int, v uint32) {
	b.addScalar(ii, uint64(v))
}

func (b *Builder) AddInt64(ii int, v int64) {
	b.addScalar(ii, uint64(v))
}

func (b *Builder) AddUint64(ii int, v uint64) {
	b.addScalar(ii, v)
}

func (b *Builder) AddFloat32(ii int, v float32) {
	b.addScalar(ii, uint64(math.Float32bits(v)))
}

func (b *Builder) AddFloat64(ii int, v float64) {
	b.addScalar(ii, math.Float64bits(v))
}

func (b *Builder) AddEnum(ii int, v int32) {
	b.AddInt32(ii, v)
}

func (b *Builder) oneofField(ii int, field int32) *builderField {
	f := &b.fields[ii]
	if f.member != field {
		*f = builderField{}
	}
	f.set = true
	f.member = field
	return f
}

func (b *Builder) SetOneofBool(ii int, field int32, v bool) {
	f := b.oneofField(ii, field)
	if v {
		f.scalar = 1
	} else {
		f.scalar = 0
	}
}

func (b *Builder) SetOneofInt64(ii int, field int32, v int64) {
	b.oneofField(ii, field).scalar = uint64(v)
}

func (b *Builder) SetOneofUint64(ii int, field int32, v uint64) {
	b.oneofField(ii, field).scalar = v
}

func (b *Builder) SetOneofInt32(ii int, field int32, v int32) {
	b.oneofField(ii, field).scalar = uint64(uint32(v))
}

func (b *Builder) SetOneofUint32(ii int, field int32, v uint32) {
	b.oneofField(ii, field).scalar = uint64(v)
}

func (b *Builder) SetOneofEnum(ii int, field int32, v int32) {
	b.SetOneofInt32(ii, field, v)
}

func (b *Builder) SetOneofFloat32(ii int, field int32, v float32) {
	b.oneofField(ii, field).scalar = uint64(math.Float32bits(v))
}

func (b *Builder) SetOneofFloat64(ii int, field int32, v float64) {
	b.oneofField(ii, field).scalar = math.Float64bits(v)
}

func (b *Builder) SetOneofString(ii int, field int32, v string) {
	b.oneofField(ii, field).data = []uint8(v)
}

func (b *Builder) SetOneofBytes(ii int, field int32, v []uint8) {
	b.oneofField(ii, field).data = v
}

func (b *Builder) OneofMessage(ii int, field int32) *Builder {
	f := b.oneofField(ii, field)
	if f.msg == nil {
		member := findMember(&b.layout.Slots[ii], field)
		f.msg = NewBuilder(member.Msg)
	}
	return f.msg
}

// Encode serializes the builder's content to wire bytes. Fields are
// emitted in ascending field-number order.
func (b *Builder) Encode() ([]uint8, error) {
	return b.appendEncode(nil)
}

// Finish serializes the builder and decodes the result into a zero-copy
// view.
func (b *Builder) Finish() (Message, error) {
	wire, err := b.Encode()
	if err != nil {
		return Message{}, err
	}
	return Decode(b.layout, wire)
}

func (b *Builder) appendEncode(dst []uint8) ([]uint8, error) {
	layout := b.layout

	type fieldRef struct {
		field  int32
		slot   int
		member int
	}
	fields := make([]fieldRef, 0, len(layout.byField))
	for field, path := range layout.byField {
		fields = append(fields, fieldRef{field, path.slot, path.member})
	}
	slices.SortFunc(fields, func(x, y fieldRef) int {
		return int(x.field - y.field)
	})

	var err error
	for _, ref := range fields {
		slot := &layout.Slots[ref.slot]
		f := &b.fields[ref.slot]
		if !f.set {
			continue
		}
		if ref.member >= 0 {
			if f.member != ref.field {
				continue
			}
			dst, err = b.encodeField(dst, &slot.Members[ref.member], f, true)
		} else {
			dst, err = b.encodeField(dst, slot, f, false)
		}
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (b *Builder) encodeField(
	dst []uint8,
	slot *Slot,
	f *builderField,
	forced bool,
) ([]uint8, error) {
	num := protowire.Number(slot.Field)

	switch slot.Kind {
	case KindBool, KindInt32, KindUint32, KindInt64, KindUint64,
		KindFloat32, KindFloat64, KindEnum:
		if f.scalar == 0 && slot.Bit < 0 && !forced {
			return dst, nil
		}
		return appendBuilderScalar(dst, slot, f.scalar), nil

	case KindInline:
		if f.msg == nil {
			return dst, nil
		}
		nested, err := f.msg.Encode()
		if err != nil {
			return nil, err
		}
		dst = protowire.AppendTag(dst, num, protowire.BytesType)
		return protowire.AppendBytes(dst, nested), nil

	case KindRef:
		switch slot.Shape {
		case ShapeBytes:
			if len(f.data) == 0 && slot.Bit < 0 && !forced {
				return dst, nil
			}
			dst = protowire.AppendTag(dst, num, protowire.BytesType)
			return protowire.AppendBytes(dst, f.data), nil

		case ShapeMessage:
			if f.msg == nil {
				if !forced {
					return dst, nil
				}
				dst = protowire.AppendTag(dst, num, protowire.BytesType)
				return protowire.AppendBytes(dst, nil), nil
			}
			nested, err := f.msg.Encode()
			if err != nil {
				return nil, err
			}
			dst = protowire.AppendTag(dst, num, protowire.BytesType)
			return protowire.AppendBytes(dst, nested), nil

		case ShapePacked:
			if len(f.scalars) == 0 {
				return dst, nil
			}
			var payload []uint8
			for _, bits := range f.scalars {
				payload = appendPackedElem(payload, slot, bits)
			}
			dst = protowire.AppendTag(dst, num, protowire.BytesType)
			return protowire.AppendBytes(dst, payload), nil

		case ShapeRefArray:
			if slot.Elem == ShapeMessage {
				for _, nested := range f.msgs {
					wire, err := nested.Encode()
					if err != nil {
						return nil, err
					}
					dst = protowire.AppendTag(dst, num, protowire.BytesType)
					dst = protowire.AppendBytes(dst, wire)
				}
			} else {
				for _, elem := range f.list {
					dst = protowire.AppendTag(dst, num, protowire.BytesType)
					dst = protowire.AppendBytes(dst, elem)
				}
			}
			return dst, nil
		}
	}
	return nil, errBuilderFieldKind(b.layout.Name, slot.Name)
}

func appendBuilderScalar(dst []uint8, slot *Slot, bits uint64) []uint8 {
	num := protowire.Number(slot.Field)
	switch slot.Wire {
	case WireVarint:
		dst = protowire.AppendTag(dst, num, protowire.VarintType)
		switch slot.Kind {
		case KindInt32, KindEnum:
			bits = uint64(int64(int32(uint32(bits))))
		}
		return protowire.AppendVarint(dst, bits)
	case WireZigZag32:
		dst = protowire.AppendTag(dst, num, protowire.VarintType)
		v := protowire.EncodeZigZag(int64(int32(uint32(bits))))
		return protowire.AppendVarint(dst, v)
	case WireZigZag64:
		dst = protowire.AppendTag(dst, num, protowire.VarintType)
		v := protowire.EncodeZigZag(int64(bits))
		return protowire.AppendVarint(dst, v)
	case WireFixed32:
		dst = protowire.AppendTag(dst, num, protowire.Fixed32Type)
		return protowire.AppendFixed32(dst, uint32(bits))
	case WireFixed64:
		dst = protowire.AppendTag(dst, num, protowire.Fixed64Type)
		return protowire.AppendFixed64(dst, bits)
	}
	return dst
}

func appendPackedElem(dst []uint8, slot *Slot, bits uint64) []uint8 {
	switch slot.Wire {
	case WireVarint:
		switch slot.Kind {
		case KindInt32, KindEnum:
			bits = uint64(int64(int32(uint32(bits))))
		}
		return protowire.AppendVarint(dst, bits)
	case WireZigZag32:
		return protowire.AppendVarint(dst, protowire.EncodeZigZag(int64(int32(uint32(bits)))))
	case WireZigZag64:
		return protowire.AppendVarint(dst, protowire.EncodeZigZag(int64(bits)))
	case WireFixed32:
		return protowire.AppendFixed32(dst, uint32(bits))
	case WireFixed64:
		return protowire.AppendFixed64(dst, bits)
	}
	return dst
}
