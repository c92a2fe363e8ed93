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

package compiler

import (
	"slices"

	"go.zeropb.org/zeropb"
	"go.zeropb.org/zeropb/descriptor"
)

// planLayouts computes a zero-copy layout for every message. Layouts
// depend only on field declaration order and interpreted options, so
// planning the same compiled tree twice yields identical layouts.
func (c *compiler) planLayouts() error {
	for _, file := range c.files {
		for _, msg := range file.Messages {
			if err := c.planTree(msg); err != nil {
				return err
			}
		}
	}
	for _, file := range c.files {
		for _, msg := range file.Messages {
			if err := validateTree(msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compiler) planTree(msg *Message) error {
	if _, err := c.planMessage(msg, nil); err != nil {
		return err
	}
	for _, nested := range msg.Nested {
		if err := c.planTree(nested); err != nil {
			return err
		}
	}
	return nil
}

func validateTree(msg *Message) error {
	if err := zeropb.NewLayout(msg.Layout); err != nil {
		return err
	}
	for _, nested := range msg.Nested {
		if err := validateTree(nested); err != nil {
			return err
		}
	}
	return nil
}

// shell returns the layout object for a message, creating it empty if
// planning has not reached the message yet. Ref slots hold the pointer
// before the target's own plan is complete.
func (c *compiler) shell(msg *Message) *zeropb.Layout {
	if layout, ok := c.layouts[msg]; ok {
		return layout
	}
	layout := &zeropb.Layout{Name: msg.Name}
	c.layouts[msg] = layout
	msg.Layout = layout
	return layout
}

// planMessage fills in a message's layout. The stack holds the chain of
// inline embeddings being planned; a message recurring on it has no
// finite fixed size.
func (c *compiler) planMessage(msg *Message, stack []*Message) (*zeropb.Layout, error) {
	layout := c.shell(msg)
	if c.planned[msg] {
		return layout, nil
	}
	if idx := slices.Index(stack, msg); idx >= 0 {
		chain := make([]string, 0, len(stack)-idx+1)
		for _, m := range stack[idx:] {
			chain = append(chain, m.Name)
		}
		return nil, errUnsizableLayout(append(chain, msg.Name))
	}
	stack = append(stack, msg)

	var bits uint32
	for _, field := range msg.Fields {
		if c.needsPresenceBit(field) {
			bits++
		}
	}
	layout.Presence = bits

	cursor := uint64((bits + 7) / 8)
	nextBit := int32(0)
	seenOneofs := make(map[*Oneof]bool)
	for _, field := range msg.Fields {
		if field.Oneof != nil {
			if seenOneofs[field.Oneof] {
				continue
			}
			seenOneofs[field.Oneof] = true
			slot, size, err := c.planOneof(field.Oneof, cursor)
			if err != nil {
				return nil, err
			}
			layout.Slots = append(layout.Slots, slot)
			cursor = uint64(slot.Offset) + uint64(size)
			continue
		}
		slot, size, align, err := c.planField(field, stack)
		if err != nil {
			return nil, err
		}
		slot.Offset = uint32(alignUp(cursor, align))
		if c.needsPresenceBit(field) {
			slot.Bit = nextBit
			nextBit++
		}
		layout.Slots = append(layout.Slots, slot)
		cursor = uint64(slot.Offset) + uint64(size)
	}

	unknown := alignUp(cursor, 4)
	fixedSize := alignUp(unknown+refSize, 8)
	if fixedSize > uint64(zeropb.MaxMessageSize) {
		return nil, errMessageTooLarge(msg.Name, fixedSize)
	}
	layout.Unknown = uint32(unknown)
	layout.FixedSize = uint32(fixedSize)
	c.planned[msg] = true
	return layout, nil
}

const refSize = 8

func alignUp(off, align uint64) uint64 {
	return (off + align - 1) &^ (align - 1)
}

// planField builds the slot for a non-oneof field. Offset and Bit are
// assigned by the caller.
func (c *compiler) planField(field *Field, stack []*Message) (zeropb.Slot, uint64, uint64, error) {
	slot := zeropb.Slot{
		Field: field.Desc.Number,
		Name:  field.Desc.Name,
		Bit:   -1,
	}
	if field.IsRepeated() {
		slot.Kind = zeropb.KindRef
		slot.Wire = zeropb.WireBytes
		switch {
		case field.Message != nil:
			slot.Shape = zeropb.ShapeRefArray
			slot.Elem = zeropb.ShapeMessage
			slot.Msg = c.shell(field.Message)
		case field.Desc.Type == descriptor.TypeString || field.Desc.Type == descriptor.TypeBytes:
			slot.Shape = zeropb.ShapeRefArray
			slot.Elem = zeropb.ShapeBytes
		default:
			_, wire, width, err := scalarKind(field)
			if err != nil {
				return slot, 0, 0, err
			}
			slot.Shape = zeropb.ShapePacked
			slot.Wire = wire
			slot.Size = uint32(width)
		}
		return slot, refSize, 4, nil
	}

	switch field.Desc.Type {
	case descriptor.TypeString, descriptor.TypeBytes:
		slot.Kind = zeropb.KindRef
		slot.Wire = zeropb.WireBytes
		slot.Shape = zeropb.ShapeBytes
		return slot, refSize, 4, nil
	case descriptor.TypeMessage:
		if c.isInline(field) {
			nested, err := c.planMessage(field.Message, stack)
			if err != nil {
				return slot, 0, 0, err
			}
			slot.Kind = zeropb.KindInline
			slot.Wire = zeropb.WireBytes
			slot.Size = nested.FixedSize
			slot.Msg = nested
			return slot, uint64(nested.FixedSize), 8, nil
		}
		slot.Kind = zeropb.KindRef
		slot.Wire = zeropb.WireBytes
		slot.Shape = zeropb.ShapeMessage
		slot.Msg = c.shell(field.Message)
		return slot, refSize, 4, nil
	}

	kind, wire, width, err := scalarKind(field)
	if err != nil {
		return slot, 0, 0, err
	}
	slot.Kind = kind
	slot.Wire = wire
	return slot, width, width, nil
}

// planOneof builds the discriminant slot of a oneof, with one member
// slot per field sharing the payload region. The payload follows the
// discriminant directly and is sized to the widest member.
func (c *compiler) planOneof(oneof *Oneof, cursor uint64) (zeropb.Slot, uint64, error) {
	slot := zeropb.Slot{
		Name:   oneof.Name,
		Kind:   zeropb.KindOneof,
		Offset: uint32(alignUp(cursor, 4)),
		Bit:    -1,
	}
	payload := slot.Offset + 4
	var payloadSize uint64
	for _, field := range oneof.Fields {
		member, size, _, err := c.planOneofMember(field)
		if err != nil {
			return slot, 0, err
		}
		member.Offset = payload
		slot.Members = append(slot.Members, member)
		payloadSize = max(payloadSize, size)
	}
	slot.Size = uint32(payloadSize)
	return slot, 4 + payloadSize, nil
}

// planOneofMember is planField restricted to the kinds a oneof member
// can take. Message members are always refs, never inline.
func (c *compiler) planOneofMember(field *Field) (zeropb.Slot, uint64, uint64, error) {
	slot := zeropb.Slot{
		Field: field.Desc.Number,
		Name:  field.Desc.Name,
		Bit:   -1,
	}
	switch field.Desc.Type {
	case descriptor.TypeString, descriptor.TypeBytes:
		slot.Kind = zeropb.KindRef
		slot.Wire = zeropb.WireBytes
		slot.Shape = zeropb.ShapeBytes
		return slot, refSize, 4, nil
	case descriptor.TypeMessage:
		slot.Kind = zeropb.KindRef
		slot.Wire = zeropb.WireBytes
		slot.Shape = zeropb.ShapeMessage
		slot.Msg = c.shell(field.Message)
		return slot, refSize, 4, nil
	}
	kind, wire, width, err := scalarKind(field)
	if err != nil {
		return slot, 0, 0, err
	}
	slot.Kind = kind
	slot.Wire = wire
	return slot, width, width, nil
}

// isInline reports whether a singular message field embeds the nested
// fixed region directly instead of holding a ref. The gogoproto embed
// option requests it explicitly; nullable=false on a message field
// makes the value non-optional, which forces the same representation.
func (c *compiler) isInline(field *Field) bool {
	if field.Message == nil || field.IsRepeated() || field.Oneof != nil {
		return false
	}
	if field.Options.Embed {
		return true
	}
	return field.Options.Nullable != nil && !*field.Options.Nullable
}

// needsPresenceBit reports whether a field tracks presence in the
// bitmap. Ref slots encode absence as a null ref, and oneof members
// through the discriminant; everything else needs a bit when presence
// is forced.
func (c *compiler) needsPresenceBit(field *Field) bool {
	if field.IsRepeated() || field.Oneof != nil {
		return false
	}
	switch field.Desc.Type {
	case descriptor.TypeString, descriptor.TypeBytes:
		return false
	case descriptor.TypeMessage:
		return c.isInline(field)
	}
	if field.Desc.Proto3Optional {
		return true
	}
	return field.Options.Nullable != nil && *field.Options.Nullable
}

func scalarKind(field *Field) (zeropb.Kind, zeropb.WireKind, uint64, error) {
	switch field.Desc.Type {
	case descriptor.TypeBool:
		return zeropb.KindBool, zeropb.WireVarint, 1, nil
	case descriptor.TypeInt32:
		return zeropb.KindInt32, zeropb.WireVarint, 4, nil
	case descriptor.TypeSint32:
		return zeropb.KindInt32, zeropb.WireZigZag32, 4, nil
	case descriptor.TypeSfixed32:
		return zeropb.KindInt32, zeropb.WireFixed32, 4, nil
	case descriptor.TypeUint32:
		return zeropb.KindUint32, zeropb.WireVarint, 4, nil
	case descriptor.TypeFixed32:
		return zeropb.KindUint32, zeropb.WireFixed32, 4, nil
	case descriptor.TypeInt64:
		return zeropb.KindInt64, zeropb.WireVarint, 8, nil
	case descriptor.TypeSint64:
		return zeropb.KindInt64, zeropb.WireZigZag64, 8, nil
	case descriptor.TypeSfixed64:
		return zeropb.KindInt64, zeropb.WireFixed64, 8, nil
	case descriptor.TypeUint64:
		return zeropb.KindUint64, zeropb.WireVarint, 8, nil
	case descriptor.TypeFixed64:
		return zeropb.KindUint64, zeropb.WireFixed64, 8, nil
	case descriptor.TypeFloat:
		return zeropb.KindFloat32, zeropb.WireFixed32, 4, nil
	case descriptor.TypeDouble:
		return zeropb.KindFloat64, zeropb.WireFixed64, 8, nil
	case descriptor.TypeEnum:
		return zeropb.KindEnum, zeropb.WireVarint, 4, nil
	}
	fieldName := qualify(field.Parent.Name, field.Desc.Name)
	return 0, 0, 0, errUnsupportedFieldType(fieldName, field.Desc.Type.String())
}
