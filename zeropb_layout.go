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

// Kind identifies how a slot's value is stored in the fixed region.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindEnum
	KindRef    // u32 offset + u32 length into the variable region
	KindInline // embedded message fixed region
	KindOneof  // u32 discriminant + shared payload region
)

// WireKind identifies how a slot's value is encoded on the wire.
type WireKind uint8

const (
	WireVarint WireKind = iota + 1
	WireZigZag32
	WireZigZag64
	WireFixed32
	WireFixed64
	WireBytes
)

// RefShape identifies what a KindRef slot's variable region holds.
type RefShape uint8

const (
	ShapeNone     RefShape = iota
	ShapeBytes             // string or bytes payload
	ShapeMessage           // a nested message's fixed region
	ShapePacked            // fixed-width scalar elements, Size bytes each
	ShapeRefArray          // 8-byte refs, element shape in Elem
)

// Slot describes one field's location within a message's fixed region.
//
// Slots are produced by the layout planner and embedded as constants in
// generated code. All offsets are relative to the start of the message's
// fixed region; the offsets stored *inside* a ref are absolute within the
// message buffer.
type Slot struct {
	Field int32
	Name  string
	Kind  Kind
	Wire  WireKind
	Shape RefShape
	Elem  RefShape // element shape for ShapeRefArray

	Offset uint32
	Size   uint32 // KindInline: region size; ShapePacked: element width
	Bit    int32  // explicit presence bit index, or -1

	Msg *Layout // nested message layout, where Shape or Elem is a message

	Members []Slot // KindOneof: member slots, Offset = payload offset
}

// Layout is the runtime description of a message's zero-copy layout.
//
// FixedSize covers the presence bitmap, every slot, alignment padding, and
// the trailing unknown-fields ref. A message with no fields still has a
// valid layout holding only the unknown-fields ref.
type Layout struct {
	Name      string
	Slots     []Slot
	FixedSize uint32
	Presence  uint32 // number of presence bits
	Unknown   uint32 // offset of the unknown-fields ref

	byField map[int32]slotPath
}

type slotPath struct {
	slot   int
	member int // oneof member index, or -1
}

// NewLayout validates a planner-produced layout and prepares it for use
// by Decode, Encode, and View.
func NewLayout(layout *Layout) error {
	if layout.FixedSize < refSize {
		return errLayoutFixedSize(layout.Name, layout.FixedSize)
	}
	if layout.FixedSize%refSize != 0 {
		return errLayoutFixedSize(layout.Name, layout.FixedSize)
	}
	if layout.Unknown+refSize > layout.FixedSize {
		return errLayoutSlotRange(layout.Name, "(unknown)", layout.Unknown)
	}
	layout.byField = make(map[int32]slotPath, len(layout.Slots))
	for ii := range layout.Slots {
		slot := &layout.Slots[ii]
		if slot.Kind == KindOneof {
			for jj := range slot.Members {
				member := &slot.Members[jj]
				if err := checkSlot(layout, member); err != nil {
					return err
				}
				if err := registerField(layout, member.Field, slotPath{ii, jj}); err != nil {
					return err
				}
			}
			if slot.Offset+4+slot.Size > layout.FixedSize {
				return errLayoutSlotRange(layout.Name, slot.Name, slot.Offset)
			}
			continue
		}
		if err := checkSlot(layout, slot); err != nil {
			return err
		}
		if err := registerField(layout, slot.Field, slotPath{ii, -1}); err != nil {
			return err
		}
	}
	return checkInlineAcyclic(layout, nil)
}

// MustLayout is NewLayout for layouts embedded in generated code.
func MustLayout(layout *Layout) *Layout {
	if err := NewLayout(layout); err != nil {
		panic(err)
	}
	return layout
}

func registerField(layout *Layout, field int32, path slotPath) error {
	if field <= 0 {
		return errLayoutFieldNumber(layout.Name, field)
	}
	if _, conflict := layout.byField[field]; conflict {
		return errLayoutFieldConflict(layout.Name, field)
	}
	layout.byField[field] = path
	return nil
}

func checkSlot(layout *Layout, slot *Slot) error {
	var size uint32
	switch slot.Kind {
	case KindBool:
		size = 1
	case KindInt32, KindUint32, KindFloat32, KindEnum:
		size = 4
	case KindInt64, KindUint64, KindFloat64:
		size = 8
	case KindRef:
		size = refSize
		switch slot.Shape {
		case ShapeBytes, ShapePacked:
		case ShapeMessage:
			if slot.Msg == nil {
				return errLayoutMissingElem(layout.Name, slot.Name)
			}
		case ShapeRefArray:
			if slot.Elem == ShapeMessage && slot.Msg == nil {
				return errLayoutMissingElem(layout.Name, slot.Name)
			}
		default:
			return errLayoutSlotKind(layout.Name, slot.Name)
		}
	case KindInline:
		if slot.Msg == nil {
			return errLayoutMissingElem(layout.Name, slot.Name)
		}
		size = slot.Size
	default:
		return errLayoutSlotKind(layout.Name, slot.Name)
	}
	if slot.Offset+size > layout.FixedSize {
		return errLayoutSlotRange(layout.Name, slot.Name, slot.Offset)
	}
	if slot.Bit >= 0 && uint32(slot.Bit) >= layout.Presence {
		return errLayoutSlotRange(layout.Name, slot.Name, slot.Offset)
	}
	return nil
}

func checkInlineAcyclic(layout *Layout, stack []*Layout) error {
	for _, seen := range stack {
		if seen == layout {
			return errLayoutInlineCycle(layout.Name)
		}
	}
	stack = append(stack, layout)
	for ii := range layout.Slots {
		slot := &layout.Slots[ii]
		if slot.Kind != KindInline {
			continue
		}
		if err := checkInlineAcyclic(slot.Msg, stack); err != nil {
			return err
		}
	}
	return nil
}

// lookup maps a wire field number to its slot index, for Decode. The
// member slot is non-nil when the field is a oneof member.
func (l *Layout) lookup(field int32) (int, *Slot, bool) {
	path, ok := l.byField[field]
	if !ok {
		return 0, nil, false
	}
	if path.member >= 0 {
		return path.slot, &l.Slots[path.slot].Members[path.member], true
	}
	return path.slot, nil, true
}

func (l *Layout) presenceBytes() uint32 {
	return (l.Presence + 7) / 8
}
