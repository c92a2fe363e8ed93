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
)

const maxViewDepth = 100

// Message is a zero-copy view of one message within a layout buffer.
//
// The zero Message reads as a message with every field absent.
type Message struct {
	layout *Layout
	buf    []uint8
	base   uint32
}

// View wraps an existing layout buffer in a Message, validating that every
// reachable ref stays inside the buffer. Buffers produced by Decode are
// already valid; View exists for buffers received from elsewhere.
func View(layout *Layout, buf []uint8) (Message, error) {
	if uint64(len(buf)) > uint64(MaxMessageSize) {
		return Message{}, errBufferTooLarge(len(buf))
	}
	msg := Message{layout: layout, buf: buf}
	if err := checkRegion(msg, maxViewDepth); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func checkRegion(msg Message, depth int) error {
	layout := msg.layout
	if depth == 0 {
		return errWireDepth(layout.Name)
	}
	if uint64(msg.base)+uint64(layout.FixedSize) > uint64(len(msg.buf)) {
		return errBufferTruncated(layout.Name, len(msg.buf))
	}
	checkRef := func(slot *Slot) error {
		off, length := msg.ref(slot.Offset)
		if off == 0 && length == 0 {
			return nil
		}
		if uint64(off)+uint64(length) > uint64(len(msg.buf)) {
			return errRefOutOfBounds(layout.Name, slot.Name, off, length)
		}
		switch slot.Shape {
		case ShapeMessage:
			if length < slot.Msg.FixedSize {
				return errRefOutOfBounds(layout.Name, slot.Name, off, length)
			}
			return checkRegion(Message{slot.Msg, msg.buf, off}, depth-1)
		case ShapePacked:
			if slot.Size == 0 || length%slot.Size != 0 {
				return errRefMisaligned(layout.Name, slot.Name, length)
			}
		case ShapeRefArray:
			if length%refSize != 0 {
				return errRefMisaligned(layout.Name, slot.Name, length)
			}
			for ii := uint32(0); ii < length/refSize; ii++ {
				elemOff := leUint32(msg.buf[off+ii*refSize:])
				elemLen := leUint32(msg.buf[off+ii*refSize+4:])
				if uint64(elemOff)+uint64(elemLen) > uint64(len(msg.buf)) {
					return errRefOutOfBounds(layout.Name, slot.Name, elemOff, elemLen)
				}
				if slot.Elem == ShapeMessage {
					if elemLen < slot.Msg.FixedSize {
						return errRefOutOfBounds(layout.Name, slot.Name, elemOff, elemLen)
					}
					err := checkRegion(Message{slot.Msg, msg.buf, elemOff}, depth-1)
					if err != nil {
						return err
					}
				}
			}
		}
		return nil
	}
	for ii := range layout.Slots {
		slot := &layout.Slots[ii]
		switch slot.Kind {
		case KindRef:
			if err := checkRef(slot); err != nil {
				return err
			}
		case KindInline:
			err := checkRegion(Message{slot.Msg, msg.buf, msg.base + slot.Offset}, depth-1)
			if err != nil {
				return err
			}
		case KindOneof:
			field := msg.Oneof(ii)
			if field == 0 {
				continue
			}
			member := findMember(slot, field)
			if member == nil {
				return errOneofUnknownCase(layout.Name, slot.Name, field)
			}
			if member.Kind == KindRef {
				if err := checkRef(member); err != nil {
					return err
				}
			}
		}
	}
	unknownOff := leUint32(msg.buf[msg.base+layout.Unknown:])
	unknownLen := leUint32(msg.buf[msg.base+layout.Unknown+4:])
	if uint64(unknownOff)+uint64(unknownLen) > uint64(len(msg.buf)) {
		return errRefOutOfBounds(layout.Name, "(unknown)", unknownOff, unknownLen)
	}
	return nil
}

func findMember(slot *Slot, field int32) *Slot {
	for jj := range slot.Members {
		if slot.Members[jj].Field == field {
			return &slot.Members[jj]
		}
	}
	return nil
}

// Layout returns the layout this view reads through.
func (msg Message) Layout() *Layout {
	return msg.layout
}

// Buffer returns the backing buffer. Views into the same message share it.
func (msg Message) Buffer() []uint8 {
	return msg.buf
}

func (msg Message) ref(offset uint32) (uint32, uint32) {
	if len(msg.buf) == 0 {
		return 0, 0
	}
	off := msg.base + offset
	return leUint32(msg.buf[off:]), leUint32(msg.buf[off+4:])
}

// Has reports whether the field in slot ii was explicitly present.
//
// Slots without an explicit presence bit follow proto3 defaulting: a
// zero-valued scalar or empty region reads as absent.
func (msg Message) Has(ii int) bool {
	if len(msg.buf) == 0 {
		return false
	}
	return msg.SlotHas(&msg.layout.Slots[ii])
}

func (msg Message) SlotHas(slot *Slot) bool {
	if len(msg.buf) == 0 {
		return false
	}
	if slot.Bit >= 0 {
		byteOff := msg.base + uint32(slot.Bit)/8
		return msg.buf[byteOff]&(1<<(uint32(slot.Bit)%8)) != 0
	}
	switch slot.Kind {
	case KindBool:
		return msg.SlotBool(slot)
	case KindInt32, KindEnum:
		return msg.SlotInt32(slot) != 0
	case KindUint32:
		return msg.SlotUint32(slot) != 0
	case KindInt64:
		return msg.SlotInt64(slot) != 0
	case KindUint64:
		return msg.SlotUint64(slot) != 0
	case KindFloat32:
		return msg.SlotFloat32(slot) != 0
	case KindFloat64:
		return msg.SlotFloat64(slot) != 0
	case KindRef:
		off, length := msg.ref(slot.Offset)
		return off != 0 || length != 0
	case KindOneof:
		return leUint32(msg.buf[msg.base+slot.Offset:]) != 0
	}
	return false
}

func (msg Message) Bool(ii int) bool {
	return msg.SlotBool(&msg.layout.Slots[ii])
}

func (msg Message) SlotBool(slot *Slot) bool {
	if len(msg.buf) == 0 {
		return false
	}
	return msg.buf[msg.base+slot.Offset] != 0
}

func (msg Message) Int32(ii int) int32 {
	return msg.SlotInt32(&msg.layout.Slots[ii])
}

func (msg Message) SlotInt32(slot *Slot) int32 {
	if len(msg.buf) == 0 {
		return 0
	}
	return int32(leUint32(msg.buf[msg.base+slot.Offset:]))
}

func (msg Message) Uint32(ii int) uint32 {
	return msg.SlotUint32(&msg.layout.Slots[ii])
}

func (msg Message) SlotUint32(slot *Slot) uint32 {
	if len(msg.buf) == 0 {
		return 0
	}
	return leUint32(msg.buf[msg.base+slot.Offset:])
}

func (msg Message) Int64(ii int) int64 {
	return msg.SlotInt64(&msg.layout.Slots[ii])
}

func (msg Message) SlotInt64(slot *Slot) int64 {
	if len(msg.buf) == 0 {
		return 0
	}
	return int64(leUint64(msg.buf[msg.base+slot.Offset:]))
}

func (msg Message) Uint64(ii int) uint64 {
	return msg.SlotUint64(&msg.layout.Slots[ii])
}

func (msg Message) SlotUint64(slot *Slot) uint64 {
	if len(msg.buf) == 0 {
		return 0
	}
	return leUint64(msg.buf[msg.base+slot.Offset:])
}

func (msg Message) Float32(ii int) float32 {
	return msg.SlotFloat32(&msg.layout.Slots[ii])
}

func (msg Message) SlotFloat32(slot *Slot) float32 {
	return math.Float32frombits(msg.SlotUint32(slot))
}

func (msg Message) Float64(ii int) float64 {
	return msg.SlotFloat64(&msg.layout.Slots[ii])
}

func (msg Message) SlotFloat64(slot *Slot) float64 {
	return math.Float64frombits(msg.SlotUint64(slot))
}

func (msg Message) Enum(ii int) int32 {
	return msg.SlotInt32(&msg.layout.Slots[ii])
}

func (msg Message) String(ii int) string {
	return msg.SlotString(&msg.layout.Slots[ii])
}

func (msg Message) SlotString(slot *Slot) string {
	return string(msg.SlotBytes(slot))
}

func (msg Message) Bytes(ii int) []uint8 {
	return msg.SlotBytes(&msg.layout.Slots[ii])
}

func (msg Message) SlotBytes(slot *Slot) []uint8 {
	if len(msg.buf) == 0 {
		return nil
	}
	off, length := msg.ref(slot.Offset)
	if length == 0 {
		return nil
	}
	return msg.buf[off : off+length]
}

// Message returns the nested singular message in slot ii. The second
// return value is false when the field is absent.
func (msg Message) Message(ii int) (Message, bool) {
	return msg.SlotMessage(&msg.layout.Slots[ii])
}

func (msg Message) SlotMessage(slot *Slot) (Message, bool) {
	if len(msg.buf) == 0 {
		return Message{}, false
	}
	off, length := msg.ref(slot.Offset)
	if off == 0 && length == 0 {
		return Message{}, false
	}
	return Message{slot.Msg, msg.buf, off}, true
}

// Inline returns the message embedded directly in the fixed region of
// slot ii. Inline-embedded messages are always readable; their Has bit
// reports whether the field appeared on the wire.
func (msg Message) Inline(ii int) Message {
	slot := &msg.layout.Slots[ii]
	if len(msg.buf) == 0 {
		return Message{}
	}
	return Message{slot.Msg, msg.buf, msg.base + slot.Offset}
}

// Oneof returns the field number of the set member of the oneof in slot
// ii, or zero when no member is set.
func (msg Message) Oneof(ii int) int32 {
	slot := &msg.layout.Slots[ii]
	if len(msg.buf) == 0 {
		return 0
	}
	return int32(leUint32(msg.buf[msg.base+slot.Offset:]))
}

// OneofMember returns the member slot selected by the oneof's
// discriminant, or nil when no member is set.
func (msg Message) OneofMember(ii int) *Slot {
	field := msg.Oneof(ii)
	if field == 0 {
		return nil
	}
	return findMember(&msg.layout.Slots[ii], field)
}

func (msg Message) Strings(ii int) StringArray {
	slot := &msg.layout.Slots[ii]
	return StringArray{msg.buf, msg.refRegion(slot)}
}

func (msg Message) BytesArray(ii int) BytesArray {
	slot := &msg.layout.Slots[ii]
	return BytesArray{msg.buf, msg.refRegion(slot)}
}

func (msg Message) Messages(ii int) MessageArray {
	slot := &msg.layout.Slots[ii]
	return MessageArray{msg.buf, msg.refRegion(slot), slot.Msg}
}

func (msg Message) Bools(ii int) BoolArray {
	return BoolArray{msg.packedRegion(ii)}
}

func (msg Message) Int32s(ii int) Int32Array {
	return Int32Array{msg.packedRegion(ii)}
}

func (msg Message) Uint32s(ii int) Uint32Array {
	return Uint32Array{msg.packedRegion(ii)}
}

func (msg Message) Int64s(ii int) Int64Array {
	return Int64Array{msg.packedRegion(ii)}
}

func (msg Message) Uint64s(ii int) Uint64Array {
	return Uint64Array{msg.packedRegion(ii)}
}

func (msg Message) Float32s(ii int) Float32Array {
	return Float32Array{msg.packedRegion(ii)}
}

func (msg Message) Float64s(ii int) Float64Array {
	return Float64Array{msg.packedRegion(ii)}
}

func (msg Message) Enums(ii int) Int32Array {
	return Int32Array{msg.packedRegion(ii)}
}

// Unknown returns the raw wire bytes of fields that had no slot in the
// layout. Encode re-emits them unchanged.
func (msg Message) Unknown() []uint8 {
	if len(msg.buf) == 0 {
		return nil
	}
	off := leUint32(msg.buf[msg.base+msg.layout.Unknown:])
	length := leUint32(msg.buf[msg.base+msg.layout.Unknown+4:])
	if length == 0 {
		return nil
	}
	return msg.buf[off : off+length]
}

func (msg Message) refRegion(slot *Slot) []uint8 {
	if len(msg.buf) == 0 {
		return nil
	}
	off, length := msg.ref(slot.Offset)
	if length == 0 {
		return nil
	}
	return msg.buf[off : off+length]
}

func (msg Message) packedRegion(ii int) []uint8 {
	return msg.refRegion(&msg.layout.Slots[ii])
}
