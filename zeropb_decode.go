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
	"google.golang.org/protobuf/encoding/protowire"
)

const maxDecodeDepth = 100

// Decode translates standard protobuf wire bytes into a freshly built
// layout buffer and returns a view of it.
//
// Translation is deterministic: identical wire bytes produce an identical
// buffer. Fields without a slot in the layout are preserved verbatim in
// the unknown-fields region.
func Decode(layout *Layout, wire []uint8) (Message, error) {
	b := &regionBuilder{}
	base := b.reserve(layout.FixedSize)
	if err := decodeMessage(b, layout, wire, base, maxDecodeDepth); err != nil {
		return Message{}, err
	}
	if uint64(len(b.buf)) > uint64(MaxMessageSize) {
		return Message{}, errBufferTooLarge(len(b.buf))
	}
	return Message{layout, b.buf, base}, nil
}

type regionBuilder struct {
	buf []uint8
}

func (b *regionBuilder) reserve(n uint32) uint32 {
	start := uint32(len(b.buf))
	b.buf = append(b.buf, make([]uint8, n)...)
	return start
}

func (b *regionBuilder) append(data []uint8) uint32 {
	start := uint32(len(b.buf))
	b.buf = append(b.buf, data...)
	return start
}

func (b *regionBuilder) setRef(at, off, length uint32) {
	putLeUint32(b.buf[at:], off)
	putLeUint32(b.buf[at+4:], length)
}

// fieldAcc accumulates one slot's wire occurrences before the slot is
// written out. Singular fields keep the last occurrence; singular
// messages concatenate occurrences (protobuf merge semantics); repeated
// fields keep every occurrence in wire order.
type fieldAcc struct {
	seen    bool
	scalar  uint64
	scalars []uint64
	blob    []uint8
	blobs   [][]uint8
	member  *Slot
}

func decodeMessage(
	b *regionBuilder,
	layout *Layout,
	wire []uint8,
	base uint32,
	depth int,
) error {
	if depth == 0 {
		return errWireDepth(layout.Name)
	}

	accs := make([]fieldAcc, len(layout.Slots))
	var unknown []uint8

	off := 0
	for off < len(wire) {
		field, wireType, n := protowire.ConsumeTag(wire[off:])
		if n < 0 {
			return errWireTruncated(layout.Name, off)
		}
		// ConsumeFieldValue counts the length prefix of a BytesType
		// record, so length-delimited payloads are extracted with
		// ConsumeBytes instead.
		var value []uint8
		var valueLen int
		if wireType == protowire.BytesType {
			payload, m := protowire.ConsumeBytes(wire[off+n:])
			if m < 0 {
				return errWireTruncated(layout.Name, off+n)
			}
			value = payload
			valueLen = m
		} else {
			valueLen = protowire.ConsumeFieldValue(field, wireType, wire[off+n:])
			if valueLen < 0 {
				return errWireTruncated(layout.Name, off+n)
			}
			value = wire[off+n : off+n+valueLen]
		}
		record := wire[off : off+n+valueLen]
		off += n + valueLen

		slotIdx, member, ok := layout.lookup(int32(field))
		if !ok {
			unknown = append(unknown, record...)
			continue
		}
		acc := &accs[slotIdx]
		target := &layout.Slots[slotIdx]
		if member != nil {
			target = member
			if acc.member != member {
				// A later oneof member on the wire displaces any
				// earlier member entirely, but only once its record
				// decodes. A mismatched record goes to the unknown
				// region without disturbing the current member.
				var fresh fieldAcc
				if !decodeField(&fresh, target, wireType, value) {
					unknown = append(unknown, record...)
					continue
				}
				fresh.member = member
				*acc = fresh
				continue
			}
		}
		if !decodeField(acc, target, wireType, value) {
			unknown = append(unknown, record...)
			continue
		}
		if member != nil {
			acc.member = member
		}
	}

	for ii := range layout.Slots {
		slot := &layout.Slots[ii]
		acc := &accs[ii]
		if !acc.seen {
			continue
		}
		if slot.Bit >= 0 {
			b.buf[base+uint32(slot.Bit)/8] |= 1 << (uint32(slot.Bit) % 8)
		}
		target := slot
		payloadBase := base + slot.Offset
		if slot.Kind == KindOneof {
			putLeUint32(b.buf[base+slot.Offset:], uint32(acc.member.Field))
			target = acc.member
			payloadBase = base + acc.member.Offset
		}
		if err := writeSlot(b, layout, target, acc, payloadBase, depth); err != nil {
			return err
		}
	}

	if len(unknown) > 0 {
		start := b.append(unknown)
		b.setRef(base+layout.Unknown, start, uint32(len(unknown)))
	}
	return nil
}

// decodeField folds one wire record into the slot's accumulator. It
// reports false when the record's wire type does not match the slot, in
// which case the record is preserved as an unknown field.
func decodeField(
	acc *fieldAcc,
	slot *Slot,
	wireType protowire.Type,
	value []uint8,
) bool {
	switch slot.Kind {
	case KindRef:
		switch slot.Shape {
		case ShapeBytes:
			if wireType != protowire.BytesType {
				return false
			}
			acc.seen = true
			acc.blob = value
			return true
		case ShapeMessage:
			if wireType != protowire.BytesType {
				return false
			}
			acc.seen = true
			acc.blob = append(acc.blob, value...)
			return true
		case ShapePacked:
			return decodePacked(acc, slot, wireType, value)
		case ShapeRefArray:
			if wireType != protowire.BytesType {
				return false
			}
			acc.seen = true
			acc.blobs = append(acc.blobs, value)
			return true
		}
		return false
	case KindInline:
		if wireType != protowire.BytesType {
			return false
		}
		acc.seen = true
		acc.blob = append(acc.blob, value...)
		return true
	default:
		bits, ok := decodeScalar(slot, wireType, value)
		if !ok {
			return false
		}
		acc.seen = true
		acc.scalar = bits
		return true
	}
}

func decodePacked(
	acc *fieldAcc,
	slot *Slot,
	wireType protowire.Type,
	value []uint8,
) bool {
	if wireType != protowire.BytesType {
		// Unpacked occurrence of a packed-capable field.
		bits, ok := decodeScalar(slot, wireType, value)
		if !ok {
			return false
		}
		acc.seen = true
		acc.scalars = append(acc.scalars, bits)
		return true
	}
	var elems []uint64
	switch slot.Wire {
	case WireVarint, WireZigZag32, WireZigZag64:
		for len(value) > 0 {
			v, n := protowire.ConsumeVarint(value)
			if n < 0 {
				return false
			}
			value = value[n:]
			elems = append(elems, scalarBits(slot, v))
		}
	case WireFixed32:
		if len(value)%4 != 0 {
			return false
		}
		for len(value) > 0 {
			elems = append(elems, uint64(leUint32(value)))
			value = value[4:]
		}
	case WireFixed64:
		if len(value)%8 != 0 {
			return false
		}
		for len(value) > 0 {
			elems = append(elems, leUint64(value))
			value = value[8:]
		}
	default:
		return false
	}
	acc.seen = true
	acc.scalars = append(acc.scalars, elems...)
	return true
}

func decodeScalar(
	slot *Slot,
	wireType protowire.Type,
	value []uint8,
) (uint64, bool) {
	switch slot.Wire {
	case WireVarint, WireZigZag32, WireZigZag64:
		if wireType != protowire.VarintType {
			return 0, false
		}
		v, n := protowire.ConsumeVarint(value)
		if n < 0 {
			return 0, false
		}
		return scalarBits(slot, v), true
	case WireFixed32:
		if wireType != protowire.Fixed32Type {
			return 0, false
		}
		v, n := protowire.ConsumeFixed32(value)
		if n < 0 {
			return 0, false
		}
		return uint64(v), true
	case WireFixed64:
		if wireType != protowire.Fixed64Type {
			return 0, false
		}
		v, n := protowire.ConsumeFixed64(value)
		if n < 0 {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// scalarBits normalizes a decoded varint to the slot's stored width.
func scalarBits(slot *Slot, v uint64) uint64 {
	switch slot.Wire {
	case WireZigZag32:
		return uint64(uint32(protowire.DecodeZigZag(v & 0xFFFFFFFF)))
	case WireZigZag64:
		return uint64(protowire.DecodeZigZag(v))
	}
	switch slot.Kind {
	case KindBool:
		if v != 0 {
			return 1
		}
		return 0
	case KindInt32, KindEnum:
		return uint64(uint32(int32(v)))
	case KindUint32:
		return uint64(uint32(v))
	}
	return v
}

func writeSlot(
	b *regionBuilder,
	layout *Layout,
	slot *Slot,
	acc *fieldAcc,
	at uint32,
	depth int,
) error {
	switch slot.Kind {
	case KindBool:
		b.buf[at] = uint8(acc.scalar)
	case KindInt32, KindUint32, KindFloat32, KindEnum:
		putLeUint32(b.buf[at:], uint32(acc.scalar))
	case KindInt64, KindUint64, KindFloat64:
		putLeUint64(b.buf[at:], acc.scalar)
	case KindInline:
		if err := decodeMessage(b, slot.Msg, acc.blob, at, depth-1); err != nil {
			return err
		}
	case KindRef:
		switch slot.Shape {
		case ShapeBytes:
			// An empty payload stays a null ref so that proto3
			// zero-collapse holds; a forced-presence field carries
			// its presence in the bitmap instead.
			if len(acc.blob) > 0 {
				start := b.append(acc.blob)
				b.setRef(at, start, uint32(len(acc.blob)))
			}
		case ShapeMessage:
			start := b.reserve(slot.Msg.FixedSize)
			if err := decodeMessage(b, slot.Msg, acc.blob, start, depth-1); err != nil {
				return err
			}
			b.setRef(at, start, slot.Msg.FixedSize)
		case ShapePacked:
			start := uint32(len(b.buf))
			for _, bits := range acc.scalars {
				switch slot.Size {
				case 1:
					b.buf = append(b.buf, uint8(bits))
				case 4:
					var tmp [4]uint8
					putLeUint32(tmp[:], uint32(bits))
					b.buf = append(b.buf, tmp[:]...)
				case 8:
					var tmp [8]uint8
					putLeUint64(tmp[:], bits)
					b.buf = append(b.buf, tmp[:]...)
				}
			}
			b.setRef(at, start, uint32(len(b.buf))-start)
		case ShapeRefArray:
			refs := make([]uint8, 0, len(acc.blobs)*refSize)
			var tmp [refSize]uint8
			for _, blob := range acc.blobs {
				var elemOff, elemLen uint32
				if slot.Elem == ShapeMessage {
					elemOff = b.reserve(slot.Msg.FixedSize)
					err := decodeMessage(b, slot.Msg, blob, elemOff, depth-1)
					if err != nil {
						return err
					}
					elemLen = slot.Msg.FixedSize
				} else {
					elemOff = b.append(blob)
					elemLen = uint32(len(blob))
				}
				putLeUint32(tmp[0:], elemOff)
				putLeUint32(tmp[4:], elemLen)
				refs = append(refs, tmp[:]...)
			}
			start := b.append(refs)
			b.setRef(at, start, uint32(len(refs)))
		}
	}
	return nil
}
