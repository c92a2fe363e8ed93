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
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// Encode serializes a message view back to standard protobuf wire bytes.
//
// Known fields are emitted in ascending field-number order, so two views
// holding the same logical content produce byte-identical output no
// matter how their variable regions happen to be arranged. Preserved
// unknown fields are appended after the known fields, in their original
// order.
func Encode(msg Message) ([]uint8, error) {
	return AppendEncode(nil, msg)
}

// AppendEncode appends the wire encoding of msg to dst.
func AppendEncode(dst []uint8, msg Message) ([]uint8, error) {
	if len(msg.buf) == 0 {
		return dst, nil
	}
	layout := msg.layout

	type fieldRef struct {
		field  int32
		slot   int
		member int
	}
	fields := make([]fieldRef, 0, len(layout.byField))
	for field, path := range layout.byField {
		fields = append(fields, fieldRef{field, path.slot, path.member})
	}
	slices.SortFunc(fields, func(a, b fieldRef) int {
		return int(a.field - b.field)
	})

	var err error
	for _, ref := range fields {
		slot := &layout.Slots[ref.slot]
		if ref.member >= 0 {
			if msg.Oneof(ref.slot) != ref.field {
				continue
			}
			member := &slot.Members[ref.member]
			dst, err = encodeSlot(dst, msg, member, true)
		} else {
			dst, err = encodeSlot(dst, msg, slot, false)
		}
		if err != nil {
			return nil, err
		}
	}
	return append(dst, msg.Unknown()...), nil
}

func encodeSlot(
	dst []uint8,
	msg Message,
	slot *Slot,
	forced bool,
) ([]uint8, error) {
	if !forced && !msg.SlotHas(slot) {
		return dst, nil
	}
	num := protowire.Number(slot.Field)

	switch slot.Kind {
	case KindBool, KindInt32, KindUint32, KindInt64, KindUint64,
		KindFloat32, KindFloat64, KindEnum:
		return encodeScalar(dst, msg, slot), nil

	case KindInline:
		nested, err := Encode(Message{slot.Msg, msg.buf, msg.base + slot.Offset})
		if err != nil {
			return nil, err
		}
		dst = protowire.AppendTag(dst, num, protowire.BytesType)
		return protowire.AppendBytes(dst, nested), nil

	case KindRef:
		switch slot.Shape {
		case ShapeBytes:
			dst = protowire.AppendTag(dst, num, protowire.BytesType)
			return protowire.AppendBytes(dst, msg.SlotBytes(slot)), nil

		case ShapeMessage:
			view, ok := msg.SlotMessage(slot)
			if !ok && !forced {
				return dst, nil
			}
			nested, err := Encode(view)
			if err != nil {
				return nil, err
			}
			dst = protowire.AppendTag(dst, num, protowire.BytesType)
			return protowire.AppendBytes(dst, nested), nil

		case ShapePacked:
			return encodePacked(dst, msg, slot), nil

		case ShapeRefArray:
			region := msg.refRegion(slot)
			for ii := uint32(0); ii < uint32(len(region))/refSize; ii++ {
				elemOff := leUint32(region[ii*refSize:])
				elemLen := leUint32(region[ii*refSize+4:])
				var payload []uint8
				if slot.Elem == ShapeMessage {
					nested, err := Encode(Message{slot.Msg, msg.buf, elemOff})
					if err != nil {
						return nil, err
					}
					payload = nested
				} else {
					payload = msg.buf[elemOff : elemOff+elemLen]
				}
				dst = protowire.AppendTag(dst, num, protowire.BytesType)
				dst = protowire.AppendBytes(dst, payload)
			}
			return dst, nil
		}
	}
	return nil, errLayoutSlotKind(msg.layout.Name, slot.Name)
}

func encodeScalar(dst []uint8, msg Message, slot *Slot) []uint8 {
	num := protowire.Number(slot.Field)
	switch slot.Wire {
	case WireVarint:
		dst = protowire.AppendTag(dst, num, protowire.VarintType)
		return protowire.AppendVarint(dst, scalarVarint(msg, slot))
	case WireZigZag32:
		dst = protowire.AppendTag(dst, num, protowire.VarintType)
		v := protowire.EncodeZigZag(int64(msg.SlotInt32(slot)))
		return protowire.AppendVarint(dst, v)
	case WireZigZag64:
		dst = protowire.AppendTag(dst, num, protowire.VarintType)
		v := protowire.EncodeZigZag(msg.SlotInt64(slot))
		return protowire.AppendVarint(dst, v)
	case WireFixed32:
		dst = protowire.AppendTag(dst, num, protowire.Fixed32Type)
		return protowire.AppendFixed32(dst, msg.SlotUint32(slot))
	case WireFixed64:
		dst = protowire.AppendTag(dst, num, protowire.Fixed64Type)
		return protowire.AppendFixed64(dst, msg.SlotUint64(slot))
	}
	return dst
}

// scalarVarint widens a stored scalar back to its varint wire value.
// Negative int32 values sign-extend to ten wire bytes, matching the
// standard encoders.
func scalarVarint(msg Message, slot *Slot) uint64 {
	switch slot.Kind {
	case KindBool:
		if msg.SlotBool(slot) {
			return 1
		}
		return 0
	case KindInt32, KindEnum:
		return uint64(int64(msg.SlotInt32(slot)))
	case KindUint32:
		return uint64(msg.SlotUint32(slot))
	case KindInt64:
		return uint64(msg.SlotInt64(slot))
	}
	return msg.SlotUint64(slot)
}

func encodePacked(dst []uint8, msg Message, slot *Slot) []uint8 {
	region := msg.refRegion(slot)
	if len(region) == 0 {
		return dst
	}
	num := protowire.Number(slot.Field)
	var payload []uint8
	for off := uint32(0); off < uint32(len(region)); off += slot.Size {
		var bits uint64
		switch slot.Size {
		case 1:
			bits = uint64(region[off])
		case 4:
			bits = uint64(leUint32(region[off:]))
		case 8:
			bits = leUint64(region[off:])
		}
		switch slot.Wire {
		case WireVarint:
			switch slot.Kind {
			case KindInt32, KindEnum:
				bits = uint64(int64(int32(uint32(bits))))
			}
			payload = protowire.AppendVarint(payload, bits)
		case WireZigZag32:
			v := protowire.EncodeZigZag(int64(int32(uint32(bits))))
			payload = protowire.AppendVarint(payload, v)
		case WireZigZag64:
			v := protowire.EncodeZigZag(int64(bits))
			payload = protowire.AppendVarint(payload, v)
		case WireFixed32:
			payload = protowire.AppendFixed32(payload, uint32(bits))
		case WireFixed64:
			payload = protowire.AppendFixed64(payload, bits)
		}
	}
	dst = protowire.AppendTag(dst, num, protowire.BytesType)
	return protowire.AppendBytes(dst, payload)
}
