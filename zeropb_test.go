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

package zeropb_test

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"go.zeropb.org/zeropb"
	"go.zeropb.org/zeropb/internal/testutil"
)

// Test layouts {{{

var scalarsLayout = zeropb.MustLayout(&zeropb.Layout{
	Name: "test.Scalars",
	Slots: []zeropb.Slot{
		{Field: 1, Name: "flag", Kind: zeropb.KindBool, Wire: zeropb.WireVarint, Offset: 0, Bit: -1},
		{Field: 2, Name: "count", Kind: zeropb.KindInt32, Wire: zeropb.WireVarint, Offset: 4, Bit: -1},
		{Field: 3, Name: "total", Kind: zeropb.KindInt64, Wire: zeropb.WireVarint, Offset: 8, Bit: -1},
		{Field: 4, Name: "ratio", Kind: zeropb.KindFloat64, Wire: zeropb.WireFixed64, Offset: 16, Bit: -1},
		{Field: 5, Name: "name", Kind: zeropb.KindRef, Wire: zeropb.WireBytes, Shape: zeropb.ShapeBytes, Offset: 24, Bit: -1},
		{Field: 6, Name: "delta", Kind: zeropb.KindInt32, Wire: zeropb.WireZigZag32, Offset: 32, Bit: -1},
		{Field: 7, Name: "kind", Kind: zeropb.KindEnum, Wire: zeropb.WireVarint, Offset: 36, Bit: -1},
	},
	FixedSize: 48,
	Unknown:   40,
})

var innerLayout = zeropb.MustLayout(&zeropb.Layout{
	Name: "test.Inner",
	Slots: []zeropb.Slot{
		{Field: 1, Name: "value", Kind: zeropb.KindUint32, Wire: zeropb.WireVarint, Offset: 0, Bit: -1},
	},
	FixedSize: 16,
	Unknown:   8,
})

var outerLayout = zeropb.MustLayout(&zeropb.Layout{
	Name: "test.Outer",
	Slots: []zeropb.Slot{
		{Field: 1, Name: "id", Kind: zeropb.KindUint64, Wire: zeropb.WireVarint, Offset: 8, Bit: -1},
		{Field: 2, Name: "inner", Kind: zeropb.KindRef, Wire: zeropb.WireBytes, Shape: zeropb.ShapeMessage, Offset: 16, Bit: -1, Msg: innerLayout},
		{Field: 3, Name: "embed", Kind: zeropb.KindInline, Wire: zeropb.WireBytes, Offset: 24, Size: 16, Bit: 0, Msg: innerLayout},
	},
	FixedSize: 48,
	Presence:  1,
	Unknown:   40,
})

var listsLayout = zeropb.MustLayout(&zeropb.Layout{
	Name: "test.Lists",
	Slots: []zeropb.Slot{
		{Field: 1, Name: "nums", Kind: zeropb.KindRef, Wire: zeropb.WireVarint, Shape: zeropb.ShapePacked, Offset: 0, Size: 8, Bit: -1},
		{Field: 2, Name: "names", Kind: zeropb.KindRef, Wire: zeropb.WireBytes, Shape: zeropb.ShapeRefArray, Elem: zeropb.ShapeBytes, Offset: 8, Bit: -1},
		{Field: 3, Name: "items", Kind: zeropb.KindRef, Wire: zeropb.WireBytes, Shape: zeropb.ShapeRefArray, Elem: zeropb.ShapeMessage, Offset: 16, Bit: -1, Msg: innerLayout},
		{Field: 4, Name: "sints", Kind: zeropb.KindRef, Wire: zeropb.WireZigZag32, Shape: zeropb.ShapePacked, Offset: 24, Size: 4, Bit: -1},
	},
	FixedSize: 40,
	Unknown:   32,
})

var trackedLayout = zeropb.MustLayout(&zeropb.Layout{
	Name: "test.Tracked",
	Slots: []zeropb.Slot{
		{Field: 1, Name: "a", Kind: zeropb.KindInt32, Wire: zeropb.WireVarint, Offset: 4, Bit: 0},
		{Field: 2, Name: "b", Kind: zeropb.KindUint64, Wire: zeropb.WireVarint, Offset: 8, Bit: 1},
	},
	FixedSize: 24,
	Presence:  2,
	Unknown:   16,
})

var choiceLayout = zeropb.MustLayout(&zeropb.Layout{
	Name: "test.Choice",
	Slots: []zeropb.Slot{
		{Name: "sum", Kind: zeropb.KindOneof, Offset: 0, Size: 8, Bit: -1, Members: []zeropb.Slot{
			{Field: 1, Name: "num", Kind: zeropb.KindInt32, Wire: zeropb.WireVarint, Offset: 4, Bit: -1},
			{Field: 2, Name: "text", Kind: zeropb.KindRef, Wire: zeropb.WireBytes, Shape: zeropb.ShapeBytes, Offset: 4, Bit: -1},
		}},
	},
	FixedSize: 24,
	Unknown:   16,
})

// }}}

// Wire helpers {{{

func wireVarint(dst []uint8, field protowire.Number, v uint64) []uint8 {
	dst = protowire.AppendTag(dst, field, protowire.VarintType)
	return protowire.AppendVarint(dst, v)
}

func wireFixed64(dst []uint8, field protowire.Number, v uint64) []uint8 {
	dst = protowire.AppendTag(dst, field, protowire.Fixed64Type)
	return protowire.AppendFixed64(dst, v)
}

func wireBytes(dst []uint8, field protowire.Number, v []uint8) []uint8 {
	dst = protowire.AppendTag(dst, field, protowire.BytesType)
	return protowire.AppendBytes(dst, v)
}

// }}}

func errCode(err error) uint32 {
	var zerr *zeropb.Error
	if errors.As(err, &zerr) {
		return zerr.Code()
	}
	return 0
}

func TestDecodeScalars(t *testing.T) {
	t.Parallel()

	var wire []uint8
	wire = wireVarint(wire, 1, 1)
	wire = wireVarint(wire, 2, uint64(math.MaxUint64-6)) // int32(-7)
	wire = wireVarint(wire, 3, 1<<40)
	wire = wireFixed64(wire, 4, math.Float64bits(0.5))
	wire = wireBytes(wire, 5, []uint8("hello"))
	wire = wireVarint(wire, 6, protowire.EncodeZigZag(-3))
	wire = wireVarint(wire, 7, 42)

	msg, err := zeropb.Decode(scalarsLayout, wire)
	testutil.AssertNoError(t, err)

	testutil.ExpectTrue(t, msg.Bool(0))
	testutil.ExpectEq(t, int32(-7), msg.Int32(1))
	testutil.ExpectEq(t, int64(1<<40), msg.Int64(2))
	testutil.ExpectEq(t, 0.5, msg.Float64(3))
	testutil.ExpectEq(t, "hello", msg.String(4))
	testutil.ExpectEq(t, int32(-3), msg.Int32(5))
	testutil.ExpectEq(t, int32(42), msg.Enum(6))

	for ii := range scalarsLayout.Slots {
		testutil.ExpectTrue(t, msg.Has(ii))
	}
	testutil.ExpectEq(t, 0, len(msg.Unknown()))
}

func TestDecodeEmpty(t *testing.T) {
	t.Parallel()

	msg, err := zeropb.Decode(scalarsLayout, nil)
	testutil.AssertNoError(t, err)

	for ii := range scalarsLayout.Slots {
		testutil.ExpectFalse(t, msg.Has(ii))
	}
	testutil.ExpectEq(t, 0, msg.Int32(1))
	testutil.ExpectEq(t, "", msg.String(4))
	testutil.ExpectEq(t, 0, len(msg.Unknown()))

	wire, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 0, len(wire))
}

func TestDecodeLastWins(t *testing.T) {
	t.Parallel()

	var wire []uint8
	wire = wireVarint(wire, 2, 10)
	wire = wireVarint(wire, 2, 20)
	wire = wireBytes(wire, 5, []uint8("first"))
	wire = wireBytes(wire, 5, []uint8("second"))

	msg, err := zeropb.Decode(scalarsLayout, wire)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 20, msg.Int32(1))
	testutil.ExpectEq(t, "second", msg.String(4))
}

func TestDecodeWrongWireType(t *testing.T) {
	t.Parallel()

	// Field 2 is a varint slot; a length-delimited record under the
	// same number is not decodable into it and must survive as an
	// unknown field instead of being dropped.
	var bad []uint8
	bad = wireBytes(bad, 2, []uint8("xyz"))

	var wire []uint8
	wire = append(wire, bad...)
	wire = wireVarint(wire, 2, 7)

	msg, err := zeropb.Decode(scalarsLayout, wire)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 7, msg.Int32(1))
	testutil.ExpectBytesEq(t, bad, msg.Unknown())
}

func TestDecodeUnknownFieldPreserved(t *testing.T) {
	t.Parallel()

	var unknown []uint8
	unknown = wireVarint(unknown, 99, 123)
	unknown = wireBytes(unknown, 100, []uint8("opaque"))

	var wire []uint8
	wire = wireVarint(wire, 2, 5)
	wire = append(wire, unknown...)

	msg, err := zeropb.Decode(scalarsLayout, wire)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, unknown, msg.Unknown())

	// Unknown fields are re-emitted after all known fields.
	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	want := wireVarint(nil, 2, 5)
	want = append(want, unknown...)
	testutil.ExpectBytesEq(t, want, encoded)

	msg2, err := zeropb.Decode(scalarsLayout, encoded)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, unknown, msg2.Unknown())
}

func TestEncodeCanonical(t *testing.T) {
	t.Parallel()

	var wire []uint8
	wire = wireBytes(wire, 5, []uint8("zz"))
	wire = wireVarint(wire, 2, 3)
	wire = wireVarint(wire, 1, 1)

	msg, err := zeropb.Decode(scalarsLayout, wire)
	testutil.AssertNoError(t, err)

	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)

	var want []uint8
	want = wireVarint(want, 1, 1)
	want = wireVarint(want, 2, 3)
	want = wireBytes(want, 5, []uint8("zz"))
	testutil.ExpectBytesEq(t, want, encoded)

	// A second decode+encode pass is a fixed point.
	msg2, err := zeropb.Decode(scalarsLayout, encoded)
	testutil.AssertNoError(t, err)
	encoded2, err := zeropb.Encode(msg2)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, encoded, encoded2)
}

func TestEncodeSignedVarints(t *testing.T) {
	t.Parallel()

	var wire []uint8
	wire = wireVarint(wire, 2, uint64(math.MaxUint64)) // int32(-1)
	wire = wireVarint(wire, 6, protowire.EncodeZigZag(-40))

	msg, err := zeropb.Decode(scalarsLayout, wire)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, -1, msg.Int32(1))
	testutil.ExpectEq(t, -40, msg.Int32(5))

	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)

	// int32 fields sign-extend to the full 10-byte varint form on
	// re-encode; sint32 fields stay in zigzag form.
	var want []uint8
	want = wireVarint(want, 2, uint64(math.MaxUint64))
	want = wireVarint(want, 6, protowire.EncodeZigZag(-40))
	testutil.ExpectBytesEq(t, want, encoded)
}

func TestZeroCollapse(t *testing.T) {
	t.Parallel()

	var wire []uint8
	wire = wireVarint(wire, 2, 0)
	wire = wireBytes(wire, 5, nil)

	msg, err := zeropb.Decode(scalarsLayout, wire)
	testutil.AssertNoError(t, err)
	testutil.ExpectFalse(t, msg.Has(1))
	testutil.ExpectFalse(t, msg.Has(4))

	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 0, len(encoded))
}

func TestPresenceBits(t *testing.T) {
	t.Parallel()

	wire := wireVarint(nil, 1, 0)
	msg, err := zeropb.Decode(trackedLayout, wire)
	testutil.AssertNoError(t, err)

	// Field 1 was explicitly present with its zero value; field 2 was
	// absent. The presence bitmap keeps the two apart.
	testutil.ExpectTrue(t, msg.Has(0))
	testutil.ExpectFalse(t, msg.Has(1))
	testutil.ExpectEq(t, 0, msg.Int32(0))

	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, wire, encoded)

	msg2, err := zeropb.Decode(trackedLayout, encoded)
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, msg2.Has(0))
	testutil.ExpectFalse(t, msg2.Has(1))
}

func TestNestedMessage(t *testing.T) {
	t.Parallel()

	inner := wireVarint(nil, 1, 7)
	var wire []uint8
	wire = wireVarint(wire, 1, 1000)
	wire = wireBytes(wire, 2, inner)

	msg, err := zeropb.Decode(outerLayout, wire)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint64(1000), msg.Uint64(0))

	nested, ok := msg.Message(1)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint32(7), nested.Uint32(0))

	absent, err := zeropb.Decode(outerLayout, nil)
	testutil.AssertNoError(t, err)
	_, ok = absent.Message(1)
	testutil.ExpectFalse(t, ok)
}

func TestNestedMessageMerge(t *testing.T) {
	t.Parallel()

	// Two records of the same singular message field merge by
	// concatenation, so the later record's fields win.
	var wire []uint8
	wire = wireBytes(wire, 2, wireVarint(nil, 1, 1))
	wire = wireBytes(wire, 2, wireVarint(nil, 1, 2))

	msg, err := zeropb.Decode(outerLayout, wire)
	testutil.AssertNoError(t, err)
	nested, ok := msg.Message(1)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint32(2), nested.Uint32(0))
}

func TestInlineMessage(t *testing.T) {
	t.Parallel()

	wire := wireBytes(nil, 3, wireVarint(nil, 1, 9))
	msg, err := zeropb.Decode(outerLayout, wire)
	testutil.AssertNoError(t, err)

	testutil.ExpectTrue(t, msg.Has(2))
	testutil.ExpectEq(t, uint32(9), msg.Inline(2).Uint32(0))

	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, wire, encoded)

	empty, err := zeropb.Decode(outerLayout, nil)
	testutil.AssertNoError(t, err)
	testutil.ExpectFalse(t, empty.Has(2))
	testutil.ExpectEq(t, uint32(0), empty.Inline(2).Uint32(0))
}

func TestPackedRepeated(t *testing.T) {
	t.Parallel()

	var payload []uint8
	payload = protowire.AppendVarint(payload, 1)
	payload = protowire.AppendVarint(payload, 2)
	payload = protowire.AppendVarint(payload, 300)

	// A packed field also accepts unpacked records, accumulated in
	// wire order.
	var wire []uint8
	wire = wireBytes(wire, 1, payload)
	wire = wireVarint(wire, 1, 4)

	msg, err := zeropb.Decode(listsLayout, wire)
	testutil.AssertNoError(t, err)

	nums := msg.Uint64s(0)
	testutil.ExpectEq(t, uint32(4), nums.Len())
	testutil.ExpectSliceEq(t, []uint64{1, 2, 300, 4}, nums.Collect())

	v, ok := nums.Get(2)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint64(300), v)
	_, ok = nums.Get(4)
	testutil.ExpectFalse(t, ok)

	// Re-encode is packed regardless of the input form.
	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	var wantPayload []uint8
	wantPayload = protowire.AppendVarint(wantPayload, 1)
	wantPayload = protowire.AppendVarint(wantPayload, 2)
	wantPayload = protowire.AppendVarint(wantPayload, 300)
	wantPayload = protowire.AppendVarint(wantPayload, 4)
	testutil.ExpectBytesEq(t, wireBytes(nil, 1, wantPayload), encoded)
}

func TestPackedZigZag(t *testing.T) {
	t.Parallel()

	var payload []uint8
	payload = protowire.AppendVarint(payload, protowire.EncodeZigZag(-1))
	payload = protowire.AppendVarint(payload, protowire.EncodeZigZag(2))

	msg, err := zeropb.Decode(listsLayout, wireBytes(nil, 4, payload))
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []int32{-1, 2}, msg.Int32s(3).Collect())
}

func TestStringArray(t *testing.T) {
	t.Parallel()

	var wire []uint8
	wire = wireBytes(wire, 2, []uint8("a"))
	wire = wireBytes(wire, 2, []uint8("bee"))

	msg, err := zeropb.Decode(listsLayout, wire)
	testutil.AssertNoError(t, err)

	names := msg.Strings(1)
	testutil.ExpectEq(t, uint32(2), names.Len())
	testutil.ExpectSliceEq(t, []string{"a", "bee"}, names.Collect())
	testutil.ExpectEq(t, `["a", "bee"]`, names.String())

	_, ok := names.Get(2)
	testutil.ExpectFalse(t, ok)

	var got []string
	for _, name := range names.Iter() {
		got = append(got, name)
	}
	testutil.ExpectSliceEq(t, []string{"a", "bee"}, got)

	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, wire, encoded)
}

func TestMessageArray(t *testing.T) {
	t.Parallel()

	var wire []uint8
	wire = wireBytes(wire, 3, wireVarint(nil, 1, 1))
	wire = wireBytes(wire, 3, wireVarint(nil, 1, 2))

	msg, err := zeropb.Decode(listsLayout, wire)
	testutil.AssertNoError(t, err)

	items := msg.Messages(2)
	testutil.ExpectEq(t, uint32(2), items.Len())

	first, ok := items.Get(0)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint32(1), first.Uint32(0))
	second, ok := items.Get(1)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint32(2), second.Uint32(0))

	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, wire, encoded)
}

func TestOneofDecode(t *testing.T) {
	t.Parallel()

	var wire []uint8
	wire = wireVarint(wire, 1, 5)
	wire = wireBytes(wire, 2, []uint8("x"))

	msg, err := zeropb.Decode(choiceLayout, wire)
	testutil.AssertNoError(t, err)

	// The later member on the wire displaces the earlier one.
	testutil.ExpectEq(t, 2, msg.Oneof(0))
	member := msg.OneofMember(0)
	testutil.ExpectEq(t, "text", member.Name)
	testutil.ExpectEq(t, "x", msg.SlotString(member))

	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, wireBytes(nil, 2, []uint8("x")), encoded)

	// Reversed record order selects the other member.
	var flipped []uint8
	flipped = wireBytes(flipped, 2, []uint8("x"))
	flipped = wireVarint(flipped, 1, 5)

	msg2, err := zeropb.Decode(choiceLayout, flipped)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, msg2.Oneof(0))
	testutil.ExpectEq(t, 5, msg2.SlotInt32(msg2.OneofMember(0)))
}

func TestOneofWrongWireType(t *testing.T) {
	t.Parallel()

	// A mismatched record for another member goes to the unknown
	// region. It must not displace the member already decoded.
	bad := wireVarint(nil, 2, 9)

	var wire []uint8
	wire = wireVarint(wire, 1, 5)
	wire = append(wire, bad...)

	msg, err := zeropb.Decode(choiceLayout, wire)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, msg.Oneof(0))
	testutil.ExpectEq(t, 5, msg.SlotInt32(msg.OneofMember(0)))
	testutil.ExpectBytesEq(t, bad, msg.Unknown())
}

func TestOneofZeroValueMember(t *testing.T) {
	t.Parallel()

	// A selected member is emitted even when its value is zero; the
	// discriminant carries the presence.
	wire := wireVarint(nil, 1, 0)
	msg, err := zeropb.Decode(choiceLayout, wire)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, msg.Oneof(0))
	testutil.ExpectTrue(t, msg.Has(0))

	encoded, err := zeropb.Encode(msg)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, wire, encoded)
}

func TestOneofAbsent(t *testing.T) {
	t.Parallel()

	msg, err := zeropb.Decode(choiceLayout, nil)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 0, msg.Oneof(0))
	testutil.ExpectFalse(t, msg.Has(0))
	if member := msg.OneofMember(0); member != nil {
		t.Fatalf("OneofMember on unset oneof: got %q", member.Name)
	}
}

func TestViewValid(t *testing.T) {
	t.Parallel()

	var wire []uint8
	wire = wireVarint(wire, 1, 1)
	wire = wireBytes(wire, 5, []uint8("hello"))

	msg, err := zeropb.Decode(scalarsLayout, wire)
	testutil.AssertNoError(t, err)

	view, err := zeropb.View(scalarsLayout, msg.Buffer())
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, view.Bool(0))
	testutil.ExpectEq(t, "hello", view.String(4))
}

func TestViewTruncatedBuffer(t *testing.T) {
	t.Parallel()

	_, err := zeropb.View(scalarsLayout, make([]uint8, 16))
	testutil.AssertError(t, err)
	testutil.ExpectEq(t, 111, errCode(err))
}

func TestViewRefOutOfBounds(t *testing.T) {
	t.Parallel()

	buf := make([]uint8, scalarsLayout.FixedSize)
	binary.LittleEndian.PutUint32(buf[24:], 100) // name ref offset
	binary.LittleEndian.PutUint32(buf[28:], 5)   // name ref length

	_, err := zeropb.View(scalarsLayout, buf)
	testutil.AssertError(t, err)
	testutil.ExpectEq(t, 112, errCode(err))
}

func TestViewMisalignedPacked(t *testing.T) {
	t.Parallel()

	buf := make([]uint8, listsLayout.FixedSize+8)
	binary.LittleEndian.PutUint32(buf[0:], listsLayout.FixedSize)
	binary.LittleEndian.PutUint32(buf[4:], 5) // not a multiple of Size 8

	_, err := zeropb.View(listsLayout, buf)
	testutil.AssertError(t, err)
	testutil.ExpectEq(t, 113, errCode(err))
}

func TestViewUnknownOneofCase(t *testing.T) {
	t.Parallel()

	buf := make([]uint8, choiceLayout.FixedSize)
	binary.LittleEndian.PutUint32(buf[0:], 9) // not a member field

	_, err := zeropb.View(choiceLayout, buf)
	testutil.AssertError(t, err)
	testutil.ExpectEq(t, 114, errCode(err))
}

func TestDecodeTruncatedWire(t *testing.T) {
	t.Parallel()

	wire := protowire.AppendTag(nil, 5, protowire.BytesType)
	wire = protowire.AppendVarint(wire, 10)
	wire = append(wire, 'a', 'b', 'c')

	_, err := zeropb.Decode(scalarsLayout, wire)
	testutil.AssertError(t, err)
	testutil.ExpectEq(t, 120, errCode(err))
}

func TestNewLayoutRejectsBadLayouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		code   uint32
		layout *zeropb.Layout
	}{
		{
			name:   "fixed size too small",
			code:   100,
			layout: &zeropb.Layout{Name: "t.M", FixedSize: 4, Unknown: 0},
		},
		{
			name:   "fixed size unaligned",
			code:   100,
			layout: &zeropb.Layout{Name: "t.M", FixedSize: 12, Unknown: 0},
		},
		{
			name:   "unknown ref out of range",
			code:   102,
			layout: &zeropb.Layout{Name: "t.M", FixedSize: 8, Unknown: 4},
		},
		{
			name: "slot out of range",
			code: 102,
			layout: &zeropb.Layout{
				Name: "t.M",
				Slots: []zeropb.Slot{
					{Field: 1, Name: "x", Kind: zeropb.KindInt64, Wire: zeropb.WireVarint, Offset: 12, Bit: -1},
				},
				FixedSize: 16,
				Unknown:   0,
			},
		},
		{
			name: "presence bit out of range",
			code: 102,
			layout: &zeropb.Layout{
				Name: "t.M",
				Slots: []zeropb.Slot{
					{Field: 1, Name: "x", Kind: zeropb.KindInt32, Wire: zeropb.WireVarint, Offset: 0, Bit: 0},
				},
				FixedSize: 16,
				Unknown:   8,
			},
		},
		{
			name: "missing message layout",
			code: 103,
			layout: &zeropb.Layout{
				Name: "t.M",
				Slots: []zeropb.Slot{
					{Field: 1, Name: "x", Kind: zeropb.KindRef, Wire: zeropb.WireBytes, Shape: zeropb.ShapeMessage, Offset: 0, Bit: -1},
				},
				FixedSize: 16,
				Unknown:   8,
			},
		},
		{
			name: "zero field number",
			code: 104,
			layout: &zeropb.Layout{
				Name: "t.M",
				Slots: []zeropb.Slot{
					{Field: 0, Name: "x", Kind: zeropb.KindBool, Wire: zeropb.WireVarint, Offset: 0, Bit: -1},
				},
				FixedSize: 16,
				Unknown:   8,
			},
		},
		{
			name: "duplicate field number",
			code: 105,
			layout: &zeropb.Layout{
				Name: "t.M",
				Slots: []zeropb.Slot{
					{Field: 1, Name: "x", Kind: zeropb.KindBool, Wire: zeropb.WireVarint, Offset: 0, Bit: -1},
					{Field: 1, Name: "y", Kind: zeropb.KindBool, Wire: zeropb.WireVarint, Offset: 1, Bit: -1},
				},
				FixedSize: 16,
				Unknown:   8,
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := zeropb.NewLayout(test.layout)
			testutil.AssertError(t, err)
			testutil.ExpectEq(t, test.code, errCode(err))
		})
	}
}

func TestNewLayoutRejectsInlineCycle(t *testing.T) {
	t.Parallel()

	layout := &zeropb.Layout{
		Name: "t.M",
		Slots: []zeropb.Slot{
			{Field: 1, Name: "self", Kind: zeropb.KindInline, Wire: zeropb.WireBytes, Offset: 0, Size: 8, Bit: -1},
		},
		FixedSize: 16,
		Unknown:   8,
	}
	layout.Slots[0].Msg = layout

	err := zeropb.NewLayout(layout)
	testutil.AssertError(t, err)
	testutil.ExpectEq(t, 106, errCode(err))
}
