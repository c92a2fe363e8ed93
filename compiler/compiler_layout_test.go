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

package compiler_test

import (
	"errors"
	"testing"

	"go.zeropb.org/zeropb"
	"go.zeropb.org/zeropb/compiler"
	"go.zeropb.org/zeropb/descriptor"
	"go.zeropb.org/zeropb/internal/testutil"
)

func TestScalarLayout(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("scalars.proto", "s").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("flag", 1, descriptor.TypeBool)).
			Field(testutil.NewField("count", 2, descriptor.TypeInt32)).
			Field(testutil.NewField("ratio", 3, descriptor.TypeDouble)).
			Field(testutil.NewField("tag", 4, descriptor.TypeFixed32)).
			Field(testutil.NewField("delta", 5, descriptor.TypeSint64))).
		Finish()

	layout := findMessage(t, compileFiles(t, file), "s.M").Layout
	testutil.ExpectEq(t, uint32(0), layout.Presence)

	wantOffsets := []uint32{0, 4, 8, 16, 24}
	wantKinds := []zeropb.Kind{
		zeropb.KindBool,
		zeropb.KindInt32,
		zeropb.KindFloat64,
		zeropb.KindUint32,
		zeropb.KindInt64,
	}
	testutil.ExpectEq(t, len(wantOffsets), len(layout.Slots))
	for ii := range layout.Slots {
		testutil.ExpectEq(t, wantOffsets[ii], layout.Slots[ii].Offset)
		testutil.ExpectEq(t, wantKinds[ii], layout.Slots[ii].Kind)
		testutil.ExpectEq(t, int32(-1), layout.Slots[ii].Bit)
	}
	testutil.ExpectEq(t, zeropb.WireZigZag64, layout.Slots[4].Wire)
	testutil.ExpectEq(t, uint32(32), layout.Unknown)
	testutil.ExpectEq(t, uint32(40), layout.FixedSize)
}

func TestStringLayout(t *testing.T) {
	t.Parallel()

	layout := findMessage(t, compileFiles(t, coinFile()), "cosmos.base.Coin").Layout
	testutil.ExpectEq(t, uint32(0), layout.Slots[0].Offset)
	testutil.ExpectEq(t, uint32(8), layout.Slots[1].Offset)
	testutil.ExpectEq(t, zeropb.ShapeBytes, layout.Slots[0].Shape)
	testutil.ExpectEq(t, uint32(16), layout.Unknown)
	testutil.ExpectEq(t, uint32(24), layout.FixedSize)
}

func TestPresenceBits(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("presence.proto", "p").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("a", 1, descriptor.TypeInt32).Nullable(true)).
			Field(testutil.NewField("b", 2, descriptor.TypeInt32).Nullable(true))).
		Finish()

	layout := findMessage(t, compileFiles(t, file), "p.M").Layout
	testutil.ExpectEq(t, uint32(2), layout.Presence)
	// One presence byte, then 4-byte alignment.
	testutil.ExpectEq(t, uint32(4), layout.Slots[0].Offset)
	testutil.ExpectEq(t, int32(0), layout.Slots[0].Bit)
	testutil.ExpectEq(t, uint32(8), layout.Slots[1].Offset)
	testutil.ExpectEq(t, int32(1), layout.Slots[1].Bit)
	testutil.ExpectEq(t, uint32(12), layout.Unknown)
	testutil.ExpectEq(t, uint32(24), layout.FixedSize)
}

func TestRepeatedLayout(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("rep.proto", "r").
		Message(testutil.NewMessage("M").
			Field(testutil.NewRepeatedField("ids", 1, descriptor.TypeUint64)).
			Field(testutil.NewRepeatedField("names", 2, descriptor.TypeString))).
		Finish()

	layout := findMessage(t, compileFiles(t, file), "r.M").Layout

	ids := layout.Slots[0]
	testutil.ExpectEq(t, zeropb.KindRef, ids.Kind)
	testutil.ExpectEq(t, zeropb.ShapePacked, ids.Shape)
	testutil.ExpectEq(t, uint32(8), ids.Size)

	names := layout.Slots[1]
	testutil.ExpectEq(t, zeropb.ShapeRefArray, names.Shape)
	testutil.ExpectEq(t, zeropb.ShapeBytes, names.Elem)
}

func TestInlineEmbed(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("embed.proto", "e").
		Message(testutil.NewMessage("Inner").
			Field(testutil.NewField("x", 1, descriptor.TypeInt64))).
		Message(testutil.NewMessage("Outer").
			Field(testutil.NewField("inner", 1, descriptor.TypeMessage).
				TypeName(".e.Inner").
				Embed())).
		Finish()

	result := compileFiles(t, file)
	inner := findMessage(t, result, "e.Inner")
	outer := findMessage(t, result, "e.Outer")
	testutil.ExpectEq(t, uint32(16), inner.Layout.FixedSize)

	testutil.ExpectEq(t, uint32(1), outer.Layout.Presence)
	slot := outer.Layout.Slots[0]
	testutil.ExpectEq(t, zeropb.KindInline, slot.Kind)
	testutil.ExpectEq(t, uint32(8), slot.Offset)
	testutil.ExpectEq(t, inner.Layout.FixedSize, slot.Size)
	testutil.ExpectEq(t, int32(0), slot.Bit)
	if slot.Msg != inner.Layout {
		t.Error("inline slot does not point at the embedded layout")
	}
	testutil.ExpectEq(t, uint32(32), outer.Layout.FixedSize)
}

func TestNonNullableMessageInline(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("embed.proto", "e").
		Message(testutil.NewMessage("Inner")).
		Message(testutil.NewMessage("Outer").
			Field(testutil.NewField("inner", 1, descriptor.TypeMessage).
				TypeName(".e.Inner").
				Nullable(false))).
		Finish()

	outer := findMessage(t, compileFiles(t, file), "e.Outer")
	testutil.ExpectEq(t, zeropb.KindInline, outer.Layout.Slots[0].Kind)
}

func TestInlineCycle(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("cycle.proto", "c").
		Message(testutil.NewMessage("A").
			Field(testutil.NewField("b", 1, descriptor.TypeMessage).
				TypeName(".c.B").
				Embed())).
		Message(testutil.NewMessage("B").
			Field(testutil.NewField("a", 1, descriptor.TypeMessage).
				TypeName(".c.A").
				Embed())).
		Finish()

	_, err := compiler.CompileBytes(testutil.FileSet(file))
	testutil.AssertError(t, err)

	var unsizable *compiler.UnsizableLayoutError
	if !errors.As(err, &unsizable) {
		t.Fatalf("expected UnsizableLayoutError, got: %v", err)
	}
	testutil.ExpectSliceEq(t, []string{"c.A", "c.B", "c.A"}, unsizable.Chain)
}

func TestSelfReferenceByRef(t *testing.T) {
	t.Parallel()

	// A message holding itself through a ref slot has a finite fixed
	// size. Only inline embedding can cycle.
	file := testutil.NewFile("tree.proto", "t").
		Message(testutil.NewMessage("Node").
			Field(testutil.NewField("value", 1, descriptor.TypeInt64)).
			Field(testutil.NewRepeatedField("children", 2, descriptor.TypeMessage).
				TypeName(".t.Node"))).
		Finish()

	node := findMessage(t, compileFiles(t, file), "t.Node")
	if node.Layout.Slots[1].Msg != node.Layout {
		t.Error("self reference does not point back at the same layout")
	}
}

func TestOneofLayout(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("oneof.proto", "o").
		Message(testutil.NewMessage("M").
			Oneof("sum").
			Field(testutil.NewField("a", 1, descriptor.TypeInt32).OneofIndex(0)).
			Field(testutil.NewField("b", 2, descriptor.TypeString).OneofIndex(0))).
		Finish()

	layout := findMessage(t, compileFiles(t, file), "o.M").Layout
	testutil.ExpectEq(t, 1, len(layout.Slots))

	slot := layout.Slots[0]
	testutil.ExpectEq(t, zeropb.KindOneof, slot.Kind)
	testutil.ExpectEq(t, uint32(0), slot.Offset)
	testutil.ExpectEq(t, uint32(8), slot.Size)
	testutil.ExpectEq(t, 2, len(slot.Members))
	for _, member := range slot.Members {
		testutil.ExpectEq(t, uint32(4), member.Offset)
	}
	testutil.ExpectEq(t, zeropb.KindInt32, slot.Members[0].Kind)
	testutil.ExpectEq(t, zeropb.KindRef, slot.Members[1].Kind)
	testutil.ExpectEq(t, uint32(12), layout.Unknown)
	testutil.ExpectEq(t, uint32(24), layout.FixedSize)
}

func TestLayoutsValidate(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("all.proto", "all").
		Message(testutil.NewMessage("Everything").
			Oneof("pick").
			Field(testutil.NewField("flag", 1, descriptor.TypeBool)).
			Field(testutil.NewField("name", 2, descriptor.TypeString)).
			Field(testutil.NewField("score", 3, descriptor.TypeInt32).Nullable(true)).
			Field(testutil.NewRepeatedField("tags", 4, descriptor.TypeString)).
			Field(testutil.NewField("x", 5, descriptor.TypeInt64).OneofIndex(0)).
			Field(testutil.NewField("y", 6, descriptor.TypeBytes).OneofIndex(0))).
		Finish()

	// planLayouts runs NewLayout over every planned layout; reaching
	// here means validation passed.
	msg := findMessage(t, compileFiles(t, file), "all.Everything")
	if msg.Layout.FixedSize%8 != 0 {
		t.Errorf("fixed size %d is not 8-byte aligned", msg.Layout.FixedSize)
	}
}
