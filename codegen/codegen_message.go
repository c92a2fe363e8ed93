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

package codegen

import (
	"fmt"

	"go.zeropb.org/zeropb"
	"go.zeropb.org/zeropb/compiler"
	"go.zeropb.org/zeropb/descriptor"
)

func (g *generator) emitMessage(msg *compiler.Message) error {
	if msg.IsMapEntry() && len(msg.Fields) != 2 {
		return errMapEntryShape(msg.Name, len(msg.Fields))
	}
	g.usesRuntime = true
	if err := g.emitLayout(msg); err != nil {
		return err
	}
	g.emitView(msg)
	slots := slotIndexes(msg)
	for _, field := range msg.Fields {
		if field.Oneof != nil {
			continue
		}
		if err := g.emitAccessor(msg, field, slots.field[field]); err != nil {
			return err
		}
	}
	for _, oneof := range msg.Oneofs {
		if len(oneof.Fields) == 0 {
			continue
		}
		if err := g.emitOneofAccessors(msg, oneof, slots.oneof[oneof]); err != nil {
			return err
		}
	}
	return g.emitBuilder(msg, slots)
}

// Layout emission {{{

var kindNames = map[zeropb.Kind]string{
	zeropb.KindBool:    "zeropb.KindBool",
	zeropb.KindInt32:   "zeropb.KindInt32",
	zeropb.KindUint32:  "zeropb.KindUint32",
	zeropb.KindInt64:   "zeropb.KindInt64",
	zeropb.KindUint64:  "zeropb.KindUint64",
	zeropb.KindFloat32: "zeropb.KindFloat32",
	zeropb.KindFloat64: "zeropb.KindFloat64",
	zeropb.KindEnum:    "zeropb.KindEnum",
	zeropb.KindRef:     "zeropb.KindRef",
	zeropb.KindInline:  "zeropb.KindInline",
	zeropb.KindOneof:   "zeropb.KindOneof",
}

var wireNames = map[zeropb.WireKind]string{
	zeropb.WireVarint:   "zeropb.WireVarint",
	zeropb.WireZigZag32: "zeropb.WireZigZag32",
	zeropb.WireZigZag64: "zeropb.WireZigZag64",
	zeropb.WireFixed32:  "zeropb.WireFixed32",
	zeropb.WireFixed64:  "zeropb.WireFixed64",
	zeropb.WireBytes:    "zeropb.WireBytes",
}

var shapeNames = map[zeropb.RefShape]string{
	zeropb.ShapeBytes:    "zeropb.ShapeBytes",
	zeropb.ShapeMessage:  "zeropb.ShapeMessage",
	zeropb.ShapePacked:   "zeropb.ShapePacked",
	zeropb.ShapeRefArray: "zeropb.ShapeRefArray",
}

// emitLayout writes the layout literal for a message. Layout pointers
// between messages may be cyclic, so slot Msg fields are wired in the
// generated init function rather than in the literal.
func (g *generator) emitLayout(msg *compiler.Message) error {
	layout := msg.Layout
	if layout == nil {
		return errMissingLayout(msg.Name)
	}
	name := layoutVar(msg)
	g.printf("var %s = &zeropb.Layout{\n", name)
	g.printf("\tName: %q,\n", layout.Name)
	if len(layout.Slots) > 0 {
		g.printf("\tSlots: []zeropb.Slot{\n")
		for ii := range layout.Slots {
			path := fmt.Sprintf("%s.Slots[%d]", name, ii)
			if err := g.emitSlot(path, &layout.Slots[ii], 2); err != nil {
				return err
			}
		}
		g.printf("\t},\n")
	}
	g.printf("\tFixedSize: %d,\n", layout.FixedSize)
	if layout.Presence > 0 {
		g.printf("\tPresence: %d,\n", layout.Presence)
	}
	g.printf("\tUnknown: %d,\n", layout.Unknown)
	g.printf("}\n\n")
	g.validates = append(g.validates, fmt.Sprintf("zeropb.MustLayout(%s)", name))
	return nil
}

func (g *generator) emitSlot(path string, slot *zeropb.Slot, depth int) error {
	tabs := "\t\t\t\t\t\t"[:depth]
	g.printf("%s{\n", tabs)
	if slot.Field != 0 {
		g.printf("%s\tField: %d,\n", tabs, slot.Field)
	}
	g.printf("%s\tName: %q,\n", tabs, slot.Name)
	g.printf("%s\tKind: %s,\n", tabs, kindNames[slot.Kind])
	if slot.Wire != 0 {
		g.printf("%s\tWire: %s,\n", tabs, wireNames[slot.Wire])
	}
	if slot.Shape != 0 {
		g.printf("%s\tShape: %s,\n", tabs, shapeNames[slot.Shape])
	}
	if slot.Elem != 0 {
		g.printf("%s\tElem: %s,\n", tabs, shapeNames[slot.Elem])
	}
	g.printf("%s\tOffset: %d,\n", tabs, slot.Offset)
	if slot.Size != 0 {
		g.printf("%s\tSize: %d,\n", tabs, slot.Size)
	}
	g.printf("%s\tBit: %d,\n", tabs, slot.Bit)
	if slot.Msg != nil {
		target, ok := g.owners[slot.Msg]
		if !ok {
			return errMissingLayout(slot.Msg.Name)
		}
		g.wiring = append(g.wiring, fmt.Sprintf(
			"%s.Msg = %s", path, g.layoutRef(target),
		))
	}
	if len(slot.Members) > 0 {
		g.printf("%s\tMembers: []zeropb.Slot{\n", tabs)
		for jj := range slot.Members {
			memberPath := fmt.Sprintf("%s.Members[%d]", path, jj)
			if err := g.emitSlot(memberPath, &slot.Members[jj], depth+2); err != nil {
				return err
			}
		}
		g.printf("%s\t},\n", tabs)
	}
	g.printf("%s},\n", tabs)
	return nil
}

// }}}

// View types {{{

func (g *generator) emitView(msg *compiler.Message) {
	name := viewName(msg)
	g.printf("// %s is a zero-copy view of %s.\n", name, msg.Name)
	g.printf("type %s struct {\n", name)
	g.printf("\tMsg zeropb.Message\n")
	g.printf("}\n\n")

	g.printf("func Decode%s(buf []uint8) (%s, error) {\n", name, name)
	g.printf("\tmsg, err := zeropb.Decode(%s, buf)\n", layoutVar(msg))
	g.printf("\tif err != nil {\n")
	g.printf("\t\treturn %s{}, err\n", name)
	g.printf("\t}\n")
	g.printf("\treturn %s{Msg: msg}, nil\n", name)
	g.printf("}\n\n")

	g.printf("func View%s(buf []uint8) (%s, error) {\n", name, name)
	g.printf("\tmsg, err := zeropb.View(%s, buf)\n", layoutVar(msg))
	g.printf("\tif err != nil {\n")
	g.printf("\t\treturn %s{}, err\n", name)
	g.printf("\t}\n")
	g.printf("\treturn %s{Msg: msg}, nil\n", name)
	g.printf("}\n\n")

	g.printf("func (v %s) Encode() ([]uint8, error) {\n", name)
	g.printf("\treturn zeropb.Encode(v.Msg)\n")
	g.printf("}\n\n")
}

// }}}

// Accessors {{{

type scalarInfo struct {
	goType string
	access string
	array  string
}

func scalarAccess(t descriptor.Type) (scalarInfo, bool) {
	switch t {
	case descriptor.TypeBool:
		return scalarInfo{"bool", "Bool", "Bools"}, true
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32:
		return scalarInfo{"int32", "Int32", "Int32s"}, true
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		return scalarInfo{"uint32", "Uint32", "Uint32s"}, true
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		return scalarInfo{"int64", "Int64", "Int64s"}, true
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		return scalarInfo{"uint64", "Uint64", "Uint64s"}, true
	case descriptor.TypeFloat:
		return scalarInfo{"float32", "Float32", "Float32s"}, true
	case descriptor.TypeDouble:
		return scalarInfo{"float64", "Float64", "Float64s"}, true
	}
	return scalarInfo{}, false
}

func arrayType(array string) string {
	switch array {
	case "Bools":
		return "zeropb.BoolArray"
	case "Int32s":
		return "zeropb.Int32Array"
	case "Uint32s":
		return "zeropb.Uint32Array"
	case "Int64s":
		return "zeropb.Int64Array"
	case "Uint64s":
		return "zeropb.Uint64Array"
	case "Float32s":
		return "zeropb.Float32Array"
	case "Float64s":
		return "zeropb.Float64Array"
	}
	return ""
}

// castType returns the casttype to apply to a field. For the key and
// value fields of a synthesized map entry, the castkey and castvalue
// options of the owning map field take over.
func (g *generator) castType(msg *compiler.Message, field *compiler.Field) string {
	if owner, ok := g.entryFields[msg]; ok && len(msg.Fields) == 2 {
		if field == msg.Fields[0] && owner.Options.CastKey != "" {
			return owner.Options.CastKey
		}
		if field == msg.Fields[1] && owner.Options.CastValue != "" {
			return owner.Options.CastValue
		}
	}
	return field.Options.CastType
}

func (g *generator) emitAccessor(msg *compiler.Message, field *compiler.Field, slot int) error {
	view := viewName(msg)
	name := methodName(field)
	fieldSym := msg.Name + "." + field.Desc.Name

	if field.IsRepeated() {
		return g.emitRepeatedAccessor(view, name, field, slot)
	}

	if field.Options.CustomType != "" && field.Message == nil {
		typ, err := g.typeSpecRef("customtype", field.Options.CustomType, fieldSym)
		if err != nil {
			return err
		}
		g.printf("func (v %s) %s() (%s, error) {\n", view, name, typ)
		g.printf("\tvar x %s\n", typ)
		g.printf("\tif err := x.Unmarshal(v.Msg.Bytes(%d)); err != nil {\n", slot)
		g.printf("\t\treturn x, err\n")
		g.printf("\t}\n")
		g.printf("\treturn x, nil\n")
		g.printf("}\n\n")
		g.printf("func (v %s) %sBytes() []uint8 {\n", view, name)
		g.printf("\treturn v.Msg.Bytes(%d)\n", slot)
		g.printf("}\n\n")
		g.emitHas(view, name, slot)
		return nil
	}

	switch field.Desc.Type {
	case descriptor.TypeString:
		if err := g.emitSimpleAccessor(view, name, "string", "String", slot, g.castType(msg, field)); err != nil {
			return err
		}
		g.emitHas(view, name, slot)
	case descriptor.TypeBytes:
		if err := g.emitSimpleAccessor(view, name, "[]uint8", "Bytes", slot, g.castType(msg, field)); err != nil {
			return err
		}
		g.emitHas(view, name, slot)
	case descriptor.TypeEnum:
		typ := g.enumRef(field.Enum)
		g.printf("func (v %s) %s() %s {\n", view, name, typ)
		g.printf("\treturn %s(v.Msg.Enum(%d))\n", typ, slot)
		g.printf("}\n\n")
		if field.Desc.Proto3Optional || field.Options.Nullable != nil {
			g.emitHas(view, name, slot)
		}
	case descriptor.TypeMessage:
		typ := g.messageRef(field.Message)
		if isInlineField(field) {
			g.printf("func (v %s) %s() %s {\n", view, name, typ)
			g.printf("\treturn %s{Msg: v.Msg.Inline(%d)}\n", typ, slot)
			g.printf("}\n\n")
		} else {
			g.printf("func (v %s) %s() (%s, bool) {\n", view, name, typ)
			g.printf("\tm, ok := v.Msg.Message(%d)\n", slot)
			g.printf("\treturn %s{Msg: m}, ok\n", typ)
			g.printf("}\n\n")
		}
		g.emitHas(view, name, slot)
	default:
		info, ok := scalarAccess(field.Desc.Type)
		if !ok {
			return errBadTypeSpec("type", field.Desc.Type.String(), fieldSym)
		}
		if err := g.emitSimpleAccessor(view, name, info.goType, info.access, slot, g.castType(msg, field)); err != nil {
			return err
		}
		if field.Desc.Proto3Optional || field.Options.Nullable != nil {
			g.emitHas(view, name, slot)
		}
	}
	return nil
}

// emitSimpleAccessor writes a one-line accessor, wrapping the raw value
// in a casttype conversion when one applies.
func (g *generator) emitSimpleAccessor(view, name, goType, access string, slot int, cast string) error {
	if cast != "" {
		typ, err := g.typeSpecRef("casttype", cast, view+"."+name)
		if err != nil {
			return err
		}
		g.printf("func (v %s) %s() %s {\n", view, name, typ)
		g.printf("\treturn %s(v.Msg.%s(%d))\n", typ, access, slot)
		g.printf("}\n\n")
		return nil
	}
	g.printf("func (v %s) %s() %s {\n", view, name, goType)
	g.printf("\treturn v.Msg.%s(%d)\n", access, slot)
	g.printf("}\n\n")
	return nil
}

func (g *generator) emitHas(view, name string, slot int) {
	g.printf("func (v %s) Has%s() bool {\n", view, name)
	g.printf("\treturn v.Msg.Has(%d)\n", slot)
	g.printf("}\n\n")
}

func (g *generator) emitRepeatedAccessor(view, name string, field *compiler.Field, slot int) error {
	switch {
	case field.Message != nil:
		typ := g.messageRef(field.Message)
		g.printf("func (v %s) %s() zeropb.MessageArray {\n", view, name)
		g.printf("\treturn v.Msg.Messages(%d)\n", slot)
		g.printf("}\n\n")
		g.printf("func (v %s) %sAt(idx uint32) (%s, bool) {\n", view, name, typ)
		g.printf("\tm, ok := v.Msg.Messages(%d).Get(idx)\n", slot)
		g.printf("\treturn %s{Msg: m}, ok\n", typ)
		g.printf("}\n\n")
	case field.Desc.Type == descriptor.TypeString:
		g.printf("func (v %s) %s() zeropb.StringArray {\n", view, name)
		g.printf("\treturn v.Msg.Strings(%d)\n", slot)
		g.printf("}\n\n")
	case field.Desc.Type == descriptor.TypeBytes:
		g.printf("func (v %s) %s() zeropb.BytesArray {\n", view, name)
		g.printf("\treturn v.Msg.BytesArray(%d)\n", slot)
		g.printf("}\n\n")
	case field.Desc.Type == descriptor.TypeEnum:
		g.printf("func (v %s) %s() zeropb.Int32Array {\n", view, name)
		g.printf("\treturn v.Msg.Enums(%d)\n", slot)
		g.printf("}\n\n")
	default:
		info, ok := scalarAccess(field.Desc.Type)
		if !ok {
			fieldSym := field.Parent.Name + "." + field.Desc.Name
			return errBadTypeSpec("type", field.Desc.Type.String(), fieldSym)
		}
		g.printf("func (v %s) %s() %s {\n", view, name, arrayType(info.array))
		g.printf("\treturn v.Msg.%s(%d)\n", info.array, slot)
		g.printf("}\n\n")
	}
	return nil
}

func (g *generator) emitOneofAccessors(msg *compiler.Message, oneof *compiler.Oneof, slot int) error {
	view := viewName(msg)
	caseName := goName(oneof.Name)

	g.printf("// %sCase returns the field number of the set %s member,\n", caseName, oneof.Name)
	g.printf("// or zero when none is set.\n")
	g.printf("func (v %s) %sCase() int32 {\n", view, caseName)
	g.printf("\treturn v.Msg.Oneof(%d)\n", slot)
	g.printf("}\n\n")

	for _, field := range oneof.Fields {
		name := methodName(field)
		number := field.Desc.Number
		switch field.Desc.Type {
		case descriptor.TypeMessage:
			typ := g.messageRef(field.Message)
			g.printf("func (v %s) %s() (%s, bool) {\n", view, name, typ)
			g.printf("\tmember := v.Msg.OneofMember(%d)\n", slot)
			g.printf("\tif member == nil || member.Field != %d {\n", number)
			g.printf("\t\treturn %s{}, false\n", typ)
			g.printf("\t}\n")
			g.printf("\tm, ok := v.Msg.SlotMessage(member)\n")
			g.printf("\treturn %s{Msg: m}, ok\n", typ)
			g.printf("}\n\n")
		case descriptor.TypeString:
			g.emitOneofScalar(view, name, "string", "SlotString", `""`, slot, number)
		case descriptor.TypeBytes:
			g.emitOneofScalar(view, name, "[]uint8", "SlotBytes", "nil", slot, number)
		case descriptor.TypeEnum:
			typ := g.enumRef(field.Enum)
			g.printf("func (v %s) %s() (%s, bool) {\n", view, name, typ)
			g.printf("\tmember := v.Msg.OneofMember(%d)\n", slot)
			g.printf("\tif member == nil || member.Field != %d {\n", number)
			g.printf("\t\treturn 0, false\n")
			g.printf("\t}\n")
			g.printf("\treturn %s(v.Msg.SlotInt32(member)), true\n", typ)
			g.printf("}\n\n")
		default:
			info, ok := scalarAccess(field.Desc.Type)
			if !ok {
				fieldSym := msg.Name + "." + field.Desc.Name
				return errBadTypeSpec("type", field.Desc.Type.String(), fieldSym)
			}
			zero := "0"
			if info.goType == "bool" {
				zero = "false"
			}
			g.emitOneofScalar(view, name, info.goType, "Slot"+info.access, zero, slot, number)
		}
	}
	return nil
}

func (g *generator) emitOneofScalar(view, name, goType, access, zero string, slot int, number int32) {
	g.printf("func (v %s) %s() (%s, bool) {\n", view, name, goType)
	g.printf("\tmember := v.Msg.OneofMember(%d)\n", slot)
	g.printf("\tif member == nil || member.Field != %d {\n", number)
	g.printf("\t\treturn %s, false\n", zero)
	g.printf("\t}\n")
	g.printf("\treturn v.Msg.%s(member), true\n", access)
	g.printf("}\n\n")
}

func isInlineField(field *compiler.Field) bool {
	if field.Message == nil || field.IsRepeated() || field.Oneof != nil {
		return false
	}
	if field.Options.Embed {
		return true
	}
	return field.Options.Nullable != nil && !*field.Options.Nullable
}

// }}}

// Builders {{{

func (g *generator) emitBuilder(msg *compiler.Message, slots msgSlots) error {
	view := viewName(msg)
	builder := view + "Builder"

	g.printf("// %s constructs %s messages through the encode path.\n", builder, msg.Name)
	g.printf("type %s struct {\n", builder)
	g.printf("\tB *zeropb.Builder\n")
	g.printf("}\n\n")

	g.printf("func New%s() *%s {\n", builder, builder)
	g.printf("\treturn &%s{B: zeropb.NewBuilder(%s)}\n", builder, layoutVar(msg))
	g.printf("}\n\n")

	for _, field := range msg.Fields {
		if err := g.emitBuilderField(msg, field, slots.field[field], builder); err != nil {
			return err
		}
	}

	g.printf("func (b *%s) Encode() ([]uint8, error) {\n", builder)
	g.printf("\treturn b.B.Encode()\n")
	g.printf("}\n\n")

	g.printf("func (b *%s) Finish() (%s, error) {\n", builder, view)
	g.printf("\tmsg, err := b.B.Finish()\n")
	g.printf("\tif err != nil {\n")
	g.printf("\t\treturn %s{}, err\n", view)
	g.printf("\t}\n")
	g.printf("\treturn %s{Msg: msg}, nil\n", view)
	g.printf("}\n\n")
	return nil
}

func (g *generator) emitBuilderField(msg *compiler.Message, field *compiler.Field, slot int, builder string) error {
	name := methodName(field)
	fieldSym := msg.Name + "." + field.Desc.Name

	if field.Oneof != nil {
		return g.emitBuilderOneofField(field, slot, builder, name)
	}

	if field.IsRepeated() {
		switch {
		case field.Message != nil:
			typ := g.messageRef(field.Message)
			g.printf("func (b *%s) Add%s() *%sBuilder {\n", builder, name, typ)
			g.printf("\treturn &%sBuilder{B: b.B.AddMessage(%d)}\n", typ, slot)
			g.printf("}\n\n")
		case field.Desc.Type == descriptor.TypeString:
			g.printf("func (b *%s) Add%s(v string) *%s {\n", builder, name, builder)
			g.printf("\tb.B.AddString(%d, v)\n", slot)
			g.printf("\treturn b\n")
			g.printf("}\n\n")
		case field.Desc.Type == descriptor.TypeBytes:
			g.printf("func (b *%s) Add%s(v []uint8) *%s {\n", builder, name, builder)
			g.printf("\tb.B.AddBytes(%d, v)\n", slot)
			g.printf("\treturn b\n")
			g.printf("}\n\n")
		case field.Desc.Type == descriptor.TypeEnum:
			typ := g.enumRef(field.Enum)
			g.printf("func (b *%s) Add%s(v %s) *%s {\n", builder, name, typ, builder)
			g.printf("\tb.B.AddEnum(%d, int32(v))\n", slot)
			g.printf("\treturn b\n")
			g.printf("}\n\n")
		default:
			info, ok := scalarAccess(field.Desc.Type)
			if !ok {
				return errBadTypeSpec("type", field.Desc.Type.String(), fieldSym)
			}
			g.printf("func (b *%s) Add%s(v %s) *%s {\n", builder, name, info.goType, builder)
			g.printf("\tb.B.Add%s(%d, v)\n", info.access, slot)
			g.printf("\treturn b\n")
			g.printf("}\n\n")
		}
		return nil
	}

	if field.Options.CustomType != "" && field.Message == nil {
		typ, err := g.typeSpecRef("customtype", field.Options.CustomType, fieldSym)
		if err != nil {
			return err
		}
		g.printf("func (b *%s) Set%s(v %s) error {\n", builder, name, typ)
		g.printf("\tdata, err := v.Marshal()\n")
		g.printf("\tif err != nil {\n")
		g.printf("\t\treturn err\n")
		g.printf("\t}\n")
		g.printf("\tb.B.SetBytes(%d, data)\n", slot)
		g.printf("\treturn nil\n")
		g.printf("}\n\n")
		return nil
	}

	switch field.Desc.Type {
	case descriptor.TypeMessage:
		typ := g.messageRef(field.Message)
		g.printf("func (b *%s) %s() *%sBuilder {\n", builder, name, typ)
		g.printf("\treturn &%sBuilder{B: b.B.Message(%d)}\n", typ, slot)
		g.printf("}\n\n")
	case descriptor.TypeString:
		return g.emitBuilderSetter(builder, name, "string", "SetString", slot, g.castType(msg, field))
	case descriptor.TypeBytes:
		return g.emitBuilderSetter(builder, name, "[]uint8", "SetBytes", slot, g.castType(msg, field))
	case descriptor.TypeEnum:
		typ := g.enumRef(field.Enum)
		g.printf("func (b *%s) Set%s(v %s) *%s {\n", builder, name, typ, builder)
		g.printf("\tb.B.SetEnum(%d, int32(v))\n", slot)
		g.printf("\treturn b\n")
		g.printf("}\n\n")
	default:
		info, ok := scalarAccess(field.Desc.Type)
		if !ok {
			return errBadTypeSpec("type", field.Desc.Type.String(), fieldSym)
		}
		return g.emitBuilderSetter(builder, name, info.goType, "Set"+info.access, slot, g.castType(msg, field))
	}
	return nil
}

func (g *generator) emitBuilderSetter(builder, name, goType, setter string, slot int, cast string) error {
	if cast != "" {
		typ, err := g.typeSpecRef("casttype", cast, builder+"."+name)
		if err != nil {
			return err
		}
		g.printf("func (b *%s) Set%s(v %s) *%s {\n", builder, name, typ, builder)
		g.printf("\tb.B.%s(%d, %s(v))\n", setter, slot, goType)
		g.printf("\treturn b\n")
		g.printf("}\n\n")
		return nil
	}
	g.printf("func (b *%s) Set%s(v %s) *%s {\n", builder, name, goType, builder)
	g.printf("\tb.B.%s(%d, v)\n", setter, slot)
	g.printf("\treturn b\n")
	g.printf("}\n\n")
	return nil
}

func (g *generator) emitBuilderOneofField(field *compiler.Field, slot int, builder, name string) error {
	number := field.Desc.Number
	switch field.Desc.Type {
	case descriptor.TypeMessage:
		typ := g.messageRef(field.Message)
		g.printf("func (b *%s) %s() *%sBuilder {\n", builder, name, typ)
		g.printf("\treturn &%sBuilder{B: b.B.OneofMessage(%d, %d)}\n", typ, slot, number)
		g.printf("}\n\n")
		return nil
	case descriptor.TypeString:
		g.printf("func (b *%s) Set%s(v string) *%s {\n", builder, name, builder)
		g.printf("\tb.B.SetOneofString(%d, %d, v)\n", slot, number)
	case descriptor.TypeBytes:
		g.printf("func (b *%s) Set%s(v []uint8) *%s {\n", builder, name, builder)
		g.printf("\tb.B.SetOneofBytes(%d, %d, v)\n", slot, number)
	case descriptor.TypeEnum:
		typ := g.enumRef(field.Enum)
		g.printf("func (b *%s) Set%s(v %s) *%s {\n", builder, name, typ, builder)
		g.printf("\tb.B.SetOneofEnum(%d, %d, int32(v))\n", slot, number)
	default:
		info, ok := scalarAccess(field.Desc.Type)
		if !ok {
			fieldSym := field.Parent.Name + "." + field.Desc.Name
			return errBadTypeSpec("type", field.Desc.Type.String(), fieldSym)
		}
		g.printf("func (b *%s) Set%s(v %s) *%s {\n", builder, name, info.goType, builder)
		g.printf("\tb.B.SetOneof%s(%d, %d, v)\n", info.access, slot, number)
	}
	g.printf("\treturn b\n")
	g.printf("}\n\n")
	return nil
}

// }}}
