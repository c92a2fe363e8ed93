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
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	"go.zeropb.org/zeropb/descriptor"
)

// Extension field numbers of the gogoproto options this compiler
// interprets. Any other extension number round-trips as opaque bytes.
const (
	extGoprotoGetters  = 64001
	extGoprotoStringer = 64003

	extNullable    = 65001
	extEmbed       = 65002
	extCustomType  = 65003
	extCustomName  = 65004
	extJSONTag     = 65005
	extMoreTags    = 65006
	extCastType    = 65007
	extCastKey     = 65008
	extCastValue   = 65009
	extStdTime     = 65010
	extStdDuration = 65011
)

var fieldOptionNames = map[int32]string{
	extNullable:    "nullable",
	extEmbed:       "embed",
	extCustomType:  "customtype",
	extCustomName:  "customname",
	extJSONTag:     "jsontag",
	extMoreTags:    "moretags",
	extCastType:    "casttype",
	extCastKey:     "castkey",
	extCastValue:   "castvalue",
	extStdTime:     "stdtime",
	extStdDuration: "stdduration",
}

var messageOptionNames = map[int32]string{
	extGoprotoGetters:  "goproto_getters",
	extGoprotoStringer: "goproto_stringer",
}

// FieldOptions holds the interpreted gogoproto options of one field.
// Pointer-typed options distinguish "unset" from an explicit value.
type FieldOptions struct {
	Nullable    *bool
	Embed       bool
	CustomType  string
	CustomName  string
	JSONTag     *string
	MoreTags    *string
	CastType    string
	CastKey     string
	CastValue   string
	StdTime     bool
	StdDuration bool

	Unknown []descriptor.Extension
}

// MessageOptions holds the interpreted gogoproto options of one
// message.
type MessageOptions struct {
	GoprotoGetters  *bool
	GoprotoStringer *bool

	Unknown []descriptor.Extension
}

func (c *compiler) interpretOptions() error {
	for _, file := range c.files {
		for _, msg := range file.Messages {
			if err := c.interpretMessageOptions(msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compiler) interpretMessageOptions(msg *Message) error {
	for _, ext := range msg.Desc.Options.Ext {
		switch ext.Number {
		case extGoprotoGetters:
			v, err := extBool(ext, msg.Name, messageOptionNames)
			if err != nil {
				return err
			}
			msg.Options.GoprotoGetters = &v
		case extGoprotoStringer:
			v, err := extBool(ext, msg.Name, messageOptionNames)
			if err != nil {
				return err
			}
			msg.Options.GoprotoStringer = &v
		default:
			msg.Options.Unknown = append(msg.Options.Unknown, ext)
		}
	}
	for _, field := range msg.Fields {
		if err := c.interpretFieldOptions(msg, field); err != nil {
			return err
		}
	}
	for _, nested := range msg.Nested {
		if err := c.interpretMessageOptions(nested); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) interpretFieldOptions(msg *Message, field *Field) error {
	fieldName := qualify(msg.Name, field.Desc.Name)
	opts := &field.Options
	for _, ext := range field.Desc.Options.Ext {
		switch ext.Number {
		case extNullable:
			v, err := extBool(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.Nullable = &v
		case extEmbed:
			v, err := extBool(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.Embed = v
		case extCustomType:
			v, err := extString(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.CustomType = v
		case extCustomName:
			v, err := extString(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.CustomName = v
		case extJSONTag:
			v, err := extString(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.JSONTag = &v
		case extMoreTags:
			v, err := extString(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.MoreTags = &v
		case extCastType:
			v, err := extString(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.CastType = v
		case extCastKey:
			v, err := extString(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.CastKey = v
		case extCastValue:
			v, err := extString(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.CastValue = v
		case extStdTime:
			v, err := extBool(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.StdTime = v
		case extStdDuration:
			v, err := extBool(ext, fieldName, fieldOptionNames)
			if err != nil {
				return err
			}
			opts.StdDuration = v
		default:
			opts.Unknown = append(opts.Unknown, ext)
		}
	}
	if opts.Embed && field.Message == nil {
		return errOptionTarget("embed", fieldName)
	}
	if (opts.StdTime || opts.StdDuration) && field.Message == nil {
		name := "stdtime"
		if opts.StdDuration {
			name = "stdduration"
		}
		return errOptionTarget(name, fieldName)
	}
	return nil
}

func extBool(ext descriptor.Extension, symbol string, names map[int32]string) (bool, error) {
	name := names[ext.Number]
	if ext.Wire != protowire.VarintType {
		return false, errOptionWireType(name, symbol)
	}
	v, n := protowire.ConsumeVarint(ext.Value)
	if n < 0 || n != len(ext.Value) {
		return false, errOptionValue(name, symbol, "truncated varint")
	}
	return v != 0, nil
}

func extString(ext descriptor.Extension, symbol string, names map[int32]string) (string, error) {
	name := names[ext.Number]
	if ext.Wire != protowire.BytesType {
		return "", errOptionWireType(name, symbol)
	}
	if !utf8.Valid(ext.Value) {
		return "", errOptionValue(name, symbol, "invalid UTF-8")
	}
	return string(ext.Value), nil
}
