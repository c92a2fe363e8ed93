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

package descriptor

import (
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// DecodeFileSet decodes the wire encoding of a FileDescriptorSet. An
// input whose top-level records are not the set's `file` field is
// decoded as a single bare FileDescriptorProto instead.
func DecodeFileSet(buf []uint8) (*FileSet, error) {
	if len(buf) == 0 {
		return nil, errEmptyInput()
	}
	set, setErr := decodeSet(buf)
	if setErr == nil {
		if len(set.Files) == 0 {
			return nil, errEmptyInput()
		}
		return set, nil
	}
	file, fileErr := decodeFile(buf, 0)
	if fileErr != nil {
		return nil, setErr
	}
	return &FileSet{Files: []*File{file}}, nil
}

// DecodeFile decodes the wire encoding of a single FileDescriptorProto.
func DecodeFile(buf []uint8) (*File, error) {
	return decodeFile(buf, 0)
}

func decodeSet(buf []uint8) (*FileSet, error) {
	const what = "FileDescriptorSet"
	set := &FileSet{}
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, off)
		}
		if num != 1 || wireType != protowire.BytesType {
			return nil, errWireType(what, num, wireType, off)
		}
		off += n
		value, n := protowire.ConsumeBytes(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, off)
		}
		file, err := decodeFile(value, off+n-len(value))
		if err != nil {
			return nil, err
		}
		set.Files = append(set.Files, file)
		off += n
	}
	return set, nil
}

func decodeFile(buf []uint8, base int) (*File, error) {
	const what = "FileDescriptorProto"
	file := &File{}
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		if num <= 0 {
			return nil, errFieldNumber(what, num, base+off)
		}
		tagOff := off
		off += n
		switch wireType {
		case protowire.BytesType:
			value, n := protowire.ConsumeBytes(buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+off)
			}
			valueBase := base + off + n - len(value)
			off += n
			switch num {
			case 1:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				file.Name = s
			case 2:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				file.Package = s
			case 3:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				file.Dependencies = append(file.Dependencies, s)
			case 4:
				msg, err := decodeMessage(value, valueBase)
				if err != nil {
					return nil, err
				}
				file.Messages = append(file.Messages, msg)
			case 5:
				enum, err := decodeEnum(value, valueBase)
				if err != nil {
					return nil, err
				}
				file.Enums = append(file.Enums, enum)
			case 6:
				svc, err := decodeService(value, valueBase)
				if err != nil {
					return nil, err
				}
				file.Services = append(file.Services, svc)
			case 7:
				field, err := decodeField(value, valueBase)
				if err != nil {
					return nil, err
				}
				file.Extensions = append(file.Extensions, field)
			case 8:
				opts, err := decodeFileOptions(value, valueBase)
				if err != nil {
					return nil, err
				}
				file.Options = opts
			case 10:
				// public_dependency, packed or unpacked
				idxs, err := decodeInt32s(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				file.PublicDependencies = append(file.PublicDependencies, idxs...)
			case 12:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				file.Syntax = s
			}
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+off)
			}
			off += n
			if num == 10 {
				file.PublicDependencies = append(file.PublicDependencies, int32(v))
			}
		default:
			n := protowire.ConsumeFieldValue(num, wireType, buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+tagOff)
			}
			off += n
		}
	}
	return file, nil
}

func decodeMessage(buf []uint8, base int) (*Message, error) {
	const what = "DescriptorProto"
	msg := &Message{}
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		if num <= 0 {
			return nil, errFieldNumber(what, num, base+off)
		}
		tagOff := off
		off += n
		if wireType != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, wireType, buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+tagOff)
			}
			off += n
			continue
		}
		value, n := protowire.ConsumeBytes(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		valueBase := base + off + n - len(value)
		off += n
		switch num {
		case 1:
			s, err := decodeString(what, num, value, valueBase)
			if err != nil {
				return nil, err
			}
			msg.Name = s
		case 2:
			field, err := decodeField(value, valueBase)
			if err != nil {
				return nil, err
			}
			msg.Fields = append(msg.Fields, field)
		case 3:
			nested, err := decodeMessage(value, valueBase)
			if err != nil {
				return nil, err
			}
			msg.Nested = append(msg.Nested, nested)
		case 4:
			enum, err := decodeEnum(value, valueBase)
			if err != nil {
				return nil, err
			}
			msg.Enums = append(msg.Enums, enum)
		case 5:
			r, err := decodeExtensionRange(value, valueBase)
			if err != nil {
				return nil, err
			}
			msg.ExtensionRanges = append(msg.ExtensionRanges, r)
		case 6:
			field, err := decodeField(value, valueBase)
			if err != nil {
				return nil, err
			}
			msg.Extensions = append(msg.Extensions, field)
		case 7:
			opts, err := decodeMessageOptions(value, valueBase)
			if err != nil {
				return nil, err
			}
			msg.Options = opts
		case 8:
			oneof, err := decodeOneof(value, valueBase)
			if err != nil {
				return nil, err
			}
			msg.Oneofs = append(msg.Oneofs, oneof)
		case 10:
			s, err := decodeString(what, num, value, valueBase)
			if err != nil {
				return nil, err
			}
			msg.ReservedNames = append(msg.ReservedNames, s)
		}
	}
	return msg, nil
}

func decodeField(buf []uint8, base int) (*Field, error) {
	const what = "FieldDescriptorProto"
	field := &Field{OneofIndex: -1}
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		if num <= 0 {
			return nil, errFieldNumber(what, num, base+off)
		}
		tagOff := off
		off += n
		switch wireType {
		case protowire.BytesType:
			value, n := protowire.ConsumeBytes(buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+off)
			}
			valueBase := base + off + n - len(value)
			off += n
			switch num {
			case 1:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				field.Name = s
			case 2:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				field.Extendee = s
			case 6:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				field.TypeName = s
			case 7:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				field.DefaultValue = s
			case 8:
				opts, err := decodeFieldOptions(value, valueBase)
				if err != nil {
					return nil, err
				}
				field.Options = opts
			case 10:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return nil, err
				}
				field.JSONName = s
			}
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+off)
			}
			valueOff := base + off
			off += n
			switch num {
			case 3:
				field.Number = int32(v)
			case 4:
				if v < 1 || v > 3 {
					return nil, errEnumValue(what, v, valueOff)
				}
				field.Label = Label(v)
			case 5:
				if v < 1 || v > 18 {
					return nil, errEnumValue(what, v, valueOff)
				}
				field.Type = Type(v)
			case 9:
				field.OneofIndex = int32(v)
			case 17:
				field.Proto3Optional = v != 0
			}
		default:
			n := protowire.ConsumeFieldValue(num, wireType, buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+tagOff)
			}
			off += n
		}
	}
	return field, nil
}

func decodeEnum(buf []uint8, base int) (*Enum, error) {
	const what = "EnumDescriptorProto"
	enum := &Enum{}
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		if num <= 0 {
			return nil, errFieldNumber(what, num, base+off)
		}
		tagOff := off
		off += n
		if wireType != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, wireType, buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+tagOff)
			}
			off += n
			continue
		}
		value, n := protowire.ConsumeBytes(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		valueBase := base + off + n - len(value)
		off += n
		switch num {
		case 1:
			s, err := decodeString(what, num, value, valueBase)
			if err != nil {
				return nil, err
			}
			enum.Name = s
		case 2:
			v, err := decodeEnumValue(value, valueBase)
			if err != nil {
				return nil, err
			}
			enum.Values = append(enum.Values, v)
		}
	}
	return enum, nil
}

func decodeEnumValue(buf []uint8, base int) (EnumValue, error) {
	const what = "EnumValueDescriptorProto"
	var value EnumValue
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return value, errTruncated(what, base+off)
		}
		tagOff := off
		off += n
		switch {
		case num == 1 && wireType == protowire.BytesType:
			v, n := protowire.ConsumeBytes(buf[off:])
			if n < 0 {
				return value, errTruncated(what, base+off)
			}
			s, err := decodeString(what, num, v, base+off+n-len(v))
			if err != nil {
				return value, err
			}
			value.Name = s
			off += n
		case num == 2 && wireType == protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf[off:])
			if n < 0 {
				return value, errTruncated(what, base+off)
			}
			value.Number = int32(v)
			off += n
		default:
			n := protowire.ConsumeFieldValue(num, wireType, buf[off:])
			if n < 0 {
				return value, errTruncated(what, base+tagOff)
			}
			off += n
		}
	}
	return value, nil
}

func decodeService(buf []uint8, base int) (*Service, error) {
	const what = "ServiceDescriptorProto"
	svc := &Service{}
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		tagOff := off
		off += n
		if wireType != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, wireType, buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+tagOff)
			}
			off += n
			continue
		}
		value, n := protowire.ConsumeBytes(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		valueBase := base + off + n - len(value)
		off += n
		switch num {
		case 1:
			s, err := decodeString(what, num, value, valueBase)
			if err != nil {
				return nil, err
			}
			svc.Name = s
		case 2:
			method, err := decodeMethod(value, valueBase)
			if err != nil {
				return nil, err
			}
			svc.Methods = append(svc.Methods, method)
		}
	}
	return svc, nil
}

func decodeMethod(buf []uint8, base int) (Method, error) {
	const what = "MethodDescriptorProto"
	var method Method
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return method, errTruncated(what, base+off)
		}
		tagOff := off
		off += n
		switch wireType {
		case protowire.BytesType:
			value, n := protowire.ConsumeBytes(buf[off:])
			if n < 0 {
				return method, errTruncated(what, base+off)
			}
			valueBase := base + off + n - len(value)
			off += n
			switch num {
			case 1:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return method, err
				}
				method.Name = s
			case 2:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return method, err
				}
				method.InputType = s
			case 3:
				s, err := decodeString(what, num, value, valueBase)
				if err != nil {
					return method, err
				}
				method.OutputType = s
			}
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf[off:])
			if n < 0 {
				return method, errTruncated(what, base+off)
			}
			off += n
			switch num {
			case 5:
				method.ClientStreaming = v != 0
			case 6:
				method.ServerStreaming = v != 0
			}
		default:
			n := protowire.ConsumeFieldValue(num, wireType, buf[off:])
			if n < 0 {
				return method, errTruncated(what, base+tagOff)
			}
			off += n
		}
	}
	return method, nil
}

func decodeOneof(buf []uint8, base int) (*Oneof, error) {
	const what = "OneofDescriptorProto"
	oneof := &Oneof{}
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		tagOff := off
		off += n
		if num == 1 && wireType == protowire.BytesType {
			value, n := protowire.ConsumeBytes(buf[off:])
			if n < 0 {
				return nil, errTruncated(what, base+off)
			}
			s, err := decodeString(what, num, value, base+off+n-len(value))
			if err != nil {
				return nil, err
			}
			oneof.Name = s
			off += n
			continue
		}
		n = protowire.ConsumeFieldValue(num, wireType, buf[off:])
		if n < 0 {
			return nil, errTruncated(what, base+tagOff)
		}
		off += n
	}
	return oneof, nil
}

func decodeExtensionRange(buf []uint8, base int) (ExtensionRange, error) {
	const what = "DescriptorProto.ExtensionRange"
	var r ExtensionRange
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return r, errTruncated(what, base+off)
		}
		tagOff := off
		off += n
		if wireType == protowire.VarintType {
			v, n := protowire.ConsumeVarint(buf[off:])
			if n < 0 {
				return r, errTruncated(what, base+off)
			}
			off += n
			switch num {
			case 1:
				r.Start = int32(v)
			case 2:
				r.End = int32(v)
			}
			continue
		}
		n = protowire.ConsumeFieldValue(num, wireType, buf[off:])
		if n < 0 {
			return r, errTruncated(what, base+tagOff)
		}
		off += n
	}
	return r, nil
}

func decodeFileOptions(buf []uint8, base int) (FileOptions, error) {
	const what = "FileOptions"
	var opts FileOptions
	err := scanOptions(what, buf, base, func(num protowire.Number, wireType protowire.Type, value []uint8, valueBase int) error {
		if num == 11 && wireType == protowire.BytesType {
			s, err := decodeString(what, num, value, valueBase)
			if err != nil {
				return err
			}
			opts.GoPackage = s
			return nil
		}
		if num >= 1000 {
			opts.Ext = append(opts.Ext, Extension{
				Number: int32(num),
				Wire:   wireType,
				Value:  value,
				Offset: valueBase,
			})
		}
		return nil
	})
	return opts, err
}

func decodeMessageOptions(buf []uint8, base int) (MessageOptions, error) {
	const what = "MessageOptions"
	var opts MessageOptions
	err := scanOptions(what, buf, base, func(num protowire.Number, wireType protowire.Type, value []uint8, valueBase int) error {
		if num == 7 && wireType == protowire.VarintType {
			v, _ := protowire.ConsumeVarint(value)
			opts.MapEntry = v != 0
			return nil
		}
		if num >= 1000 {
			opts.Ext = append(opts.Ext, Extension{
				Number: int32(num),
				Wire:   wireType,
				Value:  value,
				Offset: valueBase,
			})
		}
		return nil
	})
	return opts, err
}

func decodeFieldOptions(buf []uint8, base int) (FieldOptions, error) {
	const what = "FieldOptions"
	var opts FieldOptions
	err := scanOptions(what, buf, base, func(num protowire.Number, wireType protowire.Type, value []uint8, valueBase int) error {
		if wireType == protowire.VarintType {
			v, _ := protowire.ConsumeVarint(value)
			switch num {
			case 2:
				packed := v != 0
				opts.Packed = &packed
				return nil
			case 3:
				opts.Deprecated = v != 0
				return nil
			}
		}
		if num >= 1000 {
			opts.Ext = append(opts.Ext, Extension{
				Number: int32(num),
				Wire:   wireType,
				Value:  value,
				Offset: valueBase,
			})
		}
		return nil
	})
	return opts, err
}

// scanOptions walks an options message, handing every record (including
// extension-range numbers) to fn with its raw value bytes.
func scanOptions(
	what string,
	buf []uint8,
	base int,
	fn func(num protowire.Number, wireType protowire.Type, value []uint8, valueBase int) error,
) error {
	off := 0
	for off < len(buf) {
		num, wireType, n := protowire.ConsumeTag(buf[off:])
		if n < 0 {
			return errTruncated(what, base+off)
		}
		if num <= 0 {
			return errFieldNumber(what, num, base+off)
		}
		off += n
		var value []uint8
		valueBase := base + off
		switch wireType {
		case protowire.VarintType:
			_, n := protowire.ConsumeVarint(buf[off:])
			if n < 0 {
				return errTruncated(what, base+off)
			}
			value = buf[off : off+n]
			off += n
		case protowire.Fixed32Type:
			_, n := protowire.ConsumeFixed32(buf[off:])
			if n < 0 {
				return errTruncated(what, base+off)
			}
			value = buf[off : off+n]
			off += n
		case protowire.Fixed64Type:
			_, n := protowire.ConsumeFixed64(buf[off:])
			if n < 0 {
				return errTruncated(what, base+off)
			}
			value = buf[off : off+n]
			off += n
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(buf[off:])
			if n < 0 {
				return errTruncated(what, base+off)
			}
			value = v
			valueBase = base + off + n - len(v)
			off += n
		default:
			n := protowire.ConsumeFieldValue(num, wireType, buf[off:])
			if n < 0 {
				return errTruncated(what, base+off)
			}
			off += n
			continue
		}
		if err := fn(num, wireType, value, valueBase); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(what string, num protowire.Number, value []uint8, base int) (string, error) {
	if !utf8.Valid(value) {
		return "", errUTF8(what, num, base)
	}
	return string(value), nil
}

func decodeInt32s(what string, num protowire.Number, value []uint8, base int) ([]int32, error) {
	var out []int32
	off := 0
	for off < len(value) {
		v, n := protowire.ConsumeVarint(value[off:])
		if n < 0 {
			return nil, errTruncated(what, base+off)
		}
		out = append(out, int32(v))
		off += n
	}
	return out, nil
}
