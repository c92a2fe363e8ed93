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
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// DecodeError reports malformed descriptor wire bytes, with the byte
// offset of the violation in the original input.
type DecodeError struct {
	code    uint32
	message string
	offset  int
}

var _ error = (*DecodeError)(nil)

func (err *DecodeError) Error() string {
	return fmt.Sprintf("E%d: %s (at byte offset %d)", err.code, err.message, err.offset)
}

func (err *DecodeError) Code() uint32 {
	return err.code
}

func (err *DecodeError) Message() string {
	return err.message
}

func (err *DecodeError) Offset() int {
	return err.offset
}

func errTruncated(what string, offset int) error {
	return &DecodeError{
		code:    1000,
		message: fmt.Sprintf("Truncated or malformed field in %s", what),
		offset:  offset,
	}
}

func errFieldNumber(what string, number protowire.Number, offset int) error {
	return &DecodeError{
		code:    1001,
		message: fmt.Sprintf("Invalid field number %d in %s", number, what),
		offset:  offset,
	}
}

func errWireType(what string, number protowire.Number, wireType protowire.Type, offset int) error {
	return &DecodeError{
		code: 1002,
		message: fmt.Sprintf(
			"Invalid wire type %d for field %d of %s",
			wireType, number, what,
		),
		offset: offset,
	}
}

func errUTF8(what string, number protowire.Number, offset int) error {
	return &DecodeError{
		code: 1003,
		message: fmt.Sprintf(
			"Invalid UTF-8 in string field %d of %s",
			number, what,
		),
		offset: offset,
	}
}

func errEnumValue(what string, value uint64, offset int) error {
	return &DecodeError{
		code: 1004,
		message: fmt.Sprintf(
			"Invalid enum value %d in %s",
			value, what,
		),
		offset: offset,
	}
}

func errEmptyInput() error {
	return &DecodeError{
		code:    1005,
		message: "Descriptor input contains no files",
		offset:  0,
	}
}
