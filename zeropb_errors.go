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
	"fmt"
)

type Error struct {
	code    uint32
	message string
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func errLayoutFixedSize(name string, size uint32) error {
	return &Error{
		code: 100,
		message: fmt.Sprintf(
			"Layout for '%s' has invalid fixed size %d", name, size,
		),
	}
}

func errLayoutSlotKind(name, slot string) error {
	return &Error{
		code: 101,
		message: fmt.Sprintf(
			"Layout for '%s' has slot '%s' with invalid kind", name, slot,
		),
	}
}

func errLayoutSlotRange(name, slot string, offset uint32) error {
	return &Error{
		code: 102,
		message: fmt.Sprintf(
			"Layout for '%s' has slot '%s' (offset %d) outside the fixed region",
			name, slot, offset,
		),
	}
}

func errLayoutMissingElem(name, slot string) error {
	return &Error{
		code: 103,
		message: fmt.Sprintf(
			"Layout for '%s' has message slot '%s' without an element layout",
			name, slot,
		),
	}
}

func errLayoutFieldNumber(name string, field int32) error {
	return &Error{
		code: 104,
		message: fmt.Sprintf(
			"Layout for '%s' has invalid field number %d", name, field,
		),
	}
}

func errLayoutFieldConflict(name string, field int32) error {
	return &Error{
		code: 105,
		message: fmt.Sprintf(
			"Layout for '%s' has duplicate field number %d", name, field,
		),
	}
}

func errLayoutInlineCycle(name string) error {
	return &Error{
		code: 106,
		message: fmt.Sprintf(
			"Layout for '%s' embeds itself through inline slots", name,
		),
	}
}

func errBufferTooLarge(size int) error {
	return &Error{
		code:    110,
		message: fmt.Sprintf("Message buffer of %d bytes exceeds maximum size", size),
	}
}

func errBufferTruncated(name string, size int) error {
	return &Error{
		code: 111,
		message: fmt.Sprintf(
			"Message buffer of %d bytes is smaller than the fixed region of '%s'",
			size, name,
		),
	}
}

func errRefOutOfBounds(name, slot string, off, length uint32) error {
	return &Error{
		code: 112,
		message: fmt.Sprintf(
			"Ref [%d, +%d) in slot '%s' of '%s' is outside the message buffer",
			off, length, slot, name,
		),
	}
}

func errRefMisaligned(name, slot string, length uint32) error {
	return &Error{
		code: 113,
		message: fmt.Sprintf(
			"Ref region of %d bytes in slot '%s' of '%s' is not a whole"+
				" number of elements",
			length, slot, name,
		),
	}
}

func errOneofUnknownCase(name, slot string, field int32) error {
	return &Error{
		code: 114,
		message: fmt.Sprintf(
			"Oneof '%s' of '%s' has discriminant %d naming no member",
			slot, name, field,
		),
	}
}

func errWireTruncated(name string, offset int) error {
	return &Error{
		code: 120,
		message: fmt.Sprintf(
			"Wire data for '%s' is malformed at byte offset %d", name, offset,
		),
	}
}

func errWireDepth(name string) error {
	return &Error{
		code: 121,
		message: fmt.Sprintf(
			"Wire data for '%s' nests messages deeper than the decoder allows",
			name,
		),
	}
}

func errBuilderFieldKind(name, slot string) error {
	return &Error{
		code: 130,
		message: fmt.Sprintf(
			"Value for slot '%s' of '%s' does not match the slot kind",
			slot, name,
		),
	}
}
