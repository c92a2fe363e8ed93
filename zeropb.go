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

// Package zeropb is the runtime for zeropb-generated protobuf bindings.
//
// Generated code represents each message as a view over a flat buffer: a
// fixed-width region of slots (one per field, laid out by the schema
// compiler) followed by a variable-data region holding strings, nested
// messages, and repeated values. Field accessors compute offsets into the
// buffer instead of decoding into an owned intermediate structure.
package zeropb

import (
	"encoding/binary"
)

const (
	// MaxMessageSize is the largest buffer a message view will accept.
	MaxMessageSize uint32 = 0x7FF00000

	// refSize is the width of a variable-region reference: a u32 byte
	// offset followed by a u32 byte length, both relative to the start
	// of the message buffer.
	refSize = 8
)

func leUint32(buf []uint8) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

func leUint64(buf []uint8) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

func putLeUint32(buf []uint8, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

func putLeUint64(buf []uint8, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
}
