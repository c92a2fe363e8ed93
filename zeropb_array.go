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
	"iter"
	"math"
	"strconv"
	"strings"
)

func intsString[T int32 | int64](xs iter.Seq2[uint32, T]) string {
	var buf strings.Builder
	buf.WriteByte('[')
	for ii, x := range xs {
		if ii > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.FormatInt(int64(x), 10))
	}
	buf.WriteByte(']')
	return buf.String()
}

func uintsString[T uint32 | uint64](xs iter.Seq2[uint32, T]) string {
	var buf strings.Builder
	buf.WriteByte('[')
	for ii, x := range xs {
		if ii > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
	}
	buf.WriteByte(']')
	return buf.String()
}

// StringArray {{{

type StringArray struct {
	buf  []uint8
	refs []uint8
}

func (a StringArray) Len() uint32 {
	return uint32(len(a.refs) / refSize)
}

func (a StringArray) Get(idx uint32) (string, bool) {
	if idx >= a.Len() {
		return "", false
	}
	off := leUint32(a.refs[idx*refSize:])
	length := leUint32(a.refs[idx*refSize+4:])
	return string(a.buf[off : off+length]), true
}

func (a StringArray) Iter() iter.Seq2[uint32, string] {
	return func(yield func(uint32, string) bool) {
		len := a.Len()
		for ii := uint32(0); ii < len; ii++ {
			v, _ := a.Get(ii)
			if !yield(ii, v) {
				return
			}
		}
	}
}

func (a StringArray) Collect() []string {
	out := make([]string, 0, a.Len())
	for _, v := range a.Iter() {
		out = append(out, v)
	}
	return out
}

func (a StringArray) String() string {
	var out strings.Builder
	out.WriteByte('[')
	for ii, x := range a.Iter() {
		if ii > 0 {
			out.WriteString(", ")
		}
		out.WriteString(strconv.Quote(x))
	}
	out.WriteByte(']')
	return out.String()
}

// }}}

// BytesArray {{{

type BytesArray struct {
	buf  []uint8
	refs []uint8
}

func (a BytesArray) Len() uint32 {
	return uint32(len(a.refs) / refSize)
}

func (a BytesArray) Get(idx uint32) ([]uint8, bool) {
	if idx >= a.Len() {
		return nil, false
	}
	off := leUint32(a.refs[idx*refSize:])
	length := leUint32(a.refs[idx*refSize+4:])
	return a.buf[off : off+length], true
}

func (a BytesArray) Iter() iter.Seq2[uint32, []uint8] {
	return func(yield func(uint32, []uint8) bool) {
		len := a.Len()
		for ii := uint32(0); ii < len; ii++ {
			v, _ := a.Get(ii)
			if !yield(ii, v) {
				return
			}
		}
	}
}

func (a BytesArray) Collect() [][]uint8 {
	out := make([][]uint8, 0, a.Len())
	for _, v := range a.Iter() {
		out = append(out, v)
	}
	return out
}

// }}}

// MessageArray {{{

type MessageArray struct {
	buf    []uint8
	refs   []uint8
	layout *Layout
}

func (a MessageArray) Len() uint32 {
	return uint32(len(a.refs) / refSize)
}

func (a MessageArray) Get(idx uint32) (Message, bool) {
	if idx >= a.Len() {
		return Message{}, false
	}
	off := leUint32(a.refs[idx*refSize:])
	return Message{a.layout, a.buf, off}, true
}

func (a MessageArray) Iter() iter.Seq2[uint32, Message] {
	return func(yield func(uint32, Message) bool) {
		len := a.Len()
		for ii := uint32(0); ii < len; ii++ {
			v, _ := a.Get(ii)
			if !yield(ii, v) {
				return
			}
		}
	}
}

func (a MessageArray) Collect() []Message {
	out := make([]Message, 0, a.Len())
	for _, v := range a.Iter() {
		out = append(out, v)
	}
	return out
}

// }}}

// BoolArray {{{

type BoolArray struct {
	data []uint8
}

func (a BoolArray) Len() uint32 {
	return uint32(len(a.data))
}

func (a BoolArray) Get(idx uint32) (bool, bool) {
	if idx >= a.Len() {
		return false, false
	}
	return a.data[idx] != 0, true
}

func (a BoolArray) Iter() iter.Seq2[uint32, bool] {
	return func(yield func(uint32, bool) bool) {
		for ii, v := range a.data {
			if !yield(uint32(ii), v != 0) {
				return
			}
		}
	}
}

func (a BoolArray) Collect() []bool {
	out := make([]bool, len(a.data))
	for ii, v := range a.data {
		out[ii] = v != 0
	}
	return out
}

func (a BoolArray) String() string {
	var out strings.Builder
	out.WriteByte('[')
	for ii, x := range a.Iter() {
		if ii > 0 {
			out.WriteString(", ")
		}
		out.WriteString(strconv.FormatBool(x))
	}
	out.WriteByte(']')
	return out.String()
}

// }}}

// Int32Array {{{

type Int32Array struct {
	data []uint8
}

func (a Int32Array) Len() uint32 {
	return uint32(len(a.data) / 4)
}

func (a Int32Array) Get(idx uint32) (int32, bool) {
	if idx >= a.Len() {
		return 0, false
	}
	return int32(leUint32(a.data[idx*4:])), true
}

func (a Int32Array) Iter() iter.Seq2[uint32, int32] {
	return func(yield func(uint32, int32) bool) {
		len := a.Len()
		for ii := uint32(0); ii < len; ii++ {
			if !yield(ii, int32(leUint32(a.data[ii*4:]))) {
				return
			}
		}
	}
}

func (a Int32Array) Collect() []int32 {
	out := make([]int32, 0, a.Len())
	for _, v := range a.Iter() {
		out = append(out, v)
	}
	return out
}

func (a Int32Array) String() string {
	return intsString(a.Iter())
}

// }}}

// Uint32Array {{{

type Uint32Array struct {
	data []uint8
}

func (a Uint32Array) Len() uint32 {
	return uint32(len(a.data) / 4)
}

func (a Uint32Array) Get(idx uint32) (uint32, bool) {
	if idx >= a.Len() {
		return 0, false
	}
	return leUint32(a.data[idx*4:]), true
}

func (a Uint32Array) Iter() iter.Seq2[uint32, uint32] {
	return func(yield func(uint32, uint32) bool) {
		len := a.Len()
		for ii := uint32(0); ii < len; ii++ {
			if !yield(ii, leUint32(a.data[ii*4:])) {
				return
			}
		}
	}
}

func (a Uint32Array) Collect() []uint32 {
	out := make([]uint32, 0, a.Len())
	for _, v := range a.Iter() {
		out = append(out, v)
	}
	return out
}

func (a Uint32Array) String() string {
	return uintsString(a.Iter())
}

// }}}

// Int64Array {{{

type Int64Array struct {
	data []uint8
}

func (a Int64Array) Len() uint32 {
	return uint32(len(a.data) / 8)
}

func (a Int64Array) Get(idx uint32) (int64, bool) {
	if idx >= a.Len() {
		return 0, false
	}
	return int64(leUint64(a.data[idx*8:])), true
}

func (a Int64Array) Iter() iter.Seq2[uint32, int64] {
	return func(yield func(uint32, int64) bool) {
		len := a.Len()
		for ii := uint32(0); ii < len; ii++ {
			if !yield(ii, int64(leUint64(a.data[ii*8:]))) {
				return
			}
		}
	}
}

func (a Int64Array) Collect() []int64 {
	out := make([]int64, 0, a.Len())
	for _, v := range a.Iter() {
		out = append(out, v)
	}
	return out
}

func (a Int64Array) String() string {
	return intsString(a.Iter())
}

// }}}

// Uint64Array {{{

type Uint64Array struct {
	data []uint8
}

func (a Uint64Array) Len() uint32 {
	return uint32(len(a.data) / 8)
}

func (a Uint64Array) Get(idx uint32) (uint64, bool) {
	if idx >= a.Len() {
		return 0, false
	}
	return leUint64(a.data[idx*8:]), true
}

func (a Uint64Array) Iter() iter.Seq2[uint32, uint64] {
	return func(yield func(uint32, uint64) bool) {
		len := a.Len()
		for ii := uint32(0); ii < len; ii++ {
			if !yield(ii, leUint64(a.data[ii*8:])) {
				return
			}
		}
	}
}

func (a Uint64Array) Collect() []uint64 {
	out := make([]uint64, 0, a.Len())
	for _, v := range a.Iter() {
		out = append(out, v)
	}
	return out
}

func (a Uint64Array) String() string {
	return uintsString(a.Iter())
}

// }}}

// Float32Array {{{

type Float32Array struct {
	data []uint8
}

func (a Float32Array) Len() uint32 {
	return uint32(len(a.data) / 4)
}

func (a Float32Array) Get(idx uint32) (float32, bool) {
	if idx >= a.Len() {
		return 0, false
	}
	return math.Float32frombits(leUint32(a.data[idx*4:])), true
}

func (a Float32Array) Iter() iter.Seq2[uint32, float32] {
	return func(yield func(uint32, float32) bool) {
		len := a.Len()
		for ii := uint32(0); ii < len; ii++ {
			if !yield(ii, math.Float32frombits(leUint32(a.data[ii*4:]))) {
				return
			}
		}
	}
}

func (a Float32Array) Collect() []float32 {
	out := make([]float32, 0, a.Len())
	for _, v := range a.Iter() {
		out = append(out, v)
	}
	return out
}

// }}}

// Float64Array {{{

type Float64Array struct {
	data []uint8
}

func (a Float64Array) Len() uint32 {
	return uint32(len(a.data) / 8)
}

func (a Float64Array) Get(idx uint32) (float64, bool) {
	if idx >= a.Len() {
		return 0, false
	}
	return math.Float64frombits(leUint64(a.data[idx*8:])), true
}

func (a Float64Array) Iter() iter.Seq2[uint32, float64] {
	return func(yield func(uint32, float64) bool) {
		len := a.Len()
		for ii := uint32(0); ii < len; ii++ {
			if !yield(ii, math.Float64frombits(leUint64(a.data[ii*8:]))) {
				return
			}
		}
	}
}

func (a Float64Array) Collect() []float64 {
	out := make([]float64, 0, a.Len())
	for _, v := range a.Iter() {
		out = append(out, v)
	}
	return out
}

// }}}
