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

package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"go.zeropb.org/zeropb/codegen"
	"go.zeropb.org/zeropb/compiler"
)

// Allocations handed across the wasm boundary are kept alive here until
// the host deallocates them.
var buffers = make(map[*uint8][]uint8)

//go:export zeropb_codegen_allocate
func zeropbCodegenAllocate(len uint32) *uint8 {
	if len > math.MaxInt32 {
		return nil
	}
	buf := make([]uint8, int(len))
	ptr := unsafe.SliceData(buf)
	buffers[ptr] = buf
	return ptr
}

//go:export zeropb_codegen_deallocate
func zeropbCodegenDeallocate(ptr *uint8) {
	delete(buffers, ptr)
}

//go:export zeropb_codegen_generate
func zeropbCodegenGenerate(requestPtr *uint8, responsePtrPtr **uint8) uint8 {
	requestLen := binary.LittleEndian.Uint32(unsafe.Slice(requestPtr, 4))
	requestBuf := unsafe.Slice(requestPtr, requestLen)
	srcBuf := requestBuf[4:]

	result, err := compiler.CompileBytes(srcBuf)
	if err != nil {
		respond(responsePtrPtr, []uint8(fmt.Sprintf("%v", err)))
		return 1
	}
	outputs, err := codegen.Generate(result)
	if err != nil {
		respond(responsePtrPtr, []uint8(fmt.Sprintf("%v", err)))
		return 1
	}

	var payload []uint8
	for _, output := range outputs {
		payload = appendChunk(payload, []uint8(output.Path))
		payload = appendChunk(payload, output.Content)
	}
	respond(responsePtrPtr, payload)
	return 0
}

// respond prefixes the payload with the total response length and parks
// the buffer where the host can read it.
func respond(responsePtrPtr **uint8, payload []uint8) {
	response := make([]uint8, 4+len(payload))
	binary.LittleEndian.PutUint32(response, uint32(len(response)))
	copy(response[4:], payload)
	ptr := unsafe.SliceData(response)
	buffers[ptr] = response
	*responsePtrPtr = ptr
}

func appendChunk(dst, chunk []uint8) []uint8 {
	var tmp [4]uint8
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(chunk)))
	dst = append(dst, tmp[:]...)
	return append(dst, chunk...)
}
