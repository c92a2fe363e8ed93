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
	"fmt"
	"strings"
)

// compileError is embedded by every compilation error type. It must be
// embedded under a name other than "Error" so that its Error method
// promotes into the embedding struct.
type compileError struct {
	code    uint32
	message string
	symbol  string
}

func (err *compileError) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *compileError) Code() uint32 {
	return err.code
}

func (err *compileError) Message() string {
	return err.message
}

// Symbol returns the fully-qualified name of the declaration the error
// was reported against, or "" when the error is not tied to one.
func (err *compileError) Symbol() string {
	return err.symbol
}

// Error is the common shape of compilation errors. Resolution errors use
// codes 2xxx, option interpretation 3xxx, layout planning 4xxx.
type Error struct {
	compileError
}

// ImportCycleError reports a dependency cycle between input files.
type ImportCycleError struct {
	compileError
	Cycle []string
}

// UnresolvedTypeError reports a type name that matched no declaration.
type UnresolvedTypeError struct {
	compileError
	TypeName string
}

// OptionDecodeError reports a recognized option extension with a
// malformed value.
type OptionDecodeError struct {
	compileError
	Option string
}

// UnsizableLayoutError reports a message whose fixed region has no
// finite size, caused by a cycle of inline-embedded messages.
type UnsizableLayoutError struct {
	compileError
	Chain []string
}

var (
	_ error = (*Error)(nil)
	_ error = (*ImportCycleError)(nil)
	_ error = (*UnresolvedTypeError)(nil)
	_ error = (*OptionDecodeError)(nil)
	_ error = (*UnsizableLayoutError)(nil)
)

func errImportCycle(cycle []string) error {
	return &ImportCycleError{
		compileError: compileError{
			code: 2000,
			message: fmt.Sprintf(
				"Import cycle: %s", strings.Join(cycle, " -> "),
			),
		},
		Cycle: cycle,
	}
}

func errDuplicateFile(file, prev string) error {
	return &Error{compileError{
		code: 2001,
		message: fmt.Sprintf(
			"File %q appears more than once in the input set", file,
		),
		symbol: prev,
	}}
}

func errDuplicateSymbol(symbol, prevFile, file string) error {
	return &Error{compileError{
		code: 2002,
		message: fmt.Sprintf(
			"Symbol %q declared in both %q and %q",
			symbol, prevFile, file,
		),
		symbol: symbol,
	}}
}

func errUnresolvedType(typeName, field string) error {
	return &UnresolvedTypeError{
		compileError: compileError{
			code: 2003,
			message: fmt.Sprintf(
				"Type %q of field %q not found", typeName, field,
			),
			symbol: field,
		},
		TypeName: typeName,
	}
}

func errWrongTypeKind(typeName, field, want string) error {
	return &Error{compileError{
		code: 2004,
		message: fmt.Sprintf(
			"Type %q of field %q is not %s", typeName, field, want,
		),
		symbol: field,
	}}
}

func errOneofIndex(field string, index int32) error {
	return &Error{compileError{
		code: 2005,
		message: fmt.Sprintf(
			"Field %q references oneof index %d, which does not exist",
			field, index,
		),
		symbol: field,
	}}
}

func errInvalidFieldNumber(field string, number int32) error {
	return &Error{compileError{
		code: 2006,
		message: fmt.Sprintf(
			"Field %q has invalid field number %d", field, number,
		),
		symbol: field,
	}}
}

func errMissingTypeName(field string) error {
	return &Error{compileError{
		code: 2007,
		message: fmt.Sprintf(
			"Field %q has a message or enum type but no type name", field,
		),
		symbol: field,
	}}
}

func errEnumMissingZero(symbol string) error {
	return &Error{compileError{
		code: 2008,
		message: fmt.Sprintf(
			"Enum %q has no zero-valued variant", symbol,
		),
		symbol: symbol,
	}}
}

func errOptionWireType(option, symbol string) error {
	return &OptionDecodeError{
		compileError: compileError{
			code: 3000,
			message: fmt.Sprintf(
				"Option %q on %q has the wrong wire type", option, symbol,
			),
			symbol: symbol,
		},
		Option: option,
	}
}

func errOptionValue(option, symbol, detail string) error {
	return &OptionDecodeError{
		compileError: compileError{
			code: 3001,
			message: fmt.Sprintf(
				"Option %q on %q has a malformed value: %s",
				option, symbol, detail,
			),
			symbol: symbol,
		},
		Option: option,
	}
}

func errOptionTarget(option, symbol string) error {
	return &OptionDecodeError{
		compileError: compileError{
			code: 3002,
			message: fmt.Sprintf(
				"Option %q is not applicable to %q", option, symbol,
			),
			symbol: symbol,
		},
		Option: option,
	}
}

func errUnsizableLayout(chain []string) error {
	return &UnsizableLayoutError{
		compileError: compileError{
			code: 4000,
			message: fmt.Sprintf(
				"Message has no finite size: inline embedding cycle %s",
				strings.Join(chain, " -> "),
			),
			symbol: chain[0],
		},
		Chain: chain,
	}
}

func errMessageTooLarge(symbol string, size uint64) error {
	return &Error{compileError{
		code: 4001,
		message: fmt.Sprintf(
			"Fixed region of message %q is %d bytes, which exceeds the"+
				" message size limit",
			symbol, size,
		),
		symbol: symbol,
	}}
}

func errUnsupportedFieldType(field, typeName string) error {
	return &Error{compileError{
		code: 4002,
		message: fmt.Sprintf(
			"Field %q has unsupported type %s", field, typeName,
		),
		symbol: field,
	}}
}
