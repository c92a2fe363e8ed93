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

import "fmt"

// EmissionError reports an input the emitter cannot express as Go
// source. Codes are 5xxx.
type EmissionError struct {
	code    uint32
	message string
	symbol  string
}

var _ error = (*EmissionError)(nil)

func (err *EmissionError) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *EmissionError) Code() uint32 {
	return err.code
}

func (err *EmissionError) Message() string {
	return err.message
}

func (err *EmissionError) Symbol() string {
	return err.symbol
}

func errBadTypeSpec(option, spec, symbol string) error {
	return &EmissionError{
		code: 5000,
		message: fmt.Sprintf(
			"Option %s on %q names unusable type %q", option, symbol, spec,
		),
		symbol: symbol,
	}
}

func errMapEntryShape(symbol string, fields int) error {
	return &EmissionError{
		code: 5001,
		message: fmt.Sprintf(
			"Map entry %q has %d fields, expected key and value",
			symbol, fields,
		),
		symbol: symbol,
	}
}

func errNoPackageName(file string) error {
	return &EmissionError{
		code: 5002,
		message: fmt.Sprintf(
			"File %q has no go_package option and no package to derive"+
				" a Go package name from",
			file,
		),
		symbol: file,
	}
}

func errMissingLayout(symbol string) error {
	return &EmissionError{
		code:    5003,
		message: fmt.Sprintf("Message %q reached emission without a layout", symbol),
		symbol:  symbol,
	}
}
