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

package compiler_test

import (
	"errors"
	"testing"

	"go.zeropb.org/zeropb/compiler"
	"go.zeropb.org/zeropb/descriptor"
	"go.zeropb.org/zeropb/internal/testutil"
)

func TestFieldOptions(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("opts.proto", "opts").
		Message(testutil.NewMessage("Balance").
			Field(testutil.NewField("amount", 1, descriptor.TypeBytes).
				Nullable(false).
				CustomType("cosmossdk.io/math.Int").
				CustomName("Amt").
				JSONTag("amount,omitempty").
				MoreTags(`yaml:"amount"`)).
			Field(testutil.NewField("denom", 2, descriptor.TypeString).
				CastType("Denom"))).
		Finish()

	result := compileFiles(t, file)
	msg := findMessage(t, result, "opts.Balance")

	amount := msg.Fields[0].Options
	if amount.Nullable == nil || *amount.Nullable {
		t.Error("expected nullable=false")
	}
	testutil.ExpectEq(t, "cosmossdk.io/math.Int", amount.CustomType)
	testutil.ExpectEq(t, "Amt", amount.CustomName)
	if amount.JSONTag == nil {
		t.Fatal("expected jsontag to be set")
	}
	testutil.ExpectEq(t, "amount,omitempty", *amount.JSONTag)
	if amount.MoreTags == nil {
		t.Fatal("expected moretags to be set")
	}
	testutil.ExpectEq(t, `yaml:"amount"`, *amount.MoreTags)

	testutil.ExpectEq(t, "Denom", msg.Fields[1].Options.CastType)
}

func TestMessageOptions(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("opts.proto", "opts").
		Message(testutil.NewMessage("M").
			Options(func(p *testutil.Proto) {
				p.Bool(64001, false)
				p.Bool(64003, false)
			})).
		Finish()

	result := compileFiles(t, file)
	msg := findMessage(t, result, "opts.M")
	if msg.Options.GoprotoGetters == nil || *msg.Options.GoprotoGetters {
		t.Error("expected goproto_getters=false")
	}
	if msg.Options.GoprotoStringer == nil || *msg.Options.GoprotoStringer {
		t.Error("expected goproto_stringer=false")
	}
}

func TestUnknownOptionPreserved(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("opts.proto", "opts").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("x", 1, descriptor.TypeInt64).
				Option(func(p *testutil.Proto) {
					p.Varint(70000, 12)
				}).
				Nullable(true))).
		Finish()

	result := compileFiles(t, file)
	field := findMessage(t, result, "opts.M").Fields[0]
	testutil.ExpectEq(t, 1, len(field.Options.Unknown))
	testutil.ExpectEq(t, int32(70000), field.Options.Unknown[0].Number)
	if field.Options.Nullable == nil || !*field.Options.Nullable {
		t.Error("expected nullable=true")
	}
}

func TestOptionWrongWireType(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("opts.proto", "opts").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("x", 1, descriptor.TypeInt64).
				Option(func(p *testutil.Proto) {
					p.String(65001, "true")
				}))).
		Finish()
	_, err := compiler.CompileBytes(testutil.FileSet(file))
	testutil.AssertError(t, err)

	var optErr *compiler.OptionDecodeError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected OptionDecodeError, got: %v", err)
	}
	testutil.ExpectEq(t, "nullable", optErr.Option)
	testutil.ExpectEq(t, uint32(3000), optErr.Code())
}

func TestOptionBadUTF8(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("opts.proto", "opts").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("x", 1, descriptor.TypeBytes).
				Option(func(p *testutil.Proto) {
					p.Bytes(65003, []uint8{0xff, 0xfe})
				}))).
		Finish()
	_, err := compiler.CompileBytes(testutil.FileSet(file))
	testutil.AssertError(t, err)

	var optErr *compiler.OptionDecodeError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected OptionDecodeError, got: %v", err)
	}
	testutil.ExpectEq(t, uint32(3001), optErr.Code())
}

func TestEmbedOnScalar(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("opts.proto", "opts").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("x", 1, descriptor.TypeInt64).
				Embed())).
		Finish()
	_, err := compiler.CompileBytes(testutil.FileSet(file))
	testutil.AssertError(t, err)

	var optErr *compiler.OptionDecodeError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected OptionDecodeError, got: %v", err)
	}
	testutil.ExpectEq(t, "embed", optErr.Option)
	testutil.ExpectEq(t, uint32(3002), optErr.Code())
}

func TestStdTimeOnScalar(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("opts.proto", "opts").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("x", 1, descriptor.TypeInt64).
				StdTime())).
		Finish()
	_, err := compiler.CompileBytes(testutil.FileSet(file))
	testutil.AssertError(t, err)

	var optErr *compiler.OptionDecodeError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected OptionDecodeError, got: %v", err)
	}
	testutil.ExpectEq(t, "stdtime", optErr.Option)
}
