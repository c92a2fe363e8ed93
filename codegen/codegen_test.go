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

package codegen_test

import (
	"errors"
	"strings"
	"testing"

	"go.zeropb.org/zeropb/codegen"
	"go.zeropb.org/zeropb/compiler"
	"go.zeropb.org/zeropb/descriptor"
	"go.zeropb.org/zeropb/internal/testutil"
)

func generate(t *testing.T, files ...[]uint8) []codegen.OutputFile {
	t.Helper()
	result, err := compiler.CompileBytes(testutil.FileSet(files...))
	testutil.AssertNoError(t, err)
	out, err := codegen.Generate(result)
	testutil.AssertNoError(t, err)
	return out
}

func output(t *testing.T, outputs []codegen.OutputFile, path string) string {
	t.Helper()
	for _, out := range outputs {
		if out.Path == path {
			return string(out.Content)
		}
	}
	t.Fatalf("no output file %q", path)
	return ""
}

func expectContains(t *testing.T, src, want string) {
	t.Helper()
	if !strings.Contains(src, want) {
		t.Errorf("generated source does not contain %q", want)
	}
}

func coinFile() []uint8 {
	return testutil.NewFile("coin.proto", "cosmos.base").
		Syntax("proto3").
		GoPackage("example.com/gen/coin;coinpb").
		Message(testutil.NewMessage("Coin").
			Field(testutil.NewField("denom", 1, descriptor.TypeString)).
			Field(testutil.NewField("amount", 2, descriptor.TypeString))).
		Finish()
}

func TestGenerateCoin(t *testing.T) {
	t.Parallel()

	src := output(t, generate(t, coinFile()), "coin.zpb.go")

	if !strings.HasPrefix(src, "// Code generated by zeropb. DO NOT EDIT.\n// source: coin.proto\n") {
		t.Error("missing generated-code header")
	}
	expectContains(t, src, "package coinpb\n")
	expectContains(t, src, `"go.zeropb.org/zeropb"`)

	expectContains(t, src, "var Layout_Coin = &zeropb.Layout{")
	expectContains(t, src, "zeropb.MustLayout(Layout_Coin)")

	expectContains(t, src, "type Coin struct {\n\tMsg zeropb.Message\n}")
	expectContains(t, src, "func DecodeCoin(buf []uint8) (Coin, error)")
	expectContains(t, src, "func ViewCoin(buf []uint8) (Coin, error)")
	expectContains(t, src, "func (v Coin) Encode() ([]uint8, error)")
	expectContains(t, src, "func (v Coin) Denom() string {\n\treturn v.Msg.String(0)\n}")
	expectContains(t, src, "func (v Coin) HasAmount() bool")

	expectContains(t, src, "type CoinBuilder struct {\n\tB *zeropb.Builder\n}")
	expectContains(t, src, "func NewCoinBuilder() *CoinBuilder")
	expectContains(t, src, "func (b *CoinBuilder) SetDenom(v string) *CoinBuilder")
	expectContains(t, src, "func (b *CoinBuilder) Encode() ([]uint8, error)")
}

func TestPackageNameFromProtoPackage(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("plain.proto", "cosmos.bank.v1beta1").
		Message(testutil.NewMessage("Params")).
		Finish()
	src := output(t, generate(t, file), "plain.zpb.go")
	expectContains(t, src, "package cosmos_bank_v1beta1\n")
}

func TestMissingPackageName(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("anon.proto", "").
		Message(testutil.NewMessage("M")).
		Finish()
	result, err := compiler.CompileBytes(testutil.FileSet(file))
	testutil.AssertNoError(t, err)
	_, err = codegen.Generate(result)
	testutil.AssertError(t, err)

	var emitErr *codegen.EmissionError
	if !errors.As(err, &emitErr) {
		t.Fatalf("expected EmissionError, got: %v", err)
	}
	testutil.ExpectEq(t, uint32(5002), emitErr.Code())
}

func TestGenerateEnum(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("votes.proto", "votes").
		Enum(testutil.NewEnum("VoteOption").
			Value("VOTE_OPTION_UNSPECIFIED", 0).
			Value("VOTE_OPTION_YES", 1).
			Value("VOTE_OPTION_AYE", 1)).
		Finish()
	src := output(t, generate(t, file), "votes.zpb.go")

	expectContains(t, src, "type VoteOption int32\n")
	expectContains(t, src, "VoteOption_VOTE_OPTION_UNSPECIFIED VoteOption = 0")
	expectContains(t, src, "VoteOption_VOTE_OPTION_YES VoteOption = 1")
	expectContains(t, src, "VoteOption_VOTE_OPTION_AYE VoteOption = 1")
	expectContains(t, src, "func (e VoteOption) String() string")
	expectContains(t, src, `return "VoteOption(" + strconv.FormatInt(int64(e), 10) + ")"`)
	// Duplicate numbers keep only the first name in the switch.
	testutil.ExpectEq(t, 1, strings.Count(src, "case 1:"))
}

func TestGenerateService(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("tx.proto", "bank").
		Message(testutil.NewMessage("MsgSend")).
		Message(testutil.NewMessage("MsgSendResponse")).
		Service(testutil.NewService("Msg").
			Method("Send", ".bank.MsgSend", ".bank.MsgSendResponse")).
		Finish()
	src := output(t, generate(t, file), "tx.zpb.go")

	expectContains(t, src, "type MsgServer interface {")
	expectContains(t, src, "Send(ctx context.Context, req MsgSend) (MsgSendResponse, error)")
	expectContains(t, src, `"context"`)
}

func TestCrossPackageReference(t *testing.T) {
	t.Parallel()

	txFile := testutil.NewFile("tx.proto", "cosmos.bank").
		GoPackage("example.com/gen/bank;bankpb").
		Dependency("coin.proto").
		Message(testutil.NewMessage("MsgSend").
			Field(testutil.NewRepeatedField("amount", 1, descriptor.TypeMessage).
				TypeName(".cosmos.base.Coin"))).
		Finish()

	outputs := generate(t, coinFile(), txFile)
	src := output(t, outputs, "tx.zpb.go")

	expectContains(t, src, `coinpb "example.com/gen/coin"`)
	expectContains(t, src, "func (v MsgSend) AmountAt(idx uint32) (coinpb.Coin, bool)")
	expectContains(t, src, "Layout_MsgSend.Slots[0].Msg = coinpb.Layout_Coin")
}

func TestNestedMessageNames(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("nested.proto", "n").
		Message(testutil.NewMessage("Outer").
			Nested(testutil.NewMessage("Inner")).
			Field(testutil.NewField("inner", 1, descriptor.TypeMessage).
				TypeName(".n.Outer.Inner"))).
		Finish()
	src := output(t, generate(t, file), "nested.zpb.go")

	expectContains(t, src, "type Outer_Inner struct {")
	expectContains(t, src, "var Layout_Outer_Inner = &zeropb.Layout{")
	expectContains(t, src, "func (v Outer) Inner() (Outer_Inner, bool)")
}

func TestCustomName(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("named.proto", "n").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("amount", 1, descriptor.TypeString).
				CustomName("Amt"))).
		Finish()
	src := output(t, generate(t, file), "named.zpb.go")

	expectContains(t, src, "func (v M) Amt() string")
	expectContains(t, src, "func (b *MBuilder) SetAmt(v string) *MBuilder")
}

func TestCustomType(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("dec.proto", "d").
		Message(testutil.NewMessage("Balance").
			Field(testutil.NewField("amount", 1, descriptor.TypeBytes).
				CustomType("cosmossdk.io/math.Int"))).
		Finish()
	src := output(t, generate(t, file), "dec.zpb.go")

	expectContains(t, src, `"cosmossdk.io/math"`)
	expectContains(t, src, "func (v Balance) Amount() (math.Int, error)")
	expectContains(t, src, "if err := x.Unmarshal(v.Msg.Bytes(0)); err != nil")
	expectContains(t, src, "func (v Balance) AmountBytes() []uint8")
	expectContains(t, src, "func (b *BalanceBuilder) SetAmount(v math.Int) error")
	expectContains(t, src, "data, err := v.Marshal()")
}

func TestCastType(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("cast.proto", "c").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("fee", 1, descriptor.TypeUint64).
				CastType("github.com/example/types.Fee"))).
		Finish()
	src := output(t, generate(t, file), "cast.zpb.go")

	expectContains(t, src, "func (v M) Fee() types.Fee {\n\treturn types.Fee(v.Msg.Uint64(0))\n}")
	expectContains(t, src, "func (b *MBuilder) SetFee(v types.Fee) *MBuilder {\n\tb.B.SetUint64(0, uint64(v))")
}

func TestOneofAccessors(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("oneof.proto", "o").
		Message(testutil.NewMessage("M").
			Oneof("sum").
			Field(testutil.NewField("a", 1, descriptor.TypeInt32).OneofIndex(0)).
			Field(testutil.NewField("b", 2, descriptor.TypeString).OneofIndex(0))).
		Finish()
	src := output(t, generate(t, file), "oneof.zpb.go")

	expectContains(t, src, "func (v M) SumCase() int32")
	expectContains(t, src, "func (v M) A() (int32, bool)")
	expectContains(t, src, "member := v.Msg.OneofMember(0)")
	expectContains(t, src, "func (b *MBuilder) SetA(v int32) *MBuilder {\n\tb.B.SetOneofInt32(0, 1, v)")
	expectContains(t, src, "func (b *MBuilder) SetB(v string) *MBuilder {\n\tb.B.SetOneofString(0, 2, v)")
}

func TestFieldNamedMsg(t *testing.T) {
	t.Parallel()

	file := testutil.NewFile("clash.proto", "c").
		Message(testutil.NewMessage("M").
			Field(testutil.NewField("msg", 1, descriptor.TypeString))).
		Finish()
	src := output(t, generate(t, file), "clash.zpb.go")

	expectContains(t, src, "func (v M) Msg_() string")
}

func TestGenerateDeterminism(t *testing.T) {
	t.Parallel()

	first := output(t, generate(t, coinFile()), "coin.zpb.go")
	second := output(t, generate(t, coinFile()), "coin.zpb.go")
	testutil.ExpectNoDiff(t, first, second)
}
