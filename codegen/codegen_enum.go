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

import (
	"go.zeropb.org/zeropb/compiler"
)

// emitEnum writes an enum as a named int32 with one constant per
// declared value. The type is open: numbers outside the declared set
// are representable and survive a decode/encode round trip.
func (g *generator) emitEnum(enum *compiler.Enum) {
	name := enumName(enum)
	g.printf("// %s is the %s enum.\n", name, enum.Name)
	g.printf("type %s int32\n\n", name)

	if len(enum.Desc.Values) > 0 {
		g.printf("const (\n")
		for _, value := range enum.Desc.Values {
			g.printf("\t%s_%s %s = %d\n", name, value.Name, name, value.Number)
		}
		g.printf(")\n\n")
	}

	strconvQual := g.importAs("strconv")
	g.printf("func (e %s) String() string {\n", name)
	g.printf("\tswitch e {\n")
	seen := make(map[int32]bool)
	for _, value := range enum.Desc.Values {
		if seen[value.Number] {
			continue
		}
		seen[value.Number] = true
		g.printf("\tcase %d:\n", value.Number)
		g.printf("\t\treturn %q\n", value.Name)
	}
	g.printf("\t}\n")
	g.printf("\treturn \"%s(\" + %s.FormatInt(int64(e), 10) + \")\"\n", name, strconvQual)
	g.printf("}\n\n")
}

// emitService writes a service as a method-signature interface. The
// transport binding is left to the caller; streaming methods share the
// unary signature.
func (g *generator) emitService(svc *compiler.Service) error {
	name := goName(simpleName(svc.Name)) + "Server"
	ctxQual := g.importAs("context")
	g.printf("// %s is the server API of %s.\n", name, svc.Name)
	g.printf("type %s interface {\n", name)
	for _, method := range svc.Methods {
		g.printf(
			"\t%s(ctx %s.Context, req %s) (%s, error)\n",
			goName(method.Desc.Name),
			ctxQual,
			g.messageRef(method.Input),
			g.messageRef(method.Output),
		)
	}
	g.printf("}\n\n")
	return nil
}
