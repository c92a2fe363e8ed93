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

// Package codegen emits Go source from compiled descriptor sets. Each
// input file becomes one generated file holding layout constants,
// zero-copy view types with lazy accessors, typed builders, enum
// declarations, and service interfaces.
package codegen

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"go.zeropb.org/zeropb"
	"go.zeropb.org/zeropb/compiler"
)

const runtimePackage = "go.zeropb.org/zeropb"

// OutputFile is one generated source file.
type OutputFile struct {
	Path    string
	Content []uint8
}

// Generate emits one Go source file per compiled input file, in
// dependency order.
func Generate(result *compiler.CompileResult) ([]OutputFile, error) {
	owners := make(map[*zeropb.Layout]*compiler.Message)
	for _, file := range result.Files {
		collectOwners(owners, file.Messages)
	}
	var out []OutputFile
	for _, file := range result.Files {
		g := &generator{
			file:        file,
			owners:      owners,
			imports:     make(map[string]string),
			qualifiers:  make(map[string]bool),
			entryFields: make(map[*compiler.Message]*compiler.Field),
		}
		content, err := g.emitFile()
		if err != nil {
			return nil, err
		}
		out = append(out, OutputFile{
			Path:    outputPath(file),
			Content: content,
		})
	}
	return out, nil
}

func collectOwners(owners map[*zeropb.Layout]*compiler.Message, msgs []*compiler.Message) {
	for _, msg := range msgs {
		if msg.Layout != nil {
			owners[msg.Layout] = msg
		}
		collectOwners(owners, msg.Nested)
	}
}

type generator struct {
	file   *compiler.File
	owners map[*zeropb.Layout]*compiler.Message
	body   bytes.Buffer

	imports    map[string]string // import path -> qualifier
	qualifiers map[string]bool

	// Wiring statements for the generated init function, in emission
	// order. Layout pointer assignments come before MustLayout calls.
	wiring    []string
	validates []string

	usesRuntime bool

	entryFields map[*compiler.Message]*compiler.Field
}

func (g *generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.body, format, args...)
}

func (g *generator) emitFile() ([]uint8, error) {
	pkgName, err := g.packageName(g.file)
	if err != nil {
		return nil, err
	}
	g.collectEntryFields(g.file.Messages)

	for _, enum := range g.file.Enums {
		g.emitEnum(enum)
	}
	for _, msg := range g.file.Messages {
		if err := g.emitMessageTree(msg); err != nil {
			return nil, err
		}
	}
	for _, svc := range g.file.Services {
		if err := g.emitService(svc); err != nil {
			return nil, err
		}
	}
	g.emitInit()

	var out bytes.Buffer
	out.WriteString("// Code generated by zeropb. DO NOT EDIT.\n")
	if g.file.Name != "" {
		fmt.Fprintf(&out, "// source: %s\n", g.file.Name)
	}
	fmt.Fprintf(&out, "\npackage %s\n\n", pkgName)
	g.emitImports(&out)
	out.Write(g.body.Bytes())
	return out.Bytes(), nil
}

func (g *generator) emitImports(out *bytes.Buffer) {
	paths := make([]string, 0, len(g.imports)+1)
	if g.usesRuntime {
		paths = append(paths, runtimePackage)
	}
	for path := range g.imports {
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return
	}
	slices.Sort(paths)
	out.WriteString("import (\n")
	for _, path := range paths {
		qual := "zeropb"
		if path != runtimePackage {
			qual = g.imports[path]
		}
		if qual == defaultQualifier(path) {
			fmt.Fprintf(out, "\t%q\n", path)
		} else {
			fmt.Fprintf(out, "\t%s %q\n", qual, path)
		}
	}
	out.WriteString(")\n\n")
}

func (g *generator) emitInit() {
	if len(g.wiring) == 0 && len(g.validates) == 0 {
		return
	}
	g.printf("func init() {\n")
	for _, line := range g.wiring {
		g.printf("\t%s\n", line)
	}
	for _, line := range g.validates {
		g.printf("\t%s\n", line)
	}
	g.printf("}\n")
}

func (g *generator) emitMessageTree(msg *compiler.Message) error {
	for _, enum := range msg.Enums {
		g.emitEnum(enum)
	}
	if err := g.emitMessage(msg); err != nil {
		return err
	}
	for _, nested := range msg.Nested {
		if err := g.emitMessageTree(nested); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) collectEntryFields(msgs []*compiler.Message) {
	for _, msg := range msgs {
		for _, field := range msg.Fields {
			if field.IsMap() {
				g.entryFields[field.Message] = field
			}
		}
		g.collectEntryFields(msg.Nested)
	}
}

// Naming {{{

// goName converts a proto identifier to its Go form. Underscores
// separate words; each word is capitalized.
func goName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	up := true
	for ii := 0; ii < len(s); ii++ {
		c := s[ii]
		if c == '_' {
			up = true
			continue
		}
		if up && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		b.WriteByte(c)
		up = false
	}
	return b.String()
}

// declName returns the Go type name for a message or enum. Nested
// declarations join their path with underscores.
func declName(parent *compiler.Message, simple string) string {
	name := goName(simple)
	for parent != nil {
		name = goName(simpleName(parent.Name)) + "_" + name
		parent = parent.Parent
	}
	return name
}

func simpleName(fqn string) string {
	if dot := strings.LastIndexByte(fqn, '.'); dot >= 0 {
		return fqn[dot+1:]
	}
	return fqn
}

func viewName(msg *compiler.Message) string {
	return declName(msg.Parent, simpleName(msg.Name))
}

func enumName(enum *compiler.Enum) string {
	return declName(enum.Parent, simpleName(enum.Name))
}

func layoutVar(msg *compiler.Message) string {
	return "Layout_" + viewName(msg)
}

// methodName returns the accessor name for a field, honoring the
// customname option. Names that would collide with the view type's own
// surface get a trailing underscore.
func methodName(field *compiler.Field) string {
	name := field.Options.CustomName
	if name == "" {
		name = goName(field.Desc.Name)
	}
	switch name {
	case "Msg", "Encode":
		return name + "_"
	}
	return name
}

func sanitizeIdent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for ii := 0; ii < len(s); ii++ {
		c := s[ii]
		ok := c == '_' ||
			(c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9' && ii > 0)
		if ok {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// }}}

// Imports and cross-file references {{{

// splitGoPackage splits a go_package option into import path and
// package name. "example.com/foo/v1;foov1" carries both; a bare name
// has no import path.
func splitGoPackage(goPackage string) (string, string) {
	if semi := strings.IndexByte(goPackage, ';'); semi >= 0 {
		return goPackage[:semi], goPackage[semi+1:]
	}
	if slash := strings.LastIndexByte(goPackage, '/'); slash >= 0 {
		return goPackage, goPackage[slash+1:]
	}
	return "", goPackage
}

func defaultQualifier(path string) string {
	if slash := strings.LastIndexByte(path, '/'); slash >= 0 {
		return sanitizeIdent(path[slash+1:])
	}
	return sanitizeIdent(path)
}

func (g *generator) packageName(file *compiler.File) (string, error) {
	_, name := splitGoPackage(file.GoPackage)
	if name == "" && file.Package != "" {
		name = strings.ReplaceAll(file.Package, ".", "_")
	}
	if name == "" {
		return "", errNoPackageName(file.Name)
	}
	return sanitizeIdent(name), nil
}

// importAs registers an import and returns the qualifier to reference
// it by.
func (g *generator) importAs(path string) string {
	return g.importNamed(path, defaultQualifier(path))
}

func (g *generator) importNamed(path, qual string) string {
	if prev, ok := g.imports[path]; ok {
		return prev
	}
	if qual == "" || qual == "zeropb" {
		qual = "pkg"
	}
	base := qual
	for ii := 1; g.qualifiers[qual]; ii++ {
		qual = fmt.Sprintf("%s_%d", base, ii)
	}
	g.imports[path] = qual
	g.qualifiers[qual] = true
	return qual
}

// fileQualifier returns the qualifier for referencing declarations of
// another input file, or "" when they live in the same Go package. The
// dependency's declared package name wins over the import path's last
// segment, since the two need not agree.
func (g *generator) fileQualifier(dep *compiler.File) string {
	if dep == g.file || dep.GoPackage == g.file.GoPackage {
		return ""
	}
	path, name := splitGoPackage(dep.GoPackage)
	if path == "" {
		return ""
	}
	return g.importNamed(path, sanitizeIdent(name))
}

func (g *generator) messageRef(msg *compiler.Message) string {
	name := viewName(msg)
	if qual := g.fileQualifier(msg.File); qual != "" {
		return qual + "." + name
	}
	return name
}

func (g *generator) enumRef(enum *compiler.Enum) string {
	name := enumName(enum)
	if qual := g.fileQualifier(enum.File); qual != "" {
		return qual + "." + name
	}
	return name
}

func (g *generator) layoutRef(msg *compiler.Message) string {
	name := layoutVar(msg)
	if qual := g.fileQualifier(msg.File); qual != "" {
		return qual + "." + name
	}
	return name
}

// typeSpecRef resolves a customtype or casttype option value to a Go
// type expression, importing its package when the value names one.
func (g *generator) typeSpecRef(option, spec, symbol string) (string, error) {
	dot := strings.LastIndexByte(spec, '.')
	if dot < 0 {
		if spec == "" || sanitizeIdent(spec) != spec {
			return "", errBadTypeSpec(option, spec, symbol)
		}
		return spec, nil
	}
	path, name := spec[:dot], spec[dot+1:]
	if path == "" || name == "" || sanitizeIdent(name) != name {
		return "", errBadTypeSpec(option, spec, symbol)
	}
	return g.importAs(path) + "." + name, nil
}

// }}}

// Slot indexes {{{

// msgSlots maps fields and oneofs to their slot index within the
// planned layout. Oneof members share the index of the oneof's
// discriminant slot.
type msgSlots struct {
	field map[*compiler.Field]int
	oneof map[*compiler.Oneof]int
}

func slotIndexes(msg *compiler.Message) msgSlots {
	slots := msgSlots{
		field: make(map[*compiler.Field]int, len(msg.Fields)),
		oneof: make(map[*compiler.Oneof]int),
	}
	next := 0
	for _, field := range msg.Fields {
		if field.Oneof != nil {
			idx, ok := slots.oneof[field.Oneof]
			if !ok {
				idx = next
				next++
				slots.oneof[field.Oneof] = idx
			}
			slots.field[field] = idx
			continue
		}
		slots.field[field] = next
		next++
	}
	return slots
}

// }}}

func outputPath(file *compiler.File) string {
	name := file.Name
	if name == "" {
		return "generated.zpb.go"
	}
	return strings.TrimSuffix(name, ".proto") + ".zpb.go"
}
