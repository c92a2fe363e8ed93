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

// zeropb-codegen-go emits Go bindings for a serialized descriptor set.
//
// Compiled to wasm it serves as a plugin for `zeropb codegen`; as a
// native binary it writes the generated files under a directory.
package main

import (
	"log"
	"os"
	"path/filepath"

	"go.zeropb.org/zeropb/codegen"
	"go.zeropb.org/zeropb/compiler"
)

func main() {
	args := os.Args[1:]
	if len(args) < 1 || len(args) > 2 {
		log.Fatalf("usage: %s FDSET [OUT_DIR]", os.Args[0])
	}
	srcPath := args[0]
	outDir := "."
	if len(args) == 2 {
		outDir = args[1]
	}

	src, err := os.ReadFile(srcPath)
	if err != nil {
		log.Fatalf("ReadFile(%q): %v", srcPath, err)
	}

	result, err := compiler.CompileBytes(src)
	if err != nil {
		log.Fatalf("%s: %v", srcPath, err)
	}
	outputs, err := codegen.Generate(result)
	if err != nil {
		log.Fatalf("%s: %v", srcPath, err)
	}

	for _, output := range outputs {
		outPath := filepath.Join(outDir, filepath.FromSlash(output.Path))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(outPath, output.Content, 0o644); err != nil {
			log.Fatal(err)
		}
	}
}
