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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"go.zeropb.org/zeropb/codegen"
	"go.zeropb.org/zeropb/compiler"
)

type cmdCompile struct {
	outDir    string
	goPackage string
}

func newCompileCmd(ctx context.Context) *cobra.Command {
	cmd := &cmdCompile{}
	cobraCmd := &cobra.Command{
		Use:   "compile -o DIR FDSET...",
		Short: "Compile serialized descriptor sets to Go sources",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(cmd.run(ctx, args))
			return nil
		},
	}
	flags := cobraCmd.Flags()
	flags.StringVarP(&cmd.outDir, "output", "o", "", "output directory for generated sources")
	flags.StringVar(&cmd.goPackage, "go-package", "", "package for files without a go_package option")
	return cobraCmd
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	if len(argv) < 1 {
		fmt.Fprintln(os.Stderr, "No input files (pass one or more serialized descriptor sets)")
		return 1
	}
	if cmd.outDir == "" {
		fmt.Fprintln(os.Stderr, "No output directory specified (set --output=)")
		return 1
	}

	var opts []compiler.CompileOption
	if cmd.goPackage != "" {
		opts = append(opts, compiler.WithGoPackage(cmd.goPackage))
	}

	// Each input set compiles on its own; nothing carries over between
	// them.
	for _, srcPath := range argv {
		src, err := os.ReadFile(srcPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		result, err := compiler.CompileBytes(src, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", srcPath, err)
			return 1
		}
		outputs, err := codegen.Generate(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", srcPath, err)
			return 1
		}
		for _, output := range outputs {
			outPath := filepath.Join(cmd.outDir, filepath.FromSlash(output.Path))
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			if err := os.WriteFile(outPath, output.Content, 0o644); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
	}
	return 0
}
