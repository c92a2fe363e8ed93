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
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	wasm "github.com/tetratelabs/wazero"

	"go.zeropb.org/zeropb/descriptor"
)

// A codegen plugin is a wasm module exporting two functions:
//
//	zeropb_codegen_allocate(len: u32) -> ptr
//	zeropb_codegen_generate(request: ptr, response_out: ptr) -> u8
//
// The request buffer holds a little-endian u32 total length followed by
// the serialized descriptor set. The response buffer holds a u32 total
// length followed by either output-file records (on rc 0) or a UTF-8
// error message (on any other rc). Each record is a length-prefixed
// path and a length-prefixed content.
type cmdCodegen struct {
	outDir     string
	pluginPath string
}

func newCodegenCmd(ctx context.Context) *cobra.Command {
	cmd := &cmdCodegen{}
	cobraCmd := &cobra.Command{
		Use:   "codegen --plugin PLUGIN.wasm -o DIR FDSET",
		Short: "Run an external code-generator plugin over a descriptor set",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(cmd.run(ctx, args))
			return nil
		},
	}
	flags := cobraCmd.Flags()
	flags.StringVarP(&cmd.outDir, "output", "o", "", "output directory for generated files")
	flags.StringVar(&cmd.pluginPath, "plugin", "", "path to the codegen plugin wasm module")
	return cobraCmd
}

func (cmd *cmdCodegen) run(ctx context.Context, argv []string) int {
	if len(argv) != 1 {
		fmt.Fprintln(os.Stderr, "Expected exactly one serialized descriptor set")
		return 1
	}
	if cmd.outDir == "" {
		fmt.Fprintln(os.Stderr, "No output directory specified (set --output=)")
		return 1
	}
	pluginPath := cmd.pluginPath
	if pluginPath == "" {
		pluginPath = os.Getenv("ZEROPB_CODEGEN_PLUGIN")
	}
	if pluginPath == "" {
		fmt.Fprintln(os.Stderr, "No plugin set, use --plugin= or $ZEROPB_CODEGEN_PLUGIN")
		return 1
	}

	srcBuf, err := os.ReadFile(argv[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	// Reject malformed input before handing it to the plugin.
	if _, err := descriptor.DecodeFileSet(srcBuf); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", argv[0], err)
		return 1
	}

	requestBuf := make([]uint8, 4+len(srcBuf))
	binary.LittleEndian.PutUint32(requestBuf, uint32(len(requestBuf)))
	copy(requestBuf[4:], srcBuf)

	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(16384)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)
	defer runtime.Close(ctx)

	pluginBin, err := os.ReadFile(pluginPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	pluginExe, err := runtime.CompileModule(ctx, pluginBin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	moduleConfig := wasm.NewModuleConfig()
	plugin, err := runtime.InstantiateModule(ctx, pluginExe, moduleConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	mem := plugin.Memory()

	wasmAlloc := plugin.ExportedFunction("zeropb_codegen_allocate")
	wasmGenerate := plugin.ExportedFunction("zeropb_codegen_generate")

	results, err := wasmAlloc.Call(ctx, uint64(len(requestBuf)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	requestPtr := results[0]
	mem.Write(uint32(requestPtr), requestBuf)

	results, err = wasmAlloc.Call(ctx, 4)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	responsePtrPtr := uint32(results[0])

	results, err = wasmGenerate.Call(ctx, requestPtr, uint64(responsePtrPtr))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	rc := uint8(results[0])

	responsePtr, _ := mem.ReadUint32Le(responsePtrPtr)
	responseLen, ok := mem.ReadUint32Le(responsePtr)
	if !ok {
		fmt.Fprintln(os.Stderr, "Failed to read response length")
		return 1
	}
	responseBuf, ok := mem.Read(responsePtr, responseLen)
	if !ok {
		fmt.Fprintln(os.Stderr, "Failed to read response")
		return 1
	}
	payload := responseBuf[4:]

	if rc != 0 {
		fmt.Fprintf(os.Stderr, "%s\n", strings.TrimRight(string(payload), "\n"))
		return 1
	}

	outputs, err := parseOutputFiles(payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(outputs) == 0 {
		fmt.Fprintln(os.Stderr, "Plugin did not generate any output files")
		return 1
	}
	for _, output := range outputs {
		outPath, err := cmd.outPath(output.path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := os.WriteFile(outPath, output.content, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return 0
}

type pluginOutput struct {
	path    string
	content []uint8
}

func parseOutputFiles(payload []uint8) ([]pluginOutput, error) {
	var outputs []pluginOutput
	off := 0
	readChunk := func() ([]uint8, error) {
		if off+4 > len(payload) {
			return nil, fmt.Errorf("Truncated plugin response at offset %d", off)
		}
		length := int(binary.LittleEndian.Uint32(payload[off:]))
		off += 4
		if off+length > len(payload) {
			return nil, fmt.Errorf("Truncated plugin response at offset %d", off)
		}
		chunk := payload[off : off+length]
		off += length
		return chunk, nil
	}
	for off < len(payload) {
		path, err := readChunk()
		if err != nil {
			return nil, err
		}
		content, err := readChunk()
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, pluginOutput{
			path:    string(path),
			content: content,
		})
	}
	return outputs, nil
}

func (cmd *cmdCodegen) outPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("Invalid output path: empty")
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("Invalid output path %q: bad path component %q", path, part)
		}
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("Invalid output path %q: absolute", path)
	}
	return filepath.Join(cmd.outDir, filepath.FromSlash(path)), nil
}
