// tinygo_build wraps a hermetic tinygo toolchain to compile the
// zeropb-codegen-go plugin to wasm. It exists so build systems can
// invoke tinygo with a pinned Go SDK and wasm-opt instead of whatever
// is on $PATH.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

var (
	tinygo   = flag.String("tinygo", "", "path to the tinygo binary")
	output   = flag.String("output", "", "output wasm path")
	chdir    = flag.String("chdir", "", "directory to compile in")
	goSdkBin = flag.String("go-sdk-bin", "", "bin directory of the pinned Go SDK")
	wasmOpt  = flag.String("wasm-opt", "", "path to the wasm-opt binary")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	pwd, err := os.Getwd()
	if err != nil {
		return err
	}

	args := []string{"build", "-o=" + filepath.Join(pwd, *output)}
	args = append(args, flag.Args()...)

	cmd := exec.Command(filepath.Join(pwd, *tinygo), args...)
	cmd.Env = []string{
		"PATH=" + filepath.Join(pwd, *goSdkBin),
		"HOME=" + filepath.Join(os.Getenv("TMPDIR"), "tinygo-home"),
		"WASMOPT=" + filepath.Join(pwd, *wasmOpt),
	}
	cmd.Dir = filepath.Join(pwd, *chdir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
