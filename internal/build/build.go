// Package build compiles a single C or C++ source file into a debuggable
// executable, the way a developer would reach for "cc -g -O0" by hand
// before attaching a debugger. It exists so "memviz foo.c" works without a
// separate build step.
package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Failed wraps a failed compiler invocation, keeping the compiler's own
// diagnostics attached.
type Failed struct {
	Compiler string
	Args     []string
	Stderr   string
	Err      error
}

func (e *Failed) Error() string {
	return fmt.Sprintf("build-failed: %s %s: %v\n%s", e.Compiler, strings.Join(e.Args, " "), e.Err, e.Stderr)
}

func (e *Failed) Unwrap() error { return e.Err }

// Result describes a successful build.
type Result struct {
	ExePath string
	Cleanup func() error
}

// compilerFor maps a source extension to the conventional compiler ($CC or
// cc for C, $CXX or c++ for C++).
func compilerFor(source string) (string, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".c":
		return envOr("CC", "cc"), nil
	case ".cc", ".cpp", ".cxx":
		return envOr("CXX", "c++"), nil
	default:
		return "", fmt.Errorf("build: unrecognized source extension %q", filepath.Ext(source))
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// Single compiles one source file with debug info and no optimization, so
// the resulting binary's line table and local variables match the source
// a user is looking at. The output binary is written alongside the source,
// named "<name>-memviz.out" so it never collides with a same-named file
// the user already has.
func Single(ctx context.Context, source string) (Result, error) {
	compiler, err := compilerFor(source)
	if err != nil {
		return Result{}, err
	}
	stem := strings.TrimSuffix(source, filepath.Ext(source))
	out := stem + "-memviz.out"
	args := []string{"-g", "-O0", "-o", out, source}

	cmd := exec.CommandContext(ctx, compiler, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Result{}, &Failed{Compiler: compiler, Args: args, Stderr: stderr.String(), Err: err}
	}

	return Result{
		ExePath: out,
		Cleanup: func() error { return os.Remove(out) },
	}, nil
}

// IsSource reports whether path looks like a C/C++ translation unit memviz
// should auto-build rather than load directly as an executable.
func IsSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".cc", ".cpp", ".cxx":
		return true
	default:
		return false
	}
}
