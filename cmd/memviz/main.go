// Command memviz is an interactive memory visualizer for native C/C++
// executables: it drives gdb as a subprocess over its machine interface
// and lets a user step through a program, inspect locals and globals, dump
// raw memory, and walk pointer chains, either from a line-oriented REPL or
// a terminal UI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/memviz/memviz/internal/build"
	"github.com/memviz/memviz/internal/cmdsurface"
	"github.com/memviz/memviz/internal/logging"
	"github.com/memviz/memviz/internal/session"
	"github.com/memviz/memviz/internal/transport"
)

// Exit codes, per the command surface's documented contract: 2 for usage
// errors, 3 when the debugger can't be started, 4 when the target can't be
// loaded, 5 when the debugger subprocess exits unexpectedly mid-session.
// Anything else (including an auto-build compile failure) falls back to a
// generic 1.
const (
	exitOK             = 0
	exitUsage          = 2
	exitDebuggerStart  = 3
	exitTargetFailed   = 4
	exitDebuggerExited = 5
)

type rootFlags struct {
	gdbPath         string
	verbose         bool
	logFile         string
	tui             bool
	symbolIndexMode string
}

func main() {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "memviz [flags] (executable|source.c) [-- args...]",
		Short: "Interactive memory visualizer for native executables",
		Long: `memviz drives gdb's machine interface to load a native executable
(or a single C/C++ source file, which it compiles with -g -O0 first),
run it to main, and expose its locals, globals, raw memory, and pointer
structure through a REPL or terminal UI.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return &usageError{msg: err.Error()}
			}
			return nil
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, args)
		},
	}

	root.Flags().StringVar(&flags.gdbPath, "gdb", "", "path to the gdb binary (default: $GDB, else \"gdb\")")
	root.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "also log to stderr")
	root.Flags().StringVar(&flags.logFile, "log-file", "", "path to a structured log file")
	root.Flags().BoolVar(&flags.tui, "tui", false, "launch the terminal UI instead of the REPL")
	root.Flags().StringVar(&flags.symbolIndexMode, "symbol-index-mode", string(cmdsurface.SymbolIndexDebugOnly),
		"globals symbol lookup strategy: debug-only, debug-and-nondebug, none")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(codeFor(err))
	}
}

// codeFor maps a returned error to the process exit code spec'd for this
// command surface; unrecognized errors (including an auto-build compile
// failure) fall back to a generic failure.
func codeFor(err error) int {
	var exitErr exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		return exitUsage
	}
	return 1
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func run(ctx context.Context, flags *rootFlags, args []string) error {
	mode := cmdsurface.SymbolIndexMode(flags.symbolIndexMode)
	switch mode {
	case cmdsurface.SymbolIndexDebugOnly, cmdsurface.SymbolIndexDebugAndNonDebug, cmdsurface.SymbolIndexNone:
	default:
		return &usageError{msg: fmt.Sprintf("invalid --symbol-index-mode %q", flags.symbolIndexMode)}
	}

	logger, closeLog, err := logging.New(logging.Config{
		Path:    flags.logFile,
		Verbose: flags.verbose,
		Level:   slog.LevelInfo,
	})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer closeLog()

	target := args[0]
	targetArgs := args[1:]

	if build.IsSource(target) {
		logger.Info("auto-building single source file", "source", target)
		result, err := build.Single(ctx, target)
		if err != nil {
			return err
		}
		defer result.Cleanup()
		target = result.ExePath
	}

	tr, err := transport.Start(transport.Config{DebuggerPath: flags.gdbPath, Logger: logger})
	if err != nil {
		return fmt.Errorf("%w: %v", errDebuggerStart, err)
	}
	defer tr.Close()

	sess := session.New(tr)
	pidFn := func() int {
		pid, err := sess.InferiorPid(ctx)
		if err != nil {
			logger.Warn("could not determine inferior pid", "error", err)
			return 0
		}
		return pid
	}
	surface := cmdsurface.New(sess, target, pidFn, mode)

	stop, err := surface.Load(ctx, target, targetArgs)
	if err != nil {
		return fmt.Errorf("%w: %v", errTargetFailed, err)
	}
	logger.Info("reached entry stop", "func", stop.Frame.Func, "file", stop.Frame.File, "line", stop.Frame.Line)

	var shellErr error
	if flags.tui {
		shellErr = runTUI(ctx, surface)
	} else {
		shellErr = runREPL(ctx, surface)
	}
	if tr.UnexpectedExit() {
		return errDebuggerExited
	}
	return shellErr
}

var (
	errDebuggerStart  = exitError{exitDebuggerStart, "debugger-start-failed"}
	errTargetFailed   = exitError{exitTargetFailed, "target-failed"}
	errDebuggerExited = exitError{exitDebuggerExited, "debugger-exited-unexpectedly"}
)

// exitError carries its process exit code alongside its message so codeFor
// can map it without a type switch per call site.
type exitError struct {
	code int
	msg  string
}

func (e exitError) Error() string { return e.msg }
