// Package cmdsurface exposes memviz's debugging operations as a single
// stable, shell-agnostic interface. Both the REPL and the TUI talk to a
// Surface, never to a *session.Session directly, so a new shell never
// needs to re-learn MI plumbing.
package cmdsurface

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/memviz/memviz/internal/layout"
	"github.com/memviz/memviz/internal/session"
	"github.com/memviz/memviz/internal/vm"
)

// SymbolIndexMode controls how aggressively the globals listing trawls the
// debugger's symbol table.
type SymbolIndexMode string

const (
	// SymbolIndexDebugOnly lists only globals backed by debug info.
	SymbolIndexDebugOnly SymbolIndexMode = "debug-only"
	// SymbolIndexDebugAndNonDebug additionally lists symbols gdb only knows
	// about from the binary's symbol table, with no type or value.
	SymbolIndexDebugAndNonDebug SymbolIndexMode = "debug-and-nondebug"
	// SymbolIndexNone skips the globals lookup entirely.
	SymbolIndexNone SymbolIndexMode = "none"
)

// Surface is the named-operation facade a shell drives.
type Surface interface {
	Load(ctx context.Context, path string, args []string) (session.StopEvent, error)
	Step(ctx context.Context) (session.StopEvent, error)
	Next(ctx context.Context) (session.StopEvent, error)
	Continue(ctx context.Context) (session.StopEvent, error)
	Break(ctx context.Context, location string) (session.BreakpointID, error)
	Locals(ctx context.Context) ([]session.Local, error)
	Globals(ctx context.Context) ([]session.Global, error)
	Mem(ctx context.Context, expr string, length int64) (layout.MemoryRead, error)
	View(ctx context.Context, symbol string) (layout.TypeShape, layout.MemoryRead, error)
	Follow(ctx context.Context, symbol string, depth int) ([]layout.Hop, error)
	Vm(ctx context.Context) (*vm.Map, error)
	VmLocate(ctx context.Context, expr string) (vm.Region, error)
	VmVars(ctx context.Context) ([]vm.RegionGroup, error)
	State() session.RunState
	Profile() session.TargetProfile
	Close() error
}

// Facade is the Surface implementation, adapting a *session.Session plus
// the inferior's pid/exe path (needed only for the vm.* operations, which
// read /proc/<pid>/maps independently of the MI channel).
type Facade struct {
	sess    *session.Session
	exePath string
	pid     func() int
	mode    SymbolIndexMode
}

// New builds a Facade. pid is a thunk rather than a fixed value because the
// inferior's pid is only known after Load succeeds and may change across
// re-runs.
func New(sess *session.Session, exePath string, pid func() int, mode SymbolIndexMode) *Facade {
	return &Facade{sess: sess, exePath: exePath, pid: pid, mode: mode}
}

func (f *Facade) Load(ctx context.Context, path string, args []string) (session.StopEvent, error) {
	f.exePath = path
	return f.sess.LoadAndArm(ctx, path, args)
}

func (f *Facade) Step(ctx context.Context) (session.StopEvent, error)     { return f.sess.Step(ctx) }
func (f *Facade) Next(ctx context.Context) (session.StopEvent, error)     { return f.sess.Next(ctx) }
func (f *Facade) Continue(ctx context.Context) (session.StopEvent, error) { return f.sess.Continue(ctx) }

func (f *Facade) Break(ctx context.Context, location string) (session.BreakpointID, error) {
	return f.sess.Break(ctx, location)
}

func (f *Facade) Locals(ctx context.Context) ([]session.Local, error) { return f.sess.Locals(ctx) }

func (f *Facade) Globals(ctx context.Context) ([]session.Global, error) {
	if f.mode == SymbolIndexNone {
		return nil, nil
	}
	return f.sess.Globals(ctx, f.mode == SymbolIndexDebugAndNonDebug)
}

func (f *Facade) Mem(ctx context.Context, expr string, length int64) (layout.MemoryRead, error) {
	return f.sess.Mem(ctx, expr, length)
}

func (f *Facade) View(ctx context.Context, symbol string) (layout.TypeShape, layout.MemoryRead, error) {
	return f.sess.View(ctx, symbol)
}

func (f *Facade) Follow(ctx context.Context, symbol string, depth int) ([]layout.Hop, error) {
	return f.sess.Follow(ctx, symbol, depth)
}

func (f *Facade) Vm(ctx context.Context) (*vm.Map, error) {
	return f.sess.Vm(ctx, f.pid(), f.exePath)
}

func (f *Facade) VmLocate(ctx context.Context, expr string) (vm.Region, error) {
	return f.sess.VmLocate(ctx, f.pid(), f.exePath, expr)
}

func (f *Facade) VmVars(ctx context.Context) ([]vm.RegionGroup, error) {
	return f.sess.VmVars(ctx, f.pid(), f.exePath)
}

func (f *Facade) State() session.RunState        { return f.sess.State() }
func (f *Facade) Profile() session.TargetProfile { return f.sess.Profile() }
func (f *Facade) Close() error                   { return nil }

var _ Surface = (*Facade)(nil)

// ParseFollowArgs splits a "follow <symbol> [depth]" command line.
func ParseFollowArgs(args []string) (symbol string, depth int, err error) {
	if len(args) == 0 {
		return "", 0, fmt.Errorf("follow: missing symbol")
	}
	symbol = args[0]
	if len(args) > 1 {
		depth, err = strconv.Atoi(args[1])
		if err != nil {
			return "", 0, fmt.Errorf("follow: invalid depth %q", args[1])
		}
	}
	return symbol, depth, nil
}

// ParseMemArgs splits a "mem <expr> [len]" command line. length is 0 when
// omitted; Session.Mem resolves that to sizeof(expr) rather than a fixed
// default, so callers must not substitute their own default here.
func ParseMemArgs(args []string) (expr string, length int64, err error) {
	if len(args) == 0 {
		return "", 0, fmt.Errorf("mem: missing expression")
	}
	if len(args) > 1 {
		length, err = strconv.ParseInt(args[1], 0, 64)
		if err != nil {
			return "", 0, fmt.Errorf("mem: invalid length %q", args[1])
		}
	}
	return args[0], length, nil
}

// JoinArgs rebuilds a single expression argument from shell-tokenized
// pieces, since expressions like "a.b[0]" are passed through unquoted.
func JoinArgs(args []string) string { return strings.Join(args, " ") }
