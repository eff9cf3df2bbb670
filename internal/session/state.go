// Package session orchestrates a debugging run from load through the
// entry breakpoint to a stream of stop/step/continue transitions, and
// exposes the typed queries (locals, globals, mem, view, follow, vm) that
// the command surface consumes. Execution operations block until the
// resulting stop, so a shell that issues one command at a time never has
// more than one outstanding; the session does not itself reject a second
// execution operation issued while one is in flight.
package session

import (
	"context"
	"time"

	"github.com/memviz/memviz/internal/layout"
	"github.com/memviz/memviz/internal/mi"
	"github.com/memviz/memviz/internal/transport"
)

// Transport is the subset of *transport.Transport the session depends on;
// an interface so tests can script a fake instead of spawning a debugger.
type Transport interface {
	Submit(ctx context.Context, command string, timeout time.Duration) (mi.Record, error)
	SubmitExecution(ctx context.Context, command string) (mi.Record, error)
	Events() <-chan transport.Event
	Interrupt() error
	Close() error
}

// StateKind is the RunState sum type's discriminant.
type StateKind int

const (
	NotStarted StateKind = iota
	Running
	Stopped
	ExitedState
)

// Frame is the current frame of the stopped thread.
type Frame struct {
	File string
	Line int
	Func string
	Addr uint64
}

// StopEvent describes why execution stopped.
type StopEvent struct {
	Reason   string // e.g. "breakpoint-hit", "end-stepping-range", "signal-received", "exited"
	Frame    Frame
	Signal   string
	ExitCode int
}

// RunState is the session's current execution state.
type RunState struct {
	Kind     StateKind
	Stop     StopEvent
	ExitCode int
}

func (s StateKind) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case ExitedState:
		return "exited"
	default:
		return "unknown"
	}
}

// TargetProfile is established once after the first stop at the entry
// function.
type TargetProfile struct {
	Arch        string
	PointerSize int
	Endianness  layout.Endianness
}

// Local is one stack local, re-fetched on every stop.
type Local struct {
	Name     string
	Type     string
	Value    string // rendering; empty if unavailable
	HasValue bool
	Addr     uint64
	HasAddr  bool
	Frame    int // always 0: only the current frame is inspected
}

// Global is one global or static file-scoped variable.
type Global struct {
	Name     string
	Type     string
	Value    string
	HasValue bool
	Addr     uint64
	HasAddr  bool
	NonDebug bool // true if only found in the debugger's non-debugging symbol table
}

// BreakpointID is the debugger-assigned breakpoint number.
type BreakpointID int
