package session

import "fmt"

// NotStopped is returned by a typed query issued while RunState is not
// Stopped.
type NotStopped struct{ State string }

func (e *NotStopped) Error() string { return fmt.Sprintf("not-stopped: state is %s", e.State) }

// NotRunning is returned by an execution operation issued before Load/Arm
// has started the inferior, or after it has exited.
type NotRunning struct{}

func (e *NotRunning) Error() string { return "not-running" }

// Exited is returned by a query issued after the inferior has exited.
type Exited struct{ Code int }

func (e *Exited) Error() string { return fmt.Sprintf("exited: code %d", e.Code) }

// NoSuchSymbol is returned when the debugger reports a symbol/expression
// as unresolvable.
type NoSuchSymbol struct{ Symbol string }

func (e *NoSuchSymbol) Error() string { return fmt.Sprintf("no-such-symbol: %s", e.Symbol) }

// NoAddress is returned by the non-fatal address-of-local/global lookup:
// callers treat it as "this item stays addressless" rather than failing
// the whole query.
type NoAddress struct{ Expr string }

func (e *NoAddress) Error() string { return fmt.Sprintf("no-address: %s", e.Expr) }

// SizeUnknown is returned when a sizeof query the layout engine depends on
// could not be resolved.
type SizeUnknown struct{ Expr string }

func (e *SizeUnknown) Error() string { return fmt.Sprintf("size-unknown: %s", e.Expr) }

// ReadFailed wraps a failed -data-read-memory-bytes call.
type ReadFailed struct{ Reason string }

func (e *ReadFailed) Error() string { return fmt.Sprintf("read-failed: %s", e.Reason) }

// UnexpectedClass is returned when a result record's class is not one the
// caller's command can sensibly produce (e.g. ^error where ^done was
// required, with no recognizable error message to surface instead).
type UnexpectedClass struct{ Class string }

func (e *UnexpectedClass) Error() string { return fmt.Sprintf("unexpected-class: %s", e.Class) }
