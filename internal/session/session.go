package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/memviz/memviz/internal/layout"
	"github.com/memviz/memviz/internal/mi"
	"github.com/memviz/memviz/internal/transport"
)

// Session owns the debugging run's state machine and serializes every
// query/command through its Transport.
type Session struct {
	tr Transport

	mu      sync.Mutex
	state   RunState
	profile TargetProfile
	armed   bool

	// capture, when non-nil, accumulates console-stream text seen by the
	// event loop while a command relying on "info variables"-style
	// fallback output is in flight.
	capture *[]string

	notify chan StopEvent

	nextBP int
}

// New starts the session's event loop over an already-started transport.
func New(tr Transport) *Session {
	s := &Session{
		tr:     tr,
		state:  RunState{Kind: NotStarted},
		notify: make(chan StopEvent, 1),
		nextBP: 1,
	}
	go s.eventLoop()
	return s
}

func (s *Session) eventLoop() {
	for ev := range s.tr.Events() {
		s.handleEvent(ev)
	}
}

func (s *Session) handleEvent(ev transport.Event) {
	rec := ev.Record
	s.mu.Lock()
	if s.capture != nil && (rec.Kind == mi.StreamConsole) {
		*s.capture = append(*s.capture, rec.Text)
	}
	switch rec.Kind {
	case mi.AsyncExec:
		switch rec.AsyncClass {
		case "stopped":
			reason := rec.Payload.FieldStr("reason")
			stop := StopEvent{Reason: reason}
			if strings.HasPrefix(reason, "exited") {
				code := 0
				if c := rec.Payload.FieldStr("exit-code"); c != "" {
					if n, err := strconv.ParseInt(strings.TrimPrefix(c, "0"), 8, 64); err == nil {
						code = int(n)
					} else if n, err := strconv.Atoi(c); err == nil {
						code = n
					}
				}
				stop.ExitCode = code
				s.state = RunState{Kind: ExitedState, Stop: stop, ExitCode: code}
			} else {
				if frame, ok := rec.Payload.Field("frame"); ok {
					stop.Frame = parseFrame(frame)
				}
				if sig := rec.Payload.FieldStr("signal-name"); sig != "" {
					stop.Signal = sig
				}
				s.state = RunState{Kind: Stopped, Stop: stop}
			}
			s.notifyLocked(stop)
		case "running":
			s.state = RunState{Kind: Running}
		}
	}
	s.mu.Unlock()
}

func (s *Session) notifyLocked(ev StopEvent) {
	select {
	case <-s.notify:
	default:
	}
	s.notify <- ev
}

func parseFrame(v mi.Value) Frame {
	f := Frame{
		File: v.FieldStr("file"),
		Func: v.FieldStr("func"),
	}
	if line := v.FieldStr("line"); line != "" {
		if n, err := strconv.Atoi(line); err == nil {
			f.Line = n
		}
	}
	if addr := v.FieldStr("addr"); addr != "" {
		f.Addr = parseHexAddr(addr)
	}
	return f
}

func parseHexAddr(s string) uint64 {
	s = strings.TrimPrefix(s, "0x")
	n, _ := strconv.ParseUint(s, 16, 64)
	return n
}

// State returns the session's current run state.
func (s *Session) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Profile returns the TargetProfile established after the entry stop.
func (s *Session) Profile() TargetProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *Session) requireStopped() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state.Kind {
	case Stopped:
		return nil
	case ExitedState:
		return &Exited{Code: s.state.ExitCode}
	default:
		return &NotStopped{State: s.state.Kind.String()}
	}
}

func (s *Session) requireRunnable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Kind == ExitedState || !s.armed {
		return &NotRunning{}
	}
	return nil
}

// eval issues -data-evaluate-expression and returns its "value" field.
func (s *Session) eval(ctx context.Context, expr string) (string, error) {
	rec, err := s.submitDone(ctx, fmt.Sprintf("-data-evaluate-expression \"%s\"", escapeArg(expr)))
	if err != nil {
		return "", err
	}
	return rec.Payload.FieldStr("value"), nil
}

func escapeArg(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}

// submitDone submits a command and requires the result to be ^done,
// surfacing ^error messages as NoSuchSymbol (the common case for a bad
// expression) rather than a bare UnexpectedClass.
func (s *Session) submitDone(ctx context.Context, command string) (mi.Record, error) {
	rec, err := s.tr.Submit(ctx, command, 0)
	if err != nil {
		return mi.Record{}, err
	}
	if rec.ResultClass == mi.ClassError {
		msg := rec.Payload.FieldStr("msg")
		return mi.Record{}, &NoSuchSymbol{Symbol: msg}
	}
	if rec.ResultClass != mi.ClassDone {
		return mi.Record{}, &UnexpectedClass{Class: string(rec.ResultClass)}
	}
	return rec, nil
}

// SizeOf implements layout.Oracle.SizeOf.
func (s *Session) SizeOf(expr string) (int64, error) {
	v, err := s.eval(context.Background(), "sizeof("+expr+")")
	if err != nil {
		return 0, &SizeUnknown{Expr: expr}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
	if err != nil {
		return 0, &SizeUnknown{Expr: expr}
	}
	return n, nil
}

// OffsetOf implements layout.Oracle.OffsetOf via pointer subtraction.
func (s *Session) OffsetOf(parentExpr, fieldExpr string) (int64, error) {
	expr := fmt.Sprintf("(char*)&(%s) - (char*)&(%s)", fieldExpr, parentExpr)
	v, err := s.eval(context.Background(), expr)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
	if err != nil {
		return 0, &SizeUnknown{Expr: expr}
	}
	return n, nil
}

// FieldNames implements layout.Oracle.FieldNames by asking gdb to print
// the struct's definition via "ptype", then scraping member names. This
// asks the debugger rather than re-deriving the layout from DWARF.
func (s *Session) FieldNames(typeStr string) ([]string, error) {
	text, err := s.captureConsole(context.Background(), "-interpreter-exec console \"ptype "+escapeArg(typeStr)+"\"")
	if err != nil {
		return nil, err
	}
	return parseFieldNamesFromPtype(text), nil
}

// FieldType implements layout.Oracle.FieldType.
func (s *Session) FieldType(parentExpr, fieldName string) (string, error) {
	rec, err := s.submitDone(context.Background(), fmt.Sprintf("-var-create - * \"%s.%s\"", escapeArg(parentExpr), fieldName))
	if err != nil {
		return "", err
	}
	name := rec.Payload.FieldStr("name")
	typ := rec.Payload.FieldStr("type")
	if name != "" {
		s.tr.Submit(context.Background(), "-var-delete "+name, 0)
	}
	if typ == "" {
		return "", &SizeUnknown{Expr: parentExpr + "." + fieldName}
	}
	return typ, nil
}

// captureConsole submits a console-routed command while buffering every
// stream-console record the event loop observes during the call, since
// "ptype"/"info variables" output arrives as console-stream (~) text
// rather than a structured result payload.
func (s *Session) captureConsole(ctx context.Context, command string) ([]string, error) {
	buf := make([]string, 0, 8)
	s.mu.Lock()
	s.capture = &buf
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.capture = nil
		s.mu.Unlock()
	}()
	if _, err := s.submitDone(ctx, command); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := append([]string(nil), buf...)
	s.mu.Unlock()
	return out, nil
}

// parseFieldNamesFromPtype scrapes member names out of gdb's "ptype"
// console rendering, e.g.:
//
//	type = struct node {
//	    int id;
//	    struct node *next;
//	}
func parseFieldNamesFromPtype(lines []string) []string {
	var names []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "type = ") || line == "}" || strings.HasSuffix(line, "{") {
			continue
		}
		line = strings.TrimSuffix(line, ";")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		last := fields[len(fields)-1]
		last = strings.TrimPrefix(last, "*")
		if idx := strings.Index(last, "["); idx >= 0 {
			last = last[:idx]
		}
		if last != "" {
			names = append(names, last)
		}
	}
	return names
}

// EvalPointer implements layout.Pointee.EvalPointer.
func (s *Session) EvalPointer(expr string) (uint64, error) {
	v, err := s.eval(context.Background(), "(unsigned long)("+expr+")")
	if err != nil {
		return 0, err
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseUint(v, 0, 64); err == nil {
		return n, nil
	}
	return parseHexAddr(v), nil
}

// Render implements layout.Pointee.Render.
func (s *Session) Render(expr string) (string, error) {
	return s.eval(context.Background(), "*("+expr+")")
}

// NextField implements layout.Pointee.NextField: it prefers a field named
// "next", and otherwise falls back to the first pointer-typed field of the
// struct, skipping scalar and embedded-struct fields that can't continue a
// pointer chain.
func (s *Session) NextField(expr string) (string, bool, error) {
	typ, err := s.exprType(expr)
	if err != nil {
		return "", false, err
	}
	names, err := s.FieldNames(typ)
	if err != nil {
		return "", false, err
	}
	for _, n := range names {
		if n == "next" {
			return "next", true, nil
		}
	}
	for _, n := range names {
		fieldType, err := s.FieldType(expr, n)
		if err != nil {
			continue
		}
		if strings.Contains(fieldType, "*") {
			return n, true, nil
		}
	}
	return "", false, nil
}

// exprType asks gdb for the static type of an arbitrary expression via a
// scratch variable object, deleting it immediately after.
func (s *Session) exprType(expr string) (string, error) {
	rec, err := s.submitDone(context.Background(), fmt.Sprintf("-var-create - * \"%s\"", escapeArg(expr)))
	if err != nil {
		return "", err
	}
	name := rec.Payload.FieldStr("name")
	typ := rec.Payload.FieldStr("type")
	if name != "" {
		s.tr.Submit(context.Background(), "-var-delete "+name, 0)
	}
	if typ == "" {
		return "", &SizeUnknown{Expr: expr}
	}
	return typ, nil
}

var _ layout.Oracle = (*Session)(nil)
var _ layout.Pointee = (*Session)(nil)
