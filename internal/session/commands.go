package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/memviz/memviz/internal/layout"
)

// LoadAndArm loads the executable, sets a breakpoint at main, and runs to
// it, establishing the TargetProfile from the stop.
func (s *Session) LoadAndArm(ctx context.Context, path string, args []string) (StopEvent, error) {
	if _, err := s.submitDone(ctx, fmt.Sprintf("-file-exec-and-symbols \"%s\"", escapeArg(path))); err != nil {
		return StopEvent{}, err
	}
	if len(args) > 0 {
		if _, err := s.submitDone(ctx, "-exec-arguments "+strings.Join(args, " ")); err != nil {
			return StopEvent{}, err
		}
	}
	if _, err := s.submitDone(ctx, "-break-insert main"); err != nil {
		return StopEvent{}, err
	}

	s.mu.Lock()
	s.armed = true
	s.mu.Unlock()
	s.drainNotify()

	if _, err := s.tr.SubmitExecution(ctx, "-exec-run"); err != nil {
		return StopEvent{}, err
	}
	stop, err := s.waitStop(ctx)
	if err != nil {
		return StopEvent{}, err
	}
	s.establishProfile(ctx)
	return stop, nil
}

// establishProfile queries the target's pointer width and byte order once,
// right after the entry stop, via sizeof(void*) and "-gdb-show endian"
// rather than guessing from an architecture name. Failure is non-fatal:
// profile fields fall back to safe defaults, degrading layout rendering
// gracefully rather than failing the load.
func (s *Session) establishProfile(ctx context.Context) {
	profile := TargetProfile{PointerSize: 8, Endianness: layout.LittleEndian}

	if v, err := s.eval(ctx, "sizeof(void*)"); err == nil {
		if n, perr := strconv.ParseInt(strings.TrimSpace(v), 0, 64); perr == nil && n > 0 {
			profile.PointerSize = int(n)
		}
	}

	if rec, err := s.submitDone(ctx, "-gdb-show endian"); err == nil {
		val := strings.ToLower(rec.Payload.FieldStr("value"))
		if strings.Contains(val, "big") {
			profile.Endianness = layout.BigEndian
		} else if strings.Contains(val, "little") {
			profile.Endianness = layout.LittleEndian
		}
	}

	if text, err := s.captureConsole(ctx, "-interpreter-exec console \"show architecture\""); err == nil {
		for _, line := range text {
			switch {
			case strings.Contains(line, "x86-64") || strings.Contains(line, "amd64"):
				profile.Arch = "amd64"
			case strings.Contains(line, "i386"):
				profile.Arch = "i386"
			case strings.Contains(line, "aarch64"):
				profile.Arch = "arm64"
			}
		}
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
}

func (s *Session) drainNotify() {
	select {
	case <-s.notify:
	default:
	}
}

// waitStop blocks until the event loop observes a stop or exit, or ctx is
// done.
func (s *Session) waitStop(ctx context.Context) (StopEvent, error) {
	select {
	case ev := <-s.notify:
		return ev, nil
	case <-ctx.Done():
		return StopEvent{}, ctx.Err()
	}
}

// execOp issues one of -exec-step/-exec-next/-exec-continue and waits for
// the resulting stop. requireRunnable rejects it before the inferior has
// been armed or after it has exited; it does not detect a second execution
// operation issued while one is still in flight.
func (s *Session) execOp(ctx context.Context, command string) (StopEvent, error) {
	if err := s.requireRunnable(); err != nil {
		return StopEvent{}, err
	}
	s.drainNotify()
	if _, err := s.tr.SubmitExecution(ctx, command); err != nil {
		return StopEvent{}, err
	}
	return s.waitStop(ctx)
}

// Step performs a source-line step-into.
func (s *Session) Step(ctx context.Context) (StopEvent, error) { return s.execOp(ctx, "-exec-step") }

// Next performs a source-line step-over.
func (s *Session) Next(ctx context.Context) (StopEvent, error) { return s.execOp(ctx, "-exec-next") }

// Continue resumes execution until the next breakpoint, signal, or exit.
func (s *Session) Continue(ctx context.Context) (StopEvent, error) {
	return s.execOp(ctx, "-exec-continue")
}

// Break sets a breakpoint at the given location (a function name or
// file:line, per MI's own location grammar) and returns its debugger-
// assigned id.
func (s *Session) Break(ctx context.Context, location string) (BreakpointID, error) {
	if err := s.requireRunnable(); err != nil {
		return 0, err
	}
	rec, err := s.submitDone(ctx, "-break-insert "+location)
	if err != nil {
		return 0, err
	}
	bkpt, _ := rec.Payload.Field("bkpt")
	numStr := bkpt.FieldStr("number")
	n := 0
	fmt.Sscanf(numStr, "%d", &n)
	if n == 0 {
		s.mu.Lock()
		n = s.nextBP
		s.nextBP++
		s.mu.Unlock()
	}
	return BreakpointID(n), nil
}
