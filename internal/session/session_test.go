package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memviz/memviz/internal/mi"
	"github.com/memviz/memviz/internal/transport"
)

// fakeTransport is a scripted stand-in for *transport.Transport, letting
// session tests exercise the event loop and command/query plumbing without
// spawning a debugger subprocess.
type fakeTransport struct {
	events  chan transport.Event
	replies map[string]mi.Record
	calls   []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events:  make(chan transport.Event, 16),
		replies: make(map[string]mi.Record),
	}
}

func (f *fakeTransport) on(command string, rec mi.Record) {
	f.replies[command] = rec
}

func (f *fakeTransport) Submit(ctx context.Context, command string, timeout time.Duration) (mi.Record, error) {
	f.calls = append(f.calls, command)
	if rec, ok := f.replies[command]; ok {
		return rec, nil
	}
	return mi.Record{Kind: mi.Result, ResultClass: mi.ClassDone}, nil
}

func (f *fakeTransport) SubmitExecution(ctx context.Context, command string) (mi.Record, error) {
	return f.Submit(ctx, command, 0)
}

func (f *fakeTransport) Events() <-chan transport.Event { return f.events }
func (f *fakeTransport) Interrupt() error               { return nil }
func (f *fakeTransport) Close() error                   { close(f.events); return nil }

func TestLoadAndArmReachesStopped(t *testing.T) {
	ft := newFakeTransport()
	s := New(ft)

	frame := mi.NewTuple(
		struct {
			Name string
			Val  mi.Value
		}{"file", mi.Const("main.c")},
		struct {
			Name string
			Val  mi.Value
		}{"line", mi.Const("10")},
		struct {
			Name string
			Val  mi.Value
		}{"func", mi.Const("main")},
		struct {
			Name string
			Val  mi.Value
		}{"addr", mi.Const("0x400500")},
	)
	stopPayload := mi.NewTuple(
		struct {
			Name string
			Val  mi.Value
		}{"reason", mi.Const("breakpoint-hit")},
		struct {
			Name string
			Val  mi.Value
		}{"frame", frame},
	)

	go func() {
		ft.events <- transport.Event{Record: mi.Record{
			Kind: mi.AsyncExec, AsyncClass: "stopped", Payload: stopPayload,
		}}
	}()

	stop, err := s.LoadAndArm(context.Background(), "/tmp/a.out", nil)
	require.NoError(t, err)
	require.Equal(t, "breakpoint-hit", stop.Reason)
	require.Equal(t, "main", stop.Frame.Func)
	require.Equal(t, 10, stop.Frame.Line)
	require.Equal(t, Stopped, s.State().Kind)
}

func TestLocalsRequiresStopped(t *testing.T) {
	ft := newFakeTransport()
	s := New(ft)
	_, err := s.Locals(context.Background())
	require.Error(t, err)
	var notStopped *NotStopped
	require.ErrorAs(t, err, &notStopped)
}

func TestContinueToExitTransitionsState(t *testing.T) {
	ft := newFakeTransport()
	s := New(ft)
	s.armed = true
	s.state = RunState{Kind: Stopped}

	exitPayload := mi.NewTuple(struct {
		Name string
		Val  mi.Value
	}{"reason", mi.Const("exited-normally")})

	go func() {
		ft.events <- transport.Event{Record: mi.Record{
			Kind: mi.AsyncExec, AsyncClass: "stopped", Payload: exitPayload,
		}}
	}()

	stop, err := s.Continue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "exited-normally", stop.Reason)
	require.Equal(t, ExitedState, s.State().Kind)

	_, err = s.Locals(context.Background())
	var exited *Exited
	require.ErrorAs(t, err, &exited)
}

func TestSubmitDoneSurfacesErrorAsNoSuchSymbol(t *testing.T) {
	ft := newFakeTransport()
	errPayload := mi.NewTuple(struct {
		Name string
		Val  mi.Value
	}{"msg", mi.Const("No symbol \"bogus\" in current context.")})
	ft.on(`-data-evaluate-expression "sizeof(bogus)"`, mi.Record{
		Kind: mi.Result, ResultClass: mi.ClassError, Payload: errPayload,
	})

	s := New(ft)
	_, err := s.SizeOf("bogus")
	require.Error(t, err)

	_, err = s.submitDone(context.Background(), `-data-evaluate-expression "sizeof(bogus)"`)
	var noSym *NoSuchSymbol
	require.ErrorAs(t, err, &noSym)
}

func TestParseFieldNamesFromPtype(t *testing.T) {
	lines := []string{
		"type = struct node {",
		"    int id;",
		"    char name[16];",
		"    struct node *next;",
		"}",
	}
	names := parseFieldNamesFromPtype(lines)
	require.Equal(t, []string{"id", "name", "next"}, names)
}
