package transport

import (
	"bufio"
	"strings"
	"testing"

	"github.com/memviz/memviz/internal/mi"
)

// TestResolveOldestOnUntokenedResult exercises the untokened-result
// heuristic: an untokened result resolves the oldest still-pending request
// rather than being dropped as an orphan.
func TestResolveOldestOnUntokenedResult(t *testing.T) {
	tr := &Transport{
		pending: make(map[int]*pending),
		events:  make(chan Event, 1),
		closeCh: make(chan struct{}),
	}
	first := &pending{command: "first", reply: make(chan mi.Record, 1)}
	second := &pending{command: "second", reply: make(chan mi.Record, 1)}
	tr.pending[1] = first
	tr.pending[2] = second
	tr.oldest = []int{1, 2}

	tr.resolve(mi.Record{Kind: mi.Result, Token: -1, ResultClass: mi.ClassDone})

	select {
	case rec := <-first.reply:
		if rec.ResultClass != mi.ClassDone {
			t.Fatalf("got %+v", rec)
		}
	default:
		t.Fatalf("expected the oldest pending request to resolve")
	}
	if _, stillPending := tr.pending[1]; stillPending {
		t.Fatalf("resolved request should be removed from the pending table")
	}
	if _, stillPending := tr.pending[2]; !stillPending {
		t.Fatalf("second request should remain pending")
	}
}

func TestResolveMatchesTokenedResult(t *testing.T) {
	tr := &Transport{
		pending: make(map[int]*pending),
		events:  make(chan Event, 1),
		closeCh: make(chan struct{}),
	}
	p := &pending{reply: make(chan mi.Record, 1)}
	tr.pending[7] = p
	tr.oldest = []int{7}

	tr.resolve(mi.Record{Kind: mi.Result, Token: 7, ResultClass: mi.ClassError})

	rec := <-p.reply
	if rec.ResultClass != mi.ClassError {
		t.Fatalf("got %+v", rec)
	}
}

func TestScannerSplitsOnLF(t *testing.T) {
	r := strings.NewReader("(gdb)\n1^done\n")
	sc := bufio.NewScanner(r)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 2 || lines[0] != "(gdb)" || lines[1] != "1^done" {
		t.Fatalf("got %v", lines)
	}
}
