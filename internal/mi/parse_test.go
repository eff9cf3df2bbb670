package mi

import (
	"testing"
)

func TestParsePrompt(t *testing.T) {
	r, err := Parse("(gdb)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Kind != Prompt {
		t.Fatalf("got kind %v, want Prompt", r.Kind)
	}
}

func TestParseTokenedResult(t *testing.T) {
	r, err := Parse(`12^done,value="42"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Kind != Result || r.Token != 12 || r.ResultClass != ClassDone {
		t.Fatalf("got %+v", r)
	}
	if got := r.Payload.FieldStr("value"); got != "42" {
		t.Fatalf("value = %q, want 42", got)
	}
}

func TestParseUntokenedResult(t *testing.T) {
	r, err := Parse(`^running`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Token != -1 || r.ResultClass != ClassRunning {
		t.Fatalf("got %+v", r)
	}
}

func TestParseAsyncExec(t *testing.T) {
	r, err := Parse(`*stopped,reason="breakpoint-hit",frame={addr="0x1",func="main"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Kind != AsyncExec || r.AsyncClass != "stopped" {
		t.Fatalf("got %+v", r)
	}
	frame, ok := r.Payload.Field("frame")
	if !ok || frame.FieldStr("func") != "main" {
		t.Fatalf("frame = %+v", frame)
	}
}

func TestParseStreams(t *testing.T) {
	cases := []struct {
		line string
		kind RecordKind
		text string
	}{
		{`~"hello\n"`, StreamConsole, "hello\n"},
		{`@"target out"`, StreamTarget, "target out"},
		{`&"log line"`, StreamLog, "log line"},
	}
	for _, c := range cases {
		r, err := Parse(c.line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.line, err)
		}
		if r.Kind != c.kind || r.Text != c.text {
			t.Fatalf("Parse(%q) = %+v", c.line, r)
		}
	}
}

func TestParseNestedTupleAndList(t *testing.T) {
	r, err := Parse(`1^done,result={a="1",b={c="x",d=[1,2]}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, ok := r.Payload.Field("result")
	if !ok {
		t.Fatalf("missing result field")
	}
	if result.FieldStr("a") != "1" {
		t.Fatalf("a = %q", result.FieldStr("a"))
	}
	b, ok := result.Field("b")
	if !ok || b.FieldStr("c") != "x" {
		t.Fatalf("b = %+v", b)
	}
	d, ok := b.Field("d")
	if !ok || len(d.Items()) != 2 {
		t.Fatalf("d = %+v", d)
	}
}

func TestParseEmptyContainers(t *testing.T) {
	r, err := Parse(`1^done,empty_tuple={},empty_list=[]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	et, _ := r.Payload.Field("empty_tuple")
	if et.Kind != KindTuple || len(et.Names()) != 0 {
		t.Fatalf("empty_tuple = %+v", et)
	}
	el, _ := r.Payload.Field("empty_list")
	if el.Kind != KindList || len(el.Items()) != 0 {
		t.Fatalf("empty_list = %+v", el)
	}
}

func TestParseUnterminatedStringErrors(t *testing.T) {
	_, err := Parse(`1^done,value="no closing quote`)
	assertMalformed(t, err)
}

func TestParseTrailingBackslashErrors(t *testing.T) {
	_, err := Parse(`1^done,value="trailing\`)
	assertMalformed(t, err)
}

func TestParseMissingEqualsErrors(t *testing.T) {
	_, err := Parse(`1^done,novalue`)
	assertMalformed(t, err)
}

func TestParseNonNumericTokenErrors(t *testing.T) {
	_, err := Parse(`1x^done`)
	assertMalformed(t, err)
}

func TestParseUnbalancedTupleErrors(t *testing.T) {
	_, err := Parse(`1^done,t={a="1"`)
	assertMalformed(t, err)
}

func assertMalformed(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a MalformedRecord error, got nil")
	}
	if _, ok := err.(*MalformedRecord); !ok {
		t.Fatalf("expected *MalformedRecord, got %T (%v)", err, err)
	}
}

func TestDecodeStringEscapes(t *testing.T) {
	cases := map[string]string{
		`a\nb`:    "a\nb",
		`a\tb`:    "a\tb",
		`a\\b`:    `a\b`,
		`a\"b`:    `a"b`,
		`a\x41b`:  "aAb",
		`a\101b`:  "aAb",
		`a\0b`:    "a\x00b",
		`a\qb`:    "aqb",
	}
	for in, want := range cases {
		if got := DecodeString(in); got != want {
			t.Fatalf("DecodeString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range []string{"", "plain", "with\nnewline", "with\"quote", "with\\backslash"} {
		encoded := Const(s).Encode()
		r, err := Parse(`1^done,v=` + encoded)
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", encoded, err)
		}
		got := r.Payload.FieldStr("v")
		if got != s {
			t.Fatalf("round trip: got %q, want %q", got, s)
		}
	}
}

func TestMemZeroLengthIsNotAnError(t *testing.T) {
	// A zero-length read is a valid, empty result, not a parse or protocol
	// error. The codec itself has no notion of "mem"; this exercises that
	// an empty memory list, which is what a zero-byte read renders as on
	// the wire, parses cleanly to a list with no items.
	r, err := Parse(`1^done,memory=[]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mem, ok := r.Payload.Field("memory")
	if !ok || len(mem.Items()) != 0 {
		t.Fatalf("memory = %+v", mem)
	}
}
