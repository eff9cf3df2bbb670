package vm

import (
	"strings"
	"testing"
)

const sampleMaps = `
00400000-00401000 r-xp 00000000 08:01 1234567 /home/u/prog
00600000-00601000 r--p 00000000 08:01 1234567 /home/u/prog
00601000-00602000 rw-p 00001000 08:01 1234567 /home/u/prog
00602000-00603000 rw-p 00000000 00:00 0
01a00000-01a21000 rw-p 00000000 00:00 0                                  [heap]
7f0000000000-7f0000021000 r-xp 00000000 08:01 999 /usr/lib/x86_64-linux-gnu/libc.so.6
7ffee0000000-7ffee0021000 rw-p 00000000 00:00 0                          [stack]
7ffee0021000-7ffee0022000 r-xp 00000000 00:00 0                          [vdso]
`

func TestParseClassifiesRegions(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleMaps), "/home/u/prog")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[Address]Class{
		0x00400000:     ClassText,
		0x00600000:     ClassRodata,
		0x00601000:     ClassData,
		0x00602000:     ClassAnon,
		0x01a00000:     ClassHeap,
		0x7f0000000000: ClassLibText,
		0x7ffee0000000: ClassStack,
		0x7ffee0021000: ClassVDSO,
	}
	if len(m.Regions) != len(want) {
		t.Fatalf("got %d regions, want %d", len(m.Regions), len(want))
	}
	for _, r := range m.Regions {
		wantClass, ok := want[r.Start]
		if !ok {
			t.Fatalf("unexpected region at %#x", r.Start)
		}
		if r.Class != wantClass {
			t.Errorf("region %#x: class = %s, want %s", r.Start, r.Class, wantClass)
		}
	}
}

func TestRegionsAreSortedAndNonOverlapping(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleMaps), "/home/u/prog")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for i := 1; i < len(m.Regions); i++ {
		prev, cur := m.Regions[i-1], m.Regions[i]
		if cur.Start < prev.End {
			t.Fatalf("regions overlap: %+v then %+v", prev, cur)
		}
		if cur.Start <= prev.Start {
			t.Fatalf("regions not strictly increasing by start")
		}
	}
}

func TestLocateFindsContainingRegion(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleMaps), "/home/u/prog")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r, err := m.Locate(0x01a00010)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if r.Class != ClassHeap {
		t.Fatalf("got class %s, want heap", r.Class)
	}
}

func TestLocateNotMapped(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleMaps), "/home/u/prog")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = m.Locate(0xffffffffff)
	if err == nil {
		t.Fatalf("expected NotMapped")
	}
	if _, ok := err.(*NotMapped); !ok {
		t.Fatalf("got %T, want *NotMapped", err)
	}
}

func TestGroupDropsUnresolvedAddresses(t *testing.T) {
	m, err := Parse(strings.NewReader(sampleMaps), "/home/u/prog")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	groups := m.Group([]TaggedAddress{
		{Tag: "global:g_counter", Addr: 0x00601004},
		{Tag: "local:x", Addr: 0x7ffee0000100},
		{Tag: "unmapped:z", Addr: 0xffffffffff},
	})
	total := 0
	for _, g := range groups {
		total += len(g.Addresses)
	}
	if total != 2 {
		t.Fatalf("got %d addresses across groups, want 2 (unmapped one dropped)", total)
	}
}
