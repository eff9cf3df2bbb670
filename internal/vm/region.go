// Package vm classifies a process's virtual-memory map (the kernel's
// per-process map file) into text/data/heap/stack/library/anonymous
// regions and locates arbitrary addresses within it.
package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Perm holds a region's read/write/execute bits plus the shared/private
// bit the maps file carries.
type Perm uint8

const (
	Read Perm = 1 << iota
	Write
	Exec
	Shared
)

func (p Perm) String() string {
	r, w, x, s := '-', '-', '-', 'p'
	if p&Read != 0 {
		r = 'r'
	}
	if p&Write != 0 {
		w = 'w'
	}
	if p&Exec != 0 {
		x = 'x'
	}
	if p&Shared != 0 {
		s = 's'
	}
	return fmt.Sprintf("%c%c%c%c", r, w, x, s)
}

// Class is the classification a Region is bucketed into.
type Class string

const (
	ClassText    Class = "text"
	ClassRodata  Class = "rodata"
	ClassData    Class = "data"
	ClassBSS     Class = "bss"
	ClassHeap    Class = "heap"
	ClassStack   Class = "stack"
	ClassLibText Class = "lib-text"
	ClassLibData Class = "lib-data"
	ClassAnon    Class = "anon"
	ClassVDSO    Class = "vdso"
	ClassOther   Class = "other"
)

// Region is one classified line of the memory map.
type Region struct {
	Start, End Address // End is exclusive
	Perm       Perm
	Offset     uint64
	Inode      uint64
	Path       string // possibly empty
	Class      Class
}

// Address is a virtual address in the inferior.
type Address uint64

// NotMapped is returned by Locate when no region covers the address.
type NotMapped struct {
	Addr Address
}

func (e *NotMapped) Error() string {
	return fmt.Sprintf("not-mapped: no region contains %#x", uint64(e.Addr))
}

// MapReadFailed wraps an I/O error reading the map file.
type MapReadFailed struct {
	Err error
}

func (e *MapReadFailed) Error() string { return fmt.Sprintf("map-read-failed: %v", e.Err) }
func (e *MapReadFailed) Unwrap() error { return e.Err }

// Map is a parsed, sorted, non-overlapping set of regions for one pid.
type Map struct {
	Regions []Region
}

// ReadProcess reads and classifies /proc/<pid>/maps for the given pid,
// using exePath to recognize the target-executable-backed regions.
func ReadProcess(pid int, exePath string) (*Map, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, &MapReadFailed{Err: err}
	}
	defer f.Close()
	return Parse(f, exePath)
}

// Parse parses the maps-file grammar from r and classifies every region.
// Each non-empty line is "START-END PERMS OFFSET DEV INODE [PATH]".
func Parse(r io.Reader, exePath string) (*Map, error) {
	var regions []Region
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		reg, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		regions = append(regions, reg)
	}
	if err := sc.Err(); err != nil {
		return nil, &MapReadFailed{Err: err}
	}

	slices.SortFunc(regions, func(a, b Region) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	for i := range regions {
		classify(&regions[i], exePath)
	}
	return &Map{Regions: regions}, nil
}

func parseLine(line string) (Region, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Region{}, &MapReadFailed{Err: fmt.Errorf("malformed maps line: %q", line)}
	}
	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return Region{}, &MapReadFailed{Err: fmt.Errorf("malformed address range: %q", fields[0])}
	}
	start, err := strconv.ParseUint(addrs[0], 16, 64)
	if err != nil {
		return Region{}, &MapReadFailed{Err: err}
	}
	end, err := strconv.ParseUint(addrs[1], 16, 64)
	if err != nil {
		return Region{}, &MapReadFailed{Err: err}
	}

	permStr := fields[1]
	var perm Perm
	if len(permStr) >= 4 {
		if permStr[0] == 'r' {
			perm |= Read
		}
		if permStr[1] == 'w' {
			perm |= Write
		}
		if permStr[2] == 'x' {
			perm |= Exec
		}
		if permStr[3] == 's' {
			perm |= Shared
		}
	}

	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return Region{}, &MapReadFailed{Err: err}
	}
	inode, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return Region{}, &MapReadFailed{Err: err}
	}

	var path string
	if len(fields) >= 6 {
		path = strings.Join(fields[5:], " ")
	}

	return Region{
		Start:  Address(start),
		End:    Address(end),
		Perm:   perm,
		Offset: offset,
		Inode:  inode,
		Path:   path,
	}, nil
}

func classify(r *Region, exePath string) {
	switch r.Path {
	case "[heap]":
		r.Class = ClassHeap
		return
	case "[stack]":
		r.Class = ClassStack
		return
	case "[vdso]", "[vsyscall]", "[vvar]":
		r.Class = ClassVDSO
		return
	}

	if r.Path == "" {
		r.Class = ClassAnon
		return
	}

	if samePath(r.Path, exePath) {
		switch {
		case r.Perm&Exec != 0:
			r.Class = ClassText
		case r.Perm&Write != 0 && r.Inode == 0:
			r.Class = ClassBSS
		case r.Perm&Write != 0:
			r.Class = ClassData
		default:
			r.Class = ClassRodata
		}
		return
	}

	if isSystemLibPath(r.Path) {
		if r.Perm&Exec != 0 {
			r.Class = ClassLibText
		} else {
			r.Class = ClassLibData
		}
		return
	}

	r.Class = ClassOther
}

func samePath(path, exePath string) bool {
	if exePath == "" {
		return false
	}
	return path == exePath
}

func isSystemLibPath(path string) bool {
	prefixes := []string{"/lib", "/usr/lib", "/lib64", "/usr/lib64"}
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return strings.Contains(path, "/lib") && strings.Contains(path, ".so")
}

// Locate does a binary search for the region containing addr.
func (m *Map) Locate(addr Address) (Region, error) {
	regions := m.Regions
	i := sort.Search(len(regions), func(i int) bool { return regions[i].Start > addr })
	if i == 0 {
		return Region{}, &NotMapped{Addr: addr}
	}
	r := regions[i-1]
	if addr < r.End {
		return r, nil
	}
	return Region{}, &NotMapped{Addr: addr}
}
