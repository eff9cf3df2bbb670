package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/memviz/memviz/internal/layout"
	"github.com/memviz/memviz/internal/mi"
	"github.com/memviz/memviz/internal/vm"
)

// Locals lists the current frame's local variables. Only valid while the
// session is Stopped.
func (s *Session) Locals(ctx context.Context) ([]Local, error) {
	if err := s.requireStopped(); err != nil {
		return nil, err
	}
	rec, err := s.submitDone(ctx, "-stack-list-locals --all-values")
	if err != nil {
		return nil, err
	}
	items, _ := rec.Payload.Field("locals")
	out := make([]Local, 0, len(items.Items()))
	for _, it := range items.Items() {
		name := it.FieldStr("name")
		l := Local{Name: name}
		l.Type, _ = s.exprType(name)
		if v, err := s.eval(ctx, name); err == nil {
			l.Value, l.HasValue = v, true
		}
		if addr, err := s.EvalPointer("&(" + name + ")"); err == nil {
			l.Addr, l.HasAddr = addr, true
		}
		out = append(out, l)
	}
	return out, nil
}

// Globals lists file-scoped and global symbols. gdb's MI front end only
// added -symbol-info-variables in recent releases; when it is unavailable
// this falls back to scraping "info variables" console output.
//
// includeNonDebug additionally surfaces symbols gdb only knows about from
// the binary's symbol table (no debug info, so no type and no evaluated
// value), tagged Global.NonDebug. When false, only debug-backed globals are
// returned.
func (s *Session) Globals(ctx context.Context, includeNonDebug bool) ([]Global, error) {
	if err := s.requireStopped(); err != nil {
		return nil, err
	}
	rec, err := s.tr.Submit(ctx, "-symbol-info-variables", 0)
	if err == nil && rec.ResultClass == mi.ClassDone {
		if syms, ok := rec.Payload.Field("symbols"); ok {
			out := s.globalsFromSymbolInfo(ctx, syms)
			if includeNonDebug {
				if fromText, ferr := s.globalsFromInfoVariables(ctx, true); ferr == nil {
					for _, g := range fromText {
						if g.NonDebug {
							out = append(out, g)
						}
					}
				}
			}
			return out, nil
		}
	}
	return s.globalsFromInfoVariables(ctx, includeNonDebug)
}

// globalsFromSymbolInfo decodes -symbol-info-variables' nested
// debug/nondebug grouping (a list of {filename, symbols: [{name, type}]}
// tuples) into the flat Global list the rest of the session works with.
func (s *Session) globalsFromSymbolInfo(ctx context.Context, syms mi.Value) []Global {
	var out []Global
	groups := syms.Items()
	if debug, ok := syms.Field("debug"); ok {
		groups = debug.Items()
	}
	for _, group := range groups {
		list, ok := group.Field("symbols")
		if !ok {
			continue
		}
		for _, sym := range list.Items() {
			name := sym.FieldStr("name")
			if name == "" {
				continue
			}
			g := Global{Name: name, Type: sym.FieldStr("type")}
			if v, err := s.eval(ctx, name); err == nil {
				g.Value, g.HasValue = v, true
			}
			if addr, err := s.EvalPointer("&" + name); err == nil {
				g.Addr, g.HasAddr = addr, true
			}
			out = append(out, g)
		}
	}
	return out
}

// globalsFromInfoVariables scrapes "info variables" console text. The
// output has two sections: debug-backed variables first, then (after a
// "Non-debugging symbols:" header) a flat address/name list for symbols
// with no debug info. includeNonDebug controls whether the second section
// is parsed at all.
func (s *Session) globalsFromInfoVariables(ctx context.Context, includeNonDebug bool) ([]Global, error) {
	lines, err := s.captureConsole(ctx, "-interpreter-exec console \"info variables\"")
	if err != nil {
		return nil, err
	}
	var out []Global
	inNonDebug := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Non-debugging") {
			inNonDebug = true
			continue
		}
		if line == "" || strings.HasPrefix(line, "All ") || strings.HasPrefix(line, "File ") {
			continue
		}
		if inNonDebug {
			if !includeNonDebug {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 2 {
				continue
			}
			out = append(out, Global{
				Name:     fields[1],
				Addr:     parseHexAddr(fields[0]),
				HasAddr:  true,
				NonDebug: true,
			})
			continue
		}
		line = strings.TrimSuffix(line, ";")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimPrefix(fields[len(fields)-1], "*")
		if idx := strings.Index(name, "["); idx >= 0 {
			name = name[:idx]
		}
		g := Global{Name: name, Type: strings.Join(fields[:len(fields)-1], " ")}
		if v, err := s.eval(ctx, name); err == nil {
			g.Value, g.HasValue = v, true
		}
		if addr, err := s.EvalPointer("&" + name); err == nil {
			g.Addr, g.HasAddr = addr, true
		}
		out = append(out, g)
	}
	return out, nil
}

// Mem reads length bytes of the object expr denotes, starting at &(expr).
// A length <= 0 means "omitted": it resolves to sizeof(expr) rather than a
// fixed default, so "mem node0" reads exactly one node's worth of bytes.
// An explicit length of 0 is treated the same as an omitted one.
func (s *Session) Mem(ctx context.Context, expr string, length int64) (layout.MemoryRead, error) {
	if err := s.requireStopped(); err != nil {
		return layout.MemoryRead{}, err
	}
	addr, err := s.EvalPointer("&(" + expr + ")")
	if err != nil {
		return layout.MemoryRead{}, err
	}
	n := length
	if n <= 0 {
		n, err = s.SizeOf(expr)
		if err != nil {
			return layout.MemoryRead{}, err
		}
	}
	requested := n
	if n > int64(layout.MaxReadLength) {
		n = int64(layout.MaxReadLength)
	}
	rec, err := s.submitDone(ctx, fmt.Sprintf("-data-read-memory-bytes 0x%x %d", addr, n))
	if err != nil {
		return layout.MemoryRead{}, &ReadFailed{Reason: err.Error()}
	}
	mb, _ := rec.Payload.Field("memory")
	items := mb.Items()
	var data []byte
	if len(items) > 0 {
		data = decodeHexContents(items[0].FieldStr("contents"))
	}
	typ, _ := s.exprType(expr)
	profile := s.Profile()
	return layout.NewMemoryRead(expr, typ, profile.Arch, addr, requested, data, profile.PointerSize, profile.Endianness), nil
}

func decodeHexContents(hexStr string) []byte {
	out := make([]byte, 0, len(hexStr)/2)
	for i := 0; i+1 < len(hexStr); i += 2 {
		var b byte
		fmt.Sscanf(hexStr[i:i+2], "%02x", &b)
		out = append(out, b)
	}
	return out
}

// View resolves a symbol's type shape and reads its backing memory.
func (s *Session) View(ctx context.Context, symbol string) (layout.TypeShape, layout.MemoryRead, error) {
	if err := s.requireStopped(); err != nil {
		return layout.TypeShape{}, layout.MemoryRead{}, err
	}
	typ, err := s.exprType(symbol)
	if err != nil {
		return layout.TypeShape{}, layout.MemoryRead{}, err
	}
	shape, err := layout.BuildShape(s, symbol, typ)
	if err != nil {
		return layout.TypeShape{}, layout.MemoryRead{}, err
	}
	mem, err := s.Mem(ctx, symbol, shape.Size)
	if err != nil {
		return shape, layout.MemoryRead{}, err
	}
	return shape, mem, nil
}

// Follow walks a pointer chain starting at symbol.
func (s *Session) Follow(ctx context.Context, symbol string, depth int) ([]layout.Hop, error) {
	if err := s.requireStopped(); err != nil {
		return nil, err
	}
	if depth <= 0 {
		depth = layout.DefaultFollowDepth
	}
	return layout.Follow(s, symbol, depth)
}

// InferiorPid asks gdb for the running inferior's process id, needed only
// by the vm.* operations, which read /proc/<pid>/maps independently of the
// MI channel.
func (s *Session) InferiorPid(ctx context.Context) (int, error) {
	lines, err := s.captureConsole(ctx, "-interpreter-exec console \"info proc id\"")
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		var pid int
		if n, scanErr := fmt.Sscanf(strings.TrimSpace(line), "process %d", &pid); scanErr == nil && n == 1 {
			return pid, nil
		}
	}
	return 0, &ReadFailed{Reason: "could not determine inferior pid"}
}

// Vm reads the inferior's memory mappings.
func (s *Session) Vm(ctx context.Context, pid int, exePath string) (*vm.Map, error) {
	if err := s.requireStopped(); err != nil {
		return nil, err
	}
	return vm.ReadProcess(pid, exePath)
}

// VmLocate finds the region containing expr's address.
func (s *Session) VmLocate(ctx context.Context, pid int, exePath, expr string) (vm.Region, error) {
	m, err := s.Vm(ctx, pid, exePath)
	if err != nil {
		return vm.Region{}, err
	}
	addr, err := s.EvalPointer(expr)
	if err != nil {
		return vm.Region{}, err
	}
	return m.Locate(vm.Address(addr))
}

// VmVars groups the current frame's locals, globals, and every heap object
// reachable by following a pointer-typed local, by containing region.
func (s *Session) VmVars(ctx context.Context, pid int, exePath string) ([]vm.RegionGroup, error) {
	m, err := s.Vm(ctx, pid, exePath)
	if err != nil {
		return nil, err
	}
	var tagged []vm.TaggedAddress

	locals, localsErr := s.Locals(ctx)
	if localsErr == nil {
		for _, l := range locals {
			if l.HasAddr {
				tagged = append(tagged, vm.TaggedAddress{Tag: "local:" + l.Name, Addr: vm.Address(l.Addr)})
			}
		}
	}
	if globals, err := s.Globals(ctx, false); err == nil {
		for _, g := range globals {
			if g.HasAddr {
				tagged = append(tagged, vm.TaggedAddress{Tag: "global:" + g.Name, Addr: vm.Address(g.Addr)})
			}
		}
	}
	if localsErr == nil {
		for _, l := range locals {
			if !strings.Contains(l.Type, "*") {
				continue
			}
			hops, err := s.Follow(ctx, l.Name, layout.DefaultFollowDepth)
			if err != nil {
				continue
			}
			for _, hop := range hops {
				if hop.Null || hop.Cycle {
					continue
				}
				tagged = append(tagged, vm.TaggedAddress{Tag: "heap:" + hop.Expr, Addr: vm.Address(hop.PointerVal)})
			}
		}
	}
	return m.Group(tagged), nil
}
