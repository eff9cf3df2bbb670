package cmdsurface

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/memviz/memviz/internal/layout"
	"github.com/memviz/memviz/internal/session"
	"github.com/memviz/memviz/internal/vm"
)

// RenderLocals formats a locals listing as a tab-aligned table.
func RenderLocals(locals []session.Local) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tVALUE\tADDR")
	for _, l := range locals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Name, l.Type, valueOrDash(l.Value, l.HasValue), addrOrDash(l.Addr, l.HasAddr))
	}
	w.Flush()
	return b.String()
}

// RenderGlobals formats a globals listing.
func RenderGlobals(globals []session.Global) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tVALUE\tADDR")
	for _, g := range globals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Name, g.Type, valueOrDash(g.Value, g.HasValue), addrOrDash(g.Addr, g.HasAddr))
	}
	w.Flush()
	return b.String()
}

func valueOrDash(v string, ok bool) string {
	if !ok {
		return "-"
	}
	return v
}

func addrOrDash(addr uint64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%#x", addr)
}

// RenderMem formats a memory read as a hex+ASCII dump preceded by its
// header line.
func RenderMem(m layout.MemoryRead) string {
	var b strings.Builder
	b.WriteString(m.Header())
	b.WriteString("\n")
	for _, line := range m.Dump().HexASCIILines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderShape renders a type shape and its backing bytes together, the way
// "view" combines layout.TypeShape and layout.MemoryRead.
func RenderShape(shape layout.TypeShape, mem layout.MemoryRead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%d bytes)\n", shape.Kind, shape.Name, shape.Size)
	renderFields(&b, shape, 1)
	b.WriteString(RenderMem(mem))
	return b.String()
}

func renderFields(b *strings.Builder, shape layout.TypeShape, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, f := range shape.Fields {
		fmt.Fprintf(b, "%s+%#02x %s %s (size %d)\n", pad, f.Offset, f.Name, f.Type, f.Size)
		if f.Shape != nil && len(f.Shape.Fields) > 0 {
			renderFields(b, *f.Shape, indent+1)
		}
	}
}

// RenderHops formats a pointer-follow chain as one line per hop.
func RenderHops(hops []layout.Hop) string {
	var b strings.Builder
	for _, h := range hops {
		switch {
		case h.Null:
			fmt.Fprintf(&b, "#%d %s = NULL\n", h.Depth, h.Expr)
		case h.Cycle:
			fmt.Fprintf(&b, "#%d %s -> cycle detected\n", h.Depth, h.Expr)
		default:
			fmt.Fprintf(&b, "#%d %s = %#x %s\n", h.Depth, h.Expr, h.PointerVal, h.Rendering)
		}
	}
	return b.String()
}

// RenderRegions formats a vm.Map as a mappings table.
func RenderRegions(m *vm.Map) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tPERM\tCLASS\tPATH")
	for _, r := range m.Regions {
		fmt.Fprintf(w, "%#x\t%#x\t%s\t%s\t%s\n", r.Start, r.End, r.Perm, r.Class, r.Path)
	}
	w.Flush()
	return b.String()
}

// RenderOverview formats a quick-glance summary of the target profile and
// current run state: architecture, pointer size, endianness, and where
// execution is stopped.
func RenderOverview(profile session.TargetProfile, state session.RunState) string {
	var b strings.Builder
	arch := profile.Arch
	if arch == "" {
		arch = "unknown"
	}
	fmt.Fprintf(&b, "arch:        %s\n", arch)
	fmt.Fprintf(&b, "pointer size: %d bytes\n", profile.PointerSize)
	fmt.Fprintf(&b, "endianness:  %s\n", profile.Endianness)
	fmt.Fprintf(&b, "state:       %s\n", state.Kind)
	if state.Kind == session.Stopped {
		fmt.Fprintf(&b, "stopped at:  %s:%d (%s), reason: %s\n",
			state.Stop.Frame.File, state.Stop.Frame.Line, state.Stop.Frame.Func, state.Stop.Reason)
	}
	if state.Kind == session.ExitedState {
		fmt.Fprintf(&b, "exit code:   %d\n", state.ExitCode)
	}
	return b.String()
}

// RenderRegionGroups formats the output of "vm vars".
func RenderRegionGroups(groups []vm.RegionGroup) string {
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "%#x-%#x %s %s\n", g.Region.Start, g.Region.End, g.Region.Class, g.Region.Path)
		for _, a := range g.Addresses {
			fmt.Fprintf(&b, "  %s @ %#x\n", a.Tag, a.Addr)
		}
	}
	return b.String()
}
