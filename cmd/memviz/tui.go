package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/memviz/memviz/internal/cmdsurface"
	"github.com/memviz/memviz/internal/session"
)

// runTUI drives a terminal UI built on tview/tcell: a state pane showing
// the current stop location, a scrolling output pane with each command's
// result, and an input field accepting the same command grammar as the
// REPL. Commands go through tuiDispatch, which mirrors the REPL's
// dispatch() case by case.
func runTUI(ctx context.Context, surface cmdsurface.Surface) error {
	app := tview.NewApplication()

	output := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() { app.Draw() })
	output.SetBorder(true).SetTitle(" memviz ")

	status := tview.NewTextView().SetDynamicColors(true)
	status.SetBorder(true).SetTitle(" state ")

	input := tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	input.SetBorder(true)

	updateStatus := func() {
		st := surface.State()
		status.SetText(fmt.Sprintf("[yellow]%s[white] %s:%d (%s)",
			st.Kind.String(), st.Stop.Frame.File, st.Stop.Frame.Line, st.Stop.Frame.Func))
	}
	updateStatus()

	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := strings.TrimSpace(input.GetText())
		input.SetText("")
		if line == "" {
			return
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			app.Stop()
			return
		}
		fmt.Fprintf(output, "[cyan]memviz>[white] %s\n", line)
		if err := tuiDispatch(ctx, surface, output, cmd, args); err != nil {
			fmt.Fprintf(output, "[red]error:[white] %v\n", err)
		}
		updateStatus()
	})

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(status, 3, 0, false).
		AddItem(output, 0, 1, false).
		AddItem(input, 3, 0, true)

	return app.SetRoot(flex, true).SetFocus(input).Run()
}

// tuiDispatch mirrors the REPL's dispatch() but writes to a tview TextView
// instead of stdout, since tview owns the terminal's screen buffer and a
// concurrent fmt.Print would corrupt it.
func tuiDispatch(ctx context.Context, s cmdsurface.Surface, out *tview.TextView, cmd string, args []string) error {
	switch cmd {
	case "overview":
		fmt.Fprint(out, tview.Escape(cmdsurface.RenderOverview(s.Profile(), s.State())))
	case "locals":
		locals, err := s.Locals(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(out, tview.Escape(cmdsurface.RenderLocals(locals)))
	case "globals":
		globals, err := s.Globals(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(out, tview.Escape(cmdsurface.RenderGlobals(globals)))
	case "mem":
		expr, length, err := cmdsurface.ParseMemArgs(args)
		if err != nil {
			return err
		}
		m, err := s.Mem(ctx, expr, length)
		if err != nil {
			return err
		}
		fmt.Fprint(out, tview.Escape(cmdsurface.RenderMem(m)))
	case "view":
		if len(args) < 1 {
			return fmt.Errorf("usage: view <symbol>")
		}
		shape, mem, err := s.View(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(out, tview.Escape(cmdsurface.RenderShape(shape, mem)))
	case "follow":
		symbol, depth, err := cmdsurface.ParseFollowArgs(args)
		if err != nil {
			return err
		}
		hops, err := s.Follow(ctx, symbol, depth)
		if err != nil {
			return err
		}
		fmt.Fprint(out, tview.Escape(cmdsurface.RenderHops(hops)))
	case "break", "b":
		if len(args) < 1 {
			return fmt.Errorf("usage: break <location>")
		}
		id, err := s.Break(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "breakpoint %d set at %s\n", id, tview.Escape(args[0]))
	case "next", "n":
		stop, err := s.Next(ctx)
		return reportStopTUI(out, stop, err)
	case "step", "s":
		stop, err := s.Step(ctx)
		return reportStopTUI(out, stop, err)
	case "continue", "c":
		stop, err := s.Continue(ctx)
		return reportStopTUI(out, stop, err)
	case "vm":
		if len(args) >= 1 && args[0] == "locate" {
			if len(args) < 2 {
				return fmt.Errorf("usage: vm locate <expr>")
			}
			region, err := s.VmLocate(ctx, cmdsurface.JoinArgs(args[1:]))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%#x-%#x %s %s %s\n", region.Start, region.End, region.Perm, region.Class, tview.Escape(region.Path))
			return nil
		}
		if len(args) >= 1 && args[0] == "vars" {
			groups, err := s.VmVars(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(out, tview.Escape(cmdsurface.RenderRegionGroups(groups)))
			return nil
		}
		m, err := s.Vm(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(out, tview.Escape(cmdsurface.RenderRegions(m)))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func reportStopTUI(out *tview.TextView, stop session.StopEvent, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[yellow]stopped:[white] %s at %s %s:%d\n",
		tview.Escape(stop.Reason), tview.Escape(stop.Frame.Func), tview.Escape(stop.Frame.File), stop.Frame.Line)
	return nil
}
