package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/memviz/memviz/internal/cmdsurface"
	"github.com/memviz/memviz/internal/session"
)

var (
	colorPrompt = color.New(color.FgCyan, color.Bold)
	colorError  = color.New(color.FgRed)
	colorStop   = color.New(color.FgYellow)
)

// runREPL drives the line-oriented shell, reading one command per line with
// readline.NewEx providing an interrupt prompt and history.
func runREPL(ctx context.Context, surface cmdsurface.Surface) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          colorPrompt.Sprint("memviz> "),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("memviz REPL. Type 'help' for commands, 'quit' to exit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "exit" {
			return nil
		}

		if err := dispatch(ctx, surface, cmd, args); err != nil {
			colorError.Fprintf(os.Stderr, "error: %v\n", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func dispatch(ctx context.Context, s cmdsurface.Surface, cmd string, args []string) error {
	switch cmd {
	case "help":
		printHelp()
	case "overview":
		fmt.Print(cmdsurface.RenderOverview(s.Profile(), s.State()))
	case "locals":
		locals, err := s.Locals(ctx)
		if err != nil {
			return err
		}
		fmt.Print(cmdsurface.RenderLocals(locals))
	case "globals":
		globals, err := s.Globals(ctx)
		if err != nil {
			return err
		}
		fmt.Print(cmdsurface.RenderGlobals(globals))
	case "mem":
		expr, length, err := cmdsurface.ParseMemArgs(args)
		if err != nil {
			return err
		}
		m, err := s.Mem(ctx, expr, length)
		if err != nil {
			return err
		}
		fmt.Print(cmdsurface.RenderMem(m))
	case "view":
		if len(args) < 1 {
			return fmt.Errorf("usage: view <symbol>")
		}
		shape, mem, err := s.View(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Print(cmdsurface.RenderShape(shape, mem))
	case "follow":
		symbol, depth, err := cmdsurface.ParseFollowArgs(args)
		if err != nil {
			return err
		}
		hops, err := s.Follow(ctx, symbol, depth)
		if err != nil {
			return err
		}
		fmt.Print(cmdsurface.RenderHops(hops))
	case "break", "b":
		if len(args) < 1 {
			return fmt.Errorf("usage: break <location>")
		}
		id, err := s.Break(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("breakpoint %d set at %s\n", id, args[0])
	case "next", "n":
		return reportStop(s.Next(ctx))
	case "step", "s":
		return reportStop(s.Step(ctx))
	case "continue", "c":
		return reportStop(s.Continue(ctx))
	case "vm":
		if len(args) >= 1 && args[0] == "locate" {
			if len(args) < 2 {
				return fmt.Errorf("usage: vm locate <expr>")
			}
			region, err := s.VmLocate(ctx, cmdsurface.JoinArgs(args[1:]))
			if err != nil {
				return err
			}
			fmt.Printf("%#x-%#x %s %s %s\n", region.Start, region.End, region.Perm, region.Class, region.Path)
			return nil
		}
		if len(args) >= 1 && args[0] == "vars" {
			groups, err := s.VmVars(ctx)
			if err != nil {
				return err
			}
			fmt.Print(cmdsurface.RenderRegionGroups(groups))
			return nil
		}
		m, err := s.Vm(ctx)
		if err != nil {
			return err
		}
		fmt.Print(cmdsurface.RenderRegions(m))
	default:
		return fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
	return nil
}

func reportStop(stop session.StopEvent, err error) error {
	if err != nil {
		return err
	}
	colorStop.Printf("stopped: %s at %s:%d (%s)\n", stop.Reason, stop.Frame.File, stop.Frame.Line, stop.Frame.Func)
	return nil
}

func printHelp() {
	fmt.Println(`commands:
  overview                show arch, pointer size, endianness, and current stop
  locals                  list current frame's locals
  globals                 list global/static variables
  mem <expr> [len]        dump the raw memory backing an expression
  view <symbol>           show a symbol's type layout and memory
  follow <symbol> [depth] walk a pointer chain
  break <loc>, b          set a breakpoint (function or file:line)
  next, n                 step over the current line
  step, s                 step into the current line
  continue, c             resume until the next stop
  vm                      list memory mappings
  vm locate <expr>        find the mapping containing an address
  vm vars                 group locals/globals by mapping
  help                    show this message
  quit                    exit memviz`)
}
