package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// shellCommands are the verbs available inside the interactive shell,
// used for tab completion and help.
var shellCommands = []string{
	"create", "drop", "rows", "add-row", "rm-row",
	"add", "rm", "edit", "get", "show",
	"cache", "invalidate", "clear-cache",
	"help", "exit", "quit",
}

func cmdShell() *Command {
	return &Command{
		Usage: "shell",
		Short: "Interactive shell over the table directory",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) != 0 {
				return errors.New("shell takes no arguments")
			}

			sh := &shell{o: o, env: env}

			return sh.run()
		},
	}
}

// shell is the interactive command loop.
type shell struct {
	o     *IO
	env   *Env
	liner *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".danktables_history")
}

func (sh *shell) run() error {
	sh.liner = liner.NewLiner()
	defer sh.liner.Close()

	sh.liner.SetCtrlCAborts(true)
	sh.liner.SetCompleter(sh.complete)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = sh.liner.ReadHistory(f)
		_ = f.Close()
	}

	sh.o.Printf("danktables shell (table dir: %s)\n", sh.env.Config.TableDir)
	sh.o.Println("Type 'help' for available commands.")
	sh.o.Println()

	for {
		line, err := sh.liner.Prompt("dank> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				sh.o.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		sh.liner.AppendHistory(line)

		parts := strings.Fields(line)
		verb := strings.ToLower(parts[0])
		args := parts[1:]

		if verb == "exit" || verb == "quit" || verb == "q" {
			sh.o.Println("Bye!")

			break
		}

		sh.dispatch(verb, args)
	}

	sh.saveHistory()

	return nil
}

func (sh *shell) dispatch(verb string, args []string) {
	switch verb {
	case "help", "?":
		sh.printHelp()
	case "cache":
		sh.o.Printf("cached tables: %d\n", sh.env.Store.CachedTables())
	case "invalidate":
		if len(args) != 1 {
			sh.o.ErrPrintln("usage: invalidate <table>")

			return
		}

		sh.env.Store.Invalidate(tablePath(sh.env.Config, args[0]))
		sh.o.Println("invalidated", args[0])
	case "clear-cache":
		sh.env.Store.ClearCache()
		sh.o.Println("cache cleared")
	default:
		// Everything else maps onto the regular command set.
		for _, cmd := range commands() {
			if cmd.Name() == verb {
				cmd.Run(sh.o, sh.env, args)

				return
			}
		}

		sh.o.ErrPrintln("unknown command:", verb, "(type 'help' for commands)")
	}
}

func (sh *shell) complete(prefix string) []string {
	var out []string

	for _, c := range shellCommands {
		if strings.HasPrefix(c, strings.ToLower(prefix)) {
			out = append(out, c)
		}
	}

	return out
}

func (sh *shell) printHelp() {
	sh.o.Println("Commands:")

	for _, cmd := range commands() {
		if cmd.Name() == "shell" {
			continue
		}

		sh.o.Println(cmd.HelpLine())
	}

	sh.o.Println("  cache                        Show cache occupancy")
	sh.o.Println("  invalidate <table>           Drop one cache entry")
	sh.o.Println("  clear-cache                  Drop all cache entries")
	sh.o.Println("  exit / quit / q              Exit")
}

func (sh *shell) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}

	_, _ = sh.liner.WriteHistory(f)
	_ = f.Close()
}
