package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/itzkitb/DankTables/pkg/danktable"
)

// Env carries the resolved configuration and the store into commands.
type Env struct {
	Config Config
	Store  *danktable.Store
	Stdin  io.Reader
}

// globalFlags are the flags accepted before the command name.
type globalFlags struct {
	workDir    string
	configPath string
	tableDir   string
	remaining  []string
}

// Run is the main entry point. Returns exit code.
func Run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	o := NewIO(out, errOut)

	if len(args) < 2 {
		printUsage(o)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			o.ErrPrintln("error: cannot get working directory:", err)

			return 1
		}
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDir:          workDir,
		ConfigPath:       flags.configPath,
		TableDirOverride: flags.tableDir,
		Env:              env,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(o)

		return 0
	}

	name := flags.remaining[0]
	if name == "-h" || name == "--help" {
		printUsage(o)

		return 0
	}

	store, err := danktable.New(danktable.Config{
		CacheCapacity: cfg.CacheCapacity,
		Separator:     cfg.Separator,
		LockFiles:     cfg.LockFiles,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	cmdEnv := &Env{Config: cfg, Store: store, Stdin: in}

	for _, cmd := range commands() {
		if cmd.Name() == name {
			return cmd.Run(o, cmdEnv, flags.remaining[1:])
		}
	}

	o.ErrPrintln("error: unknown command:", name)
	printUsage(o)

	return 1
}

// parseGlobalFlags handles flags that appear before the command name.
func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	i := 0

	for i < len(args) {
		arg := args[i]

		if !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "-C", "--cwd":
			if i+1 >= len(args) {
				return flags, fmt.Errorf("flag requires an argument: %s", arg)
			}

			flags.workDir = args[i+1]
			i += 2
		case "-c", "--config":
			if i+1 >= len(args) {
				return flags, fmt.Errorf("flag requires an argument: %s", arg)
			}

			flags.configPath = args[i+1]
			i += 2
		case "--table-dir":
			if i+1 >= len(args) {
				return flags, fmt.Errorf("flag requires an argument: %s", arg)
			}

			flags.tableDir = args[i+1]
			i += 2
		case "-h", "--help":
			// Leave for the dispatcher.
			flags.remaining = args[i:]

			return flags, nil
		default:
			return flags, fmt.Errorf("unknown flag: %s", arg)
		}
	}

	flags.remaining = args[i:]

	return flags, nil
}

func printUsage(o *IO) {
	o.Println("Usage: danktables [global flags] <command> [args]")
	o.Println()
	o.Println("Flat-file tabular data store.")
	o.Println()
	o.Println("Global flags:")
	o.Println("  -C, --cwd <dir>       run as if started in <dir>")
	o.Println("  -c, --config <path>   explicit config file")
	o.Println("      --table-dir <dir> override the table directory")
	o.Println()
	o.Println("Commands:")

	for _, cmd := range commands() {
		o.Println(cmd.HelpLine())
	}
}

// tablePath resolves a table argument to a file path. Bare names are
// looked up in the configured table directory with a ".dank" extension;
// anything with a path separator or extension is used as-is.
func tablePath(cfg Config, name string) string {
	if strings.ContainsRune(name, os.PathSeparator) || filepath.Ext(name) != "" {
		if filepath.IsAbs(name) {
			return name
		}

		return filepath.Join(cfg.TableDir, name)
	}

	return filepath.Join(cfg.TableDir, name+".dank")
}

// parseValueArg interprets a command line value. Valid JSON becomes the
// matching shape ("42", "true", "[1,2]"); anything else is a plain
// string.
func parseValueArg(raw string) any {
	var v any

	err := json.Unmarshal([]byte(raw), &v)
	if err != nil {
		return raw
	}

	return v
}

// parseDataArgs converts row=value arguments to a data map.
func parseDataArgs(args []string) (map[string]any, error) {
	data := make(map[string]any, len(args))

	for _, arg := range args {
		row, raw, found := strings.Cut(arg, "=")
		if !found || row == "" {
			return nil, fmt.Errorf("expected row=value, got %q", arg)
		}

		data[row] = parseValueArg(raw)
	}

	return data, nil
}
