package cli

import (
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// commands returns the full command set in help order.
func commands() []*Command {
	return []*Command{
		cmdCreate(),
		cmdDrop(),
		cmdRows(),
		cmdAddRow(),
		cmdRmRow(),
		cmdAdd(),
		cmdRm(),
		cmdEdit(),
		cmdGet(),
		cmdShow(),
		cmdShell(),
		cmdPrintConfig(),
	}
}

func cmdCreate() *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	rows := flags.StringSliceP("rows", "r", nil, "comma-separated row names")
	keyRow := flags.StringP("key", "k", "", "key row name (default: first row)")

	return &Command{
		Flags: flags,
		Usage: "create <table> -r <rows> [-k <key>]",
		Short: "Create a fresh, empty table",
		Long: "Create a fresh, empty table with the given row definition.\n" +
			"Replaces an existing table file at the same path.",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one table name")
			}

			if len(*rows) == 0 {
				return errors.New("--rows is required")
			}

			key := *keyRow
			if key == "" {
				key = (*rows)[0]
			}

			path := tablePath(env.Config, args[0])

			err := env.Store.Create(path, *rows, key)
			if err != nil {
				return err
			}

			o.Println("created", path)

			return nil
		},
	}
}

func cmdDrop() *Command {
	return &Command{
		Usage: "drop <table>",
		Short: "Delete a table file",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one table name")
			}

			path := tablePath(env.Config, args[0])

			err := env.Store.DeleteTable(path)
			if err != nil {
				return err
			}

			o.Println("dropped", path)

			return nil
		},
	}
}

func cmdRows() *Command {
	return &Command{
		Usage: "rows <table>",
		Short: "List the table's row definition",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one table name")
			}

			path := tablePath(env.Config, args[0])

			rows, err := env.Store.Rows(path)
			if err != nil {
				return err
			}

			key, err := env.Store.KeyRow(path)
			if err != nil {
				return err
			}

			for _, row := range rows {
				if row == key {
					o.Println(row, "(key)")
				} else {
					o.Println(row)
				}
			}

			return nil
		},
	}
}

func cmdAddRow() *Command {
	return &Command{
		Usage: "add-row <table> <name>...",
		Short: "Append rows to the row definition",
		Long: "Append one or more rows to the table's row definition.\n" +
			"Existing lines get the absent marker for each new row.\n" +
			"Rows are added sequentially; a failure partway leaves earlier\n" +
			"additions committed.",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) < 2 {
				return errors.New("expected a table name and at least one row name")
			}

			path := tablePath(env.Config, args[0])

			err := env.Store.AddRows(path, args[1:])
			if err != nil {
				return err
			}

			o.Println("added", strings.Join(args[1:], ", "))

			return nil
		},
	}
}

func cmdRmRow() *Command {
	return &Command{
		Usage: "rm-row <table> <name>...",
		Short: "Remove rows from the row definition",
		Long: "Remove one or more rows and their cells from every line.\n" +
			"The key row cannot be removed.",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) < 2 {
				return errors.New("expected a table name and at least one row name")
			}

			path := tablePath(env.Config, args[0])

			err := env.Store.RemoveRows(path, args[1:])
			if err != nil {
				return err
			}

			o.Println("removed", strings.Join(args[1:], ", "))

			return nil
		},
	}
}

func cmdPrintConfig() *Command {
	return &Command{
		Usage: "print-config",
		Short: "Print the resolved configuration",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) != 0 {
				return errors.New("print-config takes no arguments")
			}

			cfg := env.Config

			o.Println("table_dir:", cfg.TableDir)
			o.Println("separator:", orDefault(cfg.Separator, "\":\""))
			o.Println("cache_capacity:", orDefaultInt(cfg.CacheCapacity, 100))
			o.Println("lock_files:", cfg.LockFiles)

			if cfg.Sources.Global != "" {
				o.Println("global config:", cfg.Sources.Global)
			}

			if cfg.Sources.Project != "" {
				o.Println("project config:", cfg.Sources.Project)
			}

			return nil
		},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return fmt.Sprintf("%q", v)
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}

	return v
}
