package cli

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/itzkitb/DankTables/pkg/danktable"
)

func cmdAdd() *Command {
	return &Command{
		Usage: "add <table> <row=value>...",
		Short: "Append a line",
		Long: "Append a line built from row=value pairs. Values are parsed\n" +
			"as JSON when possible, otherwise taken as strings. If the key\n" +
			"row is omitted the next integer key is generated.",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) < 1 {
				return errors.New("expected a table name")
			}

			data, err := parseDataArgs(args[1:])
			if err != nil {
				return err
			}

			path := tablePath(env.Config, args[0])

			key, err := env.Store.AddLine(path, data)
			if err != nil {
				return err
			}

			o.Println("added line", key.StringForm())

			return nil
		},
	}
}

func cmdRm() *Command {
	return &Command{
		Usage: "rm <table> <id>",
		Short: "Remove a line by key (no-op if missing)",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) != 2 {
				return errors.New("expected a table name and a key")
			}

			path := tablePath(env.Config, args[0])

			err := env.Store.RemoveLine(path, parseValueArg(args[1]))
			if err != nil {
				return err
			}

			o.Println("removed", args[1])

			return nil
		},
	}
}

func cmdEdit() *Command {
	return &Command{
		Usage: "edit <table> <id> <row> <value>",
		Short: "Replace a single cell",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) != 4 {
				return errors.New("expected table, key, row and value")
			}

			path := tablePath(env.Config, args[0])

			err := env.Store.EditData(path, parseValueArg(args[1]), args[2], parseValueArg(args[3]))
			if err != nil {
				return err
			}

			o.Println("edited", args[2])

			return nil
		},
	}
}

func cmdGet() *Command {
	return &Command{
		Usage: "get <table> <id> [row]",
		Short: "Print one cell or a whole line",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) != 2 && len(args) != 3 {
				return errors.New("expected table, key and optionally a row")
			}

			path := tablePath(env.Config, args[0])
			id := parseValueArg(args[1])

			if len(args) == 3 {
				v, err := env.Store.GetValue(path, id, args[2])
				if err != nil {
					return err
				}

				o.Println(renderValue(v))

				return nil
			}

			line, err := env.Store.GetLine(path, id)
			if err != nil {
				return err
			}

			rows, err := env.Store.Rows(path)
			if err != nil {
				return err
			}

			for _, row := range rows {
				o.Printf("%s: %s\n", row, renderValue(line[row]))
			}

			return nil
		},
	}
}

func cmdShow() *Command {
	return &Command{
		Usage: "show <table>",
		Short: "Print every line keyed by key row value",
		Exec: func(o *IO, env *Env, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one table name")
			}

			path := tablePath(env.Config, args[0])

			all, err := env.Store.GetAllData(path)
			if err != nil {
				return err
			}

			rows, err := env.Store.Rows(path)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(all))
			for key := range all {
				keys = append(keys, key)
			}

			sort.Strings(keys)

			for _, key := range keys {
				o.Println(key + ":")

				for _, row := range rows {
					o.Printf("  %s: %s\n", row, renderValue(all[key][row]))
				}
			}

			return nil
		},
	}
}

// renderValue formats a cell for terminal output.
func renderValue(v danktable.Value) string {
	switch {
	case v.IsAbsent():
		return "(absent)"
	case v.IsUnreadable():
		return "(unreadable)"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "(unprintable)"
		}

		return string(data)
	}
}
