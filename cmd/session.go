package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KazanKK/flatbridge/internal/config"
	"github.com/KazanKK/flatbridge/internal/model"
	"github.com/KazanKK/flatbridge/internal/workflow"
	"github.com/urfave/cli/v2"
)

const sessionPrompt = "flatbridge> "

func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Start an interactive transfer session",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctl, err := newController(c, cfg)
			if err != nil {
				return err
			}

			sh := &shell{
				ctl: ctl,
				out: c.App.Writer,
				rep: newReporter(c.App.Writer),
			}
			return sh.run(c.Context, c.App.Reader)
		},
	}
}

type shell struct {
	ctl *workflow.Controller
	out io.Writer
	rep *terminalReporter
}

type shellCommand struct {
	usage string
	help  string
	run   func(sh *shell, ctx context.Context, args []string) error
}

var shellCommands map[string]shellCommand

// shellOrder is the order commands are listed by help.
var shellOrder = []string{
	"source", "direction", "set", "show",
	"connect", "tables", "table", "columns", "select", "unselect",
	"preview", "ingest", "help", "quit",
}

func init() {
	shellCommands = map[string]shellCommand{
		"source":    {"source <clickhouse|flatfile>", "switch the source (resets the workflow)", (*shell).source},
		"direction": {"direction <clickhouse_to_flatfile|flatfile_to_clickhouse>", "switch the transfer direction", (*shell).direction},
		"set":       {"set <field> [value]", "set a connection or target field", (*shell).set},
		"show":      {"show", "show the configuration and workflow state", (*shell).show},
		"connect":   {"connect", "connect to the source and load its tables", (*shell).connect},
		"tables":    {"tables", "list the loaded tables", (*shell).tables},
		"table":     {"table <name>", "select a table", (*shell).table},
		"columns":   {"columns", "load the columns of the selected table", (*shell).columns},
		"select":    {"select <column...|all>", "select columns", (*shell).selectColumns},
		"unselect":  {"unselect <column...>", "unselect columns", (*shell).unselectColumns},
		"preview":   {"preview", "show sample rows of the selected columns", (*shell).preview},
		"ingest":    {"ingest", "run the transfer", (*shell).ingest},
		"help":      {"help", "list commands", (*shell).help},
	}
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(sh.out, "Type \"help\" for commands, \"quit\" to leave.")
	for {
		fmt.Fprint(sh.out, sessionPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		name, args := strings.ToLower(fields[0]), fields[1:]
		if name == "quit" || name == "exit" {
			return nil
		}

		cmd, ok := shellCommands[name]
		if !ok {
			sh.rep.Result(fmt.Sprintf("Unknown command %q. Type \"help\" for commands.", name), true)
			continue
		}
		if err := cmd.run(sh, ctx, args); err != nil {
			sh.rep.Result(err.Error(), true)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// local keeps errors the controller has not reported yet. Remote failures
// were already printed by the reporter.
func local(err error) error {
	if err != nil && workflow.IsLocal(err) {
		return err
	}
	return nil
}

func (sh *shell) source(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", shellCommands["source"].usage)
	}
	kind, err := model.ParseSourceKind(args[0])
	if err != nil {
		return err
	}
	before := sh.ctl.Stage()
	sh.ctl.SetSourceKind(kind)
	if before != sh.ctl.Stage() {
		fmt.Fprintf(sh.out, "Source is now %s; connect again.\n", kind)
	}
	return nil
}

func (sh *shell) direction(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", shellCommands["direction"].usage)
	}
	dir, err := model.ParseDirection(args[0])
	if err != nil {
		return err
	}
	sh.ctl.SetDirection(dir)
	if dir == model.FileToDatabase {
		fmt.Fprintln(sh.out, "Target is a ClickHouse table: set target-table (and target-database).")
	} else {
		fmt.Fprintln(sh.out, "Target is a flat file: set target-file.")
	}
	return nil
}

func (sh *shell) set(_ context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s (fields: %s)", shellCommands["set"].usage, strings.Join(config.Fields, ", "))
	}
	return sh.ctl.EditField(args[0], strings.Join(args[1:], " "))
}

func (sh *shell) show(_ context.Context, _ []string) error {
	s := sh.ctl.Session()
	vis := sh.ctl.Visibility()

	table := newTable(sh.out, "Setting", "Value")
	table.Append([]string{"source", s.Source.String()})
	table.Append([]string{"direction", s.Direction.String()})
	if vis.DatabaseConfig {
		table.Append([]string{"host", s.Database.Host})
		table.Append([]string{"port", s.Database.Port})
		table.Append([]string{"database", s.Database.Database})
		table.Append([]string{"user", s.Database.User})
		table.Append([]string{"token", maskToken(s.Database.Token)})
		table.Append([]string{"secure", strconv.FormatBool(s.Database.Secure)})
	}
	if vis.FileConfig {
		table.Append([]string{"file", s.File.FilePath})
		table.Append([]string{"delimiter", s.Delimiter()})
	}
	if vis.TargetFile {
		table.Append([]string{"target-file", s.Target.FilePath})
	}
	if vis.TargetTable {
		table.Append([]string{"target-database", s.Target.Database})
		table.Append([]string{"target-table", s.Target.Table})
	}
	table.Append([]string{"stage", sh.ctl.Stage().String()})
	if vis.Table {
		table.Append([]string{"table", sh.ctl.SelectedTable()})
	}
	if vis.Columns {
		table.Append([]string{"columns", strings.Join(sh.ctl.SelectedColumns(), ",")})
	}
	table.Render()
	return nil
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}
	return "********"
}

func (sh *shell) connect(ctx context.Context, _ []string) error {
	if err := sh.ctl.Connect(ctx); err != nil {
		return local(err)
	}
	return sh.tables(ctx, nil)
}

func (sh *shell) tables(_ context.Context, _ []string) error {
	if !sh.ctl.Visibility().Table {
		return fmt.Errorf("not connected; run \"connect\" first")
	}
	renderTables(sh.out, sh.ctl.Tables(), sh.ctl.SelectedTable())
	return nil
}

func (sh *shell) table(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", shellCommands["table"].usage)
	}
	return sh.ctl.SelectTable(args[0])
}

func (sh *shell) columns(ctx context.Context, _ []string) error {
	if err := sh.ctl.LoadColumns(ctx); err != nil {
		return local(err)
	}
	renderColumns(sh.out, sh.ctl.Columns(), sh.ctl.SelectedColumns())
	return nil
}

func (sh *shell) selectColumns(_ context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", shellCommands["select"].usage)
	}
	if len(args) == 1 && args[0] == "all" {
		names := make([]string, 0)
		for _, col := range sh.ctl.Columns() {
			names = append(names, col.Name)
		}
		return sh.ctl.SelectColumns(names)
	}
	for _, name := range splitNames(args) {
		if err := sh.ctl.SetColumnSelected(name, true); err != nil {
			return err
		}
	}
	return nil
}

func (sh *shell) unselectColumns(_ context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", shellCommands["unselect"].usage)
	}
	for _, name := range splitNames(args) {
		if err := sh.ctl.SetColumnSelected(name, false); err != nil {
			return err
		}
	}
	return nil
}

// splitNames accepts both "a b" and "a,b".
func splitNames(args []string) []string {
	var names []string
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func (sh *shell) preview(ctx context.Context, _ []string) error {
	preview, err := sh.ctl.LoadPreview(ctx)
	if err != nil {
		return local(err)
	}
	renderPreview(sh.out, preview)
	return nil
}

func (sh *shell) ingest(ctx context.Context, _ []string) error {
	_, err := sh.ctl.Ingest(ctx)
	return local(err)
}

func (sh *shell) help(_ context.Context, _ []string) error {
	table := newTable(sh.out, "Command", "Description")
	for _, name := range shellOrder {
		if name == "quit" {
			table.Append([]string{"quit", "leave the session"})
			continue
		}
		cmd := shellCommands[name]
		table.Append([]string{cmd.usage, cmd.help})
	}
	table.Render()
	return nil
}
