package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/asyncdb/pkg/asyncdb"
)

var shellFlags connectionFlags

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run an interactive SQL shell",
	Long: `Open a connection and read statements from stdin, one per line, until
EOF or \q. Each statement executes on the connection's worker in order, so a
transaction opened on one line is still pending on the next.

Commands:
  \q        quit
  commit    shortcut for COMMIT
  rollback  shortcut for ROLLBACK`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd, shellFlags)
	},
}

func init() {
	registerConnectionFlags(shellCmd, &shellFlags)
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, flags connectionFlags) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig(flags.source)
	if err != nil {
		return err
	}

	resolved, err := resolveConnection(flags, projectCfg, verbose)
	if err != nil {
		return err
	}
	logger := loggerFor(resolved.Verbose)

	connectCtx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	conn, err := openConnection(connectCtx, resolved, flags, logger)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	fmt.Fprintf(cmd.ErrOrStderr(), "Connected to %s (%s). Type \\q to quit.\n", resolved.Target, resolved.Name)
	return shellLoop(cmd.Context(), conn, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// shellLoop reads statements line by line and executes them until EOF or \q.
// Statement errors are printed and the loop continues; the connection
// survives failed statements.
func shellLoop(ctx context.Context, conn *asyncdb.Conn, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(errOut, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		// Trailing semicolons are noise for the shortcut commands.
		shortcut := strings.TrimSpace(strings.TrimRight(line, ";"))
		switch {
		case line == "":
			continue
		case line == `\q`:
			return nil
		case strings.EqualFold(shortcut, "commit"):
			if err := conn.Commit(ctx); err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
			} else {
				fmt.Fprintln(out, "COMMIT")
			}
			continue
		case strings.EqualFold(shortcut, "rollback"):
			if err := conn.Rollback(ctx); err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
			} else {
				fmt.Fprintln(out, "ROLLBACK")
			}
			continue
		}

		if err := executeAndRender(ctx, conn, line, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
	}
	return scanner.Err()
}
