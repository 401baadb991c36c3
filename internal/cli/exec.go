package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/asyncdb/internal/render"
	"github.com/vvka-141/asyncdb/pkg/asyncdb"
)

var execFlags connectionFlags

var execCmd = &cobra.Command{
	Use:   "exec [SQL]",
	Short: "Execute a single SQL statement",
	Long: `Execute one SQL statement against the configured database and print the
result. Row-returning statements render as a table; other statements report
the affected row count.

Connection settings come from flags, falling back to asyncdb.yaml in the
source directory.

Example:
  asyncdb exec --driver sqlite --target app.db "SELECT * FROM users"
  asyncdb exec "INSERT INTO users(name) VALUES ('ada')"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExec(cmd, args[0], execFlags)
	},
}

func init() {
	registerConnectionFlags(execCmd, &execFlags)
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, sql string, flags connectionFlags) error {
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

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()

	conn, err := openConnection(ctx, resolved, flags, logger)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	return executeAndRender(ctx, conn, sql, os.Stdout)
}

// executeAndRender runs one statement and writes its rendered result to out.
// Statement and fetch failures are tagged ErrExecutionFailed so the process
// exits with ExitExecutionFailed; the client's error stays in the chain for
// errors.As inspection.
func executeAndRender(ctx context.Context, conn *asyncdb.Conn, sql string, out io.Writer) error {
	cur, err := conn.Execute(ctx, sql)
	if err != nil {
		return executionError(err)
	}
	defer cur.Close(ctx)

	columns, err := cur.Description(ctx)
	if err != nil {
		return executionError(err)
	}

	if len(columns) == 0 {
		affected, err := cur.RowCount(ctx)
		if err != nil {
			return executionError(err)
		}
		fmt.Fprint(out, render.Affected(affected))
		return nil
	}

	rows, err := cur.FetchAll(ctx)
	if err != nil {
		return executionError(err)
	}
	fmt.Fprint(out, render.Table(columns, rows))
	return nil
}

// executionError wraps a client failure with the execution sentinel, except
// for closed-handle and context errors, which keep their own classification.
func executionError(err error) error {
	if errors.Is(err, asyncdb.ErrConnClosed) || errors.Is(err, asyncdb.ErrCursorClosed) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", asyncdb.ErrExecutionFailed, err)
}
