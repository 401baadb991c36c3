package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vvka-141/asyncdb/internal/config"
	"github.com/vvka-141/asyncdb/internal/logging"
	"github.com/vvka-141/asyncdb/internal/retry"
	"github.com/vvka-141/asyncdb/pkg/asyncdb"
	"github.com/vvka-141/asyncdb/pkg/postgres"
	"github.com/vvka-141/asyncdb/pkg/sqlite"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	driver         string
	target         string
	options        []string
	source         string
	timeout        time.Duration
	promptPassword bool
	retries        int
}

// registerConnectionFlags wires the shared connection flags onto a command.
func registerConnectionFlags(cmd *cobra.Command, flags *connectionFlags) {
	cmd.Flags().StringVarP(&flags.driver, "driver", "d", "", "Database driver (sqlite or postgres)")
	cmd.Flags().StringVarP(&flags.target, "target", "t", "", "Database target (file path or connection URL)")
	cmd.Flags().StringArrayVarP(&flags.options, "option", "o", nil, "Driver option as key=value (repeatable)")
	cmd.Flags().StringVarP(&flags.source, "source", "s", ".", "Directory containing asyncdb.yaml")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 5*time.Minute, "Overall timeout for the command")
	cmd.Flags().BoolVarP(&flags.promptPassword, "password", "W", false, "Prompt for the database password")
	cmd.Flags().IntVar(&flags.retries, "retries", 3, "Connection retry attempts for transient failures")
}

// resolvedConnection holds the effective connection configuration after
// merging flags over asyncdb.yaml.
type resolvedConnection struct {
	Driver  asyncdb.Driver
	Name    string
	Target  string
	Options map[string]string
	Verbose bool
}

// loadProjectConfig loads godotenv and project configuration.
// Returns nil config if asyncdb.yaml does not exist (not an error).
func loadProjectConfig(sourcePath string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := config.Load(sourcePath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil // Config file not found is not an error
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return projectCfg, nil
}

// resolveConnection merges flags over the project config. Flags win.
func resolveConnection(flags connectionFlags, projectCfg *config.ProjectConfig, verbose bool) (*resolvedConnection, error) {
	driverName := flags.driver
	target := flags.target
	options := make(map[string]string)

	if projectCfg != nil {
		if driverName == "" {
			driverName = projectCfg.Driver
		}
		if target == "" {
			target = projectCfg.Target
		}
		for k, v := range projectCfg.Options {
			options[k] = v
		}
		verbose = verbose || projectCfg.Verbose
	}

	flagOptions, err := parseKeyValuePairs(flags.options)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid option format: %v", asyncdb.ErrInvalidConfig, err)
	}
	for k, v := range flagOptions {
		options[k] = v
	}

	driver, err := driverFor(driverName)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, fmt.Errorf("%w: no target given (use --target or %s)", asyncdb.ErrInvalidConfig, config.ConfigFileName)
	}

	return &resolvedConnection{
		Driver:  driver,
		Name:    driverName,
		Target:  target,
		Options: options,
		Verbose: verbose,
	}, nil
}

// driverFor maps a driver name to its implementation.
func driverFor(name string) (asyncdb.Driver, error) {
	switch name {
	case "sqlite", "sqlite3":
		return sqlite.Driver{}, nil
	case "postgres", "postgresql":
		return postgres.Driver{}, nil
	case "":
		return nil, fmt.Errorf("%w: no driver given (use --driver or %s)", asyncdb.ErrInvalidConfig, config.ConfigFileName)
	default:
		return nil, fmt.Errorf("%w: unknown driver %q (expected sqlite or postgres)", asyncdb.ErrInvalidConfig, name)
	}
}

// parseKeyValuePairs parses repeated key=value strings into a map.
func parseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		result[key] = value
	}
	return result, nil
}

// openConnection establishes the database connection, retrying transient
// failures with exponential backoff.
func openConnection(ctx context.Context, resolved *resolvedConnection, flags connectionFlags, logger asyncdb.Logger) (*asyncdb.Conn, error) {
	if flags.promptPassword {
		if err := promptPassword(resolved); err != nil {
			return nil, err
		}
	}

	opts := []asyncdb.Option{asyncdb.WithLogger(logger)}
	for k, v := range resolved.Options {
		opts = append(opts, asyncdb.WithClientOption(k, v))
	}

	executor := retry.NewExecutor(
		retry.NewConnectClassifier(),
		retry.NewExponentialBackoff(flags.retries),
	).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Info("Connection attempt %d failed (%v), retrying in %v", attempt+1, err, delay)
	})

	var conn *asyncdb.Conn
	err := executor.Execute(ctx, func(ctx context.Context) error {
		var connectErr error
		conn, connectErr = asyncdb.Connect(ctx, resolved.Driver, resolved.Target, opts...)
		return connectErr
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// promptPassword reads a password from the terminal and exports it as
// PGPASSWORD so the postgres driver picks it up. SQLite targets have no
// password, so the prompt is postgres-only.
func promptPassword(resolved *resolvedConnection) error {
	if resolved.Name != "postgres" && resolved.Name != "postgresql" {
		return nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return fmt.Errorf("%w: --password requires an interactive terminal", asyncdb.ErrInvalidConfig)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	return os.Setenv("PGPASSWORD", string(password))
}

// loggerFor returns the logger implied by the verbose setting.
func loggerFor(verbose bool) asyncdb.Logger {
	return logging.NewConsoleLogger(verbose)
}
