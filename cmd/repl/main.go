// REPL binary for interactively building and executing UPDATE statements.
//
// Configuration (flags take precedence over env vars):
//
//	--engine / SQLUPDATE_ENGINE=postgres|mysql|sqlite  (prompted if absent)
//	--dsn    / DATABASE_URL=<dsn>                      (auto-connects if set)
//
// Usage:
//
//	go run ./cmd/repl
//	go run ./cmd/repl render -f update.yaml --engine mysql
package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"

	"github.com/bawdo/sqlupdate/adapter"
)

const prompt = "sqlupdate> "

// rootOptions holds the flags shared by the REPL and its subcommands.
type rootOptions struct {
	engine string
	dsn    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sqlupdate",
		Short:         "Interactive UPDATE statement builder",
		Long:          "Build UPDATE statements line by line, render them for postgres, mysql or sqlite, and run them against a live database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.engine != "" && !isValidEngine(opts.engine) {
				return fmt.Errorf("invalid engine %q: must be one of %v", opts.engine, adapter.Engines())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.engine, "engine", strings.ToLower(os.Getenv("SQLUPDATE_ENGINE")), "SQL dialect (postgres|mysql|sqlite)")
	cmd.Flags().StringVar(&opts.dsn, "dsn", os.Getenv("DATABASE_URL"), "connect to this database on start")

	cmd.AddCommand(newRenderCommand(opts))
	return cmd
}

func runREPL(opts *rootOptions) error {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "[Config] ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer func() { _ = rl.Close() }()

	engine := opts.engine
	if engine == "" {
		engine = promptEngine(rl)
	} else {
		fmt.Printf("[Config] Engine: %s\n", engine)
	}
	sess := NewSession(engine, rl)

	comp := &replCompleter{sess: sess}
	_ = rl.SetConfig(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyPath(),
		HistoryLimit:    500,
		AutoComplete:    comp,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})

	if opts.dsn != "" {
		fmt.Printf("[Config] Connecting to %s...\n", adapter.SanitizeDSN(opts.dsn))
		if err := sess.Execute("connect " + opts.dsn); err != nil {
			fmt.Fprintf(os.Stderr, "  Warning: connect failed: %v\n", err)
		}
	} else {
		loadConnection(rl, sess)
	}

	fmt.Println()
	fmt.Println("sqlupdate REPL. Type 'help' for commands, 'exit' to quit")
	fmt.Println()

	rl.SetPrompt(prompt)
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) || err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			break
		}
		if err := sess.Execute(line); err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		}
	}
	sess.close()
	fmt.Println()
	return nil
}

func promptEngine(rl *readline.Instance) string {
	choice := strings.TrimSpace(strings.ToLower(ask(rl, "Select engine (postgres, mysql, sqlite)", "postgres")))
	if !isValidEngine(choice) {
		fmt.Fprintf(os.Stderr, "Warning: unknown engine %q, defaulting to postgres\n", choice)
		return "postgres"
	}
	fmt.Printf("[Config] Engine: %s\n", choice)
	return choice
}

func loadConnection(rl *readline.Instance, sess *Session) {
	answer := strings.TrimSpace(strings.ToLower(ask(rl, "Connect to a database? (y/N)", "")))
	if answer != "y" && answer != "yes" {
		fmt.Println("[Config] Skipped, use 'connect <dsn>' later to connect")
		return
	}
	dsn := buildDSN(rl, sess.engine)
	if dsn == "" {
		fmt.Println("[Config] No connection configured, use 'connect <dsn>' later")
		return
	}
	fmt.Printf("[Config] DSN: %s\n", adapter.SanitizeDSN(dsn))
	if err := sess.Execute("connect " + dsn); err != nil {
		fmt.Fprintf(os.Stderr, "  Warning: connect failed: %v\n", err)
	}
}

// ask prints a label with an optional default and returns the user's input,
// or the default if they press enter.
func ask(rl *readline.Instance, label, defaultVal string) string {
	if rl == nil {
		return defaultVal
	}
	if defaultVal != "" {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s [%s]: ", label, defaultVal))
	} else {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s: ", label))
	}
	defer rl.SetPrompt(prompt)
	line, err := rl.ReadLine()
	if err != nil {
		return defaultVal
	}
	if val := strings.TrimSpace(line); val != "" {
		return val
	}
	return defaultVal
}

func buildDSN(rl *readline.Instance, engine string) string {
	switch engine {
	case "sqlite":
		fmt.Println("[Config] SQLite connection setup:")
		return ask(rl, "Database path", ":memory:")
	case "mysql":
		return buildMySQLDSN(rl)
	default:
		return buildPostgresDSN(rl)
	}
}

func buildPostgresDSN(rl *readline.Instance) string {
	fmt.Println("[Config] PostgreSQL connection setup:")

	defaultUser := "postgres"
	if u, err := user.Current(); err == nil && u.Username != "" {
		defaultUser = u.Username
	}

	dbUser := ask(rl, "User", defaultUser)
	dbPass := ask(rl, "Password", "")
	host := ask(rl, "Host", "localhost")
	port := ask(rl, "Port", "5432")
	dbName := ask(rl, "Database", dbUser)
	sslMode := ask(rl, "SSL mode (disable/require/verify-full)", "disable")

	userInfo := url.User(dbUser)
	if dbPass != "" {
		userInfo = url.UserPassword(dbUser, dbPass)
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     host + ":" + port,
		Path:     "/" + dbName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

func buildMySQLDSN(rl *readline.Instance) string {
	fmt.Println("[Config] MySQL connection setup:")

	dbUser := ask(rl, "User", "root")
	dbPass := ask(rl, "Password", "")
	host := ask(rl, "Host", "localhost")
	port := ask(rl, "Port", "3306")
	dbName := ask(rl, "Database", "")
	if dbName == "" {
		return ""
	}

	auth := dbUser
	if dbPass != "" {
		auth = dbUser + ":" + dbPass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s", auth, host, port, dbName)
}

func isValidEngine(engine string) bool {
	for _, e := range adapter.Engines() {
		if e == engine {
			return true
		}
	}
	return false
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sqlupdate_history")
}
