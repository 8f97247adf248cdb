// Command gamestats-admin runs migrations and manages credential records out of band.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/and161185/gamestats/internal/config"
	"github.com/and161185/gamestats/internal/errs"
	"github.com/and161185/gamestats/internal/migrate"
	"github.com/and161185/gamestats/internal/repository/postgres"
	"github.com/and161185/gamestats/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// registrar creates credential records.
type registrar interface {
	Register(ctx context.Context, username, email, password string) (int64, error)
}

// app holds the side-effecting dependencies so commands can be tested.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	migrateUp     func(ctx context.Context, dsn string) error
	migrateStatus func(ctx context.Context, dsn string) error
	openUsers     func(ctx context.Context, dsn string) (registrar, func(), error)
}

func defaultApp() *app {
	return &app{
		stdin:         os.Stdin,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		migrateUp:     migrate.Up,
		migrateStatus: migrate.Status,
		openUsers: func(ctx context.Context, dsn string) (registrar, func(), error) {
			db, err := postgres.New(ctx, dsn)
			if err != nil {
				return nil, nil, err
			}
			// Register never signs tokens, so no key is needed.
			svc := service.NewAuthService(postgres.NewUserRepo(db), nil, service.DefaultTokenTTL, nil)
			return svc, db.Close, nil
		},
	}
}

func (a *app) usage() {
	fmt.Fprintf(a.stderr, `gamestats-admin
Usage:
  gamestats-admin [-dsn DSN] <cmd> [args]

Commands:
  version
  migrate                                          (apply pending migrations)
  status                                           (print migration status)
  useradd  -username <name> -password <pw|-> [-email <addr>]
`)
}

// run executes one command and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("gamestats-admin", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = a.usage
	dsn := fs.String("dsn", os.Getenv(config.EnvDatabaseURL), "PostgreSQL DSN (default $DATABASE_URL)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		a.usage()
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd != "version" && strings.TrimSpace(*dsn) == "" {
		fmt.Fprintln(a.stderr, "need -dsn or DATABASE_URL")
		return 2
	}

	switch cmd {
	case "version":
		fmt.Fprintf(a.stdout, "gamestats-admin %s (%s)\n", version, buildDate)
		return 0

	case "migrate":
		if err := a.migrateUp(ctx, *dsn); err != nil {
			return a.fail(err)
		}
		fmt.Fprintln(a.stdout, "ok")
		return 0

	case "status":
		if err := a.migrateStatus(ctx, *dsn); err != nil {
			return a.fail(err)
		}
		return 0

	case "useradd":
		return a.userAdd(ctx, *dsn, rest)

	default:
		a.usage()
		return 2
	}
}

func (a *app) userAdd(ctx context.Context, dsn string, args []string) int {
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", `password, "-" reads it from stdin`)
	email := fs.String("email", "", "optional email")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	pw := *password
	if pw == "-" {
		b, err := readAll(a.stdin)
		if err != nil {
			return a.fail(err)
		}
		pw = strings.TrimRight(string(b), "\r\n")
	}
	if strings.TrimSpace(*username) == "" || pw == "" {
		fmt.Fprintln(a.stderr, "need -username and -password")
		return 2
	}

	users, closeFn, err := a.openUsers(ctx, dsn)
	if err != nil {
		return a.fail(err)
	}
	defer closeFn()

	id, err := users.Register(ctx, *username, *email, pw)
	if errors.Is(err, errs.ErrConflict) {
		fmt.Fprintf(a.stderr, "user %q already exists\n", strings.TrimSpace(*username))
		return 1
	}
	if err != nil {
		return a.fail(err)
	}
	a.printJSON(map[string]any{"id": id, "username": strings.TrimSpace(*username)})
	return 0
}

func (a *app) fail(err error) int {
	fmt.Fprintln(a.stderr, "error:", err)
	return 1
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, 4096))
}

// main loads .env if present and dispatches the subcommand.
func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	code := defaultApp().run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}
