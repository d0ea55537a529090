// Command ac is a terminal client for the course platform.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/academy-client/internal/api"
	"github.com/and161185/academy-client/internal/config"
	"github.com/and161185/academy-client/internal/credentials"
	"github.com/and161185/academy-client/internal/credentials/pgstore"
	"github.com/and161185/academy-client/internal/engagement"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/migrate"
	"github.com/and161185/academy-client/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitNoLogin = 3
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintf(w, `ac CLI
Usage:
  ac [-api URL] [-store file|postgres|memory] [-dsn DSN] [-seal] [-debug] <cmd> [args]

Commands:
  version
  login            -email <email> -password <password|->
  logout
  me
  modules
  module           -id <id> | -n <number>
  lesson           -module <id> -n <lesson>
  complete         -module <id> -n <lesson>
  uncomplete       -module <id> -n <lesson>
  complete-module  -module <id>
  fav add|rm       -module <id> -n <lesson>
  fav list         [-q text] [-m module number]
  earnings list
  earnings add     <amount>
  earnings rm      <id>
  leaderboard
  profile          [-first name] [-last name] [-phone phone]
  avatar           [-type content-type] <file>
  admin users
  admin assign     -user <id> -faculty <faculty>
  admin toggle     -user <id>
  welcome          [-dismiss]
`)
}

// app carries the wired collaborators of one invocation.
type app struct {
	log      *zap.Logger
	out      io.Writer
	in       io.Reader
	creds    credentials.Provider
	client   *api.Client
	sessions *session.Store
	coord    *engagement.Coordinator
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses configuration, wires the client and dispatches one command.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, rest, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		usage(stderr)
		return exitUsage
	}
	if len(rest) < 1 {
		usage(stderr)
		return exitUsage
	}
	if rest[0] == "version" {
		fmt.Fprintf(stdout, "ac %s (%s)\n", version, buildDate)
		return exitOK
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		usage(stderr)
		return exitUsage
	}

	logger := newLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	creds, closeCreds, err := newProvider(ctx, cfg, logger)
	if err != nil {
		return fail(stderr, err)
	}
	defer closeCreds()

	a := newApp(cfg, creds, logger)
	a.out, a.in = stdout, stdin
	if err := cmd(ctx, a, rest[1:]); err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

// newLogger keeps the CLI quiet unless -debug is set.
func newLogger(debug bool) *zap.Logger {
	if debug {
		l, err := zap.NewDevelopment()
		if err == nil {
			return l
		}
		return zap.NewNop()
	}
	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	l, err := c.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func newApp(cfg config.Config, creds credentials.Provider, log *zap.Logger) *app {
	client := api.New(cfg.APIURL, creds, api.WithLogger(log))
	sessions := session.New(client.Auth, creds, log)
	client.OnUnauthenticated(sessions.Teardown)
	return &app{
		log:      log,
		creds:    creds,
		client:   client,
		sessions: sessions,
		coord:    engagement.FromClient(client, sessions, log),
	}
}

// newProvider opens the configured token store.
func newProvider(ctx context.Context, cfg config.Config, log *zap.Logger) (credentials.Provider, func(), error) {
	switch cfg.TokenStore {
	case config.StoreMemory:
		return credentials.NewMemoryStore(""), func() {}, nil
	case config.StorePostgres:
		if err := migrate.Up(ctx, cfg.TokenDSN); err != nil {
			return nil, nil, fmt.Errorf("migrate up: %w", err)
		}
		st, err := pgstore.New(ctx, cfg.TokenDSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		var opts []credentials.FileOption
		if cfg.SealToken {
			key, err := sealKey(cfg)
			if err != nil {
				return nil, nil, fmt.Errorf("seal key: %w", err)
			}
			opts = append(opts, credentials.WithSealKey(key))
		}
		log.Debug("token store", zap.String("dir", cfg.Dir), zap.Bool("sealed", cfg.SealToken))
		return credentials.NewFileStore(cfg.Dir, opts...), func() {}, nil
	}
}

func sealKey(cfg config.Config) ([]byte, error) {
	if cfg.Passphrase != "" {
		return credentials.PassphraseKey(cfg.Dir, cfg.Passphrase)
	}
	return credentials.LoadOrCreateKey(cfg.Dir)
}

// ---- utils ----

// readSecret returns v, or the first line of in when v is "-".
func readSecret(v string, in io.Reader) (string, error) {
	if v != "-" {
		return v, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// fail reports err and returns the exit code for it.
func fail(w io.Writer, err error) int {
	var re *errs.RequestError
	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		fmt.Fprintln(w, "login required")
		return exitNoLogin
	case errors.Is(err, errUsage):
		fmt.Fprintln(w, err)
		return exitUsage
	case errors.Is(err, errs.ErrValidation):
		fmt.Fprintln(w, err)
		return exitUsage
	case errors.As(err, &re):
		fmt.Fprintf(w, "request error: op=%s status=%d msg=%s\n", re.Op, re.Status, re.Error())
		return exitFailed
	}
	fmt.Fprintln(w, err)
	return exitFailed
}
