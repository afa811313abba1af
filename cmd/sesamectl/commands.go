package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/nerrad567/gray-logic-sesame/internal/audit"
	"github.com/nerrad567/gray-logic-sesame/internal/auth"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-sesame/internal/lockservice"
	"github.com/nerrad567/gray-logic-sesame/internal/sesame"
	"github.com/nerrad567/gray-logic-sesame/migrations"
)

// defaultConfigPath is used when neither -config nor SESAME_CONFIG is set.
const defaultConfigPath = "configs/config.yaml"

// commandTimeout bounds a whole command including login.
const commandTimeout = time.Minute

// commonFlags holds the flags every command accepts.
type commonFlags struct {
	configPath string
	verbose    bool
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	common := &commonFlags{}
	fs.StringVar(&common.configPath, "config", configPathFromEnv(), "path to config.yaml")
	fs.BoolVar(&common.verbose, "verbose", false, "log requests to stderr")
	return fs, common
}

func configPathFromEnv() string {
	if path := os.Getenv("SESAME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// session is an open lock service plus the resources behind it.
type session struct {
	svc *lockservice.Service
	db  *database.DB
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close() //nolint:errcheck // Best effort on exit
	}
}

// openSession loads config, opens the audit database and logs in.
func openSession(ctx context.Context, common *commonFlags) (*session, error) {
	cfg, err := config.Load(common.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg.Logging.Output = "stderr"
	cfg.Logging.Format = "text"
	cfg.Logging.Level = "warn"
	if common.verbose {
		cfg.Logging.Level = "debug"
	}
	log := logging.New(cfg.Logging, version)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	opts := []sesame.Option{
		sesame.WithTimeout(cfg.GetRequestTimeout()),
		sesame.WithLogger(log.Logger),
	}
	if cfg.Sesame.BaseURL != "" {
		opts = append(opts, sesame.WithBaseURL(cfg.Sesame.BaseURL))
	}

	svc, err := lockservice.New(lockservice.Deps{
		Client:   sesame.NewClient(opts...),
		Email:    cfg.Sesame.Email,
		Password: cfg.Sesame.Password,
		Audit:    audit.NewSQLiteRepository(db.DB),
		Logger:   log,
	})
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}

	if err := svc.Login(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}
	return &session{svc: svc, db: db}, nil
}

// fail prints err and maps it to an exit code.
func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var remote *sesame.RemoteError
	var transition *sesame.TransitionError
	if errors.As(err, &remote) || errors.As(err, &transition) {
		return exitRemoteError
	}
	return exitCommandError
}

func runList(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("list", stderr)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	sess, err := openSession(ctx, common)
	if err != nil {
		return fail(stderr, err)
	}
	defer sess.Close()

	states, err := sess.svc.ListDevices(ctx)
	if err != nil {
		return fail(stderr, err)
	}

	if *asJSON {
		return printJSON(stdout, stderr, states)
	}
	printTable(stdout, states)
	return exitSuccess
}

func runGet(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("get", stderr)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}
	id, ok := deviceArg(fs, stderr)
	if !ok {
		return exitCommandError
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	sess, err := openSession(ctx, common)
	if err != nil {
		return fail(stderr, err)
	}
	defer sess.Close()

	st, err := sess.svc.GetDevice(ctx, id)
	if err != nil {
		return fail(stderr, err)
	}

	if *asJSON {
		return printJSON(stdout, stderr, st)
	}
	printTable(stdout, []sesame.State{st})
	return exitSuccess
}

func runControl(name string, args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet(name, stderr)
	user := fs.String("user", os.Getenv("USER"), "name recorded in the audit trail")
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}
	id, ok := deviceArg(fs, stderr)
	if !ok {
		return exitCommandError
	}

	intent, err := sesame.ParseIntent(name)
	if err != nil {
		return fail(stderr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	sess, err := openSession(ctx, common)
	if err != nil {
		return fail(stderr, err)
	}
	defer sess.Close()

	st, err := sess.svc.Control(ctx, id, intent, lockservice.SourceCLI, *user)
	if err != nil {
		return fail(stderr, err)
	}

	fmt.Fprintf(stdout, "%s (%s) is now %s\n", st.Nickname, st.DeviceID, lockWord(st))
	return exitSuccess
}

func runToken(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("token", stderr)
	subject := fs.String("sub", "", "token subject, e.g. the panel or user name (required)")
	roleName := fs.String("role", string(auth.RoleViewer), "viewer or operator")
	ttl := fs.Duration("ttl", 0, "token lifetime (default security.jwt.access_token_ttl)")
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}

	if *subject == "" {
		fmt.Fprintln(stderr, "Error: -sub is required")
		return exitCommandError
	}
	role, err := auth.ParseRole(*roleName)
	if err != nil {
		return fail(stderr, err)
	}

	cfg, err := config.Load(common.configPath)
	if err != nil {
		return fail(stderr, fmt.Errorf("loading config: %w", err))
	}
	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = cfg.GetTokenTTL()
	}

	token, err := auth.GenerateAccessToken(*subject, role, cfg.Security.JWT.Secret, lifetime)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, token)
	return exitSuccess
}

// deviceArg returns the single positional device id.
func deviceArg(fs *flag.FlagSet, stderr io.Writer) (string, bool) {
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: %s needs exactly one device id\n", fs.Name())
		return "", false
	}
	return fs.Arg(0), true
}

func printJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(stderr, err)
	}
	return exitSuccess
}

func printTable(w io.Writer, states []sesame.State) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE ID\tNICKNAME\tSTATE\tAPI\tBATTERY")
	for _, st := range states {
		api := "disabled"
		if st.APIEnabled {
			api = "enabled"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\n", st.DeviceID, st.Nickname, lockWord(st), api, st.Battery)
	}
	tw.Flush() //nolint:errcheck // Writer errors surface on the next write
}

func lockWord(st sesame.State) string {
	if st.IsUnlocked {
		return "unlocked"
	}
	return "locked"
}
