package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/gigbook-backend/internal/backfill"
	"github.com/angelmondragon/gigbook-backend/pkg/config"
	"github.com/angelmondragon/gigbook-backend/pkg/db"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
	"github.com/angelmondragon/gigbook-backend/pkg/metrics"
	"github.com/angelmondragon/gigbook-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
	dryRun  bool
}

type env struct {
	cfg  *config.Config
	logg *logger.Logger
	db   *db.Client
}

// command is one -cmd value. Offline commands never open a database.
type command struct {
	offline bool
	run     func(ctx context.Context, e *env, opts options) error
}

var commands = map[string]command{
	"create":   {offline: true, run: runCreate},
	"validate": {offline: true, run: runValidate},
	"up":       {run: runUp},
	"down":     {run: runDown},
	"status":   {run: runStatus},
	"version":  {run: runVersion},
	"backfill": {run: runBackfill},
}

func main() {
	_ = godotenv.Load()

	cmdName := flag.String("cmd", "up", "command: "+strings.Join(commandNames(), "|"))
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version; empty prints the current version")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "report backfill changes without writing (for -cmd=backfill)")
	flag.Parse()

	cmd, ok := commands[*cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q (want %s)\n", *cmdName, strings.Join(commandNames(), "|"))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmdName,
		"dir": opts.dir,
	})

	e := &env{cfg: cfg, logg: logg}
	if !cmd.offline {
		e.db, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "resource not working: database", err)
			os.Exit(1)
		}
		defer e.db.Close()
	}

	start := time.Now()
	if err := cmd.run(ctx, e, opts); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", *cmdName, err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "duration_ms", time.Since(start).Milliseconds()), "migrate.completed")
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runCreate(_ context.Context, _ *env, opts options) error {
	if opts.name == "" {
		return errors.New("missing -name")
	}
	path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
	if err != nil {
		return err
	}
	fmt.Println("created migration:", path)
	return nil
}

func runValidate(_ context.Context, _ *env, opts options) error {
	if opts.dir == "" {
		return errors.New("missing -dir")
	}
	files, err := migrate.ValidateFS(os.DirFS(opts.dir), ".")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("no migrations found")
		return nil
	}
	fmt.Printf("%d migrations valid, latest %s\n", len(files), files[len(files)-1].Version)
	return nil
}

func (e *env) migrator(dir string) (*migrate.Migrator, error) {
	sqlDB, err := e.db.DB().DB()
	if err != nil {
		return nil, fmt.Errorf("sql database: %w", err)
	}
	return migrate.NewMigrator(sqlDB, dir)
}

func runUp(ctx context.Context, e *env, opts options) error {
	m, err := e.migrator(opts.dir)
	if err != nil {
		return err
	}
	results, err := m.Up(ctx)
	printResults(results)
	return err
}

func runDown(ctx context.Context, e *env, opts options) error {
	m, err := e.migrator(opts.dir)
	if err != nil {
		return err
	}
	result, err := m.Down(ctx)
	if result != nil {
		printResults([]*goose.MigrationResult{result})
	}
	return err
}

func runStatus(ctx context.Context, e *env, opts options) error {
	m, err := e.migrator(opts.dir)
	if err != nil {
		return err
	}
	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, st := range statuses {
		applied := "-"
		if !st.AppliedAt.IsZero() {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", st.Source.Version, st.State, applied, st.Source.Path)
	}
	return w.Flush()
}

func runVersion(ctx context.Context, e *env, opts options) error {
	m, err := e.migrator(opts.dir)
	if err != nil {
		return err
	}
	if opts.version == "" {
		current, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println("current version:", current)
		return nil
	}
	results, err := m.MigrateTo(ctx, opts.version)
	printResults(results)
	return err
}

func printResults(results []*goose.MigrationResult) {
	if len(results) == 0 {
		fmt.Println("no migrations to run")
		return
	}
	for _, r := range results {
		status := "OK"
		if r.Error != nil {
			status = "FAILED: " + r.Error.Error()
		}
		fmt.Printf("%-4s %d %s (%s) %s\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration.Round(time.Millisecond), status)
	}
}

func runBackfill(ctx context.Context, e *env, opts options) error {
	runner, err := backfill.NewRunner(e.db.DB(), e.logg, metrics.NewBackfillMetrics(prometheus.NewRegistry()), backfill.Options{
		DryRun:    opts.dryRun,
		BatchSize: e.cfg.Backfill.BatchSize,
	})
	if err != nil {
		return err
	}

	report, runErr := runner.Run(ctx)
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return runErr
}
