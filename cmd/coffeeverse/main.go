// Package main is the entry point for the coffeeverse ETL service.
//
// coffeeverse ingests raw drink records, validates and enriches them, and
// persists them as JSONL tables plus content-addressed mirror artifacts. Raw
// NDJSON batch files dropped into <data-dir>/raw are processed automatically;
// the same pipeline can be triggered over HTTP. Configuration is read from
// CLI flags, a .env file, and config.yaml in the data directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/coffeeverse/coffeeverse/internal/agent"
	"github.com/coffeeverse/coffeeverse/internal/config"
	"github.com/coffeeverse/coffeeverse/internal/pipeline"
	"github.com/coffeeverse/coffeeverse/internal/server"
	"github.com/coffeeverse/coffeeverse/internal/server/handlers"
	"github.com/coffeeverse/coffeeverse/internal/server/ratelimit"
	"github.com/coffeeverse/coffeeverse/internal/storage"
	"github.com/coffeeverse/coffeeverse/internal/storage/audit"
	"github.com/coffeeverse/coffeeverse/internal/watcher"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "coffeeverse: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	httpAddr := flag.String("http", "localhost:8080", "Address to listen on (e.g., localhost:8080, :8080, 0.0.0.0:8080). Use 0.0.0.0:port to listen on all interfaces.")
	dataDir := flag.String("data-dir", "./data", "Data directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Drop time when running under systemd.
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			val := a.Value.Any()
			skip := false
			switch t := val.(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Load .env for the API key and bootstrap settings.
	env, err := loadDotEnv(*dataDir)
	if err != nil {
		return err
	}

	// Load config.yaml for rate limits, quotas, agent and audit settings
	// (creates with defaults if missing).
	cfg, err := config.Load(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config.yaml: %w", err)
	}

	// Override flags with .env values if not explicitly set.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if !set["http"] {
		if v := env["HTTP"]; v != "" {
			*httpAddr = v
		}
	}
	if !set["log-level"] {
		if v := env["LOG_LEVEL"]; v != "" {
			*logLevel = v
		}
	}
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = env["GEMINI_API_KEY"]
	}

	// Normalize addr: ":8080" becomes "localhost:8080"
	addr := *httpAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}

	dbDir := filepath.Join(*dataDir, "db")
	rawDir := filepath.Join(*dataDir, "raw")
	mirrorDir := filepath.Join(*dataDir, "mirror")
	for _, dir := range []string{dbDir, rawDir, mirrorDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	drinks, err := storage.NewDrinkStore(dbDir)
	if err != nil {
		return fmt.Errorf("failed to initialize drink store: %w", err)
	}
	journal, err := storage.NewBatchJournal(dbDir)
	if err != nil {
		return fmt.Errorf("failed to initialize batch journal: %w", err)
	}
	mirror, err := storage.NewMirrorStore(mirrorDir)
	if err != nil {
		return fmt.Errorf("failed to initialize mirror store: %w", err)
	}

	var auditor pipeline.Auditor
	if cfg.Audit.Enabled {
		repo, err := audit.New(ctx, *dataDir, cfg.Audit.AuthorName, cfg.Audit.AuthorEmail)
		if err != nil {
			return fmt.Errorf("failed to initialize audit repo: %w", err)
		}
		auditor = repo
	}

	proc := pipeline.New(drinks, mirror, journal, auditor)

	// Description agents are optional; without an API key the describe
	// endpoint reports unavailable.
	var writer *agent.Writer
	var reviewer *agent.Reviewer
	if apiKey != "" {
		gen, err := agent.NewGeminiGenerator(ctx, apiKey, cfg.Agent.Model)
		if err != nil {
			return fmt.Errorf("failed to initialize generator: %w", err)
		}
		writer = agent.NewWriter(gen)
		reviewer = agent.NewReviewer(gen)
		slog.InfoContext(ctx, "Description agent enabled", "model", cfg.Agent.Model)
	}

	// Feed raw batch files through the pipeline.
	w := watcher.New(rawDir, proc, journal)
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "Watcher stopped", "err", err)
		}
	}()

	svc := &handlers.Services{
		Drinks:   drinks,
		Journal:  journal,
		Pipeline: proc,
		Writer:   writer,
		Reviewer: reviewer,
	}
	buildVersion, _, _, _ := getBuildInfo()
	hcfg := &handlers.Config{
		Version: buildVersion,
		Quotas:  cfg.Quotas,
	}

	limiter := ratelimit.NewLimiter(cfg.RateLimits.ProcessPerMin, time.Minute, cfg.RateLimits.Burst)
	defer limiter.Close()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(svc, hcfg, limiter),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "dataDir", *dataDir, "version", buildVersion)
		serverErr <- httpServer.ListenAndServe()
	}()

	// Wait for either context cancellation or server error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		// Graceful shutdown
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
	}
	return nil
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("coffeeverse %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

func loadDotEnv(dataDir string) (map[string]string, error) {
	env := make(map[string]string)
	path := filepath.Join(dataDir, ".env")
	envContent, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir flag, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, err
	}

	for line := range strings.SplitSeq(string(envContent), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])

		if strings.HasPrefix(val, "'") || strings.HasSuffix(val, "'") {
			if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
				return nil, fmt.Errorf("single quotes are not supported for wrapping in .env: %s", line)
			}
			return nil, fmt.Errorf("unbalanced single quotes in .env: %s", line)
		}

		if strings.HasPrefix(val, "\"") {
			unquoted, err := strconv.Unquote(val)
			if err != nil {
				return nil, fmt.Errorf("failed to unquote %s: %w", key, err)
			}
			val = unquoted
		}

		env[key] = val
	}
	return env, nil
}
