package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/dagaz/internal"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/mcpserver"
	"github.com/starford/dagaz/internal/storage"
	pkgconfig "github.com/starford/dagaz/pkg/config"
)

// loadConfig reads the config file if it exists, otherwise serves defaults.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// newPost scaffolds today's post file: YYYY-MM-DD.md, or -2, -3... when
// earlier posts for the day already exist.
func newPost(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return fmt.Errorf("create content dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return err
	}

	today := time.Now().Format("2006-01-02")
	slug := today
	for n := 2; store.Exists(slug + ".md"); n++ {
		slug = fmt.Sprintf("%s-%d", today, n)
	}

	title := cmd.String("title")
	scaffold := fmt.Sprintf("---\ntitle: %s\ndate: %s\ntags: []\n---\n\n", title, today)
	if err := store.Write(slug+".md", []byte(scaffold)); err != nil {
		return err
	}

	fmt.Printf("created %s.md\n", slug)
	return nil
}

// serveMCP runs the MCP server over stdio against the configured content
// tree and index.
func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(store, db).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "dagaz",
		Usage:  "Daily-log engine: Markdown posts with deterministic ordering, outlines, full-text search, and live updates",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default)",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "new",
				Usage:  "Scaffold today's post file",
				Action: newPost,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Title for the new post",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tool interface over stdio",
				Action: serveMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
