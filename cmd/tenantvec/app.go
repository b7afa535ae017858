package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/tenant-vec/config"
	"github.com/viant/tenant-vec/embed"
	"github.com/viant/tenant-vec/engine"
	"github.com/viant/tenant-vec/internal/logging"
	"github.com/viant/tenant-vec/persist"
	"github.com/viant/tenant-vec/tenant"
	"github.com/viant/tenant-vec/vector"
)

// app holds the collaborators built once per command invocation.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	db       *sql.DB
	source   *vector.SQLiteSource
	dir      *persist.Dir
	cache    *tenant.Cache
	embedder embed.Embedder
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DatabasePath = dbPath
	}
	if flags.Changed("index-dir") {
		cfg.IndexDir = indexDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Open(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	db, err := engine.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	source, err := vector.NewSQLiteSource(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	embedder, err := embed.New(cfg.Embed)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("configuration loaded",
		"database", cfg.DatabasePath,
		"index_dir", cfg.IndexDir,
		"compression", cfg.Compression,
		"embed_backend", cfg.Embed.Backend,
	)
	dir := persist.NewDir(cfg.IndexDir, cfg.PersistCompression())
	cache := tenant.New(source,
		tenant.WithDir(dir),
		tenant.WithNormalize(cfg.Normalize),
		tenant.WithLogger(logger),
	)
	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		source:   source,
		dir:      dir,
		cache:    cache,
		embedder: embedder,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// queryVector resolves the query given by exactly one of --vector, --text
// or --image.
func (a *app) queryVector(ctx context.Context, cmd *cobra.Command) ([]float32, error) {
	vectorStr, _ := cmd.Flags().GetString("vector")
	text, _ := cmd.Flags().GetString("text")
	image, _ := cmd.Flags().GetString("image")
	set := 0
	for _, v := range []string{vectorStr, text, image} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of --vector, --text or --image is required")
	}
	switch {
	case vectorStr != "":
		return parseVector(vectorStr)
	case text != "":
		return a.embedder.EmbedText(ctx, text)
	}
	return a.embedder.EmbedImage(ctx, image)
}

func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	out := make([]float32, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector format: %w", err)
		}
		out = append(out, float32(val))
	}
	return out, nil
}
