// Command import loads journal entries from a JSON file, preserving their
// original timestamps. It is intended for one-time migration of an existing
// journal, not as part of the running server.
//
// The input file is a JSON array of objects:
//
//	[{"title": "...", "text": "...", "created": "2020-05-01T12:00:00Z"}, ...]
//
// Entries whose title already exists are skipped, so the command can be
// re-run after a partial import.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/avolkova/journal/internal/adapter/postgres"
	"github.com/avolkova/journal/internal/adapter/postgres/entry"
	"github.com/avolkova/journal/internal/app"
	"github.com/avolkova/journal/internal/config"
	"github.com/avolkova/journal/internal/domain"
)

type record struct {
	Title   string    `json:"title"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

func main() {
	fileFlag := flag.String("file", "", "path to the JSON file to import (required)")
	flag.Parse()

	if *fileFlag == "" {
		log.Fatal("import: --file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	data, err := os.ReadFile(*fileFlag)
	if err != nil {
		logger.Error("read input file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Error("parse input file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := app.Migrate(ctx, cfg.Database.DSN); err != nil {
		logger.Error("apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	entryRepo := entry.New(pool)

	imported, skipped := 0, 0
	for i, rec := range records {
		if rec.Title == "" || rec.Text == "" {
			logger.Warn("skipping record with empty title or text", slog.Int("index", i))
			skipped++
			continue
		}

		created := rec.Created
		if created.IsZero() {
			created = time.Now()
		}

		_, err := entryRepo.Import(ctx, rec.Title, rec.Text, created)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			logger.Info("skipping existing entry", slog.String("title", rec.Title))
			skipped++
		case err != nil:
			logger.Error("import entry failed",
				slog.String("title", rec.Title),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		default:
			imported++
		}
	}

	logger.Info("import completed",
		slog.Int("imported", imported),
		slog.Int("skipped", skipped),
	)
}
