// Command server runs the journal web application.
//
// Configuration comes from environment variables and an optional YAML file
// (CONFIG_PATH, fallback ./config.yaml). In production (APP_ENV=production)
// the server refuses to start without DATABASE_DSN, AUTH_USERNAME,
// AUTH_PASSWORD, and JOURNAL_AUTH_SECRET.
//
// Exit codes: 0 = clean shutdown, 1 = startup or serve error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolkova/journal/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "journal: %v\n", err)
		os.Exit(1)
	}
}
