// Command bookreview is the book review catalog CLI and read-only API server.
//
// Settings come from bookreview.yaml (or --config) with BOOKREVIEW_*
// environment overrides; .env.local and .env in the working directory are
// loaded first so those overrides can live there.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sakif/bookreview/internal/apperror"
	"github.com/sakif/bookreview/internal/cli"
)

func main() {
	// Existing environment variables win over both files.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewApp().Execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			fmt.Fprintln(os.Stderr, "Error:", appErr.Message)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
