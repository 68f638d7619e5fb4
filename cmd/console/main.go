package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pet-admin-sync/internal/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := console.NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
