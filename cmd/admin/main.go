package main

import (
	"context"
	"fmt"
	"os"

	"leaderboard/internal/config"
	"leaderboard/internal/store"
)

func main() {
	cfg := config.Load()
	cli := &commandLine{
		open: func(ctx context.Context) (*store.Backend, error) { return store.Open(ctx, cfg) },
		out:  os.Stdout,
	}
	if err := newRootCmd(cli).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
