package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/csheth/paperdraft/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cli.RootCmd.ExecuteContext(ctx)
}
