package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/sma-adp-client/internal/app"
	"github.com/noah-isme/sma-adp-client/internal/cli"
	"github.com/noah-isme/sma-adp-client/pkg/config"
	"github.com/noah-isme/sma-adp-client/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(open, cli.TerminalPrompt)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}

// open assembles the client from the environment for one command. Background
// refetch workers are not started; a command is a single round of calls.
func open(ctx context.Context, verbose bool) (*cli.Console, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logr, err := logger.NewCLI(verbose)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		return nil, err
	}
	return &cli.Console{
		Auth:     a.Auth,
		Teachers: a.Teachers,
		Students: a.Students,
		Parents:  a.Parents,
		Exports:  a.Exports,
		Close: func() error {
			defer logr.Sync() //nolint:errcheck
			return a.Close()
		},
	}, nil
}
