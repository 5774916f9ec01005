package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/filmx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(runner).Run(ctx, os.Args)
	stop()

	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}

	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotImplemented):
		logger.Warn("not implemented")
		os.Exit(0)
	case errors.Is(err, shared.ErrNotAuthenticated):
		logger.Error("not signed in", "hint", "run `filmx auth login`")
		os.Exit(1)
	default:
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command. --config and --verbose are read by every subcommand.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "filmx",
		Usage:   "Keep track of the films you have seen and the ones still to watch",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output",
			},
		},
		Commands: r.register(),
	}
}
