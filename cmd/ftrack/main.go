package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grovetools/ftrack/cli"
	"github.com/grovetools/ftrack/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		_ = cli.NewErrorHandler(os.Stderr, verbose).Handle(err)
		stop()
		os.Exit(1)
	}
}
