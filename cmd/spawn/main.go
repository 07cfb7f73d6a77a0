package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grovetools/spawn/cli"
	"github.com/grovetools/spawn/cmd"
)

func main() {
	cli.InitializeColor()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cmd.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		handler := cli.NewErrorHandler(verbose)
		handler.Out = rootCmd.ErrOrStderr()
		_ = handler.Handle(err)
		os.Exit(1)
	}
}
