package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/kikitori/internal/cli"
	"codeberg.org/snonux/kikitori/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// The processor opens the store and speaker lazily, after flags and
	// config have been parsed
	proc := processor.NewProcessor(flags)
	rootCmd := cli.CreateRootCommand(flags, proc)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Ctrl-C stops a running play or quiz session
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if closeErr := proc.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close word database: %v\n", closeErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
