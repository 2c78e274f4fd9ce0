package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd, a := newRootCommand(openStore)

	if err := run(context.Background(), rootCmd, a); err != nil {
		os.Exit(1)
	}
}

// run executes rootCmd and then closes the store. fang prints command
// errors, so only a failure to close is written here.
func run(ctx context.Context, rootCmd *cobra.Command, a *app) error {
	err := fang.Execute(ctx, rootCmd)
	if closeErr := a.disconnect(); closeErr != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "failed to close store: %v\n", closeErr)
		if err == nil {
			err = closeErr
		}
	}
	return err
}
