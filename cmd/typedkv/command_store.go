package main

import (
	"fmt"
	"io"
	"os"

	"github.com/picatz/typedstorage/internal/shell"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (a *app) keysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every key in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := a.storage.AllKeys(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), styleFaint.Render("(no keys)"))
				return nil
			}
			for _, key := range keys {
				fmt.Fprintln(out, key)
			}
			return nil
		},
	}
}

// terminalWidth returns the width of w if it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, false
	}
	return width, true
}

func (a *app) dumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every key and value as a markdown table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := shell.Dump(cmd.Context(), a.storage)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			// Render for humans, but keep plain markdown when piped.
			if width, ok := terminalWidth(out); ok {
				rendered, err := shell.RenderMarkdown(table, "dark", width)
				if err != nil {
					return err
				}
				table = rendered
			}

			_, err = io.WriteString(out, table)
			return err
		},
	}
}

func (a *app) clearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every key from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the %s store without --yes", a.cfg.Backend)
			}

			if err := a.storage.Clear(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), styleWarning.Render("Removed every key from the "+a.cfg.Backend+" store."))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm removing every key")

	return cmd
}

func (a *app) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Long:  "Start an interactive session. Type " + styleBold.Render("help") + " inside it to list commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, restore, err := shell.NewSession(cmd.Context(), a.storage, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("failed to create shell session: %w", err)
			}
			defer restore()

			session.Run(cmd.Context())
			return nil
		},
	}
}
