package main

import (
	"encoding/json"
	"fmt"

	"github.com/picatz/typedstorage"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// rawKey addresses a stored value without committing to its shape.
func rawKey(name string) typedstorage.Key[json.RawMessage] {
	return typedstorage.NewKey[json.RawMessage](name)
}

func (a *app) getCommand() *cobra.Command {
	var pathExpr string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			text, ok, err := a.storage.GetKey(cmd.Context(), key)
			if err != nil {
				return err
			}
			if !ok {
				return &typedstorage.NotFoundError{Key: key}
			}

			if pathExpr != "" {
				result := gjson.Get(text, pathExpr)
				if !result.Exists() {
					return fmt.Errorf("path %q not found in value of %q", pathExpr, key)
				}
				text = result.Raw
			}

			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathExpr, "path-expr", "p", "", "print only the part of the value at this gjson path, e.g. address.city")

	return cmd
}

func (a *app) setCommand() *cobra.Command {
	var (
		at  string
		raw bool
	)

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a JSON value under a key",
		Long: "Store a JSON value under a key, replacing what was there.\n\n" +
			"With --at, only the field at that path is replaced, creating the value if needed.\n" +
			"With --raw, the value is stored as given, without JSON validation.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if raw {
				if at != "" {
					return fmt.Errorf("--raw and --at cannot be combined")
				}
				return a.storage.SetKey(cmd.Context(), key, value)
			}

			if !gjson.Valid(value) {
				return fmt.Errorf("value for %q is not valid JSON", key)
			}

			if at != "" {
				current, ok, err := a.storage.GetKey(cmd.Context(), key)
				if err != nil {
					return err
				}
				if !ok {
					current = "{}"
				}

				value, err = sjson.SetRaw(current, at, value)
				if err != nil {
					return fmt.Errorf("failed to set %q in value of %q: %w", at, key, err)
				}
			}

			return a.storage.SetKey(cmd.Context(), key, value)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "replace only the field at this sjson path")
	cmd.Flags().BoolVar(&raw, "raw", false, "store the value as plain text")

	return cmd
}

func (a *app) putCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put <value>",
		Short: "Store a JSON value under a new, time-sortable key and print the key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !gjson.Valid(args[0]) {
				return fmt.Errorf("value is not valid JSON")
			}

			// A K-Sortable Unique IDentifier, so keys list in creation order
			// on backends that sort keys.
			key := ksuid.New().String()

			if err := a.storage.SetKey(cmd.Context(), key, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func (a *app) mergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <key> <object>",
		Short: "Deep merge a JSON object into the value under a key",
		Long: "Deep merge a JSON object into the value under a key.\n\n" +
			"Nested objects merge field by field; arrays, scalars and null replace.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := typedstorage.ParsePatch(args[1])
			if err != nil {
				return fmt.Errorf("invalid patch for %q: %w", args[0], err)
			}

			return typedstorage.MergeItem(cmd.Context(), a.storage, rawKey(args[0]), patch)
		},
	}
}

func (a *app) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <key>...",
		Aliases: []string{"remove", "del"},
		Short:   "Remove one or more keys",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.storage.RemoveKey(cmd.Context(), args[0])
			}

			keys := make([]typedstorage.AnyKey, 0, len(args))
			for _, arg := range args {
				keys = append(keys, rawKey(arg))
			}
			return a.storage.MultiRemove(cmd.Context(), keys...)
		},
	}
}
