package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novelhub/readerkit/internal/query"
)

var cacheClearCmd = &cobra.Command{
	Use:   "cache-clear",
	Short: "Drop every cached query and the stored snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n := current.cache.Remove(query.Key{})
		if current.persister != nil {
			if err := current.persister.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear snapshot: %w", err)
			}
			// nothing left worth saving
			current.persister = nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached queries.\n", n)
		return nil
	},
}
