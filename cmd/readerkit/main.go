// Command readerkit reads and writes the reading platform API through the
// query cache.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/novelhub/readerkit/internal/config"
)

var (
	// configFile is set by the --config flag.
	configFile string
	// jsonOutput is set by the --json flag.
	jsonOutput bool
	// showStats is set by the --stats flag.
	showStats bool

	current *app
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// PersistentPostRunE is skipped when a command fails.
		_ = closeApp(rootCmd)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "readerkit",
	Short: "Client for the novel reading platform API",
	Long: `readerkit calls the reading platform API through a shared query cache.
Reads are cached per key and mutations invalidate the keys they affect.

Configuration is read from READERKIT_* environment variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file underneath READERKIT_* variables")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "print query cache counters to stderr")

	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(competitionNovelsCmd)
	rootCmd.AddCommand(participationsCmd)
	rootCmd.AddCommand(privilegeCmd)
	rootCmd.AddCommand(deleteReviewCmd)
	rootCmd.AddCommand(trackProgressCmd)
	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(cacheClearCmd)
}

func initApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	current = a
	return nil
}

func closeApp(cmd *cobra.Command) error {
	if current == nil {
		return nil
	}
	a := current
	current = nil
	if showStats {
		if err := writeJSON(cmd.ErrOrStderr(), a.metrics.Totals()); err != nil {
			return err
		}
	}
	return a.close(context.WithoutCancel(cmd.Context()))
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
