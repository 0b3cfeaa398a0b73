package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteReviewCmd = &cobra.Command{
	Use:   "delete-review <novelID>",
	Short: "Delete your review of a novel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := current.svc.DeleteReview(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), env)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Review deleted.")
		return nil
	},
}

var trackProgressCmd = &cobra.Command{
	Use:   "track-progress <chapterID>",
	Short: "Record that you read a chapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := current.svc.TrackReadingProgress(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("track progress: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		if res == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in; progress not recorded.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password <email>",
	Short: "Request a password reset email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := current.svc.ForgotPassword(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("forgot password: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), env)
		}
		return nil
	},
}
