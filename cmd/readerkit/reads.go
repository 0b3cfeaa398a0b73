package main

import (
	"fmt"
	"io"
	"log"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/novelhub/readerkit/internal/api"
	"github.com/novelhub/readerkit/internal/reader"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters <novelID>",
	Short: "List the chapters of a novel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := current.svc
		chapters, err := reader.Get(cmd.Context(), svc, svc.NovelChapters(args[0]))
		if err != nil {
			return fmt.Errorf("get chapters: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), chapters)
		}
		w := table(cmd.OutOrStdout())
		fmt.Fprintln(w, "#\tID\tTITLE")
		for _, c := range chapters {
			fmt.Fprintf(w, "%d\t%s\t%s\n", c.ChapterNumber, c.ID, c.Title)
		}
		return w.Flush()
	},
}

var (
	sortBy       string
	pageNumber   int
	pageSize     int
	prefetchNext bool
)

var competitionNovelsCmd = &cobra.Command{
	Use:   "competition-novels <competitionID>",
	Short: "List one page of a competition's novels",
	Long: `List one page of the novels entered in a competition.

Example:
  readerkit competition-novels c42 --sort votes --page 2 --size 10
  readerkit competition-novels c42 --prefetch-next --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := current.svc
		params := api.CompetitionNovelsParams{SortBy: sortBy, PageNumber: pageNumber, PageSize: pageSize}
		page, err := reader.Get(cmd.Context(), svc, svc.CompetitionNovels(args[0], params))
		if err != nil {
			return fmt.Errorf("get competition novels: %w", err)
		}
		if prefetchNext {
			next := params.Normalize()
			if next.PageNumber*next.PageSize < page.TotalCount {
				next.PageNumber++
				if _, err := svc.CompetitionNovels(args[0], next).Get(cmd.Context(), svc.Cache); err != nil {
					log.Printf("prefetch page %d: %v", next.PageNumber, err)
				}
			}
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), page)
		}
		w := table(cmd.OutOrStdout())
		fmt.Fprintln(w, "RANK\tID\tTITLE\tAUTHOR\tVOTES")
		for _, n := range page.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", n.Rank, n.ID, n.Title, n.AuthorName, n.Votes)
		}
		fmt.Fprintf(w, "\t\t%d total\t\t\n", page.TotalCount)
		return w.Flush()
	},
}

func init() {
	competitionNovelsCmd.Flags().StringVar(&sortBy, "sort", "", "sort order understood by the API")
	competitionNovelsCmd.Flags().IntVar(&pageNumber, "page", api.DefaultPageNumber, "page number")
	competitionNovelsCmd.Flags().IntVar(&pageSize, "size", api.DefaultPageSize, "page size")
	competitionNovelsCmd.Flags().BoolVar(&prefetchNext, "prefetch-next", false, "also cache the following page")
}

var participationsCmd = &cobra.Command{
	Use:   "participations",
	Short: "List the competitions you entered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := current.svc
		ctx := cmd.Context()
		list, err := reader.Get(ctx, svc, svc.MyParticipations(ctx))
		if err != nil {
			return fmt.Errorf("get participations: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), list)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No participations.")
			return nil
		}
		w := table(cmd.OutOrStdout())
		fmt.Fprintln(w, "COMPETITION\tNOVEL\tJOINED")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.CompetitionTitle, p.NovelTitle, p.JoinedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

var privilegeCmd = &cobra.Command{
	Use:   "privilege <novelID>",
	Short: "Show what you may do with a novel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := current.svc
		p, err := reader.Get(cmd.Context(), svc, svc.NovelPrivilege(args[0]))
		if err != nil {
			return fmt.Errorf("get privilege: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), p)
		}
		out := cmd.OutOrStdout()
		if p == nil {
			fmt.Fprintln(out, "No privileges.")
			return nil
		}
		fmt.Fprintf(out, "Role:     %s\n", p.Role)
		fmt.Fprintf(out, "Edit:     %t\n", p.CanEdit)
		fmt.Fprintf(out, "Publish:  %t\n", p.CanPublish)
		fmt.Fprintf(out, "Delete:   %t\n", p.CanDelete)
		return nil
	},
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
