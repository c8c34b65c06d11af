package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sakif/bookreview/internal/catalog"
	"github.com/sakif/bookreview/internal/model"
)

func (a *App) popularCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Show the most reviewed books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.store.PopularBooks(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRanked(a.Stdout, books)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", catalog.DefaultPopularLimit, "how many books")
	return cmd
}

func (a *App) recentCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the latest reviews across the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views, err := a.store.RecentReviews(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printReviewViews(a.Stdout, views)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", catalog.DefaultRecentLimit, "how many reviews")
	return cmd
}

func (a *App) statsCommand() *cobra.Command {
	var (
		userID string
		mine   bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals, or one reader's statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if mine {
				u, err := a.requireLogin(ctx, "view your statistics")
				if err != nil {
					return err
				}
				userID = u.ID
			}

			if userID == "" {
				st, err := a.store.OverallStats(ctx)
				if err != nil {
					return err
				}
				tw := newTable(a.Stdout)
				fmt.Fprintf(tw, "books:\t%d\n", st.TotalBooks)
				fmt.Fprintf(tw, "reviews:\t%d\n", st.TotalReviews)
				fmt.Fprintf(tw, "readers:\t%d\n", st.TotalUsers)
				fmt.Fprintf(tw, "average rating:\t%.1f\n", st.AverageRating)
				return tw.Flush()
			}

			u, err := a.store.GetUserByID(ctx, userID)
			if err != nil {
				return err
			}
			st, err := a.store.UserStats(ctx, u.ID)
			if err != nil {
				return err
			}
			return printUserStats(a.Stdout, u, st)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "reader id")
	cmd.Flags().BoolVar(&mine, "mine", false, "your own statistics")
	cmd.MarkFlagsMutuallyExclusive("user", "mine")
	return cmd
}

func printUserStats(w io.Writer, u *model.User, st *model.UserStats) error {
	fmt.Fprintf(w, "%s, reading since %s\n\n", u.Username, formatDate(u.JoinDate))
	tw := newTable(w)
	fmt.Fprintf(tw, "reviews:\t%d\n", st.TotalReviews)
	fmt.Fprintf(tw, "average rating:\t%.1f\n", st.AverageRating)
	fmt.Fprintf(tw, "recommended:\t%d\n", st.RecommendedCount)
	for i, g := range st.FavoriteGenres {
		label := ""
		if i == 0 {
			label = "favorite genres:"
		}
		fmt.Fprintf(tw, "%s\t%s (%d)\n", label, g.Genre, g.Count)
	}
	return tw.Flush()
}
