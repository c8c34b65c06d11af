package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/bookreview/internal/apperror"
	"github.com/sakif/bookreview/internal/catalog"
	"github.com/sakif/bookreview/internal/model"
)

// ownReview loads a review the current user wrote.
func (a *App) ownReview(ctx context.Context, id, action string) (*model.Review, error) {
	user, err := a.requireLogin(ctx, action+" a review")
	if err != nil {
		return nil, err
	}
	r, err := a.store.GetReviewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != user.ID {
		return nil, apperror.Forbidden("you can only " + action + " your own reviews")
	}
	return r, nil
}

func (a *App) reviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Write, change and browse reviews",
	}
	cmd.AddCommand(
		a.reviewAddCommand(),
		a.reviewUpdateCommand(),
		a.reviewDeleteCommand(),
		a.reviewListCommand(),
	)
	return cmd
}

func (a *App) reviewAddCommand() *cobra.Command {
	var (
		rating      int
		content     string
		recommended bool
	)

	cmd := &cobra.Command{
		Use:   "add BOOK_ID",
		Short: "Review a book (one review per book per reader)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// The store accepts any book id; check here so a typo is an error
			// rather than an orphan the next integrity pass deletes.
			book, err := a.store.GetBookByID(ctx, args[0])
			if err != nil {
				return err
			}
			r, err := a.store.AddReview(ctx, book.ID, rating, content, recommended)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Reviewed %q: %s (%s).\n", book.Title, stars(r.Rating), r.ID)
			return nil
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "stars, 1 to 5")
	cmd.Flags().StringVar(&content, "content", "", "review text")
	cmd.Flags().BoolVar(&recommended, "recommend", false, "recommend the book to other readers")
	requireFlags(cmd, "rating", "content")
	return cmd
}

func (a *App) reviewUpdateCommand() *cobra.Command {
	var (
		rating      int
		content     string
		recommended bool
	)

	cmd := &cobra.Command{
		Use:   "update REVIEW_ID",
		Short: "Change one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.ownReview(ctx, args[0], "edit"); err != nil {
				return err
			}

			var patch model.ReviewPatch
			if cmd.Flags().Changed("rating") {
				patch.Rating = &rating
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			if cmd.Flags().Changed("recommend") {
				patch.Recommended = &recommended
			}
			if patch.Rating == nil && patch.Content == nil && patch.Recommended == nil {
				return apperror.ValidationFailed("", "nothing to update: pass --rating, --content or --recommend")
			}

			r, err := a.store.UpdateReview(ctx, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Updated review %s: %s.\n", r.ID, stars(r.Rating))
			return nil
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "stars, 1 to 5")
	cmd.Flags().StringVar(&content, "content", "", "review text")
	cmd.Flags().BoolVar(&recommended, "recommend", false, "recommend the book (use --recommend=false to withdraw)")
	return cmd
}

func (a *App) reviewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete REVIEW_ID",
		Short: "Delete one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.ownReview(ctx, args[0], "delete"); err != nil {
				return err
			}
			if _, err := a.store.DeleteReview(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.Stdout, "Review deleted.")
			return nil
		},
	}
}

func (a *App) reviewListCommand() *cobra.Command {
	var (
		bookID  string
		mine    bool
		sortKey string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the reviews of a book (--book) or your own (--mine)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			key, err := parseSort(sortKey, catalog.ReviewSorts)
			if err != nil {
				return err
			}

			var reviews []model.Review
			if mine {
				user, err := a.requireLogin(ctx, "list your reviews")
				if err != nil {
					return err
				}
				reviews, err = a.store.ReviewsForUser(ctx, user.ID)
				if err != nil {
					return err
				}
			} else {
				reviews, err = a.store.ReviewsForBook(ctx, bookID)
				if err != nil {
					return err
				}
			}
			return printReviews(a.Stdout, catalog.SortReviews(reviews, key))
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "book id")
	cmd.Flags().BoolVar(&mine, "mine", false, "your own reviews")
	cmd.Flags().StringVar(&sortKey, "sort", string(catalog.ReviewsNewest), "order: "+joinKeys(catalog.ReviewSorts))
	cmd.MarkFlagsMutuallyExclusive("book", "mine")
	cmd.MarkFlagsOneRequired("book", "mine")
	return cmd
}
