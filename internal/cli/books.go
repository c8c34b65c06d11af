package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/bookreview/internal/apperror"
	"github.com/sakif/bookreview/internal/catalog"
	"github.com/sakif/bookreview/internal/model"
)

func joinKeys[T ~string](keys []T) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// parseSort accepts "" or one of allowed.
func parseSort[T ~string](value string, allowed []T) (T, error) {
	key := T(value)
	if value == "" || slices.Contains(allowed, key) {
		return key, nil
	}
	return "", apperror.ValidationFailed("sort", fmt.Sprintf("sort must be one of %s", joinKeys(allowed)))
}

// requireLogin returns the session user. Ownership checks need it before the
// store does, so the CLI asks first.
func (a *App) requireLogin(ctx context.Context, action string) (*model.User, error) {
	u, err := a.store.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.Unauthenticated(action)
	}
	return u, nil
}

// ownBook loads a book the current user may change.
func (a *App) ownBook(ctx context.Context, id, action string) (*model.Book, error) {
	user, err := a.requireLogin(ctx, action+" a book")
	if err != nil {
		return nil, err
	}
	book, err := a.store.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.AddedBy != user.ID {
		return nil, apperror.Forbidden("only the reader who added this book can " + action + " it")
	}
	return book, nil
}

func (a *App) bookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Add, change, browse and remove books",
	}
	cmd.AddCommand(
		a.bookAddCommand(),
		a.bookUpdateCommand(),
		a.bookDeleteCommand(),
		a.bookShowCommand(),
		a.bookListCommand(),
		a.bookGenresCommand(),
	)
	return cmd
}

// bookFlags binds the editable book fields to cmd.
func bookFlags(cmd *cobra.Command, in *model.BookInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Author, "author", "", "author")
	cmd.Flags().StringVar(&in.Publisher, "publisher", "", "publisher")
	cmd.Flags().StringVar(&in.Genre, "genre", "", "genre, e.g. Fiction")
	cmd.Flags().StringVar(&in.PublishDate, "publish-date", "", "publication date, e.g. 1919-06-01")
	cmd.Flags().StringVar(&in.Description, "description", "", "short description")
	cmd.Flags().StringVar(&in.CoverImage, "cover", "", "cover image URL")
}

func (a *App) bookAddCommand() *cobra.Command {
	var in model.BookInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book (requires login)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.store.AddBook(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Added %q (%s).\n", b.Title, b.ID)
			return nil
		},
	}
	bookFlags(cmd, &in)
	return cmd
}

func (a *App) bookUpdateCommand() *cobra.Command {
	var in model.BookInput

	cmd := &cobra.Command{
		Use:   "update BOOK_ID",
		Short: "Change fields of a book you added",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.ownBook(ctx, args[0], "edit"); err != nil {
				return err
			}

			var patch model.BookPatch
			set := func(flag string, dst **string, v string) {
				if cmd.Flags().Changed(flag) {
					*dst = &v
				}
			}
			set("title", &patch.Title, in.Title)
			set("author", &patch.Author, in.Author)
			set("publisher", &patch.Publisher, in.Publisher)
			set("genre", &patch.Genre, in.Genre)
			set("publish-date", &patch.PublishDate, in.PublishDate)
			set("description", &patch.Description, in.Description)
			set("cover", &patch.CoverImage, in.CoverImage)
			if patch.IsEmpty() {
				return apperror.ValidationFailed("", "nothing to update: pass at least one field flag")
			}

			b, err := a.store.UpdateBook(ctx, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Updated %q.\n", b.Title)
			return nil
		},
	}
	bookFlags(cmd, &in)
	return cmd
}

func (a *App) bookDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete BOOK_ID",
		Short: "Delete a book you added, with all of its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			book, err := a.ownBook(ctx, args[0], "delete")
			if err != nil {
				return err
			}
			reviews, err := a.store.ReviewCount(ctx, book.ID)
			if err != nil {
				return err
			}
			if _, err := a.store.DeleteBook(ctx, book.ID); err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Deleted %q and %d review(s).\n", book.Title, reviews)
			return nil
		},
	}
}

func (a *App) bookShowCommand() *cobra.Command {
	var sortKey string

	cmd := &cobra.Command{
		Use:   "show BOOK_ID",
		Short: "Show a book with its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseSort(sortKey, catalog.ReviewSorts)
			if err != nil {
				return err
			}
			detail, err := a.store.BookDetail(cmd.Context(), args[0], key)
			if err != nil {
				return err
			}
			return printBookDetail(a.Stdout, detail)
		},
	}
	cmd.Flags().StringVar(&sortKey, "sort", string(catalog.ReviewsNewest), "review order: "+joinKeys(catalog.ReviewSorts))
	return cmd
}

func (a *App) bookListCommand() *cobra.Command {
	var q catalog.BookQuery
	var sortKey string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List, search and sort books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := parseSort(sortKey, catalog.BookSorts)
			if err != nil {
				return err
			}
			q.Sort = key
			books, err := a.store.FindBooks(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printBooks(a.Stdout, books)
		},
	}
	cmd.Flags().StringVarP(&q.Query, "query", "q", "", "match title, author or genre (case-insensitive)")
	cmd.Flags().StringVar(&q.Genre, "genre", "", "exact genre")
	cmd.Flags().StringVar(&sortKey, "sort", string(catalog.SortNewest), "order: "+joinKeys(catalog.BookSorts))
	return cmd
}

func (a *App) bookGenresCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List the genres in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			genres, err := a.store.Genres(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range genres {
				fmt.Fprintln(a.Stdout, g)
			}
			return nil
		},
	}
}
