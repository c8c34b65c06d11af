package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sakif/bookreview/internal/model"
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

// stars renders a 1..5 rating as "★★★☆☆".
func stars(rating int) string {
	rating = max(model.MinRating-1, min(rating, model.MaxRating))
	return strings.Repeat("★", rating) + strings.Repeat("☆", model.MaxRating-rating)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printBooks(w io.Writer, books []model.Book) error {
	if len(books) == 0 {
		_, err := fmt.Fprintln(w, "No books found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tADDED")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, orDash(b.Genre), formatDate(b.CreatedAt))
	}
	return tw.Flush()
}

func printRanked(w io.Writer, books []model.RankedBook) error {
	if len(books) == 0 {
		_, err := fmt.Fprintln(w, "No books yet.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tTITLE\tAUTHOR\tREVIEWS\tRATING")
	for i, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.1f\n", i+1, b.Title, b.Author, b.ReviewCount, b.AverageRating)
	}
	return tw.Flush()
}

func printReviews(w io.Writer, reviews []model.Review) error {
	if len(reviews) == 0 {
		_, err := fmt.Fprintln(w, "No reviews yet.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tBOOK\tRATING\tRECOMMENDED\tDATE\tREVIEW")
	for _, r := range reviews {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.BookID, stars(r.Rating), yesNo(r.Recommended), formatDate(r.ReviewDate), r.Content)
	}
	return tw.Flush()
}

func printReviewViews(w io.Writer, views []model.ReviewView) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No reviews yet.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tREADER\tBOOK\tRATING\tREVIEW")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", formatDate(v.ReviewDate), v.ReviewerName, v.BookTitle, stars(v.Rating), v.Content)
	}
	return tw.Flush()
}

func printBookDetail(w io.Writer, d *model.BookDetail) error {
	b := d.Book
	fmt.Fprintf(w, "%s\nby %s\n\n", b.Title, b.Author)
	tw := newTable(w)
	fmt.Fprintf(tw, "id:\t%s\n", b.ID)
	fmt.Fprintf(tw, "genre:\t%s\n", orDash(b.Genre))
	fmt.Fprintf(tw, "publisher:\t%s\n", orDash(b.Publisher))
	fmt.Fprintf(tw, "published:\t%s\n", orDash(b.PublishDate))
	fmt.Fprintf(tw, "rating:\t%.1f (%d reviews)\n", d.AverageRating, d.ReviewCount)
	if err := tw.Flush(); err != nil {
		return err
	}
	if b.Description != "" {
		fmt.Fprintf(w, "\n%s\n", b.Description)
	}
	fmt.Fprintln(w)
	return printReviews(w, d.Reviews)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
