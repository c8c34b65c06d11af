package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/sakif/bookreview/internal/apperror"
	"github.com/sakif/bookreview/internal/model"
)

// =========================================================================
// ADD REVIEW TESTS
// =========================================================================

func TestAddReview_Success(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	u := registerAndLogin(t, s, "kim", "kim@example.com")
	b := addTestBook(t, s, "Demian", "Hermann Hesse", "Fiction")

	r, err := s.AddReview(ctx, b.ID, 4, "  A quiet, strange book. ", false)
	if err != nil {
		t.Fatalf("AddReview() error = %v", err)
	}
	if r.UserID != u.ID || r.BookID != b.ID {
		t.Errorf("review = %+v, want user %s and book %s", r, u.ID, b.ID)
	}
	if r.Content != "A quiet, strange book." {
		t.Errorf("Content = %q, want trimmed", r.Content)
	}
	if r.Recommended {
		t.Error("Recommended = true, want false")
	}

	got, err := s.GetReviewByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReviewByID() error = %v", err)
	}
	if got.Rating != 4 {
		t.Errorf("Rating = %d, want 4", got.Rating)
	}
}

func TestAddReview_DuplicateRejected(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	registerAndLogin(t, s, "kim", "kim@example.com")
	b := addTestBook(t, s, "Demian", "Hermann Hesse", "Fiction")

	addTestReview(t, s, b.ID, 5)

	_, err := s.AddReview(ctx, b.ID, 3, "changed my mind", false)
	if !errors.Is(err, apperror.ErrDuplicateReview) {
		t.Fatalf("second AddReview() error = %v, want ErrDuplicateReview", err)
	}
	// Duplicate review is also a conflict.
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want it to match ErrConflict too", err)
	}

	if n, _ := s.ReviewCount(ctx, b.ID); n != 1 {
		t.Errorf("ReviewCount() = %d, want 1", n)
	}
}

func TestAddReview_Validation(t *testing.T) {
	tests := []struct {
		name      string
		bookID    string
		rating    int
		content   string
		wantField string
	}{
		{"rating too low", "book", 0, "fine", "rating"},
		{"rating too high", "book", 6, "fine", "rating"},
		{"blank content", "book", 3, "   ", "content"},
		{"blank book id", " ", 3, "fine", "bookId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			registerAndLogin(t, s, "kim", "kim@example.com")

			_, err := s.AddReview(context.Background(), tt.bookID, tt.rating, tt.content, true)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("AddReview() error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
		})
	}
}

func TestAddReview_RequiresLogin(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AddReview(context.Background(), "book", 5, "great", true)
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("AddReview() error = %v, want ErrUnauthenticated", err)
	}
}

// =========================================================================
// UPDATE / DELETE REVIEW TESTS
// =========================================================================

func TestUpdateReview_MergesAndRevalidates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	registerAndLogin(t, s, "kim", "kim@example.com")
	b := addTestBook(t, s, "Demian", "Hermann Hesse", "Fiction")
	r := addTestReview(t, s, b.ID, 3)

	updated, err := s.UpdateReview(ctx, r.ID, model.ReviewPatch{Rating: ptr(5), Recommended: ptr(false)})
	if err != nil {
		t.Fatalf("UpdateReview() error = %v", err)
	}
	if updated.Rating != 5 || updated.Recommended {
		t.Errorf("UpdateReview() = %+v, want rating 5 and not recommended", updated)
	}
	if updated.Content != r.Content {
		t.Errorf("Content = %q, want unchanged %q", updated.Content, r.Content)
	}

	_, err = s.UpdateReview(ctx, r.ID, model.ReviewPatch{Rating: ptr(9)})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdateReview(rating 9) error = %v, want ErrValidation", err)
	}
	if avg, _ := s.AverageRating(ctx, b.ID); avg != 5 {
		t.Errorf("AverageRating() = %v, want 5 after rejected update", avg)
	}

	_, err = s.UpdateReview(ctx, "missing", model.ReviewPatch{Rating: ptr(4)})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateReview(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteReview(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	registerAndLogin(t, s, "kim", "kim@example.com")
	b := addTestBook(t, s, "Demian", "Hermann Hesse", "Fiction")
	r := addTestReview(t, s, b.ID, 3)

	removed, err := s.DeleteReview(ctx, r.ID)
	if err != nil || !removed {
		t.Fatalf("DeleteReview() = %v, %v; want true, nil", removed, err)
	}
	removed, err = s.DeleteReview(ctx, r.ID)
	if err != nil || removed {
		t.Errorf("second DeleteReview() = %v, %v; want false, nil", removed, err)
	}

	// With the review gone the user may review the book again.
	addTestReview(t, s, b.ID, 4)
}

func TestReviewsForBookAndUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	kim := registerAndLogin(t, s, "kim", "kim@example.com")
	demian := addTestBook(t, s, "Demian", "Hermann Hesse", "Fiction")
	cosmos := addTestBook(t, s, "Cosmos", "Carl Sagan", "Science")
	addTestReview(t, s, demian.ID, 4)
	addTestReview(t, s, cosmos.ID, 5)

	lee := registerAndLogin(t, s, "lee", "lee@example.com")
	addTestReview(t, s, demian.ID, 2)

	byBook, _ := s.ReviewsForBook(ctx, demian.ID)
	if len(byBook) != 2 {
		t.Errorf("ReviewsForBook(demian) = %d, want 2", len(byBook))
	}
	byKim, _ := s.ReviewsForUser(ctx, kim.ID)
	if len(byKim) != 2 {
		t.Errorf("ReviewsForUser(kim) = %d, want 2", len(byKim))
	}
	byLee, _ := s.ReviewsForUser(ctx, lee.ID)
	if len(byLee) != 1 || byLee[0].Rating != 2 {
		t.Errorf("ReviewsForUser(lee) = %+v, want the single 2-star review", byLee)
	}

	none, _ := s.ReviewsForBook(ctx, "missing")
	if none == nil || len(none) != 0 {
		t.Errorf("ReviewsForBook(missing) = %#v, want empty non-nil", none)
	}
}

// =========================================================================
// SORT REVIEWS TESTS
// =========================================================================

func TestSortReviews(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reviews := []model.Review{
		{ID: "a", Rating: 3, ReviewDate: base.Add(2 * time.Hour)},
		{ID: "b", Rating: 5, ReviewDate: base},
		{ID: "c", Rating: 3, ReviewDate: base.Add(time.Hour)},
		{ID: "d", Rating: 1, ReviewDate: base.Add(3 * time.Hour)},
	}

	tests := []struct {
		key  ReviewSort
		want []string
	}{
		{ReviewsNewest, []string{"d", "a", "c", "b"}},
		{ReviewsOldest, []string{"b", "c", "a", "d"}},
		{ReviewsRatingHigh, []string{"b", "a", "c", "d"}},
		{ReviewsRatingLow, []string{"d", "a", "c", "b"}},
		{"unknown", []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := SortReviews(reviews, tt.key)
			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.ID
			}
			if !slices.Equal(ids, tt.want) {
				t.Errorf("SortReviews(%q) = %v, want %v", tt.key, ids, tt.want)
			}
		})
	}

	if reviews[0].ID != "a" {
		t.Error("SortReviews mutated its input")
	}
}
