package catalog

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/sakif/bookreview/internal/apperror"
	"github.com/sakif/bookreview/internal/model"
)

// ReviewSort names an ordering accepted by SortReviews.
type ReviewSort string

const (
	ReviewsNewest     ReviewSort = "newest"
	ReviewsOldest     ReviewSort = "oldest"
	ReviewsRatingHigh ReviewSort = "rating-high"
	ReviewsRatingLow  ReviewSort = "rating-low"
)

// ReviewSorts lists the accepted review orderings.
var ReviewSorts = []ReviewSort{ReviewsNewest, ReviewsOldest, ReviewsRatingHigh, ReviewsRatingLow}

func reviewsWhere(reviews []model.Review, keep func(model.Review) bool) []model.Review {
	out := make([]model.Review, 0)
	for _, r := range reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// AddReview records the current user's review of a book. A user reviews a
// book at most once; the second attempt is apperror.ErrDuplicateReview.
//
// The book is not looked up: a review of a missing book is an orphan that
// ValidateIntegrity removes.
func (s *Store) AddReview(ctx context.Context, bookID string, rating int, content string, recommended bool) (*model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.requireUser(ctx, "write a review")
	if err != nil {
		return nil, err
	}

	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, apperror.ValidationFailed("bookId", "bookId is required")
	}
	in := reviewInput{Rating: rating, Content: strings.TrimSpace(content)}
	if err := s.check(in); err != nil {
		return nil, err
	}

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(reviews, func(r model.Review) bool {
		return r.BookID == bookID && r.UserID == user.ID
	}) {
		return nil, apperror.DuplicateReview(bookID)
	}

	review := model.Review{
		ID:          s.newID(),
		BookID:      bookID,
		UserID:      user.ID,
		Rating:      in.Rating,
		Content:     in.Content,
		Recommended: recommended,
		ReviewDate:  s.now(),
	}
	reviews = append(reviews, review)
	if err := saveList(ctx, s, KeyReviews, reviews); err != nil {
		return nil, err
	}

	s.logger.Info("review added",
		slog.String("reviewID", review.ID),
		slog.String("bookID", bookID),
		slog.String("userID", user.ID),
		slog.Int("rating", review.Rating),
	)
	return &review, nil
}

// UpdateReview merges the non-nil patch fields into the review.
// Returns apperror.ErrNotFound if no review has that id.
func (s *Store) UpdateReview(ctx context.Context, id string, patch model.ReviewPatch) (*model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(reviews, func(r model.Review) bool { return r.ID == id })
	if i < 0 {
		return nil, apperror.NotFound("review", id)
	}

	r := reviews[i]
	if patch.Rating != nil {
		r.Rating = *patch.Rating
	}
	if patch.Content != nil {
		r.Content = strings.TrimSpace(*patch.Content)
	}
	if patch.Recommended != nil {
		r.Recommended = *patch.Recommended
	}
	if err := s.check(reviewInput{Rating: r.Rating, Content: r.Content}); err != nil {
		return nil, err
	}

	reviews[i] = r
	if err := saveList(ctx, s, KeyReviews, reviews); err != nil {
		return nil, err
	}

	s.logger.Info("review updated", slog.String("reviewID", r.ID))
	return &r, nil
}

// DeleteReview reports whether a review was removed.
func (s *Store) DeleteReview(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return false, err
	}
	before := len(reviews)
	reviews = slices.DeleteFunc(reviews, func(r model.Review) bool { return r.ID == id })
	if len(reviews) == before {
		return false, nil
	}
	if err := saveList(ctx, s, KeyReviews, reviews); err != nil {
		return false, err
	}

	s.logger.Info("review deleted", slog.String("reviewID", id))
	return true, nil
}

// GetReviewByID returns apperror.ErrNotFound when no review has that id.
func (s *Store) GetReviewByID(ctx context.Context, id string) (*model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(reviews, func(r model.Review) bool { return r.ID == id })
	if i < 0 {
		return nil, apperror.NotFound("review", id)
	}
	r := reviews[i]
	return &r, nil
}

// ReviewsForBook returns a book's reviews in stored order.
func (s *Store) ReviewsForBook(ctx context.Context, bookID string) ([]model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}
	return reviewsWhere(reviews, func(r model.Review) bool { return r.BookID == bookID }), nil
}

// ReviewsForUser returns the reviews a user wrote, in stored order.
func (s *Store) ReviewsForUser(ctx context.Context, userID string) ([]model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}
	return reviewsWhere(reviews, func(r model.Review) bool { return r.UserID == userID }), nil
}

// SortReviews returns a stably sorted copy. An empty or unknown key keeps
// the input order.
func SortReviews(reviews []model.Review, key ReviewSort) []model.Review {
	sorted := slices.Clone(reviews)
	switch key {
	case ReviewsNewest:
		slices.SortStableFunc(sorted, func(a, b model.Review) int { return b.ReviewDate.Compare(a.ReviewDate) })
	case ReviewsOldest:
		slices.SortStableFunc(sorted, func(a, b model.Review) int { return a.ReviewDate.Compare(b.ReviewDate) })
	case ReviewsRatingHigh:
		slices.SortStableFunc(sorted, func(a, b model.Review) int { return cmp.Compare(b.Rating, a.Rating) })
	case ReviewsRatingLow:
		slices.SortStableFunc(sorted, func(a, b model.Review) int { return cmp.Compare(a.Rating, b.Rating) })
	}
	return sorted
}
