package catalog

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/sakif/bookreview/internal/apperror"
	"github.com/sakif/bookreview/internal/model"
)

const (
	DefaultPopularLimit = 5
	DefaultRecentLimit  = 10
	favoriteGenreCount  = 3

	deletedBookTitle = "Deleted book"
)

// roundRating rounds to one decimal place: 4.666… → 4.7.
func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

type bookAgg struct {
	count int
	sum   int
}

func (a bookAgg) average() float64 {
	if a.count == 0 {
		return 0
	}
	return roundRating(float64(a.sum) / float64(a.count))
}

// aggregate computes per-book review count and rating sum in one pass.
func aggregate(reviews []model.Review) map[string]bookAgg {
	agg := make(map[string]bookAgg)
	for _, r := range reviews {
		a := agg[r.BookID]
		a.count++
		a.sum += r.Rating
		agg[r.BookID] = a
	}
	return agg
}

func aggregateFor(reviews []model.Review, bookID string) bookAgg {
	var a bookAgg
	for _, r := range reviews {
		if r.BookID == bookID {
			a.count++
			a.sum += r.Rating
		}
	}
	return a
}

// AverageRating is the mean rating of the book's reviews rounded to one
// decimal, or 0 when it has none.
func (s *Store) AverageRating(ctx context.Context, bookID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return 0, err
	}
	return aggregateFor(reviews, bookID).average(), nil
}

// ReviewCount returns how many reviews a book has.
func (s *Store) ReviewCount(ctx context.Context, bookID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return 0, err
	}
	return aggregateFor(reviews, bookID).count, nil
}

// PopularBooks ranks books by review count, then average rating, then
// recency, all descending. limit <= 0 means DefaultPopularLimit.
func (s *Store) PopularBooks(ctx context.Context, limit int) ([]model.RankedBook, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}
	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}

	agg := aggregate(reviews)
	ranked := make([]model.RankedBook, 0, len(books))
	for _, b := range books {
		a := agg[b.ID]
		ranked = append(ranked, model.RankedBook{
			Book:          b,
			ReviewCount:   a.count,
			AverageRating: a.average(),
		})
	}

	slices.SortStableFunc(ranked, func(a, b model.RankedBook) int {
		if c := cmp.Compare(b.ReviewCount, a.ReviewCount); c != 0 {
			return c
		}
		if c := cmp.Compare(b.AverageRating, a.AverageRating); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return ranked[:min(limit, len(ranked))], nil
}

// RecentReviews returns the newest reviews first, annotated with book and
// reviewer names. limit <= 0 means DefaultRecentLimit.
func (s *Store) RecentReviews(ctx context.Context, limit int) ([]model.ReviewView, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}
	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}
	users, err := loadList[model.User](ctx, s, KeyUsers)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(reviews, func(a, b model.Review) int { return b.ReviewDate.Compare(a.ReviewDate) })
	reviews = reviews[:min(limit, len(reviews))]

	views := make([]model.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, annotate(r, books, users))
	}
	return views, nil
}

func annotate(r model.Review, books []model.Book, users []model.User) model.ReviewView {
	v := model.ReviewView{
		Review:       r,
		BookTitle:    deletedBookTitle,
		ReviewerName: findUser(users, r.UserID).DisplayName(),
	}
	if i := findBookIndex(books, r.BookID); i >= 0 {
		v.BookTitle = books[i].Title
		v.BookAuthor = books[i].Author
	}
	return v
}

// UserStats summarises one user's reviews. An empty userID means the current
// user; with nobody logged in that is apperror.ErrUnauthenticated.
func (s *Store) UserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" {
		user, err := s.requireUser(ctx, "view your statistics")
		if err != nil {
			return nil, err
		}
		userID = user.ID
	}

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}
	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}

	stats := &model.UserStats{FavoriteGenres: []model.GenreCount{}}
	sum := 0
	var genres []model.GenreCount
	for _, r := range reviews {
		if r.UserID != userID {
			continue
		}
		stats.TotalReviews++
		sum += r.Rating
		if r.Recommended {
			stats.RecommendedCount++
		}

		i := findBookIndex(books, r.BookID)
		if i < 0 || books[i].Genre == "" {
			continue
		}
		genre := books[i].Genre
		if j := slices.IndexFunc(genres, func(g model.GenreCount) bool { return g.Genre == genre }); j >= 0 {
			genres[j].Count++
		} else {
			genres = append(genres, model.GenreCount{Genre: genre, Count: 1})
		}
	}
	if stats.TotalReviews == 0 {
		return stats, nil
	}

	stats.AverageRating = roundRating(float64(sum) / float64(stats.TotalReviews))

	// Stable: genres with equal counts keep first-seen order.
	slices.SortStableFunc(genres, func(a, b model.GenreCount) int { return cmp.Compare(b.Count, a.Count) })
	stats.FavoriteGenres = append(stats.FavoriteGenres, genres[:min(favoriteGenreCount, len(genres))]...)
	return stats, nil
}

// OverallStats summarises the whole catalog.
func (s *Store) OverallStats(ctx context.Context) (*model.OverallStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}
	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}
	users, err := loadList[model.User](ctx, s, KeyUsers)
	if err != nil {
		return nil, err
	}

	stats := &model.OverallStats{
		TotalBooks:   len(books),
		TotalReviews: len(reviews),
		TotalUsers:   len(users),
	}
	if len(reviews) > 0 {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		stats.AverageRating = roundRating(float64(sum) / float64(len(reviews)))
	}
	return stats, nil
}

// BookDetail returns a book with its reviews (ordered by reviewSort) and
// aggregates. apperror.ErrNotFound when the book does not exist.
func (s *Store) BookDetail(ctx context.Context, id string, reviewSort ReviewSort) (*model.BookDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}
	i := findBookIndex(books, id)
	if i < 0 {
		return nil, apperror.NotFound("book", id)
	}
	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}

	own := reviewsWhere(reviews, func(r model.Review) bool { return r.BookID == id })
	a := aggregateFor(own, id)
	return &model.BookDetail{
		Book:          books[i],
		Reviews:       SortReviews(own, reviewSort),
		ReviewCount:   a.count,
		AverageRating: a.average(),
	}, nil
}
