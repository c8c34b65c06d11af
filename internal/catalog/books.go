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

// BookSort names an ordering accepted by SortBooks.
type BookSort string

const (
	SortNewest  BookSort = "newest"
	SortOldest  BookSort = "oldest"
	SortTitle   BookSort = "title"
	SortAuthor  BookSort = "author"
	SortRating  BookSort = "rating"
	SortReviewCount BookSort = "reviews"
)

// BookSorts lists the accepted keys, for help text and flag validation.
var BookSorts = []BookSort{SortNewest, SortOldest, SortTitle, SortAuthor, SortRating, SortReviewCount}

func findBookIndex(books []model.Book, id string) int {
	return slices.IndexFunc(books, func(b model.Book) bool { return b.ID == id })
}

// AddBook creates a book owned by the current user.
// Title and author are required after trimming.
func (s *Store) AddBook(ctx context.Context, in model.BookInput) (*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.requireUser(ctx, "add a book")
	if err != nil {
		return nil, err
	}

	in = model.BookInput{
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		Publisher:   strings.TrimSpace(in.Publisher),
		Genre:       strings.TrimSpace(in.Genre),
		PublishDate: strings.TrimSpace(in.PublishDate),
		Description: strings.TrimSpace(in.Description),
		CoverImage:  strings.TrimSpace(in.CoverImage),
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}

	book := model.Book{
		ID:          s.newID(),
		Title:       in.Title,
		Author:      in.Author,
		Publisher:   in.Publisher,
		Genre:       in.Genre,
		PublishDate: in.PublishDate,
		Description: in.Description,
		CoverImage:  in.CoverImage,
		AddedBy:     user.ID,
		CreatedAt:   s.now(),
	}
	books = append(books, book)
	if err := saveList(ctx, s, KeyBooks, books); err != nil {
		return nil, err
	}

	s.logger.Info("book added",
		slog.String("bookID", book.ID),
		slog.String("title", book.Title),
		slog.String("addedBy", user.ID),
	)
	return &book, nil
}

// UpdateBook merges the non-nil patch fields into the book.
// Returns apperror.ErrNotFound if no book has that id. Title and author may
// be changed but not blanked.
func (s *Store) UpdateBook(ctx context.Context, id string, patch model.BookPatch) (*model.Book, error) {
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

	b := books[i]
	if patch.Title != nil {
		if b.Title = strings.TrimSpace(*patch.Title); b.Title == "" {
			return nil, apperror.ValidationFailed("title", "title is required")
		}
	}
	if patch.Author != nil {
		if b.Author = strings.TrimSpace(*patch.Author); b.Author == "" {
			return nil, apperror.ValidationFailed("author", "author is required")
		}
	}
	if patch.Publisher != nil {
		b.Publisher = strings.TrimSpace(*patch.Publisher)
	}
	if patch.Genre != nil {
		b.Genre = strings.TrimSpace(*patch.Genre)
	}
	if patch.PublishDate != nil {
		b.PublishDate = strings.TrimSpace(*patch.PublishDate)
	}
	if patch.Description != nil {
		b.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.CoverImage != nil {
		b.CoverImage = strings.TrimSpace(*patch.CoverImage)
	}

	books[i] = b
	if err := saveList(ctx, s, KeyBooks, books); err != nil {
		return nil, err
	}

	s.logger.Info("book updated", slog.String("bookID", b.ID))
	return &b, nil
}

// DeleteBook removes the book and every review of it. It reports whether a
// book was actually removed.
func (s *Store) DeleteBook(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return false, err
	}
	total := len(books)
	books = slices.DeleteFunc(books, func(b model.Book) bool { return b.ID == id })
	if len(books) == total {
		return false, nil
	}
	if err := saveList(ctx, s, KeyBooks, books); err != nil {
		return false, err
	}

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return true, err
	}
	before := len(reviews)
	reviews = slices.DeleteFunc(reviews, func(r model.Review) bool { return r.BookID == id })
	if removed := before - len(reviews); removed > 0 {
		if err := saveList(ctx, s, KeyReviews, reviews); err != nil {
			return true, err
		}
	}

	s.logger.Info("book deleted",
		slog.String("bookID", id),
		slog.Int("reviewsRemoved", before-len(reviews)),
	)
	return true, nil
}

// GetBookByID returns apperror.ErrNotFound when no book has that id.
func (s *Store) GetBookByID(ctx context.Context, id string) (*model.Book, error) {
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
	b := books[i]
	return &b, nil
}

// ListBooks returns every book in stored order.
func (s *Store) ListBooks(ctx context.Context) ([]model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadList[model.Book](ctx, s, KeyBooks)
}

// SearchBooks matches query case-insensitively against title, author and
// genre. A blank query returns every book.
func (s *Store) SearchBooks(ctx context.Context, query string) ([]model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return books, nil
	}

	matches := make([]model.Book, 0, len(books))
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Genre), q) {
			matches = append(matches, b)
		}
	}
	return matches, nil
}

// FilterByGenre returns books whose genre equals genre exactly.
// An empty genre returns every book.
func (s *Store) FilterByGenre(ctx context.Context, genre string) ([]model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}
	if genre == "" {
		return books, nil
	}
	return filterGenre(books, genre), nil
}

func filterGenre(books []model.Book, genre string) []model.Book {
	out := make([]model.Book, 0, len(books))
	for _, b := range books {
		if b.Genre == genre {
			out = append(out, b)
		}
	}
	return out
}

// Genres returns the distinct non-empty genres, sorted.
func (s *Store) Genres(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}
	genres := make([]string, 0)
	for _, b := range books {
		if b.Genre != "" && !slices.Contains(genres, b.Genre) {
			genres = append(genres, b.Genre)
		}
	}
	slices.Sort(genres)
	return genres, nil
}

// SortBooks returns a sorted copy of books. The sort is stable, so books
// that compare equal keep their input order. An empty or unknown key
// returns the books in input order.
//
// rating and reviews sort by the computed aggregate, highest first.
func (s *Store) SortBooks(ctx context.Context, books []model.Book, key BookSort) ([]model.Book, error) {
	sorted := slices.Clone(books)

	switch key {
	case SortNewest:
		slices.SortStableFunc(sorted, func(a, b model.Book) int { return b.CreatedAt.Compare(a.CreatedAt) })
	case SortOldest:
		slices.SortStableFunc(sorted, func(a, b model.Book) int { return a.CreatedAt.Compare(b.CreatedAt) })
	case SortTitle:
		slices.SortStableFunc(sorted, func(a, b model.Book) int { return strings.Compare(a.Title, b.Title) })
	case SortAuthor:
		slices.SortStableFunc(sorted, func(a, b model.Book) int { return strings.Compare(a.Author, b.Author) })
	case SortRating, SortReviewCount:
		s.mu.Lock()
		reviews, err := loadList[model.Review](ctx, s, KeyReviews)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		agg := aggregate(reviews)
		if key == SortRating {
			slices.SortStableFunc(sorted, func(a, b model.Book) int {
				return cmp.Compare(agg[b.ID].average(), agg[a.ID].average())
			})
		} else {
			slices.SortStableFunc(sorted, func(a, b model.Book) int {
				return cmp.Compare(agg[b.ID].count, agg[a.ID].count)
			})
		}
	}
	return sorted, nil
}

// BookQuery is a list view: text search, then exact genre, then sort.
// Zero fields are ignored.
type BookQuery struct {
	Query string
	Genre string
	Sort  BookSort
}

// FindBooks applies q the way the list views do.
func (s *Store) FindBooks(ctx context.Context, q BookQuery) ([]model.Book, error) {
	books, err := s.SearchBooks(ctx, q.Query)
	if err != nil {
		return nil, err
	}
	if q.Genre != "" {
		books = filterGenre(books, q.Genre)
	}
	return s.SortBooks(ctx, books, q.Sort)
}
