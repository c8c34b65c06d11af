package catalog

import (
	"context"
	"log/slog"

	"github.com/sakif/bookreview/internal/model"
)

// ValidateIntegrity removes reviews whose book or author no longer exists
// and returns how many were removed. Nothing is written when every review
// resolves. Open runs it once at start-up.
func (s *Store) ValidateIntegrity(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return 0, err
	}
	if len(reviews) == 0 {
		return 0, nil
	}
	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return 0, err
	}
	users, err := loadList[model.User](ctx, s, KeyUsers)
	if err != nil {
		return 0, err
	}

	bookIDs := make(map[string]struct{}, len(books))
	for _, b := range books {
		bookIDs[b.ID] = struct{}{}
	}
	userIDs := make(map[string]struct{}, len(users))
	for _, u := range users {
		userIDs[u.ID] = struct{}{}
	}

	valid := reviewsWhere(reviews, func(r model.Review) bool {
		_, okBook := bookIDs[r.BookID]
		_, okUser := userIDs[r.UserID]
		return okBook && okUser
	})
	removed := len(reviews) - len(valid)
	if removed == 0 {
		return 0, nil
	}
	if err := saveList(ctx, s, KeyReviews, valid); err != nil {
		return 0, err
	}

	s.logger.Warn("removed orphaned reviews", slog.Int("count", removed))
	return removed, nil
}
