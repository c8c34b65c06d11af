package catalog

import (
	"context"
	"log/slog"

	"github.com/sakif/bookreview/internal/model"
)

// Export reads the whole catalog, session included.
func (s *Store) Export(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadList[model.User](ctx, s, KeyUsers)
	if err != nil {
		return nil, err
	}
	books, err := loadList[model.Book](ctx, s, KeyBooks)
	if err != nil {
		return nil, err
	}
	reviews, err := loadList[model.Review](ctx, s, KeyReviews)
	if err != nil {
		return nil, err
	}
	current, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Snapshot{
		Users:       users,
		Books:       books,
		Reviews:     reviews,
		CurrentUser: current,
	}, nil
}

// Import replaces every collection and the session with the snapshot's.
// Orphans in the snapshot are kept; run ValidateIntegrity afterwards to
// drop them.
func (s *Store) Import(ctx context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := saveList(ctx, s, KeyUsers, snap.Users); err != nil {
		return err
	}
	if err := saveList(ctx, s, KeyBooks, snap.Books); err != nil {
		return err
	}
	if err := saveList(ctx, s, KeyReviews, snap.Reviews); err != nil {
		return err
	}
	if err := s.setSession(ctx, snap.CurrentUser); err != nil {
		return err
	}

	s.logger.Info("catalog imported",
		slog.Int("users", len(snap.Users)),
		slog.Int("books", len(snap.Books)),
		slog.Int("reviews", len(snap.Reviews)),
	)
	return nil
}
