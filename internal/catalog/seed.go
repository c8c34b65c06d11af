package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/bookreview/internal/apperror"
	"github.com/sakif/bookreview/internal/model"
)

// SamplePassword is the password of every sample user.
const SamplePassword = "password123"

var sampleUsers = []struct{ username, email string }{
	{"bookworm_kim", "kim@example.com"},
	{"reader_lee", "lee@example.com"},
	{"reviewer_park", "park@example.com"},
}

var sampleBooks = []model.BookInput{
	{Title: "Clean Code", Author: "Robert C. Martin", Publisher: "Prentice Hall", Genre: "Computers", Description: "A handbook of agile software craftsmanship"},
	{Title: "Demian", Author: "Hermann Hesse", Publisher: "S. Fischer", Genre: "Fiction", Description: "A classic coming-of-age novel"},
	{Title: "The 7 Habits of Highly Effective People", Author: "Stephen R. Covey", Publisher: "Free Press", Genre: "Self-help", Description: "Principles for a more effective life"},
	{Title: "Sapiens", Author: "Yuval Noah Harari", Publisher: "Harper", Genre: "History", Description: "A brief history of humankind"},
	{Title: "Cosmos", Author: "Carl Sagan", Publisher: "Random House", Genre: "Science", Description: "A personal voyage through the universe"},
}

var sampleReviewTexts = []string{
	"A genuinely great book. Highly recommended!",
	"An engaging read. I would happily read it again.",
	"Plenty to think about long after the last page.",
	"Easy to read, yet surprisingly deep.",
	"Even better than I expected.",
}

// SeedSampleData fills an empty catalog with three sample users, five books
// and one review per book from a randomly chosen sample user (4 or 5 stars,
// recommended 70% of the time). It does nothing and returns false when the
// catalog already has books. The session in place before seeding is restored.
func (s *Store) SeedSampleData(ctx context.Context) (seeded bool, err error) {
	books, err := s.ListBooks(ctx)
	if err != nil {
		return false, err
	}
	if len(books) > 0 {
		return false, nil
	}

	previous, err := s.CurrentUser(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if restoreErr := s.switchSession(ctx, previous); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	users := make([]model.User, 0, len(sampleUsers))
	for _, su := range sampleUsers {
		u, err := s.Register(ctx, su.username, su.email, SamplePassword)
		if errors.Is(err, apperror.ErrDuplicateEmail) {
			u, err = s.userByEmail(ctx, su.email)
		}
		if err != nil {
			return false, fmt.Errorf("catalog: seeding user %s: %w", su.email, err)
		}
		users = append(users, *u)
	}

	if err := s.switchSession(ctx, &users[0]); err != nil {
		return false, err
	}
	added := make([]*model.Book, 0, len(sampleBooks))
	for _, in := range sampleBooks {
		b, err := s.AddBook(ctx, in)
		if err != nil {
			return false, fmt.Errorf("catalog: seeding book %q: %w", in.Title, err)
		}
		added = append(added, b)
	}

	for _, b := range added {
		reviewer := users[s.randIntN(len(users))]
		if err := s.switchSession(ctx, &reviewer); err != nil {
			return false, err
		}
		rating := 4 + s.randIntN(2)
		text := sampleReviewTexts[s.randIntN(len(sampleReviewTexts))]
		recommended := s.randIntN(10) >= 3
		if _, err := s.AddReview(ctx, b.ID, rating, text, recommended); err != nil {
			return false, fmt.Errorf("catalog: seeding review for %q: %w", b.Title, err)
		}
	}

	s.logger.Info("sample data seeded",
		slog.Int("users", len(users)),
		slog.Int("books", len(added)),
	)
	return true, nil
}

func (s *Store) switchSession(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setSession(ctx, user)
}

func (s *Store) userByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadList[model.User](ctx, s, KeyUsers)
	if err != nil {
		return nil, err
	}
	u := findUserByEmail(users, normalizeEmail(email))
	if u == nil {
		return nil, apperror.NotFound("user", email)
	}
	found := *u
	return &found, nil
}

func (s *Store) randIntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
