package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/bookreview/internal/apperror"
	"github.com/sakif/bookreview/internal/auth"
	"github.com/sakif/bookreview/internal/model"
	"github.com/sakif/bookreview/internal/repository"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func findUserByEmail(users []model.User, email string) *model.User {
	for i := range users {
		if users[i].Email == email {
			return &users[i]
		}
	}
	return nil
}

func findUser(users []model.User, id string) *model.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

func passwordTooLong() error {
	return apperror.ValidationFailed("password",
		fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
}

// Register creates a user. Emails are unique case-insensitively; a second
// registration with the same email fails with apperror.ErrDuplicateEmail and
// leaves the user list unchanged.
func (s *Store) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	in := registration{
		Username: strings.TrimSpace(username),
		Email:    normalizeEmail(email),
		Password: password,
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, passwordTooLong()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadList[model.User](ctx, s, KeyUsers)
	if err != nil {
		return nil, err
	}
	if findUserByEmail(users, in.Email) != nil {
		return nil, apperror.DuplicateEmail(in.Email)
	}

	stored, err := s.passwords.Hash(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, passwordTooLong()
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: registering %s: %w", in.Email, err)
	}

	user := model.User{
		ID:       s.newID(),
		Username: in.Username,
		Email:    in.Email,
		Password: stored,
		JoinDate: s.now(),
	}
	users = append(users, user)
	if err := saveList(ctx, s, KeyUsers, users); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return &user, nil
}

// Login checks the credentials and, on success, makes the user the current
// session. Unknown email and wrong password are indistinguishable to the
// caller: both are apperror.ErrInvalidCredentials.
func (s *Store) Login(ctx context.Context, email, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadList[model.User](ctx, s, KeyUsers)
	if err != nil {
		return nil, err
	}

	found := findUserByEmail(users, normalizeEmail(email))
	if found == nil {
		return nil, apperror.InvalidCredentials()
	}
	if err := s.passwords.Verify(found.Password, password); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("catalog: verifying password for %s: %w", found.Email, err)
	}

	user := *found
	if err := s.setSession(ctx, &user); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &user, nil
}

// Logout clears the session. Logging out while anonymous is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setSession(ctx, nil)
}

// CurrentUser returns the logged-in user, or nil when anonymous.
func (s *Store) CurrentUser(ctx context.Context) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentUser(ctx)
}

// EmailAvailable reports whether email could still be registered.
func (s *Store) EmailAvailable(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadList[model.User](ctx, s, KeyUsers)
	if err != nil {
		return false, err
	}
	return findUserByEmail(users, normalizeEmail(email)) == nil, nil
}

// GetUserByID returns apperror.ErrNotFound when no user has that id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadList[model.User](ctx, s, KeyUsers)
	if err != nil {
		return nil, err
	}
	u := findUser(users, id)
	if u == nil {
		return nil, apperror.NotFound("user", id)
	}
	found := *u
	return &found, nil
}

// currentUser reads the session key. Callers hold s.mu.
func (s *Store) currentUser(ctx context.Context) (*model.User, error) {
	raw, err := s.kv.Get(ctx, KeyCurrentUser)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: loading session: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		s.logger.Warn("stored session is corrupt, treating as anonymous")
		return nil, nil
	}
	return &user, nil
}

// setSession writes (or, with nil, clears) the session key. Callers hold s.mu.
func (s *Store) setSession(ctx context.Context, user *model.User) error {
	if user == nil {
		if err := s.kv.Delete(ctx, KeyCurrentUser); err != nil {
			return fmt.Errorf("catalog: clearing session: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("catalog: encoding session: %w", err)
	}
	if err := s.kv.Set(ctx, KeyCurrentUser, raw); err != nil {
		return fmt.Errorf("catalog: saving session: %w", err)
	}
	return nil
}

// requireUser returns the session user or apperror.ErrUnauthenticated.
// Callers hold s.mu.
func (s *Store) requireUser(ctx context.Context, action string) (*model.User, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthenticated(action)
	}
	return user, nil
}
