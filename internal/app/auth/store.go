package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"folio/internal/app/db"
	"folio/internal/app/user"
)

var (
	// ErrNotFound is returned by a Store when the account or session does not exist.
	ErrNotFound = errors.New("auth: not found")

	// ErrDuplicate is returned by a Store when the email is already registered.
	ErrDuplicate = errors.New("auth: duplicate account")
)

// Account is a user together with the stored password hash (empty for federated accounts).
type Account struct {
	User         user.User
	PasswordHash string
}

// Store is the persistence the Gateway needs.
type Store interface {
	CreatePasswordAccount(ctx context.Context, email, passwordHash string) (*user.User, error)
	AccountByEmail(ctx context.Context, email string) (*Account, error)
	UpsertFederated(ctx context.Context, email, displayName, provider string) (*user.User, error)
	TouchLogin(ctx context.Context, userID string) error

	CreateSession(ctx context.Context, userID string, expiresAt time.Time) (string, error)
	// ActiveSessionUser resolves a live (not revoked, not expired) session to its user.
	ActiveSessionUser(ctx context.Context, sessionID string) (*user.User, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

type pgStore struct {
	store *db.Store
}

// NewPostgresStore adapts the shared db.Store to the gateway's Store.
func NewPostgresStore(store *db.Store) Store {
	return &pgStore{store: store}
}

func toUser(row db.User) *user.User {
	u := &user.User{
		ID:          row.ID,
		Email:       row.Email,
		DisplayName: row.DisplayName.String,
		Provider:    row.Provider,
	}
	if row.LastLoginAt.Valid {
		u.LastLoginAt = row.LastLoginAt.Time
	}
	return u
}

func (s *pgStore) CreatePasswordAccount(ctx context.Context, email, passwordHash string) (*user.User, error) {
	row, err := s.store.CreateUser(ctx, db.CreateUserParams{
		Email:        email,
		Provider:     user.ProviderPassword,
		PasswordHash: pgtype.Text{String: passwordHash, Valid: true},
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return toUser(row), nil
}

func (s *pgStore) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	row, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Account{User: *toUser(row), PasswordHash: row.PasswordHash.String}, nil
}

func (s *pgStore) UpsertFederated(ctx context.Context, email, displayName, provider string) (*user.User, error) {
	name := pgtype.Text{String: displayName, Valid: displayName != ""}
	row, err := s.store.UpsertFederatedUser(ctx, email, name, provider)
	if err != nil {
		return nil, err
	}
	return toUser(row), nil
}

func (s *pgStore) TouchLogin(ctx context.Context, userID string) error {
	return s.store.UpdateLastLogin(ctx, userID)
}

func (s *pgStore) CreateSession(ctx context.Context, userID string, expiresAt time.Time) (string, error) {
	session, err := s.store.CreateSession(ctx, userID, expiresAt)
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

func (s *pgStore) ActiveSessionUser(ctx context.Context, sessionID string) (*user.User, error) {
	session, err := s.store.GetActiveSession(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	row, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toUser(row), nil
}

func (s *pgStore) RevokeSession(ctx context.Context, sessionID string) error {
	n, err := s.store.RevokeSession(ctx, sessionID)
	if err != nil {
		if db.IsInvalidInput(err) {
			return ErrNotFound
		}
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
