package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Row types mirror the tables; ids are scanned as text.
type User struct {
	ID           string
	Email        string
	DisplayName  pgtype.Text
	Provider     string
	PasswordHash pgtype.Text
	CreatedAt    pgtype.Timestamptz
	LastLoginAt  pgtype.Timestamptz
}

type Session struct {
	ID        string
	UserID    string
	CreatedAt pgtype.Timestamptz
	ExpiresAt pgtype.Timestamptz
	RevokedAt pgtype.Timestamptz
}

// Comment is a comments row plus the ids of the users who liked it.
type Comment struct {
	ID          string
	Body        string
	AuthorID    string
	AuthorName  string
	AuthorEmail string
	LikeCount   int32
	CreatedAt   pgtype.Timestamptz
	LikedBy     []string
}
