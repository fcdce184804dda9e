package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// --- users ---

const userColumns = `id::text, email, display_name, provider, password_hash, created_at, last_login_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Provider, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

type CreateUserParams struct {
	Email        string
	DisplayName  pgtype.Text
	Provider     string
	PasswordHash pgtype.Text
}

const createUser = `
INSERT INTO users (email, display_name, provider, password_hash, last_login_at)
VALUES ($1, $2, $3, $4, now())
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser, arg.Email, arg.DisplayName, arg.Provider, arg.PasswordHash))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1::uuid`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

// UpsertFederatedUser links a federated identity to the account with the same email,
// creating the account when none exists. A missing display name is filled in, never overwritten.
const upsertFederatedUser = `
INSERT INTO users (email, display_name, provider, last_login_at)
VALUES ($1, $2, $3, now())
ON CONFLICT ((lower(email))) DO UPDATE
SET display_name  = COALESCE(users.display_name, EXCLUDED.display_name),
    last_login_at = now()
RETURNING ` + userColumns

func (q *Queries) UpsertFederatedUser(ctx context.Context, email string, displayName pgtype.Text, provider string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, upsertFederatedUser, email, displayName, provider))
}

const updateLastLogin = `UPDATE users SET last_login_at = now() WHERE id = $1::uuid`

func (q *Queries) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, updateLastLogin, id)
	return err
}

// --- sessions ---

const sessionColumns = `id::text, user_id::text, created_at, expires_at, revoked_at`

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &s.RevokedAt)
	return s, err
}

const createSession = `
INSERT INTO sessions (user_id, expires_at)
VALUES ($1::uuid, $2)
RETURNING ` + sessionColumns

func (q *Queries) CreateSession(ctx context.Context, userID string, expiresAt time.Time) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, createSession, userID, pgtype.Timestamptz{Time: expiresAt, Valid: true}))
}

const getActiveSession = `
SELECT ` + sessionColumns + ` FROM sessions
WHERE id = $1::uuid AND revoked_at IS NULL AND expires_at > now()`

func (q *Queries) GetActiveSession(ctx context.Context, id string) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, getActiveSession, id))
}

const revokeSession = `UPDATE sessions SET revoked_at = now() WHERE id = $1::uuid AND revoked_at IS NULL`

// RevokeSession reports how many sessions were revoked (0 when already revoked or unknown).
func (q *Queries) RevokeSession(ctx context.Context, id string) (int64, error) {
	tag, err := q.db.Exec(ctx, revokeSession, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at < $1`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredSessions, pgtype.Timestamptz{Time: before, Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- comments ---

const commentSelect = `
SELECT c.id::text, c.body, c.author_id::text, c.author_name, c.author_email, c.like_count, c.created_at,
       COALESCE(array_agg(l.user_id::text ORDER BY l.created_at) FILTER (WHERE l.user_id IS NOT NULL), '{}')::text[]
FROM comments c
LEFT JOIN comment_likes l ON l.comment_id = c.id`

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.Body, &c.AuthorID, &c.AuthorName, &c.AuthorEmail, &c.LikeCount, &c.CreatedAt, &c.LikedBy)
	return c, err
}

type CreateCommentParams struct {
	Body        string
	AuthorID    string
	AuthorName  string
	AuthorEmail string
}

const createComment = `
INSERT INTO comments (body, author_id, author_name, author_email)
VALUES ($1, $2::uuid, $3, $4)
RETURNING id::text, body, author_id::text, author_name, author_email, like_count, created_at, '{}'::text[]`

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	return scanComment(q.db.QueryRow(ctx, createComment, arg.Body, arg.AuthorID, arg.AuthorName, arg.AuthorEmail))
}

const getComment = commentSelect + `
WHERE c.id = $1::uuid
GROUP BY c.id`

func (q *Queries) GetComment(ctx context.Context, id string) (Comment, error) {
	return scanComment(q.db.QueryRow(ctx, getComment, id))
}

const listComments = commentSelect + `
GROUP BY c.id
ORDER BY c.created_at DESC, c.id
LIMIT $1`

func (q *Queries) ListComments(ctx context.Context, limit int32) ([]Comment, error) {
	rows, err := q.db.Query(ctx, listComments, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const lockComment = `SELECT id::text FROM comments WHERE id = $1::uuid FOR UPDATE`

// LockComment takes a row lock so concurrent like toggles on one comment serialize.
func (q *Queries) LockComment(ctx context.Context, id string) error {
	var got string
	return q.db.QueryRow(ctx, lockComment, id).Scan(&got)
}

const deleteCommentLike = `DELETE FROM comment_likes WHERE comment_id = $1::uuid AND user_id = $2::uuid`

func (q *Queries) DeleteCommentLike(ctx context.Context, commentID, userID string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCommentLike, commentID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const insertCommentLike = `
INSERT INTO comment_likes (comment_id, user_id) VALUES ($1::uuid, $2::uuid)
ON CONFLICT DO NOTHING`

func (q *Queries) InsertCommentLike(ctx context.Context, commentID, userID string) error {
	_, err := q.db.Exec(ctx, insertCommentLike, commentID, userID)
	return err
}

const refreshLikeCount = `
UPDATE comments
SET like_count = (SELECT count(*) FROM comment_likes WHERE comment_id = $1::uuid)
WHERE id = $1::uuid`

func (q *Queries) RefreshLikeCount(ctx context.Context, commentID string) error {
	_, err := q.db.Exec(ctx, refreshLikeCount, commentID)
	return err
}
