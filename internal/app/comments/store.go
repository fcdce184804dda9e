package comments

import (
	"context"

	"folio/internal/app/db"
	"folio/internal/app/user"
)

type pgStore struct {
	store *db.Store
}

// NewPostgresStore adapts db.Store to the board's Store.
func NewPostgresStore(store *db.Store) Store {
	return &pgStore{store: store}
}

func fromRow(row db.Comment) Comment {
	c := Comment{
		ID:          row.ID,
		Text:        row.Body,
		AuthorID:    row.AuthorID,
		AuthorName:  row.AuthorName,
		AuthorEmail: row.AuthorEmail,
		Likes:       int(row.LikeCount),
		LikedBy:     row.LikedBy,
	}
	if c.LikedBy == nil {
		c.LikedBy = []string{}
	}
	if row.CreatedAt.Valid {
		c.CreatedAt = row.CreatedAt.Time
	}
	return c
}

func (s *pgStore) Create(ctx context.Context, text string, author *user.User) (*Comment, error) {
	row, err := s.store.CreateComment(ctx, db.CreateCommentParams{
		Body:        text,
		AuthorID:    author.ID,
		AuthorName:  author.Name(),
		AuthorEmail: author.Email,
	})
	if err != nil {
		return nil, err
	}
	c := fromRow(row)
	return &c, nil
}

func (s *pgStore) List(ctx context.Context, limit int) ([]Comment, error) {
	rows, err := s.store.ListComments(ctx, int32(limit))
	if err != nil {
		return nil, err
	}

	out := make([]Comment, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// ToggleLike locks the comment row, flips the (comment, user) membership and recounts,
// all in one transaction.
func (s *pgStore) ToggleLike(ctx context.Context, commentID, userID string) (*Comment, error) {
	var result Comment

	err := s.store.ExecTx(ctx, func(q *db.Queries) error {
		if err := q.LockComment(ctx, commentID); err != nil {
			if db.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}

		removed, err := q.DeleteCommentLike(ctx, commentID, userID)
		if err != nil {
			return err
		}
		if removed == 0 {
			if err := q.InsertCommentLike(ctx, commentID, userID); err != nil {
				return err
			}
		}

		if err := q.RefreshLikeCount(ctx, commentID); err != nil {
			return err
		}

		row, err := q.GetComment(ctx, commentID)
		if err != nil {
			return err
		}
		result = fromRow(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
