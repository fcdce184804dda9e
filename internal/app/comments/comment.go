/*
Package comments implements the public comment board: posting, liking, the live snapshot
feed and the HTML fragment the page embeds.
*/
package comments

import (
	"slices"
	"strconv"
	"time"

	"folio/internal/app/user"
	"folio/internal/pkg/errs"
)

// MaxLength is the comment limit in characters (runes), after trimming.
const MaxLength = 500

var (
	ErrEmpty        = errs.NewError(errs.ErrEmptyContent)
	ErrAuthRequired = errs.NewError(errs.ErrUnauthorized)
	ErrTooLong      = errs.NewError(errs.ErrCommentTooLong, MaxLength)
	ErrInProgress   = errs.NewError(errs.ErrSubmitInProgress)
	ErrNotFound     = errs.NewError(errs.ErrCommentNotFound)
	ErrPostFailed   = errs.NewError(errs.ErrCommentPostFailed)
	ErrLikeFailed   = errs.NewError(errs.ErrLikeUpdateFailed)
	ErrLoadFailed   = errs.NewError(errs.ErrCommentsLoadFailed)
)

// Comment is one stored comment. Likes always equals len(LikedBy).
type Comment struct {
	ID          string
	Text        string
	AuthorID    string
	AuthorName  string
	AuthorEmail string
	CreatedAt   time.Time
	Likes       int
	LikedBy     []string
}

// IsLikedBy reports whether the user with id has liked the comment.
func (c *Comment) IsLikedBy(userID string) bool {
	return userID != "" && slices.Contains(c.LikedBy, userID)
}

// View is the public shape of a comment for one viewer. The author's email is never exposed.
type View struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
	TimeAgo    string    `json:"timeAgo"`
	Likes      int       `json:"likes"`
	LikedByMe  bool      `json:"likedByMe"`
}

// Views projects comments for viewer (nil for anonymous) at now.
func Views(list []Comment, viewer *user.User, now time.Time) []View {
	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID
	}

	out := make([]View, 0, len(list))
	for i := range list {
		c := &list[i]
		out = append(out, View{
			ID:         c.ID,
			Text:       c.Text,
			AuthorName: c.AuthorName,
			CreatedAt:  c.CreatedAt,
			TimeAgo:    TimeAgo(c.CreatedAt, now),
			Likes:      c.Likes,
			LikedByMe:  c.IsLikedBy(viewerID),
		})
	}
	return out
}

// TimeAgo formats t relative to now the way the comment list shows it.
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "Just now"
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return strconv.Itoa(int(d/time.Minute)) + "m ago"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d/time.Hour)) + "h ago"
	case d < 7*24*time.Hour:
		return strconv.Itoa(int(d/(24*time.Hour))) + "d ago"
	}
	return t.In(now.Location()).Format("1/2/2006")
}
