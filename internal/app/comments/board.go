package comments

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"folio/internal/app/user"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/metrics"
)

// DefaultListLimit bounds how many comments a snapshot carries.
const DefaultListLimit = 200

// Store persists comments. ToggleLike must flip membership and recount likes atomically.
type Store interface {
	Create(ctx context.Context, text string, author *user.User) (*Comment, error)
	List(ctx context.Context, limit int) ([]Comment, error)
	ToggleLike(ctx context.Context, commentID, userID string) (*Comment, error)
}

// Snapshot is the full comment list published after every change.
// When loading failed, Err is set and Comments is empty.
type Snapshot struct {
	Comments []Comment
	Err      error
	At       time.Time
}

// Options configures a Board.
type Options struct {
	Limit   int
	Metrics *metrics.Collector
	Now     func() time.Time
}

// Board is the comment board service shared by the HTTP handlers and the live hub.
type Board struct {
	store   Store
	limit   int
	metrics *metrics.Collector
	now     func() time.Time

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	// publishMu orders snapshot loads and their delivery.
	publishMu sync.Mutex
	current   *Snapshot

	subMu     sync.RWMutex
	listeners map[int]func(Snapshot)
	nextID    int

	logger zerolog.Logger
}

func NewBoard(store Store, opts Options) *Board {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Board{
		store:     store,
		limit:     opts.Limit,
		metrics:   opts.Metrics,
		now:       opts.Now,
		inflight:  make(map[string]struct{}),
		listeners: make(map[int]func(Snapshot)),
		logger:    logx.Component("comments"),
	}
}

// Submit posts text as author. Blank text and anonymous authors never reach the store.
func (b *Board) Submit(ctx context.Context, text string, author *user.User) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}
	if author == nil {
		return nil, ErrAuthRequired
	}
	if utf8.RuneCountInString(text) > MaxLength {
		return nil, ErrTooLong
	}

	if !b.begin(author.ID) {
		return nil, ErrInProgress
	}
	defer b.end(author.ID)

	created, err := b.store.Create(ctx, text, author)
	if err != nil {
		b.logger.Error().Err(err).Str("user_id", author.ID).Msg("posting comment")
		return nil, ErrPostFailed
	}

	b.metrics.CommentCreated()
	b.logger.Info().Str("comment_id", created.ID).Str("user_id", author.ID).Msg("comment posted")

	b.Refresh(context.WithoutCancel(ctx))
	return created, nil
}

// ToggleLike likes the comment for u, or removes the like if u already liked it.
func (b *Board) ToggleLike(ctx context.Context, commentID string, u *user.User) (*Comment, error) {
	if u == nil {
		return nil, ErrAuthRequired
	}

	updated, err := b.store.ToggleLike(ctx, commentID, u.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		b.logger.Error().Err(err).Str("comment_id", commentID).Msg("toggling like")
		return nil, ErrLikeFailed
	}

	b.metrics.LikeToggled(updated.IsLikedBy(u.ID))

	b.Refresh(context.WithoutCancel(ctx))
	return updated, nil
}

// List loads the comments newest first.
func (b *Board) List(ctx context.Context) ([]Comment, error) {
	list, err := b.store.List(ctx, b.limit)
	if err != nil {
		b.logger.Error().Err(err).Msg("loading comments")
		return nil, ErrLoadFailed
	}
	return list, nil
}

// Snapshot returns the last published snapshot, reloading when there is none or it failed.
func (b *Board) Snapshot(ctx context.Context) Snapshot {
	b.publishMu.Lock()
	current := b.current
	b.publishMu.Unlock()

	if current != nil && current.Err == nil {
		return *current
	}
	return b.Refresh(ctx)
}

// Refresh reloads the list, replaces the cached snapshot and delivers it to every subscriber.
func (b *Board) Refresh(ctx context.Context) Snapshot {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	snap := Snapshot{At: b.now()}
	list, err := b.List(ctx)
	if err != nil {
		snap.Err = err
		snap.Comments = []Comment{}
	} else {
		snap.Comments = list
	}
	b.current = &snap

	b.subMu.RLock()
	fns := make([]func(Snapshot), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.subMu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
	return snap
}

// Subscribe registers fn for every published snapshot and returns the unsubscribe func.
// fn must not block and must not call back into the Board.
func (b *Board) Subscribe(fn func(Snapshot)) func() {
	b.subMu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.listeners, id)
			b.subMu.Unlock()
		})
	}
}

func (b *Board) begin(userID string) bool {
	b.inflightMu.Lock()
	defer b.inflightMu.Unlock()

	if _, busy := b.inflight[userID]; busy {
		return false
	}
	b.inflight[userID] = struct{}{}
	return true
}

func (b *Board) end(userID string) {
	b.inflightMu.Lock()
	delete(b.inflight, userID)
	b.inflightMu.Unlock()
}
