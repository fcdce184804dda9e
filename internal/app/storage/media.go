package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"folio/internal/pkg/errs"
)

const (
	// PresignedURLDuration is how long a handed-out media URL stays valid.
	PresignedURLDuration = 15 * time.Minute

	// URLs are reissued once less than this much validity is left.
	reissueMargin = 2 * time.Minute
)

var (
	ErrMediaUnavailable = errs.NewError(errs.ErrMediaUnavailable)
	ErrMediaFailed      = errs.NewError(errs.ErrMediaFailed)
)

// Media hands out presigned URLs for the page's background track.
type Media struct {
	store    StorageService
	musicKey string
	now      func() time.Time

	mu      sync.Mutex
	url     string
	expires time.Time
}

// NewMedia serves musicKey from store. A nil store makes every lookup ErrMediaUnavailable.
func NewMedia(store StorageService, musicKey string) *Media {
	return &Media{store: store, musicKey: musicKey, now: time.Now}
}

// Available reports whether a track can be served at all.
func (m *Media) Available() bool {
	return m != nil && m.store != nil && m.musicKey != ""
}

// MusicURL returns a presigned URL for the background track, reusing one that is still fresh.
func (m *Media) MusicURL(ctx context.Context) (string, error) {
	if !m.Available() {
		return "", ErrMediaUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.url != "" && now.Add(reissueMargin).Before(m.expires) {
		return m.url, nil
	}

	url, err := m.store.PresignDownload(ctx, m.musicKey, PresignedURLDuration)
	if err != nil {
		return "", ErrMediaFailed
	}

	m.url = url
	m.expires = now.Add(PresignedURLDuration)
	return url, nil
}

// MusicInfo returns the stored object's content type and length.
func (m *Media) MusicInfo(ctx context.Context) (map[string]string, error) {
	if !m.Available() {
		return nil, ErrMediaUnavailable
	}

	info, err := m.store.GetObjectMetadata(ctx, m.musicKey)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, ErrMediaUnavailable
	}
	if err != nil {
		return nil, ErrMediaFailed
	}
	return info, nil
}
