package handler

import (
	"context"

	"folio/internal/app/auth"
	"folio/internal/app/chat"
	"folio/internal/app/comments"
	"folio/internal/app/live"
	"folio/internal/app/storage"
	"folio/internal/configs"
	"folio/internal/pkg/metrics"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type AppDeps struct {
	Config   *configs.AppConfig
	Auth     *auth.Gateway
	Comments *comments.Board
	Chat     *chat.Responder
	Hub      *live.Hub
	Media    *storage.Media
	Metrics  *metrics.Collector
	DB       Pinger

	// Owner is the site owner's name, used in the empty comment list.
	Owner string
}
