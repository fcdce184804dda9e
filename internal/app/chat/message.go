/*
Package chat is the persona chat assistant: it keeps a short per-session history, asks a
completion API for a reply in the site owner's voice and falls back to canned answers
whenever that is not possible.
*/
package chat

import (
	"time"

	"folio/internal/pkg/errs"
)

// Role is who wrote a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source tells where a reply came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// MaxMessageLength caps a visitor message, in runes.
const MaxMessageLength = 2000

var (
	ErrEmpty        = errs.NewError(errs.ErrEmptyContent)
	ErrAuthRequired = errs.NewError(errs.ErrUnauthorized)
	ErrDisabled     = errs.NewError(errs.ErrChatDisabled)
	ErrTooLong      = errs.NewError(errs.ErrInvalidParams)
)

// Message is one chat turn.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Reply is the assistant's answer to one visitor message.
type Reply struct {
	Content   string    `json:"content"`
	Source    Source    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}
