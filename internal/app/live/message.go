/*
Package live pushes the page's live state over WebSocket: comment snapshots, auth-state
changes and chat replies. One Hub serves every socket; each socket is a Client with its own
read and write pumps.
*/
package live

import (
	"encoding/json"
	"time"

	"folio/internal/app/chat"
	"folio/internal/app/comments"
	"folio/internal/app/user"
)

// FrameType identifies a socket frame.
type FrameType string

const (
	// server -> client
	TypeInit             FrameType = "init"
	TypeCommentsSnapshot FrameType = "comments.snapshot"
	TypeCommentsError    FrameType = "comments.error"
	TypeAuthState        FrameType = "auth.state"
	TypeChatTyping       FrameType = "chat.typing"
	TypeChatReply        FrameType = "chat.reply"
	TypeError            FrameType = "error"

	// client -> server
	TypeAuthBind FrameType = "auth.bind"
	TypeChatSend FrameType = "chat.send"
)

// Frame is the envelope of every message on the socket.
type Frame struct {
	Type      FrameType `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	ReplyTo   string    `json:"replyTo,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// inboundFrame is what clients send; Payload is decoded per type.
type inboundFrame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	ID      string          `json:"id,omitempty"`
}

type InitPayload struct {
	User          *user.User      `json:"user"`
	CanPost       bool            `json:"canPost"`
	ChatEnabled   bool            `json:"chatEnabled"`
	Comments      []comments.View `json:"comments"`
	CommentsError string          `json:"commentsError,omitempty"`
	History       []chat.Message  `json:"history,omitempty"`
}

type SnapshotPayload struct {
	Comments []comments.View `json:"comments"`
}

type AuthStatePayload struct {
	SignedIn bool       `json:"signedIn"`
	CanPost  bool       `json:"canPost"`
	User     *user.User `json:"user"`
}

type AuthBindPayload struct {
	Token string `json:"token"`
}

type ChatSendPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newFrame(t FrameType, payload any) Frame {
	return Frame{Type: t, Payload: payload, Timestamp: time.Now().UnixMilli()}
}
