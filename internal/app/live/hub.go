package live

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"folio/internal/app/auth"
	"folio/internal/app/chat"
	"folio/internal/app/comments"
	"folio/internal/app/user"
	"folio/internal/pkg/auth/jwt"
	"folio/internal/pkg/errs"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/metrics"
)

const authEventBuffer = 64

// CommentFeed is the part of comments.Board the hub uses.
type CommentFeed interface {
	Snapshot(ctx context.Context) comments.Snapshot
	Subscribe(fn func(comments.Snapshot)) func()
}

// AuthFeed is the part of auth.Gateway the hub uses.
type AuthFeed interface {
	Verify(ctx context.Context, token string) (*jwt.Payload, error)
	Subscribe(fn func(auth.Event)) func()
}

// ChatService is the part of chat.Responder the hub uses.
type ChatService interface {
	Enabled() bool
	Send(ctx context.Context, sessionID string, u *user.User, message string) (*chat.Reply, error)
	History(sessionID string) []chat.Message
}

type directFrame struct {
	client *Client
	frame  Frame
}

// Hub owns every connected Client. All writes to client queues happen on the run loop.
type Hub struct {
	comments CommentFeed
	auth     AuthFeed
	chat     ChatService
	metrics  *metrics.Collector
	now      func() time.Time

	clients map[*Client]struct{}
	latest  comments.Snapshot
	count   atomic.Int64

	register   chan *Client
	unregister chan *Client
	snapshots  chan comments.Snapshot
	authEvents chan auth.Event
	direct     chan directFrame
	refreshes  chan *Client

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	unsubscribe []func()
	started     atomic.Bool
	stopOnce    sync.Once

	logger zerolog.Logger
}

// NewHub wires the hub to its feeds. Call Start to begin serving.
func NewHub(feed CommentFeed, authFeed AuthFeed, chatService ChatService, m *metrics.Collector) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		comments:   feed,
		auth:       authFeed,
		chat:       chatService,
		metrics:    m,
		now:        time.Now,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		snapshots:  make(chan comments.Snapshot, 1),
		authEvents: make(chan auth.Event, authEventBuffer),
		direct:     make(chan directFrame, 256),
		refreshes:  make(chan *Client, 16),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		logger:     logx.Component("live"),
	}
}

// Start subscribes to the feeds, loads the first snapshot and runs the loop.
func (h *Hub) Start(ctx context.Context) {
	if !h.started.CompareAndSwap(false, true) {
		return
	}

	// subscribe before loading so a write landing in between is queued, not lost.
	h.unsubscribe = append(h.unsubscribe,
		h.comments.Subscribe(h.offerSnapshot),
		h.auth.Subscribe(h.offerAuthEvent),
	)

	h.latest = h.comments.Snapshot(ctx)

	go h.run()
	h.logger.Info().Msg("Live hub started.")
}

// Shutdown unsubscribes from the feeds and closes every socket.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		for _, unsubscribe := range h.unsubscribe {
			unsubscribe()
		}
		h.cancel()
		if !h.started.Load() {
			close(h.done)
		}
	})
	<-h.done
	h.logger.Info().Msg("Live hub stopped.")
}

// ClientCount is the number of registered sockets.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Serve runs the socket until it disconnects. It blocks on the read loop.
func (h *Hub) Serve(conn *websocket.Conn, u *user.User, sessionID string) {
	client := NewClient(h, conn, u, sessionID)

	go client.WritePump()

	h.Register(client)

	client.ReadPump()
}

// Register adds a client and sends it the init frame.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister removes a client; safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// offerSnapshot keeps only the newest pending snapshot.
func (h *Hub) offerSnapshot(s comments.Snapshot) {
	for {
		select {
		case h.snapshots <- s:
			return
		default:
		}
		select {
		case <-h.snapshots:
		default:
		}
	}
}

func (h *Hub) offerAuthEvent(e auth.Event) {
	select {
	case h.authEvents <- e:
	default:
		h.logger.Warn().Str("kind", string(e.Kind)).Msg("auth event queue full, dropping event")
	}
}

func (h *Hub) deliver(c *Client, f Frame) {
	select {
	case h.direct <- directFrame{client: c, frame: f}:
	case <-h.done:
	}
}

func (h *Hub) deliverError(c *Client, replyTo string, err error) {
	customErr := errs.From(err)
	f := newFrame(TypeError, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
	f.ReplyTo = replyTo
	h.deliver(c, f)
}

// refresh re-sends auth state and the comment list after the client's identity changed.
func (h *Hub) refresh(c *Client) {
	select {
	case h.refreshes <- c:
	case <-h.done:
	}
}

func (h *Hub) run() {
	defer func() {
		for c := range h.clients {
			h.drop(c)
		}
		close(h.done)
	}()

	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			h.metrics.LiveClientsDelta(1)
			c.enqueue(h.initFrame(c))
			c.logger.Debug().Int("total_clients", len(h.clients)).Msg("socket registered")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				c.logger.Debug().Int("total_clients", len(h.clients)).Msg("socket unregistered")
			}

		case s := <-h.snapshots:
			h.latest = s
			for c := range h.clients {
				h.sendSnapshot(c)
			}

		case e := <-h.authEvents:
			if e.Kind != auth.SignedOut {
				continue
			}
			for c := range h.clients {
				if c.current().sessionID == e.SessionID {
					c.setIdentity(identity{})
					h.sendAuthState(c)
					h.sendSnapshot(c)
				}
			}

		case d := <-h.direct:
			if _, ok := h.clients[d.client]; ok {
				d.client.enqueue(d.frame)
			}

		case c := <-h.refreshes:
			if _, ok := h.clients[c]; ok {
				h.sendAuthState(c)
				h.sendSnapshot(c)
			}

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
	h.metrics.LiveClientsDelta(-1)
}

func (h *Hub) initFrame(c *Client) Frame {
	id := c.current()
	payload := InitPayload{
		User:        id.user,
		CanPost:     id.user != nil,
		ChatEnabled: h.chat.Enabled(),
		Comments:    comments.Views(h.latest.Comments, id.user, h.now()),
	}
	if h.latest.Err != nil {
		payload.CommentsError = errs.From(h.latest.Err).Message
	}
	if id.sessionID != "" {
		payload.History = h.chat.History(id.sessionID)
	}
	return newFrame(TypeInit, payload)
}

func (h *Hub) sendSnapshot(c *Client) {
	if h.latest.Err != nil {
		customErr := errs.From(h.latest.Err)
		c.enqueue(newFrame(TypeCommentsError, ErrorPayload{Code: customErr.Code, Message: customErr.Message}))
	}
	c.enqueue(newFrame(TypeCommentsSnapshot, SnapshotPayload{
		Comments: comments.Views(h.latest.Comments, c.current().user, h.now()),
	}))
}

func (h *Hub) sendAuthState(c *Client) {
	u := c.current().user
	c.enqueue(newFrame(TypeAuthState, AuthStatePayload{SignedIn: u != nil, CanPost: u != nil, User: u}))
}
