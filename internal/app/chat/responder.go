package chat

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"folio/internal/app/user"
	"folio/internal/configs"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/metrics"
)

const (
	DefaultMaxHistory = 10
	DefaultIdleTTL    = 30 * time.Minute
	pruneInterval     = time.Minute
)

// Options configures a Responder.
type Options struct {
	Enabled     bool
	Model       string
	MaxTokens   int
	Temperature float32
	MaxHistory  int
	Timeout     time.Duration
	IdleTTL     time.Duration
	Profile     configs.ChatProfile
	Metrics     *metrics.Collector
	Now         func() time.Time
}

// OptionsFromConfig maps the chat configuration onto Options.
func OptionsFromConfig(cfg configs.ChatConfig, profile configs.ChatProfile) Options {
	return Options{
		Enabled:     cfg.Enabled,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		MaxHistory:  cfg.MaxHistory,
		Timeout:     cfg.Timeout,
		Profile:     profile,
	}
}

// Responder answers visitor messages in the persona's voice.
type Responder struct {
	completer Completer
	opts      Options
	prompt    string
	history   *historyStore

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// NewResponder starts a Responder. A nil completer means every reply is a fallback.
// Call Close to stop the idle-history sweeper.
func NewResponder(completer Completer, opts Options) *Responder {
	if opts.MaxHistory < 0 {
		opts.MaxHistory = 0
	}
	if opts.MaxHistory > DefaultMaxHistory {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Profile.Name == "" {
		opts.Profile = configs.DefaultChatProfile()
	}

	r := &Responder{
		completer: completer,
		opts:      opts,
		prompt:    SystemPrompt(opts.Profile),
		history:   newHistoryStore(),
		stop:      make(chan struct{}),
		logger:    logx.Component("chat"),
	}

	r.wg.Add(1)
	go r.sweep()

	return r
}

// Enabled reports whether the chat accepts messages at all.
func (r *Responder) Enabled() bool {
	return r.opts.Enabled
}

// Remote reports whether replies can come from the completion API.
func (r *Responder) Remote() bool {
	return r.completer != nil
}

// Send records message for the session, generates a reply and records that too.
func (r *Responder) Send(ctx context.Context, sessionID string, u *user.User, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmpty
	}
	if u == nil || sessionID == "" {
		return nil, ErrAuthRequired
	}
	if !r.opts.Enabled {
		return nil, ErrDisabled
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, ErrTooLong
	}

	prior := r.history.recent(sessionID, r.opts.MaxHistory)
	r.history.append(sessionID, Message{Role: RoleUser, Content: message, Timestamp: r.opts.Now()})

	content, source := r.Generate(ctx, prior, message)

	reply := &Reply{Content: content, Source: source, Timestamp: r.opts.Now()}
	r.history.append(sessionID, Message{Role: RoleAssistant, Content: content, Timestamp: reply.Timestamp})

	r.opts.Metrics.ChatReply(string(source))
	return reply, nil
}

// Generate asks the completer for a reply to message given history (oldest first).
// It never fails: any problem yields the canned fallback.
func (r *Responder) Generate(ctx context.Context, history []Message, message string) (string, Source) {
	if r.completer == nil {
		return Fallback(message), SourceFallback
	}

	if n := len(history); n > r.opts.MaxHistory {
		history = history[n-r.opts.MaxHistory:]
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: r.prompt})
	for _, m := range history {
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: message})

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	content, err := r.completer.Complete(ctx, CompletionRequest{
		Model:       r.opts.Model,
		Messages:    messages,
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
	})
	content = strings.TrimSpace(content)

	if err != nil || content == "" {
		if err == nil {
			err = ErrNoChoices
		}
		r.logger.Warn().Err(err).Msg("completion failed, using canned reply")
		r.opts.Metrics.CompletionFailed()
		return Fallback(message), SourceFallback
	}

	return content, SourceRemote
}

// History returns the session transcript, oldest first.
func (r *Responder) History(sessionID string) []Message {
	return r.history.all(sessionID)
}

// Forget drops the session transcript; called when the session signs out.
func (r *Responder) Forget(sessionID string) {
	r.history.forget(sessionID)
}

// Close stops the sweeper.
func (r *Responder) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
}

func (r *Responder) sweep() {
	defer r.wg.Done()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.history.prune(r.opts.Now().Add(-r.opts.IdleTTL)); n > 0 {
				r.logger.Debug().Int("removed", n).Int("remaining", r.history.size()).Msg("pruned idle chat sessions")
			}
		case <-r.stop:
			return
		}
	}
}
