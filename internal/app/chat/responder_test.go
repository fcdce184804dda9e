package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/app/user"
	"folio/internal/configs"
	"folio/internal/pkg/errs"
)

type recordingCompleter struct {
	mu       sync.Mutex
	requests []CompletionRequest
	reply    string
	err      error
	block    bool
}

func (c *recordingCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.reply, c.err
}

func (c *recordingCompleter) last() CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

func (c *recordingCompleter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

var visitor = &user.User{ID: "u1", Email: "ada@example.com"}

func newResponder(t *testing.T, completer Completer, opts Options) *Responder {
	t.Helper()
	r := NewResponder(completer, opts)
	t.Cleanup(r.Close)
	return r
}

func TestSendRejectsBeforeGenerating(t *testing.T) {
	completer := &recordingCompleter{reply: "hello"}
	r := newResponder(t, completer, Options{Enabled: true})
	ctx := context.Background()

	_, err := r.Send(ctx, "s1", visitor, "   ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = r.Send(ctx, "s1", nil, "hi")
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = r.Send(ctx, "", visitor, "hi")
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = r.Send(ctx, "s1", visitor, strings.Repeat("x", MaxMessageLength+1))
	assert.Equal(t, errs.ErrInvalidParams, errs.CodeOf(err))

	assert.Zero(t, completer.calls())
	assert.Empty(t, r.History("s1"))
}

func TestSendWhenDisabled(t *testing.T) {
	r := newResponder(t, &recordingCompleter{reply: "hello"}, Options{Enabled: false})

	_, err := r.Send(context.Background(), "s1", visitor, "hi")

	assert.Equal(t, errs.ErrChatDisabled, errs.CodeOf(err))
	assert.False(t, r.Enabled())
}

func TestSendWithoutCompleterUsesFallback(t *testing.T) {
	r := newResponder(t, nil, Options{Enabled: true})

	reply, err := r.Send(context.Background(), "s1", visitor, "Tell me about TikTok")
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, reply.Source)
	assert.Equal(t, Fallback("tiktok"), reply.Content)
	assert.False(t, r.Remote())

	history := r.History("s1")
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "Tell me about TikTok", history[0].Content)
	assert.Equal(t, RoleAssistant, history[1].Role)
}

func TestSendRemoteReply(t *testing.T) {
	completer := &recordingCompleter{reply: "  Hi from the API.  "}
	r := newResponder(t, completer, Options{
		Enabled:     true,
		Model:       "gpt-test",
		MaxTokens:   500,
		Temperature: 0.8,
		Profile:     configs.ChatProfile{Name: "Sam Doe", Summary: "a tester"},
	})

	reply, err := r.Send(context.Background(), "s1", visitor, "hello")
	require.NoError(t, err)

	assert.Equal(t, SourceRemote, reply.Source)
	assert.Equal(t, "Hi from the API.", reply.Content)

	req := completer.last()
	assert.Equal(t, "gpt-test", req.Model)
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.8, req.Temperature, 0.0001)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "You are Sam Doe, a tester.")
	assert.Equal(t, Message{Role: RoleUser, Content: "hello"}, req.Messages[1])
}

func TestContextIsCappedAtMaxHistory(t *testing.T) {
	completer := &recordingCompleter{reply: "ok"}
	r := newResponder(t, completer, Options{Enabled: true, MaxHistory: 10})
	ctx := context.Background()

	for i := range 15 {
		_, err := r.Send(ctx, "s1", visitor, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	_, err := r.Send(ctx, "s1", visitor, "latest")
	require.NoError(t, err)

	req := completer.last()
	require.Len(t, req.Messages, 1+10+1)
	assert.Equal(t, RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "latest", req.Messages[len(req.Messages)-1].Content)
	for _, m := range req.Messages[1 : len(req.Messages)-1] {
		assert.NotEqual(t, "latest", m.Content)
	}
	assert.Equal(t, "ok", req.Messages[len(req.Messages)-2].Content)
}

func TestMaxHistoryIsClamped(t *testing.T) {
	completer := &recordingCompleter{reply: "ok"}
	r := newResponder(t, completer, Options{Enabled: true, MaxHistory: 50})
	ctx := context.Background()

	for i := range 12 {
		_, err := r.Send(ctx, "s1", visitor, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	assert.Len(t, completer.last().Messages, 1+DefaultMaxHistory+1)
}

func TestCompletionFailureFallsBack(t *testing.T) {
	tests := map[string]*recordingCompleter{
		"error":         {err: errors.New("upstream 500")},
		"empty content": {reply: "   "},
		"no choices":    {err: ErrNoChoices},
	}

	for name, completer := range tests {
		t.Run(name, func(t *testing.T) {
			r := newResponder(t, completer, Options{Enabled: true})

			reply, err := r.Send(context.Background(), "s1", visitor, "something random")
			require.NoError(t, err)

			assert.Equal(t, SourceFallback, reply.Source)
			assert.Equal(t, defaultReply, reply.Content)
		})
	}
}

func TestCompletionTimeoutFallsBack(t *testing.T) {
	completer := &recordingCompleter{block: true}
	r := newResponder(t, completer, Options{Enabled: true, Timeout: 20 * time.Millisecond})

	start := time.Now()
	content, source := r.Generate(context.Background(), nil, "nyc")

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, SourceFallback, source)
	assert.Equal(t, Fallback("nyc"), content)
}

func TestSessionsAreIsolatedAndForgettable(t *testing.T) {
	r := newResponder(t, nil, Options{Enabled: true})
	ctx := context.Background()

	_, err := r.Send(ctx, "s1", visitor, "hi")
	require.NoError(t, err)
	_, err = r.Send(ctx, "s2", visitor, "hello")
	require.NoError(t, err)

	assert.Len(t, r.History("s1"), 2)
	assert.Len(t, r.History("s2"), 2)

	r.Forget("s1")

	assert.Empty(t, r.History("s1"))
	assert.Len(t, r.History("s2"), 2)
}

func TestHistoryPrune(t *testing.T) {
	h := newHistoryStore()
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	h.append("old", Message{Role: RoleUser, Content: "a", Timestamp: now.Add(-time.Hour)})
	h.append("new", Message{Role: RoleUser, Content: "b", Timestamp: now})

	assert.Equal(t, 1, h.prune(now.Add(-30*time.Minute)))
	assert.Equal(t, 1, h.size())
	assert.Empty(t, h.all("old"))
}

func TestHistoryIsBounded(t *testing.T) {
	h := newHistoryStore()
	for i := range maxStoredMessages + 5 {
		h.append("s1", Message{Role: RoleUser, Content: fmt.Sprint(i)})
	}

	all := h.all("s1")
	require.Len(t, all, maxStoredMessages)
	assert.Equal(t, "5", all[0].Content)
	assert.Len(t, h.recent("s1", 3), 3)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	inner := &recordingCompleter{err: errors.New("down")}
	c := WithBreaker(inner, "test", BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	})
	ctx := context.Background()

	for range 2 {
		_, err := c.Complete(ctx, CompletionRequest{})
		require.Error(t, err)
	}

	_, err := c.Complete(ctx, CompletionRequest{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls())
}

func TestSystemPromptFromDefaultProfile(t *testing.T) {
	prompt := SystemPrompt(configs.DefaultChatProfile())

	assert.True(t, strings.HasPrefix(prompt, "You are Alex Zhang, an experienced entrepreneur"))
	assert.Contains(t, prompt, "TikTok (Strategy & Operations)")
	assert.Contains(t, prompt, "Personality: You're entrepreneurial")
}
