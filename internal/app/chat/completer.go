package chat

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"folio/internal/configs"
	"folio/internal/pkg/logx"
)

// CompletionRequest is one call to a chat completion API.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Completer turns a conversation into the assistant's next message.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ErrNoChoices is returned when the API answers without any choice.
var ErrNoChoices = errors.New("chat: completion returned no choices")

// OpenAICompleter calls the OpenAI Chat Completions API (or a compatible BaseURL).
type OpenAICompleter struct {
	client *openai.Client
}

// NewOpenAICompleter returns nil when no API key is configured.
func NewOpenAICompleter(cfg configs.ChatConfig) *OpenAICompleter {
	if cfg.APIKey == "" {
		return nil
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAICompleter{client: openai.NewClientWithConfig(clientCfg)}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// BreakerSettings tunes the circuit breaker in front of a Completer.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings trips after 5 calls with at least 60% failures and probes again after 30s.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

type breakerCompleter struct {
	next   Completer
	cb     *gobreaker.CircuitBreaker
	logger zerolog.Logger
}

// WithBreaker wraps next so a failing upstream is short-circuited instead of waited on.
func WithBreaker(next Completer, name string, s BreakerSettings) Completer {
	logger := logx.Component("chat.breaker")

	return &breakerCompleter{
		next:   next,
		logger: logger,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: s.MaxRequests,
			Interval:    s.Interval,
			Timeout:     s.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < s.MinRequests {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

func (b *breakerCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
