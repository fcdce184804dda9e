package jwt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-for-folio-tokens"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(&Payload{UserID: "u1", SessionID: "s1", Email: "a@b.co"}, secret, time.Now(), time.Hour)
	require.NoError(t, err)

	payload, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", payload.UserID)
	assert.Equal(t, "s1", payload.SessionID)
	assert.Equal(t, TokenIssuer, payload.Issuer)
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	expired, err := GenerateToken(&Payload{UserID: "u1", SessionID: "s1"}, secret, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(expired, secret)
	assert.Error(t, err)

	other, err := GenerateToken(&Payload{UserID: "u1", SessionID: "s1"}, "another-secret", time.Now(), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(other, secret)
	assert.Error(t, err)

	noSession, err := GenerateToken(&Payload{UserID: "u1"}, secret, time.Now(), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(noSession, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type verifierFunc func(ctx context.Context, token string) (*Payload, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*Payload, error) {
	return f(ctx, token)
}

func TestIdentityExtractorMiddleware(t *testing.T) {
	verifier := verifierFunc(func(_ context.Context, token string) (*Payload, error) {
		if token == "good" {
			return &Payload{UserID: "u1", SessionID: "s1"}, nil
		}
		return nil, errors.New("nope")
	})

	var seen *Payload
	handler := IdentityExtractorMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PayloadFromContext(r.Context())
	}))

	for header, wantUser := range map[string]string{
		"":            "",
		"Bearer good": "u1",
		"Bearer bad":  "",
		"Basic good":  "",
	} {
		seen = nil
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), r)

		if wantUser == "" {
			assert.Nil(t, seen, header)
		} else if assert.NotNil(t, seen, header) {
			assert.Equal(t, wantUser, seen.UserID)
		}
	}
}
