package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// SessionExpiration is how long a sign-in stays valid.
	SessionExpiration = 7 * 24 * time.Hour

	// TokenIssuer identifies tokens minted by this server.
	TokenIssuer = "folio"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or issuer checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// GenerateToken signs payload with HS256, stamping iat/exp/iss relative to now.
func GenerateToken(payload *Payload, secretKey string, now time.Time, duration time.Duration) (string, error) {
	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	return token.SignedString([]byte(secretKey))
}

// ParseToken validates tokenString and returns its claims.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.Issuer != TokenIssuer || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
