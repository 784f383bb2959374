package auth

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/listenupapp/listenup-lists/internal/id"
)

const (
	tokenIssuer   = "listenup-lists"
	tokenAudience = "listenup-lists-web"
)

// ErrInvalidCookie is returned for any cookie that fails decryption or claim validation.
var ErrInvalidCookie = errors.New("invalid session cookie")

// CookieClaims are the claims sealed into a session cookie.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type CookieClaims struct {
	// Standard PASETO claims. Subject is the session ID.
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// CookieSealer turns session IDs into opaque, tamper-proof cookie values and back.
type CookieSealer struct {
	symmetricKey paseto.V4SymmetricKey
	now          func() time.Time
}

// NewCookieSealer creates a sealer from a 32-byte key (see LoadOrGenerateKey).
func NewCookieSealer(key []byte) (*CookieSealer, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &CookieSealer{
		symmetricKey: symmetricKey,
		now:          time.Now,
	}, nil
}

// Seal creates a v4.local token carrying the session ID, valid until expiresAt.
func (c *CookieSealer) Seal(sessionID string, expiresAt time.Time) (string, error) {
	now := c.now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(sessionID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expiresAt)

	tokenID, err := id.Generate("token")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	return token.V4Encrypt(c.symmetricKey, nil), nil
}

// Open decrypts and validates a cookie value, returning its claims.
func (c *CookieSealer) Open(value string) (*CookieClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(c.now()))

	token, err := parser.ParseV4Local(c.symmetricKey, value, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}

	var claims CookieClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrInvalidCookie, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidCookie)
	}

	return &claims, nil
}
