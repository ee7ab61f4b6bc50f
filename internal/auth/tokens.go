package auth

import (
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	tokenIssuer   = "bloomery-admin"
	tokenAudience = "bloomery-dashboard"

	keyBytesSize = 32
	keyHexSize   = 64
)

// Claims are the contents of an admin session token. v4.local tokens
// are encrypted, so claims are unreadable without the key.
type Claims struct {
	Email string `json:"email"`

	Issuer     string    `json:"iss"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
}

// TokenService issues and verifies PASETO v4.local admin tokens.
type TokenService struct {
	symmetricKey  paseto.V4SymmetricKey
	tokenDuration time.Duration
}

// NewTokenService creates a token service from a hex-encoded 256-bit key.
func NewTokenService(keyHex string, tokenDuration time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:  key,
		tokenDuration: tokenDuration,
	}, nil
}

// GenerateToken creates an encrypted session token for the admin.
func (s *TokenService) GenerateToken(email string) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(email)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.tokenDuration))

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("email", email)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken verifies and decrypts a session token, returning its
// claims when valid and unexpired.
func (s *TokenService) VerifyToken(tokenString string) (*Claims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &claims, nil
}

// TokenDuration returns the configured token lifetime.
func (s *TokenService) TokenDuration() time.Duration {
	return s.tokenDuration
}
