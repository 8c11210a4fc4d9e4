package signer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/keywheel/keywheel/internal/clock"
	"github.com/keywheel/keywheel/internal/keystore"
)

// Config is the configuration for creating a Signer
type Config struct {
	// IssuerURL is the issuer URL (iss claim)
	IssuerURL string

	// TTL is the time-to-live for tokens
	TTL time.Duration

	// Store holds the signing keys
	Store *keystore.Store

	// Clock is an optional clock for testing (defaults to system clock)
	Clock clock.Clock
}

// Signer issues JWTs signed with keys from the store. Every unpinned issuance
// advances the store's rotation, so consecutive tokens are signed with
// different keys once more than one is held.
type Signer struct {
	issuerURL string
	ttl       time.Duration
	store     *keystore.Store
	clock     clock.Clock
}

// New creates a new Signer
func New(cfg Config) *Signer {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}

	return &Signer{
		issuerURL: cfg.IssuerURL,
		ttl:       cfg.TTL,
		store:     cfg.Store,
		clock:     clk,
	}
}

// Request describes the token to issue
type Request struct {
	// Subject is the sub claim
	Subject string

	// Audience is the aud claim
	Audience []string

	// KeyID pins a specific signing key; empty follows rotation order
	KeyID string

	// Claims are additional claims to set on the token
	Claims map[string]any
}

// Token is an issued, signed JWT
type Token struct {
	Value     string
	KeyID     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue builds and signs a JWT with the next key in rotation order (or the
// pinned key when the request names one)
func (s *Signer) Issue(ctx context.Context, req Request) (*Token, error) {
	rec := s.store.Select(req.KeyID)
	if rec == nil {
		if req.KeyID != "" {
			return nil, fmt.Errorf("no signing key with kid %q", req.KeyID)
		}
		return nil, fmt.Errorf("no signing keys available")
	}

	key, err := rec.JWK()
	if err != nil {
		return nil, fmt.Errorf("failed to materialize signing key: %w", err)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	token := jwt.New()

	if err := token.Set(jwt.IssuerKey, s.issuerURL); err != nil {
		return nil, fmt.Errorf("failed to set issuer: %w", err)
	}
	if req.Subject != "" {
		if err := token.Set(jwt.SubjectKey, req.Subject); err != nil {
			return nil, fmt.Errorf("failed to set subject: %w", err)
		}
	}
	if len(req.Audience) > 0 {
		if err := token.Set(jwt.AudienceKey, req.Audience); err != nil {
			return nil, fmt.Errorf("failed to set audience: %w", err)
		}
	}
	if err := token.Set(jwt.IssuedAtKey, now.Unix()); err != nil {
		return nil, fmt.Errorf("failed to set issued at: %w", err)
	}
	if err := token.Set(jwt.ExpirationKey, expiresAt.Unix()); err != nil {
		return nil, fmt.Errorf("failed to set expiration: %w", err)
	}
	if err := token.Set(jwt.JwtIDKey, uuid.NewString()); err != nil {
		return nil, fmt.Errorf("failed to set JWT ID: %w", err)
	}

	for name, value := range req.Claims {
		if err := token.Set(name, value); err != nil {
			return nil, fmt.Errorf("failed to set claim %s: %w", name, err)
		}
	}

	// Build JWS headers with the key ID so verifiers can find the key in the
	// published set
	headers := jws.NewHeaders()
	if err := headers.Set(jws.KeyIDKey, rec.KeyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID header: %w", err)
	}

	signed, err := jwt.Sign(token,
		jwt.WithKey(jwa.SignatureAlgorithm(rec.Algorithm), key, jws.WithProtectedHeaders(headers)))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{
		Value:     string(signed),
		KeyID:     rec.KeyID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}
