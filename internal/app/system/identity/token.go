package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token is a verified ID token.
type Token struct {
	UID       string
	Email     string
	Claims    map[string]any
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the token carries admin: true.
func (t *Token) IsAdmin() bool {
	if t == nil {
		return false
	}
	v, _ := t.Claims["admin"].(bool)
	return v
}

type idClaims struct {
	Email string         `json:"email"`
	Auth  map[string]any `json:"claims,omitempty"`
	// IssuedAtMs gives revocation millisecond resolution; iat is seconds.
	IssuedAtMs int64 `json:"iat_ms"`
	jwt.RegisteredClaims
}

func (p *Provider) issuer() string { return "mentorhub/" + p.cfg.ProjectID }

func (p *Provider) sign(rec models.IdentityRecord, now time.Time) (string, error) {
	claims := idClaims{
		Email:      rec.Email,
		Auth:       rec.CustomClaims,
		IssuedAtMs: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   rec.UID,
			Issuer:    p.issuer(),
			Audience:  jwt.ClaimStrings{p.cfg.ProjectID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.cfg.TokenSecret)
}

// VerifyIDToken checks the signature, issuer, audience and expiry of raw.
// With checkRevoked it also rejects tokens of disabled users and tokens
// issued before the user's last revocation.
func (p *Provider) VerifyIDToken(ctx context.Context, raw string, checkRevoked bool) (*Token, error) {
	if raw == "" {
		return nil, codedErr(CodeInvalidCredential, "no ID token", nil)
	}
	var claims idClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return p.cfg.TokenSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer()),
		jwt.WithAudience(p.cfg.ProjectID),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, codedErr(CodeTokenExpired, "ID token has expired", err)
		}
		return nil, codedErr(CodeInvalidCredential, "ID token is invalid", err)
	}

	tok := &Token{
		UID:    claims.Subject,
		Email:  claims.Email,
		Claims: copyClaims(claims.Auth),
	}
	if claims.IssuedAt != nil {
		tok.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		tok.ExpiresAt = claims.ExpiresAt.Time
	}

	if checkRevoked {
		rec, err := p.findByUID(ctx, tok.UID)
		if err != nil {
			return nil, err
		}
		if rec.Disabled {
			return nil, codedErr(CodeUserDisabled, "The user account has been disabled.", nil)
		}
		if !rec.TokensValidAfter.IsZero() && claims.IssuedAtMs < rec.TokensValidAfter.UnixMilli() {
			return nil, codedErr(CodeTokenRevoked, "ID token has been revoked", nil)
		}
	}
	return tok, nil
}
