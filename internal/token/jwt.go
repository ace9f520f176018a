// Package token signs and verifies HS256 access tokens.
package token

import (
	"errors"
	"time"

	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

const leeway = 30 * time.Second

// Manager issues and parses access tokens with a shared secret.
type Manager struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager constructs a Manager. ttl is the access token lifetime.
func NewManager(key []byte, issuer string, ttl time.Duration) *Manager {
	return &Manager{key: key, issuer: issuer, ttl: ttl, now: time.Now}
}

// TTL returns the access token lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a signed HS256 JWT for the given subject.
func (m *Manager) Issue(userID uuid.UUID) (model.Principal, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return model.Principal{}, err
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		ID:        jti.String(),
		Issuer:    m.issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return model.Principal{}, err
	}
	return model.Principal{UserID: userID, Token: signed, TokenID: jti.String(), Expires: exp}, nil
}

// Parse verifies signature, method, issuer and time claims, and returns the principal.
// Any failure is reported as errs.ErrUnauthorized.
func (m *Manager) Parse(tok string) (model.Principal, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.key, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return model.Principal{}, errs.ErrUnauthorized
	}

	opts := []jwt.ParserOption{jwt.WithLeeway(leeway), jwt.WithExpirationRequired(), jwt.WithTimeFunc(m.now)}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if err := jwt.NewValidator(opts...).Validate(&claims); err != nil {
		return model.Principal{}, errs.ErrUnauthorized
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.Principal{}, errs.ErrUnauthorized
	}
	p := model.Principal{UserID: id, Token: tok, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		p.Expires = claims.ExpiresAt.Time
	}
	return p, nil
}
