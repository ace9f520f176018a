// Package service contains application services for authentication, articles and comments.
package service

import (
	"context"
	"errors"
	"time"

	pkgcrypto "github.com/and161185/quill/internal/crypto"
	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/limiter"
	"github.com/and161185/quill/internal/model"
	"github.com/and161185/quill/internal/repository"
	"github.com/and161185/quill/internal/revoke"
	"github.com/and161185/quill/internal/token"
	"github.com/gofrs/uuid/v5"
)

const refreshTokenBytes = 32

// AuthService defines registration, session and profile operations.
type AuthService interface {
	// Register creates a user and opens its first session.
	Register(ctx context.Context, username, password string) (model.Tokens, error)
	// Login verifies credentials under the login throttle and opens a new session.
	Login(ctx context.Context, username, password, ip string) (model.Tokens, error)
	// Refresh consumes a refresh token and returns a rotated pair.
	Refresh(ctx context.Context, refreshToken string) (model.Tokens, error)
	// Logout ends the session the principal's access token belongs to.
	Logout(ctx context.Context, p model.Principal) error
	// Profile returns the public view of an active user.
	Profile(ctx context.Context, userID uuid.UUID) (model.Profile, error)
	// Authenticate verifies an access token and rejects revoked ones.
	Authenticate(ctx context.Context, accessToken string) (model.Principal, error)
}

// AuthServiceImpl implements AuthService.
type AuthServiceImpl struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokens     *token.Manager
	hasher     *pkgcrypto.Hasher
	lim        limiter.Limiter
	revoked    revoke.Revoker
	refreshTTL time.Duration
	now        func() time.Time
}

// AuthDeps groups AuthService collaborators.
type AuthDeps struct {
	Users      repository.UserRepository
	Sessions   repository.SessionRepository
	Tokens     *token.Manager
	Hasher     *pkgcrypto.Hasher
	Limiter    limiter.Limiter
	Revoker    revoke.Revoker
	RefreshTTL time.Duration
}

// NewAuthService constructs AuthService; a nil Limiter or Revoker disables that feature.
func NewAuthService(d AuthDeps) *AuthServiceImpl {
	s := &AuthServiceImpl{
		users:      d.Users,
		sessions:   d.Sessions,
		tokens:     d.Tokens,
		hasher:     d.Hasher,
		lim:        d.Limiter,
		revoked:    d.Revoker,
		refreshTTL: d.RefreshTTL,
		now:        time.Now,
	}
	if s.lim == nil {
		s.lim = limiter.Nop{}
	}
	if s.revoked == nil {
		s.revoked = revoke.Nop{}
	}
	if s.hasher == nil {
		s.hasher = pkgcrypto.NewHasher(0)
	}
	return s
}

func validateCredentials(username, password string) error {
	v := errs.NewValidation()
	if username == "" {
		v.Add("username", "required")
	}
	if password == "" {
		v.Add("password", "required")
	}
	return v.Err()
}

// Register creates a user record and issues its first session.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (model.Tokens, error) {
	if err := validateCredentials(username, password); err != nil {
		return model.Tokens{}, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, err
	}
	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return model.Tokens{}, err
	}

	u := &model.User{ID: uid, Username: username, Password: digest}
	if err := s.users.Create(ctx, u); err != nil {
		return model.Tokens{}, err
	}
	return s.openSession(ctx, uid)
}

// Login authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, ip string) (model.Tokens, error) {
	if err := validateCredentials(username, password); err != nil {
		return model.Tokens{}, err
	}
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, err
	}
	if !allowed {
		return model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.Tokens{}, err
	}
	ok, err := s.hasher.Verify(ctx, password, u.Password)
	if err != nil {
		return model.Tokens{}, err
	}
	if !ok {
		blocked, _, err := s.lim.Failure(ctx, username, ipHash)
		if err != nil {
			return model.Tokens{}, err
		}
		if blocked {
			return model.Tokens{}, errs.ErrRateLimited
		}
		return model.Tokens{}, errs.ErrPasswordMismatch
	}

	// best-effort reset
	_ = s.lim.Success(ctx, username, ipHash)

	return s.openSession(ctx, u.ID)
}

// Refresh rotates the session holding refreshToken. Expired tokens are rejected
// without rotating, so the stored session stays as it was.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.Tokens, error) {
	if refreshToken == "" {
		return model.Tokens{}, errs.ErrInvalidToken
	}
	var issued model.Principal
	next, err := s.sessions.Rotate(ctx, refreshToken, func(prev model.Session) (model.Session, error) {
		if prev.Expired(s.now()) {
			return model.Session{}, errs.ErrRefreshTokenExpired
		}
		var err error
		var sess model.Session
		sess, issued, err = s.newSession(prev.UserID)
		return sess, err
	})
	if err != nil {
		return model.Tokens{}, err
	}
	return s.tokensFor(issued, next), nil
}

// Logout terminates the session issued with the principal's access token and
// revokes that token for the rest of its lifetime.
func (s *AuthServiceImpl) Logout(ctx context.Context, p model.Principal) error {
	if err := s.sessions.Terminate(ctx, p.UserID, p.Token); err != nil {
		return err
	}
	if err := s.revoked.Revoke(ctx, p.TokenID, p.Expires.Sub(s.now())); err != nil {
		return err
	}
	return nil
}

// Profile returns the user's public view.
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{UserID: u.ID, Username: u.Username}, nil
}

// Authenticate parses the access token and checks the revocation list.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, accessToken string) (model.Principal, error) {
	if accessToken == "" {
		return model.Principal{}, errs.ErrUnauthorized
	}
	p, err := s.tokens.Parse(accessToken)
	if err != nil {
		return model.Principal{}, err
	}
	revoked, err := s.revoked.Revoked(ctx, p.TokenID)
	if err != nil {
		return model.Principal{}, err
	}
	if revoked {
		return model.Principal{}, errs.ErrUnauthorized
	}
	return p, nil
}

func (s *AuthServiceImpl) openSession(ctx context.Context, userID uuid.UUID) (model.Tokens, error) {
	sess, issued, err := s.newSession(userID)
	if err != nil {
		return model.Tokens{}, err
	}
	if err := s.sessions.Create(ctx, &sess); err != nil {
		return model.Tokens{}, err
	}
	return s.tokensFor(issued, sess), nil
}

func (s *AuthServiceImpl) newSession(userID uuid.UUID) (model.Session, model.Principal, error) {
	if userID == uuid.Nil {
		return model.Session{}, model.Principal{}, errors.New("session for nil user")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.Session{}, model.Principal{}, err
	}
	issued, err := s.tokens.Issue(userID)
	if err != nil {
		return model.Session{}, model.Principal{}, err
	}
	refresh, err := pkgcrypto.OpaqueToken(refreshTokenBytes)
	if err != nil {
		return model.Session{}, model.Principal{}, err
	}
	return model.Session{
		ID:           id,
		UserID:       userID,
		Token:        issued.Token,
		RefreshToken: refresh,
		ExpiresAt:    s.now().Add(s.refreshTTL),
	}, issued, nil
}

func (s *AuthServiceImpl) tokensFor(issued model.Principal, sess model.Session) model.Tokens {
	return model.Tokens{
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.TTL() / time.Second),
		AccessToken:  issued.Token,
		RefreshToken: sess.RefreshToken,
		RefreshTTL:   s.refreshTTL,
	}
}
