package token

import (
	"testing"
	"time"

	"github.com/and161185/quill/internal/errs"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func makeJWT(t *testing.T, sub string, key []byte, method jwt.SigningMethod, iat time.Time, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    "quill",
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func TestManager_IssueParse_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewManager([]byte("secret"), "quill", 5*time.Minute)
	uid := uuid.Must(uuid.NewV4())

	p, err := m.Issue(uid)
	require.NoError(t, err)
	require.NotEmpty(t, p.Token)
	require.NotEmpty(t, p.TokenID)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), p.Expires, 2*time.Second)

	got, err := m.Parse(p.Token)
	require.NoError(t, err)
	require.Equal(t, uid, got.UserID)
	require.Equal(t, p.TokenID, got.TokenID)
	require.Equal(t, p.Token, got.Token)

	again, err := m.Issue(uid)
	require.NoError(t, err)
	require.NotEqual(t, p.TokenID, again.TokenID)
	require.Equal(t, 5*time.Minute, m.TTL())
}

func TestManager_Parse_Rejects(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	m := NewManager(key, "quill", time.Minute)
	sub := uuid.Must(uuid.NewV4()).String()
	now := time.Now()

	cases := map[string]string{
		"garbage":      "not.a.jwt",
		"wrong key":    makeJWT(t, sub, []byte("other"), jwt.SigningMethodHS256, now, time.Minute),
		"wrong method": makeJWT(t, sub, key, jwt.SigningMethodHS512, now, time.Minute),
		"expired":      makeJWT(t, sub, key, jwt.SigningMethodHS256, now.Add(-time.Hour), time.Minute),
		"bad subject":  makeJWT(t, "not-a-uuid", key, jwt.SigningMethodHS256, now, time.Minute),
	}
	for name, tok := range cases {
		_, err := m.Parse(tok)
		require.ErrorIs(t, err, errs.ErrUnauthorized, name)
	}
}

func TestManager_Parse_IssuerMismatch(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	m := NewManager(key, "someone-else", time.Minute)
	tok := makeJWT(t, uuid.Must(uuid.NewV4()).String(), key, jwt.SigningMethodHS256, time.Now(), time.Minute)

	_, err := m.Parse(tok)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestManager_Parse_LeewayAcceptsJustExpired(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	m := NewManager(key, "quill", time.Minute)
	sub := uuid.Must(uuid.NewV4())
	tok := makeJWT(t, sub.String(), key, jwt.SigningMethodHS256, time.Now().Add(-70*time.Second), time.Minute)

	p, err := m.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, sub, p.UserID)
}
