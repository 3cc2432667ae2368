package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer() *Issuer {
	return &Issuer{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func TestIssuer_AccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer()

	token, exp, err := issuer.NewAccessToken(42, "jdoe")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)

	id, err := SubjectID(claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestIssuer_RefreshToken_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer()

	token, exp, err := issuer.NewRefreshToken(7, "jdoe")
	require.NoError(t, err)

	claims, err := issuer.ParseRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestIssuer_KindsUseDistinctSecrets(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer()

	access, _, err := issuer.NewAccessToken(1, "jdoe")
	require.NoError(t, err)
	refresh, _, err := issuer.NewRefreshToken(1, "jdoe")
	require.NoError(t, err)

	_, err = issuer.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_TamperedToken(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer()

	token, _, err := issuer.NewAccessToken(1, "jdoe")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = issuer.ParseAccess(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ParseAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_ExpiredToken(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer()
	issuer.AccessTTL = -time.Minute

	token, _, err := issuer.NewAccessToken(1, "jdoe")
	require.NoError(t, err)

	_, err = issuer.ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSubjectID_Invalid(t *testing.T) {
	t.Parallel()

	_, err := SubjectID("not-a-number")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSha256Hex_Deterministic(t *testing.T) {
	t.Parallel()

	a := Sha256Hex("some-bearer-token")
	b := Sha256Hex("some-bearer-token")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Sha256Hex("another-token"))
}
