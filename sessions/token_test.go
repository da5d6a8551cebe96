package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	now := time.Now()
	ti := NewTokenIssuer([]byte("secret"), 30*time.Second, func() time.Time { return now })

	token, id, expires, err := ti.Issue("tv0r7bk67m")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, now.Add(30*time.Second), expires)

	claims, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "tv0r7bk67m", claims.Subject)
	assert.Equal(t, id, claims.ID)

	guest, _, _, err := ti.Issue("")
	require.NoError(t, err)
	claims, err = ti.Verify(guest)
	require.NoError(t, err)
	assert.Empty(t, claims.Subject)
}

func TestTokenExpiry(t *testing.T) {
	now := time.Now()
	ti := NewTokenIssuer([]byte("secret"), 30*time.Second, func() time.Time { return now })

	token, _, _, err := ti.Issue("tv0r7bk67m")
	require.NoError(t, err)

	now = now.Add(29 * time.Second)
	_, err = ti.Verify(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = ti.Verify(token)
	require.Error(t, err)
}

func TestTokenRejectsTampering(t *testing.T) {
	now := time.Now()
	ti := NewTokenIssuer([]byte("secret"), 30*time.Second, func() time.Time { return now })

	token, _, _, err := ti.Issue("tv0r7bk67m")
	require.NoError(t, err)

	_, err = ti.Verify(token + "x")
	require.Error(t, err)

	_, err = ti.Verify("garbage")
	require.Error(t, err)

	foreign := NewTokenIssuer([]byte("other"), 30*time.Second, func() time.Time { return now })
	stolen, _, _, err := foreign.Issue("tv0r7bk67m")
	require.NoError(t, err)
	_, err = ti.Verify(stolen)
	require.Error(t, err)
}
