package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Mojahedhu/Mojahed-Store/internal/auth"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)

	token, err := tm.Mint("user-1", true)
	require.NoError(t, err)

	p, err := tm.Verify(token)
	require.NoError(t, err)
	require.Equal(t, domain.Principal{UserID: "user-1", IsAdmin: true}, p)
}

func TestTokenExpired(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Mint("user-1", false)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := auth.NewTokenManager("secret-a", time.Hour).Mint("user-1", false)
	require.NoError(t, err)

	_, err = auth.NewTokenManager("secret-b", time.Hour).Verify(token)
	require.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestTokenGarbage(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	_, err := tm.Verify("not-a-token")
	require.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)

	require.True(t, auth.CheckPassword(hash, "hunter22"))
	require.False(t, auth.CheckPassword(hash, "hunter23"))
}
