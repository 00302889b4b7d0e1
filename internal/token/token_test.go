package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokenString, err := BuildToken("100001")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	userCode, err := GetUserCode(tokenString)
	require.NoError(t, err)
	require.Equal(t, "100001", userCode)
}

func TestTokenInvalid(t *testing.T) {
	_, err := GetUserCode("no-es-un-token")
	require.Error(t, err)
}
