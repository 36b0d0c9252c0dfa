package http

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("bearer  abc.def ")
	require.NoError(t, err)
	require.Equal(t, "abc.def", token)

	_, err = bearerToken("")
	require.ErrorIs(t, err, errMissingBearer)

	for _, header := range []string{"Basic abc", "Bearer", "Bearer   "} {
		_, err = bearerToken(header)
		require.ErrorIs(t, err, errMalformedBearer, header)
	}
}
