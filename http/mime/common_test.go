package mime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplies(t *testing.T) {
	for _, tc := range []string{"", JSON, JSON + ";", JSON + ";param", "Application/JSON; charset=utf8"} {
		require.True(t, Complies(JSON, tc), tc)
	}

	require.False(t, Complies(JSON, Plain))
}

func TestIsMultipart(t *testing.T) {
	require.True(t, IsMultipart("multipart/form-data; boundary=abc"))
	require.True(t, IsMultipart("Multipart/Mixed"))
	require.False(t, IsMultipart("multipart/"))
	require.False(t, IsMultipart(JSON))
}
