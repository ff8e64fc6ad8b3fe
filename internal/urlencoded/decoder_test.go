package urlencoded

import (
	"testing"

	"github.com/indigo-web/exchange/http/status"
	"github.com/stretchr/testify/require"
)

func TestExtendedDecode(t *testing.T) {
	t.Run("no escaping", func(t *testing.T) {
		decoded, buff, err := ExtendedDecode([]byte("hello"), nil)
		require.NoError(t, err)
		require.Equal(t, "hello", string(decoded))
		require.Empty(t, buff)
	})

	t.Run("corners", func(t *testing.T) {
		decoded, _, err := ExtendedDecode([]byte("%2fhello%2f"), nil)
		require.NoError(t, err)
		require.Equal(t, "/hello/", string(decoded))
	})

	t.Run("plus as space", func(t *testing.T) {
		decoded, _, err := ExtendedDecode([]byte("hello+world%21"), nil)
		require.NoError(t, err)
		require.Equal(t, "hello world!", string(decoded))
	})

	t.Run("shared buffer", func(t *testing.T) {
		first, buff, err := ExtendedDecode([]byte("a%20b"), nil)
		require.NoError(t, err)
		second, _, err := ExtendedDecode([]byte("c+d"), buff)
		require.NoError(t, err)
		require.Equal(t, "a b", string(first))
		require.Equal(t, "c d", string(second))
	})

	t.Run("incomplete sequence", func(t *testing.T) {
		_, _, err := ExtendedDecode([]byte("%2"), nil)
		require.ErrorIs(t, err, status.ErrURLDecoding)
	})

	t.Run("invalid code", func(t *testing.T) {
		_, _, err := ExtendedDecode([]byte("%2j"), nil)
		require.ErrorIs(t, err, status.ErrURLDecoding)
	})
}
