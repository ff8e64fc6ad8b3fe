package dummy

import (
	"io"
	"testing"

	"github.com/indigo-web/exchange/transport"
	"github.com/stretchr/testify/require"
)

func TestMockClient(t *testing.T) {
	t.Run("no looping", func(t *testing.T) {
		slices := [][]byte{
			[]byte("Hello"), []byte("world!"),
		}
		client := NewMockClient(slices...)

		for _, slice := range slices {
			got, err := client.Read()
			require.NoError(t, err)
			require.Equal(t, string(slice), string(got))
		}

		_, err := client.Read()
		require.EqualError(t, err, io.EOF.Error())
	})

	t.Run("pushback", func(t *testing.T) {
		client := NewMockClient([]byte("Hello"))
		data, err := client.Read()
		require.NoError(t, err)
		client.Pushback(data[1:])
		data, err = client.Read()
		require.NoError(t, err)
		require.Equal(t, "ello", string(data))
	})

	t.Run("stall until closed", func(t *testing.T) {
		client := NewMockClient().Stall()
		done := make(chan error)
		go func() {
			_, err := client.Read()
			done <- err
		}()

		require.NoError(t, client.Close())
		require.ErrorIs(t, <-done, io.EOF)
	})
}

func TestPeer(t *testing.T) {
	t.Run("answers in order", func(t *testing.T) {
		peer := NewPeer("Hello, ", "world")
		peer.Send(1, transport.ReadBody{Token: "a"})
		peer.Send(1, transport.ReadBody{Token: "b"})

		first := (<-peer.Inbox()).(transport.BodyChunk)
		require.Equal(t, transport.BodyChunk{Token: "a", Fin: transport.NoFin, Data: []byte("Hello, ")}, first)
		second := (<-peer.Inbox()).(transport.BodyChunk)
		require.Equal(t, transport.BodyChunk{Token: "b", Fin: transport.Fin, Length: 12, Data: []byte("world")}, second)
		require.Equal(t, 2, peer.Reads())
	})

	t.Run("frames", func(t *testing.T) {
		peer := NewPeer()
		peer.Send(1, transport.StreamData{Fin: transport.Fin})
		require.Equal(t, []transport.Message{transport.StreamData{Fin: transport.Fin}}, peer.Frames())
	})
}
