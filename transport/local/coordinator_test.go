package local

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/indigo-web/exchange/config"
	"github.com/indigo-web/exchange/http"
	"github.com/indigo-web/exchange/http/method"
	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/kv"
	"github.com/indigo-web/exchange/transport"
	"github.com/indigo-web/exchange/transport/dummy"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRequest(c *Coordinator, contentType string) http.Request {
	return http.NewRequest(http.Init{
		Peer:    c,
		Stream:  1,
		Inbox:   c.Inbox(),
		Method:  method.POST,
		Scheme:  "http",
		Host:    "localhost",
		Port:    8080,
		Path:    "/upload",
		Headers: kv.New().Add("Content-Type", contentType),
		HasBody: true,
	})
}

func pieces(strs ...string) [][]byte {
	result := make([][]byte, len(strs))
	for i, str := range strs {
		result[i] = []byte(str)
	}

	return result
}

func TestPlain(t *testing.T) {
	client := dummy.NewMockClient(pieces("Hello, ", "world!GET / HTTP/1.1\r\n")...)
	c := New(client, Framing{Length: 13}, zaptest.NewLogger(t))

	body, request, err := newRequest(c, "text/plain").ReadFullBody(context.Background(), config.Read{})
	require.NoError(t, err)
	require.Equal(t, "Hello, world!", string(body))
	require.EqualValues(t, 13, request.BodyLength())

	// the rest belongs to the next request
	require.NoError(t, c.Close())
	extra, err := client.Read()
	require.NoError(t, err)
	require.Equal(t, "GET / HTTP/1.1\r\n", string(extra))
}

func TestLength(t *testing.T) {
	client := dummy.NewMockClient(pieces("abc", "def", "ghi")...)
	c := New(client, Framing{Length: 9}, nil)
	defer c.Close()

	chunk, request, err := newRequest(c, "text/plain").ReadBody(context.Background(), config.Read{Length: 4})
	require.NoError(t, err)
	require.Equal(t, "abcdef", string(chunk.Data))
	require.False(t, chunk.Fin)

	chunk, _, err = request.ReadBody(context.Background(), config.Read{Length: 4})
	require.NoError(t, err)
	require.Equal(t, "ghi", string(chunk.Data))
	require.True(t, chunk.Fin)
}

func TestChunked(t *testing.T) {
	client := dummy.NewMockClient(pieces(
		"5\r\nHel", "lo\r\n7\r", "\n, world\r\n", "0\r\n\r\n",
	)...)
	c := New(client, Framing{Chunked: true}, zaptest.NewLogger(t))
	defer c.Close()

	request := newRequest(c, "text/plain")
	body, request, err := request.ReadFullBody(context.Background(), config.Read{})
	require.NoError(t, err)
	require.Equal(t, "Hello, world", string(body))
	require.EqualValues(t, 12, request.BodyLength())

	_, err = request.Reply(status.OK, nil, http.Bytes("received"))
	require.NoError(t, err)

	frames := c.Frames()
	require.Len(t, frames, 1)
	resp := frames[0].(transport.Response)
	require.Equal(t, "received", string(resp.Body))
	require.Equal(t, "8", resp.Headers.Value("content-length"))
}

func TestMalformedChunked(t *testing.T) {
	c := New(dummy.NewMockClient(pieces("zz\r\nHello\r\n")...), Framing{Chunked: true}, nil)
	defer c.Close()

	_, _, err := newRequest(c, "text/plain").ReadFullBody(context.Background(), config.Read{})
	require.ErrorIs(t, err, http.ErrInboxClosed)
}

func TestUnexpectedEOF(t *testing.T) {
	c := New(dummy.NewMockClient(pieces("short")...), Framing{Length: 100}, nil)
	defer c.Close()

	_, _, err := newRequest(c, "text/plain").ReadFullBody(context.Background(), config.Read{})
	require.ErrorIs(t, err, http.ErrInboxClosed)
}

func TestMaxLength(t *testing.T) {
	c := New(dummy.NewMockClient(pieces("0123456789")...), Framing{Length: 10, MaxLength: 5}, nil)
	defer c.Close()

	_, _, err := newRequest(c, "text/plain").ReadFullBody(context.Background(), config.Read{})
	require.ErrorIs(t, err, http.ErrInboxClosed)
}

func TestStalledClient(t *testing.T) {
	c := New(dummy.NewMockClient().Stall(), Framing{Length: 10}, nil)

	_, _, err := newRequest(c, "text/plain").ReadBody(context.Background(), config.Read{
		Period:  10 * time.Millisecond,
		Timeout: 50 * time.Millisecond,
	})
	require.ErrorIs(t, err, status.ErrBodyReadTimeout)
	require.NoError(t, c.Close())
}

func TestConn(t *testing.T) {
	const (
		boundary = "xyz"
		body     = "--xyz\r\n" +
			"Content-Disposition: form-data; name=\"a\"\r\n\r\n" +
			"first\r\n" +
			"--xyz\r\n" +
			"Content-Disposition: form-data; name=\"b\"\r\n\r\n" +
			"second\r\n" +
			"--xyz--\r\n"
	)

	server, conn := net.Pipe()
	go func() {
		for i := 0; i < len(body); i += 10 {
			_, _ = conn.Write([]byte(body[i:min(i+10, len(body))]))
		}
	}()

	client := transport.NewClient(server, time.Second, make([]byte, 4096))
	c := New(client, Framing{Length: int64(len(body))}, zaptest.NewLogger(t))
	defer c.Close()

	ctx := context.Background()
	request := newRequest(c, "multipart/form-data; boundary="+boundary)
	var bodies []string

	for {
		_, next, err := request.ReadPart(ctx, config.Read{})
		request = next
		if err == io.EOF {
			break
		}

		require.NoError(t, err)
		chunk, next, err := request.ReadPartBody(ctx, config.Read{})
		request = next
		require.NoError(t, err)
		require.True(t, chunk.Fin)
		bodies = append(bodies, string(chunk.Data))
	}

	require.Equal(t, []string{"first", "second"}, bodies)
	require.EqualValues(t, len(body), request.BodyLength())
}
