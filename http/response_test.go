package http

import (
	"testing"
	"time"

	"github.com/indigo-web/exchange/config"
	"github.com/indigo-web/exchange/http/cookie"
	"github.com/indigo-web/exchange/http/method"
	"github.com/indigo-web/exchange/http/status"
	"github.com/indigo-web/exchange/kv"
	"github.com/indigo-web/exchange/transport"
	"github.com/indigo-web/exchange/transport/dummy"
	"github.com/stretchr/testify/require"
)

func lastResponse(t *testing.T, peer *dummy.Peer) transport.Response {
	frames := peer.Frames()
	require.NotEmpty(t, frames)
	resp, ok := frames[len(frames)-1].(transport.Response)
	require.True(t, ok)
	return resp
}

func TestReply(t *testing.T) {
	t.Run("content length is computed", func(t *testing.T) {
		peer := dummy.NewPeer()
		request := newRequest(peer, Init{})

		_, err := request.Reply(status.OK, kv.New().Add("Content-Length", "1000"), Bytes("Hello, world!"))
		require.NoError(t, err)

		resp := lastResponse(t, peer)
		require.Equal(t, status.OK, resp.Code)
		require.Equal(t, "Hello, world!", string(resp.Body))
		require.Equal(t, []string{"13"}, values(resp.Headers, "content-length"))
	})

	t.Run("no content", func(t *testing.T) {
		peer := dummy.NewPeer()
		request := newRequest(peer, Init{}).SetRespHeader("content-length", "5")

		_, err := request.Reply(status.NoContent, kv.New().Add("content-length", "5"), Bytes("body!"))
		require.NoError(t, err)
		require.False(t, lastResponse(t, peer).Headers.Has("content-length"))
	})

	t.Run("no content with a zero length file", func(t *testing.T) {
		peer := dummy.NewPeer()
		_, err := newRequest(peer, Init{}).Reply(status.NoContent, nil, File{Path: "/dev/null"})
		require.NoError(t, err)
		require.False(t, lastResponse(t, peer).Headers.Has("content-length"))
	})

	t.Run("HEAD", func(t *testing.T) {
		peer := dummy.NewPeer()
		request := newRequest(peer, Init{Method: method.HEAD})

		_, err := request.Reply(status.OK, nil, Bytes("Hello, world!"))
		require.NoError(t, err)

		resp := lastResponse(t, peer)
		require.Empty(t, resp.Body)
		require.Nil(t, resp.File)
		require.Equal(t, "13", resp.Headers.Value("content-length"))
	})

	t.Run("file", func(t *testing.T) {
		peer := dummy.NewPeer()
		body := File{Path: "/var/www/index.html", Offset: 10, Length: 4096}
		_, err := newRequest(peer, Init{}).Reply(status.OK, nil, body)
		require.NoError(t, err)

		resp := lastResponse(t, peer)
		require.Equal(t, &transport.File{Path: "/var/www/index.html", Offset: 10, Length: 4096}, resp.File)
		require.Equal(t, "4096", resp.Headers.Value("content-length"))
	})

	t.Run("zero length file", func(t *testing.T) {
		peer := dummy.NewPeer()
		request, err := newRequest(peer, Init{}).Reply(status.OK, nil, File{Path: "/var/www/index.html"})
		require.ErrorIs(t, err, ErrZeroLengthFile)
		require.Empty(t, peer.Frames())

		// the request is still usable
		_, err = request.Reply(status.OK, nil, nil)
		require.NoError(t, err)
	})

	t.Run("twice", func(t *testing.T) {
		peer := dummy.NewPeer()
		request, err := newRequest(peer, Init{}).Reply(status.OK, nil, nil)
		require.NoError(t, err)
		_, err = request.Reply(status.OK, nil, nil)
		require.ErrorIs(t, err, ErrAlreadySent)
		_, err = request.StreamReply(status.OK, nil)
		require.ErrorIs(t, err, ErrAlreadySent)
		require.Len(t, peer.Frames(), 1)
	})

	t.Run("header precedence", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headers.Default = map[string]string{"x-powered-by": "go", "x-frame-options": "DENY"}

		peer := dummy.NewPeer()
		request := newRequest(peer, Init{Config: cfg}).
			SetRespHeader("x-staged", "staged").
			SetRespHeader("x-both", "staged").
			SetRespHeader("x-powered-by", "staged")

		request, err := request.SetRespCookie(cookie.New("session", "abc"))
		require.NoError(t, err)
		request, err = request.SetRespCookie(cookie.Build("theme", "dark").Path("/").Cookie())
		require.NoError(t, err)

		_, err = request.Reply(status.OK, kv.New().Add("x-both", "argument").Add("server", "custom"), Bytes("ok"))
		require.NoError(t, err)

		headers := lastResponse(t, peer).Headers
		require.Equal(t, "staged", headers.Value("x-staged"))
		require.Equal(t, []string{"argument"}, values(headers, "x-both"))
		require.Equal(t, []string{"staged"}, values(headers, "x-powered-by"))
		require.Equal(t, []string{"custom"}, values(headers, "server"))
		require.Equal(t, "DENY", headers.Value("x-frame-options"))

		date, err := time.Parse(DateFormat, headers.Value("date"))
		require.NoError(t, err)
		require.WithinDuration(t, time.Now(), date, time.Minute)

		pairs := headers.Expose()
		require.Equal(t, kv.Pair{Key: "set-cookie", Value: "session=abc"}, pairs[len(pairs)-2])
		require.Equal(t, kv.Pair{Key: "set-cookie", Value: "theme=dark; Path=/"}, pairs[len(pairs)-1])
	})

	t.Run("default server", func(t *testing.T) {
		peer := dummy.NewPeer()
		_, err := newRequest(peer, Init{}).Reply(status.OK, nil, nil)
		require.NoError(t, err)
		headers := lastResponse(t, peer).Headers
		require.Equal(t, "indigo", headers.Value("server"))
		require.Equal(t, "0", headers.Value("content-length"))
	})

	t.Run("staging is cleared", func(t *testing.T) {
		peer := dummy.NewPeer()
		request := newRequest(peer, Init{}).
			SetRespHeader("x-a", "1").
			SetRespBody(Bytes("staged"))
		require.True(t, request.HasRespBody())

		request, err := request.ReplyStaged(status.Created, nil)
		require.NoError(t, err)
		require.Equal(t, "staged", string(lastResponse(t, peer).Body))
		require.False(t, request.HasRespBody())
		require.False(t, request.HasRespHeader("x-a"))
	})

	t.Run("json", func(t *testing.T) {
		peer := dummy.NewPeer()
		_, err := newRequest(peer, Init{}).ReplyJSON(status.OK, map[string]int{"a": 1})
		require.NoError(t, err)

		resp := lastResponse(t, peer)
		require.JSONEq(t, `{"a":1}`, string(resp.Body))
		require.Equal(t, "application/json", resp.Headers.Value("content-type"))
	})

	t.Run("invalid cookie", func(t *testing.T) {
		_, err := newRequest(dummy.NewPeer(), Init{}).SetRespCookie(cookie.New("bad name", "v"))
		require.ErrorIs(t, err, ErrInvalidCookie)
	})
}

func TestStream(t *testing.T) {
	t.Run("full cycle", func(t *testing.T) {
		peer := dummy.NewPeer()
		request := newRequest(peer, Init{}).SetRespHeader("x-a", "1")

		request, err := request.StreamReply(status.OK, kv.New().Add("content-type", "text/plain"))
		require.NoError(t, err)
		request, err = request.StreamBody([]byte("Hello"), transport.NoFin)
		require.NoError(t, err)
		request, err = request.StreamBody(nil, transport.NoFin)
		require.NoError(t, err)
		request, err = request.StreamBody([]byte(", world"), transport.NoFin)
		require.NoError(t, err)
		request, err = request.StreamTrailers(kv.New().Add("x-checksum", "abc"))
		require.NoError(t, err)

		frames := peer.Frames()
		require.Len(t, frames, 4)

		head := frames[0].(transport.StreamHeaders)
		require.Equal(t, status.OK, head.Code)
		require.Equal(t, "1", head.Headers.Value("x-a"))
		require.Equal(t, "text/plain", head.Headers.Value("content-type"))
		require.False(t, head.Headers.Has("content-length"))

		require.Equal(t, transport.StreamData{Fin: transport.NoFin, Data: []byte("Hello")}, frames[1])
		require.Equal(t, transport.StreamData{Fin: transport.NoFin, Data: []byte(", world")}, frames[2])
		require.Equal(t, "abc", frames[3].(transport.StreamTrailers).Headers.Value("x-checksum"))

		_, err = request.StreamBody([]byte("late"), transport.Fin)
		require.ErrorIs(t, err, ErrAlreadySent)
	})

	t.Run("empty final frame", func(t *testing.T) {
		peer := dummy.NewPeer()
		request, err := newRequest(peer, Init{}).StreamReply(status.OK, nil)
		require.NoError(t, err)
		request, err = request.StreamBody(nil, transport.Fin)
		require.NoError(t, err)

		frames := peer.Frames()
		require.Len(t, frames, 2)
		require.Equal(t, transport.StreamData{Fin: transport.Fin}, frames[1])

		_, err = request.StreamTrailers(nil)
		require.ErrorIs(t, err, ErrAlreadySent)
	})

	t.Run("HEAD", func(t *testing.T) {
		peer := dummy.NewPeer()
		request, err := newRequest(peer, Init{Method: method.HEAD}).StreamReply(status.OK, nil)
		require.NoError(t, err)
		request, err = request.StreamBody([]byte("data"), transport.Fin)
		require.NoError(t, err)
		require.Len(t, peer.Frames(), 1)

		_, err = request.StreamBody([]byte("data"), transport.Fin)
		require.ErrorIs(t, err, ErrAlreadySent)
	})

	t.Run("body before headers", func(t *testing.T) {
		_, err := newRequest(dummy.NewPeer(), Init{}).StreamBody([]byte("data"), transport.NoFin)
		require.ErrorIs(t, err, ErrHeadersNotSent)
		_, err = newRequest(dummy.NewPeer(), Init{}).StreamTrailers(nil)
		require.ErrorIs(t, err, ErrHeadersNotSent)
	})
}

func TestInform(t *testing.T) {
	peer := dummy.NewPeer()
	request := newRequest(peer, Init{})

	require.NoError(t, request.Inform(status.EarlyHints, kv.New().Add("link", "</style.css>; rel=preload")))
	require.ErrorIs(t, request.Inform(status.OK, nil), ErrNotInformational)

	streaming, err := request.StreamReply(status.OK, nil)
	require.NoError(t, err)
	require.ErrorIs(t, streaming.Inform(status.Continue, nil), ErrInformAfterResponse)

	replied, err := request.Reply(status.OK, nil, nil)
	require.NoError(t, err)
	require.ErrorIs(t, replied.Inform(status.Continue, nil), ErrInformAfterResponse)

	inform := peer.Frames()[0].(transport.Inform)
	require.Equal(t, status.EarlyHints, inform.Code)
	require.Equal(t, "</style.css>; rel=preload", inform.Headers.Value("link"))
}

func TestPush(t *testing.T) {
	peer := dummy.NewPeer()
	request := newRequest(peer, Init{Scheme: "https", Host: "example.com", Port: 443, Path: "/"})

	request.Push("/style.css", kv.New().Add("accept", "text/css"), PushOptions{})
	request.Push("/api", nil, PushOptions{Method: method.POST, Host: "api.example.com", Port: 8443, Query: "v=2"})

	frames := peer.Frames()
	require.Len(t, frames, 2)

	first := frames[0].(transport.PushPromise)
	require.Equal(t, "GET", first.Method)
	require.Equal(t, "https", first.Scheme)
	require.Equal(t, "example.com", first.Host)
	require.Equal(t, 443, first.Port)
	require.Equal(t, "/style.css", first.Path)
	require.Empty(t, first.Query)
	require.Equal(t, "text/css", first.Headers.Value("accept"))

	second := frames[1].(transport.PushPromise)
	require.Equal(t, "POST", second.Method)
	require.Equal(t, "https", second.Scheme)
	require.Equal(t, "api.example.com", second.Host)
	require.Equal(t, 8443, second.Port)
	require.Equal(t, "v=2", second.Query)
}

func values(headers *kv.Storage, key string) (result []string) {
	for value := range headers.Values(key) {
		result = append(result, value)
	}

	return result
}
