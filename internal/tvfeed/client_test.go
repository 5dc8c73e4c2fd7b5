package tvfeed

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const updateLine = `{"t":"fen","d":{"fen":"4rbk1/1b1q1pp1/1n2p3/2ppP1BP/1nP3N1/1P3NP1/5PB1/rQ2R1K1 w","lm":"a8a1","wc":37,"bc":30}}` + "\n"

func serve(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})
	return NewClient("http://feed.test/api/tv/feed", WithDial(func(string) (net.Conn, error) {
		return ln.Dial()
	}))
}

func readAll(t *testing.T, s *Stream) []byte {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out []byte
	for {
		data, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, data...)
	}
}

func TestStreamDeliversBodyThenEOF(t *testing.T) {
	var gotUA, gotAccept string
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		gotUA = string(ctx.UserAgent())
		gotAccept = string(ctx.Request.Header.Peek("Accept"))
		ctx.SetContentType("application/x-ndjson")
		ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
			_, _ = w.WriteString(updateLine)
			_ = w.Flush()
			_, _ = w.WriteString(updateLine)
			_ = w.Flush()
		})
	})

	s, err := c.Open(context.Background())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, updateLine+updateLine, string(readAll(t, s)))
	assert.Equal(t, defaultUserAgent, gotUA)
	assert.Equal(t, "application/x-ndjson", gotAccept)
}

func TestOpenRejectsNon2xx(t *testing.T) {
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
		ctx.SetBodyString("slow down")
	})

	_, err := c.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "429")
}

func TestNextHonorsContext(t *testing.T) {
	release := make(chan struct{})
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
			_, _ = w.WriteString(updateLine)
			_ = w.Flush()
			<-release
		})
	})
	defer close(release)

	s, err := c.Open(context.Background())
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	data, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, updateLine, string(data))

	cancel()
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenCanceledContext(t *testing.T) {
	c := NewClient("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, DefaultURL, c.url)
}

func TestCloseWhileServerIdle(t *testing.T) {
	release := make(chan struct{})
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
			_, _ = w.WriteString(updateLine)
			_ = w.Flush()
			<-release
		})
	})

	s, err := c.Open(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	data, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, updateLine, string(data))

	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()
	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on an idle stream")
	}

	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, s.Close())

	close(release)
}
