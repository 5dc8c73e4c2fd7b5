package tvfeed

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func wsServer(t *testing.T, handle func(ctx context.Context, c *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		handle(r.Context(), c)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketFramesThenNormalClosure(t *testing.T) {
	url := wsServer(t, func(ctx context.Context, c *websocket.Conn) {
		_ = c.Write(ctx, websocket.MessageText, []byte(updateLine))
		_ = c.Close(websocket.StatusNormalClosure, "done")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, err := DialWebSocket(ctx, url, "cheese-tv-test", time.Second)
	require.NoError(t, err)
	defer ws.Close()

	data, err := ws.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, updateLine, string(data))

	_, err = ws.Next(ctx)
	assert.True(t, errors.Is(err, io.EOF), "got %v", err)
}

func TestWebSocketAbnormalClosureIsFatal(t *testing.T) {
	url := wsServer(t, func(ctx context.Context, c *websocket.Conn) {
		_ = c.Close(websocket.StatusInternalError, "boom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, err := DialWebSocket(ctx, url, "", 0)
	require.NoError(t, err)
	defer ws.Close()

	_, err = ws.Next(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
	assert.Equal(t, websocket.StatusInternalError, websocket.CloseStatus(err))
}

func TestDialWebSocketFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := DialWebSocket(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), "", time.Second)
	assert.Error(t, err)
}
