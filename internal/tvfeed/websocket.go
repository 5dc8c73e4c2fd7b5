package tvfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

const wsReadLimit = 1 << 20

// WebSocket reads the feed from a socket relay, one message per frame.
type WebSocket struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// DialWebSocket connects within connectTimeout, or without a bound when it is zero.
func DialWebSocket(ctx context.Context, url, userAgent string, connectTimeout time.Duration) (*WebSocket, error) {
	dialCtx := ctx
	if connectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}
	hdr := http.Header{}
	if strings.TrimSpace(userAgent) != "" {
		hdr.Set("User-Agent", userAgent)
	}
	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      hdr,
	})
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	conn.SetReadLimit(wsReadLimit)
	return &WebSocket{conn: conn}, nil
}

// Next returns the next frame. A normal closure from the server is io.EOF.
func (ws *WebSocket) Next(ctx context.Context) ([]byte, error) {
	_, data, err := ws.conn.Read(ctx)
	if err != nil {
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("read websocket: %w", err)
	}
	return data, nil
}

func (ws *WebSocket) Close() error {
	ws.closeOnce.Do(func() {
		ws.closeErr = ws.conn.Close(websocket.StatusNormalClosure, "close")
	})
	return ws.closeErr
}
