// Package tvfeed opens the live TV feed and hands out raw chunks of it.
package tvfeed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultURL       = "https://lichess.org/api/tv/feed"
	defaultUserAgent = "cheese-tv"
	readBufferSize   = 32 * 1024
)

// ErrStatus is returned by Open when the feed answers with a non-2xx status.
var ErrStatus = errors.New("tvfeed: unexpected status")

type chunk struct {
	data []byte
	err  error
}

// Client opens streaming HTTP connections to the feed, one stream at a time.
type Client struct {
	url       string
	http      *fasthttp.Client
	userAgent string

	connM    sync.Mutex
	lastConn net.Conn
}

type Option func(*Client)

// WithConnectTimeout bounds TCP connect. Reads are not bounded: the feed may idle between moves.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		c.http.Dial = func(addr string) (net.Conn, error) {
			return fasthttp.DialTimeout(addr, d)
		}
	}
}

func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

func NewClient(url string, opts ...Option) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	c := &Client{
		url: url,
		http: &fasthttp.Client{
			StreamResponseBody: true,
			MaxConnsPerHost:    1,
			WriteTimeout:       10 * time.Second,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	dial := c.http.Dial
	if dial == nil {
		dial = fasthttp.Dial
	}
	c.http.Dial = func(addr string) (net.Conn, error) {
		conn, err := dial(addr)
		if err == nil {
			c.connM.Lock()
			c.lastConn = conn
			c.connM.Unlock()
		}
		return conn, err
	}
	return c
}

func (c *Client) takeConn() net.Conn {
	c.connM.Lock()
	defer c.connM.Unlock()
	conn := c.lastConn
	c.lastConn = nil
	return conn
}

// Open issues the GET and starts reading the body in the background.
func (c *Client) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.url)
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.SetUserAgent(c.userAgent)
	// A fresh connection per stream, so the one dialed below is the one Close interrupts.
	req.SetConnectionClose()

	// The body outlives this call, so the response is not pooled.
	resp := &fasthttp.Response{}
	if err := c.http.Do(req, resp); err != nil {
		c.takeConn()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	conn := c.takeConn()
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		body, _ := io.ReadAll(io.LimitReader(bodyReader(resp), 512))
		_ = resp.CloseBodyStream()
		if conn != nil {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrStatus, status, strings.TrimSpace(string(body)))
	}

	s := &Stream{
		resp:   resp,
		conn:   conn,
		chunks: make(chan chunk, 16),
		stopCh: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.pump(bodyReader(resp))
	return s, nil
}

func bodyReader(resp *fasthttp.Response) io.Reader {
	if r := resp.BodyStream(); r != nil {
		return r
	}
	return bytes.NewReader(resp.Body())
}

// Stream yields the body as it arrives. Next returns io.EOF once the server
// ends it or after Close. Only the pump goroutine touches the body.
type Stream struct {
	resp   *fasthttp.Response
	conn   net.Conn
	chunks chan chunk

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func (s *Stream) pump(r io.Reader) {
	defer s.wg.Done()
	defer close(s.chunks)
	defer func() { _ = s.resp.CloseBodyStream() }()
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !s.send(chunk{data: data}) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.stopped() {
				s.send(chunk{err: fmt.Errorf("read feed: %w", err)})
			}
			return
		}
	}
}

func (s *Stream) send(c chunk) bool {
	select {
	case s.chunks <- c:
		return true
	case <-s.stopCh:
		return false
	}
}

func (s *Stream) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// Next blocks until the next chunk, the end of the body or ctx cancellation.
func (s *Stream) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case c, ok := <-s.chunks:
		if !ok {
			return nil, io.EOF
		}
		return c.data, c.err
	}
}

// Close interrupts a pending read by closing the connection and waits for the
// reader to release the body. Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.conn != nil {
			if cerr := s.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = cerr
			}
		}
	})
	s.wg.Wait()
	return err
}
