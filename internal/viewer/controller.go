// Package viewer runs the read, apply, render and poll loop that keeps the
// terminal in sync with the feed.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-tv/internal/feed"
	"github.com/park285/cheese-tv/internal/fen"
	"github.com/park285/cheese-tv/internal/game"
	"github.com/park285/cheese-tv/internal/metrics"
)

// Source yields raw feed chunks. io.EOF ends the session normally.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// Poller reports whether the stop command arrived within timeout.
type Poller interface {
	Poll(timeout time.Duration) (bool, error)
}

type Renderer interface {
	Render(v game.View) error
}

type Controller struct {
	source      Source
	poller      Poller
	renderer    Renderer
	store       *game.Store
	logger      *zap.Logger
	metrics     *metrics.Recorder
	pollTimeout time.Duration
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithPollTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollTimeout = d
		}
	}
}

func WithStore(s *game.Store) Option {
	return func(c *Controller) {
		if s != nil {
			c.store = s
		}
	}
}

func New(source Source, poller Poller, renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		source:      source,
		poller:      poller,
		renderer:    renderer,
		store:       game.NewStore(),
		logger:      zap.NewNop(),
		pollTimeout: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) View() game.View { return c.store.View() }

// Run loops until the stop key, the end of the feed or ctx cancellation, all
// of which return nil. Transport, input and draw failures are returned.
func (c *Controller) Run(ctx context.Context) error {
	for {
		chunk, err := c.source.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				c.logger.Info("feed_ended")
				return nil
			case ctx.Err() != nil:
				return nil
			default:
				return fmt.Errorf("read feed: %w", err)
			}
		}
		c.metrics.Chunk()

		for _, doc := range feed.Split(chunk) {
			if err := c.handle(doc); err != nil {
				return err
			}
		}

		stop, err := c.poller.Poll(c.pollTimeout)
		if err != nil {
			return fmt.Errorf("poll input: %w", err)
		}
		if stop {
			c.logger.Info("stop_requested")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handle applies one document. Only a render failure is returned; anything
// wrong with the document itself is logged and dropped.
func (c *Controller) handle(doc []byte) error {
	msg, err := feed.Parse(doc)
	if err == nil && strings.TrimSpace(msg.Position()) != "" {
		_, err = fen.Decode(msg.Position())
	}
	if err != nil {
		reason := discardReason(err)
		c.metrics.Discard(reason)
		c.logger.Debug("feed_discard", zap.String("reason", reason), zap.Error(err), zap.Int("bytes", len(doc)))
		return nil
	}

	c.store.Apply(msg)
	c.metrics.Message(msg.Type())
	if f, ok := msg.(*feed.Feature); ok {
		c.logger.Info("feature_applied",
			zap.String("game_id", f.ID),
			zap.String("white", f.White.Identity.Name),
			zap.String("black", f.Black.Identity.Name),
		)
	}

	if err := c.renderer.Render(c.store.View()); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	c.metrics.Render()
	return nil
}

func discardReason(err error) string {
	switch {
	case feed.IsTransient(err):
		return "syntax"
	case errors.Is(err, feed.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, feed.ErrMissingField):
		return "missing_field"
	case errors.Is(err, feed.ErrColor):
		return "color"
	case errors.Is(err, feed.ErrShortPosition):
		return "short_position"
	case errors.Is(err, fen.ErrMalformedPosition):
		return "malformed_position"
	default:
		return "payload"
	}
}
