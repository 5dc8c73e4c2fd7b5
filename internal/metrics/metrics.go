// Package metrics counts feed traffic and frames and can expose them for scraping.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

const namespace = "cheese_tv"

// Recorder is safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry
	chunks   prometheus.Counter
	messages *prometheus.CounterVec
	discards *prometheus.CounterVec
	renders  prometheus.Counter
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_chunks_total",
			Help:      "Chunks read from the feed.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_messages_total",
			Help:      "Messages applied, by type.",
		}, []string{"type"}),
		discards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_discards_total",
			Help:      "Documents discarded, by reason.",
		}, []string{"reason"}),
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rendered_total",
			Help:      "Frames drawn to the terminal.",
		}),
	}
	r.registry.MustRegister(r.chunks, r.messages, r.discards, r.renders)
	return r
}

func (r *Recorder) Chunk() {
	if r != nil {
		r.chunks.Inc()
	}
}

func (r *Recorder) Message(typ string) {
	if r != nil {
		r.messages.WithLabelValues(typ).Inc()
	}
}

func (r *Recorder) Discard(reason string) {
	if r != nil {
		r.discards.WithLabelValues(reason).Inc()
	}
}

func (r *Recorder) Render() {
	if r != nil {
		r.renders.Inc()
	}
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Serve exposes /metrics on addr until ctx is done. An empty addr is a no-op.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if strings.TrimSpace(addr) == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	promHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	srv := &fasthttp.Server{
		Name: "cheese-tv",
		Handler: func(c *fasthttp.RequestCtx) {
			if string(c.Path()) != "/metrics" {
				c.SetStatusCode(fasthttp.StatusNotFound)
				return
			}
			promHandler(c)
		},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()
	logger.Info("metrics_listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		if err := srv.Shutdown(); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}
}
