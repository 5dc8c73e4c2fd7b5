package viewerbuilder

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/cheese-tv/internal/config"
	"github.com/park285/cheese-tv/internal/metrics"
	"github.com/park285/cheese-tv/internal/msgcat"
	"github.com/park285/cheese-tv/internal/screen"
	"github.com/park285/cheese-tv/internal/tvfeed"
)

// FeedSource is an opened feed connection.
type FeedSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

type Deps struct {
	Config  *config.AppConfig
	Catalog *msgcat.Catalog
	Metrics *metrics.Recorder
	Theme   screen.Theme
	Logger  *zap.Logger
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	return &Deps{
		Config:  cfg,
		Catalog: catalog,
		Metrics: metrics.New(),
		Theme:   ThemeFrom(cfg.Theme),
		Logger:  logger,
	}, nil
}

// OpenFeed connects with the configured transport.
func (d *Deps) OpenFeed(ctx context.Context) (FeedSource, error) {
	cfg := d.Config
	d.Logger.Info("feed_connecting", zap.String("url", cfg.FeedURL), zap.String("transport", cfg.Transport))
	switch cfg.Transport {
	case config.TransportWS:
		ws, err := tvfeed.DialWebSocket(ctx, cfg.FeedURL, cfg.UserAgent, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return ws, nil
	case config.TransportHTTP:
		client := tvfeed.NewClient(cfg.FeedURL,
			tvfeed.WithConnectTimeout(cfg.ConnectTimeout),
			tvfeed.WithUserAgent(cfg.UserAgent),
		)
		stream, err := client.Open(ctx)
		if err != nil {
			return nil, err
		}
		return stream, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// ThemeFrom overlays the configured colors on the default theme.
func ThemeFrom(c config.Theme) screen.Theme {
	t := screen.DefaultTheme()
	pick := func(dst *string, v string) {
		if s := strings.TrimSpace(v); s != "" {
			*dst = s
		}
	}
	pick(&t.DarkSquare, c.DarkSquare)
	pick(&t.LightSquare, c.LightSquare)
	pick(&t.WhitePiece, c.WhitePiece)
	pick(&t.BlackPiece, c.BlackPiece)
	pick(&t.Highlight, c.Highlight)
	return t
}
