package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TransportHTTP = "http"
	TransportWS   = "ws"

	DefaultFeedURL     = "https://lichess.org/api/tv/feed"
	defaultConfigFile  = "cheese-tv.yaml"
	defaultPollTimeout = 100 * time.Millisecond
	defaultConnectTO   = 10 * time.Second
)

type Theme struct {
	DarkSquare  string `yaml:"dark_square"`
	LightSquare string `yaml:"light_square"`
	WhitePiece  string `yaml:"white_piece"`
	BlackPiece  string `yaml:"black_piece"`
	Highlight   string `yaml:"highlight"`
}

type AppConfig struct {
	FeedURL        string
	Transport      string
	PollTimeout    time.Duration
	ConnectTimeout time.Duration
	UserAgent      string

	MetricsAddr string
	MessagesDir string

	Theme Theme
}

// fileConfig mirrors cheese-tv.yaml; zero values leave defaults alone.
type fileConfig struct {
	FeedURL          string `yaml:"feed_url"`
	Transport        string `yaml:"transport"`
	PollTimeoutMS    int    `yaml:"poll_timeout_ms"`
	ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
	UserAgent        string `yaml:"user_agent"`
	MetricsAddr      string `yaml:"metrics_addr"`
	MessagesDir      string `yaml:"messages_dir"`
	Theme            Theme  `yaml:"theme"`
}

func Default() *AppConfig {
	return &AppConfig{
		FeedURL:        DefaultFeedURL,
		Transport:      TransportHTTP,
		PollTimeout:    defaultPollTimeout,
		ConnectTimeout: defaultConnectTO,
		UserAgent:      "cheese-tv",
	}
}

// Load applies defaults, then the YAML file (CHEESE_TV_CONFIG or ./cheese-tv.yaml
// when present), then env overrides.
func Load() (*AppConfig, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv("CHEESE_TV_CONFIG"))
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) mergeFile(path string, required bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.FeedURL, fc.FeedURL)
	setString(&c.Transport, fc.Transport)
	setString(&c.UserAgent, fc.UserAgent)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	setString(&c.MessagesDir, fc.MessagesDir)
	if fc.PollTimeoutMS != 0 {
		c.PollTimeout = time.Duration(fc.PollTimeoutMS) * time.Millisecond
	}
	if fc.ConnectTimeoutMS != 0 {
		c.ConnectTimeout = time.Duration(fc.ConnectTimeoutMS) * time.Millisecond
	}
	setString(&c.Theme.DarkSquare, fc.Theme.DarkSquare)
	setString(&c.Theme.LightSquare, fc.Theme.LightSquare)
	setString(&c.Theme.WhitePiece, fc.Theme.WhitePiece)
	setString(&c.Theme.BlackPiece, fc.Theme.BlackPiece)
	setString(&c.Theme.Highlight, fc.Theme.Highlight)
	return nil
}

func (c *AppConfig) mergeEnv() error {
	setString(&c.FeedURL, os.Getenv("FEED_URL"))
	setString(&c.Transport, os.Getenv("FEED_TRANSPORT"))
	setString(&c.MetricsAddr, os.Getenv("METRICS_ADDR"))
	setString(&c.MessagesDir, os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("POLL_TIMEOUT_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLL_TIMEOUT_MS: %w", err)
		}
		c.PollTimeout = time.Duration(n) * time.Millisecond
	}
	if v := strings.TrimSpace(os.Getenv("CONNECT_TIMEOUT_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONNECT_TIMEOUT_MS: %w", err)
		}
		c.ConnectTimeout = time.Duration(n) * time.Millisecond
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.FeedURL) == "" {
		return errors.New("feed url is required")
	}
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	if c.Transport != TransportHTTP && c.Transport != TransportWS {
		return fmt.Errorf("unknown transport %q (want http or ws)", c.Transport)
	}
	if c.PollTimeout <= 0 {
		return errors.New("poll timeout must be positive")
	}
	if c.ConnectTimeout < 0 {
		return errors.New("connect timeout must not be negative")
	}
	return nil
}

func setString(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}
