package obslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 전역 로거. InitFromEnv 전까지는 Nop.
var (
	globalLogger *zap.Logger = zap.NewNop()
	runID        string
)

// L는 전역 로거를 반환.
func L() *zap.Logger { return globalLogger }

// RunID identifies this process in every log line; empty before InitFromEnv.
func RunID() string { return runID }

// Settings is the env-derived logger configuration.
type Settings struct {
	Level    zapcore.Level
	Format   string
	Console  bool
	ToFile   bool
	FilePath string
	Caller   bool
}

// SettingsFromEnv reads LOG_*. Console output goes to stderr and is off by
// default because stdout carries the board.
func SettingsFromEnv() Settings {
	format := strings.ToLower(strings.TrimSpace(getenvDefault("LOG_FORMAT", "legacy")))
	if format != "legacy" && format != "json" && format != "console" {
		format = "legacy"
	}
	return Settings{
		Level:    parseLevel(getenvDefault("LOG_LEVEL", "info")),
		Format:   format,
		Console:  strings.EqualFold(getenvDefault("LOG_TO_CONSOLE", "false"), "true"),
		ToFile:   strings.EqualFold(getenvDefault("LOG_TO_FILE", "true"), "true"),
		FilePath: strings.TrimSpace(getenvDefault("LOG_FILE", filepath.Join("logs", "cheese-tv.log"))),
		Caller:   strings.EqualFold(getenvDefault("LOG_CALLER", "false"), "true"),
	}
}

// InitFromEnv는 환경설정으로 zap 로거를 초기화.
func InitFromEnv() error {
	logger, err := New(SettingsFromEnv())
	if err != nil {
		return err
	}
	runID = uuid.NewString()
	globalLogger = logger.With(zap.String("run_id", runID))
	return nil
}

// New builds a logger from s. With no sink enabled it returns a Nop logger.
func New(s Settings) (*zap.Logger, error) {
	var cores []zapcore.Core

	if s.Console {
		cores = append(cores, zapcore.NewCore(encoder(s.Format), zapcore.Lock(os.Stderr), s.Level))
	}

	if s.ToFile {
		if err := ensureDir(filepath.Dir(s.FilePath)); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(s.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder(s.Format), zapcore.AddSync(f), s.Level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if s.Caller || s.Format == "legacy" {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func encoder(format string) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig())
	default:
		return zapcore.NewConsoleEncoder(legacyEncoderConfig())
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// 인코더 설정들
func legacyEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
