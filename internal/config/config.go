// Package config reads settings from MEDIAGRAB_* environment variables and an optional config.env file.
package config

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/vm-affekt/mediagrab/internal/platform"
)

const (
	EnvPrefix = "MEDIAGRAB"

	keyMode                = "MODE"
	keyLogFilePath         = "LOG_FILE_PATH"
	keyYtdlpPath           = "YTDLP_PATH"
	keyFfmpegDir           = "FFMPEG_DIR"
	keyDownloadDir         = "DOWNLOAD_DIR"
	keyFetchTimeout        = "FETCH_TIMEOUT"
	keyDownloadTimeout     = "DOWNLOAD_TIMEOUT"
	keyTelegramAPIKey      = "TELEGRAM_API_KEY"
	keyTelegramPollTimeout = "TELEGRAM_LONG_POLLING_TIMEOUT"
	keyUploadMaxFileSizeMB = "UPLOAD_MAX_FILE_SIZE_MB"
	keyHTTPAddr            = "HTTP_ADDR"
)

const (
	DefaultYtdlpPath           = "yt-dlp"
	DefaultFetchTimeout        = 2 * time.Minute
	DefaultTelegramPollTimeout = 60
	DefaultUploadMaxFileSizeMB = 48
	DefaultHTTPAddr            = "127.0.0.1:8765"
)

type Config struct {
	Mode        string
	LogFilePath string

	YtdlpPath string
	// FfmpegDir is handed to yt-dlp as --ffmpeg-location.
	FfmpegDir   string
	DownloadDir string

	FetchTimeout time.Duration
	// DownloadTimeout of zero means no limit.
	DownloadTimeout time.Duration

	TelegramAPIKey      string
	TelegramPollTimeout int
	UploadMaxFileSizeMB int64

	HTTPAddr string

	// UsedFile is the config file that was read, empty when only env vars were used.
	UsedFile string
}

// Load reads the configuration. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath("/etc/mediagrab")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("env")
	return load(v)
}

// LoadFile reads the configuration from an explicit file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(keyYtdlpPath, DefaultYtdlpPath)
	v.SetDefault(keyFetchTimeout, DefaultFetchTimeout)
	v.SetDefault(keyTelegramPollTimeout, DefaultTelegramPollTimeout)
	v.SetDefault(keyUploadMaxFileSizeMB, DefaultUploadMaxFileSizeMB)
	v.SetDefault(keyHTTPAddr, DefaultHTTPAddr)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config (used file: %q): %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{
		Mode:                v.GetString(keyMode),
		LogFilePath:         v.GetString(keyLogFilePath),
		YtdlpPath:           v.GetString(keyYtdlpPath),
		FfmpegDir:           v.GetString(keyFfmpegDir),
		DownloadDir:         v.GetString(keyDownloadDir),
		FetchTimeout:        v.GetDuration(keyFetchTimeout),
		DownloadTimeout:     v.GetDuration(keyDownloadTimeout),
		TelegramAPIKey:      v.GetString(keyTelegramAPIKey),
		TelegramPollTimeout: v.GetInt(keyTelegramPollTimeout),
		UploadMaxFileSizeMB: v.GetInt64(keyUploadMaxFileSizeMB),
		HTTPAddr:            v.GetString(keyHTTPAddr),
		UsedFile:            v.ConfigFileUsed(),
	}

	if cfg.FfmpegDir == "" {
		cfg.FfmpegDir = defaultFfmpegDir(cfg.YtdlpPath)
	}
	if cfg.DownloadDir == "" {
		dir, err := platform.DefaultDownloadDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default download dir: %w", err)
		}
		cfg.DownloadDir = dir
	}
	if !filepath.IsAbs(cfg.DownloadDir) {
		abs, err := filepath.Abs(cfg.DownloadDir)
		if err != nil {
			return nil, fmt.Errorf("failed to make download dir %q absolute: %w", cfg.DownloadDir, err)
		}
		cfg.DownloadDir = abs
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.UploadMaxFileSizeMB <= 0 {
		cfg.UploadMaxFileSizeMB = DefaultUploadMaxFileSizeMB
	}
	return cfg, nil
}

// defaultFfmpegDir prefers the ffmpeg found on PATH and falls back to the yt-dlp
// directory, where bundled builds usually keep it.
func defaultFfmpegDir(ytdlpPath string) string {
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return filepath.Dir(p)
	}
	if p, err := exec.LookPath(ytdlpPath); err == nil {
		return filepath.Dir(p)
	}
	return filepath.Dir(ytdlpPath)
}
