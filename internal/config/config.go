package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string
	HTTPTimeout     time.Duration
	LogLevel        slog.Level
	Source          string
	SourceURL       string
	SQLitePath      string
	RefreshInterval time.Duration
	MockJitter      float64
	SinkURL         string
	SinkSecret      string
	ReportTitle     string
	ExportDelay     time.Duration
}

const (
	SourceMock   = "mock"
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
)

// FromEnv reads the process environment, a .env file and an optional
// config.yaml (. or ./config). Environment wins over the file.
func FromEnv() Config {
	_ = godotenv.Load() // .env es opcional

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			slog.Warn("config file ignored", slog.String("err", err.Error()))
		}
	}
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 15)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SOURCE", SourceMock)
	v.SetDefault("SQLITE_PATH", "data/campaigns.db")
	v.SetDefault("REFRESH_INTERVAL", "30s")
	v.SetDefault("MOCK_JITTER", 0.05)
	v.SetDefault("REPORT_TITLE", "Campaign Performance Report")
	v.SetDefault("EXPORT_DELAY", "0s")
}

func fromViper(v *viper.Viper) Config {
	to := time.Duration(v.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second
	if to <= 0 {
		to = 15 * time.Second
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		lvl = slog.LevelInfo
	}
	src := strings.ToLower(strings.TrimSpace(v.GetString("SOURCE")))
	switch src {
	case SourceMock, SourceHTTP, SourceSQLite:
	default:
		src = SourceMock
	}
	jitter := v.GetFloat64("MOCK_JITTER")
	if jitter < 0 || jitter >= 1 {
		jitter = 0
	}
	return Config{
		Port:            v.GetString("PORT"),
		HTTPTimeout:     to,
		LogLevel:        lvl,
		Source:          src,
		SourceURL:       v.GetString("SOURCE_URL"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		RefreshInterval: nonNeg(v.GetDuration("REFRESH_INTERVAL")),
		MockJitter:      jitter,
		SinkURL:         v.GetString("SINK_URL"),
		SinkSecret:      v.GetString("SINK_SECRET"),
		ReportTitle:     v.GetString("REPORT_TITLE"),
		ExportDelay:     nonNeg(v.GetDuration("EXPORT_DELAY")),
	}
}

func nonNeg(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
