package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type UpstreamConfig struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	DatamartPath string
}

type ReportConfig struct {
	Timezone            string
	Location            *time.Location
	HardStart           time.Time
	RankingColumns      int
	PortraitDefaultDays int
	PortraitPageSize    int
	AllCitiesLabel      string
	CityCacheTTL        time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Upstream    UpstreamConfig
	Report      ReportConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 7086)
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")
	v.SetDefault("DATAMART_PATH", "/web_api/datamart")
	v.SetDefault("REPORT_TIMEZONE", "Asia/Shanghai")
	v.SetDefault("REPORT_HARD_START", "2017-01-01")
	v.SetDefault("RANKING_COLUMNS", 7)
	v.SetDefault("PORTRAIT_DEFAULT_DAYS", 10)
	v.SetDefault("PORTRAIT_PAGE_SIZE", 10)
	v.SetDefault("ALL_CITIES_LABEL", "全国")
	v.SetDefault("CITY_CACHE_TTL", "10m")

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: splitCSV(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Upstream: UpstreamConfig{
			BaseURL:      v.GetString("UPSTREAM_BASE_URL"),
			Token:        v.GetString("UPSTREAM_TOKEN"),
			Timeout:      v.GetDuration("UPSTREAM_TIMEOUT"),
			DatamartPath: v.GetString("DATAMART_PATH"),
		},
		Report: ReportConfig{
			Timezone:            v.GetString("REPORT_TIMEZONE"),
			RankingColumns:      v.GetInt("RANKING_COLUMNS"),
			PortraitDefaultDays: v.GetInt("PORTRAIT_DEFAULT_DAYS"),
			PortraitPageSize:    v.GetInt("PORTRAIT_PAGE_SIZE"),
			AllCitiesLabel:      v.GetString("ALL_CITIES_LABEL"),
			CityCacheTTL:        v.GetDuration("CITY_CACHE_TTL"),
		},
	}

	loc, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}
	cfg.Report.Location = loc

	hardStart, err := time.ParseInLocation("2006-01-02", v.GetString("REPORT_HARD_START"), loc)
	if err != nil {
		return nil, fmt.Errorf("REPORT_HARD_START: %w", err)
	}
	cfg.Report.HardStart = hardStart

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if cfg.Report.RankingColumns < 1 {
		return fmt.Errorf("RANKING_COLUMNS must be at least 1")
	}
	if cfg.Report.PortraitDefaultDays < 1 || cfg.Report.PortraitPageSize < 1 {
		return fmt.Errorf("PORTRAIT_DEFAULT_DAYS and PORTRAIT_PAGE_SIZE must be at least 1")
	}
	return nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
