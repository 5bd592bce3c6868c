package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Database     DatabaseConfig     `json:"database"`
	Port         int                `json:"port"`
	JWTSecret    string             `json:"jwt_secret"`
	JWTTTLHours  int                `json:"jwt_ttl_hours"`
	LogConfig    logger.LogConfig   `json:"log_config"`
	CORSAllow    []string           `json:"cors_allowlist"`
	Embedding    EmbeddingConfig    `json:"embedding"`
	Notification NotificationConfig `json:"notification"`
	Properties   Properties         `json:"properties"`
	Schedule     ScheduleConfig     `json:"schedule"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type EmbeddingConfig struct {
	Provider        string                 `json:"provider"`
	Model           string                 `json:"model"`
	CacheSize       int                    `json:"cache_size"`
	CacheTTLMinutes int                    `json:"cache_ttl_minutes"`
	Data            map[string]interface{} `json:"data"`
}

type NotificationConfig struct {
	Enable    bool   `json:"enable"`
	ServerKey string `json:"server_key"`
	Endpoint  string `json:"endpoint"`
}

type Properties struct {
	// CopyRespectsBan extends the share-path ban check to copyToWorkspace.
	CopyRespectsBan bool `json:"copy_respects_ban"`
	ChatPushEnabled bool `json:"chat_push_enabled"`
}

type ScheduleConfig struct {
	EmbeddingBackfillSpec string `json:"embedding_backfill_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Embedding.Provider == "" {
		return nil, fmt.Errorf("embedding.provider is required")
	}
	if cfg.Embedding.Model == "" {
		return nil, fmt.Errorf("embedding.model is required")
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 4096
	}
	if cfg.Embedding.CacheTTLMinutes == 0 {
		cfg.Embedding.CacheTTLMinutes = 120
	}
	if cfg.Notification.Enable && cfg.Notification.ServerKey == "" {
		return nil, fmt.Errorf("notification.server_key is required when notification.enable is set")
	}
	if cfg.Schedule.EmbeddingBackfillSpec == "" {
		cfg.Schedule.EmbeddingBackfillSpec = "*/10 * * * *"
	}
	return &cfg, nil
}
