package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

// Credential store coordinates shared with the desktop shell.
const (
	CredentialService = "com.headassbtw"
	CredentialAccount = "resbox"
)

type Config struct {
	APIBaseURL            string `env:"RESBOX_API_BASE_URL" envDefault:"https://api.resonite.com/"`
	HubURL                string `env:"RESBOX_HUB_URL" envDefault:"https://api.resonite.com/hub"`
	UserAgent             string `env:"RESBOX_USER_AGENT" envDefault:"resbox/0.1"`
	Username              string `env:"RESBOX_USERNAME"`
	StatusRefreshSeconds  int    `env:"RESBOX_STATUS_REFRESH_SECONDS" envDefault:"10"`
	RequestTimeoutSeconds int    `env:"RESBOX_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	BridgePort            int    `env:"RESBOX_BRIDGE_PORT" envDefault:"7420"`
	BridgeToken           string `env:"RESBOX_BRIDGE_TOKEN"`
	CredentialDir         string `env:"RESBOX_CREDENTIAL_DIR"`
	RedisURL              string `env:"REDIS_URL"`
	DatabaseURL           string `env:"DATABASE_URL"`
	EncryptionKey         string `env:"ENCRYPTION_KEY"`
	ArchiveRetentionDays  int    `env:"ARCHIVE_RETENTION_DAYS" envDefault:"90"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) StatusRefreshInterval() time.Duration {
	return time.Duration(c.StatusRefreshSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) ArchiveRetention() time.Duration {
	return time.Duration(c.ArchiveRetentionDays) * 24 * time.Hour
}

// BridgeAddr only ever binds loopback; the control API is not meant to be reachable remotely.
func (c *Config) BridgeAddr() string {
	return fmt.Sprintf("127.0.0.1:%d", c.BridgePort)
}

func (c *Config) Validate() error {
	if err := validateHTTPURL("RESBOX_API_BASE_URL", c.APIBaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("RESBOX_HUB_URL", c.HubURL); err != nil {
		return err
	}
	if c.StatusRefreshSeconds <= 0 {
		return fmt.Errorf("RESBOX_STATUS_REFRESH_SECONDS must be positive")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("RESBOX_REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.BridgePort <= 0 || c.BridgePort > 65535 {
		return fmt.Errorf("RESBOX_BRIDGE_PORT must be a valid TCP port")
	}
	if c.ArchiveRetentionDays <= 0 {
		return fmt.Errorf("ARCHIVE_RETENTION_DAYS must be positive")
	}
	if c.EncryptionKey != "" {
		key, err := hex.DecodeString(c.EncryptionKey)
		if err != nil || len(key) != 32 {
			return fmt.Errorf("ENCRYPTION_KEY must be 32 bytes hex encoded (generate with: openssl rand -hex 32)")
		}
	}

	if c.BridgeToken == "" {
		log.Warn().Msg("RESBOX_BRIDGE_TOKEN is empty: local control API accepts unauthenticated requests")
	}
	if c.EncryptionKey == "" {
		log.Warn().Msg("ENCRYPTION_KEY is empty: session tokens are stored unencrypted")
	}

	return nil
}

func validateHTTPURL(name, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("%s must use http or https", name)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.CredentialDir == "" {
		cfg.CredentialDir = defaultCredentialDir()
	}
	return &cfg, nil
}

func defaultCredentialDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "resbox", "credentials")
}
