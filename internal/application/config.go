package application

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is shared by server configuration checks and request payload
// validation across the application layer.
var validate = validator.New()

// ServerConfig controls the HTTP server runtime: where it listens, where
// the annotation data directory lives, and how sessions and login
// attempts are bounded. Values come from an optional YAML file with
// command-line flags taking precedence over the file and the file taking
// precedence over defaults.
type ServerConfig struct {
	// Listen is the TCP address the HTTP server binds, in net.Listen
	// form. The default matches the original tool's port.
	Listen string `yaml:"listen" validate:"required"`
	// DataDir is the directory holding config.json, input_data.json and
	// the rest of the flat-file layout.
	DataDir string `yaml:"data_dir" validate:"required"`
	// SessionTTLMinutes is the sliding idle timeout for login sessions.
	SessionTTLMinutes int `yaml:"session_ttl_minutes" validate:"min=1,max=10080"`
	// LoginRatePerMinute caps login attempts per client across the
	// process. Exhausted buckets surface as HTTP 429.
	LoginRatePerMinute float64 `yaml:"login_rate_per_minute" validate:"gt=0"`
	// LoginBurst is the token-bucket burst size for login attempts.
	LoginBurst int `yaml:"login_burst" validate:"min=1"`
}

// DefaultServerConfig returns the configuration used when no file and no
// flags are given.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen:             ":7860",
		DataDir:            "data",
		SessionTTLMinutes:  480,
		LoginRatePerMinute: 6,
		LoginBurst:         5,
	}
}

// SessionTTL returns the session idle timeout as a duration.
func (c ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Validate checks the configuration against its struct tags.
func (c ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	return nil
}

// LoadServerConfig reads the YAML server configuration at path, applied
// on top of the defaults so omitted fields keep their default values.
// An empty path yields the defaults unchanged. Decoding is strict:
// unknown fields fail rather than being silently ignored.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("failed to read server config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict mode - fail on unknown fields.
	if err := decoder.Decode(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("YAML decode failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}
