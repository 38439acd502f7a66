// Package config loads this server's static configuration: listen
// address, connection timeouts, the buffer pool's sizing, and the
// export this server advertises over MOUNT. Configuration sources are
// layered with spf13/viper — environment variables, then a config file,
// then defaults. No CLI flag sets a configuration value; the only flag
// involved is --config, which names the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/go-nfsd/nfsd3/internal/bytesize"
)

// Config is this server's static configuration.
//
// Configuration sources, in order of precedence (highest first):
//  1. Environment variables (NFSD3_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// With a config file, an environment variable overrides only a key the
// file sets. Without one, only NFSD3_SERVER_LISTEN_ADDR and
// NFSD3_LOGGING_LEVEL are read from the environment.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Pool    PoolConfig    `mapstructure:"pool" yaml:"pool"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// ServerConfig controls the TCP listener and per-connection limits.
type ServerConfig struct {
	// ListenAddr is the address the NFS and MOUNT RPC services bind to.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`

	// MaxRequestsPerConnection bounds how many requests a single
	// connection may have in flight at once, mirroring the teacher's
	// NFSAdapter.MaxRequestsPerConnection semaphore.
	MaxRequestsPerConnection int `mapstructure:"max_requests_per_connection" yaml:"max_requests_per_connection"`

	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`
}

// TimeoutsConfig controls per-connection network deadlines.
type TimeoutsConfig struct {
	Read     time.Duration `mapstructure:"read" yaml:"read"`
	Idle     time.Duration `mapstructure:"idle" yaml:"idle"`
	Shutdown time.Duration `mapstructure:"shutdown" yaml:"shutdown"`
}

// PoolConfig sizes the shared buffer pool bulk READ/WRITE payloads are
// staged through.
type PoolConfig struct {
	// BufferSize is the size of one pool buffer. Supports human-readable
	// sizes: "64Ki", "1Mi".
	BufferSize bytesize.ByteSize `mapstructure:"buffer_size" yaml:"buffer_size"`
	// Count is the number of buffers in the pool.
	Count int `mapstructure:"count" yaml:"count"`
}

// ExportConfig controls what this server advertises over MOUNT.
type ExportConfig struct {
	// Groups lists the client patterns advertised for the export in
	// MOUNT EXPORT replies. MNT does not check clients against it.
	Groups []string `mapstructure:"groups" yaml:"groups"`
}

// Load loads configuration from a file, falling back to defaults, and
// layering environment variable overrides (NFSD3_* prefix) on top.
// configPath == "" looks for nfsd3.yaml in the working directory; when no
// config file is found, Load returns defaults plus the environment
// overrides bindEnvOverrides reads.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if !found {
		bindEnvOverrides(v, cfg)
		return cfg, nil
	}

	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NFSD3")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("nfsd3")
		v.SetConfigType("yaml")
	}
	v.SetFs(afero.NewOsFs())
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

// bindEnvOverrides applies NFSD3_* environment variables on top of cfg
// when no config file was present to unmarshal through viper's own
// reflection path.
func bindEnvOverrides(v *viper.Viper, cfg *Config) {
	if val := os.Getenv("NFSD3_SERVER_LISTEN_ADDR"); val != "" {
		cfg.Server.ListenAddr = val
	}
	if val := os.Getenv("NFSD3_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// byteSizeDecodeHook lets config files express pool.buffer_size as a
// human-readable string ("64Ki") or a raw number of bytes.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// DefaultConfig returns a Config pre-populated with this server's
// defaults; Load falls back to it, plus bindEnvOverrides, when no config
// file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields of cfg with defaults, following
// the teacher's zero-value-means-unset convention.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":2049"
	}
	if cfg.Server.MaxRequestsPerConnection == 0 {
		cfg.Server.MaxRequestsPerConnection = 100
	}
	if cfg.Server.Timeouts.Read == 0 {
		cfg.Server.Timeouts.Read = 60 * time.Second
	}
	if cfg.Server.Timeouts.Idle == 0 {
		cfg.Server.Timeouts.Idle = 5 * time.Minute
	}
	if cfg.Server.Timeouts.Shutdown == 0 {
		cfg.Server.Timeouts.Shutdown = 10 * time.Second
	}

	if cfg.Pool.BufferSize == 0 {
		cfg.Pool.BufferSize = bytesize.ByteSize(64 * 1024)
	}
	if cfg.Pool.Count == 0 {
		cfg.Pool.Count = 64
	}
}

// SaveConfig writes cfg to path as YAML, matching the teacher's
// 0600-permissioned config write (config may carry export ACLs an
// operator would not want world-readable).
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	v := viper.New()
	v.Set("logging", cfg.Logging)
	v.Set("server", cfg.Server)
	v.Set("pool", cfg.Pool)
	v.Set("export", cfg.Export)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return os.Chmod(path, 0o600)
}
