package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gzhole/kubeshield/internal/policy"
)

const (
	DefaultConfigDir      = ".kubeshield"
	DefaultSecurityFile   = "security.yaml"
	DefaultLogFile        = "audit.jsonl"
	DefaultTimeoutSeconds = 300
	DefaultMaxOutput      = 100000
	DefaultTransport      = "stdio"
	DefaultNamespace      = "default"
)

// Environment variables read by Load.
const (
	EnvTimeout        = "K8S_MCP_TIMEOUT"
	EnvMaxOutput      = "K8S_MCP_MAX_OUTPUT"
	EnvTransport      = "K8S_MCP_TRANSPORT"
	EnvContext        = "K8S_CONTEXT"
	EnvNamespace      = "K8S_NAMESPACE"
	EnvSecurityMode   = "K8S_MCP_SECURITY_MODE"
	EnvSecurityConfig = "K8S_MCP_SECURITY_CONFIG"
	EnvAuditLog       = "KUBESHIELD_AUDIT_LOG"
	EnvLogLevel       = "KUBESHIELD_LOG_LEVEL"
)

type Config struct {
	// Timeout is the default per-command timeout.
	Timeout   time.Duration
	MaxOutput int
	Transport string

	KubeContext string
	Namespace   string

	Mode               policy.Mode
	SecurityConfigPath string
	AuditLogPath       string
	LogLevel           string
	ConfigDir          string
}

// Load reads the environment and applies the non-empty arguments on top.
// The config directory is created if missing.
func Load(securityConfigPath, auditLogPath, mode string) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)

	if err := ensureDir(configDir); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(configDir)

	if securityConfigPath != "" {
		v.Set("security_config", securityConfigPath)
	}
	if auditLogPath != "" {
		v.Set("audit_log", auditLogPath)
	}
	if mode != "" {
		v.Set("security_mode", mode)
	}

	timeout := v.GetInt("timeout")
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid %s %q: must be a positive number of seconds", EnvTimeout, v.GetString("timeout"))
	}
	maxOutput := v.GetInt("max_output")
	if maxOutput < 0 {
		return nil, fmt.Errorf("invalid %s %q: must not be negative", EnvMaxOutput, v.GetString("max_output"))
	}

	return &Config{
		Timeout:            time.Duration(timeout) * time.Second,
		MaxOutput:          maxOutput,
		Transport:          strings.ToLower(v.GetString("transport")),
		KubeContext:        v.GetString("context"),
		Namespace:          v.GetString("namespace"),
		Mode:               policy.ParseMode(v.GetString("security_mode")),
		SecurityConfigPath: v.GetString("security_config"),
		AuditLogPath:       v.GetString("audit_log"),
		LogLevel:           v.GetString("log_level"),
		ConfigDir:          configDir,
	}, nil
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()

	v.SetDefault("timeout", DefaultTimeoutSeconds)
	v.SetDefault("max_output", DefaultMaxOutput)
	v.SetDefault("transport", DefaultTransport)
	v.SetDefault("context", "")
	v.SetDefault("namespace", DefaultNamespace)
	v.SetDefault("security_mode", string(policy.ModeStrict))
	v.SetDefault("security_config", filepath.Join(configDir, DefaultSecurityFile))
	v.SetDefault("audit_log", filepath.Join(configDir, DefaultLogFile))
	v.SetDefault("log_level", "info")

	// BindEnv only fails when called without a key.
	_ = v.BindEnv("timeout", EnvTimeout)
	_ = v.BindEnv("max_output", EnvMaxOutput)
	_ = v.BindEnv("transport", EnvTransport)
	_ = v.BindEnv("context", EnvContext)
	_ = v.BindEnv("namespace", EnvNamespace)
	_ = v.BindEnv("security_mode", EnvSecurityMode)
	_ = v.BindEnv("security_config", EnvSecurityConfig)
	_ = v.BindEnv("audit_log", EnvAuditLog)
	_ = v.BindEnv("log_level", EnvLogLevel)

	return v
}

// SlogLevel maps LogLevel onto a slog level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}
