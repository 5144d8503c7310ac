// Copyright 2025 Certen Protocol
//
// Static platform configuration loader: fee tables, epoch/upgrade
// scheduling, and CometBFT consensus timing, loaded from a YAML file
// with ${VAR_NAME} environment substitution. This complements Load()
// (env-only, secrets and connection strings) with the larger structured
// settings a node operator tunes per network (devnet/testnet/mainnet).

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PlatformConfig holds all network-tunable configuration for a platformd node.
type PlatformConfig struct {
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`

	Protocol   ProtocolSettings   `yaml:"protocol"`
	Fees       map[string]FeeTableSettings `yaml:"fees"` // keyed by protocol version, e.g. "1"
	Validator  ValidatorSettings  `yaml:"validator"`
	Database   DatabaseSettings   `yaml:"database"`
	Security   SecuritySettings   `yaml:"security"`
	Monitoring MonitoringSettings `yaml:"monitoring"`
	CometBFT   CometBFTSettings   `yaml:"cometbft"`
}

// ProtocolSettings contains protocol-version-upgrade (PVR) schedule settings.
type ProtocolSettings struct {
	InitialVersion            uint32  `yaml:"initial_version"`
	EpochLengthBlocks         int64   `yaml:"epoch_length_blocks"`
	UpgradePercentageRequired float64 `yaml:"upgrade_percentage_required"`
	UpgradeWindowEpochs       int     `yaml:"upgrade_window_epochs"`
}

// FeeTableSettings mirrors pkg/costs.FeeTable for YAML configuration of a
// given protocol version's fee schedule.
type FeeTableSettings struct {
	StorageCreditsPerByte    uint64 `yaml:"storage_credits_per_byte"`
	ProcessingCreditsPerOp   uint64 `yaml:"processing_credits_per_op"`
	ProcessingCreditsPerHash uint64 `yaml:"processing_credits_per_hash"`
	RefundEpochs             uint16 `yaml:"refund_epochs"`
}

// ValidatorSettings contains validator/masternode identity configuration.
type ValidatorSettings struct {
	ID                string   `yaml:"id"`
	BLSPrivateKeyPath string   `yaml:"bls_private_key_path"`
	BLSPublicKeyPath  string   `yaml:"bls_public_key_path"`
	Ed25519KeyPath    string   `yaml:"ed25519_key_path"`
	QuorumPeers       []string `yaml:"quorum_peers"` // URLs of peer masternodes for quorum signature gossip
}

// DatabaseSettings contains read-index database configuration.
type DatabaseSettings struct {
	URL            string   `yaml:"url"`
	MaxConnections int      `yaml:"max_connections"`
	MinConnections int      `yaml:"min_connections"`
	MaxIdleTime    Duration `yaml:"max_idle_time"`
	MaxLifetime    Duration `yaml:"max_lifetime"`
	Required       bool     `yaml:"required"`
	LogQueries     bool     `yaml:"log_queries"`
}

// SecuritySettings contains security configuration for the query API.
type SecuritySettings struct {
	TLS       TLSSettings       `yaml:"tls"`
	Auth      AuthSettings      `yaml:"auth"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`
	CORS      CORSSettings      `yaml:"cors"`
}

// TLSSettings contains TLS configuration.
type TLSSettings struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	MinVersion string `yaml:"min_version"`
}

// AuthSettings contains authentication configuration.
type AuthSettings struct {
	Enabled   bool     `yaml:"enabled"`
	JWTSecret string   `yaml:"jwt_secret"`
	JWTExpiry Duration `yaml:"jwt_expiry"`
}

// RateLimitSettings contains rate limiting configuration.
type RateLimitSettings struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// CORSSettings contains CORS configuration.
type CORSSettings struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// MonitoringSettings contains monitoring configuration.
type MonitoringSettings struct {
	Metrics MetricsSettings `yaml:"metrics"`
	Health  HealthSettings  `yaml:"health"`
	Logging LoggingSettings `yaml:"logging"`
}

// MetricsSettings contains Prometheus metrics configuration.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// HealthSettings contains health check configuration.
type HealthSettings struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingSettings contains zerolog configuration.
type LoggingSettings struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	IncludeCaller bool   `yaml:"include_caller"`
}

// CometBFTSettings contains CometBFT node configuration.
type CometBFTSettings struct {
	Enabled   bool                      `yaml:"enabled"`
	ChainID   string                    `yaml:"chain_id"`
	P2P       CometBFTP2PSettings       `yaml:"p2p"`
	RPC       CometBFTRPCSettings       `yaml:"rpc"`
	Consensus CometBFTConsensusSettings `yaml:"consensus"`
}

// CometBFTP2PSettings contains P2P configuration.
type CometBFTP2PSettings struct {
	Port            int    `yaml:"port"`
	MaxPeers        int    `yaml:"max_peers"`
	PersistentPeers string `yaml:"persistent_peers"`
}

// CometBFTRPCSettings contains RPC configuration.
type CometBFTRPCSettings struct {
	Port          int    `yaml:"port"`
	ListenAddress string `yaml:"listen_address"`
}

// CometBFTConsensusSettings contains consensus timing configuration.
type CometBFTConsensusSettings struct {
	TimeoutPropose   Duration `yaml:"timeout_propose"`
	TimeoutPrevote   Duration `yaml:"timeout_prevote"`
	TimeoutPrecommit Duration `yaml:"timeout_precommit"`
	TimeoutCommit    Duration `yaml:"timeout_commit"`
}

// Duration wraps time.Duration for YAML unmarshaling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadPlatformConfig loads platform configuration from a YAML file.
// Environment variables in the format ${VAR_NAME} are substituted.
func LoadPlatformConfig(path string) (*PlatformConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg PlatformConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults sets default values for unset fields.
func (c *PlatformConfig) applyDefaults() {
	if c.Protocol.InitialVersion == 0 {
		c.Protocol.InitialVersion = 1
	}
	if c.Protocol.EpochLengthBlocks == 0 {
		c.Protocol.EpochLengthBlocks = 28800
	}
	if c.Protocol.UpgradePercentageRequired == 0 {
		c.Protocol.UpgradePercentageRequired = 0.75
	}
	if c.Protocol.UpgradeWindowEpochs == 0 {
		c.Protocol.UpgradeWindowEpochs = 1
	}

	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 25
	}
	if c.Database.MinConnections == 0 {
		c.Database.MinConnections = 5
	}
	if c.Database.MaxIdleTime == 0 {
		c.Database.MaxIdleTime = Duration(5 * time.Minute)
	}
	if c.Database.MaxLifetime == 0 {
		c.Database.MaxLifetime = Duration(time.Hour)
	}

	if c.Security.Auth.JWTExpiry == 0 {
		c.Security.Auth.JWTExpiry = Duration(24 * time.Hour)
	}
	if c.Security.RateLimit.RequestsPerMinute == 0 {
		c.Security.RateLimit.RequestsPerMinute = 100
	}
	if c.Security.RateLimit.Burst == 0 {
		c.Security.RateLimit.Burst = 20
	}

	if c.Monitoring.Metrics.Port == 0 {
		c.Monitoring.Metrics.Port = 9090
	}
	if c.Monitoring.Metrics.Path == "" {
		c.Monitoring.Metrics.Path = "/metrics"
	}
	if c.Monitoring.Health.Port == 0 {
		c.Monitoring.Health.Port = 8081
	}
	if c.Monitoring.Health.Path == "" {
		c.Monitoring.Health.Path = "/health"
	}
	if c.Monitoring.Logging.Level == "" {
		c.Monitoring.Logging.Level = "info"
	}
	if c.Monitoring.Logging.Format == "" {
		c.Monitoring.Logging.Format = "json"
	}
	if c.Monitoring.Logging.Output == "" {
		c.Monitoring.Logging.Output = "stdout"
	}

	if c.CometBFT.Consensus.TimeoutPropose == 0 {
		c.CometBFT.Consensus.TimeoutPropose = Duration(3 * time.Second)
	}
	if c.CometBFT.Consensus.TimeoutPrevote == 0 {
		c.CometBFT.Consensus.TimeoutPrevote = Duration(1 * time.Second)
	}
	if c.CometBFT.Consensus.TimeoutPrecommit == 0 {
		c.CometBFT.Consensus.TimeoutPrecommit = Duration(1 * time.Second)
	}
	if c.CometBFT.Consensus.TimeoutCommit == 0 {
		c.CometBFT.Consensus.TimeoutCommit = Duration(5 * time.Second)
	}
}

// FeeTableFor returns the configured fee table settings for protocolVersion,
// or ok=false if the network config doesn't override that version (callers
// fall back to pkg/costs.DefaultFeeTable in that case).
func (c *PlatformConfig) FeeTableFor(protocolVersion uint32) (FeeTableSettings, bool) {
	key := fmt.Sprintf("%d", protocolVersion)
	settings, ok := c.Fees[key]
	return settings, ok
}

// Validate checks the platform configuration for production use.
func (c *PlatformConfig) Validate() error {
	var errs []string

	if c.Protocol.UpgradePercentageRequired <= 0 || c.Protocol.UpgradePercentageRequired > 1 {
		errs = append(errs, "protocol.upgrade_percentage_required must be in (0, 1]")
	}

	if c.Validator.ID == "" || strings.HasPrefix(c.Validator.ID, "${") {
		errs = append(errs, "validator.id is required")
	}

	if c.Database.Required && (c.Database.URL == "" || strings.HasPrefix(c.Database.URL, "${")) {
		errs = append(errs, "database.url is required when database.required is true")
	}

	if c.Environment == "production" {
		if !c.Security.TLS.Enabled {
			errs = append(errs, "security.tls.enabled must be true for production")
		}
		if c.Security.Auth.JWTSecret == "" || strings.HasPrefix(c.Security.Auth.JWTSecret, "${") {
			errs = append(errs, "security.auth.jwt_secret is required for production")
		} else if len(c.Security.Auth.JWTSecret) < 32 {
			errs = append(errs, "security.auth.jwt_secret must be at least 32 characters for production")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("platform configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsProduction returns true if this is a production configuration.
func (c *PlatformConfig) IsProduction() bool {
	return c.Environment == "production"
}
