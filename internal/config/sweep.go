package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the sweep tools look for a config file when
// --config is not given. A missing file is not an error.
const DefaultConfigPath = "config/sweep.json"

// SweepConfig holds the defaults shared by the sweep tools. Every field is
// optional; the Get* methods supply the built-in default for fields the file
// leaves out, so partial configs are safe. Command-line flags take precedence
// over anything set here.
type SweepConfig struct {
	// Engine and filesystem layout
	Binary     *string `json:"binary,omitempty" yaml:"binary,omitempty"`
	DataDir    *string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	ResultsDir *string `json:"results_dir,omitempty" yaml:"results_dir,omitempty"`
	SecretKey  *string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	PublicKey  *string `json:"public_key,omitempty" yaml:"public_key,omitempty"`

	// Grid
	SizesKiB        []int `json:"sizes_kib,omitempty" yaml:"sizes_kib,omitempty"`
	BitDifficulties []int `json:"bit_difficulties,omitempty" yaml:"bit_difficulties,omitempty"`
	Fractions       []int `json:"fractions,omitempty" yaml:"fractions,omitempty"` // denominators, e.g. [2, 4]
	FixedDifficulty *int  `json:"fixed_difficulty,omitempty" yaml:"fixed_difficulty,omitempty"`

	// Throttling between iterations of one size
	ThrottleBase   *string `json:"throttle_base,omitempty" yaml:"throttle_base,omitempty"`       // duration string like "5s"
	ThrottlePerMiB *string `json:"throttle_per_mib,omitempty" yaml:"throttle_per_mib,omitempty"` // added per MiB of payload

	// Result row placeholders for failed runs
	ErrorSentinel *string `json:"error_sentinel,omitempty" yaml:"error_sentinel,omitempty"`
	FailureNFisch *int    `json:"failure_nfisch,omitempty" yaml:"failure_nfisch,omitempty"`
	FailureMValue *int    `json:"failure_mvalue,omitempty" yaml:"failure_mvalue,omitempty"`

	MinFractionBytes *int64 `json:"min_fraction_bytes,omitempty" yaml:"min_fraction_bytes,omitempty"`
}

// EmptySweepConfig returns a SweepConfig with all fields unset.
func EmptySweepConfig() *SweepConfig {
	return &SweepConfig{}
}

// LoadSweepConfig loads a SweepConfig from a .json, .yaml or .yml file.
// The file must be under the max file size and pass Validate.
func LoadSweepConfig(path string) (*SweepConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySweepConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it is set, falls back to DefaultConfigPath
// when that file exists, and otherwise returns an empty config.
func LoadOrDefault(path string) (*SweepConfig, error) {
	if path != "" {
		return LoadSweepConfig(path)
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return LoadSweepConfig(DefaultConfigPath)
	}
	return EmptySweepConfig(), nil
}

// Validate checks that the configuration values are valid.
func (c *SweepConfig) Validate() error {
	for _, s := range c.SizesKiB {
		if s <= 0 {
			return fmt.Errorf("sizes_kib must be positive, got %d", s)
		}
	}
	for _, d := range c.BitDifficulties {
		if d < 0 || d > 256 {
			return fmt.Errorf("bit_difficulties must be between 0 and 256, got %d", d)
		}
	}
	for _, f := range c.Fractions {
		if f < 2 {
			return fmt.Errorf("fractions are denominators and must be at least 2, got %d", f)
		}
	}
	if c.ThrottleBase != nil && *c.ThrottleBase != "" {
		if _, err := time.ParseDuration(*c.ThrottleBase); err != nil {
			return fmt.Errorf("invalid throttle_base '%s': %w", *c.ThrottleBase, err)
		}
	}
	if c.ThrottlePerMiB != nil && *c.ThrottlePerMiB != "" {
		if _, err := time.ParseDuration(*c.ThrottlePerMiB); err != nil {
			return fmt.Errorf("invalid throttle_per_mib '%s': %w", *c.ThrottlePerMiB, err)
		}
	}
	if c.ErrorSentinel != nil && *c.ErrorSentinel == "" {
		return fmt.Errorf("error_sentinel must not be empty")
	}
	if c.MinFractionBytes != nil && *c.MinFractionBytes < 32 {
		return fmt.Errorf("min_fraction_bytes must be at least one 32-byte chunk, got %d", *c.MinFractionBytes)
	}
	return nil
}

// GetBinary returns the engine executable path or the default.
func (c *SweepConfig) GetBinary() string {
	if c.Binary == nil || *c.Binary == "" {
		return "./target/release/beholders"
	}
	return *c.Binary
}

// GetDataDir returns the input artifact directory or the default.
func (c *SweepConfig) GetDataDir() string {
	if c.DataDir == nil || *c.DataDir == "" {
		return "data"
	}
	return *c.DataDir
}

// GetResultsDir returns the root under which per-mode result directories live.
func (c *SweepConfig) GetResultsDir() string {
	if c.ResultsDir == nil || *c.ResultsDir == "" {
		return "res"
	}
	return *c.ResultsDir
}

// GetSecretKey returns the prover key filename or the default.
func (c *SweepConfig) GetSecretKey() string {
	if c.SecretKey == nil || *c.SecretKey == "" {
		return "sk.bin"
	}
	return *c.SecretKey
}

// GetPublicKey returns the verifier key filename or the default.
func (c *SweepConfig) GetPublicKey() string {
	if c.PublicKey == nil || *c.PublicKey == "" {
		return "pk.bin"
	}
	return *c.PublicKey
}

// GetSizesKiB returns the payload sizes or the default ladder.
func (c *SweepConfig) GetSizesKiB() []int {
	if len(c.SizesKiB) == 0 {
		return []int{128, 256, 512, 1024, 2048, 4096}
	}
	return append([]int(nil), c.SizesKiB...)
}

// GetBitDifficulties returns the PoW difficulties or the default.
func (c *SweepConfig) GetBitDifficulties() []int {
	if len(c.BitDifficulties) == 0 {
		return []int{8, 10, 12, 14, 16}
	}
	return append([]int(nil), c.BitDifficulties...)
}

// GetFractions returns the fraction denominators; none by default.
func (c *SweepConfig) GetFractions() []int {
	return append([]int(nil), c.Fractions...)
}

// GetFixedDifficulty returns the difficulty used by role sweeps.
func (c *SweepConfig) GetFixedDifficulty() int {
	if c.FixedDifficulty == nil {
		return 14
	}
	return *c.FixedDifficulty
}

// GetThrottleBase returns the fixed part of the inter-run pause.
func (c *SweepConfig) GetThrottleBase() time.Duration {
	return parseDurationOr(c.ThrottleBase, 5*time.Second)
}

// GetThrottlePerMiB returns the size-proportional part of the inter-run pause.
func (c *SweepConfig) GetThrottlePerMiB() time.Duration {
	return parseDurationOr(c.ThrottlePerMiB, 2*time.Second)
}

// GetErrorSentinel returns the placeholder written to timing columns of failed runs.
func (c *SweepConfig) GetErrorSentinel() string {
	if c.ErrorSentinel == nil || *c.ErrorSentinel == "" {
		return "ERROR"
	}
	return *c.ErrorSentinel
}

// GetFailureNFisch returns the nfisch value recorded for failed runs.
func (c *SweepConfig) GetFailureNFisch() int {
	if c.FailureNFisch == nil {
		return 10
	}
	return *c.FailureNFisch
}

// GetFailureMValue returns the m value recorded for failed runs.
func (c *SweepConfig) GetFailureMValue() int {
	if c.FailureMValue == nil {
		return 16
	}
	return *c.FailureMValue
}

// GetMinFractionBytes returns the smallest acceptable fractional payload.
// The default is 64 field elements of 32 bytes, the smallest trusted setup
// the engine accepts.
func (c *SweepConfig) GetMinFractionBytes() int64 {
	if c.MinFractionBytes == nil {
		return 64 * 32
	}
	return *c.MinFractionBytes
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def
	}
	return d
}
