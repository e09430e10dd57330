package config

import (
	"encoding/json"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/ringbuf/errors"
	"github.com/c360/ringbuf/metric"
)

// SupportedVersion is the newest config file version this build understands.
// Files with a higher major version are rejected.
const SupportedVersion = "1.0.0"

// Overflow policies applied by the sampler when the ring rejects a write.
const (
	OverflowDropNewest = "drop_newest" // count and drop the new sample
	OverflowDropOldest = "drop_oldest" // evict the oldest record, then write
	OverflowSpill      = "spill"       // park in a bounded spill queue
)

// Config represents the complete sampler configuration
type Config struct {
	Version string        `yaml:"version" json:"version"` // Semantic version, e.g. "1.0.0"
	Buffer  BufferConfig  `yaml:"buffer" json:"buffer"`
	Sampler SamplerConfig `yaml:"sampler" json:"sampler"`
	Sink    SinkConfig    `yaml:"sink" json:"sink"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// BufferConfig sizes the record ring
type BufferConfig struct {
	Capacity        int    `yaml:"capacity" json:"capacity"`
	MaxStorageBytes uint64 `yaml:"max_storage_bytes" json:"max_storage_bytes"` // 0 = unlimited
	ReleaseSlots    bool   `yaml:"release_slots" json:"release_slots"`
}

// SamplerConfig drives the sample source and the drain loop
type SamplerConfig struct {
	Name           string   `yaml:"name" json:"name"` // ring and metrics label
	SampleInterval Duration `yaml:"sample_interval" json:"sample_interval"`
	DrainInterval  Duration `yaml:"drain_interval" json:"drain_interval"`
	BatchSize      int      `yaml:"batch_size" json:"batch_size"`
	OverflowPolicy string   `yaml:"overflow_policy" json:"overflow_policy"`
	SpillLimit     int      `yaml:"spill_limit" json:"spill_limit"`
	Amplitude      float64  `yaml:"amplitude" json:"amplitude"`
	Period         Duration `yaml:"period" json:"period"`
}

// SinkConfig selects where drained samples go
type SinkConfig struct {
	Path  string      `yaml:"path" json:"path"` // empty = stdout
	Retry RetryConfig `yaml:"retry" json:"retry"`
}

// RetryConfig is the file form of the sink retry policy
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64  `yaml:"multiplier" json:"multiplier"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Version: SupportedVersion,
		Buffer: BufferConfig{
			Capacity: 1024,
		},
		Sampler: SamplerConfig{
			Name:           "sensor",
			SampleInterval: Duration(10 * time.Millisecond),
			DrainInterval:  Duration(250 * time.Millisecond),
			BatchSize:      128,
			OverflowPolicy: OverflowSpill,
			SpillLimit:     4096,
			Amplitude:      1.0,
			Period:         Duration(2 * time.Second),
		},
		Sink: SinkConfig{
			Retry: retryFromPolicy(errors.DefaultRetryConfig()),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Version != "" {
		major, _, _, err := parseSemVer(c.Version)
		if err != nil {
			return invalid("version", err.Error())
		}
		supported, _, _, _ := parseSemVer(SupportedVersion)
		if major > supported {
			return invalid("version", fmt.Sprintf("%s is newer than supported %s", c.Version, SupportedVersion))
		}
	}

	if c.Buffer.Capacity < 0 {
		return invalid("buffer.capacity", fmt.Sprintf("must not be negative, got %d", c.Buffer.Capacity))
	}

	if err := c.Sampler.validate(); err != nil {
		return err
	}
	if err := c.Sink.Retry.validate(); err != nil {
		return err
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
			return invalid("metrics.port", fmt.Sprintf("must be within 0-65535, got %d", c.Metrics.Port))
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return invalid("metrics.path", fmt.Sprintf("must start with '/', got %q", c.Metrics.Path))
		}
		if path.Clean(c.Metrics.Path) == metric.HealthPath {
			return invalid("metrics.path", fmt.Sprintf("%q is reserved for the health endpoint", c.Metrics.Path))
		}
	}

	return nil
}

func (s *SamplerConfig) validate() error {
	if s.Name == "" {
		return invalid("sampler.name", "is required")
	}
	if s.SampleInterval <= 0 {
		return invalid("sampler.sample_interval", "must be positive")
	}
	if s.DrainInterval <= 0 {
		return invalid("sampler.drain_interval", "must be positive")
	}
	if s.BatchSize <= 0 {
		return invalid("sampler.batch_size", fmt.Sprintf("must be positive, got %d", s.BatchSize))
	}
	switch s.OverflowPolicy {
	case OverflowDropNewest, OverflowDropOldest:
	case OverflowSpill:
		if s.SpillLimit <= 0 {
			return invalid("sampler.spill_limit", "must be positive when overflow_policy is spill")
		}
	default:
		return invalid("sampler.overflow_policy", fmt.Sprintf("unknown policy %q (want %s, %s or %s)",
			s.OverflowPolicy, OverflowDropNewest, OverflowDropOldest, OverflowSpill))
	}
	if s.SpillLimit < 0 {
		return invalid("sampler.spill_limit", "must not be negative")
	}
	if math.IsNaN(s.Amplitude) || math.IsInf(s.Amplitude, 0) {
		return invalid("sampler.amplitude", "must be finite")
	}
	if s.Period <= 0 {
		return invalid("sampler.period", "must be positive")
	}
	return nil
}

func (r *RetryConfig) validate() error {
	if r.MaxAttempts < 1 {
		return invalid("sink.retry.max_attempts", fmt.Sprintf("must be at least 1, got %d", r.MaxAttempts))
	}
	if r.InitialDelay < 0 || r.MaxDelay < 0 {
		return invalid("sink.retry", "delays must not be negative")
	}
	if r.MaxDelay > 0 && r.MaxDelay < r.InitialDelay {
		return invalid("sink.retry.max_delay", "must not be below initial_delay")
	}
	if r.Multiplier < 1.0 {
		return invalid("sink.retry.multiplier", fmt.Sprintf("must be at least 1.0, got %g", r.Multiplier))
	}
	return nil
}

// RetryPolicy converts the file form into the sink retry policy.
// MaxAttempts counts the first try, MaxRetries does not.
func (r RetryConfig) RetryPolicy() errors.RetryConfig {
	return errors.RetryConfig{
		MaxRetries:    r.MaxAttempts - 1,
		InitialDelay:  r.InitialDelay.Std(),
		MaxDelay:      r.MaxDelay.Std(),
		BackoffFactor: r.Multiplier,
	}
}

func retryFromPolicy(p errors.RetryConfig) RetryConfig {
	return RetryConfig{
		MaxAttempts:  p.MaxRetries + 1,
		InitialDelay: Duration(p.InitialDelay),
		MaxDelay:     Duration(p.MaxDelay),
		Multiplier:   p.BackoffFactor,
	}
}

func invalid(field, reason string) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %s %s", errors.ErrInvalidConfig, field, reason),
		"Config", "Validate", "check "+field)
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	copied := *c
	return &copied
}

// SaveToFile writes the configuration as YAML, or JSON when path ends in .json.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.WrapFatal(err, "Config", "SaveToFile", "marshal config")
	}

	return safeWriteFile(path, data)
}

// String returns a YAML representation of the config
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}

// Duration is a time.Duration that reads and writes as "250ms" style strings.
// Plain numbers are taken as nanoseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got %q", value.Tag)
	}
	if value.ShortTag() == "!!str" {
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n float64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(int64(n))
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(int64(v))
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
	return nil
}

// CompareVersions compares two semver version strings
// Returns:
//
//	-1 if v1 < v2
//	 0 if v1 == v2
//	 1 if v1 > v2
//	error if either version is invalid
func CompareVersions(v1, v2 string) (int, error) {
	a1, b1, c1, err := parseSemVer(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version '%s': %w", v1, err)
	}
	a2, b2, c2, err := parseSemVer(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version '%s': %w", v2, err)
	}

	for _, pair := range [][2]int{{a1, a2}, {b1, b2}, {c1, c2}} {
		switch {
		case pair[0] > pair[1]:
			return 1, nil
		case pair[0] < pair[1]:
			return -1, nil
		}
	}
	return 0, nil
}

// parseSemVer parses a semantic version string (e.g., "1.2.3")
// Returns major, minor, patch, error
func parseSemVer(version string) (int, int, int, error) {
	if version == "" {
		return 0, 0, 0, fmt.Errorf("version cannot be empty")
	}

	version = strings.TrimPrefix(version, "v")

	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("version must be in format 'major.minor.patch', got '%s'", version)
	}

	var nums [3]int
	for i, name := range []string{"major", "minor", "patch"} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("invalid %s version '%s'", name, parts[i])
		}
		nums[i] = n
	}

	return nums[0], nums[1], nums[2], nil
}
