package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ringbuf/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1024, cfg.Buffer.Capacity)
	assert.Equal(t, OverflowSpill, cfg.Sampler.OverflowPolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.Sampler.DrainInterval.Std())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoader_LoadYAML(t *testing.T) {
	path := writeConfig(t, "sampler.yaml", `
version: "1.0.0"
buffer:
  capacity: 64
  max_storage_bytes: 4096
  release_slots: true
sampler:
  sample_interval: 5ms
  drain_interval: 100ms
  batch_size: 16
  overflow_policy: drop_oldest
  amplitude: 3.5
  period: 1s
sink:
  path: /tmp/samples.log
  retry: {max_attempts: 5, initial_delay: 10ms, max_delay: 200ms, multiplier: 1.5}
metrics:
  enabled: false
`)

	loader := NewLoader()
	loader.SetEnvPrefix("")
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Buffer.Capacity)
	assert.Equal(t, uint64(4096), cfg.Buffer.MaxStorageBytes)
	assert.True(t, cfg.Buffer.ReleaseSlots)
	assert.Equal(t, 5*time.Millisecond, cfg.Sampler.SampleInterval.Std())
	assert.Equal(t, 100*time.Millisecond, cfg.Sampler.DrainInterval.Std())
	assert.Equal(t, 16, cfg.Sampler.BatchSize)
	assert.Equal(t, OverflowDropOldest, cfg.Sampler.OverflowPolicy)
	assert.Equal(t, 3.5, cfg.Sampler.Amplitude)
	assert.Equal(t, time.Second, cfg.Sampler.Period.Std())
	assert.Equal(t, "/tmp/samples.log", cfg.Sink.Path)
	assert.Equal(t, 5, cfg.Sink.Retry.MaxAttempts)
	assert.Equal(t, 1.5, cfg.Sink.Retry.Multiplier)
	assert.False(t, cfg.Metrics.Enabled)

	// Keys the file leaves out keep their defaults
	assert.Equal(t, "sensor", cfg.Sampler.Name)
	assert.Equal(t, 4096, cfg.Sampler.SpillLimit)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoader_ExampleConfigMatchesDefaults(t *testing.T) {
	path, err := filepath.Abs(filepath.Join("..", "configs", "ringsampler.yaml"))
	require.NoError(t, err)

	loader := NewLoader()
	loader.SetEnvPrefix("")
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoader_LoadJSON(t *testing.T) {
	path := writeConfig(t, "sampler.json", `{
		"buffer": {"capacity": 8},
		"sampler": {"drain_interval": "2s", "sample_interval": 1000000, "overflow_policy": "drop_newest"},
		"metrics": {"port": 9191}
	}`)

	loader := NewLoader()
	loader.SetEnvPrefix("")
	cfg, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Buffer.Capacity)
	assert.Equal(t, 2*time.Second, cfg.Sampler.DrainInterval.Std())
	assert.Equal(t, time.Millisecond, cfg.Sampler.SampleInterval.Std())
	assert.Equal(t, OverflowDropNewest, cfg.Sampler.OverflowPolicy)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.Equal(t, 128, cfg.Sampler.BatchSize)
}

func TestLoader_Layers(t *testing.T) {
	base := writeConfig(t, "base.yaml", `
buffer:
  capacity: 32
sampler:
  batch_size: 8
`)
	override := writeConfig(t, "override.yml", `
sampler:
  batch_size: 4
`)

	loader := NewLoader()
	loader.SetEnvPrefix("")
	loader.AddLayer(base)
	loader.AddLayer(override)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Buffer.Capacity, "untouched by the second layer")
	assert.Equal(t, 4, cfg.Sampler.BatchSize)
}

func TestLoader_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "sampler.yaml", "buffer:\n  capacity: 32\n")

	t.Setenv("RINGSAMPLER_BUFFER_CAPACITY", "256")
	t.Setenv("RINGSAMPLER_SAMPLER_OVERFLOW_POLICY", "drop_newest")
	t.Setenv("RINGSAMPLER_SINK_PATH", "out.log")
	t.Setenv("RINGSAMPLER_METRICS_ENABLED", "false")
	t.Setenv("RINGSAMPLER_METRICS_PORT", "9300")

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.Buffer.Capacity)
	assert.Equal(t, OverflowDropNewest, cfg.Sampler.OverflowPolicy)
	assert.Equal(t, "out.log", cfg.Sink.Path)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9300, cfg.Metrics.Port)
}

func TestLoader_BadEnvOverride(t *testing.T) {
	t.Setenv("RINGSAMPLER_BUFFER_CAPACITY", "lots")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrConfigNotFound)
		assert.True(t, errors.IsFatal(err))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeConfig(t, "sampler.toml", "capacity = 1")
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only YAML or JSON")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "bad.yaml", "buffer: [unterminated")
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeConfig(t, "bad.json", `{"buffer": {"capacity": 1}`)
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeConfig(t, "bad.yaml", "sampler:\n  drain_interval: soon\n")
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})

	t.Run("validation", func(t *testing.T) {
		path := writeConfig(t, "bad.yaml", "sampler:\n  overflow_policy: block\n")
		loader := NewLoader()
		loader.EnableValidation(true)
		_, err := loader.LoadFile(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "overflow_policy")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"newer major version", func(c *Config) { c.Version = "2.0.0" }, "version"},
		{"malformed version", func(c *Config) { c.Version = "1.x" }, "version"},
		{"negative capacity", func(c *Config) { c.Buffer.Capacity = -1 }, "buffer.capacity"},
		{"no sampler name", func(c *Config) { c.Sampler.Name = "" }, "sampler.name"},
		{"zero sample interval", func(c *Config) { c.Sampler.SampleInterval = 0 }, "sampler.sample_interval"},
		{"zero drain interval", func(c *Config) { c.Sampler.DrainInterval = 0 }, "sampler.drain_interval"},
		{"zero batch", func(c *Config) { c.Sampler.BatchSize = 0 }, "sampler.batch_size"},
		{"unknown policy", func(c *Config) { c.Sampler.OverflowPolicy = "block" }, "sampler.overflow_policy"},
		{"spill without limit", func(c *Config) { c.Sampler.SpillLimit = 0 }, "sampler.spill_limit"},
		{"negative spill limit", func(c *Config) {
			c.Sampler.OverflowPolicy = OverflowDropNewest
			c.Sampler.SpillLimit = -1
		}, "sampler.spill_limit"},
		{"zero period", func(c *Config) { c.Sampler.Period = 0 }, "sampler.period"},
		{"no attempts", func(c *Config) { c.Sink.Retry.MaxAttempts = 0 }, "sink.retry.max_attempts"},
		{"max below initial", func(c *Config) { c.Sink.Retry.MaxDelay = Duration(time.Millisecond) }, "sink.retry.max_delay"},
		{"shrinking backoff", func(c *Config) { c.Sink.Retry.Multiplier = 0.5 }, "sink.retry.multiplier"},
		{"port out of range", func(c *Config) { c.Metrics.Port = 70000 }, "metrics.port"},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
		{"metrics on health path", func(c *Config) { c.Metrics.Path = "/health" }, "metrics.path"},
		{"metrics on unclean health path", func(c *Config) { c.Metrics.Path = "/health/" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.True(t, errors.IsInvalid(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfig_ValidateAcceptsEdgeValues(t *testing.T) {
	cfg := Default()
	cfg.Version = "1.4.2"
	cfg.Buffer.Capacity = 0
	cfg.Sampler.OverflowPolicy = OverflowDropNewest
	cfg.Sampler.SpillLimit = 0
	cfg.Metrics.Enabled = false
	cfg.Metrics.Path = ""

	assert.NoError(t, cfg.Validate())
}

func TestConfig_SaveAndReload(t *testing.T) {
	for _, name := range []string{"saved.yaml", "saved.json"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Buffer.Capacity = 77
			cfg.Sampler.DrainInterval = Duration(3 * time.Second)

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.SaveToFile(path))

			loader := NewLoader()
			loader.SetEnvPrefix("")
			loaded, err := loader.LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Buffer.Capacity = 1

	assert.Equal(t, 1024, cfg.Buffer.Capacity)
	assert.NotNil(t, (*Config)(nil).Clone())
}

func TestRetryConfig_RetryPolicy(t *testing.T) {
	policy := Default().Sink.Retry.RetryPolicy()
	assert.Equal(t, errors.DefaultRetryConfig(), policy, "defaults come from the retry package")
	assert.Equal(t, 2, policy.MaxRetries)
	assert.Equal(t, 2.0, policy.BackoffFactor)

	rc := policy.ToRetryConfig()
	assert.Equal(t, 3, rc.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, rc.InitialDelay)
	assert.Equal(t, time.Second, rc.MaxDelay)
	assert.Equal(t, 2.0, rc.Multiplier)
	assert.True(t, rc.AddJitter)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"1.0.0", "1.0.0", 0},
		{"v1.2.0", "1.1.9", 1},
		{"1.0.9", "1.0.10", -1},
		{"0.9.0", "1.0.0", -1},
	}
	for _, tt := range tests {
		got, err := CompareVersions(tt.v1, tt.v2)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s vs %s", tt.v1, tt.v2)
	}

	for _, bad := range []string{"", "1.0", "1.0.x", "1.-1.0"} {
		_, err := CompareVersions(bad, "1.0.0")
		assert.Error(t, err, bad)
	}
}
