package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ringbuf/sampler"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Empty(t, cfg.ConfigPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, -1, cfg.MetricsPort)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, validateFlags(cfg))
}

func TestParseFlags_EnvFallback(t *testing.T) {
	t.Setenv("RINGSAMPLER_LOG_LEVEL", "debug")
	t.Setenv("RINGSAMPLER_METRICS_PORT", "9400")

	cfg, err := parseFlags([]string{"--log-format=text"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 9400, cfg.MetricsPort)
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CLIConfig)
		errMsg string
	}{
		{"missing config", func(c *CLIConfig) { c.ConfigPath = "/nonexistent/ringsampler.yaml" }, "config file not found"},
		{"bad level", func(c *CLIConfig) { c.LogLevel = "trace" }, "invalid log level"},
		{"bad format", func(c *CLIConfig) { c.LogFormat = "xml" }, "invalid log format"},
		{"bad port", func(c *CLIConfig) { c.MetricsPort = 70000 }, "invalid metrics port"},
		{"bad timeout", func(c *CLIConfig) { c.ShutdownTimeout = 0 }, "invalid shutdown timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseFlags(nil, &bytes.Buffer{})
			require.NoError(t, err)
			tt.mutate(cfg)

			err = validateFlags(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--version"}, &stdout, &bytes.Buffer{}))
	assert.Equal(t, "ringsampler version "+Version+"\n", stdout.String())
}

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--help"}, &bytes.Buffer{}, &stderr))
	assert.Contains(t, stderr.String(), "Usage: ringsampler")
	assert.Contains(t, stderr.String(), "-metrics-port")
}

func TestRun_Validate(t *testing.T) {
	path := writeFile(t, "ringsampler.yaml", "buffer:\n  capacity: 12\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--config", path, "--validate"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "capacity: 12")
	assert.Contains(t, stderr.String(), "Configuration is valid")
}

func TestRun_WriteConfig(t *testing.T) {
	t.Setenv("RINGSAMPLER_BUFFER_CAPACITY", "48")
	out := filepath.Join(t.TempDir(), "generated.json")

	err := run(context.Background(), []string{"--write-config", out, "--metrics-port", "9300"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--config", out, "--validate"}, &stdout, &bytes.Buffer{}))
	assert.Contains(t, stdout.String(), "capacity: 48")
	assert.Contains(t, stdout.String(), "port: 9300")
}

func TestRun_WriteConfigBadExtension(t *testing.T) {
	out := filepath.Join(t.TempDir(), "generated.toml")

	err := run(context.Background(), []string{"--write-config", out}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only YAML or JSON")
}

func TestRun_InvalidConfig(t *testing.T) {
	path := writeFile(t, "ringsampler.yaml", "sampler:\n  batch_size: 0\n")

	err := run(context.Background(), []string{"--config", path, "--validate"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampler.batch_size")
}

func TestRun_SamplesToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "samples.jsonl")
	path := writeFile(t, "ringsampler.yaml", `
buffer:
  capacity: 64
sampler:
  sample_interval: 1ms
  drain_interval: 5ms
  batch_size: 8
sink:
  path: `+out+`
metrics:
  enabled: true
`)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	var stderr bytes.Buffer
	err := run(ctx, []string{"--config", path, "--metrics-port", "0", "--log-format", "text"}, &bytes.Buffer{}, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "Metrics available")
	assert.Contains(t, stderr.String(), "Sampler stopped")

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)
	for i, line := range lines {
		var s sampler.Sample
		require.NoError(t, json.Unmarshal([]byte(line), &s))
		assert.Equal(t, uint64(i+1), s.Seq, "samples arrive in order")
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "ringsampler", entry["service"])
	assert.Equal(t, "value", entry["key"])
}
