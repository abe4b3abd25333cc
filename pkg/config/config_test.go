package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "paymentsengine", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 100, cfg.Pipeline.BufferSize)
	assert.Equal(t, []string{SinkCSV}, cfg.Output.Sinks)
	assert.Equal(t, "stderr", cfg.Logger.Output)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.HasSink(SinkCSV))
	assert.False(t, cfg.HasSink(SinkKafka))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
service_name = "ledger-batch"
environment = "prod"

[pipeline]
buffer_size = 16

[output]
sinks = ["csv", "kafka"]

[kafka]
brokers = ["localhost:9092"]
topic = "accounts"

[logger]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ledger-batch", cfg.ServiceName)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, 16, cfg.Pipeline.BufferSize)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "accounts", cfg.Kafka.Topic)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.HasSink(SinkKafka))
}

func TestLoadRequiresFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("APP_PIPELINE_BUFFER_SIZE", "8")
	t.Setenv("APP_LOGGER_LEVEL", "warn")

	cfg, err := LoadWithDefaults("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pipeline.BufferSize)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestEnvOverrideConfiguresSinks(t *testing.T) {
	t.Setenv("APP_OUTPUT_SINKS", "kafka,mysql,redis")
	t.Setenv("APP_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("APP_DATABASE_DSN", "ledger:secret@tcp(db:3306)/ledger")
	t.Setenv("APP_REDIS_PASSWORD", "hunter2")

	cfg, err := LoadWithDefaults("")
	require.NoError(t, err)
	assert.Equal(t, []string{SinkKafka, SinkMySQL, SinkRedis}, cfg.Output.Sinks)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "ledger:secret@tcp(db:3306)/ledger", cfg.Database.DSN)
	assert.Equal(t, "hunter2", cfg.Redis.Password)
}

func TestDefaultsLeaveSinkCredentialsEmpty(t *testing.T) {
	cfg, err := LoadWithDefaults("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Database.DSN)
	assert.Empty(t, cfg.Redis.Password)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServiceName: "paymentsengine",
			Pipeline:    PipelineConfig{BufferSize: 10},
			Output:      OutputConfig{Sinks: []string{SinkCSV}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, "service_name is required"},
		{"zero buffer", func(c *Config) { c.Pipeline.BufferSize = 0 }, "invalid pipeline buffer size"},
		{"no sinks", func(c *Config) { c.Output.Sinks = nil }, "at least one output sink"},
		{"unknown sink", func(c *Config) { c.Output.Sinks = []string{"s3"} }, "unknown output sink: s3"},
		{"kafka without brokers", func(c *Config) { c.Output.Sinks = []string{SinkKafka} }, "kafka sink requires"},
		{"mysql without dsn", func(c *Config) {
			c.Output.Sinks = []string{SinkMySQL}
			c.Database.Driver = "mysql"
		}, "database DSN is required"},
		{"bad metrics port", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = 70000
		}, "invalid metrics port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "dev", cfg.Environment)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
