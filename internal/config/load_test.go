// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
source:
  url: https://opendata.example.org/devactivity.json
  timeout_ms: 10000
poll:
  interval_ms: 600000
dispatch:
  sink_timeout_ms: 15000
  max_concurrency: 2
sinks:
  elasticsearch:
    enabled: true
    addresses: [http://es:9200]
    index: devactivity
  kafka:
    enabled: true
    brokers: [kafka-1:9092, kafka-2:9092]
    topic: devactivity
    partition: 0
  s3:
    enabled: false
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://opendata.example.org/devactivity.json", cfg.Source.URL)
	require.Equal(t, 600000, cfg.Poll.IntervalMs)
	require.Equal(t, 2, cfg.Dispatch.MaxConcurrency)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Sinks.Kafka.Brokers)
	require.True(t, cfg.Sinks.Elasticsearch.Enabled)
	require.False(t, cfg.Sinks.S3.Enabled)
	require.NoError(t, Validate(cfg))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("source:\n  uri: http://x\n"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	env := map[string]string{
		EnvSourceURL:     "https://override.example.org/data.json",
		EnvKafkaBrokers:  " k1:9092 , ,k2:9092",
		EnvESAPIKey:      "secret-key",
		EnvKafkaPassword: "",
	}
	ApplyEnv(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	require.Equal(t, "https://override.example.org/data.json", cfg.Source.URL)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Sinks.Kafka.Brokers)
	require.Equal(t, "secret-key", cfg.Sinks.Elasticsearch.APIKey)
	require.Empty(t, cfg.Sinks.Kafka.Password)
	require.Equal(t, []string{"http://es:9200"}, cfg.Sinks.Elasticsearch.Addresses)
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	Normalize(cfg)
	require.Equal(t, 900000, cfg.Poll.IntervalMs)
	require.Equal(t, "md5", cfg.Fingerprint.Algorithm)
}
