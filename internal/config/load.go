// internal/config/load.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and decodes a YAML file. Unknown keys are rejected.
// It does not validate.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ---- ENVIRONMENT ----

// Environment variables that override file values. Secrets belong here,
// not in the YAML.
const (
	EnvSourceURL         = "PRODUCER_SOURCE_URL"
	EnvFingerprintKey    = "PRODUCER_FINGERPRINT_KEY"
	EnvESAddresses       = "PRODUCER_ES_ADDRESSES"
	EnvESAPIKey          = "PRODUCER_ES_API_KEY"
	EnvESPassword        = "PRODUCER_ES_PASSWORD"
	EnvKafkaBrokers      = "PRODUCER_KAFKA_BROKERS"
	EnvKafkaPassword     = "PRODUCER_KAFKA_PASSWORD"
	EnvS3AccessKeyID     = "PRODUCER_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "PRODUCER_S3_SECRET_ACCESS_KEY"
)

// ApplyEnv overrides config values from the environment. lookup is
// os.LookupEnv outside tests. Empty values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if cfg == nil || lookup == nil {
		return
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str(EnvSourceURL, &cfg.Source.URL)
	str(EnvFingerprintKey, &cfg.Fingerprint.Key)

	list(EnvESAddresses, &cfg.Sinks.Elasticsearch.Addresses)
	str(EnvESAPIKey, &cfg.Sinks.Elasticsearch.APIKey)
	str(EnvESPassword, &cfg.Sinks.Elasticsearch.Password)

	list(EnvKafkaBrokers, &cfg.Sinks.Kafka.Brokers)
	str(EnvKafkaPassword, &cfg.Sinks.Kafka.Password)

	str(EnvS3AccessKeyID, &cfg.Sinks.S3.AccessKeyID)
	str(EnvS3SecretAccessKey, &cfg.Sinks.S3.SecretAccessKey)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
