// internal/config/validate.go
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values that Normalize fills in are accepted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}

	// ------------------------------------------------------------
	// SOURCE
	// ------------------------------------------------------------

	if strings.TrimSpace(cfg.Source.URL) == "" {
		return errors.New("source.url is required")
	}
	u, err := url.Parse(cfg.Source.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source.url %q must be an absolute http(s) url", cfg.Source.URL)
	}
	if cfg.Source.TimeoutMs < 0 {
		return errors.New("source.timeout_ms must be >= 0")
	}
	if cfg.Source.MaxBytes < 0 {
		return errors.New("source.max_bytes must be >= 0")
	}

	// ------------------------------------------------------------
	// POLL / DISPATCH
	// ------------------------------------------------------------

	if cfg.Poll.IntervalMs < 0 {
		return errors.New("poll.interval_ms must be >= 0")
	}
	if cfg.Dispatch.SinkTimeoutMs < 0 {
		return errors.New("dispatch.sink_timeout_ms must be >= 0")
	}
	if cfg.Dispatch.MaxConcurrency < 0 {
		return errors.New("dispatch.max_concurrency must be >= 0")
	}

	// ------------------------------------------------------------
	// FINGERPRINT
	// ------------------------------------------------------------

	switch cfg.Fingerprint.Algorithm {
	case "", "md5":
		if cfg.Fingerprint.Key != "" {
			return errors.New("fingerprint.key is only used with highwayhash")
		}
	case "highwayhash":
		key, err := hex.DecodeString(cfg.Fingerprint.Key)
		if err != nil || len(key) != 32 {
			return errors.New("fingerprint.key must be 64 hex characters for highwayhash")
		}
	default:
		return fmt.Errorf("fingerprint.algorithm %q is not supported", cfg.Fingerprint.Algorithm)
	}

	// ------------------------------------------------------------
	// SINKS (enabled sinks need connection params)
	// ------------------------------------------------------------

	s := cfg.Sinks

	if es := s.Elasticsearch; es.Enabled {
		if len(es.Addresses) == 0 {
			return errors.New("sinks.elasticsearch: addresses required when enabled")
		}
		if strings.TrimSpace(es.Index) == "" {
			return errors.New("sinks.elasticsearch: index required when enabled")
		}
		if es.Index != strings.ToLower(es.Index) {
			return fmt.Errorf("sinks.elasticsearch: index %q must be lowercase", es.Index)
		}
		if es.APIKey != "" && es.Username != "" {
			return errors.New("sinks.elasticsearch: api_key and username are mutually exclusive")
		}
	}

	if k := s.Kafka; k.Enabled {
		if len(k.Brokers) == 0 {
			return errors.New("sinks.kafka: brokers required when enabled")
		}
		if strings.TrimSpace(k.Topic) == "" {
			return errors.New("sinks.kafka: topic required when enabled")
		}
		if k.Partition < 0 {
			return errors.New("sinks.kafka: partition must be >= 0")
		}
		if k.ReadWaitMs < 0 || k.MaxMessageBytes < 0 {
			return errors.New("sinks.kafka: read_wait_ms and max_message_bytes must be >= 0")
		}
		if k.Password != "" && k.Username == "" {
			return errors.New("sinks.kafka: password set without username")
		}
	}

	if b := s.S3; b.Enabled {
		if strings.TrimSpace(b.Bucket) == "" {
			return errors.New("sinks.s3: bucket required when enabled")
		}
		if (b.AccessKeyID == "") != (b.SecretAccessKey == "") {
			return errors.New("sinks.s3: access_key_id and secret_access_key must be set together")
		}
		if b.Endpoint != "" {
			if eu, err := url.Parse(b.Endpoint); err != nil || eu.Scheme == "" || eu.Host == "" {
				return fmt.Errorf("sinks.s3: endpoint %q must be an absolute url", b.Endpoint)
			}
		}
	}

	return nil
}
