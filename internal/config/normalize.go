// internal/config/normalize.go
package config

// Defaults filled by Normalize.
const (
	DefaultIntervalMs      = 15 * 60 * 1000
	DefaultSourceTimeoutMs = 30_000
	DefaultSinkTimeoutMs   = 30_000
	DefaultKafkaReadWaitMs = 5_000
	DefaultS3Region        = "us-east-1"
	DefaultMaxConcurrency  = 1
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	if cfg.Source.TimeoutMs == 0 {
		cfg.Source.TimeoutMs = DefaultSourceTimeoutMs
	}
	if cfg.Dispatch.SinkTimeoutMs == 0 {
		cfg.Dispatch.SinkTimeoutMs = DefaultSinkTimeoutMs
	}
	if cfg.Dispatch.MaxConcurrency == 0 {
		cfg.Dispatch.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Fingerprint.Algorithm == "" {
		cfg.Fingerprint.Algorithm = "md5"
	}

	if cfg.Sinks.Kafka.ReadWaitMs == 0 {
		cfg.Sinks.Kafka.ReadWaitMs = DefaultKafkaReadWaitMs
	}
	if cfg.Sinks.S3.Region == "" {
		cfg.Sinks.S3.Region = DefaultS3Region
	}

	// Max bytes, user agent and kafka message size defaults live with the
	// components that use them.
}
