// internal/config/config.go
package config

type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Poll        PollConfig        `yaml:"poll"`
	Fingerprint FingerprintConfig `yaml:"fingerprint"`
	Dispatch    DispatchConfig    `yaml:"dispatch"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Sinks       SinksConfig       `yaml:"sinks"`
}

// ---- SOURCE ----

type SourceConfig struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	MaxBytes  int64  `yaml:"max_bytes"`
	UserAgent string `yaml:"user_agent"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- FINGERPRINT ----

type FingerprintConfig struct {
	Algorithm string `yaml:"algorithm"` // md5 (default) | highwayhash
	Key       string `yaml:"key"`       // hex, highwayhash only
}

// ---- DISPATCH ----

type DispatchConfig struct {
	SinkTimeoutMs  int `yaml:"sink_timeout_ms"`
	MaxConcurrency int `yaml:"max_concurrency"`
}

// ---- AMBIENT ----

type LogConfig struct {
	Verbose bool   `yaml:"verbose"`
	File    string `yaml:"file"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the HTTP server
}

// ---- SINKS ----

// SinksConfig lists every supported sink. Dispatch order is the field order.
type SinksConfig struct {
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	S3            S3Config            `yaml:"s3"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addresses []string `yaml:"addresses"`
	Index     string   `yaml:"index"`
	APIKey    string   `yaml:"api_key"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
}

type KafkaConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Brokers         []string `yaml:"brokers"`
	Topic           string   `yaml:"topic"`
	Partition       int      `yaml:"partition"`
	ReadWaitMs      int      `yaml:"read_wait_ms"`
	MaxMessageBytes int      `yaml:"max_message_bytes"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	CreateBucket    bool   `yaml:"create_bucket"`
}
