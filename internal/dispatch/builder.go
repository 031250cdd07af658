// internal/dispatch/builder.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	cfg "github.com/strongtownslangley/devactivity-producer/internal/config"
	"github.com/strongtownslangley/devactivity-producer/internal/sink"
	"github.com/strongtownslangley/devactivity-producer/internal/sink/elastic"
	"github.com/strongtownslangley/devactivity-producer/internal/sink/kafka"
	"github.com/strongtownslangley/devactivity-producer/internal/sink/s3"
)

// Target names, also used as metric labels and status keys.
const (
	NameElasticsearch = "elasticsearch"
	NameKafka         = "kafka"
	NameS3            = "s3"
)

// BuildTargets creates one client per enabled sink, in dispatch order.
// Disabled sinks are returned without a client so they show up in reports.
// Assumes config has already passed validation.
func BuildTargets(ctx context.Context, c *cfg.Config) ([]Target, func() error, error) {
	var (
		targets []Target
		closers []io.Closer
	)

	closeAll := func() error {
		var errs []error
		for _, cl := range closers {
			if err := cl.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	add := func(name string, variant sink.Variant, enabled bool, build func() (sinkCloser, error)) error {
		t := Target{Name: name, Variant: variant, Enabled: enabled}
		if enabled {
			s, err := build()
			if err != nil {
				return fmt.Errorf("build %s sink: %w", name, err)
			}
			t.Sink = s
			closers = append(closers, s)
		}
		targets = append(targets, t)
		return nil
	}

	sc := c.Sinks

	err := add(NameElasticsearch, sink.VariantDocumentStore, sc.Elasticsearch.Enabled, func() (sinkCloser, error) {
		return elastic.New(elastic.Config{
			Addresses: sc.Elasticsearch.Addresses,
			Index:     sc.Elasticsearch.Index,
			APIKey:    sc.Elasticsearch.APIKey,
			Username:  sc.Elasticsearch.Username,
			Password:  sc.Elasticsearch.Password,
		})
	})
	if err == nil {
		err = add(NameKafka, sink.VariantMessageQueue, sc.Kafka.Enabled, func() (sinkCloser, error) {
			return kafka.New(kafka.Config{
				Brokers:         sc.Kafka.Brokers,
				Topic:           sc.Kafka.Topic,
				Partition:       sc.Kafka.Partition,
				ReadWait:        time.Duration(sc.Kafka.ReadWaitMs) * time.Millisecond,
				MaxMessageBytes: sc.Kafka.MaxMessageBytes,
				Username:        sc.Kafka.Username,
				Password:        sc.Kafka.Password,
			})
		})
	}
	if err == nil {
		err = add(NameS3, sink.VariantObjectStore, sc.S3.Enabled, func() (sinkCloser, error) {
			return s3.New(ctx, s3.Config{
				Bucket:          sc.S3.Bucket,
				Prefix:          sc.S3.Prefix,
				Region:          sc.S3.Region,
				Endpoint:        sc.S3.Endpoint,
				AccessKeyID:     sc.S3.AccessKeyID,
				SecretAccessKey: sc.S3.SecretAccessKey,
				CreateBucket:    sc.S3.CreateBucket,
			})
		})
	}
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}

	return targets, closeAll, nil
}

type sinkCloser interface {
	sink.Sink
	io.Closer
}
