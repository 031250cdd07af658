// internal/sink/s3/s3.go
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/strongtownslangley/devactivity-producer/internal/fingerprint"
	"github.com/strongtownslangley/devactivity-producer/internal/sink"
)

const (
	latestName  = "latest.json"
	recordsDir  = "records"
	contentType = "application/json"
)

type Config struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint is a custom base URL (MinIO). Path-style is always used.
	Endpoint string

	// Static credentials (optional). Empty uses the default chain.
	AccessKeyID     string
	SecretAccessKey string

	CreateBucket bool
}

type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Sink keeps every snapshot under records/ and a copy of the newest one
// under latest.json, which is all ReadLast looks at.
type Sink struct {
	client s3API
	cfg    Config
	prefix string
}

// object is the stored body of both the record and latest.json.
type object struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     []byte    `json:"payload"`
}

func New(ctx context.Context, cfg Config) (*Sink, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 sink: bucket required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 sink: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newSink(client, cfg), nil
}

func newSink(client s3API, cfg Config) *Sink {
	return &Sink{
		client: client,
		cfg:    cfg,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}
}

func (s *Sink) EnsureReady(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return classify(sink.OpEnsure, fmt.Errorf("head bucket %q: %w", s.cfg.Bucket, err))
	}
	if !s.cfg.CreateBucket {
		return sink.NotReady(sink.OpEnsure, fmt.Errorf("bucket %q does not exist", s.cfg.Bucket))
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(s.cfg.Bucket)}
	if s.cfg.Region != "" && s.cfg.Region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.Region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return classify(sink.OpEnsure, fmt.Errorf("create bucket %q: %w", s.cfg.Bucket, err))
	}
	return nil
}

func (s *Sink) ReadLast(ctx context.Context) (*sink.StoredRecord, error) {
	key := s.key(latestName)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, classify(sink.OpRead, fmt.Errorf("get %q: %w", key, err))
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, sink.Transient(sink.OpRead, fmt.Errorf("read %q: %w", key, err))
	}

	var obj object
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, sink.Structural(sink.OpRead, fmt.Errorf("decode %q: %w", key, err))
	}

	return &sink.StoredRecord{
		ID:          obj.ID,
		Fingerprint: fingerprint.Fingerprint(obj.Fingerprint),
		Timestamp:   obj.Timestamp,
		Payload:     obj.Payload,
	}, nil
}

// Write puts the record first and latest.json second. A failure between the
// two leaves latest.json at the previous snapshot, so the next cycle writes
// again.
func (s *Sink) Write(ctx context.Context, rec sink.Record) (sink.Ack, error) {
	id := strconv.FormatInt(rec.Timestamp.UnixNano(), 10) + "-" + uuid.NewString()

	body, err := json.Marshal(object{
		ID:          id,
		Fingerprint: string(rec.Fingerprint),
		Timestamp:   rec.Timestamp.UTC(),
		Payload:     rec.Payload,
	})
	if err != nil {
		return sink.Ack{}, sink.Structural(sink.OpWrite, fmt.Errorf("encode record: %w", err))
	}

	for _, key := range []string{s.key(recordsDir, id+".json"), s.key(latestName)} {
		if err := s.put(ctx, key, body); err != nil {
			return sink.Ack{}, classify(sink.OpWrite, err)
		}
	}

	return sink.Ack{ID: id}, nil
}

func (s *Sink) Close() error { return nil }

// ---- helpers ----

func (s *Sink) put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (s *Sink) key(parts ...string) string {
	k := strings.Join(parts, "/")
	if s.prefix == "" {
		return k
	}
	return s.prefix + "/" + k
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nb *types.NoSuchBucket
	return errors.As(err, &nb)
}

func classify(op string, err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return sink.Transient(op, err)
	}

	switch apiErr.ErrorCode() {
	case "SlowDown", "InternalError", "ServiceUnavailable", "RequestTimeout", "RequestTimeTooSkewed":
		return sink.Transient(op, err)
	case "NoSuchBucket", "NotFound":
		return sink.NotReady(op, err)
	default:
		// AccessDenied, InvalidAccessKeyId, SignatureDoesNotMatch, ...
		return sink.Structural(op, err)
	}
}
