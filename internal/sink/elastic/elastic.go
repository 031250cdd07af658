// internal/sink/elastic/elastic.go
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/strongtownslangley/devactivity-producer/internal/fingerprint"
	"github.com/strongtownslangley/devactivity-producer/internal/sink"
)

// Config is the minimal runtime config the document sink needs.
type Config struct {
	Addresses []string
	Index     string

	// Either APIKey or Username/Password (optional).
	APIKey   string
	Username string
	Password string

	// Transport overrides the HTTP round tripper (tests).
	Transport http.RoundTripper
}

// Sink stores each snapshot as one document and reads back the newest by
// timestamp.
type Sink struct {
	index  string
	es     *elasticsearch.Client
	legacy fingerprint.Hasher
}

func New(cfg Config) (*Sink, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("elasticsearch sink: at least one address required")
	}
	if strings.TrimSpace(cfg.Index) == "" {
		return nil, errors.New("elasticsearch sink: index required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		APIKey:    cfg.APIKey,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch sink: %w", err)
	}

	return &Sink{
		index:  cfg.Index,
		es:     es,
		legacy: fingerprint.MD5(),
	}, nil
}

// ---- document ----

// document is the stored shape. md5 is kept for readers of older indices.
type document struct {
	Fingerprint string          `json:"fingerprint,omitempty"`
	MD5         string          `json:"md5,omitempty"`
	Timestamp   int64           `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "fingerprint": {"type": "keyword"},
      "md5":         {"type": "keyword"},
      "timestamp":   {"type": "long"},
      "data":        {"type": "object", "enabled": false}
    }
  }
}`

// EnsureReady creates the index on first use.
func (s *Sink) EnsureReady(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return sink.Transient(sink.OpEnsure, fmt.Errorf("index exists %q: %w", s.index, err))
	}
	drain(res)

	switch {
	case res.StatusCode == http.StatusOK:
		return nil
	case res.StatusCode != http.StatusNotFound:
		return statusError(sink.OpEnsure, "index exists", res.StatusCode, nil)
	}

	res, err = s.es.Indices.Create(
		s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return sink.Transient(sink.OpEnsure, fmt.Errorf("create index %q: %w", s.index, err))
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		// lost a race with another producer
		if res.StatusCode == http.StatusBadRequest && bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return statusError(sink.OpEnsure, "create index", res.StatusCode, body)
	}
	return nil
}

// ReadLast counts first so an empty index never reaches _search.
func (s *Sink) ReadLast(ctx context.Context) (*sink.StoredRecord, error) {
	n, err := s.count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithSort("timestamp:desc"),
		s.es.Search.WithSize(1),
	)
	if err != nil {
		return nil, sink.Transient(sink.OpRead, fmt.Errorf("search %q: %w", s.index, err))
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, statusError(sink.OpRead, "search", res.StatusCode, body)
	}

	var out struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, sink.Transient(sink.OpRead, fmt.Errorf("decode search: %w", err))
	}
	if len(out.Hits.Hits) == 0 {
		return nil, nil
	}

	hit := out.Hits.Hits[0]
	fp := hit.Source.Fingerprint
	if fp == "" {
		fp = hit.Source.MD5
	}

	return &sink.StoredRecord{
		ID:          hit.ID,
		Fingerprint: fingerprint.Fingerprint(fp),
		Timestamp:   fromFileTime(hit.Source.Timestamp),
	}, nil
}

// Write creates a new document under a fresh id. refresh=wait_for makes it
// visible to the next ReadLast.
func (s *Sink) Write(ctx context.Context, rec sink.Record) (sink.Ack, error) {
	doc := document{
		Fingerprint: string(rec.Fingerprint),
		MD5:         string(s.legacy.Sum(rec.Payload)),
		Timestamp:   toFileTime(rec.Timestamp),
		Data:        embed(rec.Payload),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return sink.Ack{}, sink.Structural(sink.OpWrite, fmt.Errorf("encode document: %w", err))
	}

	id := uuid.NewString()
	res, err := s.es.Create(
		s.index,
		id,
		bytes.NewReader(body),
		s.es.Create.WithContext(ctx),
		s.es.Create.WithRefresh("wait_for"),
	)
	if err != nil {
		return sink.Ack{}, sink.Transient(sink.OpWrite, fmt.Errorf("create document: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return sink.Ack{}, statusError(sink.OpWrite, "create document", res.StatusCode, msg)
	}

	return sink.Ack{ID: id}, nil
}

// Close is a no-op; the client holds no long-lived state beyond idle conns.
func (s *Sink) Close() error { return nil }

// ---- helpers ----

func (s *Sink) count(ctx context.Context) (int64, error) {
	res, err := s.es.Count(
		s.es.Count.WithContext(ctx),
		s.es.Count.WithIndex(s.index),
	)
	if err != nil {
		return 0, sink.Transient(sink.OpRead, fmt.Errorf("count %q: %w", s.index, err))
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return 0, statusError(sink.OpRead, "count", res.StatusCode, body)
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, sink.Transient(sink.OpRead, fmt.Errorf("decode count: %w", err))
	}
	return out.Count, nil
}

func statusError(op, what string, code int, body []byte) error {
	err := fmt.Errorf("%s: status %d", what, code)
	if len(body) > 0 {
		err = fmt.Errorf("%s: status %d: %s", what, code, bytes.TrimSpace(body))
	}

	switch {
	case code == http.StatusNotFound:
		return sink.NotReady(op, err)
	case code == http.StatusTooManyRequests, code == http.StatusConflict, code >= 500:
		return sink.Transient(op, err)
	default:
		return sink.Structural(op, err)
	}
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}
}

// embed keeps JSON payloads as nested objects and stores anything else
// as a string.
func embed(payload []byte) json.RawMessage {
	if len(payload) > 0 && json.Valid(payload) {
		return json.RawMessage(payload)
	}
	b, _ := json.Marshal(string(payload))
	return b
}

// Windows file time: 100ns ticks since 1601-01-01 UTC.
const fileTimeEpochOffset = 116444736000000000

func toFileTime(t time.Time) int64 {
	return t.UnixNano()/100 + fileTimeEpochOffset
}

func fromFileTime(ft int64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	return time.Unix(0, (ft-fileTimeEpochOffset)*100).UTC()
}
