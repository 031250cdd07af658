// internal/fetch/fetcher.go
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Kind separates timeouts from every other fetch failure.
type Kind uint8

const (
	KindTimeout Kind = iota + 1
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is returned by Fetch. HTTP status failures are KindTransport with
// StatusCode set.
type Error struct {
	URL        string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s: http %d", e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Class reports the error class for status tracking.
func (e *Error) Class() string { return e.Kind.String() }

// ---- OBSERVER ----

// Event is a defined point of a fetch reported to an Observer.
type Event struct {
	URL      string
	Phase    string // "started" or "completed"
	Bytes    int
	Duration time.Duration
}

// Observer receives progress events. It must not block.
type Observer func(Event)

// ---- FETCHER ----

// Config configures the fetcher.
type Config struct {
	MaxBytes  int64 // Default: 64MB.
	UserAgent string
	Observer  Observer
	Client    *http.Client
}

func (c *Config) defaults() {
	if c.MaxBytes <= 0 {
		c.MaxBytes = 64 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "devactivity-producer/1.0"
	}
	if c.Client == nil {
		c.Client = &http.Client{}
	}
}

// Fetcher downloads snapshots over HTTP.
type Fetcher struct {
	config Config
}

func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{config: cfg}
}

// Fetch retrieves url, bounded by timeout. The whole body is returned;
// a body larger than MaxBytes is an error, never truncated.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	f.observe(Event{URL: url, Phase: "started"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Kind: KindTransport, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.config.Client.Do(req)
	if err != nil {
		return nil, wrap(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Error{
			URL:        url,
			Kind:       KindTransport,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, wrap(url, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, &Error{
			URL:  url,
			Kind: KindTransport,
			Err:  fmt.Errorf("body exceeds %d bytes", f.config.MaxBytes),
		}
	}

	f.observe(Event{URL: url, Phase: "completed", Bytes: len(body), Duration: time.Since(start)})
	return body, nil
}

func (f *Fetcher) observe(e Event) {
	if f.config.Observer != nil {
		f.config.Observer(e)
	}
}

func wrap(url string, err error) error {
	kind := KindTransport
	if isTimeout(err) {
		kind = KindTimeout
	}
	return &Error{URL: url, Kind: kind, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
