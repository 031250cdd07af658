package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetch_Success(t *testing.T) {
	body := `{"permits":[{"id":1}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "devactivity-producer/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	var mu sync.Mutex
	var phases []string
	f := New(Config{Observer: func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, e.Phase)
	}})

	got, err := f.Fetch(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	require.Equal(t, body, string(got))
	require.Equal(t, []string{"started", "completed"}, phases)
}

func TestFetch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	got, err := New(Config{}).Fetch(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(Config{}).Fetch(context.Background(), srv.URL, 50*time.Millisecond)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, KindTimeout, fe.Kind)
	require.Equal(t, "timeout", fe.Class())
}

func TestFetch_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(Config{}).Fetch(context.Background(), srv.URL, time.Second)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, KindTransport, fe.Kind)
	require.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	require.Contains(t, fe.Error(), "http 503")
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(Config{}).Fetch(context.Background(), url, time.Second)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	require.Equal(t, KindTransport, fe.Kind)
}

func TestFetch_BodyLargerThanMaxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	_, err := New(Config{MaxBytes: 100}).Fetch(context.Background(), srv.URL, time.Second)
	require.Error(t, err)

	got, err := New(Config{MaxBytes: 1000}).Fetch(context.Background(), srv.URL, time.Second)
	require.NoError(t, err)
	require.Len(t, got, 1000)
}

func TestFetch_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Fetch(ctx, "http://127.0.0.1:1/", time.Second)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}
