package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/project-tktt/review-crawler/internal/domain"
)

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(Config{RequestsPerSecond: 100, Timeout: 2 * time.Second})
	assert.NoError(t, err)
	return f
}

func TestHTTPFetcher_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>page</html>"))
	}))
	defer ts.Close()

	f := newTestFetcher(t)
	defer f.Close()

	body, err := f.Fetch(context.Background(), domain.PageRef{URL: ts.URL, Index: 1})
	assert.NoError(t, err)
	assert.Equal(t, "<html>page</html>", string(body))
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	f := newTestFetcher(t)
	defer f.Close()

	_, err := f.Fetch(context.Background(), domain.PageRef{URL: ts.URL, Index: 1})
	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, KindHTTPStatus, fe.Kind)
	assert.Equal(t, http.StatusTooManyRequests, fe.Status)
	assert.Equal(t, 2*time.Second, fe.RetryAfter)
}

func TestHTTPFetcher_RetriedThroughPolicy(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	f := newTestFetcher(t)
	defer f.Close()

	p := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond}
	page := domain.PageRef{URL: ts.URL, Index: 1}
	body, err := p.Do(context.Background(), func() ([]byte, error) {
		return f.Fetch(context.Background(), page)
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	f := newTestFetcher(t)
	defer f.Close()

	_, err := f.Fetch(context.Background(), domain.PageRef{URL: "http://127.0.0.1:1", Index: 1})
	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, KindNetwork, fe.Kind)
}
