package nsgifts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// routeFunc answers the hit-th (1-based) request to a path.
type routeFunc func(w http.ResponseWriter, r *http.Request, hit int)

type recordedRequest struct {
	path   string
	header http.Header
	body   map[string]any
}

// apiServer is an in-process NS Gifts API. The login route issues tok-1,
// tok-2, ... in order.
type apiServer struct {
	*httptest.Server

	mu         sync.Mutex
	routes     map[string]routeFunc
	hits       map[string]int
	requests   []recordedRequest
	loginDelay time.Duration
	closed     int
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{
		routes: make(map[string]routeFunc),
		hits:   make(map[string]int),
	}
	s.routes[PathLogin] = func(w http.ResponseWriter, r *http.Request, hit int) {
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": fmt.Sprintf("tok-%d", hit),
			"valid_thru":   time.Now().Add(time.Hour).Unix(),
		})
	}
	s.Server = httptest.NewUnstartedServer(http.HandlerFunc(s.serve))
	s.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateClosed {
			s.mu.Lock()
			s.closed++
			s.mu.Unlock()
		}
	}
	s.Start()
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) handle(path string, fn routeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = fn
}

func (s *apiServer) serve(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.hits[r.URL.Path]++
	hit := s.hits[r.URL.Path]
	s.requests = append(s.requests, recordedRequest{path: r.URL.Path, header: r.Header.Clone(), body: body})
	fn, ok := s.routes[r.URL.Path]
	delay := s.loginDelay
	s.mu.Unlock()

	if r.URL.Path == PathLogin && delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not Found"})
		return
	}
	fn(w, r, hit)
}

func (s *apiServer) setLoginDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginDelay = d
}

func (s *apiServer) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// closedConns counts client connections the server has seen closed.
func (s *apiServer) closedConns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *apiServer) requestsTo(path string) []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedRequest
	for _, r := range s.requests {
		if r.path == path {
			out = append(out, r)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// bearer reports the token a request carried.
func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// sleepRecorder replaces the backoff wait so tests run instantly.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) option() Option {
	return func(c *clientConfig) {
		c.sleep = func(ctx context.Context, d time.Duration) error {
			s.mu.Lock()
			s.delays = append(s.delays, d)
			s.mu.Unlock()
			return ctx.Err()
		}
	}
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}

func newTestClient(t *testing.T, srv *apiServer, opts ...Option) (*Client, *sleepRecorder) {
	t.Helper()
	sleeps := &sleepRecorder{}
	base := []Option{
		WithBaseURL(srv.URL),
		WithCredentials("shop@example.com", "secret"),
		WithTimeout(2 * time.Second),
		sleeps.option(),
	}
	client, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, sleeps
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.DebugLevel)
}
