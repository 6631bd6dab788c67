// Package testutil provides testing utilities for the Falcon client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockResponse defines the behavior for a mock Falcon endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockFalcon is a configurable mock Falcon API server for testing. It
// serves the OAuth2 token endpoint out of the box; everything else is wired
// up per test via SetHandler or SetResponse.
type MockFalcon struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	TokenRequests     int
	LastRequestHeader http.Header
}

// NewMockFalcon creates a new mock Falcon API server.
func NewMockFalcon() *MockFalcon {
	mock := &MockFalcon{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		if r.URL.Path == "/oauth2/token" {
			mock.tokenHandler(w, r)
			return
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.Method+" "+r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockFalcon) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockFalcon) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockFalcon) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.TokenRequests = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a method and path.
func (m *MockFalcon) SetHandler(method, path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = handler
}

// SetResponse configures a canned response for a method and path.
func (m *MockFalcon) SetResponse(method, path string, resp MockResponse) {
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		SetRateLimitHeaders(w, 6000, 5990)
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server,
// including token requests.
func (m *MockFalcon) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetTokenRequests returns the number of OAuth2 token requests.
func (m *MockFalcon) GetTokenRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TokenRequests
}

// tokenHandler issues a fresh bearer token.
func (m *MockFalcon) tokenHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.TokenRequests++
	m.mu.Unlock()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("client_id") == "" || r.PostForm.Get("client_secret") == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors": [{"code": 403, "message": "access denied, invalid credentials"}]}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": uuid.NewString(),
		"expires_in":   1799,
		"token_type":   "bearer",
	})
}

// defaultHandler provides a Falcon-shaped empty reply.
func (m *MockFalcon) defaultHandler(w http.ResponseWriter, _ *http.Request) {
	SetRateLimitHeaders(w, 6000, 5990)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(Body(nil, nil)))
}

// SetRateLimitHeaders writes the Falcon rate limit headers.
func SetRateLimitHeaders(w http.ResponseWriter, limit, remaining int) {
	w.Header().Set("X-Ratelimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-Ratelimit-Remaining", strconv.Itoa(remaining))
}

// PageMeta describes the pagination metadata emitted by Body. Offset may be
// an int (numbered dialect), a string (token dialect) or nil (final page).
type PageMeta struct {
	Limit  int
	Offset any
	After  string
	Total  int
}

// APIErr is a top-level error entry emitted by Body.
type APIErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Body renders a Falcon reply body with the given resources, pagination
// metadata and errors.
func Body(resources any, meta *PageMeta, apiErrors ...APIErr) string {
	reply := map[string]any{
		"resources": resources,
		"errors":    apiErrors,
		"meta": map[string]any{
			"trace_id": uuid.NewString(),
		},
	}
	if meta != nil {
		pagination := map[string]any{
			"limit": meta.Limit,
			"total": meta.Total,
		}
		if meta.Offset != nil {
			pagination["offset"] = meta.Offset
		}
		if meta.After != "" {
			pagination["after"] = meta.After
		}
		reply["meta"].(map[string]any)["pagination"] = pagination
	}

	data, err := json.Marshal(reply)
	if err != nil {
		panic(err)
	}
	return string(data)
}
