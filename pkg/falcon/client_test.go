package falcon

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hur/caracara/internal/testutil"
)

func testClient(t *testing.T, mock *testutil.MockFalcon) *Client {
	t.Helper()

	cfg := DefaultConfig("test-client-id", "test-client-secret")
	cfg.Cloud = mock.URL()
	cfg.RequestsPerSecond = 1000
	cfg.Timeout = 5 * time.Second

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:        "valid config",
			config:      DefaultConfig("id", "secret"),
			expectError: false,
		},
		{
			name:        "missing client id",
			config:      Config{ClientSecret: "secret"},
			expectError: true,
		},
		{
			name:        "missing client secret",
			config:      Config{ClientID: "id"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestClient_Get(t *testing.T) {
	mock := testutil.NewMockFalcon()
	defer mock.Close()

	mock.SetResponse(http.MethodGet, "/iocs/queries/indicators/v1", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body: testutil.Body([]string{"id-1", "id-2"}, &testutil.PageMeta{
			Limit: 2, Offset: 2, Total: 4,
		}),
	})

	client := testClient(t, mock)

	resp, err := client.Get(context.Background(), "/iocs/queries/indicators/v1", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	ids, err := DecodeResources[string](resp)
	if err != nil {
		t.Fatalf("DecodeResources() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "id-1" {
		t.Errorf("resources = %v, want [id-1 id-2]", ids)
	}

	auth := mock.LastRequestHeader.Get("Authorization")
	if auth == "" || auth == "Bearer " {
		t.Errorf("Authorization header = %q, want bearer token", auth)
	}
}

func TestClient_TokenReuse(t *testing.T) {
	mock := testutil.NewMockFalcon()
	defer mock.Close()

	client := testClient(t, mock)

	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "/iocs/queries/indicators/v1", nil); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	}

	if got := mock.GetTokenRequests(); got != 1 {
		t.Errorf("token requests = %d, want 1 (token should be cached)", got)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	mock := testutil.NewMockFalcon()
	defer mock.Close()

	var attempts atomic.Int32
	mock.SetHandler(http.MethodGet, "/iocs/queries/indicators/v1", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		testutil.SetRateLimitHeaders(w, 6000, 5990)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(testutil.Body([]string{"id-1"}, &testutil.PageMeta{Limit: 1, Total: 1})))
	})

	client := testClient(t, mock)

	resp, err := client.Get(context.Background(), "/iocs/queries/indicators/v1", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2 (one failure, one retry)", got)
	}
}

func TestClient_ClientErrorsNotRetried(t *testing.T) {
	mock := testutil.NewMockFalcon()
	defer mock.Close()

	var attempts atomic.Int32
	mock.SetHandler(http.MethodGet, "/iocs/queries/indicators/v1", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(testutil.Body(nil, nil, testutil.APIErr{Code: 400, Message: "invalid filter"})))
	})

	client := testClient(t, mock)

	resp, err := client.Get(context.Background(), "/iocs/queries/indicators/v1", nil)
	if err != nil {
		t.Fatalf("Get() error = %v (4xx replies carry their errors in the body)", err)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Code != 400 {
		t.Errorf("Errors = %v, want the invalid filter error", resp.Errors)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (client errors are not retried)", got)
	}
}

func TestClient_BadCredentials(t *testing.T) {
	mock := testutil.NewMockFalcon()
	defer mock.Close()

	cfg := DefaultConfig("test-client-id", "")
	cfg.Cloud = mock.URL()

	if _, err := New(cfg); err == nil {
		t.Fatal("New() with empty secret should fail")
	}
}

func TestRequestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &RequestError{StatusCode: 500, ErrorClass: ErrorClassServer, Message: "oops", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is() should find the wrapped error")
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{429, ErrorClassRateLimit},
		{404, ErrorClassClient},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
		{200, ""},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
