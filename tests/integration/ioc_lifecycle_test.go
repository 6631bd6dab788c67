//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hur/caracara/internal/testutil"
	"github.com/hur/caracara/pkg/falcon"
	"github.com/hur/caracara/pkg/ioc"
	"github.com/hur/caracara/pkg/ratelimit"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// iocStore is a stateful mock of the IOC API backing the lifecycle test.
type iocStore struct {
	mu         sync.Mutex
	nextID     int
	order      []string
	indicators map[string]ioc.Indicator
}

func newIOCStore() *iocStore {
	return &iocStore{indicators: make(map[string]ioc.Indicator)}
}

func (s *iocStore) install(mock *testutil.MockFalcon) {
	mock.SetHandler(http.MethodGet, "/iocs/queries/indicators/v1", s.search)
	mock.SetHandler(http.MethodGet, "/iocs/entities/indicators/v1", s.get)
	mock.SetHandler(http.MethodPost, "/iocs/entities/indicators/v1", s.create)
	mock.SetHandler(http.MethodPatch, "/iocs/entities/indicators/v1", s.update)
	mock.SetHandler(http.MethodDelete, "/iocs/entities/indicators/v1", s.delete)
}

func (s *iocStore) reply(w http.ResponseWriter, status int, body string) {
	testutil.SetRateLimitHeaders(w, 6000, 5990)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (s *iocStore) search(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}

	end := offset + limit
	if end > len(s.order) {
		end = len(s.order)
	}

	meta := &testutil.PageMeta{Limit: limit, Total: len(s.order)}
	if end < len(s.order) {
		meta.Offset = end
	}
	s.reply(w, http.StatusOK, testutil.Body(s.order[offset:end], meta))
}

func (s *iocStore) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []ioc.Indicator
	for _, id := range r.URL.Query()["ids"] {
		if indicator, ok := s.indicators[id]; ok {
			found = append(found, indicator)
		}
	}
	s.reply(w, http.StatusOK, testutil.Body(found, nil))
}

func (s *iocStore) create(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload struct {
		Indicators []ioc.Indicator `json:"indicators"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.reply(w, http.StatusBadRequest, testutil.Body(nil, nil, testutil.APIErr{Code: 400, Message: err.Error()}))
		return
	}

	created := make([]ioc.Indicator, len(payload.Indicators))
	for i, indicator := range payload.Indicators {
		s.nextID++
		indicator.ID = fmt.Sprintf("ind-%04d", s.nextID)
		s.indicators[indicator.ID] = indicator
		s.order = append(s.order, indicator.ID)
		created[i] = indicator
	}
	s.reply(w, http.StatusCreated, testutil.Body(created, nil))
}

func (s *iocStore) update(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload struct {
		Indicators []ioc.Indicator `json:"indicators"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.reply(w, http.StatusBadRequest, testutil.Body(nil, nil, testutil.APIErr{Code: 400, Message: err.Error()}))
		return
	}

	updated := make([]ioc.Indicator, 0, len(payload.Indicators))
	for _, indicator := range payload.Indicators {
		if _, ok := s.indicators[indicator.ID]; !ok {
			continue
		}
		s.indicators[indicator.ID] = indicator
		updated = append(updated, indicator)
	}
	s.reply(w, http.StatusOK, testutil.Body(updated, nil))
}

func (s *iocStore) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []string
	for _, id := range r.URL.Query()["ids"] {
		if _, ok := s.indicators[id]; !ok {
			continue
		}
		delete(s.indicators, id)
		deleted = append(deleted, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.reply(w, http.StatusOK, testutil.Body(deleted, nil))
}

// TestIOCLifecycle drives create, search, describe, update and delete
// end to end, with rate limit state shared through Redis.
func TestIOCLifecycle(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockFalcon()
	defer mock.Close()

	store := newIOCStore()
	store.install(mock)

	cfg := falcon.DefaultConfig("integration-client-id", "integration-client-secret")
	cfg.Cloud = mock.URL()
	cfg.RequestsPerSecond = 1000
	cfg.Timeout = 10 * time.Second
	cfg.RateLimitStore = ratelimit.NewRedisStore(redisClient)

	client, err := falcon.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	iocs := ioc.New(client, ioc.Config{PageLimit: 10, MaxWorkers: 4, BatchSize: 25})
	ctx := context.Background()

	// Create a batch of indicators
	t.Log("Creating 30 indicators")
	batch := make([]ioc.Indicator, 30)
	for i := range batch {
		batch[i] = ioc.Indicator{
			Type:   "domain",
			Value:  fmt.Sprintf("host-%02d.example.com", i),
			Action: "detect",
		}
	}
	created, err := iocs.CreateBatch(ctx, batch, ioc.MutateOptions{Comment: "integration test"})
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if len(created) != 30 {
		t.Fatalf("created %d indicators, want 30", len(created))
	}

	// Search pages through all of them in parallel (3 pages of 10)
	t.Log("Searching indicators")
	ids, err := iocs.SearchIndicatorIDs(ctx, ioc.NewFilter().Eq("type", "domain"))
	if err != nil {
		t.Fatalf("SearchIndicatorIDs() error = %v", err)
	}
	if len(ids) != 30 {
		t.Fatalf("search returned %d ids, want 30", len(ids))
	}

	// Describe resolves them back into indicators, batched by 25
	indicators, err := iocs.DescribeIndicators(ctx, ioc.NewFilter().Eq("type", "domain"))
	if err != nil {
		t.Fatalf("DescribeIndicators() error = %v", err)
	}
	if len(indicators) != 30 {
		t.Fatalf("describe returned %d indicators, want 30", len(indicators))
	}
	for i, indicator := range indicators {
		if indicator.ID != ids[i] {
			t.Fatalf("indicator %d = %s, want %s (order must follow search results)", i, indicator.ID, ids[i])
		}
	}

	// Update one
	t.Log("Updating an indicator")
	target := indicators[7]
	target.Severity = "high"
	updated, err := iocs.Update(ctx, target, ioc.MutateOptions{Comment: "integration test update"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Severity != "high" {
		t.Errorf("Severity = %q, want high", updated.Severity)
	}

	// Delete everything by filter
	t.Log("Deleting by filter")
	deleted, err := iocs.DeleteByFilter(ctx, ioc.NewFilter().Eq("type", "domain"), "integration test cleanup")
	if err != nil {
		t.Fatalf("DeleteByFilter() error = %v", err)
	}
	if len(deleted) != 30 {
		t.Fatalf("deleted %d indicators, want 30", len(deleted))
	}

	// Tenant is empty now
	if _, err := iocs.DescribeIndicators(ctx, ioc.NewFilter().Eq("type", "domain")); err != ioc.ErrNoIndicators {
		t.Errorf("DescribeIndicators() error = %v, want ErrNoIndicators", err)
	}

	// Rate limit state observed from headers ended up in Redis
	state, err := ratelimit.NewRedisStore(redisClient).Get(ctx)
	if err != nil {
		t.Fatalf("Get rate limit state: %v", err)
	}
	if state == nil {
		t.Fatal("no rate limit state stored in Redis")
	}
	if state.Limit != 6000 {
		t.Errorf("state.Limit = %d, want 6000", state.Limit)
	}
}
