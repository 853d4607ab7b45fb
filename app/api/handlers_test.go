package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kitsunelab/marketcal/app/database"
	"github.com/kitsunelab/marketcal/app/tasks"
)

type mockEconomicsRepo struct {
	events    []database.EconomicEvent
	reads     int
	lastStart *time.Time
	lastEnd   *time.Time
	count     int
	firstDay  *time.Time
	lastDay   *time.Time
}

func (m *mockEconomicsRepo) UpsertEvents(ctx context.Context, byDay map[time.Time][]database.EconomicEvent) error {
	return nil
}

func (m *mockEconomicsRepo) GetEventsByRange(ctx context.Context, start, end *time.Time) ([]database.EconomicEvent, error) {
	m.reads++
	m.lastStart = start
	m.lastEnd = end
	return m.events, nil
}

func (m *mockEconomicsRepo) GetEventCount(ctx context.Context) (int, error) {
	return m.count, nil
}

func (m *mockEconomicsRepo) GetDaySpan(ctx context.Context) (*time.Time, *time.Time, error) {
	return m.firstDay, m.lastDay, nil
}

type mockEarningsRepo struct {
	items []database.EarningsItem
	count int
}

func (m *mockEarningsRepo) UpsertItems(ctx context.Context, byDay map[time.Time]map[string][]database.EarningsItem) error {
	return nil
}

func (m *mockEarningsRepo) GetItemsByRange(ctx context.Context, start, end *time.Time) ([]database.EarningsItem, error) {
	return m.items, nil
}

func (m *mockEarningsRepo) GetItemCount(ctx context.Context) (int, error) {
	return m.count, nil
}

func (m *mockEarningsRepo) GetDaySpan(ctx context.Context) (*time.Time, *time.Time, error) {
	return nil, nil, nil
}

type mockWatchlistRepo struct {
	tickers []string
	removed []string
}

func (m *mockWatchlistRepo) GetTickers(ctx context.Context) ([]string, error) {
	return m.tickers, nil
}

func (m *mockWatchlistRepo) AddTicker(ctx context.Context, ticker string) error {
	m.tickers = append(m.tickers, strings.ToUpper(ticker))
	return nil
}

func (m *mockWatchlistRepo) RemoveTicker(ctx context.Context, ticker string) error {
	m.removed = append(m.removed, strings.ToUpper(ticker))
	return nil
}

type mockScheduler struct {
	triggered int
	queueSize int
}

func (m *mockScheduler) Start() {}
func (m *mockScheduler) Stop()  {}

func (m *mockScheduler) EnqueueTask(task tasks.TaskInterface) error { return nil }

func (m *mockScheduler) TriggerSync() map[string]string {
	m.triggered++
	return map[string]string{"economics": "queued", "earnings": "queued"}
}

func (m *mockScheduler) QueueSize() int { return m.queueSize }

type mockCache struct {
	entries map[string]string
	sets    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]string)}
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	return m.entries[key], nil
}

func (m *mockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.entries[key] = value
	m.sets++
	return nil
}

type testEnv struct {
	economics *mockEconomicsRepo
	earnings  *mockEarningsRepo
	watchlist *mockWatchlistRepo
	scheduler *mockScheduler
	server    http.Handler
}

func newTestEnv(responseCache ResponseCache) *testEnv {
	env := &testEnv{
		economics: &mockEconomicsRepo{},
		earnings:  &mockEarningsRepo{},
		watchlist: &mockWatchlistRepo{},
		scheduler: &mockScheduler{},
	}

	handler := NewHandler(env.economics, env.earnings, env.watchlist, env.scheduler, responseCache, "test")
	env.server = NewServer(handler)
	return env
}

func (env *testEnv) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, req)
	return w
}

func strptr(s string) *string { return &s }

func TestGetEconomicsCalendar(t *testing.T) {
	day := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)

	env := newTestEnv(nil)
	env.economics.events = []database.EconomicEvent{
		{
			ID: 1, Day: day,
			Instant:  time.Date(2026, time.August, 26, 12, 30, 0, 0, time.UTC),
			Currency: strptr("USD"), Impact: strptr("High"),
			Event: "CPI m/m", Actual: strptr("0.3%"), Forecast: strptr("0.2%"),
		},
		{
			ID: 2, Day: day,
			Instant: day, IsAllDay: true,
			Event: "Bank Holiday",
		},
	}

	w := env.request(t, "GET", "/calendar/economics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var response map[string][]EconomicEventResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	events, ok := response["Wednesday, 08/26/2026"]
	if !ok {
		t.Fatalf("Expected formatted day key, got body: %s", w.Body.String())
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got: %d", len(events))
	}

	if events[0].Event != "CPI m/m" {
		t.Errorf("Expected first event 'CPI m/m', got: %s", events[0].Event)
	}
	if events[0].Currency == nil || *events[0].Currency != "USD" {
		t.Errorf("Expected currency 'USD', got: %v", events[0].Currency)
	}
	if events[0].Previous != nil {
		t.Errorf("Expected null previous, got: %v", events[0].Previous)
	}

	if !events[1].IsAllDay {
		t.Error("Expected second event to be all-day")
	}
	if events[1].Impact != nil {
		t.Errorf("Expected null impact, got: %v", events[1].Impact)
	}
}

func TestGetEconomicsCalendarRange(t *testing.T) {
	env := newTestEnv(nil)

	w := env.request(t, "GET", "/calendar/economics?start=2026-08-01&end=2026-08-31", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	if env.economics.lastStart == nil || env.economics.lastStart.Format("2006-01-02") != "2026-08-01" {
		t.Errorf("Expected start bound 2026-08-01, got: %v", env.economics.lastStart)
	}
	if env.economics.lastEnd == nil || env.economics.lastEnd.Format("2006-01-02") != "2026-08-31" {
		t.Errorf("Expected end bound 2026-08-31, got: %v", env.economics.lastEnd)
	}
}

func TestGetEconomicsCalendarInvalidDate(t *testing.T) {
	env := newTestEnv(nil)

	w := env.request(t, "GET", "/calendar/economics?start=08-26-2026", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got: %d", w.Code)
	}
	if env.economics.reads != 0 {
		t.Error("Expected no repository read for invalid date")
	}
}

func TestGetEarningsCalendar(t *testing.T) {
	day := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)

	env := newTestEnv(nil)
	env.earnings.items = []database.EarningsItem{
		{
			ID: 1, Day: day, Company: "NVIDIA Corporation", Symbol: "NVDA",
			Date:        time.Date(2026, time.August, 26, 16, 0, 0, 0, time.UTC),
			Timing:      strptr("AMC"),
			EPSEstimate: floatptr(1.01),
		},
		{
			ID: 2, Day: day, Company: "", Symbol: "XYZ",
			Date: time.Date(2026, time.August, 26, 20, 0, 0, 0, time.UTC),
		},
	}

	w := env.request(t, "GET", "/calendar/earnings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var response map[string]map[string][]EarningsItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	companies, ok := response["Wednesday, 08/26/2026"]
	if !ok {
		t.Fatalf("Expected formatted day key, got body: %s", w.Body.String())
	}

	nvidia := companies["NVIDIA Corporation"]
	if len(nvidia) != 1 || nvidia[0].Symbol != "NVDA" {
		t.Errorf("Expected NVDA under NVIDIA Corporation, got: %v", nvidia)
	}
	if nvidia[0].EPSEstimate == nil || *nvidia[0].EPSEstimate != 1.01 {
		t.Errorf("Expected EPS estimate 1.01, got: %v", nvidia[0].EPSEstimate)
	}
	if nvidia[0].ReportedEPS != nil {
		t.Errorf("Expected null reported EPS, got: %v", nvidia[0].ReportedEPS)
	}

	// A blank company groups under its symbol.
	if len(companies["XYZ"]) != 1 {
		t.Errorf("Expected XYZ grouped under its symbol, got body: %s", w.Body.String())
	}
}

func TestWatchlistLifecycle(t *testing.T) {
	env := newTestEnv(nil)

	w := env.request(t, "GET", "/admin/watchlist", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("Expected empty JSON array, got: %s", body)
	}

	w = env.request(t, "POST", "/admin/watchlist", `{"tickers": ["nvda", " ", "amd"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var tickers []string
	if err := json.Unmarshal(w.Body.Bytes(), &tickers); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(tickers) != 2 || tickers[0] != "NVDA" || tickers[1] != "AMD" {
		t.Errorf("Expected [NVDA AMD], got: %v", tickers)
	}

	w = env.request(t, "DELETE", "/admin/watchlist/nvda", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}
	if len(env.watchlist.removed) != 1 || env.watchlist.removed[0] != "NVDA" {
		t.Errorf("Expected NVDA removed, got: %v", env.watchlist.removed)
	}
}

func TestWatchlistInvalidBody(t *testing.T) {
	env := newTestEnv(nil)

	w := env.request(t, "POST", "/admin/watchlist", `{"tickers": "NVDA"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got: %d", w.Code)
	}
}

func TestTriggerSyncEndpoint(t *testing.T) {
	env := newTestEnv(nil)

	w := env.request(t, "POST", "/admin/sync", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got: %d", w.Code)
	}
	if env.scheduler.triggered != 1 {
		t.Errorf("Expected 1 trigger, got: %d", env.scheduler.triggered)
	}

	var response struct {
		Status string            `json:"status"`
		Syncs  map[string]string `json:"syncs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "accepted" {
		t.Errorf("Expected status 'accepted', got: %s", response.Status)
	}
	if response.Syncs["economics"] != "queued" {
		t.Errorf("Expected economics queued, got: %v", response.Syncs)
	}
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(nil)
	env.economics.count = 120
	env.earnings.count = 45

	w := env.request(t, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if health["service"] != "marketcal" {
		t.Errorf("Expected service 'marketcal', got: %v", health["service"])
	}
	if health["version"] != "test" {
		t.Errorf("Expected version 'test', got: %v", health["version"])
	}
	if health["economic_events"] != float64(120) {
		t.Errorf("Expected 120 economic events, got: %v", health["economic_events"])
	}
}

func TestGetStats(t *testing.T) {
	first := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	env := newTestEnv(nil)
	env.economics.count = 120
	env.economics.firstDay = &first
	env.economics.lastDay = &last
	env.scheduler.queueSize = 2

	w := env.request(t, "GET", "/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}

	var stats struct {
		Economics struct {
			Events   int    `json:"events"`
			FirstDay string `json:"first_day"`
			LastDay  string `json:"last_day"`
		} `json:"economics"`
		Scheduler struct {
			QueueSize int `json:"queue_size"`
		} `json:"scheduler"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if stats.Economics.Events != 120 {
		t.Errorf("Expected 120 events, got: %d", stats.Economics.Events)
	}
	if stats.Economics.FirstDay != "2026-08-01" || stats.Economics.LastDay != "2026-08-31" {
		t.Errorf("Expected day span 2026-08-01..2026-08-31, got: %s..%s",
			stats.Economics.FirstDay, stats.Economics.LastDay)
	}
	if stats.Scheduler.QueueSize != 2 {
		t.Errorf("Expected queue size 2, got: %d", stats.Scheduler.QueueSize)
	}
}

func TestEconomicsCalendarCaching(t *testing.T) {
	responseCache := newMockCache()
	env := newTestEnv(responseCache)

	// First read misses the cache, hits the repository and stores the body.
	w := env.request(t, "GET", "/calendar/economics?start=2026-08-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}
	if env.economics.reads != 1 {
		t.Fatalf("Expected 1 repository read, got: %d", env.economics.reads)
	}
	if responseCache.sets != 1 {
		t.Fatalf("Expected 1 cache write, got: %d", responseCache.sets)
	}

	// Second identical read is served from cache.
	w = env.request(t, "GET", "/calendar/economics?start=2026-08-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got: %d", w.Code)
	}
	if env.economics.reads != 1 {
		t.Errorf("Expected cached response without repository read, got: %d reads", env.economics.reads)
	}

	// A different range is its own cache entry.
	env.request(t, "GET", "/calendar/economics?start=2026-07-01", "")
	if env.economics.reads != 2 {
		t.Errorf("Expected repository read for new range, got: %d reads", env.economics.reads)
	}
}

func floatptr(f float64) *float64 { return &f }
