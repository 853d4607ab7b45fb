package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kitsunelab/marketcal/app/cache"
	"github.com/kitsunelab/marketcal/app/database"
	"github.com/kitsunelab/marketcal/app/tasks"
)

func NewHandler(economicsRepo database.EconomicsRepository, earningsRepo database.EarningsRepository,
	watchlistRepo database.WatchlistRepository, scheduler tasks.TaskSchedulerInterface,
	responseCache ResponseCache, version string) *Handler {
	return &Handler{
		economicsRepo: economicsRepo,
		earningsRepo:  earningsRepo,
		watchlistRepo: watchlistRepo,
		scheduler:     scheduler,
		cache:         responseCache,
		cacheTTL:      5 * time.Minute,
		version:       version,
	}
}

// GetEconomicsCalendar serves economic events grouped by formatted day,
// in storage order (day ascending, then insertion order) within each day.
func (h *Handler) GetEconomicsCalendar(c *gin.Context) {
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}

	if body, hit := h.cachedResponse(c, "economics", start, end); hit {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(body))
		return
	}

	events, err := h.economicsRepo.GetEventsByRange(c.Request.Context(), start, end)
	if err != nil {
		slog.Error("Database error", "operation", "get_economics_calendar", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make(map[string][]EconomicEventResponse)
	for _, event := range events {
		key := event.Day.Format(dayKeyFormat)
		response[key] = append(response[key], EconomicEventResponse{
			Time:     event.Instant,
			IsAllDay: event.IsAllDay,
			Currency: event.Currency,
			Impact:   event.Impact,
			Event:    event.Event,
			Actual:   event.Actual,
			Forecast: event.Forecast,
			Previous: event.Previous,
		})
	}

	h.respond(c, "economics", start, end, response)
}

// GetEarningsCalendar serves earnings entries grouped by formatted day,
// then by company. Days arrive from storage newest first.
func (h *Handler) GetEarningsCalendar(c *gin.Context) {
	start, end, ok := h.parseRange(c)
	if !ok {
		return
	}

	if body, hit := h.cachedResponse(c, "earnings", start, end); hit {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(body))
		return
	}

	items, err := h.earningsRepo.GetItemsByRange(c.Request.Context(), start, end)
	if err != nil {
		slog.Error("Database error", "operation", "get_earnings_calendar", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make(map[string]map[string][]EarningsItemResponse)
	for _, item := range items {
		key := item.Day.Format(dayKeyFormat)
		company := item.Company
		if company == "" {
			company = item.Symbol
		}

		if response[key] == nil {
			response[key] = make(map[string][]EarningsItemResponse)
		}
		response[key][company] = append(response[key][company], EarningsItemResponse{
			Symbol:      item.Symbol,
			MarketCap:   item.MarketCap,
			EventName:   item.EventName,
			Date:        item.Date,
			Timing:      item.Timing,
			EPSEstimate: item.EPSEstimate,
			ReportedEPS: item.ReportedEPS,
			SurprisePct: item.SurprisePct,
		})
	}

	h.respond(c, "earnings", start, end, response)
}

func (h *Handler) GetWatchlist(c *gin.Context) {
	tickers, err := h.watchlistRepo.GetTickers(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_watchlist", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, tickerList(tickers))
}

// AddWatchlistTickers adds every ticker from the request body and returns
// the updated watchlist. Tickers are uppercased on write; blank entries
// are ignored.
func (h *Handler) AddWatchlistTickers(c *gin.Context) {
	var req AddTickersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body, expected {\"tickers\": [...]}"})
		return
	}

	for _, ticker := range req.Tickers {
		ticker = strings.TrimSpace(ticker)
		if ticker == "" {
			continue
		}

		if err := h.watchlistRepo.AddTicker(c.Request.Context(), ticker); err != nil {
			slog.Error("Database error", "operation", "add_watchlist_ticker", "ticker", ticker, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
	}

	h.GetWatchlist(c)
}

func (h *Handler) RemoveWatchlistTicker(c *gin.Context) {
	ticker := c.Param("ticker")
	if ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ticker parameter"})
		return
	}

	if err := h.watchlistRepo.RemoveTicker(c.Request.Context(), ticker); err != nil {
		slog.Error("Database error", "operation", "remove_watchlist_ticker", "ticker", ticker, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	h.GetWatchlist(c)
}

// TriggerSync enqueues both calendar syncs and reports per-source what
// happened. The work runs on the scheduler's workers; 202 means accepted,
// not finished.
func (h *Handler) TriggerSync(c *gin.Context) {
	statuses := h.scheduler.TriggerSync()

	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
		"syncs":  statuses,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	health := map[string]interface{}{
		"service":   "marketcal",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if count, err := h.economicsRepo.GetEventCount(ctx); err == nil {
		health["economic_events"] = count
	}
	if count, err := h.earningsRepo.GetItemCount(ctx); err == nil {
		health["earnings_items"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	economics := map[string]interface{}{}
	if count, err := h.economicsRepo.GetEventCount(ctx); err == nil {
		economics["events"] = count
	}
	if first, last, err := h.economicsRepo.GetDaySpan(ctx); err == nil {
		if first != nil {
			economics["first_day"] = first.Format("2006-01-02")
		}
		if last != nil {
			economics["last_day"] = last.Format("2006-01-02")
		}
	}

	earnings := map[string]interface{}{}
	if count, err := h.earningsRepo.GetItemCount(ctx); err == nil {
		earnings["items"] = count
	}
	if first, last, err := h.earningsRepo.GetDaySpan(ctx); err == nil {
		if first != nil {
			earnings["first_day"] = first.Format("2006-01-02")
		}
		if last != nil {
			earnings["last_day"] = last.Format("2006-01-02")
		}
	}

	stats := map[string]interface{}{
		"economics": economics,
		"earnings":  earnings,
		"scheduler": map[string]interface{}{
			"queue_size": h.scheduler.QueueSize(),
		},
	}

	if tickers, err := h.watchlistRepo.GetTickers(ctx); err == nil {
		stats["watchlist"] = map[string]interface{}{"tickers": len(tickers)}
	}

	c.JSON(http.StatusOK, stats)
}

// parseRange reads the optional inclusive start/end day bounds. On a
// malformed date it writes the 400 itself and reports !ok.
func (h *Handler) parseRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	start, err := parseDateParam(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start date, expected YYYY-MM-DD"})
		return nil, nil, false
	}

	end, err := parseDateParam(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end date, expected YYYY-MM-DD"})
		return nil, nil, false
	}

	return start, end, true
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}

	return &parsed, nil
}

// tickerList guards against nil so an empty watchlist serializes as []
// rather than null.
func tickerList(tickers []string) []string {
	if tickers == nil {
		return []string{}
	}
	return tickers
}

func (h *Handler) cachedResponse(c *gin.Context, kind string, start, end *time.Time) (string, bool) {
	if h.cache == nil {
		return "", false
	}

	key := cache.ResponseKey(kind, start, end)
	body, err := h.cache.Get(c.Request.Context(), key)
	if err != nil {
		slog.Warn("Cache read failed, falling back to database", "key", key, "error", err)
		return "", false
	}

	return body, body != ""
}

// respond serializes the payload once so the cached bytes and the
// response bytes are identical. Cache write failures degrade to serving
// uncached.
func (h *Handler) respond(c *gin.Context, kind string, start, end *time.Time, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Response encoding error", "endpoint", kind, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Encoding error"})
		return
	}

	if h.cache != nil {
		key := cache.ResponseKey(kind, start, end)
		if err := h.cache.Set(c.Request.Context(), key, string(body), h.cacheTTL); err != nil {
			slog.Warn("Cache write failed", "key", key, "error", err)
		}
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
