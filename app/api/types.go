package api

import (
	"context"
	"time"

	"github.com/kitsunelab/marketcal/app/cache"
	"github.com/kitsunelab/marketcal/app/database"
	"github.com/kitsunelab/marketcal/app/tasks"
)

// dayKeyFormat renders the day keys of calendar responses, for example
// "Wednesday, 08/26/2026".
const dayKeyFormat = "Monday, 01/02/2006"

// ResponseCache is the optional read-through cache in front of the
// calendar endpoints. A nil cache disables caching entirely.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

var _ ResponseCache = (*cache.Cache)(nil)

type Handler struct {
	economicsRepo database.EconomicsRepository
	earningsRepo  database.EarningsRepository
	watchlistRepo database.WatchlistRepository
	scheduler     tasks.TaskSchedulerInterface
	cache         ResponseCache
	cacheTTL      time.Duration
	version       string
}

// EconomicEventResponse is one economic event as served by the calendar
// API. Time is UTC RFC 3339; optional fields serialize as JSON null.
type EconomicEventResponse struct {
	Time     time.Time `json:"time"`
	IsAllDay bool      `json:"is_all_day"`
	Currency *string   `json:"currency"`
	Impact   *string   `json:"impact"`
	Event    string    `json:"event"`
	Actual   *string   `json:"actual"`
	Forecast *string   `json:"forecast"`
	Previous *string   `json:"previous"`
}

// EarningsItemResponse is one earnings entry as served by the calendar
// API. The company is the grouping key one level up and not repeated here.
type EarningsItemResponse struct {
	Symbol      string    `json:"symbol"`
	MarketCap   *float64  `json:"marketcap"`
	EventName   *string   `json:"event_name"`
	Date        time.Time `json:"date"`
	Timing      *string   `json:"timing"`
	EPSEstimate *float64  `json:"eps_estimate"`
	ReportedEPS *float64  `json:"reported_eps"`
	SurprisePct *float64  `json:"surprise_pct"`
}

type AddTickersRequest struct {
	Tickers []string `json:"tickers"`
}
