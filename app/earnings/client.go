package earnings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kitsunelab/marketcal/app/sources"
)

const visualizationPath = "/v1/finance/visualization"

// Column labels of the earnings visualization document, in the order they
// are requested via includeFields.
const (
	colSymbol      = "Symbol"
	colCompany     = "Company"
	colMarketCap   = "Marketcap"
	colEventName   = "Event Name"
	colStartDate   = "Event Start Date"
	colTiming      = "Timing"
	colEPSEstimate = "EPS Estimate"
	colReportedEPS = "Reported EPS"
	colSurprisePct = "Surprise(%)"
)

var startDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Client consumes the paginated earnings visualization feed. Paging stops
// once the feed returns fewer rows than the requested page size.
type Client struct {
	httpClient *http.Client
	source     sources.EarningsSource
	userAgent  string
	now        func() time.Time
}

func NewClient(httpClient *http.Client, source sources.EarningsSource, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		source:     source,
		userAgent:  userAgent,
		now:        time.Now,
	}
}

// FetchAll pages through the feed from the configured lookback date
// forward and returns every decoded record.
func (c *Client) FetchAll(ctx context.Context) ([]Record, error) {
	startDate := c.now().UTC().AddDate(0, 0, -c.source.LookbackDays).Format("2006-01-02")

	var all []Record
	offset := 0

	for {
		records, rowCount, err := c.fetchPage(ctx, offset, startDate)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch earnings page at offset %d: %w", offset, err)
		}

		all = append(all, records...)

		// Termination counts raw rows, not decoded records: a page can
		// be full while individual rows were unusable.
		if rowCount < c.source.PageSize {
			break
		}
		offset += c.source.PageSize
	}

	return all, nil
}

type visualizationQuery struct {
	Operator string `json:"operator"`
	Operands []any  `json:"operands"`
}

type visualizationRequest struct {
	Offset        int                `json:"offset"`
	Size          int                `json:"size"`
	SortField     string             `json:"sortField"`
	SortType      string             `json:"sortType"`
	EntityIDType  string             `json:"entityIdType"`
	IncludeFields []string           `json:"includeFields"`
	Query         visualizationQuery `json:"query"`
}

type visualizationResponse struct {
	Finance struct {
		Result []struct {
			Documents []struct {
				Columns []struct {
					ID    string `json:"id"`
					Label string `json:"label"`
				} `json:"columns"`
				Rows [][]any `json:"rows"`
			} `json:"documents"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"finance"`
}

func (c *Client) fetchPage(ctx context.Context, offset int, startDate string) ([]Record, int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(c.source.Timeout)*time.Second)
	defer cancel()

	body := visualizationRequest{
		Offset:       offset,
		Size:         c.source.PageSize,
		SortField:    "intradaymarketcap",
		SortType:     "DESC",
		EntityIDType: "earnings",
		IncludeFields: []string{
			"ticker", "companyshortname", "intradaymarketcap", "eventname",
			"startdatetime", "startdatetimetype", "epsestimate", "epsactual",
			"epssurprisepct",
		},
		Query: visualizationQuery{
			Operator: "and",
			Operands: []any{
				visualizationQuery{Operator: "gte", Operands: []any{"startdatetime", startDate}},
				visualizationQuery{Operator: "gte", Operands: []any{"intradaymarketcap", c.source.MinMarketCap}},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	url := strings.TrimRight(c.source.BaseURL, "/") + visualizationPath + "?lang=en-US&region=US"
	req, err := http.NewRequestWithContext(timeoutCtx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch earnings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded visualizationResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if decoded.Finance.Error != nil {
		return nil, 0, fmt.Errorf("feed error %s: %s", decoded.Finance.Error.Code, decoded.Finance.Error.Description)
	}

	if len(decoded.Finance.Result) == 0 || len(decoded.Finance.Result[0].Documents) == 0 {
		return nil, 0, nil
	}

	document := decoded.Finance.Result[0].Documents[0]
	index := make(map[string]int, len(document.Columns))
	for i, column := range document.Columns {
		index[column.Label] = i
	}

	records := make([]Record, 0, len(document.Rows))
	for _, row := range document.Rows {
		record, ok := c.decodeRow(row, index)
		if !ok {
			continue
		}
		records = append(records, record)
	}

	return records, len(document.Rows), nil
}

// decodeRow maps one positional row through the column index. Rows
// without a symbol or a parseable start date cannot be keyed and are
// dropped.
func (c *Client) decodeRow(row []any, index map[string]int) (Record, bool) {
	symbol := stringAt(row, index, colSymbol)
	if symbol == "" {
		slog.Debug("Skipping earnings row without symbol")
		return Record{}, false
	}

	date, ok := parseStartDate(stringAt(row, index, colStartDate))
	if !ok {
		slog.Debug("Skipping earnings row without start date", "symbol", symbol)
		return Record{}, false
	}

	company := stringAt(row, index, colCompany)
	if company == "" {
		company = symbol
	}

	return Record{
		Symbol:      symbol,
		Company:     company,
		MarketCap:   floatAt(row, index, colMarketCap),
		EventName:   stringAt(row, index, colEventName),
		Date:        date,
		Timing:      stringAt(row, index, colTiming),
		EPSEstimate: floatAt(row, index, colEPSEstimate),
		ReportedEPS: floatAt(row, index, colReportedEPS),
		SurprisePct: floatAt(row, index, colSurprisePct),
	}, true
}

func parseStartDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range startDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}

	return time.Time{}, false
}

func stringAt(row []any, index map[string]int, label string) string {
	i, ok := index[label]
	if !ok || i >= len(row) {
		return ""
	}

	value, _ := row[i].(string)
	return strings.TrimSpace(value)
}

func floatAt(row []any, index map[string]int, label string) *float64 {
	i, ok := index[label]
	if !ok || i >= len(row) {
		return nil
	}

	if value, ok := row[i].(float64); ok {
		return &value
	}
	return nil
}
