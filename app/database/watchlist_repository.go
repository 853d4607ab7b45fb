package database

import (
	"context"
	"fmt"
	"strings"
)

var _ WatchlistRepository = (*WatchlistRepo)(nil)

// WatchlistRepo manages the set of tracked tickers. Tickers are stored
// uppercased; adding an existing one is a no-op.
type WatchlistRepo struct {
	db *DB
}

func NewWatchlistRepo(db *DB) *WatchlistRepo {
	return &WatchlistRepo{db: db}
}

func (r *WatchlistRepo) GetTickers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT ticker FROM watchlist ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist row: %w", err)
		}
		tickers = append(tickers, ticker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist rows: %w", err)
	}

	return tickers, nil
}

func (r *WatchlistRepo) AddTicker(ctx context.Context, ticker string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watchlist (ticker) VALUES ($1)
		ON CONFLICT DO NOTHING
	`, strings.ToUpper(ticker))

	if err != nil {
		return fmt.Errorf("failed to add ticker to watchlist: %w", err)
	}

	return nil
}

func (r *WatchlistRepo) RemoveTicker(ctx context.Context, ticker string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM watchlist WHERE ticker = $1", strings.ToUpper(ticker))
	if err != nil {
		return fmt.Errorf("failed to remove ticker from watchlist: %w", err)
	}

	return nil
}
