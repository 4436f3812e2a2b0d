package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type PriceHandler struct {
	loader SeriesLoader
	logger *slog.Logger
}

func NewPriceHandler(loader SeriesLoader, logger *slog.Logger) *PriceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceHandler{loader: loader, logger: logger}
}

// FetchHistoricalData pulls [start, end] for every symbol from the provider
// and records it. A failing symbol does not stop the others.
func (h *PriceHandler) FetchHistoricalData(ctx context.Context, symbols []string, start, end time.Time) (map[string]int, error) {
	counts := make(map[string]int, len(symbols))
	var errs []error

	for _, raw := range symbols {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		symbol := normalizeSymbol(raw)
		if symbol == "" {
			continue
		}

		prices, err := h.loader.Fetch(ctx, symbol, start, end)
		if err != nil {
			h.logger.Error("fetching historical data failed", slog.String("symbol", symbol), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
			continue
		}
		counts[symbol] = len(prices)
		h.logger.Info("historical data recorded",
			slog.String("symbol", symbol),
			slog.String("provider", h.loader.Provider()),
			slog.Int("bars", len(prices)),
		)
	}
	return counts, errors.Join(errs...)
}
