package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
	"HackNewsBot/internal/scanner"
)

// StrategySource implements ItemSource via a registered scanner strategy.
type StrategySource struct {
	registry *scanner.Registry
	strategy string
	logger   *slog.Logger
}

var _ ports.ItemSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with the configured strategy.
func NewStrategySource(reg *scanner.Registry, strategy string, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		strategy: strategy,
		logger:   log,
	}
}

// Fetch runs the configured scanner and enforces the source contract on its
// output: rank order kept, ids unique, nothing older than windowStart, at
// most limit items.
func (s *StrategySource) Fetch(ctx context.Context, windowStart time.Time, limit int) ([]domain.RawItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}
	if limit <= 0 {
		return nil, nil
	}

	strategy, err := s.registry.Resolve(s.strategy)
	if err != nil {
		return nil, err
	}

	s.debug("fetch", "scanner", strategy.Name(), "window_start", windowStart.Format(time.RFC3339), "limit", limit)

	raw, err := strategy.Scan(ctx, scanner.Request{WindowStart: windowStart, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", strategy.Name(), err)
	}

	items := make([]domain.RawItem, 0, min(len(raw), limit))
	seen := domain.IDSet{}
	for _, item := range raw {
		if item.ID <= 0 || seen.Has(item.ID) || item.PublishedAt.Before(windowStart) {
			continue
		}
		seen.Add(item.ID)
		items = append(items, item)
		if len(items) == limit {
			break
		}
	}

	s.debug("strategy source done", "scanner", strategy.Name(), "raw", len(raw), "items", len(items))
	return items, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
