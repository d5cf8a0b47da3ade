package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/document"
	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/metrics"
	"HackNewsBot/internal/scanner"
)

// APIScanner reads the ranked id list and item records of the official JSON API.
type APIScanner struct {
	client          *http.Client
	limiter         *rate.Limiter
	rankedURL       string
	itemURLTemplate string
	concurrency     int
	timeout         time.Duration
	logger          *slog.Logger
}

var _ scanner.Scanner = (*APIScanner)(nil)

type apiItem struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Time    int64  `json:"time"`
	Deleted bool   `json:"deleted"`
	Dead    bool   `json:"dead"`
}

// NewAPIScanner wires an HTTP client; nil client gets NewHTTPClient.
func NewAPIScanner(client *http.Client, cfg config.FeedConfig, log *slog.Logger) *APIScanner {
	if client == nil {
		client = NewHTTPClient(cfg.RequestTimeout)
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &APIScanner{
		client:          client,
		limiter:         NewLimiter(cfg.RequestsPerSecond, concurrency),
		rankedURL:       cfg.RankedURL,
		itemURLTemplate: cfg.ItemURLTemplate,
		concurrency:     concurrency,
		timeout:         cfg.RequestTimeout,
		logger:          log,
	}
}

// Name identifies the strategy inside the registry.
func (a *APIScanner) Name() string {
	return "hn-api"
}

// Scan resolves candidates in rank order, one bounded batch at a time, and
// stops once req.Limit items inside the window are collected.
func (a *APIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	ids, err := a.rankedIDs(ctx)
	if err != nil {
		return nil, err
	}
	a.debug("ranked ids fetched", "count", len(ids))

	results := make([]domain.RawItem, 0, req.Limit)
	for start := 0; start < len(ids) && len(results) < req.Limit; start += a.concurrency {
		end := min(start+a.concurrency, len(ids))
		batch := a.resolveBatch(ctx, ids[start:end])
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve items: %w", err)
		}

		for _, item := range batch {
			if item == nil || item.PublishedAt.Before(req.WindowStart) {
				continue
			}
			results = append(results, *item)
			if len(results) == req.Limit {
				break
			}
		}
	}

	return results, nil
}

func (a *APIScanner) rankedIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := get(ctx, a.client, a.limiter, a.rankedURL)
	if err != nil {
		return nil, fmt.Errorf("ranked ids: %w", err)
	}
	defer resp.Body.Close()

	var ids []int64
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("decode ranked ids: %w", err)
	}
	return ids, nil
}

// resolveBatch returns one slot per id; unresolvable ids leave a nil slot.
func (a *APIScanner) resolveBatch(ctx context.Context, ids []int64) []*domain.RawItem {
	out := make([]*domain.RawItem, len(ids))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			item, err := a.resolve(ctx, id)
			if err != nil {
				metrics.RecordItemFailure("resolve")
				a.warn("skip item", "id", id, "error", err)
				return nil
			}
			out[i] = &item
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (a *APIScanner) resolve(ctx context.Context, id int64) (domain.RawItem, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := get(ctx, a.client, a.limiter, fmt.Sprintf(a.itemURLTemplate, id))
	if err != nil {
		return domain.RawItem{}, err
	}
	defer resp.Body.Close()

	var rec *apiItem
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return domain.RawItem{}, fmt.Errorf("%w: decode: %v", domain.ErrItemUnresolvable, err)
	}

	return toRawItem(id, rec)
}

func toRawItem(id int64, rec *apiItem) (domain.RawItem, error) {
	switch {
	case rec == nil:
		return domain.RawItem{}, fmt.Errorf("%w: no record", domain.ErrItemUnresolvable)
	case rec.Deleted || rec.Dead:
		return domain.RawItem{}, fmt.Errorf("%w: deleted or dead", domain.ErrItemUnresolvable)
	case strings.TrimSpace(rec.Title) == "":
		return domain.RawItem{}, fmt.Errorf("%w: missing title", domain.ErrItemUnresolvable)
	case rec.Time <= 0:
		return domain.RawItem{}, fmt.Errorf("%w: missing time", domain.ErrItemUnresolvable)
	case rec.ID != 0 && rec.ID != id:
		return domain.RawItem{}, fmt.Errorf("%w: record id %d", domain.ErrItemUnresolvable, rec.ID)
	}

	itemID := domain.ItemID(id)
	link := strings.TrimSpace(rec.URL)
	if link == "" {
		link = document.DiscussionURL(itemID)
	}

	return domain.RawItem{
		ID:          itemID,
		Title:       strings.TrimSpace(rec.Title),
		URL:         link,
		PublishedAt: time.Unix(rec.Time, 0).UTC(),
	}, nil
}

func (a *APIScanner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

func (a *APIScanner) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *APIScanner) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
