package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/document"
	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/metrics"
	"HackNewsBot/internal/scanner"
)

// RSSScanner reads a front-page RSS feed whose GUID or comments link is the
// item-view URL.
type RSSScanner struct {
	client  *http.Client
	feedURL string
	timeout time.Duration
	logger  *slog.Logger
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client into a gofeed parser.
func NewRSSScanner(client *http.Client, cfg config.FeedConfig, log *slog.Logger) *RSSScanner {
	if client == nil {
		client = NewHTTPClient(cfg.RequestTimeout)
	}
	return &RSSScanner{
		client:  client,
		feedURL: cfg.RSSURL,
		timeout: cfg.RequestTimeout,
		logger:  log,
	}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "hn-rss"
}

// Scan parses the feed once and keeps entries in feed order.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	fp := gofeed.NewParser()
	fp.Client = r.client
	fp.UserAgent = userAgent
	feed, err := fp.ParseURLWithContext(r.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", r.feedURL, err)
	}

	results := make([]domain.RawItem, 0, req.Limit)
	seen := domain.IDSet{}
	for _, entry := range feed.Items {
		item, err := toFeedItem(entry)
		if err != nil {
			metrics.RecordItemFailure("resolve")
			if r.logger != nil {
				r.logger.Warn("skip entry", "guid", entry.GUID, "error", err)
			}
			continue
		}
		if seen.Has(item.ID) || item.PublishedAt.Before(req.WindowStart) {
			continue
		}
		seen.Add(item.ID)
		results = append(results, item)
		if len(results) == req.Limit {
			break
		}
	}

	return results, nil
}

func toFeedItem(entry *gofeed.Item) (domain.RawItem, error) {
	id, ok := document.ItemIDFromURL(entry.GUID)
	if !ok {
		id, ok = document.ItemIDFromURL(entry.Link)
	}
	if !ok {
		for _, link := range entry.Links {
			if id, ok = document.ItemIDFromURL(link); ok {
				break
			}
		}
	}
	if !ok {
		return domain.RawItem{}, fmt.Errorf("%w: no item-view url", domain.ErrItemUnresolvable)
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return domain.RawItem{}, fmt.Errorf("%w: item %s has no title", domain.ErrItemUnresolvable, id)
	}
	published := entry.PublishedParsed
	if published == nil {
		published = entry.UpdatedParsed
	}
	if published == nil {
		return domain.RawItem{}, fmt.Errorf("%w: item %s has no date", domain.ErrItemUnresolvable, id)
	}

	link := strings.TrimSpace(entry.Link)
	if link == "" {
		link = document.DiscussionURL(id)
	}

	return domain.RawItem{
		ID:          id,
		Title:       title,
		URL:         link,
		PublishedAt: published.UTC(),
	}, nil
}
