package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/metrics"
	"HackNewsBot/internal/scanner"
)

const (
	defaultMaxPages = 5
	ageLayout       = "2006-01-02T15:04:05"
)

// HTMLScanner crawls the ranked front page and extracts items in page order.
type HTMLScanner struct {
	client   *http.Client
	limiter  *rate.Limiter
	pageURL  string
	maxPages int
	timeout  time.Duration
	logger   *slog.Logger
}

var _ scanner.Scanner = (*HTMLScanner)(nil)

// NewHTMLScanner wires an HTTP client; maxPages defaults to 5.
func NewHTMLScanner(client *http.Client, cfg config.FeedConfig, log *slog.Logger) *HTMLScanner {
	if client == nil {
		client = NewHTTPClient(cfg.RequestTimeout)
	}
	return &HTMLScanner{
		client:   client,
		limiter:  NewLimiter(cfg.RequestsPerSecond, 1),
		pageURL:  cfg.PageURL,
		maxPages: defaultMaxPages,
		timeout:  cfg.RequestTimeout,
		logger:   log,
	}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "hn-html"
}

// Scan walks front-page pages until req.Limit in-window items are collected,
// a page comes back empty or maxPages is reached.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	results := make([]domain.RawItem, 0, req.Limit)
	seen := domain.IDSet{}

	for page := 1; page <= h.maxPages && len(results) < req.Limit; page++ {
		pageURL, err := buildPageURL(h.pageURL, page)
		if err != nil {
			return nil, err
		}

		doc, err := h.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		items, rows := h.extractItems(doc, pageURL)
		h.debug("page parsed", "page", page, "rows", rows, "items", len(items))
		if rows == 0 {
			break
		}

		for _, item := range items {
			if seen.Has(item.ID) || item.PublishedAt.Before(req.WindowStart) {
				continue
			}
			seen.Add(item.ID)
			results = append(results, item)
			if len(results) == req.Limit {
				break
			}
		}
	}

	return results, nil
}

func (h *HTMLScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp, err := get(ctx, h.client, h.limiter, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// extractItems returns parsed items and the number of item rows seen.
func (h *HTMLScanner) extractItems(doc *goquery.Document, pageURL string) ([]domain.RawItem, int) {
	var (
		collected []domain.RawItem
		rows      int
	)

	doc.Find("tr.athing").Each(func(_ int, row *goquery.Selection) {
		rows++
		item, err := parseRow(row, pageURL)
		if err != nil {
			metrics.RecordItemFailure("resolve")
			h.warn("skip row", "error", err)
			return
		}
		collected = append(collected, item)
	})

	return collected, rows
}

func parseRow(row *goquery.Selection, pageURL string) (domain.RawItem, error) {
	rawID, _ := row.Attr("id")
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return domain.RawItem{}, fmt.Errorf("%w: row id %q", domain.ErrItemUnresolvable, rawID)
	}

	link := row.Find("span.titleline > a").First()
	title := strings.TrimSpace(link.Text())
	if title == "" {
		return domain.RawItem{}, fmt.Errorf("%w: item %d has no title", domain.ErrItemUnresolvable, id)
	}

	href, _ := link.Attr("href")
	target, err := absoluteURL(pageURL, href)
	if err != nil {
		return domain.RawItem{}, fmt.Errorf("%w: item %d: %v", domain.ErrItemUnresolvable, id, err)
	}

	age, _ := row.Next().Find("span.age").First().Attr("title")
	publishedAt, err := parseAge(age)
	if err != nil {
		return domain.RawItem{}, fmt.Errorf("%w: item %d: %v", domain.ErrItemUnresolvable, id, err)
	}

	return domain.RawItem{
		ID:          domain.ItemID(id),
		Title:       title,
		URL:         target,
		PublishedAt: publishedAt,
	}, nil
}

// parseAge reads the age title attribute, "2006-01-02T15:04:05 <unix>",
// preferring the epoch seconds when present.
func parseAge(value string) (time.Time, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return time.Time{}, fmt.Errorf("missing age")
	}
	if len(fields) > 1 {
		if sec, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			return time.Unix(sec, 0).UTC(), nil
		}
	}
	t, err := time.ParseInLocation(ageLayout, fields[0], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse age %q: %w", value, err)
	}
	return t, nil
}

func absoluteURL(base, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty link")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}

func buildPageURL(base string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid page url %s: %w", base, err)
	}

	if page > 1 {
		query := parsed.Query()
		query.Set("p", strconv.Itoa(page))
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func (h *HTMLScanner) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *HTMLScanner) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
