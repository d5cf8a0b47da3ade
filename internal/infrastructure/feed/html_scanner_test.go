package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/scanner"
)

const frontPage = `
<table>
  <tr class="athing submission" id="41000001">
    <td class="title"><span class="rank">1.</span></td>
    <td class="title"><span class="titleline"><a href="https://example.com/fresh">Fresh Story</a><span class="sitebit comhead"> (<a href="from?site=example.com"><span class="sitestr">example.com</span></a>)</span></span></td>
  </tr>
  <tr><td colspan="2"></td><td class="subtext"><span class="age" title="2026-10-18T08:00:00 1792310400"><a href="item?id=41000001">1 hour ago</a></span></td></tr>
  <tr class="spacer"></tr>
  <tr class="athing submission" id="41000002">
    <td class="title"><span class="titleline"><a href="item?id=41000002">Ask HN: Old question</a></span></td>
  </tr>
  <tr><td colspan="2"></td><td class="subtext"><span class="age" title="2026-10-17T08:00:00"><a href="item?id=41000002">1 day ago</a></span></td></tr>
  <tr class="athing submission" id="41000003">
    <td class="title"><span class="titleline"><a href="item?id=41000003">Ask HN: New question</a></span></td>
  </tr>
  <tr><td colspan="2"></td><td class="subtext"><span class="age" title="2026-10-18T07:00:00"><a href="item?id=41000003">2 hours ago</a></span></td></tr>
  <tr class="athing submission" id="bogus">
    <td class="title"><span class="titleline"><a href="https://example.com/bad">Bad row</a></span></td>
  </tr>
  <tr><td></td></tr>
</table>`

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	u, err := buildPageURL("https://news.ycombinator.com/news", 3)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if parsed.Host != "news.ycombinator.com" || parsed.Query().Get("p") != "3" {
		t.Fatalf("unexpected url: %s", u)
	}

	first, _ := buildPageURL("https://news.ycombinator.com/news", 1)
	if first != "https://news.ycombinator.com/news" {
		t.Fatalf("first page should carry no p param: %s", first)
	}
}

func TestParseRow(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(frontPage))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	rows := doc.Find("tr.athing")
	item, err := parseRow(rows.Eq(0), "https://news.ycombinator.com/news")
	if err != nil {
		t.Fatalf("parseRow error: %v", err)
	}
	if item.ID != 41000001 || item.Title != "Fresh Story" || item.URL != "https://example.com/fresh" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.PublishedAt.Unix() != 1792310400 {
		t.Fatalf("unexpected publish time: %v", item.PublishedAt)
	}

	ask, err := parseRow(rows.Eq(2), "https://news.ycombinator.com/news")
	if err != nil {
		t.Fatalf("parseRow error: %v", err)
	}
	if ask.URL != "https://news.ycombinator.com/item?id=41000003" {
		t.Fatalf("relative link not resolved: %s", ask.URL)
	}
	want := time.Date(2026, time.October, 18, 7, 0, 0, 0, time.UTC)
	if !ask.PublishedAt.Equal(want) {
		t.Fatalf("unexpected publish time: %v", ask.PublishedAt)
	}

	if _, err := parseRow(rows.Eq(3), "https://news.ycombinator.com/news"); err == nil {
		t.Fatalf("expected error for non numeric row id")
	}
}

func TestHTMLScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("p") != "" {
			_, _ = w.Write([]byte(`<table></table>`))
			return
		}
		_, _ = w.Write([]byte(frontPage))
	}))
	defer server.Close()

	sc := NewHTMLScanner(server.Client(), config.FeedConfig{PageURL: server.URL + "/news"}, nil)

	items, err := sc.Scan(context.Background(), scanner.Request{WindowStart: windowStart, Limit: 10})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].ID != 41000001 || items[1].ID != 41000003 {
		t.Fatalf("unexpected order: %+v", items)
	}
}
