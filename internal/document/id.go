package document

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"HackNewsBot/internal/domain"
)

const (
	itemHost      = "news.ycombinator.com"
	itemPath      = "/item"
	discussionURL = "https://" + itemHost + itemPath + "?id="
)

var (
	// - [title](target) optionally followed by a trailer such as <!-- id:123 -->
	linkLineExpr   = regexp.MustCompile(`^- \[(.*)\]\((\S+)\)(.*)$`)
	explicitIDExpr = regexp.MustCompile(`<!--\s*id:(\d+)\s*-->`)
)

// DiscussionURL returns the item-view URL for id.
func DiscussionURL(id domain.ItemID) string {
	return discussionURL + id.String()
}

// ItemIDFromURL recovers the id from an item-view URL of the form
// https://news.ycombinator.com/item?id=<n>. Any other URL is unrecoverable.
func ItemIDFromURL(raw string) (domain.ItemID, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	if strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") != itemHost {
		return 0, false
	}
	if strings.TrimSuffix(u.Path, "/") != itemPath {
		return 0, false
	}
	return parseID(u.Query().Get("id"))
}

// EntryID recovers the item id from a rendered link line. An explicit
// <!-- id:N --> trailer wins over the link target.
func EntryID(line string) (domain.ItemID, bool) {
	m := linkLineExpr.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return 0, false
	}
	if em := explicitIDExpr.FindStringSubmatch(m[3]); em != nil {
		return parseID(em[1])
	}
	return ItemIDFromURL(m[2])
}

func isLinkLine(line string) bool {
	return linkLineExpr.MatchString(strings.TrimRight(line, "\r"))
}

func parseID(s string) (domain.ItemID, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return domain.ItemID(n), true
}
