package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HackNewsBot/internal/domain"
)

var day = time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

func TestRenderNewDocumentHasHeader(t *testing.T) {
	t.Parallel()

	out := NewRenderer(LinkDiscussion).Render(translated(5), day, true)

	require.True(t, strings.HasPrefix(out, "---\nlayout: post\ntitle: Hacknews 2026-10-18 新闻\n"))
	assert.Contains(t, out, "## HackNews Hack新闻\n\n")
	assert.True(t, strings.HasSuffix(out,
		"- [title 5](https://news.ycombinator.com/item?id=5)\n- 标题 5\n"))
}

func TestRenderAppendFragmentHasNoHeader(t *testing.T) {
	t.Parallel()

	out := NewRenderer(LinkDiscussion).Render(translated(5, 9), day, false)

	assert.Equal(t,
		"- [title 5](https://news.ycombinator.com/item?id=5)\n- 标题 5\n"+
			"- [title 9](https://news.ycombinator.com/item?id=9)\n- 标题 9\n",
		out)
}

func TestRenderArticleStyleCarriesExplicitID(t *testing.T) {
	t.Parallel()

	items := []domain.TranslatedItem{{
		RawItem:     domain.RawItem{ID: 77, Title: "A [bracketed]\ntitle", URL: "https://example.com/a"},
		Translation: domain.TranslationFailed,
	}}

	out := NewRenderer(LinkArticle).Render(items, day, false)

	assert.Equal(t, "- [A \\[bracketed\\] title](https://example.com/a) <!-- id:77 -->\n- 翻译失败\n", out)
}

func TestRenderIsDeterministic(t *testing.T) {
	t.Parallel()

	r := NewRenderer(LinkDiscussion)
	assert.Equal(t, r.Render(translated(1, 2, 3), day, true), r.Render(translated(1, 2, 3), day, true))
}

func TestRoundTripRecoversRenderedIDs(t *testing.T) {
	t.Parallel()

	items := translated(11, 22, 33)
	items[1].URL = "https://example.com/with (space"
	items[2].URL = "https://example.com/x_(y)"
	items[2].Translation = "- [fake](https://news.ycombinator.com/item?id=999)"

	for _, style := range []LinkStyle{LinkDiscussion, LinkArticle} {
		doc := NewRenderer(style).Render(items, day, true)
		assert.Equal(t, domain.NewIDSet(11, 22, 33), KnownIDs(doc), "style %s", style)
	}
}

func TestKnownIDsToleratesUnrecoverableEntries(t *testing.T) {
	t.Parallel()

	doc := "---\nlayout: post\nid: 5\n---\n\nintro\n\n" +
		"- [one](https://news.ycombinator.com/item?id=1)\n- 一\n" +
		"- [lost](https://example.com/lost)\n- 丢失\n" +
		"- [two](https://news.ycombinator.com/item?id=2)\r\n- 二\r\n"

	assert.Equal(t, domain.NewIDSet(1, 2), KnownIDs(doc))
}

func TestAppend(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\nb\n", Append("a\n", "b\n"))
	assert.Equal(t, "a\nb\n", Append("a", "b\n"))
	assert.Equal(t, "b\n", Append("", "b\n"))
}

func TestPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "_posts/2026-10-18-hacknews.md", Path("_posts", day))
	assert.Equal(t, "2026-10-18-hacknews.md", Path("", day))
}

func TestKnownIDsEntryWithoutTranslationLine(t *testing.T) {
	t.Parallel()

	doc := Header(day) +
		"- [five](https://news.ycombinator.com/item?id=5)\n" +
		"- [seven](https://news.ycombinator.com/item?id=7)\n- 七\n" +
		"- [nine](https://example.com/nine) <!-- id:9 -->\n- 九\n"

	assert.Equal(t, domain.NewIDSet(5, 7, 9), KnownIDs(doc))
}
