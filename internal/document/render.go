package document

import (
	"fmt"
	"strings"
	"time"

	"HackNewsBot/internal/domain"
)

// LinkStyle selects the link target of rendered entries.
type LinkStyle string

const (
	// LinkDiscussion links the item-view page; the id lives in the URL.
	LinkDiscussion LinkStyle = "discussion"
	// LinkArticle links the article and carries the id in a trailing comment.
	LinkArticle LinkStyle = "article"
)

const headerTemplate = `---
layout: post
title: Hacknews %s 新闻
category: Hacknews
tags: hacknews
keywords: hacknews
coverage: hacknews-banner.jpg
---

Hacker News 是一家关于计算机黑客和创业公司的社会化新闻网站，由保罗·格雷厄姆的创业孵化器 Y Combinator 创建。
与其它社会化新闻网站不同的是 Hacker News 没有踩或反对一条提交新闻的选项（不过评论还是可以被有足够 Karma 的用户投反对票）；只可以赞或是完全不投票。简而言之，Hacker News 允许提交任何可以被理解为“任何满足人们求知欲”的新闻。

## HackNews Hack新闻

`

var titleEscaper = strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`)

// Renderer turns merged items into a markdown fragment.
type Renderer struct {
	style LinkStyle
}

// NewRenderer defaults to LinkDiscussion for unknown styles.
func NewRenderer(style LinkStyle) *Renderer {
	if style != LinkArticle {
		style = LinkDiscussion
	}
	return &Renderer{style: style}
}

// Render produces the header (for a new document) followed by one two-line
// block per item, in the given order.
func (r *Renderer) Render(items []domain.TranslatedItem, day time.Time, isNew bool) string {
	var b strings.Builder
	if isNew {
		b.WriteString(Header(day))
	}
	for _, item := range items {
		b.WriteString(r.linkLine(item))
		b.WriteByte('\n')
		b.WriteString("- ")
		b.WriteString(singleLine(item.Translation))
		b.WriteByte('\n')
	}
	return b.String()
}

// Header returns the front matter and introduction for day's document.
func Header(day time.Time) string {
	return fmt.Sprintf(headerTemplate, day.Format("2006-01-02"))
}

// Append joins an existing document and a fragment on a line boundary.
func Append(content, fragment string) string {
	if content == "" || strings.HasSuffix(content, "\n") {
		return content + fragment
	}
	return content + "\n" + fragment
}

func (r *Renderer) linkLine(item domain.TranslatedItem) string {
	title := titleEscaper.Replace(singleLine(item.Title))
	if r.style == LinkArticle && item.URL != "" && !strings.ContainsAny(item.URL, " \t\r\n") {
		return fmt.Sprintf("- [%s](%s) <!-- id:%s -->", title, item.URL, item.ID)
	}
	return fmt.Sprintf("- [%s](%s)", title, DiscussionURL(item.ID))
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
