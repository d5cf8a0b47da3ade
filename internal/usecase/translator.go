package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/metrics"
	"HackNewsBot/internal/ports"
)

var errEmptyTranslation = errors.New("empty translation")

// TranslatorOptions tunes a Translator. A zero CacheSize or a negative one
// disables memoization.
type TranslatorOptions struct {
	SourceLang  string
	TargetLang  string
	Timeout     time.Duration
	Concurrency int
	CacheSize   int
}

// Translator isolates title translation failures: every title yields exactly
// one string, which is domain.TranslationFailed when the service could not help.
type Translator struct {
	service ports.TranslationService
	opts    TranslatorOptions
	cache   *lru.Cache[string, string]
	log     *slog.Logger
}

// NewTranslator wraps service.
func NewTranslator(service ports.TranslationService, opts TranslatorOptions, log *slog.Logger) (*Translator, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}

	t := &Translator{service: service, opts: opts, log: log}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, string](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("translation cache: %w", err)
		}
		t.cache = cache
	}
	return t, nil
}

// Translate returns the translation of title or domain.TranslationFailed.
func (t *Translator) Translate(ctx context.Context, title string) string {
	text := strings.TrimSpace(title)
	if text == "" || t.service == nil {
		return domain.TranslationFailed
	}
	if t.cache != nil {
		if hit, ok := t.cache.Get(text); ok {
			return hit
		}
	}

	callCtx := ctx
	if t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	out, err := t.service.Translate(callCtx, text, t.opts.SourceLang, t.opts.TargetLang)
	out = strings.TrimSpace(out)
	if err == nil && out == "" {
		err = errEmptyTranslation
	}
	if err != nil {
		metrics.RecordItemFailure("translate")
		t.log.Warn("translation failed", "title", text, "error", err)
		return domain.TranslationFailed
	}

	if t.cache != nil {
		t.cache.Add(text, out)
	}
	return out
}

// TranslateAll translates items concurrently and returns them in input order.
func (t *Translator) TranslateAll(ctx context.Context, items []domain.RawItem) []domain.TranslatedItem {
	out := make([]domain.TranslatedItem, len(items))

	var g errgroup.Group
	g.SetLimit(t.opts.Concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			out[i] = domain.TranslatedItem{RawItem: item, Translation: t.Translate(ctx, item.Title)}
			return nil
		})
	}
	_ = g.Wait()

	return out
}
