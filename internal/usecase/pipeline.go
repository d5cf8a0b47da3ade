package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"HackNewsBot/internal/document"
	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/metrics"
	"HackNewsBot/internal/ports"
)

// PipelineDeps wires all driven adapters into the sync cycle.
type PipelineDeps struct {
	Source     ports.ItemSource
	Translator *Translator
	Store      ports.DocumentStore
	Renderer   *document.Renderer
	Locker     ports.Locker
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// PipelineOptions holds the cycle settings.
type PipelineOptions struct {
	Directory          string
	Limit              int
	MaxConflictRetries int
	Location           *time.Location
}

// Pipeline runs one fetch, translate, merge and publish cycle at a time.
type Pipeline struct {
	source     ports.ItemSource
	translator *Translator
	reader     *document.StateReader
	renderer   *document.Renderer
	publisher  *Publisher
	locker     ports.Locker
	notifier   ports.Notifier
	log        *slog.Logger
	opts       PipelineOptions
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, opts PipelineOptions) *Pipeline {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.MaxConflictRetries < 0 {
		opts.MaxConflictRetries = 0
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = document.NewRenderer(document.LinkDiscussion)
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{
		source:     deps.Source,
		translator: deps.Translator,
		reader:     document.NewStateReader(deps.Store),
		renderer:   renderer,
		publisher:  NewPublisher(deps.Store),
		locker:     deps.Locker,
		notifier:   deps.Notifier,
		log:        log,
		opts:       opts,
	}
}

// WindowStart is local midnight of the day now falls on.
func WindowStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// RunCycle executes one cycle for the day of now. The returned result has
// Items == 0 when nothing new was found and nothing was written.
func (p *Pipeline) RunCycle(ctx context.Context, now time.Time) (res domain.PublishResult, err error) {
	started := time.Now()
	log := p.log.With("cycle_id", uuid.NewString())

	day := WindowStart(now, p.opts.Location)
	res.Path = document.Path(p.opts.Directory, day)

	defer func() {
		result := metrics.ResultPublished
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			result = metrics.ResultSkipped
		case err != nil:
			result = metrics.ResultFailed
		case res.Items == 0:
			result = metrics.ResultUnchanged
		}
		metrics.RecordCycle(result, time.Since(started).Seconds())
	}()

	items, err := p.source.Fetch(ctx, day, p.opts.Limit)
	if err != nil {
		return res, fmt.Errorf("fetch: %w", err)
	}
	log.Debug("fetched items", "count", len(items), "window_start", day)
	if len(items) == 0 {
		log.Info("no items in window", "path", res.Path)
		return res, nil
	}

	translated := p.translate(ctx, items)
	// Translations of a cancelled cycle are all failure markers.
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("translate: %w", err)
	}

	if p.locker != nil {
		release, err := p.locker.Acquire(ctx, res.Path)
		if err != nil {
			return res, fmt.Errorf("lock %s: %w", res.Path, err)
		}
		defer release()
	}

	var fresh []domain.TranslatedItem
	for attempt := 0; ; attempt++ {
		state, err := p.reader.Read(ctx, res.Path)
		if err != nil {
			return res, err
		}

		fresh = document.Merge(translated, state.KnownIDs)
		if len(fresh) == 0 {
			log.Info("document up to date", "path", res.Path, "known", len(state.KnownIDs))
			return res, nil
		}

		fragment := p.renderer.Render(fresh, day, !state.Exists)
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("publish %s: %w", res.Path, err)
		}
		_, err = p.publisher.Publish(ctx, state, fragment)
		if err == nil {
			res.Created = !state.Exists
			res.Items = len(fresh)
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return res, fmt.Errorf("publish %s: %w", res.Path, err)
		}

		metrics.RecordConflict()
		if attempt >= p.opts.MaxConflictRetries {
			return res, fmt.Errorf("publish %s: gave up after %d attempts: %w", res.Path, attempt+1, err)
		}
		log.Warn("document changed concurrently, re-reading", "path", res.Path, "attempt", attempt+1)
	}

	metrics.RecordPublished(res.Items)
	log.Info("document published", "path", res.Path, "items", res.Items, "created", res.Created)

	p.notify(ctx, log, day, res, fresh)
	return res, nil
}

func (p *Pipeline) translate(ctx context.Context, items []domain.RawItem) []domain.TranslatedItem {
	if p.translator == nil {
		out := make([]domain.TranslatedItem, len(items))
		for i, item := range items {
			out[i] = domain.TranslatedItem{RawItem: item, Translation: domain.TranslationFailed}
		}
		return out
	}
	return p.translator.TranslateAll(ctx, items)
}

// notify is best effort: the document is already written.
func (p *Pipeline) notify(ctx context.Context, log *slog.Logger, day time.Time, res domain.PublishResult, items []domain.TranslatedItem) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(day, res, items)); err != nil {
		log.Warn("notification failed", "error", err)
	}
}

func buildDigestMessage(day time.Time, res domain.PublishResult, items []domain.TranslatedItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hacknews %s: %d new items (%s)\n", day.Format("2006-01-02"), res.Items, res.Path)
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %s\n  %s\n  %s\n", item.Title, item.Translation, document.DiscussionURL(item.ID))
	}
	return b.String()
}
