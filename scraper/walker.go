package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-golkala/config"
	"github.com/aluiziolira/go-scrape-golkala/models"
	"github.com/aluiziolira/go-scrape-golkala/parser"
	"github.com/aluiziolira/go-scrape-golkala/report"
)

// ProgressFunc is called before each page is requested.
type ProgressFunc func(page int, pageURL string)

// Walker pages through one category until the catalog is exhausted.
type Walker struct {
	fetcher   PageFetcher
	root      *url.URL
	maxPages  int
	dedupeMax int
	Metrics   *Metrics
	progress  ProgressFunc
}

// NewWalker builds a walker for cfg.CategoryURL.
func NewWalker(cfg *config.Config, fetcher PageFetcher, metrics *Metrics) (*Walker, error) {
	root, err := url.Parse(config.NormalizeCategoryURL(cfg.CategoryURL))
	if err != nil {
		return nil, fmt.Errorf("parse category url: %w", err)
	}
	if root.Host == "" {
		return nil, fmt.Errorf("category url must include a host")
	}

	dedupeMax := cfg.DedupeMaxSize
	if dedupeMax <= 0 {
		dedupeMax = 1
	}

	return &Walker{
		fetcher:   fetcher,
		root:      root,
		maxPages:  cfg.MaxPages,
		dedupeMax: dedupeMax,
		Metrics:   metrics,
	}, nil
}

// OnPage registers a progress callback.
func (w *Walker) OnPage(fn ProgressFunc) {
	w.progress = fn
}

// PageURL returns root with the page query parameter set to n.
func PageURL(root *url.URL, n int) string {
	u := *root
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}

type walkState int

const (
	stateFetching walkState = iota
	stateHasCards
	stateDone
)

// walk is the mutable state of a single Walk call.
type walk struct {
	*Walker
	ctx    context.Context
	result *models.CatalogResult
	seen   *lru.Cache[uint64, int]

	page  int
	doc   parser.Node
	cards []parser.Node
}

// Walk requests pages 1, 2, ... in order and extracts every card. A failed
// fetch, an empty page, a missing or disabled "next" control, a repeated
// page body or the page cap ends the walk. The returned error is non-nil only
// when ctx was canceled; the partial result is still returned.
func (w *Walker) Walk(ctx context.Context) (*models.CatalogResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	seen, err := lru.New[uint64, int](w.dedupeMax)
	if err != nil {
		return nil, fmt.Errorf("create page cache: %w", err)
	}

	run := &walk{
		Walker: w,
		ctx:    ctx,
		result: &models.CatalogResult{StartTime: time.Now()},
		seen:   seen,
		page:   1,
	}

	state := stateFetching
	for state != stateDone {
		switch state {
		case stateFetching:
			state = run.fetching()
		case stateHasCards:
			state = run.hasCards()
		}
	}

	result := run.result
	result.EndTime = time.Now()
	result.Summary = report.Summarize(result.Products)

	slog.Info("catalog walk finished",
		slog.Int("pages", result.PageCount),
		slog.Int("products", len(result.Products)),
		slog.String("stop_reason", string(result.StopReason)),
	)

	if result.StopReason == models.StopCanceled {
		return result, ctx.Err()
	}
	return result, nil
}

func (r *walk) fetching() walkState {
	if r.ctx.Err() != nil {
		return r.stop(models.StopCanceled)
	}
	if r.maxPages > 0 && r.page > r.maxPages {
		return r.stop(models.StopMaxPages)
	}

	pageURL := PageURL(r.root, r.page)
	if r.progress != nil {
		r.progress(r.page, pageURL)
	}

	r.result.RequestCount++
	page, err := r.fetcher.Fetch(r.ctx, pageURL)
	if err != nil {
		if r.ctx.Err() != nil {
			return r.stop(models.StopCanceled)
		}
		label := ErrorTypeLabel(err)
		level := slog.LevelWarn
		var notFound ErrNotFound
		if errors.As(err, &notFound) {
			level = slog.LevelInfo
		}
		slog.Log(r.ctx, level, "page fetch failed, treating as end of catalog",
			slog.Int("page", r.page),
			slog.String("url", pageURL),
			slog.String("category", label),
			slog.Any("error", err),
		)
		r.result.StopError = label
		r.Metrics.IncPage("fetch_failed")
		return r.stop(models.StopFetchFailed)
	}
	r.result.PageCount++

	sum := xxhash.Sum64(page.Body)
	if first, ok := r.seen.Get(sum); ok {
		slog.Warn("page repeats an earlier page, stopping",
			slog.Int("page", r.page),
			slog.Int("same_as", first),
		)
		r.Metrics.IncPage("duplicate")
		return r.stop(models.StopDuplicatePage)
	}
	r.seen.Add(sum, r.page)

	doc, err := parser.NewDocument(bytes.NewReader(page.Body))
	if err != nil {
		slog.Warn("page could not be parsed, treating as end of catalog",
			slog.Int("page", r.page),
			slog.Any("error", err),
		)
		r.result.StopError = "parse"
		r.Metrics.IncPage("fetch_failed")
		return r.stop(models.StopFetchFailed)
	}

	cards := parser.Cards(doc)
	if len(cards) == 0 {
		r.Metrics.IncPage("empty")
		return r.stop(models.StopNoCards)
	}

	r.doc, r.cards = doc, cards
	return stateHasCards
}

func (r *walk) hasCards() walkState {
	for _, card := range r.cards {
		r.result.Products = append(r.result.Products, parser.ExtractProduct(card, r.root))
	}
	r.Metrics.AddItems(len(r.cards))
	r.Metrics.IncPage("ok")
	slog.Debug("page extracted",
		slog.Int("page", r.page),
		slog.Int("cards", len(r.cards)),
	)

	if !parser.HasNextPage(r.doc) {
		return r.stop(models.StopLastPage)
	}
	r.page++
	r.doc, r.cards = nil, nil
	return stateFetching
}

func (r *walk) stop(reason models.StopReason) walkState {
	r.result.StopReason = reason
	return stateDone
}
