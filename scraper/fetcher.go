package scraper

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-golkala/config"
	"github.com/gocolly/colly/v2"
)

// Page is one fetched catalog page.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// PageFetcher retrieves the raw HTML of a catalog page. Any outcome other
// than a 200 response is returned as an error.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// CollyFetcher fetches pages one at a time with a synchronous colly collector.
type CollyFetcher struct {
	collector *colly.Collector
	metrics   *Metrics
}

// NewCollyFetcher builds a fetcher for the category's pages.
func NewCollyFetcher(cfg *config.Config, metrics *Metrics) (*CollyFetcher, error) {
	parsed, err := url.Parse(cfg.CategoryURL)
	if err != nil {
		return nil, fmt.Errorf("parse category url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("category url must include a host")
	}

	// No domain restriction: only category page URLs are requested, and
	// redirects to another host (e.g. bare domain to www) must be followed.
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	// Non-2xx responses still reach OnResponse so the status can be reported.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if cfg.Delay > 0 {
		if err := collector.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 1,
			Delay:       cfg.Delay,
		}); err != nil {
			return nil, fmt.Errorf("configure delay: %w", err)
		}
	}

	f := &CollyFetcher{
		collector: collector,
		metrics:   metrics,
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		f.metrics.IncRequest("started")
	})

	collector.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
		r.Ctx.Put("page", &Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
		})
	})

	return f, nil
}

// Fetch issues a single GET for pageURL and waits for the response.
func (f *CollyFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reqCtx := colly.NewContext()
	err := f.collector.Request(http.MethodGet, pageURL, nil, reqCtx, nil)
	page, _ := reqCtx.GetAny("page").(*Page)

	statusCode := 0
	if page != nil {
		statusCode = page.StatusCode
	}

	if err != nil || statusCode != http.StatusOK {
		classified := classifyError(err, statusCode)
		if classified == nil {
			classified = fmt.Errorf("no response for %s", pageURL)
		}
		f.metrics.IncRequest("failed")
		f.metrics.IncError(ErrorTypeLabel(classified))
		return page, fmt.Errorf("fetch %s: %w", pageURL, classified)
	}

	f.metrics.IncRequest("completed")
	return page, nil
}

// WithTransport replaces the HTTP transport used by the collector.
func (f *CollyFetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}
