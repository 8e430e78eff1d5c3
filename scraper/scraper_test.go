package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-scrape-golkala/config"
	"github.com/aluiziolira/go-scrape-golkala/models"
)

const categoryURL = "http://example.test/cat"

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "server error", err: nil, statusCode: http.StatusInternalServerError, expected: "status"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorTypeLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		root string
		page int
		want string
	}{
		{root: "https://example.test/cat", page: 1, want: "https://example.test/cat?page=1"},
		{root: "https://example.test/cat?page=9", page: 3, want: "https://example.test/cat?page=3"},
		{root: "https://example.test/cat?sort=new", page: 2, want: "https://example.test/cat?page=2&sort=new"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			root, err := url.Parse(tt.root)
			if err != nil {
				t.Fatalf("parse root: %v", err)
			}
			if got := PageURL(root, tt.page); got != tt.want {
				t.Fatalf("PageURL = %q, want %q", got, tt.want)
			}
		})
	}
}

// fakeFetcher serves canned pages by URL and records every request.
type fakeFetcher struct {
	pages    map[string]string
	failures map[string]error
	requests []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	f.requests = append(f.requests, pageURL)
	if err, ok := f.failures[pageURL]; ok {
		return nil, err
	}
	body, ok := f.pages[pageURL]
	if !ok {
		return nil, ErrNotFound{Err: fmt.Errorf("http status 404")}
	}
	return &Page{URL: pageURL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.CategoryURL = categoryURL
	return cfg
}

func pageAt(n int) string {
	return fmt.Sprintf("%s?page=%d", categoryURL, n)
}

func newTestWalker(t *testing.T, cfg *config.Config, fetcher PageFetcher) *Walker {
	t.Helper()
	w, err := NewWalker(cfg, fetcher, NewMetrics())
	if err != nil {
		t.Fatalf("new walker: %v", err)
	}
	return w
}

func TestWalkerStopsOnEmptyPage(t *testing.T) {
	const full = 3
	fetcher := &fakeFetcher{pages: map[string]string{}}
	for n := 1; n <= full; n++ {
		fetcher.pages[pageAt(n)] = buildCatalogPage(n, 2, nextEnabled)
	}
	fetcher.pages[pageAt(full+1)] = buildCatalogPage(full+1, 0, nextEnabled)

	var progress []int
	w := newTestWalker(t, testConfig(), fetcher)
	w.OnPage(func(page int, _ string) { progress = append(progress, page) })

	result, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	if result.StopReason != models.StopNoCards {
		t.Fatalf("stop reason = %q, want %q", result.StopReason, models.StopNoCards)
	}
	if got := len(fetcher.requests); got != full+1 {
		t.Fatalf("requests = %d, want %d", got, full+1)
	}
	seen := make(map[string]bool)
	for i, req := range fetcher.requests {
		if seen[req] {
			t.Fatalf("page %s requested twice", req)
		}
		seen[req] = true
		if req != pageAt(i+1) {
			t.Fatalf("request %d = %s, want %s", i, req, pageAt(i+1))
		}
	}
	if len(progress) != full+1 {
		t.Fatalf("progress callbacks = %v", progress)
	}
	if got := len(result.Products); got != full*2 {
		t.Fatalf("products = %d, want %d", got, full*2)
	}
	if result.Products[0].Name != "Product 1-1" || result.Products[5].Name != "Product 3-2" {
		t.Fatalf("products out of order: first=%q last=%q", result.Products[0].Name, result.Products[5].Name)
	}
}

func TestWalkerStopConditions(t *testing.T) {
	tests := []struct {
		name      string
		pages     map[string]string
		failures  map[string]error
		maxPages  int
		wantStop  models.StopReason
		wantError string
		wantReqs  int
		wantItems int
	}{
		{
			name:      "next missing",
			pages:     map[string]string{pageAt(1): buildCatalogPage(1, 3, nextMissing)},
			wantStop:  models.StopLastPage,
			wantReqs:  1,
			wantItems: 3,
		},
		{
			name:      "next disabled",
			pages:     map[string]string{pageAt(1): buildCatalogPage(1, 2, nextDisabled)},
			wantStop:  models.StopLastPage,
			wantReqs:  1,
			wantItems: 2,
		},
		{
			name:      "not found",
			pages:     map[string]string{pageAt(1): buildCatalogPage(1, 2, nextEnabled)},
			wantStop:  models.StopFetchFailed,
			wantError: "not_found",
			wantReqs:  2,
			wantItems: 2,
		},
		{
			name:      "connection failure on first page",
			failures:  map[string]error{pageAt(1): ErrConnection{Err: errors.New("refused")}},
			wantStop:  models.StopFetchFailed,
			wantError: "connection",
			wantReqs:  1,
		},
		{
			name: "repeated page",
			pages: map[string]string{
				pageAt(1): buildCatalogPage(1, 2, nextEnabled),
				pageAt(2): buildCatalogPage(1, 2, nextEnabled),
			},
			wantStop:  models.StopDuplicatePage,
			wantReqs:  2,
			wantItems: 2,
		},
		{
			name: "page cap",
			pages: map[string]string{
				pageAt(1): buildCatalogPage(1, 1, nextEnabled),
				pageAt(2): buildCatalogPage(2, 1, nextEnabled),
				pageAt(3): buildCatalogPage(3, 1, nextEnabled),
			},
			maxPages:  2,
			wantStop:  models.StopMaxPages,
			wantReqs:  2,
			wantItems: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MaxPages = tt.maxPages
			fetcher := &fakeFetcher{pages: tt.pages, failures: tt.failures}
			if fetcher.pages == nil {
				fetcher.pages = map[string]string{}
			}

			result, err := newTestWalker(t, cfg, fetcher).Walk(context.Background())
			if err != nil {
				t.Fatalf("walk: %v", err)
			}
			if result.StopReason != tt.wantStop {
				t.Fatalf("stop reason = %q, want %q", result.StopReason, tt.wantStop)
			}
			if result.StopError != tt.wantError {
				t.Fatalf("stop error = %q, want %q", result.StopError, tt.wantError)
			}
			if got := len(fetcher.requests); got != tt.wantReqs {
				t.Fatalf("requests = %d, want %d", got, tt.wantReqs)
			}
			if got := len(result.Products); got != tt.wantItems {
				t.Fatalf("products = %d, want %d", got, tt.wantItems)
			}
		})
	}
}

func TestWalkerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{pages: map[string]string{}}
	result, err := newTestWalker(t, testConfig(), fetcher).Walk(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.StopReason != models.StopCanceled {
		t.Fatalf("stop reason = %q", result.StopReason)
	}
	if len(fetcher.requests) != 0 {
		t.Fatalf("no request expected after cancel, got %v", fetcher.requests)
	}
}

func newMockFetcher(t *testing.T, transport *httpmock.MockTransport) *CollyFetcher {
	t.Helper()
	f, err := NewCollyFetcher(testConfig(), NewMetrics())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	f.collector.WithTransport(transport)
	return f
}

func TestCollyFetcherStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{status: http.StatusTooManyRequests, expected: "rate_limited"},
		{status: http.StatusForbidden, expected: "forbidden"},
		{status: http.StatusNotFound, expected: "not_found"},
		{status: http.StatusBadGateway, expected: "status"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", pageAt(1), httpmock.NewStringResponder(tt.status, ""))

			f := newMockFetcher(t, transport)
			page, err := f.Fetch(context.Background(), pageAt(1))
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}
			if got := ErrorTypeLabel(err); got != tt.expected {
				t.Fatalf("label = %q, want %q", got, tt.expected)
			}
			if page == nil || page.StatusCode != tt.status {
				t.Fatalf("page status = %+v, want %d", page, tt.status)
			}
		})
	}
}

func TestCollyFetcherFollowsCrossHostRedirect(t *testing.T) {
	target := "http://www.example.test/cat?page=1"
	redirect := httpmock.NewStringResponse(http.StatusMovedPermanently, "")
	redirect.Header.Set("Location", target)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", pageAt(1), httpmock.ResponderFromResponse(redirect))
	transport.RegisterResponder("GET", target, htmlResponder(buildCatalogPage(1, 2, nextDisabled)))

	w := newTestWalker(t, testConfig(), newMockFetcher(t, transport))
	result, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	if result.StopReason != models.StopLastPage || result.StopError != "" {
		t.Fatalf("stop = %q (%q), want %q", result.StopReason, result.StopError, models.StopLastPage)
	}
	if got := len(result.Products); got != 2 {
		t.Fatalf("products = %d, want 2", got)
	}
	if got := transport.GetCallCountInfo()["GET "+target]; got != 1 {
		t.Fatalf("redirect target calls = %d, want 1", got)
	}
}

func TestWalker_Integration(t *testing.T) {
	page1 := `<html><body>
<div class="product-item">
  <div class="product-title"><a href="/p/1">Cream</a></div>
  <span class="price">1,000 تومان</span>
</div>
<div class="product-item">
  <div class="product-title"><a href="/p/2">Lotion</a></div>
  <span class="price">۲۰۰۰ تومان</span>
  <div class="short-description">نسخه آسانکار</div>
</div>
<ul class="pagination"><li class="next"><a href="?page=2">next</a></li></ul>
</body></html>`
	page2 := `<html><body><p>no products</p></body></html>`

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", pageAt(1), htmlResponder(page1))
	transport.RegisterResponder("GET", pageAt(2), htmlResponder(page2))

	fetcher := newMockFetcher(t, transport)
	w := newTestWalker(t, testConfig(), fetcher)

	result, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	if got := len(result.Products); got != 2 {
		t.Fatalf("products=%d, want 2", got)
	}
	if result.StopReason != models.StopNoCards {
		t.Fatalf("stop reason = %q", result.StopReason)
	}
	if result.PageCount != 2 || result.RequestCount != 2 {
		t.Fatalf("pages=%d requests=%d, want 2/2", result.PageCount, result.RequestCount)
	}
	want := models.Summary{Total: 2, MinPrice: 1000, MaxPrice: 2000, MeanPrice: 1500, Tagged: 1}
	if result.Summary != want {
		t.Fatalf("summary = %+v, want %+v", result.Summary, want)
	}
	if got := result.Products[1].Link; got != "http://example.test/p/2" {
		t.Fatalf("link = %q", got)
	}
	if got := transport.GetTotalCallCount(); got != 2 {
		t.Fatalf("http calls = %d, want 2", got)
	}
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return httpmock.ResponderFromResponse(resp)
}

type nextControl int

const (
	nextMissing nextControl = iota
	nextEnabled
	nextDisabled
)

func buildCatalogPage(page, cards int, next nextControl) string {
	var builder strings.Builder
	builder.WriteString("<html><body><section class=\"products\">")

	for i := 1; i <= cards; i++ {
		builder.WriteString("<div class=\"product-item\">")
		fmt.Fprintf(&builder, "<h3 class=\"product-title\"><a href=\"/p/%d-%d\">Product %d-%d</a></h3>", page, i, page, i)
		fmt.Fprintf(&builder, "<span class=\"price\">%d,000</span>", page*10+i)
		builder.WriteString("<span class=\"stock-status\">موجود</span>")
		builder.WriteString("</div>")
	}

	switch next {
	case nextEnabled:
		fmt.Fprintf(&builder, "<ul class=\"pagination\"><li class=\"next\"><a href=\"?page=%d\">next</a></li></ul>", page+1)
	case nextDisabled:
		builder.WriteString("<ul class=\"pagination\"><li class=\"next disabled\">next</li></ul>")
	}

	builder.WriteString("</section></body></html>")
	return builder.String()
}
