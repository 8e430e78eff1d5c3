package parser

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-scrape-golkala/models"
)

const fullCard = `<div class="product-item">
  <h2 class="product-title"><a href="/p/42"> کرم مرطوب کننده </a></h2>
  <span class="price">۱۲,۵۰۰ تومان</span>
  <div class="short-description"><p>حجم ۵۰ میل</p> <ul><li>همراه فایل آموزشی</li><li> </li></ul></div>
  <ul class="breadcrumb"><li>خانه</li><li> </li><li>آرایشی</li></ul>
  <span class="stock-status"> موجود </span>
</div>`

func parseCard(t *testing.T, fragment string) Node {
	t.Helper()
	doc, err := NewDocument(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	require.NoError(t, err)
	cards := Cards(doc)
	require.Len(t, cards, 1)
	return cards[0]
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestExtractProductFullCard(t *testing.T) {
	card := parseCard(t, fullCard)

	got := ExtractProduct(card, mustURL(t, "https://example.test/cat"))

	assert.Equal(t, "کرم مرطوب کننده", got.Name)
	assert.Equal(t, "https://example.test/p/42", got.Link)
	assert.Equal(t, int64(12500), got.Price)
	assert.Equal(t, Marker+" حجم ۵۰ میل ، همراه فایل آموزشی", got.Description)
	assert.Equal(t, "خانه/آرایشی", got.Category)
	assert.Equal(t, "موجود", got.Stock)
}

func TestExtractProductMissingElements(t *testing.T) {
	card := parseCard(t, `<div class="product-item"><span class="other">x</span></div>`)

	got := ExtractProduct(card, mustURL(t, "https://example.test/cat"))

	assert.Equal(t, &models.Product{}, got)
}

func TestExtractProductAnchorWithoutHref(t *testing.T) {
	card := parseCard(t, `<div class="product-item"><div class="product-title"><a>Name</a></div></div>`)

	got := ExtractProduct(card, mustURL(t, "https://example.test/cat"))

	assert.Equal(t, "Name", got.Name)
	assert.Empty(t, got.Link)
}

func TestExtractProductStripsEachTextNode(t *testing.T) {
	card := parseCard(t, `<div class="product-item">
  <div class="product-title"><a href="/p/1"> A <b>B</b> </a></div>
  <ul class="breadcrumb"><li> Home <span> Care </span></li><li>Skin</li></ul>
  <span class="stock-status"> In <em>stock</em> </span>
</div>`)

	got := ExtractProduct(card, mustURL(t, "https://example.test/cat"))

	assert.Equal(t, "AB", got.Name)
	assert.Equal(t, "HomeCare/Skin", got.Category)
	assert.Equal(t, "Instock", got.Stock)
}

func TestResolveLink(t *testing.T) {
	base := mustURL(t, "https://example.test/cat")

	tests := []struct {
		href string
		want string
	}{
		{href: "/p/42", want: "https://example.test/p/42"},
		{href: "p/7", want: "https://example.test/p/7"},
		{href: "https://other.test/x", want: "https://other.test/x"},
		{href: "%zz", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLink(base, tt.href))
		})
	}
}

func TestHasNextPage(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{name: "enabled", html: `<ul class="pagination"><li class="next"><a href="?page=2">»</a></li></ul>`, want: true},
		{name: "disabled", html: `<ul class="pagination"><li class="next disabled">»</li></ul>`, want: false},
		{name: "missing", html: `<ul class="pagination"><li class="prev">«</li></ul>`, want: false},
		{name: "outside pagination", html: `<a class="next">»</a>`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewDocument(strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.want, HasNextPage(doc))
		})
	}
}
