package parser

import (
	"net/url"
	"strings"

	"github.com/aluiziolira/go-scrape-golkala/models"
)

// Selectors of the catalog template.
const (
	CardSelector        = ".product-item"
	TitleSelector       = ".product-title a"
	PriceSelector       = ".price"
	DescriptionSelector = ".short-description"
	BreadcrumbSelector  = ".breadcrumb"
	BreadcrumbItem      = "li"
	StockSelector       = ".stock-status"
	NextPageSelector    = ".pagination .next"
	disabledClass       = "disabled"
)

// Cards returns the product cards of a catalog page in document order.
func Cards(doc Node) []Node {
	return doc.SelectAll(CardSelector)
}

// HasNextPage reports whether the pagination control offers an enabled
// "next" link.
func HasNextPage(doc Node) bool {
	next, ok := doc.SelectOne(NextPageSelector)
	if !ok {
		return false
	}
	return !next.HasClass(disabledClass)
}

// ExtractProduct builds a product from one card. Missing elements leave the
// corresponding field at its zero value; extraction never fails.
func ExtractProduct(card Node, base *url.URL) *models.Product {
	product := &models.Product{}

	if title, ok := card.SelectOne(TitleSelector); ok {
		product.Name = strippedText(title)
		if href, ok := title.Attr("href"); ok {
			product.Link = ResolveLink(base, href)
		}
	}

	if price, ok := card.SelectOne(PriceSelector); ok {
		product.Price = ParsePrice(price.Text())
	}

	if desc, ok := card.SelectOne(DescriptionSelector); ok {
		product.Description = TagDescription(JoinText(desc.TextNodes(), DescriptionSeparator))
	}

	if crumbs, ok := card.SelectOne(BreadcrumbSelector); ok {
		items := crumbs.SelectAll(BreadcrumbItem)
		texts := make([]string, 0, len(items))
		for _, item := range items {
			texts = append(texts, strippedText(item))
		}
		product.Category = JoinBreadcrumb(texts)
	}

	if stock, ok := card.SelectOne(StockSelector); ok {
		product.Stock = strippedText(stock)
	}

	return product
}

// ResolveLink resolves href against base. It returns "" when href cannot be
// parsed.
func ResolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
