// Package models defines data structures for the scraper.
package models

import "time"

// Product represents one product card extracted from a catalog page.
// Every field falls back to its zero value when the card omits it.
type Product struct {
	Name        string `csv:"name" json:"name"`
	Price       int64  `csv:"price" json:"price"`
	Description string `csv:"description" json:"description"`
	Category    string `csv:"category" json:"category"`
	Link        string `csv:"link" json:"link"`
	Stock       string `csv:"stock" json:"stock"`
}

// Summary holds the aggregate statistics written next to the catalog.
type Summary struct {
	Total     int   `json:"total"`
	MinPrice  int64 `json:"min_price"`
	MaxPrice  int64 `json:"max_price"`
	MeanPrice int64 `json:"mean_price"`
	Tagged    int   `json:"tagged"`
}

// StopReason names the condition that ended a catalog walk.
type StopReason string

const (
	StopFetchFailed   StopReason = "fetch_failed"
	StopNoCards       StopReason = "no_cards"
	StopLastPage      StopReason = "last_page"
	StopDuplicatePage StopReason = "duplicate_page"
	StopMaxPages      StopReason = "max_pages"
	StopCanceled      StopReason = "canceled"
)

// CatalogResult holds the overall result of walking one category.
type CatalogResult struct {
	Products     []*Product
	Summary      Summary
	StartTime    time.Time
	EndTime      time.Time
	PageCount    int
	RequestCount int
	StopReason   StopReason
	// StopError is the classified transport failure label when StopReason
	// is StopFetchFailed.
	StopError string
}
