// Package report writes extracted products and their summary statistics.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aluiziolira/go-scrape-golkala/models"
	"github.com/aluiziolira/go-scrape-golkala/parser"
)

// Summary row labels, in sheet order.
const (
	LabelTotal  = "Total products"
	LabelMin    = "Min price"
	LabelMax    = "Max price"
	LabelMean   = "Mean price"
	LabelTagged = "Products with supplementary files"
)

// Summarize computes catalog statistics. Zero-priced products count towards
// the minimum and the mean.
func Summarize(products []*models.Product) models.Summary {
	var s models.Summary
	var total int64
	for _, p := range products {
		if p == nil {
			continue
		}
		if s.Total == 0 || p.Price < s.MinPrice {
			s.MinPrice = p.Price
		}
		if s.Total == 0 || p.Price > s.MaxPrice {
			s.MaxPrice = p.Price
		}
		total += p.Price
		s.Total++
		if parser.HasMarker(p.Description) {
			s.Tagged++
		}
	}
	if s.Total > 0 {
		s.MeanPrice = total / int64(s.Total)
	}
	return s
}

// SummaryRows returns the label/value pairs of the summary sheet.
func SummaryRows(s models.Summary) [][2]any {
	return [][2]any{
		{LabelTotal, s.Total},
		{LabelMin, s.MinPrice},
		{LabelMax, s.MaxPrice},
		{LabelMean, s.MeanPrice},
		{LabelTagged, s.Tagged},
	}
}

// FormatSummary prints the summary as an aligned two-column table.
func FormatSummary(w io.Writer, s models.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Statistic\tValue")
	for _, row := range SummaryRows(s) {
		fmt.Fprintf(tw, "%v\t%v\n", row[0], row[1])
	}
	return tw.Flush()
}
