package report

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/aluiziolira/go-scrape-golkala/models"
)

// Sheet names of the workbook.
const (
	CatalogSheet = "Catalog"
	SummarySheet = "Summary"
)

// ErrWriterClosed is returned when writing to a closed XLSXWriter.
var ErrWriterClosed = errors.New("report: writer closed")

// XLSXWriter builds a two-sheet workbook: the catalog rows and the summary
// statistics. The file is saved on Close.
type XLSXWriter struct {
	path     string
	file     *excelize.File
	products []*models.Product
	closed   bool
	mu       sync.Mutex
}

// NewXLSXWriter prepares the workbook and writes the catalog header.
func NewXLSXWriter(filename string) (*XLSXWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), CatalogSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename catalog sheet: %w", err)
	}

	header := make([]any, len(CatalogHeader))
	for i, col := range CatalogHeader {
		header[i] = col
	}
	if err := f.SetSheetRow(CatalogSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write catalog header: %w", err)
	}

	return &XLSXWriter{
		path: filename,
		file: f,
	}, nil
}

// Write appends products to the catalog sheet, numbering rows from 1.
func (xw *XLSXWriter) Write(products []*models.Product) error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if xw.closed {
		return ErrWriterClosed
	}

	for _, p := range products {
		if p == nil {
			continue
		}
		index := len(xw.products) + 1
		cell, err := excelize.CoordinatesToCellName(1, index+1)
		if err != nil {
			return fmt.Errorf("catalog cell for row %d: %w", index, err)
		}
		row := []any{index, p.Name, p.Price, p.Description, p.Category, p.Link, p.Stock}
		if err := xw.file.SetSheetRow(CatalogSheet, cell, &row); err != nil {
			return fmt.Errorf("write catalog row %d: %w", index, err)
		}
		xw.products = append(xw.products, p)
	}
	return nil
}

// Close writes the summary sheet and saves the workbook.
func (xw *XLSXWriter) Close() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if xw.closed {
		return nil
	}
	xw.closed = true
	defer xw.file.Close()

	if err := xw.writeSummary(Summarize(xw.products)); err != nil {
		return err
	}
	if err := xw.file.SaveAs(xw.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Validate ensures the saved workbook exists and has content.
func (xw *XLSXWriter) Validate() error {
	return validateFile(xw.path, "xlsx")
}

func (xw *XLSXWriter) writeSummary(s models.Summary) error {
	if _, err := xw.file.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	header := []any{"Statistic", "Value"}
	if err := xw.file.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for i, pair := range SummaryRows(s) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("summary cell: %w", err)
		}
		row := []any{pair[0], pair[1]}
		if err := xw.file.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %q: %w", pair[0], err)
		}
	}
	return nil
}
