package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"eshop-api/internal/domain"
	"github.com/shopspring/decimal"
)

type CategoryStore interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Create(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates categories and
// products. Expected columns: category_name, category_slug, title,
// description, image_url, price, slug.
type CSVImporter struct {
	reader     *csv.Reader
	categories CategoryStore
	products   ProductWriter

	categoryIDs map[string]string
}

func NewCSVImporter(r io.Reader, categories CategoryStore, products ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		categories:  categories,
		products:    products,
		categoryIDs: make(map[string]string),
	}
}

type csvRow struct {
	CategoryName string
	CategorySlug string
	Title        string
	Description  string
	ImageURL     string
	Price        string
	Slug         string
}

// Run parses CSV rows and upserts one product per row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Title == "" || row.Slug == "" || row.CategorySlug == "" || row.Price == "" {
		return fmt.Errorf("invalid product row (missing required fields) for slug %q", row.Slug)
	}
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return fmt.Errorf("invalid price for slug %q: %w", row.Slug, err)
	}
	if price.IsNegative() {
		return fmt.Errorf("negative price for slug %q", row.Slug)
	}

	categoryID, err := i.ensureCategory(ctx, row.CategoryName, row.CategorySlug)
	if err != nil {
		return fmt.Errorf("ensure category %q: %w", row.CategorySlug, err)
	}

	_, err = i.products.Upsert(ctx, domain.Product{
		CategoryID:  categoryID,
		Title:       row.Title,
		Description: row.Description,
		ImageURL:    row.ImageURL,
		Price:       price,
		Slug:        row.Slug,
	})
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Slug, err)
	}
	return nil
}

func (i *CSVImporter) ensureCategory(ctx context.Context, name, slug string) (string, error) {
	if id, ok := i.categoryIDs[slug]; ok {
		return id, nil
	}
	cat, err := i.categories.GetBySlug(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		if name == "" {
			name = slug
		}
		cat, err = i.categories.Create(ctx, domain.Category{Name: name, Slug: slug})
	}
	if err != nil {
		return "", err
	}
	i.categoryIDs[slug] = cat.ID
	return cat.ID, nil
}

func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return index
}

func parseRow(record []string, index map[string]int) *csvRow {
	get := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := csvRow{
		CategoryName: get("category_name"),
		CategorySlug: get("category_slug"),
		Title:        get("title"),
		Description:  get("description"),
		ImageURL:     get("image_url"),
		Price:        get("price"),
		Slug:         get("slug"),
	}
	if row.Title == "" && row.Slug == "" {
		return nil
	}
	return &row
}
