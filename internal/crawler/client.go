// Package crawler extracts raw energy records from the portal API or from a saved dump.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"afdp/internal/config"
	"afdp/internal/logger"
	"afdp/internal/models"
)

// ErrTooManyPages is returned when a query keeps paginating past the configured cap.
var ErrTooManyPages = errors.New("pagination exceeded max_pages")

// Client walks every planned query through all of its pages.
type Client struct {
	scraper  *Scraper
	planner  *Planner
	logger   *logger.Logger
	maxPages int
}

// NewClient creates a crawler client from configuration.
func NewClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	planner, err := NewPlanner(cfg)
	if err != nil {
		return nil, err
	}

	return NewClientWithDeps(NewScraper(&cfg.Source), planner, cfg.Source.MaxPages, log), nil
}

// NewClientWithDeps creates a crawler client with injected dependencies.
func NewClientWithDeps(scraper *Scraper, planner *Planner, maxPages int, log *logger.Logger) *Client {
	return &Client{
		scraper:  scraper,
		planner:  planner,
		logger:   log,
		maxPages: maxPages,
	}
}

// Extract runs every planned query in order and concatenates the records.
// The first failing request aborts the extraction.
func (c *Client) Extract(ctx context.Context) ([]models.RawRecord, error) {
	queries := c.planner.Queries()
	c.logger.Info("extracting from portal", "queries", len(queries))

	var all []models.RawRecord

	for i, q := range queries {
		records, err := c.ExtractQuery(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q, err)
		}

		c.logger.Debug("query done", "query", q.String(), "records", len(records), "progress", fmt.Sprintf("%d/%d", i+1, len(queries)))
		all = append(all, records...)
	}

	return all, nil
}

// ExtractQuery follows pagination for a single query.
func (c *Client) ExtractQuery(ctx context.Context, q Query) ([]models.RawRecord, error) {
	var records []models.RawRecord

	for page := 1; ; page++ {
		if page > c.maxPages {
			return nil, fmt.Errorf("%w (%d)", ErrTooManyPages, c.maxPages)
		}

		url := c.planner.PageURL(q, page)

		result, duration, err := c.scraper.FetchPage(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		c.logger.Debug("fetched page", "url", url, "records", len(result.Records), "duration", duration)
		records = append(records, result.Records...)

		if lastPage(result, page, c.planner.PageSize()) {
			return records, nil
		}
	}
}

func lastPage(p *Page, page, pageSize int) bool {
	if len(p.Records) == 0 {
		return true
	}

	if p.HasMeta {
		return p.CurrentPage >= p.LastPage
	}

	return len(p.Records) < pageSize
}

// FileSource replays a raw dump previously written by the extract stage.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Extract reads and decodes the dump. ctx is unused.
func (f *FileSource) Extract(_ context.Context) ([]models.RawRecord, error) {
	return ReadRawFile(f.path)
}

// ReadRawFile decodes a raw dump in either page shape.
func ReadRawFile(path string) ([]models.RawRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw file %s: %w", path, err)
	}

	page, err := DecodePage(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raw file %s: %w", path, err)
	}

	return page.Records, nil
}
