package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"afdp/internal/config"
	"afdp/internal/models"
	"afdp/pkg/utils"
)

// Scraper errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrResponseTooLarge     = errors.New("response exceeds buffer size")
	ErrUnexpectedPayload    = errors.New("unexpected payload shape")
)

// Page is one decoded page of portal results.
type Page struct {
	Records     []models.RawRecord
	CurrentPage int
	LastPage    int
	// HasMeta is set when the payload carried pagination fields.
	HasMeta bool
}

// Scraper issues paced GET requests against the portal and decodes the JSON pages.
type Scraper struct {
	client       *http.Client
	limiter      *rate.Limiter
	headers      http.Header
	bufferSizeKb int
}

// NewScraper creates a scraper from the source configuration.
func NewScraper(src *config.SourceConfig) *Scraper {
	return NewScraperWithClient(
		&http.Client{Timeout: src.GetTimeout()},
		rate.NewLimiter(rate.Limit(src.RequestsPerSecond), 1),
		utils.BuildHeaders(src.Headers),
		src.BufferSizeKb,
	)
}

// NewScraperWithClient creates a scraper with injected dependencies.
// A nil limiter disables pacing.
func NewScraperWithClient(client *http.Client, limiter *rate.Limiter, headers http.Header, bufferSizeKb int) *Scraper {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &Scraper{
		client:       client,
		limiter:      limiter,
		headers:      headers,
		bufferSizeKb: bufferSizeKb,
	}
}

// FetchPage GETs url and decodes the body. Transport failures, non-200 statuses and
// undecodable bodies are all reported as models.ErrConnectivity.
func (s *Scraper) FetchPage(ctx context.Context, url string) (*Page, time.Duration, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("%w: rate limiter: %w", models.ErrConnectivity, err)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, time.Since(start), fmt.Errorf("%w: request failed: %w", models.ErrConnectivity, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, time.Since(start), fmt.Errorf("%w: %w: %d", models.ErrConnectivity, ErrUnexpectedStatusCode, resp.StatusCode)
	}

	// bufferSizeKb is in KB; read one extra byte to detect truncation.
	limit := int64(s.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, time.Since(start), fmt.Errorf("%w: failed to read response body: %w", models.ErrConnectivity, err)
	}

	if int64(len(body)) > limit {
		return nil, time.Since(start), fmt.Errorf("%w: %w (%d KB)", models.ErrConnectivity, ErrResponseTooLarge, s.bufferSizeKb)
	}

	page, err := DecodePage(body)
	if err != nil {
		return nil, time.Since(start), fmt.Errorf("%w: %w", models.ErrConnectivity, err)
	}

	return page, time.Since(start), nil
}

// DecodePage accepts either a bare JSON array of records or an object whose
// "data" field holds them next to optional current_page/last_page counters.
func DecodePage(body []byte) (*Page, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	switch v := payload.(type) {
	case []any:
		records, err := toRecords(v)
		if err != nil {
			return nil, err
		}

		return &Page{Records: records}, nil
	case map[string]any:
		page := &Page{}

		if data, ok := v["data"]; ok && data != nil {
			items, isList := data.([]any)
			if !isList {
				return nil, fmt.Errorf("%w: data is %T", ErrUnexpectedPayload, data)
			}

			records, err := toRecords(items)
			if err != nil {
				return nil, err
			}

			page.Records = records
		}

		current, hasCurrent := intField(v, "current_page")
		last, hasLast := intField(v, "last_page")
		page.CurrentPage = current
		page.LastPage = last
		page.HasMeta = hasCurrent && hasLast

		return page, nil
	default:
		return nil, fmt.Errorf("%w: top-level %T", ErrUnexpectedPayload, payload)
	}
}

func toRecords(items []any) ([]models.RawRecord, error) {
	records := make([]models.RawRecord, 0, len(items))

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: item %d is %T", ErrUnexpectedPayload, i, item)
		}

		records = append(records, models.RawRecord(obj))
	}

	return records, nil
}

func intField(obj map[string]any, key string) (int, bool) {
	n, ok := obj[key].(json.Number)
	if !ok {
		return 0, false
	}

	v, err := n.Int64()
	if err != nil {
		return 0, false
	}

	return int(v), true
}
