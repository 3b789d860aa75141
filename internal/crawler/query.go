package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"afdp/internal/config"
	"afdp/internal/models"
)

// Query is one paginated request series against the portal.
type Query struct {
	Country   models.Country
	Subsector models.Subsector
}

// String identifies the query in logs.
func (q Query) String() string {
	return q.Country.Code + "/" + string(q.Subsector)
}

// Planner expands the configuration into queries and page URLs.
type Planner struct {
	endpoint   *url.URL
	countries  []models.Country
	subsectors []models.Subsector
	years      []int
	group      string
	indicators []string
	pageSize   int
}

// NewPlanner builds a planner for cfg.
func NewPlanner(cfg *config.Config) (*Planner, error) {
	endpoint, err := url.Parse(strings.TrimRight(cfg.Source.BaseURL, "/") + cfg.Source.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid source endpoint: %w", err)
	}

	return &Planner{
		endpoint:   endpoint,
		countries:  cfg.SelectedCountries(),
		subsectors: cfg.SelectedSubsectors(),
		years:      cfg.SelectedYears(),
		group:      cfg.Source.Group,
		indicators: cfg.Source.Indicators,
		pageSize:   cfg.Source.PageSize,
	}, nil
}

// Queries returns one query per (country, subsector), countries outermost.
func (p *Planner) Queries() []Query {
	queries := make([]Query, 0, len(p.countries)*len(p.subsectors))

	for _, c := range p.countries {
		for _, sub := range p.subsectors {
			queries = append(queries, Query{Country: c, Subsector: sub})
		}
	}

	return queries
}

// PageSize is the per_page value sent with every request.
func (p *Planner) PageSize() int {
	return p.pageSize
}

// PageURL builds the URL of page (1-based) for q. Query parameters already on
// the endpoint are kept.
func (p *Planner) PageURL(q Query, page int) string {
	params := p.endpoint.Query()
	if p.group != "" {
		params.Set("group", p.group)
	}

	params.Set("country", q.Country.PortalName)
	params.Set("subsector", string(q.Subsector))

	for _, y := range p.years {
		params.Add("year", strconv.Itoa(y))
	}

	for _, ind := range p.indicators {
		params.Add("indicator", ind)
	}

	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(p.pageSize))

	u := *p.endpoint
	u.RawQuery = params.Encode()

	return u.String()
}
