package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Kavirubc/gitscout/pkg/models"
)

const (
	// GoodFirstIssueLabel is always part of the search
	GoodFirstIssueLabel = `label:"good first issue"`

	// SearchPageSize caps the number of candidates per poll
	SearchPageSize = 50
)

// searchResponse is the body of GET /search/issues
type searchResponse struct {
	TotalCount int           `json:"total_count"`
	Items      []models.Item `json:"items"`
}

// BuildQuery turns a filter into a search expression. Each name is tried as
// both org and user; terms are joined with spaces (implicit AND).
func BuildQuery(f models.Filter) string {
	parts := make([]string, 0, 2*len(f.Organizations)+len(f.Languages)+1)

	for _, name := range f.Organizations {
		parts = append(parts, "org:"+name, "user:"+name)
	}
	for _, lang := range f.Languages {
		parts = append(parts, "language:"+lang)
	}
	parts = append(parts, GoodFirstIssueLabel)

	return strings.Join(parts, " ")
}

// SearchParams returns the query string for a search request
func SearchParams(f models.Filter) url.Values {
	params := url.Values{}
	params.Set("q", BuildQuery(f))
	params.Set("sort", "updated")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(SearchPageSize))
	return params
}

// Search returns the most recently updated issues matching the filter
func (c *Client) Search(ctx context.Context, f models.Filter) ([]models.Item, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := SearchParams(f)
	path := c.endpoint("search/issues?" + params.Encode())
	c.logger.Debug("github search", "q", params.Get("q"))

	var resp searchResponse
	if err := c.rest.DoWithContext(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}

	items := resp.Items
	if len(items) > SearchPageSize {
		items = items[:SearchPageSize]
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}
