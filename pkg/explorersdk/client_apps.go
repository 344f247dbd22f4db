package explorersdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListAppsParams are the catalogue filters. Zero values are omitted.
type ListAppsParams struct {
	Category string
	Tag      string
	Search   string
	Sort     string
	Featured bool
	Page     int
	Limit    int
}

func (p ListAppsParams) query() string {
	q := url.Values{}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Tag != "" {
		q.Set("tag", p.Tag)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Featured {
		q.Set("featured", "true")
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListApps returns one page of the catalogue.
func (c *Client) ListApps(ctx context.Context, p ListAppsParams) (*AppPage, error) {
	var page AppPage
	if err := c.doJSON(ctx, http.MethodGet, "/api/apps"+p.query(), "", nil, &page, http.StatusOK); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetApp returns an app with its media and review threads.
func (c *Client) GetApp(ctx context.Context, slug string) (*AppDetail, error) {
	var app AppDetail
	if err := c.doJSON(ctx, http.MethodGet, "/api/apps/"+url.PathEscape(slug), "", nil, &app, http.StatusOK); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.doJSON(ctx, http.MethodGet, "/api/categories", "", nil, &cats, http.StatusOK); err != nil {
		return nil, err
	}
	return cats, nil
}
