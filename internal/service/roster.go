package service

import (
	"strings"
	"time"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// sessionReader exposes the signed-in identity that scopes every roster.
type sessionReader interface {
	Current() models.Session
}

// Page is one screen of a roster plus the state of the query behind it.
type Page[T any] struct {
	Items      []T               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
	Status     query.Status      `json:"status"`
	Stale      bool              `json:"stale"`
	FromCache  bool              `json:"from_cache"`
	FetchedAt  *time.Time        `json:"fetched_at,omitempty"`
}

// IsLoading mirrors the query state for screens that render a spinner.
func (p *Page[T]) IsLoading() bool { return p.Status == query.StatusLoading }

// buildPage filters res.Data by filter.Search using match and cuts the
// requested page. Search and paging are done client-side; the remote list
// endpoints return the whole organization.
func buildPage[T any](res query.Result[[]T], filter models.RosterFilter, match func(T, string) bool) *Page[T] {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	filtered := make([]T, 0, len(res.Data))
	for _, item := range res.Data {
		if search == "" || match(item, search) {
			filtered = append(filtered, item)
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	start := len(filtered)
	if page-1 < (len(filtered)+size-1)/size {
		start = (page - 1) * size
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}

	out := &Page[T]{
		Items:      filtered[start:end],
		Pagination: models.Pagination{Page: page, PageSize: size, TotalCount: len(filtered)},
		Status:     res.Status,
		Stale:      res.Stale,
		FromCache:  res.FromCache,
	}
	if !res.FetchedAt.IsZero() {
		fetched := res.FetchedAt
		out.FetchedAt = &fetched
	}
	return out
}

func contains(search string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// single unwraps a retrieve result; a disabled query means the id was blank.
func single[T any](res query.Result[T], err error, kind string) (*T, error) {
	if err != nil {
		return nil, err
	}
	if res.IsIdle() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, kind+" not found")
	}
	out := res.Data
	return &out, nil
}
