package service

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
)

func namesResult(names ...string) query.Result[[]string] {
	return query.Result[[]string]{Status: query.StatusSuccess, Data: names}
}

func containsFold(item, search string) bool {
	return strings.Contains(strings.ToLower(item), search)
}

func TestBuildPageCutsRequestedPage(t *testing.T) {
	page := buildPage(namesResult("a", "b", "c", "d", "e"), models.RosterFilter{Page: 2, PageSize: 2}, containsFold)

	assert.Equal(t, []string{"c", "d"}, page.Items)
	assert.Equal(t, 5, page.Pagination.TotalCount)
}

func TestBuildPagePastTheEndIsEmpty(t *testing.T) {
	for _, p := range []int{4, math.MaxInt64 / 10, math.MaxInt64} {
		var page *Page[string]
		require.NotPanics(t, func() {
			page = buildPage(namesResult("a", "b", "c", "d", "e"), models.RosterFilter{Page: p, PageSize: 2}, containsFold)
		})
		assert.Empty(t, page.Items, "page %d", p)
		assert.Equal(t, 5, page.Pagination.TotalCount)
	}
}

func TestBuildPageOnEmptyRoster(t *testing.T) {
	page := buildPage(namesResult(), models.RosterFilter{Page: 1}, containsFold)

	assert.Empty(t, page.Items)
	assert.Equal(t, defaultPageSize, page.Pagination.PageSize)
}
