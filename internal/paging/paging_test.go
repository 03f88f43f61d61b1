package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate_TwentyFiveByTen(t *testing.T) {
	first := Paginate(Params{Page: 1, Limit: 10}, 25)
	require.NotNil(t, first.Next)
	assert.Equal(t, Cursor{Page: 2, Limit: 10}, *first.Next)
	assert.Nil(t, first.Prev)

	middle := Paginate(Params{Page: 2, Limit: 10}, 25)
	require.NotNil(t, middle.Next)
	require.NotNil(t, middle.Prev)
	assert.Equal(t, 3, middle.Next.Page)
	assert.Equal(t, 1, middle.Prev.Page)

	last := Paginate(Params{Page: 3, Limit: 10}, 25)
	assert.Nil(t, last.Next)
	require.NotNil(t, last.Prev)
	assert.Equal(t, Cursor{Page: 2, Limit: 10}, *last.Prev)
}

func TestPaginate_ExactBoundary(t *testing.T) {
	p := Paginate(Params{Page: 2, Limit: 10}, 20)
	assert.Nil(t, p.Next)
	assert.NotNil(t, p.Prev)

	empty := Paginate(Params{Page: 1, Limit: 10}, 0)
	assert.Nil(t, empty.Next)
	assert.Nil(t, empty.Prev)
}

func TestParse(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, Parse("", ""))
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, Parse("-3", "abc"))
	assert.Equal(t, Params{Page: 4, Limit: 25}, Parse("4", "25"))
	assert.Equal(t, MaxLimit, Parse("1", "5000").Limit)
	assert.Equal(t, 30, Params{Page: 4, Limit: 10}.Offset())
}

func TestNewResult(t *testing.T) {
	res := NewResult([]string(nil), Params{Page: 1, Limit: 10}, 0)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 0, res.Count)

	all := All([]int{1, 2, 3})
	assert.Equal(t, 3, all.Count)
	assert.Nil(t, all.Pagination.Next)
}

func TestParseSort(t *testing.T) {
	allowed := map[string]string{"createdAt": "created_at", "salary.min": "salary_min"}

	assert.Equal(t, "created_at DESC", ParseSort("", allowed, "created_at DESC"))
	assert.Equal(t, "salary_min ASC, created_at DESC", ParseSort("salary.min,-createdAt", allowed, "x"))
	assert.Equal(t, "fallback", ParseSort("-password;drop", allowed, "fallback"))
}
