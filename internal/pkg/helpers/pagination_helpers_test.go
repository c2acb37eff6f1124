package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Number: 3, Size: 25}, NewPage(3, 25))
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, NewPage(0, 0))
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, NewPage(-2, MaxPageSize+1))
	assert.Equal(t, Page{Number: 1, Size: MaxPageSize}, ExportPage())
}

func TestPageOffsetAndNext(t *testing.T) {
	p := NewPage(3, 20)
	assert.EqualValues(t, 40, p.Offset())
	assert.EqualValues(t, 20, p.Limit())
	assert.Equal(t, Page{Number: 4, Size: 20}, p.Next())
}

func TestPageLast(t *testing.T) {
	p := NewPage(1, 10)
	assert.False(t, p.Last(10, 25))
	assert.False(t, p.Next().Last(10, 25))
	assert.True(t, p.Next().Next().Last(5, 25))
	assert.True(t, p.Last(0, 25), "an empty page ends the walk")
	assert.True(t, p.Last(10, 10))
}

func TestPageInfo(t *testing.T) {
	info := NewPage(2, 10).Info(25)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 10, info.PageSize)
	assert.EqualValues(t, 25, info.TotalItems)

	assert.Equal(t, 3, NewPage(9, 10).Info(25).CurrentPage, "current page is clamped to the last page")

	empty := NewPage(1, 10).Info(0)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 0, NewPage(2, 10).Info(0).TotalPages)
}

func TestParsePage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	parse := func(query string) Page {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/schedules"+query, nil)
		return ParsePage(c)
	}

	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, parse(""))
	assert.Equal(t, Page{Number: 4, Size: 50}, parse("?page=4&size=50"))
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, parse("?page=x&size=1000"))
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2025-01-07", "2025-01-10", 366)
	require.NoError(t, err)
	assert.Equal(t, kst.At(2025, time.January, 7, 0, 0, 0), r.From)
	assert.Equal(t, kst.At(2025, time.January, 11, 0, 0, 0), r.To, "the last date is included")

	r, err = ParseDateRange("2025-03-01", "2025-03-01", 366)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, r.To.Sub(r.From))

	_, err = ParseDateRange("2025-01-10", "2025-01-09", 366)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = ParseDateRange("2025-01-01", "2026-01-01", 366)
	require.NoError(t, err, "365 days apart is allowed")
	_, err = ParseDateRange("2025-01-01", "2026-01-02", 366)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = ParseDateRange("2025-13-01", "2025-01-02", 366)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}
