package helpers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/backoffice/internal/app/models/dto"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page of a schedule listing. Build it with NewPage or ParsePage so the
// number and size are always in range.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number to at least 1. A size outside 1..MaxPageSize becomes DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Number: number, Size: size}
}

// ExportPage is the first page of a full-range walk, such as a calendar export.
func ExportPage() Page {
	return Page{Number: 1, Size: MaxPageSize}
}

// ParsePage reads the page and size query parameters. Malformed values fall back to the defaults.
func ParsePage(c *gin.Context) Page {
	number, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		number = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))
	if err != nil {
		size = DefaultPageSize
	}
	return NewPage(number, size)
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() uint64 {
	return uint64((p.Number - 1) * p.Size)
}

// Limit is the maximum number of rows on this page.
func (p Page) Limit() uint64 {
	return uint64(p.Size)
}

// Next returns the following page.
func (p Page) Next() Page {
	return Page{Number: p.Number + 1, Size: p.Size}
}

// Last reports whether a page that returned fetched rows out of total is the final one.
func (p Page) Last(fetched int, total int64) bool {
	return fetched == 0 || int64(p.Offset())+int64(fetched) >= total
}

// Info describes this page for a list response. An empty first page reports one page.
func (p Page) Info(total int64) dto.PaginationInfo {
	totalPages := int((total + int64(p.Size) - 1) / int64(p.Size))
	if totalPages == 0 && p.Number == 1 {
		totalPages = 1
	}
	current := p.Number
	if totalPages > 0 && current > totalPages {
		current = totalPages
	}
	return dto.PaginationInfo{
		CurrentPage: current,
		TotalPages:  totalPages,
		PageSize:    p.Size,
		TotalItems:  total,
	}
}

// DateRange is the half-open interval [From, To) covering whole KST dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange turns inclusive KST dates (YYYY-MM-DD) into a DateRange ending at the
// midnight after to. Ranges of maxDays days or more are rejected.
func ParseDateRange(from, to string, maxDays int) (DateRange, error) {
	first, err := kst.ParseDate(from)
	if err != nil {
		return DateRange{}, apperrors.NewBadRequestError(err.Error())
	}
	last, err := kst.ParseDate(to)
	if err != nil {
		return DateRange{}, apperrors.NewBadRequestError(err.Error())
	}
	if last.Before(first) {
		return DateRange{}, apperrors.NewBadRequestError("to must not be before from")
	}
	// KST has no DST, so every day is 24 hours.
	if last.Start().Sub(first.Start()) >= time.Duration(maxDays)*24*time.Hour {
		return DateRange{}, apperrors.NewBadRequestError(fmt.Sprintf("date range must be shorter than %d days", maxDays))
	}
	return DateRange{From: first.Start(), To: last.Start().AddDate(0, 0, 1)}, nil
}
