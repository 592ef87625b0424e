package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

const (
	// TotalCountHeader carries the unpaginated result size on list responses.
	TotalCountHeader = "X-Total-Count"
	// HasMoreHeader is "true" when rows remain after the current page.
	HasMoreHeader = "X-Has-More"
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads skip/limit query parameters. "offset" is accepted as an
// alias for skip.
func FromContext(c echo.Context) Params {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, err := strconv.Atoi(c.QueryParam("skip"))
	if err != nil {
		offset, _ = strconv.Atoi(c.QueryParam("offset"))
	}
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// SetTotal writes the total count and has-more headers for the page p.
func SetTotal(c echo.Context, p Params, total int) {
	h := c.Response().Header()
	h.Set(TotalCountHeader, strconv.Itoa(total))
	h.Set(HasMoreHeader, strconv.FormatBool(p.HasNext(total)))
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}
