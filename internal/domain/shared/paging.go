package shared

const (
	// DefaultPageSize applies when a listing names no page size
	DefaultPageSize = 20
	// MaxPageSize caps a single page
	MaxPageSize = 100
)

// PageRequest selects one ordered page of a listing.
// SortBy names a column; repositories ignore names they do not know.
type PageRequest struct {
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
}

// Normalize moves Page to at least 1 and PageSize into [1, MaxPageSize]
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of rows before the page
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// PageCount returns how many pages of pageSize rows hold total rows
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
