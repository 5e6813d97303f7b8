package storex

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Page represents pagination metadata
type Page struct {
	Number      int  `json:"page"`
	Size        int  `json:"page_size"`
	Total       int  `json:"total"`
	Pages       int  `json:"pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Paginated is a page of items with its metadata
type Paginated[T any] struct {
	Data  []T  `json:"data"`
	Page  Page `json:"pagination"`
	Empty bool `json:"empty"`
}

// NewPaginated creates a paginated result with calculated fields
func NewPaginated[T any](data []T, page, size, total int) Paginated[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return Paginated[T]{
		Data: data,
		Page: Page{
			Number:      page,
			Size:        size,
			Total:       total,
			Pages:       pages,
			HasNext:     page < pages,
			HasPrevious: page > 1,
		},
		Empty: len(data) == 0,
	}
}

// PaginationOptions holds options for pagination queries
type PaginationOptions struct {
	Page     int
	PageSize int
}

// Normalize clamps the page to >= 1 and the size to [1, MaxPageSize]
func (o PaginationOptions) Normalize() PaginationOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

// Offset is the number of rows to skip
func (o PaginationOptions) Offset() int {
	n := o.Normalize()
	return (n.Page - 1) * n.PageSize
}
