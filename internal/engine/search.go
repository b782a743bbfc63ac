package engine

// SortOrder is the direction of a search ordering.
type SortOrder string

const (
	SortAscending  SortOrder = "ascending"
	SortDescending SortOrder = "descending"
)

const (
	DefaultItemsPerPage = 25
	MaxItemsPerPage     = 100
	DefaultOrderBy      = "CreatedAt"
)

/* SearchFilters holds the pagination and ordering shared by every search */
type SearchFilters struct {
	ItemsPerPage int
	PageIndex    int
	OrderBy      string
	Order        SortOrder
}

/* DefaultSearchFilters returns the filters used when no query params are given */
func DefaultSearchFilters() SearchFilters {
	return SearchFilters{
		ItemsPerPage: DefaultItemsPerPage,
		PageIndex:    0,
		OrderBy:      DefaultOrderBy,
		Order:        SortDescending,
	}
}

// Offset is the number of rows skipped before the current page.
func (f SearchFilters) Offset() int {
	return f.ItemsPerPage * f.PageIndex
}

/* SearchResults is one page of a search */
type SearchResults[T any] struct {
	Records      []T `json:"Records"`
	TotalRecords int `json:"TotalRecords"`
	ItemsPerPage int `json:"ItemsPerPage"`
	PageIndex    int `json:"PageIndex"`
	TotalPages   int `json:"TotalPages"`
}

/* NewSearchResults builds a page, computing TotalPages from the filters */
func NewSearchResults[T any](records []T, total int, f SearchFilters) SearchResults[T] {
	if records == nil {
		records = []T{}
	}
	pages := 0
	if f.ItemsPerPage > 0 {
		pages = (total + f.ItemsPerPage - 1) / f.ItemsPerPage
	}
	return SearchResults[T]{
		Records:      records,
		TotalRecords: total,
		ItemsPerPage: f.ItemsPerPage,
		PageIndex:    f.PageIndex,
		TotalPages:   pages,
	}
}
