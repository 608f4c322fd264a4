package models

// Page is the pagination envelope returned by list and search.
// TotalCount is -1 when the total is unknown (fuzzy search has no cheap
// count query).
type Page[T any] struct {
	Data       []T  `json:"data"`
	Count      int  `json:"count"`
	TotalCount int  `json:"totalCount"`
	PageSize   int  `json:"pageSize"`
	Page       int  `json:"page"`
	HasNext    bool `json:"hasNext"`
}

// EmptyPage returns an empty envelope with no next page.
func EmptyPage[T any]() Page[T] {
	return Page[T]{Data: []T{}}
}
