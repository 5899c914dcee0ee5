package query

// Sort is the closed set of result orderings a caller may ask for.
type Sort string

// Sort strategies.
const (
	// SortRelevance omits an explicit sort and keeps engine scoring order.
	SortRelevance Sort = "relevance"
	SortIDAsc     Sort = "id_asc"
	SortIDDesc    Sort = "id_desc"
	// SortRecent is the fallback for unknown or empty input.
	SortRecent    Sort = "recent"
	SortRating    Sort = "rating"
	SortViews     Sort = "views"
	SortComments  Sort = "comments"
	SortFavorites Sort = "favorites"
)

// IsValid checks if the sort is one of the supported values.
func (s Sort) IsValid() bool {
	switch s {
	case SortRelevance, SortIDAsc, SortIDDesc, SortRecent, SortRating, SortViews, SortComments, SortFavorites:
		return true
	}
	return false
}

// ParseSort maps caller input to a Sort; unknown or empty input becomes SortRecent.
func ParseSort(s string) Sort {
	if v := Sort(s); v.IsValid() {
		return v
	}
	return SortRecent
}
