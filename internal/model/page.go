package model

import "strings"

// CategoryAll disables the category filter.
const CategoryAll = "Todos"

// Categories offered by the catalog navigation.
var Categories = []string{CategoryAll, "Ficción", "No Ficción", "Ciencia", "Historia", "Biografías", "Romance", "Misterio"}

// Filter is applied locally over the books of the loaded page.
type Filter struct {
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Search   string `json:"search,omitempty" yaml:"search,omitempty"`
}

func (f Filter) IsZero() bool {
	return f.category() == "" && strings.TrimSpace(f.Search) == ""
}

func (f Filter) category() string {
	c := strings.TrimSpace(f.Category)
	if strings.EqualFold(c, CategoryAll) {
		return ""
	}
	return c
}

// Match reports whether b passes the filter. Category compares the genre,
// search looks into title, author, genre and description.
func (f Filter) Match(b *Book) bool {
	if c := f.category(); c != "" && !strings.EqualFold(b.Genre, c) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	for _, field := range []string{b.Title, b.Author, b.Genre, b.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (f Filter) String() string {
	var parts []string
	if c := f.category(); c != "" {
		parts = append(parts, "category="+c)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		parts = append(parts, "search="+s)
	}
	if len(parts) == 0 {
		return CategoryAll
	}
	return strings.Join(parts, " ")
}

// PageView describes what is displayed for the current page.
type PageView struct {
	BookIDs      []string `json:"book_ids" yaml:"book_ids"`
	PageNumber   int      `json:"page" yaml:"page"`
	PageSize     int      `json:"page_size" yaml:"page_size"`
	TotalCount   int      `json:"total" yaml:"total"`
	TotalPages   int      `json:"pages" yaml:"pages"`
	ActiveFilter Filter   `json:"filter" yaml:"filter"`
}

func (v PageView) HasNext() bool {
	return v.PageNumber < v.TotalPages
}

func (v PageView) HasPrev() bool {
	return v.PageNumber > 1
}

// Stats summarises the loaded page.
type Stats struct {
	Total         int     `json:"total" yaml:"total"`
	Displayed     int     `json:"displayed" yaml:"displayed"`
	Available     int     `json:"available" yaml:"available"`
	AverageRating float64 `json:"average_rating" yaml:"average_rating"`
}
