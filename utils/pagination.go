package utils

import "strconv"

// PostsPerPage is the fixed listing page size.
const PostsPerPage = 10

// Page describes one window over an ordered result set of Count rows.
type Page struct {
	Number   int
	NumPages int
	PerPage  int
	Count    int64
}

// NewPage picks the page to show for a requested page number. A missing or
// non-numeric request yields the first page; a number outside 1..NumPages
// yields the last page. An empty result set still has one (empty) page.
func NewPage(count int64, requested string, perPage int) Page {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	if count < 0 {
		count = 0
	}

	numPages := int((count + int64(perPage) - 1) / int64(perPage))
	if numPages == 0 {
		numPages = 1
	}

	number, err := strconv.Atoi(requested)
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}

	return Page{
		Number:   number,
		NumPages: numPages,
		PerPage:  perPage,
		Count:    count,
	}
}

// Offset is the index of the first row on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit is the maximum number of rows on the page.
func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p Page) NextNumber() int {
	return p.Number + 1
}

func (p Page) PreviousNumber() int {
	return p.Number - 1
}

// Range lists every page number, for the paginator links.
func (p Page) Range() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// Window slices an in-memory ordered sequence down to the page's rows.
func Window[T any](items []T, p Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
