package quiz

// Ellipsis marks a gap between page numbers in a condensed pagination row.
const Ellipsis = -1

// PageItems returns the 1-based page markers to render for total questions
// with the zero-based current index: the full range when it fits, otherwise
// the first page, an optional left ellipsis, a window of two pages around the
// current one, an optional right ellipsis, and the last page.
func PageItems(total, currentIndex int) []int {
	currentPage := currentIndex + 1
	if total <= 9 {
		pages := make([]int, 0, total)
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
		return pages
	}

	pages := []int{1}
	if currentPage > 4 {
		pages = append(pages, Ellipsis)
	}

	start := currentPage - 2
	if start < 2 {
		start = 2
	}
	end := currentPage + 2
	if end > total-1 {
		end = total - 1
	}
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}

	if currentPage < total-3 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, total)
}
