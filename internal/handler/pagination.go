package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Pagination holds pagination data for templates.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	HasPrev     bool
	HasNext     bool
	PrevURL     string
	NextURL     string
	Pages       []PaginationPage
}

// PaginationPage represents a single page link in pagination.
type PaginationPage struct {
	Number    int
	URL       string
	IsCurrent bool
}

// getPageNum extracts the page number from request query params.
// Missing, malformed or non-positive values resolve to page 1.
func getPageNum(r *http.Request) int {
	pageStr := r.URL.Query().Get("page")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// clampPage bounds a requested page number to the valid range for the
// given total. A request past the end lands on the last page rather
// than an empty one.
func clampPage(page int, totalItems int64, perPage int) int {
	totalPages := int((totalItems + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// buildPagination creates pagination data for templates.
func buildPagination(currentPage int, totalItems int64, perPage int, baseURL string) Pagination {
	totalPages := int((totalItems + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}

	pagination := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		PerPage:     perPage,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
	}

	buildURL := func(page int) string {
		if strings.Contains(baseURL, "?") {
			return fmt.Sprintf("%s&page=%d", baseURL, page)
		}
		return fmt.Sprintf("%s?page=%d", baseURL, page)
	}

	if pagination.HasPrev {
		pagination.PrevURL = buildURL(currentPage - 1)
	}
	if pagination.HasNext {
		pagination.NextURL = buildURL(currentPage + 1)
	}

	// Show at most 5 page links around the current page
	start := currentPage - 2
	end := currentPage + 2
	if start < 1 {
		start = 1
		end = 5
	}
	if end > totalPages {
		end = totalPages
		start = end - 4
		if start < 1 {
			start = 1
		}
	}

	for i := start; i <= end; i++ {
		pagination.Pages = append(pagination.Pages, PaginationPage{
			Number:    i,
			URL:       buildURL(i),
			IsCurrent: i == currentPage,
		})
	}

	return pagination
}
