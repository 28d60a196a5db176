package handler

import (
	"net/http/httptest"
	"testing"
)

func TestGetPageNum(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"page=1", 1},
		{"page=7", 7},
		{"page=0", 1},
		{"page=-3", 1},
		{"page=abc", 1},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/?"+tt.query, nil)
		if got := getPageNum(r); got != tt.want {
			t.Errorf("getPageNum(%q) = %d; want %d", tt.query, got, tt.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		totalItems int64
		want       int
	}{
		{"first page", 1, 25, 1},
		{"last page", 3, 25, 3},
		{"past the end", 99, 25, 3},
		{"exact boundary", 3, 30, 3},
		{"no items", 5, 0, 1},
		{"below range", 0, 25, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampPage(tt.page, tt.totalItems, 10); got != tt.want {
				t.Errorf("clampPage(%d, %d, 10) = %d; want %d", tt.page, tt.totalItems, got, tt.want)
			}
		})
	}
}

func TestBuildPagination(t *testing.T) {
	p := buildPagination(2, 45, 10, "/")
	if p.TotalPages != 5 {
		t.Errorf("TotalPages = %d; want 5", p.TotalPages)
	}
	if !p.HasPrev || !p.HasNext {
		t.Error("middle page should have prev and next")
	}
	if p.PrevURL != "/?page=1" {
		t.Errorf("PrevURL = %q; want /?page=1", p.PrevURL)
	}
	if p.NextURL != "/?page=3" {
		t.Errorf("NextURL = %q; want /?page=3", p.NextURL)
	}

	single := buildPagination(1, 4, 10, "/food")
	if single.TotalPages != 1 {
		t.Errorf("TotalPages = %d; want 1", single.TotalPages)
	}
	if single.HasPrev || single.HasNext {
		t.Error("single page should have neither prev nor next")
	}
}
