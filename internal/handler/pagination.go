package handler

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type PaginationParams struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request) PaginationParams {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	if offset < 0 {
		offset = 0
	}

	return PaginationParams{
		Limit:  limit,
		Offset: offset,
	}
}

// Tail returns the page of items counted back from the newest end, keeping
// chronological order within the page.
func Tail[T any](items []T, p PaginationParams) []T {
	end := len(items) - p.Offset
	if end <= 0 {
		return []T{}
	}
	start := end - p.Limit
	if start < 0 {
		start = 0
	}
	return items[start:end]
}
