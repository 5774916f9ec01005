package paging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// SortDirection orders a collection by its title.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == Desc {
		return Asc
	}
	return Desc
}

// ParseSortDirection accepts "asc" or "desc" in any case; empty means [Asc].
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return Asc, &ValidationError{Field: "sort", Value: s, Reason: `must be "asc" or "desc"`}
}

const (
	DefaultPageSize        = 10
	DefaultMinSearchLength = 2
)

// DefaultPageSizes are the page sizes a view may choose from.
var DefaultPageSizes = []int{5, 10, 20, 50}

// Query is the full set of parameters for one page request.
type Query struct {
	Page     int           `json:"page"`
	PageSize int           `json:"size"`
	Sort     SortDirection `json:"sortDir"`
	Search   string        `json:"search,omitempty"` // committed term
}

// UsesSearch reports whether the search endpoint applies for a minimum term length.
func (q Query) UsesSearch(minLength int) bool {
	return q.Search != "" && utf8.RuneCountInString(q.Search) >= minLength
}

// Result is one page of items as returned by the backend.
type Result[T any] struct {
	Items         []T `json:"items"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
}

func (r Result[T]) clone() Result[T] {
	r.Items = slices.Clone(r.Items)
	return r
}

// Fetcher loads pages from a remote collection. Both calls are idempotent reads.
//
// Errors that carry an HTTP status should implement StatusCode() int.
type Fetcher[T any] interface {
	FetchPage(ctx context.Context, page, size int, sort SortDirection) (Result[T], error)
	FetchSearch(ctx context.Context, term string, page, size int, sort SortDirection) (Result[T], error)
}

// State is the load lifecycle of a [Controller].
type State int

const (
	Idle State = iota
	Loading
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ValidationError rejects a query change before any request is made.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// FetchError is returned when the most recent request failed. The previous result stays visible.
type FetchError struct {
	Status  int // HTTP status, 0 when the request never got a response
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("load failed (status %d): %s", e.Status, e.Message)
	}
	return "load failed: " + e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

type statusCoder interface {
	StatusCode() int
}

func newFetchError(err error) *FetchError {
	fe := &FetchError{Message: err.Error(), Err: err}
	var sc statusCoder
	if errors.As(err, &sc) {
		fe.Status = sc.StatusCode()
	}
	return fe
}
