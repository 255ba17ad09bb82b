package bien

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

var (
	// ErrInvalidQuery is returned when a filter value cannot be parsed.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrStorageUnavailable is returned when the listing store cannot be read.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// SortDirection orders results by price.
type SortDirection string

const (
	SortNone       SortDirection = ""
	SortAscending  SortDirection = "croissant"
	SortDescending SortDirection = "decroissant"
)

// Store is the read capability the query engine needs. FetchAll must
// return listings in creation order from a single consistent snapshot.
type Store interface {
	FetchAll(ctx context.Context) ([]*Bien, error)
}

// Query holds the paging, sorting and filtering options of a listing search.
// Nil or empty filters impose no constraint.
type Query struct {
	Page      int
	PageSize  int
	Sort      SortDirection
	Ref       string
	Status    string
	Type      string
	MaxBudget *float64
	Location  string
	MinArea   *float64
}

// Page is one window of query results.
type Page struct {
	Items   []*Bien `json:"biens"`
	HasMore bool    `json:"hasMore"`
}

// Normalize folds s for case-insensitive comparison. Stored values and
// filter values must both go through it.
func Normalize(s string) string {
	// A Caser carries state and must not be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(s))
}

// ParseQuery builds a Query from HTTP query parameters.
//
// Missing, non-numeric or non-positive page and pageSize values fall back
// to DefaultPage and DefaultPageSize. Any positive pageSize is honored.
// A budgets or superficie value that is not a non-negative number fails
// with ErrInvalidQuery.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Page:     positiveOr(v.Get("page"), DefaultPage),
		PageSize: positiveOr(v.Get("pageSize"), DefaultPageSize),
		Sort:     SortDirection(v.Get("triPar")),
		Ref:      strings.TrimSpace(v.Get("bienId")),
		Status:   strings.TrimSpace(v.Get("status")),
		Type:     v.Get("typeBien"),
		Location: v.Get("localisation"),
	}

	var err error
	if q.MaxBudget, err = parseAmount(v, "budgets"); err != nil {
		return Query{}, err
	}
	if q.MinArea, err = parseAmount(v, "superficie"); err != nil {
		return Query{}, err
	}

	return q, nil
}

func positiveOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parseAmount(v url.Values, key string) (*float64, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidQuery, key, s)
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidQuery, key)
	}
	return &f, nil
}

// normalized returns a copy of q with defaults applied and string filters folded.
func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	switch q.Sort {
	case SortAscending, SortDescending:
	default:
		q.Sort = SortNone
	}
	q.Type = Normalize(q.Type)
	q.Location = Normalize(q.Location)
	return q
}

// matches reports whether b satisfies every filter of q. q must already
// be normalized.
func (q Query) matches(b *Bien) bool {
	if q.Ref != "" && b.Ref != q.Ref {
		return false
	}
	if q.Status != "" && string(b.Status) != q.Status {
		return false
	}
	if q.Type != "" && Normalize(b.TypeBien) != q.Type {
		return false
	}
	if q.Location != "" && !strings.Contains(Normalize(b.Localisation), q.Location) {
		return false
	}
	if q.MaxBudget != nil && b.Prix > *q.MaxBudget {
		return false
	}
	if q.MinArea != nil && b.Superficie < *q.MinArea {
		return false
	}
	return true
}

// Search runs q against the store and returns the requested page.
func Search(ctx context.Context, store Store, q Query) (*Page, error) {
	q = q.normalized()

	all, err := store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	var matched []*Bien
	for _, b := range all {
		if q.matches(b) {
			matched = append(matched, b)
		}
	}

	switch q.Sort {
	case SortAscending:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Prix < matched[j].Prix })
	case SortDescending:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Prix > matched[j].Prix })
	}

	page := &Page{Items: []*Bien{}}

	// Compared in page units: past this check (page-1)*pageSize < len(matched).
	if len(matched) == 0 || q.Page-1 > (len(matched)-1)/q.PageSize {
		return page, nil
	}

	start := (q.Page - 1) * q.PageSize
	end := len(matched)
	if q.PageSize < end-start {
		end = start + q.PageSize
	}
	page.Items = matched[start:end]
	page.HasMore = end < len(matched)

	return page, nil
}
