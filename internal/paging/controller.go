package paging

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/shared"
)

type config struct {
	pageSizes []int
	pageSize  int
	sort      SortDirection
	minSearch int
	logger    *log.Logger
}

// Option configures a [Controller].
type Option func(*config)

// WithPageSizes replaces the allowed page sizes.
func WithPageSizes(sizes ...int) Option {
	return func(c *config) {
		if len(sizes) > 0 {
			c.pageSizes = slices.Clone(sizes)
		}
	}
}

// WithPageSize sets the initial page size; it must be one of the allowed sizes.
func WithPageSize(n int) Option {
	return func(c *config) { c.pageSize = n }
}

// WithSort sets the initial sort direction.
func WithSort(d SortDirection) Option {
	return func(c *config) { c.sort = d }
}

// WithMinSearchLength sets how many runes an active term needs before the search endpoint is used.
func WithMinSearchLength(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.minSearch = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// View is an immutable copy of the controller state for rendering.
type View[T any] struct {
	Query      Query
	Typed      string // search input not yet committed
	Result     Result[T]
	State      State
	Err        error
	Searching  bool // the search endpoint is in effect
	Generation uint64
}

// HasPrev reports whether a previous page exists.
func (v View[T]) HasPrev() bool { return v.Query.Page > 0 }

// HasNext reports whether a following page exists.
func (v View[T]) HasNext() bool { return v.Query.Page+1 < v.Result.TotalPages }

// Controller drives a paginated, searchable, sortable view of a remote collection.
//
// Mutators update the query immediately and return a [Fetch] describing the request to make, or nil when
// nothing needs loading. Only the most recently prepared fetch may change the visible result; earlier
// ones are cancelled and their responses dropped.
type Controller[T any] struct {
	mu        sync.Mutex
	fetcher   Fetcher[T]
	logger    *log.Logger
	pageSizes []int
	minSearch int

	query  Query
	typed  string
	result Result[T]
	state  State
	err    error

	generation uint64
	cancel     context.CancelFunc
}

// New creates an idle [Controller] on page 0 with no search term.
func New[T any](fetcher Fetcher[T], opts ...Option) (*Controller[T], error) {
	cfg := config{
		pageSizes: DefaultPageSizes,
		pageSize:  DefaultPageSize,
		sort:      Asc,
		minSearch: DefaultMinSearchLength,
		logger:    shared.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !slices.Contains(cfg.pageSizes, cfg.pageSize) {
		return nil, &ValidationError{Field: "page size", Value: cfg.pageSize, Reason: "not an allowed size"}
	}
	if _, err := ParseSortDirection(string(cfg.sort)); err != nil {
		return nil, err
	}

	return &Controller[T]{
		fetcher:   fetcher,
		logger:    cfg.logger,
		pageSizes: cfg.pageSizes,
		minSearch: cfg.minSearch,
		query:     Query{PageSize: cfg.pageSize, Sort: cfg.sort},
	}, nil
}

// PageSizes returns the allowed page sizes.
func (c *Controller[T]) PageSizes() []int { return slices.Clone(c.pageSizes) }

// Load prepares and runs a fetch for the current query. Used for the first load of a view.
func (c *Controller[T]) Load(ctx context.Context) error {
	return c.Reload().Run(ctx)
}

// Reload refetches the current query. Any request still in flight is superseded.
func (c *Controller[T]) Reload() *Fetch[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prepareLocked()
}

// SetPage moves to page n. Pages outside [0, TotalPages) and the current page are ignored.
func (c *Controller[T]) SetPage(n int) *Fetch[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 0 || n >= c.result.TotalPages || n == c.query.Page {
		c.logger.Debug("page change ignored", "page", n, "total", c.result.TotalPages)
		return nil
	}
	c.query.Page = n
	return c.prepareLocked()
}

// NextPage is SetPage(page+1).
func (c *Controller[T]) NextPage() *Fetch[T] {
	c.mu.Lock()
	page := c.query.Page
	c.mu.Unlock()
	return c.SetPage(page + 1)
}

// PrevPage is SetPage(page-1).
func (c *Controller[T]) PrevPage() *Fetch[T] {
	c.mu.Lock()
	page := c.query.Page
	c.mu.Unlock()
	return c.SetPage(page - 1)
}

// SetPageSize changes the page size and returns to page 0.
func (c *Controller[T]) SetPageSize(n int) (*Fetch[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !slices.Contains(c.pageSizes, n) {
		return nil, &ValidationError{Field: "page size", Value: n, Reason: "not an allowed size"}
	}
	return c.changeLocked(func(q *Query) { q.PageSize = n }), nil
}

// CyclePageSize advances to the next allowed page size, wrapping around.
func (c *Controller[T]) CyclePageSize() *Fetch[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.Index(c.pageSizes, c.query.PageSize)
	next := c.pageSizes[(i+1)%len(c.pageSizes)]
	return c.changeLocked(func(q *Query) { q.PageSize = next })
}

// ToggleSortDirection flips between ascending and descending and returns to page 0.
func (c *Controller[T]) ToggleSortDirection() *Fetch[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changeLocked(func(q *Query) { q.Sort = q.Sort.Toggle() })
}

// SetSearchTerm records what the user typed without affecting the query.
func (c *Controller[T]) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typed = term
}

// CommitSearch makes the trimmed typed term active and returns to page 0.
// A blank term behaves exactly like [Controller.ResetSearch].
func (c *Controller[T]) CommitSearch() *Fetch[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	term := strings.TrimSpace(c.typed)
	if term == "" {
		return c.resetLocked()
	}
	return c.changeLocked(func(q *Query) { q.Search = term })
}

// ResetSearch clears both the typed and the active term and returns to page 0.
func (c *Controller[T]) ResetSearch() *Fetch[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked()
}

// UpdateItem applies fn to the first visible item matching match, without refetching.
// Reports whether an item was found.
func (c *Controller[T]) UpdateItem(match func(T) bool, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.result.Items, match)
	if i < 0 {
		return false
	}
	items := slices.Clone(c.result.Items)
	fn(&items[i])
	c.result.Items = items
	return true
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return View[T]{
		Query:      c.query,
		Typed:      c.typed,
		Result:     c.result.clone(),
		State:      c.state,
		Err:        c.err,
		Searching:  c.query.UsesSearch(c.minSearch),
		Generation: c.generation,
	}
}

// Close cancels any request in flight. Responses arriving later are discarded.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller[T]) resetLocked() *Fetch[T] {
	c.typed = ""
	return c.changeLocked(func(q *Query) { q.Search = "" })
}

// changeLocked applies a filter change that always returns to page 0.
// An unchanged query needs no fetch.
func (c *Controller[T]) changeLocked(mutate func(*Query)) *Fetch[T] {
	next := c.query
	mutate(&next)
	next.Page = 0
	if next == c.query {
		return nil
	}
	c.query = next
	return c.prepareLocked()
}

func (c *Controller[T]) prepareLocked() *Fetch[T] {
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = Loading
	return &Fetch[T]{
		c:         c,
		gen:       c.generation,
		query:     c.query,
		searching: c.query.UsesSearch(c.minSearch),
	}
}
