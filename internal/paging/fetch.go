package paging

import "context"

// Fetch is one prepared request for a [Controller]. A nil *Fetch is valid and runs as a no-op.
type Fetch[T any] struct {
	c         *Controller[T]
	gen       uint64
	query     Query
	searching bool
}

// Query returns the parameters this fetch was prepared with.
func (f *Fetch[T]) Query() Query {
	if f == nil {
		return Query{}
	}
	return f.query
}

// Searching reports whether this fetch goes to the search endpoint.
func (f *Fetch[T]) Searching() bool {
	return f != nil && f.searching
}

// Current reports whether no newer fetch has been prepared since this one.
func (f *Fetch[T]) Current() bool {
	if f == nil {
		return false
	}
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return f.gen == f.c.generation
}

// Run performs the request and commits the response if this fetch is still current.
//
// A superseded response, successful or not, is dropped and Run returns nil. When the current request fails
// the previous result is kept, the state becomes [Failed], and a *[FetchError] is returned.
func (f *Fetch[T]) Run(ctx context.Context) error {
	if f == nil {
		return nil
	}
	c := f.c

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if f.gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("fetch superseded before start", "generation", f.gen)
		return nil
	}
	c.cancel = cancel
	c.mu.Unlock()

	var (
		res Result[T]
		err error
	)
	q := f.query
	if f.searching {
		res, err = c.fetcher.FetchSearch(ctx, q.Search, q.Page, q.PageSize, q.Sort)
	} else {
		res, err = c.fetcher.FetchPage(ctx, q.Page, q.PageSize, q.Sort)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if f.gen != c.generation {
		c.logger.Debug("stale response discarded", "generation", f.gen, "current", c.generation, "error", err)
		return nil
	}
	c.cancel = nil

	if err != nil {
		fe := newFetchError(err)
		c.state = Failed
		c.err = fe
		c.logger.Warn("collection load failed", "page", q.Page, "size", q.PageSize, "search", q.Search, "status", fe.Status, "error", fe.Message)
		return fe
	}

	c.result = res.clone()
	c.state = Success
	c.err = nil
	c.logger.Debug("collection loaded", "page", q.Page, "items", len(res.Items), "total", res.TotalElements)
	return nil
}
