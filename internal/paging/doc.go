// Package paging drives a remote, paginated, searchable collection view.
//
// A [Controller] owns the [Query] (page, page size, sort direction, committed search term), the last
// [Result], and the load [State]. Every query change goes through a mutator that returns a prepared
// [Fetch]; running it calls the [Fetcher] and commits the response only if no newer fetch was prepared
// in the meantime. Older requests are cancelled through their context.
//
// Rules the controller enforces:
//   - changing the search term, page size or sort direction returns to page 0
//   - a committed term shorter than the minimum length is treated as no search
//   - a failed load keeps the previous result visible and is never retried automatically
//
// The typed search term is tracked separately from the committed one so input can change without
// triggering requests.
package paging
