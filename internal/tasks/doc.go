// Package tasks runs long collection operations with real-time progress reporting.
//
// # Export
//
// [Exporter.Run] walks the whole collection, or every page of one search, through the same
// [paging.Fetcher] the list view uses:
//   - fetches the first page alone to learn the page count
//   - fetches the remaining pages with a bounded worker pool sharing one rate limiter
//   - reassembles pages in order and writes them with the formatter package
//
// # Progress Reporting
//
// Operations take an optional progress channel. The [ProgressUpdate] struct contains phase, step counters,
// messages, and optional data for advanced UI rendering. Updates use select with default so a slow
// reader never stalls the export.
package tasks
