// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [ListView] : Browse the collection page by page, search, sort, toggle seen and delete
//  2. [LookupView] : Look a film up in the external database and add it
//  3. [RandomView] : Draw a random unseen film and mark it seen
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// The list view is backed by a [paging.Controller], so changing page, size, sort or search while a request is in
// flight supersedes it and only the latest response reaches the screen.
//
// Every mounted view owns a [notify.Center]. When the view changes the old center is closed and its live toasts are
// adopted by the new one, so a toast keeps whatever time it had left. Toast changes reach the event loop through
// [notify.Center.Changes].
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
