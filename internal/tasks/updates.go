package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchFirstPage Phase = iota
	FetchPages
	WriteExport
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchFirstPage:
		return "fetch_first_page"
	case FetchPages:
		return "fetch_pages"
	case WriteExport:
		return "write_export"
	case Done:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func firstPageUpdate(search string) ProgressUpdate {
	msg := "Fetching first page..."
	if search != "" {
		msg = fmt.Sprintf("Searching for %q...", search)
	}
	return ProgressUpdate{Phase: FetchFirstPage, Step: 1, Total: 1, Message: msg}
}

func pageFetchedUpdate(step, total, items int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] page fetched (%d films)", step, total, items),
	}
}

func writingUpdate(dest string) ProgressUpdate {
	return ProgressUpdate{Phase: WriteExport, Step: 1, Total: 1, Message: fmt.Sprintf("Writing %s...", dest)}
}

func doneUpdate(res *ExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exported %d films from %d pages", len(res.Export.Films), res.Pages),
		Data:    res,
	}
}
