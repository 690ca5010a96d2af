package tasks

import "fmt"

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
	FetchList Phase = iota
	ExportList
	FetchStats
	FetchHome
	FetchCatalog
	FetchCollection
	FetchWatchlist
)

func (p Phase) String() string {
	switch p {
	case FetchList:
		return "fetch_list"
	case ExportList:
		return "export_list"
	case FetchStats:
		return "fetch_stats"
	case FetchHome:
		return "fetch_home"
	case FetchCatalog:
		return "fetch_catalog"
	case FetchCollection:
		return "fetch_collection"
	case FetchWatchlist:
		return "fetch_watchlist"
	default:
		return ""
	}
}

func fetchingListsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchList,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Fetching %d lists...", total),
	}
}

func fetchedListUpdate(step, total int, name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetched %s (%d movies)", step, total, name, count),
	}
}

func droppedRecordsUpdate(step, total int, name string, dropped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: skipped %d records without an identifier", step, total, name, dropped),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func operationUpdate(op endpointOperation, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   op.phase,
		Step:    step,
		Total:   total,
		Message: op.message,
	}
}
