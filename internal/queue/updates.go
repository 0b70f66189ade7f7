package queue

import "fmt"

// ProgressUpdate represents a progress event while the worker processes an
// item.
//
// Used to send real-time updates to the CLI or TUI layer for display.
type ProgressUpdate struct {
	ItemID  string // Queue item the event belongs to
	Stage   Stage  // Worker stage
	Step    int    // Position within the batch, 0 when the item stands alone
	Total   int    // Batch size, 0 when the item stands alone
	Message string // Human-readable message for display
	Item    *Item  // Snapshot of the item for advanced UIs
}

// Worker stage enumeration
type Stage int

const (
	StageClaimed Stage = iota
	StageResolving
	StageExpanding
	StageConfirming
	StageDownloading
	StageCompleted
	StageSkipped
	StageExhausted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageClaimed:
		return "claimed"
	case StageResolving:
		return "resolving"
	case StageExpanding:
		return "expanding"
	case StageConfirming:
		return "confirming"
	case StageDownloading:
		return "downloading"
	case StageCompleted:
		return "completed"
	case StageSkipped:
		return "skipped"
	case StageExhausted:
		return "exhausted"
	case StageFailed:
		return "failed"
	default:
		return ""
	}
}

// newUpdate snapshots the item so listeners never observe later mutations.
func newUpdate(item *Item, stage Stage, message string) ProgressUpdate {
	snapshot := *item
	return ProgressUpdate{
		ItemID:  item.ID,
		Stage:   stage,
		Step:    item.TrackIndex,
		Total:   item.TotalTracks,
		Message: message,
		Item:    &snapshot,
	}
}

// batchLabel prefixes batch members with their position.
func batchLabel(item *Item) string {
	if item.TotalTracks > 1 {
		return fmt.Sprintf("[%d/%d] ", item.TrackIndex, item.TotalTracks)
	}
	return ""
}

func claimedUpdate(item *Item) ProgressUpdate {
	return newUpdate(item, StageClaimed, fmt.Sprintf("%sProcessing: %s", batchLabel(item), item.Display()))
}

func resolvingUpdate(item *Item) ProgressUpdate {
	return newUpdate(item, StageResolving, fmt.Sprintf("%sResolving: %s", batchLabel(item), item.Display()))
}

func expandedUpdate(item *Item, tracks int) ProgressUpdate {
	return newUpdate(item, StageExpanding, fmt.Sprintf("Expanded into %d tracks", tracks))
}

func confirmingUpdate(item *Item) ProgressUpdate {
	return newUpdate(item, StageConfirming, fmt.Sprintf("%sConfirming: %s", batchLabel(item), item.Display()))
}

func downloadingUpdate(item *Item) ProgressUpdate {
	return newUpdate(item, StageDownloading, fmt.Sprintf("%sDownloading: %s", batchLabel(item), item.Display()))
}

func completedUpdate(item *Item) ProgressUpdate {
	return newUpdate(item, StageCompleted, fmt.Sprintf("%s✓ %s", batchLabel(item), item.Display()))
}

func skippedUpdate(item *Item) ProgressUpdate {
	return newUpdate(item, StageSkipped, fmt.Sprintf("%sAlready in library: %s", batchLabel(item), item.Display()))
}

func exhaustedUpdate(item *Item) ProgressUpdate {
	return newUpdate(item, StageExhausted, fmt.Sprintf("%sNo confident match: %s", batchLabel(item), item.Display()))
}

func failedUpdate(item *Item, err error) ProgressUpdate {
	return newUpdate(item, StageFailed, fmt.Sprintf("%s✗ %s: %v", batchLabel(item), item.Display(), err))
}
