package repositories

import (
	"context"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
)

// HistoryRecorder accepts one record per capability invocation,
// fire-and-forget: Record must never block the calling wrapper and its
// outcome is not reported back.
type HistoryRecorder interface {
	Record(ctx context.Context, entry entities.HistoryEntry)
}
