package job

import (
	"context"

	"github.com/reolin/wsnotes/internal/service"
)

const backfillBatchSize = 50

// EmbeddingBackfillJob retries notes whose create-time embedding degraded
// to an empty vector.
type EmbeddingBackfillJob struct {
	notes *service.NoteService
}

func NewEmbeddingBackfillJob(notes *service.NoteService) *EmbeddingBackfillJob {
	return &EmbeddingBackfillJob{notes: notes}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	if j.notes == nil {
		return nil
	}
	return j.notes.ProcessMissingEmbeddings(ctx, backfillBatchSize)
}
