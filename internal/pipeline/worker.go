package pipeline

import (
	"context"
	"log/slog"
)

// Worker processes queued batch jobs.
type Worker struct {
	service *Service
	log     *slog.Logger
}

func NewWorker(service *Service, log *slog.Logger) *Worker {
	return &Worker{service: service, log: log}
}

// Process runs one job and records its outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("batch_id", job.ID)
	batch := job.Batch()
	log.Info("batch started", "documents", len(batch.Documents))

	out, err := w.service.Run(ctx, batch, func(s JobStatus) {
		job.SetStatus(s, string(s))
	})
	if err != nil {
		log.Error("batch failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, phaseOf(job))
		return
	}
	job.Complete(out)
	log.Info("batch completed", "texts_combined", len(out.Combined.Sources()))
}

func phaseOf(job *Job) string {
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.Phase
}
