package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/docsum/internal/document"
)

func TestNewJob(t *testing.T) {
	job := NewJob(Batch{ID: "batch-1", Documents: []document.Document{
		{Index: 1, Name: "a.pdf"},
		{Index: 2, Name: "b.pdf"},
	}})
	snap := job.Snapshot()
	if snap.ID != "batch-1" || snap.Status != StatusQueued || snap.Phase != "queued" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if len(snap.Files) != 2 || snap.Files[1] != "b.pdf" {
		t.Errorf("unexpected files %v", snap.Files)
	}
	if snap.Progress.DocumentsTotal != 2 {
		t.Errorf("expected 2 documents, got %d", snap.Progress.DocumentsTotal)
	}
	if snap.Result != nil {
		t.Error("expected no result on a queued job")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusMerging, "merging"},
		{StatusExtracting, "extracting"},
		{StatusReporting, "reporting"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("merge failed")
	job.AddError("report failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "merge failed" {
		t.Errorf("expected first error %q, got %q", "merge failed", snap.Progress.Errors[0])
	}
}

func TestJob_Complete(t *testing.T) {
	job := NewJob(Batch{ID: "done-1"})
	job.Complete(Outcome{
		BatchID:        "done-1",
		FilesProcessed: 2,
		Report:         "# ok",
		Combined: CombinedText{
			Text: "héllo",
			Blocks: []Block{
				{Sources: []Source{{Index: 1, Name: "a.pdf"}}, Strategy: "layout"},
				{Sources: []Source{{Index: 2, Name: "b.pdf"}}, Strategy: "ocr"},
			},
		},
	})

	snap := job.Snapshot()
	if snap.Status != StatusCompleted || snap.Phase != "done" {
		t.Errorf("unexpected status %s/%s", snap.Status, snap.Phase)
	}
	if snap.Progress.TextsCombined != 2 || snap.Progress.TotalCharacters != 5 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if snap.Result == nil || snap.Result.Report != "# ok" || snap.Result.StrategyPerDocument["b.pdf"] != "ocr" {
		t.Errorf("unexpected result %+v", snap.Result)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}
