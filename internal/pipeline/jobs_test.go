package pipeline

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/reanchor/internal/selector"
)

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("test-1", "doc-1", make([]selector.Location, 3))
	if job.Status != StatusQueued {
		t.Fatalf("expected initial status %q, got %q", StatusQueued, job.Status)
	}
	if job.Progress.Total != 3 {
		t.Errorf("expected total 3, got %d", job.Progress.Total)
	}

	for _, status := range []JobStatus{StatusResolving, StatusCompleted} {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(status)

		if job.Status != status {
			t.Errorf("expected status %q, got %q", status, job.Status)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", status)
		}
	}
}

func TestJob_AddResultCounters(t *testing.T) {
	job := NewJob("counters", "doc-1", make([]selector.Location, 3))
	job.AddResult(AnchorResult{LocationID: "a", Method: "range", Start: 0, End: 5})
	job.AddResult(AnchorResult{LocationID: "b", Error: "no anchor found"})
	job.AddResult(AnchorResult{LocationID: "c", Method: "text-quote", Start: 10, End: 20})

	snap := job.Snapshot()
	if snap.Progress.Resolved != 2 {
		t.Errorf("expected 2 resolved, got %d", snap.Progress.Resolved)
	}
	if snap.Progress.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", snap.Progress.Failed)
	}
	if len(snap.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(snap.Results))
	}
	if snap.Results[1].Error == "" {
		t.Error("expected second result to carry an error")
	}
}

func TestJob_SnapshotSerializesDetachedState(t *testing.T) {
	job := NewJob("snap-json", "doc-1", make([]selector.Location, 1))
	job.SetStatus(StatusResolving)
	job.AddResult(AnchorResult{LocationID: "a", Method: "range", Start: 2, End: 7})

	data, err := json.Marshal(job.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	for _, key := range []string{`"job_id":"snap-json"`, `"doc_id":"doc-1"`, `"status":"resolving"`, `"location_id":"a"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in snapshot JSON, got %s", key, data)
		}
	}
}

func TestJob_SnapshotIsolation(t *testing.T) {
	job := NewJob("snap", "doc-1", make([]selector.Location, 2))
	job.AddResult(AnchorResult{LocationID: "a"})

	snap := job.Snapshot()
	job.AddResult(AnchorResult{LocationID: "b"})

	if len(snap.Results) != 1 {
		t.Errorf("expected snapshot to keep 1 result, got %d", len(snap.Results))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("job-1", "doc-1", nil)
	store.Put(job)

	if got := store.Get("job-1"); got != job {
		t.Error("expected to retrieve the stored job")
	}
	if got := store.Get("missing"); got != nil {
		t.Error("expected nil for unknown job ID")
	}
}

func TestJobStore_CleanupEvictsStale(t *testing.T) {
	store := NewJobStore(10 * time.Millisecond)
	stale := NewJob("stale", "doc-1", nil)
	store.Put(stale)

	time.Sleep(20 * time.Millisecond)
	fresh := NewJob("fresh", "doc-1", nil)
	store.Put(fresh)

	store.Cleanup()
	if store.Get("stale") != nil {
		t.Error("expected stale job to be evicted")
	}
	if store.Get("fresh") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}
