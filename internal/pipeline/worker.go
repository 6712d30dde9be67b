package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/reanchor/internal/docstore"
	"github.com/dgallion1/reanchor/internal/resolve"
	"github.com/dgallion1/reanchor/internal/textpos"
	"golang.org/x/net/html"
)

// Worker resolves the locations of a single batch job.
type Worker struct {
	docs     *docstore.Store
	resolver *resolve.Resolver
	stats    *resolve.Stats
	log      *slog.Logger
}

func NewWorker(docs *docstore.Store, resolver *resolve.Resolver, stats *resolve.Stats, log *slog.Logger) *Worker {
	return &Worker{
		docs:     docs,
		resolver: resolver,
		stats:    stats,
		log:      log,
	}
}

// Process anchors every location in the job against its document.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	doc := w.docs.Get(job.DocID)
	if doc == nil {
		log.Error("document not found")
		job.SetStatus(StatusFailed)
		return
	}
	root := doc.Parsed.Root

	job.SetStatus(StatusResolving)
	for _, loc := range job.Locations() {
		if ctx.Err() != nil {
			log.Warn("job interrupted", "error", ctx.Err())
			job.SetStatus(StatusPartial)
			return
		}

		started := time.Now()
		anchor, err := w.resolver.Resolve(root, loc)
		elapsed := time.Since(started)

		res := AnchorResult{LocationID: loc.ID}
		if err != nil {
			w.stats.Record(elapsed, "", false)
			res.Error = err.Error()
			job.AddResult(res)
			continue
		}
		w.stats.Record(elapsed, anchor.Method, true)

		start, end, err := spanOffsets(root, anchor.Span)
		if err != nil {
			res.Error = err.Error()
			job.AddResult(res)
			continue
		}
		res.Method = string(anchor.Method)
		res.Start = start
		res.End = end
		res.Text = anchor.Text()
		job.AddResult(res)
	}

	snap := job.Snapshot()
	switch {
	case snap.Progress.Failed == 0:
		job.SetStatus(StatusCompleted)
	case snap.Progress.Resolved == 0:
		job.SetStatus(StatusFailed)
	default:
		job.SetStatus(StatusPartial)
	}
	log.Info("batch anchored",
		"total", snap.Progress.Total,
		"resolved", snap.Progress.Resolved,
		"failed", snap.Progress.Failed,
	)
}

// spanOffsets flattens a resolved span back to stream offsets for callers
// that address documents by offset.
func spanOffsets(root *html.Node, span textpos.Span) (int, int, error) {
	start, err := textpos.PositionToOffset(root, span.Start.Node, span.Start.Local)
	if err != nil {
		return 0, 0, err
	}
	end, err := textpos.PositionToOffset(root, span.End.Node, span.End.Local)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
