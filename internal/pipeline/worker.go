package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/store"
)

// ResultStore persists outlines by content hash. *store.Store satisfies it.
type ResultStore interface {
	Get(ctx context.Context, hash string) (*store.Record, error)
	Put(ctx context.Context, rec store.Record) error
}

// Worker processes a single document job.
type Worker struct {
	builder *outline.Builder
	store   ResultStore
	opts    parser.Options
	stats   *LatencyStats
	log     *slog.Logger
}

// NewWorker returns a worker. rs and stats may be nil.
func NewWorker(builder *outline.Builder, rs ResultStore, opts parser.Options, stats *LatencyStats, log *slog.Logger) *Worker {
	return &Worker{
		builder: builder,
		store:   rs,
		opts:    opts,
		stats:   stats,
		log:     log,
	}
}

// Process runs parse, outline and store for a job. The job ends in
// StatusCompleted, StatusCached or StatusFailed.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)
	start := time.Now()
	defer func() {
		job.SetFileData(nil)
		d := time.Since(start)
		job.SetDuration(d)
		if w.stats != nil {
			w.stats.Record(d)
		}
	}()

	// Phase 0: Dedup against stored results.
	if w.store != nil {
		rec, err := w.store.Get(ctx, job.DocID)
		switch {
		case err == nil:
			log.Info("outline served from store")
			job.SetResult(rec.Result)
			job.SetStatus(StatusCached, "dedup")
			return
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("store lookup failed, proceeding", "error", err)
		}
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.opts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Outline
	job.SetStatus(StatusOutlining, "outlining")
	res, st := w.builder.BuildWithStats(doc)
	job.SetStats(st)
	job.SetResult(res)
	log.Info("outline built",
		"pages", st.Pages,
		"levels", st.Levels,
		"candidates", st.Candidates,
		"entries", len(res.Outline),
		"dropped", st.Dropped)

	// Phase 3: Store
	if w.store != nil {
		job.SetStatus(StatusStoring, "storing")
		err := w.store.Put(ctx, store.Record{
			ContentHash: job.DocID,
			Filename:    job.Filename,
			Result:      res,
		})
		if err != nil {
			log.Error("store write failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
		}
	}

	job.SetStatus(StatusCompleted, "done")
}
