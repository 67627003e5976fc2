// Package cleanup implements the bulk cleanup operator: retroactive removal
// of stored detections whose regional tier violates a strictness threshold.
// Unlike the detection gate this path is fail-closed: it deletes data, so the
// first error aborts the run and surfaces to the operator.
package cleanup

import (
	"context"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/birdstation/ebird-engine/internal/datastore"
	"github.com/birdstation/ebird-engine/internal/diskmanager"
	"github.com/birdstation/ebird-engine/internal/errors"
	"github.com/birdstation/ebird-engine/internal/hexgrid"
	"github.com/birdstation/ebird-engine/internal/logging"
	"github.com/birdstation/ebird-engine/internal/observability/metrics"
	"github.com/birdstation/ebird-engine/internal/regionpack"
)

var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "cleanup.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "cleanup", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize cleanup file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "cleanup")
		closeLogger = func() error { return nil }
	}
}

const defaultBatchSize = 500

// Params configures one cleanup run. Preview and Execute take the same
// parameters so a preview can be trusted as a dry run of the execute.
type Params struct {
	Strictness  regionpack.Tier
	RegionPack  string
	Resolution  int
	Limit       int // 0 means no limit
	DeleteAudio bool
	BatchSize   int // page size for store iteration, 0 uses the default
}

func (p *Params) batchSize() int {
	if p.BatchSize <= 0 {
		return defaultBatchSize
	}
	return p.BatchSize
}

// Stats summarizes one cleanup run. On error the counts reflect the work
// completed before the abort.
type Stats struct {
	Evaluated         int
	Removed           int
	AudioFilesDeleted int
	SpeciesAffected   []string
	RunID             string
}

// Operator runs cleanup previews and executions against the detection store.
type Operator struct {
	packs   *regionpack.Store
	db      datastore.Interface
	clips   diskmanager.ClipStore
	metrics *metrics.CleanupMetrics
}

// New creates an Operator. The metrics collector may be nil.
func New(packs *regionpack.Store, db datastore.Interface, clips diskmanager.ClipStore, m *metrics.CleanupMetrics) *Operator {
	return &Operator{packs: packs, db: db, clips: clips, metrics: m}
}

// Preview reports what Execute would remove under the same parameters
// without touching the store. Against an unchanged store, Preview and
// Execute report identical Removed counts.
func (o *Operator) Preview(ctx context.Context, params Params) (Stats, error) {
	return o.run(ctx, params, false)
}

// Execute removes every detection whose tier violates the strictness
// threshold, and its audio clip when DeleteAudio is set. Each record and
// its clip are deleted in one transaction: a failed clip delete rolls the
// record back. The first error aborts the run.
func (o *Operator) Execute(ctx context.Context, params Params) (Stats, error) {
	return o.run(ctx, params, true)
}

func (o *Operator) run(ctx context.Context, params Params, destructive bool) (Stats, error) {
	kind := "preview"
	if destructive {
		kind = "execute"
	}
	start := time.Now()

	stats := Stats{RunID: uuid.New().String()}
	runLog := logger.With("run_id", stats.RunID, "kind", kind,
		"pack", params.RegionPack, "strictness", params.Strictness.String())
	runLog.Info("cleanup run started", "limit", params.Limit, "delete_audio", params.DeleteAudio)

	species := map[string]struct{}{}
	err := o.scan(ctx, params, &stats, species, destructive)

	stats.SpeciesAffected = make([]string, 0, len(species))
	for name := range species {
		stats.SpeciesAffected = append(stats.SpeciesAffected, name)
	}
	sort.Strings(stats.SpeciesAffected)

	outcome := "success"
	if err != nil {
		outcome = "error"
		runLog.Error("cleanup run aborted", "error", err,
			"evaluated", stats.Evaluated, "removed", stats.Removed)
	} else {
		runLog.Info("cleanup run finished",
			"evaluated", stats.Evaluated, "removed", stats.Removed,
			"audio_files_deleted", stats.AudioFilesDeleted,
			"species_affected", len(stats.SpeciesAffected))
	}

	o.metrics.RecordRun(kind, outcome, time.Since(start).Seconds())
	if destructive {
		o.metrics.RecordRemovals(stats.Removed, stats.AudioFilesDeleted)
	}
	return stats, err
}

// scan pages through the detection store, evaluates each record against the
// pack, and removes violations when destructive is set. The pack stays
// attached for the whole run; the run is read-only against it.
func (o *Operator) scan(ctx context.Context, params Params, stats *Stats, species map[string]struct{}, destructive bool) error {
	pack, err := o.packs.Attach(ctx, params.RegionPack, params.Resolution)
	if err != nil {
		return err
	}
	defer pack.Detach()

	required := params.Strictness.RequiredTier()
	batch := params.batchSize()

	// The offset advances by the rows kept, not the page size: rows removed
	// by this run shift the remaining set down, and pages are ordered by id.
	offset := 0
	for {
		notes, err := o.db.GetDetectionPage(offset, batch)
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			return nil
		}

		removedInPage := 0
		for i := range notes {
			if err := ctx.Err(); err != nil {
				return errors.Newf("cleanup interrupted: %w", err).
					Category(errors.CategoryCancellation).
					Context("evaluated", stats.Evaluated).
					Component("cleanup").
					Build()
			}
			if params.Limit > 0 && stats.Evaluated >= params.Limit {
				return nil
			}

			note := &notes[i]
			stats.Evaluated++

			violates, err := o.violates(ctx, pack, note, params.Resolution, required)
			if err != nil {
				return err
			}
			if !violates {
				continue
			}

			species[note.ScientificName] = struct{}{}
			if !destructive {
				stats.Removed++
				continue
			}

			audioDeleted, err := o.remove(note, params.DeleteAudio)
			if err != nil {
				return err
			}
			stats.Removed++
			removedInPage++
			if audioDeleted {
				stats.AudioFilesDeleted++
			}
		}

		if len(notes) < batch {
			return nil
		}
		offset += len(notes) - removedInPage
	}
}

// violates evaluates one stored detection with an exact-cell lookup only.
// Cleanup re-evaluates under current pack data, not under the original
// detection-time neighbor-expanded logic. Species or cells absent from the
// pack never violate.
func (o *Operator) violates(ctx context.Context, pack *regionpack.Pack, note *datastore.Note, resolution int, required regionpack.Tier) (bool, error) {
	cell, err := hexgrid.CellFor(note.Latitude, note.Longitude, resolution)
	if err != nil {
		return false, err
	}

	tier, found, err := pack.TierFor(ctx, note.ScientificName, cell)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return !tier.Meets(required), nil
}

// remove deletes one record and, when requested, its audio clip inside a
// single transaction. A failed clip delete returns an error from the
// transaction closure, rolling the record delete back so the store and the
// audio directory never disagree.
func (o *Operator) remove(note *datastore.Note, deleteAudio bool) (audioDeleted bool, err error) {
	err = o.db.Transaction(func(tx datastore.TxStore) error {
		if err := tx.Delete(note.ID); err != nil {
			return err
		}
		if deleteAudio && note.ClipName != "" {
			if err := o.clips.Delete(note.ClipName); err != nil {
				return err
			}
			audioDeleted = true
		}
		return nil
	})
	if err != nil {
		audioDeleted = false
		return false, errors.Newf("failed to remove detection %d: %w", note.ID, err).
			Category(errors.CategoryCleanup).
			Context("note_id", note.ID).
			Context("scientific_name", note.ScientificName).
			Component("cleanup").
			Build()
	}
	return audioDeleted, nil
}
