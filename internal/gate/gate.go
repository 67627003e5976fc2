// Package gate implements the detection filter gate: the per-detection
// decision point between the species recognizer and the detection store.
// Every incoming detection passes through exactly one Evaluate call.
package gate

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/birdstation/ebird-engine/internal/conf"
	"github.com/birdstation/ebird-engine/internal/confidence"
	"github.com/birdstation/ebird-engine/internal/datastore"
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
	logFilePath := filepath.Join("logs", "gate.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "gate", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize gate file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "gate")
		closeLogger = func() error { return nil }
	}
}

// Status is the outcome of one gate evaluation.
type Status string

const (
	Accepted            Status = "accepted"
	AcceptedWithWarning Status = "accepted_with_warning"
	Rejected            Status = "rejected"
)

// Decision is the result of evaluating one detection. It is not persisted;
// the caller acts on it and drops it.
type Decision struct {
	Status Status
	Reason string
	// Result carries the resolved regional data when the lookup succeeded,
	// nil otherwise. Populated even for warnings so the annotation survives.
	Result *confidence.Result
	// FailedOpen is true when a store failure forced acceptance without
	// regional data.
	FailedOpen bool
}

// Accepted reports whether the detection should be stored.
func (d *Decision) Accepted() bool {
	return d.Status != Rejected
}

// Gate evaluates detections against the regional confidence engine. Safe
// for concurrent use.
type Gate struct {
	resolver *confidence.Resolver
	settings *conf.Settings
	metrics  *metrics.GateMetrics
}

// New creates a Gate. The metrics collector may be nil.
func New(resolver *confidence.Resolver, settings *conf.Settings, m *metrics.GateMetrics) *Gate {
	return &Gate{resolver: resolver, settings: settings, metrics: m}
}

// Evaluate runs the regional confidence check for one detection and returns
// the gate decision without touching the note. Any region pack failure is
// absorbed here: the detection is accepted without annotation and the
// failure logged. A broken filtering feature must never block recording.
func (g *Gate) Evaluate(ctx context.Context, note *datastore.Note) Decision {
	decision := g.evaluate(ctx, note)
	g.metrics.RecordDecision(string(decision.Status))
	if decision.FailedOpen {
		g.metrics.RecordFailOpen()
	}
	return decision
}

func (g *Gate) evaluate(ctx context.Context, note *datastore.Note) Decision {
	cfg := &g.settings.EBirdFilter
	if !cfg.Enabled {
		return Decision{Status: Accepted}
	}

	var month *time.Month
	if !note.BeginTime.IsZero() {
		m := note.BeginTime.Month()
		month = &m
	}

	result, err := g.resolver.Resolve(ctx, note.ScientificName, note.Latitude, note.Longitude, month)
	if err != nil {
		logger.Warn("regional lookup failed, accepting detection without annotation",
			"scientific_name", note.ScientificName,
			"error", err)
		return Decision{
			Status:     Accepted,
			Reason:     "regional data unavailable",
			FailedOpen: true,
		}
	}

	if result == nil {
		if cfg.UnknownSpeciesPolicy() == conf.UnknownSpeciesBlock {
			return Decision{
				Status: Rejected,
				Reason: "species not found in regional data",
			}
		}
		return Decision{Status: Accepted, Reason: "species not found in regional data"}
	}

	strictness, err := regionpack.ParseTier(cfg.Strictness)
	if err != nil {
		// Unreachable after config validation, but fail open regardless.
		logger.Error("invalid strictness in settings", "strictness", cfg.Strictness, "error", err)
		return Decision{Status: Accepted, Result: result, FailedOpen: true}
	}

	if result.ConfidenceTier.Meets(strictness.RequiredTier()) {
		return Decision{Status: Accepted, Result: result}
	}

	reason := fmt.Sprintf("tier %s below %s strictness at cell %s (ring %d)",
		result.ConfidenceTier, cfg.Strictness, result.MatchedCell, result.RingDistance)

	switch cfg.DetectionMode() {
	case conf.ModeFilter:
		return Decision{Status: Rejected, Reason: reason, Result: result}
	case conf.ModeWarn:
		logger.Warn("detection below strictness threshold",
			"scientific_name", note.ScientificName,
			"tier", result.ConfidenceTier.String(),
			"strictness", cfg.Strictness,
			"cell", result.MatchedCell.String(),
			"ring_distance", result.RingDistance)
		return Decision{Status: AcceptedWithWarning, Reason: reason, Result: result}
	default: // conf.ModeOff
		return Decision{Status: Accepted, Result: result}
	}
}

// EvaluateAndAnnotate evaluates a detection and, when it is accepted with
// regional data, writes the annotation fields onto the note. The fields are
// write-once: a note that already carries an annotation is left untouched.
// Rejected detections are never annotated.
func (g *Gate) EvaluateAndAnnotate(ctx context.Context, note *datastore.Note) Decision {
	decision := g.Evaluate(ctx, note)
	if decision.Accepted() && decision.Result != nil && !note.HasEBirdAnnotation() {
		annotate(note, decision.Result)
	}
	return decision
}

func annotate(note *datastore.Note, result *confidence.Result) {
	note.EBirdConfidenceTier = result.ConfidenceTier.String()
	note.EBirdConfidenceBoost = result.ConfidenceBoost
	note.EBirdH3Cell = result.MatchedCell.String()
	note.EBirdRingDistance = result.RingDistance
	note.EBirdRegionPack = result.RegionPack
}
