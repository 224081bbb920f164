package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConfidenceFloor is the default minimum confidence a candidate needs
// to survive write processing
const ConfidenceFloor = 0.5

// Engine turns fact candidates into governed, time-bounded records:
// classification, validity policy, slot conflict resolution and lazy
// expiration. It owns no state beyond its injected store handle.
type Engine struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	floor  float64
}

// NewEngine creates a temporal engine over the given metadata store
func NewEngine(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
		floor:  ConfidenceFloor,
	}
}

// FromCandidate builds a new active record from a candidate: classify,
// mint an id, apply the validity policy and archive any active records
// occupying the same slot.
func (e *Engine) FromCandidate(ctx context.Context, c FactCandidate, userID, sourceTurnID string) (*Record, error) {
	memType, slot := Classify(c)
	now := e.now().UTC()

	rec := &Record{
		ID:           uuid.NewString(),
		UserID:       userID,
		Text:         c.Text,
		Type:         memType,
		Slot:         slot,
		Status:       StatusActive,
		CreatedAt:    now,
		Confidence:   c.Confidence,
		SourceTurnID: sourceTurnID,
	}

	ApplyPolicy(rec, c, now)

	if err := e.ResolveConflicts(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ResolveConflicts enforces at-most-one-active-record-per-(user, slot):
// every currently active record for the new record's slot is archived
// and listed in the new record's supersedes, in store query order.
// Slot-less records coexist and are returned untouched.
//
// All matches are archived defensively even though at most one should
// ever be active.
func (e *Engine) ResolveConflicts(ctx context.Context, rec *Record) error {
	if rec.Slot == "" {
		return nil
	}

	existing, err := e.store.GetActiveBySlot(ctx, rec.UserID, rec.Slot)
	if err != nil {
		return fmt.Errorf("resolve conflicts for slot %q: %w", rec.Slot, err)
	}

	for _, old := range existing {
		if err := e.store.UpdateStatus(ctx, old.ID, StatusArchived); err != nil {
			return fmt.Errorf("archive superseded record %s: %w", old.ID, err)
		}
		rec.Supersedes = append(rec.Supersedes, old.ID)
		e.logger.Debug("archived superseded record",
			zap.String("user_id", rec.UserID),
			zap.String("slot", rec.Slot),
			zap.String("old_id", old.ID),
			zap.String("new_id", rec.ID),
		)
	}
	return nil
}

// ProcessWriteBatch converts candidates into records, dropping any
// below the confidence floor before further processing
func (e *Engine) ProcessWriteBatch(ctx context.Context, facts []FactCandidate, userID, sourceTurnID string) ([]*Record, error) {
	records := make([]*Record, 0, len(facts))
	for _, fact := range facts {
		if fact.Confidence < e.floor {
			e.logger.Debug("dropped low-confidence candidate",
				zap.String("user_id", userID),
				zap.Float64("confidence", fact.Confidence),
			)
			continue
		}
		rec, err := e.FromCandidate(ctx, fact, userID, sourceTurnID)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Sweep lazily expires the user's time-bound records. It runs at the
// start of every read and write for the user; there is no background
// timer. A store failure degrades to a no-op so the surrounding
// operation proceeds.
func (e *Engine) Sweep(ctx context.Context, userID string) int64 {
	count, err := e.store.ExpireUserMemories(ctx, userID)
	if err != nil {
		e.logger.Warn("expiration sweep failed",
			zap.String("user_id", userID),
			zap.String("operation", "sweep"),
			zap.Error(err),
		)
		return 0
	}
	if count > 0 {
		e.logger.Debug("expired records",
			zap.String("user_id", userID),
			zap.Int64("count", count),
		)
	}
	return count
}
