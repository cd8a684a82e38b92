// Package settlement owns the durable settlement records: one full detail
// document per settlement, plus a denormalized summary list derived from
// them for listings. The detail records are the source of truth; the summary
// list is a projection that can always be rebuilt.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
)

// ErrNotFound is returned when no detail record exists for an id.
var ErrNotFound = errors.New("settlement not found")

// ValidationError reports a detail record or id that violates the record
// shape rules. Nothing is persisted when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid settlement record: " + e.Reason
}

// PersistenceError reports a failed read or write of the detail or summary
// tier.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("settlement %s failed: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// Store provides access to settlement detail records and keeps the summary
// projection consistent with them.
type Store interface {
	// Read returns the detail record for id, or ErrNotFound.
	Read(ctx context.Context, id string) (*models.SettlementDetail, error)

	// Update validates the record, persists it as the detail for id, and
	// re-derives its summary entry. The returned record is the stored one.
	Update(ctx context.Context, id string, record *models.SettlementDetail) (*models.SettlementDetail, error)

	// List returns the summary entries in stored order.
	List(ctx context.Context) ([]models.SettlementSummary, error)

	// RebuildSummary re-derives the whole summary list from the detail
	// records, repairing any inconsistency a failed summary write left
	// behind.
	RebuildSummary(ctx context.Context) error
}

const ratioTolerance = 1e-9

var validate = validator.New()

// Validate checks a detail record against the record shape rules: title
// present, participants and payments non-empty, and every payment well
// formed (non-empty item, positive amount, non-empty target, ratio aligned
// with target and summing to 1).
func Validate(record *models.SettlementDetail) error {
	if record == nil {
		return &ValidationError{Reason: "record is nil"}
	}
	if err := validate.Struct(record); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	for i, p := range record.Payments {
		if len(p.Ratio) != len(p.Target) {
			return &ValidationError{Reason: fmt.Sprintf("payment %d: ratio has %d entries for %d targets", i, len(p.Ratio), len(p.Target))}
		}
		var sum float64
		for _, r := range p.Ratio {
			sum += r
		}
		if math.Abs(sum-1) > ratioTolerance {
			return &ValidationError{Reason: fmt.Sprintf("payment %d: ratio sums to %v, want 1", i, sum)}
		}
	}
	return nil
}

// DeriveSummary recomputes the denormalized summary entry of a detail
// record. Title and createdAt are carried through verbatim.
func DeriveSummary(record *models.SettlementDetail) models.SettlementSummary {
	var total int64
	for _, p := range record.Payments {
		total += p.Amount
	}
	return models.SettlementSummary{
		ID:               record.ID,
		Title:            record.Title,
		CreatedAt:        record.CreatedAt,
		ParticipantCount: len(record.Participants),
		TotalAmount:      total,
		IsCompleted:      record.IsCompleted,
	}
}
