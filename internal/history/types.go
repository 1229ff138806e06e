// Package history provides storage for completed risk assessments.
// Records are immutable snapshots of the profile that was scored and the result
// it produced; the store is an append log with no longitudinal analysis.
package history

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hf-risk-server/internal/domain"
)

// ErrNotFound is returned when no record exists for an id
var ErrNotFound = errors.New("assessment not found")

// ErrInvalidExport is returned by ImportJSON for documents it cannot read
var ErrInvalidExport = errors.New("invalid export document")

// Record is one stored assessment.
type Record struct {
	ID         uuid.UUID               `json:"id"`
	PatientRef string                  `json:"patient_ref,omitempty"` // caller supplied, opaque
	Profile    domain.PatientProfile   `json:"profile"`
	Result     domain.AssessmentResult `json:"result"`
	CreatedAt  time.Time               `json:"created_at"`
}

// Store defines the interface for assessment storage operations.
type Store interface {
	// Save inserts a record. A nil ID and a zero CreatedAt are assigned.
	Save(ctx context.Context, record *Record) error

	// Get retrieves a record by id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)

	// List returns records newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// Delete removes a record by id, or returns ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// ExportJSON exports all records to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports records from a JSON reader. Records whose id already
	// exists are skipped.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// ExportVersion is the format version written by ExportJSON
const ExportVersion = "1.0"

// Export represents the JSON export format.
type Export struct {
	Version     string    `json:"version"`
	ExportedAt  time.Time `json:"exported_at"`
	Count       int       `json:"count"`
	Assessments []*Record `json:"assessments"`
}

// prepare fills in the generated fields of a record before insertion
func prepare(record *Record) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	} else {
		record.CreatedAt = record.CreatedAt.UTC()
	}
}
