package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

var (
	// ErrCaseNotFound is returned when no case exists for the given id.
	ErrCaseNotFound = errors.New("case not found")

	// ErrVersionConflict is returned when a mutation was conditioned on a
	// case version that is no longer current. Callers should re-read and
	// retry; the mutation was not applied.
	ErrVersionConflict = errors.New("concurrent modification")
)

// CaseStore is the durable contract for cases and their audit trail.
//
// Mutations are atomic: the case row and its audit entry land together or
// not at all. The audit trail is append-only by construction; no update or
// delete operation exists at this interface.
type CaseStore interface {
	// CreateCase persists a new case together with its opening audit entry.
	CreateCase(ctx context.Context, c *models.Case, entry *models.AuditEntry) error

	// GetCase returns the current snapshot of a case.
	GetCase(ctx context.Context, id string) (*models.Case, error)

	// ListCases returns a filtered, paginated case listing plus the total
	// match count.
	ListCases(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, int, error)

	// ListOpenCases returns every non-terminal case. Used by the alert
	// sweep; each returned case is an independent snapshot.
	ListOpenCases(ctx context.Context) ([]*models.Case, error)

	// UpdateCase applies a mutated case together with its audit entry,
	// conditioned on expectedVersion still being current. Returns
	// ErrVersionConflict (and applies nothing) on a stale version.
	UpdateCase(ctx context.Context, c *models.Case, expectedVersion int64, entry *models.AuditEntry) error

	// NextCaseNumber reserves the next value of the sequential case number.
	NextCaseNumber(ctx context.Context) (int64, error)

	// ListAuditEntries returns the case's audit trail ordered by timestamp.
	ListAuditEntries(ctx context.Context, caseID string) ([]*models.AuditEntry, error)

	// LastActivity returns the timestamp of the most recent audit entry
	// for the case, or the zero time if none exists.
	LastActivity(ctx context.Context, caseID string) (time.Time, error)

	Close() error
}
