// Package alertstore holds the derived active-alert set. The set is
// recomputed by each sweep and replaced per case wholesale, so an alert
// disappears the moment its triggering condition no longer holds. Nothing
// here is a log; consumers only ever see the current set.
package alertstore

import (
	"context"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

// Store is the contract for the derived alert set.
type Store interface {
	// ReplaceForCase overwrites the case's active alerts. An empty slice
	// clears the case from the set.
	ReplaceForCase(ctx context.Context, caseID, commissariatID string, alerts []models.Alert) error

	// ListByCommissariat returns the current active alerts across all
	// cases of an organizational unit.
	ListByCommissariat(ctx context.Context, commissariatID string) ([]models.Alert, error)

	Close() error
}
