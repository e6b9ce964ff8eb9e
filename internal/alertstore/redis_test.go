package alertstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreWithClient(client)
}

func alert(caseID, number string, kind models.AlertKind) models.Alert {
	return models.Alert{
		CaseID:         caseID,
		CaseNumber:     number,
		CommissariatID: "commissariat-01",
		Kind:           kind,
		Severity:       models.SeverityWarning,
		Message:        "test alert",
		GeneratedAt:    time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestRedisReplaceAndList(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	err := store.ReplaceForCase(ctx, "c1", "commissariat-01", []models.Alert{
		alert("c1", "PL-2025-000001", models.AlertSLABreached),
		alert("c1", "PL-2025-000001", models.AlertNoActivity),
	})
	require.NoError(t, err)
	err = store.ReplaceForCase(ctx, "c2", "commissariat-01", []models.Alert{
		alert("c2", "PL-2025-000002", models.AlertSummonsRequired),
	})
	require.NoError(t, err)

	alerts, err := store.ListByCommissariat(ctx, "commissariat-01")
	require.NoError(t, err)
	assert.Len(t, alerts, 3)

	// Other commissariats see nothing.
	alerts, err = store.ListByCommissariat(ctx, "commissariat-02")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestRedisReplaceIsWholesale(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceForCase(ctx, "c1", "commissariat-01", []models.Alert{
		alert("c1", "PL-2025-000001", models.AlertSLABreached),
		alert("c1", "PL-2025-000001", models.AlertNoActivity),
	}))

	// Next sweep computes a different set; the old one must be gone.
	require.NoError(t, store.ReplaceForCase(ctx, "c1", "commissariat-01", []models.Alert{
		alert("c1", "PL-2025-000001", models.AlertSummonsRequired),
	}))

	alerts, err := store.ListByCommissariat(ctx, "commissariat-01")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertSummonsRequired, alerts[0].Kind)
}

func TestRedisEmptySetClears(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceForCase(ctx, "c1", "commissariat-01", []models.Alert{
		alert("c1", "PL-2025-000001", models.AlertSLABreached),
	}))
	require.NoError(t, store.ReplaceForCase(ctx, "c1", "commissariat-01", nil))

	alerts, err := store.ListByCommissariat(ctx, "commissariat-01")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceForCase(ctx, "c2", "commissariat-01", []models.Alert{
		alert("c2", "PL-2025-000002", models.AlertNoActivity),
	}))
	require.NoError(t, store.ReplaceForCase(ctx, "c1", "commissariat-01", []models.Alert{
		alert("c1", "PL-2025-000001", models.AlertSLABreached),
	}))

	alerts, err := store.ListByCommissariat(ctx, "commissariat-01")
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	// Output is ordered by case number for stable listings.
	assert.Equal(t, "PL-2025-000001", alerts[0].CaseNumber)
	assert.Equal(t, "PL-2025-000002", alerts[1].CaseNumber)

	require.NoError(t, store.ReplaceForCase(ctx, "c1", "commissariat-01", nil))
	alerts, err = store.ListByCommissariat(ctx, "commissariat-01")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "c2", alerts[0].CaseID)
}
