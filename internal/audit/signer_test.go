package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

func entry() *models.AuditEntry {
	return &models.AuditEntry{
		ID:        "0195b2a0-0000-7000-8000-000000000001",
		CaseID:    "0195b2a0-0000-7000-8000-000000000002",
		Action:    models.ActionStageChange,
		Prior:     "intake",
		New:       "investigation",
		Actor:     "officer-12",
		Timestamp: time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestSignAndVerify(t *testing.T) {
	signer := NewSigner("test-secret")

	e := entry()
	e.Signature = signer.Sign(e)

	assert.NotEmpty(t, e.Signature)
	assert.True(t, signer.Verify(e))
}

func TestVerifyDetectsTampering(t *testing.T) {
	signer := NewSigner("test-secret")

	tests := []struct {
		name   string
		mutate func(e *models.AuditEntry)
	}{
		{"changed new value", func(e *models.AuditEntry) { e.New = "summoning" }},
		{"changed actor", func(e *models.AuditEntry) { e.Actor = "intruder" }},
		{"changed timestamp", func(e *models.AuditEntry) { e.Timestamp = e.Timestamp.Add(time.Minute) }},
		{"changed case", func(e *models.AuditEntry) { e.CaseID = "other" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := entry()
			e.Signature = signer.Sign(e)
			tt.mutate(e)
			assert.False(t, signer.Verify(e))
		})
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	e := entry()
	e.Signature = NewSigner("key-a").Sign(e)

	assert.False(t, NewSigner("key-b").Verify(e))
}
