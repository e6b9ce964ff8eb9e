// Package seeder generates plausible demo cases for development
// environments. It drives the real lifecycle service so seeded data is
// indistinguishable from organically created cases, audit trail included.
package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/sentinelle-systems/caseflow/internal/lifecycle"
	"github.com/sentinelle-systems/caseflow/internal/models"
)

var categories = []string{
	"theft",
	"assault",
	"fraud",
	"cybercrime",
	"vandalism",
	"domestic_violence",
	"financial_crime",
	"narcotics",
}

var priorities = []models.Priority{
	models.PriorityUrgent,
	models.PriorityNormal,
	models.PriorityNormal,
	models.PriorityNormal,
	models.PriorityLow,
}

// Seeder creates demo cases through the lifecycle service.
type Seeder struct {
	svc *lifecycle.Service
}

func New(svc *lifecycle.Service) *Seeder {
	return &Seeder{svc: svc}
}

// Run creates count cases spread over orgs commissariats and walks a
// random subset of them through assignments, stage advances, and
// terminal decisions.
func (s *Seeder) Run(ctx context.Context, count, orgs int) (int, error) {
	if count <= 0 {
		count = 50
	}
	if orgs <= 0 {
		orgs = 3
	}

	agents := make([]string, 0, orgs*4)
	for i := 0; i < orgs*4; i++ {
		agents = append(agents, fmt.Sprintf("agent-%03d", i+1))
	}

	created := 0
	for i := 0; i < count; i++ {
		org := fmt.Sprintf("commissariat-%02d", gofakeit.Number(1, orgs))

		req := &models.CreateCaseRequest{
			Category:         gofakeit.RandomString(categories),
			Description:      gofakeit.Sentence(12),
			CommissariatID:   org,
			Complainant:      party(),
			IncidentLocation: gofakeit.City(),
			IncidentDate:     gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
			Priority:         priorities[gofakeit.Number(0, len(priorities)-1)],
			Observations:     gofakeit.Sentence(8),
		}
		for j := 0; j < gofakeit.Number(0, 2); j++ {
			req.Suspects = append(req.Suspects, party())
		}
		for j := 0; j < gofakeit.Number(0, 3); j++ {
			req.Witnesses = append(req.Witnesses, party())
		}

		c, err := s.svc.CreateCase(ctx, req, "seeder")
		if err != nil {
			return created, fmt.Errorf("failed to seed case: %w", err)
		}
		created++

		if err := s.advance(ctx, c, gofakeit.RandomString(agents)); err != nil {
			return created, err
		}
	}
	return created, nil
}

// advance pushes a case a random distance along the pipeline.
func (s *Seeder) advance(ctx context.Context, c *models.Case, agent string) error {
	steps := gofakeit.Number(0, 4)
	if steps == 0 {
		return nil
	}

	cur, err := s.svc.AssignAgent(ctx, c.ID, agent, "seeder")
	if err != nil {
		return fmt.Errorf("failed to assign seeded case: %w", err)
	}

	for i := 0; i < steps; i++ {
		next := cur.Stage.Next()
		if next == "" {
			break
		}
		cur, err = s.svc.ChangeStage(ctx, cur.ID, next, "seeded progression", "seeder")
		if err != nil {
			return fmt.Errorf("failed to advance seeded case: %w", err)
		}
		if cur.Stage == models.StageSummoning && gofakeit.Bool() {
			cur, err = s.svc.AttachSummons(ctx, cur.ID, gofakeit.UUID(), "seeder")
			if err != nil {
				return fmt.Errorf("failed to attach seeded summons: %w", err)
			}
		}
	}

	// Resolve or dismiss a fraction of the fully advanced cases.
	if cur.Stage == models.StageClosure {
		status := models.StatusResolved
		if gofakeit.Number(0, 3) == 0 {
			status = models.StatusDismissed
		}
		if _, err := s.svc.ChangeStatus(ctx, cur.ID, status, gofakeit.Sentence(6), "seeder"); err != nil {
			return fmt.Errorf("failed to close seeded case: %w", err)
		}
	}
	return nil
}

func party() models.Party {
	return models.Party{
		Name:    gofakeit.Name(),
		Contact: gofakeit.Phone(),
		Address: gofakeit.Address().Address,
	}
}
