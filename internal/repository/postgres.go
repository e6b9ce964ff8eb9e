package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinelle-systems/caseflow/internal/models"
)

// PostgresStore implements CaseStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

const caseColumns = `
	id, number, category, description, commissariat_id,
	complainant_name, complainant_contact, complainant_address,
	incident_location, incident_date,
	priority, stage, status,
	sla_due, stage_entered_at,
	decision_finale, observations, assigned_agent, summons_count,
	version, created_at, updated_at`

func scanCase(row pgx.Row) (*models.Case, error) {
	c := &models.Case{}
	err := row.Scan(
		&c.ID, &c.Number, &c.Category, &c.Description, &c.CommissariatID,
		&c.Complainant.Name, &c.Complainant.Contact, &c.Complainant.Address,
		&c.IncidentLocation, &c.IncidentDate,
		&c.Priority, &c.Stage, &c.Status,
		&c.SLADue, &c.StageEnteredAt,
		&c.DecisionFinale, &c.Observations, &c.AssignedAgent, &c.SummonsCount,
		&c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to scan case: %w", err)
	}
	return c, nil
}

// CreateCase inserts the case, its related parties, and the opening audit
// entry in one transaction.
func (s *PostgresStore) CreateCase(ctx context.Context, c *models.Case, entry *models.AuditEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		c.ID, c.Number, c.Category, c.Description, c.CommissariatID,
		c.Complainant.Name, c.Complainant.Contact, c.Complainant.Address,
		c.IncidentLocation, c.IncidentDate,
		c.Priority, c.Stage, c.Status,
		c.SLADue, c.StageEnteredAt,
		c.DecisionFinale, c.Observations, c.AssignedAgent, c.SummonsCount,
		c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}

	if err := insertParties(ctx, tx, c.ID, "suspect", c.Suspects); err != nil {
		return err
	}
	if err := insertParties(ctx, tx, c.ID, "witness", c.Witnesses); err != nil {
		return err
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit case creation: %w", err)
	}
	return nil
}

func insertParties(ctx context.Context, tx pgx.Tx, caseID, role string, parties []models.Party) error {
	for _, p := range parties {
		_, err := tx.Exec(ctx, `
			INSERT INTO case_parties (case_id, role, name, contact, address)
			VALUES ($1, $2, $3, $4, $5)`,
			caseID, role, p.Name, p.Contact, p.Address,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s: %w", role, err)
		}
	}
	return nil
}

func insertAuditEntry(ctx context.Context, tx pgx.Tx, entry *models.AuditEntry) error {
	if entry == nil {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_entries (id, case_id, action, prior, new, note, actor, timestamp, signature)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.CaseID, entry.Action, entry.Prior, entry.New,
		entry.Note, entry.Actor, entry.Timestamp, entry.Signature,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// GetCase retrieves a case with its suspects and witnesses.
func (s *PostgresStore) GetCase(ctx context.Context, id string) (*models.Case, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, id)
	c, err := scanCase(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadParties(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) loadParties(ctx context.Context, c *models.Case) error {
	rows, err := s.pool.Query(ctx, `
		SELECT role, name, contact, address
		FROM case_parties
		WHERE case_id = $1
		ORDER BY id`, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load case parties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var p models.Party
		if err := rows.Scan(&role, &p.Name, &p.Contact, &p.Address); err != nil {
			return fmt.Errorf("failed to scan case party: %w", err)
		}
		switch role {
		case "suspect":
			c.Suspects = append(c.Suspects, p)
		case "witness":
			c.Witnesses = append(c.Witnesses, p)
		}
	}
	return rows.Err()
}

// ListCases retrieves a filtered, paginated list of cases.
func (s *PostgresStore) ListCases(ctx context.Context, req *models.ListCasesRequest) ([]*models.Case, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if req.CommissariatID != "" {
		whereClause += fmt.Sprintf(" AND commissariat_id = $%d", argPos)
		args = append(args, req.CommissariatID)
		argPos++
	}
	if req.Stage != "" {
		whereClause += fmt.Sprintf(" AND stage = $%d", argPos)
		args = append(args, req.Stage)
		argPos++
	}
	if req.Status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, req.Status)
		argPos++
	}
	if req.Assignee != "" {
		whereClause += fmt.Sprintf(" AND assigned_agent = $%d", argPos)
		args = append(args, req.Assignee)
		argPos++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM cases %s", whereClause)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cases: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	args = append(args, req.Limit, offset)

	query := fmt.Sprintf(`
		SELECT %s FROM cases
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, caseColumns, whereClause, argPos, argPos+1)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	cases := []*models.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return cases, total, nil
}

// ListOpenCases returns all non-terminal cases for the alert sweep.
func (s *PostgresStore) ListOpenCases(ctx context.Context) ([]*models.Case, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE status NOT IN ($1, $2)
		ORDER BY created_at`,
		models.StatusResolved, models.StatusDismissed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list open cases: %w", err)
	}
	defer rows.Close()

	cases := []*models.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return cases, nil
}

// UpdateCase applies the mutated case and its audit entry in one
// transaction, conditioned on the version column being unchanged.
func (s *PostgresStore) UpdateCase(ctx context.Context, c *models.Case, expectedVersion int64, entry *models.AuditEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE cases SET
			priority = $1, stage = $2, status = $3,
			sla_due = $4, stage_entered_at = $5,
			decision_finale = $6, observations = $7,
			assigned_agent = $8, summons_count = $9,
			version = version + 1, updated_at = $10
		WHERE id = $11 AND version = $12`,
		c.Priority, c.Stage, c.Status,
		c.SLADue, c.StageEnteredAt,
		c.DecisionFinale, c.Observations,
		c.AssignedAgent, c.SummonsCount,
		c.UpdatedAt, c.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM cases WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check case existence: %w", err)
		}
		if !exists {
			return ErrCaseNotFound
		}
		return ErrVersionConflict
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit case update: %w", err)
	}

	c.Version = expectedVersion + 1
	return nil
}

// NextCaseNumber reserves the next value of the case number sequence.
func (s *PostgresStore) NextCaseNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT nextval('case_number_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to reserve case number: %w", err)
	}
	return n, nil
}

// ListAuditEntries returns the case's audit trail ordered by timestamp.
func (s *PostgresStore) ListAuditEntries(ctx context.Context, caseID string) ([]*models.AuditEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, case_id, action, prior, new, note, actor, timestamp, signature
		FROM audit_entries
		WHERE case_id = $1
		ORDER BY timestamp, id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.AuditEntry{}
	for rows.Next() {
		e := &models.AuditEntry{}
		if err := rows.Scan(&e.ID, &e.CaseID, &e.Action, &e.Prior, &e.New, &e.Note, &e.Actor, &e.Timestamp, &e.Signature); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// LastActivity returns the most recent audit timestamp for the case.
func (s *PostgresStore) LastActivity(ctx context.Context, caseID string) (time.Time, error) {
	var last *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT MAX(timestamp) FROM audit_entries WHERE case_id = $1`, caseID).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query last activity: %w", err)
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
