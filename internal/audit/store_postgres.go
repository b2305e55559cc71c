package audit

import (
	"context"
	"database/sql"
	"fmt"

	"credchain/internal/registry/eduid"
	"credchain/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL so the trail survives
// restarts alongside the registry rows. Append order comes from the
// bigserial position column.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var whitelisted sql.NullBool
	if event.Whitelisted != nil {
		whitelisted = sql.NullBool{Bool: *event.Whitelisted, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(ts, action, actor, edu_id, issuer, student,
			 student_name, institution_name, whitelisted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.Timestamp, string(event.Action), event.Actor.String(),
		event.EduID.String(), event.Issuer.String(), event.Student.String(),
		event.StudentName, event.InstitutionName, whitelisted,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Event, error) {
	return s.listEvents(ctx, `
		SELECT ts, action, actor, edu_id, issuer, student,
		       student_name, institution_name, whitelisted
		FROM audit_events ORDER BY position`)
}

func (s *PostgresStore) ListByEduID(ctx context.Context, eduID string) ([]Event, error) {
	return s.listEvents(ctx, `
		SELECT ts, action, actor, edu_id, issuer, student,
		       student_name, institution_name, whitelisted
		FROM audit_events WHERE edu_id = $1 ORDER BY position`,
		eduID)
}

func (s *PostgresStore) listEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var event Event
		var action, actor, id, issuer, student string
		var whitelisted sql.NullBool
		if err := rows.Scan(&event.Timestamp, &action, &actor, &id, &issuer, &student,
			&event.StudentName, &event.InstitutionName, &whitelisted); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		event.Actor = domain.Address(actor)
		event.EduID = eduid.EduID(id)
		event.Issuer = domain.Address(issuer)
		event.Student = domain.Address(student)
		if whitelisted.Valid {
			event.Whitelisted = &whitelisted.Bool
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
