package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eventmesh-lab/events-service/internal/domain"
)

// EventRepository stores Event aggregates in the events and sections tables.
// The version column guards updates against lost writes.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Add(ctx context.Context, event *domain.Event) error {
	snap := event.Snapshot()

	err := withTx(ctx, r.pool, func(ctx context.Context) error {
		const stmt = `
INSERT INTO events (id, name, description, starts_at, duration_hours, duration_minutes, state, version, created_at, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9)`

		_, err := db(ctx, r.pool).Exec(ctx, stmt,
			snap.ID,
			snap.Name,
			snap.Description,
			snap.Date,
			snap.DurationHours,
			snap.DurationMinutes,
			string(snap.State),
			snap.CreatedAt,
			snap.PublishedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: event %s already exists", domain.ErrDuplicateEntity, snap.ID)
			}
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("insert event: %w", err)
		}
		return r.insertSections(ctx, snap)
	})
	if err != nil {
		return err
	}

	event.SetVersion(1)
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	const query = `
SELECT id, name, description, starts_at, duration_hours, duration_minutes, state, version, created_at, published_at
FROM events
WHERE id = $1`

	var (
		snap  domain.EventSnapshot
		state string
	)
	err := db(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&snap.ID,
		&snap.Name,
		&snap.Description,
		&snap.Date,
		&snap.DurationHours,
		&snap.DurationMinutes,
		&state,
		&snap.Version,
		&snap.CreatedAt,
		&snap.PublishedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	snap.State = domain.State(state)

	sections, err := r.listSections(ctx, snap.ID)
	if err != nil {
		return nil, err
	}
	snap.Sections = sections

	event, err := domain.RestoreEvent(snap)
	if err != nil {
		return nil, fmt.Errorf("restore event %s: %w", snap.ID, err)
	}
	return event, nil
}

// Update writes the aggregate if nobody else has since it was loaded.
// Sections are append-only, so only new ones are inserted.
func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	snap := event.Snapshot()

	err := withTx(ctx, r.pool, func(ctx context.Context) error {
		const stmt = `
UPDATE events
SET name = $2,
	description = $3,
	starts_at = $4,
	duration_hours = $5,
	duration_minutes = $6,
	state = $7,
	published_at = $8,
	version = version + 1,
	updated_at = NOW()
WHERE id = $1 AND version = $9`

		tag, err := db(ctx, r.pool).Exec(ctx, stmt,
			snap.ID,
			snap.Name,
			snap.Description,
			snap.Date,
			snap.DurationHours,
			snap.DurationMinutes,
			string(snap.State),
			snap.PublishedAt,
			snap.Version,
		)
		if err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("update event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return r.missingOrStale(ctx, snap.ID)
		}
		return r.insertSections(ctx, snap)
	})
	if err != nil {
		return err
	}

	event.SetVersion(snap.Version + 1)
	return nil
}

func (r *EventRepository) missingOrStale(ctx context.Context, id string) error {
	var exists bool
	if err := db(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return domain.ErrEventNotFound
	}
	return domain.ErrConcurrentUpdate
}

func (r *EventRepository) insertSections(ctx context.Context, snap domain.EventSnapshot) error {
	const stmt = `
INSERT INTO sections (id, event_id, name, capacity, price, position)
VALUES ($1, $2, $3, $4, $5::text::numeric, $6)
ON CONFLICT (id) DO NOTHING`

	q := db(ctx, r.pool)
	for i, s := range snap.Sections {
		if _, err := q.Exec(ctx, stmt, s.ID, snap.ID, s.Name, s.Capacity, s.Price.String(), i); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: section name %q already exists", domain.ErrDuplicateEntity, s.Name)
			}
			return fmt.Errorf("insert section: %w", err)
		}
	}
	return nil
}

func (r *EventRepository) listSections(ctx context.Context, eventID string) ([]domain.SectionSnapshot, error) {
	const query = `
SELECT id, name, capacity, price::text
FROM sections
WHERE event_id = $1
ORDER BY position`

	rows, err := db(ctx, r.pool).Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var out []domain.SectionSnapshot
	for rows.Next() {
		var (
			s     domain.SectionSnapshot
			price string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Capacity, &price); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		if s.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse section price %q: %w", price, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return out, nil
}
