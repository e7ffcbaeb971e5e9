package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/appointment-manager/internal/persistence"
)

// AvailabilityRepository implements persistence.AvailabilityRepository on SQLite.
type AvailabilityRepository struct {
	db *DB
}

// NewAvailabilityRepository binds the repository to an open database.
func NewAvailabilityRepository(db *DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// UpsertRule inserts or rewrites a work-hour rule.
func (r *AvailabilityRepository) UpsertRule(ctx context.Context, rule persistence.AvailabilityRule) error {
	if rule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `INSERT INTO availability_rules (id, owner_id, day_of_week, start_time, end_time, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			day_of_week = excluded.day_of_week,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	_, err := r.db.conn.ExecContext(ctx, query,
		rule.ID, rule.OwnerID, rule.DayOfWeek, rule.StartTime, rule.EndTime, enabled, now, now)
	return mapError(err)
}

// ListRules returns the owner's rules ordered by weekday then start time.
func (r *AvailabilityRepository) ListRules(ctx context.Context, ownerID string) ([]persistence.AvailabilityRule, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, owner_id, day_of_week, start_time, end_time, enabled, created_at, updated_at
		FROM availability_rules WHERE owner_id = ?
		ORDER BY day_of_week, start_time, id`, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rules []persistence.AvailabilityRule
	for rows.Next() {
		var (
			rule      persistence.AvailabilityRule
			enabled   int
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&rule.ID, &rule.OwnerID, &rule.DayOfWeek, &rule.StartTime,
			&rule.EndTime, &enabled, &createdAt, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		rule.Enabled = enabled != 0
		rule.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rule.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rules, nil
}

// DeleteRule removes a rule.
func (r *AvailabilityRepository) DeleteRule(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM availability_rules WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetSettings loads the owner's availability settings. ErrNotFound signals
// the owner never saved any; callers apply defaults.
func (r *AvailabilityRepository) GetSettings(ctx context.Context, ownerID string) (persistence.AvailabilitySettings, error) {
	var (
		settings  persistence.AvailabilitySettings
		updatedAt string
	)
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT owner_id, slot_granularity_minutes, default_duration_minutes, buffer_minutes,
			min_advance_hours, max_advance_days, updated_at
		FROM availability_settings WHERE owner_id = ?`, ownerID).
		Scan(&settings.OwnerID, &settings.SlotGranularityMinutes, &settings.DefaultDurationMinutes,
			&settings.BufferMinutes, &settings.MinAdvanceHours, &settings.MaxAdvanceDays, &updatedAt)
	if err != nil {
		return persistence.AvailabilitySettings{}, mapError(err)
	}
	settings.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return settings, nil
}

// SaveSettings writes the owner's singleton settings row.
func (r *AvailabilityRepository) SaveSettings(ctx context.Context, settings persistence.AvailabilitySettings) error {
	if settings.OwnerID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO availability_settings
			(owner_id, slot_granularity_minutes, default_duration_minutes, buffer_minutes,
			min_advance_hours, max_advance_days, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			slot_granularity_minutes = excluded.slot_granularity_minutes,
			default_duration_minutes = excluded.default_duration_minutes,
			buffer_minutes = excluded.buffer_minutes,
			min_advance_hours = excluded.min_advance_hours,
			max_advance_days = excluded.max_advance_days,
			updated_at = excluded.updated_at`

	_, err := r.db.conn.ExecContext(ctx, query,
		settings.OwnerID,
		settings.SlotGranularityMinutes,
		settings.DefaultDurationMinutes,
		settings.BufferMinutes,
		settings.MinAdvanceHours,
		settings.MaxAdvanceDays,
		time.Now().UTC().Format(time.RFC3339),
	)
	return mapError(err)
}
