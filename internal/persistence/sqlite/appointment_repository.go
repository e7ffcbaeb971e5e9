package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/appointment-manager/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository on SQLite.
type AppointmentRepository struct {
	db *DB
}

// NewAppointmentRepository binds the repository to an open database.
func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, owner_id, title, description, date, start_time, duration_minutes,
	location, status, client_name, client_surname, phone, birth_date, created_at, updated_at`

// CreateAppointment inserts a new booking.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	query := `INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.conn.ExecContext(ctx, query,
		appointment.ID,
		appointment.OwnerID,
		appointment.Title,
		nullString(appointment.Description),
		appointment.Date,
		appointment.StartTime,
		appointment.DurationMinutes,
		nullString(appointment.Location),
		appointment.Status,
		nullString(appointment.ClientName),
		nullString(appointment.ClientSurname),
		nullString(appointment.Phone),
		nullString(appointment.BirthDate),
		appointment.CreatedAt.Format(time.RFC3339),
		appointment.UpdatedAt.Format(time.RFC3339),
	)
	return mapError(err)
}

// UpdateAppointment rewrites a booking in place. Ownership never changes: the
// stored owner_id wins over the one supplied.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrNotFound
	}

	appointment.UpdatedAt = time.Now().UTC()

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		var ownerID string
		if err := tx.QueryRow(`SELECT owner_id FROM appointments WHERE id = ?`, appointment.ID).Scan(&ownerID); err != nil {
			return mapError(err)
		}

		query := `UPDATE appointments
			SET title = ?, description = ?, date = ?, start_time = ?, duration_minutes = ?,
				location = ?, status = ?, client_name = ?, client_surname = ?, phone = ?,
				birth_date = ?, updated_at = ?
			WHERE id = ?`

		result, err := tx.Exec(query,
			appointment.Title,
			nullString(appointment.Description),
			appointment.Date,
			appointment.StartTime,
			appointment.DurationMinutes,
			nullString(appointment.Location),
			appointment.Status,
			nullString(appointment.ClientName),
			nullString(appointment.ClientSurname),
			nullString(appointment.Phone),
			nullString(appointment.BirthDate),
			appointment.UpdatedAt.Format(time.RFC3339),
			appointment.ID,
		)
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
	})
}

// GetAppointment fetches a single booking by id.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}

	row := r.db.conn.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	return scanAppointment(row)
}

// ListAppointments returns bookings matching the filter ordered by date then
// start time.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.DateTo)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date, start_time, id"

	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var appointments []persistence.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return appointments, nil
}

// DeleteAppointment removes a booking permanently.
func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var (
		appointment persistence.Appointment
		description sql.NullString
		location    sql.NullString
		clientName  sql.NullString
		surname     sql.NullString
		phone       sql.NullString
		birthDate   sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := row.Scan(
		&appointment.ID,
		&appointment.OwnerID,
		&appointment.Title,
		&description,
		&appointment.Date,
		&appointment.StartTime,
		&appointment.DurationMinutes,
		&location,
		&appointment.Status,
		&clientName,
		&surname,
		&phone,
		&birthDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Appointment{}, mapError(err)
	}

	appointment.Description = stringPtr(description)
	appointment.Location = stringPtr(location)
	appointment.ClientName = stringPtr(clientName)
	appointment.ClientSurname = stringPtr(surname)
	appointment.Phone = stringPtr(phone)
	appointment.BirthDate = stringPtr(birthDate)
	appointment.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	appointment.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return appointment, nil
}
