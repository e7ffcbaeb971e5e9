package persistence

import (
	"context"
	"time"
)

// AppointmentFilter narrows appointment queries.
type AppointmentFilter struct {
	OwnerID  string
	DateFrom string // inclusive, "YYYY-MM-DD"; empty means unbounded
	DateTo   string // inclusive, "YYYY-MM-DD"; empty means unbounded
	Status   string // empty means any status
}

// AppointmentRepository stores bookings.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) error
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// AvailabilityRepository stores the owner's work-hour rules and settings.
type AvailabilityRepository interface {
	UpsertRule(ctx context.Context, rule AvailabilityRule) error
	ListRules(ctx context.Context, ownerID string) ([]AvailabilityRule, error)
	DeleteRule(ctx context.Context, id string) error
	GetSettings(ctx context.Context, ownerID string) (AvailabilitySettings, error)
	SaveSettings(ctx context.Context, settings AvailabilitySettings) error
}

// UserRepository stores owner accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
