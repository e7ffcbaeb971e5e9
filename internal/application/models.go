package application

import "time"

// Principal represents the authenticated owner invoking a service method.
type Principal struct {
	UserID string
}

// AppointmentInput captures caller provided appointment fields.
type AppointmentInput struct {
	Title           string
	Description     *string
	Date            string
	StartTime       string
	DurationMinutes int
	Location        *string
	ClientName      *string
	ClientSurname   *string
	Phone           *string
	BirthDate       *string
}

// Appointment represents a persisted booking as exposed by the services.
type Appointment struct {
	ID              string
	OwnerID         string
	Title           string
	Description     *string
	Date            string
	StartTime       string
	DurationMinutes int
	Location        *string
	Status          string
	ClientName      *string
	ClientSurname   *string
	Phone           *string
	BirthDate       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ConflictWarning describes a scheduling conflict surfaced to callers. Warnings
// are advisory and never block a write.
type ConflictWarning struct {
	Kind           string
	Severity       string
	AppointmentIDs [2]string
	Explanation    string
	Resolution     string
}

// CreateAppointmentParams wraps the data required to create an appointment.
type CreateAppointmentParams struct {
	Principal Principal
	Input     AppointmentInput
}

// UpdateAppointmentParams wraps the data required to update an existing appointment.
type UpdateAppointmentParams struct {
	Principal     Principal
	AppointmentID string
	Input         AppointmentInput
}

// ListAppointmentsParams wraps the data required to list appointments.
type ListAppointmentsParams struct {
	Principal Principal
	DateFrom  string
	DateTo    string
	Status    string
}

// ListConflictsParams wraps the data required to scan a date range for conflicts.
type ListConflictsParams struct {
	Principal Principal
	DateFrom  string
	DateTo    string
}

// SlotsParams wraps the data required to compute bookable start times.
type SlotsParams struct {
	Principal Principal
	Date      string
	// DurationMinutes of zero means the owner's configured default applies.
	DurationMinutes int
	// ExcludeAppointmentID frees that appointment's interval, used when
	// editing a booking in place.
	ExcludeAppointmentID string
}

// RuleInput captures caller provided work-hour rule fields.
type RuleInput struct {
	DayOfWeek int
	StartTime string
	EndTime   string
	Enabled   bool
}

// Rule represents a per-weekday bookable window exposed by the services.
type Rule struct {
	ID        string
	OwnerID   string
	DayOfWeek int
	StartTime string
	EndTime   string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertRuleParams wraps the data required to create or rewrite a rule.
type UpsertRuleParams struct {
	Principal Principal
	// RuleID is empty on create.
	RuleID string
	Input  RuleInput
}

// SettingsInput captures caller provided scheduling preferences.
type SettingsInput struct {
	SlotGranularityMinutes int
	DefaultDurationMinutes int
	BufferMinutes          int
	MinAdvanceHours        int
	MaxAdvanceDays         int
}

// Settings represents the owner's scheduling preferences.
type Settings struct {
	OwnerID                string
	SlotGranularityMinutes int
	DefaultDurationMinutes int
	BufferMinutes          int
	MinAdvanceHours        int
	MaxAdvanceDays         int
	UpdatedAt              time.Time
}

// User represents an owner account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authenticated session issued to an owner.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// RegisterParams captures the data required to create an owner account.
type RegisterParams struct {
	Email       string
	Password    string
	DisplayName string
}

// AuthenticateParams captures the data required to authenticate an owner.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
