package persistence

import "time"

// Appointment is a booking row as stored. Date is "YYYY-MM-DD", StartTime a
// minute-granular "HH:MM". The client linking fields are opaque to scheduling
// logic and pass through unchanged.
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

// AvailabilityRule is a per-weekday bookable window.
type AvailabilityRule struct {
	ID        string
	OwnerID   string
	DayOfWeek int
	StartTime string
	EndTime   string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailabilitySettings is the singleton-per-owner scheduling configuration.
type AvailabilitySettings struct {
	OwnerID                string
	SlotGranularityMinutes int
	DefaultDurationMinutes int
	BufferMinutes          int
	MinAdvanceHours        int
	MaxAdvanceDays         int
	UpdatedAt              time.Time
}

// User is the authenticated owner account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is an opaque-token authentication session.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
