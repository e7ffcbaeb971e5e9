// Package testfixtures provides deterministic builders for appointment domain
// records used across service and persistence tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/appointment-manager/internal/application"
	"github.com/example/appointment-manager/internal/persistence"
	"github.com/example/appointment-manager/internal/scheduling"
)

var (
	ownerCounter       uint64
	appointmentCounter uint64
	ruleCounter        uint64
	sessionCounter     uint64
)

var referenceTime = time.Date(2026, time.March, 16, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures. It
// falls on a Monday so weekday based availability rules behave predictably.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Appointment fixtures -------------------------

// AppointmentFixture represents a deterministic booking record that can be
// materialised for application, scheduling or persistence tests.
type AppointmentFixture struct {
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

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*AppointmentFixture)

// NewAppointmentFixture returns a deterministic appointment fixture with
// optional overrides. Successive fixtures land on consecutive hours of the
// reference day and never overlap by default.
func NewAppointmentFixture(opts ...AppointmentOption) AppointmentFixture {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	fixture := AppointmentFixture{
		ID:              fmt.Sprintf("appointment-%03d", idx),
		OwnerID:         "owner-001",
		Title:           fmt.Sprintf("Appointment %03d", idx),
		Date:            referenceTime.Format("2006-01-02"),
		StartTime:       fmt.Sprintf("%02d:00", 9+idx%8),
		DurationMinutes: 60,
		Status:          string(scheduling.StatusConfirmed),
		CreatedAt:       referenceTime,
		UpdatedAt:       referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAppointmentID overrides the generated appointment ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.ID = id
	}
}

// WithAppointmentOwner sets the owning account ID.
func WithAppointmentOwner(ownerID string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.OwnerID = ownerID
	}
}

// WithAppointmentTitle overrides the title.
func WithAppointmentTitle(title string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Title = title
	}
}

// WithAppointmentSlot sets the date, start time and duration in one call.
func WithAppointmentSlot(date, startTime string, durationMinutes int) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Date = date
		f.StartTime = startTime
		f.DurationMinutes = durationMinutes
	}
}

// WithAppointmentStatus overrides the lifecycle status.
func WithAppointmentStatus(status string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Status = status
	}
}

// WithAppointmentCancelled marks the fixture as cancelled.
func WithAppointmentCancelled() AppointmentOption {
	return WithAppointmentStatus(string(scheduling.StatusCancelled))
}

// WithAppointmentLocation sets the optional location.
func WithAppointmentLocation(location string) AppointmentOption {
	return func(f *AppointmentFixture) {
		value := location
		f.Location = &value
	}
}

// WithAppointmentDescription sets the optional description.
func WithAppointmentDescription(description string) AppointmentOption {
	return func(f *AppointmentFixture) {
		value := description
		f.Description = &value
	}
}

// WithAppointmentClient sets the client linking fields.
func WithAppointmentClient(name, surname, phone, birthDate string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.ClientName = stringPtrOrNil(name)
		f.ClientSurname = stringPtrOrNil(surname)
		f.Phone = stringPtrOrNil(phone)
		f.BirthDate = stringPtrOrNil(birthDate)
	}
}

// WithAppointmentTimestamps sets both created and updated timestamps.
func WithAppointmentTimestamps(created, updated time.Time) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Appointment value.
func (f AppointmentFixture) Application() application.Appointment {
	return application.Appointment{
		ID:              f.ID,
		OwnerID:         f.OwnerID,
		Title:           f.Title,
		Description:     copyStringPtr(f.Description),
		Date:            f.Date,
		StartTime:       f.StartTime,
		DurationMinutes: f.DurationMinutes,
		Location:        copyStringPtr(f.Location),
		Status:          f.Status,
		ClientName:      copyStringPtr(f.ClientName),
		ClientSurname:   copyStringPtr(f.ClientSurname),
		Phone:           copyStringPtr(f.Phone),
		BirthDate:       copyStringPtr(f.BirthDate),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Appointment value.
func (f AppointmentFixture) Persistence() persistence.Appointment {
	return persistence.Appointment{
		ID:              f.ID,
		OwnerID:         f.OwnerID,
		Title:           f.Title,
		Description:     copyStringPtr(f.Description),
		Date:            f.Date,
		StartTime:       f.StartTime,
		DurationMinutes: f.DurationMinutes,
		Location:        copyStringPtr(f.Location),
		Status:          f.Status,
		ClientName:      copyStringPtr(f.ClientName),
		ClientSurname:   copyStringPtr(f.ClientSurname),
		Phone:           copyStringPtr(f.Phone),
		BirthDate:       copyStringPtr(f.BirthDate),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Scheduling returns the fixture as a scheduling.Appointment value.
func (f AppointmentFixture) Scheduling() scheduling.Appointment {
	return scheduling.Appointment{
		ID:              f.ID,
		OwnerID:         f.OwnerID,
		Title:           f.Title,
		Date:            f.Date,
		StartTime:       f.StartTime,
		DurationMinutes: f.DurationMinutes,
		Status:          scheduling.Status(f.Status),
	}
}

// Input returns the fixture as an application.AppointmentInput.
func (f AppointmentFixture) Input() application.AppointmentInput {
	return application.AppointmentInput{
		Title:           f.Title,
		Description:     copyStringPtr(f.Description),
		Date:            f.Date,
		StartTime:       f.StartTime,
		DurationMinutes: f.DurationMinutes,
		Location:        copyStringPtr(f.Location),
		ClientName:      copyStringPtr(f.ClientName),
		ClientSurname:   copyStringPtr(f.ClientSurname),
		Phone:           copyStringPtr(f.Phone),
		BirthDate:       copyStringPtr(f.BirthDate),
	}
}

// ------------------------------ Rule fixtures -----------------------------

// RuleFixture represents a deterministic work-hour rule record.
type RuleFixture struct {
	ID        string
	OwnerID   string
	DayOfWeek int
	StartTime string
	EndTime   string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RuleOption configures the generated rule fixture.
type RuleOption func(*RuleFixture)

// NewRuleFixture returns a deterministic rule fixture with optional overrides.
func NewRuleFixture(opts ...RuleOption) RuleFixture {
	idx := atomic.AddUint64(&ruleCounter, 1)
	fixture := RuleFixture{
		ID:        fmt.Sprintf("rule-%03d", idx),
		OwnerID:   "owner-001",
		DayOfWeek: int(idx % 7),
		StartTime: "09:00",
		EndTime:   "17:00",
		Enabled:   true,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRuleID overrides the generated rule ID.
func WithRuleID(id string) RuleOption {
	return func(f *RuleFixture) {
		f.ID = id
	}
}

// WithRuleOwner sets the owning account ID.
func WithRuleOwner(ownerID string) RuleOption {
	return func(f *RuleFixture) {
		f.OwnerID = ownerID
	}
}

// WithRuleWindow sets the weekday and bookable window.
func WithRuleWindow(dayOfWeek int, startTime, endTime string) RuleOption {
	return func(f *RuleFixture) {
		f.DayOfWeek = dayOfWeek
		f.StartTime = startTime
		f.EndTime = endTime
	}
}

// WithRuleDisabled marks the rule as disabled.
func WithRuleDisabled() RuleOption {
	return func(f *RuleFixture) {
		f.Enabled = false
	}
}

// Persistence returns the fixture as a persistence.AvailabilityRule value.
func (f RuleFixture) Persistence() persistence.AvailabilityRule {
	return persistence.AvailabilityRule{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		DayOfWeek: f.DayOfWeek,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		Enabled:   f.Enabled,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Scheduling returns the fixture as a scheduling.Rule value.
func (f RuleFixture) Scheduling() scheduling.Rule {
	return scheduling.Rule{
		ID:        f.ID,
		DayOfWeek: f.DayOfWeek,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		Enabled:   f.Enabled,
	}
}

// ----------------------------- Owner fixtures -----------------------------

// OwnerFixture represents a deterministic owner account record.
type OwnerFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerOption configures the generated owner fixture.
type OwnerOption func(*OwnerFixture)

// NewOwnerFixture returns a deterministic owner fixture with optional overrides.
func NewOwnerFixture(opts ...OwnerOption) OwnerFixture {
	idx := atomic.AddUint64(&ownerCounter, 1)
	id := fmt.Sprintf("owner-%03d", idx)
	fixture := OwnerFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("Owner %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithOwnerID overrides the generated owner ID.
func WithOwnerID(id string) OwnerOption {
	return func(f *OwnerFixture) {
		f.ID = id
	}
}

// WithOwnerEmail overrides the generated email address.
func WithOwnerEmail(email string) OwnerOption {
	return func(f *OwnerFixture) {
		f.Email = email
	}
}

// WithOwnerPasswordHash overrides the generated password hash.
func WithOwnerPasswordHash(hash string) OwnerOption {
	return func(f *OwnerFixture) {
		f.PasswordHash = hash
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f OwnerFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID}
}

// Application returns the fixture as an application.User value.
func (f OwnerFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f OwnerFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("owner-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUserID sets the owning account ID.
func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = id
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revoked timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	var revoked *time.Time
	if f.RevokedAt != nil {
		t := *f.RevokedAt
		revoked = &t
	}
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: revoked,
	}
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func stringPtrOrNil(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
