package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/appointment-manager/internal/persistence"
	"github.com/example/appointment-manager/internal/scheduling"
	"github.com/example/appointment-manager/internal/timeutil"
)

// AppointmentStore captures the persistence interactions needed by the service.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appointment persistence.Appointment) error
	GetAppointment(ctx context.Context, id string) (persistence.Appointment, error)
	UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
	ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error)
}

// AvailabilityStore exposes work-hour rules and scheduling settings.
type AvailabilityStore interface {
	UpsertRule(ctx context.Context, rule persistence.AvailabilityRule) error
	ListRules(ctx context.Context, ownerID string) ([]persistence.AvailabilityRule, error)
	DeleteRule(ctx context.Context, id string) error
	GetSettings(ctx context.Context, ownerID string) (persistence.AvailabilitySettings, error)
	SaveSettings(ctx context.Context, settings persistence.AvailabilitySettings) error
}

// ReminderPlanner schedules and cancels appointment reminders.
type ReminderPlanner interface {
	Plan(appointment Appointment)
	Cancel(appointmentID string)
}

// AppointmentService orchestrates validation, conflict detection and
// persistence for appointment operations.
type AppointmentService struct {
	appointments AppointmentStore
	availability AvailabilityStore
	reminders    ReminderPlanner
	warnings     *warningCache
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// AppointmentServiceOption customises service construction.
type AppointmentServiceOption func(*AppointmentService)

// WithReminderPlanner attaches a reminder planner notified on every mutation.
func WithReminderPlanner(planner ReminderPlanner) AppointmentServiceOption {
	return func(s *AppointmentService) { s.reminders = planner }
}

// WithAppointmentLogger attaches a base logger.
func WithAppointmentLogger(logger *slog.Logger) AppointmentServiceOption {
	return func(s *AppointmentService) { s.logger = logger }
}

// NewAppointmentService wires dependencies for appointment operations.
func NewAppointmentService(appointments AppointmentStore, availability AvailabilityStore, idGenerator func() string, now func() time.Time, opts ...AppointmentServiceOption) *AppointmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	s := &AppointmentService{
		appointments: appointments,
		availability: availability,
		idGenerator:  idGenerator,
		now:          now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.warnings = newWarningCache(0, 0, s.now)
	s.logger = defaultLogger(s.logger)
	return s
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, attrs...)
}

// CreateAppointment validates the request, persists the booking and reports
// any conflicts the new booking introduces. Conflicts warn, they never block.
func (s *AppointmentService) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (Appointment, []ConflictWarning, error) {
	if s == nil {
		return Appointment{}, nil, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return Appointment{}, nil, fmt.Errorf("appointment store not configured")
	}

	principal := params.Principal
	if principal.UserID == "" {
		return Appointment{}, nil, ErrUnauthorized
	}

	input := params.Input
	settings := s.loadSettings(ctx, principal.UserID)
	if input.DurationMinutes == 0 {
		input.DurationMinutes = settings.DefaultDurationMinutes
	}

	vErr := &ValidationError{}
	validateAppointmentCore(input, vErr)
	if vErr.HasErrors() {
		return Appointment{}, nil, vErr
	}

	now := s.now()
	appointment := Appointment{
		ID:              s.idGenerator(),
		OwnerID:         principal.UserID,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		Date:            input.Date,
		StartTime:       input.StartTime,
		DurationMinutes: input.DurationMinutes,
		Location:        input.Location,
		Status:          string(scheduling.StatusConfirmed),
		ClientName:      input.ClientName,
		ClientSurname:   input.ClientSurname,
		Phone:           input.Phone,
		BirthDate:       input.BirthDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	warnings, err := s.detectConflictsAround(ctx, appointment, settings)
	if err != nil {
		return Appointment{}, nil, err
	}

	if err := s.appointments.CreateAppointment(ctx, toPersistenceAppointment(appointment)); err != nil {
		return Appointment{}, nil, mapAppointmentRepoError(err)
	}

	s.afterMutation(ctx, "CreateAppointment", appointment, false)
	return appointment, warnings, nil
}

// GetAppointment fetches a booking owned by the principal.
func (s *AppointmentService) GetAppointment(ctx context.Context, principal Principal, appointmentID string) (Appointment, error) {
	if s == nil {
		return Appointment{}, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return Appointment{}, fmt.Errorf("appointment store not configured")
	}

	stored, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return Appointment{}, mapAppointmentRepoError(err)
	}
	if stored.OwnerID != principal.UserID {
		return Appointment{}, ErrUnauthorized
	}
	return fromPersistenceAppointment(stored), nil
}

// UpdateAppointment applies validation and authorization before rewriting the
// booking. The stored appointment's owner and status survive the update.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, params UpdateAppointmentParams) (Appointment, []ConflictWarning, error) {
	if s == nil {
		return Appointment{}, nil, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return Appointment{}, nil, fmt.Errorf("appointment store not configured")
	}

	stored, err := s.appointments.GetAppointment(ctx, params.AppointmentID)
	if err != nil {
		return Appointment{}, nil, mapAppointmentRepoError(err)
	}
	if stored.OwnerID != params.Principal.UserID {
		return Appointment{}, nil, ErrUnauthorized
	}

	input := params.Input
	settings := s.loadSettings(ctx, stored.OwnerID)
	if input.DurationMinutes == 0 {
		input.DurationMinutes = stored.DurationMinutes
	}

	vErr := &ValidationError{}
	validateAppointmentCore(input, vErr)
	if vErr.HasErrors() {
		return Appointment{}, nil, vErr
	}

	updated := fromPersistenceAppointment(stored)
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = input.Description
	updated.Date = input.Date
	updated.StartTime = input.StartTime
	updated.DurationMinutes = input.DurationMinutes
	updated.Location = input.Location
	updated.ClientName = input.ClientName
	updated.ClientSurname = input.ClientSurname
	updated.Phone = input.Phone
	updated.BirthDate = input.BirthDate
	updated.UpdatedAt = s.now()

	warnings, err := s.detectConflictsAround(ctx, updated, settings)
	if err != nil {
		return Appointment{}, nil, err
	}

	if err := s.appointments.UpdateAppointment(ctx, toPersistenceAppointment(updated)); err != nil {
		return Appointment{}, nil, mapAppointmentRepoError(err)
	}

	s.afterMutation(ctx, "UpdateAppointment", updated, false)
	return updated, warnings, nil
}

// CancelAppointment flips the booking to cancelled, freeing its slot while
// keeping the record as history.
func (s *AppointmentService) CancelAppointment(ctx context.Context, principal Principal, appointmentID string) (Appointment, error) {
	if s == nil {
		return Appointment{}, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return Appointment{}, fmt.Errorf("appointment store not configured")
	}

	stored, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return Appointment{}, mapAppointmentRepoError(err)
	}
	if stored.OwnerID != principal.UserID {
		return Appointment{}, ErrUnauthorized
	}

	stored.Status = string(scheduling.StatusCancelled)
	if err := s.appointments.UpdateAppointment(ctx, stored); err != nil {
		return Appointment{}, mapAppointmentRepoError(err)
	}

	cancelled := fromPersistenceAppointment(stored)
	s.afterMutation(ctx, "CancelAppointment", cancelled, true)
	return cancelled, nil
}

// DeleteAppointment removes a booking permanently.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, principal Principal, appointmentID string) error {
	if s == nil {
		return fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return fmt.Errorf("appointment store not configured")
	}

	stored, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return mapAppointmentRepoError(err)
	}
	if stored.OwnerID != principal.UserID {
		return ErrUnauthorized
	}

	if err := s.appointments.DeleteAppointment(ctx, appointmentID); err != nil {
		return mapAppointmentRepoError(err)
	}

	s.afterMutation(ctx, "DeleteAppointment", fromPersistenceAppointment(stored), true)
	return nil
}

// ListAppointments enumerates the principal's bookings ordered by date and
// start time.
func (s *AppointmentService) ListAppointments(ctx context.Context, params ListAppointmentsParams) ([]Appointment, error) {
	if s == nil {
		return nil, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return nil, fmt.Errorf("appointment store not configured")
	}
	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	vErr := &ValidationError{}
	validateOptionalDate("dateFrom", params.DateFrom, vErr)
	validateOptionalDate("dateTo", params.DateTo, vErr)
	if params.Status != "" && params.Status != string(scheduling.StatusConfirmed) && params.Status != string(scheduling.StatusCancelled) {
		vErr.add("status", "status must be confirmed or cancelled")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	stored, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{
		OwnerID:  params.Principal.UserID,
		DateFrom: params.DateFrom,
		DateTo:   params.DateTo,
		Status:   params.Status,
	})
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}

	appointments := make([]Appointment, 0, len(stored))
	for _, record := range stored {
		appointments = append(appointments, fromPersistenceAppointment(record))
	}
	return appointments, nil
}

// ListConflicts scans the principal's confirmed bookings in a date range and
// reports every double booking, overlap and too-close pair. Results for an
// unchanged schedule are served from a short-lived cache.
func (s *AppointmentService) ListConflicts(ctx context.Context, params ListConflictsParams) ([]ConflictWarning, error) {
	if s == nil {
		return nil, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return nil, fmt.Errorf("appointment store not configured")
	}
	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	vErr := &ValidationError{}
	validateOptionalDate("dateFrom", params.DateFrom, vErr)
	validateOptionalDate("dateTo", params.DateTo, vErr)
	if vErr.HasErrors() {
		return nil, vErr
	}

	key := buildWarningCacheKey(params)
	if cached, ok := s.warnings.Get(key); ok {
		return cached, nil
	}

	stored, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{
		OwnerID:  params.Principal.UserID,
		DateFrom: params.DateFrom,
		DateTo:   params.DateTo,
		Status:   string(scheduling.StatusConfirmed),
	})
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}

	settings := s.loadSettings(ctx, params.Principal.UserID)
	candidates := make([]scheduling.Appointment, 0, len(stored))
	for _, record := range stored {
		candidates = append(candidates, toSchedulingAppointment(fromPersistenceAppointment(record)))
	}

	warnings := toConflictWarnings(scheduling.DetectConflicts(candidates, settings.BufferMinutes))
	s.warnings.Store(key, warnings)
	return warnings, nil
}

// detectConflictsAround runs the detector over the candidate's day with the
// candidate swapped in for its stored version, then keeps only findings that
// involve the candidate.
func (s *AppointmentService) detectConflictsAround(ctx context.Context, candidate Appointment, settings scheduling.Settings) ([]ConflictWarning, error) {
	stored, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{
		OwnerID:  candidate.OwnerID,
		DateFrom: candidate.Date,
		DateTo:   candidate.Date,
		Status:   string(scheduling.StatusConfirmed),
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, mapAppointmentRepoError(err)
	}

	day := make([]scheduling.Appointment, 0, len(stored)+1)
	for _, record := range stored {
		if record.ID == candidate.ID {
			continue
		}
		day = append(day, toSchedulingAppointment(fromPersistenceAppointment(record)))
	}
	day = append(day, toSchedulingAppointment(candidate))

	warnings := make([]ConflictWarning, 0, 2)
	for _, conflict := range scheduling.DetectConflicts(day, settings.BufferMinutes) {
		if conflict.Appointments[0].ID == candidate.ID || conflict.Appointments[1].ID == candidate.ID {
			warnings = append(warnings, toConflictWarning(conflict))
		}
	}
	if len(warnings) == 0 {
		return nil, nil
	}
	return warnings, nil
}

func (s *AppointmentService) loadSettings(ctx context.Context, ownerID string) scheduling.Settings {
	settings := scheduling.DefaultSettings()
	if s.availability == nil {
		return settings
	}
	stored, err := s.availability.GetSettings(ctx, ownerID)
	if err != nil {
		return settings
	}
	return toSchedulingSettings(stored)
}

func (s *AppointmentService) afterMutation(ctx context.Context, operation string, appointment Appointment, removed bool) {
	s.warnings.Invalidate()
	if s.reminders != nil {
		if removed || appointment.Status != string(scheduling.StatusConfirmed) {
			s.reminders.Cancel(appointment.ID)
		} else {
			s.reminders.Plan(appointment)
		}
	}
	s.loggerWith(ctx, operation,
		"appointment_id", appointment.ID,
		"date", appointment.Date,
		"start_time", appointment.StartTime,
	).InfoContext(ctx, "appointment mutated")
}

func validateAppointmentCore(input AppointmentInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}

	if input.Date == "" {
		vErr.add("date", "date is required")
	} else if _, err := timeutil.ParseDate(input.Date); err != nil {
		vErr.add("date", "date must be formatted YYYY-MM-DD")
	}

	startMinutes := -1
	if input.StartTime == "" {
		vErr.add("startTime", "start time is required")
	} else if parsed, err := timeutil.ParseClock(input.StartTime); err != nil {
		vErr.add("startTime", "start time must be formatted HH:MM")
	} else {
		startMinutes = parsed
	}

	if input.DurationMinutes < scheduling.MinDurationMinutes || input.DurationMinutes > scheduling.MaxDurationMinutes {
		vErr.add("durationMinutes", fmt.Sprintf("duration must be between %d and %d minutes",
			scheduling.MinDurationMinutes, scheduling.MaxDurationMinutes))
	} else if startMinutes >= 0 && startMinutes+input.DurationMinutes > timeutil.MinutesPerDay {
		vErr.add("durationMinutes", "appointment must end within the day")
	}
}

func validateOptionalDate(field, value string, vErr *ValidationError) {
	if value == "" {
		return
	}
	if _, err := timeutil.ParseDate(value); err != nil {
		vErr.add(field, "date must be formatted YYYY-MM-DD")
	}
}

func toPersistenceAppointment(appointment Appointment) persistence.Appointment {
	return persistence.Appointment{
		ID:              appointment.ID,
		OwnerID:         appointment.OwnerID,
		Title:           appointment.Title,
		Description:     appointment.Description,
		Date:            appointment.Date,
		StartTime:       appointment.StartTime,
		DurationMinutes: appointment.DurationMinutes,
		Location:        appointment.Location,
		Status:          appointment.Status,
		ClientName:      appointment.ClientName,
		ClientSurname:   appointment.ClientSurname,
		Phone:           appointment.Phone,
		BirthDate:       appointment.BirthDate,
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}
}

func fromPersistenceAppointment(record persistence.Appointment) Appointment {
	return Appointment{
		ID:              record.ID,
		OwnerID:         record.OwnerID,
		Title:           record.Title,
		Description:     record.Description,
		Date:            record.Date,
		StartTime:       record.StartTime,
		DurationMinutes: record.DurationMinutes,
		Location:        record.Location,
		Status:          record.Status,
		ClientName:      record.ClientName,
		ClientSurname:   record.ClientSurname,
		Phone:           record.Phone,
		BirthDate:       record.BirthDate,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

func toSchedulingAppointment(appointment Appointment) scheduling.Appointment {
	return scheduling.Appointment{
		ID:              appointment.ID,
		OwnerID:         appointment.OwnerID,
		Title:           appointment.Title,
		Date:            appointment.Date,
		StartTime:       appointment.StartTime,
		DurationMinutes: appointment.DurationMinutes,
		Status:          scheduling.Status(appointment.Status),
	}
}

func toSchedulingSettings(stored persistence.AvailabilitySettings) scheduling.Settings {
	return scheduling.Settings{
		SlotGranularityMinutes: stored.SlotGranularityMinutes,
		DefaultDurationMinutes: stored.DefaultDurationMinutes,
		BufferMinutes:          stored.BufferMinutes,
		MinAdvanceHours:        stored.MinAdvanceHours,
		MaxAdvanceDays:         stored.MaxAdvanceDays,
	}
}

func toConflictWarning(conflict scheduling.Conflict) ConflictWarning {
	return ConflictWarning{
		Kind:           string(conflict.Kind),
		Severity:       string(conflict.Severity),
		AppointmentIDs: [2]string{conflict.Appointments[0].ID, conflict.Appointments[1].ID},
		Explanation:    conflict.Explanation,
		Resolution:     conflict.Resolution,
	}
}

func toConflictWarnings(conflicts []scheduling.Conflict) []ConflictWarning {
	if len(conflicts) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, conflict := range conflicts {
		warnings = append(warnings, toConflictWarning(conflict))
	}
	return warnings
}

func mapAppointmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("appointment", "appointment violates a storage constraint")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("ownerId", "owner account does not exist")
		return vErr
	}
	return err
}
