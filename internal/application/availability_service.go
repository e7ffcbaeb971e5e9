package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/appointment-manager/internal/persistence"
	"github.com/example/appointment-manager/internal/scheduling"
	"github.com/example/appointment-manager/internal/timeutil"
)

// AvailabilityService computes bookable slots and manages the owner's
// work-hour rules and scheduling preferences.
type AvailabilityService struct {
	appointments AppointmentStore
	availability AvailabilityStore
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewAvailabilityService wires dependencies for availability operations.
func NewAvailabilityService(appointments AppointmentStore, availability AvailabilityStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		appointments: appointments,
		availability: availability,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// Slots enumerates the bookable start times on a day for the principal.
func (s *AvailabilityService) Slots(ctx context.Context, params SlotsParams) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("AvailabilityService is nil")
	}
	if s.appointments == nil {
		return nil, fmt.Errorf("appointment store not configured")
	}
	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if params.Date == "" {
		vErr.add("date", "date is required")
	} else if _, err := timeutil.ParseDate(params.Date); err != nil {
		vErr.add("date", "date must be formatted YYYY-MM-DD")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	settings := s.loadSettings(ctx, params.Principal.UserID)
	duration := params.DurationMinutes
	if duration == 0 {
		duration = settings.DefaultDurationMinutes
	}

	booked, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{
		OwnerID:  params.Principal.UserID,
		DateFrom: params.Date,
		DateTo:   params.Date,
		Status:   string(scheduling.StatusConfirmed),
	})
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return nil, mapAppointmentRepoError(err)
	}

	rules, err := s.loadRules(ctx, params.Principal.UserID)
	if err != nil {
		return nil, err
	}

	occupancy := make([]scheduling.Appointment, 0, len(booked))
	for _, record := range booked {
		occupancy = append(occupancy, toSchedulingAppointment(fromPersistenceAppointment(record)))
	}

	slots, err := scheduling.ComputeAvailableSlots(scheduling.SlotRequest{
		Date:                 params.Date,
		DurationMinutes:      duration,
		Booked:               occupancy,
		ExcludeAppointmentID: params.ExcludeAppointmentID,
		Rules:                rules,
		Settings:             settings,
		Now:                  s.now(),
	})
	if err != nil {
		if errors.Is(err, scheduling.ErrInvalidDuration) {
			vErr := &ValidationError{}
			vErr.add("durationMinutes", fmt.Sprintf("duration must be between %d and %d minutes",
				scheduling.MinDurationMinutes, scheduling.MaxDurationMinutes))
			return nil, vErr
		}
		return nil, err
	}
	return slots, nil
}

// ListRules returns the principal's work-hour rules.
func (s *AvailabilityService) ListRules(ctx context.Context, principal Principal) ([]Rule, error) {
	if s == nil {
		return nil, fmt.Errorf("AvailabilityService is nil")
	}
	if s.availability == nil {
		return nil, fmt.Errorf("availability store not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	stored, err := s.availability.ListRules(ctx, principal.UserID)
	if err != nil {
		return nil, mapAppointmentRepoError(err)
	}

	rules := make([]Rule, 0, len(stored))
	for _, record := range stored {
		rules = append(rules, fromPersistenceRule(record))
	}
	return rules, nil
}

// UpsertRule creates or rewrites a work-hour rule owned by the principal.
func (s *AvailabilityService) UpsertRule(ctx context.Context, params UpsertRuleParams) (Rule, error) {
	if s == nil {
		return Rule{}, fmt.Errorf("AvailabilityService is nil")
	}
	if s.availability == nil {
		return Rule{}, fmt.Errorf("availability store not configured")
	}
	if params.Principal.UserID == "" {
		return Rule{}, ErrUnauthorized
	}

	input := params.Input
	vErr := &ValidationError{}
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		vErr.add("dayOfWeek", "day of week must be between 0 (Sunday) and 6 (Saturday)")
	}
	start, startErr := timeutil.ParseClock(input.StartTime)
	if startErr != nil {
		vErr.add("startTime", "start time must be formatted HH:MM")
	}
	end, endErr := timeutil.ParseClock(input.EndTime)
	if endErr != nil {
		vErr.add("endTime", "end time must be formatted HH:MM")
	}
	if startErr == nil && endErr == nil && start >= end {
		vErr.add("time", "start time must be before end time")
	}
	if vErr.HasErrors() {
		return Rule{}, vErr
	}

	ruleID := params.RuleID
	if ruleID == "" {
		ruleID = s.idGenerator()
	} else if err := s.ensureRuleOwned(ctx, params.Principal, ruleID); err != nil {
		return Rule{}, err
	}

	record := persistence.AvailabilityRule{
		ID:        ruleID,
		OwnerID:   params.Principal.UserID,
		DayOfWeek: input.DayOfWeek,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Enabled:   input.Enabled,
	}
	if err := s.availability.UpsertRule(ctx, record); err != nil {
		return Rule{}, mapAppointmentRepoError(err)
	}

	s.loggerWith(ctx, "UpsertRule", "rule_id", ruleID, "day_of_week", input.DayOfWeek).
		InfoContext(ctx, "availability rule saved")
	return fromPersistenceRule(record), nil
}

// DeleteRule removes a work-hour rule owned by the principal.
func (s *AvailabilityService) DeleteRule(ctx context.Context, principal Principal, ruleID string) error {
	if s == nil {
		return fmt.Errorf("AvailabilityService is nil")
	}
	if s.availability == nil {
		return fmt.Errorf("availability store not configured")
	}
	if principal.UserID == "" {
		return ErrUnauthorized
	}

	if err := s.ensureRuleOwned(ctx, principal, ruleID); err != nil {
		return err
	}
	if err := s.availability.DeleteRule(ctx, ruleID); err != nil {
		return mapAppointmentRepoError(err)
	}

	s.loggerWith(ctx, "DeleteRule", "rule_id", ruleID).InfoContext(ctx, "availability rule deleted")
	return nil
}

// GetSettings loads the principal's scheduling preferences, applying defaults
// when nothing was ever saved.
func (s *AvailabilityService) GetSettings(ctx context.Context, principal Principal) (Settings, error) {
	if s == nil {
		return Settings{}, fmt.Errorf("AvailabilityService is nil")
	}
	if s.availability == nil {
		return Settings{}, fmt.Errorf("availability store not configured")
	}
	if principal.UserID == "" {
		return Settings{}, ErrUnauthorized
	}

	stored, err := s.availability.GetSettings(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			defaults := scheduling.DefaultSettings()
			return Settings{
				OwnerID:                principal.UserID,
				SlotGranularityMinutes: defaults.SlotGranularityMinutes,
				DefaultDurationMinutes: defaults.DefaultDurationMinutes,
				BufferMinutes:          defaults.BufferMinutes,
				MinAdvanceHours:        defaults.MinAdvanceHours,
				MaxAdvanceDays:         defaults.MaxAdvanceDays,
			}, nil
		}
		return Settings{}, mapAppointmentRepoError(err)
	}
	return fromPersistenceSettings(stored), nil
}

// SaveSettings validates and persists the principal's scheduling preferences.
func (s *AvailabilityService) SaveSettings(ctx context.Context, principal Principal, input SettingsInput) (Settings, error) {
	if s == nil {
		return Settings{}, fmt.Errorf("AvailabilityService is nil")
	}
	if s.availability == nil {
		return Settings{}, fmt.Errorf("availability store not configured")
	}
	if principal.UserID == "" {
		return Settings{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if input.SlotGranularityMinutes <= 0 || input.SlotGranularityMinutes > timeutil.MinutesPerDay {
		vErr.add("slotGranularityMinutes", "granularity must be a positive number of minutes")
	}
	if input.DefaultDurationMinutes < scheduling.MinDurationMinutes || input.DefaultDurationMinutes > scheduling.MaxDurationMinutes {
		vErr.add("defaultDurationMinutes", fmt.Sprintf("default duration must be between %d and %d minutes",
			scheduling.MinDurationMinutes, scheduling.MaxDurationMinutes))
	}
	if input.BufferMinutes < 0 {
		vErr.add("bufferMinutes", "buffer must not be negative")
	}
	if input.MinAdvanceHours < 0 {
		vErr.add("minAdvanceHours", "minimum advance must not be negative")
	}
	if input.MaxAdvanceDays < 0 {
		vErr.add("maxAdvanceDays", "maximum advance must not be negative")
	}
	if vErr.HasErrors() {
		return Settings{}, vErr
	}

	record := persistence.AvailabilitySettings{
		OwnerID:                principal.UserID,
		SlotGranularityMinutes: input.SlotGranularityMinutes,
		DefaultDurationMinutes: input.DefaultDurationMinutes,
		BufferMinutes:          input.BufferMinutes,
		MinAdvanceHours:        input.MinAdvanceHours,
		MaxAdvanceDays:         input.MaxAdvanceDays,
	}
	if err := s.availability.SaveSettings(ctx, record); err != nil {
		return Settings{}, mapAppointmentRepoError(err)
	}

	s.loggerWith(ctx, "SaveSettings").InfoContext(ctx, "availability settings saved")
	return fromPersistenceSettings(record), nil
}

func (s *AvailabilityService) ensureRuleOwned(ctx context.Context, principal Principal, ruleID string) error {
	stored, err := s.availability.ListRules(ctx, principal.UserID)
	if err != nil {
		return mapAppointmentRepoError(err)
	}
	for _, rule := range stored {
		if rule.ID == ruleID {
			return nil
		}
	}
	return ErrNotFound
}

func (s *AvailabilityService) loadSettings(ctx context.Context, ownerID string) scheduling.Settings {
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

func (s *AvailabilityService) loadRules(ctx context.Context, ownerID string) ([]scheduling.Rule, error) {
	if s.availability == nil {
		return nil, nil
	}
	stored, err := s.availability.ListRules(ctx, ownerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, mapAppointmentRepoError(err)
	}
	rules := make([]scheduling.Rule, 0, len(stored))
	for _, record := range stored {
		rules = append(rules, scheduling.Rule{
			ID:        record.ID,
			DayOfWeek: record.DayOfWeek,
			StartTime: record.StartTime,
			EndTime:   record.EndTime,
			Enabled:   record.Enabled,
		})
	}
	return rules, nil
}

func fromPersistenceRule(record persistence.AvailabilityRule) Rule {
	return Rule{
		ID:        record.ID,
		OwnerID:   record.OwnerID,
		DayOfWeek: record.DayOfWeek,
		StartTime: record.StartTime,
		EndTime:   record.EndTime,
		Enabled:   record.Enabled,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func fromPersistenceSettings(record persistence.AvailabilitySettings) Settings {
	return Settings{
		OwnerID:                record.OwnerID,
		SlotGranularityMinutes: record.SlotGranularityMinutes,
		DefaultDurationMinutes: record.DefaultDurationMinutes,
		BufferMinutes:          record.BufferMinutes,
		MinAdvanceHours:        record.MinAdvanceHours,
		MaxAdvanceDays:         record.MaxAdvanceDays,
		UpdatedAt:              record.UpdatedAt,
	}
}
