package application

import (
	"log/slog"
	"sync"
	"time"

	"github.com/example/appointment-manager/internal/timeutil"
)

// ReminderScheduler fires a log notification shortly before each confirmed
// appointment starts. It keeps one timer per appointment; replanning an
// appointment replaces its timer, cancelling removes it.
type ReminderScheduler struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	lead     time.Duration
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
	stopped  bool
}

// ReminderOption customises scheduler construction.
type ReminderOption func(*ReminderScheduler)

// WithReminderLead sets how long before the start time the reminder fires.
func WithReminderLead(lead time.Duration) ReminderOption {
	return func(r *ReminderScheduler) {
		if lead > 0 {
			r.lead = lead
		}
	}
}

// WithReminderLocation sets the time zone appointment wall-clock times are
// interpreted in.
func WithReminderLocation(location *time.Location) ReminderOption {
	return func(r *ReminderScheduler) {
		if location != nil {
			r.location = location
		}
	}
}

// WithReminderClock overrides the time source.
func WithReminderClock(now func() time.Time) ReminderOption {
	return func(r *ReminderScheduler) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReminderScheduler constructs a scheduler delivering reminders to the log.
func NewReminderScheduler(logger *slog.Logger, opts ...ReminderOption) *ReminderScheduler {
	r := &ReminderScheduler{
		timers:   make(map[string]*time.Timer),
		lead:     30 * time.Minute,
		location: time.Local,
		now:      time.Now,
		logger:   defaultLogger(logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan arms a reminder for the appointment. Appointments already started or
// starting within the lead window are skipped.
func (r *ReminderScheduler) Plan(appointment Appointment) {
	if r == nil || appointment.ID == "" {
		return
	}

	start, ok := r.startInstant(appointment)
	if !ok {
		return
	}
	fireAt := start.Add(-r.lead)
	delay := fireAt.Sub(r.now())
	if delay <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	if existing, ok := r.timers[appointment.ID]; ok {
		existing.Stop()
	}

	id := appointment.ID
	title := appointment.Title
	r.timers[id] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, id)
		r.mu.Unlock()
		r.logger.Info("appointment reminder",
			"appointment_id", id,
			"title", title,
			"date", appointment.Date,
			"start_time", appointment.StartTime,
		)
	})
}

// Cancel drops any pending reminder for the appointment.
func (r *ReminderScheduler) Cancel(appointmentID string) {
	if r == nil || appointmentID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if timer, ok := r.timers[appointmentID]; ok {
		timer.Stop()
		delete(r.timers, appointmentID)
	}
}

// Stop cancels every pending reminder. The scheduler accepts no new plans
// afterwards.
func (r *ReminderScheduler) Stop() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
}

// Pending reports how many reminders are armed.
func (r *ReminderScheduler) Pending() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

func (r *ReminderScheduler) startInstant(appointment Appointment) (time.Time, bool) {
	day, err := timeutil.ParseDate(appointment.Date)
	if err != nil {
		return time.Time{}, false
	}
	minutes, err := timeutil.ParseClock(appointment.StartTime)
	if err != nil {
		return time.Time{}, false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, r.location).
		Add(time.Duration(minutes) * time.Minute)
	return start, true
}
