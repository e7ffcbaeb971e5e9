package scheduling

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/appointment-manager/internal/timeutil"
)

// Duration bounds accepted for a booking, in minutes.
const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 180
)

// ErrInvalidDuration indicates the requested duration falls outside the
// accepted booking range.
var ErrInvalidDuration = errors.New("scheduling: duration out of range")

// SlotRequest describes one availability computation.
type SlotRequest struct {
	// Date is the calendar day being queried, "YYYY-MM-DD".
	Date string
	// DurationMinutes is the length of the booking being placed.
	DurationMinutes int
	// Booked holds the appointments already occupying the day. Entries on
	// other dates or with a non-confirmed status are ignored.
	Booked []Appointment
	// ExcludeAppointmentID skips one appointment during the occupancy scan,
	// used when editing an existing appointment in place.
	ExcludeAppointmentID string
	// Rules restricts the bookable windows; empty means the default window.
	Rules []Rule
	// Settings supplies granularity and advance-booking limits. Zero values
	// fall back to defaults.
	Settings Settings
	// Now anchors the MinAdvanceHours / MaxAdvanceDays checks. The zero value
	// disables both, keeping the computation a pure function of the schedule.
	Now time.Time
}

// ComputeAvailableSlots enumerates the bookable start times on a day.
//
// A candidate start t is returned iff [t, t+duration) fits a configured
// window, intersects no confirmed booking (excluding ExcludeAppointmentID)
// and respects the advance-booking limits when Now is set. When the excluded
// appointment's own start time survives validation but lost to the occupancy
// scan, it is re-inserted: editing an appointment must never make its own
// unmodified slot disappear. The result is sorted ascending; an empty, non-nil
// slice means the day is fully booked.
func ComputeAvailableSlots(req SlotRequest) ([]string, error) {
	if req.DurationMinutes < MinDurationMinutes || req.DurationMinutes > MaxDurationMinutes {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, req.DurationMinutes)
	}

	settings := normalizeSettings(req.Settings)

	windows, err := dayWindows(req.Date, req.Rules)
	if err != nil {
		return nil, err
	}

	occupied, excludedStart, err := occupiedIntervals(req)
	if err != nil {
		return nil, err
	}

	slots := make([]string, 0, 32)
	seen := make(map[int]struct{})
	for _, window := range windows {
		for start := window.Start; start+req.DurationMinutes <= window.End; start += settings.SlotGranularityMinutes {
			if _, dup := seen[start]; dup {
				continue
			}
			if !withinAdvanceLimits(req.Date, start, settings, req.Now) {
				continue
			}
			candidate := timeutil.NewInterval(start, req.DurationMinutes)
			if intersectsAny(candidate, occupied) {
				continue
			}
			seen[start] = struct{}{}
			slots = append(slots, timeutil.FormatClock(start))
		}
	}

	// Edit-in-place stability: the appointment being edited keeps its current
	// start time available even when granularity or a window edge dropped it.
	if excludedStart >= 0 {
		if _, ok := seen[excludedStart]; !ok {
			candidate := timeutil.NewInterval(excludedStart, req.DurationMinutes)
			if !intersectsAny(candidate, occupied) {
				slots = append(slots, timeutil.FormatClock(excludedStart))
			}
		}
	}

	sort.Strings(slots)
	return slots, nil
}

func normalizeSettings(settings Settings) Settings {
	defaults := DefaultSettings()
	if settings.SlotGranularityMinutes <= 0 {
		settings.SlotGranularityMinutes = defaults.SlotGranularityMinutes
	}
	if settings.DefaultDurationMinutes <= 0 {
		settings.DefaultDurationMinutes = defaults.DefaultDurationMinutes
	}
	if settings.BufferMinutes < 0 {
		settings.BufferMinutes = defaults.BufferMinutes
	}
	return settings
}

// occupiedIntervals collects the confirmed intervals on the requested date and
// reports the excluded appointment's start offset, or -1 when absent.
func occupiedIntervals(req SlotRequest) ([]timeutil.Interval, int, error) {
	occupied := make([]timeutil.Interval, 0, len(req.Booked))
	excludedStart := -1

	for _, appt := range req.Booked {
		if appt.Status != StatusConfirmed || appt.Date != req.Date {
			continue
		}
		start, err := timeutil.ParseClock(appt.StartTime)
		if err != nil {
			return nil, -1, fmt.Errorf("scheduling: appointment %s: %w", appt.ID, err)
		}
		if appt.DurationMinutes <= 0 {
			return nil, -1, fmt.Errorf("scheduling: appointment %s: non-positive duration %d", appt.ID, appt.DurationMinutes)
		}
		if req.ExcludeAppointmentID != "" && appt.ID == req.ExcludeAppointmentID {
			excludedStart = start
			continue
		}
		occupied = append(occupied, timeutil.NewInterval(start, appt.DurationMinutes))
	}

	return occupied, excludedStart, nil
}

func intersectsAny(candidate timeutil.Interval, occupied []timeutil.Interval) bool {
	for _, interval := range occupied {
		if candidate.Intersects(interval) {
			return true
		}
	}
	return false
}

func withinAdvanceLimits(date string, startMinutes int, settings Settings, now time.Time) bool {
	if now.IsZero() {
		return true
	}
	day, err := timeutil.ParseDate(date)
	if err != nil {
		return false
	}
	slotStart := day.Add(time.Duration(startMinutes) * time.Minute)

	if settings.MinAdvanceHours > 0 {
		earliest := now.Add(time.Duration(settings.MinAdvanceHours) * time.Hour)
		if slotStart.Before(earliest) {
			return false
		}
	}
	if settings.MaxAdvanceDays > 0 {
		latest := now.AddDate(0, 0, settings.MaxAdvanceDays)
		if slotStart.After(latest) {
			return false
		}
	}
	return true
}
