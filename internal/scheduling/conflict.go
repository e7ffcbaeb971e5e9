package scheduling

import (
	"fmt"
	"sort"

	"github.com/example/appointment-manager/internal/timeutil"
)

// ConflictKind classifies how two appointments collide.
type ConflictKind string

const (
	// ConflictDoubleBooking marks two appointments sharing the exact start time.
	ConflictDoubleBooking ConflictKind = "doubleBooking"
	// ConflictOverlap marks partially intersecting occupied intervals.
	ConflictOverlap ConflictKind = "overlap"
	// ConflictTooClose marks a gap smaller than the configured buffer.
	ConflictTooClose ConflictKind = "tooClose"
)

// Severity ranks how urgently a conflict needs the owner's attention.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Conflict is a derived finding over a pair of confirmed appointments. It is
// recomputed on demand and never persisted.
type Conflict struct {
	Kind         ConflictKind
	Severity     Severity
	Appointments [2]Appointment
	Explanation  string
	Resolution   string
}

// DetectConflicts scans the confirmed appointment set for double bookings,
// overlaps and too-close pairs. Appointments are bucketed by date first, so
// only same-day pairs are compared. The detector mutates nothing and suggests
// resolutions as text only. bufferMinutes <= 0 falls back to the default.
func DetectConflicts(appointments []Appointment, bufferMinutes int) []Conflict {
	if bufferMinutes <= 0 {
		bufferMinutes = DefaultSettings().BufferMinutes
	}

	byDate := make(map[string][]Appointment)
	for _, appt := range appointments {
		if appt.Status != StatusConfirmed {
			continue
		}
		byDate[appt.Date] = append(byDate[appt.Date], appt)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var conflicts []Conflict
	for _, date := range dates {
		sameDay := byDate[date]
		sort.SliceStable(sameDay, func(i, j int) bool {
			if sameDay[i].StartTime == sameDay[j].StartTime {
				return sameDay[i].ID < sameDay[j].ID
			}
			return sameDay[i].StartTime < sameDay[j].StartTime
		})
		for i := 0; i < len(sameDay); i++ {
			for j := i + 1; j < len(sameDay); j++ {
				if conflict, ok := classifyPair(sameDay[i], sameDay[j], bufferMinutes); ok {
					conflicts = append(conflicts, conflict)
				}
			}
		}
	}

	return conflicts
}

// classifyPair applies the severity ordering: identical start beats interval
// intersection, which beats a sub-buffer gap. A gap of zero here means the
// intervals touch exactly, and contiguous appointments are fine. Malformed
// times cannot be classified and yield no finding.
func classifyPair(a, b Appointment, bufferMinutes int) (Conflict, bool) {
	aStart, err := timeutil.ParseClock(a.StartTime)
	if err != nil {
		return Conflict{}, false
	}
	bStart, err := timeutil.ParseClock(b.StartTime)
	if err != nil {
		return Conflict{}, false
	}

	aInterval := timeutil.NewInterval(aStart, a.DurationMinutes)
	bInterval := timeutil.NewInterval(bStart, b.DurationMinutes)
	gap := aInterval.GapTo(bInterval)

	switch {
	case aStart == bStart:
		return Conflict{
			Kind:         ConflictDoubleBooking,
			Severity:     SeverityHigh,
			Appointments: [2]Appointment{a, b},
			Explanation:  fmt.Sprintf("%q and %q both start at %s on %s", a.Title, b.Title, a.StartTime, a.Date),
			Resolution:   "move one appointment to a free slot",
		}, true
	case aInterval.Intersects(bInterval):
		return Conflict{
			Kind:         ConflictOverlap,
			Severity:     SeverityHigh,
			Appointments: [2]Appointment{a, b},
			Explanation: fmt.Sprintf("%q (%s, %d min) overlaps %q (%s, %d min) on %s",
				a.Title, a.StartTime, a.DurationMinutes, b.Title, b.StartTime, b.DurationMinutes, a.Date),
			Resolution: "shorten or move one of the appointments",
		}, true
	case gap > 0 && gap < bufferMinutes:
		return Conflict{
			Kind:         ConflictTooClose,
			Severity:     SeverityMedium,
			Appointments: [2]Appointment{a, b},
			Explanation: fmt.Sprintf("only %d minutes between %q and %q on %s; %d required",
				gap, a.Title, b.Title, a.Date, bufferMinutes),
			Resolution: "leave a longer break between the two appointments",
		}, true
	default:
		return Conflict{}, false
	}
}
