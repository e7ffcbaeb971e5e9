package scheduling

import "testing"

func TestDetectConflicts_ClassifiesPairs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		a, b     Appointment
		buffer   int
		wantKind ConflictKind
		wantSev  Severity
		wantNone bool
	}{
		{
			name:     "touching boundary is contiguous, not a conflict",
			a:        confirmed("a", "2026-03-16", "09:00", 60),
			b:        confirmed("b", "2026-03-16", "10:00", 30),
			buffer:   15,
			wantNone: true,
		},
		{
			name:     "partial overlap",
			a:        confirmed("a", "2026-03-16", "09:00", 60),
			b:        confirmed("b", "2026-03-16", "09:30", 30),
			buffer:   15,
			wantKind: ConflictOverlap,
			wantSev:  SeverityHigh,
		},
		{
			name:     "identical start is a double booking",
			a:        confirmed("a", "2026-03-16", "14:00", 60),
			b:        confirmed("b", "2026-03-16", "14:00", 30),
			buffer:   15,
			wantKind: ConflictDoubleBooking,
			wantSev:  SeverityHigh,
		},
		{
			name:     "one minute gap is too close",
			a:        confirmed("a", "2026-03-16", "09:00", 30),
			b:        confirmed("b", "2026-03-16", "09:31", 30),
			buffer:   15,
			wantKind: ConflictTooClose,
			wantSev:  SeverityMedium,
		},
		{
			name:     "sub-buffer gap is too close",
			a:        confirmed("a", "2026-03-16", "09:00", 30),
			b:        confirmed("b", "2026-03-16", "09:40", 30),
			buffer:   15,
			wantKind: ConflictTooClose,
			wantSev:  SeverityMedium,
		},
		{
			name:     "gap equal to buffer is fine",
			a:        confirmed("a", "2026-03-16", "09:00", 30),
			b:        confirmed("b", "2026-03-16", "09:45", 30),
			buffer:   15,
			wantNone: true,
		},
		{
			name:     "different dates never conflict",
			a:        confirmed("a", "2026-03-16", "09:00", 60),
			b:        confirmed("b", "2026-03-17", "09:00", 60),
			buffer:   15,
			wantNone: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conflicts := DetectConflicts([]Appointment{tc.a, tc.b}, tc.buffer)
			if tc.wantNone {
				if len(conflicts) != 0 {
					t.Fatalf("expected no conflicts, got %+v", conflicts)
				}
				return
			}
			if len(conflicts) != 1 {
				t.Fatalf("expected exactly one conflict, got %+v", conflicts)
			}
			got := conflicts[0]
			if got.Kind != tc.wantKind || got.Severity != tc.wantSev {
				t.Fatalf("got %s/%s, want %s/%s", got.Kind, got.Severity, tc.wantKind, tc.wantSev)
			}
			if got.Explanation == "" || got.Resolution == "" {
				t.Fatalf("conflict must carry explanation and resolution text: %+v", got)
			}
		})
	}
}

func TestDetectConflicts_SymmetricAndSelfFree(t *testing.T) {
	t.Parallel()

	a := confirmed("a", "2026-03-16", "09:00", 60)
	b := confirmed("b", "2026-03-16", "09:30", 30)

	forward := DetectConflicts([]Appointment{a, b}, 15)
	reversed := DetectConflicts([]Appointment{b, a}, 15)
	if len(forward) != 1 || len(reversed) != 1 {
		t.Fatalf("expected one conflict both ways, got %d and %d", len(forward), len(reversed))
	}
	if forward[0].Kind != reversed[0].Kind {
		t.Fatalf("classification depends on input order: %s vs %s", forward[0].Kind, reversed[0].Kind)
	}

	if got := DetectConflicts([]Appointment{a}, 15); len(got) != 0 {
		t.Fatalf("an appointment must not conflict with itself: %+v", got)
	}
}

func TestDetectConflicts_SkipsCancelledAppointments(t *testing.T) {
	t.Parallel()

	a := confirmed("a", "2026-03-16", "09:00", 60)
	b := confirmed("b", "2026-03-16", "09:00", 60)
	b.Status = StatusCancelled

	if got := DetectConflicts([]Appointment{a, b}, 15); len(got) != 0 {
		t.Fatalf("cancelled appointments are inert history, got %+v", got)
	}
}

func TestDetectConflicts_ComparesOnlySameDatePairs(t *testing.T) {
	t.Parallel()

	set := []Appointment{
		confirmed("mon-1", "2026-03-16", "09:00", 60),
		confirmed("mon-2", "2026-03-16", "09:30", 60),
		confirmed("tue-1", "2026-03-17", "09:00", 60),
		confirmed("tue-2", "2026-03-17", "09:00", 30),
		confirmed("wed-1", "2026-03-18", "09:00", 60),
	}

	conflicts := DetectConflicts(set, 15)
	if len(conflicts) != 2 {
		t.Fatalf("expected one conflict per day, got %+v", conflicts)
	}
	for _, c := range conflicts {
		if c.Appointments[0].Date != c.Appointments[1].Date {
			t.Fatalf("cross-date pair reported: %+v", c)
		}
	}
}

func TestDetectConflicts_DefaultBufferApplies(t *testing.T) {
	t.Parallel()

	// 10 minute gap, default buffer 15.
	set := []Appointment{
		confirmed("a", "2026-03-16", "09:00", 30),
		confirmed("b", "2026-03-16", "09:40", 30),
	}

	conflicts := DetectConflicts(set, 0)
	if len(conflicts) != 1 || conflicts[0].Kind != ConflictTooClose {
		t.Fatalf("expected tooClose with the default buffer, got %+v", conflicts)
	}
}

func TestDetectConflicts_CarriesBothAppointments(t *testing.T) {
	t.Parallel()

	a := confirmed("a", "2026-03-16", "14:00", 60)
	b := confirmed("b", "2026-03-16", "14:00", 30)

	conflicts := DetectConflicts([]Appointment{a, b}, 15)
	if len(conflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", conflicts)
	}
	ids := map[string]bool{
		conflicts[0].Appointments[0].ID: true,
		conflicts[0].Appointments[1].ID: true,
	}
	if !ids["a"] || !ids["b"] {
		t.Fatalf("conflict must carry both involved appointments, got %+v", conflicts[0])
	}
}
