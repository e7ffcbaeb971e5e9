package testfixtures

import (
	"testing"
	"time"

	"github.com/example/appointment-manager/internal/scheduling"
)

func TestAppointmentFixture(t *testing.T) {
	t.Parallel()

	fixture := NewAppointmentFixture(
		WithAppointmentID("appt-1"),
		WithAppointmentOwner("owner-9"),
		WithAppointmentSlot("2026-03-16", "10:00", 45),
		WithAppointmentLocation("Room 2"),
		WithAppointmentClient("Jane", "Doe", "555-0101", "1990-01-01"),
	)

	record := fixture.Persistence()
	if record.ID != "appt-1" || record.OwnerID != "owner-9" {
		t.Fatalf("unexpected identity fields: %+v", record)
	}
	if record.Date != "2026-03-16" || record.StartTime != "10:00" || record.DurationMinutes != 45 {
		t.Fatalf("unexpected slot fields: %+v", record)
	}
	if record.Location == nil || *record.Location != "Room 2" {
		t.Fatalf("expected the location to carry over, got %+v", record.Location)
	}
	if record.ClientSurname == nil || *record.ClientSurname != "Doe" {
		t.Fatalf("expected the client fields to carry over, got %+v", record)
	}

	view := fixture.Scheduling()
	if view.Status != scheduling.StatusConfirmed {
		t.Fatalf("fixtures default to confirmed, got %q", view.Status)
	}

	input := fixture.Input()
	if input.Title != fixture.Title || input.StartTime != "10:00" {
		t.Fatalf("unexpected input projection: %+v", input)
	}
}

func TestAppointmentFixture_MutationsDoNotShareOptionalFields(t *testing.T) {
	t.Parallel()

	fixture := NewAppointmentFixture(WithAppointmentDescription("original"))

	first := fixture.Application()
	second := fixture.Application()
	*first.Description = "mutated"

	if *second.Description != "original" {
		t.Fatal("projections must not share optional field storage")
	}
}

func TestAppointmentFixture_CancelledStatus(t *testing.T) {
	t.Parallel()

	fixture := NewAppointmentFixture(WithAppointmentCancelled())
	if fixture.Scheduling().Status != scheduling.StatusCancelled {
		t.Fatalf("expected cancelled, got %q", fixture.Status)
	}
}

func TestRuleFixture(t *testing.T) {
	t.Parallel()

	fixture := NewRuleFixture(
		WithRuleID("rule-1"),
		WithRuleOwner("owner-9"),
		WithRuleWindow(1, "09:00", "12:00"),
		WithRuleDisabled(),
	)

	record := fixture.Persistence()
	if record.DayOfWeek != 1 || record.StartTime != "09:00" || record.EndTime != "12:00" {
		t.Fatalf("unexpected window: %+v", record)
	}
	if record.Enabled {
		t.Fatal("expected the rule to be disabled")
	}
	if fixture.Scheduling().ID != "rule-1" {
		t.Fatalf("unexpected scheduling projection: %+v", fixture.Scheduling())
	}
}

func TestOwnerAndSessionFixtures(t *testing.T) {
	t.Parallel()

	owner := NewOwnerFixture(WithOwnerID("owner-9"), WithOwnerEmail("nine@example.com"))
	if owner.Principal().UserID != "owner-9" {
		t.Fatalf("unexpected principal: %+v", owner.Principal())
	}
	if owner.Persistence().Email != "nine@example.com" {
		t.Fatalf("unexpected persistence projection: %+v", owner.Persistence())
	}

	revokedAt := ReferenceTime().Add(time.Hour)
	session := NewSessionFixture(
		WithSessionUserID("owner-9"),
		WithSessionToken("token-a"),
		WithSessionRevokedAt(revokedAt),
	)
	record := session.Persistence()
	if record.UserID != "owner-9" || record.Token != "token-a" {
		t.Fatalf("unexpected session record: %+v", record)
	}
	if record.RevokedAt == nil || !record.RevokedAt.Equal(revokedAt) {
		t.Fatalf("expected revoked timestamp, got %+v", record.RevokedAt)
	}
}
