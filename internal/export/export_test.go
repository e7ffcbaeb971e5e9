package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/example/appointment-manager/internal/application"
)

func sampleAppointments() []application.Appointment {
	location := "Room 2"
	description := "Follow-up, bring documents; ask about X"
	return []application.Appointment{
		{
			ID:              "appt-1",
			OwnerID:         "owner-1",
			Title:           "Intake",
			Date:            "2026-03-16",
			StartTime:       "10:00",
			DurationMinutes: 60,
			Status:          "confirmed",
			Location:        &location,
		},
		{
			ID:              "appt-2",
			OwnerID:         "owner-1",
			Title:           "Checkup",
			Date:            "2026-03-17",
			StartTime:       "09:30",
			DurationMinutes: 45,
			Status:          "cancelled",
			Description:     &description,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleAppointments()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(records))
	}
	if records[0][0] != "id" || records[0][3] != "start_time" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "appt-1" || records[1][4] != "60" || records[1][6] != "Room 2" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][5] != "cancelled" {
		t.Fatalf("status must be exported, got %v", records[2])
	}
}

func TestWriteICalendar(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := WriteICalendar(&buf, sampleAppointments(), now); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"BEGIN:VCALENDAR\r\n",
		"VERSION:2.0\r\n",
		"UID:appt-1@appointment-manager\r\n",
		"DTSTART:20260316T100000\r\n",
		"DTEND:20260316T110000\r\n",
		"SUMMARY:Intake\r\n",
		"STATUS:CANCELLED\r\n",
		"DESCRIPTION:Follow-up\\, bring documents\\; ask about X\r\n",
		"END:VCALENDAR\r\n",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}

	if strings.Count(output, "BEGIN:VEVENT") != 2 {
		t.Fatalf("expected two events:\n%s", output)
	}
}

func TestWriteICalendar_RejectsMalformedTimes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	broken := []application.Appointment{{ID: "bad", Date: "soon", StartTime: "10:00"}}
	if err := WriteICalendar(&buf, broken, time.Now()); err == nil {
		t.Fatal("expected an error for a malformed date")
	}
}
