// Package export renders appointment lists as CSV and iCalendar documents.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/appointment-manager/internal/application"
	"github.com/example/appointment-manager/internal/timeutil"
)

// WriteCSV renders the appointments as comma separated values with a header
// row. Optional fields render as empty cells.
func WriteCSV(w io.Writer, appointments []application.Appointment) error {
	writer := csv.NewWriter(w)

	header := []string{
		"id", "title", "date", "start_time", "duration_minutes", "status",
		"location", "client_name", "client_surname", "phone", "description",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}

	for _, appointment := range appointments {
		record := []string{
			appointment.ID,
			appointment.Title,
			appointment.Date,
			appointment.StartTime,
			strconv.Itoa(appointment.DurationMinutes),
			appointment.Status,
			deref(appointment.Location),
			deref(appointment.ClientName),
			deref(appointment.ClientSurname),
			deref(appointment.Phone),
			deref(appointment.Description),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("export: write csv record %s: %w", appointment.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteICalendar renders the appointments as an iCalendar (RFC 5545) document.
// Cancelled appointments carry STATUS:CANCELLED so calendar clients can grey
// them out. Appointment times are emitted as floating local times.
func WriteICalendar(w io.Writer, appointments []application.Appointment, now time.Time) error {
	var builder strings.Builder

	writeLine(&builder, "BEGIN:VCALENDAR")
	writeLine(&builder, "VERSION:2.0")
	writeLine(&builder, "PRODID:-//appointment-manager//EN")
	writeLine(&builder, "CALSCALE:GREGORIAN")

	stamp := now.UTC().Format("20060102T150405Z")

	for _, appointment := range appointments {
		start, end, err := eventBounds(appointment)
		if err != nil {
			return err
		}

		writeLine(&builder, "BEGIN:VEVENT")
		writeLine(&builder, "UID:"+appointment.ID+"@appointment-manager")
		writeLine(&builder, "DTSTAMP:"+stamp)
		writeLine(&builder, "DTSTART:"+start)
		writeLine(&builder, "DTEND:"+end)
		writeLine(&builder, "SUMMARY:"+escapeText(appointment.Title))
		if appointment.Location != nil && *appointment.Location != "" {
			writeLine(&builder, "LOCATION:"+escapeText(*appointment.Location))
		}
		if appointment.Description != nil && *appointment.Description != "" {
			writeLine(&builder, "DESCRIPTION:"+escapeText(*appointment.Description))
		}
		if appointment.Status == "cancelled" {
			writeLine(&builder, "STATUS:CANCELLED")
		} else {
			writeLine(&builder, "STATUS:CONFIRMED")
		}
		writeLine(&builder, "END:VEVENT")
	}

	writeLine(&builder, "END:VCALENDAR")

	_, err := io.WriteString(w, builder.String())
	return err
}

func eventBounds(appointment application.Appointment) (string, string, error) {
	day, err := timeutil.ParseDate(appointment.Date)
	if err != nil {
		return "", "", fmt.Errorf("export: appointment %s: %w", appointment.ID, err)
	}
	minutes, err := timeutil.ParseClock(appointment.StartTime)
	if err != nil {
		return "", "", fmt.Errorf("export: appointment %s: %w", appointment.ID, err)
	}

	start := day.Add(time.Duration(minutes) * time.Minute)
	end := start.Add(time.Duration(appointment.DurationMinutes) * time.Minute)
	const layout = "20060102T150405"
	return start.Format(layout), end.Format(layout), nil
}

// writeLine terminates each content line with CRLF as RFC 5545 requires.
func writeLine(builder *strings.Builder, line string) {
	builder.WriteString(line)
	builder.WriteString("\r\n")
}

func escapeText(value string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
		"\r", "",
	)
	return replacer.Replace(value)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
