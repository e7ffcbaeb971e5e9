package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/appointment-manager/internal/application"
	"github.com/example/appointment-manager/internal/export"
)

// ExportHandler streams the principal's appointments as CSV or iCalendar.
type ExportHandler struct {
	service   appointmentService
	responder responder
	now       func() time.Time
}

func NewExportHandler(service appointmentService, now func() time.Time, logger *slog.Logger) *ExportHandler {
	if now == nil {
		now = time.Now
	}
	return &ExportHandler{service: service, responder: newResponder(defaultLogger(logger)), now: now}
}

// Export answers GET /appointments/export?format=csv|ics with optional from,
// to and status filters.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	appointments, err := h.service.ListAppointments(r.Context(), buildListParams(query, principal))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="appointments.csv"`)
		if err := export.WriteCSV(w, appointments); err != nil {
			h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "csv export failed", "error", err)
		}
	case "ics", "ical", "icalendar":
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="appointments.ics"`)
		if err := export.WriteICalendar(w, appointments, h.now()); err != nil {
			h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "icalendar export failed", "error", err)
		}
	default:
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"format": "format must be csv or ics"},
		})
	}
}
