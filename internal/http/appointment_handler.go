package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/appointment-manager/internal/application"
)

type appointmentService interface {
	CreateAppointment(ctx context.Context, params application.CreateAppointmentParams) (application.Appointment, []application.ConflictWarning, error)
	GetAppointment(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error)
	UpdateAppointment(ctx context.Context, params application.UpdateAppointmentParams) (application.Appointment, []application.ConflictWarning, error)
	CancelAppointment(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error)
	DeleteAppointment(ctx context.Context, principal application.Principal, appointmentID string) error
	ListAppointments(ctx context.Context, params application.ListAppointmentsParams) ([]application.Appointment, error)
	ListConflicts(ctx context.Context, params application.ListConflictsParams) ([]application.ConflictWarning, error)
}

type AppointmentHandler struct {
	service   appointmentService
	responder responder
}

func NewAppointmentHandler(service appointmentService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	appointment, warnings, err := h.service.CreateAppointment(r.Context(), application.CreateAppointmentParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderAppointment(r.Context(), w, appointment, warnings, http.StatusCreated)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	appointment, err := h.service.GetAppointment(r.Context(), principal, appointmentID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{
		Appointment: toAppointmentDTO(appointment),
	})
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	appointment, warnings, err := h.service.UpdateAppointment(r.Context(), application.UpdateAppointmentParams{
		Principal:     principal,
		AppointmentID: appointmentID,
		Input:         req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderAppointment(r.Context(), w, appointment, warnings, http.StatusOK)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	appointment, err := h.service.CancelAppointment(r.Context(), principal, appointmentID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{
		Appointment: toAppointmentDTO(appointment),
	})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteAppointment(r.Context(), principal, appointmentID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := buildListParams(r.URL.Query(), principal)

	appointments, err := h.service.ListAppointments(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAppointmentsResponse{
		Appointments: toAppointmentDTOs(appointments),
	})
}

func (h *AppointmentHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	warnings, err := h.service.ListConflicts(r.Context(), application.ListConflictsParams{
		Principal: principal,
		DateFrom:  strings.TrimSpace(query.Get("from")),
		DateTo:    strings.TrimSpace(query.Get("to")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictsResponse{
		Conflicts: toWarningDTOs(warnings),
	})
}

func (h *AppointmentHandler) renderAppointment(ctx context.Context, w http.ResponseWriter, appointment application.Appointment, warnings []application.ConflictWarning, status int) {
	h.responder.writeJSON(ctx, w, status, appointmentResponse{
		Appointment: toAppointmentDTO(appointment),
		Warnings:    toWarningDTOs(warnings),
	})
}

type appointmentRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	DurationMinutes int     `json:"durationMinutes"`
	Location        *string `json:"location"`
	ClientName      *string `json:"clientName"`
	ClientSurname   *string `json:"clientSurname"`
	Phone           *string `json:"phone"`
	BirthDate       *string `json:"birthDate"`
}

func (r appointmentRequest) toInput() application.AppointmentInput {
	return application.AppointmentInput{
		Title:           strings.TrimSpace(r.Title),
		Description:     r.Description,
		Date:            strings.TrimSpace(r.Date),
		StartTime:       strings.TrimSpace(r.StartTime),
		DurationMinutes: r.DurationMinutes,
		Location:        r.Location,
		ClientName:      r.ClientName,
		ClientSurname:   r.ClientSurname,
		Phone:           r.Phone,
		BirthDate:       r.BirthDate,
	}
}

type appointmentResponse struct {
	Appointment appointmentDTO       `json:"appointment"`
	Warnings    []conflictWarningDTO `json:"warnings,omitempty"`
}

type listAppointmentsResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
}

type conflictsResponse struct {
	Conflicts []conflictWarningDTO `json:"conflicts"`
}

type appointmentDTO struct {
	ID              string  `json:"id"`
	OwnerID         string  `json:"ownerId"`
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	DurationMinutes int     `json:"durationMinutes"`
	Location        *string `json:"location,omitempty"`
	Status          string  `json:"status"`
	ClientName      *string `json:"clientName,omitempty"`
	ClientSurname   *string `json:"clientSurname,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	BirthDate       *string `json:"birthDate,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toAppointmentDTO(appointment application.Appointment) appointmentDTO {
	return appointmentDTO{
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
		CreatedAt:       appointment.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       appointment.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toAppointmentDTOs(appointments []application.Appointment) []appointmentDTO {
	if len(appointments) == 0 {
		return nil
	}
	out := make([]appointmentDTO, 0, len(appointments))
	for _, appointment := range appointments {
		out = append(out, toAppointmentDTO(appointment))
	}
	return out
}

type conflictWarningDTO struct {
	Kind           string    `json:"kind"`
	Severity       string    `json:"severity"`
	AppointmentIDs [2]string `json:"appointmentIds"`
	Explanation    string    `json:"explanation,omitempty"`
	Resolution     string    `json:"resolution,omitempty"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			Kind:           warning.Kind,
			Severity:       warning.Severity,
			AppointmentIDs: warning.AppointmentIDs,
			Explanation:    warning.Explanation,
			Resolution:     warning.Resolution,
		})
	}
	return out
}

func buildListParams(values url.Values, principal application.Principal) application.ListAppointmentsParams {
	return application.ListAppointmentsParams{
		Principal: principal,
		DateFrom:  strings.TrimSpace(values.Get("from")),
		DateTo:    strings.TrimSpace(values.Get("to")),
		Status:    strings.TrimSpace(values.Get("status")),
	}
}
