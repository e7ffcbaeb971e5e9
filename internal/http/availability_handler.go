package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/appointment-manager/internal/application"
)

type availabilityService interface {
	Slots(ctx context.Context, params application.SlotsParams) ([]string, error)
	ListRules(ctx context.Context, principal application.Principal) ([]application.Rule, error)
	UpsertRule(ctx context.Context, params application.UpsertRuleParams) (application.Rule, error)
	DeleteRule(ctx context.Context, principal application.Principal, ruleID string) error
	GetSettings(ctx context.Context, principal application.Principal) (application.Settings, error)
	SaveSettings(ctx context.Context, principal application.Principal, input application.SettingsInput) (application.Settings, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

// Slots answers GET /availability/slots?date=YYYY-MM-DD&durationMinutes=N.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	duration := 0
	if raw := strings.TrimSpace(query.Get("durationMinutes")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"durationMinutes": "duration must be a number of minutes"},
			})
			return
		}
		duration = parsed
	}

	slots, err := h.service.Slots(r.Context(), application.SlotsParams{
		Principal:            principal,
		Date:                 strings.TrimSpace(query.Get("date")),
		DurationMinutes:      duration,
		ExcludeAppointmentID: strings.TrimSpace(query.Get("excludeAppointmentId")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotsResponse{Slots: slots})
}

func (h *AvailabilityHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	rules, err := h.service.ListRules(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, rulesResponse{Rules: toRuleDTOs(rules)})
}

func (h *AvailabilityHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	h.upsertRule(w, r, "")
}

func (h *AvailabilityHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID, ok := RuleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ruleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRuleID)
		return
	}
	h.upsertRule(w, r, ruleID)
}

func (h *AvailabilityHandler) upsertRule(w http.ResponseWriter, r *http.Request, ruleID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	rule, err := h.service.UpsertRule(r.Context(), application.UpsertRuleParams{
		Principal: principal,
		RuleID:    ruleID,
		Input: application.RuleInput{
			DayOfWeek: req.DayOfWeek,
			StartTime: strings.TrimSpace(req.StartTime),
			EndTime:   strings.TrimSpace(req.EndTime),
			Enabled:   req.Enabled,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if ruleID == "" {
		status = http.StatusCreated
	}
	h.responder.writeJSON(r.Context(), w, status, ruleResponse{Rule: toRuleDTO(rule)})
}

func (h *AvailabilityHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ruleID, ok := RuleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ruleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRuleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteRule(r.Context(), principal, ruleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AvailabilityHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	settings, err := h.service.GetSettings(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, settingsResponse{Settings: toSettingsDTO(settings)})
}

func (h *AvailabilityHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	settings, err := h.service.SaveSettings(r.Context(), principal, application.SettingsInput{
		SlotGranularityMinutes: req.SlotGranularityMinutes,
		DefaultDurationMinutes: req.DefaultDurationMinutes,
		BufferMinutes:          req.BufferMinutes,
		MinAdvanceHours:        req.MinAdvanceHours,
		MaxAdvanceDays:         req.MaxAdvanceDays,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, settingsResponse{Settings: toSettingsDTO(settings)})
}

type slotsResponse struct {
	Slots []string `json:"slots"`
}

type ruleRequest struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Enabled   bool   `json:"enabled"`
}

type ruleDTO struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Enabled   bool   `json:"enabled"`
}

type ruleResponse struct {
	Rule ruleDTO `json:"rule"`
}

type rulesResponse struct {
	Rules []ruleDTO `json:"rules"`
}

func toRuleDTO(rule application.Rule) ruleDTO {
	return ruleDTO{
		ID:        rule.ID,
		DayOfWeek: rule.DayOfWeek,
		StartTime: rule.StartTime,
		EndTime:   rule.EndTime,
		Enabled:   rule.Enabled,
	}
}

func toRuleDTOs(rules []application.Rule) []ruleDTO {
	if len(rules) == 0 {
		return nil
	}
	out := make([]ruleDTO, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleDTO(rule))
	}
	return out
}

type settingsRequest struct {
	SlotGranularityMinutes int `json:"slotGranularityMinutes"`
	DefaultDurationMinutes int `json:"defaultDurationMinutes"`
	BufferMinutes          int `json:"bufferMinutes"`
	MinAdvanceHours        int `json:"minAdvanceHours"`
	MaxAdvanceDays         int `json:"maxAdvanceDays"`
}

type settingsDTO struct {
	SlotGranularityMinutes int    `json:"slotGranularityMinutes"`
	DefaultDurationMinutes int    `json:"defaultDurationMinutes"`
	BufferMinutes          int    `json:"bufferMinutes"`
	MinAdvanceHours        int    `json:"minAdvanceHours"`
	MaxAdvanceDays         int    `json:"maxAdvanceDays"`
	UpdatedAt              string `json:"updatedAt,omitempty"`
}

type settingsResponse struct {
	Settings settingsDTO `json:"settings"`
}

func toSettingsDTO(settings application.Settings) settingsDTO {
	dto := settingsDTO{
		SlotGranularityMinutes: settings.SlotGranularityMinutes,
		DefaultDurationMinutes: settings.DefaultDurationMinutes,
		BufferMinutes:          settings.BufferMinutes,
		MinAdvanceHours:        settings.MinAdvanceHours,
		MaxAdvanceDays:         settings.MaxAdvanceDays,
	}
	if !settings.UpdatedAt.IsZero() {
		dto.UpdatedAt = settings.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}
