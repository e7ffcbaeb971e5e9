package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/appointment-manager/internal/application"
)

type authServiceStub struct {
	registerFn     func(ctx context.Context, params application.RegisterParams) (application.User, error)
	authenticateFn func(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	revokeFn       func(ctx context.Context, token string) error
	revokedTokens  []string
}

func (s *authServiceStub) Register(ctx context.Context, params application.RegisterParams) (application.User, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, params)
	}
	return application.User{ID: "owner-1", Email: params.Email, DisplayName: params.DisplayName}, nil
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	if s.authenticateFn != nil {
		return s.authenticateFn(ctx, params)
	}
	return application.AuthenticateResult{}, application.ErrInvalidCredentials
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	s.revokedTokens = append(s.revokedTokens, token)
	if s.revokeFn != nil {
		return s.revokeFn(ctx, token)
	}
	return nil
}

type appointmentServiceStub struct {
	createFn    func(ctx context.Context, params application.CreateAppointmentParams) (application.Appointment, []application.ConflictWarning, error)
	getFn       func(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error)
	updateFn    func(ctx context.Context, params application.UpdateAppointmentParams) (application.Appointment, []application.ConflictWarning, error)
	cancelFn    func(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error)
	deleteFn    func(ctx context.Context, principal application.Principal, appointmentID string) error
	listFn      func(ctx context.Context, params application.ListAppointmentsParams) ([]application.Appointment, error)
	conflictsFn func(ctx context.Context, params application.ListConflictsParams) ([]application.ConflictWarning, error)
}

func (s *appointmentServiceStub) CreateAppointment(ctx context.Context, params application.CreateAppointmentParams) (application.Appointment, []application.ConflictWarning, error) {
	if s.createFn == nil {
		return application.Appointment{}, nil, errors.New("unexpected CreateAppointment call")
	}
	return s.createFn(ctx, params)
}

func (s *appointmentServiceStub) GetAppointment(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error) {
	if s.getFn == nil {
		return application.Appointment{}, errors.New("unexpected GetAppointment call")
	}
	return s.getFn(ctx, principal, appointmentID)
}

func (s *appointmentServiceStub) UpdateAppointment(ctx context.Context, params application.UpdateAppointmentParams) (application.Appointment, []application.ConflictWarning, error) {
	if s.updateFn == nil {
		return application.Appointment{}, nil, errors.New("unexpected UpdateAppointment call")
	}
	return s.updateFn(ctx, params)
}

func (s *appointmentServiceStub) CancelAppointment(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error) {
	if s.cancelFn == nil {
		return application.Appointment{}, errors.New("unexpected CancelAppointment call")
	}
	return s.cancelFn(ctx, principal, appointmentID)
}

func (s *appointmentServiceStub) DeleteAppointment(ctx context.Context, principal application.Principal, appointmentID string) error {
	if s.deleteFn == nil {
		return errors.New("unexpected DeleteAppointment call")
	}
	return s.deleteFn(ctx, principal, appointmentID)
}

func (s *appointmentServiceStub) ListAppointments(ctx context.Context, params application.ListAppointmentsParams) ([]application.Appointment, error) {
	if s.listFn == nil {
		return nil, errors.New("unexpected ListAppointments call")
	}
	return s.listFn(ctx, params)
}

func (s *appointmentServiceStub) ListConflicts(ctx context.Context, params application.ListConflictsParams) ([]application.ConflictWarning, error) {
	if s.conflictsFn == nil {
		return nil, errors.New("unexpected ListConflicts call")
	}
	return s.conflictsFn(ctx, params)
}

type availabilityServiceStub struct {
	slotsFn        func(ctx context.Context, params application.SlotsParams) ([]string, error)
	listRulesFn    func(ctx context.Context, principal application.Principal) ([]application.Rule, error)
	upsertRuleFn   func(ctx context.Context, params application.UpsertRuleParams) (application.Rule, error)
	deleteRuleFn   func(ctx context.Context, principal application.Principal, ruleID string) error
	getSettingsFn  func(ctx context.Context, principal application.Principal) (application.Settings, error)
	saveSettingsFn func(ctx context.Context, principal application.Principal, input application.SettingsInput) (application.Settings, error)
}

func (s *availabilityServiceStub) Slots(ctx context.Context, params application.SlotsParams) ([]string, error) {
	if s.slotsFn == nil {
		return nil, errors.New("unexpected Slots call")
	}
	return s.slotsFn(ctx, params)
}

func (s *availabilityServiceStub) ListRules(ctx context.Context, principal application.Principal) ([]application.Rule, error) {
	if s.listRulesFn == nil {
		return nil, errors.New("unexpected ListRules call")
	}
	return s.listRulesFn(ctx, principal)
}

func (s *availabilityServiceStub) UpsertRule(ctx context.Context, params application.UpsertRuleParams) (application.Rule, error) {
	if s.upsertRuleFn == nil {
		return application.Rule{}, errors.New("unexpected UpsertRule call")
	}
	return s.upsertRuleFn(ctx, params)
}

func (s *availabilityServiceStub) DeleteRule(ctx context.Context, principal application.Principal, ruleID string) error {
	if s.deleteRuleFn == nil {
		return errors.New("unexpected DeleteRule call")
	}
	return s.deleteRuleFn(ctx, principal, ruleID)
}

func (s *availabilityServiceStub) GetSettings(ctx context.Context, principal application.Principal) (application.Settings, error) {
	if s.getSettingsFn == nil {
		return application.Settings{}, errors.New("unexpected GetSettings call")
	}
	return s.getSettingsFn(ctx, principal)
}

func (s *availabilityServiceStub) SaveSettings(ctx context.Context, principal application.Principal, input application.SettingsInput) (application.Settings, error) {
	if s.saveSettingsFn == nil {
		return application.Settings{}, errors.New("unexpected SaveSettings call")
	}
	return s.saveSettingsFn(ctx, principal, input)
}

type routerStubs struct {
	auth         *authServiceStub
	appointments *appointmentServiceStub
	availability *availabilityServiceStub
	validator    fakeSessionValidator
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedHandlerNow() time.Time {
	return time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)
}

func newTestRouter(stubs routerStubs) http.Handler {
	logger := quietLogger()
	if stubs.auth == nil {
		stubs.auth = &authServiceStub{}
	}
	if stubs.appointments == nil {
		stubs.appointments = &appointmentServiceStub{}
	}
	if stubs.availability == nil {
		stubs.availability = &availabilityServiceStub{}
	}

	return NewRouter(RouterConfig{
		Auth:         NewAuthHandler(stubs.auth, logger),
		Appointments: NewAppointmentHandler(stubs.appointments, logger),
		Availability: NewAvailabilityHandler(stubs.availability, logger),
		Export:       NewExportHandler(stubs.appointments, fixedHandlerNow, logger),
		Session:      RequireSession(stubs.validator, logger),
	})
}

func authenticatedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer valid-token")
	return req
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(recorder.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return out
}

func sampleAppointment() application.Appointment {
	return application.Appointment{
		ID:              "appt-1",
		OwnerID:         "owner-1",
		Title:           "Intake",
		Date:            "2026-03-16",
		StartTime:       "10:00",
		DurationMinutes: 60,
		Status:          "confirmed",
		CreatedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("register creates an owner account", func(t *testing.T) {
		t.Parallel()

		auth := &authServiceStub{
			registerFn: func(ctx context.Context, params application.RegisterParams) (application.User, error) {
				if params.Email != "owner@example.com" {
					t.Errorf("unexpected email: %q", params.Email)
				}
				return application.User{ID: "owner-1", Email: params.Email, DisplayName: params.DisplayName}, nil
			},
		}
		router := newTestRouter(routerStubs{auth: auth})

		body := strings.NewReader(`{"email":"owner@example.com","password":"correct-horse","displayName":"Dr. Smith"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/users", body))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		user := decodeBody[userDTO](t, recorder)
		if user.ID != "owner-1" || user.DisplayName != "Dr. Smith" {
			t.Fatalf("unexpected user payload: %+v", user)
		}
	})

	t.Run("register maps duplicate emails to 409", func(t *testing.T) {
		t.Parallel()

		auth := &authServiceStub{
			registerFn: func(ctx context.Context, params application.RegisterParams) (application.User, error) {
				return application.User{}, application.ErrAlreadyExists
			},
		}
		router := newTestRouter(routerStubs{auth: auth})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/users",
			strings.NewReader(`{"email":"owner@example.com","password":"correct-horse","displayName":"Dr. Smith"}`)))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
	})

	t.Run("login issues session token via cookie and header", func(t *testing.T) {
		t.Parallel()

		expires := time.Date(2026, 3, 17, 8, 0, 0, 0, time.UTC)
		auth := &authServiceStub{
			authenticateFn: func(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
				if params.Email != "owner@example.com" || params.Password != "correct-horse" {
					return application.AuthenticateResult{}, application.ErrInvalidCredentials
				}
				return application.AuthenticateResult{
					User:    application.User{ID: "owner-1", Email: params.Email},
					Session: application.Session{Token: "token-123", ExpiresAt: expires},
				}, nil
			},
		}
		router := newTestRouter(routerStubs{auth: auth})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/sessions",
			strings.NewReader(`{"email":"Owner@Example.com","password":"correct-horse"}`)))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if got := recorder.Header().Get("X-Session-Token"); got != "token-123" {
			t.Fatalf("expected session token header, got %q", got)
		}

		var sessionCookie *http.Cookie
		for _, cookie := range recorder.Result().Cookies() {
			if cookie.Name == "session_token" {
				sessionCookie = cookie
			}
		}
		if sessionCookie == nil || sessionCookie.Value != "token-123" || !sessionCookie.HttpOnly {
			t.Fatalf("expected HttpOnly session cookie, got %+v", sessionCookie)
		}

		login := decodeBody[loginResponse](t, recorder)
		if login.Token != "token-123" {
			t.Fatalf("unexpected token in body: %q", login.Token)
		}
		if login.ExpiresAt != expires.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected expiry: %q", login.ExpiresAt)
		}
	})

	t.Run("login rejects bad credentials with 401", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{auth: &authServiceStub{}})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/sessions",
			strings.NewReader(`{"email":"owner@example.com","password":"wrong"}`)))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		response := decodeBody[errorResponse](t, recorder)
		if response.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("unexpected error code: %q", response.ErrorCode)
		}
	})

	t.Run("logout revokes the session and clears the cookie", func(t *testing.T) {
		t.Parallel()

		auth := &authServiceStub{}
		validator := fakeSessionValidator{principal: application.Principal{UserID: "owner-1"}}
		router := newTestRouter(routerStubs{auth: auth, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodDelete, "/sessions/current", nil))

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if len(auth.revokedTokens) != 1 || auth.revokedTokens[0] != "valid-token" {
			t.Fatalf("expected valid-token to be revoked, got %v", auth.revokedTokens)
		}

		cleared := false
		for _, cookie := range recorder.Result().Cookies() {
			if cookie.Name == "session_token" && cookie.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Fatal("expected the session cookie to be cleared")
		}
	})
}

func TestAppointmentHandlers(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "owner-1"}
	validator := fakeSessionValidator{principal: principal}

	t.Run("create returns appointment with conflict warnings", func(t *testing.T) {
		t.Parallel()

		appointments := &appointmentServiceStub{
			createFn: func(ctx context.Context, params application.CreateAppointmentParams) (application.Appointment, []application.ConflictWarning, error) {
				if params.Principal != principal {
					t.Errorf("unexpected principal: %+v", params.Principal)
				}
				if params.Input.Title != "Intake" || params.Input.StartTime != "10:00" {
					t.Errorf("unexpected input: %+v", params.Input)
				}
				return sampleAppointment(), []application.ConflictWarning{{
					Kind:           "overlap",
					Severity:       "high",
					AppointmentIDs: [2]string{"appt-1", "appt-2"},
					Explanation:    "the appointments overlap",
				}}, nil
			},
		}
		router := newTestRouter(routerStubs{appointments: appointments, validator: validator})

		body := strings.NewReader(`{"title":" Intake ","date":"2026-03-16","startTime":"10:00","durationMinutes":60}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodPost, "/appointments", body))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		response := decodeBody[appointmentResponse](t, recorder)
		if response.Appointment.ID != "appt-1" {
			t.Fatalf("unexpected appointment: %+v", response.Appointment)
		}
		if len(response.Warnings) != 1 || response.Warnings[0].Kind != "overlap" {
			t.Fatalf("expected the overlap warning, got %+v", response.Warnings)
		}
	})

	t.Run("create rejects malformed bodies", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodPost, "/appointments", strings.NewReader("{not json")))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("path identifiers route to the matching operations", func(t *testing.T) {
		t.Parallel()

		appointments := &appointmentServiceStub{
			getFn: func(ctx context.Context, p application.Principal, appointmentID string) (application.Appointment, error) {
				if appointmentID != "appt-1" {
					t.Errorf("unexpected appointment id: %q", appointmentID)
				}
				return sampleAppointment(), nil
			},
			cancelFn: func(ctx context.Context, p application.Principal, appointmentID string) (application.Appointment, error) {
				cancelled := sampleAppointment()
				cancelled.Status = "cancelled"
				return cancelled, nil
			},
			deleteFn: func(ctx context.Context, p application.Principal, appointmentID string) error {
				return nil
			},
		}
		router := newTestRouter(routerStubs{appointments: appointments, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet, "/appointments/appt-1", nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("GET by id: expected 200, got %d", recorder.Code)
		}

		recorder = httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodPost, "/appointments/appt-1/cancel", nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("cancel: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		response := decodeBody[appointmentResponse](t, recorder)
		if response.Appointment.Status != "cancelled" {
			t.Fatalf("expected cancelled status, got %q", response.Appointment.Status)
		}

		recorder = httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodDelete, "/appointments/appt-1", nil))
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("delete: expected 204, got %d", recorder.Code)
		}

		recorder = httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodPost, "/appointments/appt-1/reschedule", nil))
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("unknown action: expected 404, got %d", recorder.Code)
		}
	})

	t.Run("unsupported methods answer 405 with Allow", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodDelete, "/appointments", nil))

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
			t.Fatalf("expected Allow header listing POST, got %q", allow)
		}
	})

	t.Run("map service sentinel errors to HTTP status codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			err            error
			expectedStatus int
		}{
			{name: "not found", err: application.ErrNotFound, expectedStatus: http.StatusNotFound},
			{name: "foreign owner", err: application.ErrUnauthorized, expectedStatus: http.StatusForbidden},
			{name: "validation", err: &application.ValidationError{FieldErrors: map[string]string{"date": "date must use the YYYY-MM-DD format"}}, expectedStatus: http.StatusUnprocessableEntity},
			{name: "unexpected", err: errors.New("disk on fire"), expectedStatus: http.StatusInternalServerError},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				appointments := &appointmentServiceStub{
					getFn: func(ctx context.Context, p application.Principal, appointmentID string) (application.Appointment, error) {
						return application.Appointment{}, tc.err
					},
				}
				router := newTestRouter(routerStubs{appointments: appointments, validator: validator})

				recorder := httptest.NewRecorder()
				router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet, "/appointments/appt-1", nil))

				if recorder.Code != tc.expectedStatus {
					t.Fatalf("expected %d, got %d: %s", tc.expectedStatus, recorder.Code, recorder.Body.String())
				}
				if tc.expectedStatus == http.StatusUnprocessableEntity {
					response := decodeBody[errorResponse](t, recorder)
					if response.Errors["date"] == "" {
						t.Fatalf("expected field errors in payload, got %+v", response)
					}
				}
			})
		}
	})

	t.Run("list forwards query filters", func(t *testing.T) {
		t.Parallel()

		appointments := &appointmentServiceStub{
			listFn: func(ctx context.Context, params application.ListAppointmentsParams) ([]application.Appointment, error) {
				if params.DateFrom != "2026-03-16" || params.DateTo != "2026-03-17" || params.Status != "confirmed" {
					t.Errorf("unexpected list params: %+v", params)
				}
				return []application.Appointment{sampleAppointment()}, nil
			},
		}
		router := newTestRouter(routerStubs{appointments: appointments, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet, "/appointments?from=2026-03-16&to=2026-03-17&status=confirmed", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		response := decodeBody[listAppointmentsResponse](t, recorder)
		if len(response.Appointments) != 1 || response.Appointments[0].ID != "appt-1" {
			t.Fatalf("unexpected list payload: %+v", response)
		}
	})

	t.Run("conflicts endpoint serializes warnings", func(t *testing.T) {
		t.Parallel()

		appointments := &appointmentServiceStub{
			conflictsFn: func(ctx context.Context, params application.ListConflictsParams) ([]application.ConflictWarning, error) {
				if params.DateFrom != "2026-03-16" || params.DateTo != "2026-03-20" {
					t.Errorf("unexpected conflict params: %+v", params)
				}
				return []application.ConflictWarning{{
					Kind:           "tooClose",
					Severity:       "medium",
					AppointmentIDs: [2]string{"appt-1", "appt-2"},
					Resolution:     "leave a longer gap between the appointments",
				}}, nil
			},
		}
		router := newTestRouter(routerStubs{appointments: appointments, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet, "/conflicts?from=2026-03-16&to=2026-03-20", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		response := decodeBody[conflictsResponse](t, recorder)
		if len(response.Conflicts) != 1 || response.Conflicts[0].Kind != "tooClose" {
			t.Fatalf("unexpected conflicts payload: %+v", response)
		}
	})
}

func TestAvailabilityHandlers(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "owner-1"}
	validator := fakeSessionValidator{principal: principal}

	t.Run("slots forwards query parameters", func(t *testing.T) {
		t.Parallel()

		availability := &availabilityServiceStub{
			slotsFn: func(ctx context.Context, params application.SlotsParams) ([]string, error) {
				if params.Date != "2026-03-16" || params.DurationMinutes != 45 || params.ExcludeAppointmentID != "appt-9" {
					t.Errorf("unexpected slots params: %+v", params)
				}
				return []string{"09:00", "11:00"}, nil
			},
		}
		router := newTestRouter(routerStubs{availability: availability, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet,
			"/availability/slots?date=2026-03-16&durationMinutes=45&excludeAppointmentId=appt-9", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		response := decodeBody[slotsResponse](t, recorder)
		if len(response.Slots) != 2 || response.Slots[0] != "09:00" {
			t.Fatalf("unexpected slots payload: %+v", response)
		}
	})

	t.Run("slots rejects non numeric durations", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet, "/availability/slots?date=2026-03-16&durationMinutes=soon", nil))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
		response := decodeBody[errorResponse](t, recorder)
		if response.Errors["durationMinutes"] == "" {
			t.Fatalf("expected a durationMinutes field error, got %+v", response)
		}
	})

	t.Run("rule creation and update use distinct statuses", func(t *testing.T) {
		t.Parallel()

		availability := &availabilityServiceStub{
			upsertRuleFn: func(ctx context.Context, params application.UpsertRuleParams) (application.Rule, error) {
				id := params.RuleID
				if id == "" {
					id = "rule-created"
				}
				return application.Rule{
					ID:        id,
					OwnerID:   params.Principal.UserID,
					DayOfWeek: params.Input.DayOfWeek,
					StartTime: params.Input.StartTime,
					EndTime:   params.Input.EndTime,
					Enabled:   params.Input.Enabled,
				}, nil
			},
		}
		router := newTestRouter(routerStubs{availability: availability, validator: validator})

		body := `{"dayOfWeek":1,"startTime":"09:00","endTime":"12:00","enabled":true}`

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodPost, "/availability/rules", strings.NewReader(body)))
		if recorder.Code != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		created := decodeBody[ruleResponse](t, recorder)
		if created.Rule.ID != "rule-created" || created.Rule.StartTime != "09:00" {
			t.Fatalf("unexpected created rule: %+v", created.Rule)
		}

		recorder = httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodPut, "/availability/rules/rule-1", strings.NewReader(body)))
		if recorder.Code != http.StatusOK {
			t.Fatalf("update: expected 200, got %d", recorder.Code)
		}
		updated := decodeBody[ruleResponse](t, recorder)
		if updated.Rule.ID != "rule-1" {
			t.Fatalf("unexpected updated rule: %+v", updated.Rule)
		}
	})

	t.Run("rule deletion answers 204", func(t *testing.T) {
		t.Parallel()

		deleted := ""
		availability := &availabilityServiceStub{
			deleteRuleFn: func(ctx context.Context, p application.Principal, ruleID string) error {
				deleted = ruleID
				return nil
			},
		}
		router := newTestRouter(routerStubs{availability: availability, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodDelete, "/availability/rules/rule-1", nil))

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", recorder.Code)
		}
		if deleted != "rule-1" {
			t.Fatalf("expected rule-1 to be deleted, got %q", deleted)
		}
	})

	t.Run("settings round trip through the DTO", func(t *testing.T) {
		t.Parallel()

		stored := application.Settings{
			OwnerID:                "owner-1",
			SlotGranularityMinutes: 30,
			DefaultDurationMinutes: 45,
			BufferMinutes:          10,
			UpdatedAt:              time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		}
		availability := &availabilityServiceStub{
			getSettingsFn: func(ctx context.Context, p application.Principal) (application.Settings, error) {
				return stored, nil
			},
			saveSettingsFn: func(ctx context.Context, p application.Principal, input application.SettingsInput) (application.Settings, error) {
				if input.SlotGranularityMinutes != 15 {
					t.Errorf("unexpected settings input: %+v", input)
				}
				stored.SlotGranularityMinutes = input.SlotGranularityMinutes
				return stored, nil
			},
		}
		router := newTestRouter(routerStubs{availability: availability, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet, "/availability/settings", nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("get: expected 200, got %d", recorder.Code)
		}
		response := decodeBody[settingsResponse](t, recorder)
		if response.Settings.SlotGranularityMinutes != 30 || response.Settings.UpdatedAt == "" {
			t.Fatalf("unexpected settings payload: %+v", response.Settings)
		}

		recorder = httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodPut, "/availability/settings",
			strings.NewReader(`{"slotGranularityMinutes":15,"defaultDurationMinutes":45,"bufferMinutes":10}`)))
		if recorder.Code != http.StatusOK {
			t.Fatalf("save: expected 200, got %d", recorder.Code)
		}
		saved := decodeBody[settingsResponse](t, recorder)
		if saved.Settings.SlotGranularityMinutes != 15 {
			t.Fatalf("expected saved granularity, got %+v", saved.Settings)
		}
	})
}

func TestExportHandler(t *testing.T) {
	t.Parallel()

	validator := fakeSessionValidator{principal: application.Principal{UserID: "owner-1"}}
	appointments := &appointmentServiceStub{
		listFn: func(ctx context.Context, params application.ListAppointmentsParams) ([]application.Appointment, error) {
			return []application.Appointment{sampleAppointment()}, nil
		},
	}

	t.Run("defaults to CSV", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{appointments: appointments, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet, "/appointments/export", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
			t.Fatalf("expected a CSV content type, got %q", got)
		}
		if !strings.Contains(recorder.Body.String(), "appt-1") {
			t.Fatalf("expected the appointment in the CSV body:\n%s", recorder.Body.String())
		}
	})

	t.Run("renders iCalendar on request", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{appointments: appointments, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet, "/appointments/export?format=ics", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/calendar") {
			t.Fatalf("expected a calendar content type, got %q", got)
		}
		if !strings.Contains(recorder.Body.String(), "BEGIN:VCALENDAR") {
			t.Fatalf("expected an iCalendar body:\n%s", recorder.Body.String())
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{appointments: appointments, validator: validator})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authenticatedRequest(http.MethodGet, "/appointments/export?format=xml", nil))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
	})
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	t.Parallel()

	router := newTestRouter(routerStubs{
		validator: fakeSessionValidator{err: application.ErrUnauthorized},
	})

	paths := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/appointments"},
		{http.MethodGet, "/conflicts"},
		{http.MethodGet, "/appointments/export"},
		{http.MethodGet, "/availability/slots?date=2026-03-16"},
		{http.MethodGet, "/availability/settings"},
		{http.MethodDelete, "/sessions/current"},
	}

	for _, tc := range paths {
		tc := tc
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			t.Parallel()

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(tc.method, tc.target, nil))

			if recorder.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 without a token, got %d", recorder.Code)
			}
		})
	}
}
