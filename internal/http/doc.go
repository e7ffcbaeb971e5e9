// Package http provides HTTP handlers and middleware for the appointment API.
//
// The router exposes the following endpoints:
//   - POST /users: registers an owner account. Body: {"email","password","displayName"}.
//   - POST /sessions: issues a session token. Body: {"email","password"}. Response:
//     {"token","expiresAt"} with the token also surfaced via the `X-Session-Token`
//     header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and clears the cookie.
//   - GET /appointments, POST /appointments, GET/PUT/DELETE /appointments/{id},
//     POST /appointments/{id}/cancel: appointment management endpoints exchanging the
//     `appointmentDTO` payload defined in appointment_handler.go. Create and update
//     responses include advisory conflict warnings.
//   - GET /conflicts?from=YYYY-MM-DD&to=YYYY-MM-DD: scans the owner's confirmed
//     appointments for double bookings, overlaps and too-close pairs.
//   - GET /availability/slots?date=YYYY-MM-DD&durationMinutes=N: lists bookable start
//     times honouring work-hour rules, occupancy and advance-booking limits.
//   - GET/POST /availability/rules, PUT/DELETE /availability/rules/{id}: per-weekday
//     work-hour rule management.
//   - GET/PUT /availability/settings: scheduling preferences (granularity, default
//     duration, buffer and advance limits).
//   - GET /appointments/export?format=csv|ics: downloads the owner's appointments as
//     CSV or iCalendar.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
