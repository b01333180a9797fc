// Package http provides HTTP handlers and middleware for the QueueSmart API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","user"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted from
//     the Authorization header or session cookie. Returns 204 No Content and
//     clears the cookie.
//   - POST /register: creates a customer account and signs it in, returning the
//     same payload as POST /sessions.
//   - GET /locations, POST /locations, PUT /locations/{id},
//     POST /locations/{id}/toggle: location catalog endpoints exchanging the
//     `locationDTO` payload defined in location_handler.go. Listing is available
//     to any authenticated principal while mutations require staff privileges.
//   - GET /locations/{id}/queue, POST /locations/{id}/queue/serve-next: staff
//     views of a location's active queue and the serve-next operation.
//   - POST /queue/entries, GET /queue/entries/current, DELETE /queue/entries/{id},
//     POST /queue/entries/{id}/remove, PUT /queue/entries/{id}/status,
//     POST /queue/entries/{id}/reorder: queue membership endpoints exchanging the
//     `queueEntryDTO` payload defined in queue_handler.go.
//   - GET /notifications, POST /notifications/{id}/read,
//     POST /notifications/read-all: per-user notification feed and read markers.
//   - GET /appointments, POST /appointments, DELETE /appointments/{id},
//     GET /locations/{id}/slots?date=YYYY-MM-DD: appointment booking endpoints
//     exchanging the `appointmentDTO` payload defined in appointment_handler.go.
//   - GET /staff, POST /staff, DELETE /staff/{id}: administrator controlled staff
//     roster endpoints exchanging the `userDTO` payload defined in staff_handler.go.
//   - GET /stats, GET /history: usage statistics and per-user visit history.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
