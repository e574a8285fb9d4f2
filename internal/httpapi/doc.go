// Package httpapi is the gin HTTP surface of the back-office: public site
// endpoints (contact form, newsletter, chat intake, published content),
// the auth endpoints (login, logout, session), and the admin endpoints
// guarded by the super-admin gate (content management, password change,
// dashboard).
//
// Every response uses one envelope: {"data": ...} on success and
// {"error": "..."} on failure. Handlers translate engine and store errors
// into HTTP status codes; they never leak internal error text for 5xx
// responses.
package httpapi
