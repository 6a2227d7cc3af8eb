// Package settingsapi provides an HTTP client for the settings REST API.
//
// # Overview
//
// The settings backend stores one value per (section path, setting name)
// pair. This package is the only place that knows the wire format; the
// service layer builds the cache-first fetch path and the ordered write
// pipeline on top of it.
//
// # Architecture
//
//   - client.go: HTTP client implementation and request/response handling
//   - types.go: Data structures mirroring the API schema
//
// # API Endpoints
//
//   - GET    /api/settings                      list of section paths
//   - GET    /api/settings/{section}            settings of one section
//   - PUT    /api/settings/{section}/{key}      write one value
//   - POST   /api/settings/batch                write several values
//   - GET    /api/settings/{section}/defaults   factory defaults (?key=...)
//   - GET    /api/regions                       regions table
//   - POST   /api/regions                       create region
//   - PUT    /api/regions/{id}                  rename region
//   - DELETE /api/regions                       delete regions by id
//   - GET    /api/events                        websocket change feed
//
// Regions responses are wrapped in an envelope of the form
// {"success": bool, "data": ..., "message": "..."}; a false success flag is
// returned as an error carrying the server message.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: dials/0.1
//   - Carry a fresh X-Request-ID so server logs can be correlated
//   - Carry Authorization: Bearer <token> when a token is configured
//   - Have a 5-second timeout unless WithTimeout overrides it
//
// # Error Handling
//
// Non-2xx responses become *StatusError. A 404 on a section fetch is
// additionally wrapped with ErrSectionNotFound so callers can use errors.Is.
// Retries are not performed here; the panel controller owns retry policy.
//
// # URL Construction
//
// The client accepts "127.0.0.1:8750", "http://host:port" or
// "https://host"; the scheme defaults to http and any path is dropped.
package settingsapi
