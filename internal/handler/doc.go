// Package handler implements the HTTP API of the ontology server.
//
// Every route follows the same sequence: parse query parameters or the
// request body, validate, make exactly one provider call, then wrap the
// result in an envelope. The list, get and create helpers capture that
// sequence once and are parameterized per resource by a validation
// schema, a provider capability and a filter allowlist.
//
// # Response Format
//
// Every response is an envelope:
//
//	{"success": true, "data": {...}, "timestamp": 1700000000000}
//	{"success": false, "data": null, "error": {"code": "NOT_FOUND", "message": "..."}, "timestamp": ...}
//
// List routes return a page {items, total, limit, offset, hasMore} in data.
// Create routes answer 201 with {"_id": id}.
//
// # Errors
//
// Provider errors are matched against the provider sentinels with
// errors.Is. Anything unrecognized becomes INTERNAL_ERROR, with the raw
// message exposed unless the handler was built with
// WithExposeInternalErrors(false).
//
// # Server-Sent Events
//
// GET /api/stream relays change notifications from the event bus.
package handler
