// Package provider defines the data access abstraction the API delegates to.
//
// A DataProvider groups five capabilities: things, connections, events,
// knowledge and auth. Handlers receive a provider explicitly and make a
// single capability call per request.
//
// # Implementations
//
// The sqlite subpackage is the default provider and stores records in a
// local database file. The postgres subpackage targets a shared server
// through a pgx connection pool.
//
// # Errors
//
// Providers wrap the sentinel errors in this package with %w so callers
// can classify failures with errors.Is. Any other error is treated as
// internal by the HTTP layer.
//
// # Listing
//
// List and Search calls return the complete filtered set. Sorting and
// pagination are applied by the caller.
package provider
