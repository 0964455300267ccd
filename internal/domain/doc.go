// Package domain defines the core record types of the ontology API.
//
// The ontology models a platform in six dimensions: groups, people, things,
// connections, events and knowledge. Groups are referenced by id only and
// people are things of type "creator", so the package carries four record
// types plus the filters used to select them.
//
// # Core Types
//
// Thing is an entity (course, product, wallet, ...) identified by its type and
// _id. Properties are an open map owned by the client.
//
// Connection is a directed relationship between two things with a
// relationship type such as "owns" or "enrolled_in".
//
// Event is an immutable audit record of an action taken by an actor,
// optionally against a target.
//
// Knowledge is a label or text chunk used for search.
//
// # Filters
//
// ThingFilter, ConnectionFilter, EventFilter and KnowledgeQuery carry the
// recognized query parameters to a provider unchanged. Each filter can also
// match records in memory, which in-process providers and tests rely on.
//
// # Design Principles
//
// - No database or transport dependencies
// - Timestamps are Unix milliseconds, matching the wire format
// - JSON field names follow the public API (_id, groupId, createdAt)
package domain
