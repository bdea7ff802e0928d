// Package models defines domain entities and persistence interfaces for the tunefeed track cache.
//
// Catalog data fetched from the streaming API arrives as lightweight DTOs
// defined alongside the HTTP services. This package holds what the client
// persists locally:
//
//   - [CachedTrack] : a cached catalog track keyed by its platform id
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
