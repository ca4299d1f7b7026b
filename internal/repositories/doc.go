// Package repositories implements SQLite persistence for pinmap.
//
// Key Implementations:
//   - [MarkerRepository] : the live marker collection, rewritten as a whole in one transaction
//   - [ListRepository] : named list snapshots stored as JSON blobs, implementing [models.Repository]
//   - [SettingsRepository] : a flat key/value table for credentials and preferences
//   - [PlaceCacheRepository] : provider detail payloads keyed by normalised query, with a TTL
//   - [Backend] : composes the marker and list repositories for the marker store
//
// Sequence numbers record the order in which lists were first saved.
// Each counter lives in a dedicated sequence table and is incremented inside the saving transaction.
package repositories
