// Package models defines the domain records for pinmap: map markers and named marker lists.
//
// A [Marker] is a single resolved point with optional place metadata. Markers are immutable once created;
// the only mutation is removal from a collection. A [PlaceList] is a named, timestamped deep copy of a marker
// collection. Saving under an existing name replaces that list.
//
// Records validate themselves at the boundary where provider data or user input becomes a model, so code
// downstream of [Marker.Validate] can assume well-formed coordinates and a non-empty name.
package models

// Validator is implemented by records that can check their own invariants.
type Validator interface {
	Validate() error
}

// Repository defines the persistence operations for records keyed by a string.
type Repository[T Validator] interface {
	Get(key string) (T, error) // Get retrieves a record by key
	Upsert(record T) error     // Upsert inserts the record or replaces the one with the same key
	Delete(key string) error   // Delete removes a record; deleting a missing key is not an error
	All() ([]T, error)         // All returns every record in a stable order
}
