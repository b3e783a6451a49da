// Package models defines server-side data models persisted in the database.
package models

import "time"

// Record is one top-level entity of a retention-governed collection.
type Record struct {
	ID         string
	Collection string
	// Label is opaque to the server: a conversation title, a file name, a todo text.
	Label     string
	CreatedAt time.Time
	UpdatedAt time.Time
	// DeletedAt is set while the record sits in the trash.
	DeletedAt *time.Time
	// RemoteRef is the object-storage key of the record's blob, empty when none.
	RemoteRef string
}

// Trashed reports whether the record carries a deletion mark.
func (r Record) Trashed() bool {
	return r.DeletedAt != nil
}

// Child belongs to exactly one parent record and never outlives it.
type Child struct {
	ID        string
	ParentID  string
	Body      string
	CreatedAt time.Time
}

// TrashedRecord is a record listed from the trash together with the whole
// days left before the sweeper purges it.
type TrashedRecord struct {
	Record
	DaysRemaining int
}
