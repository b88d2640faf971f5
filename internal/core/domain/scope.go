package domain

import "time"

// Scope identifies an isolated retrieval namespace: one per tenant or per
// conversation thread, depending on deployment. The key is an opaque string,
// immutable once created. Validation of who may use which scope belongs to
// the boundary layer, not here.
type Scope string

// String returns the scope key.
func (s Scope) String() string { return string(s) }

// Valid reports whether the scope key is usable. The identifier space is
// open-ended; only the empty key is rejected.
func (s Scope) Valid() bool { return s != "" }

// SourceDocument is a raw uploaded artifact associated with exactly one
// scope. It is immutable once ingested; re-ingestion supersedes it with a
// new record rather than mutating this one.
type SourceDocument struct {
	// ID is the unique identifier for the document.
	ID string

	// Scope is the namespace this document belongs to.
	Scope Scope

	// Name is the original file name as uploaded.
	Name string

	// Path is the on-disk location of the stored artifact.
	Path string

	// ContentType is the declared MIME type.
	ContentType string

	// Size is the artifact size in bytes.
	Size int64

	// UploadedAt is when the artifact was ingested.
	UploadedAt time.Time
}
