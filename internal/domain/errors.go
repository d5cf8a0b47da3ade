package domain

import "errors"

var (
	// ErrDocumentNotFound is returned by stores when no document exists at a path.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentExists is returned by stores when a create races with another writer.
	ErrDocumentExists = errors.New("document already exists")
	// ErrVersionConflict is returned when an update carries a stale version.
	ErrVersionConflict = errors.New("document version conflict")
	// ErrItemUnresolvable marks a feed candidate whose detail record is unusable.
	ErrItemUnresolvable = errors.New("item unresolvable")
	// ErrLockHeld is returned when another worker owns the document lock.
	ErrLockHeld = errors.New("document lock held by another worker")
)
