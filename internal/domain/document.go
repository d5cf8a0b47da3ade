package domain

// Version is the opaque optimistic-concurrency token returned by a document read.
type Version string

// Document is a stored blob together with the version it was read at.
type Document struct {
	Path    string
	Content string
	Version Version
}

// DocumentState is what the cycle knows about a document before merging.
type DocumentState struct {
	Path     string
	Exists   bool
	Content  string
	Version  Version
	KnownIDs IDSet
}

// PublishResult summarizes a successful cycle write.
type PublishResult struct {
	Path    string
	Created bool
	Items   int
}
