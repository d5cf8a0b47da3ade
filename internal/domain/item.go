package domain

import (
	"strconv"
	"time"
)

// TranslationFailed replaces a title translation that could not be produced.
const TranslationFailed = "翻译失败"

// ItemID identifies an item in the upstream feed.
type ItemID int64

func (id ItemID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// RawItem is a feed entry resolved to its detail record.
type RawItem struct {
	ID          ItemID
	Title       string
	URL         string
	PublishedAt time.Time
}

// TranslatedItem pairs a RawItem with its title translation or TranslationFailed.
type TranslatedItem struct {
	RawItem
	Translation string
}

// Failed reports whether the translation is the failure sentinel.
func (t TranslatedItem) Failed() bool {
	return t.Translation == TranslationFailed
}

// IDSet is a set of item identifiers.
type IDSet map[ItemID]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...ItemID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Add inserts id into the set.
func (s IDSet) Add(id ItemID) {
	s[id] = struct{}{}
}

// Has reports membership; a nil set contains nothing.
func (s IDSet) Has(id ItemID) bool {
	_, ok := s[id]
	return ok
}
