package document

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"HackNewsBot/internal/domain"
)

func translated(ids ...domain.ItemID) []domain.TranslatedItem {
	items := make([]domain.TranslatedItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.TranslatedItem{
			RawItem:     domain.RawItem{ID: id, Title: "title " + id.String()},
			Translation: "标题 " + id.String(),
		})
	}
	return items
}

func ids(items []domain.TranslatedItem) []domain.ItemID {
	out := make([]domain.ItemID, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestMergeEmptyKnownKeepsAllInOrder(t *testing.T) {
	t.Parallel()

	got := Merge(translated(5, 7, 9), domain.IDSet{})
	assert.Equal(t, []domain.ItemID{5, 7, 9}, ids(got))
}

func TestMergeDropsKnown(t *testing.T) {
	t.Parallel()

	got := Merge(translated(5, 7, 9), domain.NewIDSet(7))
	assert.Equal(t, []domain.ItemID{5, 9}, ids(got))
}

func TestMergeAllKnownIsEmpty(t *testing.T) {
	t.Parallel()

	got := Merge(translated(1, 2), domain.NewIDSet(1, 2, 3))
	assert.Empty(t, got)
}

func TestMergeIsDeterministic(t *testing.T) {
	t.Parallel()

	fetched := translated(3, 1, 4, 1, 5, 9, 2, 6)
	known := domain.NewIDSet(4, 9)

	first := Merge(fetched, known)
	second := Merge(fetched, known)
	assert.Equal(t, first, second)
	assert.Equal(t, []domain.ItemID{3, 1, 5, 2, 6}, ids(first))
}

func TestMergeNilKnown(t *testing.T) {
	t.Parallel()

	got := Merge(translated(8), nil)
	assert.Equal(t, []domain.ItemID{8}, ids(got))
}
