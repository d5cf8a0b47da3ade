package document

import "HackNewsBot/internal/domain"

// Merge returns the items of fetched whose id is not known, in fetched order.
// A repeated id inside fetched is kept only at its first position.
func Merge(fetched []domain.TranslatedItem, known domain.IDSet) []domain.TranslatedItem {
	out := make([]domain.TranslatedItem, 0, len(fetched))
	taken := make(domain.IDSet, len(fetched))
	for _, item := range fetched {
		if known.Has(item.ID) || taken.Has(item.ID) {
			continue
		}
		taken.Add(item.ID)
		out = append(out, item)
	}
	return out
}
