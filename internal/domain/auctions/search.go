package auctions

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

type searchSource []*models.Auction

func (src searchSource) String(i int) string {
	a := src[i]
	return strings.ToLower(a.Title + " " + a.Brand + " " + a.Scale)
}

func (src searchSource) Len() int {
	return len(src)
}

// MatchSearch keeps the auctions whose title, brand or scale fuzzily match
// term. The input order is preserved so callers can sort before or after.
func MatchSearch(items []*models.Auction, term string) []*models.Auction {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	matches := fuzzy.FindFrom(term, searchSource(items))
	idx := make([]int, 0, len(matches))
	for _, m := range matches {
		idx = append(idx, m.Index)
	}
	sort.Ints(idx)
	out := make([]*models.Auction, 0, len(idx))
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out
}
