package memory

import (
	"context"
	"sort"

	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

func (s *Store) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.categories {
		if other.Slug == c.Slug {
			return domain.ErrSlugTaken
		}
	}
	c.ID = s.categorySeq.Add(1)
	cc := *c
	s.categories[c.ID] = &cc
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	for _, other := range s.categories {
		if other.ID != c.ID && other.Slug == c.Slug {
			return domain.ErrSlugTaken
		}
	}
	cc := *c
	s.categories[c.ID] = &cc
	return nil
}

// DeleteCategory detaches the category from its auctions, like ON DELETE SET NULL.
func (s *Store) DeleteCategory(_ context.Context, categoryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[categoryID]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(s.categories, categoryID)
	for _, a := range s.auctions {
		if a.CategoryID != nil && *a.CategoryID == categoryID {
			a.CategoryID = nil
		}
	}
	return nil
}

func (s *Store) GetCategory(_ context.Context, categoryID int64) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[categoryID]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	cc := *c
	return &cc, nil
}

func (s *Store) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Slug == slug {
			cc := *c
			return &cc, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (s *Store) ListCategories(context.Context) ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) Watch(_ context.Context, bidderID, auctionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return domain.ErrAuctionNotFound
	}
	key := watchKey{bidderID: bidderID, auctionID: auctionID}
	if _, ok := s.watchlist[key]; !ok {
		s.watchlist[key] = s.now().UTC()
	}
	return nil
}

func (s *Store) Unwatch(_ context.Context, bidderID, auctionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.watchlist, watchKey{bidderID: bidderID, auctionID: auctionID})
	return nil
}

func (s *Store) IsWatching(_ context.Context, bidderID, auctionID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.watchlist[watchKey{bidderID: bidderID, auctionID: auctionID}]
	return ok, nil
}

func (s *Store) ListWatchlist(_ context.Context, bidderID int64) ([]*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Auction
	for k := range s.watchlist {
		if k.bidderID != bidderID {
			continue
		}
		if a, ok := s.auctions[k.auctionID]; ok {
			out = append(out, s.view(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndsAt.Equal(out[j].EndsAt) {
			return out[i].EndsAt.Before(out[j].EndsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
