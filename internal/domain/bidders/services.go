package bidders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

const defaultCacheSize = 4096

// Identity is the external customer identity carried by a bidder session.
type Identity struct {
	ExternalRef string
	DisplayName string
	Email       string
	Phone       string
}

type Service struct {
	repository Repository
	cache      *lru.Cache
}

func NewService(repository Repository, cacheSize int) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create bidder cache: %w", err)
	}
	return &Service{repository: repository, cache: cache}, nil
}

// EnsureProfile returns the bidder profile for identity, creating it on the
// first authenticated interaction. Profiles are never deleted.
func (s *Service) EnsureProfile(ctx context.Context, identity Identity) (*models.Bidder, error) {
	ref := strings.TrimSpace(identity.ExternalRef)
	if ref == "" {
		return nil, domain.ErrUnauthenticated
	}

	if cached, ok := s.cache.Get(ref); ok {
		profile := cached.(models.Bidder)
		if sameContact(&profile, identity) {
			return &profile, nil
		}
	}

	existing, err := s.repository.GetBidderByExternalRef(ctx, ref)
	if err != nil && !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get bidder: %w", err)
	}
	if existing != nil && sameContact(existing, identity) {
		s.cache.Add(ref, *existing)
		return existing, nil
	}

	profile := &models.Bidder{
		ExternalRef: ref,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		Phone:       identity.Phone,
	}
	if err := s.repository.UpsertBidder(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to upsert bidder: %w", err)
	}
	if existing == nil {
		slog.Info("Bidder profile created",
			slog.Int64("bidder_id", profile.ID),
			slog.String("external_ref", ref))
	}

	s.cache.Add(ref, *profile)
	return profile, nil
}

func (s *Service) Get(ctx context.Context, bidderID int64) (*models.Bidder, error) {
	return s.repository.GetBidder(ctx, bidderID)
}

// SetBanned flags or unflags a bidder. A banned bidder keeps their history
// but can no longer bid.
func (s *Service) SetBanned(ctx context.Context, bidderID int64, banned bool) (*models.Bidder, error) {
	profile, err := s.repository.GetBidder(ctx, bidderID)
	if err != nil {
		return nil, err
	}
	if err := s.repository.SetBanned(ctx, bidderID, banned); err != nil {
		return nil, fmt.Errorf("failed to update bidder ban: %w", err)
	}
	profile.IsBanned = banned
	s.cache.Remove(profile.ExternalRef)

	slog.Warn("Bidder ban updated",
		slog.Int64("bidder_id", bidderID),
		slog.Bool("banned", banned))
	return profile, nil
}

func sameContact(b *models.Bidder, identity Identity) bool {
	return b.DisplayName == identity.DisplayName && b.Email == identity.Email && b.Phone == identity.Phone
}
