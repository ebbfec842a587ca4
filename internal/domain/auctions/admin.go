package auctions

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

type AuctionInput struct {
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	CategoryID       *int64           `json:"categoryId"`
	Brand            string           `json:"brand"`
	Scale            string           `json:"scale"`
	Condition        models.Condition `json:"condition"`
	Images           []string         `json:"images"`
	StartingPrice    decimal.Decimal  `json:"startingPrice"`
	ReservePrice     *decimal.Decimal `json:"reservePrice"`
	BidIncrement     decimal.Decimal  `json:"bidIncrement"`
	StartsAt         time.Time        `json:"startsAt"`
	EndsAt           time.Time        `json:"endsAt"`
	AntiSnipeSeconds *int             `json:"antiSnipeSeconds"`
	Featured         bool             `json:"featured"`
}

func (in *AuctionInput) validate() error {
	details := []string{}
	if strings.TrimSpace(in.Title) == "" {
		details = append(details, "title is required")
	}
	if !in.Condition.Valid() {
		details = append(details, "condition is invalid")
	}
	if !in.StartingPrice.IsPositive() {
		details = append(details, "startingPrice must be positive")
	}
	if !in.BidIncrement.IsPositive() {
		details = append(details, "bidIncrement must be positive")
	}
	if in.ReservePrice != nil && in.ReservePrice.LessThan(in.StartingPrice) {
		details = append(details, "reservePrice must not be below startingPrice")
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() {
		details = append(details, "startsAt and endsAt are required")
	} else if !in.EndsAt.After(in.StartsAt) {
		details = append(details, "endsAt must be after startsAt")
	}
	if in.AntiSnipeSeconds != nil && *in.AntiSnipeSeconds < 0 {
		details = append(details, "antiSnipeSeconds must not be negative")
	}
	if len(details) > 0 {
		return domain.ErrInvalidRequest.WithMessage("%s", strings.Join(details, "; "))
	}
	return nil
}

func (m *Manager) apply(ctx context.Context, a *models.Auction, in *AuctionInput) error {
	if in.CategoryID != nil {
		if _, err := m.categories.GetCategory(ctx, *in.CategoryID); err != nil {
			return err
		}
	}

	slug := deriveSlug("auction", a.Slug, in.Slug, in.Title)
	antiSnipe := m.opts.DefaultAntiSnipe
	if in.AntiSnipeSeconds != nil {
		antiSnipe = *in.AntiSnipeSeconds
	}

	a.Title = strings.TrimSpace(in.Title)
	a.Slug = slug
	a.Description = in.Description
	a.CategoryID = in.CategoryID
	a.Brand = in.Brand
	a.Scale = in.Scale
	a.Condition = in.Condition
	a.Images = append([]string{}, in.Images...)
	a.StartingPrice = in.StartingPrice
	a.ReservePrice = in.ReservePrice
	a.CurrentPrice = in.StartingPrice
	a.BidIncrement = in.BidIncrement
	a.StartsAt = in.StartsAt.UTC()
	a.EndsAt = in.EndsAt.UTC()
	a.OriginalEndTime = a.EndsAt
	a.AntiSnipeSeconds = antiSnipe
	a.Featured = in.Featured
	return nil
}

// Create stores a new auction in draft.
func (m *Manager) Create(ctx context.Context, in AuctionInput) (*models.Auction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := m.now()
	a := &models.Auction{Status: models.AuctionStatusDraft, CreatedAt: now, UpdatedAt: now}
	if err := m.apply(ctx, a, &in); err != nil {
		return nil, err
	}
	if err := m.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	slog.Info("Auction created",
		slog.Int64("auction_id", a.ID),
		slog.String("slug", a.Slug))
	return a, nil
}

// Update edits an auction that has not gone live yet.
func (m *Manager) Update(ctx context.Context, auctionID int64, in AuctionInput) (*models.Auction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *models.Auction
	err := m.repo.WithAuction(ctx, auctionID, func(ctx context.Context, tx Tx) error {
		a := tx.Auction()
		if a.Status != models.AuctionStatusDraft && a.Status != models.AuctionStatusScheduled {
			return domain.ErrInvalidTransition.WithMessage("auction can no longer be edited once %s", a.Status)
		}
		if err := m.apply(ctx, a, &in); err != nil {
			return err
		}
		a.UpdatedAt = m.now()
		if err := tx.SaveAuction(ctx); err != nil {
			return err
		}
		updated = a.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (m *Manager) Delete(ctx context.Context, auctionID int64) error {
	if err := m.repo.Delete(ctx, auctionID); err != nil {
		return err
	}
	slog.Info("Auction deleted", slog.Int64("auction_id", auctionID))
	return nil
}

// Publish moves a draft to scheduled, or straight to active when its start
// time has already passed.
func (m *Manager) Publish(ctx context.Context, auctionID int64) (*models.Auction, error) {
	return m.transition(ctx, auctionID, func(a *models.Auction, now time.Time) (EventType, error) {
		if a.Status != models.AuctionStatusDraft {
			return "", domain.ErrInvalidTransition.WithMessage("only drafts can be published")
		}
		if !a.EndsAt.After(now) {
			return "", domain.ErrInvalidRequest.WithMessage("endsAt is in the past")
		}
		if a.StartsAt.After(now) {
			a.Status = models.AuctionStatusScheduled
			return "", nil
		}
		a.Status = models.AuctionStatusActive
		return EventAuctionActivated, nil
	})
}

// Unpublish returns a scheduled auction to draft.
func (m *Manager) Unpublish(ctx context.Context, auctionID int64) (*models.Auction, error) {
	return m.transition(ctx, auctionID, func(a *models.Auction, _ time.Time) (EventType, error) {
		if a.Status != models.AuctionStatusScheduled {
			return "", domain.ErrInvalidTransition.WithMessage("only scheduled auctions can be unpublished")
		}
		a.Status = models.AuctionStatusDraft
		return "", nil
	})
}

// Cancel is operator-only and refused once any bid exists.
func (m *Manager) Cancel(ctx context.Context, auctionID int64) (*models.Auction, error) {
	return m.transition(ctx, auctionID, func(a *models.Auction, _ time.Time) (EventType, error) {
		if a.BidCount > 0 {
			return "", domain.ErrCancelNotAllowed
		}
		if !a.Status.CanTransition(models.AuctionStatusCancelled) {
			return "", domain.ErrInvalidTransition.WithMessage("cannot cancel a %s auction", a.Status)
		}
		a.Status = models.AuctionStatusCancelled
		return EventAuctionCancelled, nil
	})
}

func (m *Manager) SetFeatured(ctx context.Context, auctionID int64, featured bool) (*models.Auction, error) {
	return m.transition(ctx, auctionID, func(a *models.Auction, _ time.Time) (EventType, error) {
		a.Featured = featured
		return "", nil
	})
}

func (m *Manager) AddImages(ctx context.Context, auctionID int64, urls ...string) (*models.Auction, error) {
	return m.transition(ctx, auctionID, func(a *models.Auction, _ time.Time) (EventType, error) {
		if a.Status.IsTerminal() {
			return "", domain.ErrInvalidTransition.WithMessage("auction is %s", a.Status)
		}
		a.Images = append(a.Images, urls...)
		return "", nil
	})
}

func (m *Manager) transition(ctx context.Context, auctionID int64, fn func(a *models.Auction, now time.Time) (EventType, error)) (*models.Auction, error) {
	var (
		updated *models.Auction
		event   EventType
	)
	err := m.repo.WithAuction(ctx, auctionID, func(ctx context.Context, tx Tx) error {
		now := m.now()
		a := tx.Auction()
		from := a.Status

		var err error
		if event, err = fn(a, now); err != nil {
			return err
		}
		a.UpdatedAt = now
		if err := tx.SaveAuction(ctx); err != nil {
			return fmt.Errorf("failed to save auction: %w", err)
		}
		if from != a.Status {
			slog.Info("Auction status changed",
				slog.Int64("auction_id", a.ID),
				slog.String("from", string(from)),
				slog.String("to", string(a.Status)))
		}
		updated = a.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if event != "" {
		Publish(ctx, m.publisher, NewEvent(event, updated, m.now()))
	}
	return updated, nil
}

func (m *Manager) Stats(ctx context.Context) (*models.AuctionStats, error) {
	stats, err := m.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to gather auction stats: %w", err)
	}
	return stats, nil
}

type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

func (m *Manager) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidRequest.WithMessage("name is required")
	}
	now := m.now()
	c := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        deriveSlug("category", "", in.Slug, in.Name),
		Description: in.Description,
		SortOrder:   in.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.categories.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *Manager) UpdateCategory(ctx context.Context, categoryID int64, in CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidRequest.WithMessage("name is required")
	}
	c, err := m.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Slug = deriveSlug("category", c.Slug, in.Slug, in.Name)
	c.Description = in.Description
	c.SortOrder = in.SortOrder
	c.UpdatedAt = m.now()
	if err := m.categories.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *Manager) DeleteCategory(ctx context.Context, categoryID int64) error {
	return m.categories.DeleteCategory(ctx, categoryID)
}

// deriveSlug prefers the explicit slug, then the name. A name with no ASCII
// letters or digits keeps the current slug, or gets a random one when there is
// none yet.
func deriveSlug(kind, current, explicit, name string) string {
	if s := Slugify(explicit); s != "" {
		return s
	}
	if s := Slugify(name); s != "" {
		return s
	}
	if current != "" {
		return current
	}
	return kind + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of other characters into one dash.
func Slugify(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
