package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

var _ auctions.CategoryRepository = (*CategoryRepository)(nil)

type CategoryRepository struct {
	db *bun.DB
}

func NewCategoryRepository(db *bun.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := r.db.NewInsert().Model(c).Exec(ctx); err != nil {
		return translate(err, nil)
	}
	return nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, c *models.Category) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.db.NewUpdate().
		Model(c).
		Column("name", "slug", "description", "sort_order", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return translate(err, nil)
	}
	return affected(res, domain.ErrCategoryNotFound)
}

// DeleteCategory relies on the auctions foreign key to detach listings.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, categoryID int64) error {
	res, err := r.db.NewDelete().
		Model((*models.Category)(nil)).
		Where("id = ?", categoryID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return affected(res, domain.ErrCategoryNotFound)
}

func (r *CategoryRepository) GetCategory(ctx context.Context, categoryID int64) (*models.Category, error) {
	c := new(models.Category)
	if err := r.db.NewSelect().Model(c).Where("ac.id = ?", categoryID).Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrCategoryNotFound)
	}
	return c, nil
}

func (r *CategoryRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c := new(models.Category)
	if err := r.db.NewSelect().Model(c).Where("ac.slug = ?", slug).Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrCategoryNotFound)
	}
	return c, nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var out []*models.Category
	err := r.db.NewSelect().
		Model(&out).
		Order("ac.sort_order ASC", "ac.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return out, nil
}
