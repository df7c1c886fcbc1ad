package storage

import (
	"context"

	"civicreport/backend/internal/models"
)

// GetUserByID returns a user or NOT_FOUND.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db(ctx).First(&u, id).Error; err != nil {
		return nil, s.fail(err, "get user", "user %d not found", id)
	}
	return &u, nil
}

// SaveUser inserts or updates a user.
func (s *Service) SaveUser(ctx context.Context, u *models.User) error {
	if err := s.db(ctx).Save(u).Error; err != nil {
		return s.fail(err, "save user", "user %d not found", u.ID)
	}
	return nil
}

func (s *Service) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := s.db(ctx).Preload("Office").First(&c, id).Error; err != nil {
		return nil, s.fail(err, "get category", "category %d not found", id)
	}
	return &c, nil
}

func (s *Service) SaveCategory(ctx context.Context, c *models.Category) error {
	if err := s.db(ctx).Save(c).Error; err != nil {
		return s.fail(err, "save category", "category %d not found", c.ID)
	}
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db(ctx).Preload("Office").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, s.fail(err, "list categories", "categories")
	}
	return categories, nil
}
