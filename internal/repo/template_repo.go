// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// GiftTemplate model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a template is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giftella/go-gift-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateTemplate inserts a new catalog entry. When t.ID is empty a random
// UUID is assigned. CreatedAt is set to UTC. Used by the catalog seeder and
// by tests; catalog administration proper lives in the host application.
func CreateTemplate(ctx context.Context, db *gorm.DB, t *domain.GiftTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(t).Error
}

// ListActiveTemplates returns the current candidate snapshot: every active
// template, ordered by ID for deterministic iteration. It returns an empty
// slice when the catalog is empty.
func ListActiveTemplates(ctx context.Context, db *gorm.DB) ([]domain.GiftTemplate, error) {
	var out []domain.GiftTemplate
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// GetTemplate fetches a single template by ID, or ErrNotFound if missing.
func GetTemplate(ctx context.Context, db *gorm.DB, id string) (*domain.GiftTemplate, error) {
	var t domain.GiftTemplate
	if err := db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// CountTemplates returns the total number of catalog entries (active or
// not), primarily used to decide whether seeding is needed.
func CountTemplates(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.GiftTemplate{}).Count(&total).Error
	return total, err
}
