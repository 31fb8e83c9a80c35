// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lot model
// and its snapshot items.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a lot is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - CreateLot maps unique-key violations on the lot code to ErrDuplicate
//     so callers can regenerate the code and retry.
//   - On other DB errors (connectivity, constraint issues) the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-key violation (lot code collision or an
// already-recorded webhook delivery).
var ErrDuplicate = errors.New("duplicate")

// listPageSize bounds each SELECT issued by ListLots. Lots are scanned in
// pages so a large history never materializes in a single call.
const listPageSize = 500

// isUniqueViolation detects unique-constraint failures across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateLot inserts a lot together with its snapshot items in one
// transaction. The lot's CreatedAt is set to UTC here so "latest per
// destination" ordering has a single time source.
//
// Returns ErrDuplicate when the lot code already exists; callers should
// treat that as retryable and regenerate the code.
func CreateLot(ctx context.Context, db *gorm.DB, lot *domain.Lot) error {
	lot.CreatedAt = time.Now().UTC()
	err := db.WithContext(ctx).Create(lot).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetLot fetches a single lot by code, preloading its items in position
// order. Returns ErrNotFound if the code is unknown.
func GetLot(ctx context.Context, db *gorm.DB, code string) (*domain.Lot, error) {
	var lot domain.Lot
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Where("code = ?", code).
		First(&lot).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// ListLots returns every lot ordered by creation time descending (most
// recent first), without items. The scan is paginated internally so the
// backing store never serves an unbounded single query.
func ListLots(ctx context.Context, db *gorm.DB) ([]domain.Lot, error) {
	var out []domain.Lot
	for offset := 0; ; offset += listPageSize {
		var page []domain.Lot
		err := db.WithContext(ctx).
			Order("created_at desc").
			Offset(offset).
			Limit(listPageSize).
			Find(&page).Error
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < listPageSize {
			return out, nil
		}
	}
}

// CountLots returns the total number of lots. On DB error, it returns the error.
func CountLots(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Lot{}).Count(&total).Error
	return total, err
}

// ListLotsPage returns a paginated slice of lots ordered by creation time
// descending, items included. Used by the admin audit listing; use CountLots
// to obtain the total for pagination metadata.
func ListLotsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Lot, error) {
	var out []domain.Lot
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SaveLot overwrites the full lot row at its key. Transitions are
// whole-record replacements, not partial patches, to avoid lost-update
// races between concurrent readers of the same lot. Items are not touched:
// the snapshot set is immutable after creation.
func SaveLot(ctx context.Context, db *gorm.DB, lot *domain.Lot) error {
	return db.WithContext(ctx).
		Omit("Items").
		Save(lot).Error
}
