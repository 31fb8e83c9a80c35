// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file persists leads captured by the premium-access
// check.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

// CreateLead records one access check for the given email. The row is an
// audit entry; duplicates across checks are expected and kept.
func CreateLead(ctx context.Context, db *gorm.DB, email string, allowed bool, source string) (*domain.Lead, error) {
	l := &domain.Lead{
		ID:        uuid.NewString(),
		Email:     email,
		Allowed:   allowed,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}
