// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the write-once delivery records that
// deduplicate inbound webhook pushes.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/qnahub/dispatch-bot/internal/domain"
)

// MarkProcessed records a delivery id and reports whether this call was the
// first for that id. It relies on the primary-key constraint as the atomic
// "create if absent" primitive: a unique violation means the delivery was
// already processed, which is answered as (false, nil) rather than an error.
//
// A blank id is accepted as always-fresh: providers that omit delivery ids
// lose dedup guarantees (known gap, not a silent bug).
func MarkProcessed(ctx context.Context, db *gorm.DB, deliveryID string) (bool, error) {
	if deliveryID == "" {
		return true, nil
	}
	err := db.WithContext(ctx).Create(&domain.Delivery{DeliveryID: deliveryID}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
