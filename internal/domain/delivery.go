// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Delivery is the write-once dedup record for one inbound webhook push,
// keyed by the provider-assigned delivery id. Existence of the row means
// "this delivery was already processed"; the row is never updated.
//
// Deliveries that arrive without a provider id cannot be recorded here and
// are treated as always-fresh (a documented gap, not a silent bug).
type Delivery struct {
	DeliveryID string    `gorm:"type:varchar(64);primaryKey"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
}

// TableName implements the GORM tabler interface.
func (Delivery) TableName() string { return "deliveries" }
