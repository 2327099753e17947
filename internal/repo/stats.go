// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries: collection
// fingerprints for conditional responses (ETag) and incident counts by code.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-graceful-response/internal/domain"
)

// ItemsStats returns the number of live items and the greatest UpdatedAt
// among them. With no rows, count is 0 and maxUpdatedAt is nil.
func ItemsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Item{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// IncidentCountsByCode aggregates incidents by code, most frequent first.
// A non-nil since restricts the window to incidents at or after it.
func IncidentCountsByCode(ctx context.Context, db *gorm.DB, since *time.Time) ([]domain.CodeCount, error) {
	q := db.WithContext(ctx).Model(&domain.Incident{})
	if since != nil {
		q = q.Where("created_at >= ?", since.UTC())
	}
	var out []domain.CodeCount
	err := q.Select("code, COUNT(*) AS count").
		Group("code").
		Order("count DESC").
		Order("code").
		Scan(&out).Error
	return out, err
}
