package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-graceful-response/internal/domain"
)

// CreateIncident appends an incident. ID and CreatedAt are filled in when
// empty.
func CreateIncident(ctx context.Context, db *gorm.DB, in *domain.Incident) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(in).Error
}

// CountIncidents returns the number of incidents, optionally filtered by
// envelope code ("" means all).
func CountIncidents(ctx context.Context, db *gorm.DB, code string) (int64, error) {
	var total int64
	err := incidentScope(db.WithContext(ctx), code).
		Model(&domain.Incident{}).
		Count(&total).Error
	return total, err
}

// ListIncidentsPage returns incidents newest first, optionally filtered by
// code.
func ListIncidentsPage(ctx context.Context, db *gorm.DB, code string, offset, limit int) ([]domain.Incident, error) {
	var out []domain.Incident
	err := incidentScope(db.WithContext(ctx), code).
		Order("created_at desc").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func incidentScope(db *gorm.DB, code string) *gorm.DB {
	if code == "" {
		return db
	}
	return db.Where("code = ?", code)
}
