// Package domain defines the response envelope, the error mapping
// configuration type, and the GORM persistence models of the service.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Item is the demo resource served by the items API. Names are unique, soft
// deleted rows included.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Name: unique display name.
//   - Description: optional free text.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Item struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string         `json:"name"        gorm:"type:varchar(128);not null;uniqueIndex:ux_items_name"`
	Description string         `json:"description" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Item.
func (Item) TableName() string { return "items" }

// Incident is a record of an error the response pipeline turned into an
// envelope. Incidents are written by an after-hook and are append-only.
type Incident struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	RequestID string    `json:"request_id" gorm:"type:varchar(64);index"`
	Method    string    `json:"method"     gorm:"type:varchar(16)"`
	Path      string    `json:"path"       gorm:"type:varchar(512)"`
	Category  string    `json:"category"   gorm:"type:varchar(64);index"`
	Code      string    `json:"code"       gorm:"type:varchar(64);not null;index:idx_incident_code"`
	Message   string    `json:"message"    gorm:"type:text"`
	Cause     string    `json:"cause"      gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for Incident.
func (Incident) TableName() string { return "incidents" }

// CodeCount is the number of incidents recorded for one envelope code.
type CodeCount struct {
	Code  string `json:"code"  example:"NOT_FOUND"`
	Count int64  `json:"count" example:"12"`
}
