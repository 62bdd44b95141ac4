package model

import (
	"time"

	"github.com/finvault/finance-tracker/internal/schema"
)

// Configuration is a per-tenant settings row, keyed by (key, table) so
// the same key can carry different values for different screens.
type Configuration struct {
	ID        string    `json:"id"        db:"id"        gorm:"primaryKey;column:id"`
	TenantID  string    `json:"tenantid"  db:"tenantid"  gorm:"column:tenantid;not null;index"`
	Key       string    `json:"key"       db:"key"       gorm:"column:key;not null"`
	Table     string    `json:"table"     db:"tablename" gorm:"column:tablename;not null"`
	Value     string    `json:"value"     db:"value"     gorm:"column:value"`
	Deleted   bool      `json:"isdeleted" db:"isdeleted" gorm:"column:isdeleted;not null;default:false"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Configuration) TableName() string { return string(schema.Configurations) }

func (c *Configuration) Entity() schema.Entity { return schema.Configurations }
func (c *Configuration) RecordID() string      { return c.ID }
func (c *Configuration) Tenant() string        { return c.TenantID }
func (c *Configuration) IsDeleted() bool       { return c.Deleted }
func (c *Configuration) Label() string         { return c.Key }

func (c *Configuration) FieldValue(field string) (any, bool) {
	switch field {
	case "key":
		return c.Key, true
	case "table":
		return c.Table, true
	case "value":
		return c.Value, true
	default:
		return nil, false
	}
}
