package model

import (
	"time"

	"github.com/finvault/finance-tracker/internal/schema"
)

// Recurring is a template that spawns transactions on a schedule. The
// rule string is an iCalendar-style recurrence expression; this core only
// stores it, the scheduler interprets it.
type Recurring struct {
	ID              string    `json:"id"              db:"id"              gorm:"primaryKey;column:id"`
	TenantID        string    `json:"tenantid"        db:"tenantid"        gorm:"column:tenantid;not null;index"`
	Name            string    `json:"name"            db:"name"            gorm:"column:name;not null"`
	SourceAccountID string    `json:"sourceaccountid" db:"sourceaccountid" gorm:"column:sourceaccountid;not null;index"`
	CategoryID      *string   `json:"categoryid"      db:"categoryid"      gorm:"column:categoryid;index"`
	Amount          int64     `json:"amount"          db:"amount"          gorm:"column:amount;not null"` // minor units
	Rule            string    `json:"rule"            db:"rule"            gorm:"column:rule;not null"`
	Deleted         bool      `json:"isdeleted"       db:"isdeleted"       gorm:"column:isdeleted;not null;default:false"`
	CreatedAt       time.Time `json:"created_at"      db:"created_at"      gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at"      db:"updated_at"      gorm:"column:updated_at;autoUpdateTime"`
}

func (Recurring) TableName() string { return string(schema.Recurrings) }

func (r *Recurring) Entity() schema.Entity { return schema.Recurrings }
func (r *Recurring) RecordID() string      { return r.ID }
func (r *Recurring) Tenant() string        { return r.TenantID }
func (r *Recurring) IsDeleted() bool       { return r.Deleted }
func (r *Recurring) Label() string         { return r.Name }

func (r *Recurring) FieldValue(field string) (any, bool) {
	switch field {
	case "name":
		return r.Name, true
	case "sourceaccountid":
		return r.SourceAccountID, true
	case "categoryid":
		return deref(r.CategoryID), true
	case "rule":
		return r.Rule, true
	default:
		return nil, false
	}
}
