package model

import (
	"time"

	"github.com/finvault/finance-tracker/internal/schema"
)

// CategoryType splits account categories into the two balance-sheet sides.
type CategoryType string

const (
	CategoryTypeAsset     CategoryType = "asset"
	CategoryTypeLiability CategoryType = "liability"
)

type AccountCategory struct {
	ID        string       `json:"id"        db:"id"        gorm:"primaryKey;column:id"`
	TenantID  string       `json:"tenantid"  db:"tenantid"  gorm:"column:tenantid;not null;index"`
	Name      string       `json:"name"      db:"name"      gorm:"column:name;not null"`
	Type      CategoryType `json:"type"      db:"type"      gorm:"column:type;not null"`
	Deleted   bool         `json:"isdeleted" db:"isdeleted" gorm:"column:isdeleted;not null;default:false"`
	CreatedAt time.Time    `json:"created_at" db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (AccountCategory) TableName() string { return string(schema.AccountCategories) }

func (c *AccountCategory) Entity() schema.Entity { return schema.AccountCategories }
func (c *AccountCategory) RecordID() string      { return c.ID }
func (c *AccountCategory) Tenant() string        { return c.TenantID }
func (c *AccountCategory) IsDeleted() bool       { return c.Deleted }
func (c *AccountCategory) Label() string         { return c.Name }

func (c *AccountCategory) FieldValue(field string) (any, bool) {
	switch field {
	case "name":
		return c.Name, true
	case "type":
		return string(c.Type), true
	default:
		return nil, false
	}
}

type Account struct {
	ID         string    `json:"id"         db:"id"         gorm:"primaryKey;column:id"`
	TenantID   string    `json:"tenantid"   db:"tenantid"   gorm:"column:tenantid;not null;index"`
	Name       string    `json:"name"       db:"name"       gorm:"column:name;not null"`
	Balance    int64     `json:"balance"    db:"balance"    gorm:"column:balance;not null;default:0"` // minor units
	CategoryID string    `json:"categoryid" db:"categoryid" gorm:"column:categoryid;not null;index"`
	Deleted    bool      `json:"isdeleted"  db:"isdeleted"  gorm:"column:isdeleted;not null;default:false"`
	CreatedAt  time.Time `json:"created_at" db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string { return string(schema.Accounts) }

func (a *Account) Entity() schema.Entity { return schema.Accounts }
func (a *Account) RecordID() string      { return a.ID }
func (a *Account) Tenant() string        { return a.TenantID }
func (a *Account) IsDeleted() bool       { return a.Deleted }
func (a *Account) Label() string         { return a.Name }

func (a *Account) FieldValue(field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "categoryid":
		return a.CategoryID, true
	case "balance":
		return a.Balance, true
	default:
		return nil, false
	}
}
