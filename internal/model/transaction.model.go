package model

import (
	"time"

	"github.com/finvault/finance-tracker/internal/schema"
)

// GroupType classifies a transaction group as money in or money out.
type GroupType string

const (
	GroupTypeIncome  GroupType = "income"
	GroupTypeExpense GroupType = "expense"
)

type TransactionGroup struct {
	ID        string    `json:"id"        db:"id"        gorm:"primaryKey;column:id"`
	TenantID  string    `json:"tenantid"  db:"tenantid"  gorm:"column:tenantid;not null;index"`
	Name      string    `json:"name"      db:"name"      gorm:"column:name;not null"`
	Type      GroupType `json:"type"      db:"type"      gorm:"column:type;not null"`
	Deleted   bool      `json:"isdeleted" db:"isdeleted" gorm:"column:isdeleted;not null;default:false"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (TransactionGroup) TableName() string { return string(schema.TransactionGroups) }

func (g *TransactionGroup) Entity() schema.Entity { return schema.TransactionGroups }
func (g *TransactionGroup) RecordID() string      { return g.ID }
func (g *TransactionGroup) Tenant() string        { return g.TenantID }
func (g *TransactionGroup) IsDeleted() bool       { return g.Deleted }
func (g *TransactionGroup) Label() string         { return g.Name }

func (g *TransactionGroup) FieldValue(field string) (any, bool) {
	switch field {
	case "name":
		return g.Name, true
	case "type":
		return string(g.Type), true
	default:
		return nil, false
	}
}

type TransactionCategory struct {
	ID        string    `json:"id"        db:"id"        gorm:"primaryKey;column:id"`
	TenantID  string    `json:"tenantid"  db:"tenantid"  gorm:"column:tenantid;not null;index"`
	Name      string    `json:"name"      db:"name"      gorm:"column:name;not null"`
	GroupID   string    `json:"groupid"   db:"groupid"   gorm:"column:groupid;not null;index"`
	Deleted   bool      `json:"isdeleted" db:"isdeleted" gorm:"column:isdeleted;not null;default:false"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (TransactionCategory) TableName() string { return string(schema.TransactionCategories) }

func (c *TransactionCategory) Entity() schema.Entity { return schema.TransactionCategories }
func (c *TransactionCategory) RecordID() string      { return c.ID }
func (c *TransactionCategory) Tenant() string        { return c.TenantID }
func (c *TransactionCategory) IsDeleted() bool       { return c.Deleted }
func (c *TransactionCategory) Label() string         { return c.Name }

func (c *TransactionCategory) FieldValue(field string) (any, bool) {
	switch field {
	case "name":
		return c.Name, true
	case "groupid":
		return c.GroupID, true
	default:
		return nil, false
	}
}

// Transaction is a single ledger movement. A transfer between two own
// accounts is stored as a pair of rows pointing at each other through
// TransferID; that is the only self-referential edge in the schema.
type Transaction struct {
	ID                string    `json:"id"                db:"id"                gorm:"primaryKey;column:id"`
	TenantID          string    `json:"tenantid"          db:"tenantid"          gorm:"column:tenantid;not null;index"`
	AccountID         string    `json:"accountid"         db:"accountid"         gorm:"column:accountid;not null;index"`
	CategoryID        string    `json:"categoryid"        db:"categoryid"        gorm:"column:categoryid;not null;index"`
	Amount            int64     `json:"amount"            db:"amount"            gorm:"column:amount;not null"` // minor units
	Note              string    `json:"note"              db:"note"              gorm:"column:note"`
	TransferAccountID *string   `json:"transferaccountid" db:"transferaccountid" gorm:"column:transferaccountid;index"`
	TransferID        *string   `json:"transferid"        db:"transferid"        gorm:"column:transferid;index"`
	OccurredAt        time.Time `json:"occurred_at"       db:"occurred_at"       gorm:"column:occurred_at"`
	Deleted           bool      `json:"isdeleted"         db:"isdeleted"         gorm:"column:isdeleted;not null;default:false"`
	CreatedAt         time.Time `json:"created_at"        db:"created_at"        gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at"        db:"updated_at"        gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaction) TableName() string { return string(schema.Transactions) }

func (t *Transaction) Entity() schema.Entity { return schema.Transactions }
func (t *Transaction) RecordID() string      { return t.ID }
func (t *Transaction) Tenant() string        { return t.TenantID }
func (t *Transaction) IsDeleted() bool       { return t.Deleted }

func (t *Transaction) Label() string {
	if t.Note != "" {
		return t.Note
	}
	return "transaction " + t.ID
}

func (t *Transaction) FieldValue(field string) (any, bool) {
	switch field {
	case "accountid":
		return t.AccountID, true
	case "categoryid":
		return t.CategoryID, true
	case "transferaccountid":
		return deref(t.TransferAccountID), true
	case "transferid":
		return deref(t.TransferID), true
	case "amount":
		return t.Amount, true
	default:
		return nil, false
	}
}
