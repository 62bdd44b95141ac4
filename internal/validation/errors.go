package validation

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/finvault/finance-tracker/internal/schema"
)

// ReferentialIntegrityError reports a reference that does not resolve to
// a live record of the same tenant.
type ReferentialIntegrityError struct {
	Entity           schema.Entity
	Field            string
	Value            any
	ReferencedEntity schema.Entity
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("referential integrity: %s.%s = %v does not reference a live record in %s",
		e.Entity, e.Field, e.Value, e.ReferencedEntity)
}

// ConstraintViolationError reports a unique-scope collision.
type ConstraintViolationError struct {
	Entity     schema.Entity
	Constraint string
	Message    string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation on %s (%s): %s", e.Entity, e.Constraint, e.Message)
}

// CascadeDeleteError reports a non-cascading delete blocked by live
// dependents.
type CascadeDeleteError struct {
	Entity          schema.Entity
	ID              string
	DependentEntity schema.Entity
	DependentCount  int
}

func (e *CascadeDeleteError) Error() string {
	return fmt.Sprintf("cannot delete %s %s: %d live record(s) in %s still reference it",
		e.Entity, e.ID, e.DependentCount, e.DependentEntity)
}

func IsReferentialIntegrityError(err error) bool {
	var t *ReferentialIntegrityError
	return errors.As(err, &t)
}

func IsConstraintViolationError(err error) bool {
	var t *ConstraintViolationError
	return errors.As(err, &t)
}

func IsCascadeDeleteError(err error) bool {
	var t *CascadeDeleteError
	return errors.As(err, &t)
}

// UserFriendlyMessage maps the validation taxonomy onto text a UI can
// show without knowing the error shapes. Backend failures fall through to
// a generic line so driver internals never leak to users.
func UserFriendlyMessage(err error) string {
	var ri *ReferentialIntegrityError
	if errors.As(err, &ri) {
		return fmt.Sprintf("The referenced %s no longer exists.", entityNoun(ri.ReferencedEntity))
	}
	var cv *ConstraintViolationError
	if errors.As(err, &cv) {
		return cv.Message
	}
	var cd *CascadeDeleteError
	if errors.As(err, &cd) {
		return fmt.Sprintf("This %s is still used by %d %s. Delete those first or use a cascading delete.",
			entityNoun(cd.Entity), cd.DependentCount, entityNoun(cd.DependentEntity))
	}
	return "Something went wrong while saving. Please try again."
}

func entityNoun(e schema.Entity) string {
	switch e {
	case schema.AccountCategories:
		return "account category"
	case schema.Accounts:
		return "account"
	case schema.TransactionGroups:
		return "transaction group"
	case schema.TransactionCategories:
		return "transaction category"
	case schema.Transactions:
		return "transaction"
	case schema.Recurrings:
		return "recurring transaction"
	case schema.Configurations:
		return "configuration entry"
	default:
		return string(e)
	}
}
