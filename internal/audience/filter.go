package audience

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns names the columns a ListFilter constrains.
type Columns struct {
	Owner    string
	Audience string
	Status   string
	Expires  string
}

// DefaultColumns matches the posts and stories tables.
var DefaultColumns = Columns{
	Owner:    "user_id",
	Audience: "audience",
	Status:   "status",
	Expires:  "expires_at",
}

// ListFilter is the store-side form of the read policy for one group of owners.
//
// A nil OwnerIDs does not constrain the owner; a non-nil empty slice matches nothing.
type ListFilter struct {
	OwnerIDs  []string
	Audiences []Audience
	// Status, when set, restricts to rows whose status column equals it.
	Status string
	// NotExpiredAt, when set, restricts to rows expiring strictly after it.
	NotExpiredAt time.Time
	Columns      Columns
}

// ForViewer builds the filter equivalent to CanRead for every item owned by ownerID.
// activeStatus is the status value of non-removed rows, or "" for tables without one.
func ForViewer(viewerID, ownerID string, isFriend bool, activeStatus string) ListFilter {
	isOwner := viewerID != "" && viewerID == ownerID
	f := ListFilter{
		OwnerIDs:  []string{ownerID},
		Audiences: Visible(isOwner, isFriend),
	}
	if !isOwner {
		f.Status = activeStatus
	}
	return f
}

func (f ListFilter) columns() Columns {
	if f.Columns == (Columns{}) {
		return DefaultColumns
	}
	return f.Columns
}

// Expression renders the filter as a gorm clause. It returns nil when the filter places no
// constraint at all.
func (f ListFilter) Expression() clause.Expression {
	cols := f.columns()
	var exprs []clause.Expression

	if f.OwnerIDs != nil {
		exprs = append(exprs, clause.IN{Column: clause.Column{Name: cols.Owner}, Values: stringValues(f.OwnerIDs)})
	}
	if len(f.Audiences) > 0 && len(f.Audiences) < len(All) {
		values := make([]interface{}, len(f.Audiences))
		for i, a := range f.Audiences {
			values[i] = string(a)
		}
		exprs = append(exprs, clause.IN{Column: clause.Column{Name: cols.Audience}, Values: values})
	}
	if f.Status != "" {
		exprs = append(exprs, clause.Eq{Column: clause.Column{Name: cols.Status}, Value: f.Status})
	}
	if !f.NotExpiredAt.IsZero() {
		exprs = append(exprs, clause.Gt{Column: clause.Column{Name: cols.Expires}, Value: f.NotExpiredAt})
	}

	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return clause.And(exprs...)
	}
}

// Scope applies the filter to a gorm query.
func (f ListFilter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if expr := f.Expression(); expr != nil {
			return db.Clauses(clause.Where{Exprs: []clause.Expression{expr}})
		}
		return db
	}
}

// Any matches rows accepted by at least one filter. With no filters it matches nothing.
func Any(filters ...ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		var exprs []clause.Expression
		for _, f := range filters {
			expr := f.Expression()
			if expr == nil {
				return db
			}
			exprs = append(exprs, expr)
		}
		switch len(exprs) {
		case 0:
			return db.Where("1 = 0")
		case 1:
			// a single-element OR is rendered as a trailing "OR x" by gorm
			return db.Clauses(clause.Where{Exprs: exprs})
		default:
			return db.Clauses(clause.Where{Exprs: []clause.Expression{clause.Or(exprs...)}})
		}
	}
}

func stringValues(ids []string) []interface{} {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return values
}
