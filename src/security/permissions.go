package security

import "github.com/username/insightfactory/backend/src/model"

// CanAccessBranch reports whether a user may read or modify data for a branch.
// Central users have access to every branch; branch users only to their own.
func CanAccessBranch(u *model.User, branch string) bool {
	if u == nil {
		return false
	}
	if u.IsCentral() {
		return true
	}
	return branch != "" && u.Branch == branch
}

// CanCreateSaleAt reports whether a user may record a sale for a branch.
// Same rule as read access; separated so the two checks can diverge later.
func CanCreateSaleAt(u *model.User, branch string) bool {
	return CanAccessBranch(u, branch)
}

// CanDeleteSales reports whether a user may delete sale records.
func CanDeleteSales(u *model.User) bool {
	return u != nil && u.IsCentral()
}
