package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/insightfactory/backend/src/model"
)

func TestBranchAccess(t *testing.T) {
	central := &model.User{Role: model.RoleCentral}
	store := &model.User{Role: model.RoleBranch, Branch: "Miraflores"}

	assert.True(t, CanAccessBranch(central, "Miraflores"))
	assert.True(t, CanAccessBranch(central, "San Isidro"))

	assert.True(t, CanAccessBranch(store, "Miraflores"))
	assert.False(t, CanAccessBranch(store, "San Isidro"))
}

func TestSaleCreation(t *testing.T) {
	central := &model.User{Role: model.RoleCentral}
	store := &model.User{Role: model.RoleBranch, Branch: "Miraflores"}

	assert.True(t, CanCreateSaleAt(central, "San Isidro"))
	assert.True(t, CanCreateSaleAt(store, "Miraflores"))
	assert.False(t, CanCreateSaleAt(store, "San Isidro"))
}

func TestSaleDeletionIsCentralOnly(t *testing.T) {
	assert.True(t, CanDeleteSales(&model.User{Role: model.RoleCentral}))
	assert.False(t, CanDeleteSales(&model.User{Role: model.RoleBranch, Branch: "Miraflores"}))
}
