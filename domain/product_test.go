package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeForCreate(t *testing.T) {
	p := &Product{Code: "PRD-AAAA1111", Quantity: 3}
	p.NormalizeForCreate()
	assert.Equal(t, InStock, p.InventoryStatus)
	assert.Equal(t, ShellIDFromCode("PRD-AAAA1111"), p.ShellID)
	assert.NotEmpty(t, p.InternalReference)

	empty := &Product{Code: "PRD-BBBB2222"}
	empty.NormalizeForCreate()
	assert.Equal(t, OutOfStock, empty.InventoryStatus)

	// An explicit status is left alone.
	preset := &Product{Code: "PRD-CCCC3333", InventoryStatus: LowStock, Quantity: 100}
	preset.NormalizeForCreate()
	assert.Equal(t, LowStock, preset.InventoryStatus)
}

func TestNormalizeForUpdateThresholds(t *testing.T) {
	for _, tc := range []struct {
		quantity int
		want     InventoryStatus
	}{
		{0, OutOfStock},
		{1, LowStock},
		{9, LowStock},
		{10, InStock},
		{500, InStock},
	} {
		p := &Product{Code: "PRD-DDDD4444", Quantity: tc.quantity}
		p.NormalizeForUpdate()
		assert.Equal(t, tc.want, p.InventoryStatus, "quantity %d", tc.quantity)
	}
}

func TestParseInventoryStatus(t *testing.T) {
	status, err := ParseInventoryStatus("lowstock")
	require.NoError(t, err)
	assert.Equal(t, LowStock, status)

	_, err = ParseInventoryStatus("PLENTY")
	assert.True(t, IsCode(err, CodeProductStatusInvalid))
}

func TestShellIDFromCodeIsStable(t *testing.T) {
	a := ShellIDFromCode("PRD-AAAA1111")
	assert.Equal(t, a, ShellIDFromCode("PRD-AAAA1111"))
	assert.GreaterOrEqual(t, a, int64(0))
	assert.Less(t, a, int64(1000))
}

func TestAuthorize(t *testing.T) {
	admin := Identity{Email: "admin@admin.com", Roles: []string{RoleAdmin}}
	user := Identity{Email: "jane@x.com", Roles: []string{RoleUser}}

	reserved := func(id Identity) bool { return id.Email == "admin@admin.com" }

	assert.True(t, Authorize(admin, RoleAdmin, reserved).Allowed)
	assert.False(t, Authorize(user, RoleAdmin, reserved).Allowed)

	elevated := Identity{Email: "other@x.com", Roles: []string{RoleAdmin}}
	decision := Authorize(elevated, RoleAdmin, reserved)
	assert.False(t, decision.Allowed)
	assert.NotEmpty(t, decision.Reason)
}
