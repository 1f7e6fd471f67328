package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qbankhq/qbank/internal/app/models"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     models.RoleType
		required models.RoleType
		want     bool
	}{
		{"user meets user", models.RoleUser, models.RoleUser, true},
		{"user below superuser", models.RoleUser, models.RoleSuperuser, false},
		{"user below supremeuser", models.RoleUser, models.RoleSupremeuser, false},
		{"superuser meets user", models.RoleSuperuser, models.RoleUser, true},
		{"superuser meets superuser", models.RoleSuperuser, models.RoleSuperuser, true},
		{"superuser below supremeuser", models.RoleSuperuser, models.RoleSupremeuser, false},
		{"supremeuser meets everything", models.RoleSupremeuser, models.RoleSupremeuser, true},
		{"unknown role denied", models.RoleType("admin"), models.RoleUser, false},
		{"unknown requirement denied", models.RoleSupremeuser, models.RoleType("root"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleAtLeast(tt.role, tt.required))
		})
	}
}

func TestModerationHelpers(t *testing.T) {
	assert.False(t, CanModerate(models.RoleUser))
	assert.True(t, CanModerate(models.RoleSuperuser))
	assert.True(t, CanModerate(models.RoleSupremeuser))

	assert.False(t, CanApprove(models.RoleSuperuser))
	assert.True(t, CanApprove(models.RoleSupremeuser))
}
