package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seatplan/seatplan/internal/auth"
	"github.com/seatplan/seatplan/internal/models"
	apperrors "github.com/seatplan/seatplan/pkg/errors"
)

const testSuperAdmin = "owner@example.com"

func newAdminService(t *testing.T) *AdminService {
	t.Helper()
	svc, err := NewAdminService(openServiceDB(t), testSuperAdmin)
	require.NoError(t, err)
	return svc
}

func TestAdminAddAndList(t *testing.T) {
	svc := newAdminService(t)
	ctx := context.Background()

	admin, err := svc.Add(ctx, "  Helper@Example.com ")
	require.NoError(t, err)
	require.Equal(t, "helper@example.com", admin.Email)
	require.Equal(t, models.AdminRoleAdmin, admin.Role)
	require.True(t, admin.Active)

	_, err = svc.Add(ctx, "HELPER@example.com")
	require.ErrorIs(t, err, ErrAdminExists)
	_, err = svc.Add(ctx, "")
	require.Error(t, err)

	admins, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
}

func TestAdminAuthorizeRequiresListing(t *testing.T) {
	svc := newAdminService(t)
	ctx := context.Background()

	_, err := svc.Authorize(ctx, auth.Identity{Email: "stranger@example.com"})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = svc.Authorize(ctx, auth.Identity{})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	added, err := svc.Add(ctx, "helper@example.com")
	require.NoError(t, err)

	admin, err := svc.Authorize(ctx, auth.Identity{Email: "Helper@Example.com"})
	require.NoError(t, err)
	require.Equal(t, added.ID, admin.ID)

	_, err = svc.SetActive(ctx, added.ID, false)
	require.NoError(t, err)
	_, err = svc.Authorize(ctx, auth.Identity{Email: "helper@example.com"})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAdminSuperAdminSelfProvision(t *testing.T) {
	svc := newAdminService(t)
	ctx := context.Background()

	admin, err := svc.Authorize(ctx, auth.Identity{Email: "Owner@Example.com"})
	require.NoError(t, err)
	require.Equal(t, testSuperAdmin, admin.Email)
	require.Equal(t, models.AdminRoleSuperAdmin, admin.Role)
	require.True(t, admin.Active)

	// A demoted or deactivated record is repaired on the next login.
	require.NoError(t, svc.db.Model(&models.AdminUser{}).
		Where("id = ?", admin.ID).
		Updates(map[string]any{"role": models.AdminRoleAdmin, "active": false}).Error)

	restored, err := svc.Authorize(ctx, auth.Identity{Email: testSuperAdmin})
	require.NoError(t, err)
	require.Equal(t, admin.ID, restored.ID)
	require.Equal(t, models.AdminRoleSuperAdmin, restored.Role)
	require.True(t, restored.Active)
}

func TestAdminSuperAdminGuards(t *testing.T) {
	svc := newAdminService(t)
	ctx := context.Background()

	super, err := svc.Authorize(ctx, auth.Identity{Email: testSuperAdmin})
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, super.ID, false)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.ErrorIs(t, svc.Delete(ctx, super.ID), apperrors.ErrForbidden)

	// Re-activating the super admin is a no-op, not an error.
	_, err = svc.SetActive(ctx, super.ID, true)
	require.NoError(t, err)

	regular, err := svc.Add(ctx, "helper@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, regular.ID))
	require.ErrorIs(t, svc.Delete(ctx, regular.ID), apperrors.ErrNotFound)
}
