package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/auth"
	"github.com/seatplan/seatplan/internal/models"
	apperrors "github.com/seatplan/seatplan/pkg/errors"
)

// ErrAdminExists signals that the email address already has admin access.
var ErrAdminExists = apperrors.New("admin.duplicate_email", "This email address already has admin access", http.StatusConflict)

// AdminService manages the allow-list of dashboard administrators and
// bridges externally verified identities onto it.
type AdminService struct {
	db              *gorm.DB
	superAdminEmail string
}

func NewAdminService(db *gorm.DB, superAdminEmail string) (*AdminService, error) {
	if db == nil {
		return nil, errors.New("admin service: db is required")
	}
	return &AdminService{db: db, superAdminEmail: normalizeEmail(superAdminEmail)}, nil
}

func (s *AdminService) List(ctx context.Context) ([]models.AdminUser, error) {
	ctx = ensureContext(ctx)

	var admins []models.AdminUser
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("admin service: list: %w", err)
	}
	return admins, nil
}

// Add grants admin access to an email address.
func (s *AdminService) Add(ctx context.Context, email string) (*models.AdminUser, error) {
	ctx = ensureContext(ctx)

	email = normalizeEmail(email)
	if email == "" {
		return nil, apperrors.NewBadRequest("Email is required")
	}

	admin := models.AdminUser{
		Email:  email,
		Role:   models.AdminRoleAdmin,
		Active: true,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAdminExists
		}
		return nil, fmt.Errorf("admin service: add: %w", err)
	}
	return &admin, nil
}

// SetActive toggles an admin's access. The super admin can never be deactivated.
func (s *AdminService) SetActive(ctx context.Context, id string, active bool) (*models.AdminUser, error) {
	ctx = ensureContext(ctx)

	admin, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admin.IsSuperAdmin() && !active {
		return nil, apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Model(admin).Update("active", active).Error; err != nil {
		return nil, fmt.Errorf("admin service: set active: %w", err)
	}
	admin.Active = active
	return admin, nil
}

// Delete revokes an admin's access. The super admin can never be deleted.
func (s *AdminService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	admin, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if admin.IsSuperAdmin() {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(admin).Error; err != nil {
		return fmt.Errorf("admin service: delete: %w", err)
	}
	return nil
}

// Authorize maps an externally verified identity onto the admin allow-list.
// The configured super admin email is self-provisioning: its record is
// created or repaired on first login. Everyone else must already be listed
// and active.
func (s *AdminService) Authorize(ctx context.Context, identity auth.Identity) (*models.AdminUser, error) {
	ctx = ensureContext(ctx)

	email := normalizeEmail(identity.Email)
	if email == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var admin models.AdminUser
	err := s.db.WithContext(ctx).First(&admin, "email = ?", email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if email != s.superAdminEmail {
			return nil, apperrors.ErrForbidden
		}
		admin = models.AdminUser{
			Email:  email,
			Role:   models.AdminRoleSuperAdmin,
			Active: true,
		}
		if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
			return nil, fmt.Errorf("admin service: provision super admin: %w", err)
		}
		return &admin, nil
	case err != nil:
		return nil, fmt.Errorf("admin service: authorize: %w", err)
	}

	if email == s.superAdminEmail && (!admin.IsSuperAdmin() || !admin.Active) {
		updates := map[string]any{"role": models.AdminRoleSuperAdmin, "active": true}
		if err := s.db.WithContext(ctx).Model(&admin).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("admin service: restore super admin: %w", err)
		}
		admin.Role = models.AdminRoleSuperAdmin
		admin.Active = true
	}

	if !admin.Active {
		return nil, apperrors.ErrForbidden
	}
	return &admin, nil
}

func (s *AdminService) get(ctx context.Context, id string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := s.db.WithContext(ctx).First(&admin, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("admin service: get: %w", err)
	}
	return &admin, nil
}
