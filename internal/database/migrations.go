package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Survey{},
		&models.Participant{},
		&models.AdminUser{},
		&models.EmailTemplate{},
	); err != nil {
		return err
	}

	return ensureConfirmedSeatIndex(db)
}

// ensureConfirmedSeatIndex installs a partial unique index guaranteeing at
// most one confirmed occupant per (survey, seat). Cancelled rows stay out of
// the index so a freed seat can be reclaimed. MySQL has no partial indexes;
// there the reservation transaction's re-check is the only guard.
func ensureConfirmedSeatIndex(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "sqlite", "postgres":
		return db.Exec(
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_confirmed_seat " +
				"ON participants (survey_id, seat_number) WHERE status = 'confirmed'",
		).Error
	default:
		return nil
	}
}

// SeedData provisions the distinguished super-admin record. The operation is
// idempotent: an existing record keeps its ID, and a demoted or deactivated
// record is restored.
func SeedData(db *gorm.DB, superAdminEmail string) error {
	email := strings.ToLower(strings.TrimSpace(superAdminEmail))
	if email == "" {
		return nil
	}

	var admin models.AdminUser
	err := db.Where("email = ?", email).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.Create(&models.AdminUser{
			Email:  email,
			Role:   models.AdminRoleSuperAdmin,
			Active: true,
		}).Error
	case err != nil:
		return err
	}

	if admin.Role != models.AdminRoleSuperAdmin || !admin.Active {
		return db.Model(&admin).Updates(map[string]any{
			"role":   models.AdminRoleSuperAdmin,
			"active": true,
		}).Error
	}

	return nil
}
