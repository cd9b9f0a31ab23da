package models

// Admin roles. The super admin is provisioned from configuration and can
// never be deactivated or deleted.
const (
	AdminRoleAdmin      = "admin"
	AdminRoleSuperAdmin = "super_admin"
)

// AdminUser grants an externally authenticated identity access to the
// management dashboard. Emails are stored lowercase.
type AdminUser struct {
	BaseModel

	Email  string `gorm:"uniqueIndex;not null" json:"email"`
	Role   string `gorm:"default:admin" json:"role"`
	Active bool   `gorm:"default:true" json:"active"`
}

// IsSuperAdmin reports whether this record holds the distinguished role.
func (a *AdminUser) IsSuperAdmin() bool {
	return a.Role == AdminRoleSuperAdmin
}
