package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level of a user in the POS.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleManager    Role = "MANAGER"
	RoleKitchen    Role = "KITCHEN"
	RoleDelivery   Role = "DELIVERY"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleManager, RoleKitchen, RoleDelivery, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// User represents a registered customer or staff member.
// DeletedAt is a plain column; repositories filter on it explicitly.
type User struct {
	ID          uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Email       string     `json:"email" gorm:"size:255;not null"`
	Name        string     `json:"name" gorm:"size:255;not null"`
	Password    string     `json:"-" gorm:"size:255;not null"` // bcrypt hash, never exposed
	Role        Role       `json:"role" gorm:"type:varchar(20);not null;default:'CUSTOMER'"`
	Status      UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	DeletedAt   *time.Time `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PublicUser is the projection of a user that may leave the service.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the password-free projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// PendingRegistration is the signup payload parked in the cache between
// OTP issuance and verification. The plaintext password never reaches it.
type PendingRegistration struct {
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
}
