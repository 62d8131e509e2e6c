package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UserRoleTeamMember = "team_member"
	UserRoleTeamLead   = "team_lead"
	UserRoleManager    = "manager"
	UserRoleVIP        = "vip"
	UserRoleAdmin      = "admin"
)

const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// DbUser represents a persisted directory account.
type DbUser struct {
	ID              string     `gorm:"column:id;type:varchar(36);primarykey" json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Email           string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    string     `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	FirstName       string     `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName        string     `gorm:"column:last_name;type:varchar(100);not null" json:"last_name"`
	Avatar          string     `gorm:"column:avatar;type:varchar(512)" json:"avatar,omitempty"`
	Role            string     `gorm:"column:role;type:varchar(50);index;not null" json:"role"`
	Status          string     `gorm:"column:status;type:varchar(50);index;not null" json:"status"`
	Department      string     `gorm:"column:department;type:varchar(255)" json:"department,omitempty"`
	Position        string     `gorm:"column:position;type:varchar(255)" json:"position,omitempty"`
	ManagerID       string     `gorm:"column:manager_id;type:varchar(36);index" json:"manager_id,omitempty"`
	TeamID          string     `gorm:"column:team_id;type:varchar(36);index" json:"team_id,omitempty"`
	Bio             string     `gorm:"column:bio;type:text" json:"bio,omitempty"`
	PhoneNumber     string     `gorm:"column:phone_number;type:varchar(50)" json:"phone_number,omitempty"`
	IsEmailVerified bool       `gorm:"column:is_email_verified;not null;default:false" json:"is_email_verified"`
	LastLoginAt     *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// BeforeCreate assigns the identifier. It is immutable afterwards.
func (u *DbUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *DbUser) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

func (u *DbUser) IsVIP() bool {
	return u != nil && u.Role == UserRoleVIP
}

func (u *DbUser) IsManager() bool {
	return u != nil && u.Role == UserRoleManager
}

func (u *DbUser) IsTeamLead() bool {
	return u != nil && u.Role == UserRoleTeamLead
}

func (u *DbUser) IsTeamMember() bool {
	return u != nil && u.Role == UserRoleTeamMember
}

// CanManageUsers reports whether the user may administer other accounts broadly.
func (u *DbUser) CanManageUsers() bool {
	return u.IsAdmin() || u.IsManager()
}

// FullName joins first and last name for display purposes.
func (u *DbUser) FullName() string {
	if u == nil {
		return ""
	}
	return u.FirstName + " " + u.LastName
}

// ValidRole reports whether the value belongs to the closed role enumeration.
func ValidRole(role string) bool {
	switch role {
	case UserRoleTeamMember, UserRoleTeamLead, UserRoleManager, UserRoleVIP, UserRoleAdmin:
		return true
	default:
		return false
	}
}

// ValidStatus reports whether the value belongs to the closed status enumeration.
func ValidStatus(status string) bool {
	switch status {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	default:
		return false
	}
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Status  string `json:"status" form:"status" query:"status"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

// UserCreateRequest is the payload for creating a directory account.
type UserCreateRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	FirstName   string `json:"first_name" binding:"required,min=2,max=50"`
	LastName    string `json:"last_name" binding:"required,min=2,max=50"`
	Role        string `json:"role,omitempty"`
	Status      string `json:"status,omitempty"`
	Department  string `json:"department,omitempty"`
	Position    string `json:"position,omitempty"`
	ManagerID   string `json:"manager_id,omitempty"`
	TeamID      string `json:"team_id,omitempty"`
	Bio         string `json:"bio,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// UserUpdateRequest is the payload for the generic update operation. Role and
// status are deliberately absent: those changes flow only through the dedicated
// status/role operations.
type UserUpdateRequest struct {
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
	Password    *string `json:"password,omitempty" binding:"omitempty,min=6"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	Department  *string `json:"department,omitempty"`
	Position    *string `json:"position,omitempty"`
	ManagerID   *string `json:"manager_id,omitempty"`
	TeamID      *string `json:"team_id,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

// StatusChangeRequest carries the single field of the status operation.
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

// RoleChangeRequest carries the single field of the role operation.
type RoleChangeRequest struct {
	Role string `json:"role" binding:"required"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      DbUser    `json:"user"`
}

// UserListResponse is the response for listing users.
type UserListResponse struct {
	Users []DbUser `json:"users"`
	Meta  *Meta    `json:"meta,omitempty"`
}
