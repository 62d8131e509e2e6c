package model

import (
	"context"
	"time"

	"orgdir/internal/entity"
)

// Repository defines the persistence operations the directory service needs.
type Repository interface {
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id string, updates map[string]interface{}) error
	GetUserByID(ctx context.Context, id string) (*entity.DbUser, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	ListUsersByTeam(ctx context.Context, teamID string) ([]entity.DbUser, error)
	ListUsersByManager(ctx context.Context, managerID string) ([]entity.DbUser, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int64, error)
	TouchLastLogin(ctx context.Context, id string, when time.Time) error
}
