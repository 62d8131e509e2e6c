package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"orgdir/internal/access"
	"orgdir/internal/auth"
	"orgdir/internal/entity"
	"orgdir/internal/model"

	"gorm.io/gorm"
)

// UserService orchestrates the permission evaluator against the repository.
// The acting principal is an explicit parameter on every caller-initiated
// operation; there is no ambient session state.
type UserService struct {
	repo model.Repository
}

// NewUserService creates the directory service.
func NewUserService(repo model.Repository) *UserService {
	return &UserService{repo: repo}
}

// Create registers a new account. The email must be unused; the password is
// hashed before it ever reaches the store. Role and status default to
// team_member/active when unspecified.
func (s *UserService) Create(ctx context.Context, req *entity.UserCreateRequest) (*entity.DbUser, error) {
	email := strings.TrimSpace(req.Email)

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = entity.UserRoleTeamMember
	}
	if !entity.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	status := req.Status
	if status == "" {
		status = entity.UserStatusActive
	}
	if !entity.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.DbUser{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Avatar:       strings.TrimSpace(req.Avatar),
		Role:         role,
		Status:       status,
		Department:   strings.TrimSpace(req.Department),
		Position:     strings.TrimSpace(req.Position),
		ManagerID:    strings.TrimSpace(req.ManagerID),
		TeamID:       strings.TrimSpace(req.TeamID),
		Bio:          req.Bio,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		// The unique index is the backstop against concurrent creations.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// FindAll lists the directory slice visible to the principal. The vip scope is
// projected to the safe field subset; the query only paginates the broad
// scopes, team and self listings come back whole.
func (s *UserService) FindAll(ctx context.Context, principal *entity.DbUser, query *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	switch access.ListScopeFor(principal) {
	case access.ScopeAllRedacted:
		users, meta, err := s.repo.ListUsers(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		projected := make([]entity.DbUser, len(users))
		for i := range users {
			projected[i] = *access.SafeProjection(&users[i])
		}
		return projected, meta, nil

	case access.ScopeAll:
		return s.repo.ListUsers(ctx, query)

	case access.ScopeTeam:
		users, err := s.repo.ListUsersByTeam(ctx, principal.TeamID)
		if err != nil {
			return nil, nil, err
		}
		return users, nil, nil

	default:
		user, err := s.repo.GetUserByID(ctx, principal.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []entity.DbUser{}, nil, nil
			}
			return nil, nil, err
		}
		return []entity.DbUser{*user}, nil, nil
	}
}

// FindOne resolves a single record under the read-one rules. A missing target
// is NotFound even for callers who would have been denied.
func (s *UserService) FindOne(ctx context.Context, id string, principal *entity.DbUser) (*entity.DbUser, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !access.CanReadUser(principal, user) {
		return nil, ErrPermissionDenied
	}
	if access.NeedsRedaction(principal, user) {
		return access.RedactSensitive(user), nil
	}
	return user, nil
}

// Update applies a patch to the target under the update rules, evaluated
// against the pre-patch record. A vip self-update silently loses its
// privileged fields; a changed email must not belong to another record.
func (s *UserService) Update(ctx context.Context, id string, req *entity.UserUpdateRequest, principal *entity.DbUser) (*entity.DbUser, error) {
	target, err := s.FindOne(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	if !access.CanUpdateUser(principal, target) {
		return nil, ErrPermissionDenied
	}

	updates := make(map[string]interface{})

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && email != target.Email {
			existing, err := s.repo.GetUserByEmail(ctx, email)
			if err == nil && existing.ID != id {
				return nil, ErrEmailTaken
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			updates["email"] = email
		}
	}

	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*req.Avatar)
	}
	if req.Department != nil {
		updates["department"] = strings.TrimSpace(*req.Department)
	}
	if req.Position != nil {
		updates["position"] = strings.TrimSpace(*req.Position)
	}
	if req.ManagerID != nil {
		updates["manager_id"] = strings.TrimSpace(*req.ManagerID)
	}
	if req.TeamID != nil {
		updates["team_id"] = strings.TrimSpace(*req.TeamID)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.PhoneNumber != nil {
		updates["phone_number"] = strings.TrimSpace(*req.PhoneNumber)
	}

	if principal.IsVIP() {
		access.StripRestrictedFields(updates)
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateUser(ctx, id, updates); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrEmailTaken
			}
			return nil, err
		}
	}

	return s.FindOne(ctx, id, principal)
}

// Remove hard-deletes the target. Admin only, never oneself.
func (s *UserService) Remove(ctx context.Context, id string, principal *entity.DbUser) error {
	target, err := s.FindOne(ctx, id, principal)
	if err != nil {
		return err
	}

	if !access.CanDeleteUser(principal, target) {
		return ErrPermissionDenied
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// FindTeamMembers lists all users with the given team id. Pure filter: the
// permission check needs no target fetch.
func (s *UserService) FindTeamMembers(ctx context.Context, teamID string, principal *entity.DbUser) ([]entity.DbUser, error) {
	if !access.CanAccessTeam(principal, teamID) {
		return nil, ErrPermissionDenied
	}
	return s.repo.ListUsersByTeam(ctx, teamID)
}

// FindSubordinates lists all users reporting to the given manager id.
func (s *UserService) FindSubordinates(ctx context.Context, managerID string, principal *entity.DbUser) ([]entity.DbUser, error) {
	if !access.CanAccessManager(principal, managerID) {
		return nil, ErrPermissionDenied
	}
	return s.repo.ListUsersByManager(ctx, managerID)
}

// ChangeUserStatus persists a status change. Admin or manager only; changing
// one's own status is denied regardless of role.
func (s *UserService) ChangeUserStatus(ctx context.Context, id, status string, principal *entity.DbUser) (*entity.DbUser, error) {
	if !entity.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	target, err := s.FindOne(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	if !access.CanChangeStatus(principal, target) {
		return nil, ErrPermissionDenied
	}

	if err := s.repo.UpdateUser(ctx, id, map[string]interface{}{"status": status}); err != nil {
		return nil, err
	}
	return s.FindOne(ctx, id, principal)
}

// ChangeUserRole persists a role change. Admin only; changing one's own role
// is denied even for admins.
func (s *UserService) ChangeUserRole(ctx context.Context, id, role string, principal *entity.DbUser) (*entity.DbUser, error) {
	if !entity.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	target, err := s.FindOne(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	if !access.CanChangeRole(principal, target) {
		return nil, ErrPermissionDenied
	}

	if err := s.repo.UpdateUser(ctx, id, map[string]interface{}{"role": role}); err != nil {
		return nil, err
	}
	return s.FindOne(ctx, id, principal)
}

// UpdateLastLogin stamps a successful sign-in. System-initiated by the
// authentication layer, so no principal and no evaluator involvement.
func (s *UserService) UpdateLastLogin(ctx context.Context, id string) error {
	return s.repo.TouchLastLogin(ctx, id, time.Now().UTC())
}
