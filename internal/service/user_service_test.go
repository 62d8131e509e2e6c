package service

import (
	"context"
	"testing"
	"time"

	"orgdir/internal/auth"
	"orgdir/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, user *entity.DbUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockRepository) GetUserByID(ctx context.Context, id string) (*entity.DbUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DbUser), args.Error(1)
}

func (m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DbUser), args.Error(1)
}

func (m *MockRepository) ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error) {
	args := m.Called(ctx, params)
	var users []entity.DbUser
	if args.Get(0) != nil {
		users = args.Get(0).([]entity.DbUser)
	}
	var meta *entity.Meta
	if args.Get(1) != nil {
		meta = args.Get(1).(*entity.Meta)
	}
	return users, meta, args.Error(2)
}

func (m *MockRepository) ListUsersByTeam(ctx context.Context, teamID string) ([]entity.DbUser, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DbUser), args.Error(1)
}

func (m *MockRepository) ListUsersByManager(ctx context.Context, managerID string) ([]entity.DbUser, error) {
	args := m.Called(ctx, managerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DbUser), args.Error(1)
}

func (m *MockRepository) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) TouchLastLogin(ctx context.Context, id string, when time.Time) error {
	args := m.Called(ctx, id, when)
	return args.Error(0)
}

func activeUser(id, role, teamID, managerID string) *entity.DbUser {
	return &entity.DbUser{
		ID:        id,
		Email:     id + "@example.com",
		Role:      role,
		Status:    entity.UserStatusActive,
		TeamID:    teamID,
		ManagerID: managerID,
	}
}

func TestCreateAppliesDefaultsAndHashesPassword(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("GetUserByEmail", ctx, "jane@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("CreateUser", ctx, mock.AnythingOfType("*entity.DbUser")).Return(nil)

	user, err := svc.Create(ctx, &entity.UserCreateRequest{
		Email:     "jane@example.com",
		Password:  "hunter22",
		FirstName: "Jane",
		LastName:  "Doe",
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.UserRoleTeamMember, user.Role)
	assert.Equal(t, entity.UserStatusActive, user.Status)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NoError(t, auth.VerifyPassword(user.PasswordHash, "hunter22"))
	repo.AssertExpectations(t)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("GetUserByEmail", ctx, "jane@example.com").Return(activeUser("u1", entity.UserRoleTeamMember, "", ""), nil)

	_, err := svc.Create(ctx, &entity.UserCreateRequest{
		Email:     "jane@example.com",
		Password:  "hunter22",
		FirstName: "Jane",
		LastName:  "Doe",
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("GetUserByEmail", ctx, "jane@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Create(ctx, &entity.UserCreateRequest{
		Email:     "jane@example.com",
		Password:  "hunter22",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      "superuser",
	})

	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestFindOneSelfAlwaysAllowed(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	principal := activeUser("u1", entity.UserRoleTeamMember, "t1", "")
	repo.On("GetUserByID", ctx, "u1").Return(principal, nil)

	user, err := svc.FindOne(ctx, "u1", principal)

	assert.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestFindOneRedactsForVIP(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	target := activeUser("u1", entity.UserRoleTeamMember, "t1", "")
	target.PasswordHash = "secret-hash"
	repo.On("GetUserByID", ctx, "u1").Return(target, nil)

	user, err := svc.FindOne(ctx, "u1", activeUser("v", entity.UserRoleVIP, "", ""))

	assert.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, "secret-hash", target.PasswordHash)
}

func TestFindOneDeniedForTeamMember(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("GetUserByID", ctx, "u2").Return(activeUser("u2", entity.UserRoleTeamMember, "t1", ""), nil)

	_, err := svc.FindOne(ctx, "u2", activeUser("u1", entity.UserRoleTeamMember, "t1", ""))

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFindOneMissingTargetWinsOverDenial(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("GetUserByID", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.FindOne(ctx, "ghost", activeUser("u1", entity.UserRoleTeamMember, "t1", ""))

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateVIPSelfLosesPrivilegedFields(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	principal := activeUser("v", entity.UserRoleVIP, "t1", "m1")
	repo.On("GetUserByID", ctx, "v").Return(principal, nil)
	repo.On("UpdateUser", ctx, "v", mock.MatchedBy(func(updates map[string]interface{}) bool {
		_, hasManager := updates["manager_id"]
		_, hasTeam := updates["team_id"]
		return !hasManager && !hasTeam && updates["first_name"] == "Violet"
	})).Return(nil)

	firstName := "Violet"
	managerID := "m9"
	teamID := "t9"
	_, err := svc.Update(ctx, "v", &entity.UserUpdateRequest{
		FirstName: &firstName,
		ManagerID: &managerID,
		TeamID:    &teamID,
	}, principal)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateManagerDeniedOnAdminTarget(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("GetUserByID", ctx, "a").Return(activeUser("a", entity.UserRoleAdmin, "", ""), nil)

	firstName := "Alfred"
	_, err := svc.Update(ctx, "a", &entity.UserUpdateRequest{FirstName: &firstName},
		activeUser("m", entity.UserRoleManager, "", ""))

	assert.ErrorIs(t, err, ErrPermissionDenied)
	repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTeamLeadScope(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	lead := activeUser("l", entity.UserRoleTeamLead, "t1", "")

	repo.On("GetUserByID", ctx, "u1").Return(activeUser("u1", entity.UserRoleTeamMember, "t1", ""), nil)
	repo.On("GetUserByID", ctx, "l2").Return(activeUser("l2", entity.UserRoleTeamLead, "t1", ""), nil)
	repo.On("UpdateUser", ctx, "u1", mock.Anything).Return(nil)

	position := "senior developer"

	_, err := svc.Update(ctx, "u1", &entity.UserUpdateRequest{Position: &position}, lead)
	assert.NoError(t, err)

	_, err = svc.Update(ctx, "l2", &entity.UserUpdateRequest{Position: &position}, lead)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpdateEmailConflict(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	admin := activeUser("a", entity.UserRoleAdmin, "", "")
	repo.On("GetUserByID", ctx, "u1").Return(activeUser("u1", entity.UserRoleTeamMember, "t1", ""), nil)
	repo.On("GetUserByEmail", ctx, "taken@example.com").Return(activeUser("u2", entity.UserRoleTeamMember, "t1", ""), nil)

	email := "taken@example.com"
	_, err := svc.Update(ctx, "u1", &entity.UserUpdateRequest{Email: &email}, admin)

	assert.ErrorIs(t, err, ErrEmailTaken)
	repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveAdminOnlyAndNeverSelf(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	admin := activeUser("a", entity.UserRoleAdmin, "", "")
	repo.On("GetUserByID", ctx, "a").Return(admin, nil)
	repo.On("GetUserByID", ctx, "u1").Return(activeUser("u1", entity.UserRoleTeamMember, "t1", ""), nil)
	repo.On("DeleteUser", ctx, "u1").Return(nil)

	assert.ErrorIs(t, svc.Remove(ctx, "a", admin), ErrPermissionDenied)
	assert.NoError(t, svc.Remove(ctx, "u1", admin))
	assert.ErrorIs(t, svc.Remove(ctx, "u1", activeUser("m", entity.UserRoleManager, "", "")), ErrPermissionDenied)
	repo.AssertExpectations(t)
}

func TestChangeUserStatusRules(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	manager := activeUser("m", entity.UserRoleManager, "", "")
	admin := activeUser("a", entity.UserRoleAdmin, "", "")
	repo.On("GetUserByID", ctx, "u1").Return(activeUser("u1", entity.UserRoleTeamMember, "t1", ""), nil)
	repo.On("GetUserByID", ctx, "a").Return(admin, nil)
	repo.On("UpdateUser", ctx, "u1", map[string]interface{}{"status": entity.UserStatusSuspended}).Return(nil)

	_, err := svc.ChangeUserStatus(ctx, "u1", entity.UserStatusSuspended, manager)
	assert.NoError(t, err)

	_, err = svc.ChangeUserStatus(ctx, "a", entity.UserStatusInactive, admin)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.ChangeUserStatus(ctx, "u1", "banned", manager)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestChangeUserRoleRules(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	admin := activeUser("a", entity.UserRoleAdmin, "", "")
	repo.On("GetUserByID", ctx, "u1").Return(activeUser("u1", entity.UserRoleTeamMember, "t1", ""), nil)
	repo.On("GetUserByID", ctx, "a").Return(admin, nil)
	repo.On("UpdateUser", ctx, "u1", map[string]interface{}{"role": entity.UserRoleTeamLead}).Return(nil)

	_, err := svc.ChangeUserRole(ctx, "u1", entity.UserRoleTeamLead, admin)
	assert.NoError(t, err)

	_, err = svc.ChangeUserRole(ctx, "a", entity.UserRoleManager, admin)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.ChangeUserRole(ctx, "u1", entity.UserRoleTeamLead, activeUser("m", entity.UserRoleManager, "", ""))
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.ChangeUserRole(ctx, "u1", "owner", admin)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestFindAllScopes(t *testing.T) {
	ctx := context.Background()

	t.Run("team member sees only self", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewUserService(repo)
		principal := activeUser("u1", entity.UserRoleTeamMember, "t1", "")
		repo.On("GetUserByID", ctx, "u1").Return(principal, nil)

		users, meta, err := svc.FindAll(ctx, principal, &entity.UserQuery{})
		assert.NoError(t, err)
		assert.Nil(t, meta)
		assert.Len(t, users, 1)
		assert.Equal(t, "u1", users[0].ID)
	})

	t.Run("team lead sees own team", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewUserService(repo)
		principal := activeUser("l", entity.UserRoleTeamLead, "t1", "")
		repo.On("ListUsersByTeam", ctx, "t1").Return([]entity.DbUser{
			*activeUser("l", entity.UserRoleTeamLead, "t1", ""),
			*activeUser("u1", entity.UserRoleTeamMember, "t1", ""),
		}, nil)

		users, _, err := svc.FindAll(ctx, principal, &entity.UserQuery{})
		assert.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("vip sees everyone projected", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewUserService(repo)
		principal := activeUser("v", entity.UserRoleVIP, "", "")
		record := *activeUser("u1", entity.UserRoleTeamMember, "t1", "m1")
		record.PasswordHash = "secret-hash"
		record.PhoneNumber = "123"
		query := &entity.UserQuery{}
		repo.On("ListUsers", ctx, query).Return([]entity.DbUser{record}, &entity.Meta{Total: 1}, nil)

		users, meta, err := svc.FindAll(ctx, principal, query)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), meta.Total)
		assert.Empty(t, users[0].PasswordHash)
		assert.Empty(t, users[0].PhoneNumber)
		assert.Empty(t, users[0].TeamID)
		assert.Equal(t, "u1@example.com", users[0].Email)
	})

	t.Run("admin sees everyone unprojected", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewUserService(repo)
		principal := activeUser("a", entity.UserRoleAdmin, "", "")
		query := &entity.UserQuery{}
		record := *activeUser("u1", entity.UserRoleTeamMember, "t1", "m1")
		record.PasswordHash = "secret-hash"
		repo.On("ListUsers", ctx, query).Return([]entity.DbUser{record}, &entity.Meta{Total: 1}, nil)

		users, _, err := svc.FindAll(ctx, principal, query)
		assert.NoError(t, err)
		assert.Equal(t, "t1", users[0].TeamID)
	})
}

func TestFindTeamMembersPermission(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	lead := activeUser("l", entity.UserRoleTeamLead, "t1", "")
	repo.On("ListUsersByTeam", ctx, "t1").Return([]entity.DbUser{}, nil)

	_, err := svc.FindTeamMembers(ctx, "t1", lead)
	assert.NoError(t, err)

	_, err = svc.FindTeamMembers(ctx, "t2", lead)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.FindTeamMembers(ctx, "t1", activeUser("u1", entity.UserRoleTeamMember, "t1", ""))
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFindSubordinatesPermission(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("ListUsersByManager", ctx, "m1").Return([]entity.DbUser{}, nil)
	repo.On("ListUsersByManager", ctx, "m9").Return([]entity.DbUser{}, nil)

	_, err := svc.FindSubordinates(ctx, "m1", activeUser("u1", entity.UserRoleTeamMember, "t1", "m1"))
	assert.NoError(t, err)

	_, err = svc.FindSubordinates(ctx, "m2", activeUser("u1", entity.UserRoleTeamMember, "t1", "m1"))
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.FindSubordinates(ctx, "m9", activeUser("v", entity.UserRoleVIP, "", ""))
	assert.NoError(t, err)
	repo.AssertCalled(t, "ListUsersByManager", ctx, "m1")
}

func TestUpdateLastLogin(t *testing.T) {
	repo := new(MockRepository)
	svc := NewUserService(repo)
	ctx := context.Background()

	repo.On("TouchLastLogin", ctx, "u1", mock.AnythingOfType("time.Time")).Return(nil)

	assert.NoError(t, svc.UpdateLastLogin(ctx, "u1"))
	repo.AssertExpectations(t)
}
