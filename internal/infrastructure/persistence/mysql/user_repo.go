package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookcatalog/internal/domain/user"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// UserRepository 用户仓储实现
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

// Create 创建用户及其档案（单个事务）
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	m := &UserModel{
		Email:              u.Email,
		Password:           u.Password,
		TokenVersion:       u.TokenVersion,
		RoleID:             u.RoleID,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
		Profile: &ProfileModel{
			FirstName: u.Profile.FirstName,
			LastName:  u.Profile.LastName,
		},
	}

	err := getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(m).Error
	})
	if err != nil {
		if isDuplicateError(err) {
			return user.ErrEmailDuplicate
		}
		return apperrors.Wrap(err, "创建用户失败")
	}

	u.ID = m.ID
	u.Profile.ID = m.Profile.ID
	u.CreatedAt = m.CreatedAt
	u.UpdatedAt = m.UpdatedAt
	return nil
}

// FindByID 根据ID查找用户
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, "users.id = ?", id, false)
}

// FindByEmail 根据邮箱查找用户（登录用）
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "users.email = ?", email, false)
}

// FindWithPermissions 根据ID查找用户并展开角色权限集合
func (r *UserRepository) FindWithPermissions(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, "users.id = ?", id, true)
}

func (r *UserRepository) findOne(ctx context.Context, cond string, arg interface{}, withPermissions bool) (*user.User, error) {
	query := getDB(ctx, r.db).
		Preload("Profile").
		Preload("Role")
	if withPermissions {
		query = query.Preload("Role.Permissions")
	}

	var m UserModel
	err := query.Where(cond, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "查询用户失败")
	}
	return toUserEntity(&m), nil
}

// FindRoleByID 根据ID查找角色
func (r *UserRepository) FindRoleByID(ctx context.Context, id string) (*user.Role, error) {
	var m RoleModel
	err := getDB(ctx, r.db).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrRoleNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "查询角色失败")
	}
	return &user.Role{ID: m.ID, Name: m.Name}, nil
}

// UpdateRefreshTokenHash 更新Refresh Token哈希（nil表示清除）
func (r *UserRepository) UpdateRefreshTokenHash(ctx context.Context, userID string, hash *string) error {
	// 注意：MySQL对值未变化的UPDATE报告0行受影响，
	// 重复清除（已为NULL再置NULL）是合法操作，这里不检查RowsAffected
	err := getDB(ctx, r.db).Model(&UserModel{}).
		Where("id = ?", userID).
		Update("refresh_token", hash).Error
	if err != nil {
		return apperrors.Wrap(err, "更新Refresh Token失败")
	}
	return nil
}

// IncrementTokenVersion 版本号+1，吊销该用户已签发的全部Token
func (r *UserRepository) IncrementTokenVersion(ctx context.Context, userID string) error {
	res := getDB(ctx, r.db).Model(&UserModel{}).
		Where("id = ?", userID).
		Update("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "更新Token版本号失败")
	}
	if res.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// toUserEntity 数据模型转领域实体
func toUserEntity(m *UserModel) *user.User {
	u := &user.User{
		ID:                 m.ID,
		Email:              m.Email,
		Password:           m.Password,
		TokenVersion:       m.TokenVersion,
		RefreshTokenHash:   m.RefreshToken,
		RoleID:             m.RoleID,
		RoleName:           m.Role.Name,
		IsActive:           m.IsActive,
		MustChangePassword: m.MustChangePassword,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.Profile != nil {
		u.Profile = user.Profile{
			ID:        m.Profile.ID,
			FirstName: m.Profile.FirstName,
			LastName:  m.Profile.LastName,
		}
	}
	for _, p := range m.Role.Permissions {
		u.Permissions = append(u.Permissions, p.Action)
	}
	return u
}
