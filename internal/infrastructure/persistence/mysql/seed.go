package mysql

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/xiebiao/bookcatalog/internal/domain/user"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
)

// Seed 写入引导数据（幂等，可重复执行）
// 步骤：
// 1. 创建内置权限（books:*、users:*）
// 2. 创建内置角色：super_admin（绕过权限检查，不挂载具体权限）、
//    editor（图书读写与导出权限）
// 3. 配置了引导管理员时创建super_admin账号（已存在则跳过）
func Seed(db *gorm.DB, cfg *config.Config) error {
	return db.Transaction(func(tx *gorm.DB) error {
		perms, err := seedPermissions(tx)
		if err != nil {
			return err
		}
		if err := seedRoles(tx, perms); err != nil {
			return err
		}
		return seedAdmin(tx, cfg)
	})
}

var builtinPermissions = []string{
	user.PermBooksCreate,
	user.PermBooksRead,
	user.PermBooksUpdate,
	user.PermBooksDelete,
	user.PermBooksExport,
	user.PermUsersCreate,
	user.PermUsersRead,
	user.PermUsersUpdate,
	user.PermUsersDelete,
}

// editorPermissions editor角色的权限集合：图书全量操作，不含用户管理
var editorPermissions = []string{
	user.PermBooksCreate,
	user.PermBooksRead,
	user.PermBooksUpdate,
	user.PermBooksDelete,
	user.PermBooksExport,
}

func seedPermissions(tx *gorm.DB) (map[string]PermissionModel, error) {
	perms := make(map[string]PermissionModel, len(builtinPermissions))
	for _, action := range builtinPermissions {
		var m PermissionModel
		if err := tx.Where(&PermissionModel{Action: action}).FirstOrCreate(&m).Error; err != nil {
			return nil, err
		}
		perms[action] = m
	}
	return perms, nil
}

func seedRoles(tx *gorm.DB, perms map[string]PermissionModel) error {
	var superAdmin RoleModel
	if err := tx.Where(&RoleModel{Name: user.RoleSuperAdmin}).FirstOrCreate(&superAdmin).Error; err != nil {
		return err
	}

	var editor RoleModel
	if err := tx.Where(&RoleModel{Name: user.RoleEditor}).FirstOrCreate(&editor).Error; err != nil {
		return err
	}

	editorPerms := make([]PermissionModel, 0, len(editorPermissions))
	for _, action := range editorPermissions {
		editorPerms = append(editorPerms, perms[action])
	}
	return tx.Model(&editor).Association("Permissions").Replace(editorPerms)
}

func seedAdmin(tx *gorm.DB, cfg *config.Config) error {
	if cfg.Security.SeedAdminEmail == "" || cfg.Security.SeedAdminPass == "" {
		return nil
	}

	var count int64
	err := tx.Model(&UserModel{}).
		Where("email = ?", cfg.Security.SeedAdminEmail).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var role RoleModel
	if err := tx.Where("name = ?", user.RoleSuperAdmin).First(&role).Error; err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Security.SeedAdminPass), cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	admin := &UserModel{
		Email:    cfg.Security.SeedAdminEmail,
		Password: string(hash),
		RoleID:   role.ID,
		IsActive: true,
		Profile: &ProfileModel{
			FirstName: "Super",
			LastName:  "Admin",
		},
	}
	if err := tx.Create(admin).Error; err != nil {
		return err
	}

	log.Info().Str("email", cfg.Security.SeedAdminEmail).Msg("引导管理员账号已创建")
	return nil
}
