package mysql

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）并写入引导数据（角色/权限/超管账号）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true, // 唯一键冲突转换为gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info().Str("addr", fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)).Msg("数据库连接成功")

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	if err := Seed(db, cfg); err != nil {
		return nil, fmt.Errorf("引导数据写入失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 注意：AutoMigrate只会创建表、添加字段，不会删除或修改现有字段，
// 生产环境应使用版本化的迁移脚本
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&RoleModel{},
		&PermissionModel{},
		&UserModel{},
		&ProfileModel{},
		&AuthorModel{},
		&PublisherModel{},
		&GenreModel{},
		&BookModel{},
	)
}

// =========================================
// GORM数据模型
// =========================================
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag；
//    domain层的实体不依赖GORM，Repository负责两者之间的转换
// 2. 主键统一使用UUID（char(36)），BeforeCreate钩子生成
// 3. 图书与类型是多对多（book_genres连接表），与作者/出版社是外键引用

// AuthorModel 作者模型（共享引用数据，按名称find-or-create）
type AuthorModel struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:255;not null;comment:作者名"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (AuthorModel) TableName() string {
	return "authors"
}

func (m *AuthorModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// PublisherModel 出版社模型（共享引用数据，按名称find-or-create）
type PublisherModel struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:255;not null;comment:出版社名"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (PublisherModel) TableName() string {
	return "publishers"
}

func (m *PublisherModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// GenreModel 图书类型模型（与图书多对多）
type GenreModel struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:100;not null;comment:类型名"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (GenreModel) TableName() string {
	return "genres"
}

func (m *GenreModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// BookModel 图书模型
// 设计说明:
// 1. 书名与ISBN的唯一性在未删除记录范围内生效:
//    软删除行保留在表中,唯一索引含deleted_at会破坏语义,
//    因此唯一性由仓储预检+应用层约定保证,普通索引用于查询加速
// 2. 价格使用decimal(10,2),与导出格式(两位小数)一致
// 3. CreatorID关联创建该记录的用户
type BookModel struct {
	ID           string         `gorm:"type:char(36);primaryKey"`
	ISBN         *string        `gorm:"index;size:32;comment:ISBN号(可选)"`
	Title        string         `gorm:"index;size:255;not null;comment:书名"`
	Price        float64        `gorm:"type:decimal(10,2);not null;comment:价格"`
	Availability bool           `gorm:"not null;default:true;comment:是否可借阅"`
	ImageURL     *string        `gorm:"size:2048;comment:封面图片URL"`
	AuthorID     string         `gorm:"type:char(36);index;not null;comment:作者ID"`
	PublisherID  string         `gorm:"type:char(36);index;not null;comment:出版社ID"`
	CreatorID    string         `gorm:"type:char(36);index;not null;comment:创建者用户ID"`
	Author       AuthorModel    `gorm:"foreignKey:AuthorID"`
	Publisher    PublisherModel `gorm:"foreignKey:PublisherID"`
	Genres       []GenreModel   `gorm:"many2many:book_genres"`
	CreatedAt    time.Time      `gorm:"comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"comment:更新时间"`
	DeletedAt    gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

func (BookModel) TableName() string {
	return "books"
}

func (m *BookModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// RoleModel 角色模型（与权限多对多）
type RoleModel struct {
	ID          string            `gorm:"type:char(36);primaryKey"`
	Name        string            `gorm:"uniqueIndex;size:50;not null;comment:角色名"`
	Permissions []PermissionModel `gorm:"many2many:role_permissions"`
	CreatedAt   time.Time         `gorm:"comment:创建时间"`
	UpdatedAt   time.Time         `gorm:"comment:更新时间"`
}

func (RoleModel) TableName() string {
	return "roles"
}

func (m *RoleModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// PermissionModel 权限模型
type PermissionModel struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Action    string    `gorm:"uniqueIndex;size:100;not null;comment:权限动作(如books:create)"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (PermissionModel) TableName() string {
	return "permissions"
}

func (m *PermissionModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// UserModel 用户模型
// 设计说明:
// 1. Password与RefreshToken均为bcrypt哈希,明文不落库
// 2. TokenVersion是Token吊销机制:登出时+1,旧Token全部失效
type UserModel struct {
	ID                 string        `gorm:"type:char(36);primaryKey"`
	Email              string        `gorm:"uniqueIndex;size:255;not null;comment:邮箱"`
	Password           string        `gorm:"size:255;not null;comment:密码(bcrypt)"`
	TokenVersion       int           `gorm:"not null;default:0;comment:Token版本号"`
	RefreshToken       *string       `gorm:"size:255;comment:Refresh Token哈希(bcrypt)"`
	RoleID             string        `gorm:"type:char(36);index;not null;comment:角色ID"`
	IsActive           bool          `gorm:"not null;default:true;comment:是否启用"`
	MustChangePassword bool          `gorm:"not null;default:false;comment:首次登录需改密"`
	Role               RoleModel     `gorm:"foreignKey:RoleID"`
	Profile            *ProfileModel `gorm:"foreignKey:UserID"`
	CreatedAt          time.Time     `gorm:"comment:创建时间"`
	UpdatedAt          time.Time     `gorm:"comment:更新时间"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ProfileModel 用户档案模型（与用户一对一）
type ProfileModel struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	UserID    string    `gorm:"type:char(36);uniqueIndex;not null;comment:用户ID"`
	FirstName string    `gorm:"size:100;not null;comment:名"`
	LastName  string    `gorm:"size:100;not null;comment:姓"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

func (ProfileModel) TableName() string {
	return "profiles"
}

func (m *ProfileModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
