package user

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo 内存版用户仓储
type fakeUserRepo struct {
	users map[string]*User // key: userID
	roles map[string]*Role // key: roleID
}

func newFakeUserRepo() *fakeUserRepo {
	editorID := uuid.NewString()
	return &fakeUserRepo{
		users: make(map[string]*User),
		roles: map[string]*Role{
			editorID: {ID: editorID, Name: RoleEditor},
		},
	}
}

func (r *fakeUserRepo) editorRoleID() string {
	for id := range r.roles {
		return id
	}
	return ""
}

func (r *fakeUserRepo) Create(ctx context.Context, u *User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrEmailDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.Profile.ID = uuid.NewString()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) FindWithPermissions(ctx context.Context, id string) (*User, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeUserRepo) FindRoleByID(ctx context.Context, id string) (*Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

func (r *fakeUserRepo) UpdateRefreshTokenHash(ctx context.Context, userID string, hash *string) error {
	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.RefreshTokenHash = hash
	return nil
}

func (r *fakeUserRepo) IncrementTokenVersion(ctx context.Context, userID string) error {
	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.TokenVersion++
	return nil
}

// TestCreateUser 测试管理员开通用户
func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("正常创建并返回初始密码", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := NewService(repo, bcrypt.MinCost)

		u, password, err := svc.CreateUser(ctx, "alice@example.com", "Alice", "Wang", repo.editorRoleID())
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, RoleEditor, u.RoleName)
		assert.True(t, u.MustChangePassword, "新用户首次登录必须改密")
		assert.True(t, u.IsActive)
		assert.Len(t, password, 16)

		// 持久化的是哈希而非明文
		assert.NotEqual(t, password, u.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)))
	})

	t.Run("邮箱已存在拒绝", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := NewService(repo, bcrypt.MinCost)
		_, _, err := svc.CreateUser(ctx, "bob@example.com", "Bob", "Li", repo.editorRoleID())
		require.NoError(t, err)

		_, _, err = svc.CreateUser(ctx, "bob@example.com", "Bobby", "Liu", repo.editorRoleID())
		assert.ErrorIs(t, err, ErrEmailDuplicate)
	})

	t.Run("角色不存在拒绝", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := NewService(repo, bcrypt.MinCost)
		_, _, err := svc.CreateUser(ctx, "carol@example.com", "Carol", "Zhang", uuid.NewString())
		assert.ErrorIs(t, err, ErrRoleNotFound)
	})
}

// TestAuthenticate 测试登录凭证校验
func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := NewService(repo, bcrypt.MinCost)

	_, password, err := svc.CreateUser(ctx, "dave@example.com", "Dave", "Chen", repo.editorRoleID())
	require.NoError(t, err)

	t.Run("正确凭证通过", func(t *testing.T) {
		u, err := svc.Authenticate(ctx, "dave@example.com", password)
		require.NoError(t, err)
		assert.Equal(t, "dave@example.com", u.Email)
	})

	t.Run("密码错误返回统一错误", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "dave@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("用户不存在返回统一错误", func(t *testing.T) {
		// 与密码错误不可区分，避免暴露邮箱是否注册
		_, err := svc.Authenticate(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

// TestRefreshTokenLifecycle 测试Refresh Token哈希的存取与吊销
func TestRefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := NewService(repo, bcrypt.MinCost)

	u, _, err := svc.CreateUser(ctx, "erin@example.com", "Erin", "Zhao", repo.editorRoleID())
	require.NoError(t, err)

	// JWT远超bcrypt的72字节输入上限，哈希前会先做SHA-256摘要
	token := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 20)

	t.Run("未设置哈希时校验拒绝", func(t *testing.T) {
		_, err := svc.VerifyRefreshToken(ctx, u.ID, token)
		assert.ErrorIs(t, err, ErrRefreshDenied)
	})

	t.Run("设置后正确Token通过", func(t *testing.T) {
		require.NoError(t, svc.SetRefreshToken(ctx, u.ID, token))
		got, err := svc.VerifyRefreshToken(ctx, u.ID, token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("错误Token拒绝", func(t *testing.T) {
		_, err := svc.VerifyRefreshToken(ctx, u.ID, token+"tampered")
		assert.ErrorIs(t, err, ErrRefreshDenied)
	})

	t.Run("吊销后版本号+1且哈希清除", func(t *testing.T) {
		before := u.TokenVersion
		require.NoError(t, svc.RevokeTokens(ctx, u.ID))

		after, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, before+1, after.TokenVersion)
		assert.Nil(t, after.RefreshTokenHash)

		_, err = svc.VerifyRefreshToken(ctx, u.ID, token)
		assert.ErrorIs(t, err, ErrRefreshDenied)
	})
}

// TestGeneratePassword 测试初始密码生成
func TestGeneratePassword(t *testing.T) {
	t.Run("长度与字符集", func(t *testing.T) {
		password, err := generatePassword(16)
		require.NoError(t, err)
		assert.Len(t, password, 16)
		for _, c := range password {
			assert.Contains(t, passwordCharset, string(c), "密码只包含无易混淆字符的字符集")
		}
	})

	t.Run("两次生成不同", func(t *testing.T) {
		a, err := generatePassword(16)
		require.NoError(t, err)
		b, err := generatePassword(16)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

// TestHasPermission 测试权限判定
func TestHasPermission(t *testing.T) {
	t.Run("super_admin绕过权限检查", func(t *testing.T) {
		u := &User{RoleName: RoleSuperAdmin}
		assert.True(t, u.HasPermission(PermUsersDelete))
	})

	t.Run("普通角色按权限集合判定", func(t *testing.T) {
		u := &User{RoleName: RoleEditor, Permissions: []string{PermBooksRead, PermBooksExport}}
		assert.True(t, u.HasPermission(PermBooksExport))
		assert.False(t, u.HasPermission(PermUsersCreate))
	})
}
