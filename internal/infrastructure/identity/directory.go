// Package identity 用户目录实现
package identity

import (
	"context"
	"fmt"

	"github.com/xiebiao/bookreview/internal/domain/user"
	"github.com/xiebiao/bookreview/internal/infrastructure/config"
)

// MemoryDirectory 基于配置文件的内存用户目录
// 启动时加载，运行期只读，无需加锁
type MemoryDirectory struct {
	byName map[string]*user.User
	byID   map[uint]*user.User
}

// NewMemoryDirectory 从配置加载用户，明文密码在此处bcrypt加密
func NewMemoryDirectory(cfg *config.Config) (*MemoryDirectory, error) {
	d := &MemoryDirectory{
		byName: make(map[string]*user.User, len(cfg.Auth.Users)),
		byID:   make(map[uint]*user.User, len(cfg.Auth.Users)),
	}

	for _, uc := range cfg.Auth.Users {
		hash, err := user.HashPassword(uc.Password, cfg.Auth.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("加载用户%s失败: %w", uc.Username, err)
		}
		if err := d.add(user.NewUser(uc.ID, uc.Username, hash)); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *MemoryDirectory) add(u *user.User) error {
	if _, ok := d.byName[u.Username]; ok {
		return fmt.Errorf("重复的用户名: %s", u.Username)
	}
	if _, ok := d.byID[u.ID]; ok {
		return fmt.Errorf("重复的用户ID: %d", u.ID)
	}
	d.byName[u.Username] = u
	d.byID[u.ID] = u
	return nil
}

// FindByUsername 根据用户名查找用户
func (d *MemoryDirectory) FindByUsername(_ context.Context, username string) (*user.User, error) {
	u, ok := d.byName[username]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

// FindByID 根据ID查找用户
func (d *MemoryDirectory) FindByID(_ context.Context, id uint) (*user.User, error) {
	u, ok := d.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

// Len 用户数
func (d *MemoryDirectory) Len() int {
	return len(d.byID)
}
