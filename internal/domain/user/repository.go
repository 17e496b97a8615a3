package user

import (
	"context"
)

// Directory 用户目录接口
// 设计说明：
// 1. 接口定义在domain层，实现在infrastructure/identity
// 2. 只需要按用户名查找，任何KV查找都可以实现
type Directory interface {
	// FindByUsername 根据用户名查找用户
	// 如果不存在，返回ErrUserNotFound
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByID 根据ID查找用户
	// 如果不存在，返回ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)
}
