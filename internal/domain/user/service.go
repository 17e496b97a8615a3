package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// DefaultBcryptCost 默认bcrypt cost
const DefaultBcryptCost = 12

// Service 用户领域服务
type Service interface {
	// Login 用户登录，用户名或密码错误统一返回ErrInvalidPassword
	Login(ctx context.Context, username, password string) (*User, error)

	// ValidatePassword 验证密码
	ValidatePassword(hashedPassword, plainPassword string) error
}

type service struct {
	directory Directory
}

// NewService 创建用户服务
func NewService(directory Directory) Service {
	return &service{directory: directory}
}

// Login 用户登录
// 业务规则：
// 1. 用户不存在和密码错误返回同一个错误（避免暴露用户名是否存在）
// 2. 禁用用户不能登录
func (s *service) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.directory.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}

	if err := s.ValidatePassword(u.PasswordHash, password); err != nil {
		return nil, err
	}

	if !u.CanLogin() {
		return nil, ErrUserDisabled
	}
	return u, nil
}

// ValidatePassword 验证密码
func (s *service) ValidatePassword(hashedPassword, plainPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperrors.ErrInvalidPassword
		}
		return apperrors.Wrap(err, "密码验证失败")
	}
	return nil
}

// HashPassword bcrypt加密密码（cost<=0时使用DefaultBcryptCost）
//
// bcrypt自动加盐，同一密码每次结果不同；cost每+1耗时翻倍
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", apperrors.Wrap(err, "密码加密失败")
	}
	return string(hashed), nil
}
