package user

import (
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.New(apperrors.ErrCodeUserNotFound, "用户不存在")

	// ErrUserDisabled 用户已禁用
	ErrUserDisabled = apperrors.New(apperrors.ErrCodeUnauthorized, "用户已被禁用")
)
