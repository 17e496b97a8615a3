package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code是业务错误码，前三位与HTTP状态码一致（40401 → 404）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，预定义错误被WithErr复制后仍能匹配
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// HTTPStatus 错误码对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	status := e.Code / 100
	if status < 400 || status > 599 || http.StatusText(status) == "" {
		return http.StatusInternalServerError
	}
	return status
}

// WithErr 复制一份并附带内部错误（不修改预定义的哨兵错误）
func (e *AppError) WithErr(err error) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Err: err}
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// WrapCode 使用指定错误码包装
func WrapCode(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：错误码 = HTTP状态码 * 100 + 序号

const (
	// 参数错误（40000-40099）
	ErrCodeInvalidParams = 40000 // 参数错误
	ErrCodeBindError     = 40001 // 参数绑定失败

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 用户名或密码错误
	ErrCodeTokenRevoked    = 40104 // Token已失效

	// 资源错误（40400-40499）
	ErrCodeNotFound           = 40400 // 资源不存在(通用)
	ErrCodeBookNotFound       = 40401 // 图书不存在
	ErrCodeReviewNotFound     = 40402 // 评论不存在
	ErrCodeUserNotFound       = 40403 // 用户不存在
	ErrCodeJobNotFound        = 40404 // 任务不存在
	ErrCodeRemoteBookNotFound = 40405 // 外部书目中不存在

	// 冲突（40900-40999）
	ErrCodeConflict         = 40900 // 资源冲突(通用)
	ErrCodeExternalIDExists = 40901 // 外部书目ID已导入
	ErrCodeDuplicateEntry   = 40902 // 重复记录(通用)

	// 校验错误（42200-42299）
	ErrCodeValidation    = 42200 // 校验失败(通用)
	ErrCodeInvalidRating = 42201 // 评分越界
	ErrCodeTextTooLong   = 42202 // 文本超长
	ErrCodeInvalidSearch = 42203 // 搜索词过短
	ErrCodeInvalidField  = 42204 // 字段非法

	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeQueueError    = 50003 // 任务队列错误

	// 外部服务错误（50300-50399）
	ErrCodeRemoteUnavailable = 50300 // 外部书目服务不可用
)

// =========================================
// 预定义错误
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")
	ErrQueueError    = New(ErrCodeQueueError, "任务队列错误")

	// 认证授权
	ErrUnauthorized    = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "用户名或密码错误")
	ErrTokenRevoked    = New(ErrCodeTokenRevoked, "Token已失效，请重新登录")

	// 通用
	ErrNotFound          = New(ErrCodeNotFound, "资源不存在")
	ErrConflict          = New(ErrCodeConflict, "资源冲突")
	ErrValidation        = New(ErrCodeValidation, "参数校验失败")
	ErrRemoteUnavailable = New(ErrCodeRemoteUnavailable, "外部书目服务不可用")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// HTTPStatus 任意错误对应的HTTP状态码
func HTTPStatus(err error) int {
	return GetAppError(err).HTTPStatus()
}

// codeRange 判断错误码是否落在某个HTTP状态分组
func codeRange(err error, status int) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code/100 == status
}

// IsNotFound NotFound类错误
func IsNotFound(err error) bool { return codeRange(err, http.StatusNotFound) }

// IsConflict Conflict类错误
func IsConflict(err error) bool { return codeRange(err, http.StatusConflict) }

// IsValidation 校验类错误（含400参数错误）
func IsValidation(err error) bool {
	return codeRange(err, http.StatusUnprocessableEntity) || codeRange(err, http.StatusBadRequest)
}

// IsRemoteUnavailable 外部服务不可用
func IsRemoteUnavailable(err error) bool { return codeRange(err, http.StatusServiceUnavailable) }
