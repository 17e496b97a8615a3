package book

import (
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// 图书聚合领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrExternalIDExists 外部书目ID已被导入
	ErrExternalIDExists = apperrors.New(apperrors.ErrCodeExternalIDExists, "该外部书目已导入")

	// ErrRemoteBookNotFound 外部书目中查不到(或外部服务不可用)
	ErrRemoteBookNotFound = apperrors.New(apperrors.ErrCodeRemoteBookNotFound, "外部书目中未找到该图书")

	// ErrInvalidRating 评分越界
	ErrInvalidRating = apperrors.New(apperrors.ErrCodeInvalidRating, "评分必须在1到5之间")

	// ErrReviewTextTooLong 评论内容超长
	ErrReviewTextTooLong = apperrors.New(apperrors.ErrCodeTextTooLong, "评论内容不能超过5000个字符")

	// ErrSearchTooShort 搜索词过短
	ErrSearchTooShort = apperrors.New(apperrors.ErrCodeInvalidSearch, "搜索关键词至少2个字符")

	ErrInvalidTitle      = apperrors.New(apperrors.ErrCodeInvalidField, "书名不能为空且不能超过255个字符")
	ErrInvalidAuthor     = apperrors.New(apperrors.ErrCodeInvalidField, "作者不能为空且不能超过255个字符")
	ErrInvalidGenre      = apperrors.New(apperrors.ErrCodeInvalidField, "类型不能为空且不能超过100个字符")
	ErrInvalidExternalID = apperrors.New(apperrors.ErrCodeInvalidField, "外部书目ID不能为空且不能超过100个字符")
	ErrInvalidPagination = apperrors.New(apperrors.ErrCodeInvalidField, "分页参数不合法(skip>=0, 1<=limit<=100)")
)
