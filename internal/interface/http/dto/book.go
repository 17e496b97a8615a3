package dto

import "github.com/xiebiao/bookreview/internal/domain/book"

// ListBooksQuery 图书列表查询参数
// 分页和搜索词的范围由领域服务校验
type ListBooksQuery struct {
	Skip   int    `form:"skip"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
}

// BookURI 路径中的图书ID
type BookURI struct {
	ID uint `uri:"id" binding:"required"`
}

// UpsertReviewRequest 提交评论请求
// rating用指针区分"未传"和0，越界由领域服务返回42201
type UpsertReviewRequest struct {
	Rating     *int    `json:"rating" binding:"required"`
	ReviewText *string `json:"review_text"`
}

// RemoteSearchQuery 外部书目搜索参数
type RemoteSearchQuery struct {
	Query      string `form:"query" binding:"required,notblank,min=2"`
	MaxResults int    `form:"max_results" binding:"omitempty,min=1,max=40"`
}

// RemoteSearchResponse 外部书目搜索结果
type RemoteSearchResponse struct {
	Books        []*book.Metadata `json:"books"`
	TotalResults int              `json:"total_results"`
}

// ImportBookRequest 从外部书目导入图书
type ImportBookRequest struct {
	GoogleBooksID string `json:"google_books_id" binding:"required,notblank"`
	Genre         string `json:"genre" binding:"required,notblank"`
}
