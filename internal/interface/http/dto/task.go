package dto

import "github.com/xiebiao/bookreview/internal/domain/job"

// NotifyNewBookRequest 新书通知
// 兼容query参数和JSON请求体
type NotifyNewBookRequest struct {
	BookTitle  string `json:"book_title" form:"book_title" binding:"required,notblank"`
	BookAuthor string `json:"book_author" form:"book_author" binding:"required,notblank"`
}

// TaskURI 路径中的任务ID
type TaskURI struct {
	TaskID string `uri:"task_id" binding:"required"`
}

// TaskAcceptedResponse 任务已受理
type TaskAcceptedResponse struct {
	TaskID  string   `json:"task_id"`
	Kind    job.Kind `json:"task_name"`
	Status  string   `json:"status"`
	Message string   `json:"message"`
}

// ActiveTasksResponse 未结束的任务
type ActiveTasksResponse struct {
	Tasks []*job.Record `json:"tasks"`
	Total int           `json:"total"`
}
