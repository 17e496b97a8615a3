package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	apptask "github.com/xiebiao/bookreview/internal/application/task"
	"github.com/xiebiao/bookreview/internal/domain/job"
	"github.com/xiebiao/bookreview/internal/interface/http/dto"
	"github.com/xiebiao/bookreview/pkg/response"
)

type taskSubmitter interface {
	Execute(ctx context.Context, kind job.Kind) (*job.Handle, error)
	NotifyNewBook(ctx context.Context, title, author string) (*job.Handle, error)
}

type taskStatus interface {
	Get(ctx context.Context, id string) (*job.Record, error)
	ListActive(ctx context.Context) ([]*job.Record, error)
}

// TaskHandler 后台任务HTTP处理器
// 提交接口立即返回202和task_id，通过status接口轮询结果
type TaskHandler struct {
	submitUseCase taskSubmitter
	statusUseCase taskStatus
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(submitUseCase *apptask.SubmitUseCase, statusUseCase *apptask.StatusUseCase) *TaskHandler {
	return &TaskHandler{
		submitUseCase: submitUseCase,
		statusUseCase: statusUseCase,
	}
}

// RefreshBooks 按种子列表刷新图书
// @Summary      刷新图书（种子列表）
// @Tags         后台任务
// @Produce      json
// @Security     BearerAuth
// @Success      202 {object} response.Response{data=dto.TaskAcceptedResponse}
// @Failure      500 {object} response.Response "任务队列错误"
// @Router       /api/v1/tasks/refresh-books [post]
func (h *TaskHandler) RefreshBooks(c *gin.Context) {
	h.submit(c, job.KindRefreshSeed, "图书刷新任务已提交")
}

// RefreshRemote 从外部书目补全图书信息
// @Summary      外部书目补全
// @Tags         后台任务
// @Produce      json
// @Security     BearerAuth
// @Success      202 {object} response.Response{data=dto.TaskAcceptedResponse}
// @Router       /api/v1/tasks/refresh-remote [post]
func (h *TaskHandler) RefreshRemote(c *gin.Context) {
	h.submit(c, job.KindRefreshRemote, "外部书目补全任务已提交")
}

// CalculateStatistics 统计
// @Summary      计算统计数据
// @Tags         后台任务
// @Produce      json
// @Security     BearerAuth
// @Success      202 {object} response.Response{data=dto.TaskAcceptedResponse}
// @Router       /api/v1/tasks/calculate-statistics [post]
func (h *TaskHandler) CalculateStatistics(c *gin.Context) {
	h.submit(c, job.KindComputeStatistics, "统计任务已提交")
}

// NotifyNewBook 新书通知
// @Summary      新书通知
// @Description  book_title、book_author可以放在query参数或JSON请求体中
// @Tags         后台任务
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        book_title  query string false "书名"
// @Param        book_author query string false "作者"
// @Success      202 {object} response.Response{data=dto.TaskAcceptedResponse}
// @Failure      422 {object} response.Response "书名或作者为空"
// @Router       /api/v1/tasks/notify-new-book [post]
func (h *TaskHandler) NotifyNewBook(c *gin.Context) {
	var req dto.NotifyNewBookRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	handle, err := h.submitUseCase.NotifyNewBook(c.Request.Context(), req.BookTitle, req.BookAuthor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, toAccepted(handle, "新书通知任务已提交"))
}

// Status 查询任务状态
// @Summary      任务状态
// @Tags         后台任务
// @Produce      json
// @Security     BearerAuth
// @Param        task_id path string true "任务ID"
// @Success      200 {object} response.Response{data=job.Record}
// @Failure      404 {object} response.Response "任务不存在或已过期"
// @Router       /api/v1/tasks/status/{task_id} [get]
func (h *TaskHandler) Status(c *gin.Context) {
	var uri dto.TaskURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	record, err := h.statusUseCase.Get(c.Request.Context(), uri.TaskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, record)
}

// Active 未结束的任务
// @Summary      进行中的任务
// @Tags         后台任务
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=dto.ActiveTasksResponse}
// @Router       /api/v1/tasks/active [get]
func (h *TaskHandler) Active(c *gin.Context) {
	records, err := h.statusUseCase.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if records == nil {
		records = []*job.Record{}
	}

	response.Success(c, &dto.ActiveTasksResponse{
		Tasks: records,
		Total: len(records),
	})
}

func (h *TaskHandler) submit(c *gin.Context, kind job.Kind, message string) {
	handle, err := h.submitUseCase.Execute(c.Request.Context(), kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, toAccepted(handle, message))
}

func toAccepted(handle *job.Handle, message string) *dto.TaskAcceptedResponse {
	return &dto.TaskAcceptedResponse{
		TaskID:  handle.ID,
		Kind:    handle.Kind,
		Status:  string(handle.State),
		Message: message,
	}
}
