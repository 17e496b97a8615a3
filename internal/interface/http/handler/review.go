package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	appreview "github.com/xiebiao/bookreview/internal/application/review"
	"github.com/xiebiao/bookreview/internal/interface/http/dto"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	"github.com/xiebiao/bookreview/pkg/response"
)

type upsertReviewExecutor interface {
	Execute(ctx context.Context, req appreview.UpsertReviewRequest) (*appbook.ReviewItem, error)
}

type deleteReviewExecutor interface {
	Execute(ctx context.Context, bookID, userID uint) (bool, error)
}

type getMyReviewExecutor interface {
	Execute(ctx context.Context, bookID, userID uint) (*appbook.ReviewItem, error)
}

// ReviewHandler 评论HTTP处理器
// 每个用户对每本书最多一条评论，重复提交即更新
type ReviewHandler struct {
	upsertUseCase upsertReviewExecutor
	deleteUseCase deleteReviewExecutor
	getMyUseCase  getMyReviewExecutor
}

// NewReviewHandler 创建评论处理器
func NewReviewHandler(
	upsertUseCase *appreview.UpsertReviewUseCase,
	deleteUseCase *appreview.DeleteReviewUseCase,
	getMyUseCase *appreview.GetMyReviewUseCase,
) *ReviewHandler {
	return &ReviewHandler{
		upsertUseCase: upsertUseCase,
		deleteUseCase: deleteUseCase,
		getMyUseCase:  getMyUseCase,
	}
}

// UpsertReview 提交或更新评论
// @Summary      提交评论
// @Description  评分1-5，评论内容最多5000字符；同一用户重复提交会覆盖原评论
// @Tags         评论
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                     true "图书ID"
// @Param        request body dto.UpsertReviewRequest true "评论"
// @Success      201 {object} response.Response{data=appbook.ReviewItem}
// @Failure      404 {object} response.Response "图书不存在"
// @Failure      422 {object} response.Response "评分越界或内容超长"
// @Router       /api/v1/books/{id}/reviews [post]
func (h *ReviewHandler) UpsertReview(c *gin.Context) {
	var uri dto.BookURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}
	var req dto.UpsertReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	item, err := h.upsertUseCase.Execute(c.Request.Context(), appreview.UpsertReviewRequest{
		BookID:     uri.ID,
		UserID:     middleware.MustGetUserID(c),
		Rating:     *req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

// DeleteReview 删除自己的评论
// 没有评论时同样返回204
// @Summary      删除评论
// @Tags         评论
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      204 "删除成功"
// @Router       /api/v1/books/{id}/reviews [delete]
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	var uri dto.BookURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	if _, err := h.deleteUseCase.Execute(c.Request.Context(), uri.ID, middleware.MustGetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// GetMyReview 查询自己对某本书的评论
// @Summary      我的评论
// @Description  没有评论时data为null
// @Tags         评论
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.ReviewItem}
// @Router       /api/v1/books/{id}/reviews/me [get]
func (h *ReviewHandler) GetMyReview(c *gin.Context) {
	var uri dto.BookURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	item, err := h.getMyUseCase.Execute(c.Request.Context(), uri.ID, middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	// item为nil时data输出null
	response.Success(c, item)
}
