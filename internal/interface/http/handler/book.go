package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	"github.com/xiebiao/bookreview/internal/interface/http/dto"
	"github.com/xiebiao/bookreview/pkg/response"
)

type listBooksExecutor interface {
	Execute(ctx context.Context, req appbook.ListBooksRequest) ([]appbook.BookItem, error)
}

type getBookExecutor interface {
	Execute(ctx context.Context, bookID uint) (*appbook.BookDetail, error)
}

type deleteBookExecutor interface {
	Execute(ctx context.Context, bookID uint) error
}

// BookHandler 图书HTTP处理器
type BookHandler struct {
	listBooksUseCase  listBooksExecutor
	getBookUseCase    getBookExecutor
	deleteBookUseCase deleteBookExecutor
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	listBooksUseCase *appbook.ListBooksUseCase,
	getBookUseCase *appbook.GetBookUseCase,
	deleteBookUseCase *appbook.DeleteBookUseCase,
) *BookHandler {
	return &BookHandler{
		listBooksUseCase:  listBooksUseCase,
		getBookUseCase:    getBookUseCase,
		deleteBookUseCase: deleteBookUseCase,
	}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  按id升序分页，search匹配书名或作者（至少2个字符），每本书带平均评分
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        skip   query int    false "跳过条数" default(0)
// @Param        limit  query int    false "每页数量(1-100)" default(10)
// @Param        search query string false "书名/作者关键词"
// @Success      200 {object} response.Response{data=[]appbook.BookItem}
// @Failure      401 {object} response.Response "未登录"
// @Failure      422 {object} response.Response "分页或搜索参数非法"
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var query dto.ListBooksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	list, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Skip:   query.Skip,
		Limit:  query.Limit,
		Search: query.Search,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, list)
}

// GetBookReviews 图书详情及全部评论
// @Summary      图书评论
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookDetail}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id}/reviews [get]
func (h *BookHandler) GetBookReviews(c *gin.Context) {
	var uri dto.BookURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	detail, err := h.getBookUseCase.Execute(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, detail)
}

// DeleteBook 删除图书（评论级联删除）
// @Summary      删除图书
// @Tags         图书
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      204 "删除成功"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	var uri dto.BookURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.deleteBookUseCase.Execute(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
