package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/interface/http/dto"
	"github.com/xiebiao/bookreview/pkg/response"
)

type remoteCatalogue interface {
	Search(ctx context.Context, query string, maxResults int) ([]*book.Metadata, error)
	Get(ctx context.Context, externalID string) (*book.Metadata, error)
}

type importBookExecutor interface {
	Execute(ctx context.Context, req appbook.ImportBookRequest) (*appbook.BookItem, error)
}

// GoogleBooksHandler 外部书目（Google Books）HTTP处理器
type GoogleBooksHandler struct {
	remote            remoteCatalogue
	importBookUseCase importBookExecutor
}

// NewGoogleBooksHandler 创建外部书目处理器
func NewGoogleBooksHandler(remote *appbook.RemoteCatalogueUseCase, importBookUseCase *appbook.ImportBookUseCase) *GoogleBooksHandler {
	return &GoogleBooksHandler{
		remote:            remote,
		importBookUseCase: importBookUseCase,
	}
}

// Search 搜索外部书目
// @Summary      搜索Google Books
// @Description  外部服务不可用时返回空列表
// @Tags         外部书目
// @Produce      json
// @Security     BearerAuth
// @Param        query       query string true  "关键词(至少2个字符)"
// @Param        max_results query int    false "最大条数(1-40)" default(10)
// @Success      200 {object} response.Response{data=dto.RemoteSearchResponse}
// @Failure      422 {object} response.Response "参数校验失败"
// @Router       /api/v1/google-books/search [get]
func (h *GoogleBooksHandler) Search(c *gin.Context) {
	var query dto.RemoteSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	list, err := h.remote.Search(c.Request.Context(), query.Query, query.MaxResults)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.RemoteSearchResponse{
		Books:        list,
		TotalResults: len(list),
	})
}

// Get 外部书目详情
// @Summary      Google Books详情
// @Tags         外部书目
// @Produce      json
// @Security     BearerAuth
// @Param        google_books_id path string true "Google Books ID"
// @Success      200 {object} response.Response{data=book.Metadata}
// @Failure      404 {object} response.Response "外部书目中不存在"
// @Router       /api/v1/google-books/{google_books_id} [get]
func (h *GoogleBooksHandler) Get(c *gin.Context) {
	md, err := h.remote.Get(c.Request.Context(), c.Param("google_books_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, md)
}

// Import 从外部书目导入图书
// @Summary      导入图书
// @Description  按Google Books ID拉取元数据并入库，成功后异步发送新书通知
// @Tags         外部书目
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ImportBookRequest true "导入参数"
// @Success      201 {object} response.Response{data=appbook.BookItem}
// @Failure      404 {object} response.Response "外部书目中不存在或服务不可用"
// @Failure      409 {object} response.Response "已导入"
// @Router       /api/v1/google-books/import [post]
func (h *GoogleBooksHandler) Import(c *gin.Context) {
	var req dto.ImportBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	item, err := h.importBookUseCase.Execute(c.Request.Context(), appbook.ImportBookRequest{
		ExternalID: req.GoogleBooksID,
		Genre:      req.Genre,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}
