package book

import (
	"context"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

const tracerName = "application/book"

// ListBooksUseCase 图书列表查询用例
// 设计说明:
// 1. offset分页,按ID升序
// 2. 每项的平均评分在同一事务内根据当前评论计算,保证列表和评分一致
type ListBooksUseCase struct {
	bookService book.Service
	txManager   TxManager
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service, txManager TxManager) *ListBooksUseCase {
	return &ListBooksUseCase{
		bookService: bookService,
		txManager:   txManager,
	}
}

// ListBooksRequest 列表查询请求
type ListBooksRequest struct {
	Skip   int    // 跳过条数
	Limit  int    // 每页数量,0表示默认10
	Search string // 书名/作者关键词,至少2个字符
}

// Execute 执行列表查询
func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (list []BookItem, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ListBooks")
	defer tracing.End(span, &err)

	params := book.ListParams{
		Offset: req.Skip,
		Limit:  req.Limit,
		Search: req.Search,
	}

	var books []*book.BookWithRating
	err = uc.txManager.Transaction(ctx, func(ctx context.Context) error {
		var err error
		books, err = uc.bookService.ListBooks(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	list = make([]BookItem, len(books))
	for i, b := range books {
		list[i] = ToBookItem(b.Book, b.AverageRating)
	}
	return list, nil
}
