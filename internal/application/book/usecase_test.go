package book

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/job"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// =========================================
// 测试替身
// =========================================

type mockBookService struct {
	mock.Mock
}

func (m *mockBookService) ListBooks(ctx context.Context, params book.ListParams) ([]*book.BookWithRating, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*book.BookWithRating), args.Error(1)
}

func (m *mockBookService) GetBookWithReviews(ctx context.Context, id uint) (*book.BookWithReviews, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*book.BookWithReviews), args.Error(1)
}

func (m *mockBookService) ImportBook(ctx context.Context, externalID, genre string) (*book.Book, error) {
	args := m.Called(ctx, externalID, genre)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*book.Book), args.Error(1)
}

func (m *mockBookService) DeleteBook(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Submit(ctx context.Context, kind job.Kind, payload interface{}) (*job.Handle, error) {
	args := m.Called(ctx, kind, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Handle), args.Error(1)
}

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) Lookup(ctx context.Context, externalID string) (*book.Metadata, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*book.Metadata), args.Error(1)
}

func (m *mockLookup) Search(ctx context.Context, query string, maxResults int) ([]*book.Metadata, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*book.Metadata), args.Error(1)
}

func (m *mockLookup) FindBest(ctx context.Context, title, author string) (*book.Metadata, error) {
	args := m.Called(ctx, title, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*book.Metadata), args.Error(1)
}

// passthroughTx 直接执行fn,记录调用次数
type passthroughTx struct {
	calls int
}

func (tx *passthroughTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func ptr[T any](v T) *T { return &v }

// =========================================
// 用例测试
// =========================================

func TestListBooksUseCase(t *testing.T) {
	svc := new(mockBookService)
	tx := &passthroughTx{}
	uc := NewListBooksUseCase(svc, tx)

	now := time.Now()
	svc.On("ListBooks", mock.Anything, book.ListParams{Offset: 0, Limit: 10, Search: "dune"}).Return([]*book.BookWithRating{
		{Book: &book.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", CreatedAt: now}, AverageRating: ptr(4.5)},
		{Book: &book.Book{ID: 2, Title: "Dune Messiah", Author: "Frank Herbert", Genre: "Sci-Fi", CreatedAt: now}},
	}, nil)

	list, err := uc.Execute(context.Background(), ListBooksRequest{Limit: 10, Search: "dune"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Dune", list[0].Title)
	assert.Equal(t, 4.5, *list[0].AverageRating)
	assert.Nil(t, list[1].AverageRating)
	assert.Equal(t, 1, tx.calls)
	svc.AssertExpectations(t)
}

func TestListBooksUseCase_ValidationError(t *testing.T) {
	svc := new(mockBookService)
	uc := NewListBooksUseCase(svc, &passthroughTx{})

	svc.On("ListBooks", mock.Anything, mock.Anything).Return(nil, book.ErrSearchTooShort)

	_, err := uc.Execute(context.Background(), ListBooksRequest{Search: "a"})
	assert.ErrorIs(t, err, book.ErrSearchTooShort)
}

func TestGetBookUseCase(t *testing.T) {
	svc := new(mockBookService)
	uc := NewGetBookUseCase(svc, &passthroughTx{})

	svc.On("GetBookWithReviews", mock.Anything, uint(1)).Return(&book.BookWithReviews{
		Book:          &book.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi"},
		AverageRating: ptr(4.0),
		Reviews: []*book.Review{
			{ID: 10, BookID: 1, UserID: 1, Rating: 5},
			{ID: 11, BookID: 1, UserID: 2, Rating: 3, ReviewText: ptr("ok")},
		},
	}, nil)
	svc.On("GetBookWithReviews", mock.Anything, uint(99)).Return(nil, book.ErrBookNotFound)

	t.Run("存在", func(t *testing.T) {
		detail, err := uc.Execute(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, uint(1), detail.ID)
		assert.Equal(t, 4.0, *detail.AverageRating)
		require.Len(t, detail.Reviews, 2)
		assert.Equal(t, "ok", *detail.Reviews[1].ReviewText)
	})

	t.Run("不存在", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), 99)
		assert.ErrorIs(t, err, book.ErrBookNotFound)
	})
}

func TestImportBookUseCase(t *testing.T) {
	imported := &book.Book{ID: 7, Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", ExternalID: ptr("B1hSG45JCX4C")}

	t.Run("导入成功并提交通知任务", func(t *testing.T) {
		svc := new(mockBookService)
		queue := new(mockQueue)
		uc := NewImportBookUseCase(svc, queue, quietLogger())

		svc.On("ImportBook", mock.Anything, "B1hSG45JCX4C", "Sci-Fi").Return(imported, nil)
		queue.On("Submit", mock.Anything, job.KindNotify, job.NotifyPayload{BookTitle: "Dune", BookAuthor: "Frank Herbert"}).
			Return(&job.Handle{ID: "t-1", Kind: job.KindNotify, State: job.StatePending}, nil)

		item, err := uc.Execute(context.Background(), ImportBookRequest{ExternalID: "B1hSG45JCX4C", Genre: "Sci-Fi"})
		require.NoError(t, err)
		assert.Equal(t, uint(7), item.ID)
		assert.Equal(t, "B1hSG45JCX4C", *item.ExternalID)
		queue.AssertExpectations(t)
	})

	t.Run("通知任务提交失败不影响导入", func(t *testing.T) {
		svc := new(mockBookService)
		queue := new(mockQueue)
		uc := NewImportBookUseCase(svc, queue, quietLogger())

		svc.On("ImportBook", mock.Anything, "B1hSG45JCX4C", "Sci-Fi").Return(imported, nil)
		queue.On("Submit", mock.Anything, job.KindNotify, mock.Anything).Return(nil, job.ErrQueueFull)

		item, err := uc.Execute(context.Background(), ImportBookRequest{ExternalID: "B1hSG45JCX4C", Genre: "Sci-Fi"})
		require.NoError(t, err)
		assert.Equal(t, uint(7), item.ID)
	})

	t.Run("已导入", func(t *testing.T) {
		svc := new(mockBookService)
		queue := new(mockQueue)
		uc := NewImportBookUseCase(svc, queue, quietLogger())

		svc.On("ImportBook", mock.Anything, "B1hSG45JCX4C", "Other").Return(nil, book.ErrExternalIDExists)

		_, err := uc.Execute(context.Background(), ImportBookRequest{ExternalID: "B1hSG45JCX4C", Genre: "Other"})
		assert.ErrorIs(t, err, book.ErrExternalIDExists)
		queue.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteBookUseCase(t *testing.T) {
	svc := new(mockBookService)
	tx := &passthroughTx{}
	uc := NewDeleteBookUseCase(svc, tx, quietLogger())

	svc.On("DeleteBook", mock.Anything, uint(1)).Return(nil)
	svc.On("DeleteBook", mock.Anything, uint(2)).Return(book.ErrBookNotFound)

	require.NoError(t, uc.Execute(context.Background(), 1))
	assert.ErrorIs(t, uc.Execute(context.Background(), 2), book.ErrBookNotFound)
	assert.Equal(t, 2, tx.calls)
}

func TestRemoteCatalogueUseCase(t *testing.T) {
	ctx := context.Background()
	unavailable := apperrors.ErrRemoteUnavailable.WithErr(errors.New("timeout"))

	t.Run("搜索", func(t *testing.T) {
		lookup := new(mockLookup)
		uc := NewRemoteCatalogueUseCase(lookup, quietLogger())
		lookup.On("Search", mock.Anything, "dune", DefaultRemoteResults).Return([]*book.Metadata{{ExternalID: "x", Title: "Dune"}}, nil)

		list, err := uc.Search(ctx, " dune ", 0)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("搜索时外部不可用返回空列表", func(t *testing.T) {
		lookup := new(mockLookup)
		uc := NewRemoteCatalogueUseCase(lookup, quietLogger())
		lookup.On("Search", mock.Anything, "dune", 5).Return(nil, unavailable)

		list, err := uc.Search(ctx, "dune", 5)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("空关键词", func(t *testing.T) {
		uc := NewRemoteCatalogueUseCase(new(mockLookup), quietLogger())
		_, err := uc.Search(ctx, "  ", 5)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("详情", func(t *testing.T) {
		lookup := new(mockLookup)
		uc := NewRemoteCatalogueUseCase(lookup, quietLogger())
		lookup.On("Lookup", mock.Anything, "found").Return(&book.Metadata{ExternalID: "found"}, nil)
		lookup.On("Lookup", mock.Anything, "missing").Return(nil, nil)
		lookup.On("Lookup", mock.Anything, "down").Return(nil, unavailable)

		md, err := uc.Get(ctx, "found")
		require.NoError(t, err)
		assert.Equal(t, "found", md.ExternalID)

		_, err = uc.Get(ctx, "missing")
		assert.ErrorIs(t, err, book.ErrRemoteBookNotFound)

		_, err = uc.Get(ctx, "down")
		assert.ErrorIs(t, err, book.ErrRemoteBookNotFound)
	})
}
