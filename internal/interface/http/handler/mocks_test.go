package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	appreview "github.com/xiebiao/bookreview/internal/application/review"
	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/job"
)

type mockLogin struct{ mock.Mock }

func (m *mockLogin) Execute(ctx context.Context, req appuser.LoginRequest) (*appuser.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appuser.LoginResponse), args.Error(1)
}

type mockLogout struct{ mock.Mock }

func (m *mockLogout) Execute(ctx context.Context, userID uint, accessToken string) error {
	return m.Called(ctx, userID, accessToken).Error(0)
}

type mockRefresh struct{ mock.Mock }

func (m *mockRefresh) Execute(refreshToken string) (*appuser.RefreshTokenResponse, error) {
	args := m.Called(refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appuser.RefreshTokenResponse), args.Error(1)
}

type mockListBooks struct{ mock.Mock }

func (m *mockListBooks) Execute(ctx context.Context, req appbook.ListBooksRequest) ([]appbook.BookItem, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appbook.BookItem), args.Error(1)
}

type mockGetBook struct{ mock.Mock }

func (m *mockGetBook) Execute(ctx context.Context, bookID uint) (*appbook.BookDetail, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbook.BookDetail), args.Error(1)
}

type mockDeleteBook struct{ mock.Mock }

func (m *mockDeleteBook) Execute(ctx context.Context, bookID uint) error {
	return m.Called(ctx, bookID).Error(0)
}

type mockUpsertReview struct{ mock.Mock }

func (m *mockUpsertReview) Execute(ctx context.Context, req appreview.UpsertReviewRequest) (*appbook.ReviewItem, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbook.ReviewItem), args.Error(1)
}

type mockDeleteReview struct{ mock.Mock }

func (m *mockDeleteReview) Execute(ctx context.Context, bookID, userID uint) (bool, error) {
	args := m.Called(ctx, bookID, userID)
	return args.Bool(0), args.Error(1)
}

type mockGetMyReview struct{ mock.Mock }

func (m *mockGetMyReview) Execute(ctx context.Context, bookID, userID uint) (*appbook.ReviewItem, error) {
	args := m.Called(ctx, bookID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbook.ReviewItem), args.Error(1)
}

type mockRemote struct{ mock.Mock }

func (m *mockRemote) Search(ctx context.Context, query string, maxResults int) ([]*book.Metadata, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*book.Metadata), args.Error(1)
}

func (m *mockRemote) Get(ctx context.Context, externalID string) (*book.Metadata, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*book.Metadata), args.Error(1)
}

type mockImport struct{ mock.Mock }

func (m *mockImport) Execute(ctx context.Context, req appbook.ImportBookRequest) (*appbook.BookItem, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbook.BookItem), args.Error(1)
}

type mockSubmitter struct{ mock.Mock }

func (m *mockSubmitter) Execute(ctx context.Context, kind job.Kind) (*job.Handle, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Handle), args.Error(1)
}

func (m *mockSubmitter) NotifyNewBook(ctx context.Context, title, author string) (*job.Handle, error) {
	args := m.Called(ctx, title, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Handle), args.Error(1)
}

type mockStatus struct{ mock.Mock }

func (m *mockStatus) Get(ctx context.Context, id string) (*job.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Record), args.Error(1)
}

func (m *mockStatus) ListActive(ctx context.Context) ([]*job.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*job.Record), args.Error(1)
}
