package book

import (
	"context"
	"strings"
	"unicode/utf8"

	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// Service 图书目录领域服务接口
// 设计说明:
// 1. 平均评分在每次读取时根据当前评论重新计算,不做缓存
// 2. 事务边界由application层决定,这里的仓储调用都通过ctx参与外部事务
type Service interface {
	// ListBooks 分页查询图书列表,每项带平均评分
	// 业务规则:
	// - Offset>=0, 1<=Limit<=100
	// - Search非空时至少2个字符
	ListBooks(ctx context.Context, params ListParams) ([]*BookWithRating, error)

	// GetBookWithReviews 查询图书及其全部评论
	GetBookWithReviews(ctx context.Context, id uint) (*BookWithReviews, error)

	// ImportBook 从外部书目导入图书
	// 业务规则:
	// - ExternalID已存在 → ErrExternalIDExists(与genre无关)
	// - 外部查不到或外部服务不可用 → ErrRemoteBookNotFound
	ImportBook(ctx context.Context, externalID, genre string) (*Book, error)

	// DeleteBook 删除图书(评论级联删除)
	DeleteBook(ctx context.Context, id uint) error
}

// service 领域服务实现
type service struct {
	repo       Repository
	reviewRepo ReviewRepository
	lookup     MetadataLookup
}

// NewService 创建图书目录领域服务
func NewService(repo Repository, reviewRepo ReviewRepository, lookup MetadataLookup) Service {
	return &service{
		repo:       repo,
		reviewRepo: reviewRepo,
		lookup:     lookup,
	}
}

// ListBooks 分页查询图书列表
func (s *service) ListBooks(ctx context.Context, params ListParams) ([]*BookWithRating, error) {
	params, err := NormalizeListParams(params)
	if err != nil {
		return nil, err
	}

	books, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return []*BookWithRating{}, nil
	}

	ids := make([]uint, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	ratings, err := s.reviewRepo.RatingsByBookIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]*BookWithRating, len(books))
	for i, b := range books {
		items[i] = &BookWithRating{
			Book:          b,
			AverageRating: AverageRating(ratings[b.ID]),
		}
	}
	return items, nil
}

// GetBookWithReviews 查询图书及其全部评论
func (s *service) GetBookWithReviews(ctx context.Context, id uint) (*BookWithReviews, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByBook(ctx, id)
	if err != nil {
		return nil, err
	}

	return &BookWithReviews{
		Book:          b,
		AverageRating: AverageRating(reviewRatings(reviews)),
		Reviews:       reviews,
	}, nil
}

// ImportBook 从外部书目导入图书
func (s *service) ImportBook(ctx context.Context, externalID, genre string) (*Book, error) {
	externalID = strings.TrimSpace(externalID)
	if err := checkRequired(externalID, MaxExternalIDLen, ErrInvalidExternalID); err != nil {
		return nil, err
	}
	if err := checkRequired(genre, MaxGenreLen, ErrInvalidGenre); err != nil {
		return nil, err
	}

	// 1. 已导入检查
	existing, err := s.repo.FindByExternalID(ctx, externalID)
	if err == nil && existing != nil {
		return nil, ErrExternalIDExists
	}
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}

	// 2. 外部查询(不可用时对调用方表现为查不到)
	meta, err := s.lookup.Lookup(ctx, externalID)
	if err != nil {
		if apperrors.IsRemoteUnavailable(err) {
			return nil, ErrRemoteBookNotFound.WithErr(err)
		}
		return nil, err
	}
	if meta == nil {
		return nil, ErrRemoteBookNotFound
	}

	// 3. 创建图书(并发导入同一ID时由唯一索引兜底)
	b, err := NewBookFromMetadata(externalID, meta, genre)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBook 删除图书
func (s *service) DeleteBook(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// NormalizeListParams 校验分页参数,Limit为0时使用默认值
func NormalizeListParams(params ListParams) (ListParams, error) {
	if params.Limit == 0 {
		params.Limit = DefaultListLimit
	}
	if params.Offset < 0 || params.Limit < 1 || params.Limit > MaxListLimit {
		return params, ErrInvalidPagination
	}
	params.Search = strings.TrimSpace(params.Search)
	if params.Search != "" && utf8.RuneCountInString(params.Search) < MinSearchLen {
		return params, ErrSearchTooShort
	}
	return params, nil
}
