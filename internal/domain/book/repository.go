package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 由domain层定义接口,infrastructure层实现;事务通过ctx传递
type Repository interface {
	// Create 创建图书,ExternalID重复时返回ErrExternalIDExists
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书,不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByExternalID 根据外部书目ID查找,不存在返回ErrBookNotFound
	FindByExternalID(ctx context.Context, externalID string) (*Book, error)

	// FindByTitleAuthor 根据书名+作者精确查找,不存在返回ErrBookNotFound
	FindByTitleAuthor(ctx context.Context, title, author string) (*Book, error)

	// Update 更新图书信息
	Update(ctx context.Context, book *Book) error

	// Delete 删除图书(物理删除,评论级联删除)
	Delete(ctx context.Context, id uint) error

	// List 按ID升序分页查询,Search非空时按书名/作者模糊匹配(不区分大小写)
	List(ctx context.Context, params ListParams) ([]*Book, error)

	// Count 图书总数
	Count(ctx context.Context) (int64, error)

	// ListMissingExternalID 查询ID大于afterID且尚未关联外部书目的图书(按ID升序,最多limit条)
	ListMissingExternalID(ctx context.Context, afterID uint, limit int) ([]*Book, error)

	// Stats 只读统计
	Stats(ctx context.Context) (*Stats, error)
}

// ReviewRepository 评论仓储接口
type ReviewRepository interface {
	// Upsert 按(BookID, UserID)插入或更新,回填ID/CreatedAt/UpdatedAt
	// 并发提交同一对时由唯一索引+ON CONFLICT保证只有一行
	Upsert(ctx context.Context, review *Review) error

	// FindByBookAndUser 查询某用户对某书的评论,不存在返回(nil, nil)
	FindByBookAndUser(ctx context.Context, bookID, userID uint) (*Review, error)

	// ListByBook 查询某书的全部评论(按ID升序)
	ListByBook(ctx context.Context, bookID uint) ([]*Review, error)

	// RatingsByBookIDs 一次查询多本书的评分,返回bookID → 评分列表
	RatingsByBookIDs(ctx context.Context, bookIDs []uint) (map[uint][]int, error)

	// DeleteByBookAndUser 删除评论,返回是否真正删除了一行
	DeleteByBookAndUser(ctx context.Context, bookID, userID uint) (bool, error)
}

// ListParams 列表查询参数(offset分页)
type ListParams struct {
	Offset int    // 跳过条数
	Limit  int    // 每页数量(1-100)
	Search string // 搜索关键词,空表示不过滤
}

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
	MinSearchLen     = 2
)

// Stats 图书/评论统计
type Stats struct {
	TotalBooks             int64            `json:"total_books"`
	TotalReviews           int64            `json:"total_reviews"`
	BooksWithReviews       int64            `json:"books_with_reviews"`
	BooksWithoutReviews    int64            `json:"books_without_reviews"`
	BooksWithExternalID    int64            `json:"books_with_external_id"`
	BooksWithoutExternalID int64            `json:"books_without_external_id"`
	GenreDistribution      map[string]int64 `json:"genre_distribution"`
	AverageReviewsPerBook  float64          `json:"average_reviews_per_book"`
}
