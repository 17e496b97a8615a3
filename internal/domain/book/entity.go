package book

import (
	"strings"
	"time"
	"unicode/utf8"
)

// 字段长度上限（与books表列定义一致）
const (
	MaxTitleLen        = 255
	MaxAuthorLen       = 255
	MaxGenreLen        = 100
	MaxExternalIDLen   = 100
	MaxISBNLen         = 20
	MaxThumbnailURLLen = 500

	// UnknownAuthor 外部书目没有作者时的占位
	UnknownAuthor = "Unknown"
)

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Book是聚合根,Review的生命周期受Book约束(删除图书级联删除评论)
// 2. average_rating是派生值,不落库,每次读取时根据当前评论重新计算
// 3. ExternalID是外部书目(Google Books)的卷ID,存在时全局唯一
// 4. 评论活动不会修改Book,只有导入/种子/外部补全会修改
type Book struct {
	ID           uint
	Title        string
	Author       string
	Genre        string
	ExternalID   *string // 外部书目ID
	ISBN         *string
	Description  *string
	PageCount    *int
	ThumbnailURL *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewBook 创建新图书(工厂方法)
// 标题、作者、类型会去掉首尾空白后校验
func NewBook(title, author, genre string) (*Book, error) {
	b := &Book{
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
		Genre:  strings.TrimSpace(genre),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate 校验必填字段及长度
func (b *Book) Validate() error {
	if err := checkRequired(b.Title, MaxTitleLen, ErrInvalidTitle); err != nil {
		return err
	}
	if err := checkRequired(b.Author, MaxAuthorLen, ErrInvalidAuthor); err != nil {
		return err
	}
	if err := checkRequired(b.Genre, MaxGenreLen, ErrInvalidGenre); err != nil {
		return err
	}
	if b.ExternalID != nil {
		if err := checkRequired(*b.ExternalID, MaxExternalIDLen, ErrInvalidExternalID); err != nil {
			return err
		}
	}
	return nil
}

// ChangeGenre 修改图书类型(种子刷新时使用)
// 返回值表示是否发生了变化
func (b *Book) ChangeGenre(genre string) (bool, error) {
	genre = strings.TrimSpace(genre)
	if err := checkRequired(genre, MaxGenreLen, ErrInvalidGenre); err != nil {
		return false, err
	}
	if b.Genre == genre {
		return false, nil
	}
	b.Genre = genre
	return true, nil
}

// HasExternalID 是否已关联外部书目
func (b *Book) HasExternalID() bool {
	return b.ExternalID != nil && *b.ExternalID != ""
}

// MergeMetadata 用外部书目信息补全空字段(领域行为)
// 业务规则:只填充原来为空的字段,已有值不覆盖;ExternalID由调用方单独处理
// 返回值表示是否有字段被填充
func (b *Book) MergeMetadata(m *Metadata) bool {
	if m == nil {
		return false
	}
	changed := false
	if isEmpty(b.ISBN) && m.ISBN != "" {
		b.ISBN = clipPtr(m.ISBN, MaxISBNLen)
		changed = true
	}
	if isEmpty(b.Description) && m.Description != "" {
		b.Description = strPtr(m.Description)
		changed = true
	}
	if (b.PageCount == nil || *b.PageCount == 0) && m.PageCount > 0 {
		pc := m.PageCount
		b.PageCount = &pc
		changed = true
	}
	if isEmpty(b.ThumbnailURL) && m.ThumbnailURL != "" && utf8.RuneCountInString(m.ThumbnailURL) <= MaxThumbnailURLLen {
		b.ThumbnailURL = strPtr(m.ThumbnailURL)
		changed = true
	}
	return changed
}

// NewBookFromMetadata 根据外部书目信息和调用方指定的类型创建图书
// 外部字符串按列长度截断,作者为空时使用UnknownAuthor
func NewBookFromMetadata(externalID string, m *Metadata, genre string) (*Book, error) {
	author := clip(strings.TrimSpace(m.AuthorLine()), MaxAuthorLen)
	if author == "" {
		author = UnknownAuthor
	}

	b := &Book{
		Title:  clip(strings.TrimSpace(m.Title), MaxTitleLen),
		Author: author,
		Genre:  strings.TrimSpace(genre),
	}
	b.ExternalID = strPtr(strings.TrimSpace(externalID))
	b.MergeMetadata(m)

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// BookWithRating 图书+平均评分(列表项)
type BookWithRating struct {
	*Book
	AverageRating *float64
}

// BookWithReviews 图书+全部评论+平均评分
type BookWithReviews struct {
	*Book
	AverageRating *float64
	Reviews       []*Review
}

// =========================================
// 辅助函数
// =========================================

func checkRequired(s string, max int, err error) error {
	if strings.TrimSpace(s) == "" || utf8.RuneCountInString(s) > max {
		return err
	}
	return nil
}

func isEmpty(p *string) bool {
	return p == nil || *p == ""
}

func strPtr(s string) *string {
	return &s
}

func clipPtr(s string, max int) *string {
	c := clip(s, max)
	return &c
}

// clip 按字符数截断(不会截断多字节字符)
func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
