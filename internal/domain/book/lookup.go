package book

import (
	"context"
	"strings"
)

// Metadata 外部书目返回的图书信息(尽力而为,字段可能为空)
type Metadata struct {
	ExternalID    string   `json:"external_id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Description   string   `json:"description,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	Categories    []string `json:"categories"`
	AverageRating *float64 `json:"average_rating"`
	RatingsCount  int      `json:"ratings_count,omitempty"`
	ThumbnailURL  string   `json:"thumbnail,omitempty"`
	Language      string   `json:"language,omitempty"`
}

// AuthorLine 多个作者用", "连接
func (m *Metadata) AuthorLine() string {
	return strings.Join(m.Authors, ", ")
}

// MetadataLookup 外部书目查询接口
// 约定:
// - 查不到返回(nil, nil),不是错误
// - 网络/超时/熔断等失败返回RemoteUnavailable错误
type MetadataLookup interface {
	// Lookup 按外部书目ID查询
	Lookup(ctx context.Context, externalID string) (*Metadata, error)

	// Search 关键词搜索
	Search(ctx context.Context, query string, maxResults int) ([]*Metadata, error)

	// FindBest 按书名+作者查找最匹配的一条
	FindBest(ctx context.Context, title, author string) (*Metadata, error)
}
