package book

import (
	"time"

	"github.com/xiebiao/bookreview/internal/domain/book"
)

// BookItem 图书DTO（列表项与详情共用）
type BookItem struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	ExternalID    *string   `json:"google_books_id"`
	ISBN          *string   `json:"isbn"`
	Description   *string   `json:"description"`
	PageCount     *int      `json:"page_count"`
	ThumbnailURL  *string   `json:"thumbnail_url"`
	AverageRating *float64  `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReviewItem 评论DTO
type ReviewItem struct {
	ID         uint       `json:"id"`
	BookID     uint       `json:"book_id"`
	UserID     uint       `json:"user_id"`
	Rating     int        `json:"rating"`
	ReviewText *string    `json:"review_text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// BookDetail 图书详情DTO（带全部评论）
type BookDetail struct {
	BookItem
	Reviews []ReviewItem `json:"reviews"`
}

// ToBookItem 领域对象转DTO
func ToBookItem(b *book.Book, averageRating *float64) BookItem {
	return BookItem{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		ExternalID:    b.ExternalID,
		ISBN:          b.ISBN,
		Description:   b.Description,
		PageCount:     b.PageCount,
		ThumbnailURL:  b.ThumbnailURL,
		AverageRating: averageRating,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// ToReviewItem 领域对象转DTO
func ToReviewItem(r *book.Review) ReviewItem {
	return ReviewItem{
		ID:         r.ID,
		BookID:     r.BookID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		ReviewText: r.ReviewText,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
