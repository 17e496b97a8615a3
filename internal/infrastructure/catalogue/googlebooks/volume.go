package googlebooks

import (
	"strings"

	"github.com/xiebiao/bookreview/internal/domain/book"
)

const (
	unknownTitle  = "Unknown Title"
	unknownAuthor = "Unknown Author"
)

// volume Google Books volumes接口返回的单条记录（只保留用到的字段）
type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	PageCount           int                  `json:"pageCount"`
	Categories          []string             `json:"categories"`
	AverageRating       *float64             `json:"averageRating"`
	RatingsCount        int                  `json:"ratingsCount"`
	ImageLinks          struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
	Language string `json:"language"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type volumeList struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

// toMetadata 缺失字段按Google Books的常见缺省补齐
func (v *volume) toMetadata() *book.Metadata {
	info := v.VolumeInfo

	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = unknownTitle
	}
	authors := info.Authors
	if len(authors) == 0 {
		authors = []string{unknownAuthor}
	}
	categories := info.Categories
	if categories == nil {
		categories = []string{}
	}
	language := info.Language
	if language == "" {
		language = "en"
	}

	return &book.Metadata{
		ExternalID:    v.ID,
		Title:         title,
		Authors:       authors,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Description:   info.Description,
		ISBN:          extractISBN(info.IndustryIdentifiers),
		PageCount:     info.PageCount,
		Categories:    categories,
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
		ThumbnailURL:  info.ImageLinks.Thumbnail,
		Language:      language,
	}
}

// extractISBN 优先ISBN_13，其次ISBN_10
func extractISBN(ids []industryIdentifier) string {
	var isbn10 string
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}
