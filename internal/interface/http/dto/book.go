package dto

import (
	"time"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
)

// CreateBookRequest 创建图书请求
type CreateBookRequest struct {
	Title         string   `json:"title" binding:"required,max=255" example:"The Go Programming Language"`
	Price         float64  `json:"price" binding:"required,gte=0" example:"59.99"`
	AuthorName    string   `json:"authorName" binding:"required,max=255" example:"Alan Donovan"`
	PublisherName string   `json:"publisherName" binding:"required,max=255" example:"Addison-Wesley"`
	Genres        []string `json:"genres" binding:"omitempty,dive,max=100" example:"Programming,Reference"`
	ISBN          string   `json:"isbn" binding:"omitempty,max=32" example:"978-0134190440"`
	ImageURL      string   `json:"imageUrl" binding:"omitempty,url,max=2048"`
	Availability  *bool    `json:"availability" binding:"omitempty"`
}

// ToInput 转领域输入，creatorID取自认证上下文
func (r *CreateBookRequest) ToInput(creatorID string) book.CreateInput {
	availability := true
	if r.Availability != nil {
		availability = *r.Availability
	}
	genres := r.Genres
	if genres == nil {
		genres = []string{}
	}
	return book.CreateInput{
		Title:         r.Title,
		Price:         r.Price,
		AuthorName:    r.AuthorName,
		PublisherName: r.PublisherName,
		Genres:        genres,
		ISBN:          r.ISBN,
		ImageURL:      r.ImageURL,
		Availability:  availability,
		CreatorID:     creatorID,
	}
}

// UpdateBookRequest 更新图书请求（部分字段，缺省字段不更新）
type UpdateBookRequest struct {
	Title         *string   `json:"title" binding:"omitempty,max=255"`
	Price         *float64  `json:"price" binding:"omitempty,gte=0"`
	AuthorName    *string   `json:"authorName" binding:"omitempty,max=255"`
	PublisherName *string   `json:"publisherName" binding:"omitempty,max=255"`
	Genres        *[]string `json:"genres" binding:"omitempty,dive,max=100"`
	ISBN          *string   `json:"isbn" binding:"omitempty,max=32"`
	ImageURL      *string   `json:"imageUrl" binding:"omitempty,max=2048"`
	Availability  *bool     `json:"availability" binding:"omitempty"`
}

// ToInput 转领域输入
func (r *UpdateBookRequest) ToInput() book.UpdateInput {
	return book.UpdateInput{
		Title:         r.Title,
		Price:         r.Price,
		AuthorName:    r.AuthorName,
		PublisherName: r.PublisherName,
		Genres:        r.Genres,
		ISBN:          r.ISBN,
		ImageURL:      r.ImageURL,
		Availability:  r.Availability,
	}
}

// SearchBooksRequest 分页搜索请求（query参数）
type SearchBooksRequest struct {
	Page           int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=100" example:"10"`
	SortBy         string `form:"sortBy" binding:"omitempty,oneof=title isbn price availability created_at updated_at" example:"title"`
	SortOrder      string `form:"sortOrder" binding:"omitempty,oneof=asc desc" example:"asc"`
	Search         string `form:"search" binding:"required" example:"tolkien"`
	IncludeDeleted bool   `form:"includeDeleted"`
}

// ToParams 转领域参数，填充分页默认值
func (r *SearchBooksRequest) ToParams() book.SearchParams {
	page := r.Page
	if page == 0 {
		page = 1
	}
	limit := r.Limit
	if limit == 0 {
		limit = 10
	}
	sortOrder := r.SortOrder
	if sortOrder == "" {
		sortOrder = book.SortAsc
	}
	sortBy := r.SortBy
	if sortBy == "" {
		sortBy = "title"
	}
	return book.SearchParams{
		Page:           page,
		Limit:          limit,
		SortBy:         sortBy,
		SortOrder:      sortOrder,
		Search:         r.Search,
		IncludeDeleted: r.IncludeDeleted,
	}
}

// BookResponse 图书响应
type BookResponse struct {
	ID            string     `json:"id"`
	ISBN          string     `json:"isbn,omitempty"`
	Title         string     `json:"title"`
	Price         float64    `json:"price"`
	Availability  bool       `json:"availability"`
	ImageURL      string     `json:"imageUrl,omitempty"`
	AuthorName    string     `json:"authorName"`
	PublisherName string     `json:"publisherName"`
	Genres        []string   `json:"genres"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
}

// FromBook 领域实体转响应
func FromBook(b *book.Book) *BookResponse {
	genres := b.Genres
	if genres == nil {
		genres = []string{}
	}
	return &BookResponse{
		ID:            b.ID,
		ISBN:          b.ISBN,
		Title:         b.Title,
		Price:         b.Price,
		Availability:  b.Availability,
		ImageURL:      b.ImageURL,
		AuthorName:    b.AuthorName,
		PublisherName: b.PublisherName,
		Genres:        genres,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		DeletedAt:     b.DeletedAt,
	}
}

// FromBooks 批量转换
func FromBooks(books []*book.Book) []*BookResponse {
	out := make([]*BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, FromBook(b))
	}
	return out
}
