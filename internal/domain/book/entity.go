package book

import (
	"math"
	"time"
)

// Book 图书聚合视图
// DDD设计说明:
// 1. Book是图书聚合的根实体,作者/出版社/类型作为共享引用数据按需挂载
// 2. 领域实体不依赖GORM tag,仓储层负责与数据模型之间的转换
// 3. AuthorName/PublisherName/Genres是展开后的关联名称,聚合读写时总是显式加载
type Book struct {
	ID            string
	ISBN          string // 可选,存在时全局唯一
	Title         string // 全局唯一(未删除记录范围内)
	Price         float64
	Availability  bool
	ImageURL      string
	AuthorName    string
	PublisherName string
	Genres        []string
	CreatorID     string // 创建者用户ID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time // 软删除时间,nil表示未删除
}

// IsDeleted 是否已被软删除
func (b *Book) IsDeleted() bool {
	return b.DeletedAt != nil
}

// CreateInput 聚合创建输入
// AuthorName/PublisherName/Genres按名称解析:已存在则复用,不存在则在同一事务内创建
type CreateInput struct {
	Title         string
	Price         float64
	AuthorName    string
	PublisherName string
	Genres        []string
	ISBN          string
	ImageURL      string
	Availability  bool
	CreatorID     string
}

// UpdateInput 聚合更新输入(部分字段,nil表示不更新)
type UpdateInput struct {
	Title         *string
	Price         *float64
	AuthorName    *string
	PublisherName *string
	Genres        *[]string // 提供时整体替换关联集合
	ISBN          *string
	ImageURL      *string
	Availability  *bool
}

// SortOrder 排序方向
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SearchParams 分页搜索参数
type SearchParams struct {
	Page           int    // 页码(从1开始)
	Limit          int    // 每页数量
	SortBy         string // 排序字段(见sortColumns白名单)
	SortOrder      string // asc | desc
	Search         string // 搜索词:ISBN格式走精确匹配,否则模糊匹配书名/作者/出版社
	IncludeDeleted bool   // 是否包含软删除记录
}

// sortColumns 排序字段白名单
// 防止排序参数拼接进SQL造成注入,未列出的字段回退到title
var sortColumns = map[string]string{
	"title":        "books.title",
	"isbn":         "books.isbn",
	"price":        "books.price",
	"availability": "books.availability",
	"created_at":   "books.created_at",
	"updated_at":   "books.updated_at",
}

// SortColumn 解析排序字段,返回实际的数据库列名
func (p SearchParams) SortColumn() string {
	if col, ok := sortColumns[p.SortBy]; ok {
		return col
	}
	return "books.title"
}

// PageResult 分页结果信封
type PageResult struct {
	Data         []*Book
	CurrentPage  int
	LastPage     int
	HasMorePages bool
	TotalRecords int64
}

// NewPageResult 创建分页结果
// lastPage = ceil(total/limit)；hasMorePages = total > page*limit
func NewPageResult(data []*Book, page, limit int, total int64) *PageResult {
	return &PageResult{
		Data:         data,
		CurrentPage:  page,
		LastPage:     int(math.Ceil(float64(total) / float64(limit))),
		HasMorePages: total > int64(page)*int64(limit),
		TotalRecords: total,
	}
}
