package book

import (
	"context"
	"errors"
	"strings"
)

// Service 图书领域服务接口
// 设计说明:
// 1. 领域服务封装业务规则校验与重复性预检,聚合的事务性写入由Repository完成
// 2. 不依赖具体的Repository实现(依赖倒置)
type Service interface {
	// CreateBook 创建图书聚合
	// 业务规则:
	// - 价格必须>=0
	// - 类型名称不超过100字符
	// - 书名不能与未删除图书重复(软删除图书的书名可以复用)
	// - ISBN(提供时)不能与未删除图书重复
	CreateBook(ctx context.Context, input CreateInput) (*Book, error)

	// GetBook 根据ID获取图书详情
	GetBook(ctx context.Context, id string) (*Book, error)

	// UpdateBook 部分更新图书聚合
	// 业务规则:书名/ISBN变更时,与其他未删除图书冲突返回Conflict;
	// 图书不存在返回ErrBookNotFound(与冲突错误区分)
	UpdateBook(ctx context.Context, id string, input UpdateInput) (*Book, error)

	// DeleteBook 软删除图书
	DeleteBook(ctx context.Context, id string) error

	// SearchBooks 分页搜索
	// 搜索词是ISBN格式(仅数字和连字符,共10或13位数字)时精确匹配ISBN,
	// 否则对书名/作者/出版社做不区分大小写的子串OR匹配
	SearchBooks(ctx context.Context, params SearchParams) (*PageResult, error)

	// ExportBooks 创建全量导出迭代器
	// 没有任何可导出记录时,在产出第一条数据之前返回ErrNothingToExport
	ExportBooks(ctx context.Context, includeDeleted bool) (Iterator, error)
}

// service 领域服务实现
type service struct {
	repo Repository
}

// NewService 创建图书领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CreateBook 创建图书聚合
func (s *service) CreateBook(ctx context.Context, input CreateInput) (*Book, error) {
	// 1. 业务规则校验
	if input.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if err := validateGenres(input.Genres); err != nil {
		return nil, err
	}

	// 2. 书名重复预检(只看未删除记录)
	// 预检与聚合写入由应用层放进同一事务,收窄并发创建同名图书的竞争窗口
	if err := s.checkTitleFree(ctx, input.Title, ""); err != nil {
		return nil, err
	}

	// 3. ISBN重复预检(可选字段,提供时才检查)
	if input.ISBN != "" {
		if err := s.checkISBNFree(ctx, input.ISBN, ""); err != nil {
			return nil, err
		}
	}

	// 4. 事务性聚合写入
	return s.repo.Create(ctx, input)
}

// GetBook 根据ID获取图书
func (s *service) GetBook(ctx context.Context, id string) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateBook 部分更新图书聚合
func (s *service) UpdateBook(ctx context.Context, id string, input UpdateInput) (*Book, error) {
	if input.Price != nil && *input.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if input.Genres != nil {
		if err := validateGenres(*input.Genres); err != nil {
			return nil, err
		}
	}

	// 先确认图书存在:NotFound与Conflict必须区分
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 书名/ISBN变更时检查与其他图书的冲突
	// 冲突检查窗口与创建一致:只看未删除记录(软删除图书的书名/ISBN可复用)
	if input.Title != nil && *input.Title != existing.Title {
		if err := s.checkTitleFree(ctx, *input.Title, id); err != nil {
			return nil, err
		}
	}
	if input.ISBN != nil && *input.ISBN != "" && *input.ISBN != existing.ISBN {
		if err := s.checkISBNFree(ctx, *input.ISBN, id); err != nil {
			return nil, err
		}
	}

	return s.repo.Update(ctx, id, input)
}

// DeleteBook 软删除图书
func (s *service) DeleteBook(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

// SearchBooks 分页搜索
func (s *service) SearchBooks(ctx context.Context, params SearchParams) (*PageResult, error) {
	// 1. 参数校验
	if params.Page < 1 {
		return nil, ErrInvalidPage
	}
	if params.Limit < 1 {
		return nil, ErrInvalidLimit
	}
	if strings.TrimSpace(params.Search) == "" {
		return nil, ErrEmptySearch
	}

	// 2. 查询(ISBN/模糊分支由仓储根据IsISBN判定)
	books, total, err := s.repo.Paginate(ctx, params)
	if err != nil {
		return nil, err
	}

	// 3. 零匹配按NotFound处理
	if total == 0 {
		return nil, ErrNoSearchMatches
	}

	return NewPageResult(books, params.Page, params.Limit, total), nil
}

// ExportBooks 创建全量导出迭代器
func (s *service) ExportBooks(ctx context.Context, includeDeleted bool) (Iterator, error) {
	// 先统计总数:零记录必须在产出任何数据之前报错,而不是流中途
	total, err := s.repo.Count(ctx, includeDeleted)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrNothingToExport
	}

	return s.repo.ExportAll(ctx, includeDeleted), nil
}

// checkTitleFree 确认书名未被其他未删除图书占用
// excludeID非空时排除自身(更新场景)
func (s *service) checkTitleFree(ctx context.Context, title, excludeID string) error {
	found, err := s.repo.FindByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil
		}
		return err
	}
	if found.ID == excludeID {
		return nil
	}
	return ErrTitleDuplicate
}

// checkISBNFree 确认ISBN未被其他未删除图书占用
func (s *service) checkISBNFree(ctx context.Context, isbn, excludeID string) error {
	found, err := s.repo.FindByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil
		}
		return err
	}
	if found.ID == excludeID {
		return nil
	}
	return ErrISBNDuplicate
}

// =========================================
// 辅助函数:业务规则校验
// =========================================

// IsISBN 判断搜索词是否为ISBN格式
// 规则:只包含数字和连字符,且数字总数恰好为10(ISBN-10)或13(ISBN-13)
// 例: "978-3-16-148410-0" → true; "Harry Potter" → false
func IsISBN(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
			// 连字符是合法分隔符
		default:
			return false
		}
	}
	return digits == 10 || digits == 13
}

// validateGenres 校验类型名称列表
func validateGenres(genres []string) error {
	for _, g := range genres {
		if len(g) > 100 {
			return ErrGenreNameTooLong
		}
	}
	return nil
}
