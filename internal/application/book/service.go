package book

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

// TxManager 事务管理器接口（由infrastructure/persistence/mysql实现）
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AppService 图书应用服务
// 职责：事务边界编排、CSV流式导出、指标埋点；业务规则在domain层
type AppService struct {
	svc book.Service
	tx  TxManager
}

// NewAppService 创建图书应用服务
func NewAppService(svc book.Service, tx TxManager) *AppService {
	return &AppService{svc: svc, tx: tx}
}

// CreateBook 创建图书聚合
// 唯一性预检与聚合写入放在同一事务内，收窄并发创建的竞争窗口
func (s *AppService) CreateBook(ctx context.Context, input book.CreateInput) (*book.Book, error) {
	var created *book.Book
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.svc.CreateBook(ctx, input)
		if err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BooksCreatedTotal.Inc()
	log.Info().Str("book_id", created.ID).Str("title", created.Title).Msg("图书创建成功")
	return created, nil
}

// GetBook 查询单本图书
func (s *AppService) GetBook(ctx context.Context, id string) (*book.Book, error) {
	return s.svc.GetBook(ctx, id)
}

// UpdateBook 更新图书聚合
func (s *AppService) UpdateBook(ctx context.Context, id string, input book.UpdateInput) (*book.Book, error) {
	var updated *book.Book
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.svc.UpdateBook(ctx, id, input)
		if err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBook 软删除图书
func (s *AppService) DeleteBook(ctx context.Context, id string) error {
	return s.svc.DeleteBook(ctx, id)
}

// SearchBooks 分页搜索
func (s *AppService) SearchBooks(ctx context.Context, params book.SearchParams) (*book.PageResult, error) {
	return s.svc.SearchBooks(ctx, params)
}

// csvHeader CSV导出的表头列
var csvHeader = []string{"ID", "ISBN", "Title", "Author", "Publisher", "Genres", "Price", "Availability"}

// ExportCSV 全量导出图书为CSV并写入w
// 设计说明：
// 1. 先统计总数，没有可导出记录时返回错误（写出任何字节之前）
// 2. 迭代器按批拉取，逐行写出，全量数据不物化到内存
// 3. 字段转义遵循RFC 4180（encoding/csv负责引号与逗号处理）
// 返回导出的数据行数（不含表头）
func (s *AppService) ExportCSV(ctx context.Context, includeDeleted bool, w io.Writer) (int64, error) {
	it, err := s.svc.ExportBooks(ctx, includeDeleted)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}

	var rows int64
	for {
		b, err := it.Next(ctx)
		if err != nil {
			return rows, err
		}
		if b == nil {
			break
		}
		if err := cw.Write(csvRecord(b)); err != nil {
			return rows, err
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, err
	}

	metrics.BooksExportedTotal.Add(float64(rows))
	log.Info().Int64("rows", rows).Bool("include_deleted", includeDeleted).Msg("图书导出完成")
	return rows, nil
}

// csvRecord 图书转CSV行
// 缺失字段的占位约定：ISBN→N/A，作者/出版社→Unknown，无类型→空串
func csvRecord(b *book.Book) []string {
	isbn := b.ISBN
	if isbn == "" {
		isbn = "N/A"
	}
	author := b.AuthorName
	if author == "" {
		author = "Unknown"
	}
	publisher := b.PublisherName
	if publisher == "" {
		publisher = "Unknown"
	}
	genres := ""
	for i, g := range b.Genres {
		if i > 0 {
			genres += "; "
		}
		genres += g
	}
	availability := "Unavailable"
	if b.Availability {
		availability = "Available"
	}

	return []string{
		b.ID,
		isbn,
		b.Title,
		author,
		publisher,
		genres,
		fmt.Sprintf("%.2f", b.Price),
		availability,
	}
}
