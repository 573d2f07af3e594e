package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. Create/Update是聚合写入:作者/出版社/类型的解析与关联在一个事务内完成
// 3. 便于Mock测试,不依赖具体数据库实现
type Repository interface {
	// Create 创建图书聚合
	// 在单个事务内: find-or-create作者与出版社 → 创建图书行 →
	// 批量解析类型(一次IN查询+批量补建) → 整体替换关联 → 重新加载聚合
	// 任一步失败整体回滚,不留下部分创建的行
	Create(ctx context.Context, input CreateInput) (*Book, error)

	// Update 更新图书聚合(部分字段)
	// 提供了AuthorName/PublisherName时重新解析外键;提供了Genres时整体替换关联
	// 图书不存在返回ErrBookNotFound
	Update(ctx context.Context, id string, input UpdateInput) (*Book, error)

	// FindByID 根据ID查找图书(含关联),不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id string) (*Book, error)

	// FindByTitle 根据书名查找(排除软删除),不存在返回ErrBookNotFound
	FindByTitle(ctx context.Context, title string) (*Book, error)

	// FindByISBN 根据ISBN查找(排除软删除),不存在返回ErrBookNotFound
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// SoftDelete 软删除图书,不存在返回ErrBookNotFound
	SoftDelete(ctx context.Context, id string) error

	// Paginate 分页查询(含作者/出版社/类型),返回本页记录与总数
	Paginate(ctx context.Context, params SearchParams) ([]*Book, int64, error)

	// Count 统计图书总数
	Count(ctx context.Context, includeDeleted bool) (int64, error)

	// ExportAll 创建全量导出迭代器,按书名升序、每批100条拉取
	ExportAll(ctx context.Context, includeDeleted bool) Iterator
}

// Iterator 图书导出迭代器
// 契约:
// 1. 单向、单遍、有限:Next逐条返回图书,数据取完返回(nil, nil)
// 2. 不可重置:重新导出需调用ExportAll创建新迭代器
// 3. 底层按固定批次(100条)拉取,不会将全量结果物化到内存
type Iterator interface {
	Next(ctx context.Context) (*Book, error)
}
