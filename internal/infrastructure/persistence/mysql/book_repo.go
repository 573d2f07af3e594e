package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// exportBatchSize 导出迭代器每批拉取的记录数
const exportBatchSize = 100

// BookRepository 图书仓储实现
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &BookRepository{db: db}
}

// Create 创建图书聚合
// 步骤（单个事务内）：
// 1. find-or-create作者与出版社
// 2. 创建图书行
// 3. 批量解析类型：一次IN查询找出已有的，缺失的批量补建
// 4. 整体替换book_genres关联
// 5. 重新加载完整聚合返回
func (r *BookRepository) Create(ctx context.Context, input book.CreateInput) (*book.Book, error) {
	var created *BookModel

	err := getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		// 1. 解析作者与出版社
		author, err := findOrCreateAuthor(tx, input.AuthorName)
		if err != nil {
			return err
		}
		publisher, err := findOrCreatePublisher(tx, input.PublisherName)
		if err != nil {
			return err
		}

		// 2. 创建图书行
		m := &BookModel{
			ISBN:         nilIfEmpty(input.ISBN),
			Title:        input.Title,
			Price:        input.Price,
			Availability: input.Availability,
			ImageURL:     nilIfEmpty(input.ImageURL),
			AuthorID:     author.ID,
			PublisherID:  publisher.ID,
			CreatorID:    input.CreatorID,
		}
		if err := tx.Create(m).Error; err != nil {
			return apperrors.Wrap(err, "创建图书失败")
		}

		// 3. 解析类型 + 4. 替换关联
		genres, err := resolveGenres(tx, input.Genres)
		if err != nil {
			return err
		}
		if err := tx.Model(m).Association("Genres").Replace(genres); err != nil {
			return apperrors.Wrap(err, "关联图书类型失败")
		}

		// 5. 重新加载聚合
		created, err = loadBookModel(tx, m.ID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	return toBookEntity(created), nil
}

// Update 更新图书聚合（部分字段）
func (r *BookRepository) Update(ctx context.Context, id string, input book.UpdateInput) (*book.Book, error) {
	var updated *BookModel

	err := getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		m, err := loadBookModel(tx, id, false)
		if err != nil {
			return err
		}

		// 逐字段组装更新集，nil表示保持原值
		updates := map[string]interface{}{}
		if input.Title != nil {
			updates["title"] = *input.Title
		}
		if input.Price != nil {
			updates["price"] = *input.Price
		}
		if input.Availability != nil {
			updates["availability"] = *input.Availability
		}
		if input.ISBN != nil {
			updates["isbn"] = nilIfEmpty(*input.ISBN)
		}
		if input.ImageURL != nil {
			updates["image_url"] = nilIfEmpty(*input.ImageURL)
		}
		if input.AuthorName != nil {
			author, err := findOrCreateAuthor(tx, *input.AuthorName)
			if err != nil {
				return err
			}
			updates["author_id"] = author.ID
		}
		if input.PublisherName != nil {
			publisher, err := findOrCreatePublisher(tx, *input.PublisherName)
			if err != nil {
				return err
			}
			updates["publisher_id"] = publisher.ID
		}

		if len(updates) > 0 {
			if err := tx.Model(m).Updates(updates).Error; err != nil {
				return apperrors.Wrap(err, "更新图书失败")
			}
		}

		// 提供了Genres时整体替换关联集合
		if input.Genres != nil {
			genres, err := resolveGenres(tx, *input.Genres)
			if err != nil {
				return err
			}
			if err := tx.Model(m).Association("Genres").Replace(genres); err != nil {
				return apperrors.Wrap(err, "更新图书类型失败")
			}
		}

		updated, err = loadBookModel(tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	return toBookEntity(updated), nil
}

// FindByID 根据ID查找图书（含关联，排除软删除）
func (r *BookRepository) FindByID(ctx context.Context, id string) (*book.Book, error) {
	m, err := loadBookModel(getDB(ctx, r.db), id, false)
	if err != nil {
		return nil, err
	}
	return toBookEntity(m), nil
}

// FindByTitle 根据书名查找（排除软删除，唯一性预检用）
func (r *BookRepository) FindByTitle(ctx context.Context, title string) (*book.Book, error) {
	var m BookModel
	err := getDB(ctx, r.db).Where("title = ?", title).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&m), nil
}

// FindByISBN 根据ISBN查找（排除软删除，唯一性预检用）
func (r *BookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var m BookModel
	err := getDB(ctx, r.db).Where("isbn = ?", isbn).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&m), nil
}

// SoftDelete 软删除图书
func (r *BookRepository) SoftDelete(ctx context.Context, id string) error {
	res := getDB(ctx, r.db).Where("id = ?", id).Delete(&BookModel{})
	if res.Error != nil {
		return apperrors.Wrap(res.Error, "删除图书失败")
	}
	if res.RowsAffected == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// Paginate 分页搜索
// 步骤：
// 1. JOIN作者与出版社（搜索条件需要按名称匹配）
// 2. 搜索词是ISBN格式时走isbn精确匹配，否则模糊匹配书名/作者/出版社
// 3. 先统计总数，再取当前页并预加载类型
func (r *BookRepository) Paginate(ctx context.Context, params book.SearchParams) ([]*book.Book, int64, error) {
	db := getDB(ctx, r.db)
	if params.IncludeDeleted {
		db = db.Unscoped()
	}

	query := db.Model(&BookModel{}).
		Joins("Author").
		Joins("Publisher")

	if book.IsISBN(params.Search) {
		query = query.Where("books.isbn = ?", params.Search)
	} else {
		like := "%" + params.Search + "%"
		query = query.Where(
			"books.title LIKE ? OR `Author`.`name` LIKE ? OR `Publisher`.`name` LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计搜索结果失败")
	}

	direction := "ASC"
	if params.SortOrder == book.SortDesc {
		direction = "DESC"
	}

	var models []*BookModel
	err := query.
		Order(fmt.Sprintf("%s %s", params.SortColumn(), direction)).
		Offset((params.Page - 1) * params.Limit).
		Limit(params.Limit).
		Preload("Genres").
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "搜索图书失败")
	}

	books := make([]*book.Book, 0, len(models))
	for _, m := range models {
		books = append(books, toBookEntity(m))
	}
	return books, total, nil
}

// Count 统计图书总数
func (r *BookRepository) Count(ctx context.Context, includeDeleted bool) (int64, error) {
	db := getDB(ctx, r.db)
	if includeDeleted {
		db = db.Unscoped()
	}
	var total int64
	if err := db.Model(&BookModel{}).Count(&total).Error; err != nil {
		return 0, apperrors.Wrap(err, "统计图书总数失败")
	}
	return total, nil
}

// ExportAll 创建全量导出迭代器
func (r *BookRepository) ExportAll(ctx context.Context, includeDeleted bool) book.Iterator {
	return &bookIterator{
		db:             r.db,
		includeDeleted: includeDeleted,
	}
}

// bookIterator 批式导出迭代器
// 按书名升序（ID作稳定次序的决胜键）、每批exportBatchSize条拉取，
// 当前批消费完才取下一批，全量结果不会物化到内存
type bookIterator struct {
	db             *gorm.DB
	includeDeleted bool
	buf            []*book.Book
	pos            int
	offset         int
	exhausted      bool
}

// Next 返回下一条图书，数据取完返回(nil, nil)
func (it *bookIterator) Next(ctx context.Context) (*book.Book, error) {
	if it.pos >= len(it.buf) {
		if it.exhausted {
			return nil, nil
		}
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
		if len(it.buf) == 0 {
			return nil, nil
		}
	}
	b := it.buf[it.pos]
	it.pos++
	return b, nil
}

func (it *bookIterator) fetch(ctx context.Context) error {
	db := it.db.WithContext(ctx)
	if it.includeDeleted {
		db = db.Unscoped()
	}

	var models []*BookModel
	err := db.Model(&BookModel{}).
		Preload("Author").
		Preload("Publisher").
		Preload("Genres").
		Order("books.title ASC, books.id ASC").
		Offset(it.offset).
		Limit(exportBatchSize).
		Find(&models).Error
	if err != nil {
		return apperrors.Wrap(err, "导出图书批次失败")
	}

	it.buf = it.buf[:0]
	for _, m := range models {
		it.buf = append(it.buf, toBookEntity(m))
	}
	it.pos = 0
	it.offset += len(models)
	if len(models) < exportBatchSize {
		it.exhausted = true
	}
	return nil
}

// =========================================
// 内部辅助
// =========================================

// loadBookModel 加载图书及全部关联
func loadBookModel(db *gorm.DB, id string, includeDeleted bool) (*BookModel, error) {
	if includeDeleted {
		db = db.Unscoped()
	}
	var m BookModel
	err := db.
		Preload("Author").
		Preload("Publisher").
		Preload("Genres").
		Where("books.id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return &m, nil
}

// findOrCreateAuthor 按名称查找作者，不存在则创建
// 并发find-or-create可能撞name唯一索引（查到没有、插入时别人已抢先提交），
// 这种情况按冲突上报，客户端重试即可命中已有行
func findOrCreateAuthor(tx *gorm.DB, name string) (*AuthorModel, error) {
	var m AuthorModel
	err := tx.Where(&AuthorModel{Name: name}).FirstOrCreate(&m).Error
	if isDuplicateError(err) {
		return nil, apperrors.ErrDuplicateEntry
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "解析作者失败")
	}
	return &m, nil
}

// findOrCreatePublisher 按名称查找出版社，不存在则创建
func findOrCreatePublisher(tx *gorm.DB, name string) (*PublisherModel, error) {
	var m PublisherModel
	err := tx.Where(&PublisherModel{Name: name}).FirstOrCreate(&m).Error
	if isDuplicateError(err) {
		return nil, apperrors.ErrDuplicateEntry
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "解析出版社失败")
	}
	return &m, nil
}

// resolveGenres 批量解析类型名称
// 一次IN查询找出已有的，缺失的批量补建（OnConflict容忍并发补建竞争），
// 再整体查回保证拿到全部ID
func resolveGenres(tx *gorm.DB, names []string) ([]GenreModel, error) {
	if len(names) == 0 {
		return []GenreModel{}, nil
	}

	var existing []GenreModel
	if err := tx.Where("name IN ?", names).Find(&existing).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书类型失败")
	}

	known := make(map[string]bool, len(existing))
	for _, g := range existing {
		known[g.Name] = true
	}

	var missing []GenreModel
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !known[name] && !seen[name] {
			missing = append(missing, GenreModel{Name: name})
			seen[name] = true
		}
	}
	if len(missing) > 0 {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&missing).Error
		if err != nil {
			return nil, apperrors.Wrap(err, "创建图书类型失败")
		}
	}

	var all []GenreModel
	if err := tx.Where("name IN ?", names).Find(&all).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书类型失败")
	}
	return all, nil
}

// toBookEntity 数据模型转领域实体
func toBookEntity(m *BookModel) *book.Book {
	genres := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, g.Name)
	}

	b := &book.Book{
		ID:            m.ID,
		Title:         m.Title,
		Price:         m.Price,
		Availability:  m.Availability,
		AuthorName:    m.Author.Name,
		PublisherName: m.Publisher.Name,
		Genres:        genres,
		CreatorID:     m.CreatorID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.ISBN != nil {
		b.ISBN = *m.ISBN
	}
	if m.ImageURL != nil {
		b.ImageURL = *m.ImageURL
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		b.DeletedAt = &t
	}
	return b
}

// nilIfEmpty 空字符串存NULL，保证可选字段的NULL语义
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
