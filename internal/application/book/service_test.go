package book

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.InitMetrics()
	m.Run()
}

// fakeService 固定数据的领域服务，只实现导出路径
type fakeService struct {
	book.Service
	books []*book.Book
}

func (s *fakeService) ExportBooks(ctx context.Context, includeDeleted bool) (book.Iterator, error) {
	if len(s.books) == 0 {
		return nil, book.ErrNothingToExport
	}
	return &sliceIterator{books: s.books}, nil
}

type sliceIterator struct {
	books []*book.Book
	pos   int
}

func (it *sliceIterator) Next(ctx context.Context) (*book.Book, error) {
	if it.pos >= len(it.books) {
		return nil, nil
	}
	b := it.books[it.pos]
	it.pos++
	return b, nil
}

// noopTx 不开事务直接执行回调
type noopTx struct{}

func (noopTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// TestExportCSV 测试CSV流式导出的格式约定
func TestExportCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("表头与完整行", func(t *testing.T) {
		svc := &fakeService{books: []*book.Book{
			{
				ID:            "id-1",
				ISBN:          "978-3-16-148410-0",
				Title:         "The Go Programming Language",
				Price:         59.9,
				Availability:  true,
				AuthorName:    "Alan Donovan",
				PublisherName: "Addison-Wesley",
				Genres:        []string{"Programming", "Reference"},
			},
		}}
		app := NewAppService(svc, noopTx{})

		var buf bytes.Buffer
		rows, err := app.ExportCSV(ctx, false, &buf)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "ID,ISBN,Title,Author,Publisher,Genres,Price,Availability", lines[0])
		assert.Equal(t, "id-1,978-3-16-148410-0,The Go Programming Language,Alan Donovan,Addison-Wesley,Programming; Reference,59.90,Available", lines[1])
	})

	t.Run("缺失字段的占位符", func(t *testing.T) {
		svc := &fakeService{books: []*book.Book{
			{
				ID:           "id-2",
				Title:        "孤本",
				Price:        10,
				Availability: false,
				Genres:       []string{},
			},
		}}
		app := NewAppService(svc, noopTx{})

		var buf bytes.Buffer
		_, err := app.ExportCSV(ctx, false, &buf)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		// 无ISBN→N/A,无作者/出版社→Unknown,无类型→空,价格两位小数
		assert.Equal(t, "id-2,N/A,孤本,Unknown,Unknown,,10.00,Unavailable", lines[1])
	})

	t.Run("含逗号与引号的字段按RFC4180转义", func(t *testing.T) {
		svc := &fakeService{books: []*book.Book{
			{
				ID:            "id-3",
				Title:         `My "Book", Vol. 2`,
				Price:         5,
				AuthorName:    "Doe, Jane",
				PublisherName: "P",
				Availability:  true,
			},
		}}
		app := NewAppService(svc, noopTx{})

		var buf bytes.Buffer
		_, err := app.ExportCSV(ctx, false, &buf)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, `id-3,N/A,"My ""Book"", Vol. 2","Doe, Jane",P,,5.00,Available`, lines[1])
	})

	t.Run("无数据时在写出任何字节之前报错", func(t *testing.T) {
		app := NewAppService(&fakeService{}, noopTx{})

		var buf bytes.Buffer
		rows, err := app.ExportCSV(ctx, false, &buf)
		assert.ErrorIs(t, err, book.ErrNothingToExport)
		assert.Zero(t, rows)
		assert.Zero(t, buf.Len(), "报错前不能写出表头或任何数据")
	})

	t.Run("多行导出计数正确", func(t *testing.T) {
		var books []*book.Book
		for i := 0; i < 150; i++ {
			books = append(books, &book.Book{
				ID:            "id",
				Title:         "T",
				AuthorName:    "A",
				PublisherName: "P",
				Price:         1,
			})
		}
		app := NewAppService(&fakeService{books: books}, noopTx{})

		var buf bytes.Buffer
		rows, err := app.ExportCSV(ctx, false, &buf)
		require.NoError(t, err)
		assert.Equal(t, int64(150), rows)
		assert.Equal(t, 151, strings.Count(buf.String(), "\n"), "表头+150行数据")
	})
}
