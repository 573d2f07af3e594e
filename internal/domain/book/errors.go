package book

import (
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.ErrBookNotFound

	// ErrTitleDuplicate 书名已存在(未删除记录范围内)
	ErrTitleDuplicate = apperrors.ErrTitleDuplicate

	// ErrISBNDuplicate ISBN已存在(未删除记录范围内)
	ErrISBNDuplicate = apperrors.ErrISBNDuplicate

	// ErrInvalidPrice 价格必须>=0
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格不能为负数")

	// ErrInvalidPage 页码必须>=1
	ErrInvalidPage = apperrors.New(apperrors.ErrCodeInvalidParams, "页码必须大于0")

	// ErrInvalidLimit 每页数量必须>=1
	ErrInvalidLimit = apperrors.New(apperrors.ErrCodeInvalidParams, "每页数量必须大于0")

	// ErrEmptySearch 搜索词不能为空
	ErrEmptySearch = apperrors.New(apperrors.ErrCodeInvalidParams, "搜索词不能为空")

	// ErrGenreNameTooLong 类型名称超长
	ErrGenreNameTooLong = apperrors.New(apperrors.ErrCodeInvalidParams, "类型名称不能超过100个字符")

	// ErrNoSearchMatches 没有符合条件的图书
	ErrNoSearchMatches = apperrors.ErrNoSearchMatches

	// ErrNothingToExport 没有可导出的图书
	ErrNothingToExport = apperrors.ErrNothingToExport
)
