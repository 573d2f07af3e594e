package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	app *appbook.AppService
}

// NewBookHandler 创建图书处理器
func NewBookHandler(app *appbook.AppService) *BookHandler {
	return &BookHandler{app: app}
}

// Create 创建图书
// @Summary      创建图书
// @Description  创建图书聚合，作者/出版社/类型按名称解析，不存在则在同一事务内创建
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateBookRequest true "图书信息"
// @Success      201 {object} response.Response{data=dto.BookResponse}
// @Failure      400 {object} response.Response "书名或ISBN重复、参数非法"
// @Security     BearerAuth
// @Router       /api/v1/books [post]
func (h *BookHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBindError)
		return
	}

	u := middleware.CurrentUser(c)
	if u == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	b, err := h.app.CreateBook(c.Request.Context(), req.ToInput(u.ID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.FromBook(b))
}

// Search 分页搜索图书
// @Summary      分页搜索图书
// @Description  搜索词为ISBN格式时精确匹配ISBN，否则模糊匹配书名/作者/出版社
// @Tags         books
// @Produce      json
// @Param        search query string true "搜索词"
// @Param        page query int false "页码(默认1)"
// @Param        limit query int false "每页数量(默认10)"
// @Param        sortBy query string false "排序字段(title/isbn/price/availability/created_at/updated_at)"
// @Param        sortOrder query string false "asc|desc"
// @Param        includeDeleted query bool false "包含已删除记录"
// @Success      200 {object} response.Response{data=response.PageData}
// @Failure      404 {object} response.Response "无符合条件的图书"
// @Security     BearerAuth
// @Router       /api/v1/books [get]
func (h *BookHandler) Search(c *gin.Context) {
	var req dto.SearchBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperrors.ErrBindError)
		return
	}

	params := req.ToParams()
	result, err := h.app.SearchBooks(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, &response.PageData{
		Data:         dto.FromBooks(result.Data),
		CurrentPage:  result.CurrentPage,
		LastPage:     result.LastPage,
		HasMorePages: result.HasMorePages,
		TotalRecords: result.TotalRecords,
	})
}

// Get 查询单本图书
// @Summary      查询图书详情
// @Tags         books
// @Produce      json
// @Param        id path string true "图书ID"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	b, err := h.app.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.FromBook(b))
}

// Update 更新图书（部分字段）
// @Summary      更新图书
// @Description  只更新请求中出现的字段；genres提供时整体替换关联集合
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id path string true "图书ID"
// @Param        request body dto.UpdateBookRequest true "更新字段"
// @Success      200 {object} response.Response{data=dto.BookResponse}
// @Failure      400 {object} response.Response "书名或ISBN与其他图书冲突"
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/v1/books/{id} [patch]
func (h *BookHandler) Update(c *gin.Context) {
	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBindError)
		return
	}

	b, err := h.app.UpdateBook(c.Request.Context(), c.Param("id"), req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.FromBook(b))
}

// Delete 软删除图书
// @Summary      删除图书
// @Description  软删除：记录保留但从常规查询中消失，书名与ISBN即刻可复用
// @Tags         books
// @Param        id path string true "图书ID"
// @Success      204
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	if err := h.app.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV 全量导出图书为CSV
// @Summary      导出图书CSV
// @Description  流式导出全部图书，按书名升序；无数据时返回404且不写出任何字节
// @Tags         books
// @Produce      text/csv
// @Param        includeDeleted query bool false "包含已删除记录"
// @Success      200 {string} string "CSV文件"
// @Failure      404 {object} response.Response "无可导出数据"
// @Security     BearerAuth
// @Router       /api/v1/books/export/csv [get]
func (h *BookHandler) ExportCSV(c *gin.Context) {
	includeDeleted := c.Query("includeDeleted") == "true"
	ctx := c.Request.Context()

	// 导出前先确认有数据：响应头一旦写出就无法改报错误状态
	filename := fmt.Sprintf("books_%s.csv", time.Now().UTC().Format("2006-01-02T15-04-05"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	rows, err := h.app.ExportCSV(ctx, includeDeleted, c.Writer)
	if err != nil {
		if rows == 0 && !c.Writer.Written() {
			// 还没写出字节，可以正常返回错误响应
			c.Header("Content-Type", "application/json; charset=utf-8")
			c.Header("Content-Disposition", "")
			response.Error(c, err)
			return
		}
		// 流已开始，只能中断连接并记录
		log.Error().Err(err).Int64("rows", rows).Msg("CSV导出中途失败，连接中断")
		c.Abort()
		return
	}
	c.Status(http.StatusOK)
}
