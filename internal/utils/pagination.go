// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxPerPage = 100

type PaginationParams struct {
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Sort    string `json:"sort"`
	Order   string `json:"order"`
	Search  string `json:"search"`
}

type PaginationResult struct {
	Items       interface{} `json:"items"`
	Total       int64       `json:"total"`
	Pages       int         `json:"pages"`
	CurrentPage int         `json:"current_page"`
	PerPage     int         `json:"per_page"`
	HasNext     bool        `json:"has_next"`
	HasPrev     bool        `json:"has_prev"`
}

// GetPaginationParams reads page, per_page (or limit), sort, order and search.
func GetPaginationParams(c *gin.Context, defaultPerPage int) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	perPageRaw := c.Query("per_page")
	if perPageRaw == "" {
		perPageRaw = c.Query("limit")
	}
	perPage, err := strconv.Atoi(perPageRaw)
	if err != nil || perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	if page < 1 {
		page = 1
	}

	order := c.DefaultQuery("order", "desc")
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	return PaginationParams{
		Page:    page,
		PerPage: perPage,
		Sort:    c.DefaultQuery("sort", "created_at"),
		Order:   order,
		Search:  c.Query("search"),
	}
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	offset := (params.Page - 1) * params.PerPage
	return db.Offset(offset).Limit(params.PerPage)
}

// ApplySort orders by params.Sort when it is in allowedSortFields, otherwise by created_at.
// The primary key is always the tie-breaker so pages are stable.
func ApplySort(db *gorm.DB, params PaginationParams, allowedSortFields []string) *gorm.DB {
	sortField := "created_at"
	for _, field := range allowedSortFields {
		if field == params.Sort {
			sortField = field
			break
		}
	}

	desc := params.Order == "desc"
	return db.
		Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: sortField}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Desc: desc})
}

func CreatePaginationResult(items interface{}, total int64, params PaginationParams) PaginationResult {
	pages := int(math.Ceil(float64(total) / float64(params.PerPage)))

	return PaginationResult{
		Items:       items,
		Total:       total,
		Pages:       pages,
		CurrentPage: params.Page,
		PerPage:     params.PerPage,
		HasNext:     params.Page < pages,
		HasPrev:     params.Page > 1,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.CurrentPage))
	c.Header("X-Per-Page", strconv.Itoa(result.PerPage))
	c.Header("X-Total-Pages", strconv.Itoa(result.Pages))
}
