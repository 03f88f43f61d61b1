// Package paging 实现所有列表接口共享的分页与排序约定。
package paging

import (
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params 是 1 起始的页码与每页条数。
type Params struct {
	Page  int
	Limit int
}

// Parse 从查询参数解析分页，非法值回落为默认值。
func Parse(page, limit string) Params {
	p, err := strconv.Atoi(strings.TrimSpace(page))
	if err != nil || p < 1 {
		p = 1
	}
	l, err := strconv.Atoi(strings.TrimSpace(limit))
	if err != nil || l < 1 {
		l = DefaultLimit
	}
	if l > MaxLimit {
		l = MaxLimit
	}
	return Params{Page: p, Limit: l}
}

func (p Params) normalized() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Offset 返回 (page-1)*limit。
func (p Params) Offset() int {
	n := p.normalized()
	return (n.Page - 1) * n.Limit
}

// Size 返回归一化后的 limit。
func (p Params) Size() int {
	return p.normalized().Limit
}

type Cursor struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Pagination struct {
	Next *Cursor `json:"next,omitempty"`
	Prev *Cursor `json:"prev,omitempty"`
}

// Paginate 计算前后页游标：start+limit < total 时有 next，start > 0 时有 prev。
func Paginate(p Params, total int64) Pagination {
	p = p.normalized()
	start := int64(p.Offset())

	var out Pagination
	if start+int64(p.Limit) < total {
		out.Next = &Cursor{Page: p.Page + 1, Limit: p.Limit}
	}
	if start > 0 {
		out.Prev = &Cursor{Page: p.Page - 1, Limit: p.Limit}
	}
	return out
}

// Result 是列表接口的统一响应体。
type Result[T any] struct {
	Items      []T        `json:"items"`
	Count      int        `json:"count"`
	Total      int64      `json:"total"`
	Pagination Pagination `json:"pagination"`
}

// NewResult 组装一页结果。
func NewResult[T any](items []T, p Params, total int64) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:      items,
		Count:      len(items),
		Total:      total,
		Pagination: Paginate(p, total),
	}
}

// All 包装不分页的完整列表。
func All[T any](items []T) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items, Count: len(items), Total: int64(len(items))}
}

// ParseSort 将 "-createdAt,title" 形式的排序参数转为 ORDER BY 子句。
// allowed 把对外字段名映射为列名，未知字段被忽略；结果为空时使用 fallback。
func ParseSort(raw string, allowed map[string]string, fallback string) string {
	parts := make([]string, 0, 2)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		dir := "ASC"
		if strings.HasPrefix(token, "-") {
			dir = "DESC"
			token = token[1:]
		}
		column, ok := allowed[token]
		if !ok {
			continue
		}
		parts = append(parts, column+" "+dir)
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}
