package jobs

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"jobportal/internal/database"
	"jobportal/internal/paging"
)

// sortColumns 是允许排序的对外字段到列名的映射。
var sortColumns = map[string]string{
	"createdAt":           "created_at",
	"title":               "title",
	"salary.min":          "salary_min",
	"salary.max":          "salary_max",
	"views":               "views",
	"applicationDeadline": "application_deadline",
}

const defaultSort = "created_at DESC"

// Query 描述职位检索条件。
type Query struct {
	Search     string
	Type       string
	Experience string
	Category   string
	Location   string
	IsRemote   *bool
	SalaryMin  *float64
	SalaryMax  *float64
	CompanyID  uint
	ActiveOnly bool
	Sort       string
	Page       paging.Params
}

// Search 按条件分页检索职位；total 统计过滤后的总数。
func (s *Service) Search(ctx context.Context, q Query) (paging.Result[database.Job], error) {
	base := q.filters(s.db.WithContext(ctx).Model(&database.Job{}))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return paging.Result[database.Job]{}, database.Classify(err, jobNotFound)
	}

	var jobs []database.Job
	err := base.Session(&gorm.Session{}).
		Preload("Company", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "logo", "industry")
		}).
		Order(paging.ParseSort(q.Sort, sortColumns, defaultSort)).
		Order("id DESC").
		Offset(q.Page.Offset()).
		Limit(q.Page.Size()).
		Find(&jobs).Error
	if err != nil {
		return paging.Result[database.Job]{}, database.Classify(err, jobNotFound)
	}

	return paging.NewResult(jobs, q.Page, total), nil
}

func (q Query) filters(db *gorm.DB) *gorm.DB {
	if q.ActiveOnly {
		db = db.Where("is_active = ?", true)
	}
	if q.Type != "" {
		db = db.Where("type = ?", q.Type)
	}
	if q.Experience != "" {
		db = db.Where("experience = ?", q.Experience)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.CompanyID != 0 {
		db = db.Where("company_id = ?", q.CompanyID)
	}
	if q.IsRemote != nil {
		db = db.Where("is_remote = ?", *q.IsRemote)
	}
	if q.SalaryMin != nil {
		db = db.Where("salary_min >= ?", *q.SalaryMin)
	}
	if q.SalaryMax != nil {
		db = db.Where("salary_max <= ?", *q.SalaryMax)
	}
	if loc := strings.TrimSpace(q.Location); loc != "" {
		db = db.Where(`LOWER(location) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(loc))+"%")
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		db = db.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\' OR LOWER(CAST(skills AS TEXT)) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern,
		)
	}
	return db
}
