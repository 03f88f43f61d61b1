package applications

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jobportal/internal/auth"
	"jobportal/internal/database"
)

const recentLimit = 5

// EmployerStats 汇总雇主发布的职位与收到的申请。
type EmployerStats struct {
	TotalJobs           int64 `json:"totalJobs"`
	ActiveJobs          int64 `json:"activeJobs"`
	TotalApplications   int64 `json:"totalApplications"`
	PendingApplications int64 `json:"pendingApplications"`
}

// EmployerDashboard 是雇主面板首页的数据。
type EmployerDashboard struct {
	Stats              EmployerStats          `json:"stats"`
	Company            *database.Company      `json:"company"`
	RecentApplications []database.Application `json:"recentApplications"`
}

// Dashboard 统计调用方发布的职位与申请，并返回最近的 5 条申请。
func (s *Service) Dashboard(ctx context.Context, actor auth.Identity) (*EmployerDashboard, error) {
	db := s.db.WithContext(ctx)
	postedJobs := s.db.Model(&database.Job{}).Select("id").Where("posted_by_id = ?", actor.ID)

	var out EmployerDashboard
	if err := db.Model(&database.Job{}).Where("posted_by_id = ?", actor.ID).Count(&out.Stats.TotalJobs).Error; err != nil {
		return nil, database.Classify(err, "job not found")
	}
	if err := db.Model(&database.Job{}).Where("posted_by_id = ? AND is_active = ?", actor.ID, true).Count(&out.Stats.ActiveJobs).Error; err != nil {
		return nil, database.Classify(err, "job not found")
	}
	if err := db.Model(&database.Application{}).Where("job_id IN (?)", postedJobs).Count(&out.Stats.TotalApplications).Error; err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}
	err := db.Model(&database.Application{}).
		Where("job_id IN (?) AND status = ?", postedJobs, database.StatusPending).
		Count(&out.Stats.PendingApplications).Error
	if err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}

	var company database.Company
	err = db.Where("owner_id = ?", actor.ID).First(&company).Error
	switch {
	case err == nil:
		out.Company = &company
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, database.Classify(err, "company not found")
	}

	err = db.
		Where("job_id IN (?)", postedJobs).
		Preload("Job", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		}).
		Preload("Applicant", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		Order("applied_at DESC").Order("id DESC").
		Limit(recentLimit).
		Find(&out.RecentApplications).Error
	if err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}
	if out.RecentApplications == nil {
		out.RecentApplications = []database.Application{}
	}
	return &out, nil
}
