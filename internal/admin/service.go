// Package admin 提供管理员的跨实体统计与管理操作。所有方法先校验调用方为管理员。
package admin

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"jobportal/internal/auth"
	"jobportal/internal/companies"
	"jobportal/internal/database"
	"jobportal/internal/errcode"
	"jobportal/internal/jobs"
	"jobportal/internal/paging"
)

const (
	userNotFound = "User not found"
	recentLimit  = 5
)

// ResumePurger 安排删除用户的简历文件。
type ResumePurger interface {
	EnqueueResumePurge(ctx context.Context, userID uint, correlationID string) error
}

// Service 汇总管理员操作。
type Service struct {
	db        *gorm.DB
	companies *companies.Service
	jobs      *jobs.Service
	purger    ResumePurger
	logger    *slog.Logger
}

// NewService 构造管理服务。purger 为 nil 时删除用户不清理简历文件。
func NewService(db *gorm.DB, companySvc *companies.Service, jobSvc *jobs.Service, purger ResumePurger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, companies: companySvc, jobs: jobSvc, purger: purger, logger: logger}
}

func gate(actor auth.Identity) error {
	if !actor.IsAdmin() {
		return errcode.Newf(errcode.Forbidden, "user role %s is not authorized to access this route", actor.Role)
	}
	return nil
}

// Stats 是全站计数。
type Stats struct {
	TotalUsers          int64 `json:"totalUsers"`
	TotalJobs           int64 `json:"totalJobs"`
	TotalCompanies      int64 `json:"totalCompanies"`
	TotalApplications   int64 `json:"totalApplications"`
	ActiveJobs          int64 `json:"activeJobs"`
	PendingApplications int64 `json:"pendingApplications"`
}

// Dashboard 是管理后台首页数据。
type Dashboard struct {
	Stats              Stats                  `json:"stats"`
	RecentJobs         []database.Job         `json:"recentJobs"`
	RecentApplications []database.Application `json:"recentApplications"`
}

// Dashboard 统计全站数据，并附最近发布的 5 个职位与最近的 5 条申请。
func (s *Service) Dashboard(ctx context.Context, actor auth.Identity) (*Dashboard, error) {
	if err := gate(actor); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var out Dashboard
	counts := []struct {
		query *gorm.DB
		dst   *int64
	}{
		{db.Model(&database.User{}), &out.Stats.TotalUsers},
		{db.Model(&database.Job{}), &out.Stats.TotalJobs},
		{db.Model(&database.Company{}), &out.Stats.TotalCompanies},
		{db.Model(&database.Application{}), &out.Stats.TotalApplications},
		{db.Model(&database.Job{}).Where("is_active = ?", true), &out.Stats.ActiveJobs},
		{db.Model(&database.Application{}).Where("status = ?", database.StatusPending), &out.Stats.PendingApplications},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, database.Classify(err, "not found")
		}
	}

	err := db.
		Preload("Company", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("created_at DESC").Order("id DESC").
		Limit(recentLimit).
		Find(&out.RecentJobs).Error
	if err != nil {
		return nil, database.Classify(err, "job not found")
	}

	err = db.
		Preload("Job", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title") }).
		Preload("Applicant", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("applied_at DESC").Order("id DESC").
		Limit(recentLimit).
		Find(&out.RecentApplications).Error
	if err != nil {
		return nil, database.Classify(err, "application not found")
	}
	return &out, nil
}

// ListUsers 分页列出用户，最新注册在前。
func (s *Service) ListUsers(ctx context.Context, actor auth.Identity, p paging.Params) (paging.Result[database.User], error) {
	if err := gate(actor); err != nil {
		return paging.Result[database.User]{}, err
	}
	return page[database.User](s.db.WithContext(ctx).Model(&database.User{}), p, "created_at DESC, id DESC")
}

// ListCompanies 列出全部公司，包括未启用的。
func (s *Service) ListCompanies(ctx context.Context, actor auth.Identity) (paging.Result[database.Company], error) {
	if err := gate(actor); err != nil {
		return paging.Result[database.Company]{}, err
	}
	var items []database.Company
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return paging.Result[database.Company]{}, database.Classify(err, "company not found")
	}
	return paging.All(items), nil
}

// ListJobs 分页列出全部职位，附公司名与发布者。
func (s *Service) ListJobs(ctx context.Context, actor auth.Identity, p paging.Params) (paging.Result[database.Job], error) {
	if err := gate(actor); err != nil {
		return paging.Result[database.Job]{}, err
	}
	q := s.db.WithContext(ctx).Model(&database.Job{}).
		Preload("Company", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Preload("PostedBy", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") })
	return page[database.Job](q, p, "created_at DESC, id DESC")
}

// ListApplications 分页列出全部申请。
func (s *Service) ListApplications(ctx context.Context, actor auth.Identity, p paging.Params) (paging.Result[database.Application], error) {
	if err := gate(actor); err != nil {
		return paging.Result[database.Application]{}, err
	}
	q := s.db.WithContext(ctx).Model(&database.Application{}).
		Preload("Job", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title") }).
		Preload("Applicant", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Preload("Company", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") })
	return page[database.Application](q, p, "applied_at DESC, id DESC")
}

func page[T any](base *gorm.DB, p paging.Params, order string) (paging.Result[T], error) {
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return paging.Result[T]{}, database.Classify(err, "not found")
	}
	var items []T
	err := base.Session(&gorm.Session{}).
		Order(order).
		Offset(p.Offset()).Limit(p.Size()).
		Find(&items).Error
	if err != nil {
		return paging.Result[T]{}, database.Classify(err, "not found")
	}
	return paging.NewResult(items, p, total), nil
}

// SetUserRole 修改用户角色。
func (s *Service) SetUserRole(ctx context.Context, actor auth.Identity, userID uint, rawRole string) (*database.User, error) {
	if err := gate(actor); err != nil {
		return nil, err
	}
	role, err := auth.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	return s.updateUser(ctx, userID, "role", string(role))
}

// SetUserVerified 修改用户认证标记。
func (s *Service) SetUserVerified(ctx context.Context, actor auth.Identity, userID uint, verified bool) (*database.User, error) {
	if err := gate(actor); err != nil {
		return nil, err
	}
	return s.updateUser(ctx, userID, "is_verified", verified)
}

func (s *Service) updateUser(ctx context.Context, userID uint, column string, value any) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, database.Classify(err, userNotFound)
	}
	if err := s.db.WithContext(ctx).Model(&user).Update(column, value).Error; err != nil {
		return nil, database.Classify(err, userNotFound)
	}
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, database.Classify(err, userNotFound)
	}
	return &user, nil
}

// SetCompanyVerified 修改公司认证标记。
func (s *Service) SetCompanyVerified(ctx context.Context, actor auth.Identity, companyID uint, verified bool) (*database.Company, error) {
	if err := gate(actor); err != nil {
		return nil, err
	}
	return s.companies.SetVerified(ctx, actor, companyID, verified)
}

// ToggleJobActive 切换任意职位的上下架状态。
func (s *Service) ToggleJobActive(ctx context.Context, actor auth.Identity, jobID uint) (*database.Job, error) {
	if err := gate(actor); err != nil {
		return nil, err
	}
	return s.jobs.ToggleActive(ctx, actor, jobID)
}

// DeleteUser 删除用户并级联删除其申请；雇主还会删除其发布的职位及这些职位收到的申请。
// 公司资料保留。各步骤不在同一事务中，中途失败时已完成的删除不回滚。
func (s *Service) DeleteUser(ctx context.Context, actor auth.Identity, userID uint, correlationID string) error {
	if err := gate(actor); err != nil {
		return err
	}
	if userID == actor.ID {
		return errcode.New(errcode.InvalidState, "Admin cannot delete their own account")
	}

	db := s.db.WithContext(ctx)
	var user database.User
	if err := db.First(&user, userID).Error; err != nil {
		return database.Classify(err, userNotFound)
	}

	if err := db.Where("applicant_id = ?", user.ID).Delete(&database.Application{}).Error; err != nil {
		return database.Classify(err, userNotFound)
	}

	if user.Role == database.RoleEmployer {
		var jobIDs []uint
		if err := db.Model(&database.Job{}).Where("posted_by_id = ?", user.ID).Pluck("id", &jobIDs).Error; err != nil {
			return database.Classify(err, userNotFound)
		}
		if len(jobIDs) > 0 {
			if err := db.Where("job_id IN ?", jobIDs).Delete(&database.Application{}).Error; err != nil {
				return database.Classify(err, userNotFound)
			}
			if err := db.Where("id IN ?", jobIDs).Delete(&database.Job{}).Error; err != nil {
				return database.Classify(err, userNotFound)
			}
		}
	}

	if err := db.Delete(&database.User{}, user.ID).Error; err != nil {
		return database.Classify(err, userNotFound)
	}

	s.logger.Info("user deleted",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", user.Role),
		slog.Uint64("admin_id", uint64(actor.ID)),
	)

	if s.purger != nil {
		if err := s.purger.EnqueueResumePurge(ctx, user.ID, correlationID); err != nil {
			s.logger.Warn("enqueue resume purge failed",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.String("correlation_id", correlationID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}
