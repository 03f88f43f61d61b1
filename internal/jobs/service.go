// Package jobs 管理职位：发布、修改、上下架、删除与检索。
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobportal/internal/auth"
	"jobportal/internal/database"
	"jobportal/internal/errcode"
)

const jobNotFound = "job not found"

// Service 提供职位目录的业务操作。
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewService 构造职位服务。
func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger, now: time.Now}
}

// Create 以调用方名下公司发布职位，并把职位 ID 追加到公司的 jobIds 缓存。
func (s *Service) Create(ctx context.Context, actor auth.Identity, in Input) (*database.Job, error) {
	job := database.Job{
		PostedByID:     actor.ID,
		IsActive:       true,
		SalaryCurrency: DefaultCurrency,
	}
	if err := in.apply(&job, true); err != nil {
		return nil, err
	}

	var company database.Company
	if err := s.db.WithContext(ctx).Where("owner_id = ?", actor.ID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.New(errcode.Precondition, "You must create a company profile first")
		}
		return nil, database.Classify(err, "company not found")
	}
	job.CompanyID = company.ID

	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, database.Classify(err, jobNotFound)
	}

	company.JobIDs = append(company.JobIDs, job.ID)
	if err := s.db.WithContext(ctx).Model(&company).Update("job_ids", company.JobIDs).Error; err != nil {
		s.logger.Warn("append job id to company failed",
			slog.Uint64("company_id", uint64(company.ID)),
			slog.Uint64("job_id", uint64(job.ID)),
			slog.Any("error", err),
		)
	}

	return &job, nil
}

// Get 是公开的单条读取：附带公司与发布者摘要，并尽力将浏览量加一。
func (s *Service) Get(ctx context.Context, id uint) (*database.Job, error) {
	var job database.Job
	err := s.db.WithContext(ctx).
		Preload("Company", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "logo", "industry", "description", "website")
		}).
		Preload("PostedBy", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		First(&job, id).Error
	if err != nil {
		return nil, database.Classify(err, jobNotFound)
	}

	if err := s.db.WithContext(ctx).Model(&database.Job{}).Where("id = ?", job.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		s.logger.Warn("increment job views failed", slog.Uint64("job_id", uint64(job.ID)), slog.Any("error", err))
	} else {
		job.Views++
	}

	return &job, nil
}

// Find 读取职位，不产生浏览计数。
func (s *Service) Find(ctx context.Context, id uint) (*database.Job, error) {
	var job database.Job
	if err := s.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, database.Classify(err, jobNotFound)
	}
	return &job, nil
}

// Update 修改职位，仅发布者或管理员可操作。
func (s *Service) Update(ctx context.Context, actor auth.Identity, id uint, in Input) (*database.Job, error) {
	job, err := s.findManaged(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}
	if err := in.apply(job, false); err != nil {
		return nil, err
	}
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// save 只写可编辑列，views 与 application_ids 由浏览和申请流程并发维护。
func (s *Service) save(ctx context.Context, job *database.Job) error {
	err := s.db.WithContext(ctx).Model(job).
		Select("title", "description", "requirements", "responsibilities", "location",
			"type", "experience", "category", "salary_min", "salary_max", "salary_currency",
			"skills", "benefits", "is_remote", "is_active", "application_deadline").
		Updates(job).Error
	return database.Classify(err, jobNotFound)
}

// ToggleActive 切换职位上下架状态。
func (s *Service) ToggleActive(ctx context.Context, actor auth.Identity, id uint) (*database.Job, error) {
	job, err := s.findManaged(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}
	job.IsActive = !job.IsActive
	if err := s.db.WithContext(ctx).Model(job).Update("is_active", job.IsActive).Error; err != nil {
		return nil, database.Classify(err, jobNotFound)
	}
	return job, nil
}

// Delete 删除职位。已有申请保留，不做级联删除。
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id uint) error {
	job, err := s.findManaged(ctx, actor, id, "delete")
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&database.Job{}, job.ID).Error; err != nil {
		return database.Classify(err, jobNotFound)
	}
	return nil
}

// ListByCompany 列出某公司的职位，按发布时间倒序。
func (s *Service) ListByCompany(ctx context.Context, companyID uint, activeOnly bool) ([]database.Job, error) {
	q := s.db.WithContext(ctx).Where("company_id = ?", companyID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var jobs []database.Job
	if err := q.Order("created_at DESC").Order("id DESC").Find(&jobs).Error; err != nil {
		return nil, database.Classify(err, jobNotFound)
	}
	return jobs, nil
}

// ListByOwner 列出调用方发布的全部职位。
func (s *Service) ListByOwner(ctx context.Context, actor auth.Identity) ([]database.Job, error) {
	var jobs []database.Job
	err := s.db.WithContext(ctx).
		Where("posted_by_id = ?", actor.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, database.Classify(err, jobNotFound)
	}
	return jobs, nil
}

func (s *Service) findManaged(ctx context.Context, actor auth.Identity, id uint, verb string) (*database.Job, error) {
	job, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManage(actor, *job) {
		return nil, errcode.Newf(errcode.Forbidden, "User %d is not authorized to %s this job", actor.ID, verb)
	}
	return job, nil
}

// CanManage 判断调用方是否为职位发布者或管理员。
func CanManage(actor auth.Identity, job database.Job) bool {
	return actor.ID == job.PostedByID || actor.IsAdmin()
}

// AcceptingApplications 判断职位此刻是否接受申请；不满足时返回 InvalidState。
func AcceptingApplications(job database.Job, now time.Time) error {
	if !job.IsActive {
		return errcode.New(errcode.InvalidState, "This job is no longer accepting applications")
	}
	if now.After(job.ApplicationDeadline) {
		return errcode.New(errcode.InvalidState, "Application deadline has passed")
	}
	return nil
}

// escapeLike 转义 LIKE 通配符，配合 ESCAPE '\' 使用。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
