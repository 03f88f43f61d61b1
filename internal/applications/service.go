// Package applications 实现申请引擎：提交、读取、状态流转、撤回与简历下载。
package applications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"gorm.io/gorm"

	"jobportal/internal/auth"
	"jobportal/internal/database"
	"jobportal/internal/errcode"
	"jobportal/internal/jobs"
	"jobportal/internal/metrics"
	"jobportal/internal/storage"
)

const (
	applicationNotFound = "application not found"
	alreadyApplied      = "You have already applied for this job"
)

// ResumeFiles 是简历对象的只读访问。
type ResumeFiles interface {
	OpenObject(ctx context.Context, key string) (*storage.Object, error)
}

// Service 提供申请相关的业务操作。
type Service struct {
	db      *gorm.DB
	resumes ResumeFiles
	logger  *slog.Logger
	now     func() time.Time
}

// NewService 构造申请服务。resumes 为 nil 时简历下载不可用。
func NewService(db *gorm.DB, resumes ResumeFiles, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, resumes: resumes, logger: logger, now: time.Now}
}

// Submit 提交申请。检查顺序：职位存在、职位开放、未过截止时间、未重复申请、字段合法。
func (s *Service) Submit(ctx context.Context, actor auth.Identity, in SubmitInput) (*database.Application, error) {
	in.normalize()

	var job database.Job
	if err := s.db.WithContext(ctx).First(&job, in.JobID).Error; err != nil {
		return nil, database.Classify(err, "Job not found")
	}

	now := s.now()
	if err := jobs.AcceptingApplications(job, now); err != nil {
		return nil, err
	}

	var existing int64
	err := s.db.WithContext(ctx).Model(&database.Application{}).
		Where("job_id = ? AND applicant_id = ?", job.ID, actor.ID).
		Count(&existing).Error
	if err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}
	if existing > 0 {
		return nil, errcode.New(errcode.Conflict, alreadyApplied)
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	app := database.Application{
		JobID:          job.ID,
		ApplicantID:    actor.ID,
		CompanyID:      job.CompanyID,
		CoverLetter:    in.CoverLetter,
		Resume:         in.Resume,
		ExpectedSalary: in.ExpectedSalary.Value,
		Availability:   in.Availability,
		Status:         database.StatusPending,
		Questions:      in.Questions,
		AppliedAt:      now,
	}
	// 并发重复提交由唯一索引兜底。
	if err := s.db.WithContext(ctx).Create(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errcode.Wrap(errcode.Conflict, alreadyApplied, err)
		}
		return nil, database.Classify(err, applicationNotFound)
	}
	metrics.ApplicationSubmitted()

	job.ApplicationIDs = append(job.ApplicationIDs, app.ID)
	if err := s.db.WithContext(ctx).Model(&job).UpdateColumn("application_ids", job.ApplicationIDs).Error; err != nil {
		s.logger.Warn("append application id to job failed",
			slog.Uint64("job_id", uint64(job.ID)),
			slog.Uint64("application_id", uint64(app.ID)),
			slog.Any("error", err),
		)
	}

	return &app, nil
}

// Get 读取单条申请。申请人、公司所有者与管理员可见；公司所有者首次读取时标记为已查看。
func (s *Service) Get(ctx context.Context, actor auth.Identity, id uint) (*database.Application, error) {
	var app database.Application
	err := s.db.WithContext(ctx).
		Preload("Job", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "company_id", "posted_by_id", "description", "location", "type")
		}).
		Preload("Applicant", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "phone", "location", "bio", "skills")
		}).
		Preload("Company", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "logo")
		}).
		First(&app, id).Error
	if err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}

	owner, err := s.ownsCompanyOf(ctx, actor, app)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != actor.ID && !owner && !actor.IsAdmin() {
		return nil, errcode.Newf(errcode.Forbidden, "User %d is not authorized to view this application", actor.ID)
	}

	if owner && !app.IsViewed {
		s.markViewed(ctx, &app)
	}
	return &app, nil
}

// markViewed 只在 is_viewed 仍为 false 时写入，失败不影响读取。
func (s *Service) markViewed(ctx context.Context, app *database.Application) {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&database.Application{}).
		Where("id = ? AND is_viewed = ?", app.ID, false).
		UpdateColumns(map[string]any{"is_viewed": true, "viewed_at": now})
	if res.Error != nil {
		s.logger.Warn("mark application viewed failed",
			slog.Uint64("application_id", uint64(app.ID)),
			slog.Any("error", res.Error),
		)
		return
	}
	if res.RowsAffected > 0 {
		app.IsViewed = true
		app.ViewedAt = &now
	}
}

// ListMine 列出调用方自己的申请，最新在前。
func (s *Service) ListMine(ctx context.Context, actor auth.Identity) ([]database.Application, error) {
	var apps []database.Application
	err := s.db.WithContext(ctx).
		Where("applicant_id = ?", actor.ID).
		Preload("Job", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "company_id", "location", "type", "experience")
		}).
		Preload("Company", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "logo")
		}).
		Order("applied_at DESC").Order("id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}
	return apps, nil
}

// CompanyFilter 是公司申请列表的可选过滤条件。
type CompanyFilter struct {
	Status string
	JobID  uint
}

// ListForCompany 列出调用方名下公司收到的申请；调用方没有公司时返回空列表。
func (s *Service) ListForCompany(ctx context.Context, actor auth.Identity, filter CompanyFilter) ([]database.Application, error) {
	if filter.Status != "" && !IsStatus(filter.Status) {
		return nil, errcode.Invalid(errcode.FieldError{Field: "status", Message: "invalid status filter"})
	}
	if actor.CompanyID == nil {
		return []database.Application{}, nil
	}

	q := s.db.WithContext(ctx).Where("company_id = ?", *actor.CompanyID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.JobID != 0 {
		q = q.Where("job_id = ?", filter.JobID)
	}

	var apps []database.Application
	err := q.
		Preload("Job", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "location", "type")
		}).
		Preload("Applicant", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "phone", "location", "skills")
		}).
		Order("applied_at DESC").Order("id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}
	return apps, nil
}

// ListForEmployerJobs 列出调用方发布的所有职位收到的申请。
func (s *Service) ListForEmployerJobs(ctx context.Context, actor auth.Identity) ([]database.Application, error) {
	var apps []database.Application
	err := s.db.WithContext(ctx).
		Where("job_id IN (?)", s.db.Model(&database.Job{}).Select("id").Where("posted_by_id = ?", actor.ID)).
		Preload("Job", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "location", "type", "salary_min", "salary_max", "salary_currency")
		}).
		Preload("Applicant", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "phone")
		}).
		Order("applied_at DESC").Order("id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}
	return apps, nil
}

// UpdateStatus 修改申请状态与备注。仅申请所属公司的所有者或管理员可操作。
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Identity, id uint, in StatusUpdate, surface Surface) (*database.Application, error) {
	in.normalize()
	if err := in.validate(surface); err != nil {
		return nil, err
	}

	var app database.Application
	if err := s.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}
	owner, err := s.ownsCompanyOf(ctx, actor, app)
	if err != nil {
		return nil, err
	}
	if !owner && !actor.IsAdmin() {
		return nil, errcode.Newf(errcode.Forbidden, "User %d is not authorized to update this application", actor.ID)
	}

	changes := map[string]any{"status": in.Status}
	if in.Notes != nil {
		changes["notes"] = *in.Notes
	}
	if err := s.db.WithContext(ctx).Model(&app).Updates(changes).Error; err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}
	metrics.ApplicationStatusChanged(in.Status)

	var updated database.Application
	err = s.db.WithContext(ctx).
		Preload("Job", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "location", "type", "salary_min", "salary_max", "salary_currency")
		}).
		Preload("Applicant", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "phone")
		}).
		First(&updated, app.ID).Error
	if err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}
	return &updated, nil
}

// Delete 撤回申请：仅申请人本人，且申请仍处于 pending。
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id uint) error {
	var app database.Application
	if err := s.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return database.Classify(err, applicationNotFound)
	}
	if app.ApplicantID != actor.ID {
		return errcode.Newf(errcode.Forbidden, "User %d is not authorized to delete this application", actor.ID)
	}
	if app.Status != database.StatusPending {
		return errcode.New(errcode.InvalidState, "Cannot delete application that has been processed")
	}
	if err := s.db.WithContext(ctx).Delete(&database.Application{}, app.ID).Error; err != nil {
		return database.Classify(err, applicationNotFound)
	}
	return nil
}

// ResumeFile 是待下载的简历对象及建议的文件名。
type ResumeFile struct {
	*storage.Object
	Filename string
}

// DownloadResume 打开申请人的简历，调用方须拥有该申请对应的职位或公司。
// 优先使用申请人资料中的简历，缺失时回落到申请时提交的引用。
func (s *Service) DownloadResume(ctx context.Context, actor auth.Identity, id uint) (*ResumeFile, error) {
	var app database.Application
	err := s.db.WithContext(ctx).
		Preload("Applicant", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "resume_key")
		}).
		First(&app, id).Error
	if err != nil {
		return nil, database.Classify(err, applicationNotFound)
	}

	owner, err := s.ownsCompanyOf(ctx, actor, app)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, errcode.Newf(errcode.Forbidden, "User %d is not authorized to download this resume", actor.ID)
	}

	key := app.Resume
	if app.Applicant != nil && app.Applicant.ResumeKey != "" {
		key = app.Applicant.ResumeKey
	}
	if key == "" {
		return nil, errcode.New(errcode.NotFound, "No resume found for this applicant")
	}
	if s.resumes == nil {
		return nil, errcode.New(errcode.Unavailable, "resume storage is not configured")
	}

	obj, err := s.resumes.OpenObject(ctx, key)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			return nil, errcode.Wrap(errcode.NotFound, "No resume found for this applicant", err)
		}
		return nil, errcode.Wrap(errcode.Unavailable, "resume storage unavailable", err)
	}
	return &ResumeFile{Object: obj, Filename: resumeFilename(app, key)}, nil
}

func resumeFilename(app database.Application, key string) string {
	ext := path.Ext(key)
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("application-%d-resume%s", app.ID, ext)
}

// ownsCompanyOf 判断调用方是否拥有申请所属公司，或是申请对应职位的发布者。
func (s *Service) ownsCompanyOf(ctx context.Context, actor auth.Identity, app database.Application) (bool, error) {
	if actor.OwnsCompany(app.CompanyID) {
		return true, nil
	}
	if app.Job != nil && app.Job.ID == app.JobID && app.Job.PostedByID != 0 {
		return app.Job.PostedByID == actor.ID, nil
	}
	var job database.Job
	err := s.db.WithContext(ctx).Select("id", "posted_by_id").First(&job, app.JobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, database.Classify(err, "job not found")
	}
	return job.PostedByID == actor.ID, nil
}
