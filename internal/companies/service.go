// Package companies 管理公司档案：每个雇主至多拥有一家公司。
package companies

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
	"jobportal/internal/paging"
)

const companyNotFound = "Company not found"

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"industry":  "industry",
	"size":      "size",
}

// Service 提供公司目录的业务操作。
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewService 构造公司服务。
func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger, now: time.Now}
}

// Upsert 雇主自助维护公司档案：不存在则创建，存在则原地更新。联系邮箱始终取账号邮箱。
func (s *Service) Upsert(ctx context.Context, actor auth.Identity, in Input) (*database.Company, error) {
	company, err := s.findByOwner(ctx, actor.ID)
	switch {
	case err == nil:
	case errcode.Is(err, errcode.NotFound):
		company = &database.Company{OwnerID: actor.ID, IsActive: true}
	default:
		return nil, err
	}

	in.apply(company)
	company.ContactEmail = actor.Email
	if err := validateCompany(company, false, s.now()); err != nil {
		return nil, err
	}

	if company.ID != 0 {
		return company, s.save(ctx, company)
	}

	err = s.db.WithContext(ctx).Create(company).Error
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, database.Classify(err, companyNotFound)
	}

	// 并发创建时 owner_id 唯一索引拒绝了本次插入，改为更新已存在的那条。
	existing, err := s.findByOwner(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	in.apply(existing)
	existing.ContactEmail = actor.Email
	return existing, s.save(ctx, existing)
}

// CreateStrict 是公开创建入口：调用方已有公司时返回 Conflict。
func (s *Service) CreateStrict(ctx context.Context, actor auth.Identity, in Input) (*database.Company, error) {
	company := &database.Company{OwnerID: actor.ID, IsActive: true}
	in.apply(company)
	if err := validateCompany(company, true, s.now()); err != nil {
		return nil, err
	}

	if _, err := s.findByOwner(ctx, actor.ID); err == nil {
		return nil, errcode.New(errcode.Conflict, "You already have a company profile")
	} else if !errcode.Is(err, errcode.NotFound) {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errcode.New(errcode.Conflict, "You already have a company profile")
		}
		return nil, database.Classify(err, companyNotFound)
	}
	return company, nil
}

// Get 返回公司详情，附带拥有者摘要与在招职位。
func (s *Service) Get(ctx context.Context, id uint) (*database.Company, error) {
	var company database.Company
	err := s.db.WithContext(ctx).
		Preload("Owner", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Preload("Jobs", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("created_at DESC")
		}).
		First(&company, id).Error
	if err != nil {
		return nil, database.Classify(err, companyNotFound)
	}
	return &company, nil
}

// GetByOwner 返回调用方名下的公司及其全部职位；没有公司时返回 NotFound。
func (s *Service) GetByOwner(ctx context.Context, actor auth.Identity) (*database.Company, error) {
	var company database.Company
	err := s.db.WithContext(ctx).
		Preload("Owner", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Preload("Jobs", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Where("owner_id = ?", actor.ID).
		First(&company).Error
	if err != nil {
		return nil, database.Classify(err, "No company profile found")
	}
	return &company, nil
}

// Query 描述公开公司列表的过滤条件。
type Query struct {
	Search   string
	Industry string
	Size     string
	Sort     string
	Page     paging.Params
}

// List 分页列出启用中的公司。
func (s *Service) List(ctx context.Context, q Query) (paging.Result[database.Company], error) {
	base := s.db.WithContext(ctx).Model(&database.Company{}).Where("is_active = ?", true)
	if q.Industry != "" {
		base = base.Where("industry = ?", q.Industry)
	}
	if q.Size != "" {
		base = base.Where("size = ?", q.Size)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		base = base.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return paging.Result[database.Company]{}, database.Classify(err, companyNotFound)
	}

	var companies []database.Company
	err := base.Session(&gorm.Session{}).
		Order(paging.ParseSort(q.Sort, sortColumns, "created_at DESC")).
		Order("id DESC").
		Offset(q.Page.Offset()).
		Limit(q.Page.Size()).
		Find(&companies).Error
	if err != nil {
		return paging.Result[database.Company]{}, database.Classify(err, companyNotFound)
	}
	return paging.NewResult(companies, q.Page, total), nil
}

// Update 修改公司档案，仅拥有者或管理员可操作。
func (s *Service) Update(ctx context.Context, actor auth.Identity, id uint, in Input) (*database.Company, error) {
	company, err := s.findManaged(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}
	in.apply(company)
	if err := validateCompany(company, false, s.now()); err != nil {
		return nil, err
	}
	return company, s.save(ctx, company)
}

// Delete 删除公司，仅拥有者或管理员可操作；名下职位不受影响。
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id uint) error {
	company, err := s.findManaged(ctx, actor, id, "delete")
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&database.Company{}, company.ID).Error; err != nil {
		return database.Classify(err, companyNotFound)
	}
	return nil
}

// SetVerified 修改认证标记，仅管理员可操作。
func (s *Service) SetVerified(ctx context.Context, actor auth.Identity, id uint, verified bool) (*database.Company, error) {
	if !actor.IsAdmin() {
		return nil, errcode.New(errcode.Forbidden, "Only administrators can verify companies")
	}
	var company database.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, database.Classify(err, companyNotFound)
	}
	company.IsVerified = verified
	if err := s.db.WithContext(ctx).Model(&company).Update("is_verified", verified).Error; err != nil {
		return nil, database.Classify(err, companyNotFound)
	}
	return &company, nil
}

func (s *Service) findByOwner(ctx context.Context, ownerID uint) (*database.Company, error) {
	var company database.Company
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&company).Error; err != nil {
		return nil, database.Classify(err, companyNotFound)
	}
	return &company, nil
}

func (s *Service) findManaged(ctx context.Context, actor auth.Identity, id uint, verb string) (*database.Company, error) {
	var company database.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, database.Classify(err, companyNotFound)
	}
	if company.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, errcode.Newf(errcode.Forbidden, "User %d is not authorized to %s this company", actor.ID, verb)
	}
	return &company, nil
}

// save 只写可编辑列，避免覆盖 job_ids 等由其他流程维护的字段。
func (s *Service) save(ctx context.Context, c *database.Company) error {
	err := s.db.WithContext(ctx).Model(c).
		Select("name", "description", "logo", "website", "industry", "size", "founded",
			"location_address", "location_city", "location_state", "location_country", "location_zip_code",
			"contact_email", "contact_phone", "benefits").
		Updates(c).Error
	return database.Classify(err, companyNotFound)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
