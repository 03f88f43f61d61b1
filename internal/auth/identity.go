package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"jobportal/internal/database"
	"jobportal/internal/errcode"
)

// Role 是账号角色。
type Role string

const (
	RoleJobSeeker Role = database.RoleJobSeeker
	RoleEmployer  Role = database.RoleEmployer
	RoleAdmin     Role = database.RoleAdmin
)

// ParseRole 校验角色取值。
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleJobSeeker, RoleEmployer, RoleAdmin:
		return r, nil
	default:
		return "", errcode.Invalid(errcode.FieldError{
			Field:   "role",
			Message: "invalid role, must be one of: jobseeker, employer, admin",
		})
	}
}

// Identity 是一次请求的已认证调用方。CompanyID 为其名下公司（若有）。
type Identity struct {
	ID        uint
	Role      Role
	Email     string
	CompanyID *uint
}

// IsAdmin 判断是否管理员。
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// HasRole 判断角色是否在给定集合中。
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// OwnsCompany 判断调用方是否拥有指定公司。
func (i Identity) OwnsCompany(companyID uint) bool {
	return i.CompanyID != nil && *i.CompanyID == companyID
}

// Resolver 依据用户 ID 从数据库还原 Identity，角色以数据库为准。
type Resolver struct {
	db *gorm.DB
}

// NewResolver 构造 Resolver。
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve 加载用户及其名下公司。用户不存在时返回 NotFound。
func (r *Resolver) Resolve(ctx context.Context, userID uint) (Identity, error) {
	var user database.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return Identity{}, database.Classify(err, "user not found")
	}

	identity := Identity{ID: user.ID, Role: Role(user.Role), Email: user.Email}

	var company database.Company
	err := r.db.WithContext(ctx).Select("id").Where("owner_id = ?", user.ID).First(&company).Error
	switch {
	case err == nil:
		id := company.ID
		identity.CompanyID = &id
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return Identity{}, database.Classify(fmt.Errorf("load company: %w", err), "company not found")
	}

	return identity, nil
}
