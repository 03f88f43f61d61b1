package companies

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"jobportal/internal/database"
	"jobportal/internal/errcode"
	"jobportal/internal/validation"
)

const minFoundedYear = 1800

// ContactInput 是公司联系方式。
type ContactInput struct {
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Input 是创建或修改公司的请求体，nil 字段表示未提供。
type Input struct {
	Name        *string                   `json:"name"`
	Description *string                   `json:"description"`
	Logo        *string                   `json:"logo"`
	Website     *string                   `json:"website"`
	Industry    *string                   `json:"industry"`
	Size        *string                   `json:"size"`
	Founded     *int                      `json:"founded"`
	Location    *database.CompanyLocation `json:"location"`
	Contact     *ContactInput             `json:"contact"`
	Benefits    []string                  `json:"benefits"`
}

// profile 是两条入口共用的基本约束。
type profile struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"required,max=1000"`
	Industry     string `json:"industry" validate:"required,oneof=technology healthcare finance education marketing sales design engineering operations retail manufacturing consulting non-profit government other"`
	Size         string `json:"size" validate:"required,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	Website      string `json:"website" validate:"omitempty,url"`
	ContactEmail string `json:"contactEmail" validate:"required,email"`
}

// strictProfile 用于 POST /companies：名称与简介有最小长度。
type strictProfile struct {
	Name        string `json:"name" validate:"omitempty,min=2"`
	Description string `json:"description" validate:"omitempty,min=20"`
}

func (in Input) apply(c *database.Company) {
	setString(&c.Name, in.Name)
	setString(&c.Description, in.Description)
	setString(&c.Logo, in.Logo)
	setString(&c.Website, in.Website)
	setString(&c.Industry, in.Industry)
	setString(&c.Size, in.Size)
	if in.Founded != nil {
		founded := *in.Founded
		c.Founded = &founded
	}
	if in.Location != nil {
		c.Location = trimLocation(*in.Location)
	}
	if in.Contact != nil {
		setString(&c.ContactEmail, in.Contact.Email)
		setString(&c.ContactPhone, in.Contact.Phone)
	}
	if in.Benefits != nil {
		out := make([]string, 0, len(in.Benefits))
		for _, b := range in.Benefits {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
		c.Benefits = out
	}
}

// validateCompany 校验公司字段；strict 为 true 时附加公开创建入口的长度约束。
func validateCompany(c *database.Company, strict bool, now time.Time) error {
	var problems []errcode.FieldError

	collect := func(err error) error {
		if err == nil {
			return nil
		}
		var verr *errcode.Error
		if !errors.As(err, &verr) || verr.Code != errcode.Validation {
			return err
		}
		problems = append(problems, verr.Fields...)
		return nil
	}

	if err := collect(validation.Struct(profile{
		Name:         c.Name,
		Description:  c.Description,
		Industry:     c.Industry,
		Size:         c.Size,
		Website:      c.Website,
		ContactEmail: c.ContactEmail,
	})); err != nil {
		return err
	}
	if strict {
		if err := collect(validation.Struct(strictProfile{Name: c.Name, Description: c.Description})); err != nil {
			return err
		}
	}
	if c.Founded != nil && (*c.Founded < minFoundedYear || *c.Founded > now.Year()) {
		problems = append(problems, errcode.FieldError{
			Field:   "founded",
			Message: fmt.Sprintf("founded must be between %d and %d", minFoundedYear, now.Year()),
		})
	}

	if len(problems) > 0 {
		return errcode.Invalid(problems...)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func trimLocation(l database.CompanyLocation) database.CompanyLocation {
	return database.CompanyLocation{
		Address: strings.TrimSpace(l.Address),
		City:    strings.TrimSpace(l.City),
		State:   strings.TrimSpace(l.State),
		Country: strings.TrimSpace(l.Country),
		ZipCode: strings.TrimSpace(l.ZipCode),
	}
}
