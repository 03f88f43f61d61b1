package applications

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"

	"jobportal/internal/database"
	"jobportal/internal/errcode"
	"jobportal/internal/validation"
)

// Amount 接受 JSON 数字或数字字符串；缺失或无法解析时 Set 为 false。
type Amount struct {
	Value float64
	Set   bool
}

// NewAmount 构造已赋值的 Amount。
func NewAmount(v float64) Amount { return Amount{Value: v, Set: true} }

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount{}
	raw := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	if raw == "" || raw == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	a.Value, a.Set = v, true
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, a.Value, 'f', -1, 64), nil
}

// SubmitInput 是提交申请的请求体。
type SubmitInput struct {
	JobID          uint                `json:"jobId"`
	CoverLetter    string              `json:"coverLetter" validate:"required,min=50,max=2000"`
	Resume         string              `json:"resume" validate:"required,max=512"`
	ExpectedSalary Amount              `json:"expectedSalary"`
	Availability   string              `json:"availability" validate:"required,oneof=immediately 2-weeks 1-month 3-months negotiable"`
	Questions      []database.Question `json:"questions"`
}

func (in *SubmitInput) normalize() {
	in.CoverLetter = strings.TrimSpace(in.CoverLetter)
	in.Resume = strings.TrimSpace(in.Resume)
	in.Availability = strings.TrimSpace(in.Availability)
}

func (in SubmitInput) validate() error {
	var problems []errcode.FieldError
	if err := validation.Struct(in); err != nil {
		var verr *errcode.Error
		if !errors.As(err, &verr) {
			return err
		}
		problems = append(problems, verr.Fields...)
	}
	if !in.ExpectedSalary.Set {
		problems = append(problems, errcode.FieldError{Field: "expectedSalary", Message: "Expected salary must be a number"})
	}
	if len(problems) > 0 {
		return errcode.Invalid(problems...)
	}
	return nil
}

// StatusUpdate 是修改申请状态的请求体。Notes 为 nil 表示不修改备注。
type StatusUpdate struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// Surface 区分状态修改的入口，决定允许的目标状态集合。
type Surface int

const (
	// SurfaceGeneric 是通用入口，允许全部状态。
	SurfaceGeneric Surface = iota
	// SurfaceEmployer 是雇主面板的简化入口。
	SurfaceEmployer
)

var allowedStatuses = map[Surface][]string{
	SurfaceGeneric: {
		database.StatusPending,
		database.StatusReviewed,
		database.StatusShortlisted,
		database.StatusInterviewed,
		database.StatusAccepted,
		database.StatusRejected,
	},
	SurfaceEmployer: {
		database.StatusPending,
		database.StatusShortlisted,
		database.StatusAccepted,
		database.StatusRejected,
	},
}

const maxNotesLen = 500

// normalize 去掉状态与备注首尾空白，校验与写入使用同一个值。
func (u *StatusUpdate) normalize() {
	u.Status = strings.TrimSpace(u.Status)
	if u.Notes != nil {
		notes := strings.TrimSpace(*u.Notes)
		u.Notes = &notes
	}
}

func (u StatusUpdate) validate(surface Surface) error {
	allowed := allowedStatuses[surface]
	valid := false
	for _, s := range allowed {
		if u.Status == s {
			valid = true
			break
		}
	}
	var problems []errcode.FieldError
	if !valid {
		problems = append(problems, errcode.FieldError{
			Field:   "status",
			Message: "invalid status, must be one of: " + strings.Join(allowed, ", "),
		})
	}
	if u.Notes != nil && len([]rune(*u.Notes)) > maxNotesLen {
		problems = append(problems, errcode.FieldError{Field: "notes", Message: "Notes cannot be more than 500 characters"})
	}
	if len(problems) > 0 {
		return errcode.Invalid(problems...)
	}
	return nil
}

// IsStatus 判断字符串是否为合法的申请状态。
func IsStatus(s string) bool {
	for _, v := range allowedStatuses[SurfaceGeneric] {
		if v == s {
			return true
		}
	}
	return false
}
