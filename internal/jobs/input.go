package jobs

import (
	"errors"
	"strings"
	"time"

	"jobportal/internal/database"
	"jobportal/internal/errcode"
	"jobportal/internal/validation"
)

// DefaultCurrency 是未指定币种时的薪资币种。
const DefaultCurrency = "USD"

// Salary 是薪资区间的唯一内部表示。
type Salary struct {
	Min      float64 `json:"min" validate:"gte=0"`
	Max      float64 `json:"max" validate:"gtefield=Min"`
	Currency string  `json:"currency" validate:"required,max=8"`
}

// SalaryInput 是请求体中嵌套的 salary 对象。
type SalaryInput struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency"`
}

// Input 是创建或修改职位的请求体，nil 字段表示未提供。
// 薪资既可写成嵌套 salary{min,max,currency}，也可写成扁平 salaryMin/salaryMax；
// 两种写法同时出现时以嵌套对象为准。
type Input struct {
	Title               *string      `json:"title"`
	Description         *string      `json:"description"`
	Requirements        []string     `json:"requirements"`
	Responsibilities    []string     `json:"responsibilities"`
	Location            *string      `json:"location"`
	Type                *string      `json:"type"`
	Experience          *string      `json:"experience"`
	Category            *string      `json:"category"`
	Salary              *SalaryInput `json:"salary"`
	SalaryMin           *float64     `json:"salaryMin"`
	SalaryMax           *float64     `json:"salaryMax"`
	SalaryCurrency      string       `json:"salaryCurrency"`
	Skills              []string     `json:"skills"`
	Benefits            []string     `json:"benefits"`
	IsRemote            *bool        `json:"isRemote"`
	IsActive            *bool        `json:"isActive"`
	ApplicationDeadline *string      `json:"applicationDeadline"`
}

// salary 把两种薪资写法归一为 (min, max, currency)，未提供的部分为 nil/空。
func (in Input) salary() (lo, hi *float64, currency string) {
	if in.Salary != nil {
		return in.Salary.Min, in.Salary.Max, strings.TrimSpace(in.Salary.Currency)
	}
	return in.SalaryMin, in.SalaryMax, strings.TrimSpace(in.SalaryCurrency)
}

// fields 是落库前需要校验的职位字段。
type fields struct {
	Title               string    `json:"title" validate:"required,min=5,max=100"`
	Description         string    `json:"description" validate:"required,min=50,max=2000"`
	Location            string    `json:"location" validate:"required,max=255"`
	Type                string    `json:"type" validate:"required,oneof=full-time part-time contract internship freelance"`
	Experience          string    `json:"experience" validate:"required,oneof=entry mid senior executive"`
	Category            string    `json:"category" validate:"required,oneof=technology healthcare finance education marketing sales design engineering operations other"`
	Salary              Salary    `json:"salary"`
	ApplicationDeadline time.Time `json:"applicationDeadline" validate:"required"`
}

// apply 将请求中出现的字段写入 job。create 为 true 时薪资上下限必须同时提供。
func (in Input) apply(job *database.Job, create bool) error {
	var problems []errcode.FieldError

	setString(&job.Title, in.Title)
	setString(&job.Description, in.Description)
	setString(&job.Location, in.Location)
	setString(&job.Type, in.Type)
	setString(&job.Experience, in.Experience)
	setString(&job.Category, in.Category)

	if in.Requirements != nil {
		job.Requirements = trimAll(in.Requirements)
	}
	if in.Responsibilities != nil {
		job.Responsibilities = trimAll(in.Responsibilities)
	}
	if in.Skills != nil {
		job.Skills = trimAll(in.Skills)
	}
	if in.Benefits != nil {
		job.Benefits = trimAll(in.Benefits)
	}
	if in.IsRemote != nil {
		job.IsRemote = *in.IsRemote
	}
	if in.IsActive != nil {
		job.IsActive = *in.IsActive
	}

	lo, hi, currency := in.salary()
	if lo != nil {
		job.SalaryMin = *lo
	} else if create {
		problems = append(problems, errcode.FieldError{Field: "salary.min", Message: "Minimum salary must be a number"})
	}
	if hi != nil {
		job.SalaryMax = *hi
	} else if create {
		problems = append(problems, errcode.FieldError{Field: "salary.max", Message: "Maximum salary must be a number"})
	}
	if currency != "" {
		job.SalaryCurrency = strings.ToUpper(currency)
	}
	if job.SalaryCurrency == "" {
		job.SalaryCurrency = DefaultCurrency
	}

	if in.ApplicationDeadline != nil {
		deadline, err := parseDeadline(*in.ApplicationDeadline)
		if err != nil {
			problems = append(problems, errcode.FieldError{Field: "applicationDeadline", Message: "Invalid deadline date"})
		} else {
			job.ApplicationDeadline = deadline
		}
	}

	err := validateJob(job)
	if len(problems) == 0 {
		return err
	}
	var verr *errcode.Error
	if errors.As(err, &verr) {
		problems = append(problems, verr.Fields...)
	}
	return errcode.Invalid(problems...)
}

func validateJob(job *database.Job) error {
	return validation.Struct(fields{
		Title:       job.Title,
		Description: job.Description,
		Location:    job.Location,
		Type:        job.Type,
		Experience:  job.Experience,
		Category:    job.Category,
		Salary: Salary{
			Min:      job.SalaryMin,
			Max:      job.SalaryMax,
			Currency: job.SalaryCurrency,
		},
		ApplicationDeadline: job.ApplicationDeadline,
	})
}

// parseDeadline 接受 RFC 3339 时间或 YYYY-MM-DD 日期（按当天结束计）。
func parseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(24*time.Hour - time.Nanosecond).UTC(), nil
}

// SalaryOf 返回职位的规范化薪资。
func SalaryOf(job database.Job) Salary {
	return Salary{Min: job.SalaryMin, Max: job.SalaryMax, Currency: job.SalaryCurrency}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
