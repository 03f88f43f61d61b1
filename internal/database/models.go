package database

import (
	"time"

	"gorm.io/datatypes"
)

// 角色取值，与 auth.Role 保持一致。
const (
	RoleJobSeeker = "jobseeker"
	RoleEmployer  = "employer"
	RoleAdmin     = "admin"
)

// 申请状态。
const (
	StatusPending     = "pending"
	StatusReviewed    = "reviewed"
	StatusShortlisted = "shortlisted"
	StatusInterviewed = "interviewed"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
)

// User 表示系统中的账号信息。
type User struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	Name         string                      `gorm:"size:100" json:"name"`
	Email        string                      `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string                      `gorm:"size:255" json:"-"`
	Role         string                      `gorm:"size:16;index" json:"role"`
	IsVerified   bool                        `json:"isVerified"`
	Phone        string                      `gorm:"size:32" json:"phone,omitempty"`
	Location     string                      `gorm:"size:255" json:"location,omitempty"`
	Bio          string                      `gorm:"size:1000" json:"bio,omitempty"`
	Skills       datatypes.JSONSlice[string] `json:"skills,omitempty"`
	ResumeKey    string                      `gorm:"size:512" json:"resume,omitempty"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

// CompanyLocation 为公司地址，嵌入 companies 表。
type CompanyLocation struct {
	Address string `gorm:"size:255" json:"address,omitempty"`
	City    string `gorm:"size:100" json:"city,omitempty"`
	State   string `gorm:"size:100" json:"state,omitempty"`
	Country string `gorm:"size:100" json:"country,omitempty"`
	ZipCode string `gorm:"size:20" json:"zipCode,omitempty"`
}

// Company 与雇主账号一一对应，owner_id 唯一。
type Company struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	OwnerID      uint                        `gorm:"uniqueIndex;not null" json:"ownerId"`
	Name         string                      `gorm:"size:100;not null" json:"name"`
	Description  string                      `gorm:"size:1000" json:"description"`
	Logo         string                      `gorm:"size:512" json:"logo,omitempty"`
	Website      string                      `gorm:"size:512" json:"website,omitempty"`
	Industry     string                      `gorm:"size:32;index" json:"industry"`
	Size         string                      `gorm:"size:16;index" json:"size"`
	Founded      *int                        `json:"founded,omitempty"`
	Location     CompanyLocation             `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	ContactEmail string                      `gorm:"size:255" json:"contactEmail"`
	ContactPhone string                      `gorm:"size:32" json:"contactPhone,omitempty"`
	Benefits     datatypes.JSONSlice[string] `json:"benefits,omitempty"`
	IsVerified   bool                        `json:"isVerified"`
	IsActive     bool                        `gorm:"index" json:"isActive"`
	// JobIDs 是冗余缓存，仅追加；以 jobs 表查询结果为准。
	JobIDs    datatypes.JSONSlice[uint] `json:"jobIds"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Jobs  []Job `gorm:"foreignKey:CompanyID" json:"jobs,omitempty"`
}

// Job 表示一个招聘职位。
type Job struct {
	ID                  uint                        `gorm:"primaryKey" json:"id"`
	CompanyID           uint                        `gorm:"index;not null" json:"companyId"`
	PostedByID          uint                        `gorm:"index;not null" json:"postedById"`
	Title               string                      `gorm:"size:100;not null" json:"title"`
	Description         string                      `gorm:"size:2000" json:"description"`
	Requirements        datatypes.JSONSlice[string] `json:"requirements,omitempty"`
	Responsibilities    datatypes.JSONSlice[string] `json:"responsibilities,omitempty"`
	Location            string                      `gorm:"size:255" json:"location"`
	Type                string                      `gorm:"size:16;index" json:"type"`
	Experience          string                      `gorm:"size:16;index" json:"experience"`
	Category            string                      `gorm:"size:32;index" json:"category"`
	SalaryMin           float64                     `json:"salaryMin"`
	SalaryMax           float64                     `json:"salaryMax"`
	SalaryCurrency      string                      `gorm:"size:8" json:"salaryCurrency"`
	Skills              datatypes.JSONSlice[string] `json:"skills,omitempty"`
	Benefits            datatypes.JSONSlice[string] `json:"benefits,omitempty"`
	IsRemote            bool                        `json:"isRemote"`
	IsActive            bool                        `gorm:"index" json:"isActive"`
	ApplicationDeadline time.Time                   `json:"applicationDeadline"`
	Views               int64                       `json:"views"`
	// ApplicationIDs 是冗余缓存，仅追加；计数一律查询 applications 表。
	ApplicationIDs datatypes.JSONSlice[uint] `json:"applicationIds"`
	CreatedAt      time.Time                 `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time                 `json:"updatedAt"`

	Company  *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	PostedBy *User    `gorm:"foreignKey:PostedByID" json:"postedBy,omitempty"`
}

// Question 是申请附带的问答。
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Application 表示求职者对职位的一次申请；(job_id, applicant_id) 唯一。
type Application struct {
	ID             uint                          `gorm:"primaryKey" json:"id"`
	JobID          uint                          `gorm:"not null;uniqueIndex:idx_applications_job_applicant" json:"jobId"`
	ApplicantID    uint                          `gorm:"not null;uniqueIndex:idx_applications_job_applicant;index" json:"applicantId"`
	CompanyID      uint                          `gorm:"not null;index" json:"companyId"`
	CoverLetter    string                        `gorm:"size:2000" json:"coverLetter"`
	Resume         string                        `gorm:"size:512" json:"resume"`
	ExpectedSalary float64                       `json:"expectedSalary"`
	Availability   string                        `gorm:"size:16" json:"availability"`
	Status         string                        `gorm:"size:16;index;not null" json:"status"`
	Notes          string                        `gorm:"size:500" json:"notes,omitempty"`
	Questions      datatypes.JSONSlice[Question] `json:"questions,omitempty"`
	IsViewed       bool                          `json:"isViewed"`
	ViewedAt       *time.Time                    `json:"viewedAt,omitempty"`
	AppliedAt      time.Time                     `gorm:"index" json:"appliedAt"`
	UpdatedAt      time.Time                     `json:"updatedAt"`

	Job       *Job     `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Applicant *User    `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}
