// Package coverletter 根据简历文本与职位描述生成求职信草稿。
package coverletter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jobportal/internal/auth"
	"jobportal/internal/database"
	"jobportal/internal/errcode"
)

const (
	maxResumeChars = 8000
	maxJobChars    = 4000
	minTextChars   = 50
)

// Generator 是文本生成后端。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// JobFinder 按 ID 读取职位。
type JobFinder interface {
	Find(ctx context.Context, id uint) (*database.Job, error)
}

// Service 生成求职信。gen 为 nil 表示功能未启用。
type Service struct {
	gen    Generator
	jobs   JobFinder
	logger *slog.Logger
}

// NewService 构造求职信服务。
func NewService(gen Generator, jobs JobFinder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, jobs: jobs, logger: logger}
}

// Request 是生成请求。
type Request struct {
	JobID      uint   `json:"jobId"`
	ResumeText string `json:"resumeText"`
}

// Write 为调用方针对指定职位生成求职信。
func (s *Service) Write(ctx context.Context, actor auth.Identity, req Request) (string, error) {
	if s.gen == nil {
		return "", errcode.New(errcode.Unavailable, "AI generation is not enabled")
	}
	if req.JobID == 0 {
		return "", errcode.Invalid(errcode.FieldError{Field: "jobId", Message: "jobId is required"})
	}
	resume := collapse(req.ResumeText)
	if len([]rune(resume)) < minTextChars {
		return "", errcode.Invalid(errcode.FieldError{
			Field:   "resumeText",
			Message: "Could not read meaningful text from your resume",
		})
	}

	job, err := s.jobs.Find(ctx, req.JobID)
	if err != nil {
		return "", err
	}

	text, err := s.gen.Generate(ctx, BuildPrompt(resume, job.Title, job.Description))
	if err != nil {
		s.logger.Error("cover letter generation failed",
			slog.Uint64("user_id", uint64(actor.ID)),
			slog.Uint64("job_id", uint64(job.ID)),
			slog.Any("error", err),
		)
		return "", errcode.Wrap(errcode.Unavailable, "AI generation failed. Please try again.", err)
	}
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minTextChars {
		return "", errcode.New(errcode.Unavailable, "AI generation failed. Please try again.")
	}
	return text, nil
}

// BuildPrompt 拼装提示词：简历与职位描述先折叠空白再按字符截断。
func BuildPrompt(resumeText, jobTitle, jobDescription string) string {
	resume := truncate(collapse(resumeText), maxResumeChars)
	jd := truncate(collapse(jobDescription), maxJobChars)
	return fmt.Sprintf(`You are a helpful assistant that writes concise, tailored cover letters.
Job Title: %s
Job Description: %s
Resume:
%s

Write a professional cover letter (180-300 words) that aligns the candidate's experience with the job. Use a friendly, confident tone, avoid fluff, and incorporate key skills and keywords from the job description. Return only the letter.`,
		jobTitle, jd, resume)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
