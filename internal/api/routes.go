package api

import (
	"github.com/gin-gonic/gin"

	"jobportal/internal/api/middleware"
	"jobportal/internal/auth"
)

// Handlers 汇总各路由组的处理器与认证中间件。
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Resumes      *ResumeHandler
	Jobs         *JobHandler
	Companies    *CompanyHandler
	Applications *ApplicationHandler
	Admin        *AdminHandler
	AI           *AIHandler

	Authenticate gin.HandlerFunc
}

// RegisterRoutes 注册 /v1 下的全部路由。
func RegisterRoutes(router *gin.Engine, h Handlers) {
	employer := middleware.RequireRoles(auth.RoleEmployer, auth.RoleAdmin)
	jobseeker := middleware.RequireRoles(auth.RoleJobSeeker)

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.Refresh)
			authGroup.POST("/logout", h.Authenticate, h.Auth.Logout)
		}

		me := v1.Group("/users/me", h.Authenticate)
		{
			me.GET("", h.Users.Me)
			me.PUT("", h.Users.UpdateMe)
			me.POST("/resume", h.Resumes.Upload)
			me.GET("/resume", h.Resumes.Download)
			me.GET("/resume/link", h.Resumes.Link)
			me.DELETE("/resume", h.Resumes.Delete)
		}

		jobsGroup := v1.Group("/jobs")
		{
			jobsGroup.GET("", h.Jobs.List)
			jobsGroup.GET("/:id", h.Jobs.Get)
			jobsGroup.POST("", h.Authenticate, employer, h.Jobs.Create)
			jobsGroup.PUT("/:id", h.Authenticate, employer, h.Jobs.Update)
			jobsGroup.PUT("/:id/toggle", h.Authenticate, employer, h.Jobs.Toggle)
			jobsGroup.DELETE("/:id", h.Authenticate, employer, h.Jobs.Delete)
		}

		companiesGroup := v1.Group("/companies")
		{
			companiesGroup.GET("", h.Companies.List)
			companiesGroup.GET("/mine", h.Authenticate, employer, h.Companies.Mine)
			companiesGroup.GET("/:id", h.Companies.Get)
			companiesGroup.POST("", h.Authenticate, employer, h.Companies.Create)
			companiesGroup.PUT("/:id", h.Authenticate, employer, h.Companies.Update)
			companiesGroup.DELETE("/:id", h.Authenticate, employer, h.Companies.Delete)
		}

		appsGroup := v1.Group("/applications", h.Authenticate)
		{
			appsGroup.POST("", jobseeker, h.Applications.Submit)
			appsGroup.GET("/me", jobseeker, h.Applications.Mine)
			appsGroup.GET("/company", employer, h.Applications.ForCompany)
			appsGroup.GET("/:id", h.Applications.Get)
			appsGroup.PUT("/:id/status", employer, h.Applications.UpdateStatus)
			appsGroup.DELETE("/:id", jobseeker, h.Applications.Delete)
		}

		employerGroup := v1.Group("/employer", h.Authenticate, middleware.RequireRoles(auth.RoleEmployer))
		{
			employerGroup.GET("/dashboard", h.Applications.Dashboard)
			employerGroup.GET("/company", h.Companies.Mine)
			employerGroup.PUT("/company", h.Companies.Upsert)
			employerGroup.GET("/jobs", h.Jobs.Mine)
			employerGroup.POST("/jobs", h.Jobs.Create)
			employerGroup.PUT("/jobs/:id", h.Jobs.Update)
			employerGroup.PUT("/jobs/:id/toggle", h.Jobs.Toggle)
			employerGroup.DELETE("/jobs/:id", h.Jobs.Delete)
			employerGroup.GET("/applications", h.Applications.ForEmployerJobs)
			employerGroup.GET("/applications/:id/resume", h.Applications.DownloadResume)
			employerGroup.PUT("/applications/:id/status", h.Applications.EmployerUpdateStatus)
		}

		adminGroup := v1.Group("/admin", h.Authenticate, middleware.RequireRoles(auth.RoleAdmin))
		{
			adminGroup.GET("/dashboard", h.Admin.Dashboard)
			adminGroup.GET("/users", h.Admin.Users)
			adminGroup.PUT("/users/:id/role", h.Admin.SetUserRole)
			adminGroup.PUT("/users/:id/verify", h.Admin.SetUserVerified)
			adminGroup.DELETE("/users/:id", h.Admin.DeleteUser)
			adminGroup.GET("/companies", h.Admin.Companies)
			adminGroup.PUT("/companies/:id/verify", h.Admin.VerifyCompany)
			adminGroup.GET("/jobs", h.Admin.Jobs)
			adminGroup.PUT("/jobs/:id/toggle", h.Admin.ToggleJob)
			adminGroup.GET("/applications", h.Admin.Applications)
		}

		v1.POST("/ai/cover-letter", h.Authenticate, jobseeker, h.AI.CoverLetter)
	}
}
