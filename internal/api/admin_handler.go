package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobportal/internal/admin"
	"jobportal/internal/api/middleware"
	"jobportal/internal/paging"
)

// AdminHandler 暴露管理后台接口。
type AdminHandler struct {
	admin *admin.Service
}

func NewAdminHandler(svc *admin.Service) *AdminHandler {
	return &AdminHandler{admin: svc}
}

type roleRequest struct {
	Role string `json:"role"`
}

type verifyRequest struct {
	IsVerified *bool `json:"isVerified"`
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	dash, err := h.admin.Dashboard(c.Request.Context(), identity)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *AdminHandler) Users(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	result, err := h.admin.ListUsers(c.Request.Context(), identity, paging.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) Companies(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	result, err := h.admin.ListCompanies(c.Request.Context(), identity)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) Jobs(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	result, err := h.admin.ListJobs(c.Request.Context(), identity, paging.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) Applications(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	result, err := h.admin.ListApplications(c.Request.Context(), identity, paging.Parse(c.Query("page"), c.Query("limit")))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) SetUserRole(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.admin.SetUserRole(c.Request.Context(), identity, id, req.Role)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) SetUserVerified(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IsVerified == nil {
		BadRequest(c, "isVerified is required")
		return
	}
	user, err := h.admin.SetUserVerified(c.Request.Context(), identity, id, *req.IsVerified)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// VerifyCompany 将公司标记为已认证；请求体可显式传 isVerified=false 取消认证。
func (h *AdminHandler) VerifyCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	verified := true
	var req verifyRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
		if req.IsVerified != nil {
			verified = *req.IsVerified
		}
	}
	company, err := h.admin.SetCompanyVerified(c.Request.Context(), identity, id, verified)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *AdminHandler) ToggleJob(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.admin.ToggleJobActive(c.Request.Context(), identity, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), identity, id, middleware.GetCorrelationID(c)); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
