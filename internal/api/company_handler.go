package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobportal/internal/companies"
	"jobportal/internal/paging"
)

// CompanyHandler 暴露公司目录。
type CompanyHandler struct {
	companies *companies.Service
}

func NewCompanyHandler(svc *companies.Service) *CompanyHandler {
	return &CompanyHandler{companies: svc}
}

// List 公开检索在营公司。
func (h *CompanyHandler) List(c *gin.Context) {
	result, err := h.companies.List(c.Request.Context(), companies.Query{
		Search:   c.Query("search"),
		Industry: c.Query("industry"),
		Size:     c.Query("size"),
		Sort:     c.Query("sort"),
		Page:     paging.Parse(c.Query("page"), c.Query("limit")),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get 返回公司及其在招职位。
func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	company, err := h.companies.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// Mine 返回调用方名下的公司。
func (h *CompanyHandler) Mine(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	company, err := h.companies.GetByOwner(c.Request.Context(), identity)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// Create 严格创建：已有公司时返回 409。
func (h *CompanyHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var in companies.Input
	if !bindJSON(c, &in) {
		return
	}
	company, err := h.companies.CreateStrict(c.Request.Context(), identity, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

// Upsert 创建或更新调用方名下的公司。
func (h *CompanyHandler) Upsert(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var in companies.Input
	if !bindJSON(c, &in) {
		return
	}
	company, err := h.companies.Upsert(c.Request.Context(), identity, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// Update 修改公司，所有者或管理员。
func (h *CompanyHandler) Update(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in companies.Input
	if !bindJSON(c, &in) {
		return
	}
	company, err := h.companies.Update(c.Request.Context(), identity, id, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// Delete 删除公司，所有者或管理员。
func (h *CompanyHandler) Delete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.companies.Delete(c.Request.Context(), identity, id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
