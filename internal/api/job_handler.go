package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jobportal/internal/jobs"
	"jobportal/internal/paging"
)

// JobHandler 暴露职位目录。
type JobHandler struct {
	jobs *jobs.Service
}

func NewJobHandler(svc *jobs.Service) *JobHandler {
	return &JobHandler{jobs: svc}
}

// List 公开检索在招职位。
func (h *JobHandler) List(c *gin.Context) {
	companyID, ok := queryUint(c, "company")
	if !ok {
		return
	}
	q := jobs.Query{
		Search:     c.Query("search"),
		Type:       c.Query("type"),
		Experience: c.Query("experience"),
		Category:   c.Query("category"),
		Location:   c.Query("location"),
		IsRemote:   queryBool(c, "isRemote"),
		SalaryMin:  queryFloat(c, "salaryMin"),
		SalaryMax:  queryFloat(c, "salaryMax"),
		CompanyID:  companyID,
		ActiveOnly: true,
		Sort:       c.Query("sort"),
		Page:       paging.Parse(c.Query("page"), c.Query("limit")),
	}
	result, err := h.jobs.Search(c.Request.Context(), q)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get 返回单个职位并增加浏览量。
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Create 以调用方公司发布职位。
func (h *JobHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var in jobs.Input
	if !bindJSON(c, &in) {
		return
	}
	job, err := h.jobs.Create(c.Request.Context(), identity, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// Update 修改职位。
func (h *JobHandler) Update(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in jobs.Input
	if !bindJSON(c, &in) {
		return
	}
	job, err := h.jobs.Update(c.Request.Context(), identity, id, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Toggle 切换上下架。
func (h *JobHandler) Toggle(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	job, err := h.jobs.ToggleActive(c.Request.Context(), identity, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Delete 删除职位。
func (h *JobHandler) Delete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.jobs.Delete(c.Request.Context(), identity, id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Mine 列出调用方发布的职位。
func (h *JobHandler) Mine(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	items, err := h.jobs.ListByOwner(c.Request.Context(), identity)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paging.All(items))
}

func queryBool(c *gin.Context, name string) *bool {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

func queryFloat(c *gin.Context, name string) *float64 {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
