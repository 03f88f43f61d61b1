package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobportal/internal/applications"
	"jobportal/internal/paging"
)

// ApplicationHandler 暴露申请引擎与雇主面板。
type ApplicationHandler struct {
	apps *applications.Service
}

func NewApplicationHandler(svc *applications.Service) *ApplicationHandler {
	return &ApplicationHandler{apps: svc}
}

// Submit 提交申请。
func (h *ApplicationHandler) Submit(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var in applications.SubmitInput
	if !bindJSON(c, &in) {
		return
	}
	app, err := h.apps.Submit(c.Request.Context(), identity, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// Mine 列出调用方的申请。
func (h *ApplicationHandler) Mine(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	items, err := h.apps.ListMine(c.Request.Context(), identity)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paging.All(items))
}

// ForCompany 列出调用方公司收到的申请，支持 status 与 job 过滤。
func (h *ApplicationHandler) ForCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	jobID, ok := queryUint(c, "job")
	if !ok {
		return
	}
	items, err := h.apps.ListForCompany(c.Request.Context(), identity, applications.CompanyFilter{
		Status: c.Query("status"),
		JobID:  jobID,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paging.All(items))
}

// ForEmployerJobs 列出调用方发布的职位收到的申请。
func (h *ApplicationHandler) ForEmployerJobs(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	items, err := h.apps.ListForEmployerJobs(c.Request.Context(), identity)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paging.All(items))
}

// Get 读取单条申请。
func (h *ApplicationHandler) Get(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	app, err := h.apps.Get(c.Request.Context(), identity, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// UpdateStatus 通用状态修改入口。
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	h.updateStatus(c, applications.SurfaceGeneric)
}

// EmployerUpdateStatus 雇主面板的简化状态入口。
func (h *ApplicationHandler) EmployerUpdateStatus(c *gin.Context) {
	h.updateStatus(c, applications.SurfaceEmployer)
}

func (h *ApplicationHandler) updateStatus(c *gin.Context, surface applications.Surface) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in applications.StatusUpdate
	if !bindJSON(c, &in) {
		return
	}
	app, err := h.apps.UpdateStatus(c.Request.Context(), identity, id, in, surface)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Delete 撤回申请。
func (h *ApplicationHandler) Delete(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.apps.Delete(c.Request.Context(), identity, id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadResume 下载申请人的简历。
func (h *ApplicationHandler) DownloadResume(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	file, err := h.apps.DownloadResume(c.Request.Context(), identity, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	streamObject(c, file.Object, file.Filename)
}

// Dashboard 雇主面板首页。
func (h *ApplicationHandler) Dashboard(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	dash, err := h.apps.Dashboard(c.Request.Context(), identity)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
