package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobportal/internal/coverletter"
)

// AIHandler 提供求职信生成。
type AIHandler struct {
	letters *coverletter.Service
}

func NewAIHandler(svc *coverletter.Service) *AIHandler {
	return &AIHandler{letters: svc}
}

// CoverLetter 根据简历文本与职位生成求职信。
func (h *AIHandler) CoverLetter(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req coverletter.Request
	if !bindJSON(c, &req) {
		return
	}
	letter, err := h.letters.Write(c.Request.Context(), identity, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coverLetter": letter})
}
