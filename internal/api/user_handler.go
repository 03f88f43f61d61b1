package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobportal/internal/database"
	"jobportal/internal/validation"
)

// UserHandler 处理当前用户的个人资料。
type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

type profileRequest struct {
	Name     *string  `json:"name" validate:"omitempty,min=2,max=50"`
	Phone    *string  `json:"phone" validate:"omitempty,max=32"`
	Location *string  `json:"location" validate:"omitempty,max=255"`
	Bio      *string  `json:"bio" validate:"omitempty,max=500"`
	Skills   []string `json:"skills" validate:"omitempty,max=50,dive,max=50"`
}

// Me 返回当前用户资料。
func (h *UserHandler) Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, identity.ID).Error; err != nil {
		RespondError(c, database.Classify(err, "user not found"))
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe 修改当前用户资料，未提供的字段保持不变。
func (h *UserHandler) UpdateMe(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	for _, field := range []*string{req.Name, req.Phone, req.Location, req.Bio} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
	if err := validation.Struct(req); err != nil {
		RespondError(c, err)
		return
	}

	changes := map[string]any{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Phone != nil {
		changes["phone"] = *req.Phone
	}
	if req.Location != nil {
		changes["location"] = *req.Location
	}
	if req.Bio != nil {
		changes["bio"] = *req.Bio
	}
	if req.Skills != nil {
		skills := make([]string, 0, len(req.Skills))
		for _, s := range req.Skills {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}
		changes["skills"] = datatypes.NewJSONSlice(skills)
	}

	ctx := c.Request.Context()
	var user database.User
	if err := h.db.WithContext(ctx).First(&user, identity.ID).Error; err != nil {
		RespondError(c, database.Classify(err, "user not found"))
		return
	}
	if len(changes) > 0 {
		if err := h.db.WithContext(ctx).Model(&user).Updates(changes).Error; err != nil {
			RespondError(c, database.Classify(err, "user not found"))
			return
		}
		if err := h.db.WithContext(ctx).First(&user, identity.ID).Error; err != nil {
			RespondError(c, database.Classify(err, "user not found"))
			return
		}
	}
	c.JSON(http.StatusOK, user)
}
