package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobportal/internal/database"
	"jobportal/internal/errcode"
	"jobportal/internal/metrics"
	"jobportal/internal/storage"
)

const resumeLinkTTL = 5 * time.Minute

var resumeExtensions = map[string]bool{".pdf": true, ".doc": true, ".docx": true}

// ResumeStore 是简历文件所需的对象存储操作。
type ResumeStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	OpenObject(ctx context.Context, objectKey string) (*storage.Object, error)
	PresignedDownloadURL(ctx context.Context, objectKey string, ttl time.Duration, filename string) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// ResumeHandler 管理当前用户的简历文件。
type ResumeHandler struct {
	db           *gorm.DB
	storage      ResumeStore
	scanner      VirusScanner
	maxBytes     int64
	allowedTypes map[string]bool
}

// NewResumeHandler 构造简历文件处理器。scanner 为 nil 时跳过病毒扫描。
func NewResumeHandler(db *gorm.DB, store ResumeStore, scanner VirusScanner, maxBytes int64, allowedTypes []string) *ResumeHandler {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &ResumeHandler{
		db:           db,
		storage:      store,
		scanner:      scanner,
		maxBytes:     maxBytes,
		allowedTypes: allowed,
	}
}

// Upload 接收 multipart 字段 resume，校验类型与大小、扫描后写入对象存储并替换旧文件。
func (h *ResumeHandler) Upload(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	logger := loggerFor(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	file, err := c.FormFile("resume")
	if err != nil {
		metrics.ResumeUploaded("rejected")
		RespondError(c, errcode.Invalid(errcode.FieldError{Field: "resume", Message: "Please upload a file"}))
		return
	}
	if file.Size > h.maxBytes {
		metrics.ResumeUploaded("rejected")
		RespondError(c, errcode.Invalid(errcode.FieldError{
			Field:   "resume",
			Message: fmt.Sprintf("File size cannot exceed %dMB", h.maxBytes>>20),
		}))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, err := h.detectType(file, ext)
	if err != nil {
		metrics.ResumeUploaded("rejected")
		RespondError(c, err)
		return
	}

	if h.scanner != nil {
		if err := h.scan(ctx, file); err != nil {
			if errors.Is(err, errInfected) {
				metrics.ResumeUploaded("infected")
				logger.Warn("infected resume rejected", slog.Uint64("user_id", uint64(identity.ID)))
				RespondError(c, errcode.Invalid(errcode.FieldError{Field: "resume", Message: errInfected.Error()}))
				return
			}
			metrics.ResumeUploaded("failed")
			RespondError(c, errcode.Wrap(errcode.Unavailable, "failed to scan file", err))
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		metrics.ResumeUploaded("failed")
		Internal(c, "failed to open file")
		return
	}
	defer reader.Close()

	key := storage.NewResumeKey(identity.ID, ext)
	if err := h.storage.UploadFile(ctx, key, reader, file.Size, contentType); err != nil {
		metrics.ResumeUploaded("failed")
		RespondError(c, errcode.Wrap(errcode.Unavailable, "failed to upload file", err))
		return
	}

	var user database.User
	if err := h.db.WithContext(ctx).First(&user, identity.ID).Error; err != nil {
		_ = h.storage.DeleteObject(ctx, key)
		metrics.ResumeUploaded("failed")
		RespondError(c, database.Classify(err, "user not found"))
		return
	}
	previous := user.ResumeKey
	if err := h.db.WithContext(ctx).Model(&user).Update("resume_key", key).Error; err != nil {
		_ = h.storage.DeleteObject(ctx, key)
		metrics.ResumeUploaded("failed")
		RespondError(c, database.Classify(err, "user not found"))
		return
	}

	if previous != "" && previous != key && storage.IsResumeKeyOf(identity.ID, previous) {
		if err := h.storage.DeleteObject(ctx, previous); err != nil {
			logger.Warn("delete previous resume failed", slog.String("object_key", previous), slog.Any("error", err))
		}
	}

	metrics.ResumeUploaded("stored")
	c.JSON(http.StatusCreated, gin.H{
		"resume":      key,
		"size":        file.Size,
		"contentType": contentType,
	})
}

func (h *ResumeHandler) detectType(file *multipart.FileHeader, ext string) (string, error) {
	invalid := errcode.Invalid(errcode.FieldError{Field: "resume", Message: "Only PDF, DOC, and DOCX files are allowed"})
	if !resumeExtensions[ext] {
		return "", invalid
	}

	reader, err := file.Open()
	if err != nil {
		return "", errcode.Wrap(errcode.SystemError, "failed to open file", err)
	}
	defer reader.Close()

	detected, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", errcode.Wrap(errcode.SystemError, "failed to read file", err)
	}
	for m := detected; m != nil; m = m.Parent() {
		if h.allowedTypes[m.String()] {
			return m.String(), nil
		}
	}
	// 部分 DOCX 的识别只能到 zip 容器层。
	if ext == ".docx" && detected.Is("application/zip") {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil
	}
	return "", invalid
}

func (h *ResumeHandler) scan(ctx context.Context, file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return err
	}
	defer reader.Close()
	return h.scanner.Scan(ctx, reader)
}

// Download 以附件形式返回当前用户的简历。
func (h *ResumeHandler) Download(c *gin.Context) {
	user, ok := h.currentUserWithResume(c)
	if !ok {
		return
	}
	obj, err := h.storage.OpenObject(c.Request.Context(), user.ResumeKey)
	if err != nil {
		RespondError(c, objectError(err))
		return
	}
	streamObject(c, obj, "resume"+filepath.Ext(user.ResumeKey))
}

// Link 返回当前用户简历的短期预签名链接。
func (h *ResumeHandler) Link(c *gin.Context) {
	user, ok := h.currentUserWithResume(c)
	if !ok {
		return
	}
	url, err := h.storage.PresignedDownloadURL(c.Request.Context(), user.ResumeKey, resumeLinkTTL, "resume"+filepath.Ext(user.ResumeKey))
	if err != nil {
		RespondError(c, errcode.Wrap(errcode.Unavailable, "failed to generate download link", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(resumeLinkTTL.Seconds())})
}

// Delete 删除当前用户的简历文件并清空引用。
func (h *ResumeHandler) Delete(c *gin.Context) {
	user, ok := h.currentUserWithResume(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.storage.DeleteObject(ctx, user.ResumeKey); err != nil {
		RespondError(c, errcode.Wrap(errcode.Unavailable, "failed to delete file", err))
		return
	}
	if err := h.db.WithContext(ctx).Model(user).Update("resume_key", "").Error; err != nil {
		RespondError(c, database.Classify(err, "user not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ResumeHandler) currentUserWithResume(c *gin.Context) (*database.User, bool) {
	identity, ok := currentIdentity(c)
	if !ok {
		return nil, false
	}
	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, identity.ID).Error; err != nil {
		RespondError(c, database.Classify(err, "user not found"))
		return nil, false
	}
	if user.ResumeKey == "" {
		RespondError(c, errcode.New(errcode.NotFound, "No resume uploaded"))
		return nil, false
	}
	return &user, true
}

func objectError(err error) error {
	if storage.IsNoSuchKey(err) {
		return errcode.Wrap(errcode.NotFound, "Resume file not found", err)
	}
	return errcode.Wrap(errcode.Unavailable, "resume storage unavailable", err)
}

// streamObject 把对象作为附件写回客户端并关闭对象。
func streamObject(c *gin.Context, obj *storage.Object, filename string) {
	defer obj.Body.Close()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": filename}),
	})
}
