package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobportal/internal/api/middleware"
	"jobportal/internal/auth"
	"jobportal/internal/database"
	"jobportal/internal/database/databasetest"
	"jobportal/internal/storage"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.uploaded[objectName] = b
	return nil
}

func (s *fakeStorage) OpenObject(_ context.Context, objectKey string) (*storage.Object, error) {
	b, ok := s.uploaded[objectKey]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{
		Key:         objectKey,
		Size:        int64(len(b)),
		ContentType: "application/pdf",
		Body:        io.NopCloser(bytes.NewReader(b)),
	}, nil
}

func (s *fakeStorage) PresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration, _ string) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

type stubScanner struct{ err error }

func (s stubScanner) Scan(_ context.Context, r io.Reader) error {
	_, _ = io.Copy(io.Discard, r)
	return s.err
}

func seedSeeker(t *testing.T, db *gorm.DB, resumeKey string) auth.Identity {
	t.Helper()
	user := database.User{Name: "seeker", Email: "seeker@example.com", Role: database.RoleJobSeeker, ResumeKey: resumeKey}
	require.NoError(t, db.Create(&user).Error)
	return auth.Identity{ID: user.ID, Role: auth.RoleJobSeeker, Email: user.Email}
}

func newMultipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("resume", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newUploadContext(t *testing.T, identity auth.Identity, filename string, content []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body, contentType := newMultipartUpload(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/v1/users/me/resume", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	middleware.SetIdentity(c, identity)
	return c, w
}

func newTestResumeHandler(db *gorm.DB, store ResumeStore, scanner VirusScanner) *ResumeHandler {
	return NewResumeHandler(db, store, scanner, 5<<20, []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})
}

func TestUploadResume_RejectsUnsupportedExtension(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	store := newFakeStorage()
	identity := seedSeeker(t, db, "")
	h := newTestResumeHandler(db, store, nil)

	c, w := newUploadContext(t, identity, "cv.txt", []byte("plain text"))
	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Only PDF, DOC, and DOCX files are allowed")
	assert.Empty(t, store.uploaded)
}

func TestUploadResume_RejectsDisguisedContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	store := newFakeStorage()
	identity := seedSeeker(t, db, "")
	h := newTestResumeHandler(db, store, nil)

	c, w := newUploadContext(t, identity, "cv.pdf", []byte("\x89PNG\r\n\x1a\n0000"))
	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.uploaded)
}

func TestUploadResume_RejectsOversizedFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	store := newFakeStorage()
	identity := seedSeeker(t, db, "")
	h := NewResumeHandler(db, store, nil, 16, []string{"application/pdf"})

	c, w := newUploadContext(t, identity, "cv.pdf", pdfBytes)
	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.uploaded)
}

func TestUploadResume_StoresAndReplacesPrevious(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	store := newFakeStorage()
	previous := "resumes/1/old.pdf"
	identity := seedSeeker(t, db, previous)
	require.Equal(t, uint(1), identity.ID)
	store.uploaded[previous] = pdfBytes
	h := newTestResumeHandler(db, store, stubScanner{})

	c, w := newUploadContext(t, identity, "CV.PDF", pdfBytes)
	h.Upload(c)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Resume      string `json:"resume"`
		ContentType string `json:"contentType"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, storage.IsResumeKeyOf(identity.ID, resp.Resume))
	assert.True(t, strings.HasSuffix(resp.Resume, ".pdf"))
	assert.Equal(t, "application/pdf", resp.ContentType)
	assert.Contains(t, store.uploaded, resp.Resume)
	assert.Equal(t, []string{previous}, store.deleted)

	var user database.User
	require.NoError(t, db.First(&user, identity.ID).Error)
	assert.Equal(t, resp.Resume, user.ResumeKey)
}

func TestUploadResume_KeepsForeignPreviousKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	store := newFakeStorage()
	identity := seedSeeker(t, db, "resumes/999/foreign.pdf")
	h := newTestResumeHandler(db, store, nil)

	c, w := newUploadContext(t, identity, "cv.pdf", pdfBytes)
	h.Upload(c)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, store.deleted)
}

func TestUploadResume_InfectedFileRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	store := newFakeStorage()
	identity := seedSeeker(t, db, "")
	h := newTestResumeHandler(db, store, stubScanner{err: errInfected})

	c, w := newUploadContext(t, identity, "cv.pdf", pdfBytes)
	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), errInfected.Error())
	assert.Empty(t, store.uploaded)
}

func TestResumeDownloadAndDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	store := newFakeStorage()
	key := "resumes/1/current.pdf"
	identity := seedSeeker(t, db, key)
	store.uploaded[key] = pdfBytes
	h := newTestResumeHandler(db, store, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/users/me/resume", nil)
	middleware.SetIdentity(c, identity)
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdfBytes, w.Body.Bytes())
	assert.Equal(t, `attachment; filename=resume.pdf`, w.Header().Get("Content-Disposition"))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/v1/users/me/resume", nil)
	middleware.SetIdentity(c, identity)
	h.Delete(c)

	// c.Status 不会立即写出，读取 Writer 的状态码。
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, []string{key}, store.deleted)

	var user database.User
	require.NoError(t, db.First(&user, identity.ID).Error)
	assert.Empty(t, user.ResumeKey)
}

func TestResumeLink_NoResume(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := databasetest.New(t)
	identity := seedSeeker(t, db, "")
	h := newTestResumeHandler(db, newFakeStorage(), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/users/me/resume/link", nil)
	middleware.SetIdentity(c, identity)
	h.Link(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No resume uploaded")
}
