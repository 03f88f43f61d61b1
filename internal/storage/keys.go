package storage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxObjectKeyLen = 200

// ResumePrefix 返回某个用户全部简历对象的前缀。
func ResumePrefix(userID uint) string {
	return fmt.Sprintf("resumes/%d/", userID)
}

// NewResumeKey 生成 resumes/<userID>/<uuid><ext> 形式的对象键。
func NewResumeKey(userID uint, ext string) string {
	return ResumePrefix(userID) + uuid.NewString() + strings.ToLower(ext)
}

// IsResumeKeyOf 校验对象键属于该用户且不含路径穿越。
func IsResumeKeyOf(userID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > maxObjectKeyLen {
		return false
	}
	if !strings.HasPrefix(key, ResumePrefix(userID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	return true
}
