package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"jobportal/internal/database"
	"jobportal/internal/metrics"
	"jobportal/internal/storage"
	"jobportal/internal/tasks"
)

// PrefixDeleter 删除某个前缀下的全部对象。
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// ResumePurgeHandler 消费 resume:purge 任务，删除已注销用户的简历文件。
type ResumePurgeHandler struct {
	db      *gorm.DB
	storage PrefixDeleter
	logger  *slog.Logger
}

// NewResumePurgeHandler 创建任务处理器。
func NewResumePurgeHandler(db *gorm.DB, storage PrefixDeleter, logger *slog.Logger) *ResumePurgeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumePurgeHandler{db: db, storage: storage, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *ResumePurgeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseResumePurgePayload(t)
	if err != nil {
		h.logger.Error("invalid resume purge payload", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("user_id", uint64(payload.UserID)),
	)

	// 用户仍存在说明删除未完成或任务误投递，保留文件。
	var user database.User
	err = h.db.WithContext(ctx).Select("id").First(&user, payload.UserID).Error
	switch {
	case err == nil:
		log.Warn("user still exists, skipping resume purge")
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Error("query user failed", slog.Any("error", err))
		return err
	}

	deleted, err := h.storage.DeletePrefix(ctx, storage.ResumePrefix(payload.UserID))
	metrics.ResumesPurged(deleted)
	if err != nil {
		if isFinalAsynqAttempt(ctx) {
			log.Error("resume purge gave up", slog.Int("deleted", deleted), slog.Any("error", err))
		} else {
			log.Warn("resume purge failed, will retry", slog.Int("deleted", deleted), slog.Any("error", err))
		}
		return err
	}

	log.Info("resume files purged", slog.Int("deleted", deleted))
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
