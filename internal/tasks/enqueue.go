package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Enqueuer 把后台任务投递到 asynq。
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer 包装一个 asynq 客户端。
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueResumePurge 投递简历清理任务。同一用户已有排队任务时视为成功。
func (e *Enqueuer) EnqueueResumePurge(ctx context.Context, userID uint, correlationID string) error {
	task, err := NewResumePurgeTask(userID, correlationID)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", TypeResumePurge, err)
	}
	return nil
}
