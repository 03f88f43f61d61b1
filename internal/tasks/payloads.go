package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumePurge = "resume:purge"
)

// ResumePurgePayload 描述需要清理简历文件的用户。
type ResumePurgePayload struct {
	UserID        uint   `json:"user_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewResumePurgeTask 构造简历清理任务。同一用户的重复任务在保留期内去重。
func NewResumePurgeTask(userID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumePurgePayload{
		UserID:        userID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumePurge, payload,
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
		asynq.TaskID(fmt.Sprintf("%s:%d", TypeResumePurge, userID)),
		asynq.Retention(24*time.Hour),
	), nil
}

// ParseResumePurgePayload 解析任务负载。
func ParseResumePurgePayload(task *asynq.Task) (ResumePurgePayload, error) {
	var payload ResumePurgePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ResumePurgePayload{}, fmt.Errorf("decode %s payload: %w", TypeResumePurge, err)
	}
	if payload.UserID == 0 {
		return ResumePurgePayload{}, fmt.Errorf("%s payload missing user_id", TypeResumePurge)
	}
	return payload, nil
}
