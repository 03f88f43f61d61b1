package tasks

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumePurgeTask(t *testing.T) {
	task, err := NewResumePurgeTask(12, "cid-1")
	require.NoError(t, err)
	assert.Equal(t, TypeResumePurge, task.Type())

	payload, err := ParseResumePurgePayload(task)
	require.NoError(t, err)
	assert.Equal(t, uint(12), payload.UserID)
	assert.Equal(t, "cid-1", payload.CorrelationID)
}

func TestParseResumePurgePayload_Invalid(t *testing.T) {
	_, err := ParseResumePurgePayload(asynq.NewTask(TypeResumePurge, []byte(`{"user_id":0}`)))
	assert.ErrorContains(t, err, "missing user_id")

	_, err = ParseResumePurgePayload(asynq.NewTask(TypeResumePurge, []byte(`not json`)))
	assert.Error(t, err)
}
