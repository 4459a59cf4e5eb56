package processor

import (
	"context"
	"errors"
	"testing"

	"job-apply-go/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStatusApprove(t *testing.T) {
	apps := newMockApplicationStore(testApplication("app-1", "j1", "u1"))
	events := &mockEventPublisher{}
	wf := NewStatusWorkflow(apps, events)

	require.NoError(t, wf.SetStatus(context.Background(), "app-1", true))

	assert.Equal(t, constants.StatusApproved, apps.get("app-1").Status)
	assert.Equal(t, []string{constants.EventStatusChanged}, events.eventTypes())
}

func TestSetStatusLastWriteWins(t *testing.T) {
	apps := newMockApplicationStore(testApplication("app-1", "j1", "u1"))
	wf := NewStatusWorkflow(apps, nil)

	ctx := context.Background()
	require.NoError(t, wf.SetStatus(ctx, "app-1", true))
	assert.Equal(t, constants.StatusApproved, apps.get("app-1").Status)

	// 无状态机限制，后写覆盖前写
	require.NoError(t, wf.SetStatus(ctx, "app-1", false))
	assert.Equal(t, constants.StatusRejected, apps.get("app-1").Status)
}

func TestSetStatusNotFound(t *testing.T) {
	wf := NewStatusWorkflow(newMockApplicationStore(), nil)

	err := wf.SetStatus(context.Background(), "app-gone", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrApplicationNotFound))
}

func TestSetFeedbackIndependentOfStatus(t *testing.T) {
	apps := newMockApplicationStore(testApplication("app-1", "j1", "u1"))
	wf := NewStatusWorkflow(apps, nil)
	ctx := context.Background()

	require.NoError(t, wf.SetStatus(ctx, "app-1", true))
	require.NoError(t, wf.SetFeedback(ctx, "app-1", "经验符合要求"))

	app := apps.get("app-1")
	assert.Equal(t, constants.StatusApproved, app.Status, "写反馈不应改变状态")
	assert.Equal(t, "经验符合要求", app.Feedback)

	// 反馈可覆盖，状态保持不变
	require.NoError(t, wf.SetFeedback(ctx, "app-1", "补充：缺少项目经历"))
	app = apps.get("app-1")
	assert.Equal(t, constants.StatusApproved, app.Status)
	assert.Equal(t, "补充：缺少项目经历", app.Feedback)
}

func TestSetFeedbackNotFound(t *testing.T) {
	wf := NewStatusWorkflow(newMockApplicationStore(), nil)

	err := wf.SetFeedback(context.Background(), "app-gone", "any")
	assert.True(t, errors.Is(err, ErrApplicationNotFound))
}

func TestDeleteApplication(t *testing.T) {
	apps := newMockApplicationStore(
		testApplication("app-1", "j1", "u1"),
		testApplication("app-2", "j1", "u1"),
	)
	events := &mockEventPublisher{}
	wf := NewStatusWorkflow(apps, events)

	require.NoError(t, wf.Delete(context.Background(), "app-1"))
	assert.Nil(t, apps.get("app-1"))
	assert.NotNil(t, apps.get("app-2"))
	assert.Equal(t, []string{constants.EventApplicationDeleted}, events.eventTypes())
}

func TestDeleteMissingIsNotFoundWithoutMutation(t *testing.T) {
	apps := newMockApplicationStore(testApplication("app-1", "j1", "u1"))
	wf := NewStatusWorkflow(apps, nil)

	err := wf.Delete(context.Background(), "app-gone")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrApplicationNotFound))
	assert.Equal(t, 1, apps.count(), "删除不存在的记录不应有任何变更")
}

func TestEventPublishFailureDoesNotFailOperation(t *testing.T) {
	apps := newMockApplicationStore(testApplication("app-1", "j1", "u1"))
	events := &mockEventPublisher{err: errors.New("outbox unavailable")}
	wf := NewStatusWorkflow(apps, events)

	// 事件为尽力而为，发布失败不影响状态更新
	require.NoError(t, wf.SetStatus(context.Background(), "app-1", false))
	assert.Equal(t, constants.StatusRejected, apps.get("app-1").Status)
}
