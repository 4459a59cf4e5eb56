package processor

import (
	"context"
	"errors"
	"time"

	"job-apply-go/internal/constants"
	"job-apply-go/internal/logger"
	"job-apply-go/internal/storage"
	"job-apply-go/internal/types"

	"github.com/google/uuid"
)

// StatusWorkflow 处理申请记录的状态流转、反馈与删除。
// 状态更新采用最后写入获胜语义，不做状态机前置校验。
type StatusWorkflow struct {
	applications ApplicationStore
	events       EventPublisher // 可为nil，事件发布为尽力而为
}

// NewStatusWorkflow 创建状态流转处理器
func NewStatusWorkflow(applications ApplicationStore, events EventPublisher) *StatusWorkflow {
	return &StatusWorkflow{
		applications: applications,
		events:       events,
	}
}

// SetStatus 设置审批结果。approved为true置为Approved，否则Rejected。
// 记录不存在返回ErrApplicationNotFound。
func (w *StatusWorkflow) SetStatus(ctx context.Context, applicationID string, approved bool) error {
	app, err := w.applications.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError(applicationID)
		}
		return NewStoreError(applicationID, err.Error())
	}

	status := constants.StatusRejected
	if approved {
		status = constants.StatusApproved
	}

	err = w.applications.UpdateApplicationFields(ctx, applicationID, map[string]interface{}{
		"status": status,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError(applicationID)
		}
		return NewStoreError(applicationID, err.Error())
	}

	logger.Ctx(ctx).Info().
		Str("application_id", applicationID).
		Str("status", status).
		Msg("申请状态已更新")

	w.publishEvent(ctx, constants.EventStatusChanged, app, status)
	return nil
}

// SetFeedback 写入审批反馈，与状态字段相互独立
func (w *StatusWorkflow) SetFeedback(ctx context.Context, applicationID, feedback string) error {
	app, err := w.applications.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError(applicationID)
		}
		return NewStoreError(applicationID, err.Error())
	}

	err = w.applications.UpdateApplicationFields(ctx, applicationID, map[string]interface{}{
		"feedback": feedback,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError(applicationID)
		}
		return NewStoreError(applicationID, err.Error())
	}

	w.publishEvent(ctx, constants.EventFeedbackAdded, app, app.Status)
	return nil
}

// Delete 删除申请记录，记录不存在返回ErrApplicationNotFound
func (w *StatusWorkflow) Delete(ctx context.Context, applicationID string) error {
	app, err := w.applications.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError(applicationID)
		}
		return NewStoreError(applicationID, err.Error())
	}

	if err := w.applications.DeleteApplication(ctx, applicationID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError(applicationID)
		}
		return NewStoreError(applicationID, err.Error())
	}

	logger.Ctx(ctx).Info().
		Str("application_id", applicationID).
		Msg("申请记录已删除")

	w.publishEvent(ctx, constants.EventApplicationDeleted, app, app.Status)
	return nil
}

// publishEvent 发布域事件。发布失败只记录日志，不影响主流程。
func (w *StatusWorkflow) publishEvent(ctx context.Context, eventType string, app *types.Application, status string) {
	if w.events == nil {
		return
	}

	event := &types.ApplicationEvent{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		ApplicationID: app.ApplicationID,
		JobID:         app.JobID,
		UserID:        app.UserID,
		Status:        status,
		OccurredAt:    time.Now(),
	}

	if err := w.events.PublishApplicationEvent(ctx, event); err != nil {
		logger.Ctx(ctx).Error().
			Err(err).
			Str("application_id", app.ApplicationID).
			Str("event_type", eventType).
			Msg("域事件入箱失败")
	}
}
