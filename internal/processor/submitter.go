package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"job-apply-go/internal/constants"
	"job-apply-go/internal/logger"
	"job-apply-go/internal/storage"
	"job-apply-go/internal/types"
	"job-apply-go/pkg/utils"

	"github.com/gofrs/uuid/v5"
	googleuuid "github.com/google/uuid"
)

// Submitter 处理申请提交：生成申请ID、上传附件并落库。
// 附件上传失败时不产生任何申请记录。
type Submitter struct {
	applications ApplicationStore
	attachments  AttachmentStore
	deduper      AttachmentDeduper // 可为nil，去重关闭时每次都上传
	events       EventPublisher    // 可为nil
}

// NewSubmitter 创建提交处理器
func NewSubmitter(applications ApplicationStore, attachments AttachmentStore, deduper AttachmentDeduper, events EventPublisher) *Submitter {
	return &Submitter{
		applications: applications,
		attachments:  attachments,
		deduper:      deduper,
		events:       events,
	}
}

// Submit 提交一份申请。
// 申请ID缺省时生成UUIDv7，保证按时间有序。附件内容按MD5去重，
// 相同内容直接复用已有对象键，避免重复上传。
func (s *Submitter) Submit(ctx context.Context, req *types.SubmissionRequest) (*types.Application, error) {
	if req == nil {
		return nil, &ApplicationProcessError{Op: "submit", BaseErr: ErrInvalidSubmission, Detail: "请求为空"}
	}
	if req.JobID == "" || req.UserID == "" {
		return nil, &ApplicationProcessError{
			ApplicationID: req.ApplicationID,
			Op:            "submit",
			BaseErr:       ErrInvalidSubmission,
			Detail:        "job_id和user_id不能为空",
		}
	}

	applicationID := req.ApplicationID
	if applicationID == "" {
		v7, err := uuid.NewV7()
		if err != nil {
			return nil, NewStoreError("", fmt.Sprintf("生成申请ID失败: %v", err))
		}
		applicationID = v7.String()
	}

	var attachmentURL string
	if req.Attachment != nil {
		key, err := s.storeAttachment(ctx, applicationID, req.Attachment)
		if err != nil {
			// 附件上传失败，不落库
			return nil, err
		}
		attachmentURL = key
	}

	now := time.Now()
	app := &types.Application{
		ApplicationID: applicationID,
		JobID:         req.JobID,
		UserID:        req.UserID,
		Experience:    req.Experience,
		Education:     req.Education,
		Phone:         req.Phone,
		AttachmentURL: attachmentURL,
		Status:        constants.StatusUnset,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.applications.SaveApplication(ctx, app); err != nil {
		return nil, NewStoreError(applicationID, err.Error())
	}

	logger.Ctx(ctx).Info().
		Str("application_id", applicationID).
		Str("job_id", req.JobID).
		Str("user_id", req.UserID).
		Msg("申请已提交")

	s.publishSubmitted(ctx, app)
	return app, nil
}

// storeAttachment 上传附件并返回对象键。内容MD5命中去重时直接复用已有对象键。
func (s *Submitter) storeAttachment(ctx context.Context, applicationID string, att *types.AttachmentUpload) (string, error) {
	content, err := io.ReadAll(att.Content)
	if err != nil {
		return "", NewUploadError(applicationID, fmt.Sprintf("读取附件内容失败: %v", err))
	}

	md5Hex := utils.CalculateMD5(content)
	ext := path.Ext(att.Filename)
	objectKey := storage.AttachmentObjectKey(applicationID, ext)

	registered := false
	if s.deduper != nil {
		exists, existingKey, err := s.deduper.CheckAndSetAttachmentMD5(ctx, md5Hex, objectKey)
		if err != nil {
			// 去重不可用时继续上传，只是失去去重能力
			logger.Ctx(ctx).Warn().
				Err(err).
				Str("application_id", applicationID).
				Msg("附件MD5去重检查失败，继续上传")
		} else if exists {
			logger.Ctx(ctx).Info().
				Str("application_id", applicationID).
				Str("md5", md5Hex).
				Str("object_key", existingKey).
				Msg("检测到重复附件内容，复用已有对象")
			return existingKey, nil
		} else {
			registered = true
		}
	}

	uploadedKey, err := s.attachments.UploadAttachment(ctx, applicationID, ext, bytes.NewReader(content), int64(len(content)))
	if err != nil {
		if registered {
			// 回滚登记，避免后续相同内容命中一个不存在的对象
			if errDel := s.deduper.RemoveAttachmentMD5(ctx, md5Hex); errDel != nil {
				logger.Ctx(ctx).Warn().
					Err(errDel).
					Str("md5", md5Hex).
					Msg("回滚附件MD5登记失败")
			}
		}
		return "", NewUploadError(applicationID, err.Error())
	}
	return uploadedKey, nil
}

// publishSubmitted 发布提交事件，失败只记录日志
func (s *Submitter) publishSubmitted(ctx context.Context, app *types.Application) {
	if s.events == nil {
		return
	}

	event := &types.ApplicationEvent{
		EventID:       googleuuid.New().String(),
		EventType:     constants.EventApplicationSubmitted,
		ApplicationID: app.ApplicationID,
		JobID:         app.JobID,
		UserID:        app.UserID,
		Status:        app.Status,
		OccurredAt:    time.Now(),
	}

	if err := s.events.PublishApplicationEvent(ctx, event); err != nil {
		logger.Ctx(ctx).Error().
			Err(err).
			Str("application_id", app.ApplicationID).
			Msg("域事件入箱失败")
	}
}
