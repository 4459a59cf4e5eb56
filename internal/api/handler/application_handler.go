package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"job-apply-go/internal/config"
	"job-apply-go/internal/logger"
	"job-apply-go/internal/processor"
	storage2 "job-apply-go/internal/storage"
	"job-apply-go/internal/types"
)

// ApplicationHandler 申请处理器，负责协调申请的提交、聚合与状态流转
type ApplicationHandler struct {
	cfg             *config.Config
	storage         *storage2.Storage
	processorModule *processor.ApplicationProcessor // 组件聚合类
}

// NewApplicationHandler 创建申请处理器
func NewApplicationHandler(
	cfg *config.Config,
	storage *storage2.Storage,
	processorModule *processor.ApplicationProcessor,
) *ApplicationHandler {
	return &ApplicationHandler{
		cfg:             cfg,
		storage:         storage,
		processorModule: processorModule,
	}
}

// SubmissionResponse 申请提交响应
type SubmissionResponse struct {
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// ListResponse 申请列表响应
type ListResponse struct {
	Applications []*types.EnrichedApplication `json:"applications"`
	Failures     []types.EnrichmentFailure    `json:"failures,omitempty"`
	Total        int                          `json:"total"`
}

// HandleSubmit 处理申请提交请求
func (h *ApplicationHandler) HandleSubmit(ctx context.Context, jobID, userID, education, phone string,
	expYears int, expSummary string, attachment io.Reader, attachmentName string, attachmentSize int64) (*SubmissionResponse, error) {

	if h.processorModule == nil {
		return nil, fmt.Errorf("处理器模块未初始化")
	}

	req := &types.SubmissionRequest{
		JobID:     jobID,
		UserID:    userID,
		Education: education,
		Phone:     phone,
		Experience: types.Experience{
			Years:   expYears,
			Summary: expSummary,
		},
	}
	if attachment != nil {
		req.Attachment = &types.AttachmentUpload{
			Filename: attachmentName,
			Size:     attachmentSize,
			Content:  attachment,
		}
	}

	app, err := h.processorModule.SubmitApplication(ctx, req)
	if err != nil {
		return nil, err
	}

	return &SubmissionResponse{
		ApplicationID: app.ApplicationID,
		Status:        app.Status,
		AttachmentURL: app.AttachmentURL,
	}, nil
}

// HandleList 处理申请列表查询。userID为空时返回全量列表。
func (h *ApplicationHandler) HandleList(ctx context.Context, userID string) (*ListResponse, error) {
	if h.processorModule == nil {
		return nil, fmt.Errorf("处理器模块未初始化")
	}

	var result *types.AggregateResult
	var err error
	if userID == "" {
		result, err = h.processorModule.AggregateAll(ctx)
	} else {
		result, err = h.processorModule.AggregateForUser(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	return &ListResponse{
		Applications: result.Applications,
		Failures:     result.Failures,
		Total:        len(result.Applications),
	}, nil
}

// HandleSetStatus 处理审批结果更新
func (h *ApplicationHandler) HandleSetStatus(ctx context.Context, applicationID string, approved bool) error {
	if h.processorModule == nil {
		return fmt.Errorf("处理器模块未初始化")
	}
	return h.processorModule.SetStatus(ctx, applicationID, approved)
}

// HandleSetFeedback 处理审批反馈写入
func (h *ApplicationHandler) HandleSetFeedback(ctx context.Context, applicationID, feedback string) error {
	if h.processorModule == nil {
		return fmt.Errorf("处理器模块未初始化")
	}
	return h.processorModule.SetFeedback(ctx, applicationID, feedback)
}

// HandleDelete 处理申请删除
func (h *ApplicationHandler) HandleDelete(ctx context.Context, applicationID string) error {
	if h.processorModule == nil {
		return fmt.Errorf("处理器模块未初始化")
	}
	return h.processorModule.DeleteApplication(ctx, applicationID)
}

// HandleAttachmentURL 为指定申请生成附件的预签名下载URL
func (h *ApplicationHandler) HandleAttachmentURL(ctx context.Context, applicationID string) (string, error) {
	if h.storage == nil || h.storage.MinIO == nil {
		return "", fmt.Errorf("对象存储未初始化")
	}

	app, err := h.storage.MySQL.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, storage2.ErrNotFound) {
			return "", processor.NewNotFoundError(applicationID)
		}
		return "", err
	}
	if app.AttachmentURL == "" {
		return "", processor.NewNotFoundError(applicationID)
	}

	expiry := time.Duration(h.cfg.MinIO.PresignExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	url, err := h.storage.MinIO.GetPresignedURL(ctx, app.AttachmentURL, expiry)
	if err != nil {
		logger.Ctx(ctx).Error().
			Err(err).
			Str("application_id", applicationID).
			Msg("生成附件预签名URL失败")
		return "", err
	}
	return url, nil
}
