package processor

import (
	"context"
	"io"

	"job-apply-go/internal/types"
)

//
// 存储相关接口
//

// ApplicationStore 申请记录存储接口
type ApplicationStore interface {
	// GetApplication 按ID获取单条申请记录
	GetApplication(ctx context.Context, applicationID string) (*types.Application, error)

	// ListApplications 按范围列出申请记录。userID为空表示全量。
	ListApplications(ctx context.Context, userID string) ([]*types.Application, error)

	// SaveApplication 保存申请记录
	SaveApplication(ctx context.Context, app *types.Application) error

	// UpdateApplicationFields 更新指定字段
	UpdateApplicationFields(ctx context.Context, applicationID string, fields map[string]interface{}) error

	// DeleteApplication 删除申请记录
	DeleteApplication(ctx context.Context, applicationID string) error
}

// AccountStore 账号查询接口
type AccountStore interface {
	// GetAccount 按用户ID获取账号信息
	GetAccount(ctx context.Context, userID string) (*types.Account, error)
}

// PostingStore 岗位查询接口
type PostingStore interface {
	// GetPosting 按岗位ID获取岗位信息
	GetPosting(ctx context.Context, jobID string) (*types.Posting, error)
}

// AttachmentStore 附件存储接口
type AttachmentStore interface {
	// UploadAttachment 上传附件，返回对象键
	UploadAttachment(ctx context.Context, applicationID, fileExt string, reader io.Reader, fileSize int64) (string, error)
}

// AttachmentDeduper 附件MD5去重接口
type AttachmentDeduper interface {
	// CheckAndSetAttachmentMD5 检查MD5是否已存在，不存在则登记。
	// 返回是否命中以及命中时已存在的对象键。
	CheckAndSetAttachmentMD5(ctx context.Context, md5Hex, objectKey string) (bool, string, error)

	// RemoveAttachmentMD5 移除登记，上传失败回滚时使用
	RemoveAttachmentMD5(ctx context.Context, md5Hex string) error
}

// EventPublisher 域事件发布接口
type EventPublisher interface {
	// PublishApplicationEvent 发布申请域事件
	PublishApplicationEvent(ctx context.Context, event *types.ApplicationEvent) error
}

//
// 聚合相关接口
//

// Enricher 将单条申请记录与岗位、账号信息拼装为展示视图
type Enricher interface {
	// Enrich 拼装单条申请记录。缺失的关联数据按默认值降级，
	// 底层存储错误返回LookupError。
	Enrich(ctx context.Context, app *types.Application) (*types.EnrichedApplication, error)
}
