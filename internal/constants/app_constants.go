package constants

import "time"

// 申请状态枚举。提交时不写入任何状态，空字符串代表"未处理"这一合法初始态。
const (
	StatusUnset    = ""
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// 文档集合名称，与底层存储的表一一对应
const (
	CollectionApplications = "applications"
	CollectionAccounts     = "accounts"
	CollectionPostings     = "postings"
)

// 域事件类型
const (
	EventApplicationSubmitted = "application.submitted"
	EventStatusChanged        = "application.status_changed"
	EventFeedbackAdded        = "application.feedback_added"
	EventApplicationDeleted   = "application.deleted"
)

// UnknownApplicantEmail 账户缺失时审核端展示的占位邮箱
const UnknownApplicantEmail = "Unknown"

// Redis相关常量
const (
	// AttachmentMD5KeyPrefix 附件MD5去重映射的键前缀 (md5 -> MinIO对象键)
	AttachmentMD5KeyPrefix = "applications:attachment_md5:"
	// AttachmentMD5ExpireDefault MD5记录的默认过期时间
	AttachmentMD5ExpireDefault = 365 * 24 * time.Hour
)

// RabbitMQ相关默认值
const (
	DefaultEventsExchange   = "application.events.exchange"
	DefaultEventsQueue      = "q.application_events"
	DefaultEventsRoutingKey = "application.#"
)
