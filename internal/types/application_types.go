package types

import (
	"fmt"
	"io"
	"time"
)

// Experience 候选人经验，结构化存储 (年限 + 自由文本)
type Experience struct {
	Years   int    `json:"years"`   // 工作年限
	Summary string `json:"summary"` // 经验描述自由文本
}

// Application 一份候选人针对某个岗位的申请记录
type Application struct {
	ApplicationID string     `json:"application_id"` // 全局唯一，提交时如缺失则生成
	JobID         string     `json:"job_id"`         // 外键 -> Posting
	UserID        string     `json:"user_id"`        // 外键 -> Account
	Experience    Experience `json:"experience"`
	Education     string     `json:"education"`
	Phone         string     `json:"phone"`
	AttachmentURL string     `json:"attachment_url,omitempty"` // 附件对象引用，可为空
	Status        string     `json:"status"`                   // ""/Pending/Approved/Rejected，提交时不写入
	Feedback      string     `json:"feedback,omitempty"`       // 审核人反馈，可在任意状态下覆盖
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Account 账户信息，归属外部身份子系统，本服务只读
type Account struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Name      string `json:"name"`
}

// Posting 岗位信息，本服务只读
type Posting struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	CompanyLogo string `json:"company_logo"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// EnrichedApplication 富化后的申请记录。
// 派生字段在每次富化时整体覆盖，引用记录缺失时取显式默认值，
// 绝不保留上一轮富化的残留值，也不回写到存储。
type EnrichedApplication struct {
	Application

	JobTitle       string `json:"job_title"`       // 来自Posting.Title，缺失时为空串
	CompanyLogo    string `json:"company_logo"`    // 来自Posting.CompanyLogo，缺失时为空串
	ApplicantEmail string `json:"applicant_email"` // 来自Account.Email，缺失时为"Unknown"
}

// AggregateScope 聚合范围：指定UserID时为单个用户，否则为全量
type AggregateScope struct {
	UserID string
}

// ScopeForUser 构造单用户聚合范围
func ScopeForUser(userID string) AggregateScope {
	return AggregateScope{UserID: userID}
}

// ScopeAll 构造全量聚合范围
func ScopeAll() AggregateScope {
	return AggregateScope{}
}

// All 是否为全量范围
func (s AggregateScope) All() bool {
	return s.UserID == ""
}

func (s AggregateScope) String() string {
	if s.All() {
		return "all"
	}
	return fmt.Sprintf("user:%s", s.UserID)
}

// EnrichmentFailure 单条富化失败的诊断信息。
// 失败条目从聚合结果中剔除，但必须以诊断形式随结果返回，不允许静默丢弃。
type EnrichmentFailure struct {
	ApplicationID string `json:"application_id"`
	Reason        string `json:"reason"`
	Err           error  `json:"-"`
}

// AggregateResult 一次聚合调用的终结结果：成功富化的记录 + 失败诊断
type AggregateResult struct {
	Applications []*EnrichedApplication `json:"applications"`
	Failures     []EnrichmentFailure    `json:"failures,omitempty"`
}

// AttachmentUpload 提交时附带的附件内容
type AttachmentUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// SubmissionRequest 一次申请提交的输入
type SubmissionRequest struct {
	ApplicationID string // 可选，缺失时由提交处理器生成
	JobID         string
	UserID        string
	Experience    Experience
	Education     string
	Phone         string
	Attachment    *AttachmentUpload // 可选
}

// ApplicationEvent 申请生命周期域事件，经outbox中继发布到消息队列
type ApplicationEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	ApplicationID string    `json:"application_id"`
	JobID         string    `json:"job_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
