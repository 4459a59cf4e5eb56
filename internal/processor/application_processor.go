package processor

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"job-apply-go/internal/config"
	"job-apply-go/internal/storage"
	"job-apply-go/internal/types"
)

// Components 业务逻辑组件集合，使用接口类型便于测试替换
type Components struct {
	// 核心组件接口
	Applications ApplicationStore  // 申请记录存储
	Accounts     AccountStore      // 账号查询
	Postings     PostingStore      // 岗位查询
	Attachments  AttachmentStore   // 附件存储
	Deduper      AttachmentDeduper // 附件去重，可为nil
	Events       EventPublisher    // 事件发布，可为nil
	Enricher     Enricher          // 拼装器，为nil时使用DefaultEnricher

	// 存储层依赖
	Storage *storage.Storage // 聚合的存储服务
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	MaxConcurrentEnrichments int            // 聚合时的最大并发拼装数
	Debug                    bool           // 是否开启调试模式
	Logger                   *log.Logger    // 日志记录器
	TimeLocation             *time.Location // 时区设置
}

// ApplicationProcessor 申请处理组件聚合类。
// 不控制处理流程本身，持有各子处理器并对外提供统一入口。
type ApplicationProcessor struct {
	Aggregator *Aggregator
	Submitter  *Submitter
	Workflow   *StatusWorkflow

	// 存储层依赖
	Storage *storage.Storage

	// 配置
	Config Settings
}

// NewApplicationProcessor 创建申请处理器
func NewApplicationProcessor(comp *Components, set *Settings, opts ...SettingOpt) *ApplicationProcessor {
	for _, opt := range opts {
		opt(set)
	}

	// 确保必要的默认值
	if set.Logger == nil {
		set.Logger = log.New(os.Stdout, "[Processor] ", log.LstdFlags)
	}
	if set.TimeLocation == nil {
		set.TimeLocation = time.Local
	}

	enricher := comp.Enricher
	if enricher == nil && comp.Postings != nil && comp.Accounts != nil {
		enricher = NewDefaultEnricher(comp.Postings, comp.Accounts)
	}

	p := &ApplicationProcessor{
		Storage: comp.Storage,
		Config:  *set,
	}

	if comp.Applications != nil && enricher != nil {
		p.Aggregator = NewAggregator(comp.Applications, enricher, set.MaxConcurrentEnrichments)
	}
	if comp.Applications != nil && comp.Attachments != nil {
		p.Submitter = NewSubmitter(comp.Applications, comp.Attachments, comp.Deduper, comp.Events)
	}
	if comp.Applications != nil {
		p.Workflow = NewStatusWorkflow(comp.Applications, comp.Events)
	}

	if p.Aggregator == nil || p.Workflow == nil {
		p.logWarn("ApplicationProcessor 的部分依赖未初始化，相关功能不可用")
	}

	return p
}

// CreateProcessor 便捷工厂函数，通过组件选项与设置选项装配处理器。
// 适用于需要显式替换个别组件的场景（如测试或局部降级）。
func CreateProcessor(compOpts []ComponentOpt, setOpts []SettingOpt) (*ApplicationProcessor, error) {
	components := &Components{}

	settings := &Settings{
		Debug:        false,
		Logger:       log.New(os.Stdout, "[Processor] ", log.LstdFlags),
		TimeLocation: time.Local,
	}

	// 应用组件选项
	for _, opt := range compOpts {
		opt(components)
	}

	// 应用设置选项
	for _, opt := range setOpts {
		opt(settings)
	}

	// 验证必要组件
	if components.Applications == nil {
		return nil, fmt.Errorf("必须提供申请记录存储组件")
	}

	return NewApplicationProcessor(components, settings), nil
}

// NewProcessorFromConfig 根据配置与存储服务装配处理器
func NewProcessorFromConfig(cfg *config.Config, storageManager *storage.Storage) (*ApplicationProcessor, error) {
	if storageManager == nil || storageManager.MySQL == nil {
		return nil, fmt.Errorf("存储服务未初始化")
	}

	comp := &Components{
		Applications: storageManager.MySQL,
		Accounts:     storageManager.MySQL,
		Postings:     storageManager.MySQL,
		Storage:      storageManager,
	}
	if storageManager.MinIO != nil {
		comp.Attachments = storageManager.MinIO
	}
	if storageManager.Redis != nil {
		comp.Deduper = storageManager.Redis
	}
	// 事件先写入发件箱，由中继服务投递，RabbitMQ不可用时不阻塞主流程
	comp.Events = storage.NewOutboxPublisher(storageManager.MySQL, cfg.RabbitMQ.EventsExchange)

	set := &Settings{
		MaxConcurrentEnrichments: cfg.Aggregator.MaxConcurrentEnrichments,
	}

	return NewApplicationProcessor(comp, set), nil
}

// SubmitApplication 提交申请
func (p *ApplicationProcessor) SubmitApplication(ctx context.Context, req *types.SubmissionRequest) (*types.Application, error) {
	if p.Submitter == nil {
		return nil, fmt.Errorf("ApplicationProcessor: Submitter is not initialized")
	}
	return p.Submitter.Submit(ctx, req)
}

// AggregateForUser 聚合指定用户的申请记录
func (p *ApplicationProcessor) AggregateForUser(ctx context.Context, userID string) (*types.AggregateResult, error) {
	if p.Aggregator == nil {
		return nil, fmt.Errorf("ApplicationProcessor: Aggregator is not initialized")
	}
	p.logDebug("聚合用户申请: user_id=%s", userID)
	return p.Aggregator.Aggregate(ctx, types.ScopeForUser(userID))
}

// AggregateAll 聚合全量申请记录，供审核端使用
func (p *ApplicationProcessor) AggregateAll(ctx context.Context) (*types.AggregateResult, error) {
	if p.Aggregator == nil {
		return nil, fmt.Errorf("ApplicationProcessor: Aggregator is not initialized")
	}
	return p.Aggregator.Aggregate(ctx, types.ScopeAll())
}

// SetStatus 设置审批结果
func (p *ApplicationProcessor) SetStatus(ctx context.Context, applicationID string, approved bool) error {
	if p.Workflow == nil {
		return fmt.Errorf("ApplicationProcessor: Workflow is not initialized")
	}
	return p.Workflow.SetStatus(ctx, applicationID, approved)
}

// SetFeedback 写入审批反馈
func (p *ApplicationProcessor) SetFeedback(ctx context.Context, applicationID, feedback string) error {
	if p.Workflow == nil {
		return fmt.Errorf("ApplicationProcessor: Workflow is not initialized")
	}
	return p.Workflow.SetFeedback(ctx, applicationID, feedback)
}

// DeleteApplication 删除申请记录
func (p *ApplicationProcessor) DeleteApplication(ctx context.Context, applicationID string) error {
	if p.Workflow == nil {
		return fmt.Errorf("ApplicationProcessor: Workflow is not initialized")
	}
	return p.Workflow.Delete(ctx, applicationID)
}
