package processor

import (
	"io"
	"log"
	"time"

	"job-apply-go/internal/storage"
)

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// ----- 组件选项 -----

// WithcompApplications 设置申请记录存储组件
func WithcompApplications(store ApplicationStore) ComponentOpt {
	return func(c *Components) {
		c.Applications = store
	}
}

// WithcompAccounts 设置账号查询组件
func WithcompAccounts(store AccountStore) ComponentOpt {
	return func(c *Components) {
		c.Accounts = store
	}
}

// WithcompPostings 设置岗位查询组件
func WithcompPostings(store PostingStore) ComponentOpt {
	return func(c *Components) {
		c.Postings = store
	}
}

// WithcompAttachments 设置附件存储组件
func WithcompAttachments(store AttachmentStore) ComponentOpt {
	return func(c *Components) {
		c.Attachments = store
	}
}

// WithcompDeduper 设置附件去重组件
func WithcompDeduper(deduper AttachmentDeduper) ComponentOpt {
	return func(c *Components) {
		c.Deduper = deduper
	}
}

// WithcompEvents 设置事件发布组件
func WithcompEvents(events EventPublisher) ComponentOpt {
	return func(c *Components) {
		c.Events = events
	}
}

// WithcompEnricher 设置拼装器组件
func WithcompEnricher(enricher Enricher) ComponentOpt {
	return func(c *Components) {
		c.Enricher = enricher
	}
}

// WithcompStorage 设置存储组件
func WithcompStorage(s *storage.Storage) ComponentOpt {
	return func(c *Components) {
		c.Storage = s
	}
}

// ----- 设置选项 -----

// WithsetMaxconcurrent 设置聚合时的最大并发拼装数
func WithsetMaxconcurrent(n int) SettingOpt {
	return func(s *Settings) {
		s.MaxConcurrentEnrichments = n
	}
}

// WithsetDebug 设置调试模式
func WithsetDebug(debug bool) SettingOpt {
	return func(s *Settings) {
		s.Debug = debug
	}
}

// WithsetLogger 设置日志记录器
func WithsetLogger(logger *log.Logger) SettingOpt {
	return func(s *Settings) {
		if logger != nil {
			s.Logger = logger
		} else {
			// 提供一个 discard logger 以防万一
			s.Logger = log.New(io.Discard, "[NilLoggerFallback] ", log.LstdFlags)
		}
	}
}

// WithsetTimelocation 设置时区
func WithsetTimelocation(loc *time.Location) SettingOpt {
	return func(s *Settings) {
		if loc != nil {
			s.TimeLocation = loc
		} else {
			s.TimeLocation = time.Local
		}
	}
}

// logDebug 记录调试级别日志
func (p *ApplicationProcessor) logDebug(format string, args ...interface{}) {
	if p.Config.Debug && p.Config.Logger != nil {
		p.Config.Logger.Printf(format, args...)
	}
}

// logWarn 记录警告级别日志
func (p *ApplicationProcessor) logWarn(format string, args ...interface{}) {
	if p.Config.Logger != nil {
		p.Config.Logger.Printf("[WARN] "+format, args...)
	}
}
