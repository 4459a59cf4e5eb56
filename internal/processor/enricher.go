package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"job-apply-go/internal/constants"
	"job-apply-go/internal/logger"
	"job-apply-go/internal/storage"
	"job-apply-go/internal/types"
)

// DefaultEnricher 并发查询岗位与账号信息，拼装申请记录的展示视图。
// 关联数据缺失按默认值降级，存储层错误视为查询失败。
type DefaultEnricher struct {
	postings PostingStore
	accounts AccountStore
}

// NewDefaultEnricher 创建默认拼装器
func NewDefaultEnricher(postings PostingStore, accounts AccountStore) *DefaultEnricher {
	return &DefaultEnricher{
		postings: postings,
		accounts: accounts,
	}
}

// Enrich 拼装单条申请记录。岗位与账号两路查询并发执行：
//   - 岗位缺失：标题与Logo留空
//   - 账号缺失：申请人邮箱置为 "Unknown"
//   - 其他存储错误：返回LookupError，由调用方决定是否丢弃该条记录
func (e *DefaultEnricher) Enrich(ctx context.Context, app *types.Application) (*types.EnrichedApplication, error) {
	if app == nil {
		return nil, NewLookupError("", "申请记录为空")
	}

	enriched := &types.EnrichedApplication{
		Application:    *app,
		ApplicantEmail: constants.UnknownApplicantEmail,
	}

	var wg sync.WaitGroup
	var errChan = make(chan error, 2)
	var doneChan = make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		posting, err := e.postings.GetPosting(ctx, app.JobID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// 岗位已下线或被删除，保留空标题继续展示
				logger.Ctx(ctx).Debug().
					Str("application_id", app.ApplicationID).
					Str("job_id", app.JobID).
					Msg("岗位信息不存在，使用默认值")
				return
			}
			errChan <- fmt.Errorf("查询岗位信息失败: %w", err)
			return
		}
		enriched.JobTitle = posting.Title
		enriched.CompanyLogo = posting.CompanyLogo
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		account, err := e.accounts.GetAccount(ctx, app.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				logger.Ctx(ctx).Debug().
					Str("application_id", app.ApplicationID).
					Str("user_id", app.UserID).
					Msg("账号信息不存在，使用默认邮箱")
				return
			}
			errChan <- fmt.Errorf("查询账号信息失败: %w", err)
			return
		}
		enriched.ApplicantEmail = account.Email
	}()

	// 等待所有goroutine完成
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case err := <-errChan:
		return nil, NewLookupError(app.ApplicationID, err.Error())
	case <-doneChan:
		// doneChan关闭时errChan可能同时就绪，select随机选中doneChan会丢失错误，
		// 返回成功前必须再排空一次errChan
		select {
		case err := <-errChan:
			return nil, NewLookupError(app.ApplicationID, err.Error())
		default:
		}
		return enriched, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
