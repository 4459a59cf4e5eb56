package processor

import (
	"context"
	"errors"
	"sync"

	"job-apply-go/internal/logger"
	"job-apply-go/internal/tracing"
	"job-apply-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Aggregator 批量拉取申请记录并并发拼装展示视图。
// 基础列表获取失败整体报错，单条拼装失败只丢弃该条并记录诊断信息。
type Aggregator struct {
	applications ApplicationStore
	enricher     Enricher

	// 单次聚合允许的最大并发拼装数，<=0 表示不限制
	maxConcurrent int

	tracer trace.Tracer
}

// NewAggregator 创建聚合器
func NewAggregator(applications ApplicationStore, enricher Enricher, maxConcurrent int) *Aggregator {
	return &Aggregator{
		applications:  applications,
		enricher:      enricher,
		maxConcurrent: maxConcurrent,
		tracer:        otel.Tracer("application-aggregator"),
	}
}

// enrichOutcome 单条拼装的结果，经由fan-in通道收集
type enrichOutcome struct {
	enriched *types.EnrichedApplication
	failure  *types.EnrichmentFailure
}

// Aggregate 按范围聚合申请记录。
// 列表获取失败返回FetchError；上下文取消时停止派发并等待在途goroutine退出。
func (a *Aggregator) Aggregate(ctx context.Context, scope types.AggregateScope) (*types.AggregateResult, error) {
	ctx, span := a.tracer.Start(ctx, "aggregator.Aggregate",
		trace.WithAttributes(
			attribute.String("aggregate.scope", scope.String()),
		),
	)
	defer span.End()

	apps, err := a.applications.ListApplications(ctx, scope.UserID)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, NewFetchError(err.Error())
	}

	span.SetAttributes(attribute.Int("aggregate.application_count", len(apps)))

	if len(apps) == 0 {
		return &types.AggregateResult{}, nil
	}

	// 使用信号量控制并发
	var semaphore chan struct{}
	if a.maxConcurrent > 0 {
		semaphore = make(chan struct{}, a.maxConcurrent)
	}

	var wg sync.WaitGroup
	results := make(chan enrichOutcome, len(apps))

	dispatched := 0
	for _, app := range apps {
		// 取消后停止派发，在途的goroutine仍然收集
		if ctx.Err() != nil {
			break
		}

		if semaphore != nil {
			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}

		wg.Add(1)
		dispatched++

		go func(app *types.Application) {
			defer func() {
				if semaphore != nil {
					<-semaphore
				}
				wg.Done()
			}()

			enriched, err := a.enricher.Enrich(ctx, app)
			if err != nil {
				results <- enrichOutcome{failure: &types.EnrichmentFailure{
					ApplicationID: app.ApplicationID,
					Reason:        err.Error(),
					Err:           err,
				}}
				return
			}
			results <- enrichOutcome{enriched: enriched}
		}(app)
	}

	// 按派发数量精确收取结果，不依赖通道关闭
	result := &types.AggregateResult{
		Applications: make([]*types.EnrichedApplication, 0, dispatched),
	}
	for i := 0; i < dispatched; i++ {
		outcome := <-results
		if outcome.failure != nil {
			if errors.Is(outcome.failure.Err, context.Canceled) || errors.Is(outcome.failure.Err, context.DeadlineExceeded) {
				continue
			}
			logger.Ctx(ctx).Warn().
				Str("application_id", outcome.failure.ApplicationID).
				Str("reason", outcome.failure.Reason).
				Msg("申请记录拼装失败，已丢弃")
			result.Failures = append(result.Failures, *outcome.failure)
			continue
		}
		result.Applications = append(result.Applications, outcome.enriched)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("aggregate.enriched_count", len(result.Applications)),
		attribute.Int("aggregate.failure_count", len(result.Failures)),
	)
	return result, nil
}
