package processor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"job-apply-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator(apps *mockApplicationStore, postings *mockPostingStore, accounts *mockAccountStore, maxConcurrent int) *Aggregator {
	return NewAggregator(apps, NewDefaultEnricher(postings, accounts), maxConcurrent)
}

func TestAggregateAllResolvable(t *testing.T) {
	apps := newMockApplicationStore(
		testApplication("app-1", "j1", "u1"),
		testApplication("app-2", "j2", "u1"),
		testApplication("app-3", "j1", "u2"),
	)
	postings := newMockPostingStore(
		&types.Posting{JobID: "j1", Title: "Engineer", CompanyLogo: "logo1"},
		&types.Posting{JobID: "j2", Title: "Designer", CompanyLogo: "logo2"},
	)
	accounts := newMockAccountStore(
		&types.Account{AccountID: "u1", Email: "a@x.com"},
		&types.Account{AccountID: "u2", Email: "b@x.com"},
	)

	agg := newTestAggregator(apps, postings, accounts, 4)

	result, err := agg.Aggregate(context.Background(), types.ScopeAll())
	require.NoError(t, err)
	require.Len(t, result.Applications, 3)
	assert.Empty(t, result.Failures)

	byID := make(map[string]*types.EnrichedApplication)
	for _, e := range result.Applications {
		byID[e.ApplicationID] = e
	}
	assert.Equal(t, "Engineer", byID["app-1"].JobTitle)
	assert.Equal(t, "a@x.com", byID["app-1"].ApplicantEmail)
	assert.Equal(t, "Designer", byID["app-2"].JobTitle)
	assert.Equal(t, "b@x.com", byID["app-3"].ApplicantEmail)
}

func TestAggregateScopeFiltersByUser(t *testing.T) {
	apps := newMockApplicationStore(
		testApplication("app-1", "j1", "u1"),
		testApplication("app-2", "j1", "u2"),
	)
	postings := newMockPostingStore(&types.Posting{JobID: "j1", Title: "Engineer"})
	accounts := newMockAccountStore(&types.Account{AccountID: "u1", Email: "a@x.com"})

	agg := newTestAggregator(apps, postings, accounts, 4)

	result, err := agg.Aggregate(context.Background(), types.ScopeForUser("u1"))
	require.NoError(t, err)
	require.Len(t, result.Applications, 1)
	assert.Equal(t, "app-1", result.Applications[0].ApplicationID)
}

func TestAggregateMissingReferencesDegrade(t *testing.T) {
	// 引用缺失的记录不丢弃，按默认值返回
	apps := newMockApplicationStore(
		testApplication("app-1", "j1", "u1"),
		testApplication("app-2", "j-gone", "u1"),
		testApplication("app-3", "j1", "u-gone"),
	)
	postings := newMockPostingStore(&types.Posting{JobID: "j1", Title: "Engineer"})
	accounts := newMockAccountStore(&types.Account{AccountID: "u1", Email: "a@x.com"})

	agg := newTestAggregator(apps, postings, accounts, 2)

	result, err := agg.Aggregate(context.Background(), types.ScopeAll())
	require.NoError(t, err)
	require.Len(t, result.Applications, 3)
	assert.Empty(t, result.Failures)

	byID := make(map[string]*types.EnrichedApplication)
	for _, e := range result.Applications {
		byID[e.ApplicationID] = e
	}
	assert.Empty(t, byID["app-2"].JobTitle)
	assert.Equal(t, "a@x.com", byID["app-2"].ApplicantEmail)
	assert.Equal(t, "Engineer", byID["app-3"].JobTitle)
	assert.Equal(t, "Unknown", byID["app-3"].ApplicantEmail)
}

func TestAggregateLookupFailureDropsItem(t *testing.T) {
	apps := newMockApplicationStore(
		testApplication("app-1", "j1", "u1"),
		testApplication("app-2", "j-broken", "u1"),
		testApplication("app-3", "j1", "u1"),
	)
	postings := newMockPostingStore(&types.Posting{JobID: "j1", Title: "Engineer"})
	postings.errJobIDs["j-broken"] = fmt.Errorf("connection refused")
	accounts := newMockAccountStore(&types.Account{AccountID: "u1", Email: "a@x.com"})

	agg := newTestAggregator(apps, postings, accounts, 4)

	result, err := agg.Aggregate(context.Background(), types.ScopeAll())
	require.NoError(t, err, "单条查询失败不应导致整体失败")
	require.Len(t, result.Applications, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "app-2", result.Failures[0].ApplicationID)
	assert.True(t, errors.Is(result.Failures[0].Err, ErrLookupFailed))
}

func TestAggregateBaseFetchFailure(t *testing.T) {
	apps := newMockApplicationStore()
	apps.listErr = fmt.Errorf("table lock timeout")
	agg := newTestAggregator(apps, newMockPostingStore(), newMockAccountStore(), 4)

	_, err := agg.Aggregate(context.Background(), types.ScopeAll())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
}

func TestAggregateEmptyList(t *testing.T) {
	agg := newTestAggregator(newMockApplicationStore(), newMockPostingStore(), newMockAccountStore(), 4)

	result, err := agg.Aggregate(context.Background(), types.ScopeAll())
	require.NoError(t, err)
	assert.Empty(t, result.Applications)
	assert.Empty(t, result.Failures)
}

func TestAggregateIdempotent(t *testing.T) {
	apps := newMockApplicationStore(
		testApplication("app-1", "j1", "u1"),
		testApplication("app-2", "j1", "u1"),
	)
	postings := newMockPostingStore(&types.Posting{JobID: "j1", Title: "Engineer"})
	accounts := newMockAccountStore(&types.Account{AccountID: "u1", Email: "a@x.com"})

	agg := newTestAggregator(apps, postings, accounts, 2)

	idsOf := func(result *types.AggregateResult) []string {
		var ids []string
		for _, e := range result.Applications {
			ids = append(ids, e.ApplicationID)
		}
		sort.Strings(ids)
		return ids
	}

	first, err := agg.Aggregate(context.Background(), types.ScopeAll())
	require.NoError(t, err)
	second, err := agg.Aggregate(context.Background(), types.ScopeAll())
	require.NoError(t, err)

	// 输入不变时两次聚合结果集合相同（顺序可能因并发不同）
	assert.Equal(t, idsOf(first), idsOf(second))
}

// slowEnricher 可控速度的拼装器，用于并发与取消测试
type slowEnricher struct {
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *slowEnricher) Enrich(ctx context.Context, app *types.Application) (*types.EnrichedApplication, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxSeen.Load()
		if cur <= prev || s.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &types.EnrichedApplication{Application: *app}, nil
}

func TestAggregateRespectsConcurrencyLimit(t *testing.T) {
	var applications []*types.Application
	for i := 0; i < 20; i++ {
		applications = append(applications, testApplication(fmt.Sprintf("app-%02d", i), "j1", "u1"))
	}
	apps := newMockApplicationStore(applications...)

	enricher := &slowEnricher{delay: 10 * time.Millisecond}
	agg := NewAggregator(apps, enricher, 4)

	result, err := agg.Aggregate(context.Background(), types.ScopeAll())
	require.NoError(t, err)
	assert.Len(t, result.Applications, 20)
	assert.LessOrEqual(t, enricher.maxSeen.Load(), int32(4), "并发拼装数不应超过上限")
}

func TestAggregateCancellationStopsDispatch(t *testing.T) {
	var applications []*types.Application
	for i := 0; i < 50; i++ {
		applications = append(applications, testApplication(fmt.Sprintf("app-%02d", i), "j1", "u1"))
	}
	apps := newMockApplicationStore(applications...)

	enricher := &slowEnricher{delay: 50 * time.Millisecond}
	agg := NewAggregator(apps, enricher, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := agg.Aggregate(ctx, types.ScopeAll())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("聚合在取消后未能及时返回")
	}

	// 在途goroutine已全部退出
	assert.Eventually(t, func() bool {
		return enricher.inFlight.Load() == 0
	}, time.Second, 10*time.Millisecond)
}
