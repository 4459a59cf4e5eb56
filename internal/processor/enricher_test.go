package processor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"job-apply-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichWithFullReferences(t *testing.T) {
	postings := newMockPostingStore(&types.Posting{
		JobID:       "j1",
		Title:       "Engineer",
		Company:     "Acme",
		CompanyLogo: "https://cdn.example.com/acme.png",
	})
	accounts := newMockAccountStore(&types.Account{
		AccountID: "u1",
		Email:     "a@x.com",
	})

	enricher := NewDefaultEnricher(postings, accounts)
	app := testApplication("app-1", "j1", "u1")

	enriched, err := enricher.Enrich(context.Background(), app)
	require.NoError(t, err)

	assert.Equal(t, "Engineer", enriched.JobTitle)
	assert.Equal(t, "https://cdn.example.com/acme.png", enriched.CompanyLogo)
	assert.Equal(t, "a@x.com", enriched.ApplicantEmail)
	assert.Equal(t, "app-1", enriched.ApplicationID)
}

func TestEnrichMissingPostingUsesDefaults(t *testing.T) {
	postings := newMockPostingStore() // 无岗位数据
	accounts := newMockAccountStore(&types.Account{AccountID: "u1", Email: "a@x.com"})

	enricher := NewDefaultEnricher(postings, accounts)

	enriched, err := enricher.Enrich(context.Background(), testApplication("app-1", "j-gone", "u1"))
	require.NoError(t, err)

	assert.Empty(t, enriched.JobTitle)
	assert.Empty(t, enriched.CompanyLogo)
	assert.Equal(t, "a@x.com", enriched.ApplicantEmail)
}

func TestEnrichMissingAccountUsesUnknownEmail(t *testing.T) {
	postings := newMockPostingStore(&types.Posting{JobID: "j1", Title: "Engineer"})
	accounts := newMockAccountStore() // 无账号数据

	enricher := NewDefaultEnricher(postings, accounts)

	enriched, err := enricher.Enrich(context.Background(), testApplication("app-1", "j1", "u-gone"))
	require.NoError(t, err)

	assert.Equal(t, "Engineer", enriched.JobTitle)
	assert.Equal(t, "Unknown", enriched.ApplicantEmail)
}

func TestEnrichStoreFailureReturnsLookupError(t *testing.T) {
	postings := newMockPostingStore()
	postings.getErr = fmt.Errorf("connection refused")
	accounts := newMockAccountStore(&types.Account{AccountID: "u1", Email: "a@x.com"})

	enricher := NewDefaultEnricher(postings, accounts)

	_, err := enricher.Enrich(context.Background(), testApplication("app-1", "j1", "u1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupFailed), "底层存储错误应映射为查询失败")

	var procErr *ApplicationProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "app-1", procErr.ApplicationID)
}

// 两路查询都瞬间结束时，错误通道与完成通知可能同时就绪，
// select随机选择不能导致存储错误被当作成功降级返回。
func TestEnrichStoreFailureNeverReportsSuccess(t *testing.T) {
	postings := newMockPostingStore()
	postings.getErr = fmt.Errorf("connection refused")
	accounts := newMockAccountStore(&types.Account{AccountID: "u1", Email: "a@x.com"})

	enricher := NewDefaultEnricher(postings, accounts)
	app := testApplication("app-1", "j1", "u1")

	for i := 0; i < 20000; i++ {
		enriched, err := enricher.Enrich(context.Background(), app)
		require.Error(t, err, "第%d次调用把存储错误吞掉返回了成功 %+v", i, enriched)
		require.True(t, errors.Is(err, ErrLookupFailed))
	}
}

func TestEnrichCanceledContext(t *testing.T) {
	postings := newMockPostingStore(&types.Posting{JobID: "j1", Title: "Engineer"})
	accounts := newMockAccountStore(&types.Account{AccountID: "u1", Email: "a@x.com"})

	enricher := NewDefaultEnricher(postings, accounts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 已取消的上下文下，要么返回ctx错误，要么查询已完成
	enriched, err := enricher.Enrich(ctx, testApplication("app-1", "j1", "u1"))
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	} else {
		assert.NotNil(t, enriched)
	}
}

func TestEnrichNilApplication(t *testing.T) {
	enricher := NewDefaultEnricher(newMockPostingStore(), newMockAccountStore())

	_, err := enricher.Enrich(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupFailed))
}
