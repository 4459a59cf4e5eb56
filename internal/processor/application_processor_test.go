package processor

import (
	"context"
	"io"
	"log"
	"testing"

	"job-apply-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProcessorWithComponentOptions(t *testing.T) {
	apps := newMockApplicationStore()
	attachments := newMockAttachmentStore()
	events := &mockEventPublisher{}

	p, err := CreateProcessor(
		[]ComponentOpt{
			WithcompApplications(apps),
			WithcompAccounts(newMockAccountStore(&types.Account{AccountID: "u1", Email: "a@x.com"})),
			WithcompPostings(newMockPostingStore(&types.Posting{JobID: "j1", Title: "Engineer"})),
			WithcompAttachments(attachments),
			WithcompDeduper(newMockDeduper()),
			WithcompEvents(events),
		},
		[]SettingOpt{
			WithsetMaxconcurrent(2),
			WithsetDebug(true),
			WithsetLogger(log.New(io.Discard, "", 0)),
		},
	)
	require.NoError(t, err)
	require.NotNil(t, p.Submitter)
	require.NotNil(t, p.Aggregator)
	require.NotNil(t, p.Workflow)
	assert.Equal(t, 2, p.Config.MaxConcurrentEnrichments)
	assert.True(t, p.Config.Debug)

	// 通过选项注入的组件应真正承接业务调用
	app, err := p.SubmitApplication(context.Background(), submissionRequest(nil))
	require.NoError(t, err)

	result, err := p.AggregateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, result.Applications, 1)
	assert.Equal(t, app.ApplicationID, result.Applications[0].ApplicationID)
	assert.Equal(t, "Engineer", result.Applications[0].JobTitle)
}

func TestCreateProcessorRequiresApplicationStore(t *testing.T) {
	_, err := CreateProcessor(
		[]ComponentOpt{WithcompAccounts(newMockAccountStore())},
		nil,
	)
	require.Error(t, err)
}

func TestWithcompEnricherOverridesDefault(t *testing.T) {
	apps := newMockApplicationStore(testApplication("app-1", "j1", "u1"))

	custom := &slowEnricher{}
	p, err := CreateProcessor(
		[]ComponentOpt{
			WithcompApplications(apps),
			WithcompEnricher(custom),
		},
		[]SettingOpt{WithsetLogger(log.New(io.Discard, "", 0))},
	)
	require.NoError(t, err)

	result, err := p.AggregateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Applications, 1)
	assert.EqualValues(t, 1, custom.maxSeen.Load(), "聚合应走注入的拼装器")
}
