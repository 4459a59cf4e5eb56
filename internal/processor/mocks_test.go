package processor

import (
	"context"
	"fmt"
	"io"
	"sync"

	"job-apply-go/internal/storage"
	"job-apply-go/internal/types"
)

// mockApplicationStore 内存版申请存储，mutex保护以便并发测试
type mockApplicationStore struct {
	mu   sync.Mutex
	apps map[string]*types.Application

	listErr   error
	saveErr   error
	updateErr error
}

func newMockApplicationStore(apps ...*types.Application) *mockApplicationStore {
	s := &mockApplicationStore{apps: make(map[string]*types.Application)}
	for _, app := range apps {
		copied := *app
		s.apps[app.ApplicationID] = &copied
	}
	return s
}

func (s *mockApplicationStore) GetApplication(ctx context.Context, applicationID string) (*types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[applicationID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (s *mockApplicationStore) ListApplications(ctx context.Context, userID string) ([]*types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var result []*types.Application
	for _, app := range s.apps {
		if userID != "" && app.UserID != userID {
			continue
		}
		copied := *app
		result = append(result, &copied)
	}
	return result, nil
}

func (s *mockApplicationStore) SaveApplication(ctx context.Context, app *types.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *app
	s.apps[app.ApplicationID] = &copied
	return nil
}

func (s *mockApplicationStore) UpdateApplicationFields(ctx context.Context, applicationID string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	app, ok := s.apps[applicationID]
	if !ok {
		return storage.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			app.Status = v.(string)
		case "feedback":
			app.Feedback = v.(string)
		}
	}
	return nil
}

func (s *mockApplicationStore) DeleteApplication(ctx context.Context, applicationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[applicationID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.apps, applicationID)
	return nil
}

func (s *mockApplicationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps)
}

func (s *mockApplicationStore) get(applicationID string) *types.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[applicationID]
	if !ok {
		return nil
	}
	copied := *app
	return &copied
}

// mockAccountStore 内存版账号存储
type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*types.Account
	getErr   error
}

func newMockAccountStore(accounts ...*types.Account) *mockAccountStore {
	s := &mockAccountStore{accounts: make(map[string]*types.Account)}
	for _, acc := range accounts {
		copied := *acc
		s.accounts[acc.AccountID] = &copied
	}
	return s
}

func (s *mockAccountStore) GetAccount(ctx context.Context, userID string) (*types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	acc, ok := s.accounts[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *acc
	return &copied, nil
}

// mockPostingStore 内存版岗位存储，支持针对特定jobID注入错误
type mockPostingStore struct {
	mu        sync.Mutex
	postings  map[string]*types.Posting
	getErr    error
	errJobIDs map[string]error
}

func newMockPostingStore(postings ...*types.Posting) *mockPostingStore {
	s := &mockPostingStore{
		postings:  make(map[string]*types.Posting),
		errJobIDs: make(map[string]error),
	}
	for _, p := range postings {
		copied := *p
		s.postings[p.JobID] = &copied
	}
	return s
}

func (s *mockPostingStore) GetPosting(ctx context.Context, jobID string) (*types.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if err, ok := s.errJobIDs[jobID]; ok {
		return nil, err
	}
	p, ok := s.postings[jobID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

// mockAttachmentStore 记录上传调用的附件存储
type mockAttachmentStore struct {
	mu        sync.Mutex
	uploaded  map[string][]byte
	uploadErr error
}

func newMockAttachmentStore() *mockAttachmentStore {
	return &mockAttachmentStore{uploaded: make(map[string][]byte)}
}

func (s *mockAttachmentStore) UploadAttachment(ctx context.Context, applicationID, fileExt string, reader io.Reader, fileSize int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	key := storage.AttachmentObjectKey(applicationID, fileExt)
	s.uploaded[key] = content
	return key, nil
}

func (s *mockAttachmentStore) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploaded)
}

// mockDeduper 内存版MD5去重
type mockDeduper struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMockDeduper() *mockDeduper {
	return &mockDeduper{entries: make(map[string]string)}
}

func (d *mockDeduper) CheckAndSetAttachmentMD5(ctx context.Context, md5Hex, objectKey string) (bool, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.entries[md5Hex]; ok {
		return true, existing, nil
	}
	d.entries[md5Hex] = objectKey
	return false, "", nil
}

func (d *mockDeduper) RemoveAttachmentMD5(ctx context.Context, md5Hex string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, md5Hex)
	return nil
}

// mockEventPublisher 收集发布的事件
type mockEventPublisher struct {
	mu     sync.Mutex
	events []*types.ApplicationEvent
	err    error
}

func (p *mockEventPublisher) PublishApplicationEvent(ctx context.Context, event *types.ApplicationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *mockEventPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result []string
	for _, e := range p.events {
		result = append(result, e.EventType)
	}
	return result
}

// testApplication 构造一条测试用申请记录
func testApplication(id, jobID, userID string) *types.Application {
	return &types.Application{
		ApplicationID: id,
		JobID:         jobID,
		UserID:        userID,
		Experience:    types.Experience{Years: 3, Summary: "后端开发"},
		Education:     "本科",
		Phone:         fmt.Sprintf("1380000%s", id),
	}
}
