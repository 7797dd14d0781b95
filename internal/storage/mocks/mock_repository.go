// Package mocks holds gomock doubles for the storage interfaces. The file
// follows mockgen's layout; regenerate it with `go generate ./internal/storage`
// after changing storage.Repository.
package mocks

import (
	context "context"
	storage "osm-news/internal/storage"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockRepository is a mock of Repository interface.
type MockRepository struct {
	ctrl     *gomock.Controller
	recorder *MockRepositoryMockRecorder
	isgomock struct{}
}

// MockRepositoryMockRecorder is the mock recorder for MockRepository.
type MockRepositoryMockRecorder struct {
	mock *MockRepository
}

// NewMockRepository creates a new mock instance.
func NewMockRepository(ctrl *gomock.Controller) *MockRepository {
	mock := &MockRepository{ctrl: ctrl}
	mock.recorder = &MockRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRepository) EXPECT() *MockRepositoryMockRecorder {
	return m.recorder
}

// AppendScrapeLog mocks base method.
func (m *MockRepository) AppendScrapeLog(ctx context.Context, entry *storage.ScrapeLogEntry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AppendScrapeLog", ctx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// AppendScrapeLog indicates an expected call of AppendScrapeLog.
func (mr *MockRepositoryMockRecorder) AppendScrapeLog(ctx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AppendScrapeLog", reflect.TypeOf((*MockRepository)(nil).AppendScrapeLog), ctx, entry)
}

// Close mocks base method.
func (m *MockRepository) Close() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close")
	ret0, _ := ret[0].(error)
	return ret0
}

// Close indicates an expected call of Close.
func (mr *MockRepositoryMockRecorder) Close() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockRepository)(nil).Close))
}

// EnsureSchema mocks base method.
func (m *MockRepository) EnsureSchema(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EnsureSchema", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// EnsureSchema indicates an expected call of EnsureSchema.
func (mr *MockRepositoryMockRecorder) EnsureSchema(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EnsureSchema", reflect.TypeOf((*MockRepository)(nil).EnsureSchema), ctx)
}

// InsertArticle mocks base method.
func (m *MockRepository) InsertArticle(ctx context.Context, article *storage.Article) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "InsertArticle", ctx, article)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// InsertArticle indicates an expected call of InsertArticle.
func (mr *MockRepositoryMockRecorder) InsertArticle(ctx, article any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InsertArticle", reflect.TypeOf((*MockRepository)(nil).InsertArticle), ctx, article)
}

// ListArticles mocks base method.
func (m *MockRepository) ListArticles(ctx context.Context, filter storage.ArticleFilter) ([]storage.Article, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListArticles", ctx, filter)
	ret0, _ := ret[0].([]storage.Article)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListArticles indicates an expected call of ListArticles.
func (mr *MockRepositoryMockRecorder) ListArticles(ctx, filter any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListArticles", reflect.TypeOf((*MockRepository)(nil).ListArticles), ctx, filter)
}
