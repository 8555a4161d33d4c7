package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"rravin-be/internal/entity"
	"rravin-be/internal/pkg/logger"
	"rravin-be/internal/repository/contract"
	"rravin-be/internal/repository/specification"
	"rravin-be/internal/repository/unitofwork"
	"rravin-be/pkg/llm"

	"github.com/google/uuid"
)

var errFakeStore = errors.New("store write rejected")

// fakeStore is a shared in-memory backing store the fake repositories read
// and write. One store per test; the uow and factory are thin views over it.
type fakeStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*entity.Session
	files     []*entity.UploadedFile
	analyses  []*entity.Analysis
	chatTurns []*entity.ChatTurn

	failCreateTurn     bool
	failCreateAnalysis bool
	failCreateFile     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]*entity.Session),
	}
}

func (s *fakeStore) addSession(maxFiles int) *entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := &entity.Session{Id: uuid.New(), MaxFiles: maxFiles}
	s.sessions[session.Id] = session
	return session
}

type fakeFactory struct{ store *fakeStore }

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUOW{store: f.store}
}

func newFakeFactory(store *fakeStore) unitofwork.RepositoryFactory {
	return &fakeFactory{store: store}
}

type fakeUOW struct{ store *fakeStore }

func (u *fakeUOW) Begin(ctx context.Context) error { return nil }
func (u *fakeUOW) Commit() error                   { return nil }
func (u *fakeUOW) Rollback() error                 { return nil }

func (u *fakeUOW) SessionRepository() contract.SessionRepository {
	return &fakeSessionRepo{store: u.store}
}

func (u *fakeUOW) UploadedFileRepository() contract.UploadedFileRepository {
	return &fakeUploadedFileRepo{store: u.store}
}

func (u *fakeUOW) AnalysisRepository() contract.AnalysisRepository {
	return &fakeAnalysisRepo{store: u.store}
}

func (u *fakeUOW) ChatTurnRepository() contract.ChatTurnRepository {
	return &fakeChatTurnRepo{store: u.store}
}

// querySpec is the subset of specifications the fakes interpret.
type querySpec struct {
	id         *uuid.UUID
	sessionId  *uuid.UUID
	orderField string
	desc       bool
	limit      int
}

func interpret(specs []specification.Specification) querySpec {
	q := querySpec{}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			id := s.ID
			q.id = &id
		case specification.BySessionID:
			id := s.SessionID
			q.sessionId = &id
		case specification.OrderBy:
			q.orderField = s.Field
			q.desc = s.Desc
		case specification.Pagination:
			q.limit = s.Limit
		}
	}
	return q
}

// checkOrderColumn mimics Postgres rejecting an ORDER BY on a column the
// table does not have, so a sort field that drifts from the model mapping
// fails here instead of only in a live deployment.
func checkOrderColumn(q querySpec, columns ...string) error {
	if q.orderField == "" {
		return nil
	}
	for _, c := range columns {
		if q.orderField == c {
			return nil
		}
	}
	return fmt.Errorf("column %q does not exist", q.orderField)
}

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.sessions[session.Id] = session
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.Session) error {
	return r.Create(ctx, session)
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.sessions, id)
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	q := interpret(specs)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if q.id != nil {
		if s, ok := r.store.sessions[*q.id]; ok {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.sessions)), nil
}

func (r *fakeSessionRepo) ConsumeQuota(ctx context.Context, id uuid.UUID, count int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sessions[id]
	if !ok {
		return false, nil
	}
	next := s.FilesUploaded + count
	if next < 0 || next > s.MaxFiles {
		return false, nil
	}
	s.FilesUploaded = next
	return true, nil
}

type fakeUploadedFileRepo struct{ store *fakeStore }

func (r *fakeUploadedFileRepo) Create(ctx context.Context, file *entity.UploadedFile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failCreateFile {
		return errFakeStore
	}
	r.store.files = append(r.store.files, file)
	return nil
}

func (r *fakeUploadedFileRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UploadedFile, error) {
	q := interpret(specs)
	if err := checkOrderColumn(q, "id", "session_id", "original_name", "kind", "byte_size",
		"rows", "columns", "column_names", "stored_path", "created_at"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.UploadedFile
	for _, f := range r.store.files {
		if q.sessionId == nil || f.SessionId == *q.sessionId {
			out = append(out, f)
		}
	}
	if q.orderField == "created_at" {
		sort.SliceStable(out, func(i, j int) bool {
			if q.desc {
				return out[i].UploadedAt.After(out[j].UploadedAt)
			}
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		})
	}
	return out, nil
}

func (r *fakeUploadedFileRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	files, _ := r.FindAll(ctx, specs...)
	return int64(len(files)), nil
}

type fakeAnalysisRepo struct{ store *fakeStore }

func (r *fakeAnalysisRepo) Create(ctx context.Context, analysis *entity.Analysis) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failCreateAnalysis {
		return errFakeStore
	}
	r.store.analyses = append(r.store.analyses, analysis)
	return nil
}

func (r *fakeAnalysisRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeAnalysisRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Analysis, error) {
	q := interpret(specs)
	if err := checkOrderColumn(q, "id", "session_id", "summary", "key_metrics", "visualizations",
		"problems", "recommendations", "executive_report", "instructions", "created_at"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Analysis
	for _, a := range r.store.analyses {
		if q.id != nil && a.Id != *q.id {
			continue
		}
		if q.sessionId != nil && a.SessionId != *q.sessionId {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if q.limit > 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out, nil
}

func (r *fakeAnalysisRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type fakeChatTurnRepo struct{ store *fakeStore }

func (r *fakeChatTurnRepo) Create(ctx context.Context, turn *entity.ChatTurn) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failCreateTurn {
		return errFakeStore
	}
	r.store.chatTurns = append(r.store.chatTurns, turn)
	return nil
}

func (r *fakeChatTurnRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error) {
	q := interpret(specs)
	if err := checkOrderColumn(q, "id", "session_id", "user_message", "ai_response", "created_at"); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.ChatTurn
	for _, turn := range r.store.chatTurns {
		if q.sessionId == nil || turn.SessionId == *q.sessionId {
			out = append(out, turn)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if q.limit > 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out, nil
}

func (r *fakeChatTurnRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

// fakeLLM returns queued responses in order, then repeats the last one.
type fakeLLM struct {
	mu        sync.Mutex
	responses []fakeLLMResponse
	calls     int
	lastChat  []llm.Message
}

type fakeLLMResponse struct {
	content string
	err     error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastChat = history
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	r := f.responses[idx]
	return r.content, r.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

var _ logger.ILogger = nopLogger{}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}
