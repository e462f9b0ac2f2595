package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerzync/internal/advisor"
	"github.com/muhammadolammi/careerzync/internal/ats"
	"github.com/muhammadolammi/careerzync/internal/chat"
	"github.com/muhammadolammi/careerzync/internal/database"
	"github.com/muhammadolammi/careerzync/internal/index"
	"github.com/muhammadolammi/careerzync/internal/resume"
	"github.com/muhammadolammi/careerzync/internal/storage"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]database.Session
	resumes  map[uuid.UUID][]database.Resume
	results  map[uuid.UUID]database.AnalysesResult
	messages map[uuid.UUID][]database.ChatMessage
	statuses []string
	failOn   string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]database.Session),
		resumes:  make(map[uuid.UUID][]database.Resume),
		results:  make(map[uuid.UUID]database.AnalysesResult),
		messages: make(map[uuid.UUID][]database.ChatMessage),
	}
}

var errStore = errors.New("store unavailable")

func (s *fakeStore) fail(op string) error {
	if s.failOn == op {
		return errStore
	}
	return nil
}

func (s *fakeStore) CreateSession(_ context.Context, arg database.CreateSessionParams) (database.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateSession"); err != nil {
		return database.Session{}, err
	}
	sess := database.Session{
		ID:             arg.ID,
		CreatedAt:      time.Now(),
		Name:           arg.Name,
		Status:         arg.Status,
		JobTitle:       arg.JobTitle,
		JobDescription: arg.JobDescription,
		AssumedScore:   arg.AssumedScore,
	}
	s.sessions[arg.ID] = sess
	return sess, nil
}

func (s *fakeStore) GetSession(_ context.Context, id uuid.UUID) (database.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return database.Session{}, sql.ErrNoRows
	}
	return sess, nil
}

// UpdateSessionStatus fails on a done context the way database/sql does.
func (s *fakeStore) UpdateSessionStatus(ctx context.Context, arg database.UpdateSessionStatusParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	s.statuses = append(s.statuses, arg.Status)
	sess, ok := s.sessions[arg.ID]
	if !ok {
		return sql.ErrNoRows
	}
	sess.Status = arg.Status
	s.sessions[arg.ID] = sess
	return nil
}

func (s *fakeStore) CreateResume(_ context.Context, arg database.CreateResumeParams) (database.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := database.Resume{
		ID:               arg.ID,
		OriginalFilename: arg.OriginalFilename,
		Mime:             arg.Mime,
		SizeBytes:        arg.SizeBytes,
		StorageProvider:  arg.StorageProvider,
		ObjectKey:        arg.ObjectKey,
		UploadStatus:     arg.UploadStatus,
		CreatedAt:        time.Now(),
		SessionID:        arg.SessionID,
	}
	s.resumes[arg.SessionID] = append(s.resumes[arg.SessionID], r)
	return r, nil
}

func (s *fakeStore) GetResumesBySession(_ context.Context, id uuid.UUID) ([]database.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumes[id], nil
}

func (s *fakeStore) CreateOrUpdateAnalysesResults(_ context.Context, arg database.CreateOrUpdateAnalysesResultsParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateOrUpdateAnalysesResults"); err != nil {
		return err
	}
	s.results[arg.SessionID] = database.AnalysesResult{
		ID:             uuid.New(),
		Results:        arg.Results,
		Sections:       arg.Sections,
		JobDescription: arg.JobDescription,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		SessionID:      arg.SessionID,
	}
	return nil
}

func (s *fakeStore) GetAnalysesResultsBySession(_ context.Context, id uuid.UUID) (database.AnalysesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		return database.AnalysesResult{}, sql.ErrNoRows
	}
	return r, nil
}

func (s *fakeStore) CreateChatMessage(_ context.Context, arg database.CreateChatMessageParams) (database.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := database.ChatMessage{
		ID:        arg.ID,
		SessionID: arg.SessionID,
		Query:     arg.Query,
		Response:  arg.Response,
		CreatedAt: time.Now(),
	}
	s.messages[arg.SessionID] = append(s.messages[arg.SessionID], m)
	return m, nil
}

func (s *fakeStore) GetChatMessagesBySession(_ context.Context, id uuid.UUID) ([]database.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id], nil
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErrs int
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (o *fakeObjects) Put(_ context.Context, key, _ string, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = append([]byte(nil), data...)
	return nil
}

func (o *fakeObjects) Get(_ context.Context, key string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.getErrs > 0 {
		o.getErrs--
		return nil, errors.New("connection reset")
	}
	data, ok := o.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

type fakeBroker struct {
	mu         sync.Mutex
	sessions   []Session
	updates    []map[string]any
	publishErr error
}

func (b *fakeBroker) PublishSession(_ context.Context, s Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.sessions = append(b.sessions, s)
	return nil
}

func (b *fakeBroker) PublishSessionUpdate(_ context.Context, _ string, update map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, update)
	return nil
}

func (b *fakeBroker) statuses() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, u := range b.updates {
		out = append(out, u["status"].(string))
	}
	return out
}

// unitEmbedder maps every text to the same direction.
type unitEmbedder struct{}

func (unitEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (unitEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type fakeChatModel struct {
	mu       sync.Mutex
	prompts  []string
	err      error
	live     map[string]bool
	restored map[string][]chat.Turn
}

func (m *fakeChatModel) Reply(_ context.Context, conversationID string, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.live == nil {
		m.live = make(map[string]bool)
	}
	m.live[conversationID] = true
	m.prompts = append(m.prompts, prompt)
	return "  Add Kubernetes to your skills.  ", nil
}

func (m *fakeChatModel) Resume(ctx context.Context, conversationID string, history chat.HistoryFunc) error {
	m.mu.Lock()
	live := m.live[conversationID]
	m.mu.Unlock()
	if live {
		return nil
	}
	turns, err := history(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.restored == nil {
		m.restored = make(map[string][]chat.Turn)
	}
	m.restored[conversationID] = turns
	return nil
}

// forget simulates a restart of the chat model.
func (m *fakeChatModel) forget() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live = nil
	m.restored = nil
}

type fakeRunner struct {
	got    advisor.Input
	err    error
	during func()
}

func (r *fakeRunner) Run(ctx context.Context, in advisor.Input) (*advisor.Outcome, error) {
	r.got = in
	if r.during != nil {
		r.during()
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ats analysis: %w", err)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	result := &ats.Result{Score: 68, Skills: []string{"Go"}, Keywords: []string{"distributed systems"}}
	sections := resume.SplitSections(string(in.Resume))
	docs, err := index.BuildDocuments(string(in.Resume), sections, result)
	if err != nil {
		return nil, err
	}
	idx, err := index.Build(ctx, unitEmbedder{}, docs)
	if err != nil {
		return nil, err
	}
	return &advisor.Outcome{
		ResumeText:     string(in.Resume),
		Sections:       sections,
		JobDescription: "resolved: " + in.JobTitle,
		Result:         result,
		Index:          idx,
	}, nil
}

type testApp struct {
	*App
	store   *fakeStore
	objects *fakeObjects
	broker  *fakeBroker
	runner  *fakeRunner
	chat    *fakeChatModel
}

func newTestApp() *testApp {
	store := newFakeStore()
	objects := newFakeObjects()
	broker := &fakeBroker{}
	runner := &fakeRunner{}
	chatModel := &fakeChatModel{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testApp{
		App: &App{
			DB:        store,
			Objects:   objects,
			Broker:    broker,
			Pipeline:  runner,
			Embedder:  unitEmbedder{},
			ChatModel: chatModel,
			Logger:    log,
			Indexes:   newIndexCache(objects, "", log),
		},
		store:   store,
		objects: objects,
		broker:  broker,
		runner:  runner,
		chat:    chatModel,
	}
}
