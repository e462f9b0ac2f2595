package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerzync/internal/advisor"
	"github.com/muhammadolammi/careerzync/internal/ats"
	"github.com/muhammadolammi/careerzync/internal/chat"
	"github.com/muhammadolammi/careerzync/internal/database"
	"github.com/muhammadolammi/careerzync/internal/index"
	"github.com/muhammadolammi/careerzync/internal/resume"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Store is the subset of database.Queries the app uses.
type Store interface {
	CreateSession(ctx context.Context, arg database.CreateSessionParams) (database.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (database.Session, error)
	UpdateSessionStatus(ctx context.Context, arg database.UpdateSessionStatusParams) error
	CreateResume(ctx context.Context, arg database.CreateResumeParams) (database.Resume, error)
	GetResumesBySession(ctx context.Context, sessionID uuid.UUID) ([]database.Resume, error)
	CreateOrUpdateAnalysesResults(ctx context.Context, arg database.CreateOrUpdateAnalysesResultsParams) error
	GetAnalysesResultsBySession(ctx context.Context, sessionID uuid.UUID) (database.AnalysesResult, error)
	CreateChatMessage(ctx context.Context, arg database.CreateChatMessageParams) (database.ChatMessage, error)
	GetChatMessagesBySession(ctx context.Context, sessionID uuid.UUID) ([]database.ChatMessage, error)
}

type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type Broker interface {
	PublishSession(ctx context.Context, s Session) error
	PublishSessionUpdate(ctx context.Context, sessionID string, update map[string]any) error
}

type Runner interface {
	Run(ctx context.Context, in advisor.Input) (*advisor.Outcome, error)
}

type App struct {
	DB        Store
	Objects   ObjectStore
	Broker    Broker
	Pipeline  Runner
	Embedder  index.Embedder
	ChatModel chat.Model
	Logger    *slog.Logger

	RabbitMQURL string
	Indexes     *indexCache
}

// Session is the queue message for one analysis request.
type Session struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	JobTitle       string    `json:"job_title"`
	JobDescription string    `json:"job_description"`
	AssumedScore   float64   `json:"assumed_score"`
}

func sessionFromDB(s database.Session) Session {
	return Session{
		ID:             s.ID,
		CreatedAt:      s.CreatedAt,
		Name:           s.Name,
		Status:         s.Status,
		JobTitle:       s.JobTitle,
		JobDescription: s.JobDescription,
		AssumedScore:   s.AssumedScore,
	}
}

type AnalysisResponse struct {
	ID             uuid.UUID       `json:"id"`
	Status         string          `json:"status"`
	JobTitle       string          `json:"job_title"`
	JobDescription string          `json:"job_description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Results        *ats.Result     `json:"results,omitempty"`
	Sections       resume.Sections `json:"sections,omitempty"`
	Comparison     *ComparisonBody `json:"comparison,omitempty"`
}

type ComparisonBody struct {
	ats.Comparison
	Summary string `json:"summary"`
}

type ChatRequest struct {
	Query string `json:"query"`
}

type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

func chatMessageFromDB(m database.ChatMessage) ChatMessage {
	return ChatMessage{
		ID:        m.ID,
		Query:     m.Query,
		Response:  m.Response,
		CreatedAt: m.CreatedAt,
	}
}
